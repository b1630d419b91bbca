package magen

import (
	"log/slog"

	"github.com/forcedotcom/magen/graph"
)

// Node and Router are the concrete contracts the workflow graph is wired
// with: nodes transform State through returned patches, routers pick the next
// node by name.
type (
	Node   = graph.Node[State, Patch]
	Router = graph.Router[State]
)

// Node names used by the pre-wired workflows.
const (
	NodeUserInputTriage       = "user_input_triage"
	NodeUserInputExtraction   = "user_input_extraction"
	NodeGetUserInput          = "get_user_input"
	NodeTemplateDiscovery     = "template_discovery"
	NodeProjectGeneration     = "project_generation"
	NodeEnvironmentValidation = "environment_validation"
	NodePluginValidation      = "plugin_validation"
	NodeBuildValidation       = "build_validation"
	NodeAndroidEmulator       = "android_emulator"
	NodeAndroidInstallApp     = "android_install_app"
	NodeIOSDeployment         = "ios_deployment"
	NodePRDGeneration         = "prd_generation"
	NodeLWCEvaluation         = "lwc_evaluation"
	NodeWorkflowFailure       = "workflow_failure"
)

// Router names used by the pre-wired workflows.
const (
	RouterPropertiesFulfilled  = "check_properties_fulfilled"
	RouterFatalErrors          = "check_fatal_errors"
	RouterProjectGeneration    = "check_project_generation"
	RouterEnvironmentValidated = "check_environment_validated"
	RouterPluginValidated      = "check_plugin_validated"
	RouterBuildStatus          = "check_build_status"
)

// NodeOption configures common node collaborators.
type NodeOption func(*nodeConfig)

type nodeConfig struct {
	logger *slog.Logger
}

// WithNodeLogger sets a node's logger. Defaults to slog.Default().
func WithNodeLogger(l *slog.Logger) NodeOption {
	return func(c *nodeConfig) { c.logger = l }
}

func applyNodeOptions(opts []NodeOption) nodeConfig {
	cfg := nodeConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
