package magen

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/forcedotcom/magen/env"
	"github.com/forcedotcom/magen/run"
	"github.com/forcedotcom/magen/tool"
	"github.com/forcedotcom/magen/tools"
)

// =============================================================================
// TemplateDiscoveryNode
// =============================================================================

// TemplateDiscoveryNode asks the template discovery tool for the project
// template matching the target platform.
type TemplateDiscoveryNode struct {
	NodeName string

	exec   tool.Executor
	logger *slog.Logger
}

// NewTemplateDiscoveryNode creates the template discovery node.
func NewTemplateDiscoveryNode(exec tool.Executor, opts ...NodeOption) *TemplateDiscoveryNode {
	cfg := applyNodeOptions(opts)
	return &TemplateDiscoveryNode{
		NodeName: NodeTemplateDiscovery,
		exec:     exec,
		logger:   cfg.logger,
	}
}

func (n *TemplateDiscoveryNode) Name() string { return n.NodeName }

func (n *TemplateDiscoveryNode) Execute(ctx context.Context, s State) (Patch, error) {
	input := tools.TemplateDiscoveryInput{Platform: s.Platform}
	var result tools.TemplateDiscoveryResult
	if err := n.exec.Execute(ctx, tools.TemplateDiscoveryMeta, input, &result); err != nil {
		return nil, fmt.Errorf("template discovery: %w", err)
	}
	return Patch{"selectedTemplate": result.SelectedTemplate}, nil
}

// =============================================================================
// ProjectGenerationNode
// =============================================================================

// ProjectGenerationNode maps the collected state fields 1:1 into the project
// generation tool's input and returns the tool's result as the patch. A
// generation failure becomes a fatal workflow error so the project
// generation router can steer to the failure branch instead of aborting.
type ProjectGenerationNode struct {
	NodeName        string
	OutputDirectory string

	exec   tool.Executor
	logger *slog.Logger
}

// NewProjectGenerationNode creates the project generation node. outputDir is
// where generated projects land; empty means the current directory.
func NewProjectGenerationNode(exec tool.Executor, outputDir string, opts ...NodeOption) *ProjectGenerationNode {
	cfg := applyNodeOptions(opts)
	return &ProjectGenerationNode{
		NodeName:        NodeProjectGeneration,
		OutputDirectory: outputDir,
		exec:            exec,
		logger:          cfg.logger,
	}
}

func (n *ProjectGenerationNode) Name() string { return n.NodeName }

func (n *ProjectGenerationNode) Execute(ctx context.Context, s State) (Patch, error) {
	input := tools.ProjectGenerationInput{
		Platform:                s.Platform,
		ProjectName:             s.ProjectName,
		PackageName:             s.PackageName,
		Organization:            s.Organization,
		SelectedTemplate:        s.SelectedTemplate,
		ConnectedAppClientID:    s.ConnectedAppClientID,
		ConnectedAppCallbackURI: s.ConnectedAppCallbackURI,
		LoginHost:               s.LoginHost,
		OutputDirectory:         n.OutputDirectory,
	}
	var result tools.ProjectGenerationResult
	if err := n.exec.Execute(ctx, tools.ProjectGenerationMeta, input, &result); err != nil {
		n.logger.Error("project generation failed", "error", err)
		return FatalErrorPatch(fmt.Sprintf("project generation failed: %v", err)), nil
	}
	return Patch{"projectPath": result.ProjectPath}, nil
}

// =============================================================================
// EnvironmentValidationNode
// =============================================================================

// environment validation command timeout
const envCheckTimeout = 30 * time.Second

// EnvironmentValidationNode checks that the platform toolchain is usable:
// Xcode command line tools for iOS, ANDROID_HOME/JAVA_HOME and a working JDK
// for Android. Problems become invalidEnvironmentMessages entries rather
// than errors so the environment router can steer to remediation.
type EnvironmentValidationNode struct {
	NodeName string

	runner run.CommandRunner
	vars   *env.Vars
	logger *slog.Logger
}

// NewEnvironmentValidationNode creates the environment validation node.
// vars may be nil, in which case only process environment variables are
// consulted.
func NewEnvironmentValidationNode(runner run.CommandRunner, vars *env.Vars, opts ...NodeOption) *EnvironmentValidationNode {
	cfg := applyNodeOptions(opts)
	return &EnvironmentValidationNode{
		NodeName: NodeEnvironmentValidation,
		runner:   runner,
		vars:     vars,
		logger:   cfg.logger,
	}
}

func (n *EnvironmentValidationNode) Name() string { return n.NodeName }

func (n *EnvironmentValidationNode) Execute(ctx context.Context, s State) (Patch, error) {
	var messages []string
	platformOK := true

	switch s.Platform {
	case PlatformIOS:
		if !n.commandWorks(ctx, "xcodebuild", []string{"-version"}, "xcode check") {
			messages = append(messages, "Xcode command line tools are not available; install Xcode and run xcode-select --install.")
			platformOK = false
		}
	case PlatformAndroid:
		if n.lookup("ANDROID_HOME") == "" {
			messages = append(messages, "ANDROID_HOME is not set; point it at your Android SDK installation.")
			platformOK = false
		}
		if n.lookup("JAVA_HOME") == "" {
			messages = append(messages, "JAVA_HOME is not set; point it at a JDK 17 installation.")
			platformOK = false
		}
		if !n.commandWorks(ctx, "java", []string{"-version"}, "java check") {
			messages = append(messages, "No working java executable found on PATH.")
			platformOK = false
		}
	default:
		messages = append(messages, fmt.Sprintf("Unknown platform %q; expected iOS or Android.", s.Platform))
		platformOK = false
	}

	patch := Patch{
		"validEnvironment":   len(messages) == 0,
		"validPlatformSetup": platformOK,
	}
	if len(messages) > 0 {
		patch["invalidEnvironmentMessages"] = messages
	}
	return patch, nil
}

func (n *EnvironmentValidationNode) commandWorks(ctx context.Context, command string, args []string, name string) bool {
	result, err := n.runner.Execute(ctx, command, args, run.Options{
		Timeout:     envCheckTimeout,
		CommandName: name,
	})
	return err == nil && result.Success
}

func (n *EnvironmentValidationNode) lookup(key string) string {
	if n.vars != nil {
		if v := n.vars.Lookup(key); v != "" {
			return v
		}
	}
	return env.FromProcess(key)
}

// =============================================================================
// PluginValidationNode
// =============================================================================

// lwcDevMobilePlugin is the Salesforce CLI plugin the mobile workflows need.
const lwcDevMobilePlugin = "@salesforce/lwc-dev-mobile"

// PluginValidationNode checks the Salesforce CLI is installed with the
// mobile development plugin. Any failure, including a missing CLI, leaves
// validPluginSetup false so the plugin router takes the negative branch.
type PluginValidationNode struct {
	NodeName string

	runner run.CommandRunner
	logger *slog.Logger
}

// NewPluginValidationNode creates the plugin validation node.
func NewPluginValidationNode(runner run.CommandRunner, opts ...NodeOption) *PluginValidationNode {
	cfg := applyNodeOptions(opts)
	return &PluginValidationNode{
		NodeName: NodePluginValidation,
		runner:   runner,
		logger:   cfg.logger,
	}
}

func (n *PluginValidationNode) Name() string { return n.NodeName }

func (n *PluginValidationNode) Execute(ctx context.Context, s State) (Patch, error) {
	result, err := n.runner.Execute(ctx, "sf", []string{"plugins"}, run.Options{
		Timeout:     envCheckTimeout,
		CommandName: "plugin check",
	})
	if err != nil {
		n.logger.Warn("salesforce CLI not available", "error", err)
		return Patch{"validPluginSetup": false}, nil
	}
	installed := result.Success && strings.Contains(result.Stdout, lwcDevMobilePlugin)
	return Patch{"validPluginSetup": installed}, nil
}
