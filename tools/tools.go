// Package tools implements the MCP tool handlers the workflow nodes invoke:
// deterministic command tools (build, project generation) and prompt-template
// tools whose output is guidance text for the calling LLM. Each tool exports
// its Metadata, typed input/result structs, and, where the tool is local, a
// handler constructor for registration on a tool.Registry.
package tools

import (
	"log/slog"

	"github.com/forcedotcom/magen/run"
	"github.com/forcedotcom/magen/tool"
)

// GuidanceResult is the common result shape of prompt-template tools: a
// natural-language prompt for the calling LLM to act on.
type GuidanceResult struct {
	Prompt string `json:"prompt" validate:"required"`
}

// RegisterAll registers every locally implemented tool on the registry,
// using runner for the command-backed ones.
func RegisterAll(reg *tool.Registry, runner run.CommandRunner, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	reg.Register(IOSDeploymentMeta, IOSDeploymentHandler())
	reg.Register(AndroidDeploymentMeta, AndroidDeploymentHandler())
	reg.Register(BuildMeta, BuildHandler(runner, logger))
	reg.Register(ProjectGenerationMeta, ProjectGenerationHandler(runner, logger))
	reg.Register(TemplateDiscoveryMeta, TemplateDiscoveryHandler())
	reg.Register(PRDGenerationMeta, PRDGenerationHandler())
	reg.Register(LWCEvaluationMeta, LWCEvaluationHandler())
}
