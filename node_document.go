package magen

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/forcedotcom/magen/tool"
	"github.com/forcedotcom/magen/tools"
)

// =============================================================================
// PRDGenerationNode
// =============================================================================

// PRDGenerationNode turns the user's feature description into a PRD
// authoring prompt via the PRD tool.
type PRDGenerationNode struct {
	NodeName string

	exec   tool.Executor
	logger *slog.Logger
}

// NewPRDGenerationNode creates the PRD node.
func NewPRDGenerationNode(exec tool.Executor, opts ...NodeOption) *PRDGenerationNode {
	cfg := applyNodeOptions(opts)
	return &PRDGenerationNode{
		NodeName: NodePRDGeneration,
		exec:     exec,
		logger:   cfg.logger,
	}
}

func (n *PRDGenerationNode) Name() string { return n.NodeName }

func (n *PRDGenerationNode) Execute(ctx context.Context, s State) (Patch, error) {
	input := tools.PRDGenerationInput{
		FeatureDescription: asString(s.UserInput),
		ProductName:        s.ProjectName,
	}
	var result tools.GuidanceResult
	if err := n.exec.Execute(ctx, tools.PRDGenerationMeta, input, &result); err != nil {
		return nil, fmt.Errorf("prd generation: %w", err)
	}
	return Patch{"generatedDocument": result.Prompt}, nil
}

// =============================================================================
// LWCEvaluationNode
// =============================================================================

// LWCEvaluationNode builds a component review prompt from the user input,
// which must be an object carrying the component sources.
type LWCEvaluationNode struct {
	NodeName string

	exec   tool.Executor
	logger *slog.Logger
}

// NewLWCEvaluationNode creates the LWC evaluation node.
func NewLWCEvaluationNode(exec tool.Executor, opts ...NodeOption) *LWCEvaluationNode {
	cfg := applyNodeOptions(opts)
	return &LWCEvaluationNode{
		NodeName: NodeLWCEvaluation,
		exec:     exec,
		logger:   cfg.logger,
	}
}

func (n *LWCEvaluationNode) Name() string { return n.NodeName }

func (n *LWCEvaluationNode) Execute(ctx context.Context, s State) (Patch, error) {
	component, ok := s.UserInput.(map[string]any)
	if !ok {
		return FatalErrorPatch("LWC evaluation requires a component object as user input"), nil
	}
	input := tools.LWCEvaluationInput{
		ComponentName: asString(component["componentName"]),
		Html:          asString(component["html"]),
		Js:            asString(component["js"]),
		Css:           asString(component["css"]),
		Requirements:  asString(component["requirements"]),
	}
	var result tools.GuidanceResult
	if err := n.exec.Execute(ctx, tools.LWCEvaluationMeta, input, &result); err != nil {
		return nil, fmt.Errorf("lwc evaluation: %w", err)
	}
	return Patch{"generatedDocument": result.Prompt}, nil
}

// =============================================================================
// WorkflowFailureNode
// =============================================================================

// WorkflowFailureNode is the terminal failure branch: it formats a
// human-readable explanation of the accumulated errors into the follow-up
// question field so the calling agent can relay it.
type WorkflowFailureNode struct {
	NodeName string

	logger *slog.Logger
}

// NewWorkflowFailureNode creates the failure node.
func NewWorkflowFailureNode(opts ...NodeOption) *WorkflowFailureNode {
	cfg := applyNodeOptions(opts)
	return &WorkflowFailureNode{
		NodeName: NodeWorkflowFailure,
		logger:   cfg.logger,
	}
}

func (n *WorkflowFailureNode) Name() string { return n.NodeName }

func (n *WorkflowFailureNode) Execute(ctx context.Context, s State) (Patch, error) {
	msg := "The workflow could not be completed."
	if len(s.WorkflowFatalErrorMessages) > 0 {
		msg += " Problems encountered:"
		for _, m := range s.WorkflowFatalErrorMessages {
			msg += "\n- " + m
		}
	}
	if len(s.InvalidEnvironmentMessages) > 0 {
		msg += "\nEnvironment issues:"
		for _, m := range s.InvalidEnvironmentMessages {
			msg += "\n- " + m
		}
	}
	n.logger.Warn("workflow failed",
		"fatalErrors", len(s.WorkflowFatalErrorMessages),
		"environmentIssues", len(s.InvalidEnvironmentMessages))
	return Patch{"userInputQuestion": msg}, nil
}
