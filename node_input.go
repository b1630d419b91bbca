package magen

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/forcedotcom/magen/tool"
	"github.com/forcedotcom/magen/tools"
)

// =============================================================================
// UserInputExtractionNode
// =============================================================================

// UserInputExtractionNode asks the LLM-backed extraction tool to pull the
// required properties out of the raw user input. Only properties actually
// present in the extraction result appear in the returned patch, so fields
// the model could not extract stay unfulfilled for later router checks.
type UserInputExtractionNode struct {
	NodeName string
	Required *PropertyMetadataCollection

	exec   tool.Executor
	logger *slog.Logger
}

// NewUserInputExtractionNode creates the extraction node.
func NewUserInputExtractionNode(exec tool.Executor, required *PropertyMetadataCollection, opts ...NodeOption) *UserInputExtractionNode {
	cfg := applyNodeOptions(opts)
	return &UserInputExtractionNode{
		NodeName: NodeUserInputExtraction,
		Required: required,
		exec:     exec,
		logger:   cfg.logger,
	}
}

func (n *UserInputExtractionNode) Name() string { return n.NodeName }

func (n *UserInputExtractionNode) Execute(ctx context.Context, s State) (Patch, error) {
	input := tools.ExtractionInput{
		UserInput:  s.UserInput,
		Properties: propertyDescriptors(n.Required),
	}
	var result tools.ExtractionResult
	if err := n.exec.Execute(ctx, tools.ExtractionMeta, input, &result); err != nil {
		return nil, fmt.Errorf("property extraction: %w", err)
	}

	patch := Patch{}
	for name, value := range result.Properties {
		if value == nil {
			continue
		}
		patch[name] = value
	}
	n.logger.Debug("extracted properties", "count", len(patch))
	return patch, nil
}

// =============================================================================
// UserInputTriageNode
// =============================================================================

// UserInputTriageNode performs extraction and analysis in a single tool call.
// The triage result carries confidence and gap metadata alongside the
// extracted properties; only defined extracted fields propagate into state.
type UserInputTriageNode struct {
	NodeName string
	Required *PropertyMetadataCollection

	exec   tool.Executor
	logger *slog.Logger
}

// NewUserInputTriageNode creates the triage node.
func NewUserInputTriageNode(exec tool.Executor, required *PropertyMetadataCollection, opts ...NodeOption) *UserInputTriageNode {
	cfg := applyNodeOptions(opts)
	return &UserInputTriageNode{
		NodeName: NodeUserInputTriage,
		Required: required,
		exec:     exec,
		logger:   cfg.logger,
	}
}

func (n *UserInputTriageNode) Name() string { return n.NodeName }

func (n *UserInputTriageNode) Execute(ctx context.Context, s State) (Patch, error) {
	input := tools.TriageInput{
		UserInput:  s.UserInput,
		Properties: propertyDescriptors(n.Required),
	}
	var result tools.TriageResult
	if err := n.exec.Execute(ctx, tools.TriageMeta, input, &result); err != nil {
		return nil, fmt.Errorf("user input triage: %w", err)
	}

	patch := Patch{}
	for name, value := range result.ExtractedProperties {
		if value == nil {
			continue
		}
		patch[name] = value
	}
	n.logger.Debug("triaged user input",
		"extracted", len(patch),
		"confidence", result.ConfidenceLevel,
		"missing", len(result.MissingInformation))
	return patch, nil
}

// =============================================================================
// GetUserInputNode
// =============================================================================

// GetUserInputNode formats a follow-up question covering only the required
// properties that are still unfulfilled, so repeated invocations never ask
// for values the user already provided.
type GetUserInputNode struct {
	NodeName string
	Required *PropertyMetadataCollection

	logger *slog.Logger
}

// NewGetUserInputNode creates the question-formatting node.
func NewGetUserInputNode(required *PropertyMetadataCollection, opts ...NodeOption) *GetUserInputNode {
	cfg := applyNodeOptions(opts)
	return &GetUserInputNode{
		NodeName: NodeGetUserInput,
		Required: required,
		logger:   cfg.logger,
	}
}

func (n *GetUserInputNode) Name() string { return n.NodeName }

func (n *GetUserInputNode) Execute(ctx context.Context, s State) (Patch, error) {
	missing := n.Required.Unfulfilled(s)
	if len(missing) == 0 {
		return Patch{}, nil
	}
	return Patch{"userInputQuestion": formatPropertyQuestion(missing)}, nil
}

// formatPropertyQuestion renders the follow-up question for the missing
// properties, in collection order for deterministic output.
func formatPropertyQuestion(missing []PropertyMetadata) string {
	var b strings.Builder
	if len(missing) == 1 {
		b.WriteString("I need one more detail to continue:\n\n")
	} else {
		fmt.Fprintf(&b, "I need %d more details to continue:\n\n", len(missing))
	}
	for _, p := range missing {
		fmt.Fprintf(&b, "- %s: %s\n", p.FriendlyName, p.Description)
	}
	return b.String()
}

func propertyDescriptors(c *PropertyMetadataCollection) []tools.PropertyDescriptor {
	all := c.All()
	out := make([]tools.PropertyDescriptor, 0, len(all))
	for _, p := range all {
		out = append(out, tools.PropertyDescriptor{
			PropertyName: p.Name,
			FriendlyName: p.FriendlyName,
			Description:  p.Description,
		})
	}
	return out
}
