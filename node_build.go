package magen

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/forcedotcom/magen/tool"
	"github.com/forcedotcom/magen/tools"
)

// BuildValidationNode invokes the build tool and translates its result into
// a state patch. Only Platform, ProjectPath, and ProjectName are read from
// state. BuildAttemptCount is a consecutive-failure counter: a successful
// build resets it to zero regardless of the incoming value, and each failed
// attempt patches exactly incoming+1.
type BuildValidationNode struct {
	NodeName string

	exec   tool.Executor
	logger *slog.Logger
}

// NewBuildValidationNode creates the build node.
func NewBuildValidationNode(exec tool.Executor, opts ...NodeOption) *BuildValidationNode {
	cfg := applyNodeOptions(opts)
	return &BuildValidationNode{
		NodeName: NodeBuildValidation,
		exec:     exec,
		logger:   cfg.logger,
	}
}

func (n *BuildValidationNode) Name() string { return n.NodeName }

func (n *BuildValidationNode) Execute(ctx context.Context, s State) (Patch, error) {
	input := tools.BuildInput{
		Platform:    s.Platform,
		ProjectPath: s.ProjectPath,
		ProjectName: s.ProjectName,
	}
	var result tools.BuildResult
	if err := n.exec.Execute(ctx, tools.BuildMeta, input, &result); err != nil {
		return nil, fmt.Errorf("build validation: %w", err)
	}

	if result.BuildSuccessful {
		n.logger.Info("build succeeded", "project", s.ProjectName)
		return Patch{
			"buildSuccessful":   true,
			"buildAttemptCount": 0,
		}, nil
	}

	attempts := s.BuildAttemptCount + 1
	n.logger.Warn("build failed", "project", s.ProjectName, "attempt", attempts)
	return Patch{
		"buildSuccessful":     false,
		"buildAttemptCount":   attempts,
		"buildOutputFilePath": result.BuildOutputFilePath,
	}, nil
}
