package magen

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/forcedotcom/magen/tool"
	"github.com/forcedotcom/magen/tools"
)

// defaultSimulator is targeted when the user did not name a device.
const defaultSimulator = "booted"

// IOSDeploymentNode renders simulator deployment guidance for a built iOS
// project. No-op for non-iOS platforms; a missing project path or a tool
// failure becomes a fatal workflow error patch.
type IOSDeploymentNode struct {
	NodeName string

	exec   tool.Executor
	logger *slog.Logger
}

// NewIOSDeploymentNode creates the iOS deployment node.
func NewIOSDeploymentNode(exec tool.Executor, opts ...NodeOption) *IOSDeploymentNode {
	cfg := applyNodeOptions(opts)
	return &IOSDeploymentNode{
		NodeName: NodeIOSDeployment,
		exec:     exec,
		logger:   cfg.logger,
	}
}

func (n *IOSDeploymentNode) Name() string { return n.NodeName }

func (n *IOSDeploymentNode) Execute(ctx context.Context, s State) (Patch, error) {
	if s.Platform != PlatformIOS {
		return Patch{}, nil
	}
	if s.ProjectPath == "" {
		return FatalErrorPatch("cannot deploy iOS app: project path is not set"), nil
	}

	device := s.TargetDevice
	if device == "" {
		device = defaultSimulator
	}
	input := tools.IOSDeploymentInput{
		Platform:     s.Platform,
		ProjectPath:  s.ProjectPath,
		ProjectName:  s.ProjectName,
		BuildType:    s.BuildType,
		TargetDevice: device,
	}
	var result tools.GuidanceResult
	if err := n.exec.Execute(ctx, tools.IOSDeploymentMeta, input, &result); err != nil {
		n.logger.Error("deployment guidance failed", "error", err)
		return FatalErrorPatch(fmt.Sprintf("iOS deployment guidance failed: %v", err)), nil
	}
	return Patch{"deploymentGuidance": result.Prompt}, nil
}
