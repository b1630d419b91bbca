package magen

import (
	"context"
	"errors"
	"testing"

	"github.com/forcedotcom/magen/tools"
)

func TestIOSDeploymentNode_SkipsOtherPlatforms(t *testing.T) {
	exec := newStubExecutor()
	node := NewIOSDeploymentNode(exec)

	patch, err := node.Execute(context.Background(), State{Platform: PlatformAndroid, ProjectPath: "/p"})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if len(patch) != 0 {
		t.Errorf("patch = %v, want empty", patch)
	}
	if exec.callCount("ios_deployment") != 0 {
		t.Error("deployment tool invoked for non-iOS platform")
	}
}

func TestIOSDeploymentNode_MissingProjectPath(t *testing.T) {
	exec := newStubExecutor()
	node := NewIOSDeploymentNode(exec)

	patch, err := node.Execute(context.Background(), State{Platform: PlatformIOS})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	merged := MergeState(State{}, patch)
	if !merged.HasFatalErrors() {
		t.Errorf("expected fatal error patch, got %v", patch)
	}
}

func TestIOSDeploymentNode_PatchesGuidance(t *testing.T) {
	exec := newStubExecutor().on("ios_deployment", tools.GuidanceResult{Prompt: "deploy like so"})
	node := NewIOSDeploymentNode(exec)

	s := State{
		Platform:     PlatformIOS,
		ProjectPath:  "/tmp/MyApp",
		ProjectName:  "MyApp",
		TargetDevice: "A1B2-C3D4",
	}
	patch, err := node.Execute(context.Background(), s)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if patch["deploymentGuidance"] != "deploy like so" {
		t.Errorf("patch = %v", patch)
	}

	input, ok := exec.lastInput("ios_deployment").(tools.IOSDeploymentInput)
	if !ok {
		t.Fatalf("tool input type = %T", exec.lastInput("ios_deployment"))
	}
	if input.TargetDevice != "A1B2-C3D4" {
		t.Errorf("tool input device = %q, want the state's device", input.TargetDevice)
	}
}

func TestIOSDeploymentNode_DefaultsToBootedSimulator(t *testing.T) {
	exec := newStubExecutor().on("ios_deployment", tools.GuidanceResult{Prompt: "ok"})
	node := NewIOSDeploymentNode(exec)

	s := State{Platform: PlatformIOS, ProjectPath: "/tmp/MyApp"}
	if _, err := node.Execute(context.Background(), s); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	input := exec.lastInput("ios_deployment").(tools.IOSDeploymentInput)
	if input.TargetDevice != "booted" {
		t.Errorf("default device = %q, want booted", input.TargetDevice)
	}
}

func TestIOSDeploymentNode_ToolErrorBecomesFatalPatch(t *testing.T) {
	exec := newStubExecutor().failWith("ios_deployment", errors.New("tool transport down"))
	node := NewIOSDeploymentNode(exec)

	patch, err := node.Execute(context.Background(), State{Platform: PlatformIOS, ProjectPath: "/p"})
	if err != nil {
		t.Fatalf("Execute() should not error, got: %v", err)
	}
	merged := MergeState(State{}, patch)
	if !merged.HasFatalErrors() {
		t.Errorf("expected fatal error patch, got %v", patch)
	}
}
