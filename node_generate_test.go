package magen

import (
	"context"
	"errors"
	"testing"

	"github.com/forcedotcom/magen/run"
	"github.com/forcedotcom/magen/tools"
)

func TestTemplateDiscoveryNode(t *testing.T) {
	exec := newStubExecutor().on("template_discovery", tools.TemplateDiscoveryResult{
		SelectedTemplate: "iOSNativeSwiftTemplate",
	})
	node := NewTemplateDiscoveryNode(exec)

	patch, err := node.Execute(context.Background(), State{Platform: PlatformIOS})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if patch["selectedTemplate"] != "iOSNativeSwiftTemplate" {
		t.Errorf("patch = %v", patch)
	}
}

func TestTemplateDiscoveryNode_ErrorPropagates(t *testing.T) {
	discoveryErr := errors.New("unknown platform")
	exec := newStubExecutor().failWith("template_discovery", discoveryErr)
	node := NewTemplateDiscoveryNode(exec)

	_, err := node.Execute(context.Background(), State{Platform: "Windows"})
	if !errors.Is(err, discoveryErr) {
		t.Fatalf("Execute() error = %v, want wrapped %v", err, discoveryErr)
	}
}

func TestProjectGenerationNode_MapsStateToInput(t *testing.T) {
	exec := newStubExecutor().on("project_generation", tools.ProjectGenerationResult{
		ProjectPath: "/out/MyApp",
	})
	node := NewProjectGenerationNode(exec, "/out")

	s := fulfilledAppState()
	s.SelectedTemplate = "iOSNativeSwiftTemplate"
	patch, err := node.Execute(context.Background(), s)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if patch["projectPath"] != "/out/MyApp" {
		t.Errorf("patch = %v", patch)
	}

	input := exec.lastInput("project_generation").(tools.ProjectGenerationInput)
	if input.ProjectName != s.ProjectName || input.PackageName != s.PackageName ||
		input.Organization != s.Organization || input.SelectedTemplate != s.SelectedTemplate ||
		input.ConnectedAppClientID != s.ConnectedAppClientID ||
		input.ConnectedAppCallbackURI != s.ConnectedAppCallbackURI ||
		input.LoginHost != s.LoginHost || input.OutputDirectory != "/out" {
		t.Errorf("tool input not mapped 1:1 from state: %+v", input)
	}
}

func TestProjectGenerationNode_FailureIsFatalPatch(t *testing.T) {
	exec := newStubExecutor().failWith("project_generation", errors.New("generator exited 1"))
	node := NewProjectGenerationNode(exec, "")

	patch, err := node.Execute(context.Background(), fulfilledAppState())
	if err != nil {
		t.Fatalf("Execute() should not error, got: %v", err)
	}
	merged := MergeState(State{}, patch)
	if !merged.HasFatalErrors() {
		t.Errorf("expected fatal error patch, got %v", patch)
	}
	if merged.ProjectPath != "" {
		t.Errorf("ProjectPath = %q, want empty after failure", merged.ProjectPath)
	}
}

func TestEnvironmentValidationNode_IOS(t *testing.T) {
	tests := []struct {
		name      string
		resp      run.Response
		wantValid bool
	}{
		{"xcode present", run.Response{Result: run.Result{Success: true, Stdout: "Xcode 16.0"}}, true},
		{"xcode missing", run.Response{Err: errors.New("executable not found")}, false},
		{"xcode broken", run.Response{Result: run.Result{Success: false, ExitCode: 1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := run.NewMockRunner()
			runner.Enqueue(tt.resp)
			node := NewEnvironmentValidationNode(runner, nil)

			patch, err := node.Execute(context.Background(), State{Platform: PlatformIOS})
			if err != nil {
				t.Fatalf("Execute() error: %v", err)
			}
			merged := MergeState(State{}, patch)
			if merged.ValidEnvironment != tt.wantValid {
				t.Errorf("ValidEnvironment = %v, want %v (messages: %v)",
					merged.ValidEnvironment, tt.wantValid, merged.InvalidEnvironmentMessages)
			}
			if !tt.wantValid && len(merged.InvalidEnvironmentMessages) == 0 {
				t.Error("invalid environment reported without messages")
			}
		})
	}
}

func TestEnvironmentValidationNode_AndroidMissingVars(t *testing.T) {
	t.Setenv("ANDROID_HOME", "")
	t.Setenv("JAVA_HOME", "")
	runner := run.NewMockRunner() // java -version succeeds
	node := NewEnvironmentValidationNode(runner, nil)

	patch, err := node.Execute(context.Background(), State{Platform: PlatformAndroid})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	merged := MergeState(State{}, patch)
	if merged.ValidEnvironment {
		t.Error("ValidEnvironment = true with ANDROID_HOME and JAVA_HOME unset")
	}
	if len(merged.InvalidEnvironmentMessages) != 2 {
		t.Errorf("messages = %v, want ANDROID_HOME and JAVA_HOME complaints", merged.InvalidEnvironmentMessages)
	}
}

func TestEnvironmentValidationNode_AndroidHealthy(t *testing.T) {
	t.Setenv("ANDROID_HOME", t.TempDir())
	t.Setenv("JAVA_HOME", t.TempDir())
	runner := run.NewMockRunner()
	node := NewEnvironmentValidationNode(runner, nil)

	patch, err := node.Execute(context.Background(), State{Platform: PlatformAndroid})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	merged := MergeState(State{}, patch)
	if !merged.ValidEnvironment || !merged.ValidPlatformSetup {
		t.Errorf("healthy Android env reported invalid: %v", merged.InvalidEnvironmentMessages)
	}
}

func TestEnvironmentValidationNode_UnknownPlatform(t *testing.T) {
	node := NewEnvironmentValidationNode(run.NewMockRunner(), nil)

	patch, err := node.Execute(context.Background(), State{Platform: "Windows"})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	merged := MergeState(State{}, patch)
	if merged.ValidEnvironment {
		t.Error("unknown platform reported as valid environment")
	}
}

func TestPluginValidationNode(t *testing.T) {
	tests := []struct {
		name string
		resp run.Response
		want bool
	}{
		{
			"plugin installed",
			run.Response{Result: run.Result{Success: true, Stdout: "@salesforce/lwc-dev-mobile 3.0.0"}},
			true,
		},
		{
			"plugin absent",
			run.Response{Result: run.Result{Success: true, Stdout: "@salesforce/plugin-deploy 1.2.3"}},
			false,
		},
		{
			"cli missing",
			run.Response{Err: errors.New("executable not found")},
			false,
		},
		{
			"cli failed",
			run.Response{Result: run.Result{Success: false, ExitCode: 1, Stdout: "@salesforce/lwc-dev-mobile"}},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := run.NewMockRunner()
			runner.Enqueue(tt.resp)
			node := NewPluginValidationNode(runner)

			patch, err := node.Execute(context.Background(), State{Platform: PlatformIOS})
			if err != nil {
				t.Fatalf("Execute() should not error, got: %v", err)
			}
			merged := MergeState(State{}, patch)
			if merged.ValidPluginSetup != tt.want {
				t.Errorf("ValidPluginSetup = %v, want %v", merged.ValidPluginSetup, tt.want)
			}
		})
	}
}
