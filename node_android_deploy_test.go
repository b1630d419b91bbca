package magen

import (
	"context"
	"errors"
	"testing"

	"github.com/forcedotcom/magen/run"
)

func TestAndroidInstallAppNode_SkipsOtherPlatforms(t *testing.T) {
	runner := run.NewMockRunner()
	node := NewAndroidInstallAppNode(runner)

	s := State{Platform: PlatformIOS, ProjectPath: "/tmp/MyApp"}
	patch, err := node.Execute(context.Background(), s)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if len(patch) != 0 {
		t.Errorf("patch = %v, want empty", patch)
	}
	if runner.CallCount() != 0 {
		t.Errorf("runner invoked %d times for non-Android platform, want 0", runner.CallCount())
	}
}

func TestAndroidInstallAppNode_MissingProjectPath(t *testing.T) {
	runner := run.NewMockRunner()
	node := NewAndroidInstallAppNode(runner)

	patch, err := node.Execute(context.Background(), State{Platform: PlatformAndroid})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	merged := MergeState(State{}, patch)
	if !merged.HasFatalErrors() {
		t.Error("missing project path should be a fatal workflow error")
	}
	if runner.CallCount() != 0 {
		t.Error("runner should not be invoked without a project path")
	}
}

func TestAndroidInstallAppNode_GradleTask(t *testing.T) {
	tests := []struct {
		buildType string
		wantTask  string
	}{
		{"", "installDebug"},
		{BuildTypeDebug, "installDebug"},
		{BuildTypeRelease, "installRelease"},
	}
	for _, tt := range tests {
		t.Run("buildType="+tt.buildType, func(t *testing.T) {
			runner := run.NewMockRunner()
			node := NewAndroidInstallAppNode(runner)

			s := State{Platform: PlatformAndroid, ProjectPath: "/tmp/MyApp", BuildType: tt.buildType}
			patch, err := node.Execute(context.Background(), s)
			if err != nil {
				t.Fatalf("Execute() error: %v", err)
			}
			if len(patch) != 0 {
				t.Errorf("patch = %v, want empty on success", patch)
			}

			calls := runner.Calls()
			if len(calls) != 1 {
				t.Fatalf("runner calls = %d, want 1", len(calls))
			}
			if calls[0].Command != "./gradlew" {
				t.Errorf("command = %q, want ./gradlew", calls[0].Command)
			}
			if len(calls[0].Args) != 1 || calls[0].Args[0] != tt.wantTask {
				t.Errorf("args = %v, want [%s]", calls[0].Args, tt.wantTask)
			}
			if calls[0].Opts.Cwd != "/tmp/MyApp" {
				t.Errorf("cwd = %q, want project path", calls[0].Opts.Cwd)
			}
			if calls[0].Opts.Timeout != InstallTimeout {
				t.Errorf("timeout = %v, want %v", calls[0].Opts.Timeout, InstallTimeout)
			}
		})
	}
}

func TestAndroidInstallAppNode_FailuresAreFatalPatches(t *testing.T) {
	tests := []struct {
		name string
		resp run.Response
	}{
		{"runner error", run.Response{Err: errors.New("gradlew not found")}},
		{"command failure", run.Response{Result: run.Result{Success: false, ExitCode: 1, Stderr: "FAILURE: Build failed"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := run.NewMockRunner()
			runner.Enqueue(tt.resp)
			node := NewAndroidInstallAppNode(runner)

			s := State{Platform: PlatformAndroid, ProjectPath: "/tmp/MyApp"}
			patch, err := node.Execute(context.Background(), s)
			if err != nil {
				t.Fatalf("Execute() should not error, got: %v", err)
			}
			merged := MergeState(State{}, patch)
			if !merged.HasFatalErrors() {
				t.Errorf("expected fatal error patch, got %v", patch)
			}
		})
	}
}

func TestSelectBestEmulator(t *testing.T) {
	tests := []struct {
		name      string
		emulators []Emulator
		want      string // empty means nil
	}{
		{"none", nil, ""},
		{"none compatible", []Emulator{{Name: "old", APILevel: 21}}, ""},
		{
			"running wins over higher API",
			[]Emulator{
				{Name: "fast", APILevel: 34, IsCompatible: true},
				{Name: "booted", APILevel: 30, IsRunning: true, IsCompatible: true},
			},
			"booted",
		},
		{
			"highest API when none running",
			[]Emulator{
				{Name: "a", APILevel: 28, IsCompatible: true},
				{Name: "b", APILevel: 34, IsCompatible: true},
				{Name: "c", APILevel: 30, IsCompatible: true},
			},
			"b",
		},
		{
			"incompatible running is skipped",
			[]Emulator{
				{Name: "legacy", APILevel: 23, IsRunning: true},
				{Name: "modern", APILevel: 33, IsCompatible: true},
			},
			"modern",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectBestEmulator(tt.emulators)
			if tt.want == "" {
				if got != nil {
					t.Errorf("SelectBestEmulator() = %+v, want nil", got)
				}
				return
			}
			if got == nil || got.Name != tt.want {
				t.Errorf("SelectBestEmulator() = %+v, want %q", got, tt.want)
			}
		})
	}
}

func TestParseAVDList(t *testing.T) {
	output := `Available Android Virtual Devices:
    Name: Pixel_7_API_34
  Device: pixel_7 (Pixel 7)
    Path: /home/dev/.android/avd/Pixel_7_API_34.avd
  Target: Google APIs (Google Inc.)
          Based on: Android 14.0 (API level 34) Tag/ABI: google_apis/x86_64
---------
    Name: Nexus_5_API_21
  Device: Nexus 5
    Path: /home/dev/.android/avd/Nexus_5_API_21.avd
  Target: Default Android
          Based on: Android 5.0 (API level 21) Tag/ABI: default/x86
`
	emulators := ParseAVDList(output)
	if len(emulators) != 2 {
		t.Fatalf("parsed %d emulators, want 2", len(emulators))
	}
	if emulators[0].Name != "Pixel_7_API_34" || emulators[0].APILevel != 34 || !emulators[0].IsCompatible {
		t.Errorf("first emulator = %+v", emulators[0])
	}
	if emulators[1].Name != "Nexus_5_API_21" || emulators[1].APILevel != 21 || emulators[1].IsCompatible {
		t.Errorf("second emulator = %+v", emulators[1])
	}
}

func TestAndroidEmulatorNode_SelectsDevice(t *testing.T) {
	runner := run.NewMockRunner()
	runner.Enqueue(run.Response{Result: run.Result{
		Success: true,
		Stdout:  "    Name: Pixel_7_API_34\n          Based on: Android 14.0 (API level 34)\n",
	}})
	node := NewAndroidEmulatorNode(runner)

	patch, err := node.Execute(context.Background(), State{Platform: PlatformAndroid})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if patch["targetDevice"] != "Pixel_7_API_34" {
		t.Errorf("patch targetDevice = %v", patch["targetDevice"])
	}
}

func TestAndroidEmulatorNode_Skips(t *testing.T) {
	tests := []struct {
		name  string
		state State
	}{
		{"non-Android", State{Platform: PlatformIOS}},
		{"device already chosen", State{Platform: PlatformAndroid, TargetDevice: "Pixel_7_API_34"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := run.NewMockRunner()
			node := NewAndroidEmulatorNode(runner)
			patch, err := node.Execute(context.Background(), tt.state)
			if err != nil {
				t.Fatalf("Execute() error: %v", err)
			}
			if len(patch) != 0 || runner.CallCount() != 0 {
				t.Errorf("patch = %v, calls = %d; want no-op", patch, runner.CallCount())
			}
		})
	}
}

func TestAndroidEmulatorNode_NoCompatibleEmulator(t *testing.T) {
	runner := run.NewMockRunner()
	runner.Enqueue(run.Response{Result: run.Result{Success: true, Stdout: ""}})
	node := NewAndroidEmulatorNode(runner)

	patch, err := node.Execute(context.Background(), State{Platform: PlatformAndroid})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	merged := MergeState(State{}, patch)
	if !merged.HasFatalErrors() {
		t.Errorf("expected fatal error patch, got %v", patch)
	}
}
