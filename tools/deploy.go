package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/forcedotcom/magen/tool"
)

// IOSDeploymentMeta describes the iOS simulator deployment guidance tool.
var IOSDeploymentMeta = tool.Metadata{
	Name:        "ios_deployment",
	Description: "Generates the commands to deploy a built iOS app to a simulator.",
}

// IOSDeploymentInput is the input schema for the iOS deployment tool.
type IOSDeploymentInput struct {
	Platform     string `json:"platform" validate:"required,eq=iOS"`
	ProjectPath  string `json:"projectPath" validate:"required"`
	ProjectName  string `json:"projectName"`
	BuildType    string `json:"buildType" validate:"omitempty,oneof=debug release"`
	TargetDevice string `json:"targetDevice" validate:"required"`
}

// IOSDeploymentHandler renders simulator deployment guidance. The target
// device ID is substituted verbatim into each simctl command.
func IOSDeploymentHandler() tool.Handler {
	return func(ctx context.Context, input any) (any, error) {
		in, ok := input.(IOSDeploymentInput)
		if !ok {
			return nil, fmt.Errorf("unexpected input type %T", input)
		}
		configuration := "Debug"
		if in.BuildType == "release" {
			configuration = "Release"
		}
		appName := in.ProjectName
		if appName == "" {
			appName = "App"
		}

		var b strings.Builder
		fmt.Fprintf(&b, "To deploy the %s build to the %s simulator, run these commands from %s:\n\n", in.BuildType, in.TargetDevice, in.ProjectPath)
		fmt.Fprintf(&b, "1. Boot the simulator (ignore the error if it is already booted):\n")
		fmt.Fprintf(&b, "   xcrun simctl boot %s\n\n", in.TargetDevice)
		fmt.Fprintf(&b, "2. Open the Simulator app so the device is visible:\n")
		fmt.Fprintf(&b, "   open -a Simulator\n\n")
		fmt.Fprintf(&b, "3. Install the app on the booted simulator:\n")
		fmt.Fprintf(&b, "   xcrun simctl install %s ./build/Build/Products/%s-iphonesimulator/%s.app\n\n", in.TargetDevice, configuration, appName)
		fmt.Fprintf(&b, "4. Launch the app:\n")
		fmt.Fprintf(&b, "   xcrun simctl launch %s <bundle identifier>\n", in.TargetDevice)
		return GuidanceResult{Prompt: b.String()}, nil
	}
}

// AndroidDeploymentMeta describes the Android deployment guidance tool.
var AndroidDeploymentMeta = tool.Metadata{
	Name:        "android_deployment",
	Description: "Generates the commands to deploy a built Android app to a device or emulator.",
}

// AndroidDeploymentInput is the input schema for the Android deployment tool.
type AndroidDeploymentInput struct {
	Platform     string `json:"platform" validate:"required,eq=Android"`
	ProjectPath  string `json:"projectPath" validate:"required"`
	BuildType    string `json:"buildType" validate:"omitempty,oneof=debug release"`
	TargetDevice string `json:"targetDevice"`
}

// AndroidDeploymentHandler renders Gradle install guidance for the build type.
func AndroidDeploymentHandler() tool.Handler {
	return func(ctx context.Context, input any) (any, error) {
		in, ok := input.(AndroidDeploymentInput)
		if !ok {
			return nil, fmt.Errorf("unexpected input type %T", input)
		}
		task := "./gradlew installDebug"
		if in.BuildType == "release" {
			task = "./gradlew installRelease"
		}

		var b strings.Builder
		fmt.Fprintf(&b, "To deploy the %s build, run these commands from %s:\n\n", orDefault(in.BuildType, "debug"), in.ProjectPath)
		fmt.Fprintf(&b, "1. Confirm a device or emulator is connected:\n")
		fmt.Fprintf(&b, "   adb devices\n\n")
		fmt.Fprintf(&b, "2. Install the app:\n")
		fmt.Fprintf(&b, "   %s\n\n", task)
		if in.TargetDevice != "" {
			fmt.Fprintf(&b, "Target the %s device by setting ANDROID_SERIAL before installing.\n", in.TargetDevice)
		}
		return GuidanceResult{Prompt: b.String()}, nil
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
