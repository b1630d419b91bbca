package tools

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/forcedotcom/magen/run"
	"github.com/forcedotcom/magen/tool"
)

// BuildMeta describes the project build tool.
var BuildMeta = tool.Metadata{
	Name:        "build_project",
	Description: "Builds the generated mobile app project and reports success or failure.",
}

// BuildTimeout bounds a single platform build.
const BuildTimeout = 10 * time.Minute

// BuildInput is the input schema for the build tool.
type BuildInput struct {
	Platform    string `json:"platform" validate:"required,oneof=iOS Android"`
	ProjectPath string `json:"projectPath" validate:"required"`
	ProjectName string `json:"projectName"`
}

// BuildResult is the build tool's result.
type BuildResult struct {
	BuildSuccessful     bool   `json:"buildSuccessful"`
	BuildOutputFilePath string `json:"buildOutputFilePath,omitempty"`
}

// buildOutputFile is where failed build output is written for diagnosis.
const buildOutputFile = "build_output.log"

// BuildHandler runs the platform build in the project directory. A failed
// build is an ordinary result, not an error: the combined output is written
// to a log file whose path is returned so the retry loop can feed it back to
// the LLM.
func BuildHandler(runner run.CommandRunner, logger *slog.Logger) tool.Handler {
	return func(ctx context.Context, input any) (any, error) {
		in, ok := input.(BuildInput)
		if !ok {
			return nil, fmt.Errorf("unexpected input type %T", input)
		}

		command, args := buildCommand(in)
		result, err := runner.Execute(ctx, command, args, run.Options{
			Timeout:     BuildTimeout,
			Cwd:         in.ProjectPath,
			CommandName: fmt.Sprintf("%s build", in.Platform),
		})
		if err != nil {
			return nil, err
		}
		if result.Success {
			return BuildResult{BuildSuccessful: true}, nil
		}

		outputPath := filepath.Join(in.ProjectPath, buildOutputFile)
		output := result.Stdout + result.Stderr
		if writeErr := os.WriteFile(outputPath, []byte(output), 0o644); writeErr != nil {
			logger.Warn("could not write build output", "path", outputPath, "error", writeErr)
			outputPath = ""
		}
		return BuildResult{BuildSuccessful: false, BuildOutputFilePath: outputPath}, nil
	}
}

func buildCommand(in BuildInput) (string, []string) {
	if in.Platform == "iOS" {
		args := []string{"build", "-configuration", "Debug", "-sdk", "iphonesimulator", "-derivedDataPath", "./build"}
		if in.ProjectName != "" {
			args = append(args, "-scheme", in.ProjectName)
		}
		return "xcodebuild", args
	}
	return "./gradlew", []string{"assembleDebug"}
}
