package tools

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/forcedotcom/magen/run"
	"github.com/forcedotcom/magen/tool"
)

// TemplateDiscoveryMeta describes the template discovery tool.
var TemplateDiscoveryMeta = tool.Metadata{
	Name:        "template_discovery",
	Description: "Selects the Mobile SDK project template matching the target platform.",
}

// TemplateDiscoveryInput is the input schema for template discovery.
type TemplateDiscoveryInput struct {
	Platform string `json:"platform" validate:"required,oneof=iOS Android"`
}

// TemplateDiscoveryResult names the selected template.
type TemplateDiscoveryResult struct {
	SelectedTemplate string `json:"selectedTemplate" validate:"required"`
}

// platformTemplates maps each platform to its native template repository.
var platformTemplates = map[string]string{
	"iOS":     "iOSNativeSwiftTemplate",
	"Android": "AndroidNativeKotlinTemplate",
}

// TemplateDiscoveryHandler picks the native template for the platform.
func TemplateDiscoveryHandler() tool.Handler {
	return func(ctx context.Context, input any) (any, error) {
		in, ok := input.(TemplateDiscoveryInput)
		if !ok {
			return nil, fmt.Errorf("unexpected input type %T", input)
		}
		template, ok := platformTemplates[in.Platform]
		if !ok {
			return nil, fmt.Errorf("no template for platform %q", in.Platform)
		}
		return TemplateDiscoveryResult{SelectedTemplate: template}, nil
	}
}

// ProjectGenerationMeta describes the project generation tool.
var ProjectGenerationMeta = tool.Metadata{
	Name:        "project_generation",
	Description: "Generates a native mobile app project from a Mobile SDK template.",
}

// GenerationTimeout bounds project generation, which clones the template and
// installs dependencies.
const GenerationTimeout = 5 * time.Minute

// ProjectGenerationInput is the input schema for project generation. The
// connected app values are written into the generated project's login config.
type ProjectGenerationInput struct {
	Platform                string `json:"platform" validate:"required,oneof=iOS Android"`
	ProjectName             string `json:"projectName" validate:"required"`
	PackageName             string `json:"packageName" validate:"required"`
	Organization            string `json:"organization" validate:"required"`
	SelectedTemplate        string `json:"selectedTemplate" validate:"required"`
	ConnectedAppClientID    string `json:"connectedAppClientId"`
	ConnectedAppCallbackURI string `json:"connectedAppCallbackUri"`
	LoginHost               string `json:"loginHost"`
	OutputDirectory         string `json:"outputDirectory"`
}

// ProjectGenerationResult carries the generated project's path.
type ProjectGenerationResult struct {
	ProjectPath string `json:"projectPath" validate:"required"`
}

// ProjectGenerationHandler invokes the Mobile SDK generator CLI. Generation
// failure is returned as an error; the calling node converts it into a fatal
// workflow error so routing can recover.
func ProjectGenerationHandler(runner run.CommandRunner, logger *slog.Logger) tool.Handler {
	return func(ctx context.Context, input any) (any, error) {
		in, ok := input.(ProjectGenerationInput)
		if !ok {
			return nil, fmt.Errorf("unexpected input type %T", input)
		}

		generator := "forceios"
		if in.Platform == "Android" {
			generator = "forcedroid"
		}
		outputDir := in.OutputDirectory
		if outputDir == "" {
			outputDir = "."
		}
		args := []string{
			"createwithtemplate",
			"--templaterepouri=" + in.SelectedTemplate,
			"--appname=" + in.ProjectName,
			"--packagename=" + in.PackageName,
			"--organization=" + in.Organization,
			"--outputdir=" + outputDir,
		}

		result, err := runner.Execute(ctx, generator, args, run.Options{
			Timeout:     GenerationTimeout,
			Cwd:         outputDir,
			CommandName: "project generation",
		})
		if err != nil {
			return nil, err
		}
		if !result.Success {
			logger.Error("project generation failed", "exitCode", result.ExitCode, "stderr", result.Stderr)
			return nil, fmt.Errorf("project generation failed with exit code %d", result.ExitCode)
		}
		return ProjectGenerationResult{
			ProjectPath: filepath.Join(outputDir, in.ProjectName),
		}, nil
	}
}
