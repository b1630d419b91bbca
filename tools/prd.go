package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/forcedotcom/magen/tool"
)

// PRDGenerationMeta describes the Product Requirement Document tool.
var PRDGenerationMeta = tool.Metadata{
	Name:        "prd_generation",
	Description: "Generates a Product Requirement Document from a feature description.",
}

// PRDGenerationInput is the input schema for PRD generation.
type PRDGenerationInput struct {
	FeatureDescription string `json:"featureDescription" validate:"required"`
	ProductName        string `json:"productName"`
	TargetAudience     string `json:"targetAudience"`
}

// PRDGenerationHandler renders the PRD authoring prompt.
func PRDGenerationHandler() tool.Handler {
	return func(ctx context.Context, input any) (any, error) {
		in, ok := input.(PRDGenerationInput)
		if !ok {
			return nil, fmt.Errorf("unexpected input type %T", input)
		}

		var b strings.Builder
		b.WriteString("Write a Product Requirement Document for the following feature.\n\n")
		if in.ProductName != "" {
			fmt.Fprintf(&b, "Product: %s\n", in.ProductName)
		}
		if in.TargetAudience != "" {
			fmt.Fprintf(&b, "Target audience: %s\n", in.TargetAudience)
		}
		fmt.Fprintf(&b, "\nFeature description:\n%s\n\n", in.FeatureDescription)
		b.WriteString("The document must contain these sections:\n")
		b.WriteString("1. Overview - the problem and the proposed solution\n")
		b.WriteString("2. Goals and Non-Goals\n")
		b.WriteString("3. User Stories - as numbered, testable statements\n")
		b.WriteString("4. Functional Requirements\n")
		b.WriteString("5. Success Metrics\n")
		b.WriteString("6. Open Questions\n")
		return GuidanceResult{Prompt: b.String()}, nil
	}
}
