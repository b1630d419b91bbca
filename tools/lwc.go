package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/forcedotcom/magen/tool"
)

// LWCEvaluationMeta describes the Lightning Web Component evaluation tool.
var LWCEvaluationMeta = tool.Metadata{
	Name:        "lwc_evaluation",
	Description: "Evaluates a generated Lightning Web Component for correctness and best practices.",
}

// LWCEvaluationInput is the input schema for LWC evaluation.
type LWCEvaluationInput struct {
	ComponentName string `json:"componentName" validate:"required"`
	Html          string `json:"html"`
	Js            string `json:"js" validate:"required"`
	Css           string `json:"css"`
	Requirements  string `json:"requirements"`
}

// LWCEvaluationHandler renders the component review prompt.
func LWCEvaluationHandler() tool.Handler {
	return func(ctx context.Context, input any) (any, error) {
		in, ok := input.(LWCEvaluationInput)
		if !ok {
			return nil, fmt.Errorf("unexpected input type %T", input)
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Evaluate the Lightning Web Component %q below.\n\n", in.ComponentName)
		if in.Requirements != "" {
			fmt.Fprintf(&b, "It was generated for these requirements:\n%s\n\n", in.Requirements)
		}
		if in.Html != "" {
			fmt.Fprintf(&b, "## %s.html\n```html\n%s\n```\n\n", in.ComponentName, in.Html)
		}
		fmt.Fprintf(&b, "## %s.js\n```js\n%s\n```\n\n", in.ComponentName, in.Js)
		if in.Css != "" {
			fmt.Fprintf(&b, "## %s.css\n```css\n%s\n```\n\n", in.ComponentName, in.Css)
		}
		b.WriteString("Score the component from 1-10 on each of:\n")
		b.WriteString("- Correctness against the stated requirements\n")
		b.WriteString("- Use of LWC patterns (wire adapters, lifecycle hooks, event handling)\n")
		b.WriteString("- Accessibility (labels, keyboard navigation, ARIA)\n")
		b.WriteString("- Mobile readiness (responsive layout, touch targets)\n")
		b.WriteString("Report each score with a one-sentence justification and list concrete fixes.\n")
		return GuidanceResult{Prompt: b.String()}, nil
	}
}
