package tools

import "github.com/forcedotcom/magen/tool"

// ExtractionMeta describes the LLM-backed property extraction tool. There is
// no local handler: the calling LLM performs the extraction and the executor
// validates its result.
var ExtractionMeta = tool.Metadata{
	Name:        "property_extraction",
	Description: "Extracts named project properties from a raw user utterance.",
}

// ExtractionInput is the input schema for property extraction.
type ExtractionInput struct {
	UserInput  any                  `json:"userInput"`
	Properties []PropertyDescriptor `json:"properties" validate:"required,dive"`
}

// PropertyDescriptor mirrors the workflow's property metadata on the wire.
type PropertyDescriptor struct {
	PropertyName string `json:"propertyName" validate:"required"`
	FriendlyName string `json:"friendlyName"`
	Description  string `json:"description"`
}

// ExtractionResult maps property names to extracted values. Properties the
// model could not extract are simply absent.
type ExtractionResult struct {
	Properties map[string]any `json:"properties"`
}

// TriageMeta describes the LLM-backed input triage tool, which extracts
// properties in a single call and reports how confident it is.
var TriageMeta = tool.Metadata{
	Name:        "user_input_triage",
	Description: "Analyzes a user utterance, extracting properties plus confidence and gaps.",
}

// TriageInput is the input schema for input triage.
type TriageInput struct {
	UserInput  any                  `json:"userInput"`
	Properties []PropertyDescriptor `json:"properties" validate:"required,dive"`
}

// TriageResult is the triage tool's result: extracted properties plus
// analysis metadata about what is missing or assumed.
type TriageResult struct {
	ExtractedProperties map[string]any `json:"extractedProperties"`
	ConfidenceLevel     string         `json:"confidenceLevel" validate:"omitempty,oneof=high medium low"`
	MissingInformation  []string       `json:"missingInformation"`
	Assumptions         []string       `json:"assumptions"`
}
