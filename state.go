package magen

import (
	"fmt"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// =============================================================================
// Platform / Build Types
// =============================================================================

// Platform identifies the target mobile platform.
type Platform = string

const (
	PlatformIOS     Platform = "iOS"
	PlatformAndroid Platform = "Android"
)

// Build types understood by the build and deployment nodes.
const (
	BuildTypeDebug   = "debug"
	BuildTypeRelease = "release"
)

// =============================================================================
// State - Full Workflow State
// =============================================================================

// State is the complete state threaded through a workflow run. It is a flat
// superset of every field any node may read or write. Nodes receive State by
// value, must treat it as read-only, and communicate changes exclusively
// through a returned Patch that the graph driver merges.
type State struct {
	// Identification
	RunID     string    `json:"runId,omitempty"`
	ThreadID  string    `json:"threadId,omitempty"`
	StartTime time.Time `json:"startTime,omitzero"`

	// User-supplied project properties
	Platform                Platform `json:"platform,omitempty"`
	ProjectName             string   `json:"projectName,omitempty"`
	PackageName             string   `json:"packageName,omitempty"`
	Organization            string   `json:"organization,omitempty"`
	ConnectedAppClientID    string   `json:"connectedAppClientId,omitempty"`
	ConnectedAppCallbackURI string   `json:"connectedAppCallbackUri,omitempty"`
	LoginHost               string   `json:"loginHost,omitempty"`

	// Conversation
	UserInput         any    `json:"userInput,omitempty"`
	UserInputQuestion string `json:"userInputQuestion,omitempty"`

	// Project generation
	SelectedTemplate string `json:"selectedTemplate,omitempty"`
	ProjectPath      string `json:"projectPath,omitempty"`

	// Build and deployment
	BuildType           string `json:"buildType,omitempty"`
	TargetDevice        string `json:"targetDevice,omitempty"`
	BuildAttemptCount   int    `json:"buildAttemptCount,omitempty"`
	BuildSuccessful     bool   `json:"buildSuccessful,omitempty"`
	BuildOutputFilePath string `json:"buildOutputFilePath,omitempty"`
	DeploymentGuidance  string `json:"deploymentGuidance,omitempty"`

	// Document workflows (PRD generation, LWC evaluation)
	GeneratedDocument string `json:"generatedDocument,omitempty"`

	// Environment validation
	ValidEnvironment           bool     `json:"validEnvironment,omitempty"`
	InvalidEnvironmentMessages []string `json:"invalidEnvironmentMessages,omitempty"`
	ValidPluginSetup           bool     `json:"validPluginSetup,omitempty"`
	ValidPlatformSetup         bool     `json:"validPlatformSetup,omitempty"`

	// Error tracking
	WorkflowFatalErrorMessages []string `json:"workflowFatalErrorMessages,omitempty"`
}

// NewState creates a workflow state with fresh run and thread IDs.
func NewState() State {
	return State{
		RunID:     generateRunID(),
		ThreadID:  generateRunID(),
		StartTime: time.Now(),
	}
}

// WithThreadID sets a custom thread ID (for resuming an existing session).
func (s State) WithThreadID(threadID string) State {
	s.ThreadID = threadID
	return s
}

// WithUserInput seeds the initial user utterance.
func (s State) WithUserInput(input any) State {
	s.UserInput = input
	return s
}

// HasFatalErrors returns true if any fatal workflow errors have accumulated.
func (s State) HasFatalErrors() bool {
	return len(s.WorkflowFatalErrorMessages) > 0
}

// Clone returns a deep copy of the state. Slice-valued fields are copied so
// that patches applied to the clone never alias the original.
func (s State) Clone() State {
	c := s
	c.InvalidEnvironmentMessages = cloneStrings(s.InvalidEnvironmentMessages)
	c.WorkflowFatalErrorMessages = cloneStrings(s.WorkflowFatalErrorMessages)
	return c
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Field returns the value of the named state field, using the same property
// names the JSON encoding uses. The second return is false for unknown names.
func (s State) Field(name string) (any, bool) {
	switch name {
	case "runId":
		return s.RunID, true
	case "threadId":
		return s.ThreadID, true
	case "platform":
		return s.Platform, true
	case "projectName":
		return s.ProjectName, true
	case "packageName":
		return s.PackageName, true
	case "organization":
		return s.Organization, true
	case "connectedAppClientId":
		return s.ConnectedAppClientID, true
	case "connectedAppCallbackUri":
		return s.ConnectedAppCallbackURI, true
	case "loginHost":
		return s.LoginHost, true
	case "userInput":
		return s.UserInput, true
	case "userInputQuestion":
		return s.UserInputQuestion, true
	case "selectedTemplate":
		return s.SelectedTemplate, true
	case "projectPath":
		return s.ProjectPath, true
	case "buildType":
		return s.BuildType, true
	case "targetDevice":
		return s.TargetDevice, true
	case "buildAttemptCount":
		return s.BuildAttemptCount, true
	case "buildSuccessful":
		return s.BuildSuccessful, true
	case "buildOutputFilePath":
		return s.BuildOutputFilePath, true
	case "deploymentGuidance":
		return s.DeploymentGuidance, true
	case "generatedDocument":
		return s.GeneratedDocument, true
	case "validEnvironment":
		return s.ValidEnvironment, true
	case "invalidEnvironmentMessages":
		return s.InvalidEnvironmentMessages, true
	case "validPluginSetup":
		return s.ValidPluginSetup, true
	case "validPlatformSetup":
		return s.ValidPlatformSetup, true
	case "workflowFatalErrorMessages":
		return s.WorkflowFatalErrorMessages, true
	default:
		return nil, false
	}
}

// IsFulfilled reports whether the named field holds a usable value: strings
// must be non-empty, booleans true, numbers non-zero, and slices non-empty.
// Unknown field names are never fulfilled.
func (s State) IsFulfilled(name string) bool {
	v, ok := s.Field(name)
	if !ok {
		return false
	}
	return fulfilled(v)
}

func fulfilled(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case int:
		return val != 0
	case float64:
		return val != 0
	case []string:
		return len(val) > 0
	default:
		return true
	}
}

// =============================================================================
// Patch - Partial State Updates
// =============================================================================

// Patch is a partial state update keyed by property name. A node's returned
// patch is the only channel by which it affects downstream state; absent keys
// leave the corresponding field untouched.
type Patch map[string]any

// FatalErrorPatch returns a patch appending msg to the state's fatal error
// messages. The merge appends rather than replaces, so nodes only supply the
// new entries.
func FatalErrorPatch(msg string) Patch {
	return Patch{"workflowFatalErrorMessages": []string{msg}}
}

// MergeState applies a patch to a clone of the state and returns the result.
// The input state is never modified. Fatal error and invalid environment
// messages accumulate; every other field is replaced by the patched value.
func MergeState(s State, p Patch) State {
	out := s.Clone()
	for name, v := range p {
		out.apply(name, v)
	}
	return out
}

func (s *State) apply(name string, v any) {
	switch name {
	case "runId":
		s.RunID = asString(v)
	case "threadId":
		s.ThreadID = asString(v)
	case "platform":
		s.Platform = asString(v)
	case "projectName":
		s.ProjectName = asString(v)
	case "packageName":
		s.PackageName = asString(v)
	case "organization":
		s.Organization = asString(v)
	case "connectedAppClientId":
		s.ConnectedAppClientID = asString(v)
	case "connectedAppCallbackUri":
		s.ConnectedAppCallbackURI = asString(v)
	case "loginHost":
		s.LoginHost = asString(v)
	case "userInput":
		s.UserInput = v
	case "userInputQuestion":
		s.UserInputQuestion = asString(v)
	case "selectedTemplate":
		s.SelectedTemplate = asString(v)
	case "projectPath":
		s.ProjectPath = asString(v)
	case "buildType":
		s.BuildType = asString(v)
	case "targetDevice":
		s.TargetDevice = asString(v)
	case "buildAttemptCount":
		s.BuildAttemptCount = asInt(v)
	case "buildSuccessful":
		s.BuildSuccessful = asBool(v)
	case "buildOutputFilePath":
		s.BuildOutputFilePath = asString(v)
	case "deploymentGuidance":
		s.DeploymentGuidance = asString(v)
	case "generatedDocument":
		s.GeneratedDocument = asString(v)
	case "validEnvironment":
		s.ValidEnvironment = asBool(v)
	case "invalidEnvironmentMessages":
		s.InvalidEnvironmentMessages = append(s.InvalidEnvironmentMessages, asStrings(v)...)
	case "validPluginSetup":
		s.ValidPluginSetup = asBool(v)
	case "validPlatformSetup":
		s.ValidPlatformSetup = asBool(v)
	case "workflowFatalErrorMessages":
		s.WorkflowFatalErrorMessages = append(s.WorkflowFatalErrorMessages, asStrings(v)...)
	}
}

// Coercion helpers. Patches built from decoded JSON carry float64 for numbers
// and []any for arrays, so each typed field accepts both the native Go type
// and its JSON-decoded shape.

func asString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asInt(v any) int {
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	default:
		return 0
	}
}

func asStrings(v any) []string {
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, e := range val {
			out = append(out, asString(e))
		}
		return out
	case string:
		return []string{val}
	default:
		return nil
	}
}

// generateRunID creates a short unique identifier for runs and threads.
func generateRunID() string {
	id, err := nanoid.New()
	if err != nil {
		// nanoid only fails if the system entropy source is broken
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return id
}
