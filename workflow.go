package magen

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/forcedotcom/magen/checkpoint"
	"github.com/forcedotcom/magen/env"
	"github.com/forcedotcom/magen/graph"
	"github.com/forcedotcom/magen/run"
	"github.com/forcedotcom/magen/tool"
	"github.com/forcedotcom/magen/tools"
)

// End re-exports the terminal node name for workflow callers.
const End = graph.End

// DefaultCheckpointPath returns the standard checkpoint file location.
func DefaultCheckpointPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".magen", "workflow_state.json")
	}
	return filepath.Join(home, ".magen", "workflow_state.json")
}

// WorkflowConfig carries the collaborators a workflow is wired with. Zero
// values get production defaults: a registry executor over the local tools,
// an os/exec command runner, and a JSON file checkpoint saver at the
// standard path.
type WorkflowConfig struct {
	Executor         tool.Executor
	Runner           run.CommandRunner
	Saver            checkpoint.Saver
	Logger           *slog.Logger
	EnvVars          *env.Vars
	OutputDirectory  string
	MaxBuildAttempts int
	MaxSteps         int
}

func (c *WorkflowConfig) applyDefaults() error {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Runner == nil {
		c.Runner = run.NewExecRunner(run.WithLogger(c.Logger))
	}
	if c.Executor == nil {
		reg := tool.NewRegistry(tool.WithLogger(c.Logger))
		tools.RegisterAll(reg, c.Runner, c.Logger)
		c.Executor = reg
	}
	if c.Saver == nil {
		codec, err := checkpoint.NewCodec(true)
		if err != nil {
			return err
		}
		store := checkpoint.NewFileStore(DefaultCheckpointPath(), checkpoint.WithLogger(c.Logger))
		c.Saver = checkpoint.NewFileSaver(store, codec)
	}
	if c.MaxBuildAttempts <= 0 {
		c.MaxBuildAttempts = DefaultMaxBuildAttempts
	}
	return nil
}

// Workflow is a compiled graph bound to its driver.
type Workflow struct {
	runner         *graph.Runner[State, Patch]
	saver          checkpoint.Saver
	conversational bool
}

// Run executes the workflow from its entry point. Conversational workflows
// continue their thread across turns: when an earlier run on the thread left
// checkpoints behind, the new run starts from that state with the fresh user
// input applied and the pending question cleared, so properties extracted on
// previous turns survive.
func (w *Workflow) Run(ctx context.Context, threadID string, initial State) (State, error) {
	if w.conversational {
		prior, ok, err := w.runner.LatestState(ctx, threadID)
		if err != nil {
			return State{}, err
		}
		if ok {
			initial = nextTurn(prior, initial)
		}
	}
	return w.runner.Run(ctx, threadID, initial)
}

// nextTurn carries a thread's accumulated state into a new conversational
// turn: the caller's user input replaces the previous one, the answered
// question is cleared, and the turn gets its own run identity.
func nextTurn(prior, incoming State) State {
	s := prior.Clone()
	s.UserInput = incoming.UserInput
	s.UserInputQuestion = ""
	if incoming.RunID != "" {
		s.RunID = incoming.RunID
	}
	if incoming.ThreadID != "" {
		s.ThreadID = incoming.ThreadID
	}
	if !incoming.StartTime.IsZero() {
		s.StartTime = incoming.StartTime
	}
	return s
}

// Resume continues an interrupted run from its latest checkpoint.
func (w *Workflow) Resume(ctx context.Context, threadID string) (State, error) {
	return w.runner.Resume(ctx, threadID)
}

// Clear discards a thread's checkpoints, abandoning any interrupted run.
func (w *Workflow) Clear(ctx context.Context, threadID string) error {
	return w.saver.DeleteThread(ctx, threadID)
}

// =============================================================================
// App generation workflow
// =============================================================================

// NewAppGenerationWorkflow wires the native mobile app generation graph:
// triage the user utterance, collect missing properties, validate the
// environment and CLI plugins, discover a template, generate the project,
// build with bounded retries, then deploy for the target platform.
//
// The workflow is human-in-the-loop: when required properties are missing it
// formats a follow-up question and ends the run with checkpoints retained,
// so the conversation can resume on the same thread once the user answers.
func NewAppGenerationWorkflow(cfg WorkflowConfig) (*Workflow, error) {
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	required := AppGenerationProperties()
	logOpt := WithNodeLogger(cfg.Logger)

	b := graph.NewBuilder[State, Patch]()
	b.AddNode(NewUserInputTriageNode(cfg.Executor, required, logOpt))
	b.AddNode(NewGetUserInputNode(required, logOpt))
	b.AddNode(NewEnvironmentValidationNode(cfg.Runner, cfg.EnvVars, logOpt))
	b.AddNode(NewPluginValidationNode(cfg.Runner, logOpt))
	b.AddNode(NewTemplateDiscoveryNode(cfg.Executor, logOpt))
	b.AddNode(NewProjectGenerationNode(cfg.Executor, cfg.OutputDirectory, logOpt))
	b.AddNode(NewBuildValidationNode(cfg.Executor, logOpt))
	b.AddNode(NewAndroidEmulatorNode(cfg.Runner, logOpt))
	b.AddNode(NewAndroidInstallAppNode(cfg.Runner, logOpt))
	b.AddNode(NewIOSDeploymentNode(cfg.Executor, logOpt))
	b.AddNode(NewWorkflowFailureNode(logOpt))

	b.AddRouter(&CheckPropertiesFulfilledRouter{
		RouterName:      RouterPropertiesFulfilled,
		Required:        required,
		FulfilledNode:   NodeEnvironmentValidation,
		UnfulfilledNode: NodeGetUserInput,
	})
	b.AddRouter(&CheckEnvironmentValidatedRouter{
		RouterName:  RouterEnvironmentValidated,
		ValidNode:   NodePluginValidation,
		InvalidNode: NodeWorkflowFailure,
	})
	b.AddRouter(&CheckPluginValidatedRouter{
		RouterName:  RouterPluginValidated,
		ValidNode:   NodeTemplateDiscovery,
		InvalidNode: NodeWorkflowFailure,
	})
	b.AddRouter(&CheckProjectGenerationRouter{
		RouterName:  RouterProjectGeneration,
		SuccessNode: NodeBuildValidation,
		FailureNode: NodeWorkflowFailure,
	})
	b.AddRouter(&CheckBuildStatusRouter{
		RouterName:  RouterBuildStatus,
		MaxAttempts: cfg.MaxBuildAttempts,
		SuccessNode: NodeAndroidEmulator,
		RetryNode:   NodeBuildValidation,
		FailureNode: NodeWorkflowFailure,
	})
	b.AddRouter(&CheckFatalErrorsRouter{
		RouterName:  RouterFatalErrors + "_emulator",
		HealthyNode: NodeAndroidInstallApp,
		FailureNode: NodeWorkflowFailure,
	})
	b.AddRouter(&CheckFatalErrorsRouter{
		RouterName:  RouterFatalErrors + "_install",
		HealthyNode: NodeIOSDeployment,
		FailureNode: NodeWorkflowFailure,
	})
	b.AddRouter(&CheckFatalErrorsRouter{
		RouterName:  RouterFatalErrors + "_deploy",
		HealthyNode: End,
		FailureNode: NodeWorkflowFailure,
	})

	b.SetEntryPoint(NodeUserInputTriage)
	b.AddEdge(NodeUserInputTriage, RouterPropertiesFulfilled)
	b.AddEdge(NodeGetUserInput, End)
	b.AddEdge(NodeEnvironmentValidation, RouterEnvironmentValidated)
	b.AddEdge(NodePluginValidation, RouterPluginValidated)
	b.AddEdge(NodeTemplateDiscovery, NodeProjectGeneration)
	b.AddEdge(NodeProjectGeneration, RouterProjectGeneration)
	b.AddEdge(NodeBuildValidation, RouterBuildStatus)
	b.AddEdge(NodeAndroidEmulator, RouterFatalErrors+"_emulator")
	b.AddEdge(NodeAndroidInstallApp, RouterFatalErrors+"_install")
	b.AddEdge(NodeIOSDeployment, RouterFatalErrors+"_deploy")
	b.AddEdge(NodeWorkflowFailure, End)

	g, err := b.Compile()
	if err != nil {
		return nil, err
	}
	return newWorkflow(g, cfg, true), nil
}

// =============================================================================
// PRD workflow
// =============================================================================

// NewPRDWorkflow wires the Product Requirement Document graph: ask for a
// feature description if one was not supplied, then render the PRD prompt.
func NewPRDWorkflow(cfg WorkflowConfig) (*Workflow, error) {
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	required := NewPropertyMetadataCollection(PropertyMetadata{
		Name:         "userInput",
		FriendlyName: "Feature Description",
		Description:  "A description of the product or feature the PRD should cover.",
	})
	logOpt := WithNodeLogger(cfg.Logger)

	b := graph.NewBuilder[State, Patch]()
	b.AddNode(NewGetUserInputNode(required, logOpt))
	b.AddNode(NewPRDGenerationNode(cfg.Executor, logOpt))
	b.AddRouter(&CheckPropertiesFulfilledRouter{
		RouterName:      RouterPropertiesFulfilled,
		Required:        required,
		FulfilledNode:   NodePRDGeneration,
		UnfulfilledNode: End,
	})
	b.SetEntryPoint(NodeGetUserInput)
	b.AddEdge(NodeGetUserInput, RouterPropertiesFulfilled)
	b.AddEdge(NodePRDGeneration, End)

	g, err := b.Compile()
	if err != nil {
		return nil, err
	}
	return newWorkflow(g, cfg, false), nil
}

// =============================================================================
// LWC evaluation workflow
// =============================================================================

// NewLWCEvaluationWorkflow wires the Lightning Web Component evaluation
// graph: render a structured review prompt for the submitted component.
func NewLWCEvaluationWorkflow(cfg WorkflowConfig) (*Workflow, error) {
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	logOpt := WithNodeLogger(cfg.Logger)

	b := graph.NewBuilder[State, Patch]()
	b.AddNode(NewLWCEvaluationNode(cfg.Executor, logOpt))
	b.AddNode(NewWorkflowFailureNode(logOpt))
	b.AddRouter(&CheckFatalErrorsRouter{
		RouterName:  RouterFatalErrors,
		HealthyNode: End,
		FailureNode: NodeWorkflowFailure,
	})
	b.SetEntryPoint(NodeLWCEvaluation)
	b.AddEdge(NodeLWCEvaluation, RouterFatalErrors)
	b.AddEdge(NodeWorkflowFailure, End)

	g, err := b.Compile()
	if err != nil {
		return nil, err
	}
	return newWorkflow(g, cfg, false), nil
}

func newWorkflow(g *graph.Graph[State, Patch], cfg WorkflowConfig, humanInTheLoop bool) *Workflow {
	opts := []graph.RunnerOption[State, Patch]{
		graph.WithSaver[State, Patch](cfg.Saver),
		graph.WithLogger[State, Patch](cfg.Logger),
	}
	if cfg.MaxSteps > 0 {
		opts = append(opts, graph.WithMaxSteps[State, Patch](cfg.MaxSteps))
	}
	// Human-in-the-loop workflows end runs while waiting on the user, so
	// their checkpoints must survive the terminal step.
	if humanInTheLoop {
		opts = append(opts, graph.KeepCheckpoints[State, Patch]())
	}
	return &Workflow{
		runner:         graph.NewRunner(g, MergeState, opts...),
		saver:          cfg.Saver,
		conversational: humanInTheLoop,
	}
}
