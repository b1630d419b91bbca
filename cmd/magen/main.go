// Command magen runs the mobile app generation workflows from the terminal.
// It is mainly a development harness; production callers embed the workflows
// behind an MCP tool surface.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/forcedotcom/magen"
	"github.com/forcedotcom/magen/checkpoint"
	"github.com/forcedotcom/magen/config"
	"github.com/forcedotcom/magen/env"
)

var (
	flagConfig   string
	flagThread   string
	flagWorkflow string
	flagInput    string
)

var rootCmd = &cobra.Command{
	Use:   "magen",
	Short: "Generate, build, and deploy native Salesforce mobile apps",
	Long: `magen drives LLM-guided workflows for native mobile app generation:
collecting project properties from user input, validating the local
toolchain, generating a project from a platform template, building it
with bounded retries, and deploying to a simulator or emulator.

Workflow progress is checkpointed after every step, so an interrupted
run resumes on the same thread.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a workflow run",
	Long: `Start a workflow run on the given thread. The app workflow pauses and
ends the run when required properties are missing; answer its question
and run again on the same thread to continue.`,
	Example: `  # Start an app generation run
  magen run --thread t1 --input "Build an iOS app called FieldOps"

  # Generate a PRD
  magen run --workflow prd --thread t2 --input "Offline-first inventory scanner"`,
	RunE: runRun,
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume an interrupted run from its latest checkpoint",
	RunE:  runResume,
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the latest checkpointed state for a thread",
	RunE:  runState,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard a thread's checkpoints",
	RunE:  runClear,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagThread, "thread", "default", "Workflow thread ID")
	runCmd.Flags().StringVar(&flagWorkflow, "workflow", "app", "Workflow to run: app, prd, or lwc")
	runCmd.Flags().StringVar(&flagInput, "input", "", "User input: free text, or a JSON object for the lwc workflow")
	rootCmd.AddCommand(runCmd, resumeCmd, stateCmd, clearCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setup() (config.Config, magen.WorkflowConfig, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, magen.WorkflowConfig{}, err
	}

	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return cfg, magen.WorkflowConfig{}, fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	vars, err := env.Load(cfg.EnvVarsPath)
	if err != nil {
		return cfg, magen.WorkflowConfig{}, fmt.Errorf("load env vars: %w", err)
	}

	saver, err := openSaver(cfg, logger)
	if err != nil {
		return cfg, magen.WorkflowConfig{}, err
	}

	return cfg, magen.WorkflowConfig{
		Saver:            saver,
		Logger:           logger,
		EnvVars:          vars,
		OutputDirectory:  cfg.OutputDirectory,
		MaxBuildAttempts: cfg.MaxBuildAttempts,
		MaxSteps:         cfg.MaxSteps,
	}, nil
}

func openSaver(cfg config.Config, logger *slog.Logger) (checkpoint.Saver, error) {
	codec, err := checkpoint.NewCodec(true)
	if err != nil {
		return nil, err
	}
	switch cfg.CheckpointStore {
	case config.StoreSQLite:
		return checkpoint.OpenSQLiteSaver(cfg.CheckpointPath, codec)
	default:
		store := checkpoint.NewFileStore(cfg.CheckpointPath, checkpoint.WithLogger(logger))
		return checkpoint.NewFileSaver(store, codec), nil
	}
}

func buildWorkflow(wcfg magen.WorkflowConfig) (*magen.Workflow, error) {
	switch flagWorkflow {
	case "app":
		return magen.NewAppGenerationWorkflow(wcfg)
	case "prd":
		return magen.NewPRDWorkflow(wcfg)
	case "lwc":
		return magen.NewLWCEvaluationWorkflow(wcfg)
	default:
		return nil, fmt.Errorf("unknown workflow %q: must be app, prd, or lwc", flagWorkflow)
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	_, wcfg, err := setup()
	if err != nil {
		return err
	}
	wf, err := buildWorkflow(wcfg)
	if err != nil {
		return err
	}

	state := magen.NewState()
	state.ThreadID = flagThread
	state.UserInput = parseInput(flagInput)

	final, err := wf.Run(cmd.Context(), flagThread, state)
	if err != nil {
		return err
	}
	return printState(final)
}

func runResume(cmd *cobra.Command, args []string) error {
	_, wcfg, err := setup()
	if err != nil {
		return err
	}
	wf, err := buildWorkflow(wcfg)
	if err != nil {
		return err
	}
	final, err := wf.Resume(cmd.Context(), flagThread)
	if err != nil {
		return err
	}
	return printState(final)
}

func runState(cmd *cobra.Command, args []string) error {
	_, wcfg, err := setup()
	if err != nil {
		return err
	}
	tup, err := wcfg.Saver.Latest(cmd.Context(), flagThread)
	if err != nil {
		return err
	}
	fmt.Printf("checkpoint %s (step %d, next %s)\n",
		tup.Checkpoint.ID, tup.Metadata.Step, tup.Checkpoint.NextNode)
	var pretty map[string]any
	if err := json.Unmarshal(tup.Checkpoint.State, &pretty); err != nil {
		return err
	}
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	_, wcfg, err := setup()
	if err != nil {
		return err
	}
	if err := wcfg.Saver.DeleteThread(cmd.Context(), flagThread); err != nil {
		return err
	}
	fmt.Printf("cleared thread %s\n", flagThread)
	return nil
}

// parseInput treats input that parses as a JSON object or array as
// structured input; anything else is a plain utterance.
func parseInput(raw string) any {
	if raw == "" {
		return nil
	}
	var structured any
	if err := json.Unmarshal([]byte(raw), &structured); err == nil {
		switch structured.(type) {
		case map[string]any, []any:
			return structured
		}
	}
	return raw
}

func printState(s magen.State) error {
	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	if s.UserInputQuestion != "" {
		fmt.Fprintln(os.Stderr, "\n"+s.UserInputQuestion)
	}
	return nil
}
