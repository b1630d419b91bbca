// Package magen provides the workflow engine that guides an LLM agent
// through generating, building, and deploying native mobile app projects.
//
// The package is organized into subpackages by domain:
//
//   - graph: Workflow graph construction and the sequential driver
//   - checkpoint: Checkpoint persistence (JSON file and SQLite stores)
//   - run: External command execution with timeout control
//   - tool: MCP tool executor contract and registry
//   - tools: Prompt-template tool handlers (build, deploy, PRD, LWC)
//   - env: ~/.magen/env_vars configuration loading
//   - config: Workflow configuration
//
// The root package holds the workflow state model, the node and router
// implementations (node_*.go files), and the pre-wired workflows.
//
// # Quick Start
//
//	state := magen.NewState().WithUserInput("Create an iOS app called Foo")
//	wf, _ := magen.NewAppGenerationWorkflow(magen.WorkflowConfig{})
//	final, err := wf.Run(ctx, state.ThreadID, state)
//
// Nodes never mutate the state they receive; each returns a Patch that the
// graph driver merges before the next node runs, and every merged step is
// checkpointed so an interrupted workflow can resume.
package magen
