package magen

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/forcedotcom/magen/tool"
)

// stubExecutor is a scripted tool.Executor for node tests: each tool name maps
// to a canned result value (or error), and every invocation is recorded.
type stubExecutor struct {
	mu      sync.Mutex
	results map[string]any
	errs    map[string]error
	calls   []string
	inputs  map[string]any
}

func newStubExecutor() *stubExecutor {
	return &stubExecutor{
		results: make(map[string]any),
		errs:    make(map[string]error),
		inputs:  make(map[string]any),
	}
}

func (e *stubExecutor) on(toolName string, result any) *stubExecutor {
	e.results[toolName] = result
	return e
}

func (e *stubExecutor) failWith(toolName string, err error) *stubExecutor {
	e.errs[toolName] = err
	return e
}

func (e *stubExecutor) Execute(ctx context.Context, meta tool.Metadata, input any, result any) error {
	e.mu.Lock()
	e.calls = append(e.calls, meta.Name)
	e.inputs[meta.Name] = input
	e.mu.Unlock()

	if err := e.errs[meta.Name]; err != nil {
		return err
	}
	out, ok := e.results[meta.Name]
	if !ok {
		return fmt.Errorf("no scripted result for tool %q", meta.Name)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, result)
}

func (e *stubExecutor) callCount(toolName string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.calls {
		if c == toolName {
			n++
		}
	}
	return n
}

func (e *stubExecutor) lastInput(toolName string) any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inputs[toolName]
}
