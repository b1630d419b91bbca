package run

import (
	"context"
	"sync"
)

// MockRunner is a CommandRunner for tests. It records every call and replies
// from a queue of canned results, or with Default when the queue is empty.
type MockRunner struct {
	mu      sync.Mutex
	calls   []Call
	queue   []Response
	Default Response
}

// Call records one Execute invocation.
type Call struct {
	Command string
	Args    []string
	Opts    Options
}

// Response is a canned reply for MockRunner.
type Response struct {
	Result Result
	Err    error
}

// NewMockRunner creates a mock whose default reply is a successful, empty
// result.
func NewMockRunner() *MockRunner {
	return &MockRunner{Default: Response{Result: Result{Success: true}}}
}

// Enqueue appends canned responses consumed in order by Execute.
func (m *MockRunner) Enqueue(responses ...Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, responses...)
}

// Execute records the call and returns the next canned response.
func (m *MockRunner) Execute(ctx context.Context, command string, args []string, opts Options) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Command: command, Args: args, Opts: opts})
	if len(m.queue) > 0 {
		resp := m.queue[0]
		m.queue = m.queue[1:]
		return resp.Result, resp.Err
	}
	return m.Default.Result, m.Default.Err
}

// Calls returns the recorded invocations.
func (m *MockRunner) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times Execute was invoked.
func (m *MockRunner) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
