package answer

import (
	"context"
	"fmt"
	"sync"
)

// MockLLM is a deterministic LLM implementation for testing.
type MockLLM struct {
	// Response is the fixed text returned by Complete.
	// If empty, a default response is generated from the last message.
	Response string

	// Error, if set, is returned by Complete instead of a response.
	Error error

	// Respond, if set, takes precedence over Response and Error.
	Respond func(messages []Message, opts CompletionOptions) (string, error)

	mu           sync.Mutex
	calls        int
	lastMessages []Message
	lastOpts     CompletionOptions
}

// NewMockLLM creates a mock LLM with the given fixed response.
func NewMockLLM(response string) *MockLLM {
	return &MockLLM{Response: response}
}

// NewMockLLMWithError creates a mock LLM that always returns an error.
func NewMockLLMWithError(err error) *MockLLM {
	return &MockLLM{Error: err}
}

// Complete records the call and returns the configured reply.
func (m *MockLLM) Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error) {
	m.mu.Lock()
	m.calls++
	m.lastMessages = append([]Message(nil), messages...)
	m.lastOpts = opts
	m.mu.Unlock()

	if m.Respond != nil {
		return m.Respond(messages, opts)
	}
	if m.Error != nil {
		return "", m.Error
	}
	if m.Response != "" {
		return m.Response, nil
	}
	if len(messages) == 0 {
		return "", nil
	}
	return fmt.Sprintf("mock reply to: %s", messages[len(messages)-1].Content), nil
}

// Calls returns how many times Complete was invoked.
func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastMessages returns the messages of the most recent call.
func (m *MockLLM) LastMessages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastMessages
}

// LastOptions returns the options of the most recent call.
func (m *MockLLM) LastOptions() CompletionOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastOpts
}
