package generator

import (
	"context"
	"sync"
)

// Log accumulates generator calls for one recorded session.
type Log struct {
	mu    sync.Mutex
	calls []Call
}

// NewLog creates an empty call log.
func NewLog() *Log {
	return &Log{}
}

// Record appends one call.
func (l *Log) Record(call Call) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

// Calls returns a copy of the recorded calls in invocation order.
func (l *Log) Calls() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Call, len(l.calls))
	copy(out, l.calls)
	return out
}

// Len returns the number of recorded calls.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

// Flush hands off the accumulated calls to the container writer and clears
// the log.
func (l *Log) Flush() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	flushed := l.calls
	l.calls = nil
	return flushed
}

// Recording wraps a generator so every successful call lands in the log.
type Recording struct {
	inner Generator
	log   *Log
}

// NewRecording creates a recording wrapper around the collaborator.
func NewRecording(inner Generator, log *Log) *Recording {
	return &Recording{inner: inner, log: log}
}

// Generate invokes the wrapped collaborator and records the call.
func (r *Recording) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	result, err := r.inner.Generate(ctx, prompt, opts)
	if err != nil {
		return "", err
	}
	r.log.Record(Call{
		Seed:       opts.Seed,
		PromptHash: HashPrompt(prompt),
		Prompt:     prompt,
		Result:     result,
	})
	return result, nil
}
