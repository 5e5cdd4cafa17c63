// Package generator defines the boundary to the opaque text-generation
// collaborator and the recorded-call machinery that makes pure playback
// possible without re-invoking it.
package generator

import (
	"context"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Options parameterizes one generation call.
type Options struct {
	// Seed makes the collaborator's output reproducible; produced by the
	// seed deriver, never chosen ad hoc.
	Seed uint32
	// Temperature is passed through to the collaborator untouched.
	Temperature float64
}

// Generator is the opaque text-generation collaborator. Timeouts and
// retries are the collaborator's responsibility; callers only pass ctx for
// cooperative cancellation.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// Call records one generator invocation so a pure-playback pass can
// substitute the recorded result instead of re-invoking the collaborator.
type Call struct {
	Seed       uint32 `json:"seed"`
	PromptHash string `json:"prompt_hash"`
	Prompt     string `json:"prompt"`
	Result     string `json:"result"`
}

// HashPrompt returns the stable identity of a prompt used to match playback
// calls against recorded ones.
func HashPrompt(prompt string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(prompt))
}
