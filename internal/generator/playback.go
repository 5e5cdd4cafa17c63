package generator

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	apperrors "github.com/louisbranch/palimpsest/internal/platform/errors"
)

// ErrCallNotFound indicates a playback request with no matching recorded call.
var ErrCallNotFound = apperrors.New(apperrors.CodeGeneratorCallNotFound, "no recorded generator call matches the prompt")

// Playback substitutes recorded results for generator calls, so replaying a
// container never re-invokes the external collaborator. Repeated calls with
// the same prompt consume recorded results in original invocation order.
type Playback struct {
	mu      sync.Mutex
	byHash  map[string][]Call
	cursors map[string]int
}

// NewPlayback indexes recorded calls by prompt identity.
func NewPlayback(calls []Call) *Playback {
	byHash := make(map[string][]Call)
	for _, call := range calls {
		byHash[call.PromptHash] = append(byHash[call.PromptHash], call)
	}
	return &Playback{
		byHash:  byHash,
		cursors: make(map[string]int),
	}
}

// Generate returns the next recorded result for the prompt. A prompt with no
// recorded call, or one whose recorded calls are exhausted, is a hard error;
// playback must never invent output.
func (p *Playback) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	hash := HashPrompt(prompt)

	p.mu.Lock()
	defer p.mu.Unlock()

	recorded := p.byHash[hash]
	cursor := p.cursors[hash]
	if cursor >= len(recorded) {
		return "", apperrors.WithMetadata(
			apperrors.CodeGeneratorCallNotFound,
			fmt.Sprintf("no recorded call for prompt hash %s (consumed %d of %d)", hash, cursor, len(recorded)),
			map[string]string{"prompt_hash": hash},
		)
	}
	p.cursors[hash] = cursor + 1
	return recorded[cursor].Result, nil
}

// Procedural is a deterministic stand-in collaborator: output depends only
// on the seed and prompt. It backs tests and offline recordings where no
// real narrative model is wired in.
type Procedural struct{}

var proceduralLexicon = []string{
	"the lantern gutters",
	"rain drums on the shutters",
	"a cart rolls past the mill",
	"someone laughs in the square",
	"the fog thins toward dusk",
	"a dog barks twice, then stops",
}

// Generate produces a short deterministic line for the prompt.
func (Procedural) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rng := rand.New(rand.NewSource(int64(opts.Seed)))
	parts := make([]string, 0, 2)
	for i := 0; i < 2; i++ {
		parts = append(parts, proceduralLexicon[rng.Intn(len(proceduralLexicon))])
	}
	return strings.Join(parts, "; "), nil
}
