package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/felixbrock/chartlint/internal/domain"
	"github.com/google/uuid"
)

// Profile selects the model tier and response budget of one completion call.
type Profile struct {
	Name      string
	Model     string
	MaxTokens int
}

type InferenceRepo interface {
	Complete(ctx context.Context, profile Profile, msgs []Message) (string, error)
}

type CatalogRepo interface {
	Load(ctx context.Context) (domain.RuleCatalog, error)
}

type State int

const (
	StateIdle State = iota
	StateClassifying
	StateRuleLookup
	StateComposing
	StateCritiquing
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateClassifying:
		return "classifying"
	case StateRuleLookup:
		return "rule-lookup"
	case StateComposing:
		return "composing"
	case StateCritiquing:
		return "critiquing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StageError reports the state a submission was in when it failed.
type StageError struct {
	State State
	Err   error
}

func (e *StageError) Error() string {
	return e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Linter classifies a chart, then critiques it against the rules of its category.
type Linter struct {
	Inference InferenceRepo
	Catalog   CatalogRepo
	Classify  Profile
	Critique  Profile
}

type lintRun struct {
	state State
	log   *slog.Logger
}

func (r *lintRun) to(s State) {
	r.log.Debug("lint state change", "from", r.state.String(), "to", s.String())
	r.state = s
}

func (r *lintRun) fail(err error) error {
	failed := &StageError{State: r.state, Err: err}
	r.to(StateFailed)
	return failed
}

// Lint runs both completion calls in sequence. Any failure aborts the whole
// submission and no partial result is returned.
func (l Linter) Lint(ctx context.Context, id string, artifact domain.Artifact) (*domain.Critique, error) {
	if id == "" {
		id = uuid.New().String()
	}
	run := &lintRun{state: StateIdle, log: slog.With("submission", id)}
	prompt := NewPrompt(artifact)

	run.to(StateClassifying)
	label, err := l.Inference.Complete(ctx, l.Classify, prompt.Classification())
	if err != nil {
		return nil, run.fail(err)
	}
	label = strings.TrimSpace(label)
	run.log.Info("detected chart type", "label", label)

	run.to(StateRuleLookup)
	catalog, err := l.Catalog.Load(ctx)
	if err != nil {
		return nil, run.fail(err)
	}
	category, rules, err := catalog.Lookup(label)
	if err != nil {
		return nil, run.fail(err)
	}
	if string(category) != label {
		run.log.Warn(fmt.Sprintf("no rules for %q, using %q", label, category))
	}

	run.to(StateComposing)
	msgs := prompt.Critique(rules)

	run.to(StateCritiquing)
	text, err := l.Inference.Complete(ctx, l.Critique, msgs)
	if err != nil {
		return nil, run.fail(err)
	}

	run.to(StateDone)
	critique := &domain.Critique{Id: id, Label: label, Category: category, Text: text, Created: time.Now()}
	if img := prompt.Image(); img != nil {
		critique.ImageUrl = img.Url
	}

	return critique, nil
}
