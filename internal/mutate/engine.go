package mutate

import (
	"context"
	"errors"
	"fmt"

	"github.com/aidanlsb/arbor/internal/canon"
	"github.com/aidanlsb/arbor/internal/graph"
	"github.com/aidanlsb/arbor/internal/parser"
	"github.com/aidanlsb/arbor/internal/paths"
	"github.com/aidanlsb/arbor/internal/reconcile"
)

// State is a step of a mutation.
type State int

const (
	StateIdle State = iota
	StateLocating
	StateEditing
	StateWriting
	StateReparsing
	StateReconciling
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLocating:
		return "locating"
	case StateEditing:
		return "editing"
	case StateWriting:
		return "writing"
	case StateReparsing:
		return "reparsing"
	case StateReconciling:
		return "reconciling"
	default:
		return "unknown"
	}
}

// StateError records the step a mutation failed in.
type StateError struct {
	State State
	Err   error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %v", e.State, e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

// Written reports whether the canonical file had already been rewritten when
// the failure happened. There is no rollback in that case.
func (e *StateError) Written() bool {
	return e.State > StateWriting
}

// Reloader re-parses the canonical source after a write, replacing whatever
// graph the process had cached.
type Reloader interface {
	Reload(ctx context.Context) (*graph.Graph, error)
}

// Engine runs insertions and removals against the canonical store.
type Engine struct {
	store      *canon.Store
	reloader   Reloader
	reconciler *reconcile.Reconciler

	// DefaultLayers are used when an insertion declares no layers.
	DefaultLayers []string
	// Trace, when set, is called on every state transition.
	Trace func(op string, s State)
}

// NewEngine wires an engine.
func NewEngine(store *canon.Store, reloader Reloader, reconciler *reconcile.Reconciler) *Engine {
	return &Engine{store: store, reloader: reloader, reconciler: reconciler}
}

// InsertResult is the outcome of Insert.
type InsertResult struct {
	Success        bool              `json:"success"`
	Name           string            `json:"name"`
	NumberAssigned string            `json:"number_assigned"`
	LinesAdded     int               `json:"lines_added"`
	Reconcile      *reconcile.Result `json:"reconcile,omitempty"`
}

// RemoveResult is the outcome of Remove.
type RemoveResult struct {
	Success      bool              `json:"success"`
	Name         string            `json:"name"`
	Number       string            `json:"number,omitempty"`
	LinesRemoved int               `json:"lines_removed"`
	Cleanup      reconcile.Cleanup `json:"cleanup"`
}

func (e *Engine) enter(op string, s State) {
	if e.Trace != nil {
		e.Trace(op, s)
	}
}

func (e *Engine) fail(op string, s State, err error) error {
	e.enter(op, StateIdle)
	return &StateError{State: s, Err: err}
}

// Insert adds spec to the canonical source, re-parses it and runs an
// incremental reconciliation so the new directories exist immediately.
func (e *Engine) Insert(ctx context.Context, spec InsertSpec) (*InsertResult, error) {
	const op = "insert"
	res := &InsertResult{Name: spec.Name, NumberAssigned: string(spec.Number)}
	if name := parser.NormalizeName(spec.Name); name != "" {
		res.Name = name
	}

	if len(spec.Layers) == 0 && spec.Number.Level() == 2 {
		spec.Layers = append([]string(nil), e.DefaultLayers...)
	}

	var plan Plan
	state := StateLocating
	err := e.store.Update(func(lines []string) ([]string, error) {
		e.enter(op, StateLocating)
		var err error
		plan, err = PlanInsert(lines, spec)
		if err != nil {
			return nil, err
		}

		state = StateEditing
		e.enter(op, state)
		updated, err := Apply(lines, plan.Edits)
		if err != nil {
			return nil, err
		}

		state = StateWriting
		e.enter(op, state)
		return updated, nil
	})
	if err != nil {
		return res, e.fail(op, state, err)
	}
	res.LinesAdded = plan.LinesAdded

	e.enter(op, StateReparsing)
	g, err := e.reloader.Reload(ctx)
	if err != nil {
		return res, e.fail(op, StateReparsing, err)
	}

	e.enter(op, StateReconciling)
	res.Reconcile = e.reconciler.Incremental(ctx, g)
	res.Success = true
	e.enter(op, StateIdle)
	return res, nil
}

// Remove deletes the named entity and its nested lines from the canonical
// source, re-parses it and applies mode to the entity's directory.
func (e *Engine) Remove(ctx context.Context, name string, mode reconcile.CleanupMode) (*RemoveResult, error) {
	const op = "remove"
	res := &RemoveResult{Name: name, Cleanup: reconcile.Cleanup{Mode: mode}}

	if _, err := reconcile.ParseCleanupMode(string(mode)); err != nil {
		return res, e.fail(op, StateLocating, &RejectedError{Reason: err.Error()})
	}

	var (
		plan     Plan
		segments []string
		resolved bool
	)
	state := StateLocating
	err := e.store.Update(func(lines []string) ([]string, error) {
		e.enter(op, StateLocating)
		var err error
		plan, err = PlanRemove(lines, name)
		if err != nil {
			return nil, err
		}
		segments, resolved = paths.Resolve(buildGraph(entityLines(lines)), plan.Target)

		state = StateEditing
		e.enter(op, state)
		updated, err := Apply(lines, plan.Edits)
		if err != nil {
			return nil, err
		}

		state = StateWriting
		e.enter(op, state)
		return updated, nil
	})
	if err != nil {
		return res, e.fail(op, state, err)
	}
	res.LinesRemoved = plan.LinesRemoved
	res.Number = string(plan.Target.Number)
	res.Name = plan.Target.Name

	e.enter(op, StateReparsing)
	if _, err := e.reloader.Reload(ctx); err != nil {
		return res, e.fail(op, StateReparsing, err)
	}

	e.enter(op, StateReconciling)
	if !resolved {
		res.Success = true
		e.enter(op, StateIdle)
		return res, nil
	}
	cleanup, err := e.reconciler.Clean(mode, segments, plan.Target.Name)
	res.Cleanup = cleanup
	if err != nil {
		return res, e.fail(op, StateReconciling, err)
	}

	res.Success = true
	e.enter(op, StateIdle)
	return res, nil
}

// IsRejected reports whether err is a rejection rather than an I/O failure.
func IsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}
