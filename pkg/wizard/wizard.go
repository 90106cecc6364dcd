package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/carsna/carsna/pkg/otelhelper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Status is the lifecycle state of a wizard.
type Status string

const (
	StatusOpen      Status = "open"
	StatusCancelled Status = "cancelled"
	StatusCommitted Status = "committed"
)

// Hooks are invoked outside the wizard lock. OnSuccess runs exactly once per successful
// commit, then OnClose. OnClose also runs after a cancel.
type Hooks[R any] struct {
	OnSuccess func(record R)
	OnClose   func()
}

// State is the navigation cursor of a wizard.
type State struct {
	CurrentStep  int    `json:"current_step"`
	FurthestStep int    `json:"furthest_step"`
	TotalSteps   int    `json:"total_steps"`
	IsSubmitting bool   `json:"is_submitting"`
	Status       Status `json:"status"`
}

// Snapshot is everything a renderer needs to draw the wizard.
type Snapshot struct {
	ID           string   `json:"id"`
	Kind         string   `json:"kind"`
	CurrentStep  int      `json:"current_step"`
	FurthestStep int      `json:"furthest_step"`
	TotalSteps   int      `json:"total_steps"`
	Steps        []Step   `json:"steps"`
	Errors       ErrorMap `json:"errors"`
	ErrorStep    int      `json:"error_step,omitempty"`
	SubmitError  string   `json:"submit_error,omitempty"`
	IsSubmitting bool     `json:"is_submitting"`
	Status       Status   `json:"status"`
	Draft        any      `json:"draft"`
	Record       any      `json:"record,omitempty"`
}

// Outcome is the result of a submission that reached the gate. Either Committed is
// set and Record holds the created record, or Errors/Message describe the failure and
// the draft is untouched. ErrorStep is the earliest step owning a failed field; it can
// lie before the terminal step when the commit rejects an earlier answer.
type Outcome struct {
	Committed bool     `json:"committed"`
	Record    any      `json:"record,omitempty"`
	Errors    ErrorMap `json:"errors,omitempty"`
	ErrorStep int      `json:"error_step,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// Session is the kind-independent view of an open wizard.
type Session interface {
	ID() string
	Kind() string
	SetFields(patch map[string]json.RawMessage) error
	Reset() error
	Next() (ErrorMap, error)
	Previous() error
	GoTo(step int) error
	Submit(ctx context.Context) (Outcome, error)
	Cancel() error
	State() State
	Snapshot() Snapshot
	PatchSchema() map[string]any
	LastActivity() time.Time
}

var _ Session = (*Wizard[struct{}, struct{}])(nil)

// Wizard drives one draft of type D through its steps and commits it as an R. It is
// owned by a single caller at a time; the lock only serialises concurrent requests
// against the same wizard.
type Wizard[D any, R any] struct {
	mu sync.Mutex

	id    string
	def   *Definition[D, R]
	hooks Hooks[R]

	draft       D
	errors      ErrorMap
	submitError string

	current    int
	furthest   int
	submitting bool
	status     Status
	record     *R

	lastActivity time.Time
}

// New opens a wizard at step 1 with a default draft.
func New[D any, R any](id string, def *Definition[D, R], hooks Hooks[R]) *Wizard[D, R] {
	return &Wizard[D, R]{
		id:           id,
		def:          def,
		hooks:        hooks,
		draft:        def.Defaults(),
		errors:       ErrorMap{},
		current:      1,
		furthest:     1,
		status:       StatusOpen,
		lastActivity: time.Now(),
	}
}

func (w *Wizard[D, R]) ID() string {
	return w.id
}

func (w *Wizard[D, R]) Kind() string {
	return w.def.Kind
}

// PatchSchema returns the JSON Schema of the fields this wizard accepts.
func (w *Wizard[D, R]) PatchSchema() map[string]any {
	return w.def.PatchSchema()
}

// guard must be called with the lock held.
func (w *Wizard[D, R]) guard() error {
	if w.status != StatusOpen {
		return ErrClosed
	}

	if w.submitting {
		return ErrSubmitting
	}

	w.lastActivity = time.Now()

	return nil
}

func (w *Wizard[D, R]) editable(name string) (Field[D], error) {
	field, ok := w.def.Field(name)
	if !ok {
		return field, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}

	if field.Step != w.current {
		return field, fmt.Errorf("%w: %s belongs to step %d", ErrFieldNotEditable, name, field.Step)
	}

	return field, nil
}

// SetField stores a JSON value under name and clears that field's error, whether or
// not the new value is valid.
func (w *Wizard[D, R]) SetField(name string, value json.RawMessage) error {
	return w.SetFields(map[string]json.RawMessage{name: value})
}

// SetFields applies a patch of field values. Either every value decodes and the whole
// patch applies, or nothing changes.
func (w *Wizard[D, R]) SetFields(patch map[string]json.RawMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.guard(); err != nil {
		return err
	}

	next := w.draft
	for name, raw := range patch {
		field, err := w.editable(name)
		if err != nil {
			return err
		}

		if err := field.set(&next, raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	w.draft = next
	for name := range patch {
		delete(w.errors, name)
	}

	return nil
}

// Update mutates the draft in Go code. The named fields must belong to the current
// step; their errors are cleared like SetField does.
func (w *Wizard[D, R]) Update(mutate func(draft *D), fields ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.guard(); err != nil {
		return err
	}

	for _, name := range fields {
		if _, err := w.editable(name); err != nil {
			return err
		}
	}

	mutate(&w.draft)

	for _, name := range fields {
		delete(w.errors, name)
	}

	return nil
}

// Reset restores every field to its default.
func (w *Wizard[D, R]) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.guard(); err != nil {
		return err
	}

	w.draft = w.def.Defaults()
	w.errors = ErrorMap{}
	w.submitError = ""

	return nil
}

// Next validates the current step and advances when it is clean. A non-empty ErrorMap
// means the move was rejected and the step is unchanged.
func (w *Wizard[D, R]) Next() (ErrorMap, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.guard(); err != nil {
		return nil, err
	}

	if w.current >= w.def.TotalSteps() {
		return nil, ErrTerminalStep
	}

	errs := w.def.ValidateStep(w.current, w.draft)
	w.errors = errs

	if !errs.Empty() {
		return errs.clone(), nil
	}

	w.current++
	w.furthest = max(w.furthest, w.current)

	return ErrorMap{}, nil
}

// Previous moves back one step without validating. It is a no-op on step 1.
func (w *Wizard[D, R]) Previous() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.guard(); err != nil {
		return err
	}

	if w.current > 1 {
		w.current--
	}

	return nil
}

// GoTo jumps back to any earlier step. Forward jumps are refused; use Next.
func (w *Wizard[D, R]) GoTo(step int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.guard(); err != nil {
		return err
	}

	if step < 1 || step > w.current {
		return fmt.Errorf("%w: %d (current step is %d)", ErrInvalidStep, step, w.current)
	}

	w.current = step

	return nil
}

// Submit re-validates the terminal step and hands the draft to the commit function.
// Navigation, edits, cancel and a second Submit are refused until the commit returns.
// A commit failure is folded into the error map (field errors) or the submit message
// (everything else) and leaves the draft as it was.
func (w *Wizard[D, R]) Submit(ctx context.Context) (Outcome, error) {
	w.mu.Lock()

	if err := w.guard(); err != nil {
		w.mu.Unlock()

		return Outcome{}, err
	}

	if w.current != w.def.TotalSteps() {
		w.mu.Unlock()

		return Outcome{}, ErrNotTerminalStep
	}

	errs := w.def.ValidateStep(w.current, w.draft)
	if !errs.Empty() {
		w.errors = errs
		w.submitError = ""
		w.mu.Unlock()

		return Outcome{Errors: errs.clone(), ErrorStep: w.current}, nil
	}

	w.submitting = true
	w.submitError = ""
	draft := w.draft
	w.mu.Unlock()

	record, err := w.commit(ctx, draft)

	w.mu.Lock()
	w.submitting = false
	w.lastActivity = time.Now()

	if err != nil {
		outcome := w.absorbFailure(err)
		w.mu.Unlock()

		return outcome, nil
	}

	w.status = StatusCommitted
	w.record = &record
	w.draft = w.def.Defaults()
	w.errors = ErrorMap{}
	hooks := w.hooks
	w.mu.Unlock()

	if hooks.OnSuccess != nil {
		hooks.OnSuccess(record)
	}

	if hooks.OnClose != nil {
		hooks.OnClose()
	}

	return Outcome{Committed: true, Record: record}, nil
}

func (w *Wizard[D, R]) commit(ctx context.Context, draft D) (R, error) {
	tracer := otel.Tracer("github.com/carsna/carsna/pkg/wizard")

	ctx, span := otelhelper.StartSpan(ctx, tracer, "wizard.submit",
		attribute.String(otelhelper.WizardKindKey, w.def.Kind),
		attribute.String(otelhelper.WizardIDKey, w.id),
	)
	defer span.End()

	record, err := w.def.Commit(ctx, draft)
	if err != nil {
		otelhelper.SetError(span, err)
	}

	return record, err
}

// absorbFailure must be called with the lock held.
func (w *Wizard[D, R]) absorbFailure(err error) Outcome {
	var fieldErr interface {
		error
		Field() string
	}

	if errors.As(err, &fieldErr) {
		if _, known := w.def.Field(fieldErr.Field()); known {
			message := fieldErr.Error()

			var typed *FieldError
			if errors.As(err, &typed) && typed.Message != "" {
				message = typed.Message
			}

			w.errors = ErrorMap{fieldErr.Field(): message}

			return Outcome{Errors: w.errors.clone(), ErrorStep: w.def.ErrorStep(w.errors)}
		}
	}

	w.submitError = err.Error()

	return Outcome{Errors: w.errors.clone(), ErrorStep: w.def.ErrorStep(w.errors), Message: w.submitError}
}

// Cancel discards the draft and closes the wizard. It is refused while submitting.
func (w *Wizard[D, R]) Cancel() error {
	w.mu.Lock()

	if err := w.guard(); err != nil {
		w.mu.Unlock()

		return err
	}

	w.status = StatusCancelled
	w.draft = w.def.Defaults()
	w.errors = ErrorMap{}
	w.submitError = ""
	onClose := w.hooks.OnClose
	w.mu.Unlock()

	if onClose != nil {
		onClose()
	}

	return nil
}

// Draft returns a copy of the current draft.
func (w *Wizard[D, R]) Draft() D {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.draft
}

// Errors returns a copy of the current error map.
func (w *Wizard[D, R]) Errors() ErrorMap {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.errors.clone()
}

// Record returns the committed record once the wizard is closed-committed.
func (w *Wizard[D, R]) Record() (R, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.record == nil {
		var zero R

		return zero, false
	}

	return *w.record, true
}

func (w *Wizard[D, R]) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.stateLocked()
}

func (w *Wizard[D, R]) stateLocked() State {
	return State{
		CurrentStep:  w.current,
		FurthestStep: w.furthest,
		TotalSteps:   w.def.TotalSteps(),
		IsSubmitting: w.submitting,
		Status:       w.status,
	}
}

func (w *Wizard[D, R]) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	state := w.stateLocked()
	snapshot := Snapshot{
		ID:           w.id,
		Kind:         w.def.Kind,
		CurrentStep:  state.CurrentStep,
		FurthestStep: state.FurthestStep,
		TotalSteps:   state.TotalSteps,
		Steps:        w.def.Steps,
		Errors:       w.errors.clone(),
		ErrorStep:    w.def.ErrorStep(w.errors),
		SubmitError:  w.submitError,
		IsSubmitting: state.IsSubmitting,
		Status:       state.Status,
		Draft:        w.draft,
	}

	if w.record != nil {
		snapshot.Record = *w.record
	}

	return snapshot
}

func (w *Wizard[D, R]) LastActivity() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.lastActivity
}
