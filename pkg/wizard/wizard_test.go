package wizard_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/carsna/carsna/pkg/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupDraft struct {
	Name     string
	Email    string
	Rate     float64
	Password string
	Confirm  string
}

type signupRecord struct {
	ID     string
	Status string
}

func signupDefinition(t *testing.T, commit wizard.CommitFunc[signupDraft, signupRecord]) *wizard.Definition[signupDraft, signupRecord] {
	t.Helper()

	def, err := wizard.NewDefinition(
		"signup",
		[]wizard.Step{{Name: "profile"}, {Name: "terms"}, {Name: "credentials"}},
		[]wizard.Field[signupDraft]{
			wizard.StringField("name", 1, func(d *signupDraft) *string { return &d.Name }),
			wizard.StringField("email", 1, func(d *signupDraft) *string { return &d.Email }),
			wizard.NumberField("rate", 2, func(d *signupDraft) *float64 { return &d.Rate }),
			wizard.StringField("password", 3, func(d *signupDraft) *string { return &d.Password }),
			wizard.StringField("confirm", 3, func(d *signupDraft) *string { return &d.Confirm }),
		},
		[]wizard.Rule[signupDraft]{
			wizard.Required("name", func(d signupDraft) string { return d.Name }, "Name is required"),
			wizard.Required("email", func(d signupDraft) string { return d.Email }, "Email is required"),
			wizard.Email("email", func(d signupDraft) string { return d.Email }, "Email is invalid"),
			wizard.Range("rate", func(d signupDraft) float64 { return d.Rate }, 0, 20, "Rate must be between 0 and 20"),
			wizard.MinLength("password", func(d signupDraft) string { return d.Password }, 8, "Password is too short"),
			wizard.Matches("confirm", func(d signupDraft) string { return d.Confirm },
				func(d signupDraft) string { return d.Password }, "Passwords do not match"),
		},
		func() signupDraft { return signupDraft{Rate: 5} },
		commit,
	)
	require.NoError(t, err)

	return def
}

func okCommit(_ context.Context, _ signupDraft) (signupRecord, error) {
	return signupRecord{ID: "abc123", Status: "PENDING"}, nil
}

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()

	b, err := json.Marshal(v)
	require.NoError(t, err)

	return b
}

func fillProfile(t *testing.T, w *wizard.Wizard[signupDraft, signupRecord]) {
	t.Helper()

	require.NoError(t, w.SetFields(map[string]json.RawMessage{
		"name":  raw(t, "Windhoek Motors"),
		"email": raw(t, "sales@windhoek.na"),
	}))
}

func toTerminal(t *testing.T, w *wizard.Wizard[signupDraft, signupRecord]) {
	t.Helper()

	fillProfile(t, w)

	errs, err := w.Next()
	require.NoError(t, err)
	require.Empty(t, errs)

	errs, err = w.Next()
	require.NoError(t, err)
	require.Empty(t, errs)

	require.NoError(t, w.SetFields(map[string]json.RawMessage{
		"password": raw(t, "s3cretpass"),
		"confirm":  raw(t, "s3cretpass"),
	}))
}

func TestNewDefinition_Invalid(t *testing.T) {
	t.Parallel()

	steps := []wizard.Step{{Name: "one"}}
	defaults := func() signupDraft { return signupDraft{} }

	_, err := wizard.NewDefinition[signupDraft, signupRecord]("", steps, nil, nil, defaults, okCommit)
	assert.Error(t, err)

	_, err = wizard.NewDefinition[signupDraft, signupRecord]("signup", nil, nil, nil, defaults, okCommit)
	assert.Error(t, err)

	_, err = wizard.NewDefinition[signupDraft, signupRecord]("signup", steps, []wizard.Field[signupDraft]{
		wizard.StringField("name", 2, func(d *signupDraft) *string { return &d.Name }),
	}, nil, defaults, okCommit)
	assert.Error(t, err)

	_, err = wizard.NewDefinition[signupDraft, signupRecord]("signup", steps, []wizard.Field[signupDraft]{
		wizard.StringField("name", 1, func(d *signupDraft) *string { return &d.Name }),
		wizard.StringField("name", 1, func(d *signupDraft) *string { return &d.Email }),
	}, nil, defaults, okCommit)
	assert.Error(t, err)

	_, err = wizard.NewDefinition[signupDraft, signupRecord]("signup", steps, nil, []wizard.Rule[signupDraft]{
		wizard.Required("ghost", func(d signupDraft) string { return d.Name }, "x"),
	}, defaults, okCommit)
	assert.ErrorIs(t, err, wizard.ErrUnknownField)
}

func TestValidateStep_OnlyThatStep(t *testing.T) {
	t.Parallel()

	def := signupDefinition(t, okCommit)
	draft := signupDraft{Rate: 99, Password: "x"}

	errs := def.ValidateStep(1, draft)
	assert.Equal(t, wizard.ErrorMap{"name": "Name is required", "email": "Email is required"}, errs)

	// pure: same draft, same answer
	assert.Equal(t, errs, def.ValidateStep(1, draft))

	assert.Equal(t, wizard.ErrorMap{"rate": "Rate must be between 0 and 20"}, def.ValidateStep(2, draft))
	assert.Empty(t, def.ValidateStep(4, draft))
}

func TestValidateStep_FirstFailingRuleWins(t *testing.T) {
	t.Parallel()

	def := signupDefinition(t, okCommit)

	errs := def.ValidateStep(1, signupDraft{Name: "x", Email: "a@b"})
	assert.Equal(t, wizard.ErrorMap{"email": "Email is invalid"}, errs)
}

func TestWizard_NextRejectedOnEmptyRequired(t *testing.T) {
	t.Parallel()

	w := wizard.New("w1", signupDefinition(t, okCommit), wizard.Hooks[signupRecord]{})

	errs, err := w.Next()
	require.NoError(t, err)
	assert.Contains(t, errs, "name")
	assert.Equal(t, 1, w.State().CurrentStep)
	assert.Equal(t, 1, w.State().FurthestStep)
	assert.Equal(t, errs, w.Errors())
}

func TestWizard_NextAdvances(t *testing.T) {
	t.Parallel()

	w := wizard.New("w1", signupDefinition(t, okCommit), wizard.Hooks[signupRecord]{})
	fillProfile(t, w)

	errs, err := w.Next()
	require.NoError(t, err)
	assert.Empty(t, errs)

	state := w.State()
	assert.Equal(t, 2, state.CurrentStep)
	assert.Equal(t, 2, state.FurthestStep)
}

func TestWizard_PreviousKeepsValues(t *testing.T) {
	t.Parallel()

	w := wizard.New("w1", signupDefinition(t, okCommit), wizard.Hooks[signupRecord]{})
	fillProfile(t, w)

	_, err := w.Next()
	require.NoError(t, err)

	// an invalid step-2 value must not block going back
	require.NoError(t, w.SetField("rate", raw(t, 50)))
	require.NoError(t, w.Previous())

	state := w.State()
	assert.Equal(t, 1, state.CurrentStep)
	assert.Equal(t, 2, state.FurthestStep)
	assert.Equal(t, "Windhoek Motors", w.Draft().Name)
	assert.Empty(t, w.Errors())

	// no-op on step 1
	require.NoError(t, w.Previous())
	assert.Equal(t, 1, w.State().CurrentStep)
}

func TestWizard_GoTo(t *testing.T) {
	t.Parallel()

	w := wizard.New("w1", signupDefinition(t, okCommit), wizard.Hooks[signupRecord]{})
	toTerminal(t, w)

	require.NoError(t, w.GoTo(1))
	assert.Equal(t, 1, w.State().CurrentStep)
	assert.Equal(t, 3, w.State().FurthestStep)

	assert.ErrorIs(t, w.GoTo(2), wizard.ErrInvalidStep)
	assert.ErrorIs(t, w.GoTo(0), wizard.ErrInvalidStep)
	assert.Equal(t, 1, w.State().CurrentStep)
}

func TestWizard_NextAtTerminalStep(t *testing.T) {
	t.Parallel()

	w := wizard.New("w1", signupDefinition(t, okCommit), wizard.Hooks[signupRecord]{})
	toTerminal(t, w)

	_, err := w.Next()
	assert.ErrorIs(t, err, wizard.ErrTerminalStep)
	assert.True(t, wizard.IsContractError(err))
	assert.Equal(t, 3, w.State().CurrentStep)
}

func TestWizard_SetFieldClearsErrorOptimistically(t *testing.T) {
	t.Parallel()

	w := wizard.New("w1", signupDefinition(t, okCommit), wizard.Hooks[signupRecord]{})
	require.NoError(t, w.SetField("email", raw(t, "a@b")))

	errs, err := w.Next()
	require.NoError(t, err)
	require.Equal(t, "Email is invalid", errs["email"])

	// still invalid, but the error disappears until the next navigation attempt
	require.NoError(t, w.SetField("email", raw(t, "still-bad")))
	assert.NotContains(t, w.Errors(), "email")
	assert.Contains(t, w.Errors(), "name")

	errs, err = w.Next()
	require.NoError(t, err)
	assert.Equal(t, "Email is invalid", errs["email"])
}

func TestWizard_SetFieldsRejects(t *testing.T) {
	t.Parallel()

	w := wizard.New("w1", signupDefinition(t, okCommit), wizard.Hooks[signupRecord]{})

	err := w.SetField("ghost", raw(t, "x"))
	assert.ErrorIs(t, err, wizard.ErrUnknownField)

	err = w.SetField("rate", raw(t, 3))
	assert.ErrorIs(t, err, wizard.ErrFieldNotEditable)

	err = w.SetFields(map[string]json.RawMessage{
		"name":  raw(t, "kept out"),
		"email": raw(t, 42),
	})
	assert.ErrorIs(t, err, wizard.ErrInvalidValue)
	assert.Empty(t, w.Draft().Name, "a failed patch applies nothing")
}

func TestWizard_Reset(t *testing.T) {
	t.Parallel()

	w := wizard.New("w1", signupDefinition(t, okCommit), wizard.Hooks[signupRecord]{})
	fillProfile(t, w)

	require.NoError(t, w.Reset())
	assert.Equal(t, signupDraft{Rate: 5}, w.Draft())
}

func TestWizard_SubmitSuccess(t *testing.T) {
	t.Parallel()

	var (
		successes int
		closes    int
		got       signupRecord
	)

	w := wizard.New("w1", signupDefinition(t, okCommit), wizard.Hooks[signupRecord]{
		OnSuccess: func(r signupRecord) {
			successes++
			got = r
		},
		OnClose: func() { closes++ },
	})
	toTerminal(t, w)

	outcome, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.Committed)
	assert.Equal(t, signupRecord{ID: "abc123", Status: "PENDING"}, outcome.Record)

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, closes)
	assert.Equal(t, "abc123", got.ID)
	assert.Equal(t, wizard.StatusCommitted, w.State().Status)
	assert.Equal(t, signupDraft{Rate: 5}, w.Draft(), "draft is cleared after commit")

	record, ok := w.Record()
	assert.True(t, ok)
	assert.Equal(t, "PENDING", record.Status)

	_, err = w.Submit(context.Background())
	assert.ErrorIs(t, err, wizard.ErrClosed)
	assert.Equal(t, 1, successes)
}

func TestWizard_SubmitBeforeTerminalStep(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	w := wizard.New("w1", signupDefinition(t, func(ctx context.Context, d signupDraft) (signupRecord, error) {
		calls.Add(1)

		return okCommit(ctx, d)
	}), wizard.Hooks[signupRecord]{})

	_, err := w.Submit(context.Background())
	assert.ErrorIs(t, err, wizard.ErrNotTerminalStep)
	assert.Zero(t, calls.Load())
}

func TestWizard_SubmitRevalidatesLocally(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	w := wizard.New("w1", signupDefinition(t, func(ctx context.Context, d signupDraft) (signupRecord, error) {
		calls.Add(1)

		return okCommit(ctx, d)
	}), wizard.Hooks[signupRecord]{})
	toTerminal(t, w)
	require.NoError(t, w.SetField("confirm", raw(t, "different")))

	outcome, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.False(t, outcome.Committed)
	assert.Equal(t, wizard.ErrorMap{"confirm": "Passwords do not match"}, outcome.Errors)
	assert.Equal(t, 3, outcome.ErrorStep)
	assert.Zero(t, calls.Load())
	assert.Equal(t, wizard.StatusOpen, w.State().Status)
}

func TestWizard_SubmitFieldConflict(t *testing.T) {
	t.Parallel()

	conflict := errors.New("duplicate")
	closes := 0

	w := wizard.New("w1", signupDefinition(t, func(context.Context, signupDraft) (signupRecord, error) {
		return signupRecord{}, wizard.NewFieldError("email", "Email already in use", conflict)
	}), wizard.Hooks[signupRecord]{OnClose: func() { closes++ }})
	toTerminal(t, w)
	before := w.Draft()

	outcome, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.False(t, outcome.Committed)
	assert.Equal(t, wizard.ErrorMap{"email": "Email already in use"}, outcome.Errors)

	state := w.State()
	assert.False(t, state.IsSubmitting)
	assert.Equal(t, 3, state.CurrentStep)
	assert.Equal(t, wizard.StatusOpen, state.Status)
	assert.Equal(t, before, w.Draft())
	assert.Equal(t, "Email already in use", w.Errors()["email"])
	assert.Zero(t, closes)
}

func TestWizard_SubmitFieldConflictPointsAtEarlierStep(t *testing.T) {
	t.Parallel()

	w := wizard.New("w1", signupDefinition(t, func(context.Context, signupDraft) (signupRecord, error) {
		return signupRecord{}, wizard.NewFieldError("email", "Email already in use", errors.New("duplicate"))
	}), wizard.Hooks[signupRecord]{})
	toTerminal(t, w)

	outcome, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.ErrorStep)
	assert.Equal(t, 1, w.Snapshot().ErrorStep)

	// The field belongs to step 1, so it cannot be fixed from the terminal step.
	require.ErrorIs(t, w.SetField("email", raw(t, "other@windhoek.na")), wizard.ErrFieldNotEditable)

	require.NoError(t, w.GoTo(outcome.ErrorStep))
	require.NoError(t, w.SetField("email", raw(t, "other@windhoek.na")))

	snapshot := w.Snapshot()
	assert.Zero(t, snapshot.ErrorStep)
	assert.Empty(t, snapshot.Errors)
}

func TestWizard_SubmitTransportError(t *testing.T) {
	t.Parallel()

	attempts := 0

	w := wizard.New("w1", signupDefinition(t, func(ctx context.Context, d signupDraft) (signupRecord, error) {
		attempts++
		if attempts == 1 {
			return signupRecord{}, errors.New("connection refused")
		}

		return okCommit(ctx, d)
	}), wizard.Hooks[signupRecord]{})
	toTerminal(t, w)

	outcome, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.False(t, outcome.Committed)
	assert.Equal(t, "connection refused", outcome.Message)
	assert.Equal(t, "connection refused", w.Snapshot().SubmitError)
	assert.Equal(t, 1, attempts, "no silent retry")

	outcome, err = w.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.Committed)
	assert.Equal(t, 2, attempts)
}

func TestWizard_LockedWhileSubmitting(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	var calls atomic.Int32

	w := wizard.New("w1", signupDefinition(t, func(ctx context.Context, d signupDraft) (signupRecord, error) {
		calls.Add(1)
		<-release

		return okCommit(ctx, d)
	}), wizard.Hooks[signupRecord]{})
	toTerminal(t, w)

	done := make(chan wizard.Outcome)

	go func() {
		outcome, err := w.Submit(context.Background())
		assert.NoError(t, err)
		done <- outcome
	}()

	require.Eventually(t, func() bool { return w.State().IsSubmitting }, time.Second, time.Millisecond)

	before := w.State()

	assert.ErrorIs(t, w.Cancel(), wizard.ErrSubmitting)
	assert.ErrorIs(t, w.Previous(), wizard.ErrSubmitting)
	assert.ErrorIs(t, w.GoTo(1), wizard.ErrSubmitting)
	assert.ErrorIs(t, w.SetField("password", raw(t, "changed!!")), wizard.ErrSubmitting)
	assert.ErrorIs(t, w.Reset(), wizard.ErrSubmitting)

	_, err := w.Next()
	assert.ErrorIs(t, err, wizard.ErrSubmitting)

	_, err = w.Submit(context.Background())
	assert.ErrorIs(t, err, wizard.ErrSubmitting)

	assert.Equal(t, before, w.State())
	assert.Equal(t, "s3cretpass", w.Draft().Password)

	close(release)

	outcome := <-done
	assert.True(t, outcome.Committed)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, wizard.StatusCommitted, w.State().Status)
}

func TestWizard_Cancel(t *testing.T) {
	t.Parallel()

	closes := 0
	w := wizard.New("w1", signupDefinition(t, okCommit), wizard.Hooks[signupRecord]{OnClose: func() { closes++ }})
	fillProfile(t, w)

	require.NoError(t, w.Cancel())
	assert.Equal(t, 1, closes)
	assert.Equal(t, wizard.StatusCancelled, w.State().Status)
	assert.Equal(t, signupDraft{Rate: 5}, w.Draft())

	assert.ErrorIs(t, w.Cancel(), wizard.ErrClosed)
	assert.ErrorIs(t, w.SetField("name", raw(t, "x")), wizard.ErrClosed)
	assert.Equal(t, 1, closes)
}

func TestWizard_Snapshot(t *testing.T) {
	t.Parallel()

	w := wizard.New("w1", signupDefinition(t, okCommit), wizard.Hooks[signupRecord]{})
	_, err := w.Next()
	require.NoError(t, err)

	snapshot := w.Snapshot()
	assert.Equal(t, "w1", snapshot.ID)
	assert.Equal(t, "signup", snapshot.Kind)
	assert.Equal(t, 3, snapshot.TotalSteps)
	assert.Equal(t, []int{1, 2, 3}, []int{snapshot.Steps[0].Number, snapshot.Steps[1].Number, snapshot.Steps[2].Number})
	assert.Contains(t, snapshot.Errors, "name")
	assert.Nil(t, snapshot.Record)

	body, err := json.Marshal(snapshot)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"current_step":1`)
}

func TestValidatePatch(t *testing.T) {
	t.Parallel()

	schema := signupDefinition(t, okCommit).PatchSchema()

	require.NoError(t, wizard.ValidatePatch(schema, []byte(`{"name":"x","rate":3.5}`)))

	err := wizard.ValidatePatch(schema, []byte(`{"nickname":"x"}`))
	var patchErr *wizard.PatchError
	require.ErrorAs(t, err, &patchErr)
	assert.NotEmpty(t, patchErr.Problems)
	assert.ErrorIs(t, err, wizard.ErrInvalidValue)

	assert.Error(t, wizard.ValidatePatch(schema, []byte(`{"rate":"high"}`)))
	assert.Error(t, wizard.ValidatePatch(schema, []byte(`{}`)))
}
