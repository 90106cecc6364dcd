package wizard

import (
	"context"
	"errors"
	"fmt"
)

// Step describes one page of a wizard.
type Step struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
	Title  string `json:"title"`
}

// CommitFunc hands the finished draft to the record store. It receives a copy of the
// draft and is responsible for narrowing it to the store's request shape.
type CommitFunc[D any, R any] func(ctx context.Context, draft D) (R, error)

// Definition is the fixed shape of a wizard kind: its steps, fields, rules, defaults
// and the commit operation.
type Definition[D any, R any] struct {
	Kind     string
	Steps    []Step
	Fields   []Field[D]
	Defaults func() D
	Commit   CommitFunc[D, R]

	fields map[string]Field[D]
	rules  map[int][]Rule[D]
}

// NewDefinition validates and indexes a wizard definition. Steps are numbered from 1 in
// the given order. Each rule runs on the step of the field it names.
func NewDefinition[D any, R any](
	kind string,
	steps []Step,
	fields []Field[D],
	rules []Rule[D],
	defaults func() D,
	commit CommitFunc[D, R],
) (*Definition[D, R], error) {
	if kind == "" {
		return nil, errors.New("wizard kind is required")
	}

	if len(steps) == 0 {
		return nil, fmt.Errorf("wizard %s: at least one step is required", kind)
	}

	if defaults == nil || commit == nil {
		return nil, fmt.Errorf("wizard %s: defaults and commit are required", kind)
	}

	numbered := make([]Step, len(steps))
	for i, step := range steps {
		step.Number = i + 1
		numbered[i] = step
	}

	def := &Definition[D, R]{
		Kind:     kind,
		Steps:    numbered,
		Fields:   fields,
		Defaults: defaults,
		Commit:   commit,
		fields:   make(map[string]Field[D], len(fields)),
		rules:    make(map[int][]Rule[D], len(steps)),
	}

	for _, field := range fields {
		if field.Step < 1 || field.Step > len(numbered) {
			return nil, fmt.Errorf("wizard %s: field %s is on step %d, outside 1..%d", kind, field.Name, field.Step, len(numbered))
		}

		if _, exists := def.fields[field.Name]; exists {
			return nil, fmt.Errorf("wizard %s: field %s declared twice", kind, field.Name)
		}

		def.fields[field.Name] = field
	}

	for _, rule := range rules {
		field, ok := def.fields[rule.Field]
		if !ok {
			return nil, fmt.Errorf("wizard %s: rule for undeclared field %s: %w", kind, rule.Field, ErrUnknownField)
		}

		def.rules[field.Step] = append(def.rules[field.Step], rule)
	}

	return def, nil
}

// MustDefinition is NewDefinition for package-level definitions that are known to be valid.
func MustDefinition[D any, R any](
	kind string,
	steps []Step,
	fields []Field[D],
	rules []Rule[D],
	defaults func() D,
	commit CommitFunc[D, R],
) *Definition[D, R] {
	def, err := NewDefinition(kind, steps, fields, rules, defaults, commit)
	if err != nil {
		panic(err)
	}

	return def
}

// TotalSteps returns N, the number of the terminal step.
func (d *Definition[D, R]) TotalSteps() int {
	return len(d.Steps)
}

// Field looks up a declared field by name.
func (d *Definition[D, R]) Field(name string) (Field[D], bool) {
	field, ok := d.fields[name]

	return field, ok
}

// ErrorStep returns the earliest step owning a field in errs, or 0 when errs names no
// known field. A client uses it to GoTo the step where the user can fix the draft.
func (d *Definition[D, R]) ErrorStep(errs ErrorMap) int {
	step := 0

	for name := range errs {
		field, ok := d.fields[name]
		if ok && (step == 0 || field.Step < step) {
			step = field.Step
		}
	}

	return step
}

// ValidateStep evaluates only the rules of the given step. The first failing rule of a
// field wins. The result is never nil.
func (d *Definition[D, R]) ValidateStep(step int, draft D) ErrorMap {
	errs := ErrorMap{}

	for _, rule := range d.rules[step] {
		if _, failed := errs[rule.Field]; failed {
			continue
		}

		if message := rule.Check(draft); message != "" {
			errs[rule.Field] = message
		}
	}

	return errs
}

// PatchSchema returns the JSON Schema accepted by SetFields for this wizard kind.
func (d *Definition[D, R]) PatchSchema() map[string]any {
	properties := make(map[string]any, len(d.Fields))
	for _, field := range d.Fields {
		properties[field.Name] = field.schema()
	}

	return map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"title":                d.Kind,
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
		"minProperties":        1,
	}
}
