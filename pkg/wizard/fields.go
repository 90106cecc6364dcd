package wizard

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// FieldKind describes the JSON shape a field accepts.
type FieldKind string

const (
	KindString FieldKind = "string"
	KindNumber FieldKind = "number"
	KindBool   FieldKind = "boolean"
	KindEnum   FieldKind = "enum"
	KindFile   FieldKind = "file"
)

// FileRef points at an uploaded document. The wizard only tracks the reference; the
// upload itself happens elsewhere.
type FileRef struct {
	Name        string `json:"name"`
	URL         string `json:"url,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// Present reports whether a file reference is set.
func (f *FileRef) Present() bool {
	return f != nil && (strings.TrimSpace(f.Name) != "" || strings.TrimSpace(f.URL) != "")
}

// Field binds a field name to a typed location inside the draft D.
type Field[D any] struct {
	Name    string
	Step    int
	Kind    FieldKind
	Options []string

	set func(draft *D, raw json.RawMessage) error
}

func decodeInto[D any, T any](at func(*D) *T) func(*D, json.RawMessage) error {
	return func(draft *D, raw json.RawMessage) error {
		var value T
		if err := json.Unmarshal(raw, &value); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}

		*at(draft) = value

		return nil
	}
}

// StringField declares a free-text field.
func StringField[D any](name string, step int, at func(*D) *string) Field[D] {
	return Field[D]{Name: name, Step: step, Kind: KindString, set: decodeInto(at)}
}

// NumberField declares a numeric field.
func NumberField[D any](name string, step int, at func(*D) *float64) Field[D] {
	return Field[D]{Name: name, Step: step, Kind: KindNumber, set: decodeInto(at)}
}

// BoolField declares a checkbox-style field.
func BoolField[D any](name string, step int, at func(*D) *bool) Field[D] {
	return Field[D]{Name: name, Step: step, Kind: KindBool, set: decodeInto(at)}
}

// EnumField declares a field restricted to options. The empty string is accepted so a
// selection can be cleared; required-ness is a rule, not a decode concern.
func EnumField[D any](name string, step int, options []string, at func(*D) *string) Field[D] {
	decode := decodeInto(at)

	return Field[D]{
		Name:    name,
		Step:    step,
		Kind:    KindEnum,
		Options: options,
		set: func(draft *D, raw json.RawMessage) error {
			var value string
			if err := json.Unmarshal(raw, &value); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidValue, err)
			}

			if value != "" && !slices.Contains(options, value) {
				return fmt.Errorf("%w: %q is not one of %s", ErrInvalidValue, value, strings.Join(options, ", "))
			}

			return decode(draft, raw)
		},
	}
}

// FileField declares a document field. A JSON null clears the reference.
func FileField[D any](name string, step int, at func(*D) **FileRef) Field[D] {
	return Field[D]{Name: name, Step: step, Kind: KindFile, set: decodeInto(at)}
}

func (f Field[D]) schema() map[string]any {
	switch f.Kind {
	case KindNumber:
		return map[string]any{"type": "number"}
	case KindBool:
		return map[string]any{"type": "boolean"}
	case KindEnum:
		enum := make([]any, 0, len(f.Options)+1)
		enum = append(enum, "")

		for _, option := range f.Options {
			enum = append(enum, option)
		}

		return map[string]any{"type": "string", "enum": enum}
	case KindFile:
		return map[string]any{
			"type": []any{"object", "null"},
			"properties": map[string]any{
				"name":         map[string]any{"type": "string"},
				"url":          map[string]any{"type": "string"},
				"content_type": map[string]any{"type": "string"},
				"size":         map[string]any{"type": "integer", "minimum": 0},
			},
			"required":             []any{"name"},
			"additionalProperties": false,
		}
	default:
		return map[string]any{"type": "string"}
	}
}
