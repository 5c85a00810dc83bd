package models

import (
	"errors"
	"fmt"
)

// Classification is the decision model's judgment of whether a task needs decomposition.
type Classification string

const (
	// ClassificationSimple marks an atomic task that goes straight to the worker model.
	ClassificationSimple Classification = "simple"
	// ClassificationComplex marks a task that must be decomposed before dispatch.
	ClassificationComplex Classification = "complex"
)

// ErrMalformedClassification is returned by ParseClassificationStrict when the
// decision model replied with something other than a classification token.
var ErrMalformedClassification = errors.New("malformed classification")

// Valid returns true if the classification is a known value.
func (c Classification) Valid() bool {
	switch c {
	case ClassificationSimple, ClassificationComplex:
		return true
	default:
		return false
	}
}

// String returns the classification token.
func (c Classification) String() string {
	return string(c)
}

// IsComplex reports whether the task must be decomposed.
func (c Classification) IsComplex() bool {
	return c == ClassificationComplex
}

// ParseClassification converts the decision model's raw reply into a Classification.
// Only the exact token "complex" is complex. Everything else, including
// "Complex", " complex" and "complex\n", is simple.
func ParseClassification(raw string) Classification {
	if raw == string(ClassificationComplex) {
		return ClassificationComplex
	}
	return ClassificationSimple
}

// maxPreviewRunes bounds how much of a malformed reply is quoted in errors.
const maxPreviewRunes = 80

// ParseClassificationStrict is like ParseClassification but rejects replies that
// are neither "complex" nor "simple".
func ParseClassificationStrict(raw string) (Classification, error) {
	switch raw {
	case string(ClassificationComplex):
		return ClassificationComplex, nil
	case string(ClassificationSimple):
		return ClassificationSimple, nil
	default:
		preview := raw
		if r := []rune(preview); len(r) > maxPreviewRunes {
			preview = string(r[:maxPreviewRunes]) + "..."
		}
		return "", fmt.Errorf("%w: %q", ErrMalformedClassification, preview)
	}
}
