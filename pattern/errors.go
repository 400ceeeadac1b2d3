package pattern

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a remove or lookup resolves neither a key
// nor a display index.
var ErrNotFound = errors.New("pattern not found")

// InvalidPatternError reports text that does not compile as a regular
// expression.
type InvalidPatternError struct {
	Text string
	Err  error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Text, e.Err)
}

func (e *InvalidPatternError) Unwrap() error { return e.Err }

// DuplicateKeyError reports an add of a key that already exists. It is
// non-fatal: batch adds treat it as a skip, not an abort.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("pattern %q already registered", e.Key)
}

// InvalidTemplateError reports a rewrite template that failed probe
// substitution, including the missing-named-group case.
type InvalidTemplateError struct {
	Template string
	Err      error
}

func (e *InvalidTemplateError) Error() string {
	return fmt.Sprintf("invalid template %q: %v", e.Template, e.Err)
}

func (e *InvalidTemplateError) Unwrap() error { return e.Err }
