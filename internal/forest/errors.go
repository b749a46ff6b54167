package forest

import (
	"errors"
	"fmt"
)

// ErrNotFitted is returned by predict-path methods before a successful Fit.
var ErrNotFitted = errors.New("forest: not fitted")

// ConfigError reports an invalid configuration. It is always raised before
// any sampling happens, never mid-build.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return "forest config: " + e.Msg }

func configErrorf(format string, args ...any) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// MemberBuildError reports that a single member's base-learner fit failed
// even after a retry with fresh sampling. It is fatal only when a fit would
// otherwise finish with zero members.
type MemberBuildError struct {
	Member int
	Err    error
}

func (e *MemberBuildError) Error() string {
	return fmt.Sprintf("forest: member %d build failed: %v", e.Member, e.Err)
}

func (e *MemberBuildError) Unwrap() error { return e.Err }

// ShapeMismatchError reports predict-time input incompatible with the
// geometry recorded at fit time. It is always fatal; no coercion is applied.
type ShapeMismatchError struct {
	Field string
	Want  int
	Got   int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("forest: %s mismatch: fit saw %d, predict got %d", e.Field, e.Want, e.Got)
}
