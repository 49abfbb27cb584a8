package engine

import (
	"errors"
	"fmt"
)

// ErrBuildFailed is returned by Run when the walk finished but recorded
// recoverable errors.
var ErrBuildFailed = errors.New("build failed")

// BuildError is a recoverable failure tied to one input path.
type BuildError struct {
	Reason string
	Path   string
	Err    error
}

func (e *BuildError) Error() string {
	switch {
	case e.Path == "":
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Reason, e.Path)
	}
	return fmt.Sprintf("%s %s: %v", e.Reason, e.Path, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// FatalError aborts a build. Phase is "init", "walk" or "complete".
type FatalError struct {
	Phase   string
	Builder string
	Err     error
}

func (e *FatalError) Error() string {
	if e.Builder == "" {
		return fmt.Sprintf("%s failed: %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Builder, e.Phase, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Aggregator collects recoverable errors in the order they occur.
type Aggregator struct {
	errs []*BuildError
}

// Add records err, wrapping it in a BuildError with reason and path unless
// it already is one. A nil err is ignored. It returns the recorded error.
func (a *Aggregator) Add(reason, path string, err error) *BuildError {
	if err == nil {
		return nil
	}
	var be *BuildError
	if !errors.As(err, &be) {
		be = &BuildError{Reason: reason, Path: path, Err: err}
	}
	a.errs = append(a.errs, be)
	return be
}

// Len returns the number of recorded errors.
func (a *Aggregator) Len() int { return len(a.errs) }

// Errors returns the recorded errors.
func (a *Aggregator) Errors() []*BuildError { return append([]*BuildError(nil), a.errs...) }

// Err returns nil when nothing was recorded, otherwise an error wrapping
// ErrBuildFailed and every recorded error.
func (a *Aggregator) Err() error {
	if len(a.errs) == 0 {
		return nil
	}
	errs := make([]error, 0, len(a.errs)+1)
	errs = append(errs, fmt.Errorf("%w: %d error(s)", ErrBuildFailed, len(a.errs)))
	for _, e := range a.errs {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}
