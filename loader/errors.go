package loader

import (
	"errors"
	"fmt"
)

// ErrUnavailable is the sentinel reported for every output when any
// artifact fails to deserialize. Callers must stop and surface the error.
var ErrUnavailable = errors.New("loader: artifacts unavailable")

// ErrModelSize is wrapped in a DeserializationError when the model indexes
// more rows than the dataset holds.
var ErrModelSize = errors.New("loader: model has more nodes than dataset rows")

// DeserializationError reports a corrupt or incompatible local artifact.
type DeserializationError struct {
	Artifact string
	Path     string
	Err      error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("loader: decode %s artifact %s: %v", e.Artifact, e.Path, e.Err)
}

func (e *DeserializationError) Unwrap() error {
	return e.Err
}

// unavailableError joins ErrUnavailable with the underlying decode failure
// so both errors.Is(err, ErrUnavailable) and errors.As(err, **DeserializationError) hold.
type unavailableError struct {
	cause *DeserializationError
}

func (e *unavailableError) Error() string {
	return e.cause.Error()
}

func (e *unavailableError) Unwrap() []error {
	return []error{ErrUnavailable, e.cause}
}
