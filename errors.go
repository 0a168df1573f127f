package neighbour

import (
	"errors"
	"fmt"

	"github.com/hupe1980/neighbour/fetch"
	"github.com/hupe1980/neighbour/index"
	"github.com/hupe1980/neighbour/loader"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrNotFound is matched by every *NotFoundError.
	ErrNotFound = errors.New("not found")

	// ErrEmbeddingNotFound is matched by every *EmbeddingNotFoundError.
	ErrEmbeddingNotFound = errors.New("embedding not found")

	// ErrIndexOutOfRange is returned when the index yields a row position
	// the dataset does not have.
	ErrIndexOutOfRange = errors.New("index returned a position outside the dataset")

	// ErrUnavailable is reported when the artifacts failed to deserialize.
	ErrUnavailable = loader.ErrUnavailable
)

// RemoteFetchError reports a non-success response while downloading an artifact.
type RemoteFetchError = fetch.RemoteFetchError

// DeserializationError reports a corrupt or incompatible local artifact.
type DeserializationError = loader.DeserializationError

// NotFoundError is returned when no record carries the queried name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("horse name %q not found", e.Name)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// EmbeddingNotFoundError is returned when a record exists but no embedding
// vector is aligned with its id. It signals that the dataset and the
// embedding array are out of sync.
type EmbeddingNotFoundError struct {
	Name    string
	HorseID string
}

func (e *EmbeddingNotFoundError) Error() string {
	return fmt.Sprintf("no embedding for horse %q (id %s)", e.Name, e.HorseID)
}

func (e *EmbeddingNotFoundError) Is(target error) bool { return target == ErrEmbeddingNotFound }

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsEmbeddingNotFound reports whether err is an EmbeddingNotFoundError.
func IsEmbeddingNotFound(err error) bool { return errors.Is(err, ErrEmbeddingNotFound) }

// UserMessage renders err as the text shown to a user of the form.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var nf *NotFoundError
	if errors.As(err, &nf) {
		return fmt.Sprintf("Horse name '%s' not found in the dataset.", nf.Name)
	}
	var enf *EmbeddingNotFoundError
	if errors.As(err, &enf) {
		return fmt.Sprintf("No embedding found for horse '%s'.", enf.Name)
	}
	var rfe *RemoteFetchError
	if errors.As(err, &rfe) {
		return fmt.Sprintf("Failed to download file from %s. HTTP Status Code: %d", rfe.URL, rfe.StatusCode)
	}
	var de *DeserializationError
	if errors.As(err, &de) {
		return fmt.Sprintf("Error loading data: %v", de.Err)
	}
	if errors.Is(err, ErrInvalidK) {
		return "The number of matches must be positive."
	}
	return fmt.Sprintf("Error loading data: %v", err)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, index.ErrInvalidK) {
		return fmt.Errorf("%w: %w", ErrInvalidK, err)
	}

	return err
}
