package generation

import (
	"errors"

	"github.com/pavelanni/prepmate/internal/genapi"
	"github.com/pavelanni/prepmate/internal/store"
)

// EmptyResultMessage is stored when generation succeeded but returned no text.
const EmptyResultMessage = "Empty response from generation endpoint"

var (
	// ErrEmptyResult means the generator reported success with no usable text.
	ErrEmptyResult = errors.New(EmptyResultMessage)
	// ErrNotFound is returned when the course does not exist.
	ErrNotFound = store.ErrNotFound
	// ErrInvalidRequest wraps validation failures of a generation request.
	ErrInvalidRequest = errors.New("invalid generation request")
	// ErrNotComplete is returned when enrichment is requested for an unfinished course.
	ErrNotComplete = errors.New("course generation is not complete")
	// ErrReclaimed means the course left the job's status while the job was running,
	// usually because it was marked stale. The job stops without writing.
	ErrReclaimed = errors.New("course was reclaimed")
)

// failureMessage is the text stored on a course whose job failed.
func failureMessage(err error) string {
	if errors.Is(err, ErrEmptyResult) {
		return EmptyResultMessage
	}
	var endpointErr *genapi.EndpointError
	if errors.As(err, &endpointErr) && endpointErr.Message != "" {
		return endpointErr.Message
	}
	return err.Error()
}
