package autocreate

import (
	"errors"
	"fmt"
	"strings"
)

// Pipeline outcome sentinels. Handlers map these to HTTP statuses; the
// service and strategies wrap them with context via fmt.Errorf("%w: ...").
var (
	// ErrInvalidInput means the request shape itself is wrong: zero or
	// more than one input modality, or an unknown category or intent.
	ErrInvalidInput = errors.New("invalid autocreate input")

	// ErrClassificationAmbiguous means the classifier could not settle on
	// a single content category and the caller must re-submit with an
	// explicit override.
	ErrClassificationAmbiguous = errors.New("content classification ambiguous")

	// ErrInputTooLarge means a file count, file size or manual text
	// length limit was exceeded. Checked before any model call.
	ErrInputTooLarge = errors.New("input too large")

	// ErrAutocreateProcessingFailed means a remote model call failed or
	// returned an unusable response.
	ErrAutocreateProcessingFailed = errors.New("autocreate processing failed")

	// ErrPersistencePartialFailure means a replace-all run deleted the
	// item's existing charts but failed to insert the new set.
	ErrPersistencePartialFailure = errors.New("persistence partially failed")

	// ErrJobAlreadyInProgress means an autocreate job is already running
	// for the item.
	ErrJobAlreadyInProgress = errors.New("autocreate job already in progress")

	// ErrTranscriptUnavailable means the YouTube video has no fetchable
	// transcript.
	ErrTranscriptUnavailable = errors.New("transcript unavailable")
)

// AmbiguityError carries the candidate categories of an ambiguous
// classification so the caller can offer them as override choices. It
// unwraps to ErrClassificationAmbiguous.
type AmbiguityError struct {
	Candidates []Category
}

func (e *AmbiguityError) Error() string {
	names := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		names[i] = string(c)
	}
	return fmt.Sprintf("content classification ambiguous between %s", strings.Join(names, ", "))
}

func (e *AmbiguityError) Unwrap() error {
	return ErrClassificationAmbiguous
}
