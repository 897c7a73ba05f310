// Package apperrors declares the error kinds shared by the services and the
// HTTP boundary. Callers annotate a kind with errors.Annotatef and match it
// with errors.Is.
package apperrors

import "github.com/juju/errors"

const (
	// MissingFile is returned when an upload carries no file part.
	MissingFile = errors.ConstError("no file uploaded")

	// UnsupportedType is returned when the extension or the declared content
	// type of an upload is not allowlisted.
	UnsupportedType = errors.ConstError("only documents and images are allowed")

	// PayloadTooLarge is returned when an upload exceeds the size ceiling.
	PayloadTooLarge = errors.ConstError("file too large")

	// ValidationError is returned for bad or missing input fields.
	ValidationError = errors.ConstError("invalid input")

	// Conflict is returned when a unique key already exists.
	Conflict = errors.ConstError("already exists")

	// NotFound is returned for a missing record or a missing blob.
	NotFound = errors.ConstError("not found")

	// Unauthorized is returned on a credential mismatch.
	Unauthorized = errors.ConstError("unauthorized")

	// PersistenceError wraps metadata store failures.
	PersistenceError = errors.ConstError("persistence error")

	// StorageError wraps blob store failures.
	StorageError = errors.ConstError("storage error")
)

// Kind returns the first kind matched by err, or nil when err carries none.
func Kind(err error) error {
	for _, kind := range []error{
		MissingFile,
		UnsupportedType,
		PayloadTooLarge,
		ValidationError,
		Conflict,
		NotFound,
		Unauthorized,
		PersistenceError,
		StorageError,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
