package catalog

import "errors"

var (
	// ErrMissingIdentifier is returned when an image has no SOP instance UID.
	ErrMissingIdentifier = errors.New("catalog: image has no SOP instance UID")
	// ErrNotFound is returned by stores when no record matches.
	ErrNotFound = errors.New("catalog: record not found")
	// ErrConflict is returned by stores when an insert violates a natural
	// key. The resolver absorbs it by re-reading the winning record.
	ErrConflict = errors.New("catalog: natural key conflict")
	// ErrRecordStore wraps non-retriable store failures.
	ErrRecordStore = errors.New("catalog: record store failure")
	// ErrAmbiguous is returned when a lookup expected one record and found more.
	ErrAmbiguous = errors.New("catalog: more than one record matches")
)
