package domain

import "errors"

var (
	// ErrEmptyQuery marks a validation failure: the caller sent no query.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrNoIndexForLanguage marks a configuration failure: no vector index is
	// bound to the requested language. Not retryable without an operator fix.
	ErrNoIndexForLanguage = errors.New("no vector index configured for language")

	// ErrContentNotFound marks a missing content blob in the content store.
	ErrContentNotFound = errors.New("content not found")
)
