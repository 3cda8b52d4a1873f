package catalog

import "errors"

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotFound       = errors.New("entry not found")
	ErrDuplicateEntry = errors.New("entry already exists")
	ErrMetadataFetch  = errors.New("metadata fetch failed")
)
