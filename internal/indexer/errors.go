package indexer

import "errors"

var (
	ErrAlreadyRunning = errors.New("an index job is already running")
	ErrEmptyCatalog   = errors.New("there are no entries to index")
)
