package storage

import "errors"

// ErrNotFound is wrapped by writes that target a missing row
var ErrNotFound = errors.New("record not found")
