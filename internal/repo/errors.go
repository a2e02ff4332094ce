package repo

import "errors"

// Storage sentinels shared by every backend. Services match them with errors.Is.
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflict")
)
