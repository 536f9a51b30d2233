package dbbadger

import "errors"

var (
	// ErrActivityInvalidRequest ...
	ErrActivityInvalidRequest = errors.New("activity must have an id")
)
