package service

import "errors"

var (
	ErrNotReady     = errors.New("tournament is not configured")
	ErrInvalidInput = errors.New("invalid input")
)
