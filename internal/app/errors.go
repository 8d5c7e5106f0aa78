package service

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrUnknownScope = errors.New("unknown reset scope")
	ErrUnknownTeam  = errors.New("unknown team id")
)
