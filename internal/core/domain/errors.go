package domain

import "errors"

var (
	ErrNotRegistered   = errors.New("identity is not registered")
	ErrConflict        = errors.New("vote conflicts with an already recorded one")
	ErrNotAcceptable   = errors.New("vote is not acceptable")
	ErrCountryNotFound = errors.New("country not found")
	ErrInternal        = errors.New("internal server error")
)
