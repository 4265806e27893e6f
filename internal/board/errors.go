package board

import (
	"errors"
	"fmt"
)

// FEN parse errors. Every error returned by ParseFEN wraps ErrMalformedFEN
// and, where one applies, the more specific sentinel, so callers can test
// either with errors.Is.
var (
	ErrMalformedFEN       = errors.New("malformed FEN")
	ErrInvalidBoardLayout = fmt.Errorf("%w: invalid board layout", ErrMalformedFEN)
	ErrInvalidCastling    = fmt.Errorf("%w: invalid castling rights", ErrMalformedFEN)
	ErrInvalidEnPassant   = fmt.Errorf("%w: invalid en passant square", ErrMalformedFEN)
)

// FENError describes which FEN field failed to parse and what was found.
type FENError struct {
	Field string // "fields", "board", "side", "castling", "en passant", "halfmove", "fullmove"
	Value string // the offending text
	Err   error  // one of the sentinels above
	msg   string
}

func (e *FENError) Error() string {
	if e.msg == "" {
		return fmt.Sprintf("%v: %s %q", e.Err, e.Field, e.Value)
	}
	return fmt.Sprintf("%v: %s %q: %s", e.Err, e.Field, e.Value, e.msg)
}

func (e *FENError) Unwrap() error {
	return e.Err
}

func fenError(sentinel error, field, value, format string, args ...any) error {
	return &FENError{Field: field, Value: value, Err: sentinel, msg: fmt.Sprintf(format, args...)}
}
