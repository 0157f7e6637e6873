package domain

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is. The typed errors below match them.
var (
	// ErrParse is matched by ParseError: the document is not well-formed XML.
	ErrParse = errors.New("llbreduce: malformed document")

	// ErrShape is matched by ShapeError: array dimensions unknown or inconsistent.
	ErrShape = errors.New("llbreduce: shape error")

	// ErrValue is matched by ValueError: a token could not be parsed as required.
	ErrValue = errors.New("llbreduce: value error")

	// ErrNoWavelength is returned when a run without a wavelength is reduced.
	ErrNoWavelength = errors.New("llbreduce: no wavelength in run")

	// ErrNoFrames is returned when a run contains no frames.
	ErrNoFrames = errors.New("llbreduce: no frames in run")

	// ErrBadMonitor is returned when a frame's monitor count is not positive.
	ErrBadMonitor = errors.New("llbreduce: monitor count must be positive")

	// ErrMissingChannel is returned when the selected intensity grid is absent.
	ErrMissingChannel = errors.New("llbreduce: intensity channel missing")

	// ErrGeometryMismatch is returned when the instrument and data disagree on pixel count.
	ErrGeometryMismatch = errors.New("llbreduce: geometry does not match data")
)

// ParseError reports a malformed document.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse: %v", e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error        { return e.Err }
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// ShapeError reports an array whose dimensions are unknown or do not match.
type ShapeError struct {
	Frame int
	Field string
	Msg   string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("frame %d: %s: %s", e.Frame, e.Field, e.Msg)
}

func (e *ShapeError) Is(target error) bool { return target == ErrShape }

// ValueError reports a token that could not be parsed.
type ValueError struct {
	Frame int
	Field string
	Token string
	Err   error
}

func (e *ValueError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("frame %d: %s: invalid value %q: %v", e.Frame, e.Field, e.Token, e.Err)
	}
	return fmt.Sprintf("frame %d: %s: invalid value %q", e.Frame, e.Field, e.Token)
}

func (e *ValueError) Unwrap() error        { return e.Err }
func (e *ValueError) Is(target error) bool { return target == ErrValue }
