// Package parser reads uncertain event logs from XES documents carrying
// the uncertainty extension attributes.
package parser

import (
	"errors"

	"github.com/veralog/veralog/internal/model"
)

var (
	// ErrInvalidXES is returned when XES parsing fails.
	ErrInvalidXES = errors.New("parser: invalid XES format")

	// ErrInvalidTimestamp is returned when timestamp parsing fails.
	ErrInvalidTimestamp = errors.New("parser: invalid timestamp format")

	// ErrMissingTimestamp is returned when an event carries neither a
	// timestamp nor a timestamp interval.
	ErrMissingTimestamp = errors.New("parser: event has no timestamp")

	// ErrMissingActivity is returned when an event carries no activity
	// label and no uncertain-label container.
	ErrMissingActivity = errors.New("parser: event has no activity label")

	// ErrContextCanceled is returned when the context is canceled.
	ErrContextCanceled = errors.New("parser: context canceled")
)

// Config controls parsing.
type Config struct {
	// Keys overrides the attribute keys holding labels, timestamps, and
	// the uncertainty extension values. Zero fields use the defaults.
	Keys model.Keys

	// BufferSize is the read buffer size in bytes. Zero means 64 KiB.
	BufferSize int
}

const defaultBufferSize = 64 * 1024
