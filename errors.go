package bitcuckoo

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is matched by every *ConfigurationError.
	ErrInvalidConfiguration = errors.New("bitcuckoo: invalid configuration")

	// ErrCapacityExhausted is returned by Add when an eviction walk ran out
	// of kicks. The filter is still usable; the caller has to build a
	// larger filter (or one with new seeds) to store more keys.
	ErrCapacityExhausted = errors.New("bitcuckoo: capacity exhausted, cuckoo filter is full")

	// ErrCorruptData is returned when serialized filter state is not
	// self-consistent.
	ErrCorruptData = errors.New("bitcuckoo: corrupt filter data")
)

// ConfigurationError reports an invalid constructor argument.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("bitcuckoo: invalid %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidConfiguration
}
