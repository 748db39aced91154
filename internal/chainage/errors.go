package chainage

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInterval is returned when the marker interval is not positive.
	ErrInvalidInterval = errors.New("chainage: interval must be greater than zero")

	// ErrNegativeChainage is returned for a negative start chainage.
	ErrNegativeChainage = errors.New("chainage: start chainage must not be negative")

	// ErrOutOfRange is returned for chainage options that are not finite or
	// too large to hold as millimeters.
	ErrOutOfRange = errors.New("chainage: value is not finite or out of range")

	// ErrTooManyMarkers is returned when a run would place more than
	// Options.MaxMarkers markers.
	ErrTooManyMarkers = errors.New("chainage: too many markers")

	// ErrMalformedLabel is returned by NormalizeLabel for labels that are not "{km}+{m}".
	ErrMalformedLabel = errors.New("chainage: malformed label")
)

// InvalidGeometryError reports a feature that cannot be walked as a route.
type InvalidGeometryError struct {
	Index  int
	Type   string
	Reason string
}

func (e *InvalidGeometryError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("feature %d: invalid %s geometry: %s", e.Index, e.Type, e.Reason)
	}
	return fmt.Sprintf("feature %d: geometry %s must be LineString or MultiLineString", e.Index, e.Type)
}

// EmptyInputError reports a collection without features.
type EmptyInputError struct{}

func (e *EmptyInputError) Error() string {
	return "input has no features"
}

// MalformedLabelWarning is a non-fatal normalization diagnostic.
type MalformedLabelWarning struct {
	Index  int
	Value  any
	Reason string
}

func (w MalformedLabelWarning) Error() string {
	return fmt.Sprintf("record %d: %s: %v", w.Index, w.Reason, w.Value)
}
