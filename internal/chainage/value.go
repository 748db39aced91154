// Package chainage places distance markers along routes and normalizes
// chainage labels.
package chainage

import (
	"fmt"
	"math"
)

// roundUpFrom is the meter component from which a label snaps to the next
// kilometer ("36+995" becomes "37+000").
const roundUpFrom = 990

// floorEpsilon absorbs binary representation error before flooring, so 36.7
// is not rendered as "36+699".
const floorEpsilon = 1e-6

// Value is a chainage as displayed: whole kilometers plus whole meters.
type Value struct {
	Km int
	M  int
}

// String renders the value as "{km}+{m:03d}".
func (v Value) String() string {
	return fmt.Sprintf("%d+%03d", v.Km, v.M)
}

// newValue splits a meter count into a Value, applying the rounding rule.
func newValue(totalMeters int64) Value {
	km := totalMeters / 1000
	m := totalMeters % 1000
	if m < 0 {
		km--
		m += 1000
	}
	if m >= roundUpFrom {
		km++
		m = 0
	}
	return Value{Km: int(km), M: int(m)}
}

// FromKm converts a chainage in kilometers into its display value.
func FromKm(km float64) Value {
	return newValue(int64(math.Floor(km*1000 + floorEpsilon)))
}

// FormatKm renders a chainage in kilometers as a label, e.g. 36.6 -> "36+600".
func FormatKm(km float64) string {
	return FromKm(km).String()
}

// MaxKm is the largest chainage accepted, in kilometers. Positions up to it
// fit an int64 of millimeters with room for interval steps.
const MaxKm = 1e9

// finite reports whether v is a number within [-limit, limit].
func finite(v, limit float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && math.Abs(v) <= limit
}

// Position is a chainage held as integer millimeters, so stepping by a fixed
// interval never accumulates floating point drift.
type Position int64

// PositionFromKm converts kilometers to a Position.
func PositionFromKm(km float64) Position {
	return Position(math.Round(km * 1e6))
}

// PositionFromMeters converts meters to a Position.
func PositionFromMeters(m float64) Position {
	return Position(math.Round(m * 1e3))
}

// Meters returns the position in meters.
func (p Position) Meters() float64 {
	return float64(p) / 1e3
}

// Km returns the position in kilometers.
func (p Position) Km() float64 {
	return float64(p) / 1e6
}

// Value returns the display value of the position.
func (p Position) Value() Value {
	mm := int64(p)
	meters := mm / 1000
	if mm%1000 < 0 {
		meters--
	}
	return newValue(meters)
}
