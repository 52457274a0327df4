package output

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RoundFloat rounds a float to max 6 decimal places
func RoundFloat(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	multiplier := math.Pow(10, 6)
	return math.Round(f*multiplier) / multiplier
}

// FormatFloat formats a float with no trailing zeros. NaN, the solver's
// failure sentinel, prints as "unknown".
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "unknown"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	str := strconv.FormatFloat(RoundFloat(f), 'f', 6, 64)
	str = strings.TrimRight(str, "0")
	str = strings.TrimRight(str, ".")
	if str == "-0" {
		str = "0"
	}
	return str
}

// Bits is an error metric in bits of accuracy lost. NaN marks an unknown
// verdict; the infinities are real solver answers.
type Bits float64

// Metric wraps an error metric for output. The result is never nil.
func Metric(f float64) *Bits {
	b := Bits(f)
	return &b
}

// Unknown reports whether b is the NaN failure sentinel.
func (b Bits) Unknown() bool {
	return math.IsNaN(float64(b))
}

// String renders b for text output: "unknown" for NaN, "inf" or "-inf" for
// the infinities.
func (b Bits) String() string {
	return FormatFloat(float64(b))
}

// MarshalJSON writes null for NaN and the infinities, which JSON cannot hold.
func (b Bits) MarshalJSON() ([]byte, error) {
	f := float64(b)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, RoundFloat(f), 'g', -1, 64), nil
}

// UnmarshalJSON reads null back as NaN.
func (b *Bits) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = Bits(math.NaN())
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid error metric %s: %w", data, err)
	}
	*b = Bits(f)
	return nil
}

// MarshalYAML writes null for NaN and keeps the infinities as .inf.
func (b Bits) MarshalYAML() (interface{}, error) {
	f := float64(b)
	if math.IsNaN(f) {
		return nil, nil
	}
	return RoundFloat(f), nil
}
