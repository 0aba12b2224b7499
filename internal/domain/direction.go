package domain

import (
	"math"
	"strconv"
	"strings"
)

// compassPoints lists the 16-point compass clockwise from North, 22.5° apart.
var compassPoints = [...]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// compassDegrees maps each compass abbreviation to its canonical bearing.
var compassDegrees = func() map[string]float64 {
	m := make(map[string]float64, len(compassPoints))
	for i, p := range compassPoints {
		m[p] = float64(i) * 22.5
	}
	return m
}()

// NormalizeDirection converts a direction reading to degrees.
//
// Readings with a leading number ("45", " 180 ", "45°") return that number as-is,
// including values outside [0, 360).
// Compass abbreviations match exactly and case-sensitively ("ne" is not NE).
// Anything else, including empty and "unavailable", yields 0.
func NormalizeDirection(raw string) float64 {
	if deg, ok := parseFinite(raw); ok {
		return deg
	}
	if deg, ok := compassDegrees[raw]; ok {
		return deg
	}
	return 0
}

// CompassPoint returns the nearest 16-point compass abbreviation for a bearing.
// Out-of-range bearings are reduced modulo 360 first; NaN maps to "N".
func CompassPoint(degrees float64) string {
	if math.IsNaN(degrees) || math.IsInf(degrees, 0) {
		return compassPoints[0]
	}
	d := math.Mod(degrees, 360)
	if d < 0 {
		d += 360
	}
	idx := int(math.Floor(d/22.5+0.5)) % len(compassPoints)
	return compassPoints[idx]
}

// parseFinite parses the longest numeric prefix of s, so "45°" and
// "12.5 mph" read as 45 and 12.5. Leading whitespace is skipped. Text with no
// leading digits, NaN and ±Inf are rejected.
func parseFinite(s string) (float64, bool) {
	s = strings.TrimLeft(s, " \t\n\r\f\v")
	n := numericPrefixLen(s)
	if n == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(s[:n], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// numericPrefixLen returns the length of the leading [sign]digits[.digits][e[sign]digits]
// run of s, or 0 when it holds no mantissa digit.
func numericPrefixLen(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if digits+frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		start := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > start {
			i = j
		}
	}
	return i
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
