package domain

import "math"

// BeaufortClass is a Beaufort force with its descriptive label.
type BeaufortClass struct {
	Force       int    `json:"force"`
	Description string `json:"description"`
}

// ClassifyBeaufort maps a speed in mph to its Beaufort class. Each threshold
// is an exclusive upper bound, so 1.0 mph is force 1. Negative and NaN speeds
// are Calm.
func ClassifyBeaufort(mph float64) BeaufortClass {
	switch {
	case math.IsNaN(mph) || mph < 1:
		return BeaufortClass{0, "Calm"}
	case mph < 4:
		return BeaufortClass{1, "Light Air"}
	case mph < 8:
		return BeaufortClass{2, "Light Breeze"}
	case mph < 13:
		return BeaufortClass{3, "Gentle Breeze"}
	case mph < 19:
		return BeaufortClass{4, "Moderate Breeze"}
	case mph < 25:
		return BeaufortClass{5, "Fresh Breeze"}
	case mph < 32:
		return BeaufortClass{6, "Strong Breeze"}
	case mph < 39:
		return BeaufortClass{7, "Near Gale"}
	case mph < 47:
		return BeaufortClass{8, "Gale"}
	case mph < 55:
		return BeaufortClass{9, "Strong Gale"}
	case mph < 64:
		return BeaufortClass{10, "Storm"}
	case mph < 73:
		return BeaufortClass{11, "Violent Storm"}
	default:
		return BeaufortClass{12, "Hurricane"}
	}
}
