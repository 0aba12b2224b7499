package domain

import "math"

const (
	minArrowFraction  = 0.3
	maxArrowFraction  = 0.9
	arrowGrowth       = 0.6
	arrowHeadLength   = 12.0
	arrowHeadAngleDeg = 25.0
)

// Point is a position in the renderer's 2D coordinate space (Y grows down).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ArrowGeometry describes the wind arrow: a shaft from ShaftOrigin to Tip and
// a triangular head Tip, Head1, Head2.
type ArrowGeometry struct {
	ShaftOrigin Point   `json:"shaft_origin"`
	Tip         Point   `json:"tip"`
	Head1       Point   `json:"head1"`
	Head2       Point   `json:"head2"`
	Length      float64 `json:"length"`
}

// CompassTick is one labelled spoke of the compass rose.
type CompassTick struct {
	Label        string  `json:"label"`
	AngleDegrees float64 `json:"angle_degrees"`
	Inner        Point   `json:"inner"`
	Outer        Point   `json:"outer"`
	LabelPoint   Point   `json:"label_point"`
}

// tickLabels is the rendering order of the compass spokes.
var tickLabels = [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// ArrowLength scales the arrow with speed: 30% of radius when calm, 90% at
// maxSpeed and beyond. A zero maxSpeed yields the capped length. Negative
// ratios clamp to the calm length; NaN propagates.
func ArrowLength(radius, speed, maxSpeed float64) float64 {
	if maxSpeed == 0 {
		return radius * maxArrowFraction
	}
	ratio := speed / maxSpeed
	if ratio >= 1 {
		return radius * maxArrowFraction
	}
	if ratio < 0 {
		ratio = 0
	}
	return min(radius*maxArrowFraction, radius*(minArrowFraction+ratio*arrowGrowth))
}

// ComputeArrowGeometry places the wind arrow for a direction and speed.
// The arrow points from center toward the bearing the wind comes from.
// Non-finite inputs produce non-finite points.
func ComputeArrowGeometry(center Point, radius, directionDegrees, speed, maxSpeed float64) ArrowGeometry {
	length := ArrowLength(radius, speed, maxSpeed)
	angle := screenAngle(directionDegrees)

	tip := polar(center, length, angle)
	headAngle := arrowHeadAngleDeg * math.Pi / 180

	return ArrowGeometry{
		ShaftOrigin: center,
		Tip:         tip,
		Head1: Point{
			X: tip.X - arrowHeadLength*math.Cos(angle-headAngle),
			Y: tip.Y - arrowHeadLength*math.Sin(angle-headAngle),
		},
		Head2: Point{
			X: tip.X - arrowHeadLength*math.Cos(angle+headAngle),
			Y: tip.Y - arrowHeadLength*math.Sin(angle+headAngle),
		},
		Length: length,
	}
}

// ComputeCompassTicks returns the eight compass spokes N, NE, ... NW, 45° apart.
// Each spoke runs from innerRadius to outerRadius; its label sits labelOffset
// beyond the outer end.
func ComputeCompassTicks(center Point, outerRadius, innerRadius, labelOffset float64) []CompassTick {
	ticks := make([]CompassTick, len(tickLabels))
	for i, label := range tickLabels {
		deg := float64(i) * 45
		angle := screenAngle(deg)
		ticks[i] = CompassTick{
			Label:        label,
			AngleDegrees: deg,
			Inner:        polar(center, innerRadius, angle),
			Outer:        polar(center, outerRadius, angle),
			LabelPoint:   polar(center, outerRadius+labelOffset, angle),
		}
	}
	return ticks
}

// screenAngle converts a compass bearing to radians in screen space, where
// 0° is up and bearings increase clockwise.
func screenAngle(degrees float64) float64 {
	return (degrees - 90) * math.Pi / 180
}

func polar(center Point, r, angle float64) Point {
	return Point{
		X: center.X + r*math.Cos(angle),
		Y: center.Y + r*math.Sin(angle),
	}
}
