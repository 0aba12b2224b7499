// Package domain turns raw home-automation wind readings into the numbers a
// wind rose renderer needs.
//
// # Host Data Conventions
//
// The dashboard host publishes one JSON document per entity state change:
//
//	{"entity_id":"sensor.wind_direction","state":"NE","attributes":{...}}
//
// State is always text. A direction entity reports either meteorological
// degrees ("62.0") or a 16-point compass abbreviation ("ENE"). A speed entity
// reports a decimal number and names its unit in the unit_of_measurement
// attribute ("mph", "km/h", "m/s"). Unavailable sensors report strings such
// as "unavailable" or "unknown".
//
// # Leniency
//
// Nothing in the encoder fails. Unparseable direction or speed text becomes 0,
// and numeric directions outside [0, 360) are passed through untouched so the
// host sees exactly what the sensor reported. See [NormalizeDirection] and
// [NormalizeSpeed].
//
// # Units
//
// Classification always runs in miles per hour because the Beaufort table is
// expressed in mph. Displayed speed, gust and the arrow length ratio all use
// the card's display unit, and a card's max_speed is in that same unit.
//
// # Geometry
//
// Direction is where the wind comes from. 0° is North and points up (smaller
// Y in screen space), increasing clockwise. The arrow and the compass ticks use
// the same convention: angle = (degrees - 90) * π/180.
//
//	Arrow length: 30% of radius at calm, growing linearly to 90% of radius at
//	max_speed, capped at 90% beyond it.
//	Arrowhead:    two wing points 12 units back from the tip, ±25° off the shaft.
//
// # Beaufort Scale
//
//	force  mph        description
//	0      < 1        Calm
//	1      < 4        Light Air
//	2      < 8        Light Breeze
//	3      < 13       Gentle Breeze
//	4      < 19       Moderate Breeze
//	5      < 25       Fresh Breeze
//	6      < 32       Strong Breeze
//	7      < 39       Near Gale
//	8      < 47       Gale
//	9      < 55       Strong Gale
//	10     < 64       Storm
//	11     < 73       Violent Storm
//	12     >= 73      Hurricane
package domain
