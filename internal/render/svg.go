// Package render draws wind rose encodings as standalone SVG documents.
package render

import (
	"fmt"
	"io"
	"strconv"
	"text/template"

	"github.com/couchcryptid/windrose-service/internal/domain"
)

// ContentType is the media type written by RenderSVG.
const ContentType = "image/svg+xml"

var roseTemplate = template.Must(template.New("rose").Funcs(template.FuncMap{
	"f":     formatCoord,
	"ring":  ring,
	"speed": formatSpeed,
	"deref": func(p *float64) float64 { return *p },
	"xml":   template.HTMLEscapeString,
}).Parse(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 {{f .Width}} {{f .Height}}" width="{{f .Width}}" height="{{f .Height}}">
<title>{{xml .Enc.Title}}</title>
<g fill="none" stroke="#9e9e9e" stroke-width="1">
{{- $c := .Enc.Layout.Center}}{{$r := .Enc.Layout.Radius}}
<circle cx="{{f $c.X}}" cy="{{f $c.Y}}" r="{{f $r}}"/>
<circle cx="{{f $c.X}}" cy="{{f $c.Y}}" r="{{ring $r 0.66}}"/>
<circle cx="{{f $c.X}}" cy="{{f $c.Y}}" r="{{ring $r 0.33}}"/>
<circle cx="{{f $c.X}}" cy="{{f $c.Y}}" r="{{f .Enc.Layout.InnerRadius}}"/>
{{- range .Enc.Ticks}}
<line x1="{{f .Inner.X}}" y1="{{f .Inner.Y}}" x2="{{f .Outer.X}}" y2="{{f .Outer.Y}}"/>
{{- end}}
</g>
<g font-family="sans-serif" font-size="10" fill="#424242" text-anchor="middle" dominant-baseline="middle">
{{- range .Enc.Ticks}}
<text x="{{f .LabelPoint.X}}" y="{{f .LabelPoint.Y}}">{{.Label}}</text>
{{- end}}
</g>
<g stroke="#1e88e5" stroke-width="3" stroke-linecap="round">
<line x1="{{f .Enc.Arrow.ShaftOrigin.X}}" y1="{{f .Enc.Arrow.ShaftOrigin.Y}}" x2="{{f .Enc.Arrow.Tip.X}}" y2="{{f .Enc.Arrow.Tip.Y}}"/>
<polygon fill="#1e88e5" points="{{f .Enc.Arrow.Tip.X}},{{f .Enc.Arrow.Tip.Y}} {{f .Enc.Arrow.Head1.X}},{{f .Enc.Arrow.Head1.Y}} {{f .Enc.Arrow.Head2.X}},{{f .Enc.Arrow.Head2.Y}}"/>
</g>
<text x="{{f $c.X}}" y="{{f .CaptionY}}" font-family="sans-serif" font-size="11" text-anchor="middle">{{.Enc.CompassPoint}} {{speed .Enc.Speed}} {{.Enc.SpeedUnit}}{{if .Enc.Gust}} (gust {{speed (deref .Enc.Gust)}}){{end}} · {{.Enc.Beaufort.Description}}</text>
</svg>
`))

type roseView struct {
	Enc      domain.WindEncoding
	Width    float64
	Height   float64
	CaptionY float64
}

// RenderSVG writes enc as an SVG compass rose. The canvas is sized from the
// encoding's layout with room below the rose for a caption.
func RenderSVG(w io.Writer, enc domain.WindEncoding) error {
	l := enc.Layout
	view := roseView{
		Enc:      enc,
		Width:    2 * l.Center.X,
		Height:   2*l.Center.Y + 20,
		CaptionY: 2*l.Center.Y + 10,
	}
	if err := roseTemplate.Execute(w, view); err != nil {
		return fmt.Errorf("render svg: %w", err)
	}
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatSpeed(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func ring(radius, fraction float64) string {
	return formatCoord(radius * fraction)
}
