package export

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/jointsync/internal/constraint"
)

var kindColors = map[constraint.Kind]string{
	constraint.KindRope:      "#ffcc00",
	constraint.KindDistance:  "#00ccff",
	constraint.KindRevolute:  "#ff00ff",
	constraint.KindSpherical: "#00ff88",
	constraint.KindPrismatic: "#ff8844",
}

// Snapshot is the state drawn by SceneToSVG: body positions by id and the
// joints between them.
type Snapshot struct {
	Bodies map[string]mgl64.Vec3
	Joints []constraint.Record
}

// SceneToSVG draws the XY plane of a snapshot. Joints whose bodies are not
// in the snapshot are left out.
func SceneToSVG(s Snapshot, width, height int) string {
	ids := make([]string, 0, len(s.Bodies))
	for id := range s.Bodies {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, id := range ids {
		p := s.Bodies[id]
		minX, maxX = math.Min(minX, p[0]), math.Max(maxX, p[0])
		minY, maxY = math.Min(minY, p[1]), math.Max(maxY, p[1])
	}
	if len(ids) == 0 {
		minX, minY, maxX, maxY = -1, -1, 1, 1
	}

	// Add padding
	rangeX := math.Max(maxX-minX, 1)
	rangeY := math.Max(maxY-minY, 1)
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	project := func(p mgl64.Vec3) (float64, float64) {
		x := (p[0] - minX) / rangeX * float64(width)
		y := float64(height) - (p[1]-minY)/rangeY*float64(height)
		return x, y
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	sb.WriteString(`<g stroke-width="2">` + "\n")
	for _, rec := range s.Joints {
		pa, okA := s.Bodies[rec.BodyA]
		pb, okB := s.Bodies[rec.BodyB]
		if !okA || !okB {
			continue
		}
		x1, y1 := project(pa)
		x2, y2 := project(pb)
		color, ok := kindColors[rec.Kind]
		if !ok {
			color = "#ffffff"
		}
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"><title>%s %s</title></line>
`, x1, y1, x2, y2, color, rec.Kind, rec.Key))
	}
	sb.WriteString("</g>\n")

	sb.WriteString(`<g fill="#e0f0ff" font-family="monospace" font-size="10">` + "\n")
	for _, id := range ids {
		x, y := project(s.Bodies[id])
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="4"/>
<text x="%.1f" y="%.1f">%s</text>
`, x, y, x+6, y-6, escape(id)))
	}
	sb.WriteString("</g>\n</svg>\n")

	return sb.String()
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;").Replace(s)
}
