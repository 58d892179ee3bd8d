package hands

import (
	"image"
	"math"

	"golang.org/x/image/vector"

	"github.com/dyuri/dialface/internal/model"
)

// path is a vector hand polygon rotated to one step, relative to the pivot
type path struct {
	fill model.Color
	pts  [][2]float32
}

// rotate turns each group of a vector hand clockwise to index/steps of
// a revolution.
func rotate(v *model.VectorHand, index, steps int) []path {
	if v == nil || steps <= 0 {
		return nil
	}
	theta := 2 * math.Pi * float64(index) / float64(steps)
	sin, cos := math.Sincos(theta)

	groups := v.Groups
	if len(groups) > model.MaxVectorGroups {
		groups = groups[:model.MaxVectorGroups]
	}
	paths := make([]path, 0, len(groups))
	for _, g := range groups {
		p := path{fill: g.Fill, pts: make([][2]float32, len(g.Points))}
		for i, pt := range g.Points {
			x, y := float64(pt.X), float64(pt.Y)
			p.pts[i] = [2]float32{
				float32(x*cos - y*sin),
				float32(x*sin + y*cos),
			}
		}
		paths = append(paths, p)
	}
	return paths
}

// rasterize fills the polygon into an alpha mask covering bounds
func (p path) rasterize(bounds image.Rectangle, pivot image.Point) *image.Alpha {
	mask := image.NewAlpha(bounds)
	if len(p.pts) < 3 {
		return mask
	}

	ox := float32(pivot.X - bounds.Min.X)
	oy := float32(pivot.Y - bounds.Min.Y)
	z := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
	z.MoveTo(ox+p.pts[0][0], oy+p.pts[0][1])
	for _, pt := range p.pts[1:] {
		z.LineTo(ox+pt[0], oy+pt[1])
	}
	z.ClosePath()
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}
