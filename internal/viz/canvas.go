package viz

import (
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the sub-pixel at (x, y). The canvas is (Width*2) x (Height*4)
// sub-pixels.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawDisc fills a disc of radius r sub-pixels.
func (c *Canvas) DrawDisc(cx, cy, r int) {
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			if x*x+y*y <= r*r {
				c.Set(cx+x, cy+y)
			}
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Viewport maps the XY plane of the world onto canvas sub-pixels with +Y up.
type Viewport struct {
	Min, Max mgl64.Vec2
}

// FitViewport returns a square viewport around points with a margin of
// one unit.
func FitViewport(points []mgl64.Vec3) Viewport {
	if len(points) == 0 {
		return Viewport{Min: mgl64.Vec2{-5, -5}, Max: mgl64.Vec2{5, 5}}
	}

	lo := points[0].Vec2()
	hi := lo
	for _, p := range points[1:] {
		lo = mgl64.Vec2{math.Min(lo[0], p[0]), math.Min(lo[1], p[1])}
		hi = mgl64.Vec2{math.Max(hi[0], p[0]), math.Max(hi[1], p[1])}
	}

	center := lo.Add(hi).Mul(0.5)
	half := math.Max(hi[0]-lo[0], hi[1]-lo[1])/2 + 1
	return Viewport{
		Min: center.Sub(mgl64.Vec2{half, half}),
		Max: center.Add(mgl64.Vec2{half, half}),
	}
}

// Project returns the sub-pixel coordinates of p on c.
func (v Viewport) Project(c *Canvas, p mgl64.Vec3) (int, int) {
	w, h := float64(c.Width*2-1), float64(c.Height*4-1)
	span := v.Max.Sub(v.Min)
	if span[0] == 0 || span[1] == 0 {
		return 0, 0
	}
	x := (p[0] - v.Min[0]) / span[0] * w
	y := (v.Max[1] - p[1]) / span[1] * h
	return int(math.Round(x)), int(math.Round(y))
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
