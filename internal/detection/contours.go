// Package detection finds connected foreground regions in binary
// masks and reports their size and bounding location.
package detection

import (
	"image"
	"sort"
)

// Component is one connected foreground region of a binary mask.
//
// X/Y/Width/Height describe the bounding box; Area is the number of
// foreground pixels inside the region, which for filled regions is a
// proxy for the object's extent.
type Component struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Area   float64 `json:"area"`
}

type point struct {
	x, y int
}

// Components performs 8-connected component analysis over a binary
// mask (nonzero = foreground). Components are returned sorted by
// position (top-left first) for deterministic output.
func Components(mask *image.Gray) []Component {
	bounds := mask.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	visited := make([]bool, width*height)
	foreground := func(x, y int) bool {
		return mask.Pix[mask.PixOffset(x+bounds.Min.X, y+bounds.Min.Y)] != 0
	}

	components := make([]Component, 0)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if visited[y*width+x] || !foreground(x, y) {
				continue
			}
			components = append(components, fillComponent(foreground, visited, x, y, width, height))
		}
	}

	sort.Slice(components, func(i, j int) bool {
		if components[i].Y != components[j].Y {
			return components[i].Y < components[j].Y
		}
		return components[i].X < components[j].X
	})

	return components
}

// fillComponent grows one component from a seed pixel using an
// iterative stack-based flood fill (recursion would overflow on large
// regions), tracking pixel count and bounding box as it goes.
func fillComponent(foreground func(x, y int) bool, visited []bool, startX, startY, width, height int) Component {
	stack := []point{{startX, startY}}
	visited[startY*width+startX] = true

	area := 0
	minX, minY := startX, startY
	maxX, maxY := startX, startY

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		area++

		if p.x < minX {
			minX = p.x
		}
		if p.x > maxX {
			maxX = p.x
		}
		if p.y < minY {
			minY = p.y
		}
		if p.y > maxY {
			maxY = p.y
		}

		// 8-connected neighbors
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				nx, ny := p.x+dx, p.y+dy
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					continue
				}
				if visited[ny*width+nx] || !foreground(nx, ny) {
					continue
				}
				visited[ny*width+nx] = true
				stack = append(stack, point{nx, ny})
			}
		}
	}

	return Component{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX + 1,
		Height: maxY - minY + 1,
		Area:   float64(area),
	}
}
