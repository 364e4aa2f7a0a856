/*
Package maze carves reproducible grid mazes from a seeded stream.

A maze is a grid of Open, Wall and Hint cells. Generation starts from an
all-Wall grid and lets walkers carve two cells per advance from (1,1). The
first walker's run ends at the goal; every place a run turned or stopped is
a corner from which a new branch may be carved, until no corner is left.
Some corners are finally marked as hints, favoring the corners of the run
that leads to the goal.
*/
package maze

import (
	"strings"

	"github.com/beka-birhanu/vinom-maze/seed"
)

const (
	// MinDimension is the smallest width or height a maze is generated with.
	MinDimension = 5
	// MaxDimension is the largest width or height a maze is generated with.
	MaxDimension = 1001
)

// Maze is a generated level grid. Field is indexed as Field[y][x].
type Maze struct {
	Field  [][]Cell `json:"field"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Start  Position `json:"start"`
	Goal   Position `json:"goal"`
}

// Generate builds the maze of a seed. The seed is canonicalized first, so
// seeds that canonicalize alike produce the same maze.
func Generate(s string, width, height int) *Maze {
	return GenerateFrom(seed.NewStream(seed.Canonicalize(s)), width, height)
}

// GenerateFrom builds a maze consuming draws from r. Dimensions are clamped
// with Clamp. For a given stream position and dimensions the result is
// always the same.
func GenerateFrom(r seed.Source, width, height int) *Maze {
	m := newWalled(Clamp(width), Clamp(height))
	g := &generator{maze: m, rng: r}
	g.carve()
	g.placeHints()
	return m
}

// Clamp returns the largest odd dimension not above n, bounded to
// [MinDimension, MaxDimension]. Odd sizes keep the carved lattice on odd
// coordinates, leaving the outer ring as wall.
func Clamp(n int) int {
	if n%2 == 0 {
		n--
	}
	return max(MinDimension, min(MaxDimension, n))
}

func newWalled(width, height int) *Maze {
	field := make([][]Cell, height)
	for y := range field {
		field[y] = make([]Cell, width)
		for x := range field[y] {
			field[y][x] = Wall
		}
	}

	return &Maze{
		Field:  field,
		Width:  width,
		Height: height,
	}
}

// InBound reports whether the coordinate is inside the grid.
func (m *Maze) InBound(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width && y < m.Height
}

// At returns the cell at (x, y). Coordinates outside the grid read as Open,
// so walkers stop at the edges.
func (m *Maze) At(x, y int) Cell {
	if !m.InBound(x, y) {
		return Open
	}
	return m.Field[y][x]
}

func (m *Maze) isWall(p Position) bool {
	return m.At(p.X, p.Y) == Wall
}

func (m *Maze) set(p Position, c Cell) {
	m.Field[p.Y][p.X] = c
}

// Hints returns the positions of every hint cell, row by row.
func (m *Maze) Hints() []Position {
	var hints []Position
	for y, row := range m.Field {
		for x, c := range row {
			if c == Hint {
				hints = append(hints, Position{X: x, Y: y})
			}
		}
	}
	return hints
}

// Reachable flood-fills walkable cells from the start and reports whether
// the goal was reached.
func (m *Maze) Reachable() bool {
	if !m.InBound(m.Start.X, m.Start.Y) || !m.At(m.Start.X, m.Start.Y).Walkable() {
		return false
	}

	visited := make([][]bool, m.Height)
	for y := range visited {
		visited[y] = make([]bool, m.Width)
	}

	queue := []Position{m.Start}
	visited[m.Start.Y][m.Start.X] = true
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if p == m.Goal {
			return true
		}

		for _, d := range directions {
			dx, dy := d.delta()
			n := Position{X: p.X + dx, Y: p.Y + dy}
			if !m.InBound(n.X, n.Y) || visited[n.Y][n.X] || !m.Field[n.Y][n.X].Walkable() {
				continue
			}
			visited[n.Y][n.X] = true
			queue = append(queue, n)
		}
	}

	return false
}

// String renders the maze as ASCII art: '#' wall, ' ' open, '*' hint,
// 'S' start and 'G' goal.
func (m *Maze) String() string {
	var sb strings.Builder
	sb.Grow((m.Width + 1) * m.Height)

	for y, row := range m.Field {
		for x, c := range row {
			p := Position{X: x, Y: y}
			switch {
			case p == m.Start:
				sb.WriteByte('S')
			case p == m.Goal:
				sb.WriteByte('G')
			case c == Wall:
				sb.WriteByte('#')
			case c == Hint:
				sb.WriteByte('*')
			default:
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}
