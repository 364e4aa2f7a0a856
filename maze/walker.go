package maze

import (
	"slices"

	"github.com/beka-birhanu/vinom-maze/seed"
)

const (
	// walkerBudget is how many cells a walker carves before it has to turn.
	walkerBudget = 2

	maxHints = 8

	// goalHintProb is the chance a hint draw favors the corners of the goal run.
	goalHintProb = 0.65
)

// walker is a directional cursor that carves its way through walls.
type walker struct {
	pos    Position
	budget int
	dir    Direction
}

// generator holds the worklists of one generation call. Corners are plain
// values, so pending branches never point back into each other.
type generator struct {
	maze *Maze
	rng  seed.Source

	pending    []Position // corners not expanded yet, across all runs
	goalPool   []Position // corners of the run that ends at the goal
	normalPool []Position // corners of every later run
}

func (g *generator) carve() {
	m := g.maze
	m.Start = Position{X: 1, Y: 1}
	m.set(m.Start, Open)

	dir := Down
	if g.rng.Next() > 0.5 {
		dir = Right
	}

	goal, corners := g.branch(m.Start, dir)
	m.Goal = goal
	g.goalPool = slices.Clone(corners)
	g.pending = corners

	for len(g.pending) > 0 {
		corner := takeAt(&g.pending, g.randomIndex(len(g.pending)))

		dirs := g.available(corner)
		if len(dirs) == 0 {
			continue
		}

		_, corners := g.branch(corner, dirs[g.randomIndex(len(dirs))])
		g.pending = append(g.pending, corners...)
		if g.rng.Next() > 0.5 {
			g.normalPool = append(g.normalPool, corners...)
		} else {
			g.normalPool = append(slices.Clone(corners), g.normalPool...)
		}
	}
}

// branch runs walkers from start, turning at random after every advance,
// until one cannot move or no direction is left. It returns where the run
// ended and every corner it recorded.
func (g *generator) branch(start Position, dir Direction) (Position, []Position) {
	w := walker{pos: start, budget: walkerBudget, dir: dir}
	var corners []Position

	for {
		corners = append(corners, w.pos)
		if !g.advance(&w) {
			break
		}

		dirs := g.available(w.pos)
		if len(dirs) == 0 {
			break
		}

		w = walker{pos: w.pos, budget: walkerBudget, dir: dirs[g.randomIndex(len(dirs))]}
	}

	return w.pos, corners
}

// advance carves the intermediate and destination cells two at a time while
// the budget lasts and the destination is still wall.
func (g *generator) advance(w *walker) bool {
	m := g.maze
	dx, dy := w.dir.delta()
	moved := false

	for w.budget > 0 {
		mid := Position{X: w.pos.X + dx, Y: w.pos.Y + dy}
		dest := Position{X: w.pos.X + 2*dx, Y: w.pos.Y + 2*dy}
		if !m.InBound(dest.X, dest.Y) || !m.isWall(dest) {
			break
		}

		m.set(mid, Open)
		m.set(dest, Open)
		w.pos = dest
		w.budget -= 2
		moved = true
	}

	return moved
}

// available lists the directions whose cell two steps away is still wall.
func (g *generator) available(p Position) []Direction {
	var dirs []Direction
	for _, d := range directions {
		dx, dy := d.delta()
		if g.maze.isWall(Position{X: p.X + 2*dx, Y: p.Y + 2*dy}) {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

func (g *generator) placeHints() {
	m := g.maze
	for range maxHints {
		pool := &g.normalPool
		if g.rng.Next() < goalHintProb && len(g.goalPool) > 0 {
			pool = &g.goalPool
		}
		if len(*pool) == 0 {
			break
		}

		p := takeAt(pool, g.randomIndex(len(*pool)))
		if p == m.Goal || p == m.Start {
			continue
		}
		m.set(p, Hint)
	}
}

// randomIndex draws an index in [0, n).
func (g *generator) randomIndex(n int) int {
	return int(g.rng.Next() * float64(n))
}

func takeAt(s *[]Position, i int) Position {
	p := (*s)[i]
	*s = slices.Delete(*s, i, i+1)
	return p
}
