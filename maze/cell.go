package maze

// Cell is the content of one grid square.
type Cell int

const (
	// Open is a carved, walkable square.
	Open Cell = iota
	// Wall blocks movement.
	Wall
	// Hint is a walkable square carrying a pickup that points toward the goal.
	Hint
)

// Walkable reports whether a player may stand on the cell.
func (c Cell) Walkable() bool {
	return c != Wall
}

func (c Cell) String() string {
	switch c {
	case Open:
		return "open"
	case Wall:
		return "wall"
	case Hint:
		return "hint"
	default:
		return "unknown"
	}
}

// Position is a grid coordinate; X is the column and Y the row.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Direction is one of the four axis-aligned headings of a walker.
type Direction uint8

const (
	Up Direction = iota
	Down
	Left
	Right
)

// directions lists every heading in the order candidate sets are built.
var directions = [...]Direction{Up, Down, Left, Right}

// delta returns the unit step of the direction.
func (d Direction) delta() (dx, dy int) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	default:
		return 1, 0
	}
}
