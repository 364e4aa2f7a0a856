package maze

import (
	"math"

	"github.com/beka-birhanu/vinom-maze/seed"
)

const (
	minLevelSize = 6
	maxLevelSize = 96
)

// Level is everything a client draws for one seed: the maze, the hue of
// its palette, and the seed of the level reached through its goal.
type Level struct {
	Seed string  `json:"seed"`
	Hue  float64 `json:"hue"`
	Maze *Maze   `json:"maze"`
	Next string  `json:"next"`
}

// NewLevel draws, in order, the hue, the square size, the maze and the next
// seed from the stream of the canonical seed.
func NewLevel(s string) *Level {
	s = seed.Canonicalize(s)
	stream := seed.NewStream(s)

	hue := stream.Next() * 360
	size := toEven(randomInt(stream, minLevelSize, maxLevelSize)) - 1
	m := GenerateFrom(stream, size, size)

	return &Level{
		Seed: s,
		Hue:  hue,
		Maze: m,
		Next: seed.Derive(stream),
	}
}

// randomInt draws an integer in [lo, hi).
func randomInt(r seed.Source, lo, hi int) int {
	return lo + int(math.Floor(r.Next()*float64(hi-lo)))
}

func toEven(n int) int {
	return n - n%2
}
