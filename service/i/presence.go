package i

import "context"

// SeedCount is the number of members connected to the room of a seed.
type SeedCount struct {
	Seed    string `json:"seed"`
	Members int64  `json:"members"`
}

// Presence tracks room occupancy per seed, possibly across several server processes.
type Presence interface {
	// Joined records one more member in the room of seed.
	Joined(ctx context.Context, seed string) error

	// Left records one member less in the room of seed.
	// A seed whose count drops to zero is removed from the index.
	Left(ctx context.Context, seed string) error

	// Busiest returns up to limit seeds ordered by member count, highest first.
	Busiest(ctx context.Context, limit int64) ([]SeedCount, error)
}
