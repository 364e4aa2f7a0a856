// Package levelapi serves generated levels and the seed of the day.
package levelapi

// MazeQuery holds the dimensions requested for a raw maze.
// Out of range dimensions are clamped by the generator.
type MazeQuery struct {
	Width  int `form:"width,default=21"`
	Height int `form:"height,default=21"`
}

// DailyResponse carries the seed of the day.
type DailyResponse struct {
	Seed string `json:"seed"`
}
