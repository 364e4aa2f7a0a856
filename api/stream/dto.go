package streamapi

// RoomResponse describes the room of a seed in this process.
type RoomResponse struct {
	Seed    string `json:"seed"`
	Members int    `json:"members"`
}
