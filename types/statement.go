package types

import "time"

// Statement describes an exported CSV statement held in object storage.
type Statement struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"created_at"`
}
