package model

import "time"

// Quest is one accumulated scan result inside a geofence. The scheduler
// never reads quests; it only clears them wholesale during a re-quest.
type Quest struct {
	ID           uint64    `json:"id"`
	GeofenceName string    `json:"geofence_name"`
	StopID       string    `json:"stop_id"`
	Title        string    `json:"title,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
