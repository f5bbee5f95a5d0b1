package models

import "time"

// Event is a scheduled happening published by an organizer.
type Event struct {
	ID          int64     `json:"id"`
	OrganizerID int64     `json:"organizer_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Location    string    `json:"location"`
	CapacityMax int       `json:"capacity_max"`
	BannerKey   string    `json:"-"`
	BannerURL   string    `json:"banner_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
