package models

import "time"

// Enrollment links one participant to one event.
type Enrollment struct {
	ID            int64     `json:"id"`
	EventID       int64     `json:"event_id"`
	ParticipantID int64     `json:"participant_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// EnrollmentDetail is an enrollment joined with the event and participant it links,
// used by profile and dashboard listings.
type EnrollmentDetail struct {
	Enrollment
	EventTitle       string    `json:"event_title"`
	EventLocation    string    `json:"event_location"`
	EventScheduledAt time.Time `json:"event_scheduled_at"`
	ParticipantName  string    `json:"participant_name"`
	ParticipantEmail string    `json:"participant_email"`
}
