package models

import "time"

// Gender is the self-declared gender stored on profiles.
type Gender string

const (
	GenderMale         Gender = "M"
	GenderFemale       Gender = "F"
	GenderOther        Gender = "O"
	GenderPreferNotSay Gender = "P"
)

// Valid reports whether g is one of the accepted values.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderPreferNotSay:
		return true
	}
	return false
}

// Participant is the attendee profile of an account.
type Participant struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Gender    Gender    `json:"gender"`
	City      string    `json:"city"`
	CPF       string    `json:"cpf"`
	CreatedAt time.Time `json:"created_at"`
}

// Organizer is the event publisher profile of an account.
type Organizer struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Gender    Gender    `json:"gender"`
	City      string    `json:"city"`
	CNPJ      string    `json:"cnpj"`
	CreatedAt time.Time `json:"created_at"`
}
