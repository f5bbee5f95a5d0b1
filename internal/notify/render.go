// Package notify renders and dispatches enrollment confirmation emails.
package notify

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
)

// SubjectEnrollmentConfirmation is the subject of the confirmation email.
const SubjectEnrollmentConfirmation = "Confirmação de Inscrição no Evento"

const dateLayout = "02/01/2006 às 15:04"

//go:embed templates/*
var templateFS embed.FS

// Message is a rendered email ready to be queued.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

type confirmationData struct {
	ParticipantName string
	EventTitle      string
	When            string
	Location        string
	BannerURL       string
}

// Renderer renders confirmation emails with dates shown in loc.
type Renderer struct {
	html *htmltemplate.Template
	text *texttemplate.Template
	loc  *time.Location
}

// NewRenderer parses the embedded templates.
func NewRenderer(loc *time.Location) (*Renderer, error) {
	if loc == nil {
		loc = time.UTC
	}
	h, err := htmltemplate.ParseFS(templateFS, "templates/enrollment_confirmation.html")
	if err != nil {
		return nil, err
	}
	t, err := texttemplate.ParseFS(templateFS, "templates/enrollment_confirmation.txt")
	if err != nil {
		return nil, err
	}
	return &Renderer{html: h, text: t, loc: loc}, nil
}

// EnrollmentConfirmation renders the confirmation for participant enrolling in event.
func (r *Renderer) EnrollmentConfirmation(event *models.Event, participant *models.Participant) (Message, error) {
	data := confirmationData{
		ParticipantName: participant.Name,
		EventTitle:      event.Title,
		When:            event.ScheduledAt.In(r.loc).Format(dateLayout),
		Location:        event.Location,
		BannerURL:       event.BannerURL,
	}
	var html, text bytes.Buffer
	if err := r.html.Execute(&html, data); err != nil {
		return Message{}, err
	}
	if err := r.text.Execute(&text, data); err != nil {
		return Message{}, err
	}
	return Message{Subject: SubjectEnrollmentConfirmation, Text: text.String(), HTML: html.String()}, nil
}
