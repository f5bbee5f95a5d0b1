package postgres

import (
	"context"
	"fmt"

	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
	"github.com/RaphaBane/Gereventos-SENAC/internal/storage"
)

const (
	participantColumns = `id, account_id, name, phone, gender, city, cpf, created_at`
	organizerColumns   = `id, account_id, name, phone, gender, city, cnpj, created_at`
)

func scanParticipant(row interface{ Scan(...any) error }) (*models.Participant, error) {
	var p models.Participant
	var gender string
	if err := row.Scan(&p.ID, &p.AccountID, &p.Name, &p.Phone, &gender, &p.City, &p.CPF, &p.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	p.Gender = models.Gender(gender)
	return &p, nil
}

func scanOrganizer(row interface{ Scan(...any) error }) (*models.Organizer, error) {
	var o models.Organizer
	var gender string
	if err := row.Scan(&o.ID, &o.AccountID, &o.Name, &o.Phone, &gender, &o.City, &o.CNPJ, &o.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	o.Gender = models.Gender(gender)
	return &o, nil
}

// CreateParticipant inserts a participant profile (one per account).
func (s *Store) CreateParticipant(ctx context.Context, p *models.Participant) error {
	const q = `INSERT INTO participants (account_id, name, phone, gender, city, cpf)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`
	err := s.db.QueryRow(ctx, q, p.AccountID, p.Name, p.Phone, string(p.Gender), p.City, p.CPF).Scan(&p.ID, &p.CreatedAt)
	if isCode(err, codeUniqueViolation) {
		return storage.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("create participant: %w", err)
	}
	return nil
}

// GetParticipant returns a participant by ID.
func (s *Store) GetParticipant(ctx context.Context, id int64) (*models.Participant, error) {
	return scanParticipant(s.db.QueryRow(ctx, `SELECT `+participantColumns+` FROM participants WHERE id = $1`, id))
}

// GetParticipantByAccount returns the participant profile of an account.
func (s *Store) GetParticipantByAccount(ctx context.Context, accountID int64) (*models.Participant, error) {
	return scanParticipant(s.db.QueryRow(ctx, `SELECT `+participantColumns+` FROM participants WHERE account_id = $1`, accountID))
}

// UpdateParticipant updates the mutable profile fields.
func (s *Store) UpdateParticipant(ctx context.Context, p *models.Participant) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE participants SET name = $1, phone = $2, gender = $3, city = $4, cpf = $5 WHERE id = $6`,
		p.Name, p.Phone, string(p.Gender), p.City, p.CPF, p.ID)
	if err != nil {
		return fmt.Errorf("update participant: %w", err)
	}
	return requireAffected(tag)
}

// CreateOrganizer inserts an organizer profile (one per account).
func (s *Store) CreateOrganizer(ctx context.Context, o *models.Organizer) error {
	const q = `INSERT INTO organizers (account_id, name, phone, gender, city, cnpj)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`
	err := s.db.QueryRow(ctx, q, o.AccountID, o.Name, o.Phone, string(o.Gender), o.City, o.CNPJ).Scan(&o.ID, &o.CreatedAt)
	if isCode(err, codeUniqueViolation) {
		return storage.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("create organizer: %w", err)
	}
	return nil
}

// GetOrganizer returns an organizer by ID.
func (s *Store) GetOrganizer(ctx context.Context, id int64) (*models.Organizer, error) {
	return scanOrganizer(s.db.QueryRow(ctx, `SELECT `+organizerColumns+` FROM organizers WHERE id = $1`, id))
}

// GetOrganizerByAccount returns the organizer profile of an account.
func (s *Store) GetOrganizerByAccount(ctx context.Context, accountID int64) (*models.Organizer, error) {
	return scanOrganizer(s.db.QueryRow(ctx, `SELECT `+organizerColumns+` FROM organizers WHERE account_id = $1`, accountID))
}

// UpdateOrganizer updates the mutable profile fields.
func (s *Store) UpdateOrganizer(ctx context.Context, o *models.Organizer) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE organizers SET name = $1, phone = $2, gender = $3, city = $4, cnpj = $5 WHERE id = $6`,
		o.Name, o.Phone, string(o.Gender), o.City, o.CNPJ, o.ID)
	if err != nil {
		return fmt.Errorf("update organizer: %w", err)
	}
	return requireAffected(tag)
}
