package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
	"github.com/RaphaBane/Gereventos-SENAC/internal/storage"
)

const (
	participantColumns = `id, account_id, name, phone, gender, city, cpf, created_at`
	organizerColumns   = `id, account_id, name, phone, gender, city, cnpj, created_at`
)

func scanParticipant(row interface{ Scan(...any) error }) (*models.Participant, error) {
	var p models.Participant
	var created int64
	if err := row.Scan(&p.ID, &p.AccountID, &p.Name, &p.Phone, &p.Gender, &p.City, &p.CPF, &created); err != nil {
		return nil, notFound(err)
	}
	p.CreatedAt = fromMillis(created)
	return &p, nil
}

func scanOrganizer(row interface{ Scan(...any) error }) (*models.Organizer, error) {
	var o models.Organizer
	var created int64
	if err := row.Scan(&o.ID, &o.AccountID, &o.Name, &o.Phone, &o.Gender, &o.City, &o.CNPJ, &created); err != nil {
		return nil, notFound(err)
	}
	o.CreatedAt = fromMillis(created)
	return &o, nil
}

// CreateParticipant inserts a participant profile (one per account).
func (s *Store) CreateParticipant(ctx context.Context, p *models.Participant) error {
	created := fromMillis(toMillis(time.Now()))
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO participants (account_id, name, phone, gender, city, cpf, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.AccountID, p.Name, p.Phone, string(p.Gender), p.City, p.CPF, toMillis(created))
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create participant: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create participant id: %w", err)
	}
	p.ID = id
	p.CreatedAt = created
	return nil
}

// GetParticipant returns a participant by ID.
func (s *Store) GetParticipant(ctx context.Context, id int64) (*models.Participant, error) {
	return scanParticipant(s.db.QueryRowContext(ctx, `SELECT `+participantColumns+` FROM participants WHERE id = ?`, id))
}

// GetParticipantByAccount returns the participant profile of an account.
func (s *Store) GetParticipantByAccount(ctx context.Context, accountID int64) (*models.Participant, error) {
	return scanParticipant(s.db.QueryRowContext(ctx, `SELECT `+participantColumns+` FROM participants WHERE account_id = ?`, accountID))
}

// UpdateParticipant updates the mutable profile fields.
func (s *Store) UpdateParticipant(ctx context.Context, p *models.Participant) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE participants SET name = ?, phone = ?, gender = ?, city = ?, cpf = ? WHERE id = ?`,
		p.Name, p.Phone, string(p.Gender), p.City, p.CPF, p.ID)
	if err != nil {
		return fmt.Errorf("update participant: %w", err)
	}
	return requireAffected(res)
}

// CreateOrganizer inserts an organizer profile (one per account).
func (s *Store) CreateOrganizer(ctx context.Context, o *models.Organizer) error {
	created := fromMillis(toMillis(time.Now()))
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO organizers (account_id, name, phone, gender, city, cnpj, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.AccountID, o.Name, o.Phone, string(o.Gender), o.City, o.CNPJ, toMillis(created))
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create organizer: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create organizer id: %w", err)
	}
	o.ID = id
	o.CreatedAt = created
	return nil
}

// GetOrganizer returns an organizer by ID.
func (s *Store) GetOrganizer(ctx context.Context, id int64) (*models.Organizer, error) {
	return scanOrganizer(s.db.QueryRowContext(ctx, `SELECT `+organizerColumns+` FROM organizers WHERE id = ?`, id))
}

// GetOrganizerByAccount returns the organizer profile of an account.
func (s *Store) GetOrganizerByAccount(ctx context.Context, accountID int64) (*models.Organizer, error) {
	return scanOrganizer(s.db.QueryRowContext(ctx, `SELECT `+organizerColumns+` FROM organizers WHERE account_id = ?`, accountID))
}

// UpdateOrganizer updates the mutable profile fields.
func (s *Store) UpdateOrganizer(ctx context.Context, o *models.Organizer) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE organizers SET name = ?, phone = ?, gender = ?, city = ?, cnpj = ? WHERE id = ?`,
		o.Name, o.Phone, string(o.Gender), o.City, o.CNPJ, o.ID)
	if err != nil {
		return fmt.Errorf("update organizer: %w", err)
	}
	return requireAffected(res)
}
