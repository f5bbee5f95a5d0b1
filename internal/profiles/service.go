// Package profiles handles participant and organizer signup and profile management.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/RaphaBane/Gereventos-SENAC/internal/auth"
	"github.com/RaphaBane/Gereventos-SENAC/internal/identity"
	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
	"github.com/RaphaBane/Gereventos-SENAC/internal/storage"
	"github.com/RaphaBane/Gereventos-SENAC/pkg/utils"
)

var ErrInvalidProfile = errors.New("invalid profile data")

const (
	maxNameLen  = 200
	maxPhoneLen = 20
	maxCityLen  = 100
	maxCPFLen   = 14
	maxCNPJLen  = 18
)

// SignupRequest is the body for POST /signup/participant and /signup/organizer.
// Document is the CPF for participants and the CNPJ for organizers.
type SignupRequest struct {
	Username  string        `json:"username" binding:"required"`
	Email     string        `json:"email" binding:"required"`
	Password  string        `json:"password" binding:"required"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Name      string        `json:"name" binding:"required"`
	Phone     string        `json:"phone"`
	Gender    models.Gender `json:"gender"`
	City      string        `json:"city"`
	Document  string        `json:"document"`
}

// Update holds profile fields to change; nil keeps the current value.
type Update struct {
	Name     *string        `json:"name"`
	Phone    *string        `json:"phone"`
	Gender   *models.Gender `json:"gender"`
	City     *string        `json:"city"`
	Document *string        `json:"document"`
}

// Signup is the result of creating an account with a profile.
type Signup struct {
	Token       string               `json:"token"`
	Account     models.AccountPublic `json:"account"`
	Participant *models.Participant  `json:"participant,omitempty"`
	Organizer   *models.Organizer    `json:"organizer,omitempty"`
}

// ParticipantProfile is a participant with their enrollment history, newest first.
type ParticipantProfile struct {
	Account     models.AccountPublic      `json:"account"`
	Participant *models.Participant       `json:"participant"`
	Enrollments []models.EnrollmentDetail `json:"enrollments"`
	Total       int                       `json:"total"`
}

// OrganizerEvent is an organizer's event with its remaining seats.
type OrganizerEvent struct {
	models.Event
	RemainingCapacity int `json:"remaining_capacity"`
}

// OrganizerProfile is an organizer with their events, latest scheduled first.
type OrganizerProfile struct {
	Account   models.AccountPublic `json:"account"`
	Organizer *models.Organizer    `json:"organizer"`
	Events    []OrganizerEvent     `json:"events"`
	Total     int                  `json:"total"`
}

// BannerCleaner schedules removal of banner objects left behind by deleted events.
type BannerCleaner interface {
	EnqueueBannerCleanup(ctx context.Context, key string) error
}

// Service manages accounts' participant and organizer profiles.
type Service struct {
	store   storage.Store
	auth    *auth.Service
	cleaner BannerCleaner
	logger  *zap.Logger
}

// NewService creates a profile service. cleaner may be nil.
func NewService(store storage.Store, authSvc *auth.Service, cleaner BannerCleaner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, auth: authSvc, cleaner: cleaner, logger: logger}
}

type profileFields struct {
	name, phone, city, document string
	gender                      models.Gender
	maxDocument                 int
}

func (p *profileFields) normalize() error {
	p.name = strings.TrimSpace(p.name)
	p.phone = strings.TrimSpace(p.phone)
	p.city = strings.TrimSpace(p.city)
	p.document = strings.TrimSpace(p.document)
	if p.gender == "" {
		p.gender = models.GenderPreferNotSay
	}
	switch {
	case p.name == "" || utf8.RuneCountInString(p.name) > maxNameLen:
		return fmt.Errorf("%w: name must be 1-%d characters", ErrInvalidProfile, maxNameLen)
	case len(p.phone) > maxPhoneLen:
		return fmt.Errorf("%w: phone exceeds %d characters", ErrInvalidProfile, maxPhoneLen)
	case utf8.RuneCountInString(p.city) > maxCityLen:
		return fmt.Errorf("%w: city exceeds %d characters", ErrInvalidProfile, maxCityLen)
	case len(p.document) > p.maxDocument:
		return fmt.Errorf("%w: document exceeds %d characters", ErrInvalidProfile, p.maxDocument)
	case !p.gender.Valid():
		return fmt.Errorf("%w: gender must be one of M, F, O, P", ErrInvalidProfile)
	}
	return nil
}

func (s *Service) newAccount(req SignupRequest) (*models.Account, error) {
	acc := &models.Account{
		Username:  strings.TrimSpace(req.Username),
		Email:     strings.TrimSpace(req.Email),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
	}
	if err := auth.ValidateAccount(acc); err != nil {
		return nil, err
	}
	if err := auth.CheckNewPassword(req.Password); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	acc.PasswordHash = hash
	return acc, nil
}

func createAccount(ctx context.Context, tx storage.Store, acc *models.Account) error {
	err := tx.CreateAccount(ctx, acc)
	if errors.Is(err, storage.ErrAlreadyExists) {
		return auth.ErrUsernameTaken
	}
	return err
}

// SignupParticipant creates an account and its participant profile in one transaction.
func (s *Service) SignupParticipant(ctx context.Context, req SignupRequest) (*Signup, error) {
	f := profileFields{name: req.Name, phone: req.Phone, city: req.City, document: req.Document, gender: req.Gender, maxDocument: maxCPFLen}
	if err := f.normalize(); err != nil {
		return nil, err
	}
	acc, err := s.newAccount(req)
	if err != nil {
		return nil, err
	}
	var p *models.Participant
	err = s.store.InTx(ctx, false, func(tx storage.Store) error {
		if err := createAccount(ctx, tx, acc); err != nil {
			return err
		}
		p = &models.Participant{AccountID: acc.ID, Name: f.name, Phone: f.phone, Gender: f.gender, City: f.city, CPF: f.document}
		return tx.CreateParticipant(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	token, err := s.auth.Token(acc)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	s.logger.Info("participant signed up", zap.Int64("account_id", acc.ID), zap.Int64("participant_id", p.ID))
	return &Signup{Token: token, Account: acc.ToPublic(), Participant: p}, nil
}

// SignupOrganizer creates an account and its organizer profile in one transaction.
func (s *Service) SignupOrganizer(ctx context.Context, req SignupRequest) (*Signup, error) {
	f := profileFields{name: req.Name, phone: req.Phone, city: req.City, document: req.Document, gender: req.Gender, maxDocument: maxCNPJLen}
	if err := f.normalize(); err != nil {
		return nil, err
	}
	acc, err := s.newAccount(req)
	if err != nil {
		return nil, err
	}
	var o *models.Organizer
	err = s.store.InTx(ctx, false, func(tx storage.Store) error {
		if err := createAccount(ctx, tx, acc); err != nil {
			return err
		}
		o = &models.Organizer{AccountID: acc.ID, Name: f.name, Phone: f.phone, Gender: f.gender, City: f.city, CNPJ: f.document}
		return tx.CreateOrganizer(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	token, err := s.auth.Token(acc)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	s.logger.Info("organizer signed up", zap.Int64("account_id", acc.ID), zap.Int64("organizer_id", o.ID))
	return &Signup{Token: token, Account: acc.ToPublic(), Organizer: o}, nil
}

func (s *Service) account(ctx context.Context, v identity.Viewer) (*models.Account, error) {
	acc, err := s.store.GetAccount(ctx, v.AccountID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, identity.ErrUnauthenticated
	}
	return acc, err
}

// Participant returns the viewer's participant profile and enrollments.
func (s *Service) Participant(ctx context.Context, v identity.Viewer) (*ParticipantProfile, error) {
	if err := identity.Check(v, identity.RequireParticipant); err != nil {
		return nil, err
	}
	acc, err := s.account(ctx, v)
	if err != nil {
		return nil, err
	}
	list, err := s.store.ListEnrollmentsByParticipant(ctx, v.Participant.ID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	if list == nil {
		list = []models.EnrollmentDetail{}
	}
	return &ParticipantProfile{Account: acc.ToPublic(), Participant: v.Participant, Enrollments: list, Total: len(list)}, nil
}

// Organizer returns the viewer's organizer profile and events.
func (s *Service) Organizer(ctx context.Context, v identity.Viewer) (*OrganizerProfile, error) {
	if err := identity.Check(v, identity.RequireOrganizer); err != nil {
		return nil, err
	}
	acc, err := s.account(ctx, v)
	if err != nil {
		return nil, err
	}
	orgID := v.Organizer.ID
	list, err := s.store.ListEvents(ctx, storage.EventQuery{OrganizerID: &orgID, Order: storage.OrderByScheduledDesc})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	ids := make([]int64, len(list))
	for i, e := range list {
		ids[i] = e.ID
	}
	counts, err := s.store.CountEnrollmentsByEvent(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count enrollments: %w", err)
	}
	events := make([]OrganizerEvent, 0, len(list))
	for _, e := range list {
		events = append(events, OrganizerEvent{Event: e, RemainingCapacity: e.CapacityMax - counts[e.ID]})
	}
	return &OrganizerProfile{Account: acc.ToPublic(), Organizer: v.Organizer, Events: events, Total: len(events)}, nil
}

func (u Update) applyTo(f *profileFields) {
	if u.Name != nil {
		f.name = *u.Name
	}
	if u.Phone != nil {
		f.phone = *u.Phone
	}
	if u.Gender != nil {
		f.gender = *u.Gender
	}
	if u.City != nil {
		f.city = *u.City
	}
	if u.Document != nil {
		f.document = *u.Document
	}
}

// UpdateParticipant changes the viewer's participant profile.
func (s *Service) UpdateParticipant(ctx context.Context, v identity.Viewer, u Update) (*models.Participant, error) {
	if err := identity.Check(v, identity.RequireParticipant); err != nil {
		return nil, err
	}
	p := *v.Participant
	f := profileFields{name: p.Name, phone: p.Phone, city: p.City, document: p.CPF, gender: p.Gender, maxDocument: maxCPFLen}
	u.applyTo(&f)
	if err := f.normalize(); err != nil {
		return nil, err
	}
	p.Name, p.Phone, p.City, p.CPF, p.Gender = f.name, f.phone, f.city, f.document, f.gender
	if err := s.store.UpdateParticipant(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateOrganizer changes the viewer's organizer profile.
func (s *Service) UpdateOrganizer(ctx context.Context, v identity.Viewer, u Update) (*models.Organizer, error) {
	if err := identity.Check(v, identity.RequireOrganizer); err != nil {
		return nil, err
	}
	o := *v.Organizer
	f := profileFields{name: o.Name, phone: o.Phone, city: o.City, document: o.CNPJ, gender: o.Gender, maxDocument: maxCNPJLen}
	u.applyTo(&f)
	if err := f.normalize(); err != nil {
		return nil, err
	}
	o.Name, o.Phone, o.City, o.CNPJ, o.Gender = f.name, f.phone, f.city, f.document, f.gender
	if err := s.store.UpdateOrganizer(ctx, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// DeleteAccount removes the viewer's account after checking it holds the profile kind
// being deleted. Profiles, owned events and enrollments cascade.
func (s *Service) DeleteAccount(ctx context.Context, v identity.Viewer, guard identity.Guard) error {
	if err := identity.Check(v, guard); err != nil {
		return err
	}
	var banners []string
	if v.IsOrganizer() {
		orgID := v.Organizer.ID
		list, err := s.store.ListEvents(ctx, storage.EventQuery{OrganizerID: &orgID})
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}
		for _, e := range list {
			if e.BannerKey != "" {
				banners = append(banners, e.BannerKey)
			}
		}
	}
	err := s.store.DeleteAccount(ctx, v.AccountID)
	if errors.Is(err, storage.ErrNotFound) {
		return identity.ErrUnauthenticated
	}
	if err != nil {
		return err
	}
	if s.cleaner != nil {
		for _, key := range banners {
			if err := s.cleaner.EnqueueBannerCleanup(ctx, key); err != nil {
				s.logger.Warn("banner cleanup not scheduled", zap.String("key", key), zap.Error(err))
			}
		}
	}
	s.logger.Info("account deleted", zap.Int64("account_id", v.AccountID))
	return nil
}
