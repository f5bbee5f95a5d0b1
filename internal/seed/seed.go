// Package seed fills a store with fake participants enrolled in existing events.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"

	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
	"github.com/RaphaBane/Gereventos-SENAC/internal/storage"
	"github.com/RaphaBane/Gereventos-SENAC/pkg/utils"
)

// DefaultPassword is the password of every generated account.
const DefaultPassword = "senha123"

// ErrNotEnoughEvents is returned when the store has fewer events than requested.
var ErrNotEnoughEvents = errors.New("not enough events")

var genders = []string{string(models.GenderMale), string(models.GenderFemale), string(models.GenderOther)}

// Options controls how much data is generated.
type Options struct {
	Events   int
	PerEvent int
	Password string
	// Seed makes the generated data reproducible when non-zero.
	Seed int64
}

// Result summarizes what was created.
type Result struct {
	Participants int
	Enrollments  int
	Events       int
}

// Run creates Events*PerEvent participants and enrolls PerEvent of them in each of the first
// Events events by id. Capacity is not checked. Nothing is written when there are too few events.
func Run(ctx context.Context, store storage.Store, opts Options, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Events <= 0 || opts.PerEvent <= 0 {
		return Result{}, fmt.Errorf("events and per-event must be positive")
	}
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}

	all, err := store.ListEvents(ctx, storage.EventQuery{Order: storage.OrderByID})
	if err != nil {
		return Result{}, err
	}
	if len(all) < opts.Events {
		return Result{}, fmt.Errorf("%w: want %d, have %d", ErrNotEnoughEvents, opts.Events, len(all))
	}
	targets := all[:opts.Events]

	hash, err := utils.HashPassword(opts.Password)
	if err != nil {
		return Result{}, err
	}
	faker := gofakeit.New(opts.Seed)

	var res Result
	err = store.InTx(ctx, false, func(tx storage.Store) error {
		res = Result{}
		for i, e := range targets {
			for j := 0; j < opts.PerEvent; j++ {
				n := i*opts.PerEvent + j + 1
				p, err := createParticipant(ctx, tx, faker, hash, n)
				if err != nil {
					return err
				}
				res.Participants++
				if err := tx.CreateEnrollment(ctx, &models.Enrollment{EventID: e.ID, ParticipantID: p.ID}); err != nil {
					return fmt.Errorf("enroll participant %d in event %d: %w", p.ID, e.ID, err)
				}
				res.Enrollments++
			}
			res.Events++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	logger.Info("seed complete",
		zap.Int("participants", res.Participants),
		zap.Int("enrollments", res.Enrollments),
		zap.Int("events", res.Events),
	)
	return res, nil
}

func createParticipant(ctx context.Context, tx storage.Store, faker *gofakeit.Faker, hash string, n int) (*models.Participant, error) {
	first, last := faker.FirstName(), faker.LastName()
	username := fmt.Sprintf("%s%d", strings.ToLower(faker.Username()), n)
	acc := &models.Account{
		Username:     username,
		Email:        fmt.Sprintf("%s@%s", username, faker.DomainName()),
		FirstName:    first,
		LastName:     last,
		PasswordHash: hash,
	}
	if err := tx.CreateAccount(ctx, acc); err != nil {
		return nil, fmt.Errorf("create account %s: %w", username, err)
	}
	p := &models.Participant{
		AccountID: acc.ID,
		Name:      first + " " + last,
		Phone:     faker.Phone(),
		Gender:    models.Gender(faker.RandomString(genders)),
		City:      faker.City(),
		CPF:       CPF(faker),
	}
	if err := tx.CreateParticipant(ctx, p); err != nil {
		return nil, fmt.Errorf("create participant %s: %w", username, err)
	}
	return p, nil
}

// CPF returns a formatted CPF with valid check digits.
func CPF(faker *gofakeit.Faker) string {
	d := make([]int, 11)
	for i := 0; i < 9; i++ {
		d[i] = faker.Number(0, 9)
	}
	d[9] = cpfDigit(d[:9])
	d[10] = cpfDigit(d[:10])
	return fmt.Sprintf("%d%d%d.%d%d%d.%d%d%d-%d%d", d[0], d[1], d[2], d[3], d[4], d[5], d[6], d[7], d[8], d[9], d[10])
}

func cpfDigit(d []int) int {
	sum := 0
	for i, v := range d {
		sum += v * (len(d) + 1 - i)
	}
	r := sum * 10 % 11
	if r == 10 {
		return 0
	}
	return r
}
