package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fathima-sithara/edu-auth-service/internal/events"
	"github.com/fathima-sithara/edu-auth-service/internal/mailer"
	"github.com/fathima-sithara/edu-auth-service/internal/models"
	"github.com/fathima-sithara/edu-auth-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memRepo mirrors the Mongo repository semantics in memory.
type memRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User

	findErr   error
	createErr error
	// beforeSave runs under no lock right before SaveOTP or MarkVerified applies.
	beforeSave func(u *models.User)
	saves      int
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[primitive.ObjectID]*models.User{}}
}

func clone(u *models.User) *models.User {
	c := *u
	if u.EmailVerificationOTP != nil {
		code := *u.EmailVerificationOTP
		c.EmailVerificationOTP = &code
	}
	if u.EmailVerificationExpires != nil {
		exp := *u.EmailVerificationExpires
		c.EmailVerificationExpires = &exp
	}
	return &c
}

func (r *memRepo) Create(_ context.Context, u *models.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	r.users[u.ID] = clone(u)
	return nil
}

func (r *memRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *memRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrUserNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[oid]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return clone(u), nil
}

func (r *memRepo) SaveOTP(_ context.Context, u *models.User) error {
	if !u.HasPendingOTP() {
		return repository.ErrPartialOTP
	}
	if u.IsVerified {
		return repository.ErrAlreadyVerified
	}
	if r.beforeSave != nil {
		r.beforeSave(u)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	stored, ok := r.users[u.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	if stored.IsVerified {
		return repository.ErrAlreadyVerified
	}
	c := clone(u)
	stored.EmailVerificationOTP = c.EmailVerificationOTP
	stored.EmailVerificationExpires = c.EmailVerificationExpires
	return nil
}

func (r *memRepo) MarkVerified(_ context.Context, u *models.User, code string) error {
	if r.beforeSave != nil {
		r.beforeSave(u)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	stored, ok := r.users[u.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	if stored.IsVerified {
		return repository.ErrAlreadyVerified
	}
	if stored.EmailVerificationOTP == nil || *stored.EmailVerificationOTP != code {
		return repository.ErrOTPSuperseded
	}
	stored.MarkVerified()
	u.MarkVerified()
	return nil
}

func (r *memRepo) stored(email string) *models.User {
	u, err := r.FindByEmail(context.Background(), email)
	if err != nil {
		return nil
	}
	return u
}

func (r *memRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

type recordingMailer struct {
	mu    sync.Mutex
	sent  []mailer.OTPMail
	err   error
	count int
}

func (m *recordingMailer) SendOTP(_ context.Context, mail mailer.OTPMail) (mailer.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, mail)
	if m.err != nil {
		return mailer.Receipt{}, m.err
	}
	m.count++
	return mailer.Receipt{MessageID: "m1", PreviewURL: "http://localhost:8081/api/dev/mail/m1"}, nil
}

func (m *recordingMailer) last() mailer.OTPMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.AccountEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.AccountEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

var errStoreDown = errors.New("server selection timeout")
