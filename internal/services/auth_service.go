package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fathima-sithara/edu-auth-service/internal/auth"
	"github.com/fathima-sithara/edu-auth-service/internal/events"
	"github.com/fathima-sithara/edu-auth-service/internal/mailer"
	"github.com/fathima-sithara/edu-auth-service/internal/metrics"
	"github.com/fathima-sithara/edu-auth-service/internal/models"
	"github.com/fathima-sithara/edu-auth-service/internal/otp"
	"github.com/fathima-sithara/edu-auth-service/internal/repository"
	"go.uber.org/zap"
)

const DefaultTeacherPasswordPrefix = "PDPU"

// Deps are the collaborators of the auth service. Events, Metrics and Log
// may be nil.
type Deps struct {
	Users   repository.UserRepository
	OTPs    *otp.Issuer
	Hasher  PasswordHasher
	Tokens  TokenIssuer
	Mailer  Mailer
	Events  events.Publisher
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

type Options struct {
	// ExposeDebugSecrets returns the raw otp and mail preview link to the caller.
	ExposeDebugSecrets bool
	// TeacherPasswordPrefix is required at the start of every teacher password.
	TeacherPasswordPrefix string
	Now                   func() time.Time
}

// authService implements the AuthService interface
type authService struct {
	users   repository.UserRepository
	otps    *otp.Issuer
	hasher  PasswordHasher
	tokens  TokenIssuer
	mailer  Mailer
	events  events.Publisher
	metrics *metrics.Metrics
	log     *zap.Logger
	opts    Options
}

// NewAuthService creates a new authentication service
func NewAuthService(d Deps, opts Options) AuthService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TeacherPasswordPrefix == "" {
		opts.TeacherPasswordPrefix = DefaultTeacherPasswordPrefix
	}
	if d.OTPs == nil {
		d.OTPs = otp.NewIssuer(otp.DefaultTTL, opts.Now)
	}
	if d.Events == nil {
		d.Events = events.Noop{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &authService{
		users:   d.Users,
		otps:    d.OTPs,
		hasher:  d.Hasher,
		tokens:  d.Tokens,
		mailer:  d.Mailer,
		events:  d.Events,
		metrics: d.Metrics,
		log:     d.Log,
		opts:    opts,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func internalErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}

// Register creates an unverified account holding a fresh OTP and mails the code.
func (s *authService) Register(ctx context.Context, in RegisterInput) (res *RegisterResult, err error) {
	defer func() { s.observe("register", err, "success") }()

	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := checkInput(in, "Please provide name, email and password"); err != nil {
		return nil, err
	}
	role := models.RoleStudent
	if in.Role != "" {
		role = models.Role(in.Role)
	}
	if role == models.RoleTeacher && !strings.HasPrefix(in.Password, s.opts.TeacherPasswordPrefix) {
		return nil, &ValidationError{
			Field:   "Password",
			Message: fmt.Sprintf("Teacher password must start with %q", s.opts.TeacherPasswordPrefix),
		}
	}

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, ErrDuplicateAccount
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, internalErr("find user", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, internalErr("hash password", err)
	}
	code, expiresAt, err := s.otps.Generate()
	if err != nil {
		return nil, internalErr("generate otp", err)
	}

	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
	}
	user.SetVerificationOTP(code, expiresAt)

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrDuplicateAccount
		}
		return nil, internalErr("create user", err)
	}
	s.log.Info("account registered", zap.String("user_id", user.ID.Hex()), zap.String("role", string(role)))

	rcpt := s.sendOTP(ctx, user, code, false)
	s.publish(ctx, events.TypeAccountRegistered, user)

	return &RegisterResult{User: user.Public(), Debug: s.debugInfo(code, rcpt)}, nil
}

// VerifyEmail checks the supplied code and flips the account to verified.
// An already verified account short-circuits to success.
func (s *authService) VerifyEmail(ctx context.Context, in VerifyEmailInput) (res *VerifyEmailResult, err error) {
	defer func() {
		ok := "verified"
		if res != nil && res.AlreadyVerified {
			ok = "already_verified"
		}
		s.observe("verify_email", err, ok)
	}()

	in.Email = normalizeEmail(in.Email)
	if err := checkInput(in, "Email and OTP are required"); err != nil {
		return nil, err
	}

	user, err := s.findForVerification(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if user.IsVerified {
		return &VerifyEmailResult{AlreadyVerified: true}, nil
	}

	switch otp.Validate(user, in.OTP, s.opts.Now()) {
	case otp.NoOTPSet:
		return nil, ErrNoOTPSet
	case otp.Expired:
		return nil, ErrOTPExpired
	case otp.Mismatch:
		return nil, ErrInvalidOTP
	}

	// the write only lands while the validated code is still the stored one
	if err := s.users.MarkVerified(ctx, user, *user.EmailVerificationOTP); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyVerified):
			return &VerifyEmailResult{AlreadyVerified: true}, nil
		case errors.Is(err, repository.ErrOTPSuperseded):
			return nil, ErrInvalidOTP
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, ErrUserNotFound
		default:
			return nil, internalErr("save verification", err)
		}
	}
	s.log.Info("email verified", zap.String("user_id", user.ID.Hex()))
	s.publish(ctx, events.TypeAccountVerified, user)

	token, _, err := s.tokens.Issue(user.ID.Hex())
	if err != nil {
		return nil, internalErr("issue token", err)
	}
	pub := user.Public()
	return &VerifyEmailResult{Token: token, User: &pub}, nil
}

// ResendOTP replaces the pending code of an unverified account. Any earlier
// code stops working.
func (s *authService) ResendOTP(ctx context.Context, in ResendOTPInput) (res *ResendOTPResult, err error) {
	defer func() {
		ok := "resent"
		if res != nil && res.AlreadyVerified {
			ok = "already_verified"
		}
		s.observe("resend_otp", err, ok)
	}()

	in.Email = normalizeEmail(in.Email)
	if err := checkInput(in, "Email is required"); err != nil {
		return nil, err
	}

	user, err := s.findForVerification(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if user.IsVerified {
		return &ResendOTPResult{AlreadyVerified: true}, nil
	}

	code, expiresAt, err := s.otps.Generate()
	if err != nil {
		return nil, internalErr("generate otp", err)
	}
	user.SetVerificationOTP(code, expiresAt)

	if err := s.users.SaveOTP(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyVerified):
			return &ResendOTPResult{AlreadyVerified: true}, nil
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, ErrUserNotFound
		default:
			return nil, internalErr("save otp", err)
		}
	}

	rcpt := s.sendOTP(ctx, user, code, true)
	s.publish(ctx, events.TypeOTPResent, user)

	return &ResendOTPResult{Debug: s.debugInfo(code, rcpt)}, nil
}

// Login never tells an unknown email apart from a wrong password. Unverified
// accounts with the right password get ErrEmailNotVerified.
func (s *authService) Login(ctx context.Context, in LoginInput) (res *LoginResult, err error) {
	defer func() { s.observe("login", err, "success") }()

	in.Email = normalizeEmail(in.Email)
	if err := checkInput(in, "Please provide email and password"); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, internalErr("find user", err)
	}

	if err := s.hasher.Compare(in.Password, user.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrMismatchedPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, internalErr("compare password", err)
	}
	if !user.IsVerified {
		return nil, ErrEmailNotVerified
	}

	token, _, err := s.tokens.Issue(user.ID.Hex())
	if err != nil {
		return nil, internalErr("issue token", err)
	}
	return &LoginResult{Token: token, User: user.Public()}, nil
}

func (s *authService) GetAccount(ctx context.Context, id string) (*models.PublicUser, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, internalErr("find user", err)
	}
	pub := user.Public()
	return &pub, nil
}

func (s *authService) findForVerification(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, internalErr("find user", err)
	}
	return user, nil
}

// sendOTP makes a single delivery attempt. The state change is already
// committed, so a failed send only costs the preview link.
func (s *authService) sendOTP(ctx context.Context, user *models.User, code string, resend bool) mailer.Receipt {
	rcpt, err := s.mailer.SendOTP(ctx, mailer.OTPMail{
		To:     user.Email,
		Name:   user.Name,
		Code:   code,
		TTL:    s.otps.TTL(),
		Resend: resend,
	})
	if err != nil {
		return mailer.Receipt{}
	}
	return rcpt
}

func (s *authService) publish(ctx context.Context, typ string, user *models.User) {
	evt := events.NewAccountEvent(typ, user.ID.Hex(), user.Email, string(user.Role), s.opts.Now())
	if err := s.events.Publish(context.WithoutCancel(ctx), evt); err != nil {
		s.log.Warn("account event not published", zap.String("type", typ), zap.Error(err))
	}
}

func (s *authService) debugInfo(code string, rcpt mailer.Receipt) *DebugInfo {
	if !s.opts.ExposeDebugSecrets {
		return nil
	}
	return &DebugInfo{OTP: code, PreviewURL: rcpt.PreviewURL}
}

func (s *authService) observe(op string, err error, ok string) {
	result := ok
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidInput):
		result = "invalid_input"
	case errors.Is(err, ErrDuplicateAccount):
		result = "duplicate"
	case errors.Is(err, ErrUserNotFound):
		result = "not_found"
	case errors.Is(err, ErrInvalidCredentials):
		result = "invalid_credentials"
	case errors.Is(err, ErrEmailNotVerified):
		result = "not_verified"
	case errors.Is(err, ErrNoOTPSet):
		result = otp.NoOTPSet.String()
	case errors.Is(err, ErrOTPExpired):
		result = otp.Expired.String()
	case errors.Is(err, ErrInvalidOTP):
		result = otp.Mismatch.String()
	default:
		result = "error"
		s.log.Error("auth operation failed", zap.String("operation", op), zap.Error(err))
	}
	s.metrics.ObserveOperation(op, result)
}
