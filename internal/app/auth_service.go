package app

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"healthmate/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen = 8

	otpPrefix      = "otp:"
	otpTriesPrefix = "otp-tries:"
	// maxOTPAttempts bounds verification attempts per email within one
	// OTP lifetime. Requesting a new code does not reset the count.
	maxOTPAttempts = 5

	resetPrefix   = "reset:"
	refreshPrefix = "refresh:"
)

// AuthConfig holds the lifetimes of one-time secrets.
type AuthConfig struct {
	OTPTTL   time.Duration
	ResetTTL time.Duration
	AppName  string
}

// Session is what a successful signup or login hands back to the client.
type Session struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// SignupInput carries the fields accepted at registration.
type SignupInput struct {
	Email      string
	Password   string
	Name       string
	Profile    domain.Profile
	WeightUnit string
	HeightUnit string
}

// AuthService handles accounts, credentials, one-time passwords and tokens.
type AuthService struct {
	users    domain.UserRepository
	subs     domain.SubscriptionRepository
	store    domain.KeyValueStore
	mailer   domain.Mailer
	verifier domain.IdentityVerifier
	tokens   *TokenIssuer
	cfg      AuthConfig
	log      *zap.Logger
	now      func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	users domain.UserRepository,
	subs domain.SubscriptionRepository,
	store domain.KeyValueStore,
	mailer domain.Mailer,
	verifier domain.IdentityVerifier,
	tokens *TokenIssuer,
	cfg AuthConfig,
	log *zap.Logger,
) *AuthService {
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = 10 * time.Minute
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = 15 * time.Minute
	}
	if cfg.AppName == "" {
		cfg.AppName = "HealthMate"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		users:    users,
		subs:     subs,
		store:    store,
		mailer:   mailer,
		verifier: verifier,
		tokens:   tokens,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// CheckEmail reports whether an account exists for email.
func (s *AuthService) CheckEmail(ctx context.Context, email string) (bool, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return false, err
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return u != nil, nil
}

// Signup registers a password account, issues tokens and mails an OTP.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	email := normalizeEmail(in.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLen {
		return nil, invalid("password must be at least %d characters", minPasswordLen)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	profile := in.Profile
	switch profile.Gender {
	case "", "male", "female", "other":
	default:
		return nil, invalid("gender must be male, female or other")
	}
	if err := profile.NormalizeMeasurements(in.WeightUnit, in.HeightUnit); err != nil {
		return nil, invalid("%v", err)
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         domain.RoleUser,
		Profile:      profile,
	}
	if err := s.CreateAccount(ctx, u); err != nil {
		return nil, err
	}

	sess, err := s.issue(ctx, u)
	if err != nil {
		return nil, err
	}
	if err := s.SendOTP(ctx, email); err != nil {
		// The account exists at this point; the client can request another code.
		s.log.Warn("signup otp not delivered", zap.Int64("user_id", u.ID), zap.Error(err))
	}
	return sess, nil
}

// CreateAccount stores a new user on the Free plan with default thresholds
// together with its Free subscription.
func (s *AuthService) CreateAccount(ctx context.Context, u *domain.User) error {
	now := s.now()
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	u.Plan = domain.PlanFree
	u.Thresholds = domain.DefaultThresholds()
	u.CreatedAt = now
	sub := domain.NewSubscription(0, domain.PlanFree, now)
	if err := s.users.Create(ctx, u, sub); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create account: %w", err)
	}
	s.log.Info("account created", zap.Int64("user_id", u.ID), zap.String("role", string(u.Role)))
	return nil
}

// Login authenticates a password account. A user without a subscription
// gets the Free one created on the way in.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if u == nil || u.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err = bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.ensureSubscription(ctx, u); err != nil {
		return nil, err
	}
	return s.issue(ctx, u)
}

// OAuthLogin verifies a provider ID token and logs its owner in, creating
// the account on first use.
func (s *AuthService) OAuthLogin(ctx context.Context, provider, idToken, name string) (*Session, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, invalid("idToken is required")
	}
	if s.verifier == nil {
		return nil, invalid("oauth provider %q is not configured", provider)
	}
	id, err := s.verifier.Verify(ctx, provider, idToken)
	if err != nil {
		s.log.Info("id token rejected", zap.String("provider", provider), zap.Error(err))
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(name) != "" {
		id.Name = strings.TrimSpace(name)
	}
	return s.LoginIdentity(ctx, id)
}

// LoginIdentity logs in the owner of an already verified identity.
func (s *AuthService) LoginIdentity(ctx context.Context, id *domain.Identity) (*Session, error) {
	email := normalizeEmail(id.Email)
	if email == "" {
		return nil, invalid("identity has no email")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		name := id.Name
		if name == "" {
			name = strings.SplitN(email, "@", 2)[0]
		}
		u = &domain.User{Email: email, Name: name, Role: domain.RoleUser}
		if err := s.CreateAccount(ctx, u); err != nil {
			// Lost a race with a concurrent first login.
			existing, lookupErr := s.users.GetByEmail(ctx, email)
			if lookupErr != nil || existing == nil {
				return nil, err
			}
			u = existing
		}
	} else if err := s.ensureSubscription(ctx, u); err != nil {
		return nil, err
	}
	return s.issue(ctx, u)
}

// SendOTP generates a 4-digit code for email, stores it and mails it.
func (s *AuthService) SendOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}
	code, err := generateOTP()
	if err != nil {
		return err
	}
	if err := s.store.Put(ctx, otpPrefix+email, code, s.cfg.OTPTTL); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	msg := domain.MailMessage{
		To:      []string{email},
		Subject: "Your One-Time Password (OTP) for Verification",
		HTML:    otpHTML(code, s.cfg.AppName),
		Text:    fmt.Sprintf("Your one-time password is %s. It expires in %s.", code, s.cfg.OTPTTL),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send otp: %w", err)
	}
	s.log.Info("otp sent", zap.String("email", email))
	return nil
}

// VerifyOTP consumes the pending code for email. A successful check also
// opens the password reset window for that email. After maxOTPAttempts
// failures the pending code is discarded and every further attempt fails
// until the counter expires.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	tries, err := s.store.Incr(ctx, otpTriesPrefix+email, s.cfg.OTPTTL)
	if err != nil {
		return fmt.Errorf("count otp attempts: %w", err)
	}
	if tries > maxOTPAttempts {
		s.log.Warn("otp attempts exhausted", zap.String("email", email), zap.Int64("attempts", tries))
		if err := s.store.Delete(ctx, otpPrefix+email); err != nil {
			return err
		}
		return ErrInvalidOTP
	}

	want, ok, err := s.store.Get(ctx, otpPrefix+email)
	if err != nil {
		return err
	}
	if !ok || subtle.ConstantTimeCompare([]byte(want), []byte(strings.TrimSpace(code))) != 1 {
		if ok && tries == maxOTPAttempts {
			if err := s.store.Delete(ctx, otpPrefix+email); err != nil {
				return err
			}
		}
		return ErrInvalidOTP
	}
	if err := s.store.Delete(ctx, otpPrefix+email); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, otpTriesPrefix+email); err != nil {
		return err
	}
	return s.store.Put(ctx, resetPrefix+email, "1", s.cfg.ResetTTL)
}

// ResetPassword sets a new password for email. It requires a successful
// VerifyOTP for the same email within the reset window.
func (s *AuthService) ResetPassword(ctx context.Context, email, newPassword string) error {
	email = normalizeEmail(email)
	if len(newPassword) < minPasswordLen {
		return invalid("password must be at least %d characters", minPasswordLen)
	}
	_, ok, err := s.store.Get(ctx, resetPrefix+email)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidOTP
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUserNotFound
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, u.ID, string(hash)); err != nil {
		return err
	}
	return s.store.Delete(ctx, resetPrefix+email)
}

// Refresh exchanges a live refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	_, ok, err := s.store.Get(ctx, refreshPrefix+refreshToken)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrRefreshTokenRevoked
	}
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return "", err
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", ErrUserNotFound
	}
	return s.tokens.Access(u)
}

// Logout forgets a refresh token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.store.Delete(ctx, refreshPrefix+refreshToken)
}

// Authenticate resolves the user behind an access token.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	claims, err := s.tokens.ParseAccess(accessToken)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidToken
	}
	return u, nil
}

func (s *AuthService) issue(ctx context.Context, u *domain.User) (*Session, error) {
	access, err := s.tokens.Access(u)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.Refresh(u)
	if err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, refreshPrefix+refresh, strconv.FormatInt(u.ID, 10), s.tokens.RefreshTTL()); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &Session{User: u, AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) ensureSubscription(ctx context.Context, u *domain.User) error {
	sub, err := s.subs.GetByUser(ctx, u.ID)
	if err != nil {
		return err
	}
	if sub != nil {
		return nil
	}
	if err := s.subs.Create(ctx, domain.NewSubscription(u.ID, domain.PlanFree, s.now())); err != nil {
		return fmt.Errorf("repair subscription: %w", err)
	}
	if u.Plan == "" {
		if err := s.users.UpdatePlan(ctx, u.ID, domain.PlanFree); err != nil {
			return err
		}
		u.Plan = domain.PlanFree
	}
	s.log.Info("free subscription repaired", zap.Int64("user_id", u.ID))
	return nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+1000, 10), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return invalid("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("email %q is not valid", email)
	}
	return nil
}

func otpHTML(code, app string) string {
	return `<div style="font-family: Arial, sans-serif; color: #333;">
<h2 style="color: #4CAF50;">Your OTP for Verification</h2>
<p>Hello,</p>
<p>Your One-Time Password (OTP) for verification is:</p>
<h3 style="background: #f4f4f4; padding: 10px; display: inline-block; border-radius: 5px;">` + code + `</h3>
<p>This OTP is valid for a limited time. Please do not share it with anyone.</p>
<p>If you did not request this OTP, please ignore this email.</p>
<hr style="border: 1px solid #ddd;">
<p style="font-size: 12px; color: #777;">This email was sent by <strong>` + app + `</strong>.</p>
</div>`
}
