package app_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"healthmate/internal/app"
	"healthmate/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

func newIssuer(t *testing.T) *app.TokenIssuer {
	t.Helper()
	iss, err := app.NewTokenIssuer(app.TokenConfig{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	return iss
}

func newAuth(t *testing.T, users *mockUserRepo, subs *mockSubRepo, store *mapStore, mailer *mockMailer, verifier domain.IdentityVerifier) *app.AuthService {
	t.Helper()
	return app.NewAuthService(users, subs, store, mailer, verifier, newIssuer(t), app.AuthConfig{}, nil)
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	iss := newIssuer(t)
	u := &domain.User{ID: 7, Role: domain.RoleAdmin}

	access, err := iss.Access(u)
	if err != nil {
		t.Fatalf("Access: %v", err)
	}
	claims, err := iss.ParseAccess(access)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}
	if claims.UserID != 7 || claims.Role != domain.RoleAdmin {
		t.Errorf("unexpected claims %+v", claims)
	}

	if _, err := iss.ParseRefresh(access); !errors.Is(err, app.ErrInvalidToken) {
		t.Errorf("access token accepted as refresh token: %v", err)
	}
}

func TestNewTokenIssuer_RequiresSecrets(t *testing.T) {
	if _, err := app.NewTokenIssuer(app.TokenConfig{AccessSecret: []byte("x")}); err == nil {
		t.Fatal("expected error without refresh secret")
	}
}

func TestAuthService_Signup_Success(t *testing.T) {
	var created *domain.User
	var createdSub *domain.Subscription
	users := &mockUserRepo{
		createFn: func(_ context.Context, u *domain.User, sub *domain.Subscription) error {
			u.ID = 5
			sub.UserID = 5
			created, createdSub = u, sub
			return nil
		},
	}
	mailer := &mockMailer{}
	store := newMapStore()
	svc := newAuth(t, users, &mockSubRepo{}, store, mailer, nil)

	sess, err := svc.Signup(context.Background(), app.SignupInput{
		Email:    "Ann@Example.com",
		Password: "longenough",
		Name:     "Ann",
	})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if sess.AccessToken == "" || sess.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if created.Email != "ann@example.com" {
		t.Errorf("email = %q; want lowercased", created.Email)
	}
	if created.Thresholds != domain.DefaultThresholds() {
		t.Errorf("thresholds = %+v; want defaults", created.Thresholds)
	}
	if created.Plan != domain.PlanFree || createdSub.Type != domain.PlanFree {
		t.Errorf("expected Free plan and subscription, got %q/%q", created.Plan, createdSub.Type)
	}
	if !createdSub.EndDate.After(createdSub.StartDate) {
		t.Error("subscription window must be positive")
	}
	if len(mailer.sent) != 1 || mailer.sent[0].To[0] != "ann@example.com" {
		t.Fatalf("expected one OTP mail, got %+v", mailer.sent)
	}
	code, ok, _ := store.Get(context.Background(), "otp:ann@example.com")
	if !ok || len(code) != 4 || !strings.Contains(mailer.sent[0].HTML, code) {
		t.Errorf("otp %q not stored or not mailed", code)
	}
}

func TestAuthService_Signup_Validation(t *testing.T) {
	svc := newAuth(t, &mockUserRepo{}, &mockSubRepo{}, newMapStore(), &mockMailer{}, nil)
	tests := []struct {
		name string
		in   app.SignupInput
	}{
		{"bad email", app.SignupInput{Email: "nope", Password: "longenough", Name: "A"}},
		{"short password", app.SignupInput{Email: "a@b.co", Password: "short", Name: "A"}},
		{"no name", app.SignupInput{Email: "a@b.co", Password: "longenough"}},
		{"bad gender", app.SignupInput{Email: "a@b.co", Password: "longenough", Name: "A", Profile: domain.Profile{Gender: "x"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), tc.in)
			if !errors.Is(err, app.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestAuthService_Signup_EmailTaken(t *testing.T) {
	users := &mockUserRepo{
		getByEmailFn: func(_ context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: 1, Email: email}, nil
		},
	}
	svc := newAuth(t, users, &mockSubRepo{}, newMapStore(), &mockMailer{}, nil)
	_, err := svc.Signup(context.Background(), app.SignupInput{Email: "a@b.co", Password: "longenough", Name: "A"})
	if !errors.Is(err, app.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthService_Signup_DuplicateOnCreate(t *testing.T) {
	// Another signup registered the email between the lookup and the insert.
	users := &mockUserRepo{
		createFn: func(_ context.Context, _ *domain.User, _ *domain.Subscription) error {
			return domain.ErrDuplicateEmail
		},
	}
	svc := newAuth(t, users, &mockSubRepo{}, newMapStore(), &mockMailer{}, nil)
	_, err := svc.Signup(context.Background(), app.SignupInput{Email: "a@b.co", Password: "longenough", Name: "A"})
	if !errors.Is(err, app.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthService_Login_RepairsSubscription(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	users := &mockUserRepo{
		getByEmailFn: func(_ context.Context, _ string) (*domain.User, error) {
			return &domain.User{ID: 3, Email: "a@b.co", PasswordHash: string(hash), Plan: domain.PlanFree}, nil
		},
	}
	var repaired *domain.Subscription
	subs := &mockSubRepo{
		createFn: func(_ context.Context, s *domain.Subscription) error {
			repaired = s
			return nil
		},
	}
	svc := newAuth(t, users, subs, newMapStore(), &mockMailer{}, nil)

	sess, err := svc.Login(context.Background(), "a@b.co", "correctpass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.User.ID != 3 {
		t.Errorf("user id = %d; want 3", sess.User.ID)
	}
	if repaired == nil || repaired.UserID != 3 || repaired.Type != domain.PlanFree {
		t.Fatalf("expected Free subscription for user 3, got %+v", repaired)
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	users := &mockUserRepo{
		getByEmailFn: func(_ context.Context, _ string) (*domain.User, error) {
			return &domain.User{ID: 1, PasswordHash: string(hash)}, nil
		},
	}
	svc := newAuth(t, users, &mockSubRepo{}, newMapStore(), &mockMailer{}, nil)

	_, err := svc.Login(context.Background(), "a@b.co", "wrongpass")
	if err != app.ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	_, err = newAuth(t, &mockUserRepo{}, &mockSubRepo{}, newMapStore(), &mockMailer{}, nil).
		Login(context.Background(), "missing@b.co", "whatever1")
	if err != app.ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestAuthService_Refresh(t *testing.T) {
	ctx := context.Background()
	u := &domain.User{ID: 9, Email: "a@b.co", Role: domain.RoleUser}
	users := &mockUserRepo{
		getByEmailFn: func(_ context.Context, _ string) (*domain.User, error) { return nil, nil },
		getByIDFn: func(_ context.Context, id int64) (*domain.User, error) {
			if id == 9 {
				return u, nil
			}
			return nil, nil
		},
		createFn: func(_ context.Context, nu *domain.User, _ *domain.Subscription) error {
			nu.ID = 9
			return nil
		},
	}
	verifier := &mockVerifier{
		verifyFn: func(_ context.Context, _, _ string) (*domain.Identity, error) {
			return &domain.Identity{Provider: "google", Email: "a@b.co"}, nil
		},
	}
	store := newMapStore()
	svc := newAuth(t, users, &mockSubRepo{}, store, &mockMailer{}, verifier)

	sess, err := svc.OAuthLogin(ctx, "google", "id-token", "")
	if err != nil {
		t.Fatalf("OAuthLogin: %v", err)
	}

	access, err := svc.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if access == "" {
		t.Fatal("expected access token")
	}
	if got, err := svc.Authenticate(ctx, access); err != nil || got.ID != 9 {
		t.Fatalf("Authenticate = %v, %v", got, err)
	}

	if _, err := svc.Refresh(ctx, "never-issued"); !errors.Is(err, app.ErrRefreshTokenRevoked) {
		t.Errorf("expected ErrRefreshTokenRevoked, got %v", err)
	}

	if err := svc.Logout(ctx, sess.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.Refresh(ctx, sess.RefreshToken); !errors.Is(err, app.ErrRefreshTokenRevoked) {
		t.Errorf("expected ErrRefreshTokenRevoked after logout, got %v", err)
	}
}

func TestAuthService_Refresh_InvalidSignature(t *testing.T) {
	store := newMapStore()
	_ = store.Put(context.Background(), "refresh:forged", "1", time.Hour)
	svc := newAuth(t, &mockUserRepo{}, &mockSubRepo{}, store, &mockMailer{}, nil)
	if _, err := svc.Refresh(context.Background(), "forged"); !errors.Is(err, app.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthService_OAuthLogin_Rejected(t *testing.T) {
	svc := newAuth(t, &mockUserRepo{}, &mockSubRepo{}, newMapStore(), &mockMailer{}, &mockVerifier{})
	if _, err := svc.OAuthLogin(context.Background(), "apple", "bad", ""); !errors.Is(err, app.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := svc.OAuthLogin(context.Background(), "apple", "", ""); !errors.Is(err, app.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAuthService_PasswordReset(t *testing.T) {
	ctx := context.Background()
	var newHash string
	users := &mockUserRepo{
		getByEmailFn: func(_ context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: 2, Email: email}, nil
		},
		updatePasswordFn: func(_ context.Context, id int64, hash string) error {
			newHash = hash
			return nil
		},
	}
	store := newMapStore()
	svc := newAuth(t, users, &mockSubRepo{}, store, &mockMailer{}, nil)

	if err := svc.ResetPassword(ctx, "a@b.co", "newpassword"); !errors.Is(err, app.ErrInvalidOTP) {
		t.Fatalf("reset without verification: expected ErrInvalidOTP, got %v", err)
	}

	if err := svc.SendOTP(ctx, "a@b.co"); err != nil {
		t.Fatalf("SendOTP: %v", err)
	}
	code, _, _ := store.Get(ctx, "otp:a@b.co")

	if err := svc.VerifyOTP(ctx, "a@b.co", "0000"); !errors.Is(err, app.ErrInvalidOTP) {
		t.Fatalf("wrong code: expected ErrInvalidOTP, got %v", err)
	}
	if err := svc.VerifyOTP(ctx, "a@b.co", code); err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	if err := svc.VerifyOTP(ctx, "a@b.co", code); !errors.Is(err, app.ErrInvalidOTP) {
		t.Fatalf("code reuse: expected ErrInvalidOTP, got %v", err)
	}

	if err := svc.ResetPassword(ctx, "a@b.co", "newpassword"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(newHash), []byte("newpassword")) != nil {
		t.Error("stored hash does not match new password")
	}
	if err := svc.ResetPassword(ctx, "a@b.co", "another-one"); !errors.Is(err, app.ErrInvalidOTP) {
		t.Errorf("second reset: expected ErrInvalidOTP, got %v", err)
	}
}

func TestAuthService_SendOTP_MailFailure(t *testing.T) {
	mailer := &mockMailer{sendFn: func(context.Context, domain.MailMessage) error { return errors.New("smtp down") }}
	svc := newAuth(t, &mockUserRepo{}, &mockSubRepo{}, newMapStore(), mailer, nil)
	if err := svc.SendOTP(context.Background(), "a@b.co"); err == nil {
		t.Fatal("expected error when mail fails")
	}
}

func TestAuthService_VerifyOTP_AttemptLimit(t *testing.T) {
	ctx := context.Background()
	users := &mockUserRepo{
		getByEmailFn: func(_ context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: 2, Email: email}, nil
		},
	}
	store := newMapStore()
	svc := newAuth(t, users, &mockSubRepo{}, store, &mockMailer{}, nil)

	if err := svc.SendOTP(ctx, "victim@b.co"); err != nil {
		t.Fatalf("SendOTP: %v", err)
	}
	code, _, _ := store.Get(ctx, "otp:victim@b.co")
	wrong := "1000"
	if code == wrong {
		wrong = "1001"
	}

	for i := 0; i < 5; i++ {
		if err := svc.VerifyOTP(ctx, "victim@b.co", wrong); !errors.Is(err, app.ErrInvalidOTP) {
			t.Fatalf("guess %d: expected ErrInvalidOTP, got %v", i+1, err)
		}
	}
	if _, ok, _ := store.Get(ctx, "otp:victim@b.co"); ok {
		t.Error("code should be discarded after the last allowed failure")
	}
	if err := svc.VerifyOTP(ctx, "victim@b.co", code); !errors.Is(err, app.ErrInvalidOTP) {
		t.Fatalf("correct code after lockout: expected ErrInvalidOTP, got %v", err)
	}

	// A fresh code does not reset the attempt budget.
	if err := svc.SendOTP(ctx, "victim@b.co"); err != nil {
		t.Fatalf("SendOTP: %v", err)
	}
	code, _, _ = store.Get(ctx, "otp:victim@b.co")
	if err := svc.VerifyOTP(ctx, "victim@b.co", code); !errors.Is(err, app.ErrInvalidOTP) {
		t.Fatalf("resent code during lockout: expected ErrInvalidOTP, got %v", err)
	}
	if err := svc.ResetPassword(ctx, "victim@b.co", "attacker-pass"); !errors.Is(err, app.ErrInvalidOTP) {
		t.Fatalf("reset after lockout: expected ErrInvalidOTP, got %v", err)
	}
}

func TestAuthService_VerifyOTP_BruteForce(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	svc := newAuth(t, &mockUserRepo{}, &mockSubRepo{}, store, &mockMailer{}, nil)

	if err := svc.SendOTP(ctx, "victim@b.co"); err != nil {
		t.Fatalf("SendOTP: %v", err)
	}
	for c := 1000; c <= 9999; c++ {
		if err := svc.VerifyOTP(ctx, "victim@b.co", strconv.Itoa(c)); err == nil {
			t.Fatalf("code guessed after %d attempts", c-999)
		}
	}
	if _, ok, _ := store.Get(ctx, "reset:victim@b.co"); ok {
		t.Fatal("reset window opened by guessing")
	}
}
