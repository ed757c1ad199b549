package adapthttp

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"healthmate/internal/app"
	"healthmate/internal/domain"

	"github.com/go-chi/chi/v5"
)

func (s *Server) authRoutes(r chi.Router) {
	r.Post("/check-email", s.handleCheckEmail)
	r.Post("/signup", s.handleSignup)
	r.Post("/login", s.handleLogin)
	r.Get("/oauth/google/start", s.handleGoogleStart)
	r.Get("/oauth/google/callback", s.handleGoogleCallback)
	r.Post("/oauth/{provider}", s.handleOAuthLogin)
	r.Post("/otp/send", s.handleSendOTP)
	r.Post("/verify-otp", s.handleVerifyOTP)
	r.Post("/password/reset", s.handleSendOTP)
	r.Post("/password/reset/verify", s.handleResetPassword)
	r.Post("/refresh-token", s.handleRefresh)
	r.Post("/logout", s.handleLogout)
}

func (s *Server) handleCheckEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	exists, err := s.svc.Auth.CheckEmail(r.Context(), req.Email)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exists": exists})
}

type signupRequest struct {
	Email        string   `json:"email"`
	Password     string   `json:"password"`
	Name         string   `json:"name"`
	ProfileImage string   `json:"profileImage"`
	Language     string   `json:"language"`
	Birthday     string   `json:"birthday"`
	Height       *float64 `json:"height"`
	HeightUnit   string   `json:"heightUnit"`
	Weight       *float64 `json:"weight"`
	WeightUnit   string   `json:"weightUnit"`
	Gender       string   `json:"gender"`
	PhoneNumber  string   `json:"phoneNumber"`
}

func (req signupRequest) input() (app.SignupInput, error) {
	in := app.SignupInput{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		WeightUnit: req.WeightUnit,
		HeightUnit: req.HeightUnit,
		Profile: domain.Profile{
			ProfileImage: req.ProfileImage,
			Language:     req.Language,
			Height:       req.Height,
			Gender:       req.Gender,
			Weight:       req.Weight,
			PhoneNumber:  req.PhoneNumber,
		},
	}
	if req.Birthday != "" {
		day, err := domain.ParseDay(req.Birthday)
		if err != nil {
			return in, errors.New("birthday must be YYYY-MM-DD")
		}
		b, _ := time.Parse(domain.DayLayout, day)
		in.Profile.Birthday = &b
	}
	return in, nil
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sess, err := s.svc.Auth.Signup(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sess, err := s.svc.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleOAuthLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken string `json:"idToken"`
		Name    string `json:"name"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sess, err := s.svc.Auth.OAuthLogin(r.Context(), chi.URLParam(r, "provider"), req.IDToken, req.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleGoogleStart(w http.ResponseWriter, r *http.Request) {
	if s.googleWeb == nil {
		writeError(w, http.StatusNotFound, errors.New("google sign-in is not configured"))
		return
	}
	state := generateState()
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode, // Lax required for cross-site redirect returns
		MaxAge:   300,
	})
	http.Redirect(w, r, s.googleWeb.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.googleWeb == nil {
		writeError(w, http.StatusNotFound, errors.New("google sign-in is not configured"))
		return
	}

	state, err := r.Cookie("oauth_state")
	if err != nil || r.URL.Query().Get("state") != state.Value {
		writeError(w, http.StatusBadRequest, errors.New("invalid state"))
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", MaxAge: -1, Path: "/"})

	id, err := s.googleWeb.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		s.fail(w, r, errors.Join(app.ErrInvalidToken, err))
		return
	}
	sess, err := s.svc.Auth.LoginIdentity(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.svc.Auth.SendOTP(r.Context(), req.Email); err != nil {
		s.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "OTP sent to your email.")
}

func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.svc.Auth.VerifyOTP(r.Context(), req.Email, req.OTP); err != nil {
		s.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "OTP verified successfully.")
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		NewPassword string `json:"newPassword"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.svc.Auth.ResetPassword(r.Context(), req.Email, req.NewPassword); err != nil {
		s.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password reset successfully.")
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusUnauthorized, errors.New("refresh token is required"))
		return
	}
	access, err := s.svc.Auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accessToken": access})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.svc.Auth.Logout(r.Context(), req.RefreshToken); err != nil {
		s.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Logged out successfully.")
}

func generateState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
