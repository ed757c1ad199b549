// Package oidc verifies third-party ID tokens and runs the browser
// authorization-code flow.
package oidc

import (
	"context"
	"errors"
	"fmt"

	"healthmate/internal/domain"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// Supported providers and their issuers.
const (
	ProviderGoogle = "google"
	ProviderApple  = "apple"

	GoogleIssuer = "https://accounts.google.com"
	AppleIssuer  = "https://appleid.apple.com"
)

// ErrUnknownProvider is returned for a provider that is not configured.
var ErrUnknownProvider = errors.New("oauth provider is not configured")

var _ domain.IdentityVerifier = (*Verifier)(nil)

// Config lists the client ids accepted per provider. Empty ids disable
// the provider.
type Config struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	AppleClientID      string
}

// Verifier checks ID tokens against each configured provider's keys.
type Verifier struct {
	verifiers map[string]*oidc.IDTokenVerifier
	web       *WebFlow
}

// New discovers the configured providers. It needs network access to the
// issuers' discovery documents.
func New(ctx context.Context, cfg Config) (*Verifier, error) {
	v := &Verifier{verifiers: make(map[string]*oidc.IDTokenVerifier)}

	if cfg.GoogleClientID != "" {
		p, err := oidc.NewProvider(ctx, GoogleIssuer)
		if err != nil {
			return nil, fmt.Errorf("google oidc discovery: %w", err)
		}
		v.verifiers[ProviderGoogle] = p.Verifier(&oidc.Config{ClientID: cfg.GoogleClientID})

		if cfg.GoogleClientSecret != "" && cfg.GoogleRedirectURL != "" {
			v.web = &WebFlow{
				provider: ProviderGoogle,
				verifier: v.verifiers[ProviderGoogle],
				oauth2: oauth2.Config{
					ClientID:     cfg.GoogleClientID,
					ClientSecret: cfg.GoogleClientSecret,
					RedirectURL:  cfg.GoogleRedirectURL,
					Endpoint:     p.Endpoint(),
					Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
				},
			}
		}
	}

	if cfg.AppleClientID != "" {
		p, err := oidc.NewProvider(ctx, AppleIssuer)
		if err != nil {
			return nil, fmt.Errorf("apple oidc discovery: %w", err)
		}
		v.verifiers[ProviderApple] = p.Verifier(&oidc.Config{ClientID: cfg.AppleClientID})
	}
	return v, nil
}

// WebFlow returns the Google browser flow, or nil when it is not configured.
func (v *Verifier) WebFlow() *WebFlow {
	return v.web
}

// Verify checks rawIDToken for provider and extracts the identity.
func (v *Verifier) Verify(ctx context.Context, provider, rawIDToken string) (*domain.Identity, error) {
	verifier, ok := v.verifiers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	return verify(ctx, verifier, provider, rawIDToken)
}

func verify(ctx context.Context, verifier *oidc.IDTokenVerifier, provider, rawIDToken string) (*domain.Identity, error) {
	tok, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, err
	}
	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := tok.Claims(&claims); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}
	if claims.Email == "" {
		return nil, errors.New("id token has no email claim")
	}
	return &domain.Identity{
		Provider: provider,
		Subject:  tok.Subject,
		Email:    claims.Email,
		Name:     claims.Name,
	}, nil
}

// WebFlow is the authorization-code flow for browser sign-in.
type WebFlow struct {
	provider string
	oauth2   oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// AuthCodeURL returns the consent page URL carrying state.
func (f *WebFlow) AuthCodeURL(state string) string {
	return f.oauth2.AuthCodeURL(state)
}

// Exchange trades an authorization code for a verified identity.
func (f *WebFlow) Exchange(ctx context.Context, code string) (*domain.Identity, error) {
	token, err := f.oauth2.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, errors.New("no id_token in token response")
	}
	return verify(ctx, f.verifier, f.provider, rawIDToken)
}
