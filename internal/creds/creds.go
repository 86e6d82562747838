// Package creds supplies OAuth token sources for the object store.
//
// The token exchange mechanics themselves belong to golang.org/x/oauth2;
// this package only selects and wires a flow from configuration. Every
// failure surfaces as an auth-kind error so orchestrators can leave the
// attachment untouched.
package creds

import (
	"context"
	"os"

	"github.com/koustreak/driveoff/internal/config"
	"github.com/koustreak/driveoff/internal/errs"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DriveScope is the OAuth scope requested for Google Drive access.
const DriveScope = "https://www.googleapis.com/auth/drive"

// Provider yields a valid token source, refreshing as needed.
type Provider interface {
	// TokenSource returns an oauth2.TokenSource bound to ctx.
	TokenSource(ctx context.Context) (oauth2.TokenSource, error)
}

// FromConfig selects a Provider for the configured credential kind.
func FromConfig(c config.Credentials) (Provider, error) {
	switch c.Kind {
	case config.CredentialRefreshToken:
		return &RefreshToken{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			Token:        c.RefreshToken,
		}, nil
	case config.CredentialServiceAccount:
		return &ServiceAccount{KeyFile: c.ServiceAccountFile}, nil
	default:
		return nil, errs.New(errs.ErrKindAuth, "no drive credentials configured")
	}
}

// RefreshToken exchanges a stored OAuth refresh token for access tokens.
// This is the flow an administrator sets up interactively once; the
// refresh token is then the long-lived credential.
type RefreshToken struct {
	ClientID     string
	ClientSecret string
	Token        string
}

// TokenSource implements Provider.
func (r *RefreshToken) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if r.Token == "" {
		return nil, errs.New(errs.ErrKindAuth, "refresh token not set; authorize drive access first")
	}

	conf := &oauth2.Config{
		ClientID:     r.ClientID,
		ClientSecret: r.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{DriveScope},
	}

	ts := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: r.Token})

	// Force one refresh now so a revoked or expired credential fails
	// here, before any remote operation starts.
	if _, err := ts.Token(); err != nil {
		return nil, errs.Wrap(errs.ErrKindAuth, "refresh token exchange failed", err)
	}

	return ts, nil
}

// ServiceAccount authenticates with a service-account key file.
type ServiceAccount struct {
	KeyFile string
}

// TokenSource implements Provider.
func (s *ServiceAccount) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	raw, err := os.ReadFile(s.KeyFile)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindAuth, "cannot read service account key", err)
	}

	conf, err := google.JWTConfigFromJSON(raw, DriveScope)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindAuth, "invalid service account key", err)
	}

	return conf.TokenSource(ctx), nil
}

// Static returns a Provider wrapping a fixed token. Used in tests.
func Static(token string) Provider {
	return staticProvider{token: token}
}

type staticProvider struct {
	token string
}

func (s staticProvider) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: s.token}), nil
}
