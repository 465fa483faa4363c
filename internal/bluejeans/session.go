package bluejeans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/teemow/ohq-bluejeans/internal/instrumentation"
	"github.com/teemow/ohq-bluejeans/internal/logging"
)

// tokenPath is the client-credentials endpoint. The bare "Client" query
// parameter selects the application grant.
const tokenPath = "/oauth2/token?Client"

// expirySkew is subtracted from every token lifetime.
const expirySkew = 60 * time.Second

// ExpiryMode controls how the expires_in of a token response is applied.
type ExpiryMode string

const (
	// ExpiryModeLegacy stores now - expires_in - 60s. The stored expiry is
	// always in the past, so every request fetches a new token.
	ExpiryModeLegacy ExpiryMode = "legacy"

	// ExpiryModeLifetime stores now + expires_in - 60s and reuses the token
	// until then.
	ExpiryModeLifetime ExpiryMode = "lifetime"
)

// ParseExpiryMode validates a mode name. The empty string selects legacy.
func ParseExpiryMode(s string) (ExpiryMode, error) {
	switch ExpiryMode(s) {
	case "", ExpiryModeLegacy:
		return ExpiryModeLegacy, nil
	case ExpiryModeLifetime:
		return ExpiryModeLifetime, nil
	default:
		return "", fmt.Errorf("unknown token expiry mode %q (expected %q or %q)", s, ExpiryModeLegacy, ExpiryModeLifetime)
	}
}

// sessionState is a consistent snapshot of the credentials used by one request.
type sessionState struct {
	token        string
	enterpriseID string
}

// EnsureSession returns a valid access token, fetching a new one when the
// stored expiry has passed.
func (c *Client) EnsureSession(ctx context.Context) (string, error) {
	sess, err := c.session(ctx)
	if err != nil {
		return "", err
	}
	return sess.token, nil
}

// EnterpriseID returns the enterprise of the current session, or "" before
// the first successful refresh.
func (c *Client) EnterpriseID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enterpriseID
}

func (c *Client) session(ctx context.Context) (sessionState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.accessToken == "" || now.After(c.expires) {
		if err := c.refresh(ctx, now); err != nil {
			return sessionState{}, err
		}
	}

	return sessionState{token: c.accessToken, enterpriseID: c.enterpriseID}, nil
}

// refresh must be called with c.mu held.
func (c *Client) refresh(ctx context.Context, now time.Time) (err error) {
	ctx, span := instrumentation.StartProviderSpan(ctx, ProviderName, OpToken)
	defer span.End()

	defer func() {
		result := instrumentation.RefreshResultSuccess
		if err != nil {
			result = instrumentation.RefreshResultFailure
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		if c.metrics != nil {
			c.metrics.RecordTokenRefresh(ctx, ProviderName, result)
		}
	}()

	cfg := clientcredentials.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		TokenURL:     c.baseURL + tokenPath,
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	tok, err := cfg.Token(context.WithValue(ctx, oauth2.HTTPClient, c.httpClient))
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return &APIError{
				Op:         OpToken,
				Method:     http.MethodPost,
				Path:       tokenPath,
				StatusCode: retrieveErr.Response.StatusCode,
				Body:       string(retrieveErr.Body),
			}
		}
		return fmt.Errorf("failed to fetch bluejeans token: %w", err)
	}

	enterpriseID, err := enterpriseFromScope(tok.Extra("scope"))
	if err != nil {
		return err
	}

	lifetime := tokenLifetime(tok, now)
	switch c.expiryMode {
	case ExpiryModeLifetime:
		c.expires = now.Add(lifetime - expirySkew)
	default:
		c.expires = now.Add(-lifetime - expirySkew)
		c.logger.DebugContext(ctx, "legacy token expiry: token will be refreshed on next request")
	}

	c.accessToken = tok.AccessToken
	c.enterpriseID = enterpriseID

	c.logger.DebugContext(ctx, "bluejeans token refreshed",
		slog.String("token", logging.SanitizeToken(tok.AccessToken)),
		slog.String("mode", string(c.expiryMode)),
		slog.Duration("lifetime", lifetime))
	return nil
}

// tokenLifetime reads expires_in from the raw token response, falling back
// to the expiry computed by the oauth2 package.
func tokenLifetime(tok *oauth2.Token, now time.Time) time.Duration {
	if secs, ok := int64Value(tok.Extra("expires_in")); ok {
		return time.Duration(secs) * time.Second
	}
	if !tok.Expiry.IsZero() {
		return tok.Expiry.Sub(now)
	}
	return 0
}

func enterpriseFromScope(scope any) (string, error) {
	m, ok := scope.(map[string]any)
	if !ok {
		return "", ErrMissingEnterprise
	}

	switch v := m["enterprise"].(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case float64:
		return strconv.FormatInt(int64(v), 10), nil
	case json.Number:
		return v.String(), nil
	}
	return "", ErrMissingEnterprise
}

func int64Value(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}
