// Package captcha verifies Cloudflare Turnstile tokens server-side.
package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultEndpoint is Cloudflare's siteverify API.
const DefaultEndpoint = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// ErrNotConfigured is returned when no shared secret is configured. The gate
// never approves a submission it cannot verify.
var ErrNotConfigured = errors.New("captcha: secret key not configured")

// ErrVerificationFailed is returned when the token is rejected, or when the
// verification service cannot be reached. Transport problems are deliberately
// indistinguishable from a bad token: the gate fails closed either way.
var ErrVerificationFailed = errors.New("captcha: verification failed")

// Verifier checks whether a submission's token was approved by the external
// verification authority.
type Verifier interface {
	Verify(ctx context.Context, token string) error
}

// TurnstileVerifier calls the Cloudflare siteverify endpoint. Tokens are
// single-use on Cloudflare's side, so there is no caching or retrying here; a
// failed verification means the caller needs a fresh token.
type TurnstileVerifier struct {
	secret   string
	endpoint string
	client   *http.Client
}

// NewTurnstileVerifier constructs a verifier with the given shared secret and
// request timeout. An empty secret is allowed at construction time; Verify
// fails closed per call instead, so the rest of the service can keep running.
func NewTurnstileVerifier(secret string, timeout time.Duration) *TurnstileVerifier {
	return &TurnstileVerifier{
		secret:   secret,
		endpoint: DefaultEndpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify asks Cloudflare whether token is valid for this submission. It
// returns nil only on an explicit success:true answer.
func (v *TurnstileVerifier) Verify(ctx context.Context, token string) error {
	if v.secret == "" {
		return ErrNotConfigured
	}

	form := url.Values{
		"secret":   {v.secret},
		"response": {token},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		log.WithError(err).Error("turnstile: build siteverify request")
		return ErrVerificationFailed
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		log.WithError(err).Warn("turnstile: siteverify request failed")
		return ErrVerificationFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.WithField("status", resp.StatusCode).Warn("turnstile: unexpected siteverify status")
		return ErrVerificationFailed
	}

	var body siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.WithError(err).Warn("turnstile: decode siteverify response")
		return ErrVerificationFailed
	}
	if !body.Success {
		log.WithField("error_codes", body.ErrorCodes).Info("turnstile: token rejected")
		return ErrVerificationFailed
	}
	return nil
}
