package server

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"
)

// Verifier turns a bearer token into a stable user ID. Handlers only ever see
// this contract, so tests can stub authentication away.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// IDTokenVerifier validates Google-signed ID tokens against a fixed audience.
type IDTokenVerifier struct {
	audience string
}

// NewIDTokenVerifier builds a verifier for the given OAuth audience.
func NewIDTokenVerifier(audience string) *IDTokenVerifier {
	return &IDTokenVerifier{audience: audience}
}

// Verify checks the token signature, expiry and audience and returns the
// token subject as the user ID.
func (v *IDTokenVerifier) Verify(ctx context.Context, token string) (string, error) {
	payload, err := idtoken.Validate(ctx, token, v.audience)
	if err != nil {
		return "", fmt.Errorf("failed to validate ID token: %w", err)
	}
	if payload.Subject == "" {
		return "", fmt.Errorf("ID token has no subject")
	}
	return payload.Subject, nil
}
