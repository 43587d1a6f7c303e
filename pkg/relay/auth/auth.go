/*
 * Copyright 2025 Qsome Technologies.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package auth adapts the external identity provider: it turns bearer
// credentials into principals the relay core can trust.
package auth

import (
	"context"
	"errors"

	"github.com/qsome/rpa-relay/pkg/models"
)

var (
	// ErrMissingToken indicates no credential was presented.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken indicates the credential was rejected.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// TokenValidator validates a bearer credential and yields the principal
// behind it. Connection handlers call it before any registration happens.
type TokenValidator interface {
	VerifyToken(ctx context.Context, token string) (*models.Principal, error)
}

// NewValidator builds a validator from the auth configuration: JWT when a
// secret is configured, static token map otherwise. With neither configured
// every credential is rejected.
func NewValidator(cfg *models.AuthConfig) TokenValidator {
	if cfg == nil {
		return rejectAll{}
	}

	validators := make([]TokenValidator, 0, 2)

	if cfg.JWTSecret != "" {
		validators = append(validators, NewJWTValidator(cfg.JWTSecret))
	}

	if len(cfg.StaticTokens) > 0 {
		validators = append(validators, NewStaticValidator(cfg.StaticTokens))
	}

	if len(validators) == 0 {
		return rejectAll{}
	}

	if len(validators) == 1 {
		return validators[0]
	}

	return chainValidator(validators)
}

type rejectAll struct{}

func (rejectAll) VerifyToken(_ context.Context, _ string) (*models.Principal, error) {
	return nil, ErrInvalidToken
}

// chainValidator tries each validator in order and returns the first
// success.
type chainValidator []TokenValidator

func (c chainValidator) VerifyToken(ctx context.Context, token string) (*models.Principal, error) {
	var lastErr error

	for _, v := range c {
		principal, err := v.VerifyToken(ctx, token)
		if err == nil {
			return principal, nil
		}

		lastErr = err
	}

	return nil, lastErr
}
