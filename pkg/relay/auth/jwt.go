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

package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v4"

	"github.com/qsome/rpa-relay/pkg/models"
)

// Claims are the JWT claims the relay understands.
type Claims struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}

// JWTValidator verifies HMAC-signed bearer tokens.
type JWTValidator struct {
	secret []byte
}

func NewJWTValidator(secret string) *JWTValidator {
	return &JWTValidator{secret: []byte(secret)}
}

// VerifyToken implements TokenValidator. Expiry is enforced by the parser.
func (v *JWTValidator) VerifyToken(_ context.Context, token string) (*models.Principal, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method %v", ErrInvalidToken, t.Header["alg"])
		}

		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	principal := &models.Principal{
		ID:       claims.UserID,
		Name:     claims.Name,
		Provider: claims.Provider,
	}

	if principal.ID == "" {
		principal.ID = claims.Subject
	}

	if principal.Name == "" {
		principal.Name = principal.ID
	}

	if claims.IssuedAt != nil {
		principal.IssuedAt = claims.IssuedAt.Time
	}

	return principal, nil
}

// GenerateToken signs a JWT for the given principal. Used by provisioning
// tooling and tests.
func (v *JWTValidator) GenerateToken(principal *models.Principal, expiresAt jwt.NumericDate) (string, error) {
	claims := Claims{
		UserID:   principal.ID,
		Name:     principal.Name,
		Provider: principal.Provider,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.ID,
			ExpiresAt: &expiresAt,
			IssuedAt:  jwt.NewNumericDate(jwt.TimeFunc()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(v.secret)
}
