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
	"crypto/subtle"

	"github.com/qsome/rpa-relay/pkg/models"
)

// StaticValidator validates opaque tokens against a configured map of
// token -> principal name. Intended for deployments without an OAuth2
// server, and for tests.
type StaticValidator struct {
	tokens map[string]string
}

func NewStaticValidator(tokens map[string]string) *StaticValidator {
	return &StaticValidator{tokens: tokens}
}

// VerifyToken implements TokenValidator.
func (v *StaticValidator) VerifyToken(_ context.Context, token string) (*models.Principal, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	for candidate, name := range v.tokens {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(token)) == 1 {
			return &models.Principal{
				ID:       name,
				Name:     name,
				Provider: "static",
			}, nil
		}
	}

	return nil, ErrInvalidToken
}
