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

package relay

import (
	"errors"

	"github.com/qsome/rpa-relay/pkg/logger"
	"github.com/qsome/rpa-relay/pkg/models"
)

var errListenAddrRequired = errors.New("listen_addr is required")

// NATSConfig configures the optional lifecycle event stream.
type NATSConfig struct {
	URL     string `json:"url"`
	Stream  string `json:"stream"`
	Subject string `json:"subject"`
}

// Config is the relay service configuration, loaded from JSON.
type Config struct {
	ListenAddr      string             `json:"listen_addr"`
	APIKey          string             `json:"api_key,omitempty"`
	AllowedOrigins  []string           `json:"allowed_origins,omitempty"`
	Auth            *models.AuthConfig `json:"auth,omitempty"`
	ExchangeTTL     models.Duration    `json:"exchange_ttl,omitempty"`
	CleanupInterval models.Duration    `json:"cleanup_interval,omitempty"`
	NATS            *NATSConfig        `json:"nats,omitempty"`
	Logger          *logger.Config     `json:"logger,omitempty"`
}

// Validate implements config.Validator.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return errListenAddrRequired
	}

	return nil
}
