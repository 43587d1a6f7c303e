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

package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/qsome/rpa-relay/pkg/logger"
)

var errConfigJSONNotSet = errors.New("environment config not set")

// EnvConfigLoader loads a complete JSON configuration from an environment
// variable ({prefix}CONFIG_JSON). Used for containerized deployments that
// inject config without a mounted file.
type EnvConfigLoader struct {
	logger logger.Logger
	prefix string
}

// Load implements ConfigLoader by reading {prefix}CONFIG_JSON.
func (e *EnvConfigLoader) Load(_ context.Context, _ string, dst interface{}) error {
	key := e.prefix + "CONFIG_JSON"

	jsonConfig := os.Getenv(key)
	if jsonConfig == "" {
		return fmt.Errorf("%w: %s", errConfigJSONNotSet, key)
	}

	if err := json.Unmarshal([]byte(jsonConfig), dst); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}

	if e.logger != nil {
		e.logger.Info().Str("source", key).Msg("Loaded configuration from environment")
	}

	return nil
}
