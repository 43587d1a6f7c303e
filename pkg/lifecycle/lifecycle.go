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

// Package lifecycle runs a service until interrupted.
package lifecycle

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/qsome/rpa-relay/pkg/logger"
)

// Service is a long-running component driven by a context.
type Service interface {
	Start(ctx context.Context) error
}

// Run starts the service and blocks until it fails or the process receives
// SIGINT/SIGTERM, then lets the service wind down via context cancellation.
func Run(ctx context.Context, svc Service, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Msg("Service starting")

	if err := svc.Start(ctx); err != nil {
		log.Error().Err(err).Msg("Service exited with error")
		return err
	}

	log.Info().Msg("Service stopped")

	return nil
}
