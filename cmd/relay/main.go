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

package main

import (
	"context"
	"flag"
	"log"

	"github.com/qsome/rpa-relay/pkg/config"
	"github.com/qsome/rpa-relay/pkg/lifecycle"
	"github.com/qsome/rpa-relay/pkg/logger"
	"github.com/qsome/rpa-relay/pkg/natsutil"
	"github.com/qsome/rpa-relay/pkg/relay"
	"github.com/qsome/rpa-relay/pkg/relay/api"
	"github.com/qsome/rpa-relay/pkg/relay/auth"
	"github.com/qsome/rpa-relay/pkg/version"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/rpa-relay/relay.json", "Path to relay config file")
	flag.Parse()

	ctx := context.Background()

	var cfg relay.Config
	if err := config.NewConfig(nil).LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return err
	}

	lg, err := logger.New(cfg.Logger, "rpa-relay")
	if err != nil {
		return err
	}

	lg.Info().
		Str("version", version.Version()).
		Str("build_id", version.BuildID()).
		Msg("Starting rpa-relay")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	options := make([]func(*relay.Relay), 0, 1)

	if cfg.NATS != nil && cfg.NATS.URL != "" {
		publisher, err := natsutil.Connect(ctx, cfg.NATS.URL, cfg.NATS.Stream, cfg.NATS.Subject)
		if err != nil {
			return err
		}
		defer publisher.Close()

		options = append(options, relay.WithEventPublisher(publisher))
	}

	core := relay.New(ctx, &cfg, lg, options...)

	server := api.NewAPIServer(core, auth.NewValidator(cfg.Auth), lg,
		api.WithListenAddr(cfg.ListenAddr),
		api.WithAPIKey(cfg.APIKey),
		api.WithAllowedOrigins(cfg.AllowedOrigins),
	)

	return lifecycle.Run(ctx, server, lg)
}
