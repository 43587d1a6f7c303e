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

// Package api provides the HTTP and WebSocket surface for the relay.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	srHttp "github.com/qsome/rpa-relay/pkg/http"
	"github.com/qsome/rpa-relay/pkg/logger"
	"github.com/qsome/rpa-relay/pkg/models"
	"github.com/qsome/rpa-relay/pkg/relay"
	"github.com/qsome/rpa-relay/pkg/relay/auth"
)

const (
	defaultReadHeaderTimeout = 5 * time.Second
	defaultIdleTimeout       = 90 * time.Second
	shutdownTimeout          = 10 * time.Second

	readBufferSize  = 1024
	writeBufferSize = 1024

	// nodeIDPattern constrains node ids at the routing layer; malformed ids
	// never reach the registry.
	nodeIDPattern = "[A-Za-z0-9]{6}"
)

// APIServer serves the bridge HTTP endpoints and the node/controller
// WebSocket channels.
type APIServer struct {
	core           *relay.Relay
	validator      auth.TokenValidator
	router         *mux.Router
	logger         logger.Logger
	listenAddr     string
	apiKey         string
	allowedOrigins []string
	upgrader       websocket.Upgrader
	httpServer     *http.Server
}

// NewAPIServer creates the API server for a relay core.
func NewAPIServer(core *relay.Relay, validator auth.TokenValidator, log logger.Logger, options ...func(*APIServer)) *APIServer {
	s := &APIServer{
		core:      core,
		validator: validator,
		router:    mux.NewRouter(),
		logger:    log.WithComponent("api"),
	}

	for _, o := range options {
		o(s)
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  readBufferSize,
		WriteBufferSize: writeBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return s.checkWebSocketOrigin(r)
		},
	}

	s.setupRoutes()

	return s
}

// WithListenAddr sets the address the server listens on.
func WithListenAddr(addr string) func(*APIServer) {
	return func(server *APIServer) {
		server.listenAddr = addr
	}
}

// WithAPIKey guards the bridge endpoints with an API key.
func WithAPIKey(key string) func(*APIServer) {
	return func(server *APIServer) {
		server.apiKey = key
	}
}

// WithAllowedOrigins restricts CORS and WebSocket origins.
func WithAllowedOrigins(origins []string) func(*APIServer) {
	return func(server *APIServer) {
		server.allowedOrigins = origins
	}
}

// Router exposes the handler for tests and embedding.
func (s *APIServer) Router() http.Handler {
	return s.router
}

func (s *APIServer) setupRoutes() {
	s.router.Use(func(next http.Handler) http.Handler {
		return srHttp.CommonMiddleware(next, s.allowedOrigins, s.logger)
	})

	bridge := s.router.PathPrefix("/api").Subrouter()
	bridge.Use(srHttp.APIKeyMiddleware(s.apiKey, s.logger))

	bridge.HandleFunc("/node/filter", s.handleNodeFilter).Methods(http.MethodGet)
	bridge.HandleFunc("/node/{node_id:"+nodeIDPattern+"}/release", s.handleNodeRelease).Methods(http.MethodPost)
	bridge.HandleFunc("/{batch_id}/node/{node_id:"+nodeIDPattern+"}/request/{request_id}", s.handleDispatch).Methods(http.MethodPost)
	bridge.HandleFunc("/{batch_id}/node/{node_id:"+nodeIDPattern+"}/response/{request_id}", s.handlePoll).Methods(http.MethodGet)

	s.router.HandleFunc("/ws/node/{node_id:"+nodeIDPattern+"}", s.handleNodeSocket)
	s.router.HandleFunc("/ws/control/{node_id:"+nodeIDPattern+"}", s.handleControlSocket)
}

func (s *APIServer) checkWebSocketOrigin(r *http.Request) bool {
	if len(s.allowedOrigins) == 0 {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		// Non-browser clients (nodes, orchestrator tooling) send no Origin.
		return true
	}

	for _, allowed := range s.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	return false
}

// Start runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully. ReadTimeout and WriteTimeout stay unset: the same listener
// carries long-lived WebSocket connections.
func (s *APIServer) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info().
			Str("listen_addr", s.listenAddr).
			Msg("API server listening")

		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// writeJSONResponse writes a JSON response to the HTTP writer.
func (s *APIServer) writeJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("Error encoding response")
	}
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errResponse := models.ErrorResponse{
		Message: message,
		Status:  statusCode,
	}

	if err := json.NewEncoder(w).Encode(errResponse); err != nil {
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
