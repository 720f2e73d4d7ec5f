package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/roach88/gauth/internal/store"
)

// maxRequestBytes bounds request bodies. The largest legal payload (an ident
// at its 4096-char bound plus the other fields) fits comfortably.
const maxRequestBytes = 64 << 10

type contextKey int

const (
	contextKeyLogger contextKey = iota
	contextKeyHost
)

// requireAPIKey wraps a handler with api-key authorization. It reads the
// body, extracts api_key, and resolves it against the loc_auth table; any
// registered host match authorizes the call. On success the body is restored
// for the handler and the request context carries the calling host and a
// request-scoped logger with a correlation id.
func (s *Server) requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := s.logger.With(
			"request_id", uuid.NewString(),
			"method", r.Method,
			"path", r.URL.Path,
		)

		body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes+1))
		r.Body.Close()
		if err != nil {
			logger.Error("unable to read request body", "error", err)
			s.writeError(w, http.StatusBadRequest, "unable to read request body")
			return
		}
		if len(body) > maxRequestBytes {
			logger.Warn("request body too large")
			s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}

		var probe struct {
			APIKey string `json:"api_key"`
		}
		if err := json.Unmarshal(body, &probe); err != nil {
			logger.Error("unable to parse request body", "error", err)
			s.writeError(w, http.StatusBadRequest, "invalid JSON request body")
			return
		}
		if probe.APIKey == "" {
			logger.Error("api_key missing from request body")
			s.writeError(w, http.StatusBadRequest, "missing api_key")
			return
		}

		host, err := s.hostKeys.FindByKey(r.Context(), probe.APIKey)
		if store.IsNotFound(err) {
			logger.Warn("invalid api key presented")
			s.writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		if err != nil {
			logger.Error("api key lookup failed", "error", err)
			s.writeError(w, http.StatusInternalServerError, "database error")
			return
		}

		logger = logger.With("host", host)
		logger.Debug("api key validated")

		ctx := context.WithValue(r.Context(), contextKeyLogger, logger)
		ctx = context.WithValue(ctx, contextKeyHost, host)
		r = r.WithContext(ctx)
		r.Body = io.NopCloser(bytes.NewReader(body))

		next(w, r)
	}
}

// requestLogger returns the request-scoped logger installed by
// requireAPIKey, falling back to the server logger.
func (s *Server) requestLogger(r *http.Request) *slog.Logger {
	if logger, ok := r.Context().Value(contextKeyLogger).(*slog.Logger); ok {
		return logger
	}
	return s.logger
}

// callerHost returns the host the request's api key is registered to.
func callerHost(r *http.Request) string {
	host, _ := r.Context().Value(contextKeyHost).(string)
	return host
}
