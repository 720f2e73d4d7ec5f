package api

import (
	"log/slog"
	"net/http"

	"github.com/roach88/gauth/internal/config"
	"github.com/roach88/gauth/internal/store"
	"github.com/roach88/gauth/internal/totp"
)

// Server routes authenticated secret-management requests onto the stores.
// All dependencies are injected; the server owns no global state.
type Server struct {
	logger   *slog.Logger
	cfg      config.Config
	hostKeys *store.HostKeyStore
	secrets  *store.SecretStore
	totp     *totp.Service
	mux      *http.ServeMux
}

// New assembles a Server from its dependencies.
func New(
	logger *slog.Logger,
	cfg config.Config,
	hostKeys *store.HostKeyStore,
	secrets *store.SecretStore,
	totpSvc *totp.Service,
) *Server {
	s := &Server{
		logger:   logger,
		cfg:      cfg,
		hostKeys: hostKeys,
		secrets:  secrets,
		totp:     totpSvc,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the root handler for mounting in an http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /create", s.requireAPIKey(s.handleCreate))
	s.mux.HandleFunc("POST /verify", s.requireAPIKey(s.handleVerify))
	s.mux.HandleFunc("POST /rotate", s.requireAPIKey(s.handleRotate))
	s.mux.HandleFunc("POST /qr", s.requireAPIKey(s.handleQR))
	s.mux.HandleFunc("POST /qr_url", s.requireAPIKey(s.handleQRURL))
}
