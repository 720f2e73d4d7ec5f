package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/roach88/gauth/internal/store"
)

type createRequest struct {
	APIKey string `json:"api_key"`
	Ident  string `json:"ident"`
}

type verifyRequest struct {
	APIKey string `json:"api_key"`
	Ident  string `json:"ident"`
	Code   string `json:"code"`
}

type qrRequest struct {
	APIKey string `json:"api_key"`
	Ident  string `json:"ident"`
	Name   string `json:"name"`
	Title  string `json:"title"`
}

// handleCreate generates a fresh TOTP secret and stores it under the given
// ident. The secret itself is never returned; callers enroll via /qr or
// /qr_url.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	logger := s.requestLogger(r)

	var req createRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Ident == "" {
		s.writeError(w, http.StatusBadRequest, "missing ident")
		return
	}

	secret, err := s.totp.GenerateSecret(s.cfg.Auth.SecretLength)
	if err != nil {
		logger.Error("secret generation failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not generate secret")
		return
	}

	if err := s.secrets.Put(r.Context(), req.Ident, secret); err != nil {
		var uv *store.UniqueViolationError
		if errors.As(err, &uv) && uv.Column == "ident" {
			logger.Warn("ident already exists", "ident", req.Ident)
			s.writeError(w, http.StatusConflict, "ident already exists")
			return
		}
		logger.Error("could not store secret", "error", err)
		s.writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	logger.Debug("secret created", "ident", req.Ident)
	s.writeJSON(w, http.StatusOK, statusResponse{Status: true})
}

// handleVerify checks a code against the secret stored for ident.
// A wrong code is a successful request with status false.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	logger := s.requestLogger(r)

	var req verifyRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Ident == "" {
		s.writeError(w, http.StatusBadRequest, "missing ident")
		return
	}
	if req.Code == "" {
		s.writeError(w, http.StatusBadRequest, "missing code")
		return
	}

	secret, ok := s.lookupSecret(w, r, req.Ident)
	if !ok {
		return
	}

	valid := s.totp.Verify(secret, req.Code)
	logger.Debug("code verified", "ident", req.Ident, "valid", valid)
	s.writeJSON(w, http.StatusOK, statusResponse{Status: valid})
}

// handleRotate atomically replaces the secret stored for ident with a fresh
// one. The old secret stops verifying the moment the new one takes effect.
func (s *Server) handleRotate(w http.ResponseWriter, r *http.Request) {
	logger := s.requestLogger(r)

	var req createRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Ident == "" {
		s.writeError(w, http.StatusBadRequest, "missing ident")
		return
	}

	secret, err := s.totp.GenerateSecret(s.cfg.Auth.SecretLength)
	if err != nil {
		logger.Error("secret generation failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not generate secret")
		return
	}

	switch err := s.secrets.Rotate(r.Context(), req.Ident, secret); {
	case err == nil:
	case store.IsNotFound(err):
		s.writeError(w, http.StatusNotFound, "unknown ident")
		return
	case store.IsUniqueViolation(err):
		// Freshly generated token collided with an existing one. The old
		// mapping is untouched; the caller can simply retry.
		logger.Warn("generated token collided, rotate aborted", "ident", req.Ident)
		s.writeError(w, http.StatusConflict, "token conflict, retry")
		return
	default:
		logger.Error("could not rotate secret", "error", err)
		s.writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	logger.Debug("secret rotated", "ident", req.Ident)
	s.writeJSON(w, http.StatusOK, statusResponse{Status: true})
}

// handleQR renders the enrollment QR code for ident as a base64 PNG.
func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	logger := s.requestLogger(r)

	req, secret, ok := s.qrData(w, r)
	if !ok {
		return
	}

	issuer, account := s.qrLabels(req)
	pngData, err := s.totp.QRCodePNG(secret, issuer, account, s.cfg.Auth.QRWidth, s.cfg.Auth.QRHeight)
	if err != nil {
		logger.Error("could not render qr code", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to create qr code")
		return
	}

	s.writeJSON(w, http.StatusOK, qrResponse{
		Status: true,
		QRCode: base64.StdEncoding.EncodeToString(pngData),
	})
}

// handleQRURL returns the otpauth:// provisioning URL for ident.
func (s *Server) handleQRURL(w http.ResponseWriter, r *http.Request) {
	req, secret, ok := s.qrData(w, r)
	if !ok {
		return
	}

	issuer, account := s.qrLabels(req)
	s.writeJSON(w, http.StatusOK, qrURLResponse{
		Status:    true,
		QRCodeURL: s.totp.ProvisioningURL(secret, issuer, account),
	})
}

// qrData decodes a qr/qr_url request and resolves the stored secret.
func (s *Server) qrData(w http.ResponseWriter, r *http.Request) (qrRequest, string, bool) {
	var req qrRequest
	if !s.decode(w, r, &req) {
		return qrRequest{}, "", false
	}
	if req.Ident == "" {
		s.writeError(w, http.StatusBadRequest, "missing ident")
		return qrRequest{}, "", false
	}

	secret, ok := s.lookupSecret(w, r, req.Ident)
	if !ok {
		return qrRequest{}, "", false
	}
	return req, secret, true
}

// qrLabels maps the request's display fields onto issuer/account, falling
// back to the configured issuer and the ident.
func (s *Server) qrLabels(req qrRequest) (issuer, account string) {
	issuer = req.Title
	if issuer == "" {
		issuer = s.cfg.Auth.Issuer
	}
	account = req.Name
	if account == "" {
		account = req.Ident
	}
	return issuer, account
}

// lookupSecret fetches the secret for ident, writing the error response on
// failure.
func (s *Server) lookupSecret(w http.ResponseWriter, r *http.Request, ident string) (string, bool) {
	secret, err := s.secrets.GetByIdent(r.Context(), ident)
	if store.IsNotFound(err) {
		s.writeError(w, http.StatusNotFound, "unknown ident")
		return "", false
	}
	if err != nil {
		s.requestLogger(r).Error("secret lookup failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "database error")
		return "", false
	}
	return secret, true
}

// decode unmarshals the request body into v, writing the error response on
// failure. The body was already read and validated as JSON by the auth
// middleware, so failures here mean a shape mismatch.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return false
	}
	return true
}
