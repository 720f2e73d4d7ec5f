package api

import (
	"encoding/json"
	"net/http"
)

type statusResponse struct {
	Status bool `json:"status"`
}

type qrResponse struct {
	Status bool   `json:"status"`
	QRCode string `json:"qr_code"`
}

type qrURLResponse struct {
	Status    bool   `json:"status"`
	QRCodeURL string `json:"qr_code_url"`
}

type errorResponse struct {
	Status bool   `json:"status"`
	Error  string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("could not encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, errorResponse{Status: false, Error: msg})
}
