package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/videogate/videogate/internal/auth"
	"github.com/videogate/videogate/internal/blocklist"
	"github.com/videogate/videogate/internal/broker"
	"github.com/videogate/videogate/internal/httputil"
	"github.com/videogate/videogate/internal/options"
	"github.com/videogate/videogate/internal/remote"
	"github.com/videogate/videogate/internal/validate"
)

// entries accepts either a newline separated string, as typed into the
// options form, or a JSON array.
type entries []string

func (e *entries) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*e = blocklist.ParseLines(text)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("expected a string or a list of strings")
	}
	*e = list
	return nil
}

type blocklistRequest struct {
	Keywords entries `json:"keywords"`
	Channels entries `json:"channels"`
}

type remoteRequest struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
}

type debugBody struct {
	Enabled bool `json:"enabled"`
}

type tabTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var msg broker.Message
	if err := httputil.DecodeJSON(w, r, &msg); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sender := broker.Sender{TabID: auth.TabIDFromContext(r.Context())}
	reply, err := s.broker.Handle(r.Context(), sender, msg)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reply)
}

func (s *Server) handleGetBlocklist(w http.ResponseWriter, r *http.Request) {
	bl, err := s.options.Blocklist(r.Context())
	if err != nil {
		writeOptionsError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, bl)
}

func (s *Server) handlePutBlocklist(w http.ResponseWriter, r *http.Request) {
	var req blocklistRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bl, err := s.options.ReplaceBlocklist(r.Context(), req.Keywords, req.Channels)
	if err != nil {
		writeOptionsError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, bl)
}

func (s *Server) handleGetRemote(w http.ResponseWriter, r *http.Request) {
	rc, err := s.options.Remote(r.Context())
	if err != nil {
		writeOptionsError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rc)
}

func (s *Server) handlePutRemote(w http.ResponseWriter, r *http.Request) {
	var req remoteRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rc, err := s.options.UpdateRemote(r.Context(), req.Enabled, req.URL)
	if err != nil {
		writeOptionsError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rc)
}

func (s *Server) handleRefreshRemote(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, "remote refresh unavailable")
		return
	}

	res, err := s.refresher.Refresh(r.Context())
	if errors.Is(err, remote.ErrNotConfigured) {
		httputil.WriteError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		slog.Error("options: remote refresh failed", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to refresh remote blocklist")
		return
	}
	if !res.OK() {
		httputil.WriteJSON(w, http.StatusBadGateway, res)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.options.Export(r.Context())
	if err != nil {
		writeOptionsError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="blocklist.json"`)
	_, _ = w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := httputil.DecodeJSON(w, r, &raw); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bl, err := s.options.Import(r.Context(), raw)
	if err != nil {
		writeOptionsError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, bl)
}

func (s *Server) handleGetDebug(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, debugBody{Enabled: s.options.DebugMode(r.Context())})
}

func (s *Server) handlePutDebug(w http.ResponseWriter, r *http.Request) {
	var req debugBody
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.options.SetDebugMode(r.Context(), req.Enabled); err != nil {
		writeOptionsError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, req)
}

func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, validate.FieldLimits())
}

func (s *Server) handleIssueTabToken(w http.ResponseWriter, r *http.Request) {
	tabID := chi.URLParam(r, "tabID")
	if msg := validate.TabID(tabID); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	token, err := s.auth.IssueTabToken(tabID)
	if err != nil {
		slog.Error("options: failed to issue tab token", "tab", tabID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, tabTokenResponse{
		Token:     token,
		ExpiresIn: int(auth.TabTokenDuration.Seconds()),
	})
}

func writeOptionsError(w http.ResponseWriter, err error) {
	var verr *options.ValidationError
	switch {
	case errors.As(err, &verr):
		httputil.WriteError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, options.ErrRemoteEnabled):
		httputil.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, options.ErrEmpty):
		httputil.WriteError(w, http.StatusNotFound, err.Error())
	default:
		slog.Error("options: store operation failed", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "store operation failed")
	}
}
