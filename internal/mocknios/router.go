package mocknios

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Router builds the HTTP handler: /ws/ for envelope actions, /_sync/ for
// binary file transfer. Actions dispatch on the action query parameter,
// matching the remote service's URL scheme.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.HandleFunc("/ws/", s.handleAction)
	r.HandleFunc("/_sync/", s.handleFile)

	return r
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	action := r.URL.Query().Get("action")
	s.log.Debug().Str("action", action).Str("method", r.Method).Msg("mock request")

	if action == "user_login" {
		s.handleLogin(w, r)
		return
	}

	_, ok := s.verifyToken(r.URL.Query().Get("token"))
	if !ok {
		writeErr(w, "A1", "invalid token")
		return
	}

	switch action {
	case "database_list":
		s.handleDatabaseList(w, r)
	case "users":
		s.handleUsers(w, r)
	case "table_list":
		s.handleTableList(w, r)
	case "table_info":
		s.handleTableInfo(w, r)
	case "model":
		if r.Method == http.MethodPost {
			s.handleFind(w, r)
		} else {
			s.handleGetRecord(w, r)
		}
	case "model_fuzzy":
		s.handleFuzzy(w, r)
	case "detail_save":
		s.handleDetailSave(w, r)
	case "table_save":
		s.handleTableSave(w, r)
	case "detail_delete":
		s.handleDetailDelete(w, r)
	case "detail_resolve":
		s.handleDetailResolve(w, r)
	case "sync":
		s.handleSync(w, r)
	default:
		writeErr(w, "A0", "unknown action "+action)
	}
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	action := r.URL.Query().Get("action")
	s.log.Debug().Str("action", action).Str("method", r.Method).Msg("mock file request")

	if _, ok := s.verifyToken(r.URL.Query().Get("token")); !ok {
		// The file endpoint acknowledges with result, not the envelope.
		writeJSON(w, map[string]any{"result": "KO", "error_code": "A1", "error_message": "invalid token"})
		return
	}

	switch action {
	case "file_upload":
		s.handleUpload(w, r)
	case "file_download":
		s.handleDownload(w, r)
	default:
		writeJSON(w, map[string]any{"result": "KO", "error_code": "A0", "error_message": "unknown action " + action})
	}
}

// writeOK writes a success envelope with the given payload keys merged in.
func writeOK(w http.ResponseWriter, payload map[string]any) {
	body := map[string]any{"error": false}
	for k, v := range payload {
		body[k] = v
	}
	writeJSON(w, body)
}

// writeErr writes a business-failure envelope. The HTTP status stays 200:
// the service reports problems through the error flag.
func writeErr(w http.ResponseWriter, code, message string) {
	writeJSON(w, map[string]any{
		"error":         true,
		"error_code":    code,
		"error_message": message,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
