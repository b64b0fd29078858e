package httpserver

import (
	"log/slog"
	"net/http"
)

// renderPage renders a named template with the given status code
func (s *Server) renderPage(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// renderError renders the error page with the given status code
func (s *Server) renderError(w http.ResponseWriter, status int, errMsg string) {
	s.renderPage(w, status, "error.html", map[string]string{
		"Error": errMsg,
	})
}
