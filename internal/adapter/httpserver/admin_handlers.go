package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ReloadCatalogHandler reloads the catalog from the configured source and
// swaps the engine snapshot. The previous snapshot keeps serving on error.
func (s *Server) ReloadCatalogHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.Catalog.Reload(r.Context())
		if err != nil {
			LoggerFrom(r).Error("catalog reload failed", slog.Any("error", err))
			writeError(w, r, err, nil)
			return
		}
		LoggerFrom(r).Info("catalog reloaded",
			slog.String("source", res.Source),
			slog.String("catalog_version", res.Version),
			slog.Int("postings", res.Postings))
		writeSuccess(w, res, "catalog reloaded")
	}
}

// MountAdmin mounts the Basic-auth guarded admin routes. Nothing is mounted
// without credentials.
func (s *Server) MountAdmin(r chi.Router, username, passwordHash string) bool {
	if username == "" || passwordHash == "" {
		return false
	}
	r.Route("/v1/admin", func(ar chi.Router) {
		ar.Use(BasicAuth(username, passwordHash))
		ar.Post("/catalog/reload", s.ReloadCatalogHandler())
	})
	return true
}
