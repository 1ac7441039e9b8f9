package server

import (
	"net/http"
	"time"

	"github.com/jrsteele09/creator-relay/trending"
	"github.com/rs/zerolog/log"
)

// Trending serves a cached trend list. Upstream failures degrade to the
// fallback list, so callers only ever see a 200.
func (s *Server) Trending(kind trending.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.trends.Get(r.Context(), kind)
		if err != nil {
			log.Err(err).Str("kind", string(kind)).Msg("trend lookup failed")
			writeJSONError(w, "server_error", "Trend data unavailable", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Cache-Control", "public, max-age=60")
		writeJSON(w, http.StatusOK, map[string]any{
			"data": map[string]any{
				string(kind): res.Items,
			},
			"source":       res.Source,
			"last_updated": res.LastUpdated.UTC().Format(time.RFC3339),
		})
	}
}
