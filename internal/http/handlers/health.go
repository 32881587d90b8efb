package handlers

import (
	"net/http"

	"adforge/internal/sqlinline"
)

// Health reports liveness plus a database round trip, so it doubles as a
// readiness probe.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok"}
	if a.SQL != nil {
		var one int
		if err := a.SQL.QueryRow(r.Context(), sqlinline.QHealthProbe).Scan(&one); err != nil {
			a.Logger.Warn().Err(err).Msg("http: health database probe failed")
			a.json(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"})
			return
		}
		body["database"] = "ok"
	}
	a.json(w, http.StatusOK, body)
}
