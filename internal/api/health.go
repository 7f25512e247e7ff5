package api

import "net/http"

// healthResponse reports liveness plus the registered handler count, since a
// server with zero handlers can accept nothing.
type healthResponse struct {
	Status   string `json:"status"`
	Handlers int    `json:"handlers"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Handlers: len(s.registry.Types()),
	})
}
