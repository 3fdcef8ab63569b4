package api

import "net/http"

type healthResponse struct {
	Status string `json:"status"`
	Engine string `json:"engine"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Engine: s.engine.State().String(),
	})
}
