package httpserver

import (
	"net/http"

	rewardhttp "contracthub/contexts/rewards/reward-engine/transport/http"
)

func (s *Server) registerEventRoutes() {
	s.mux.HandleFunc("GET /v1/events/active", s.handleListActiveEvents)
}

func (s *Server) handleListActiveEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.rewards.Handler.ListActiveEventsHandler(r.Context(), rewardhttp.ListActiveEventsQuery{
		ClassID:        query.Get("class_id"),
		OrgID:          query.Get("org_id"),
		SubmissionType: query.Get("submission_type"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
