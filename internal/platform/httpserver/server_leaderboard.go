package httpserver

import "net/http"

func (s *Server) registerLeaderboardRoutes() {
	s.mux.HandleFunc("GET /v1/leaderboard", s.handleOverallLeaderboard)
	s.mux.HandleFunc("GET /v1/leaderboard/contracts", s.handleContractTitles)
	s.mux.HandleFunc("GET /v1/leaderboard/contracts/{title}", s.handleContractLeaderboard)
}

func (s *Server) handleOverallLeaderboard(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.leaderboard.Handler.OverallHandler(r.Context(), viewerID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleContractTitles(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.leaderboard.Handler.ContractTitlesHandler(r.Context(), viewerID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleContractLeaderboard(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.leaderboard.Handler.ContractBoardHandler(r.Context(), viewerID, r.PathValue("title"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
