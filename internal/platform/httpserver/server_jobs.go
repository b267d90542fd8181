package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"contracthub/contexts/progression/job-service/domain/entities"
	jobhttp "contracthub/contexts/progression/job-service/transport/http"
)

func (s *Server) registerJobRoutes() {
	s.mux.HandleFunc("POST /v1/jobs", s.handleStartJob)
	s.mux.HandleFunc("GET /v1/jobs", s.handleListJobs)
	s.mux.HandleFunc("GET /v1/jobs/{job_id}", s.handleGetJob)
	s.mux.HandleFunc("POST /v1/jobs/{job_id}/stages/{stage_number}/submit", s.handleSubmitStage)
	s.mux.HandleFunc("POST /v1/jobs/{job_id}/approve", s.handleApproveStage)
	s.mux.HandleFunc("POST /v1/jobs/{job_id}/reject", s.handleRejectStage)
	s.mux.HandleFunc("GET /v1/jobs/{job_id}/settlements", s.handleListSettlements)

	s.mux.HandleFunc("GET /v1/profiles/{user_id}", s.handleGetProfile)
	s.mux.HandleFunc("PUT /v1/profiles/{user_id}", s.handleRegisterProfile)
}

func (s *Server) handleStartJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req jobhttp.StartJobRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.jobs.Handler.StartJobHandler(r.Context(), userID, req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	resp, err := s.jobs.Handler.GetJobHandler(r.Context(), r.PathValue("job_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleListJobs defaults to the caller's own jobs. Reviewers and admins
// may pass user_id to look at someone else's.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	if requested := strings.TrimSpace(query.Get("user_id")); requested != "" && requested != userID {
		if !hasReviewRole(r) {
			writeError(w, http.StatusForbidden, "forbidden", "listing other users requires a reviewer role")
			return
		}
		userID = requested
	}
	resp, err := s.jobs.Handler.ListJobsHandler(r.Context(), userID, query.Get("contract_id"), query.Get("status"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitStage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	stageNumber, err := strconv.Atoi(r.PathValue("stage_number"))
	if err != nil || stageNumber <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_stage_number", "stage_number must be a positive integer")
		return
	}
	var req jobhttp.SubmitStageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.jobs.Handler.SubmitStageHandler(r.Context(), userID, r.PathValue("job_id"), stageNumber, req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleApproveStage(w http.ResponseWriter, r *http.Request) {
	reviewerID, ok := requireReviewer(w, r)
	if !ok {
		return
	}
	var req jobhttp.ApproveStageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.jobs.Handler.ApproveStageHandler(r.Context(), reviewerID, r.PathValue("job_id"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRejectStage(w http.ResponseWriter, r *http.Request) {
	reviewerID, ok := requireReviewer(w, r)
	if !ok {
		return
	}
	var req jobhttp.RejectStageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.jobs.Handler.RejectStageHandler(r.Context(), reviewerID, r.PathValue("job_id"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListSettlements(w http.ResponseWriter, r *http.Request) {
	resp, err := s.jobs.Handler.ListSettlementsHandler(r.Context(), r.PathValue("job_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	resp, err := s.jobs.Handler.GetProfileHandler(r.Context(), r.PathValue("user_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRegisterProfile lets users edit their own profile. Only admins may
// edit someone else's or grant a reviewer/admin role.
func (s *Server) handleRegisterProfile(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req jobhttp.RegisterProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	target := r.PathValue("user_id")
	isAdmin := headerRole(r) == entities.UserRoleAdmin
	elevated := strings.TrimSpace(req.Role) != "" && entities.ParseUserRole(req.Role) != entities.UserRoleParticipant
	if (target != callerID || elevated) && !isAdmin {
		writeError(w, http.StatusForbidden, "forbidden", "admin role required")
		return
	}
	resp, err := s.jobs.Handler.RegisterProfileHandler(r.Context(), target, req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func headerRole(r *http.Request) entities.UserRole {
	return entities.ParseUserRole(r.Header.Get("X-User-Role"))
}

func hasReviewRole(r *http.Request) bool {
	role := headerRole(r)
	return role == entities.UserRoleReviewer || role == entities.UserRoleAdmin
}

func requireReviewer(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return "", false
	}
	if !hasReviewRole(r) {
		writeError(w, http.StatusForbidden, "forbidden", "reviewer role required")
		return "", false
	}
	return userID, true
}
