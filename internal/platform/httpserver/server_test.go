package httpserver

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	leaderboardservice "contracthub/contexts/community/leaderboard-service"
	leaderboardhttp "contracthub/contexts/community/leaderboard-service/transport/http"
	jobservice "contracthub/contexts/progression/job-service"
	jobmemory "contracthub/contexts/progression/job-service/adapters/memory"
	jobentities "contracthub/contexts/progression/job-service/domain/entities"
	jobhttp "contracthub/contexts/progression/job-service/transport/http"
	rewardengine "contracthub/contexts/rewards/reward-engine"
	"contracthub/contexts/rewards/reward-engine/adapters/random"
	rewardentities "contracthub/contexts/rewards/reward-engine/domain/entities"
	rewardhttp "contracthub/contexts/rewards/reward-engine/transport/http"
	"contracthub/internal/app/integration"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	return newServer(t).Handler()
}

func newServer(t *testing.T) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	rewards := rewardengine.NewInMemoryModule([]rewardentities.Event{
		{EventID: "double-xp", Name: "Double XP", Enabled: true, XPPercent: 100},
	}, random.Fixed{}, logger)
	jobs := jobservice.NewInMemoryModule(jobmemory.Seed{
		Contracts: []jobentities.ContractDefinition{{
			ContractID:         "bakery",
			Version:            1,
			Title:              "Bakery Website",
			Status:             jobentities.ContractStatusOpen,
			BasePayoutXP:       100,
			BasePayoutCurrency: 10,
			Stages: []jobentities.StageTemplate{
				{SequenceNumber: 1, Name: "Wireframe"},
				{SequenceNumber: 2, Name: "Build"},
			},
		}},
		Profiles: []jobentities.UserProfile{
			{UserID: "ada", DisplayName: "Ada", ClassID: "c1", Role: jobentities.UserRoleParticipant},
			{UserID: "bo", DisplayName: "Bo", Role: jobentities.UserRoleReviewer},
		},
	}, integration.RewardSettler{Service: rewards.Service}, logger)
	source := integration.LeaderboardSource{Profiles: jobs.Store, Jobs: jobs.Store}
	leaderboard := leaderboardservice.NewModule(leaderboardservice.Dependencies{
		Snapshots: source,
		Viewers:   source,
		Logger:    logger,
	})
	return New(jobs, rewards, leaderboard, logger, "")
}

func do(t *testing.T, handler http.Handler, method string, path string, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func startBakeryJob(t *testing.T, handler http.Handler) jobhttp.JobDTO {
	t.Helper()
	rec := do(t, handler, http.MethodPost, "/v1/jobs", `{"contract_id":"bakery"}`, map[string]string{"X-User-Id": "ada"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	return decode[jobhttp.JobResponse](t, rec).Job
}

func TestHealthAndRequestID(t *testing.T) {
	handler := newTestServer(t)

	rec := do(t, handler, http.MethodGet, "/healthz", "", map[string]string{"X-Request-Id": "req-42"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Request-Id"); got != "req-42" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}

	rec = do(t, handler, http.MethodGet, "/healthz", "", nil)
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected a generated request id")
	}
}

func TestStartJobRequiresUser(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodPost, "/v1/jobs", `{"contract_id":"bakery"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if resp := decode[jobhttp.ErrorResponse](t, rec); resp.Code != "missing_user" {
		t.Fatalf("unexpected error code: %+v", resp)
	}
}

func TestStartJobValidation(t *testing.T) {
	handler := newTestServer(t)
	headers := map[string]string{"X-User-Id": "ada"}

	rec := do(t, handler, http.MethodPost, "/v1/jobs", `{`, headers)
	if rec.Code != http.StatusBadRequest || decode[jobhttp.ErrorResponse](t, rec).Code != "invalid_json" {
		t.Fatalf("expected invalid_json, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, handler, http.MethodPost, "/v1/jobs", `{}`, headers)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp := decode[jobhttp.ErrorResponse](t, rec); resp.Fields["contractid"] != "required" {
		t.Fatalf("expected field error, got %+v", resp)
	}

	rec = do(t, handler, http.MethodPost, "/v1/jobs", `{"contract_id":"unknown"}`, headers)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDuplicateStartConflicts(t *testing.T) {
	handler := newTestServer(t)
	startBakeryJob(t, handler)

	rec := do(t, handler, http.MethodPost, "/v1/jobs", `{"contract_id":"bakery"}`, map[string]string{"X-User-Id": "ada"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSubmitApproveFlow(t *testing.T) {
	handler := newTestServer(t)
	job := startBakeryJob(t, handler)
	if job.Status != "in_progress" || job.CurrentStageNumber != 1 || len(job.Stages) != 2 {
		t.Fatalf("unexpected started job: %+v", job)
	}

	rec := do(t, handler, http.MethodPost, "/v1/jobs/"+job.JobID+"/stages/0/submit", `{"content":"x"}`, map[string]string{"X-User-Id": "ada"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for stage 0, got %d", rec.Code)
	}

	rec = do(t, handler, http.MethodPost, "/v1/jobs/"+job.JobID+"/stages/1/submit", `{"content":"wireframe.png"}`, map[string]string{"X-User-Id": "ada"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if submitted := decode[jobhttp.JobResponse](t, rec).Job; submitted.Status != "pending_review" {
		t.Fatalf("expected pending_review, got %s", submitted.Status)
	}

	rec = do(t, handler, http.MethodPost, "/v1/jobs/"+job.JobID+"/stages/1/submit", `{"content":"again"}`, map[string]string{"X-User-Id": "ada"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for double submit, got %d", rec.Code)
	}

	rec = do(t, handler, http.MethodPost, "/v1/jobs/"+job.JobID+"/approve", "", map[string]string{"X-User-Id": "bo"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without reviewer role, got %d", rec.Code)
	}

	reviewer := map[string]string{"X-User-Id": "bo", "X-User-Role": "reviewer"}
	rec = do(t, handler, http.MethodPost, "/v1/jobs/"+job.JobID+"/approve", "", reviewer)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	approved := decode[jobhttp.ApproveStageResponse](t, rec)
	if approved.Settlement.BaseXP != 100 || approved.Settlement.FinalXP != 200 || approved.Settlement.FinalCurrency != 10 {
		t.Fatalf("unexpected settlement: %+v", approved.Settlement)
	}
	if approved.Job.CurrentStageNumber != 2 || approved.Job.Status != "in_progress" || approved.Replayed {
		t.Fatalf("unexpected job after approval: %+v", approved.Job)
	}

	rec = do(t, handler, http.MethodPost, "/v1/jobs/"+job.JobID+"/approve", `{"stage_number":1}`, reviewer)
	if rec.Code != http.StatusOK || !decode[jobhttp.ApproveStageResponse](t, rec).Replayed {
		t.Fatalf("expected replayed approval, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, handler, http.MethodGet, "/v1/jobs/"+job.JobID+"/settlements", "", nil)
	if settlements := decode[jobhttp.ListSettlementsResponse](t, rec); len(settlements.Items) != 1 {
		t.Fatalf("expected one settlement, got %+v", settlements)
	}

	rec = do(t, handler, http.MethodGet, "/v1/profiles/ada", "", nil)
	profile := decode[jobhttp.ProfileResponse](t, rec).Profile
	if profile.XPBalance != 200 || profile.CurrencyBalance != 10 {
		t.Fatalf("unexpected balances: %+v", profile)
	}

	rec = do(t, handler, http.MethodGet, "/v1/leaderboard", "", map[string]string{"X-User-Id": "ada"})
	board := decode[leaderboardhttp.OverallResponse](t, rec)
	if len(board.Items) != 1 || board.Items[0].UserID != "ada" || board.Items[0].XP != 200 || board.Items[0].Rank != 1 {
		t.Fatalf("unexpected leaderboard: %+v", board)
	}

	rec = do(t, handler, http.MethodGet, "/v1/leaderboard/contracts/Bakery%20Website", "", map[string]string{"X-User-Id": "ada"})
	contractBoard := decode[leaderboardhttp.ContractBoardResponse](t, rec)
	if len(contractBoard.Items) != 1 || contractBoard.Items[0].Progress != 2 {
		t.Fatalf("unexpected contract board: %+v", contractBoard)
	}
}

func TestRejectReturnsStage(t *testing.T) {
	handler := newTestServer(t)
	job := startBakeryJob(t, handler)
	do(t, handler, http.MethodPost, "/v1/jobs/"+job.JobID+"/stages/1/submit", `{"content":"draft"}`, map[string]string{"X-User-Id": "ada"})

	rec := do(t, handler, http.MethodPost, "/v1/jobs/"+job.JobID+"/reject", `{"feedback":"needs colour"}`,
		map[string]string{"X-User-Id": "bo", "X-User-Role": "reviewer"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rejected := decode[jobhttp.JobResponse](t, rec).Job
	if rejected.Status != "returned" || rejected.Stages[0].Feedback != "needs colour" {
		t.Fatalf("unexpected rejected job: %+v", rejected)
	}
}

func TestSelfReviewIsRejected(t *testing.T) {
	handler := newTestServer(t)
	job := startBakeryJob(t, handler)
	do(t, handler, http.MethodPost, "/v1/jobs/"+job.JobID+"/stages/1/submit", `{"content":"draft"}`, map[string]string{"X-User-Id": "ada"})

	rec := do(t, handler, http.MethodPost, "/v1/jobs/"+job.JobID+"/approve", "", map[string]string{"X-User-Id": "ada", "X-User-Role": "admin"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for self review, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUnknownJobIsNotFound(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/v1/jobs/missing", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListJobsForOtherUserNeedsRole(t *testing.T) {
	handler := newTestServer(t)
	startBakeryJob(t, handler)

	rec := do(t, handler, http.MethodGet, "/v1/jobs?user_id=ada", "", map[string]string{"X-User-Id": "cy"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	rec = do(t, handler, http.MethodGet, "/v1/jobs?user_id=ada", "", map[string]string{"X-User-Id": "bo", "X-User-Role": "reviewer"})
	if rec.Code != http.StatusOK || len(decode[jobhttp.ListJobsResponse](t, rec).Items) != 1 {
		t.Fatalf("expected one job for reviewer, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, handler, http.MethodGet, "/v1/jobs?status=bogus", "", map[string]string{"X-User-Id": "ada"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad status, got %d", rec.Code)
	}
}

func TestRegisterProfilePermissions(t *testing.T) {
	handler := newTestServer(t)

	rec := do(t, handler, http.MethodPut, "/v1/profiles/ada", `{"display_name":"Ada L."}`, map[string]string{"X-User-Id": "cy"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 editing another profile, got %d", rec.Code)
	}

	rec = do(t, handler, http.MethodPut, "/v1/profiles/ada", `{"role":"admin"}`, map[string]string{"X-User-Id": "ada"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 self-granting admin, got %d", rec.Code)
	}

	rec = do(t, handler, http.MethodPut, "/v1/profiles/ada", `{"display_name":"Ada L.","class_id":"c1"}`, map[string]string{"X-User-Id": "ada"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if profile := decode[jobhttp.ProfileResponse](t, rec).Profile; profile.DisplayName != "Ada L." || profile.Role != "participant" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestActiveEvents(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/v1/events/active?submission_type=contract_stage", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode[rewardhttp.ListActiveEventsResponse](t, rec)
	if len(resp.Items) != 1 || resp.Items[0].EventID != "double-xp" {
		t.Fatalf("unexpected events: %+v", resp)
	}

	rec = do(t, newTestServer(t), http.MethodGet, "/v1/events/active?submission_type=quest", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type, got %d", rec.Code)
	}
}

func TestLeaderboardRequiresUser(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/v1/leaderboard", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMetricsRoute(t *testing.T) {
	server := newServer(t)
	server.HandleMetrics("/metrics", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "contracthub_job_approvals_total 3\n")
	}))
	handler := server.Handler()

	rec := do(t, handler, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "contracthub_job_approvals_total") {
		t.Fatalf("unexpected metrics response: %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("metrics response should carry a request id")
	}
	if rec := do(t, handler, http.MethodPost, "/metrics", "", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for POST /metrics, got %d", rec.Code)
	}
}
