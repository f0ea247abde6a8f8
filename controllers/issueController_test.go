package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"civicplus-be/controllers"
	"civicplus-be/middlewares"
	"civicplus-be/models"
	"civicplus-be/routes"
	"civicplus-be/store"
	authUtils "civicplus-be/utils"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T, seed bool) (*gin.Engine, store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")

	s, err := store.Open(context.Background(), store.Options{
		Backend: store.BackendMemory,
		Seed:    seed,
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	r := gin.New()
	routes.AuthRoutes(r, controllers.NewAuthController(s))
	routes.IssueRoutes(r, controllers.NewIssueController(s),
		middlewares.IssueRateLimiter(nil, "test_limit", 10))
	return r, s
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	out := map[string]json.RawMessage{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func decodeIssue(t *testing.T, w *httptest.ResponseRecorder) models.Issue {
	t.Helper()
	var issue models.Issue
	if err := json.Unmarshal(decodeBody(t, w)["issue"], &issue); err != nil {
		t.Fatalf("decode issue: %v", err)
	}
	return issue
}

func testToken(t *testing.T, email string) string {
	t.Helper()
	token, err := authUtils.GenerateToken(email)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func TestCreateIssueRequiresAuth(t *testing.T) {
	r, _ := newTestRouter(t, false)

	w := doJSON(t, r, http.MethodPost, "/api/issues", gin.H{
		"title": "t", "description": "d", "issueType": "pothole",
	}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestCreateAndGetIssue(t *testing.T) {
	r, _ := newTestRouter(t, false)
	token := testToken(t, "citizen@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/issues", gin.H{
		"title":       "Overflowing bins near market",
		"description": "Bins have not been emptied for a week",
		"issueType":   "garbage",
		"priority":    "high",
		"ward":        "ward2",
		"location":    gin.H{"address": "Market Road"},
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	created := decodeIssue(t, w)
	if created.ID != 1 || created.Status != models.StatusPending {
		t.Fatalf("unexpected created issue: %+v", created)
	}
	if created.ReportedBy != "citizen@example.com" {
		t.Fatalf("reportedBy = %q, want the authenticated caller", created.ReportedBy)
	}

	w = doJSON(t, r, http.MethodGet, "/api/issues/1", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", w.Code)
	}
	got := decodeIssue(t, w)
	if got.Title != "Overflowing bins near market" || got.Location.Address != "Market Road" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestCreateIssueMissingFields(t *testing.T) {
	r, _ := newTestRouter(t, false)
	token := testToken(t, "citizen@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/issues", gin.H{
		"description": "no title here", "issueType": "pothole",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetIssueNotFoundAndBadID(t *testing.T) {
	r, _ := newTestRouter(t, false)

	if w := doJSON(t, r, http.MethodGet, "/api/issues/42", nil, ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing issue status = %d, want 404", w.Code)
	}
	if w := doJSON(t, r, http.MethodGet, "/api/issues/abc", nil, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d, want 400", w.Code)
	}
}

func TestListIssuesFiltersAndPaginates(t *testing.T) {
	r, s := newTestRouter(t, false)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		d := models.Issue{
			Title:       "Pothole report",
			Description: "bumpy",
			IssueType:   models.Pothole,
		}
		if i%2 == 0 {
			d.Priority = models.PriorityHigh
		}
		if _, err := s.CreateIssue(ctx, d); err != nil {
			t.Fatalf("seed issue: %v", err)
		}
	}

	w := doJSON(t, r, http.MethodGet, "/api/issues?page=2&limit=10", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var listing struct {
		Issues      []models.Issue `json:"issues"`
		TotalIssues int            `json:"totalIssues"`
		TotalPages  int            `json:"totalPages"`
		CurrentPage int            `json:"currentPage"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if listing.TotalIssues != 12 || listing.TotalPages != 2 || listing.CurrentPage != 2 {
		t.Fatalf("pagination wrong: %+v", listing)
	}
	if len(listing.Issues) != 2 {
		t.Fatalf("page 2 has %d issues, want 2", len(listing.Issues))
	}

	w = doJSON(t, r, http.MethodGet, "/api/issues?priority=high", nil, "")
	if err := json.Unmarshal(w.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode filtered listing: %v", err)
	}
	if listing.TotalIssues != 6 {
		t.Fatalf("high priority total = %d, want 6", listing.TotalIssues)
	}
}

func TestUpdateStatusClearsRatingOnReopen(t *testing.T) {
	r, s := newTestRouter(t, false)
	token := testToken(t, "admin@example.com")

	if _, err := s.CreateIssue(context.Background(), models.Issue{
		Title: "t", Description: "d", IssueType: models.Pothole,
	}); err != nil {
		t.Fatalf("seed issue: %v", err)
	}

	w := doJSON(t, r, http.MethodPut, "/api/issues/1/status", gin.H{
		"status": "resolved", "adminNotes": "fixed",
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("resolve status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/issues/1/rate", gin.H{
		"rating": 5, "comments": "quick work",
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("rate status = %d: %s", w.Code, w.Body.String())
	}
	rated := decodeIssue(t, w)
	if rated.Rating == nil || *rated.Rating != 5 {
		t.Fatalf("rating = %v, want 5", rated.Rating)
	}

	w = doJSON(t, r, http.MethodPut, "/api/issues/1/status", gin.H{
		"status": "delayed",
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("reopen status = %d", w.Code)
	}
	reopened := decodeIssue(t, w)
	if reopened.Rating != nil {
		t.Fatalf("rating survived reopen: %v", *reopened.Rating)
	}
}

func TestRateUnresolvedIssueRejected(t *testing.T) {
	r, s := newTestRouter(t, false)
	if _, err := s.CreateIssue(context.Background(), models.Issue{
		Title: "t", Description: "d", IssueType: models.Pothole,
	}); err != nil {
		t.Fatalf("seed issue: %v", err)
	}

	w := doJSON(t, r, http.MethodPost, "/api/issues/1/rate", gin.H{"rating": 4}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
	}
}

func TestVoteAcceptsNegativeValues(t *testing.T) {
	r, s := newTestRouter(t, false)
	if _, err := s.CreateIssue(context.Background(), models.Issue{
		Title: "t", Description: "d", IssueType: models.Pothole,
	}); err != nil {
		t.Fatalf("seed issue: %v", err)
	}

	if w := doJSON(t, r, http.MethodPost, "/api/issues/1/vote", gin.H{"voteValue": 2}, ""); w.Code != http.StatusOK {
		t.Fatalf("upvote status = %d: %s", w.Code, w.Body.String())
	}
	w := doJSON(t, r, http.MethodPost, "/api/issues/1/vote", gin.H{"voteValue": -1}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("downvote status = %d: %s", w.Code, w.Body.String())
	}
	voted := decodeIssue(t, w)
	if voted.Votes != 2 || voted.VoteScore != 1 {
		t.Fatalf("votes=%d score=%d, want 2 and 1", voted.Votes, voted.VoteScore)
	}
}

func TestStatisticsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, true)

	w := doJSON(t, r, http.MethodGet, "/api/statistics", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var got struct {
		Total    int `json:"total"`
		Pending  int `json:"pending"`
		Resolved int `json:"resolved"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode statistics: %v", err)
	}
	if got.Total != 2 || got.Pending != 1 || got.Resolved != 1 {
		t.Fatalf("unexpected statistics: %+v", got)
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, true)

	w := doJSON(t, r, http.MethodGet, "/api/leaderboard", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var got struct {
		Wards []struct {
			Ward string `json:"ward"`
		} `json:"wards"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode leaderboard: %v", err)
	}
	if len(got.Wards) == 0 {
		t.Fatal("expected at least one ward in the leaderboard")
	}
}
