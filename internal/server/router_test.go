package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"procurement-transparency/internal/auth"
	"procurement-transparency/internal/config"
	"procurement-transparency/internal/logging"
	"procurement-transparency/internal/service"
	"procurement-transparency/internal/store"
	"procurement-transparency/internal/testutil"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	auth   *service.AuthService
	tokens *auth.TokenIssuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	st := store.New(db)
	deps := service.Deps{Store: st, Logger: logging.Discard()}
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	authSvc := service.NewAuthService(deps, tokens)

	cfg := &config.Config{
		SessionSecret: "session-secret",
		JWTExpire:     time.Hour,
		CORSOrigins:   []string{"*"},
	}
	r := NewRouter(cfg, Services{
		Projects: service.NewProjectService(deps),
		Reviews:  service.NewReviewService(deps),
		Stats:    service.NewStatisticsService(deps),
		Auth:     authSvc,
		Audit:    service.NewAuditService(deps),
		Tokens:   tokens,
		Users:    st,
	})
	return &testServer{t: t, db: db, router: r, auth: authSvc, tokens: tokens}
}

// tokenFor creates a user with the given role and returns a bearer token.
func (s *testServer) tokenFor(username, role string) string {
	s.t.Helper()
	u, err := s.auth.CreateUser(context.Background(), service.CreateUserInput{
		Username: username, Password: "password123", Role: role,
	})
	if err != nil {
		s.t.Fatalf("create %s: %v", role, err)
	}
	tok, _, err := s.tokens.Generate(u.ID, string(u.Role))
	if err != nil {
		s.t.Fatal(err)
	}
	return tok
}

func (s *testServer) do(method, path string, body interface{}, header http.Header) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			s.t.Fatal(err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") != "" && w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": {"Bearer " + token}}
}

func decode(t *testing.T, raw json.RawMessage, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
}

func validSubmission() map[string]interface{} {
	return map[string]interface{}{
		"review_type":    "Quality Issue",
		"review_text":    "The road surface is already cracking",
		"work_completed": false,
		"quality_rating": 2,
		"geolocation":    map[string]float64{"lat": 27.7, "lng": 85.3},
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(http.MethodGet, "/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
}

func TestListProjects(t *testing.T) {
	s := newTestServer(t)
	testutil.SeedProject(t, s.db, testutil.ProjectFixture{ID: "P1", Ministry: "Ministry of Health"})
	testutil.SeedProject(t, s.db, testutil.ProjectFixture{ID: "P2", Ministry: "Ministry of Education", Plan: `{"contract_amount": 10}`})

	w, env := s.do(http.MethodGet, "/api/projects?ministry=HEALTH", nil, nil)
	if w.Code != http.StatusOK || env.Code != 0 {
		t.Fatalf("status %d: %s", w.Code, w.Body)
	}
	var items []map[string]interface{}
	decode(t, env.Data, &items)
	if len(items) != 1 || items[0]["id"] != "P1" {
		t.Errorf("items %v", items)
	}
	if _, ok := items[0]["citizen_reports_count"]; !ok {
		t.Error("list items must carry citizen_reports_count")
	}

	_, env = s.do(http.MethodGet, "/api/projects?max_amount=100", nil, nil)
	decode(t, env.Data, &items)
	if len(items) != 1 || items[0]["id"] != "P2" {
		t.Errorf("amount filter: %v", items)
	}

	tests := []struct {
		query string
		field string
	}{
		{"min_amount=abc", "min_amount"},
		{"max_amount=NaN", "max_amount"},
		{"limit=ten", "limit"},
		{"status=Sleeping", "status"},
	}
	for _, tt := range tests {
		w, env := s.do(http.MethodGet, "/api/projects?"+tt.query, nil, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d", tt.query, w.Code)
			continue
		}
		var data struct{ Field string }
		decode(t, env.Data, &data)
		if data.Field != tt.field {
			t.Errorf("%s: field %q, want %q", tt.query, data.Field, tt.field)
		}
	}
}

func TestStaticRoutesBesideParams(t *testing.T) {
	s := newTestServer(t)
	testutil.SeedProject(t, s.db, testutil.ProjectFixture{ID: "P1", Ministry: "M"})

	for _, path := range []string{
		"/api/projects/filters/options",
		"/api/projects/stats/overview",
		"/api/projects/P1",
		"/api/projects/P1/progress",
		"/api/projects/P1/statistics",
		"/api/ministries",
		"/api/reviews/P1/all",
		"/api/reviews/P1/summary",
	} {
		if w, _ := s.do(http.MethodGet, path, nil, nil); w.Code != http.StatusOK {
			t.Errorf("GET %s: status %d: %s", path, w.Code, w.Body)
		}
	}
}

func TestProjectNotFound(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{
		"/api/projects/nope",
		"/api/projects/nope/statistics",
		"/api/projects/nope/progress",
		"/api/reviews/nope/all",
		"/api/reviews/nope/summary",
	} {
		w, env := s.do(http.MethodGet, path, nil, nil)
		if w.Code != http.StatusNotFound || env.Code == 0 {
			t.Errorf("GET %s: status %d", path, w.Code)
		}
	}
}

func TestSubmitReview(t *testing.T) {
	s := newTestServer(t)
	testutil.SeedProject(t, s.db, testutil.ProjectFixture{ID: "P1", Ministry: "M"})

	w, env := s.do(http.MethodPost, "/api/reviews/P1/submit", validSubmission(), nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", w.Code, w.Body)
	}
	var review map[string]interface{}
	decode(t, env.Data, &review)
	if review["reporter_name"] != "Anonymous" || review["verified"] != false {
		t.Errorf("review %v", review)
	}
	id, _ := review["review_id"].(string)

	w, env = s.do(http.MethodGet, "/api/reviews/P1/"+id, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get review: %d", w.Code)
	}

	_, env = s.do(http.MethodGet, "/api/projects/P1/statistics", nil, nil)
	var st struct {
		TotalReviews         int            `json:"total_reviews"`
		AverageQualityRating *float64       `json:"average_quality_rating"`
		Breakdown            map[string]int `json:"review_type_breakdown"`
	}
	decode(t, env.Data, &st)
	if st.TotalReviews != 1 || st.AverageQualityRating == nil || *st.AverageQualityRating != 2 || st.Breakdown["Quality Issue"] != 1 {
		t.Errorf("statistics %+v", st)
	}

	w, _ = s.do(http.MethodGet, "/api/reviews/P1/REV-00000000", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown review: status %d", w.Code)
	}
}

func TestSubmitReviewRejected(t *testing.T) {
	s := newTestServer(t)
	testutil.SeedProject(t, s.db, testutil.ProjectFixture{ID: "P1", Ministry: "M"})

	w, env := s.do(http.MethodPost, "/api/reviews/P1/submit", `{"review_type": `, nil)
	if w.Code != http.StatusBadRequest || env.Code != 40002 {
		t.Errorf("malformed body: status %d code %d", w.Code, env.Code)
	}

	bad := validSubmission()
	bad["quality_rating"] = 6
	w, env = s.do(http.MethodPost, "/api/reviews/P1/submit", bad, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d", w.Code)
	}
	var data struct{ Field, Rule string }
	decode(t, env.Data, &data)
	if data.Field != "quality_rating" || data.Rule != "max" {
		t.Errorf("validation data %+v", data)
	}

	w, _ = s.do(http.MethodPost, "/api/reviews/missing/submit", validSubmission(), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown project: status %d", w.Code)
	}
}

func TestPrivilegedRoutes(t *testing.T) {
	s := newTestServer(t)
	testutil.SeedProject(t, s.db, testutil.ProjectFixture{ID: "P1", Ministry: "M"})
	_, env := s.do(http.MethodPost, "/api/reviews/P1/submit", validSubmission(), nil)
	var review struct {
		ReviewID string `json:"review_id"`
	}
	decode(t, env.Data, &review)

	citizen := s.tokenFor("citizen", "citizen")
	official := s.tokenFor("official", "official")
	admin := s.tokenFor("admin", "admin")
	verify := "/api/reviews/P1/" + review.ReviewID + "/verify"

	if w, _ := s.do(http.MethodPost, verify, nil, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous verify: status %d", w.Code)
	}
	if w, _ := s.do(http.MethodPost, verify, nil, bearer(citizen)); w.Code != http.StatusForbidden {
		t.Errorf("citizen verify: status %d", w.Code)
	}
	w, env := s.do(http.MethodPost, verify, nil, bearer(official))
	if w.Code != http.StatusOK {
		t.Fatalf("official verify: status %d: %s", w.Code, w.Body)
	}
	var verified struct{ Verified bool }
	decode(t, env.Data, &verified)
	if !verified.Verified {
		t.Error("review not verified")
	}

	progress := map[string]interface{}{"status": "Completed", "progress_percentage": 100}
	if w, _ := s.do(http.MethodPatch, "/api/projects/P1/progress", progress, bearer(citizen)); w.Code != http.StatusForbidden {
		t.Errorf("citizen progress: status %d", w.Code)
	}
	w, env = s.do(http.MethodPatch, "/api/projects/P1/progress", progress, bearer(admin))
	if w.Code != http.StatusOK {
		t.Fatalf("admin progress: status %d: %s", w.Code, w.Body)
	}
	var p struct {
		Status             string `json:"status"`
		ProgressPercentage int    `json:"progress_percentage"`
	}
	decode(t, env.Data, &p)
	if p.Status != "Completed" || p.ProgressPercentage != 100 {
		t.Errorf("project %+v", p)
	}
	w, _ = s.do(http.MethodPatch, "/api/projects/P1/progress", map[string]int{"progress_percentage": 101}, bearer(admin))
	if w.Code != http.StatusBadRequest {
		t.Errorf("progress 101: status %d", w.Code)
	}

	if w, _ := s.do(http.MethodGet, "/api/audit", nil, bearer(official)); w.Code != http.StatusForbidden {
		t.Errorf("official audit: status %d", w.Code)
	}
	w, env = s.do(http.MethodGet, "/api/audit", nil, bearer(admin))
	if w.Code != http.StatusOK {
		t.Fatalf("admin audit: status %d", w.Code)
	}
	var entries []struct {
		Action   string  `json:"action"`
		Username *string `json:"username"`
	}
	decode(t, env.Data, &entries)
	if len(entries) != 2 || entries[0].Action != "progress_update" || entries[1].Username == nil || *entries[1].Username != "official" {
		t.Errorf("audit entries %+v", entries)
	}
}

func TestBadAuthorizationHeader(t *testing.T) {
	s := newTestServer(t)
	for _, h := range []string{"Token abc", "Bearer not-a-jwt"} {
		w, _ := s.do(http.MethodGet, "/api/projects", nil, http.Header{"Authorization": {h}})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%q: status %d", h, w.Code)
		}
	}
}

func TestRegisterLoginMe(t *testing.T) {
	s := newTestServer(t)
	creds := map[string]string{"username": "sita", "password": "password123", "name": "Sita"}

	w, env := s.do(http.MethodPost, "/api/auth/register", creds, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body)
	}
	var tok struct {
		AccessToken string `json:"access_token"`
		User        struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	decode(t, env.Data, &tok)
	if tok.AccessToken == "" || tok.User.Role != "citizen" {
		t.Errorf("token %+v", tok)
	}

	if w, _ := s.do(http.MethodPost, "/api/auth/register", creds, nil); w.Code != http.StatusConflict {
		t.Errorf("duplicate register: status %d", w.Code)
	}

	w, env = s.do(http.MethodGet, "/api/auth/me", nil, bearer(tok.AccessToken))
	if w.Code != http.StatusOK {
		t.Fatalf("me: %d", w.Code)
	}
	var me struct{ Username string }
	decode(t, env.Data, &me)
	if me.Username != "sita" {
		t.Errorf("me %+v", me)
	}

	if w, _ := s.do(http.MethodGet, "/api/auth/me", nil, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous me: status %d", w.Code)
	}

	wrong := map[string]string{"username": "sita", "password": "nope-nope"}
	if w, _ := s.do(http.MethodPost, "/api/auth/login", wrong, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: status %d", w.Code)
	}

	// сессия из cookie заменяет токен
	w, _ = s.do(http.MethodPost, "/api/auth/login", creds, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d", w.Code)
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("login must set a session cookie")
	}
	h := http.Header{}
	for _, c := range cookies {
		h.Add("Cookie", c.Name+"="+c.Value)
	}
	if w, _ := s.do(http.MethodGet, "/api/auth/me", nil, h); w.Code != http.StatusOK {
		t.Errorf("me via session: status %d", w.Code)
	}
}
