package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lockedin/internal/config"
	"lockedin/internal/delivery/http/handler"
	"lockedin/internal/delivery/http/middleware"
	"lockedin/internal/delivery/http/routes"
	v1 "lockedin/internal/delivery/http/routes/v1"
	"lockedin/internal/domain/job"
	"lockedin/internal/domain/match"
	"lockedin/internal/domain/profile"
	"lockedin/internal/domain/savedsearch"
	"lockedin/internal/domain/user"
	"lockedin/internal/pkg/jwt"
	"lockedin/internal/repository/memory"
	"lockedin/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type semanticResponse struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type pagedData struct {
	Items      json.RawMessage `json:"items"`
	Pagination struct {
		Page       int `json:"page"`
		PageSize   int `json:"page_size"`
		TotalPages int `json:"total_pages"`
		Total      int `json:"total"`
	} `json:"pagination"`
}

type testServer struct {
	app   *fiber.App
	store *memory.Store
	jwt   *jwt.HMACService
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return assert.AnError }

func newTestServer(t *testing.T, health *handler.HealthHandler) *testServer {
	t.Helper()

	store := memory.NewStore()
	ev := usecase.NewSearchEvaluator(store.Candidates(), nil)
	tr := usecase.NewMatchTracker(ev, store.SearchMatches(), store.SavedSearches(), nil)

	svc := jwt.NewHMACService(testSecret)
	registry := routes.NewRegistry(
		health,
		middleware.NewAuthMiddleware(svc),
		v1.Handlers{
			Recommendations: handler.NewRecommendationHandler(usecase.NewRecommendationUsecase(store.Jobs(), store.Candidates(), nil, 0, nil)),
			SavedSearches:   handler.NewSavedSearchHandler(usecase.NewSavedSearchUsecase(store.SavedSearches(), tr, ev, nil, 0, nil)),
			Notifications:   handler.NewNotificationHandler(usecase.NewNotificationHistoryUsecase(store.Notifications(), store.SavedSearches(), nil)),
		},
	)

	cfg := config.Config{App: config.AppConfig{AppName: "lockedin-test"}}
	return &testServer{app: NewHTTP(cfg, nil, registry), store: store, jwt: svc}
}

func (s *testServer) token(t *testing.T, role string, profileID uuid.UUID) string {
	t.Helper()
	tok, err := s.jwt.Sign(uuid.New(), role, profileID, time.Hour)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (int, semanticResponse) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out semanticResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, resp.StatusCode, out.Status)
	return resp.StatusCode, out
}

func TestHTTP_RequiresToken(t *testing.T) {
	s := newTestServer(t, nil)

	status, body := s.do(t, http.MethodGet, "/api/v1/saved-searches", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Unauthorized", body.Message)

	status, _ = s.do(t, http.MethodGet, "/api/v1/saved-searches", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestHTTP_RecruiterEndpointsRejectJobSeekers(t *testing.T) {
	s := newTestServer(t, nil)
	seeker := s.token(t, user.RoleNameJobSeeker, uuid.New())

	status, _ := s.do(t, http.MethodGet, "/api/v1/saved-searches", seeker, "")
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodGet, "/api/v1/notifications", seeker, "")
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodGet, "/api/v1/recruiters/recommendations", seeker, "")
	assert.Equal(t, http.StatusForbidden, status)

	recruiter := s.token(t, user.RoleNameRecruiter, uuid.New())
	status, _ = s.do(t, http.MethodGet, "/api/v1/jobs/recommendations", recruiter, "")
	assert.Equal(t, http.StatusForbidden, status)
}

func TestHTTP_SavedSearchLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	recruiter := s.token(t, user.RoleNameRecruiter, uuid.New())

	status, body := s.do(t, http.MethodPost, "/api/v1/saved-searches", recruiter,
		`{"name":"  Go devs ","skills":["go"," Go ","SQL"],"notification_frequency":"weekly"}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "created", body.Message)

	var created struct {
		ID                    uuid.UUID `json:"id"`
		Name                  string    `json:"name"`
		IsActive              bool      `json:"is_active"`
		NotifyOnNewMatches    bool      `json:"notify_on_new_matches"`
		NotificationFrequency string    `json:"notification_frequency"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &created))
	assert.Equal(t, "Go devs", created.Name)
	assert.True(t, created.IsActive)
	assert.True(t, created.NotifyOnNewMatches)
	assert.Equal(t, "weekly", created.NotificationFrequency)

	status, body = s.do(t, http.MethodGet, "/api/v1/saved-searches", recruiter, "")
	require.Equal(t, http.StatusOK, status)
	var list []struct {
		ID             uuid.UUID `json:"id"`
		PendingMatches *int      `json:"pending_matches"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	require.NotNil(t, list[0].PendingMatches)

	path := "/api/v1/saved-searches/" + created.ID.String()

	status, body = s.do(t, http.MethodPatch, path+"/active", recruiter, `{"is_active":false}`)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body.Data), `"is_active":false`)

	status, _ = s.do(t, http.MethodPatch, path+"/active", recruiter, `{}`)
	assert.Equal(t, http.StatusBadRequest, status)

	other := s.token(t, user.RoleNameRecruiter, uuid.New())
	edit := `{"name":"Data people","skills":["SQL"],"location":"Jakarta","notification_frequency":"daily"}`

	status, _ = s.do(t, http.MethodPut, path, other, edit)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, http.MethodPut, path, recruiter, `{"name":"x","experience_level":"guru"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = s.do(t, http.MethodPut, path, recruiter, edit)
	require.Equal(t, http.StatusOK, status)
	var edited struct {
		Name                  string   `json:"name"`
		Skills                []string `json:"skills"`
		Location              string   `json:"location"`
		IsActive              bool     `json:"is_active"`
		NotificationFrequency string   `json:"notification_frequency"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &edited))
	assert.Equal(t, "Data people", edited.Name)
	assert.Equal(t, []string{"SQL"}, edited.Skills)
	assert.Equal(t, "Jakarta", edited.Location)
	assert.False(t, edited.IsActive, "editing does not re-activate")
	assert.Equal(t, "daily", edited.NotificationFrequency)

	status, _ = s.do(t, http.MethodDelete, path, other, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, http.MethodDelete, path, recruiter, "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodDelete, path, recruiter, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHTTP_SavedSearchValidation(t *testing.T) {
	s := newTestServer(t, nil)
	recruiter := s.token(t, user.RoleNameRecruiter, uuid.New())

	status, _ := s.do(t, http.MethodPost, "/api/v1/saved-searches", recruiter, `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodPost, "/api/v1/saved-searches", recruiter, `{"name":"x","notification_frequency":"hourly"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodDelete, "/api/v1/saved-searches/not-a-uuid", recruiter, "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHTTP_SavedSearchResultsArePaged(t *testing.T) {
	s := newTestServer(t, nil)
	recruiterID := uuid.New()
	recruiter := s.token(t, user.RoleNameRecruiter, recruiterID)

	for i := 0; i < 14; i++ {
		s.store.AddCandidate(profile.Candidate{UserID: uuid.New(), SkillNames: []string{"Go"}, IsPublic: true})
	}
	ss := s.store.PutSearch(savedsearch.SavedSearch{
		RecruiterID:        recruiterID,
		Name:               "gophers",
		Criteria:           savedsearch.Criteria{Skills: []string{"Go"}},
		IsActive:           true,
		NotifyOnNewMatches: true,
		Frequency:          savedsearch.FrequencyDaily,
		CreatedAt:          time.Now().UTC(),
	})

	status, body := s.do(t, http.MethodGet, "/api/v1/saved-searches/"+ss.ID.String()+"/results?page=2", recruiter, "")
	require.Equal(t, http.StatusOK, status)

	var paged pagedData
	require.NoError(t, json.Unmarshal(body.Data, &paged))
	assert.Equal(t, 2, paged.Pagination.Page)
	assert.Equal(t, usecase.ResultsPageSize, paged.Pagination.PageSize)
	assert.Equal(t, 2, paged.Pagination.TotalPages)
	assert.Equal(t, 14, paged.Pagination.Total)

	var items struct {
		SavedSearch struct {
			ID uuid.UUID `json:"id"`
		} `json:"saved_search"`
		Candidates []json.RawMessage `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal(paged.Items, &items))
	assert.Equal(t, ss.ID, items.SavedSearch.ID)
	assert.Len(t, items.Candidates, 2)
}

func TestHTTP_Notifications(t *testing.T) {
	s := newTestServer(t, nil)
	recruiterID := uuid.New()
	recruiter := s.token(t, user.RoleNameRecruiter, recruiterID)

	ss := s.store.PutSearch(savedsearch.SavedSearch{
		RecruiterID:        recruiterID,
		Name:               "gophers",
		IsActive:           true,
		NotifyOnNewMatches: true,
		Frequency:          savedsearch.FrequencyImmediate,
		CreatedAt:          time.Now().UTC(),
	})
	n, err := s.store.Notifications().Create(context.Background(), match.SearchNotification{
		SavedSearchID:    ss.ID,
		NotificationType: savedsearch.FrequencyImmediate,
		MatchesCount:     3,
		EmailSent:        true,
	})
	require.NoError(t, err)

	status, body := s.do(t, http.MethodGet, "/api/v1/notifications", recruiter, "")
	require.Equal(t, http.StatusOK, status)
	var paged pagedData
	require.NoError(t, json.Unmarshal(body.Data, &paged))
	assert.Equal(t, 1, paged.Pagination.Total)
	assert.Contains(t, string(paged.Items), `"saved_search_name":"gophers"`)

	status, body = s.do(t, http.MethodGet, "/api/v1/notifications/unread-count", recruiter, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"unread":1}`, string(body.Data))

	other := s.token(t, user.RoleNameRecruiter, uuid.New())
	status, _ = s.do(t, http.MethodPost, "/api/v1/notifications/"+n.ID.String()+"/read", other, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, http.MethodPost, "/api/v1/notifications/"+n.ID.String()+"/read", recruiter, "")
	assert.Equal(t, http.StatusOK, status)

	status, body = s.do(t, http.MethodGet, "/api/v1/notifications/stats", recruiter, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"total_last_30_days":1,"unread":0,"active_searches":1}`, string(body.Data))
}

func TestHTTP_JobRecommendations(t *testing.T) {
	s := newTestServer(t, nil)
	me := s.store.AddCandidate(profile.Candidate{UserID: uuid.New(), SkillNames: []string{"Go"}, IsPublic: true})
	s.store.AddPosting(job.Posting{
		RecruiterID:        uuid.New(),
		Title:              "Backend",
		RequiredSkillNames: []string{"Go"},
		IsActive:           true,
		IsPublished:        true,
	})

	status, body := s.do(t, http.MethodGet, "/api/v1/jobs/recommendations", s.token(t, user.RoleNameJobSeeker, me.ID), "")
	require.Equal(t, http.StatusOK, status)

	var out struct {
		Mode  string            `json:"mode"`
		Items []json.RawMessage `json:"items"`
		High  []json.RawMessage `json:"high"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &out))
	assert.Equal(t, "personalized", out.Mode)
	assert.Len(t, out.Items, 1)
	assert.Len(t, out.High, 1)
}

func TestHTTP_Health(t *testing.T) {
	s := newTestServer(t, nil)
	status, body := s.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"database":"ok","cache":"disabled"}`, string(body.Data))

	s = newTestServer(t, handler.NewHealthHandler(nil, failingPinger{}))
	status, body = s.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"database":"ok","cache":"degraded"}`, string(body.Data))

	s = newTestServer(t, handler.NewHealthHandler(failingPinger{}, nil))
	status, body = s.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Contains(t, string(body.Data), `"database":"down"`)
}
