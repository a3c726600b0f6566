package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"mergington-activities/internal/activities"
	"mergington-activities/internal/common/config"
	apphttp "mergington-activities/internal/common/http"
	"mergington-activities/internal/common/logger"
	"mergington-activities/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Address:         "127.0.0.1:0",
		ReadTimeout:     5000,
		WriteTimeout:    5000,
		ShutdownTimeout: 5000,
	}
}

// newTestServer builds a server over a fresh default registry so every test
// starts from the seeded state.
func newTestServer(t *testing.T, mutate func(*Options)) (*Server, *activities.Registry) {
	t.Helper()
	reg := activities.NewDefault()
	opts := Options{
		Config:   createTestServerConfig(),
		Registry: reg,
		Metrics:  prometheus.NewRegistry(),
		Logger:   logger.NewTestLogger(t),
	}
	if mutate != nil {
		mutate(&opts)
	}
	srv, err := New(opts)
	require.NoError(t, err)
	return srv, reg
}

func do(t *testing.T, h http.Handler, method, path string, query url.Values) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	target := path
	if query != nil {
		target += "?" + query.Encode()
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))

	var body map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func activityPath(name string) string {
	return "/activities/" + url.PathEscape(name) + "/signup"
}

func getActivities(t *testing.T, h http.Handler) map[string]models.Activity {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/activities", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]models.Activity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestGetActivitiesReturnsData(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec, body := do(t, srv.Handler(), http.MethodGet, "/activities", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "Chess Club")
	assert.Contains(t, body, "Programming Class")
	chess, ok := body["Chess Club"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, chess, "description")
	assert.Contains(t, chess, "participants")
	assert.Contains(t, chess, "max_participants")
}

func TestSignupAddsParticipant(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	email, activity := "newstudent@mergington.edu", "Chess Club"

	rec, body := do(t, srv.Handler(), http.MethodPost, activityPath(activity), url.Values{"email": {email}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body["message"], fmt.Sprintf("Signed up %s for %s", email, activity))
	assert.Contains(t, getActivities(t, srv.Handler())[activity].Participants, email)
}

func TestSignupDuplicateIsError(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	activity := "Programming Class"
	email := activities.DefaultSeed()[activity].Participants[0]

	rec, body := do(t, srv.Handler(), http.MethodPost, activityPath(activity), url.Values{"email": {email}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Student already signed up for this activity", body["detail"])
}

func TestUnregisterRemovesParticipant(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	activity := "Gym Class"
	email := activities.DefaultSeed()[activity].Participants[0]

	rec, body := do(t, srv.Handler(), http.MethodDelete, activityPath(activity), url.Values{"email": {email}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body["message"], fmt.Sprintf("Unregistered %s from %s", email, activity))
	assert.NotContains(t, getActivities(t, srv.Handler())[activity].Participants, email)
}

func TestUnregisterNonexistentIs404(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec, body := do(t, srv.Handler(), http.MethodDelete, activityPath("Basketball Team"),
		url.Values{"email": {"notregistered@mergington.edu"}})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Student not registered for this activity", body["detail"])
}

func TestSignupWhenActivityFull(t *testing.T) {
	srv, reg := newTestServer(t, nil)
	for i := 0; i < 9; i++ {
		_, err := reg.Signup("Tennis Club", fmt.Sprintf("student%d@mergington.edu", i))
		require.NoError(t, err)
	}

	rec, body := do(t, srv.Handler(), http.MethodPost, activityPath("Tennis Club"),
		url.Values{"email": {"overflow@mergington.edu"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Activity is full", body["detail"])
	assert.Len(t, getActivities(t, srv.Handler())["Tennis Club"].Participants, 10)
}

func TestSignupNonexistentActivity(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec, body := do(t, srv.Handler(), http.MethodPost, activityPath("NonExistentActivity"),
		url.Values{"email": {"newstudent@mergington.edu"}})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Activity not found", body["detail"])
}

func TestUnregisterFromNonexistentActivity(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec, body := do(t, srv.Handler(), http.MethodDelete, activityPath("NonExistentActivity"),
		url.Values{"email": {"student@mergington.edu"}})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Activity not found", body["detail"])
}

func TestUnknownActivityIs404RegardlessOfEmail(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	for _, method := range []string{http.MethodPost, http.MethodDelete} {
		for _, email := range []string{"", strings.Repeat("a", 300)} {
			t.Run(fmt.Sprintf("%s email of %d chars", method, len(email)), func(t *testing.T) {
				rec, body := do(t, srv.Handler(), method, activityPath("Nonexistent Club"), url.Values{"email": {email}})

				assert.Equal(t, http.StatusNotFound, rec.Code)
				assert.Equal(t, "Activity not found", body["detail"])
			})
		}
	}
}

func TestSignupEmptyEmailOnKnownActivity(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec, body := do(t, srv.Handler(), http.MethodPost, activityPath("Chess Club"), url.Values{"email": {""}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Signed up  for Chess Club", body["message"])
}

func TestSignupMissingEmailIs422(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec, body := do(t, srv.Handler(), http.MethodPost, activityPath("Chess Club"), nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "email is required", body["detail"])
}

func TestServersDoNotShareState(t *testing.T) {
	first, _ := newTestServer(t, nil)
	second, _ := newTestServer(t, nil)

	rec, _ := do(t, first.Handler(), http.MethodPost, activityPath("Math Club"), url.Values{"email": {"x@mergington.edu"}})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.NotContains(t, getActivities(t, second.Handler())["Math Club"].Participants, "x@mergington.edu")
}

func TestConcurrentSignupsRespectCapacity(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	h := srv.Handler()

	var wg sync.WaitGroup
	var mu sync.Mutex
	statuses := map[int]int{}
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := httptest.NewRecorder()
			target := activityPath("Tennis Club") + "?email=" + url.QueryEscape(fmt.Sprintf("racer%d@mergington.edu", i))
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, target, nil))
			mu.Lock()
			statuses[rec.Code]++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 9, statuses[http.StatusOK])
	assert.Equal(t, 31, statuses[http.StatusBadRequest])
	assert.Len(t, getActivities(t, h)["Tennis Club"].Participants, 10)
}

func TestGetSingleActivity(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec, body := do(t, srv.Handler(), http.MethodGet, "/activities/"+url.PathEscape("Debate Team"), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 12, body["max_participants"])
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, activityPath("Chess Club"), nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, rec.Header().Get(apphttp.RequestIDHeader))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(apphttp.RequestIDHeader, "client-supplied")
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "client-supplied", rec.Header().Get(apphttp.RequestIDHeader))
}

func TestSinkReceivesRequestID(t *testing.T) {
	var got []models.EnrollmentEvent
	srv, _ := newTestServer(t, func(o *Options) {
		o.Sink = sinkFunc(func(e models.EnrollmentEvent) { got = append(got, e) })
	})

	req := httptest.NewRequest(http.MethodPost, activityPath("Art Club")+"?email=mia2@mergington.edu", nil)
	req.Header.Set(apphttp.RequestIDHeader, "trace-me")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, got, 1)
	assert.Equal(t, "trace-me", got[0].RequestID)
	assert.Equal(t, models.EnrollmentSignup, got[0].Type)
}

func TestHealthAndReady(t *testing.T) {
	healthy := true
	srv, _ := newTestServer(t, func(o *Options) {
		o.Checks = []Check{{
			Name: "postgres",
			Fn: func(context.Context) error {
				if healthy {
					return nil
				}
				return fmt.Errorf("connection refused")
			},
		}}
	})

	rec, body := do(t, srv.Handler(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])

	rec, body = do(t, srv.Handler(), http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", body["status"])

	healthy = false
	rec, body = do(t, srv.Handler(), http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, map[string]interface{}{"postgres": "connection refused"}, body["checks"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	do(t, srv.Handler(), http.MethodGet, "/activities", nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	text := rec.Body.String()
	assert.Contains(t, text, `activity_capacity{activity="Tennis Club"} 10`)
	assert.Contains(t, text, `http_requests_total{method="GET",route="GET /activities",status="200"}`)
}

func TestRecentEnrollments(t *testing.T) {
	recent := recentFunc(func(_ context.Context, limit int) ([]models.EnrollmentEvent, error) {
		events := make([]models.EnrollmentEvent, limit)
		for i := range events {
			events[i] = models.EnrollmentEvent{Activity: "Chess Club", Type: models.EnrollmentSignup}
		}
		return events, nil
	})
	srv, _ := newTestServer(t, func(o *Options) { o.Recent = recent })

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/enrollments/recent?limit=3", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var events []models.EnrollmentEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	assert.Len(t, events, 3)

	rec, body := do(t, srv.Handler(), http.MethodGet, "/enrollments/recent", url.Values{"limit": {"zero"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, body["detail"], "limit must be an integer")
}

func TestRecentEnrollmentsDisabled(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/enrollments/recent", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStaticFilesAndRootRedirect(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Mergington High School</h1>"), 0o644))
	srv, _ := newTestServer(t, func(o *Options) { o.Config.StaticDir = dir })

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/static/", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Mergington High School")

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/missing.js", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPanicRecovery(t *testing.T) {
	log := logger.NewTestLogger(t)
	h := recoverPanic(log, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/activities", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"Internal server error"}`, rec.Body.String())
}

func TestNew_RequiresRegistry(t *testing.T) {
	_, err := New(Options{Config: createTestServerConfig()})
	assert.Error(t, err)
}

func TestServe_GracefulShutdown(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	client := apphttp.NewClient("http://"+ln.Addr().String(), 2*time.Second)
	require.Eventually(t, func() bool {
		resp, err := client.ListActivities(context.Background())
		return err == nil && resp.Status == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

type sinkFunc func(models.EnrollmentEvent)

func (f sinkFunc) Record(_ context.Context, e models.EnrollmentEvent) error {
	f(e)
	return nil
}

type recentFunc func(ctx context.Context, limit int) ([]models.EnrollmentEvent, error)

func (f recentFunc) Recent(ctx context.Context, limit int) ([]models.EnrollmentEvent, error) {
	return f(ctx, limit)
}
