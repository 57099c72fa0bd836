package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vytor/linguaflash/internal/curriculum"
	"github.com/vytor/linguaflash/internal/engine"
	"github.com/vytor/linguaflash/internal/models"
	"github.com/vytor/linguaflash/internal/repository/sqlite"
	"github.com/vytor/linguaflash/internal/services"
	"github.com/vytor/linguaflash/internal/testutil"
	"github.com/vytor/linguaflash/internal/worker"
)

type failingPinger struct{}

func (failingPinger) PingContext(context.Context) error { return stderrors.New("down") }

func newTestServer(t *testing.T) (*httptest.Server, *engine.FixedClock) {
	db := testutil.NewTestDB(t)
	t.Cleanup(func() { testutil.MustClose(t, db) })

	pool := worker.NewPool(2, 8)
	pool.Start(context.Background())
	t.Cleanup(pool.Stop)

	cur, err := curriculum.Default()
	require.NoError(t, err)
	clock := &engine.FixedClock{T: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc := services.NewLearnerService(sqlite.NewLearnerRepository(db), engine.New(engine.WithClock(clock)), cur, pool, 2)

	srv := httptest.NewServer(NewServer(svc, db).Routes())
	t.Cleanup(srv.Close)
	return srv, clock
}

func do(t *testing.T, method, url, body string, out any) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func createLearner(t *testing.T, base string) models.LearnerState {
	t.Helper()
	var st models.LearnerState
	resp := do(t, http.MethodPost, base+"/learners", `{"name":"Ana","language":"es","proficiency":"beginner"}`, &st)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return st
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))

	resp = do(t, http.MethodGet, srv.URL+"/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReady_DatabaseDown(t *testing.T) {
	rec := httptest.NewRecorder()
	s := &Server{DB: failingPinger{}}
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCreateAndFetchLearner(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createLearner(t, srv.URL)

	var fetched models.LearnerState
	resp := do(t, http.MethodGet, srv.URL+"/learners/"+created.Profile.ID, "", &fetched)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created.Profile.ID, fetched.Profile.ID)
	assert.Len(t, fetched.Lessons, 3)

	var list []models.LearnerProfile
	do(t, http.MethodGet, srv.URL+"/learners", "", &list)
	require.Len(t, list, 1)
}

func TestCompleteLessonFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createLearner(t, srv.URL).Profile.ID

	var res engine.Result
	resp := do(t, http.MethodPost, srv.URL+"/learners/"+id+"/lessons/lesson-1/complete", "", &res)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"lesson-2"}, res.Unlocked)
	assert.Contains(t, res.Earned, "achievement-1")

	var errBody errorBody
	resp = do(t, http.MethodPost, srv.URL+"/learners/"+id+"/lessons/lesson-1/complete", "", &errBody)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INVALID_TRANSITION", errBody.Error.Code)

	var next models.Lesson
	do(t, http.MethodGet, srv.URL+"/learners/"+id+"/lessons/next", "", &next)
	assert.Equal(t, "lesson-2", next.ID)
}

func TestReviewCardAndDueQueue(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createLearner(t, srv.URL).Profile.ID

	var due []models.ReviewCard
	do(t, http.MethodGet, srv.URL+"/learners/"+id+"/due?limit=5", "", &due)
	require.Len(t, due, 3)

	var res engine.Result
	resp := do(t, http.MethodPost, srv.URL+"/learners/"+id+"/cards/card-1/review", `{"outcome":"easy"}`, &res)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.InDelta(t, 2.65, res.State.Cards[0].EaseFactor, 1e-9)

	do(t, http.MethodGet, srv.URL+"/learners/"+id+"/due", "", &due)
	assert.Len(t, due, 2)

	var errBody errorBody
	resp = do(t, http.MethodPost, srv.URL+"/learners/"+id+"/cards/card-1/review", `{"outcome":"perfect"}`, &errBody)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "OUT_OF_RANGE", errBody.Error.Code)
}

func TestChallengeEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createLearner(t, srv.URL).Profile.ID

	var res engine.Result
	resp := do(t, http.MethodPost, srv.URL+"/learners/"+id+"/challenges/challenge-1/progress", `{"delta":10}`, &res)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"challenge-1"}, res.CompletedChallenges)
	assert.Equal(t, 20, res.XPAwarded)

	var errBody errorBody
	resp = do(t, http.MethodPost, srv.URL+"/learners/"+id+"/challenges/challenge-2/progress", `{"delta":-2}`, &errBody)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/learners/"+id+"/challenges/challenge-2/complete", "", &res)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 15, res.XPAwarded)
}

func TestSummaryAndLanguages(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createLearner(t, srv.URL).Profile.ID

	var sum services.Summary
	resp := do(t, http.MethodGet, srv.URL+"/learners/"+id+"/summary", "", &sum)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, sum.NextLesson)
	assert.Equal(t, "lesson-1", sum.NextLesson.ID)
	assert.Equal(t, 3, sum.DueCards)

	var langs []curriculum.Language
	do(t, http.MethodGet, srv.URL+"/languages", "", &langs)
	assert.NotEmpty(t, langs)

	var errBody errorBody
	resp = do(t, http.MethodPut, srv.URL+"/learners/"+id+"/language", `{"language":"ko","proficiency":"beginner"}`, &errBody)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", errBody.Error.Code)
}

func TestErrorResponses(t *testing.T) {
	srv, _ := newTestServer(t)

	var errBody errorBody
	resp := do(t, http.MethodGet, srv.URL+"/learners/nobody", "", &errBody)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errBody.Error.Code)

	resp = do(t, http.MethodPost, srv.URL+"/learners", `{"name":`, &errBody)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "BAD_REQUEST", errBody.Error.Code)

	resp = do(t, http.MethodPost, srv.URL+"/learners", `{"name":"Ana","language":"es","age":3}`, &errBody)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/learners/x/due?limit=abc", "", &errBody)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal error", body.Error.Message)
}
