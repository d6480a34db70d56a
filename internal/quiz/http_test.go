package quiz

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(e *testEngine) chi.Router {
	r := chi.NewRouter()
	NewHTTPHandlers(e.Engine, zerolog.Nop()).Routes(r)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func TestHTTPSessionLifecycle(t *testing.T) {
	e := newTestEngine(t, nil)
	router := newTestRouter(e)
	userID := uuid.New()
	base := "/v1/sessions/" + userID.String()

	rec := doJSON(t, router, http.MethodPost, base, StartRequest{Text: quizText(block(1, 3, "B"), block(2, 1, "C"))})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var prompt Prompt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prompt))
	assert.Equal(t, 2, prompt.Total)
	assert.Equal(t, 3, prompt.Points)

	rec = doJSON(t, router, http.MethodPost, base+"/advance", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodPost, base+"/answer", AnswerRequest{Choice: "b"})
	require.Equal(t, http.StatusOK, rec.Code)
	var fb Feedback
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fb))
	assert.Equal(t, OutcomeCorrect, fb.Outcome)

	rec = doJSON(t, router, http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var step StepResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &step))
	assert.False(t, step.Done)
	require.NotNil(t, step.Question)
	assert.Equal(t, 1, step.Question.Index)

	rec = doJSON(t, router, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 1, status.Index)
	assert.Equal(t, 3, status.Score)
	assert.Equal(t, 4, status.Possible)

	rec = doJSON(t, router, http.MethodPost, base+"/answer", AnswerRequest{Choice: "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, router, http.MethodPost, base+"/answer", AnswerRequest{Choice: "C"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, router, http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &step))
	assert.True(t, step.Done)
	assert.Contains(t, step.Text, "4 out of 4")

	rec = doJSON(t, router, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTPStartErrors(t *testing.T) {
	e := newTestEngine(t, nil)
	router := newTestRouter(e)
	base := "/v1/sessions/" + uuid.New().String()

	rec := doJSON(t, router, http.MethodPost, "/v1/sessions/not-a-uuid", StartRequest{Text: "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, base, StartRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, base, StartRequest{Text: "garbage"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "parse_empty")

	rec = doJSON(t, router, http.MethodPost, base, StartRequest{Topic: "history"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodPost, base, StartRequest{Text: block(1, 1, "A")})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(t, router, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHTTPStatusReportsSessionOnAnotherInstance(t *testing.T) {
	mirror, _ := newMirror(t)
	owner := newMirroredTestEngine(t, nil, mirror)
	other := newMirroredTestEngine(t, nil, mirror)
	userID := uuid.New()
	base := "/v1/sessions/" + userID.String()

	rec := doJSON(t, newTestRouter(other), http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	prompt, err := owner.Start(context.Background(), userID, quizText(block(1, 1, "A")))
	require.NoError(t, err)

	rec = doJSON(t, newTestRouter(other), http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var status Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Elsewhere)
	assert.True(t, status.Active)
	assert.Equal(t, prompt.SessionID, status.SessionID)

	// the owning instance reports its own session in full
	rec = doJSON(t, newTestRouter(owner), http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Elsewhere)
	assert.Equal(t, 1, status.Total)

	require.True(t, owner.Cancel(context.Background(), userID))
	rec = doJSON(t, newTestRouter(other), http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTPAnswerForPreviousQuestionIsStale(t *testing.T) {
	e := newTestEngine(t, nil)
	router := newTestRouter(e)
	userID := uuid.New()
	base := "/v1/sessions/" + userID.String()

	rec := doJSON(t, router, http.MethodPost, base, StartRequest{Text: quizText(block(1, 1, "C"), block(2, 1, "C"))})
	require.Equal(t, http.StatusCreated, rec.Code)

	e.timers.fire(t, userID)

	first, second := 0, 1
	rec = doJSON(t, router, http.MethodPost, base+"/answer", AnswerRequest{Index: &first, Choice: "C"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var fb Feedback
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fb))
	assert.Equal(t, OutcomeStale, fb.Outcome)
	assert.Equal(t, OutcomeTimeout, fb.Recorded)
	assert.Equal(t, 0, fb.Index)

	rec = doJSON(t, router, http.MethodPost, base+"/answer", AnswerRequest{Index: &second, Choice: "C"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fb))
	assert.Equal(t, OutcomeCorrect, fb.Outcome)
	assert.Equal(t, 1, fb.Index)

	ahead := 4
	rec = doJSON(t, router, http.MethodPost, base+"/answer", AnswerRequest{Index: &ahead, Choice: "C"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
