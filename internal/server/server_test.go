package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/warranty-cli/internal/advisor"
	"github.com/sells-group/warranty-cli/internal/model"
	"github.com/sells-group/warranty-cli/internal/risk"
	"github.com/sells-group/warranty-cli/internal/store"
)

type cannedGenerator struct {
	response string
}

func (c *cannedGenerator) Generate(context.Context, string) (string, error) {
	return c.response, nil
}

type memStore struct {
	evals map[string]model.Evaluation
	next  int
}

func newMemStore() *memStore {
	return &memStore{evals: map[string]model.Evaluation{}}
}

func (m *memStore) SaveEvaluation(_ context.Context, eval model.Evaluation) (*model.Evaluation, error) {
	m.next++
	eval.ID = "eval-" + string(rune('0'+m.next))
	m.evals[eval.ID] = eval
	return &eval, nil
}

func (m *memStore) GetEvaluation(_ context.Context, id string) (*model.Evaluation, error) {
	if eval, ok := m.evals[id]; ok {
		return &eval, nil
	}
	return nil, nil
}

func (m *memStore) ListEvaluations(_ context.Context, filter store.EvaluationFilter) ([]model.Evaluation, error) {
	var out []model.Evaluation
	for _, eval := range m.evals {
		if filter.Verdict != "" && eval.Assessment.Verdict != filter.Verdict {
			continue
		}
		out = append(out, eval)
	}
	return out, nil
}

func (m *memStore) Migrate(context.Context) error { return nil }
func (m *memStore) Close() error                  { return nil }

func newTestServer(t *testing.T, gen risk.TextGenerator, st store.Store) http.Handler {
	t.Helper()
	adv := advisor.New(risk.NewEstimator(gen), st)
	return New(adv, st, 0).Router([]string{"*"})
}

func TestHealth(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, nil, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestEstimate_NoCredentialReturnsSimulated(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, nil, nil)
	body := bytes.NewBufferString(`{"product_name":"MacBook Air M2"}`)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/estimate", body))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp estimateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Estimate)
	assert.Equal(t, 12, resp.Estimate.Probability)
	assert.Equal(t, model.EstimateSourceSimulated, resp.Source)
}

func TestEstimate_ParsesServiceResponse(t *testing.T) {
	t.Parallel()

	gen := &cannedGenerator{response: "```json\n" +
		`{"probability": 27, "reason": "hinge failures", "source": "Wirecutter"}` + "\n```"}
	h := newTestServer(t, gen, nil)
	body := bytes.NewBufferString(`{"product_name":"MacBook Air M2"}`)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/estimate", body))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp estimateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 27, resp.Estimate.Probability)
	assert.Equal(t, model.EstimateSourceAI, resp.Source)
}

func TestEstimate_BadRequests(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, nil, nil)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", ``},
		{"missing product name", `{}`},
		{"malformed json", `{"product_name":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/estimate", bytes.NewBufferString(tt.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestEvaluate_ManualProbability(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	h := newTestServer(t, nil, st)
	body := bytes.NewBufferString(`{"name":"Sony WH-1000XM5 Headphones","cost":350,"warranty_cost":60,"warranty_years":2,"probability":12}`)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/evaluate", body))

	require.Equal(t, http.StatusOK, rec.Code)
	var eval model.Evaluation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &eval))
	assert.Equal(t, model.VerdictSkip, eval.Assessment.Verdict)
	assert.InDelta(t, 42, eval.Assessment.ExpectedLoss, 0.001)
	assert.InDelta(t, 18, eval.Assessment.NetCost, 0.001)
	assert.Equal(t, model.EstimateSourceManual, eval.EstimateSource)
	assert.NotEmpty(t, eval.ID, "evaluation is persisted when a store is configured")
}

func TestEvaluate_UsesEstimatorWhenNoProbability(t *testing.T) {
	t.Parallel()

	gen := &cannedGenerator{response: `{"probability": 20, "reason": "r", "source": "s"}`}
	h := newTestServer(t, gen, nil)
	body := bytes.NewBufferString(`{"name":"Sony WH-1000XM5 Headphones","cost":350,"warranty_cost":60}`)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/evaluate", body))

	require.Equal(t, http.StatusOK, rec.Code)
	var eval model.Evaluation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &eval))
	assert.Equal(t, model.VerdictBuy, eval.Assessment.Verdict)
	assert.Equal(t, 20, eval.Probability)
}

func TestEvaluate_RequiresName(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, nil, nil)
	body := bytes.NewBufferString(`{"cost":350,"warranty_cost":60,"probability":10}`)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/evaluate", body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAndGetEvaluations(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	h := newTestServer(t, nil, st)

	// Seed one evaluation through the API.
	body := bytes.NewBufferString(`{"name":"toaster","cost":40,"warranty_cost":15,"probability":5}`)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/evaluate", body))
	require.Equal(t, http.StatusOK, rec.Code)

	var eval model.Evaluation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &eval))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/evaluations", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var evals []model.Evaluation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &evals))
	assert.Len(t, evals, 1)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/evaluations/"+eval.ID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/evaluations/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListEvaluations_NoStore(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, nil, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/evaluations", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestEstimate_RateLimited(t *testing.T) {
	t.Parallel()

	adv := advisor.New(risk.NewEstimator(nil), nil)
	h := New(adv, nil, 1).Router([]string{"*"}) // 1 request per minute

	body := `{"product_name":"toaster"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/estimate", bytes.NewBufferString(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	// Burst capacity is 1, so the second immediate call is rejected.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/estimate", bytes.NewBufferString(body)))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
