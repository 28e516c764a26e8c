package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/wellness-risk/internal/api"
	"github.com/danielpatrickdp/wellness-risk/internal/assessor"
	"github.com/danielpatrickdp/wellness-risk/internal/risk"
	"github.com/danielpatrickdp/wellness-risk/internal/widget"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// #region fakes
type fakeService struct {
	mu        sync.Mutex
	latest    map[string]assessor.Result
	calcErr   error
	latestErr error
	lastUser  string
}

func (f *fakeService) Calculate(ctx context.Context, userID string) (assessor.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUser = userID
	if f.calcErr != nil {
		return assessor.Result{}, f.calcErr
	}
	res := highResult(userID)
	f.latest[userID] = res
	return res, nil
}

func (f *fakeService) Latest(ctx context.Context, userID string) (assessor.Result, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUser = userID
	if f.latestErr != nil {
		return assessor.Result{}, false, f.latestErr
	}
	res, ok := f.latest[userID]
	return res, ok, nil
}

func highResult(userID string) assessor.Result {
	return assessor.Result{
		ID:     "assess-1",
		UserID: userID,
		Assessment: risk.Assessment{
			Score:      0.68,
			Level:      risk.LevelHigh,
			Confidence: 0.63,
			Factors:    []string{"expressions of hopelessness detected, score 0.82"},
			Interventions: []risk.Intervention{
				{Type: risk.InterventionProactive, Action: "wellness_check", Message: "Schedule daily check-ins for next 7 days"},
			},
			ComputedAt: time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC),
		},
		InterventionTriggered: true,
	}
}

func (f *fakeService) user() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastUser
}

func newTestServer(t *testing.T, svc *fakeService) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(NewServer(svc, nil).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func decode(t *testing.T, resp *http.Response) api.RiskResponse {
	t.Helper()
	defer resp.Body.Close()
	var body api.RiskResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

// #endregion fakes

func TestGetRiskScoreNoAssessment(t *testing.T) {
	svc := &fakeService{latest: map[string]assessor.Result{}}
	ts := newTestServer(t, svc)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/risk-score", nil)
	req.Header.Set("Origin", "http://companion.example")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	body := decode(t, resp)
	assert.True(t, body.OK)
	assert.Equal(t, risk.LevelUnknown, body.RiskLevel)
	assert.Equal(t, api.NoAssessmentMessage, body.Message)
	assert.Equal(t, api.DefaultUserID, svc.user())
}

func TestGetRiskScoreExisting(t *testing.T) {
	svc := &fakeService{latest: map[string]assessor.Result{"u1": highResult("u1")}}
	ts := newTestServer(t, svc)

	resp, err := http.Get(ts.URL + "/risk-score?userId=u1")
	require.NoError(t, err)
	body := decode(t, resp)

	assert.True(t, body.OK)
	assert.Equal(t, risk.LevelHigh, body.RiskLevel)
	require.NotNil(t, body.RiskScore)
	assert.InDelta(t, 0.68, *body.RiskScore, 1e-9)
	assert.True(t, body.InterventionTriggered)
	require.NotNil(t, body.LastAssessment)
	assert.Len(t, body.RiskFactors, 1)
}

func TestGetRiskScoreStoreError(t *testing.T) {
	svc := &fakeService{latestErr: errors.New("db locked")}
	ts := newTestServer(t, svc)

	resp, err := http.Get(ts.URL + "/risk-score?userId=u1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decode(t, resp)
	assert.False(t, body.OK)
	assert.Contains(t, body.Error, "db locked")
}

func TestCalculateRisk(t *testing.T) {
	svc := &fakeService{latest: map[string]assessor.Result{}}
	ts := newTestServer(t, svc)

	resp, err := http.Post(ts.URL+"/calculate-risk", "application/json", strings.NewReader(`{"userId":"u9"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.True(t, body.OK)
	assert.Equal(t, api.CompletedMessage, body.Message)
	assert.Equal(t, "assess-1", body.AssessmentID)
	assert.Equal(t, "u9", svc.user())
}

func TestCalculateRiskBadRequests(t *testing.T) {
	ts := newTestServer(t, &fakeService{latest: map[string]assessor.Result{}})

	for _, payload := range []string{`{}`, `not json`} {
		resp, err := http.Post(ts.URL+"/calculate-risk", "application/json", strings.NewReader(payload))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, payload)
		assert.False(t, decode(t, resp).OK)
	}
}

func TestPreflightAndHealth(t *testing.T) {
	ts := newTestServer(t, &fakeService{})

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/calculate-risk", nil)
	req.Header.Set("Origin", "http://companion.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")

	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClientAgainstServer(t *testing.T) {
	svc := &fakeService{latest: map[string]assessor.Result{}}
	ts := newTestServer(t, svc)
	c := NewClient(ts.URL+"/", nil)
	ctx := context.Background()

	snap, err := c.FetchRisk(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, risk.LevelUnknown, snap.Assessment.Level)
	assert.Equal(t, api.NoAssessmentMessage, snap.Message)

	snap, err = c.CalculateRisk(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, risk.LevelHigh, snap.Assessment.Level)
	assert.True(t, snap.InterventionTriggered)

	snap, err = c.FetchRisk(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, risk.LevelHigh, snap.Assessment.Level)

	_, err = c.CalculateRisk(ctx, "")
	assert.ErrorIs(t, err, widget.ErrServiceRejected)
}

func TestClientTransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL, nil).FetchRisk(context.Background(), "u1")
	assert.ErrorIs(t, err, widget.ErrTransport)

	_, err = NewClient("http://127.0.0.1:1", nil).FetchRisk(context.Background(), "u1")
	assert.ErrorIs(t, err, widget.ErrTransport)
}

func TestClientDrivesWidget(t *testing.T) {
	svc := &fakeService{latest: map[string]assessor.Result{"u1": highResult("u1")}}
	ts := newTestServer(t, svc)

	w := widget.New(NewClient(ts.URL, nil), "u1", widget.WithInterval(time.Hour))
	defer w.Teardown()
	require.NoError(t, w.Initialize(context.Background()))

	v := widget.Render(w.State(), time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, "Need Support", v.Title)
	assert.Equal(t, "Last checked: 1h ago", v.Footer)
}
