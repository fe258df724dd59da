package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelscout/intelscout/pkg/domain"
	"github.com/intelscout/intelscout/pkg/store"
)

// stubStore implements Store with overridable function fields
type stubStore struct {
	getStatus        func(ctx context.Context, organizationID int64) (*domain.MonitoringStatus, error)
	getTargets       func(ctx context.Context, organizationID int64, activeOnly bool) ([]domain.Target, error)
	createTarget     func(ctx context.Context, target *domain.Target) error
	setTargetActive  func(ctx context.Context, id int64, active bool) error
	getFindings      func(ctx context.Context, organizationID int64, limit int) ([]domain.Finding, error)
	getOpportunities func(ctx context.Context, organizationID int64, status domain.OpportunityStatus, limit int) ([]domain.Opportunity, error)
	updateOppStatus  func(ctx context.Context, id int64, status domain.OpportunityStatus) error
	ping             func(ctx context.Context) error
}

func (s *stubStore) GetStatus(ctx context.Context, organizationID int64) (*domain.MonitoringStatus, error) {
	return s.getStatus(ctx, organizationID)
}
func (s *stubStore) GetTargets(ctx context.Context, organizationID int64, activeOnly bool) ([]domain.Target, error) {
	return s.getTargets(ctx, organizationID, activeOnly)
}
func (s *stubStore) CreateTarget(ctx context.Context, target *domain.Target) error {
	return s.createTarget(ctx, target)
}
func (s *stubStore) SetTargetActive(ctx context.Context, id int64, active bool) error {
	return s.setTargetActive(ctx, id, active)
}
func (s *stubStore) GetFindings(ctx context.Context, organizationID int64, limit int) ([]domain.Finding, error) {
	return s.getFindings(ctx, organizationID, limit)
}
func (s *stubStore) GetOpportunities(ctx context.Context, organizationID int64, status domain.OpportunityStatus, limit int) ([]domain.Opportunity, error) {
	return s.getOpportunities(ctx, organizationID, status, limit)
}
func (s *stubStore) UpdateOpportunityStatus(ctx context.Context, id int64, status domain.OpportunityStatus) error {
	return s.updateOppStatus(ctx, id, status)
}
func (s *stubStore) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// stubScanner implements Scanner
type stubScanner struct {
	scanByID     func(ctx context.Context, organizationID int64) (domain.ScanResult, error)
	cachedResult func(organizationID int64) (domain.ScanResult, bool)
}

func (s *stubScanner) ScanByID(ctx context.Context, organizationID int64) (domain.ScanResult, error) {
	return s.scanByID(ctx, organizationID)
}
func (s *stubScanner) CachedResult(organizationID int64) (domain.ScanResult, bool) {
	if s.cachedResult == nil {
		return domain.ScanResult{}, false
	}
	return s.cachedResult(organizationID)
}

// stubConfig implements ConfigProvider
type stubConfig struct{}

func (stubConfig) GetServerConfig() (string, time.Duration) { return ":0", 5 * time.Second }

func newTestServer(t *testing.T, st *stubStore, sc *stubScanner) *httptest.Server {
	t.Helper()
	srv := New(stubConfig{}, st, sc, "test", false)
	ts := httptest.NewServer(srv.router)
	t.Cleanup(ts.Close)
	return ts
}

func decodeBody(t *testing.T, body io.Reader, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(body).Decode(v))
}

func TestServer_Status(t *testing.T) {
	ts := newTestServer(t, &stubStore{}, &stubScanner{})

	resp, err := http.Get(ts.URL + "/api/v1/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decodeBody(t, resp.Body, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, "intelscout", resp.Header.Get("App-Name"))
}

func TestServer_Ping(t *testing.T) {
	ts := newTestServer(t, &stubStore{}, &stubScanner{})

	resp, err := http.Get(ts.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_MonitoringStatus(t *testing.T) {
	t.Run("existing status", func(t *testing.T) {
		st := &stubStore{
			getStatus: func(_ context.Context, organizationID int64) (*domain.MonitoringStatus, error) {
				assert.EqualValues(t, 1, organizationID)
				return &domain.MonitoringStatus{
					OrganizationID: 1, Monitoring: true, ActiveTargets: 3,
					ActiveSources: 8, Health: domain.HealthGood, LastScan: time.Now(),
				}, nil
			},
		}
		ts := newTestServer(t, st, &stubScanner{})

		resp, err := http.Get(ts.URL + "/api/v1/monitoring/status/1")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var status domain.MonitoringStatus
		decodeBody(t, resp.Body, &status)
		assert.True(t, status.Monitoring)
		assert.Equal(t, domain.HealthGood, status.Health)
		assert.Equal(t, 3, status.ActiveTargets)
	})

	t.Run("no scan yet defaults to good", func(t *testing.T) {
		st := &stubStore{
			getStatus: func(context.Context, int64) (*domain.MonitoringStatus, error) {
				return nil, store.ErrNotFound
			},
		}
		ts := newTestServer(t, st, &stubScanner{})

		resp, err := http.Get(ts.URL + "/api/v1/monitoring/status/1")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var status domain.MonitoringStatus
		decodeBody(t, resp.Body, &status)
		assert.Equal(t, domain.HealthGood, status.Health)
		assert.False(t, status.Monitoring)
	})

	t.Run("unreachable store reports down", func(t *testing.T) {
		st := &stubStore{ping: func(context.Context) error { return errors.New("no database") }}
		ts := newTestServer(t, st, &stubScanner{})

		resp, err := http.Get(ts.URL + "/api/v1/monitoring/status/1")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var status domain.MonitoringStatus
		decodeBody(t, resp.Body, &status)
		assert.Equal(t, domain.HealthDown, status.Health)
	})

	t.Run("bad org id", func(t *testing.T) {
		ts := newTestServer(t, &stubStore{}, &stubScanner{})
		resp, err := http.Get(ts.URL + "/api/v1/monitoring/status/abc")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestServer_GetTargets(t *testing.T) {
	st := &stubStore{
		getTargets: func(_ context.Context, organizationID int64, activeOnly bool) ([]domain.Target, error) {
			assert.False(t, activeOnly, "listing includes inactive targets")
			return []domain.Target{
				{ID: 1, OrganizationID: organizationID, Name: "Acme", Kind: domain.TargetOrganization,
					Priority: domain.PriorityHigh, Keywords: []string{"acme"}, Active: true},
			}, nil
		},
	}
	ts := newTestServer(t, st, &stubScanner{})

	resp, err := http.Get(ts.URL + "/api/v1/monitoring/targets/1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var targets []targetResponse
	decodeBody(t, resp.Body, &targets)
	require.Len(t, targets, 1)
	assert.Equal(t, "Acme", targets[0].Name)
	assert.Equal(t, "organization", targets[0].Kind)
}

func TestServer_CreateTarget(t *testing.T) {
	st := &stubStore{
		createTarget: func(_ context.Context, target *domain.Target) error {
			target.ID = 42
			return nil
		},
	}
	ts := newTestServer(t, st, &stubScanner{})

	t.Run("created with defaults", func(t *testing.T) {
		body := `{"organization_id": 1, "name": "supply chain", "keywords": ["supply chain"]}`
		resp, err := http.Post(ts.URL+"/api/v1/monitoring/targets", "application/json", bytes.NewBufferString(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var target targetResponse
		decodeBody(t, resp.Body, &target)
		assert.EqualValues(t, 42, target.ID)
		assert.Equal(t, "topic", target.Kind, "kind defaults to topic")
		assert.Equal(t, "medium", target.Priority, "priority defaults to medium")
		assert.True(t, target.Active)
	})

	badRequests := []struct {
		name string
		body string
	}{
		{"missing name", `{"organization_id": 1, "keywords": ["x"]}`},
		{"missing organization", `{"name": "x", "keywords": ["x"]}`},
		{"empty keywords", `{"organization_id": 1, "name": "x", "keywords": []}`},
		{"unknown kind", `{"organization_id": 1, "name": "x", "keywords": ["x"], "kind": "celebrity"}`},
		{"unknown priority", `{"organization_id": 1, "name": "x", "keywords": ["x"], "priority": "urgent"}`},
		{"malformed json", `{"organization_id": `},
	}
	for _, tt := range badRequests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/v1/monitoring/targets", "application/json", bytes.NewBufferString(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestServer_SetTargetActive(t *testing.T) {
	st := &stubStore{
		setTargetActive: func(_ context.Context, id int64, active bool) error {
			if id == 99 {
				return store.ErrNotFound
			}
			assert.False(t, active)
			return nil
		},
	}
	ts := newTestServer(t, st, &stubScanner{})

	t.Run("ok", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/v1/monitoring/targets/1/active",
			bytes.NewBufferString(`{"active": false}`))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("not found", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/v1/monitoring/targets/99/active",
			bytes.NewBufferString(`{"active": false}`))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestServer_GetFindings(t *testing.T) {
	st := &stubStore{
		getFindings: func(_ context.Context, organizationID int64, limit int) ([]domain.Finding, error) {
			assert.EqualValues(t, 1, organizationID)
			assert.Equal(t, 10, limit)
			return []domain.Finding{{
				ID: 5, TargetID: 1, Title: "Acme lawsuit", SourceName: "Reuters",
				URL: "https://example.com/l", Sentiment: domain.SentimentNegative,
				SentimentScore: -0.2, Urgency: domain.UrgencyMedium,
				MatchedKeywords: []string{"acme"},
			}}, nil
		},
	}
	ts := newTestServer(t, st, &stubScanner{})

	resp, err := http.Get(ts.URL + "/api/v1/monitoring/findings?organization_id=1&limit=10")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var findings []findingResponse
	decodeBody(t, resp.Body, &findings)
	require.Len(t, findings, 1)
	assert.Equal(t, "Acme lawsuit", findings[0].Title)
	assert.Equal(t, "Reuters", findings[0].SourceName)
	assert.Equal(t, "negative", findings[0].Sentiment)

	t.Run("missing organization id", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v1/monitoring/findings")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestServer_GetOpportunities(t *testing.T) {
	st := &stubStore{
		getOpportunities: func(_ context.Context, organizationID int64, status domain.OpportunityStatus, _ int) ([]domain.Opportunity, error) {
			assert.Equal(t, domain.StatusIdentified, status)
			return []domain.Opportunity{{
				ID: 3, OrganizationID: organizationID, Type: domain.OpportunityCompetitorStumble,
				Title: "Competitor stumble: Globex", Confidence: 0.8, Status: domain.StatusIdentified,
				FindingIDs: []int64{1, 2},
			}}, nil
		},
	}
	ts := newTestServer(t, st, &stubScanner{})

	resp, err := http.Get(ts.URL + "/api/v1/monitoring/opportunities/1?status=identified")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var opps []opportunityResponse
	decodeBody(t, resp.Body, &opps)
	require.Len(t, opps, 1)
	assert.Equal(t, "competitor_stumble", opps[0].Type)
	assert.Equal(t, []int64{1, 2}, opps[0].FindingIDs)

	t.Run("unknown status filter", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v1/monitoring/opportunities/1?status=archived")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestServer_UpdateOpportunityStatus(t *testing.T) {
	st := &stubStore{
		updateOppStatus: func(_ context.Context, id int64, status domain.OpportunityStatus) error {
			switch id {
			case 99:
				return store.ErrNotFound
			case 7:
				return fmt.Errorf("actioned -> in_progress: %w", store.ErrInvalidTransition)
			}
			assert.Equal(t, domain.StatusInProgress, status)
			return nil
		},
	}
	ts := newTestServer(t, st, &stubScanner{})

	put := func(t *testing.T, id int, body string) *http.Response {
		t.Helper()
		req, err := http.NewRequest(http.MethodPut,
			fmt.Sprintf("%s/api/v1/monitoring/opportunities/%d/status", ts.URL, id),
			bytes.NewBufferString(body))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		return resp
	}

	t.Run("ok", func(t *testing.T) {
		resp := put(t, 1, `{"status": "in_progress"}`)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("not found", func(t *testing.T) {
		resp := put(t, 99, `{"status": "in_progress"}`)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid transition conflicts", func(t *testing.T) {
		resp := put(t, 7, `{"status": "in_progress"}`)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}

func TestServer_TriggerScan(t *testing.T) {
	sc := &stubScanner{
		scanByID: func(_ context.Context, organizationID int64) (domain.ScanResult, error) {
			if organizationID == 99 {
				return domain.ScanResult{}, errors.New("organization 99 is not configured")
			}
			return domain.ScanResult{OrganizationID: organizationID, Sources: 5, Findings: 2}, nil
		},
	}
	ts := newTestServer(t, &stubStore{}, sc)

	t.Run("ok", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/api/v1/monitoring/trigger", "application/json",
			bytes.NewBufferString(`{"organization_id": 1}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result domain.ScanResult
		decodeBody(t, resp.Body, &result)
		assert.Equal(t, 2, result.Findings)
	})

	t.Run("missing organization id", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/api/v1/monitoring/trigger", "application/json",
			bytes.NewBufferString(`{}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("scan failure", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/api/v1/monitoring/trigger", "application/json",
			bytes.NewBufferString(`{"organization_id": 99}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestServer_RunShutdown(t *testing.T) {
	srv := New(stubConfig{}, &stubStore{}, &stubScanner{}, "test", false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}
