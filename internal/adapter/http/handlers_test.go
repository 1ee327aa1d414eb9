package adapthttp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	adapthttp "weighttracker/internal/adapter/http"
	"weighttracker/internal/adapter/memory"
	"weighttracker/internal/app"
	"weighttracker/internal/domain"
	"weighttracker/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// ---------------------------------------------------------------------------
// Mock repository (function-fields pattern)
// ---------------------------------------------------------------------------

type mockWeightRepo struct {
	listFn   func(ctx context.Context) ([]domain.WeightEntry, error)
	getFn    func(ctx context.Context, id string) (*domain.WeightEntry, error)
	createFn func(ctx context.Context, e domain.WeightEntry) (*domain.WeightEntry, error)
	updateFn func(ctx context.Context, id string, u domain.WeightUpdate) (*domain.WeightEntry, error)
	deleteFn func(ctx context.Context, id string) error
	pingFn   func(ctx context.Context) error
}

func (m *mockWeightRepo) ListWeightEntries(ctx context.Context) ([]domain.WeightEntry, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []domain.WeightEntry{
		{ID: "a", Weight: 80, Date: time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC)},
	}, nil
}

func (m *mockWeightRepo) GetWeightEntry(ctx context.Context, id string) (*domain.WeightEntry, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockWeightRepo) CreateWeightEntry(ctx context.Context, e domain.WeightEntry) (*domain.WeightEntry, error) {
	if m.createFn != nil {
		return m.createFn(ctx, e)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	e.ID = "new-id"
	return &e, nil
}

func (m *mockWeightRepo) UpdateWeightEntry(ctx context.Context, id string, u domain.WeightUpdate) (*domain.WeightEntry, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, u)
	}
	return nil, domain.ErrNotFound
}

func (m *mockWeightRepo) DeleteWeightEntry(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return domain.ErrNotFound
}

func (m *mockWeightRepo) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

var errUnavailable = fmt.Errorf("%w: dial tcp 127.0.0.1:27017: connect: connection refused", domain.ErrStoreUnavailable)

// ---------------------------------------------------------------------------
// Test-server helpers
// ---------------------------------------------------------------------------

func newServer(t *testing.T, wr domain.WeightRepository, passwordHash string) *adapthttp.Server {
	t.Helper()

	if wr == nil {
		wr = &mockWeightRepo{}
	}

	ws := app.NewWeightService(wr)
	cs := app.NewChartsService(wr)
	authSvc := app.NewAuthService(passwordHash, memory.New().NewSessionRepo(), time.Hour)

	webDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(webDir, "index.html"), []byte("<html></html>"), 0o600); err != nil {
		t.Fatal(err)
	}

	return adapthttp.New(ws, cs, authSvc, webDir)
}

func newTestServer(t *testing.T, wr domain.WeightRepository) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(newServer(t, wr, "").WithoutAuth().Handler())
	t.Cleanup(ts.Close)
	return ts
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return m
}

func doJSON(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["ok"] != true {
		t.Fatalf("expected ok=true, got %v", body["ok"])
	}
	if resp.Header.Get("Cache-Control") != "no-store" {
		t.Fatalf("expected no-store, got %q", resp.Header.Get("Cache-Control"))
	}
}

func TestHealthEndpoint_StoreDown(t *testing.T) {
	ts := newTestServer(t, &mockWeightRepo{
		pingFn: func(context.Context) error { return errUnavailable },
	})

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestListWeights(t *testing.T) {
	day := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	ts := newTestServer(t, &mockWeightRepo{
		listFn: func(context.Context) ([]domain.WeightEntry, error) {
			return []domain.WeightEntry{
				{ID: "old", Weight: 81, Date: day},
				{ID: "new", Weight: 80, Date: day.AddDate(0, 0, 1)},
			}, nil
		},
	})

	resp, err := http.Get(ts.URL + "/api/weight")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var items []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0]["id"] != "new" {
		t.Fatalf("expected newest first, got %v", items[0]["id"])
	}
	for _, key := range []string{"id", "weight", "date", "notes", "createdAt", "updatedAt"} {
		if _, ok := items[0][key]; !ok {
			t.Errorf("entry missing %q", key)
		}
	}
}

func TestListWeights_StoreUnavailable(t *testing.T) {
	ts := newTestServer(t, &mockWeightRepo{
		listFn: func(context.Context) ([]domain.WeightEntry, error) { return nil, errUnavailable },
	})

	resp, err := http.Get(ts.URL + "/api/weight")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["error"] != "Failed to connect to database. Please check your database connection." {
		t.Fatalf("unexpected error message: %v", body["error"])
	}
}

func TestCreateWeight(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantStatus int
		wantError  string
	}{
		{
			name:       "valid",
			payload:    `{"weight": 85.5, "date": "2026-02-08", "notes": "morning"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "valid without notes",
			payload:    `{"weight": 85.5, "date": "2026-02-08T07:00:00Z"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing weight",
			payload:    `{"date": "2026-02-08"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Weight is required",
		},
		{
			name:       "missing date",
			payload:    `{"weight": 80}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Date is required",
		},
		{
			name:       "too light",
			payload:    `{"weight": 19.9, "date": "2026-02-08"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Weight must be at least 20 kg",
		},
		{
			name:       "too heavy",
			payload:    `{"weight": 500.1, "date": "2026-02-08"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Weight cannot exceed 500 kg",
		},
		{
			name:       "notes too long",
			payload:    fmt.Sprintf(`{"weight": 80, "date": "2026-02-08", "notes": %q}`, strings.Repeat("x", 501)),
			wantStatus: http.StatusBadRequest,
			wantError:  "Notes cannot exceed 500 characters",
		},
		{
			name:       "malformed json",
			payload:    `{"weight": `,
			wantStatus: http.StatusBadRequest,
		},
	}

	ts := newTestServer(t, nil)

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, ts.URL+"/api/weight", tc.payload)
			defer resp.Body.Close() //nolint:errcheck

			body := decodeBody(t, resp)
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("expected %d, got %d; body: %v", tc.wantStatus, resp.StatusCode, body)
			}
			if tc.wantError != "" && body["error"] != tc.wantError {
				t.Fatalf("expected error %q, got %v", tc.wantError, body["error"])
			}
			if tc.wantStatus == http.StatusCreated && body["id"] != "new-id" {
				t.Fatalf("expected id in response, got %v", body)
			}
		})
	}
}

func TestCreateWeight_InternalError(t *testing.T) {
	ts := newTestServer(t, &mockWeightRepo{
		createFn: func(context.Context, domain.WeightEntry) (*domain.WeightEntry, error) {
			return nil, fmt.Errorf("insert: duplicate key")
		},
	})

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/weight", `{"weight": 80, "date": "2026-02-08"}`)
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["error"] != "Failed to create weight entry" {
		t.Fatalf("unexpected error message: %v", body["error"])
	}
}

func TestGetWeight(t *testing.T) {
	ts := newTestServer(t, &mockWeightRepo{
		getFn: func(_ context.Context, id string) (*domain.WeightEntry, error) {
			if id != "abc" {
				return nil, domain.ErrNotFound
			}
			return &domain.WeightEntry{ID: "abc", Weight: 82.3, Date: time.Now()}, nil
		},
	})

	resp, err := http.Get(ts.URL + "/api/weight/abc")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["weight"] != 82.3 {
		t.Fatalf("unexpected body: %v", body)
	}

	resp2, err := http.Get(ts.URL + "/api/weight/missing")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp2.Body.Close() //nolint:errcheck
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp2.StatusCode)
	}
	if body := decodeBody(t, resp2); body["error"] != "Weight entry not found" {
		t.Fatalf("unexpected error message: %v", body["error"])
	}
}

func TestUpdateWeight(t *testing.T) {
	var gotUpdate domain.WeightUpdate
	ts := newTestServer(t, &mockWeightRepo{
		updateFn: func(_ context.Context, id string, u domain.WeightUpdate) (*domain.WeightEntry, error) {
			if id != "abc" {
				return nil, domain.ErrNotFound
			}
			if err := u.Validate(); err != nil {
				return nil, err
			}
			gotUpdate = u
			e := u.Apply(domain.WeightEntry{ID: id, Notes: "stored"})
			return &e, nil
		},
	})

	resp := doJSON(t, http.MethodPut, ts.URL+"/api/weight/abc", `{"weight": 79.5, "date": "2026-02-09"}`)
	defer resp.Body.Close() //nolint:errcheck
	body := decodeBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d; body %v", resp.StatusCode, body)
	}
	if body["id"] != "abc" || body["weight"] != 79.5 || body["notes"] != "stored" {
		t.Fatalf("unexpected body: %v", body)
	}
	if gotUpdate.Notes != nil {
		t.Fatalf("omitted notes must not be sent as an update")
	}

	resp2 := doJSON(t, http.MethodPut, ts.URL+"/api/weight/missing", `{"weight": 79.5, "date": "2026-02-09"}`)
	defer resp2.Body.Close() //nolint:errcheck
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp2.StatusCode)
	}

	resp3 := doJSON(t, http.MethodPut, ts.URL+"/api/weight/abc", `{"weight": 600, "date": "2026-02-09"}`)
	defer resp3.Body.Close() //nolint:errcheck
	if resp3.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp3.StatusCode)
	}
}

func TestDeleteWeight(t *testing.T) {
	ts := newTestServer(t, &mockWeightRepo{
		deleteFn: func(_ context.Context, id string) error {
			if id != "abc" {
				return domain.ErrNotFound
			}
			return nil
		},
	})

	resp := doJSON(t, http.MethodDelete, ts.URL+"/api/weight/abc", "")
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["message"] != "Weight entry deleted successfully" {
		t.Fatalf("unexpected body: %v", body)
	}

	resp2 := doJSON(t, http.MethodDelete, ts.URL+"/api/weight/other", "")
	defer resp2.Body.Close() //nolint:errcheck
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp2.StatusCode)
	}
}

func TestWeightMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := doJSON(t, http.MethodPatch, ts.URL+"/api/weight/abc", `{}`)
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestCRUDRoundTrip_MemoryStore(t *testing.T) {
	ts := newTestServer(t, memory.New())

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/weight", `{"weight": 70, "date": "2026-01-01", "notes": "start"}`)
	created := decodeBody(t, resp)
	resp.Body.Close() //nolint:errcheck,gosec
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("expected id, got %v", created)
	}

	resp = doJSON(t, http.MethodPut, ts.URL+"/api/weight/"+id, `{"weight": 68, "date": "2026-01-15"}`)
	updated := decodeBody(t, resp)
	resp.Body.Close() //nolint:errcheck,gosec
	if updated["id"] != id || updated["weight"] != 68.0 || updated["notes"] != "start" {
		t.Fatalf("unexpected update result: %v", updated)
	}

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/weight/"+id, "")
	resp.Body.Close() //nolint:errcheck,gosec
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/weight/"+id, "")
	resp.Body.Close() //nolint:errcheck,gosec
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestChartsSummary(t *testing.T) {
	now := time.Now().UTC()
	ts := newTestServer(t, &mockWeightRepo{
		listFn: func(context.Context) ([]domain.WeightEntry, error) {
			return []domain.WeightEntry{
				{ID: "b", Weight: 79, Date: now.Add(-time.Hour)},
				{ID: "a", Weight: 80, Date: now.AddDate(0, 0, -3)},
				{ID: "old", Weight: 90, Date: now.AddDate(-2, 0, 0)},
			}, nil
		},
	})

	resp, err := http.Get(ts.URL + "/api/charts/summary?range=week")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["range"] != "week" || body["unit"] != "kg" || body["count"] != 2.0 {
		t.Fatalf("unexpected summary header: %v", body)
	}
	stats, ok := body["stats"].(map[string]any)
	if !ok {
		t.Fatalf("expected stats, got %v", body["stats"])
	}
	if stats["weightDifference"] != -1.0 {
		t.Fatalf("unexpected stats: %v", stats)
	}
	points, _ := body["points"].([]any)
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %v", body["points"])
	}
}

func TestChartsSummary_BadParams(t *testing.T) {
	ts := newTestServer(t, nil)

	for _, q := range []string{"range=decade", "unit=stone"} {
		resp, err := http.Get(ts.URL + "/api/charts/summary?" + q)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close() //nolint:errcheck,gosec
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, resp.StatusCode)
		}
	}
}

func TestChartsDaily(t *testing.T) {
	ts := newTestServer(t, &mockWeightRepo{
		listFn: func(context.Context) ([]domain.WeightEntry, error) {
			return []domain.WeightEntry{{ID: "a", Weight: 100, Date: time.Now()}}, nil
		},
	})

	resp, err := http.Get(ts.URL + "/api/charts/daily?days=7&unit=lb")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	items, _ := body["items"].([]any)
	if len(items) != 7 {
		t.Fatalf("expected 7 items, got %d", len(items))
	}
	last, _ := items[6].(map[string]any)
	weight, _ := last["weight"].(map[string]any)
	if v, _ := weight["value"].(float64); v < 220 || v > 221 {
		t.Fatalf("expected ~220.46 lb today, got %v", last)
	}

	resp2, err := http.Get(ts.URL + "/api/charts/daily?days=abc")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp2.Body.Close() //nolint:errcheck
	if resp2.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp2.StatusCode)
	}
}

func TestSPAFallbackAndUnknownAPI(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/charts")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close() //nolint:errcheck,gosec
	if resp.StatusCode != http.StatusOK || !bytes.Contains(b, []byte("<html>")) {
		t.Fatalf("expected index.html, got %d %s", resp.StatusCode, b)
	}

	resp, err = http.Get(ts.URL + "/api/unknown")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close() //nolint:errcheck,gosec
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestMetricsEndpointAndWriteCounter(t *testing.T) {
	reg := metrics.SetupPrometheus()
	m := metrics.NewManager("weighttracker", "test", reg)
	srv := newServer(t, memory.New(), "").WithoutAuth().WithMetrics(m, reg)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/weight", `{"weight": 70, "date": "2026-01-01"}`)
	resp.Body.Close() //nolint:errcheck,gosec

	if got := testutil.ToFloat64(m.CounterEntryWrites.WithLabelValues("create")); got != 1 {
		t.Fatalf("expected 1 create, got %v", got)
	}
	if got := testutil.ToFloat64(m.CounterRequests.WithLabelValues("POST", "201")); got != 1 {
		t.Fatalf("expected 1 POST/201 request, got %v", got)
	}

	mresp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer mresp.Body.Close() //nolint:errcheck
	b, _ := io.ReadAll(mresp.Body)
	if !strings.Contains(string(b), "weighttracker_test_entry_writes") {
		t.Fatalf("metrics output missing entry_writes counter")
	}
}

func TestCreateWeight_RejectsTrailingData(t *testing.T) {
	ts := newTestServer(t, memory.New())

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/weight", `{"weight": 70, "date": "2026-01-01"} {"weight": 71}`)
	resp.Body.Close() //nolint:errcheck,gosec
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for trailing data, got %d", resp.StatusCode)
	}
}

func TestChartsDaily_TodayFollowsServiceClock(t *testing.T) {
	clock := time.Date(2020, 3, 10, 12, 0, 0, 0, time.Local)
	repo := memory.New()
	if _, err := repo.CreateWeightEntry(context.Background(), domain.WeightEntry{Weight: 80, Date: clock}); err != nil {
		t.Fatal(err)
	}

	srv := adapthttp.New(
		app.NewWeightService(repo),
		app.NewChartsService(repo).WithClock(func() time.Time { return clock }),
		nil, "",
	)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/charts/daily?days=3")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	body := decodeBody(t, resp)

	if body["today"] != "2020-03-10" {
		t.Fatalf("expected today from the service clock, got %v", body["today"])
	}
	items, _ := body["items"].([]any)
	last, _ := items[len(items)-1].(map[string]any)
	if last["day"] != body["today"] || last["weight"] == nil {
		t.Fatalf("last item %v does not match today %v", last, body["today"])
	}
}
