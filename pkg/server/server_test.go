package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/roomivo/internal/scheduler"
	"github.com/elonfeng/roomivo/internal/store"
	"github.com/elonfeng/roomivo/pkg/rental"
)

type fakeImporter struct {
	rep *scheduler.ImportReport
	err error
}

func (f fakeImporter) Import(context.Context) (*scheduler.ImportReport, error) {
	return f.rep, f.err
}

type testEnv struct {
	store   *store.SQLiteStore
	handler http.Handler
}

func newEnv(t *testing.T, cfg Config, importer Importer) *testEnv {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "roomivo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	srv := New(st, nil, importer, cfg, nil)
	return &testEnv{store: st, handler: srv.Handler()}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type listResp[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
	Total int `json:"total"`
}

func TestHealth(t *testing.T) {
	e := newEnv(t, Config{}, nil)
	rec := e.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestProperties_CRUD(t *testing.T) {
	e := newEnv(t, Config{}, nil)

	rec := e.do(t, http.MethodPost, "/api/v1/properties", map[string]any{
		"landlord_id": "l1",
		"name":        "Chambre Croix-Rousse",
		"price":       450,
		"location":    "Lyon",
		"description": "Room in a shared flat",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[rental.Property](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, rental.RentalColocation, created.RentalType)
	assert.Equal(t, rental.SourceAPI, created.Source)

	rec = e.do(t, http.MethodGet, "/api/v1/properties/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Lyon", decode[rental.Property](t, rec).Location)

	rec = e.do(t, http.MethodGet, "/api/v1/properties?location=lyon", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[listResp[rental.Property]](t, rec)
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, 1, list.Total)

	rec = e.do(t, http.MethodDelete, "/api/v1/properties/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/v1/properties/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProperties_Validation(t *testing.T) {
	e := newEnv(t, Config{}, nil)

	cases := map[string]map[string]any{
		"zero price":     {"name": "x", "location": "Paris", "price": 0},
		"negative price": {"name": "x", "location": "Paris", "price": -5},
		"no name":        {"location": "Paris", "price": 500},
		"no location":    {"name": "x", "price": 500},
		"bad type":       {"name": "x", "location": "Paris", "price": 500, "rental_type": "castle"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := e.do(t, http.MethodPost, "/api/v1/properties", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}

	rec := e.do(t, http.MethodGet, "/api/v1/properties?min_price=cheap", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfiles_PutRejectsNegatives(t *testing.T) {
	e := newEnv(t, Config{}, nil)

	for _, body := range []map[string]any{
		{"income": -1},
		{"budget_max": -100},
		{"age": -3},
		{"role": "admin"},
	} {
		rec := e.do(t, http.MethodPut, "/api/v1/profiles/t1", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	rec := e.do(t, http.MethodPut, "/api/v1/profiles/t1", map[string]any{"first_name": "Sophie", "income": 4200})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/v1/profiles/t1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[rental.TenantProfile](t, rec)
	assert.Equal(t, "t1", p.ID)
	assert.Equal(t, rental.RoleTenant, p.Role)

	rec = e.do(t, http.MethodGet, "/api/v1/profiles/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type matchItem struct {
	Property rental.Property `json:"property"`
	Score    int             `json:"score"`
}

func seedCatalogue(t *testing.T, e *testEnv) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.store.UpsertProperties(ctx, []rental.Property{
		{ID: "paris", LandlordID: "l1", Name: "Studio", Price: 950, Location: "Paris", Description: "Studio near the university"},
		{ID: "lyon", LandlordID: "l1", Name: "T2", Price: 700, Location: "Lyon"},
		{ID: "nice", LandlordID: "l2", Name: "Villa", Price: 3000, Location: "Nice"},
	}))
}

func TestMatches_Tenant(t *testing.T) {
	e := newEnv(t, Config{}, nil)
	seedCatalogue(t, e)
	e.do(t, http.MethodPut, "/api/v1/profiles/sophie", map[string]any{"budget_max": 1000, "preferred_location": "Paris", "age": 22})

	rec := e.do(t, http.MethodGet, "/api/v1/tenants/sophie/matches", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[listResp[matchItem]](t, rec)
	require.Len(t, list.Data, 3)
	assert.Equal(t, "paris", list.Data[0].Property.ID)
	assert.Greater(t, list.Data[0].Score, 40)

	rec = e.do(t, http.MethodGet, "/api/v1/tenants/sophie/matches?min_score=41", nil)
	list = decode[listResp[matchItem]](t, rec)
	assert.Len(t, list.Data, 1)

	rec = e.do(t, http.MethodGet, "/api/v1/tenants/sophie/matches?limit=two", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMatches_Anonymous(t *testing.T) {
	e := newEnv(t, Config{}, nil)
	seedCatalogue(t, e)

	rec := e.do(t, http.MethodGet, "/api/v1/matches?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[listResp[matchItem]](t, rec)
	require.Len(t, list.Data, 2)
	for _, m := range list.Data {
		assert.Equal(t, 40, m.Score)
	}
}

func TestApplications_Workflow(t *testing.T) {
	e := newEnv(t, Config{}, nil)
	seedCatalogue(t, e)
	e.do(t, http.MethodPut, "/api/v1/profiles/sophie", map[string]any{"first_name": "Sophie", "last_name": "Martin", "income": 4200, "profession": "Software Engineer"})
	e.do(t, http.MethodPut, "/api/v1/profiles/paul", map[string]any{"first_name": "Paul", "income": 1500})

	rec := e.do(t, http.MethodPost, "/api/v1/applications", map[string]any{"property_id": "paris", "tenant_id": "sophie"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sophieApp := decode[rental.Application](t, rec)
	assert.Equal(t, rental.StatusPending, sophieApp.Status)

	rec = e.do(t, http.MethodPost, "/api/v1/applications", map[string]any{"property_id": "paris", "tenant_id": "sophie"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/v1/applications", map[string]any{"property_id": "paris", "tenant_id": "paul"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/v1/applications", map[string]any{"property_id": "nowhere", "tenant_id": "paul"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/v1/landlords/l1/applicants", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var applicants listResp[struct {
		TenantName string `json:"tenant_name"`
		Score      int    `json:"score"`
	}]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &applicants))
	require.Len(t, applicants.Data, 2)
	assert.Equal(t, "Sophie Martin", applicants.Data[0].TenantName)
	assert.Equal(t, 99, applicants.Data[0].Score)
	assert.Equal(t, 30, applicants.Data[1].Score)

	rec = e.do(t, http.MethodPatch, "/api/v1/applications/"+sophieApp.ID, map[string]any{"status": "approved"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, rental.StatusApproved, decode[rental.Application](t, rec).Status)

	rec = e.do(t, http.MethodPatch, "/api/v1/applications/"+sophieApp.ID, map[string]any{"status": "pending"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(t, http.MethodPatch, "/api/v1/applications/"+sophieApp.ID, map[string]any{"status": "maybe"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/v1/applications/"+sophieApp.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, rental.StatusApproved, decode[rental.Application](t, rec).Status)

	rec = e.do(t, http.MethodGet, "/api/v1/applications/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/v1/landlords/l1/applicants?status=pending", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &applicants))
	assert.Len(t, applicants.Data, 1)
}

func TestApplications_ConcurrentDecision(t *testing.T) {
	e := newEnv(t, Config{}, nil)
	seedCatalogue(t, e)
	e.do(t, http.MethodPut, "/api/v1/profiles/sophie", map[string]any{"first_name": "Sophie", "income": 4200})

	rec := e.do(t, http.MethodPost, "/api/v1/applications", map[string]any{"property_id": "paris", "tenant_id": "sophie"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	app := decode[rental.Application](t, rec)

	// Another landlord session approves between our read and write.
	require.NoError(t, e.store.UpdateApplicationStatus(context.Background(), app.ID, rental.StatusPending, rental.StatusApproved, time.Now().UTC()))
	err := e.store.UpdateApplicationStatus(context.Background(), app.ID, rental.StatusPending, rental.StatusRejected, time.Now().UTC())
	require.ErrorIs(t, err, rental.ErrInvalidTransition)

	rec = httptest.NewRecorder()
	srv := New(e.store, nil, nil, Config{}, nil)
	srv.storeError(rec, err)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(t, http.MethodPatch, "/api/v1/applications/"+app.ID, map[string]any{"status": "rejected"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/v1/applications/"+app.ID, nil)
	assert.Equal(t, rental.StatusApproved, decode[rental.Application](t, rec).Status)
}

func TestScore_Match(t *testing.T) {
	e := newEnv(t, Config{}, nil)

	rec := e.do(t, http.MethodPost, "/api/v1/score/match", map[string]any{
		"tenant":   map[string]any{"budget_max": 1000, "preferred_location": "Paris", "age": 22},
		"property": map[string]any{"price": 950, "location": "Paris", "description": "Studio near the university", "amenities": []string{"Wi-Fi"}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Score     int `json:"score"`
		Breakdown struct {
			Financial int `json:"financial"`
			Location  int `json:"location"`
			Score     int `json:"score"`
		} `json:"breakdown"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 40, resp.Breakdown.Financial)
	assert.Equal(t, 35, resp.Breakdown.Location)
	assert.Equal(t, resp.Score, resp.Breakdown.Score)

	rec = e.do(t, http.MethodPost, "/api/v1/score/match", map[string]any{"property": map[string]any{"price": 950}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 40.0, decode[map[string]any](t, rec)["score"])

	rec = e.do(t, http.MethodPost, "/api/v1/score/match", map[string]any{"property": map[string]any{"price": 0}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/v1/score/match", map[string]any{
		"tenant": map[string]any{"income": -1}, "property": map[string]any{"price": 950},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScore_Risk(t *testing.T) {
	e := newEnv(t, Config{}, nil)

	rec := e.do(t, http.MethodPost, "/api/v1/score/risk", map[string]any{"income": 4200, "profession": "Software Engineer", "rent": 950})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 99.0, decode[map[string]any](t, rec)["score"])

	rec = e.do(t, http.MethodPost, "/api/v1/score/risk", map[string]any{"income": -1, "rent": 950})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/v1/score/risk", map[string]any{"income": 3000, "rent": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/v1/score/risk", "not an object")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCollect(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		e := newEnv(t, Config{}, nil)
		rec := e.do(t, http.MethodPost, "/api/v1/collect", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("report", func(t *testing.T) {
		rep := &scheduler.ImportReport{PerSource: map[rental.SourceType]int{rental.SourceSeed: 20}, Total: 20}
		e := newEnv(t, Config{}, fakeImporter{rep: rep})
		rec := e.do(t, http.MethodPost, "/api/v1/collect", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"per_source":{"seed":20},"total":20}`, rec.Body.String())
	})

	t.Run("failure", func(t *testing.T) {
		e := newEnv(t, Config{}, fakeImporter{err: errors.New("disk full")})
		rec := e.do(t, http.MethodPost, "/api/v1/collect", nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestMethodNotAllowed(t *testing.T) {
	e := newEnv(t, Config{}, nil)
	rec := e.do(t, http.MethodPut, "/api/v1/matches", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRateLimit(t *testing.T) {
	e := newEnv(t, Config{RateLimit: 0.001, Burst: 2}, nil)

	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/api/v1/matches", nil).Code)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/api/v1/matches", nil).Code)

	rec := e.do(t, http.MethodGet, "/api/v1/matches", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/health", nil).Code)
}
