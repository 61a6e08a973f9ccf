package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"taxsim/adapters/excel"
	"taxsim/internal/config"
	"taxsim/internal/tbi"
	"taxsim/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{Port: "0", GinMode: "test"},
		Model:  config.ModelConfig{StartYear: 2021, NumYears: 10},
		Paths:  config.PathConfig{ExportDir: t.TempDir()},
	}
	genCfg := testkit.DefaultPopulationConfig()
	genCfg.UnitCount = 500
	model := tbi.NewModel(testkit.NewSyntheticRepository(genCfg))
	return NewServer(model, excel.NewResultWriter(), cfg)
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	s := testServer(t)
	w := doJSON(t, s, http.MethodGet, "/v1/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestValidateAssumptions(t *testing.T) {
	s := testServer(t)

	tests := []struct {
		name      string
		behavior  map[string]map[string]float64
		wantValid bool
	}{
		{
			name:      "clean elasticities",
			behavior:  map[string]map[string]float64{"2021": {"BE_sub": 0.25}},
			wantValid: true,
		},
		{
			name:      "negative substitution elasticity",
			behavior:  map[string]map[string]float64{"2021": {"BE_sub": -0.25}},
			wantValid: false,
		},
		{
			name:      "unknown parameter",
			behavior:  map[string]map[string]float64{"2021": {"BE_bogus": 0.1}},
			wantValid: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, s, http.MethodPost, "/v1/assumptions/validate", map[string]interface{}{
				"behavior":   tt.behavior,
				"start_year": 2021,
				"num_years":  2,
			})
			require.Equal(t, http.StatusOK, w.Code)

			var resp struct {
				Valid  bool   `json:"valid"`
				Errors string `json:"errors"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantValid, resp.Valid)
			if !tt.wantValid {
				assert.Contains(t, resp.Errors, "ERROR in year=2021:")
			}
		})
	}
}

func TestValidateAssumptions_MalformedBody(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/assumptions/validate", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunModel_DictResponse(t *testing.T) {
	s := testServer(t)
	w := doJSON(t, s, http.MethodPost, "/v1/model/run", map[string]interface{}{
		"year_n":              0,
		"start_year":          2021,
		"use_full_population": false,
		"use_full_sample":     true,
		"user_mods": map[string]interface{}{
			"policy": map[string]interface{}{
				"II_rt3": map[string]float64{"2021": 0.40},
			},
		},
		"behavior": map[string]interface{}{},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		RunID   string                     `json:"run_id"`
		Year    int                        `json:"year"`
		Results map[string]json.RawMessage `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, 2021, resp.Year)

	// All nine tables in the merged dict rendering.
	assert.Len(t, resp.Results, 9)
	require.Contains(t, resp.Results, "aggr_d")
	require.Contains(t, resp.Results, "dist1_xdec")

	var aggrDiff map[string]float64
	require.NoError(t, json.Unmarshal(resp.Results["aggr_d"], &aggrDiff))
	assert.Greater(t, aggrDiff["combined_tax_2021"], 0.0)
}

func TestRunYears_Batch(t *testing.T) {
	s := testServer(t)
	w := doJSON(t, s, http.MethodPost, "/v1/model/run-years", map[string]interface{}{
		"num_years":       3,
		"start_year":      2021,
		"use_full_sample": true,
		"user_mods": map[string]interface{}{
			"policy": map[string]interface{}{
				"II_rt3": map[string]float64{"2021": 0.40},
			},
		},
		"behavior": map[string]interface{}{},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		RunID      string                       `json:"run_id"`
		ReformHash string                       `json:"reform_hash"`
		Years      []map[string]json.RawMessage `json:"years"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	assert.Len(t, resp.ReformHash, 64)
	require.Len(t, resp.Years, 3)
	for i, year := range resp.Years {
		assert.Contains(t, year, "aggr_d", "year %d", i)
		assert.Len(t, year, 9, "year %d", i)
	}
}

func TestRunYears_YearRangeErrorPropagates(t *testing.T) {
	s := testServer(t)
	w := doJSON(t, s, http.MethodPost, "/v1/model/run-years", map[string]interface{}{
		"num_years":  20,
		"start_year": 2030,
		"user_mods":  map[string]interface{}{},
		"behavior":   map[string]interface{}{},
	})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	var resp struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "YEAR_RANGE", resp.Code)
}

func TestExportRun_WritesWorkbook(t *testing.T) {
	s := testServer(t)
	w := doJSON(t, s, http.MethodPost, "/v1/model/export", map[string]interface{}{
		"year_n":          0,
		"use_full_sample": true,
		"user_mods":       map[string]interface{}{},
		"behavior":        map[string]interface{}{},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Year int    `json:"year"`
		Path string `json:"path"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	// start_year omitted: the configured model default applies.
	assert.Equal(t, 2021, resp.Year)
	require.True(t, strings.HasSuffix(resp.Path, ".xlsx"), resp.Path)

	info, err := os.Stat(resp.Path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRunModel_ErrorMapping(t *testing.T) {
	s := testServer(t)

	tests := []struct {
		name       string
		body       map[string]interface{}
		wantStatus int
		wantCode   string
	}{
		{
			name: "missing user_mods is a contract violation",
			body: map[string]interface{}{
				"start_year": 2021,
				"behavior":   map[string]interface{}{},
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "CONTRACT_VIOLATION",
		},
		{
			name: "negative year_n is out of range",
			body: map[string]interface{}{
				"year_n":     -1,
				"start_year": 2021,
				"user_mods":  map[string]interface{}{},
				"behavior":   map[string]interface{}{},
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "YEAR_RANGE",
		},
		{
			name: "invalid behavioral elasticity",
			body: map[string]interface{}{
				"year_n":     0,
				"start_year": 2021,
				"user_mods":  map[string]interface{}{},
				"behavior": map[string]interface{}{
					"2021": map[string]float64{"BE_sub": -1.0},
				},
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "SCHEMA_VIOLATION",
		},
		{
			name: "simulation year past the budget window",
			body: map[string]interface{}{
				"year_n":     30,
				"start_year": 2021,
				"user_mods":  map[string]interface{}{},
				"behavior":   map[string]interface{}{},
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "YEAR_RANGE",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, s, http.MethodPost, "/v1/model/run", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			var resp struct {
				Code string `json:"code"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}
