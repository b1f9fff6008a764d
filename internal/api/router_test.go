package api

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solar-sizing/internal/api/models"
	"solar-sizing/internal/config"
	"solar-sizing/internal/model"
	"solar-sizing/internal/report"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testRouter() *gin.Engine {
	return NewRouter(config.Default(), report.NewCache())
}

func do(t *testing.T, r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

func readings(days int) []model.Reading {
	var out []model.Reading
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for d := 0; d < days; d++ {
		for h := 0; h < 24; h++ {
			r := model.Reading{Timestamp: start.AddDate(0, 0, d).Add(time.Duration(h) * time.Hour)}
			switch {
			case h >= 10 && h < 15:
				r.SolarExportKWh = 2
			case h >= 18:
				r.GridImportKWh = 1
			}
			out = append(out, r)
		}
	}
	return out
}

func TestHealth(t *testing.T) {
	w := do(t, testRouter(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestRunAnalysis(t *testing.T) {
	router := testRouter()
	body := models.AnalysisRequest{Readings: readings(5), StartDate: "2024-01-02"}

	w := do(t, router, httptest.NewRequest(http.MethodPost, "/api/v1/analysis", jsonBody(t, body)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.AnalysisResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.False(t, resp.Cached)
	require.NotNil(t, resp.Report)
	assert.Equal(t, 4, resp.Report.Days)
	assert.Equal(t, "2024-01-02", resp.Report.StartDate)
	require.Len(t, resp.Report.Recommendations, 3)
	assert.Equal(t, 8.0, resp.Report.Recommendations[0].CapacityKWh)

	// Same input again is served from the cache under a new run id.
	w = do(t, router, httptest.NewRequest(http.MethodPost, "/api/v1/analysis", jsonBody(t, body)))
	require.Equal(t, http.StatusOK, w.Code)
	var again models.AnalysisResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &again))
	assert.True(t, again.Cached)
	assert.NotEqual(t, resp.ID, again.ID)

	w = do(t, router, httptest.NewRequest(http.MethodGet, "/api/v1/analysis/"+resp.ID, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, httptest.NewRequest(http.MethodGet, "/api/v1/analysis/"+resp.ID+"/ledger", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	rows, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1+4*24)
}

func TestRunAnalysis_ConfigOverrideRejected(t *testing.T) {
	body := models.AnalysisRequest{
		Readings: readings(2),
		Config:   json.RawMessage(`{"battery": {"usable_fraction": 1.2}}`),
	}
	w := do(t, testRouter(), httptest.NewRequest(http.MethodPost, "/api/v1/analysis", jsonBody(t, body)))
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_CONFIG", resp.Error.Code)
	assert.Equal(t, "battery.usable_fraction", resp.Error.Details["param"])
}

func TestRunAnalysis_ZeroOverridesApply(t *testing.T) {
	body := models.AnalysisRequest{
		Readings: readings(2),
		Config:   json.RawMessage(`{"min_confident_days": 0, "tariffs": {"feed_in": 0}}`),
	}
	w := do(t, testRouter(), httptest.NewRequest(http.MethodPost, "/api/v1/analysis", jsonBody(t, body)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.AnalysisResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	for _, a := range resp.Report.Annotations {
		assert.NotEqual(t, model.CodeInsufficientData, a.Code)
	}
	require.NotEmpty(t, resp.Report.Recommendations)
	rec := resp.Report.Recommendations[0]
	assert.False(t, rec.LowConfidence)
	require.NotNil(t, rec.ROI)
	assert.Zero(t, rec.ROI.LostFeedIn)
}

func TestRunAnalysis_MalformedConfig(t *testing.T) {
	body := models.AnalysisRequest{
		Readings: readings(2),
		Config:   json.RawMessage(`{"battery": {"usable_fraction": "most"}}`),
	}
	w := do(t, testRouter(), httptest.NewRequest(http.MethodPost, "/api/v1/analysis", jsonBody(t, body)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_CONFIG")
}

func TestRunAnalysis_BadInput(t *testing.T) {
	router := testRouter()

	w := do(t, router, httptest.NewRequest(http.MethodPost, "/api/v1/analysis", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_REQUEST")

	bad := models.AnalysisRequest{Readings: []model.Reading{{Timestamp: time.Now(), GridImportKWh: -1}}}
	w = do(t, router, httptest.NewRequest(http.MethodPost, "/api/v1/analysis", jsonBody(t, bad)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_DATA")

	rng := models.AnalysisRequest{Readings: readings(1), StartDate: "2024-02-01", EndDate: "2024-01-01"}
	w = do(t, router, httptest.NewRequest(http.MethodPost, "/api/v1/analysis", jsonBody(t, rng)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAnalysis_Unknown(t *testing.T) {
	router := testRouter()
	w := do(t, router, httptest.NewRequest(http.MethodGet, "/api/v1/analysis/not-a-uuid", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, router, httptest.NewRequest(http.MethodGet, "/api/v1/analysis/6f1c7a34-9a55-4d51-9a5e-0d9d2c1b1a11/ledger", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func uploadRequest(t *testing.T, query, body string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "usage.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analysis/upload"+query, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadCSV(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("ReadDate,ReadTime,Register,ReadConsumption,SolarFlag\n")
	for d := 1; d <= 3; d++ {
		date := fmt.Sprintf("2024-01-%02d", d)
		fmt.Fprintf(&sb, "%s,12:00,2,3.0,True\n", date)
		fmt.Fprintf(&sb, "%s,12:00,1,0.1,False\n", date)
		fmt.Fprintf(&sb, "%s,12:30,1,0.1,False\n", date)
		fmt.Fprintf(&sb, "%s,20:00,1,2.0,False\n", date)
	}

	w := do(t, testRouter(), uploadRequest(t, "?free_window_enabled=false&timezone=Australia/Melbourne", sb.String()))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.AnalysisResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "usage.csv", resp.Report.Source)
	assert.Equal(t, 3, resp.Report.Days)
	assert.Empty(t, resp.Report.FreeWindow)
	require.Len(t, resp.Report.Daily, 3)
	assert.Equal(t, 2.1, resp.Report.Daily[0].NightImport)
	assert.Equal(t, 0.1, resp.Report.Daily[0].DayImport)
}

func TestUploadCSV_Errors(t *testing.T) {
	router := testRouter()

	w := do(t, router, uploadRequest(t, "", "not,a,valid,header\n"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_DATA")

	w = do(t, router, uploadRequest(t, "?free_window_start=99:00", "ReadDate,ReadTime,Register,ReadConsumption,SolarFlag\n"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_CONFIG")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analysis/upload", nil)
	w = do(t, router, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListBatteries(t *testing.T) {
	w := do(t, testRouter(), httptest.NewRequest(http.MethodGet, "/api/v1/batteries", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Batteries []models.BatteryInfo `json:"batteries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Batteries, 6)
	assert.Equal(t, 8.0, resp.Batteries[0].CapacityKWh)
	assert.Equal(t, 7.76, resp.Batteries[0].UsableKWh)
	assert.Equal(t, 4320.0, resp.Batteries[0].EstimatedCost)
}

func TestListTiers(t *testing.T) {
	w := do(t, testRouter(), httptest.NewRequest(http.MethodGet, "/api/v1/tiers", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.TiersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Tiers, 3)
	assert.Equal(t, "Winter Ready", resp.Tiers[2].Name)
	assert.Equal(t, 90, resp.MinConfidentDays)
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/analysis", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := do(t, testRouter(), req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
