package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tdnet_xbrl/pkg/core/extract"
	"tdnet_xbrl/pkg/core/filename"
	"tdnet_xbrl/pkg/core/period"
	"tdnet_xbrl/pkg/core/store"
)

type MockExtractor struct {
	ExtractFunc func(ctx context.Context, in extract.Input) (*extract.Record, error)
}

func (m *MockExtractor) Extract(ctx context.Context, in extract.Input) (*extract.Record, error) {
	return m.ExtractFunc(ctx, in)
}

func ptr(v float64) *float64 { return &v }

func newServer(t *testing.T, ex extract.Extractor, records store.RecordStore) *httptest.Server {
	t.Helper()
	cal := period.NewCalendar(time.March, map[string]time.Month{"4612": time.December})
	h := NewHandler(ex, cal, records, nil, 1024)
	r := chi.NewRouter()
	h.Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func fixedRecord(in extract.Input) *extract.Record {
	fy := 2017
	return &extract.Record{
		ID:            "r-" + in.DocumentID(),
		DocumentID:    in.DocumentID(),
		Filename:      in.Filename,
		CompanyCode:   "1301",
		Statement:     filename.IncomeStatement,
		Consolidated:  true,
		Standard:      extract.LocalGAAP,
		PeriodEndDate: "2016-09-30",
		Quarter:       period.Q2,
		FiscalYear:    &fy,
		Facts:         map[string]*float64{extract.FactNetSales: ptr(1826.9)},
	}
}

func TestHandleExtract(t *testing.T) {
	records, err := store.NewFileCache(t.TempDir())
	require.NoError(t, err)

	var got extract.Input
	ex := &MockExtractor{ExtractFunc: func(ctx context.Context, in extract.Input) (*extract.Record, error) {
		got = in
		return fixedRecord(in), nil
	}}
	srv := newServer(t, ex, records)

	name := "0600000-qcpl23-tse-qcedjpfr-13010-2016-09-30-01-2016-11-04-ixbrl.htm"
	resp, err := http.Post(srv.URL+"/api/extract?save=true&statement=PL&filename=dir/"+name, "text/html", strings.NewReader("<html>売上高</html>"))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rec extract.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	assert.Equal(t, name, rec.DocumentID)
	assert.Equal(t, name, got.Filename)
	assert.Equal(t, filename.IncomeStatement, got.Statement)
	assert.Equal(t, "<html>売上高</html>", string(got.Content))

	assert.True(t, records.Exists(name))
}

func TestHandleExtractErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{name: "unrecognized", body: "<html></html>", err: fmt.Errorf("x: %w", extract.ErrUnrecognizedDocument), wantStatus: http.StatusUnprocessableEntity},
		{name: "parse failure", body: "<html></html>", err: fmt.Errorf("failed to parse"), wantStatus: http.StatusBadRequest},
		{name: "empty body", body: "", wantStatus: http.StatusBadRequest},
		{name: "too large", body: strings.Repeat("a", 2048), wantStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := &MockExtractor{ExtractFunc: func(ctx context.Context, in extract.Input) (*extract.Record, error) {
				if tt.err != nil {
					return nil, tt.err
				}
				return fixedRecord(in), nil
			}}
			srv := newServer(t, ex, nil)

			resp, err := http.Post(srv.URL+"/api/extract", "text/html", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestHandleClassify(t *testing.T) {
	srv := newServer(t, nil, nil)

	body := `{"text":"当第３四半期連結累計期間","company_code":"1301","period_end_date":"2016-12-31"}`
	resp, err := http.Post(srv.URL+"/api/classify", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got ClassifyResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, period.Q3, got.Quarter)
	require.NotNil(t, got.FiscalYear)
	assert.Equal(t, 2017, *got.FiscalYear)

	resp2, err := http.Post(srv.URL+"/api/classify", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestHandleFiscalYear(t *testing.T) {
	srv := newServer(t, nil, nil)

	resp, err := http.Get(srv.URL + "/api/fiscal-year?code=4612&end=2024-12-31&quarter=q4")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got ClassifyResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, period.Q4, got.Quarter)
	require.NotNil(t, got.FiscalYear)
	assert.Equal(t, 2024, *got.FiscalYear)

	missing, err := http.Get(srv.URL + "/api/fiscal-year?quarter=Q1")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusBadRequest, missing.StatusCode)
}

func TestHandleRecordsAndReport(t *testing.T) {
	records, err := store.NewFileCache(t.TempDir())
	require.NoError(t, err)
	q1 := fixedRecord(extract.Input{Filename: "q1.htm"})
	q1.Quarter = period.Q1
	q1.PeriodEndDate = "2016-06-30"
	q1.Facts[extract.FactNetSales] = ptr(800)
	q2 := fixedRecord(extract.Input{Filename: "q2.htm"})
	require.NoError(t, store.SaveAll(context.Background(), records, []*extract.Record{q1, q2}))

	srv := newServer(t, nil, records)

	resp, err := http.Get(srv.URL + "/api/records/13010?quarterly=true")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []*extract.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 2)
	v, ok := got[1].Fact(extract.FactNetSales)
	require.True(t, ok)
	assert.InDelta(t, 1026.9, v, 1e-9)

	empty, err := http.Get(srv.URL + "/api/records/9999")
	require.NoError(t, err)
	defer empty.Body.Close()
	var none []*extract.Record
	require.NoError(t, json.NewDecoder(empty.Body).Decode(&none))
	assert.Empty(t, none)

	page, err := http.Get(srv.URL + "/api/records/1301/report?format=html")
	require.NoError(t, err)
	defer page.Body.Close()
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Contains(t, page.Header.Get("Content-Type"), "text/html")

	md, err := http.Get(srv.URL + "/api/records/1301/report")
	require.NoError(t, err)
	defer md.Body.Close()
	assert.Contains(t, md.Header.Get("Content-Type"), "text/markdown")
}

func TestHandleHealth(t *testing.T) {
	srv := newServer(t, nil, nil)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
