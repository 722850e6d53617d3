package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/openbar/tapflow/internal/billing/domain"
	"github.com/openbar/tapflow/internal/config"
	dispenserdomain "github.com/openbar/tapflow/internal/dispenser/domain"
	tapdomain "github.com/openbar/tapflow/internal/tap/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubDispenserService struct {
	registerResp *dispenserdomain.Response
	registerErr  error
}

func (s *stubDispenserService) Register(_ context.Context, _ dispenserdomain.RegisterRequest) (*dispenserdomain.Response, error) {
	return s.registerResp, s.registerErr
}

func (s *stubDispenserService) GetByID(_ context.Context, _ string) (*dispenserdomain.Response, error) {
	return nil, dispenserdomain.ErrNotFound
}

func (s *stubDispenserService) List(_ context.Context) ([]dispenserdomain.Response, error) {
	return nil, nil
}

type stubTapService struct {
	openResp  *tapdomain.OpenResult
	openErr   error
	closeResp *tapdomain.CloseResult
	closeErr  error
}

func (s *stubTapService) Open(_ context.Context, _ string) (*tapdomain.OpenResult, error) {
	return s.openResp, s.openErr
}

func (s *stubTapService) Close(_ context.Context, _ string) (*tapdomain.CloseResult, error) {
	return s.closeResp, s.closeErr
}

type stubBillingService struct {
	summaryErr  error
	spendingErr error
}

func (s *stubBillingService) DispenserSummary(_ context.Context, _ string) (*billingdomain.DispenserSummary, error) {
	return nil, s.summaryErr
}

func (s *stubBillingService) FleetSummary(_ context.Context) ([]billingdomain.DispenserSummary, error) {
	return []billingdomain.DispenserSummary{}, s.summaryErr
}

func (s *stubBillingService) SpendingDetail(_ context.Context, _ string) (*billingdomain.SpendingDetail, error) {
	return nil, s.spendingErr
}

func newStubServer(dispenserSvc dispenserdomain.Service, tapSvc tapdomain.Service, billingSvc billingdomain.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandlingMiddleware())

	srv := NewServer(Params{
		Engine:       r,
		Config:       config.Config{},
		Log:          zap.NewNop(),
		DispenserSvc: dispenserSvc,
		TapSvc:       tapSvc,
		BillingSvc:   billingSvc,
	})
	srv.RegisterRoutes()
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateDispenserResponseShape(t *testing.T) {
	r := newStubServer(&stubDispenserService{
		registerResp: &dispenserdomain.Response{ID: "d1", FlowVolume: 0.064},
	}, &stubTapService{}, &stubBillingService{})

	w := doJSON(t, r, http.MethodPost, "/dispensers", `{"flowVolume":0.064}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"dispenser_id":"d1"}`, w.Body.String())
}

func TestCreateDispenserMalformedBody(t *testing.T) {
	r := newStubServer(&stubDispenserService{}, &stubTapService{}, &stubBillingService{})

	w := doJSON(t, r, http.MethodPost, "/dispensers", `{"flowVolume":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"validation_error"`)
}

func TestCreateDispenserInvalidFlowVolume(t *testing.T) {
	r := newStubServer(&stubDispenserService{
		registerErr: dispenserdomain.ErrInvalidFlowVolume,
	}, &stubTapService{}, &stubBillingService{})

	w := doJSON(t, r, http.MethodPost, "/dispensers", `{"flowVolume":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"validation_error"`)
}

func TestUpdateStatusOpen(t *testing.T) {
	r := newStubServer(&stubDispenserService{}, &stubTapService{
		openResp: &tapdomain.OpenResult{Status: "open", StartTime: "2022-01-01T02:00:00.000Z"},
	}, &stubBillingService{})

	w := doJSON(t, r, http.MethodPut, "/dispensers/d1/status", `{"status":"open"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"open","start_time":"2022-01-01T02:00:00.000Z"}`, w.Body.String())
}

func TestUpdateStatusClose(t *testing.T) {
	r := newStubServer(&stubDispenserService{}, &stubTapService{
		closeResp: &tapdomain.CloseResult{
			Status:  "closed",
			EndTime: "2022-01-01T02:00:50.000Z",
			Revenue: "39.20",
		},
	}, &stubBillingService{})

	w := doJSON(t, r, http.MethodPut, "/dispensers/d1/status", `{"status":"close"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"closed","end_time":"2022-01-01T02:00:50.000Z","revenue":"39.20"}`, w.Body.String())
}

func TestUpdateStatusInvalidValue(t *testing.T) {
	r := newStubServer(&stubDispenserService{}, &stubTapService{}, &stubBillingService{})

	w := doJSON(t, r, http.MethodPut, "/dispensers/d1/status", `{"status":"paused"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"invalid_status"`)
}

func TestUpdateStatusConflictsMapTo400(t *testing.T) {
	cases := []struct {
		name    string
		svc     *stubTapService
		body    string
		message string
	}{
		{
			name:    "already open",
			svc:     &stubTapService{openErr: tapdomain.ErrTapAlreadyOpen},
			body:    `{"status":"open"}`,
			message: "tap already open",
		},
		{
			name:    "no open tap",
			svc:     &stubTapService{closeErr: tapdomain.ErrNoOpenTap},
			body:    `{"status":"close"}`,
			message: "no open tap event found",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newStubServer(&stubDispenserService{}, tc.svc, &stubBillingService{})

			w := doJSON(t, r, http.MethodPut, "/dispensers/d1/status", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `"conflict"`)
			assert.Contains(t, w.Body.String(), tc.message)
		})
	}
}

func TestUpdateStatusUnknownDispenser(t *testing.T) {
	r := newStubServer(&stubDispenserService{}, &stubTapService{
		openErr: dispenserdomain.ErrNotFound,
	}, &stubBillingService{})

	w := doJSON(t, r, http.MethodPut, "/dispensers/d1/status", `{"status":"open"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"not_found"`)
}

func TestSpendingUnknownDispenser(t *testing.T) {
	r := newStubServer(&stubDispenserService{}, &stubTapService{}, &stubBillingService{
		spendingErr: dispenserdomain.ErrNotFound,
	})

	w := doJSON(t, r, http.MethodGet, "/dispensers/d1/spending", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInternalErrorsAreOpaque(t *testing.T) {
	r := newStubServer(&stubDispenserService{}, &stubTapService{}, &stubBillingService{
		summaryErr: assert.AnError,
	})

	w := doJSON(t, r, http.MethodGet, "/dispensers/summary", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}
