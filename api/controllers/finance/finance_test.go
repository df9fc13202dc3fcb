package finance

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tixledger/api/middleware"
	"github.com/angelmondragon/tixledger/internal/ledger"
	"github.com/angelmondragon/tixledger/internal/payouts"
	"github.com/angelmondragon/tixledger/internal/reporting"
	"github.com/angelmondragon/tixledger/internal/taxreports"
	"github.com/angelmondragon/tixledger/pkg/db/models"
	"github.com/angelmondragon/tixledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/tixledger/pkg/errors"
	"github.com/angelmondragon/tixledger/pkg/money"
)

type stubLedger struct {
	ledger.Service
	recorded  money.Money
	limit     int
	balanceFn func() (*ledger.BalanceSnapshot, error)
}

func (s *stubLedger) RecordRevenue(_ context.Context, m, o uuid.UUID, amount money.Money) (*ledger.BalanceSnapshot, error) {
	s.recorded = amount
	return &ledger.BalanceSnapshot{MarketplaceID: m, OrganizerID: o, TotalRevenue: amount}, nil
}

func (s *stubLedger) GetOrganizerBalance(_ context.Context, m, o uuid.UUID) (*ledger.BalanceSnapshot, error) {
	if s.balanceFn != nil {
		return s.balanceFn()
	}
	return &ledger.BalanceSnapshot{MarketplaceID: m, OrganizerID: o}, nil
}

func (s *stubLedger) ListEvents(_ context.Context, _, _ uuid.UUID, limit int) ([]models.LedgerEvent, error) {
	s.limit = limit
	return []models.LedgerEvent{}, nil
}

type stubPayouts struct {
	payouts.Service
	created    payouts.CreatePayoutInput
	listParams payouts.ListParams
	err        error
}

func (s *stubPayouts) CreatePayout(_ context.Context, input payouts.CreatePayoutInput) (*models.Payout, error) {
	s.created = input
	if s.err != nil {
		return nil, s.err
	}
	return &models.Payout{ID: uuid.New(), OrganizerID: input.OrganizerID, AmountCents: input.AmountCents, Status: enums.PayoutStatusProcessing}, nil
}

func (s *stubPayouts) ListPayouts(_ context.Context, params payouts.ListParams) (*payouts.ListResult, error) {
	s.listParams = params
	return &payouts.ListResult{Items: []models.Payout{}}, nil
}

func (s *stubPayouts) CancelPayout(_ context.Context, _, id uuid.UUID) (*models.Payout, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Payout{ID: id, Status: enums.PayoutStatusCancelled}, nil
}

type stubReporting struct {
	query reporting.IncomeQuery
}

func (s *stubReporting) GetIncomeReport(_ context.Context, query reporting.IncomeQuery) (*reporting.IncomeReport, error) {
	s.query = query
	report := &reporting.IncomeReport{}
	report.Current.Range = query.Range
	return report, nil
}

type stubTax struct {
	filters    taxreports.Filters
	windowDays int
}

func (s *stubTax) GetTaxReport(_ context.Context, _ uuid.UUID, filters taxreports.Filters) (*taxreports.TaxReport, error) {
	s.filters = filters
	return &taxreports.TaxReport{Currency: "USD"}, nil
}

func (s *stubTax) GetUpcomingDeadlines(_ context.Context, _ uuid.UUID, windowDays int) ([]taxreports.Deadline, error) {
	s.windowDays = windowDays
	return []taxreports.Deadline{}, nil
}

func (s *stubTax) GetOverduePayments(context.Context, uuid.UUID) ([]taxreports.Deadline, error) {
	return nil, nil
}

var testMarketplace = uuid.MustParse("7b0c4a52-44f1-4a44-9f55-2d0c7c1e6a11")

func serve(t *testing.T, method, pattern, target string, handler http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithMarketplaceID(req.Context(), testMarketplace)))
		})
	})
	r.MethodFunc(method, pattern, handler)
	req := httptest.NewRequest(method, target, reader)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Error.Code
}

func TestHandlersRequireMarketplaceContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/balance", nil)
	resp := httptest.NewRecorder()
	OrganizerBalance(&stubLedger{}, nil).ServeHTTP(resp, req)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestOrganizerBalanceRejectsBadPathID(t *testing.T) {
	resp := serve(t, http.MethodGet, "/organizers/{organizerId}/balance", "/organizers/nope/balance", OrganizerBalance(&stubLedger{}, nil), nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), errorCode(t, resp))
}

func TestOrganizerBalanceMapsDomainErrors(t *testing.T) {
	svc := &stubLedger{balanceFn: func() (*ledger.BalanceSnapshot, error) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}}
	resp := serve(t, http.MethodGet, "/organizers/{organizerId}/balance", "/organizers/"+uuid.NewString()+"/balance", OrganizerBalance(svc, nil), nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestLedgerEventsLimit(t *testing.T) {
	svc := &stubLedger{}
	path := "/organizers/" + uuid.NewString() + "/ledger"
	resp := serve(t, http.MethodGet, "/organizers/{organizerId}/ledger", path, LedgerEvents(svc, nil), nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 50, svc.limit)

	resp = serve(t, http.MethodGet, "/organizers/{organizerId}/ledger", path+"?limit=501", LedgerEvents(svc, nil), nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRecordRevenueValidatesBody(t *testing.T) {
	svc := &stubLedger{}
	path := "/organizers/" + uuid.NewString() + "/revenue"
	pattern := "/organizers/{organizerId}/revenue"

	resp := serve(t, http.MethodPost, pattern, path, RecordRevenue(svc, nil), map[string]any{"amountCents": 0, "currency": "USD"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = serve(t, http.MethodPost, pattern, path, RecordRevenue(svc, nil), map[string]any{"amountCents": 1200, "currency": "usd"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Equal(t, money.New(1200, "USD"), svc.recorded)
}

func TestCreatePayoutPassesInput(t *testing.T) {
	svc := &stubPayouts{}
	organizer := uuid.New()
	resp := serve(t, http.MethodPost, "/payouts", "/payouts", CreatePayout(svc, nil), map[string]any{
		"organizerId": organizer.String(),
		"amountCents": 700,
		"reference":   "REQ-9",
		"notes":       "  weekly ",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Equal(t, testMarketplace, svc.created.MarketplaceID)
	assert.Equal(t, organizer, svc.created.OrganizerID)
	assert.Equal(t, int64(700), svc.created.AmountCents)
	require.NotNil(t, svc.created.Notes)
	assert.Equal(t, "weekly", *svc.created.Notes)
}

func TestCreatePayoutValidation(t *testing.T) {
	cases := map[string]map[string]any{
		"missing organizer": {"amountCents": 10, "reference": "R"},
		"zero amount":       {"organizerId": uuid.NewString(), "amountCents": 0, "reference": "R"},
		"missing reference": {"organizerId": uuid.NewString(), "amountCents": 10},
		"unknown field":     {"organizerId": uuid.NewString(), "amountCents": 10, "reference": "R", "extra": true},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := serve(t, http.MethodPost, "/payouts", "/payouts", CreatePayout(&stubPayouts{}, nil), body)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
		})
	}
}

func TestCreatePayoutInsufficientBalance(t *testing.T) {
	svc := &stubPayouts{err: pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient balance")}
	resp := serve(t, http.MethodPost, "/payouts", "/payouts", CreatePayout(svc, nil), map[string]any{
		"organizerId": uuid.NewString(),
		"amountCents": 10,
		"reference":   "R",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, string(pkgerrors.CodeInsufficientBalance), errorCode(t, resp))
}

func TestCancelPayoutInvalidTransition(t *testing.T) {
	svc := &stubPayouts{err: pkgerrors.New(pkgerrors.CodeInvalidTransition, "payout already completed")}
	resp := serve(t, http.MethodPost, "/payouts/{payoutId}/cancel", "/payouts/"+uuid.NewString()+"/cancel", CancelPayout(svc, nil), nil)
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestListPayoutsFilters(t *testing.T) {
	svc := &stubPayouts{}
	organizer := uuid.New()
	resp := serve(t, http.MethodGet, "/payouts", "/payouts?status=processing&organizerId="+organizer.String()+"&limit=10", ListPayouts(svc, nil), nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.NotNil(t, svc.listParams.Status)
	assert.Equal(t, enums.PayoutStatusProcessing, *svc.listParams.Status)
	require.NotNil(t, svc.listParams.OrganizerID)
	assert.Equal(t, organizer, *svc.listParams.OrganizerID)
	assert.Equal(t, 10, svc.listParams.Limit)

	resp = serve(t, http.MethodGet, "/payouts", "/payouts?status=lost", ListPayouts(svc, nil), nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestIncomeReportRanges(t *testing.T) {
	original := timeNowUTC
	timeNowUTC = func() time.Time { return time.Date(2026, 3, 31, 15, 0, 0, 0, time.UTC) }
	defer func() { timeNowUTC = original }()

	svc := &stubReporting{}
	resp := serve(t, http.MethodGet, "/income", "/income", IncomeReport(svc, 30, nil), nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 30, svc.query.Range.Days())
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), svc.query.Range.Start)

	resp = serve(t, http.MethodGet, "/income", "/income?range=7d", IncomeReport(svc, 30, nil), nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 7, svc.query.Range.Days())

	resp = serve(t, http.MethodGet, "/income", "/income?from=2026-01-01&to=2026-01-31", IncomeReport(svc, 30, nil), nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 31, svc.query.Range.Days())

	for _, bad := range []string{"?range=14d", "?from=2026-01-01", "?from=2026-02-01&to=2026-01-01", "?from=yesterday&to=2026-01-01"} {
		resp = serve(t, http.MethodGet, "/income", "/income"+bad, IncomeReport(svc, 30, nil), nil)
		assert.Equal(t, http.StatusBadRequest, resp.Code, bad)
	}
}

func TestExportIncomeCSVFilename(t *testing.T) {
	svc := &stubReporting{}
	resp := serve(t, http.MethodGet, "/export.csv", "/export.csv?from=2026-01-01&to=2026-01-31", ExportIncomeCSV(svc, 30, nil), nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, contentTypeCSV, resp.Header().Get("Content-Type"))
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "income-20260101-20260131.csv")
	assert.True(t, bytes.HasPrefix(resp.Body.Bytes(), []byte("\xEF\xBB\xBF")))
}

func TestExportIncomeXLSX(t *testing.T) {
	svc := &stubReporting{}
	resp := serve(t, http.MethodGet, "/export.xlsx", "/export.xlsx?from=2026-01-01&to=2026-01-31", ExportIncomeXLSX(svc, 30, nil), nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, contentTypeXLSX, resp.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(resp.Body.Bytes(), []byte("PK")))
}

func TestTaxReportFilters(t *testing.T) {
	svc := &stubTax{}
	event := uuid.New()
	resp := serve(t, http.MethodGet, "/tax", "/tax?status=overdue&from=2026-01-01&to=2026-02-01&eventId="+event.String(), TaxReport(svc, nil), nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.NotNil(t, svc.filters.Status)
	assert.Equal(t, enums.TaxStatusOverdue, *svc.filters.Status)
	require.NotNil(t, svc.filters.EventID)
	assert.Equal(t, event, *svc.filters.EventID)
	require.NotNil(t, svc.filters.From)
	require.NotNil(t, svc.filters.To)

	resp = serve(t, http.MethodGet, "/tax", "/tax?status=late", TaxReport(svc, nil), nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestTaxDeadlinesWindow(t *testing.T) {
	svc := &stubTax{}
	resp := serve(t, http.MethodGet, "/deadlines", "/deadlines?windowDays=14", TaxDeadlines(svc, nil), nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 14, svc.windowDays)
	assert.JSONEq(t, `{"data":{"items":[]}}`, resp.Body.String())

	resp = serve(t, http.MethodGet, "/deadlines", "/deadlines?windowDays=400", TaxDeadlines(svc, nil), nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestTaxOverdueEmptyListIsArray(t *testing.T) {
	resp := serve(t, http.MethodGet, "/overdue", "/overdue", TaxOverdue(&stubTax{}, nil), nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"data":{"items":[]}}`, resp.Body.String())
}

func TestNilServicesFailClosed(t *testing.T) {
	resp := serve(t, http.MethodGet, "/overdue", "/overdue", TaxOverdue(nil, nil), nil)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestCreatePayoutBlankNotesDropped(t *testing.T) {
	svc := &stubPayouts{}
	resp := serve(t, http.MethodPost, "/payouts", "/payouts", CreatePayout(svc, nil), map[string]any{
		"organizerId": uuid.NewString(),
		"amountCents": 5,
		"reference":   "R",
		"notes":       "   ",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Nil(t, svc.created.Notes)
}
