package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/tixledger/api/controllers"
	"github.com/angelmondragon/tixledger/api/controllers/finance"
	"github.com/angelmondragon/tixledger/api/middleware"
	"github.com/angelmondragon/tixledger/internal/ledger"
	"github.com/angelmondragon/tixledger/internal/payouts"
	"github.com/angelmondragon/tixledger/internal/reporting"
	"github.com/angelmondragon/tixledger/internal/taxreports"
	"github.com/angelmondragon/tixledger/pkg/config"
	"github.com/angelmondragon/tixledger/pkg/db"
	"github.com/angelmondragon/tixledger/pkg/logger"
	"github.com/angelmondragon/tixledger/pkg/redis"
)

// Dependencies are the collaborators the HTTP surface needs. Redis may be
// nil, which disables idempotency and rate limiting.
type Dependencies struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        db.Pinger
	Redis     *redis.Client
	Gatherer  prometheus.Gatherer
	Reporting reporting.Service
	Ledger    ledger.Service
	Payouts   payouts.Service
	Tax       taxreports.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	readiness := map[string]controllers.Pinger{}
	if deps.DB != nil {
		readiness["database"] = deps.DB
	}
	if deps.Redis != nil {
		readiness["redis"] = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	mutations := []func(http.Handler) http.Handler{}
	if deps.Redis != nil {
		policy := middleware.NewRateLimitPolicy(
			"finance_mutations",
			cfg.RateLimit.PayoutWindow,
			cfg.RateLimit.PayoutIPLimit,
			cfg.RateLimit.PayoutMarketplaceLimit,
		)
		mutations = append(mutations,
			middleware.RateLimit(policy, deps.Redis, logg),
			middleware.Idempotency(deps.Redis, cfg.Idempotency.TTL, logg),
		)
	}

	defaultRange := cfg.Reporting.DefaultRangeDays

	r.Route("/api/v1/finance", func(r chi.Router) {
		r.Use(middleware.MarketplaceScope(logg))

		r.Route("/reports", func(r chi.Router) {
			r.Get("/income", finance.IncomeReport(deps.Reporting, defaultRange, logg))
			r.Get("/income/export.csv", finance.ExportIncomeCSV(deps.Reporting, defaultRange, logg))
			r.Get("/income/export.xlsx", finance.ExportIncomeXLSX(deps.Reporting, defaultRange, logg))
			r.Get("/tax", finance.TaxReport(deps.Tax, logg))
			r.Get("/tax/deadlines", finance.TaxDeadlines(deps.Tax, logg))
			r.Get("/tax/overdue", finance.TaxOverdue(deps.Tax, logg))
		})

		r.Route("/organizers/{organizerId}", func(r chi.Router) {
			r.Get("/balance", finance.OrganizerBalance(deps.Ledger, logg))
			r.Get("/ledger", finance.LedgerEvents(deps.Ledger, logg))
			r.With(mutations...).Post("/revenue", finance.RecordRevenue(deps.Ledger, logg))
		})

		r.Route("/payouts", func(r chi.Router) {
			r.Get("/", finance.ListPayouts(deps.Payouts, logg))
			r.With(mutations...).Post("/", finance.CreatePayout(deps.Payouts, logg))
			r.Get("/{payoutId}", finance.GetPayout(deps.Payouts, logg))
			r.With(mutations...).Post("/{payoutId}/complete", finance.CompletePayout(deps.Payouts, logg))
			r.With(mutations...).Post("/{payoutId}/cancel", finance.CancelPayout(deps.Payouts, logg))
		})
	})

	return r
}
