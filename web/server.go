package web

// This file describes the JSON API server for the salesboard project.
//
// Modules called by this server should provide self-describing errors since
// these are sent directly to an internal server error func:
//
//	web.ServerError(w, r, err)
//
// Each endpoint handler is set out as a HandlerFunc closure. This allows for
// the router to provide arguments to the handler, as discussed in Mat Ryer's
// post at
//
//	https://grafana.com/blog/how-i-write-http-services-in-go-after-13-years/
//
// Helper functions, such as `ServerError` and `clientError`, are at the end
// of the file.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/charmbracelet/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"salesboard/analysis"
	"salesboard/config"
	"salesboard/dataset"
)

// sessionTargetKey is the session key for the per-session monthly target
// override.
const sessionTargetKey = "monthly-target"

// topProductsLen is the number of products offered as cross-sell anchors.
const topProductsLen = 20

// WebApp is the configuration object for the web server.
type WebApp struct {
	log      *log.Logger
	cfg      *config.Config
	cache    *dataset.Cache
	reload   func(ctx context.Context) error
	sessions *scs.SessionManager
	server   *http.Server
}

// New initialises a WebApp. The reload func re-runs the feed load when an
// operator posts to /api/reload; it may be nil.
func New(
	logger *log.Logger,
	cfg *config.Config,
	cache *dataset.Cache,
	reload func(ctx context.Context) error,
) (*WebApp, error) {
	if cache == nil {
		return nil, fmt.Errorf("a dataset cache is required")
	}

	sessions := scs.New()
	sessions.Lifetime = 12 * time.Hour
	sessions.Cookie.Secure = !cfg.Web.DevelopmentMode

	server := &http.Server{
		Addr:              cfg.Web.ListenAddress,
		ReadHeaderTimeout: time.Duration(30 * time.Second),
		WriteTimeout:      time.Duration(30 * time.Second),
		MaxHeaderBytes:    1 << 19, // 100k ish
	}

	webApp := &WebApp{
		log:      logger,
		cfg:      cfg,
		cache:    cache,
		reload:   reload,
		sessions: sessions,
		server:   server,
	}
	return webApp, nil
}

// StartServer starts the WebApp, shutting down gracefully when the context
// is cancelled.
func (web *WebApp) StartServer(ctx context.Context) error {
	web.server.Handler = web.routes()
	web.log.Info("starting server", "addr", web.cfg.Web.ListenAddress)

	errChan := make(chan error, 1)
	go func() {
		errChan <- web.server.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return web.server.Shutdown(shutdownCtx)
	}
}

// routes connects all of the endpoints and provides middleware.
func (web *WebApp) routes() http.Handler {

	r := mux.NewRouter()

	r.Handle("/healthz", web.handleHealthz())

	api := r.PathPrefix("/api").Subrouter()
	api.Handle("/feeds", web.handleFeeds())
	api.Handle("/filters", web.handleFilters())
	api.Handle("/summary", web.handleSummary())
	api.Handle("/coverage", web.handleCoverage())
	api.Handle("/frequency", web.handleFrequency())
	api.Handle("/drops", web.handleDrops())
	api.Handle("/rejected-deliveries", web.handleRejectedDeliveries())
	api.Handle("/churn", web.handleChurn())
	api.Handle("/cross-sell", web.handleCrossSell())
	api.Handle("/payments", web.handlePayments())
	api.Handle("/trend", web.handleTrend())
	api.Handle("/audit", web.handleAudit())
	api.Handle("/clients/{id:[A-Za-z0-9_-]+}", web.handleClient())
	api.Handle("/route", web.handleRoute())
	api.Handle("/route/message", web.handleRouteMessage())
	api.Handle("/settings", web.handleSettings())
	api.Handle("/reload", web.handleReload()).Methods("POST")

	logging := handlers.LoggingHandler(os.Stdout, r)
	return web.sessions.LoadAndSave(logging)
}

// currentView resolves the cached dataset through the request's filter
// parameters, writing the appropriate error response itself when it cannot.
func (web *WebApp) currentView(w http.ResponseWriter, r *http.Request, form *FilterForm) (*analysis.View, bool) {
	if err := DecodeURLParams(r, form); err != nil {
		web.clientError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	validator := NewValidator()
	form.Validate(validator)
	if !validator.Valid() {
		web.validationError(w, validator)
		return nil, false
	}

	ds, _, ok := web.cache.Current()
	if !ok {
		web.noData(w)
		return nil, false
	}
	return analysis.Apply(ds, analysis.Filter{
		Channels:    form.Channels,
		Salesperson: form.Salesperson,
		From:        form.DateFrom,
		To:          form.DateTo,
	}), true
}

// monthlyTarget returns the session override when set, the configured
// default otherwise.
func (web *WebApp) monthlyTarget(r *http.Request) float64 {
	if target := web.sessions.GetFloat(r.Context(), sessionTargetKey); target > 0 {
		return target
	}
	return web.cfg.MonthlyTarget
}

// handleHealthz reports process liveness and whether a dataset is loaded.
func (web *WebApp) handleHealthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, report, ok := web.cache.Current()
		resp := struct {
			Status    string    `json:"status"`
			HasData   bool      `json:"has_data"`
			LoadedAt  time.Time `json:"loaded_at,omitzero"`
		}{Status: "ok", HasData: ok}
		if ok {
			resp.LoadedAt = report.LoadedAt
		}
		web.writeJSON(w, r, http.StatusOK, resp)
	})
}

// handleFeeds reports the per-feed load outcomes of the current dataset.
func (web *WebApp) handleFeeds() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, report, ok := web.cache.Current()
		if !ok {
			web.noData(w)
			return
		}
		web.writeJSON(w, r, http.StatusOK, struct {
			Feeds        []dataset.FeedReport `json:"feeds"`
			LoadedAt     time.Time            `json:"loaded_at"`
			FromSnapshot bool                 `json:"from_snapshot"`
		}{report.Feeds(), report.LoadedAt, report.FromSnapshot})
	})
}

// handleFilters serves the filter options for the current dataset: the
// channels and salespeople a client can offer in its selectors.
func (web *WebApp) handleFilters() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ds, _, ok := web.cache.Current()
		if !ok {
			web.noData(w)
			return
		}
		v := analysis.Apply(ds, analysis.Filter{})
		web.writeJSON(w, r, http.StatusOK, struct {
			Channels    []string               `json:"channels"`
			Salespeople []string               `json:"salespeople"`
			TopProducts []analysis.ProductRank `json:"top_products"`
		}{analysis.Channels(ds), v.Salespeople(), analysis.TopProducts(v, topProductsLen)})
	})
}

// handleSummary serves the headline figures.
func (web *WebApp) handleSummary() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		form := &FilterForm{}
		v, ok := web.currentView(w, r, form)
		if !ok {
			return
		}
		report, err := analysis.Summary(v, web.monthlyTarget(r))
		if err != nil {
			web.viewError(w, r, err)
			return
		}
		web.writeJSON(w, r, http.StatusOK, report)
	})
}

// handleCoverage serves the portfolio coverage view.
func (web *WebApp) handleCoverage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		form := &FilterForm{}
		v, ok := web.currentView(w, r, form)
		if !ok {
			return
		}
		report, err := analysis.Coverage(v, web.cfg.ActiveSalespeople)
		if err != nil {
			web.viewError(w, r, err)
			return
		}
		web.writeJSON(w, r, http.StatusOK, report)
	})
}

// handleFrequency serves the purchase-frequency view.
func (web *WebApp) handleFrequency() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		form := &FilterForm{}
		v, ok := web.currentView(w, r, form)
		if !ok {
			return
		}
		report, err := analysis.Frequency(v)
		if err != nil {
			web.viewError(w, r, err)
			return
		}
		web.writeJSON(w, r, http.StatusOK, report)
	})
}

// handleDrops serves the pre-sale drop reconciliation view.
func (web *WebApp) handleDrops() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		form := &FilterForm{}
		v, ok := web.currentView(w, r, form)
		if !ok {
			return
		}
		report, err := analysis.Drops(v, web.cfg.DeliveryTolerance)
		if err != nil {
			web.viewError(w, r, err)
			return
		}
		web.writeJSON(w, r, http.StatusOK, report)
	})
}

// handleRejectedDeliveries serves the rejected-delivery view with its own
// distributor/zone narrowing.
func (web *WebApp) handleRejectedDeliveries() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		form := &RejectedForm{}
		if err := DecodeURLParams(r, form); err != nil {
			web.clientError(w, err.Error(), http.StatusBadRequest)
			return
		}
		validator := NewValidator()
		form.Validate(validator)
		if !validator.Valid() {
			web.validationError(w, validator)
			return
		}

		ds, _, ok := web.cache.Current()
		if !ok {
			web.noData(w)
			return
		}
		v := analysis.Apply(ds, analysis.Filter{Salesperson: form.Salesperson})
		report, err := analysis.RejectedDeliveries(v, analysis.RejectedFilter{
			Distributor: form.Distributor,
			Zone:        form.Zone,
			From:        form.DateFrom,
			To:          form.DateTo,
		})
		if err != nil {
			web.viewError(w, r, err)
			return
		}
		web.writeJSON(w, r, http.StatusOK, report)
	})
}

// handleChurn serves the lapsing-clients view.
func (web *WebApp) handleChurn() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		form := &FilterForm{}
		v, ok := web.currentView(w, r, form)
		if !ok {
			return
		}
		report, err := analysis.Churn(v)
		if err != nil {
			web.viewError(w, r, err)
			return
		}
		web.writeJSON(w, r, http.StatusOK, report)
	})
}

// handleCrossSell serves the basket companion view for an anchor product.
func (web *WebApp) handleCrossSell() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		form := &CrossSellForm{}
		if err := DecodeURLParams(r, form); err != nil {
			web.clientError(w, err.Error(), http.StatusBadRequest)
			return
		}
		validator := NewValidator()
		form.Validate(validator)
		if !validator.Valid() {
			web.validationError(w, validator)
			return
		}

		ds, _, ok := web.cache.Current()
		if !ok {
			web.noData(w)
			return
		}
		v := analysis.Apply(ds, analysis.Filter{
			Channels:    form.Channels,
			Salesperson: form.Salesperson,
			From:        form.DateFrom,
			To:          form.DateTo,
		})
		report, err := analysis.CrossSell(v, form.Product)
		if err != nil {
			web.viewError(w, r, err)
			return
		}
		web.writeJSON(w, r, http.StatusOK, report)
	})
}

// handlePayments serves the payment-mix and credit-exposure view.
func (web *WebApp) handlePayments() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		form := &FilterForm{}
		v, ok := web.currentView(w, r, form)
		if !ok {
			return
		}
		report, err := analysis.Payments(v)
		if err != nil {
			web.viewError(w, r, err)
			return
		}
		web.writeJSON(w, r, http.StatusOK, report)
	})
}

// handleTrend serves the daily and weekly evolution view.
func (web *WebApp) handleTrend() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		form := &FilterForm{}
		v, ok := web.currentView(w, r, form)
		if !ok {
			return
		}
		report, err := analysis.Trend(v)
		if err != nil {
			web.viewError(w, r, err)
			return
		}
		web.writeJSON(w, r, http.StatusOK, report)
	})
}

// handleAudit serves the salesperson amount pivot over the product
// hierarchy dimensions.
func (web *WebApp) handleAudit() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		form := &AuditForm{}
		if err := DecodeURLParams(r, form); err != nil {
			web.clientError(w, err.Error(), http.StatusBadRequest)
			return
		}
		validator := NewValidator()
		form.Validate(validator)
		if !validator.Valid() {
			web.validationError(w, validator)
			return
		}

		ds, _, ok := web.cache.Current()
		if !ok {
			web.noData(w)
			return
		}
		v := analysis.Apply(ds, analysis.Filter{
			Channels:    form.Channels,
			Salesperson: form.Salesperson,
			From:        form.DateFrom,
			To:          form.DateTo,
		})
		report, err := analysis.Audit(v, analysis.AuditFilter{
			Hierarchies: form.Hierarchies,
			Categories:  form.Categories,
			Products:    form.Products,
		})
		if err != nil {
			web.viewError(w, r, err)
			return
		}
		web.writeJSON(w, r, http.StatusOK, report)
	})
}

// handleClient serves the single-client profile at /api/clients/<id>.
func (web *WebApp) handleClient() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		clientID, ok := vars["id"]
		if !ok {
			web.clientError(w, `parameter "id" missing`, http.StatusBadRequest)
			return
		}

		form := &FilterForm{}
		v, viewOK := web.currentView(w, r, form)
		if !viewOK {
			return
		}
		profile, err := analysis.Client(v, clientID)
		if err != nil {
			if analysis.IsUnavailable(err) {
				web.viewError(w, r, err)
				return
			}
			web.clientError(w, err.Error(), http.StatusNotFound)
			return
		}
		web.writeJSON(w, r, http.StatusOK, profile)
	})
}

// handleRoute serves the georeferenced route view.
func (web *WebApp) handleRoute() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		report, ok := web.routeReport(w, r)
		if !ok {
			return
		}
		web.writeJSON(w, r, http.StatusOK, report)
	})
}

// handleRouteMessage serves the route's pending clients as a shareable
// plain-text block.
func (web *WebApp) handleRouteMessage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		report, ok := web.routeReport(w, r)
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, analysis.RouteMessage(report))
	})
}

// routeReport resolves the route view for the route endpoints.
func (web *WebApp) routeReport(w http.ResponseWriter, r *http.Request) (*analysis.RouteReport, bool) {
	form := &RouteForm{}
	if err := DecodeURLParams(r, form); err != nil {
		web.clientError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	validator := NewValidator()
	form.Validate(validator)
	if !validator.Valid() {
		web.validationError(w, validator)
		return nil, false
	}

	ds, _, ok := web.cache.Current()
	if !ok {
		web.noData(w)
		return nil, false
	}
	v := analysis.Apply(ds, analysis.Filter{
		Channels:    form.Channels,
		Salesperson: form.Salesperson,
		From:        form.DateFrom,
		To:          form.DateTo,
	})
	report, err := analysis.Route(v, form.VisitDay)
	if err != nil {
		web.viewError(w, r, err)
		return nil, false
	}
	return report, true
}

// handleSettings reads (GET) or updates (POST) the per-session settings.
func (web *WebApp) handleSettings() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			form := &SettingsForm{}
			if err := DecodePostForm(r, form); err != nil {
				web.clientError(w, err.Error(), http.StatusBadRequest)
				return
			}
			validator := NewValidator()
			form.Validate(validator)
			if !validator.Valid() {
				web.validationError(w, validator)
				return
			}
			if form.MonthlyTarget == 0 {
				web.sessions.Remove(r.Context(), sessionTargetKey)
			} else {
				web.sessions.Put(r.Context(), sessionTargetKey, form.MonthlyTarget)
			}
		}

		web.writeJSON(w, r, http.StatusOK, struct {
			MonthlyTarget        float64 `json:"monthly_target"`
			DefaultMonthlyTarget float64 `json:"default_monthly_target"`
			DeliveryTolerance    float64 `json:"delivery_tolerance"`
		}{web.monthlyTarget(r), web.cfg.MonthlyTarget, web.cfg.DeliveryTolerance})
	})
}

// handleReload triggers a feed reload.
func (web *WebApp) handleReload() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if web.reload == nil {
			web.clientError(w, "reloading is not enabled", http.StatusNotImplemented)
			return
		}
		if err := web.reload(r.Context()); err != nil {
			web.ServerError(w, r, err)
			return
		}
		_, report, ok := web.cache.Current()
		if !ok {
			web.noData(w)
			return
		}
		web.writeJSON(w, r, http.StatusOK, struct {
			Feeds    []dataset.FeedReport `json:"feeds"`
			LoadedAt time.Time            `json:"loaded_at"`
		}{report.Feeds(), report.LoadedAt})
	})
}

/* -------------------------------------------------------------------------- */
// Helpers
/* -------------------------------------------------------------------------- */

// writeJSON marshals v to the response writer.
func (web *WebApp) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		web.log.Error("json encoding error", "uri", r.URL.RequestURI(), "err", err)
	}
}

// ServerError logs and returns an internal server error. The error should
// contain the information needed for logging.
func (web *WebApp) ServerError(w http.ResponseWriter, r *http.Request, errs ...error) {
	err := errors.Join(errs...)
	web.log.Error(err.Error(), "method", r.Method, "uri", r.URL.RequestURI())
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// clientError returns a client error as JSON.
func (web *WebApp) clientError(w http.ResponseWriter, message string, status int) {
	if message == "" {
		message = http.StatusText(status)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{message})
}

// validationError returns the validator's field errors with a 422.
func (web *WebApp) validationError(w http.ResponseWriter, v *Validator) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnprocessableEntity)
	json.NewEncoder(w).Encode(v)
}

// viewError maps an analysis error to a response: feed unavailability is a
// 503 the client can present as "upload this feed", anything else a 500.
func (web *WebApp) viewError(w http.ResponseWriter, r *http.Request, err error) {
	if analysis.IsUnavailable(err) {
		web.clientError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	web.ServerError(w, r, err)
}

// noData reports that no dataset has loaded yet.
func (web *WebApp) noData(w http.ResponseWriter) {
	web.clientError(w, "no dataset is loaded yet; add feed files to the data directory", http.StatusServiceUnavailable)
}
