package handlers

import (
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/mroshb/jeju_points/internal/metrics"
	"github.com/mroshb/jeju_points/internal/middleware"
	"github.com/mroshb/jeju_points/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HandlerManager struct {
	Points   *services.PointService
	Boxes    *services.PointBoxService
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	validate *validator.Validate
	now      func() time.Time
}

func NewHandlerManager(
	points *services.PointService,
	boxes *services.PointBoxService,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
) *HandlerManager {
	v := validator.New()
	// Report JSON field names in validation errors
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	h := &HandlerManager{
		Points:   points,
		Boxes:    boxes,
		Metrics:  m,
		Gatherer: gatherer,
		validate: v,
		now:      func() time.Time { return time.Now().UTC() },
	}
	// Box states follow the clock the box service decides expiry with
	if boxes != nil {
		h.now = boxes.Now
	}
	return h
}

// NewRouter wires every route. Everything under /v1 needs a bearer token;
// /v1/admin additionally needs the admin role.
func (h *HandlerManager) NewRouter(jwtSecret string, limiter *middleware.RateLimiter) *mux.Router {
	r := mux.NewRouter()
	r.Use(h.instrument)

	r.HandleFunc("/healthz", h.HandleHealth).Methods(http.MethodGet)
	if h.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/v1").Subrouter()
	api.Use(middleware.Authenticate(jwtSecret))

	limited := func(f http.HandlerFunc) http.Handler {
		if limiter == nil {
			return f
		}
		return middleware.RateLimit(limiter)(f)
	}

	api.HandleFunc("/accounts", h.HandleEnsureAccount).Methods(http.MethodPost)
	api.HandleFunc("/me", h.HandleMe).Methods(http.MethodGet)
	api.HandleFunc("/me/logs", h.HandleMyLogs).Methods(http.MethodGet)

	api.HandleFunc("/feeds/{feedID}/rewards", h.HandleFeedReward).Methods(http.MethodPost)

	api.Handle("/boxes", limited(h.HandleCreateBox)).Methods(http.MethodPost)
	api.HandleFunc("/boxes", h.HandleListBoxes).Methods(http.MethodGet)
	api.HandleFunc("/boxes/{boxID}", h.HandleGetBox).Methods(http.MethodGet)
	api.Handle("/boxes/{boxID}/claim", limited(h.HandleClaimBox)).Methods(http.MethodPost)
	api.HandleFunc("/boxes/{boxID}", h.HandleDeleteBox).Methods(http.MethodDelete)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/grants", h.HandleAdminGrant).Methods(http.MethodPost)
	admin.HandleFunc("/charge", h.HandleAdminCharge).Methods(http.MethodPost)
	admin.HandleFunc("/chat-awards", h.HandleChatAward).Methods(http.MethodPost)
	admin.HandleFunc("/accounts", h.HandleFindAccount).Methods(http.MethodGet)
	admin.HandleFunc("/accounts/{userID}/verify", h.HandleVerifyLedger).Methods(http.MethodGet)
	admin.HandleFunc("/accounts/{userID}/export", h.HandleExportLedger).Methods(http.MethodGet)
	admin.HandleFunc("/sweep", h.HandleSweep).Methods(http.MethodPost)

	return r
}

func (h *HandlerManager) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// instrument records request count, latency and in-flight requests per
// route template.
func (h *HandlerManager) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		h.Metrics.RequestsInFlight.Inc()
		defer h.Metrics.RequestsInFlight.Dec()

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		h.Metrics.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		h.Metrics.RequestCounter.WithLabelValues(route, http.StatusText(rec.status)).Inc()
	})
}
