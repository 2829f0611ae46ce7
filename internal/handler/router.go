package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ShadowCodeSoftware/E-sante/internal/events"
	"github.com/ShadowCodeSoftware/E-sante/internal/observability/metrics"
	"github.com/ShadowCodeSoftware/E-sante/internal/security"
	"github.com/ShadowCodeSoftware/E-sante/internal/security/audit"
	"github.com/ShadowCodeSoftware/E-sante/internal/security/auth"
	"github.com/ShadowCodeSoftware/E-sante/internal/security/middleware"
	"github.com/ShadowCodeSoftware/E-sante/internal/security/ratelimit"
	"github.com/ShadowCodeSoftware/E-sante/internal/service"
)

// Services groups the application services exposed over HTTP
type Services struct {
	Auth         *service.AuthService
	Patients     *service.PatientService
	Appointments *service.AppointmentService
	Treatments   *service.TreatmentService
	Records      *service.MedicalRecordService
	Dashboard    *service.DashboardService
}

// RouterConfig carries the security components and switches of the API
type RouterConfig struct {
	Tokens         *auth.TokenManager
	Limiter        *ratelimit.Limiter
	Audit          *audit.Logger
	Authz          *security.AuthorizationService
	Broker         *events.Broker
	Checks         map[string]Pinger
	AllowedOrigins []string
	ChangeFeed     bool
}

// NewRouter builds the API mux and wraps it in the middleware chain:
// request id -> CORS -> path check -> JWT -> rate limit -> audit -> content type -> metrics.
func NewRouter(svc Services, cfg RouterConfig, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Audit == nil {
		cfg.Audit = audit.NewLogger(log)
	}
	if cfg.Authz == nil {
		cfg.Authz = security.NewAuthorizationService(log)
	}

	read := middleware.RequirePermission(cfg.Authz, cfg.Audit, security.PermReadClinical)
	write := middleware.RequirePermission(cfg.Authz, cfg.Audit, security.PermWriteClinical)
	dash := middleware.RequirePermission(cfg.Authz, cfg.Audit, security.PermViewDashboard)

	authHandler := NewAuthHandler(svc.Auth, cfg.Audit, log)
	patientHandler := NewPatientHandler(svc.Patients, log)
	appointmentHandler := NewAppointmentHandler(svc.Appointments, log)
	treatmentHandler := NewTreatmentHandler(svc.Treatments, log)
	recordHandler := NewRecordHandler(svc.Records, log)
	healthHandler := NewHealthHandler(cfg.Checks, log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/auth/me", authHandler.Me)
	mux.HandleFunc("PATCH /api/auth/me", authHandler.UpdateMe)
	mux.HandleFunc("POST /api/auth/change-password", authHandler.ChangePassword)

	mux.Handle("GET /api/patients", read(http.HandlerFunc(patientHandler.List)))
	mux.Handle("POST /api/patients", write(http.HandlerFunc(patientHandler.Create)))
	mux.Handle("GET /api/patients/{id}", read(http.HandlerFunc(patientHandler.Get)))
	mux.Handle("PATCH /api/patients/{id}", write(http.HandlerFunc(patientHandler.Update)))

	mux.Handle("GET /api/appointments", read(http.HandlerFunc(appointmentHandler.List)))
	mux.Handle("POST /api/appointments", write(http.HandlerFunc(appointmentHandler.Create)))
	mux.Handle("PATCH /api/appointments/{id}", write(http.HandlerFunc(appointmentHandler.Update)))
	mux.Handle("POST /api/appointments/{id}/status", write(http.HandlerFunc(appointmentHandler.Status)))

	mux.Handle("GET /api/treatments", read(http.HandlerFunc(treatmentHandler.List)))
	mux.Handle("POST /api/treatments", write(http.HandlerFunc(treatmentHandler.Create)))
	mux.Handle("PATCH /api/treatments/{id}", write(http.HandlerFunc(treatmentHandler.Update)))
	mux.Handle("POST /api/treatments/{id}/status", write(http.HandlerFunc(treatmentHandler.Status)))

	mux.Handle("GET /api/records", read(http.HandlerFunc(recordHandler.List)))
	mux.Handle("GET /api/records/summary", read(http.HandlerFunc(recordHandler.Summary)))
	mux.Handle("POST /api/records", write(http.HandlerFunc(recordHandler.Create)))
	mux.Handle("PATCH /api/records/{id}", write(http.HandlerFunc(recordHandler.Update)))

	mux.Handle("GET /api/dashboard", dash(NewDashboardHandler(svc.Dashboard, log)))

	if cfg.ChangeFeed && cfg.Broker != nil {
		mux.Handle("GET /ws/changes", read(NewChangesHandler(cfg.Broker, log, cfg.AllowedOrigins)))
		log.Info("change feed enabled", slog.String("path", "/ws/changes"))
	}

	var h http.Handler = metrics.HTTPMetricsMiddleware(mux)
	h = middleware.ValidateJSONContentType(log)(h)
	h = middleware.AuditMiddleware(cfg.Audit)(h)
	if cfg.Limiter != nil {
		h = middleware.RateLimitMiddleware(cfg.Limiter, log)(h)
	}
	h = middleware.JWTMiddleware(cfg.Tokens, log)(h)
	h = middleware.RejectSuspiciousPaths(log)(h)
	h = withCORS(h, cfg.AllowedOrigins)
	h = withAccessLog(h, log)
	return middleware.RequestID(h)
}

// withCORS honors the configured origins
func withCORS(next http.Handler, allowed []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(allowed, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(allowed) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", allowed[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func withAccessLog(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Info("request completed",
			slog.String("request_id", audit.RequestID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}
