package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"screend/internal/broadcast"
	"screend/internal/pipeline"
	"screend/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Tenants() []types.Tenant
	Tenant(id string) (types.Tenant, error)
	TenantStatus(id string) (types.TenantStatus, error)
	Status() types.StatusResponse
	Ready() bool
	Notify(tenant string) error
	Subscribe(tenant string) (*broadcast.Subscription, error)
	Unsubscribe(sub *broadcast.Subscription)
	LiveReference(tenant string) (types.ArtifactRef, error)
	StoreSource(tenant string, r io.Reader) error
	Activate(tenant, file string) error
	IntakeFiles(tenant string) ([]string, error)
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints (event streams are not in the default
	// content-type set and pass through uncompressed)
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "Last-Event-ID"},
		}))
	}
	// Security headers; artifacts must never be satisfied from a stale cache
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("Cache-Control", "no-store")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(svc.Status()); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
			return
		}
	})

	r.Get("/tenants", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(types.TenantsResponse{Tenants: svc.Tenants()}); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
			return
		}
	})

	r.Route("/tenants/{tenant}", func(r chi.Router) {
		r.Get("/status", handleTenantStatus(svc))
		r.Get("/events", handleEvents(svc))
		r.Get("/screen.png", handleScreen(svc))
		r.Get("/source.pdf", handleSource(svc))
		r.Get("/intake", handleIntakeList(svc))
		r.Post("/upload", handleUpload(svc))
		r.Post("/activate", handleActivate(svc))
		r.Post("/refresh", handleRefresh(svc))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

// writeServiceError maps well-known pipeline errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case pipeline.IsTenantNotFound(err):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case err == pipeline.ErrNotReady:
		writeJSONError(w, http.StatusNotFound, err.Error())
	default:
		if he, ok := err.(HTTPError); ok {
			writeJSONError(w, he.StatusCode(), he.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

func tenantParam(r *http.Request) string {
	return chi.URLParam(r, "tenant")
}

func handleTenantStatus(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.TenantStatus(tenantParam(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(st)
	}
}

func handleScreen(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := svc.LiveReference(tenantParam(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		http.ServeFile(w, r, ref.Path)
	}
}

func handleSource(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tn, err := svc.Tenant(tenantParam(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if !tn.HasSource {
			writeJSONError(w, http.StatusNotFound, "no source document")
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		http.ServeFile(w, r, tn.SourcePath)
	}
}

func handleIntakeList(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		files, err := svc.IntakeFiles(tenantParam(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if files == nil {
			files = []string{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string][]string{"files": files})
	}
}

func handleUpload(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant := tenantParam(r)
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		f, hdr, err := r.FormFile("pdf")
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "missing 'pdf' form file")
			return
		}
		defer f.Close()
		if err := svc.StoreSource(tenant, f); err != nil {
			writeServiceError(w, err)
			return
		}
		zlog.Info().Str("tenant", tenant).Str("file", hdr.Filename).Int64("bytes", hdr.Size).
			Str("request_id", middleware.GetReqID(r.Context())).Msg("upload accepted")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}

func handleActivate(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.ActivateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.File) == "" {
			writeJSONError(w, http.StatusBadRequest, "file is required")
			return
		}
		if err := svc.Activate(tenantParam(r), req.File); err != nil {
			if pipeline.IsTenantNotFound(err) {
				writeServiceError(w, err)
				return
			}
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}

func handleRefresh(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Notify(tenantParam(r)); err != nil {
			writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}
