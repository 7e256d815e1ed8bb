package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/agrifleet/agrifleet-backend/internal/api/handlers"
	"github.com/agrifleet/agrifleet-backend/internal/api/httpx"
	"github.com/agrifleet/agrifleet-backend/internal/blob"
	"github.com/agrifleet/agrifleet-backend/internal/config"
	"github.com/agrifleet/agrifleet-backend/internal/metrics"
	"github.com/agrifleet/agrifleet-backend/internal/middleware"
	"github.com/agrifleet/agrifleet-backend/internal/models"
	repo "github.com/agrifleet/agrifleet-backend/internal/repository"
	"github.com/agrifleet/agrifleet-backend/internal/services"
)

type RouterDeps struct {
	Cfg      config.Config
	Auth     *handlers.AuthHandler
	AuthMW   *middleware.AuthMiddleware
	Listings *services.ListingService
	Finance  *services.FinanceService
	Market   *services.MarketService
	Blobs    *blob.FSStore
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RateLimit(d.Cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	// uploaded listing images
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.Blobs.Root()))))

	r.Route("/api/v1", func(r chi.Router) {
		// ---------- auth ----------
		r.Post("/auth/register", d.Auth.Register)
		r.Post("/auth/login", d.Auth.Login)
		r.Post("/auth/refresh", d.Auth.Refresh)

		// ---------- listings (public reads) ----------
		r.Get("/listings", func(w http.ResponseWriter, r *http.Request) {
			// The two-phase read settles here: respond with the last
			// emission (fresh when the remote answered, cached otherwise).
			var last services.ListingsUpdate
			for u := range d.Listings.GetAll() {
				last = u
			}
			httpx.WriteJSON(w, http.StatusOK, map[string]any{
				"source":   last.Source,
				"listings": emptyIfNil(last.Listings),
			})
		})

		r.Get("/listings/search", func(w http.ResponseWriter, r *http.Request) {
			f := models.ListingFilter{
				Query:       r.URL.Query().Get("q"),
				City:        r.URL.Query().Get("city"),
				MachineType: models.MachineType(r.URL.Query().Get("machine_type")),
			}
			out, err := d.Listings.Search(f)
			if err != nil {
				httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable", "search unavailable", nil)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, emptyIfNil(out))
		})

		r.Get("/listings/{id}", func(w http.ResponseWriter, r *http.Request) {
			l, err := d.Listings.GetByID(chi.URLParam(r, "id"))
			if err != nil {
				httpx.WriteError(w, http.StatusNotFound, "not_found", "listing not found", nil)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, l)
		})

		// ---------- market prices ----------
		r.Get("/market/prices", func(w http.ResponseWriter, r *http.Request) {
			out, err := d.Market.Latest()
			if err != nil {
				httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable", "market prices unavailable", nil)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, out)
		})

		// ---------- authenticated ----------
		r.Group(func(r chi.Router) {
			r.Use(d.AuthMW.Auth)

			r.Post("/listings", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				var l models.Listing
				if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
					return
				}
				l.OwnerID = uid
				created, err := d.Listings.Create(l)
				if err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "validation", err.Error(), nil)
					return
				}
				httpx.WriteJSON(w, http.StatusCreated, created)
			})

			r.Put("/listings/{id}", func(w http.ResponseWriter, r *http.Request) {
				l, ok := ownedListing(w, r, d.Listings)
				if !ok {
					return
				}
				var in models.Listing
				if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
					return
				}
				in.ID = l.ID
				in.OwnerID = l.OwnerID
				in.CreatedAt = l.CreatedAt
				if err := d.Listings.Update(in); err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "validation", err.Error(), nil)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, in)
			})

			r.Delete("/listings/{id}", func(w http.ResponseWriter, r *http.Request) {
				if _, ok := ownedListing(w, r, d.Listings); !ok {
					return
				}
				if err := d.Listings.Delete(chi.URLParam(r, "id")); err != nil {
					httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable", "delete failed", nil)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})

			r.Post("/listings/{id}/deactivate", func(w http.ResponseWriter, r *http.Request) {
				if _, ok := ownedListing(w, r, d.Listings); !ok {
					return
				}
				if err := d.Listings.Deactivate(chi.URLParam(r, "id")); err != nil {
					httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable", "deactivate failed", nil)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})

			r.Get("/my/listings", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				out, err := d.Listings.ListByOwner(uid)
				if err != nil {
					httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable", "listings unavailable", nil)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, emptyIfNil(out))
			})

			// image upload: multipart "file", returns the public URL
			r.Post("/uploads", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				if err := r.ParseMultipartForm(10 << 20); err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid multipart body", nil)
					return
				}
				file, hdr, err := r.FormFile("file")
				if err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", "file required", nil)
					return
				}
				defer file.Close()

				dst := uid + "/" + uuid.NewString() + filepath.Ext(hdr.Filename)
				url, err := d.Blobs.Put(dst, file)
				if err != nil {
					httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "upload failed", nil)
					return
				}
				httpx.WriteJSON(w, http.StatusCreated, map[string]string{"url": url})
			})

			// ---------- finance records ----------
			r.Get("/finance/records", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				out, err := d.Finance.List(uid)
				if err != nil {
					httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable", "records unavailable", nil)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, out)
			})

			r.Post("/finance/records", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				var rec models.FinanceRecord
				if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
					return
				}
				rec.OwnerID = uid
				created, err := d.Finance.Create(rec)
				if err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "validation", err.Error(), nil)
					return
				}
				httpx.WriteJSON(w, http.StatusCreated, created)
			})

			r.Put("/finance/records/{id}", func(w http.ResponseWriter, r *http.Request) {
				rec, ok := ownedRecord(w, r, d.Finance)
				if !ok {
					return
				}
				var in models.FinanceRecord
				if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
					return
				}
				in.ID = rec.ID
				in.OwnerID = rec.OwnerID
				if err := d.Finance.Update(in); err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "validation", err.Error(), nil)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, in)
			})

			r.Delete("/finance/records/{id}", func(w http.ResponseWriter, r *http.Request) {
				if _, ok := ownedRecord(w, r, d.Finance); !ok {
					return
				}
				if err := d.Finance.Delete(chi.URLParam(r, "id")); err != nil {
					httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable", "delete failed", nil)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})

			// ---------- reports ----------
			r.Get("/finance/report", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				start, ok1 := parseDate(r.URL.Query().Get("start"))
				end, ok2 := parseDate(r.URL.Query().Get("end"))
				if !ok1 || !ok2 || end.Before(start) {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", "start and end required (RFC3339 or YYYY-MM-DD)", nil)
					return
				}
				// a bare end date means "through that whole day"
				if end.Hour() == 0 && end.Minute() == 0 && end.Second() == 0 {
					end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
				}
				rep, err := d.Finance.Report(uid, start, end)
				if err != nil {
					httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable", "report unavailable", nil)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, rep)
			})

			r.Get("/finance/report/{period}", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				day := time.Now()
				if v := r.URL.Query().Get("date"); v != "" {
					d2, ok := parseDate(v)
					if !ok {
						httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid date", nil)
						return
					}
					day = d2
				}

				var (
					rep any
					err error
				)
				switch chi.URLParam(r, "period") {
				case "daily":
					rep, err = d.Finance.DailyReport(uid, day)
				case "weekly":
					rep, err = d.Finance.WeeklyReport(uid, day)
				case "monthly":
					rep, err = d.Finance.MonthlyReport(uid, day)
				default:
					httpx.WriteError(w, http.StatusNotFound, "not_found", "unknown period", nil)
					return
				}
				if err != nil {
					httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable", "report unavailable", nil)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, rep)
			})

			r.Post("/market/prices", func(w http.ResponseWriter, r *http.Request) {
				var p models.MarketPrice
				if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
					return
				}
				out, err := d.Market.Publish(p)
				if err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "validation", err.Error(), nil)
					return
				}
				httpx.WriteJSON(w, http.StatusCreated, out)
			})
		})
	})

	return r
}

// ownedListing loads the listing from the path id and rejects callers
// who don't own it.
func ownedListing(w http.ResponseWriter, r *http.Request, svc *services.ListingService) (models.Listing, bool) {
	uid, _ := middleware.UserID(r.Context())
	l, err := svc.GetByID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "listing not found", nil)
		return models.Listing{}, false
	}
	if l.OwnerID != uid {
		httpx.WriteError(w, http.StatusForbidden, "forbidden", "not your listing", nil)
		return models.Listing{}, false
	}
	return l, true
}

func ownedRecord(w http.ResponseWriter, r *http.Request, svc *services.FinanceService) (models.FinanceRecord, bool) {
	uid, _ := middleware.UserID(r.Context())
	rec, err := svc.Get(chi.URLParam(r, "id"))
	if err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, repo.ErrNotFound) {
			status = http.StatusNotFound
		}
		httpx.WriteError(w, status, "not_found", "record not found", nil)
		return models.FinanceRecord{}, false
	}
	if rec.OwnerID != uid {
		httpx.WriteError(w, http.StatusForbidden, "forbidden", "not your record", nil)
		return models.FinanceRecord{}, false
	}
	return rec, true
}

func parseDate(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func emptyIfNil(l []models.Listing) []models.Listing {
	if l == nil {
		return []models.Listing{}
	}
	return l
}
