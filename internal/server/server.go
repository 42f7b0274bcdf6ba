package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"shiprate/internal/logging"
	"shiprate/internal/rate"
	"shiprate/internal/requestctx"
)

const maxBodyBytes = 1 << 20

// Options configures the HTTP server. Zero values select defaults.
type Options struct {
	Units     rate.Units
	Logger    *zap.Logger
	JWTSecret string
	// Catalog enables quoting stored products by id.
	Catalog rate.Catalog
}

type Server struct {
	est        rate.Estimator
	catalog    rate.Catalog
	units      rate.Units
	log        *zap.Logger
	normalizer Normalizer
}

// New returns the HTTP handler serving quotes from est.
func New(est rate.Estimator, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{est: est, catalog: opts.Catalog, units: opts.Units, log: log, normalizer: NewNormalizer()}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware([]byte(opts.JWTSecret)))
		r.Post("/quotes", s.handlePostQuote)
		r.Get("/rates", s.handleGetRates)
		if s.catalog != nil {
			r.Get("/products/{id}/quotes", s.handleProductQuotes)
		}
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type ShipmentMetrics struct {
	VolumeM3                float64 `json:"volume_m3"`
	VolumetricWeightKG      float64 `json:"volumetric_weight_kg"`
	VolumetricBillingWeight float64 `json:"volumetric_billing_weight_kg"`
	M3BillingWeight         float64 `json:"m3_billing_weight_kg"`
}

type QuoteOptionResponse struct {
	Carrier         string  `json:"carrier"`
	Zone            string  `json:"zone"`
	TariffType      string  `json:"tariff_type"`
	BasePrice       float64 `json:"base_price"`
	Price           float64 `json:"price"`
	Discount        float64 `json:"discount"`
	DiscountApplied bool    `json:"discount_applied"`
	Periodicity     string  `json:"periodicity"`
	ValidationMode  string  `json:"validation_mode"`
	BillingWeightKG float64 `json:"billing_weight_kg"`
}

type WarningResponse struct {
	Code    string `json:"code"`
	Carrier string `json:"carrier"`
	Zone    string `json:"zone"`
	Message string `json:"message"`
}

type QuoteResponse struct {
	Outcome  string                `json:"outcome"`
	Shipment ShipmentMetrics       `json:"shipment"`
	Options  []QuoteOptionResponse `json:"options"`
	Warnings []WarningResponse     `json:"warnings,omitempty"`
}

func (s *Server) handlePostQuote(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "read_error", "read error")
		return
	}
	in, err := s.normalizer.Normalize(body)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	s.quote(w, r, in)
}

func (s *Server) handleGetRates(w http.ResponseWriter, r *http.Request) {
	in, err := normalizeQuery(r.URL.Query())
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	s.quote(w, r, in)
}

// handleProductQuotes quotes a catalog product's stored package to the
// destination given in the query string.
func (s *Server) handleProductQuotes(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	dest, err := destinationFromQuery(r.URL.Query())
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	p, err := s.catalog.Product(r.Context(), id)
	switch {
	case errors.Is(err, rate.ErrProductNotFound):
		writeErrorJSON(w, http.StatusNotFound, "product_not_found", "no product with id "+id)
		return
	case err != nil:
		logging.FromContext(r.Context(), s.log).Error("product lookup failed", zap.String("product_id", id), zap.Error(err))
		writeErrorJSON(w, http.StatusServiceUnavailable, "reference_data_unavailable", "product catalog is unavailable, try again later")
		return
	}
	s.quote(w, r, p.ShipmentInput(dest))
}

func (s *Server) quote(w http.ResponseWriter, r *http.Request, in rate.ShipmentInput) {
	ctx := r.Context()
	shipment, err := rate.NewShipment(in, s.units)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	res, err := s.est.Estimate(ctx, rate.Request{
		UserID:   requestctx.UserIDFromContext(ctx),
		Shipment: shipment,
	})
	if err != nil {
		log := logging.FromContext(ctx, s.log)
		switch {
		case errors.Is(err, rate.ErrInvalidInput):
			writeErrorJSON(w, http.StatusBadRequest, "invalid_input", err.Error())
		case errors.Is(err, rate.ErrReferenceData):
			log.Error("quote failed", zap.Error(err))
			writeErrorJSON(w, http.StatusServiceUnavailable, "reference_data_unavailable", "rate tables are unavailable, try again later")
		default:
			log.Error("quote failed", zap.Error(err))
			writeErrorJSON(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	switch res.Outcome {
	case rate.OutcomeNoCoverage:
		writeErrorJSON(w, http.StatusNotFound, "no_coverage", "no carrier covers this destination and package")
		return
	case rate.OutcomeNoApplicableTariff:
		writeErrorJSON(w, http.StatusUnprocessableEntity, "no_applicable_tariff", "carriers cover this shipment but none has an applicable rate")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(newQuoteResponse(res))
}

func newQuoteResponse(res rate.Result) QuoteResponse {
	s := res.Shipment
	out := QuoteResponse{
		Outcome: string(res.Outcome),
		Shipment: ShipmentMetrics{
			VolumeM3:                s.Volume(),
			VolumetricWeightKG:      s.VolumetricWeight(),
			VolumetricBillingWeight: s.BillingWeight(rate.TariffVolumetric),
			M3BillingWeight:         s.BillingWeight(rate.TariffM3),
		},
		Options: make([]QuoteOptionResponse, 0, len(res.Options)),
	}
	for _, o := range res.Options {
		out.Options = append(out.Options, QuoteOptionResponse{
			Carrier:         o.Carrier,
			Zone:            o.Zone,
			TariffType:      string(o.TariffType),
			BasePrice:       o.BasePrice.InexactFloat64(),
			Price:           o.Price.InexactFloat64(),
			Discount:        o.Discount,
			DiscountApplied: o.Discounted,
			Periodicity:     o.Periodicity,
			ValidationMode:  string(o.Mode),
			BillingWeightKG: o.BillingWeight,
		})
	}
	for _, wn := range res.Warnings {
		out.Warnings = append(out.Warnings, WarningResponse{Code: wn.Code, Carrier: wn.Carrier, Zone: wn.Zone, Message: wn.Message})
	}
	return out
}

// writeErrorJSON writes a standardized JSON error response:
// {"error": {"code": string, "message": string}}
func writeErrorJSON(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// requestIDMiddleware ensures X-Request-ID is set on the response and in the
// request context. A client supplied id is propagated; otherwise a UUID is
// generated.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if rid == "" {
			rid = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", rid)
		next.ServeHTTP(w, r.WithContext(requestctx.WithRequestID(r.Context(), rid)))
	})
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("request completed",
				zap.String("request_id", requestctx.RequestIDFromContext(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("latency", time.Since(start)),
			)
		})
	}
}
