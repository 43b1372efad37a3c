// Package api provides REST API endpoints for published traveler results.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"namesgen/internal/storage"
)

// ResultsServer provides REST API access to published traveler results.
type ResultsServer struct {
	pg          *storage.PostgresDB
	port        int
	authEnabled bool
	apiKeys     map[string]bool // Simple API key auth (when enabled).
}

// Config holds configuration for the results API server.
type Config struct {
	Port        int
	AuthEnabled bool
	APIKeys     []string // List of valid API keys.
}

// NewResultsServer creates a new results API server.
func NewResultsServer(pg *storage.PostgresDB, cfg Config) *ResultsServer {
	keys := make(map[string]bool)
	for _, k := range cfg.APIKeys {
		if k != "" {
			keys[k] = true
		}
	}

	return &ResultsServer{
		pg:          pg,
		port:        cfg.Port,
		authEnabled: cfg.AuthEnabled,
		apiKeys:     keys,
	}
}

// Run starts the HTTP server.
func (s *ResultsServer) Run() error {
	r := chi.NewRouter()

	// Standard middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS for browser access.
	r.Use(corsMiddleware)

	// Optional authentication.
	if s.authEnabled {
		r.Use(s.authMiddleware)
	}

	// API routes.
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/bookings", s.handleListBookings)
		r.Get("/bookings/flagged", s.handleListFlagged)
		r.Get("/bookings/{order_ref}", s.handleGetBooking)
		r.Post("/bookings/batch", s.handleBatchBookings)
		r.Post("/bookings/{order_ref}/review", s.handleSetReview)

		r.Get("/travelers/search", s.handleSearchTravelers)
		r.Get("/travelers/{row_id}", s.handleGetTraveler)
		r.Post("/travelers/{row_id}/tag", s.handleSetTag)
	})

	addr := ":" + itoa(s.port)
	log.Printf("Results API starting at http://localhost%s", addr)
	if s.authEnabled {
		log.Printf("Authentication: ENABLED (API key required)")
	} else {
		log.Printf("Authentication: DISABLED (open access)")
	}

	return http.ListenAndServe(addr, r)
}

// Router returns the configured chi router for embedding in other servers.
func (s *ResultsServer) Router() chi.Router {
	r := chi.NewRouter()

	// Optional authentication.
	if s.authEnabled {
		r.Use(s.authMiddleware)
	}

	r.Get("/health", s.handleHealth)
	r.Get("/bookings", s.handleListBookings)
	r.Get("/bookings/flagged", s.handleListFlagged)
	r.Get("/bookings/{order_ref}", s.handleGetBooking)
	r.Post("/bookings/batch", s.handleBatchBookings)
	r.Post("/bookings/{order_ref}/review", s.handleSetReview)
	r.Get("/travelers/search", s.handleSearchTravelers)
	r.Get("/travelers/{row_id}", s.handleGetTraveler)
	r.Post("/travelers/{row_id}/tag", s.handleSetTag)

	return r
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware validates API key authentication.
func (s *ResultsServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check X-API-Key header first.
		apiKey := r.Header.Get("X-API-Key")

		// Fall back to Authorization: Bearer <key>.
		if apiKey == "" {
			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				apiKey = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		// Fall back to query parameter (for simple testing).
		if apiKey == "" {
			apiKey = r.URL.Query().Get("api_key")
		}

		if apiKey == "" {
			writeError(w, http.StatusUnauthorized, "API key required")
			return
		}

		if !s.apiKeys[apiKey] {
			writeError(w, http.StatusForbidden, "Invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// TravelerResponse is the JSON shape of one traveler row.
type TravelerResponse struct {
	RowID        string   `json:"row_id"`
	OrderRef     string   `json:"order_ref"`
	FullName     string   `json:"full_name"`
	UnitType     string   `json:"unit_type"`
	OriginalUnit string   `json:"original_unit,omitempty"`
	DOB          string   `json:"dob,omitempty"`
	Tag          string   `json:"tag,omitempty"`
	FromUpdate   bool     `json:"from_update,omitempty"`
	Errors       []string `json:"errors,omitempty"`
	LastUpdated  string   `json:"last_updated"`
}

// BookingResponse is the JSON shape of one booking, optionally with its
// traveler rows attached.
type BookingResponse struct {
	OrderRef      string             `json:"order_ref"`
	Reseller      string             `json:"reseller"`
	TravelDate    string             `json:"travel_date,omitempty"`
	TourTime      string             `json:"tour_time,omitempty"`
	Language      string             `json:"language,omitempty"`
	TourType      string             `json:"tour_type,omitempty"`
	TotalUnits    int                `json:"total_units"`
	TravelerCount int                `json:"traveler_count"`
	PNR           string             `json:"pnr,omitempty"`
	TicketGroup   string             `json:"ticket_group,omitempty"`
	TixNom        string             `json:"tix_nom,omitempty"`
	LastSeen      string             `json:"last_seen"`
	Travelers     []TravelerResponse `json:"travelers,omitempty"`
}

func travelerToResponse(t *storage.Traveler) TravelerResponse {
	return TravelerResponse{
		RowID:        t.RowID,
		OrderRef:     t.OrderRef,
		FullName:     t.FullName,
		UnitType:     t.UnitType,
		OriginalUnit: t.OriginalUnit,
		DOB:          t.DOB,
		Tag:          t.Tag,
		FromUpdate:   t.FromUpdate,
		Errors:       t.Errors,
		LastUpdated:  t.UpdatedAt.Format(time.RFC3339),
	}
}

func bookingToResponse(b *storage.Booking) BookingResponse {
	return BookingResponse{
		OrderRef:      b.OrderRef,
		Reseller:      b.Reseller,
		TravelDate:    b.TravelDate,
		TourTime:      b.TourTime,
		Language:      b.Language,
		TourType:      b.TourType,
		TotalUnits:    b.TotalUnits,
		TravelerCount: b.TravelerCount,
		PNR:           b.PNR,
		TicketGroup:   b.TicketGroup,
		TixNom:        b.TixNom,
		LastSeen:      b.LastSeen.Format(time.RFC3339),
	}
}

func (s *ResultsServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *ResultsServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	orderRef := chi.URLParam(r, "order_ref")
	if orderRef == "" {
		writeError(w, http.StatusBadRequest, "order_ref is required")
		return
	}

	ctx := r.Context()
	b, err := s.pg.GetBooking(ctx, orderRef)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if b == nil {
		writeError(w, http.StatusNotFound, "No booking found")
		return
	}

	travelers, err := s.pg.ListTravelers(ctx, orderRef)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := bookingToResponse(b)
	for i := range travelers {
		resp.Travelers = append(resp.Travelers, travelerToResponse(&travelers[i]))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *ResultsServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	travelDate := r.URL.Query().Get("date")
	if travelDate != "" {
		if _, err := time.Parse("2006-01-02", travelDate); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)")
			return
		}
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	bookings, err := s.pg.ListBookings(r.Context(), travelDate, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, bookingToResponse(&bookings[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *ResultsServer) handleListFlagged(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	bookings, err := s.pg.ListFlagged(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, bookingToResponse(&bookings[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *ResultsServer) handleGetTraveler(w http.ResponseWriter, r *http.Request) {
	rowID := chi.URLParam(r, "row_id")
	if rowID == "" {
		writeError(w, http.StatusBadRequest, "row_id is required")
		return
	}

	t, err := s.pg.GetTraveler(r.Context(), rowID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "No traveler found")
		return
	}

	writeJSON(w, http.StatusOK, travelerToResponse(t))
}

func (s *ResultsServer) handleSearchTravelers(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	travelers, err := s.pg.SearchTravelers(r.Context(), name, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := make([]TravelerResponse, 0, len(travelers))
	for i := range travelers {
		resp = append(resp, travelerToResponse(&travelers[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// BatchRequest is the request body for batch booking lookups.
type BatchRequest struct {
	OrderRefs []string `json:"order_refs"`
}

// BatchResponse is the response for batch booking lookups.
type BatchResponse struct {
	Results map[string]BookingResponse `json:"results"` // Keyed by order_ref.
	Errors  map[string]string          `json:"errors,omitempty"`
}

func (s *ResultsServer) handleBatchBookings(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	if len(req.OrderRefs) == 0 {
		writeError(w, http.StatusBadRequest, "No order references specified")
		return
	}

	if len(req.OrderRefs) > 100 {
		writeError(w, http.StatusBadRequest, "Maximum 100 bookings per batch request")
		return
	}

	ctx := r.Context()
	resp := BatchResponse{
		Results: make(map[string]BookingResponse),
		Errors:  make(map[string]string),
	}

	for _, ref := range req.OrderRefs {
		if ref == "" {
			continue
		}
		b, err := s.pg.GetBooking(ctx, ref)
		if err != nil {
			resp.Errors[ref] = err.Error()
			continue
		}
		if b != nil {
			resp.Results[ref] = bookingToResponse(b)
		}
	}

	// Remove empty errors map for cleaner output.
	if len(resp.Errors) == 0 {
		resp.Errors = nil
	}

	writeJSON(w, http.StatusOK, resp)
}

// TagRequest is the request body for tagging a traveler row.
type TagRequest struct {
	Tag string `json:"tag"`
}

func (s *ResultsServer) handleSetTag(w http.ResponseWriter, r *http.Request) {
	rowID := chi.URLParam(r, "row_id")
	if rowID == "" {
		writeError(w, http.StatusBadRequest, "row_id is required")
		return
	}

	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	ctx := r.Context()
	t, err := s.pg.GetTraveler(ctx, rowID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "No traveler found")
		return
	}

	if err := s.pg.SetTravelerTag(ctx, rowID, req.Tag); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReviewRequest is the request body for marking a booking reviewed.
type ReviewRequest struct {
	Reviewed bool   `json:"reviewed"`
	Note     string `json:"note,omitempty"`
}

func (s *ResultsServer) handleSetReview(w http.ResponseWriter, r *http.Request) {
	orderRef := chi.URLParam(r, "order_ref")
	if orderRef == "" {
		writeError(w, http.StatusBadRequest, "order_ref is required")
		return
	}

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	ctx := r.Context()
	if err := s.pg.SetReviewed(ctx, orderRef, req.Reviewed); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if req.Note != "" {
		if err := s.pg.SetReviewNote(ctx, orderRef, req.Note); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helper functions.

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
