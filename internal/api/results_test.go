package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"namesgen/internal/storage"
)

func TestHealthEndpoint(t *testing.T) {
	server := NewResultsServer(nil, Config{Port: 8081})
	router := server.Router()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestAuthMiddleware(t *testing.T) {
	server := NewResultsServer(nil, Config{
		Port:        8081,
		AuthEnabled: true,
		APIKeys:     []string{"test-key-123", "another-key"},
	})
	router := server.Router()

	tests := []struct {
		name       string
		apiKey     string
		keyHeader  string
		wantStatus int
	}{
		{
			name:       "no key",
			apiKey:     "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid key",
			apiKey:     "wrong-key",
			keyHeader:  "X-API-Key",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "valid key via X-API-Key",
			apiKey:     "test-key-123",
			keyHeader:  "X-API-Key",
			wantStatus: http.StatusOK,
		},
		{
			name:       "valid key via Bearer",
			apiKey:     "another-key",
			keyHeader:  "Authorization",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			if tt.apiKey != "" {
				if tt.keyHeader == "Authorization" {
					req.Header.Set("Authorization", "Bearer "+tt.apiKey)
				} else {
					req.Header.Set(tt.keyHeader, tt.apiKey)
				}
			}

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestAuthMiddlewareQueryParam(t *testing.T) {
	server := NewResultsServer(nil, Config{
		Port:        8081,
		AuthEnabled: true,
		APIKeys:     []string{"query-key"},
	})
	router := server.Router()

	req := httptest.NewRequest(http.MethodGet, "/health?api_key=query-key", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
}

func TestBookingResponseFormat(t *testing.T) {
	now := time.Now().UTC()
	b := &storage.Booking{
		OrderRef:      "GYG123",
		Reseller:      "getyourguide",
		TravelDate:    "2026-09-01",
		TourTime:      "14:15",
		Language:      "English",
		TourType:      "Regular",
		TotalUnits:    2,
		TravelerCount: 2,
		PNR:           "GC20260901R1415",
		TixNom:        "(TIX NOM 14:15 REG G-CALL)",
		LastSeen:      now,
	}

	resp := bookingToResponse(b)

	if resp.OrderRef != "GYG123" {
		t.Errorf("order_ref = %q, want GYG123", resp.OrderRef)
	}
	if resp.Reseller != "getyourguide" {
		t.Errorf("reseller = %q, want getyourguide", resp.Reseller)
	}
	if resp.TravelDate != "2026-09-01" {
		t.Errorf("travel_date = %q, want 2026-09-01", resp.TravelDate)
	}
	if resp.TotalUnits != 2 || resp.TravelerCount != 2 {
		t.Errorf("counts = %d/%d, want 2/2", resp.TotalUnits, resp.TravelerCount)
	}
	if resp.TixNom != "(TIX NOM 14:15 REG G-CALL)" {
		t.Errorf("tix_nom = %q", resp.TixNom)
	}
	if resp.LastSeen != now.Format(time.RFC3339) {
		t.Errorf("last_seen = %q, want %q", resp.LastSeen, now.Format(time.RFC3339))
	}
}

func TestTravelerResponseFormat(t *testing.T) {
	now := time.Now().UTC()
	tr := &storage.Traveler{
		RowID:        "r2",
		OrderRef:     "GYG123",
		FullName:     "Tom Lee",
		UnitType:     "Child",
		OriginalUnit: "Infant",
		DOB:          "01/03/2016",
		Tag:          "VIP",
		FromUpdate:   true,
		Errors:       []string{"Please Check Names before Insertion"},
		UpdatedAt:    now,
	}

	resp := travelerToResponse(tr)

	if resp.RowID != "r2" || resp.FullName != "Tom Lee" {
		t.Errorf("traveler = %q/%q, want r2/Tom Lee", resp.RowID, resp.FullName)
	}
	if resp.UnitType != "Child" || resp.OriginalUnit != "Infant" {
		t.Errorf("units = %q/%q, want Child/Infant", resp.UnitType, resp.OriginalUnit)
	}
	if !resp.FromUpdate {
		t.Error("from_update = false, want true")
	}
	if len(resp.Errors) != 1 {
		t.Errorf("errors = %v, want one entry", resp.Errors)
	}
}

func TestBatchRequestValidation(t *testing.T) {
	server := NewResultsServer(nil, Config{Port: 8081})
	router := chi.NewRouter()
	router.Post("/bookings/batch", server.handleBatchBookings)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "empty body",
			body:       "",
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid JSON",
		},
		{
			name:       "invalid json",
			body:       "not json",
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid JSON",
		},
		{
			name:       "empty order ref list",
			body:       `{"order_refs": []}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "No order references specified",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/bookings/batch", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}

			var resp map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&resp); err == nil {
				if tt.wantError != "" && resp["error"] == "" {
					t.Errorf("expected error containing %q", tt.wantError)
				}
			}
		})
	}
}

func TestCORSHeaders(t *testing.T) {
	r := chi.NewRouter()
	r.Use(corsMiddleware)
	r.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Test OPTIONS request.
	req := httptest.NewRequest(http.MethodOptions, "/test", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200 for OPTIONS, got %d", rec.Code)
	}

	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS Allow-Origin header")
	}
	if rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("expected CORS Allow-Methods header")
	}
}

func TestListBookingsDateValidation(t *testing.T) {
	server := NewResultsServer(nil, Config{Port: 8081})
	router := chi.NewRouter()
	router.Get("/bookings", server.handleListBookings)

	tests := []struct {
		name       string
		date       string
		wantStatus int
	}{
		{
			name:       "invalid date format",
			date:       "01-09-2026",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "not a date",
			date:       "tomorrow",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/bookings?date="+tt.date, nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}
