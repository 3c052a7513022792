package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/example/kiosk-booking/internal/auth"
	"github.com/example/kiosk-booking/internal/booking"
	"github.com/example/kiosk-booking/internal/catalog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Server is the JSON API consumed by the kiosk front end. It renders no
// HTML; the front end owns presentation.
type Server struct {
	Auth     *auth.Store
	Bookings *booking.Allocator

	BaseURL string
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/register", s.handleRegister)
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/logout", s.handleLogout)

	mux.Handle("/api/slots", s.Auth.RequireAuth(http.HandlerFunc(s.handleSlots)))
	mux.Handle("/api/bookings", s.Auth.RequireAuth(http.HandlerFunc(s.handleBookings)))

	return mux
}

type profileResponse struct {
	ID               string `json:"id"`
	FullName         string `json:"full_name"`
	Mobile           string `json:"mobile"`
	Email            string `json:"email"`
	Organization     string `json:"organization"`
	Designation      string `json:"designation"`
	OrganizationType string `json:"organization_type"`
}

func toProfileResponse(p auth.Profile) profileResponse {
	return profileResponse{
		ID:               p.ID,
		FullName:         p.FullName,
		Mobile:           p.Mobile,
		Email:            p.Email,
		Organization:     p.Organization,
		Designation:      p.Designation,
		OrganizationType: p.OrganizationType,
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		FullName             string `json:"full_name"`
		Mobile               string `json:"mobile"`
		Email                string `json:"email"`
		Password             string `json:"password"`
		Organization         string `json:"organization"`
		Designation          string `json:"designation"`
		OrganizationType     string `json:"organization_type"`
		ConsentCommunication bool   `json:"consent_communication"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	p, err := s.Auth.Register(r.Context(), auth.Registration{
		FullName:             req.FullName,
		Mobile:               req.Mobile,
		Email:                req.Email,
		Password:             req.Password,
		Organization:         req.Organization,
		Designation:          req.Designation,
		OrganizationType:     req.OrganizationType,
		ConsentCommunication: req.ConsentCommunication,
	})
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrDuplicateMobile):
		writeError(w, http.StatusConflict, "duplicate_mobile", err.Error())
		return
	case errors.Is(err, auth.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "duplicate_email", err.Error())
		return
	default:
		log.Printf("web: register failed: %v", err)
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	if err := s.Auth.SetSession(w, r, p.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "session error")
		return
	}
	writeJSON(w, http.StatusCreated, toProfileResponse(p))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	p, err := s.Auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
			return
		}
		log.Printf("web: login failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal", "login failed")
		return
	}
	if err := s.Auth.SetSession(w, r, p.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "session error")
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.Auth.ClearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

type slotResponse struct {
	ProductName string `json:"product_name"`
	SessionDate string `json:"session_date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Occupancy   int    `json:"occupancy"`
	Capacity    int    `json:"capacity"`
	Bookable    bool   `json:"bookable"`
}

func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	statuses, err := s.Bookings.ListAvailableSlots(r.Context(), uid)
	if err != nil {
		log.Printf("web: list slots: %v", err)
		writeError(w, http.StatusServiceUnavailable, "persistence_failure", "store unavailable")
		return
	}

	out := make([]slotResponse, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, slotResponse{
			ProductName: st.Slot.Product,
			SessionDate: st.Slot.Date,
			StartTime:   st.Slot.Start,
			EndTime:     st.Slot.End,
			Occupancy:   st.Occupancy,
			Capacity:    booking.SlotCapacity,
			Bookable:    st.Bookable,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type bookingResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ProductName string    `json:"product_name"`
	SessionDate string    `json:"session_date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	CreatedAt   time.Time `json:"created_at"`
}

func toBookingResponse(b booking.Booking) bookingResponse {
	return bookingResponse{
		ID:          b.ID,
		UserID:      b.UserID,
		ProductName: b.ProductName,
		SessionDate: b.SessionDate,
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
		CreatedAt:   b.CreatedAt,
	}
}

func (s *Server) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleBookingList(w, r)
	case http.MethodPost:
		s.handleBookingCreate(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleBookingList(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	bs, err := s.Bookings.Gateway.BookingsByUser(r.Context(), uid)
	if err != nil {
		log.Printf("web: list bookings: %v", err)
		writeError(w, http.StatusServiceUnavailable, "persistence_failure", "store unavailable")
		return
	}
	out := make([]bookingResponse, 0, len(bs))
	for _, b := range bs {
		out = append(out, toBookingResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBookingCreate(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req struct {
		ProductName string `json:"product_name"`
		SessionDate string `json:"session_date"`
		StartTime   string `json:"start_time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	b, err := s.Bookings.Submit(r.Context(), uid, catalog.Key{
		Product: req.ProductName,
		Date:    req.SessionDate,
		Start:   req.StartTime,
	})
	if err != nil {
		status, reason := rejectionStatus(err)
		if status == http.StatusServiceUnavailable {
			log.Printf("web: booking submit: %v", err)
		}
		writeError(w, status, reason, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toBookingResponse(b))
}

// rejectionStatus maps allocator errors to HTTP status plus a stable reason
// code the front end switches on.
func rejectionStatus(err error) (int, string) {
	switch {
	case errors.Is(err, booking.ErrInvalidSlot):
		return http.StatusConflict, "invalid_slot"
	case errors.Is(err, booking.ErrMaxBookingsReached):
		return http.StatusConflict, "max_bookings_reached"
	case errors.Is(err, booking.ErrProductAlreadyBooked):
		return http.StatusConflict, "product_already_booked"
	case errors.Is(err, booking.ErrSlotFull):
		return http.StatusConflict, "slot_full"
	default:
		return http.StatusServiceUnavailable, "persistence_failure"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, reason, msg string) {
	writeJSON(w, status, map[string]string{"reason": reason, "error": msg})
}

func Start(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	fmt.Printf("listening on %s\n", addr)
	return srv.ListenAndServe()
}
