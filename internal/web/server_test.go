package web_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/kiosk-booking/internal/auth"
	"github.com/example/kiosk-booking/internal/booking"
	"github.com/example/kiosk-booking/internal/catalog"
	"github.com/example/kiosk-booking/internal/web"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// stubGateway is a single-goroutine stand-in for the Postgres repo.
type stubGateway struct {
	bookings  []booking.Booking
	insertErr error
}

func (g *stubGateway) BookingsByUser(_ context.Context, userID string) ([]booking.Booking, error) {
	var out []booking.Booking
	for _, b := range g.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (g *stubGateway) CountsBySlot(_ context.Context) (map[catalog.Key]int, error) {
	counts := make(map[catalog.Key]int)
	for _, b := range g.bookings {
		counts[b.SlotKey()]++
	}
	return counts, nil
}

func (g *stubGateway) Insert(_ context.Context, b booking.Booking) (booking.Booking, error) {
	if g.insertErr != nil {
		return booking.Booking{}, g.insertErr
	}
	b.ID = "b-1"
	b.CreatedAt = time.Now()
	g.bookings = append(g.bookings, b)
	return b, nil
}

func testServer(g booking.Gateway) (*web.Server, *auth.Store) {
	hashKey := []byte("0123456789abcdef0123456789abcdef")
	blockKey := []byte("fedcba9876543210fedcba9876543210")
	store := auth.NewStore(nil, hashKey, blockKey)

	alloc := &booking.Allocator{
		Gateway: g,
		Now: func() time.Time {
			return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
		},
	}
	return &web.Server{Auth: store, Bookings: alloc}, store
}

func sessionCookie(t *testing.T, store *auth.Store, uid string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, store.SetSession(rec, req, uid))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func Test_Healthz(t *testing.T) {
	srv, _ := testServer(&stubGateway{})
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_Slots_RequiresAuth(t *testing.T) {
	srv, _ := testServer(&stubGateway{})
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/slots", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_Slots_ReturnsCatalogue(t *testing.T) {
	srv, store := testServer(&stubGateway{})

	req := httptest.NewRequest(http.MethodGet, "/api/slots", nil)
	req.AddCookie(sessionCookie(t, store, "user-1"))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var slots []struct {
		ProductName string `json:"product_name"`
		SessionDate string `json:"session_date"`
		StartTime   string `json:"start_time"`
		EndTime     string `json:"end_time"`
		Occupancy   int    `json:"occupancy"`
		Capacity    int    `json:"capacity"`
		Bookable    bool   `json:"bookable"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &slots))
	require.Len(t, slots, 32)

	assert.Equal(t, 20, slots[0].Capacity)
	assert.True(t, slots[0].Bookable)
	assert.Equal(t, 0, slots[0].Occupancy)
}

func Test_BookingCreate_Commits(t *testing.T) {
	g := &stubGateway{}
	srv, store := testServer(g)

	body := `{"product_name":"SIEM","session_date":"2025-03-14","start_time":"11:00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(body))
	req.AddCookie(sessionCookie(t, store, "user-1"))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got struct {
		ID          string `json:"id"`
		UserID      string `json:"user_id"`
		ProductName string `json:"product_name"`
		EndTime     string `json:"end_time"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "b-1", got.ID)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "SIEM", got.ProductName)
	assert.Equal(t, "11:30", got.EndTime)
	assert.Len(t, g.bookings, 1)
}

func Test_BookingCreate_RejectionReasons(t *testing.T) {
	tests := []struct {
		name       string
		gateway    *stubGateway
		body       string
		wantReason string
	}{
		{
			name:       "invalid slot",
			gateway:    &stubGateway{},
			body:       `{"product_name":"SIEM","session_date":"2025-03-20","start_time":"11:00"}`,
			wantReason: "invalid_slot",
		},
		{
			name:       "slot full at commit",
			gateway:    &stubGateway{insertErr: booking.ErrSlotFull},
			body:       `{"product_name":"SIEM","session_date":"2025-03-14","start_time":"11:00"}`,
			wantReason: "slot_full",
		},
		{
			name: "product already booked",
			gateway: &stubGateway{bookings: []booking.Booking{{
				UserID: "user-1", ProductName: "SIEM", SessionDate: "2025-03-14", StartTime: "12:00",
			}}},
			body:       `{"product_name":"SIEM","session_date":"2025-03-14","start_time":"11:00"}`,
			wantReason: "product_already_booked",
		},
		{
			name: "max bookings reached",
			gateway: &stubGateway{bookings: []booking.Booking{
				{UserID: "user-1", ProductName: "SIEM", SessionDate: "2025-03-14", StartTime: "11:00"},
				{UserID: "user-1", ProductName: "XDR Expert", SessionDate: "2025-03-14", StartTime: "12:00"},
				{UserID: "user-1", ProductName: "Threat Intelligence", SessionDate: "2025-03-14", StartTime: "15:00"},
			}},
			body:       `{"product_name":"Technology Alliance","session_date":"2025-03-14","start_time":"16:00"}`,
			wantReason: "max_bookings_reached",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, store := testServer(tc.gateway)

			req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(tc.body))
			req.AddCookie(sessionCookie(t, store, "user-1"))
			rec := httptest.NewRecorder()
			srv.Routes().ServeHTTP(rec, req)

			require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

			var got map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tc.wantReason, got["reason"])
		})
	}
}

func Test_BookingCreate_PersistenceFailure(t *testing.T) {
	g := &stubGateway{insertErr: booking.ErrPersistence}
	srv, store := testServer(g)

	body := `{"product_name":"SIEM","session_date":"2025-03-14","start_time":"11:00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(body))
	req.AddCookie(sessionCookie(t, store, "user-1"))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "persistence_failure", got["reason"])
}

func Test_BookingList_ReturnsOwnBookingsOnly(t *testing.T) {
	g := &stubGateway{bookings: []booking.Booking{
		{ID: "b-1", UserID: "user-1", ProductName: "SIEM", SessionDate: "2025-03-14", StartTime: "11:00"},
		{ID: "b-2", UserID: "user-2", ProductName: "SIEM", SessionDate: "2025-03-14", StartTime: "11:00"},
	}}
	srv, store := testServer(g)

	req := httptest.NewRequest(http.MethodGet, "/api/bookings", nil)
	req.AddCookie(sessionCookie(t, store, "user-1"))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got []struct {
		ID     string `json:"id"`
		UserID string `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "b-1", got[0].ID)
}
