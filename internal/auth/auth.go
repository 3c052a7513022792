package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/kiosk-booking/internal/db"
)

// Store handles attendee registration, login and cookie sessions.
type Store struct {
	sc *securecookie.SecureCookie
	db *db.DB
}

type ctxKey string

const userIDKey ctxKey = "userID"

func NewStore(d *db.DB, hashKey, blockKey []byte) *Store {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int((24 * time.Hour).Seconds()))
	return &Store{sc: sc, db: d}
}

// Profile is an event attendee as captured by the kiosk registration form.
type Profile struct {
	ID                   string
	FullName             string
	Mobile               string
	Email                string
	Organization         string
	Designation          string
	OrganizationType     string
	ConsentCommunication bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Registration is the form payload for a new attendee.
type Registration struct {
	FullName             string
	Mobile               string
	Email                string
	Password             string
	Organization         string
	Designation          string
	OrganizationType     string
	ConsentCommunication bool
}

var (
	ErrDuplicateMobile    = errors.New("mobile already registered")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// Register creates an attendee profile. Mobile and email must be unique
// across the event; both are checked up front and backed by unique indexes.
func (s *Store) Register(ctx context.Context, reg Registration) (Profile, error) {
	reg.FullName = strings.TrimSpace(reg.FullName)
	reg.Mobile = strings.TrimSpace(reg.Mobile)
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))

	if reg.FullName == "" || reg.Mobile == "" || reg.Email == "" || reg.Password == "" {
		return Profile{}, errors.New("full name, mobile, email and password are required")
	}

	var exists bool
	if err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM profiles WHERE mobile=$1)`, reg.Mobile).Scan(&exists); err != nil {
		return Profile{}, fmt.Errorf("check mobile: %w", err)
	}
	if exists {
		return Profile{}, ErrDuplicateMobile
	}
	if err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM profiles WHERE email=$1)`, reg.Email).Scan(&exists); err != nil {
		return Profile{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return Profile{}, ErrDuplicateEmail
	}

	hash, err := HashPassword(reg.Password)
	if err != nil {
		return Profile{}, err
	}

	p := Profile{
		ID:                   uuid.NewString(),
		FullName:             reg.FullName,
		Mobile:               reg.Mobile,
		Email:                reg.Email,
		Organization:         reg.Organization,
		Designation:          reg.Designation,
		OrganizationType:     reg.OrganizationType,
		ConsentCommunication: reg.ConsentCommunication,
	}
	err = s.db.QueryRow(ctx, `
INSERT INTO profiles (id, full_name, mobile, email, password_hash, organization, designation, organization_type, consent_communication)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING created_at, updated_at`,
		p.ID, p.FullName, p.Mobile, p.Email, hash,
		p.Organization, p.Designation, p.OrganizationType, p.ConsentCommunication,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Profile{}, fmt.Errorf("insert profile: %w", err)
	}
	return p, nil
}

// Authenticate checks email/password and returns the profile on success.
func (s *Store) Authenticate(ctx context.Context, email, password string) (Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var p Profile
	var hash string
	err := s.db.QueryRow(ctx, `
SELECT id::text, full_name, mobile, email, password_hash, organization, designation, organization_type, consent_communication, created_at, updated_at
FROM profiles WHERE email=$1`, email).Scan(
		&p.ID, &p.FullName, &p.Mobile, &p.Email, &hash,
		&p.Organization, &p.Designation, &p.OrganizationType, &p.ConsentCommunication,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if db.IsNotFound(err) {
			return Profile{}, ErrInvalidCredentials
		}
		return Profile{}, fmt.Errorf("lookup profile: %w", err)
	}
	if !CheckPassword(hash, password) {
		return Profile{}, ErrInvalidCredentials
	}
	return p, nil
}

func (s *Store) ProfileByID(ctx context.Context, id string) (Profile, error) {
	var p Profile
	err := s.db.QueryRow(ctx, `
SELECT id::text, full_name, mobile, email, organization, designation, organization_type, consent_communication, created_at, updated_at
FROM profiles WHERE id=$1`, id).Scan(
		&p.ID, &p.FullName, &p.Mobile, &p.Email,
		&p.Organization, &p.Designation, &p.OrganizationType, &p.ConsentCommunication,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return Profile{}, db.WrapNotFound(err)
	}
	return p, nil
}

const cookieName = "kiosk_session"

func (s *Store) SetSession(w http.ResponseWriter, r *http.Request, userID string) error {
	encoded, err := s.sc.Encode(cookieName, map[string]string{"uid": userID})
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
		MaxAge:   int((24 * time.Hour).Seconds()),
	})
	return nil
}

func (s *Store) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func (s *Store) GetSession(r *http.Request) (string, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return "", false
	}
	val := map[string]string{}
	if err := s.sc.Decode(cookieName, c.Value, &val); err != nil {
		return "", false
	}
	uid := val["uid"]
	if uid == "" {
		return "", false
	}
	return uid, true
}

// RequireAuth rejects unauthenticated requests with 401; the kiosk front end
// opens its login modal on that status.
func (s *Store) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := s.GetSession(r)
		if !ok {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, uid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(userIDKey).(string)
	return uid, ok
}
