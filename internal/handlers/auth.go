package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bbm-admin/apiserver/internal/services"
	"github.com/bbm-admin/apiserver/internal/store"
	"github.com/bbm-admin/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const sessionCookieName = "session_token"
const defaultTokenTTL = 24 * time.Hour

// AuthHandler provides session endpoints. The session token is a
// signed JWT carried in an HttpOnly cookie; there is no server-side
// session store.
type AuthHandler struct {
	adminService *services.AdminService
	secret       []byte
	tokenTTL     time.Duration
	log          *logrus.Entry
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(adminService *services.AdminService, secret string, tokenTTL time.Duration) *AuthHandler {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthHandler{
		adminService: adminService,
		secret:       []byte(secret),
		tokenTTL:     tokenTTL,
		log:          logrus.WithField("component", "auth"),
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, adminService *services.AdminService, secret string, tokenTTL time.Duration) {
	handler := NewAuthHandler(adminService, secret, tokenTTL)

	r.Post("/login", handler.Login)
	r.Post("/logout", handler.Logout)
	r.With(RequireSession(secret)).Get("/me", handler.Me)
}

// RequireSession enforces a valid session cookie and injects the
// decoded session into the request context.
func RequireSession(secret string) func(http.Handler) http.Handler {
	secretBytes := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := DecodeSession(r, secretBytes)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), contextSessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DecodeSession reads and verifies the session token from the request
// cookie. Any decode or verification failure is equivalent to having
// no session.
func DecodeSession(r *http.Request, secret []byte) (Session, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return Session{}, errors.New("missing session cookie")
	}
	return parseToken(cookie.Value, secret)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	User types.Admin `json:"user"`
}

// Login verifies credentials and sets the session cookie. Unknown
// email, wrong password and inactive account all produce the same
// response so callers cannot tell which case occurred.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	admin, valid, err := h.adminService.Verify(r.Context(), req.Email, req.Password)
	if err != nil {
		h.log.WithError(err).Error("credential lookup failed")
		writeError(w, http.StatusInternalServerError, "Failed to authenticate")
		return
	}
	h.log.WithFields(logrus.Fields{"email": req.Email, "valid": valid}).Info("login attempt")
	if !valid {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := issueToken(admin.ID, admin.Email, h.secret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, LoginResponse{User: admin})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Me returns the account behind the current session.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	admin, err := h.adminService.GetByID(r.Context(), session.AdminID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load account")
		return
	}
	writeJSON(w, http.StatusOK, admin)
}

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func issueToken(adminID int, email string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(adminID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseToken(tokenString string, secret []byte) (Session, error) {
	claims := sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return Session{}, err
	}
	if !token.Valid {
		return Session{}, errors.New("invalid token")
	}

	adminID, err := strconv.Atoi(strings.TrimSpace(claims.Subject))
	if err != nil || adminID < 1 {
		return Session{}, errors.New("invalid subject")
	}
	return Session{AdminID: adminID, Email: claims.Email}, nil
}
