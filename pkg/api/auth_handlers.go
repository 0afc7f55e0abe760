package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/truckwise/fleet-server/pkg/async"
	"github.com/truckwise/fleet-server/pkg/auth"
	"github.com/truckwise/fleet-server/pkg/httputil"
	"github.com/truckwise/fleet-server/pkg/middleware"
	"github.com/truckwise/fleet-server/pkg/observability"
	"github.com/truckwise/fleet-server/pkg/users"
)

// AuthHandlers serves registration, login and profile endpoints
type AuthHandlers struct {
	store   users.Store
	tokens  *auth.TokenService
	metrics *observability.Metrics
}

// NewAuthHandlers creates auth handlers. Metrics may be nil.
func NewAuthHandlers(store users.Store, tokens *auth.TokenService, metrics *observability.Metrics) *AuthHandlers {
	return &AuthHandlers{store: store, tokens: tokens, metrics: metrics}
}

// RegisterRoutes installs the auth routes. The login route is wrapped with
// the rate limiter when one is configured.
func (h *AuthHandlers) RegisterRoutes(router *mux.Router, authMW *middleware.AuthMiddleware, limiter *middleware.LoginLimiter) {
	router.HandleFunc("/api/auth/register", h.Register).Methods("POST")

	login := http.HandlerFunc(h.Login)
	if limiter != nil {
		router.Handle("/api/auth/login", limiter.Handler(login)).Methods("POST")
	} else {
		router.Handle("/api/auth/login", login).Methods("POST")
	}

	router.Handle("/api/auth/profile", authMW.Handler(http.HandlerFunc(h.Profile))).Methods("GET")
}

type registerRequest struct {
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	CompanyID *int64    `json:"companyId"`
	Role      auth.Role `json:"role"`
}

type authResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	User    auth.Identity `json:"user"`
	Token   string        `json:"token"`
}

// Register handles POST /api/auth/register
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if req.Email == "" || req.Password == "" {
		httputil.WriteBadRequest(w, "Email and password are required.")
		return
	}

	role := req.Role
	if role == "" {
		role = auth.RoleUser
	}
	if !role.Valid() {
		httputil.WriteBadRequest(w, "Invalid role.")
		return
	}
	role = role.Normalize()

	// Super admin accounts are bootstrapped through fleet-admin, never over
	// an unauthenticated endpoint. Every other role is company-scoped.
	if role == auth.RoleSuperAdmin {
		httputil.WriteForbidden(w, "Super admin accounts cannot be registered.")
		return
	}
	if req.CompanyID == nil {
		httputil.WriteBadRequest(w, "Company ID is required.")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("failed to hash password")
		httputil.WriteInternalError(w, "Failed to register user")
		return
	}

	user := &users.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		CompanyID:    req.CompanyID,
	}
	if err := h.store.Create(r.Context(), user); err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			httputil.WriteBadRequest(w, "User with this email already exists")
			return
		}
		observability.FromContext(r.Context()).WithError(err).Error("failed to create user")
		httputil.WriteInternalError(w, "Failed to register user")
		return
	}

	identity := user.Identity()
	token, err := h.tokens.Issue(identity)
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("failed to issue token after registration")
		httputil.WriteInternalError(w, "Failed to register user")
		return
	}
	h.countIssued()

	httputil.WriteJSON(w, http.StatusCreated, authResponse{
		Success: true,
		Message: "User registered successfully",
		User:    identity,
		Token:   token,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	user, err := h.store.GetByEmail(r.Context(), req.Email)
	if errors.Is(err, users.ErrNotFound) {
		h.countLogin("invalid_credentials")
		httputil.WriteUnauthorized(w, "Invalid email or password")
		return
	}
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("login lookup failed")
		httputil.WriteInternalError(w, "Failed to login")
		return
	}

	if !user.Active {
		h.countLogin("deactivated")
		httputil.WriteUnauthorized(w, "Your account has been deactivated. Please contact an administrator.")
		return
	}

	if err := auth.ComparePasswordAndHash(req.Password, user.PasswordHash); err != nil {
		h.countLogin("invalid_credentials")
		httputil.WriteUnauthorized(w, "Invalid email or password")
		return
	}

	// Last-login bookkeeping must not block or fail the login response
	userID := user.ID
	store := h.store
	async.SafeGo(5*time.Second, "touch last login", func(ctx context.Context) error {
		return store.TouchLastLogin(ctx, userID)
	})

	identity := user.Identity()
	token, err := h.tokens.Issue(identity)
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("failed to issue token at login")
		httputil.WriteInternalError(w, "Failed to login")
		return
	}
	h.countIssued()
	h.countLogin("success")

	httputil.WriteJSON(w, http.StatusOK, authResponse{
		Success: true,
		Message: "Login successful",
		User:    identity,
		Token:   token,
	})
}

// Profile handles GET /api/auth/profile
func (h *AuthHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r)
	if !ok {
		httputil.WriteUnauthorized(w, middleware.MsgInvalidToken)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    identity,
	})
}

func (h *AuthHandlers) countIssued() {
	if h.metrics != nil {
		h.metrics.TokensIssuedTotal.Inc()
	}
}

func (h *AuthHandlers) countLogin(result string) {
	if h.metrics != nil {
		h.metrics.LoginsTotal.WithLabelValues(result).Inc()
	}
}
