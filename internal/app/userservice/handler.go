package userservice

import (
	"context"
	"errors"
	"net/http"
	"time"

	"git.platform.alem.school/amibragim/shop-events/internal/domain/users"
	"git.platform.alem.school/amibragim/shop-events/internal/ports"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/httpx"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/logger"
)

const requestTimeout = 5 * time.Second

// UserHTTPHandler adapts HTTP requests to the UserService.
type UserHTTPHandler struct {
	svc    ports.UserService
	logger *logger.Logger
}

// NewUserHTTPHandler wires an HTTP handler around the UserService.
func NewUserHTTPHandler(svc ports.UserService, logger *logger.Logger) *UserHTTPHandler {
	return &UserHTTPHandler{svc: svc, logger: logger}
}

// Register mounts the user routes on the provided mux.
func (handler *UserHTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /register", handler.handleRegister)
	mux.HandleFunc("POST /login", handler.handleLogin)
	mux.HandleFunc("GET /users", handler.handleList)
	mux.HandleFunc("GET /users/{id}", handler.handleGet)
}

// --- Request/Response DTOs (HTTP boundary) ---

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type authResponse struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

func toUserResponse(u users.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

// --- Handlers ---

func (handler *UserHTTPHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req registerRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		handler.decodeError(ctx, w, err)
		return
	}

	user, err := handler.svc.Register(ctx, ports.RegisterUserCommand{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	switch {
	case errors.Is(err, ports.ErrConflict):
		httpx.Error(ctx, handler.logger, w, http.StatusBadRequest, "User already exists with this email", err)
		return
	case errors.Is(err, ports.ErrInvalidInput):
		httpx.Error(ctx, handler.logger, w, http.StatusBadRequest, err.Error(), err)
		return
	case err != nil:
		httpx.Error(ctx, handler.logger, w, http.StatusInternalServerError, "database error", err)
		return
	}

	httpx.JSON(ctx, handler.logger, w, http.StatusCreated, authResponse{
		Message: "User registered successfully",
		User:    toUserResponse(*user),
	})
}

func (handler *UserHTTPHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req loginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		handler.decodeError(ctx, w, err)
		return
	}

	user, err := handler.svc.Login(ctx, req.Email, req.Password)
	switch {
	case errors.Is(err, ports.ErrInvalidCredentials):
		httpx.Error(ctx, handler.logger, w, http.StatusBadRequest, "Invalid email or password", err)
		return
	case err != nil:
		httpx.Error(ctx, handler.logger, w, http.StatusInternalServerError, "database error", err)
		return
	}

	httpx.JSON(ctx, handler.logger, w, http.StatusOK, authResponse{
		Message: "Login successful",
		User:    toUserResponse(*user),
	})
}

func (handler *UserHTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	list, err := handler.svc.List(ctx)
	if err != nil {
		httpx.Error(ctx, handler.logger, w, http.StatusInternalServerError, "database error", err)
		return
	}

	resp := make([]userResponse, 0, len(list))
	for _, u := range list {
		resp = append(resp, toUserResponse(u))
	}
	httpx.JSON(ctx, handler.logger, w, http.StatusOK, resp)
}

func (handler *UserHTTPHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	user, err := handler.svc.Get(ctx, r.PathValue("id"))
	switch {
	case errors.Is(err, ports.ErrNotFound):
		httpx.Error(ctx, handler.logger, w, http.StatusNotFound, "User not found", err)
		return
	case err != nil:
		httpx.Error(ctx, handler.logger, w, http.StatusInternalServerError, "database error", err)
		return
	}

	httpx.JSON(ctx, handler.logger, w, http.StatusOK, toUserResponse(*user))
}

func (handler *UserHTTPHandler) decodeError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, httpx.ErrUnsupportedMediaType) {
		httpx.Error(ctx, handler.logger, w, http.StatusUnsupportedMediaType, err.Error(), err)
		return
	}
	httpx.Error(ctx, handler.logger, w, http.StatusBadRequest, err.Error(), err)
}
