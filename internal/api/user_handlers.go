package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/techmarket/marketplace-api/internal/models"
)

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	return id, err == nil
}

// ListUsersHandler handles GET /api/users
func (a *App) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := a.userService.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// GetUserHandler handles GET /api/users/{id}
func (a *App) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid user ID")
		return
	}
	user, err := a.userService.GetUser(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// RegisterUserHandler handles POST /api/users
func (a *App) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := a.userService.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// LoginHandler handles POST /api/users/login
func (a *App) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := a.userService.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UpdateUserHandler handles PUT /api/users/{id}
func (a *App) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid user ID")
		return
	}
	var req models.UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := a.userService.UpdateUser(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// DeleteUserHandler handles DELETE /api/users/{id}
func (a *App) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid user ID")
		return
	}
	if err := a.userService.DeleteUser(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
