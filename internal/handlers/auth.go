package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rvvm-project/campusgate/internal/models"
	"github.com/rvvm-project/campusgate/internal/store"
	"github.com/rvvm-project/campusgate/internal/utils"
)

// SignupRequest represents a host/security signup
type SignupRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	Department    string `json:"department"`
	ContactNumber string `json:"contactNumber"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// signup handles host and security account creation
func (r *Router) signup(w http.ResponseWriter, req *http.Request) {
	var body SignupRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if body.Email == "" || body.Password == "" || body.Name == "" {
		respondError(w, http.StatusBadRequest, "email, password and name are required")
		return
	}
	if body.Role == "" {
		body.Role = models.RoleHost
	}
	// Admin accounts are provisioned out of band
	if body.Role != models.RoleHost && body.Role != models.RoleSecurity {
		respondError(w, http.StatusBadRequest, "role must be host or security")
		return
	}

	ctx, cancel := requestContext(req)
	defer cancel()

	if _, err := r.store.GetUserByEmail(ctx, body.Email); err == nil {
		respondError(w, http.StatusBadRequest, "An account with this email already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		r.respondOpError(w, err, "Failed to create account")
		return
	}

	hashed, err := utils.HashPassword(body.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user := models.User{
		Email:         body.Email,
		Password:      hashed,
		Name:          body.Name,
		Role:          body.Role,
		Department:    body.Department,
		ContactNumber: body.ContactNumber,
	}
	if err := r.store.SaveUser(ctx, &user); err != nil {
		r.respondOpError(w, err, "Failed to create account")
		return
	}

	accessToken, refreshToken, err := utils.GenerateTokens(&user, r.cfg.JWTSecret)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Account created but failed to generate tokens")
		return
	}

	respondSuccess(w, http.StatusCreated, "Account created successfully", map[string]interface{}{
		"tokens": map[string]string{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
		},
		"user": user,
	})
}

// login handles user login
func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	var body LoginRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	ctx, cancel := requestContext(req)
	defer cancel()

	user, err := r.store.GetUserByEmail(ctx, body.Email)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if !utils.CheckPasswordHash(body.Password, user.Password) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	now := timeNow()
	user.LastLogin = &now
	if err := r.store.SaveUser(ctx, user); err != nil {
		r.respondOpError(w, err, "Login failed")
		return
	}

	accessToken, refreshToken, err := utils.GenerateTokens(user, r.cfg.JWTSecret)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}

	respondSuccess(w, http.StatusOK, "Login successful", map[string]interface{}{
		"tokens": map[string]string{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
		},
		"user": user,
	})
}

// logout handles user logout. Token invalidation is client-side; the endpoint
// exists for the SPA's sake.
func (r *Router) logout(w http.ResponseWriter, req *http.Request) {
	respondSuccess(w, http.StatusOK, "Logged out successfully", nil)
}
