package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/promptpix/api/internal/auth"
	"github.com/promptpix/api/internal/repo"
	"github.com/promptpix/api/models"
)

const resetTokenTTL = time.Hour

// AuthHandler serves registration, login, and the password reset flow.
type AuthHandler struct {
	users  repo.UserRepository
	resets repo.PasswordResetRepository
}

func NewAuthHandler(users repo.UserRepository, resets repo.PasswordResetRepository) *AuthHandler {
	return &AuthHandler{users: users, resets: resets}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !checkRequest(w, &req) {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeServerError(w, "failed to hash password", err)
		return
	}

	user := &models.User{Name: req.Name, Email: req.Email, PasswordHash: hash}
	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			writeFieldErrors(w, map[string]string{"email": "has already been taken"})
			return
		}
		writeServerError(w, "failed to create user", err)
		return
	}

	token, err := auth.NewAccessToken(user)
	if err != nil {
		writeServerError(w, "failed to issue access token", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"data": user, "token": token.Access})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !checkRequest(w, &req) {
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		writeServerError(w, "failed to look up user", err)
		return
	}
	if err != nil || !auth.VerifyPassword(req.Password, user.PasswordHash) {
		writeMessage(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.NewAccessToken(user)
	if err != nil {
		writeServerError(w, "failed to issue access token", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": user, "token": token.Access})
}

// Logout acknowledges the request. Access tokens are stateless, so the
// client discards its copy; nothing is revoked server side.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "logged out")
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPassword issues a reset token when the account exists. The
// response is identical either way so the endpoint cannot be used to
// probe for registered addresses.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !checkRequest(w, &req) {
		return
	}

	const reply = "If the account exists, a password reset link has been sent."

	if _, err := h.users.GetByEmail(r.Context(), req.Email); err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			writeServerError(w, "failed to look up user", err)
			return
		}
		writeMessage(w, http.StatusOK, reply)
		return
	}

	token := uuid.NewString()
	if err := h.resets.DeleteByEmail(r.Context(), req.Email); err != nil {
		writeServerError(w, "failed to clear previous reset tokens", err)
		return
	}
	reset := &models.PasswordReset{
		Email:     req.Email,
		TokenHash: hashResetToken(token),
		ExpiresAt: time.Now().Add(resetTokenTTL),
	}
	if err := h.resets.Create(r.Context(), reset); err != nil {
		writeServerError(w, "failed to store reset token", err)
		return
	}

	// Mail delivery is outside this service; the token surfaces on the
	// structured log for the operator-side mailer to pick up.
	slog.Info("password reset token issued", "email", req.Email, "token", token)

	writeMessage(w, http.StatusOK, reply)
}

type resetPasswordRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !checkRequest(w, &req) {
		return
	}

	reset, err := h.resets.GetByEmailAndHash(r.Context(), req.Email, hashResetToken(req.Token))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeFieldErrors(w, map[string]string{"token": "is invalid or has expired"})
			return
		}
		writeServerError(w, "failed to look up reset token", err)
		return
	}
	if time.Now().After(reset.ExpiresAt) {
		writeFieldErrors(w, map[string]string{"token": "is invalid or has expired"})
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeFieldErrors(w, map[string]string{"token": "is invalid or has expired"})
			return
		}
		writeServerError(w, "failed to look up user", err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeServerError(w, "failed to hash password", err)
		return
	}
	if err := h.users.UpdatePassword(r.Context(), user.ID, hash); err != nil {
		writeServerError(w, "failed to update password", err)
		return
	}
	if err := h.resets.DeleteByEmail(r.Context(), req.Email); err != nil {
		slog.Error("failed to delete consumed reset token", "email", req.Email, "error", err)
	}

	writeMessage(w, http.StatusOK, "password has been reset")
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
