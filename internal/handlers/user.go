package handlers

import (
	"errors"
	"net/http"

	"github.com/promptpix/api/internal/auth"
	"github.com/promptpix/api/internal/repo"
)

type UserHandler struct {
	users repo.UserRepository
}

func NewUserHandler(users repo.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

// Show returns the authenticated identity.
func (h *UserHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.UserID(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "user not found")
			return
		}
		writeServerError(w, "failed to load user", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": user})
}
