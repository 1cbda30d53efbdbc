package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/promptpix/api/internal/auth"
	"github.com/promptpix/api/internal/repo"
	"github.com/promptpix/api/models"
)

// PostHandler serves the post CRUD resource. Mutations are restricted to
// the post's author.
type PostHandler struct {
	posts repo.PostRepository
}

func NewPostHandler(posts repo.PostRepository) *PostHandler {
	return &PostHandler{posts: posts}
}

type postRequest struct {
	Title string `json:"title" validate:"required,max=255"`
	Body  string `json:"body" validate:"required"`
}

func (h *PostHandler) Index(w http.ResponseWriter, r *http.Request) {
	page, perPage := parsePagination(r)

	posts, total, err := h.posts.List(r.Context(), page, perPage)
	if err != nil {
		writeServerError(w, "failed to list posts", err)
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": posts,
		"meta": listMeta{Page: page, PerPage: perPage, Total: total},
	})
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	var req postRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !checkRequest(w, &req) {
		return
	}

	post := &models.Post{Title: req.Title, Body: req.Body, UserID: userID}
	if err := h.posts.Create(r.Context(), post); err != nil {
		writeServerError(w, "failed to create post", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"data": post})
}

func (h *PostHandler) Show(w http.ResponseWriter, r *http.Request) {
	post, ok := h.findPost(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": post})
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	post, found := h.findPost(w, r)
	if !found {
		return
	}
	if post.UserID != userID {
		writeMessage(w, http.StatusForbidden, "you do not own this post")
		return
	}

	var req postRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !checkRequest(w, &req) {
		return
	}

	post.Title = req.Title
	post.Body = req.Body
	if err := h.posts.Update(r.Context(), post); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "post not found")
			return
		}
		writeServerError(w, "failed to update post", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": post})
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	post, found := h.findPost(w, r)
	if !found {
		return
	}
	if post.UserID != userID {
		writeMessage(w, http.StatusForbidden, "you do not own this post")
		return
	}

	if err := h.posts.Delete(r.Context(), post.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "post not found")
			return
		}
		writeServerError(w, "failed to delete post", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// findPost resolves the {id} route param, writing the 404 itself when the
// id is malformed or unknown.
func (h *PostHandler) findPost(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		writeMessage(w, http.StatusNotFound, "post not found")
		return nil, false
	}

	post, err := h.posts.GetByID(r.Context(), uint(id))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "post not found")
			return nil, false
		}
		writeServerError(w, "failed to load post", err)
		return nil, false
	}
	return post, true
}
