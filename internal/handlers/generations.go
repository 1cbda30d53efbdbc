package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/promptpix/api/internal/auth"
	"github.com/promptpix/api/internal/images"
	"github.com/promptpix/api/internal/repo"
	"github.com/promptpix/api/internal/storage"
	"github.com/promptpix/api/internal/vision"
	"github.com/promptpix/api/models"
)

// multipart framing overhead on top of the image size limit
const uploadBodyLimit = images.MaxFileSize + (1 << 20)

// GenerationHandler runs the upload -> validate -> store -> describe ->
// persist pipeline and serves the listing of a user's generations.
type GenerationHandler struct {
	gens      repo.GenerationRepository
	store     storage.BlobStore
	describer vision.Describer
}

func NewGenerationHandler(gens repo.GenerationRepository, store storage.BlobStore, describer vision.Describer) *GenerationHandler {
	return &GenerationHandler{gens: gens, store: store, describer: describer}
}

func (h *GenerationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, uploadBodyLimit)

	file, header, err := r.FormFile("image")
	if err != nil {
		writeFieldErrors(w, map[string]string{"image": "an image file is required"})
		return
	}
	defer file.Close()

	// Cheap size reject from the part header before reading the bytes.
	if header.Size > images.MaxFileSize {
		writeFieldErrors(w, map[string]string{"image": fmt.Sprintf("image exceeds the maximum size of %d bytes", images.MaxFileSize)})
		return
	}

	buf, err := io.ReadAll(file)
	if err != nil {
		writeServerError(w, "failed to read uploaded image", err)
		return
	}

	declaredType := header.Header.Get("Content-Type")
	if err := images.Validate(buf, declaredType); err != nil {
		var verr *images.ValidationError
		if errors.As(err, &verr) {
			writeFieldErrors(w, map[string]string{"image": verr.Message})
			return
		}
		writeServerError(w, "failed to validate uploaded image", err)
		return
	}

	ext, _ := images.Extension(declaredType)
	genUUID := uuid.New().String()
	key := fmt.Sprintf("generations/%d/%s%s", userID, genUUID, ext)

	if err := h.store.Put(r.Context(), key, declaredType, bytes.NewReader(buf)); err != nil {
		writeServerError(w, "failed to store image", err)
		return
	}

	prompt, err := h.describer.Describe(r.Context(), buf, declaredType)
	if err != nil {
		h.cleanup(r.Context(), key)
		writeServerError(w, "failed to generate image description", err)
		return
	}

	gen := &models.Generation{
		UUID:             genUUID,
		UserID:           userID,
		ImageURL:         h.store.URL(key),
		StorageKey:       key,
		GeneratedPrompt:  prompt,
		OriginalFilename: header.Filename,
		FileSize:         int64(len(buf)),
		MimeType:         declaredType,
	}
	if err := h.gens.Create(r.Context(), gen); err != nil {
		h.cleanup(r.Context(), key)
		writeServerError(w, "failed to save generation", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"data": gen})
}

// cleanup removes a stored blob after a downstream failure so no orphaned
// files accumulate. Best effort: the request already failed, so a delete
// error is only logged.
func (h *GenerationHandler) cleanup(ctx context.Context, key string) {
	if err := h.store.Delete(context.WithoutCancel(ctx), key); err != nil {
		slog.Error("failed to clean up stored image", "key", key, "error", err)
	}
}

func (h *GenerationHandler) Index(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}

	page, perPage := parsePagination(r)
	sortKey, desc := parseSort(r.URL.Query().Get("sort"))

	opts := repo.GenerationListOptions{
		Search:  r.URL.Query().Get("search"),
		Sort:    sortKey,
		Desc:    desc,
		Page:    page,
		PerPage: perPage,
	}

	gens, total, err := h.gens.ListByUser(r.Context(), userID, opts)
	if err != nil {
		writeServerError(w, "failed to list generations", err)
		return
	}
	if gens == nil {
		gens = []models.Generation{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": gens,
		"meta": listMeta{Page: page, PerPage: perPage, Total: total},
	})
}

// parseSort splits an optional leading '-' (descending) off the sort key.
// The default is newest first.
func parseSort(raw string) (key string, desc bool) {
	if raw == "" {
		return "created_at", true
	}
	if strings.HasPrefix(raw, "-") {
		return strings.TrimPrefix(raw, "-"), true
	}
	return raw, false
}
