package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/promptpix/api/internal/auth"
	"github.com/promptpix/api/internal/repo/mock"
	"github.com/promptpix/api/internal/storage"
	"github.com/promptpix/api/models"
	"github.com/stretchr/testify/require"
)

// stubDescriber is the vision substitute for handler tests. It records how
// often it was invoked so tests can assert the pipeline rejected uploads
// before the outbound call.
type stubDescriber struct {
	text  string
	err   error
	calls int
}

func (s *stubDescriber) Describe(_ context.Context, _ []byte, _ string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

type testEnv struct {
	users     *mock.UserRepository
	posts     *mock.PostRepository
	gens      *mock.GenerationRepository
	resets    *mock.PasswordResetRepository
	blobs     *storage.MemoryStore
	describer *stubDescriber
	server    *httptest.Server
}

// newTestEnv wires the full router the way cmd/api does, with in-memory
// substitutes behind every interface.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv(auth.SecretEnv, "handler-test-secret")

	env := &testEnv{
		users:     mock.NewUserRepository(),
		posts:     mock.NewPostRepository(),
		gens:      mock.NewGenerationRepository(),
		resets:    mock.NewPasswordResetRepository(),
		blobs:     storage.NewMemoryStore(),
		describer: &stubDescriber{text: "a red bicycle"},
	}

	authHandler := NewAuthHandler(env.users, env.resets)
	userHandler := NewUserHandler(env.users)
	postHandler := NewPostHandler(env.posts)
	genHandler := NewGenerationHandler(env.gens, env.blobs, env.describer)

	r := chi.NewRouter()
	r.Post("/register", authHandler.Register)
	r.Post("/login", authHandler.Login)
	r.Post("/forgot-password", authHandler.ForgotPassword)
	r.Post("/reset-password", authHandler.ResetPassword)
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Post("/logout", authHandler.Logout)
		r.Get("/user", userHandler.Show)
	})
	r.Route("/v1", func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Route("/posts", func(r chi.Router) {
			r.Get("/", postHandler.Index)
			r.Post("/", postHandler.Create)
			r.Get("/{id}", postHandler.Show)
			r.Put("/{id}", postHandler.Update)
			r.Delete("/{id}", postHandler.Delete)
		})
		r.Route("/prompt-generations", func(r chi.Router) {
			r.Get("/", genHandler.Index)
			r.Post("/", genHandler.Create)
		})
	})

	env.server = httptest.NewServer(r)
	t.Cleanup(env.server.Close)
	return env
}

// registerUser creates an account through the API and returns the stored
// user plus a bearer token.
func (e *testEnv) registerUser(t *testing.T, name, email string) (*models.User, string) {
	t.Helper()

	body := map[string]string{"name": name, "email": email, "password": "secret-password"}
	status, resp := e.doJSON(t, http.MethodPost, "/register", "", body)
	require.Equal(t, http.StatusCreated, status)

	token, ok := resp["token"].(string)
	require.True(t, ok)

	user, err := e.users.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	return user, token
}

// doJSON issues a JSON request and decodes the JSON response body into a
// generic map. token may be empty for unauthenticated calls.
func (e *testEnv) doJSON(t *testing.T, method, path, token string, payload any) (int, map[string]any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, e.server.URL+path, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp.StatusCode, decoded
}

// multipartImage builds a multipart body with the image under the given
// declared content type (multipart.CreateFormFile would force
// application/octet-stream).
func multipartImage(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return &buf, w.FormDataContentType()
}

func (e *testEnv) uploadImage(t *testing.T, token, filename, contentType string, data []byte) (int, map[string]any) {
	t.Helper()

	body, formType := multipartImage(t, filename, contentType, data)
	req, err := http.NewRequest(http.MethodPost, e.server.URL+"/v1/prompt-generations", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", formType)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}
