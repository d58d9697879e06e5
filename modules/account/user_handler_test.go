package account_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatkitlabs/chatd/core"
	"github.com/chatkitlabs/chatd/modules/account"
	"github.com/chatkitlabs/chatd/pkg/jwt"
)

// asSubject simulates the JWT middleware by injecting the subject into the
// request context.
func asSubject(subject string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(jwt.SetSubject(r.Context(), subject)))
	})
}

func TestUserHandler(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	flow := testFlow(t, store)

	_, err := flow.Register(context.Background(), "Ada", "ada@example.com", "correct horse battery")
	require.NoError(t, err)

	srv := httptest.NewServer(asSubject("ada@example.com", account.NewUserHandler(store, flow).Handle()))
	defer srv.Close()

	t.Run("me returns the profile without the hash", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/me")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body core.JSONResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		data := body.Data.(map[string]any)
		assert.Equal(t, "ada@example.com", data["email"])
		assert.NotContains(t, data, "password_hash")
	})

	t.Run("patch updates only the sent fields", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPatch, srv.URL+"/me",
			strings.NewReader(`{"last_name":"Lovelace"}`))
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		user, err := store.FindByEmail(context.Background(), "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, "Ada", user.Name)
		assert.Equal(t, "Lovelace", user.LastName)
	})

	t.Run("empty patch rejected", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPatch, srv.URL+"/me", strings.NewReader(`{}`))
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("address lifecycle", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/me/addresses", "application/json",
			strings.NewReader(`{"street":"12 Gower St","city":"London","zip":"WC1E","country":"GB"}`))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		req, err := http.NewRequest(http.MethodPut, srv.URL+"/me/addresses/0",
			strings.NewReader(`{"street":"10 Downing St","city":"London","zip":"SW1A","country":"GB"}`))
		require.NoError(t, err)
		resp, err = http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		user, err := store.FindByEmail(context.Background(), "ada@example.com")
		require.NoError(t, err)
		require.Len(t, user.Addresses, 1)
		assert.Equal(t, "10 Downing St", user.Addresses[0].Street)
	})

	t.Run("updating a missing address is not found", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPut, srv.URL+"/me/addresses/9",
			strings.NewReader(`{"street":"x","city":"y","zip":"z","country":"GB"}`))
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("picture round-trip preserves content type", func(t *testing.T) {
		payload := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 1, 2, 3}

		resp, err := http.Post(srv.URL+"/me/picture", "image/png", bytes.NewReader(payload))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		resp, err = http.Get(srv.URL + "/me/picture")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	})

	t.Run("missing picture is not found", func(t *testing.T) {
		other := httptest.NewServer(asSubject("ghost@example.com", account.NewUserHandler(store, flow).Handle()))
		defer other.Close()

		resp, err := http.Get(other.URL + "/me/picture")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestChangePasswordEndpoint(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	flow := testFlow(t, store)

	_, err := flow.Register(context.Background(), "Ada", "ada@example.com", "correct horse battery")
	require.NoError(t, err)
	require.NoError(t, store.SetEmailVerified(context.Background(), "ada@example.com", true))

	srv := httptest.NewServer(asSubject("ada@example.com", account.NewUserHandler(store, flow).Handle()))
	defer srv.Close()

	t.Run("wrong current password forbidden", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/me/password", "application/json",
			strings.NewReader(`{"current_password":"wrong","new_password":"entirely new phrase"}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("valid change rotates the credential", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/me/password", "application/json",
			strings.NewReader(`{"current_password":"correct horse battery","new_password":"entirely new phrase"}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		outcome, _, err := flow.Login(context.Background(), "ada@example.com", "entirely new phrase")
		require.NoError(t, err)
		assert.Equal(t, "success", outcome.String())
	})
}
