package account_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatkitlabs/chatd/core"
	"github.com/chatkitlabs/chatd/modules/account"
)

func TestAdminHandler(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	require.NoError(t, store.Create(context.Background(), &account.User{
		Name: "Ada", Email: "ada@example.com", Roles: []string{"user"},
	}))
	require.NoError(t, store.Create(context.Background(), &account.User{
		Name: "Bob", Email: "bob@example.com", Roles: []string{"user"},
	}))

	srv := httptest.NewServer(account.NewAdminHandler(store).Handle())
	defer srv.Close()

	t.Run("list carries pagination meta", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/users")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body core.JSONResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.EqualValues(t, 2, body.Meta["total"])
	})

	t.Run("get by email", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/users/ada@example.com")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body core.JSONResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		data := body.Data.(map[string]any)
		assert.Equal(t, "Ada", data["name"])
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/users/ghost@example.com")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("disable flips the kill switch", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/users/bob@example.com/disable", "application/json", nil)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		user, err := store.FindByEmail(context.Background(), "bob@example.com")
		require.NoError(t, err)
		assert.True(t, user.Disabled)

		resp, err = http.Post(srv.URL+"/users/bob@example.com/enable", "application/json", nil)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		user, err = store.FindByEmail(context.Background(), "bob@example.com")
		require.NoError(t, err)
		assert.False(t, user.Disabled)
	})

	t.Run("verify confirms the email", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/users/ada@example.com/verify", "application/json", nil)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		user, err := store.FindByEmail(context.Background(), "ada@example.com")
		require.NoError(t, err)
		assert.True(t, user.EmailVerified)
	})

	t.Run("verify unknown user is not found", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/users/ghost@example.com/verify", "application/json", nil)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("2fa toggle flips the flag", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/users/ada@example.com/2fa/enable", "application/json", nil)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		user, err := store.FindByEmail(context.Background(), "ada@example.com")
		require.NoError(t, err)
		assert.True(t, user.TwoFactorEnabled)

		resp, err = http.Post(srv.URL+"/users/ada@example.com/2fa/disable", "application/json", nil)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		user, err = store.FindByEmail(context.Background(), "ada@example.com")
		require.NoError(t, err)
		assert.False(t, user.TwoFactorEnabled)
	})

	t.Run("delete removes the user", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodDelete, srv.URL+"/users/bob@example.com", nil)
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		_, err = store.FindByEmail(context.Background(), "bob@example.com")
		assert.ErrorIs(t, err, account.ErrUserNotFound)
	})
}

// A fresh sign-up cannot log in until its email is confirmed; the admin
// verify endpoint is what unlocks it.
func TestAdminVerifyUnlocksSignIn(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	flow := testFlow(t, store)

	authSrv := httptest.NewServer(account.NewAuthHandler(flow).Handle())
	defer authSrv.Close()
	adminSrv := httptest.NewServer(account.NewAdminHandler(store).Handle())
	defer adminSrv.Close()

	resp, err := http.Post(authSrv.URL+"/sign-up", "application/json",
		signUpBody("Ada", "ada@example.com", "correct horse battery"))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Post(authSrv.URL+"/sign-in", "application/x-www-form-urlencoded",
		signInForm("ada@example.com", "correct horse battery"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = http.Post(adminSrv.URL+"/users/ada@example.com/verify", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(authSrv.URL+"/sign-in", "application/x-www-form-urlencoded",
		signInForm("ada@example.com", "correct horse battery"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
