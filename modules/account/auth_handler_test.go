package account_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatkitlabs/chatd/core"
	"github.com/chatkitlabs/chatd/modules/account"
)

func signUpBody(name, email, password string) *strings.Reader {
	body, _ := json.Marshal(map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	return strings.NewReader(string(body))
}

func signInForm(email, password string) *strings.Reader {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)
	return strings.NewReader(form.Encode())
}

func TestSignUp(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	flow := testFlow(t, store)
	srv := httptest.NewServer(account.NewAuthHandler(flow).Handle())
	defer srv.Close()

	t.Run("creates account", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/sign-up", "application/json",
			signUpBody("Ada", "Ada@Example.com", "correct horse battery"))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var body core.JSONResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		data := body.Data.(map[string]any)
		assert.Equal(t, "ada@example.com", data["email"])
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/sign-up", "application/json",
			signUpBody("Ada", "ada@example.com", "correct horse battery"))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("short password rejected", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/sign-up", "application/json",
			signUpBody("Bob", "bob@example.com", "short"))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})
}

func TestSignIn(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	flow := testFlow(t, store)

	_, err := flow.Register(context.Background(), "Ada", "ada@example.com", "correct horse battery")
	require.NoError(t, err)
	require.NoError(t, store.SetEmailVerified(context.Background(), "ada@example.com", true))

	srv := httptest.NewServer(account.NewAuthHandler(flow).Handle())
	defer srv.Close()

	t.Run("valid credentials return a bearer token", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/sign-in", "application/x-www-form-urlencoded",
			signInForm("ada@example.com", "correct horse battery"))
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body core.JSONResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		data := body.Data.(map[string]any)
		assert.Equal(t, "bearer", data["token_type"])
		assert.NotEmpty(t, data["access_token"])
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/sign-in", "application/x-www-form-urlencoded",
			signInForm("ada@example.com", "wrong"))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown user is indistinguishable from wrong password", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/sign-in", "application/x-www-form-urlencoded",
			signInForm("ghost@example.com", "whatever"))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unverified email is forbidden", func(t *testing.T) {
		_, err := flow.Register(context.Background(), "Bob", "bob@example.com", "correct horse battery")
		require.NoError(t, err)

		resp, err := http.Post(srv.URL+"/sign-in", "application/x-www-form-urlencoded",
			signInForm("bob@example.com", "correct horse battery"))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	flow := testFlow(t, store)

	_, err := flow.Register(context.Background(), "Ada", "ada@example.com", "correct horse battery")
	require.NoError(t, err)
	require.NoError(t, store.SetEmailVerified(context.Background(), "ada@example.com", true))

	_, token, err := flow.Login(context.Background(), "ada@example.com", "correct horse battery")
	require.NoError(t, err)

	srv := httptest.NewServer(account.NewAuthHandler(flow).Handle())
	defer srv.Close()

	t.Run("valid token resolves subject", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/validate-token", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body core.JSONResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		data := body.Data.(map[string]any)
		assert.Equal(t, "ada@example.com", data["sub"])
	})

	t.Run("garbage token is unauthorized", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/validate-token", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer not-a-token")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
