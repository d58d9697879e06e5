package auth_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatkitlabs/chatd/pkg/auth"
)

func TestGoogleAuthURL(t *testing.T) {
	t.Parallel()

	states := newMemoryStateStore()
	flow := auth.NewGoogleOAuth(auth.GoogleOAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://chatd.example/oauth/google-response",
		Scopes:       []string{"openid", "email"},
	}, states)

	authURL, err := flow.AuthURL(context.Background())
	require.NoError(t, err)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", parsed.Host)

	query := parsed.Query()
	assert.Equal(t, "client-id", query.Get("client_id"))
	assert.Equal(t, "https://chatd.example/oauth/google-response", query.Get("redirect_uri"))
	assert.Equal(t, "consent", query.Get("prompt"))

	// The state parameter must have been stored for later validation.
	state := query.Get("state")
	require.NotEmpty(t, state)
	assert.NoError(t, states.Consume(context.Background(), state))
}

func TestStateIsSingleUse(t *testing.T) {
	t.Parallel()

	states := newMemoryStateStore()
	flow := auth.NewGoogleOAuth(auth.GoogleOAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://chatd.example/cb",
	}, states)

	authURL, err := flow.AuthURL(context.Background())
	require.NoError(t, err)

	state := mustQueryParam(t, authURL, "state")
	require.NoError(t, states.Consume(context.Background(), state))
	assert.ErrorIs(t, states.Consume(context.Background(), state), auth.ErrInvalidState)
}

func TestExchangeRejectsUnknownState(t *testing.T) {
	t.Parallel()

	flow := auth.NewGoogleOAuth(auth.GoogleOAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://chatd.example/cb",
	}, newMemoryStateStore())

	_, err := flow.Exchange(context.Background(), "some-code", "never-issued")
	assert.ErrorIs(t, err, auth.ErrInvalidState)
}

func mustQueryParam(t *testing.T, rawURL, name string) string {
	t.Helper()
	parsed, err := url.Parse(rawURL)
	require.NoError(t, err)
	value := parsed.Query().Get(name)
	require.NotEmpty(t, value)
	return value
}
