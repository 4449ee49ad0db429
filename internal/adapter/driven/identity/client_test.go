package identity_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identityadapter "github.com/teskilatapp/credsync/internal/adapter/driven/identity"
	"github.com/teskilatapp/credsync/internal/domain/model"
	"github.com/teskilatapp/credsync/internal/domain/port/driven"
)

// newTestClient creates a Client backed by the given httptest handler.
func newTestClient(t *testing.T, handler http.Handler) *identityadapter.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return identityadapter.NewClientWithHTTPClient(server.Client(), server.URL)
}

type accountJSON struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

func TestSignIn_SetsCurrentSession(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/sessions", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "admin@uye.example.org", body["email"])

		_ = json.NewEncoder(w).Encode(accountJSON{ID: "acct-admin", Token: "admin-token"})
	}))

	session, err := client.SignIn(context.Background(), "admin@uye.example.org", "hunter22")

	require.NoError(t, err)
	assert.Equal(t, "admin-token", session.Token)
	assert.Equal(t, "admin@uye.example.org", session.AccountEmail)
	assert.Equal(t, session, client.CurrentSession())
}

func TestCreateAccount_ReturnsExternalIDAndSwitchesCaller(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/sessions":
			_ = json.NewEncoder(w).Encode(accountJSON{ID: "acct-admin", Token: "admin-token"})
		case "/v1/accounts":
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(accountJSON{ID: "acct-new", Token: "new-account-token"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	admin, err := client.SignIn(context.Background(), "admin@uye.example.org", "hunter22")
	require.NoError(t, err)

	externalID, err := client.CreateAccount(context.Background(), "1042@uye.example.org", "987654")

	require.NoError(t, err)
	assert.Equal(t, "acct-new", externalID)
	// The creation switched the active caller away from the admin.
	assert.NotEqual(t, admin, client.CurrentSession())
	assert.Equal(t, "1042@uye.example.org", client.CurrentSession().AccountEmail)
}

func TestCreateAccount_DuplicateMapsToSentinel(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "account exists"})
	}))

	externalID, err := client.CreateAccount(context.Background(), "1042@uye.example.org", "987654")

	assert.ErrorIs(t, err, driven.ErrDuplicateAccount)
	assert.Empty(t, externalID)
}

func TestCreateAccount_ServerError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "backend exploded"})
	}))

	_, err := client.CreateAccount(context.Background(), "1042@uye.example.org", "987654")

	require.Error(t, err)
	assert.NotErrorIs(t, err, driven.ErrDuplicateAccount)
	assert.Contains(t, err.Error(), "backend exploded")
}

func TestRestore_ReestablishesSession(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/me", r.URL.Path)
		require.Equal(t, "Bearer admin-token", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(accountJSON{ID: "acct-admin"})
	}))

	admin := model.Session{Token: "admin-token", AccountEmail: "admin@uye.example.org"}
	require.NoError(t, client.Restore(context.Background(), admin))
	assert.Equal(t, admin, client.CurrentSession())
}

func TestRestore_RejectedToken(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	err := client.Restore(context.Background(), model.Session{Token: "expired", AccountEmail: "admin@uye.example.org"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "token rejected")
	assert.True(t, client.CurrentSession().IsZero(), "rejected restore must not install the session")
}
