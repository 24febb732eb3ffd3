package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"learning_aid_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gotrueCall struct {
	path   string
	query  string
	apikey string
	auth   string
	body   map[string]interface{}
}

func newGoTrueServer(t *testing.T, status int, response string) (*httptest.Server, *[]gotrueCall) {
	t.Helper()
	var calls []gotrueCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := gotrueCall{
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			apikey: r.Header.Get("apikey"),
			auth:   r.Header.Get("Authorization"),
		}
		_ = json.NewDecoder(r.Body).Decode(&call.body)
		calls = append(calls, call)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestSupabaseIdentity_SignUp(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		response string
		wantID   string
		wantErr  error
	}{
		{
			name:     "confirmation pending returns bare user",
			status:   http.StatusOK,
			response: `{"id":"u-1","email":"kyi@example.com"}`,
			wantID:   "u-1",
		},
		{
			name:     "autoconfirm returns session",
			status:   http.StatusOK,
			response: `{"access_token":"tok","user":{"id":"u-2","email":"kyi@example.com"}}`,
			wantID:   "u-2",
		},
		{
			name:     "already registered",
			status:   http.StatusUnprocessableEntity,
			response: `{"code":422,"error_code":"user_already_exists","msg":"User already registered"}`,
			wantErr:  util.ErrEmailRegistered,
		},
		{
			name:     "weak password",
			status:   http.StatusUnprocessableEntity,
			response: `{"code":422,"error_code":"weak_password","msg":"Password should be at least 6 characters"}`,
			wantErr:  util.ErrWeakPassword,
		},
		{
			name:     "provider outage",
			status:   http.StatusBadGateway,
			response: `{}`,
			wantErr:  util.ErrIdentityProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := newGoTrueServer(t, tt.status, tt.response)
			p := NewSupabaseIdentity(srv.URL+"/", "anon-key")

			identity, err := p.SignUp(context.Background(), "kyi@example.com", "secret1", "Kyi")
			require.Len(t, *calls, 1)
			call := (*calls)[0]
			assert.Equal(t, "/auth/v1/signup", call.path)
			assert.Equal(t, "anon-key", call.apikey)
			assert.Equal(t, "kyi@example.com", call.body["email"])
			assert.Equal(t, map[string]interface{}{"name": "Kyi"}, call.body["data"])

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, identity.UserID)
		})
	}
}

func TestSupabaseIdentity_SignUpRejection(t *testing.T) {
	srv, _ := newGoTrueServer(t, http.StatusBadRequest, `{"code":400,"msg":"Signups not allowed for this instance"}`)
	p := NewSupabaseIdentity(srv.URL, "anon-key")

	_, err := p.SignUp(context.Background(), "kyi@example.com", "secret1", "Kyi")
	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, http.StatusBadRequest, providerErr.Status)
	assert.Equal(t, "Signups not allowed for this instance", providerErr.Message)
}

func TestSupabaseIdentity_SignIn(t *testing.T) {
	t.Run("password grant", func(t *testing.T) {
		srv, calls := newGoTrueServer(t, http.StatusOK,
			`{"access_token":"tok","token_type":"bearer","expires_in":3600,"expires_at":1900000000,"refresh_token":"ref","user":{"id":"u-1","email":"kyi@example.com"}}`)
		p := NewSupabaseIdentity(srv.URL, "anon-key")

		token, err := p.SignIn(context.Background(), "kyi@example.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, "tok", token.AccessToken)
		assert.Equal(t, "ref", token.RefreshToken)
		assert.Equal(t, int64(1900000000), token.ExpiresAt.Unix())
		assert.Equal(t, "u-1", token.User.UserID)

		require.Len(t, *calls, 1)
		assert.Equal(t, "/auth/v1/token", (*calls)[0].path)
		assert.Equal(t, "grant_type=password", (*calls)[0].query)
	})

	t.Run("bad credentials", func(t *testing.T) {
		srv, _ := newGoTrueServer(t, http.StatusBadRequest, `{"error":"invalid_grant","error_description":"Invalid login credentials"}`)
		p := NewSupabaseIdentity(srv.URL, "anon-key")

		_, err := p.SignIn(context.Background(), "kyi@example.com", "nope")
		assert.ErrorIs(t, err, util.ErrInvalidCredentials)
	})
}

func TestSupabaseIdentity_SignOut(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "ok", status: http.StatusNoContent},
		{name: "token already invalid", status: http.StatusUnauthorized},
		{name: "server error", status: http.StatusInternalServerError, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := newGoTrueServer(t, tt.status, ``)
			p := NewSupabaseIdentity(srv.URL, "anon-key")

			err := p.SignOut(context.Background(), "user-token")
			require.Len(t, *calls, 1)
			assert.Equal(t, "/auth/v1/logout", (*calls)[0].path)
			assert.Equal(t, "Bearer user-token", (*calls)[0].auth)
			if tt.wantErr {
				assert.ErrorIs(t, err, util.ErrIdentityProvider)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
