package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"learning_aid_backend/internal/util"

	"github.com/go-resty/resty/v2"
)

// SupabaseIdentity talks to the GoTrue REST API of a Supabase project.
type SupabaseIdentity struct {
	client *resty.Client
	anon   string
}

func NewSupabaseIdentity(baseURL, anonKey string) *SupabaseIdentity {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")+"/auth/v1").
		SetHeader("apikey", anonKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second)

	return &SupabaseIdentity{client: client, anon: anonKey}
}

type gotrueUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type gotrueSession struct {
	AccessToken  string     `json:"access_token"`
	TokenType    string     `json:"token_type"`
	ExpiresIn    int        `json:"expires_in"`
	ExpiresAt    int64      `json:"expires_at"`
	RefreshToken string     `json:"refresh_token"`
	User         gotrueUser `json:"user"`
}

// Sign-up answers with a bare user when e-mail confirmation is on and with a
// full session when it is off.
type gotrueSignUpResponse struct {
	gotrueUser
	User *gotrueUser `json:"user"`
}

type gotrueError struct {
	Code             int    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorName        string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e *gotrueError) text() string {
	for _, s := range []string{e.Msg, e.ErrorDescription, e.Message, e.ErrorName} {
		if s != "" {
			return s
		}
	}
	return ""
}

// ProviderError carries a client-facing rejection from the identity provider.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

func providerFailure(resp *resty.Response, gerr *gotrueError) error {
	if resp.StatusCode() >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", util.ErrIdentityProvider, resp.StatusCode())
	}
	msg := gerr.text()
	if msg == "" {
		msg = http.StatusText(resp.StatusCode())
	}
	return &ProviderError{Status: resp.StatusCode(), Message: msg}
}

func (p *SupabaseIdentity) SignUp(ctx context.Context, email, password, name string) (*Identity, error) {
	var out gotrueSignUpResponse
	var gerr gotrueError

	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(p.anon).
		SetBody(map[string]interface{}{
			"email":    email,
			"password": password,
			"data":     map[string]string{"name": name},
		}).
		SetResult(&out).
		SetError(&gerr).
		Post("/signup")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrIdentityProvider, err)
	}
	if resp.IsError() {
		switch {
		case gerr.ErrorCode == "user_already_exists" || strings.Contains(strings.ToLower(gerr.text()), "already registered"):
			return nil, util.ErrEmailRegistered
		case gerr.ErrorCode == "weak_password":
			return nil, util.ErrWeakPassword
		}
		return nil, providerFailure(resp, &gerr)
	}

	user := out.gotrueUser
	if out.User != nil {
		user = *out.User
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: sign-up response without user id", util.ErrIdentityProvider)
	}
	return &Identity{UserID: user.ID, Email: user.Email}, nil
}

func (p *SupabaseIdentity) SignIn(ctx context.Context, email, password string) (*AuthToken, error) {
	var out gotrueSession
	var gerr gotrueError

	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(p.anon).
		SetQueryParam("grant_type", "password").
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&out).
		SetError(&gerr).
		Post("/token")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrIdentityProvider, err)
	}
	if resp.IsError() {
		if resp.StatusCode() < http.StatusInternalServerError {
			return nil, util.ErrInvalidCredentials
		}
		return nil, providerFailure(resp, &gerr)
	}

	expiresAt := time.Unix(out.ExpiresAt, 0)
	if out.ExpiresAt == 0 {
		expiresAt = time.Now().Add(time.Duration(out.ExpiresIn) * time.Second)
	}
	return &AuthToken{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		TokenType:    out.TokenType,
		ExpiresAt:    expiresAt,
		User:         Identity{UserID: out.User.ID, Email: out.User.Email},
	}, nil
}

func (p *SupabaseIdentity) SignOut(ctx context.Context, accessToken string) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		Post("/logout")
	if err != nil {
		return fmt.Errorf("%w: %v", util.ErrIdentityProvider, err)
	}
	// 401/403: token already invalid on the provider side
	if resp.IsError() && resp.StatusCode() != http.StatusUnauthorized && resp.StatusCode() != http.StatusForbidden {
		return fmt.Errorf("%w: logout status %d", util.ErrIdentityProvider, resp.StatusCode())
	}
	return nil
}
