package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"learning_aid_backend/internal/model"
	"learning_aid_backend/internal/util"
	"learning_aid_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const minPasswordLength = 6

// Identity is the account an identity provider knows about.
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
}

// AuthToken is what a successful sign-in hands back to the client.
type AuthToken struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	TokenType    string    `json:"tokenType"`
	ExpiresAt    time.Time `json:"expiresAt"`
	User         Identity  `json:"user"`
}

// IdentityProvider owns credentials. Profiles live in the users table.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password, name string) (*Identity, error)
	SignIn(ctx context.Context, email, password string) (*AuthToken, error)
	SignOut(ctx context.Context, accessToken string) error
}

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateProfile(ctx context.Context, id, name string, level model.Level) error
}

type TokenStore interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type AuthService struct {
	Provider IdentityProvider
	Users    UserStore
	Tokens   TokenStore
	Secret   string

	signOutHooks []func(userID string)
}

func NewAuthService(provider IdentityProvider, users UserStore, tokens TokenStore, secret string) *AuthService {
	return &AuthService{
		Provider: provider,
		Users:    users,
		Tokens:   tokens,
		Secret:   secret,
	}
}

// OnSignOut registers fn to run after a user signs out.
func (s *AuthService) OnSignOut(fn func(userID string)) {
	s.signOutHooks = append(s.signOutHooks, fn)
}

func validateSignUp(email, password, name string) error {
	if len([]rune(password)) < minPasswordLength {
		return util.ErrWeakPassword
	}
	if err := validate.Var(email, "required,email"); err != nil {
		return util.ErrInvalidEmail
	}
	if strings.TrimSpace(name) == "" {
		return util.ErrNameRequired
	}
	return nil
}

// SignUp checks the form locally before anything is sent to the provider, then
// creates the learner's profile row.
func (s *AuthService) SignUp(ctx context.Context, email, password, name string) (*model.User, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if err := validateSignUp(email, password, name); err != nil {
		return nil, err
	}

	identity, err := s.Provider.SignUp(ctx, email, password, name)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           identity.UserID,
		Email:        identity.Email,
		Name:         name,
		CurrentLevel: model.DefaultLevel,
	}
	if err := s.Users.Create(ctx, user); err != nil {
		// 账号已在身份服务创建，资料行缺失不阻断注册
		logger.Log.Warn("Failed to create user profile",
			zap.String("user_id", identity.UserID),
			zap.Error(err),
		)
	}
	return user, nil
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*AuthToken, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, util.ErrInvalidCredentials
	}
	return s.Provider.SignIn(ctx, email, password)
}

// SignOut revokes the session's token locally even when the provider call fails.
func (s *AuthService) SignOut(ctx context.Context, sess *Session) error {
	if sess == nil {
		return nil
	}

	providerErr := s.Provider.SignOut(ctx, sess.AccessToken)
	if providerErr != nil {
		logger.Log.Warn("Identity provider sign-out failed",
			zap.String("user_id", sess.UserID),
			zap.Error(providerErr),
		)
	}

	if err := s.Tokens.Revoke(ctx, sess.AccessToken, sess.ExpiresAt); err != nil {
		return err
	}

	for _, hook := range s.signOutHooks {
		hook(sess.UserID)
	}
	return nil
}

// Authenticate turns a bearer token into a Session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Session, error) {
	claims, err := util.ParseJWT(token, s.Secret)
	if err != nil {
		return nil, err
	}

	revoked, err := s.Tokens.IsRevoked(ctx, token)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, util.ErrTokenRevoked
	}

	sess := &Session{
		UserID:      claims.UserID(),
		Email:       claims.Email,
		AccessToken: token,
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, sess *Session) (*model.User, error) {
	if sess == nil {
		return nil, util.ErrUserNotFound
	}
	user, err := s.Users.FindByID(ctx, sess.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	return user, err
}

func (s *AuthService) UpdateProfile(ctx context.Context, sess *Session, name string, level model.Level) (*model.User, error) {
	if sess == nil {
		return nil, util.ErrUserNotFound
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, util.ErrNameRequired
	}
	if err := s.Users.UpdateProfile(ctx, sess.UserID, name, level); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return s.CurrentUser(ctx, sess)
}
