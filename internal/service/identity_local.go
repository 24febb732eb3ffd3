package service

import (
	"context"
	"errors"
	"time"

	"learning_aid_backend/internal/model"
	"learning_aid_backend/internal/util"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LocalIdentity keeps bcrypt hashes in the users table and signs its own
// tokens. Used for development and tests without a Supabase project.
type LocalIdentity struct {
	Users  UserStore
	Secret string
	TTL    time.Duration
}

func NewLocalIdentity(users UserStore, secret string, ttl time.Duration) *LocalIdentity {
	return &LocalIdentity{Users: users, Secret: secret, TTL: ttl}
}

func (p *LocalIdentity) SignUp(ctx context.Context, email, password, name string) (*Identity, error) {
	_, err := p.Users.FindByEmail(ctx, email)
	if err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           model.GenerateUUID(),
		Email:        email,
		Name:         name,
		CurrentLevel: model.DefaultLevel,
		PasswordHash: string(hashed),
	}
	if err := p.Users.Create(ctx, user); err != nil {
		return nil, err
	}
	return &Identity{UserID: user.ID, Email: user.Email}, nil
}

func (p *LocalIdentity) SignIn(ctx context.Context, email, password string) (*AuthToken, error) {
	user, err := p.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}

	token, expiresAt, err := util.GenerateJWT(user.ID, user.Email, p.Secret, p.TTL)
	if err != nil {
		return nil, err
	}
	return &AuthToken{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
		User:        Identity{UserID: user.ID, Email: user.Email},
	}, nil
}

// SignOut has nothing to do locally; AuthService revokes the token.
func (p *LocalIdentity) SignOut(ctx context.Context, accessToken string) error {
	return nil
}
