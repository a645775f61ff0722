package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"quizhub/internal/domain"
)

const tokenIssuer = "quizhub"

// AuthService registers users and issues bearer tokens carrying the user id.
type AuthService struct {
	users    UserStore
	secret   []byte
	ttl      time.Duration
	validate *Validator
	now      func() time.Time
}

func NewAuthService(users UserStore, secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		users:    users,
		secret:   []byte(secret),
		ttl:      ttl,
		validate: NewValidator(),
		now:      time.Now,
	}
}

// Register creates an account with a bcrypt password hash.
func (a *AuthService) Register(ctx context.Context, in domain.Credentials) (domain.User, error) {
	if err := a.validate.Credentials(in); err != nil {
		return domain.User{}, err
	}
	if _, err := a.users.GetUserByUsername(ctx, in.Username); err == nil {
		return domain.User{}, domain.ErrUsernameTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		Username:     in.Username,
		PasswordHash: string(hash),
		CreatedAt:    a.now().UTC(),
	}
	if err := a.users.CreateUser(ctx, &user); err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies the password and returns a signed token.
func (a *AuthService) Login(ctx context.Context, in domain.Credentials) (string, domain.User, error) {
	user, err := a.users.GetUserByUsername(ctx, in.Username)
	if errors.Is(err, domain.ErrUserNotFound) {
		return "", domain.User{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", domain.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return "", domain.User{}, domain.ErrInvalidCredentials
	}
	token, err := a.IssueToken(user.ID)
	if err != nil {
		return "", domain.User{}, err
	}
	return token, user, nil
}

// Me returns the account behind userID.
func (a *AuthService) Me(ctx context.Context, userID int64) (domain.User, error) {
	if userID == 0 {
		return domain.User{}, domain.ErrUnauthenticated
	}
	return a.users.GetUser(ctx, userID)
}

func (a *AuthService) IssueToken(userID int64) (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a bearer token and returns the user id it carries.
func (a *AuthService) ParseToken(raw string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !token.Valid {
		return 0, domain.ErrUnauthenticated
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrUnauthenticated
	}
	return id, nil
}
