package service

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/existflow/irontodo/internal/api"
	"github.com/existflow/irontodo/internal/logger"
	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/schema"
	"github.com/existflow/irontodo/internal/session"
)

const (
	usersPath = "users"
	tokenPath = "token"
)

// ErrNotLoggedIn is returned when an operation needs the signed-in user
var ErrNotLoggedIn = errors.New("not logged in")

// Credentials are the OAuth2 client fields sent with every login
type Credentials struct {
	ClientID     string
	ClientSecret string
	Scope        string
}

// TokenStore persists the login result
type TokenStore interface {
	Store(resp model.TokenResponse) (session.TokenRecord, error)
	Logout() error
	UserKey() string
}

// UserService maps the auth and user endpoints
type UserService struct {
	client *api.Client
	tokens TokenStore
	creds  Credentials
}

// NewUserService creates a user service
func NewUserService(client *api.Client, tokens TokenStore, creds Credentials) *UserService {
	return &UserService{client: client, tokens: tokens, creds: creds}
}

// Login exchanges credentials for a token through the password grant and
// persists it with the user key
func (s *UserService) Login(ctx context.Context, username, password string) (model.TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", username)
	form.Set("password", password)
	form.Set("scope", s.creds.Scope)
	form.Set("client_id", s.creds.ClientID)
	form.Set("client_secret", s.creds.ClientSecret)

	body, err := s.client.Do(ctx, api.Request{
		Method:    http.MethodPost,
		Path:      tokenPath,
		Form:      form,
		Anonymous: true,
	})
	if err != nil {
		return model.TokenResponse{}, err
	}

	var resp model.TokenResponse
	if err := schema.Decode(schema.Token, body, &resp); err != nil {
		return model.TokenResponse{}, err
	}
	if _, err := s.tokens.Store(resp); err != nil {
		return model.TokenResponse{}, err
	}

	logger.Info("Logged in", logger.F("user_key", resp.UserKey))
	return resp, nil
}

// Logout forgets the stored credentials
func (s *UserService) Logout() error {
	return s.tokens.Logout()
}

// Register creates an account
func (s *UserService) Register(ctx context.Context, reg model.Registration) (model.User, error) {
	body, err := s.client.Do(ctx, api.Request{
		Method:    http.MethodPost,
		Path:      usersPath,
		Body:      reg,
		Anonymous: true,
	})
	if err != nil {
		return model.User{}, err
	}
	return decodeUser(body)
}

// Get fetches a user by key
func (s *UserService) Get(ctx context.Context, key string) (model.User, error) {
	body, err := s.client.Get(ctx, itemPath(usersPath, key), nil)
	if err != nil {
		return model.User{}, err
	}
	return decodeUser(body)
}

// Current fetches the signed-in user
func (s *UserService) Current(ctx context.Context) (model.User, error) {
	key := s.tokens.UserKey()
	if key == "" {
		return model.User{}, ErrNotLoggedIn
	}
	return s.Get(ctx, key)
}

// Update replaces the profile of a user
func (s *UserService) Update(ctx context.Context, key string, update model.UserUpdate) (model.User, error) {
	body, err := s.client.Put(ctx, itemPath(usersPath, key), update)
	if err != nil {
		return model.User{}, err
	}
	return decodeUser(body)
}

// UpdatePassword changes the password of a user
func (s *UserService) UpdatePassword(ctx context.Context, key string, change model.PasswordChange) error {
	_, err := s.client.Put(ctx, itemPath(usersPath, key)+"/password", change)
	return err
}

func decodeUser(body []byte) (model.User, error) {
	var u model.User
	if err := schema.Decode(schema.User, body, &u); err != nil {
		return model.User{}, err
	}
	return u, nil
}
