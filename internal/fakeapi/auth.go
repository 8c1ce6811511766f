package fakeapi

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/existflow/irontodo/internal/model"
)

var errConflict = errors.New("conflict")

type user struct {
	model.User
	passwordHash []byte
}

type token struct {
	value     string
	userKey   string
	expiresAt time.Time
}

// authMiddleware checks the bearer token
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get("Authorization")
		if auth == "" {
			return c.JSON(http.StatusUnauthorized, detail("Not authenticated"))
		}

		scheme, value, ok := strings.Cut(auth, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") {
			return c.JSON(http.StatusUnauthorized, detail("Invalid authorization format"))
		}

		s.mu.Lock()
		tok, found := s.tokens[value]
		s.mu.Unlock()

		if !found {
			return c.JSON(http.StatusUnauthorized, detail("Could not validate credentials"))
		}
		if time.Now().After(tok.expiresAt) {
			return c.JSON(http.StatusUnauthorized, detail("Token expired"))
		}

		c.Set("user_key", tok.userKey)
		return next(c)
	}
}

func currentUser(c echo.Context) string {
	key, _ := c.Get("user_key").(string)
	return key
}

// handleToken implements the OAuth2 password grant
func (s *Server) handleToken(c echo.Context) error {
	if grant := c.FormValue("grant_type"); grant != "" && grant != "password" {
		return c.JSON(http.StatusBadRequest, detail("unsupported grant_type"))
	}
	username := c.FormValue("username")
	password := c.FormValue("password")

	s.mu.Lock()
	var found *user
	for _, u := range s.users {
		if u.Username == username {
			found = u
			break
		}
	}
	s.mu.Unlock()

	if found == nil || bcrypt.CompareHashAndPassword(found.passwordHash, []byte(password)) != nil {
		return c.JSON(http.StatusUnauthorized, detail("Incorrect username or password"))
	}
	if found.Disabled {
		return c.JSON(http.StatusBadRequest, detail("Inactive user"))
	}

	resp, err := s.IssueToken(found.Key)
	if err != nil {
		c.Logger().Error("token error:", err)
		return c.JSON(http.StatusInternalServerError, detail("internal error"))
	}
	return c.JSON(http.StatusOK, resp)
}

// IssueToken creates a token for userKey
func (s *Server) IssueToken(userKey string) (model.TokenResponse, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return model.TokenResponse{}, err
	}
	value := hex.EncodeToString(buf)
	expiresAt := time.Now().Add(s.tokenTTL).UTC()

	s.mu.Lock()
	s.tokens[value] = &token{value: value, userKey: userKey, expiresAt: expiresAt}
	s.mu.Unlock()

	return model.TokenResponse{
		AccessToken: value,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt.Format(time.RFC3339),
		UserKey:     userKey,
	}, nil
}

// handleRegister creates an account seeded with the default catalogs
func (s *Server) handleRegister(c echo.Context) error {
	var req model.Registration
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, detail("invalid request"))
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, detail(err.Error()))
	}

	u, err := s.createUser(req)
	if err != nil {
		if errors.Is(err, errConflict) {
			return c.JSON(http.StatusConflict, detail("username or email already exists"))
		}
		c.Logger().Error("bcrypt error:", err)
		return c.JSON(http.StatusInternalServerError, detail("internal error"))
	}
	return c.JSON(http.StatusCreated, u)
}

// SeedUser registers username directly, bypassing HTTP
func (s *Server) SeedUser(username, password string) (model.User, error) {
	return s.createUser(model.Registration{
		Username: username,
		Email:    username + "@example.test",
		Password: password,
	})
}

func (s *Server) createUser(req model.Registration) (model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		return model.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, req.Username) || strings.EqualFold(u.Email, req.Email) {
			return model.User{}, errConflict
		}
	}

	u := &user{
		User: model.User{
			Key:      uuid.NewString(),
			Username: req.Username,
			Email:    req.Email,
			FullName: req.FullName,
		},
		passwordHash: hash,
	}
	s.users[u.Key] = u
	s.priorities[u.Key] = defaultPriorities(u.Key)
	s.statuses[u.Key] = defaultStatuses(u.Key)
	return u.User, nil
}

// ownUser resolves :key, hiding other accounts. Callers hold s.mu.
func (s *Server) ownUser(c echo.Context) *user {
	key := c.Param("key")
	if key != currentUser(c) {
		return nil
	}
	return s.users[key]
}

func (s *Server) handleGetUser(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.ownUser(c)
	if u == nil {
		return c.JSON(http.StatusNotFound, detail("User not found"))
	}
	return c.JSON(http.StatusOK, u.User)
}

func (s *Server) handleUpdateUser(c echo.Context) error {
	var req model.UserUpdate
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, detail("invalid request"))
	}
	if strings.TrimSpace(req.Username) == "" || !strings.Contains(req.Email, "@") {
		return c.JSON(http.StatusBadRequest, detail("username and a valid email are required"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.ownUser(c)
	if u == nil {
		return c.JSON(http.StatusNotFound, detail("User not found"))
	}
	u.Username = req.Username
	u.Email = req.Email
	u.FullName = req.FullName
	return c.JSON(http.StatusOK, u.User)
}

func (s *Server) handleUpdatePassword(c echo.Context) error {
	var req model.PasswordChange
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, detail("invalid request"))
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, detail(err.Error()))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.MinCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, detail("internal error"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.ownUser(c)
	if u == nil {
		return c.JSON(http.StatusNotFound, detail("User not found"))
	}
	if bcrypt.CompareHashAndPassword(u.passwordHash, []byte(req.CurrentPassword)) != nil {
		return c.JSON(http.StatusBadRequest, detail("Incorrect password"))
	}
	u.passwordHash = hash
	return c.JSON(http.StatusOK, map[string]string{"message": "Password updated"})
}
