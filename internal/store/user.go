package store

import (
	"context"
	"sync"

	"github.com/existflow/irontodo/internal/logger"
	"github.com/existflow/irontodo/internal/model"
)

// UserAPI is the user service surface the store uses
type UserAPI interface {
	Login(ctx context.Context, username, password string) (model.TokenResponse, error)
	Logout() error
	Register(ctx context.Context, reg model.Registration) (model.User, error)
	Current(ctx context.Context) (model.User, error)
	Update(ctx context.Context, key string, update model.UserUpdate) (model.User, error)
	UpdatePassword(ctx context.Context, key string, change model.PasswordChange) error
}

// UserState is a snapshot of the signed-in user
type UserState struct {
	User     *model.User
	LoggedIn bool
	Loading  bool
	Err      string
}

// UserStore tracks the account of the session
type UserStore struct {
	notifier

	api UserAPI
	log *logger.Logger

	mu    sync.Mutex
	state UserState
}

// NewUserStore creates a user store. loggedIn reflects a token restored
// from storage.
func NewUserStore(api UserAPI, loggedIn bool) *UserStore {
	return &UserStore{
		api:   api,
		log:   logger.WithFields(logger.F("store", "user")),
		state: UserState{LoggedIn: loggedIn},
	}
}

// Snapshot returns a copy of the current state
func (s *UserStore) Snapshot() UserState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

func (s *UserStore) update(fn func(*UserState)) {
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()
	s.notify()
}

func (s *UserStore) begin() {
	s.update(func(st *UserState) {
		st.Loading = true
		st.Err = ""
	})
}

func (s *UserStore) fail(err error) error {
	s.update(func(st *UserState) {
		st.Loading = false
		st.Err = err.Error()
	})
	return err
}

func (s *UserStore) setUser(u model.User) {
	s.update(func(st *UserState) {
		st.Loading = false
		st.LoggedIn = true
		st.User = &u
	})
}

// Login authenticates and loads the profile
func (s *UserStore) Login(ctx context.Context, username, password string) (model.User, error) {
	s.begin()
	if _, err := s.api.Login(ctx, username, password); err != nil {
		return model.User{}, s.fail(err)
	}
	u, err := s.api.Current(ctx)
	if err != nil {
		return model.User{}, s.fail(err)
	}
	s.setUser(u)
	s.log.Info("Signed in", logger.F("user", u.Username))
	return u, nil
}

// Logout forgets the session
func (s *UserStore) Logout() error {
	if err := s.api.Logout(); err != nil {
		return s.fail(err)
	}
	s.Reset()
	return nil
}

// Reset drops the profile without touching storage, used after the
// session was torn down elsewhere
func (s *UserStore) Reset() {
	s.update(func(st *UserState) {
		*st = UserState{}
	})
}

// Register validates and creates an account. It does not sign in.
func (s *UserStore) Register(ctx context.Context, reg model.Registration) (model.User, error) {
	if err := reg.Validate(); err != nil {
		return model.User{}, err
	}
	s.begin()
	u, err := s.api.Register(ctx, reg)
	if err != nil {
		return model.User{}, s.fail(err)
	}
	s.update(func(st *UserState) { st.Loading = false })
	return u, nil
}

// Load fetches the profile of the signed-in user
func (s *UserStore) Load(ctx context.Context) (model.User, error) {
	s.begin()
	u, err := s.api.Current(ctx)
	if err != nil {
		return model.User{}, s.fail(err)
	}
	s.setUser(u)
	return u, nil
}

func (s *UserStore) key() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.User == nil {
		return "", false
	}
	return s.state.User.Key, true
}

// Update saves the profile, loading it first when needed
func (s *UserStore) Update(ctx context.Context, update model.UserUpdate) (model.User, error) {
	key, ok := s.key()
	if !ok {
		u, err := s.Load(ctx)
		if err != nil {
			return model.User{}, err
		}
		key = u.Key
	}
	s.begin()
	u, err := s.api.Update(ctx, key, update)
	if err != nil {
		return model.User{}, s.fail(err)
	}
	s.setUser(u)
	return u, nil
}

// ChangePassword validates and changes the password
func (s *UserStore) ChangePassword(ctx context.Context, change model.PasswordChange) error {
	if err := change.Validate(); err != nil {
		return err
	}
	key, ok := s.key()
	if !ok {
		u, err := s.Load(ctx)
		if err != nil {
			return err
		}
		key = u.Key
	}
	s.begin()
	if err := s.api.UpdatePassword(ctx, key, change); err != nil {
		return s.fail(err)
	}
	s.update(func(st *UserState) { st.Loading = false })
	return nil
}
