// Package app wires configuration, storage, session, API client, services
// and stores into one container shared by the CLI and the TUI.
package app

import (
	"fmt"
	"sync"

	"github.com/existflow/irontodo/internal/api"
	"github.com/existflow/irontodo/internal/config"
	"github.com/existflow/irontodo/internal/logger"
	"github.com/existflow/irontodo/internal/service"
	"github.com/existflow/irontodo/internal/session"
	"github.com/existflow/irontodo/internal/storage"
	"github.com/existflow/irontodo/internal/store"
)

// App holds every long-lived component
type App struct {
	Config   *config.Config
	Storage  *storage.Store
	Session  *session.Manager
	Client   *api.Client
	Services *service.Services

	Todos      *store.TodoStore
	Priorities *store.PriorityStore
	Statuses   *store.StatusStore
	User       *store.UserStore

	mu      sync.Mutex
	expired []func()
	ownsKV  bool
}

// New opens the state database at cfg.StoragePath and builds the app
func New(cfg *config.Config) (*App, error) {
	kv, err := storage.Open(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	a, err := NewWithStorage(cfg, kv)
	if err != nil {
		kv.Close()
		return nil, err
	}
	a.ownsKV = true
	return a, nil
}

// NewWithStorage builds the app on an already opened state database
func NewWithStorage(cfg *config.Config, kv *storage.Store) (*App, error) {
	if cfg.StorageKey != "" {
		if err := kv.Unlock(cfg.StorageKey); err != nil {
			return nil, fmt.Errorf("failed to unlock storage: %w", err)
		}
	}

	sess := session.New(kv)
	client, err := api.New(api.Options{
		BaseURL: cfg.APIURL,
		Timeout: cfg.APITimeout,
		Auth:    sess,
	})
	if err != nil {
		return nil, err
	}

	services := service.New(client, sess, service.Credentials{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scope:        cfg.Scope,
	})

	a := &App{
		Config:   cfg,
		Storage:  kv,
		Session:  sess,
		Client:   client,
		Services: services,
		Todos: store.NewTodoStore(services.Todos, store.TodoOptions{
			Size:     cfg.PageSizes.Todos,
			Prefetch: cfg.Prefetch,
			UserKey:  sess.UserKey,
		}),
		Priorities: store.NewPriorityStore(services.Priorities, cfg.PageSizes.Priorities, cfg.Prefetch),
		Statuses:   store.NewStatusStore(services.Statuses, cfg.PageSizes.Statuses, cfg.Prefetch),
		User:       store.NewUserStore(services.Users, sess.Authenticated()),
	}
	sess.OnUnauthorized(a.handleExpired)

	logger.Info("App ready",
		logger.F("api_url", cfg.APIURL),
		logger.F("authenticated", sess.Authenticated()),
		logger.F("sealed", kv.Sealing()))
	return a, nil
}

// OnSessionExpired registers fn to run after the server rejected the token
func (a *App) OnSessionExpired(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.expired = append(a.expired, fn)
}

// handleExpired drops every user-scoped list and tells the views
func (a *App) handleExpired() {
	logger.Warn("Session expired, clearing stores")
	a.ResetStores()

	a.mu.Lock()
	fns := append([]func(){}, a.expired...)
	a.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// ResetStores forgets every loaded page and the current user
func (a *App) ResetStores() {
	a.Todos.Reset()
	a.Priorities.Reset()
	a.Statuses.Reset()
	a.User.Reset()
}

// Logout clears the session and every store
func (a *App) Logout() error {
	if err := a.User.Logout(); err != nil {
		return err
	}
	a.ResetStores()
	return nil
}

// Close waits for background prefetches and releases storage opened by New
func (a *App) Close() error {
	a.Todos.Wait()
	a.Priorities.Wait()
	a.Statuses.Wait()
	if a.ownsKV {
		return a.Storage.Close()
	}
	return nil
}
