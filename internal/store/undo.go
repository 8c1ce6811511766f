package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/existflow/irontodo/internal/model"
)

// Undo errors
var (
	ErrUndoExpired = errors.New("undo window has expired")
	ErrUndoUsed    = errors.New("already restored")
)

// Undo restores a deleted todo by creating it again. The restored todo gets
// a new key; references to the old key stay broken.
type Undo struct {
	store    *TodoStore
	deleted  model.Todo
	deadline time.Time

	mu   sync.Mutex
	used bool
}

// Deleted returns the todo as it was before deletion
func (u *Undo) Deleted() model.Todo {
	return u.deleted
}

// Remaining returns how long Restore stays available
func (u *Undo) Remaining() time.Duration {
	left := u.deadline.Sub(u.store.now())
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether the window has closed
func (u *Undo) Expired() bool {
	return !u.store.now().Before(u.deadline)
}

// Restore re-creates the deleted todo while the window is open
func (u *Undo) Restore(ctx context.Context) (model.Todo, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.used {
		return model.Todo{}, ErrUndoUsed
	}
	if u.Expired() {
		return model.Todo{}, ErrUndoExpired
	}

	draft := u.deleted.Draft()
	draft.UserKey = u.deleted.UserKey

	var restored model.Todo
	err := u.store.Mutate(ctx, "restore", func(ctx context.Context) error {
		var err error
		restored, err = u.store.api.Create(ctx, draft)
		if err == nil {
			u.used = true
		}
		return err
	})
	return restored, err
}
