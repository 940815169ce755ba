package job

import (
	"context"

	"mailgenie/internal/model"
)

// LabelLocker holds a named cross-process lock while fn runs.
type LabelLocker interface {
	WithLock(ctx context.Context, key string, fn func() error) error
}

type lockingActor struct {
	Actor
	lock LabelLocker
}

// WithLabelLock wraps an Actor so label get-or-create calls hold a lock,
// keeping concurrent passes from creating the same label twice.
func WithLabelLock(actor Actor, lock LabelLocker) Actor {
	return &lockingActor{Actor: actor, lock: lock}
}

func (a *lockingActor) GetOrCreateLabel(ctx context.Context, creds model.Credentials, name string) (string, error) {
	var id string
	err := a.lock.WithLock(ctx, name, func() error {
		var innerErr error
		id, innerErr = a.Actor.GetOrCreateLabel(ctx, creds, name)
		return innerErr
	})
	return id, err
}
