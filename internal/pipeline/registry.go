package pipeline

import (
	"sync/atomic"

	"go.uber.org/zap"

	apperrors "github.com/Brownie44l1/sehatin-api/internal/errors"
)

// Registry hands out the current Bundle. Swapping is atomic: a request sees either the
// old bundle or the new one for its whole run, never a mix.
type Registry struct {
	current atomic.Pointer[Bundle]
	log     *zap.Logger
}

func NewRegistry(b *Bundle, log *zap.Logger) *Registry {
	r := &Registry{log: log}
	r.current.Store(b)
	return r
}

// Acquire returns the current bundle and a release func the caller must invoke when done.
func (r *Registry) Acquire() (*Bundle, func(), error) {
	for {
		b := r.current.Load()
		if b == nil {
			return nil, nil, apperrors.ModelUnavailable(nil, "no model bundle loaded")
		}
		if b.acquire() {
			return b, b.release, nil
		}
		// b was closed between Load and acquire; retry only if a newer bundle is installed.
		if r.current.Load() == b {
			return nil, nil, apperrors.ModelUnavailable(nil, "model bundle is closed")
		}
	}
}

// Swap installs next and closes the previous bundle once its readers drain.
func (r *Registry) Swap(next *Bundle) {
	prev := r.current.Swap(next)
	if prev == nil || prev == next {
		return
	}
	if err := prev.Close(); err != nil {
		r.log.Warn("failed to close previous bundle", zap.Error(err))
	}
}

func (r *Registry) Close() error {
	b := r.current.Swap(nil)
	if b == nil {
		return nil
	}
	return b.Close()
}
