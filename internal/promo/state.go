package promo

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-rental-checkout/internal/kv"
	"go.uber.org/zap"
)

// State holds the single active promotion for a shopper and mirrors its code
// into storage. Applying a code replaces whatever was active.
type State struct {
	kv     kv.Store
	key    string
	active *Promotion
	log    *zap.Logger
}

// LoadState restores the active promotion stored under key. A missing,
// unreadable or no longer valid code means no promotion.
func LoadState(ctx context.Context, store kv.Store, key string, log *zap.Logger) *State {
	if log == nil {
		log = zap.NewNop()
	}
	s := &State{kv: store, key: key, log: log}

	code, err := store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			log.Warn("promo load failed", zap.String("key", key), zap.Error(err))
		}
		return s
	}
	if code == "" {
		return s
	}
	p, err := Resolve(code)
	if err != nil {
		log.Warn("dropping stored promo", zap.String("key", key), zap.Error(err))
		return s
	}
	s.active = &p
	return s
}

// Active returns the active promotion or nil.
func (s *State) Active() *Promotion {
	if s.active == nil {
		return nil
	}
	p := *s.active
	return &p
}

// Code is the active code, or "" when none is applied.
func (s *State) Code() string {
	if s.active == nil {
		return ""
	}
	return s.active.Code
}

// Apply resolves code and makes it the active promotion. On error the
// current promotion is kept.
func (s *State) Apply(ctx context.Context, code string) (Promotion, error) {
	p, err := Resolve(code)
	if err != nil {
		return Promotion{}, err
	}
	s.active = &p
	s.persist(ctx)
	return p, nil
}

func (s *State) Clear(ctx context.Context) {
	s.active = nil
	s.persist(ctx)
}

func (s *State) persist(ctx context.Context) {
	if err := s.kv.Set(ctx, s.key, s.Code()); err != nil {
		s.log.Error("promo persist failed", zap.String("key", s.key), zap.Error(err))
	}
}
