package httpx

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-rental-checkout/internal/bag"
	"github.com/ariefcatur/go-rental-checkout/internal/checkout"
	"github.com/ariefcatur/go-rental-checkout/internal/kv"
	"github.com/ariefcatur/go-rental-checkout/internal/promo"
	"github.com/ariefcatur/go-rental-checkout/internal/redisx"
)

const SessionHeader = "X-Bag-Session"

// Session is one shopper. mu serializes every request of the session, so the
// bag, promotion and checkout state see one operation at a time.
type Session struct {
	ID       string
	Bag      *bag.Store
	Promo    *promo.State
	Checkout *checkout.Orchestrator

	mu sync.Mutex
}

type SessionOptions struct {
	Navigator   checkout.Navigator
	Logger      *zap.Logger
	Now         func() time.Time
	CallTimeout time.Duration
	// IdleTTL evicts a session not touched for that long; 0 keeps it until
	// MaxSessions pushes it out.
	IdleTTL time.Duration
	// MaxSessions caps live sessions, least recently used go first.
	// 0 means DefaultMaxSessions.
	MaxSessions int
}

const DefaultMaxSessions = 10000

// Sessions keeps live sessions in process. Bag and promotion survive a
// restart or an eviction through the kv store; the checkout stage does not.
type Sessions struct {
	mu     sync.Mutex
	live   *expirable.LRU[string, *Session]
	store  kv.Store
	orders checkout.OrderStore
	opts   SessionOptions
}

func NewSessions(store kv.Store, orderStore checkout.OrderStore, opts SessionOptions) *Sessions {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	log := opts.Logger
	onEvict := func(id string, _ *Session) {
		log.Debug("session evicted", zap.String("session", id))
	}
	return &Sessions{
		live:   expirable.NewLRU[string, *Session](opts.MaxSessions, onEvict, opts.IdleTTL),
		store:  store,
		orders: orderStore,
		opts:   opts,
	}
}

// Open returns the session named id, rehydrating it on first use. An empty
// or malformed id starts a new session.
func (s *Sessions) Open(ctx context.Context, id string) *Session {
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	if sess, ok := s.touch(id); ok {
		return sess
	}

	// baca Redis di luar lock global
	fresh := s.load(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.live.Get(id); ok {
		s.live.Add(id, sess)
		return sess
	}
	s.live.Add(id, fresh)
	return fresh
}

// touch returns a live session and restarts its idle clock.
func (s *Sessions) touch(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.live.Get(id)
	if ok {
		s.live.Add(id, sess)
	}
	return sess, ok
}

func (s *Sessions) load(ctx context.Context, id string) *Session {
	log := s.opts.Logger.With(zap.String("session", id))
	b := bag.Load(ctx, s.store, redisx.BagKey(id), log)
	return &Session{
		ID:    id,
		Bag:   b,
		Promo: promo.LoadState(ctx, s.store, redisx.PromoKey(id), log),
		Checkout: checkout.New(b, s.orders, checkout.Options{
			Navigator:   s.opts.Navigator,
			Logger:      log,
			Now:         s.opts.Now,
			CallTimeout: s.opts.CallTimeout,
		}),
	}
}

// Len is the number of live sessions.
func (s *Sessions) Len() int { return s.live.Len() }

// with runs fn holding the session lock and echoes the session id header.
func (s *Sessions) with(w http.ResponseWriter, r *http.Request, fn func(*Session)) {
	sess := s.Open(r.Context(), r.Header.Get(SessionHeader))
	w.Header().Set(SessionHeader, sess.ID)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	fn(sess)
}
