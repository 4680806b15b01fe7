package shopper

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"carecart/internal/domain/cart"
	"carecart/internal/domain/checkout"
	"carecart/internal/domain/clientstate"
	"carecart/internal/domain/storage"
	"carecart/internal/domain/wishlist"

	"go.uber.org/zap"
)

const maxPushTokens = 10

var ErrInvalidPushToken = errors.New("invalid expo push token")

// Shopper is the in-memory state of one authenticated shopper.
type Shopper struct {
	ID       string
	Cart     *cart.Store
	Wishlist *wishlist.Store

	mu       sync.Mutex
	email    string
	session  *checkout.Session
	lastSeen time.Time
}

func (s *Shopper) Email() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.email
}

// Checkout returns the live checkout session, if any.
func (s *Shopper) Checkout() (*checkout.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session, s.session != nil
}

// BeginCheckout resumes an open session or starts a new one. A submitted
// session is replaced, which fails with checkout.ErrEmptyCart until the
// shopper adds something again.
func (s *Shopper) BeginCheckout(deps checkout.Collaborators, opts ...checkout.Option) (*checkout.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil && s.session.Phase() != checkout.PhaseSubmitted {
		return s.session, nil
	}

	sess, err := checkout.Begin(s.Cart, deps, opts...)
	if err != nil {
		s.session = nil
		return nil, err
	}
	s.session = sess
	return sess, nil
}

// AbandonCheckout drops the session unless a submission is in flight.
func (s *Shopper) AbandonCheckout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil && s.session.Phase() == checkout.PhaseSubmitting {
		return checkout.ErrSubmissionInFlight
	}
	s.session = nil
	return nil
}

func (s *Shopper) touch(now time.Time, email string) {
	s.mu.Lock()
	s.lastSeen = now
	if email != "" {
		s.email = email
	}
	s.mu.Unlock()
}

func (s *Shopper) idleSince(now time.Time) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	busy := s.session != nil && s.session.Phase() == checkout.PhaseSubmitting
	return now.Sub(s.lastSeen), busy
}

type entry struct {
	ready   chan struct{}
	shopper *Shopper
	err     error
}

// Registry loads shoppers on first use and keeps them in memory until they
// go idle.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	store   clientstate.Store
	tx      TxRunner
	catalog cart.Catalog
	images  cart.ImageResolver
	logger  *zap.SugaredLogger
	idleTTL time.Duration
	now     func() time.Time
}

// TxRunner runs fn inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *storage.Tx) error) error
}

type Option func(*Registry)

// WithCatalog enables reconciliation of restored carts against the catalog.
func WithCatalog(c cart.Catalog) Option {
	return func(r *Registry) { r.catalog = c }
}

func WithImageResolver(i cart.ImageResolver) Option {
	return func(r *Registry) { r.images = i }
}

func WithTx(tx TxRunner) Option {
	return func(r *Registry) { r.tx = tx }
}

func WithIdleTTL(d time.Duration) Option {
	return func(r *Registry) { r.idleTTL = d }
}

func NewRegistry(store clientstate.Store, logger *zap.SugaredLogger, opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]*entry),
		store:   store,
		logger:  logger,
		idleTTL: 30 * time.Minute,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the shopper, restoring their cart and wishlist on first use.
// Concurrent first calls for the same id share one load.
func (r *Registry) Get(ctx context.Context, id, email string) (*Shopper, error) {
	if id == "" {
		return nil, errors.New("shopper id is required")
	}

	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		e = &entry{ready: make(chan struct{})}
		r.entries[id] = e
	}
	r.mu.Unlock()

	if !ok {
		e.shopper, e.err = r.load(ctx, id)
		if e.err != nil {
			r.mu.Lock()
			delete(r.entries, id)
			r.mu.Unlock()
		}
		close(e.ready)
	}

	select {
	case <-e.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if e.err != nil {
		return nil, e.err
	}

	e.shopper.touch(r.now(), email)
	return e.shopper, nil
}

func (r *Registry) load(ctx context.Context, id string) (*Shopper, error) {
	cartCh := clientstate.NewChannel[cart.Cart](r.store, id, clientstate.KeyCart, r.logger)
	snap, _, err := cartCh.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore cart: %w", err)
	}

	var cartOpts []cart.Option
	if r.images != nil {
		cartOpts = append(cartOpts, cart.WithImageResolver(r.images))
	}
	c := cart.Restore(cartCh, snap, cartOpts...)

	if r.catalog != nil && !c.IsEmpty() {
		_, report, err := c.Reconcile(ctx, r.catalog)
		switch {
		case err != nil:
			r.logger.Warnw("cart reconcile failed, keeping snapshot", "shopper_id", id, "error", err)
		case report.Changed():
			r.logger.Infow("cart reconciled", "shopper_id", id,
				"removed", report.Removed, "repriced", report.Repriced, "clamped", report.Clamped)
		}
	}

	wishCh := clientstate.NewChannel[wishlist.List](r.store, id, clientstate.KeyWishlist, r.logger)
	list, _, err := wishCh.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore wishlist: %w", err)
	}

	return &Shopper{
		ID:       id,
		Cart:     c,
		Wishlist: wishlist.Restore(wishCh, list),
	}, nil
}

// Sweep evicts shoppers idle for longer than the idle TTL. Shoppers with a
// submission in flight are kept.
func (r *Registry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, e := range r.entries {
		select {
		case <-e.ready:
		default:
			continue
		}
		if e.shopper == nil {
			continue
		}
		idle, busy := e.shopper.idleSince(now)
		if busy || idle < r.idleTTL {
			continue
		}
		delete(r.entries, id)
		evicted++
	}
	return evicted
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Forget erases everything stored for the shopper and drops them from
// memory.
func (r *Registry) Forget(ctx context.Context, id string) error {
	keys := []string{clientstate.KeyCart, clientstate.KeyWishlist, clientstate.KeyPushTokens}

	var err error
	if r.tx != nil {
		err = r.tx.WithTx(ctx, func(tx *storage.Tx) error {
			return deleteKeys(ctx, tx.ClientState, id, keys)
		})
	} else {
		err = deleteKeys(ctx, r.store, id, keys)
	}
	if err != nil {
		return fmt.Errorf("forget shopper: %w", err)
	}

	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
	return nil
}

func deleteKeys(ctx context.Context, s clientstate.Store, id string, keys []string) error {
	for _, k := range keys {
		if err := s.Delete(ctx, id, k); err != nil {
			return err
		}
	}
	return nil
}

// PushTokens implements notifications.TokenSource.
func (r *Registry) PushTokens(ctx context.Context, shopperID string) ([]string, error) {
	tokens, _, err := r.pushTokens(shopperID).Load(ctx)
	return tokens, err
}

// RegisterPushToken stores an Expo push token for the shopper. The newest
// tokens are kept when the per-shopper limit is exceeded.
func (r *Registry) RegisterPushToken(ctx context.Context, shopperID, token string) error {
	token = strings.TrimSpace(token)
	if !ValidPushToken(token) {
		return ErrInvalidPushToken
	}

	ch := r.pushTokens(shopperID)
	tokens, _, err := ch.Load(ctx)
	if err != nil {
		return err
	}
	if slices.Contains(tokens, token) {
		return nil
	}

	tokens = append(tokens, token)
	if len(tokens) > maxPushTokens {
		tokens = tokens[len(tokens)-maxPushTokens:]
	}
	return ch.Persist(ctx, tokens)
}

func (r *Registry) pushTokens(shopperID string) *clientstate.Channel[[]string] {
	return clientstate.NewChannel[[]string](r.store, shopperID, clientstate.KeyPushTokens, r.logger)
}

// ValidPushToken reports whether token looks like an Expo push token.
func ValidPushToken(token string) bool {
	for _, prefix := range []string{"ExponentPushToken[", "ExpoPushToken["} {
		if strings.HasPrefix(token, prefix) && strings.HasSuffix(token, "]") && len(token) > len(prefix)+1 {
			return true
		}
	}
	return false
}
