// Package session owns the authenticated-identity and cart state for one
// running storefront process. A single Context is constructed at startup
// and handed to every page controller; only Initialize, Login, Register
// and Logout mutate the credential, and cart mutations go through the
// documented append/replace/clear methods after the backend has
// confirmed the matching call.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"notsteam/internal/api"
	"notsteam/pkg/domain"
)

// Snapshot is the immutable view published to subscribers on every state
// change.
type Snapshot struct {
	Ready bool
	User  *domain.User
	Cart  []domain.Game
}

// LoggedIn reports whether a session is active.
func (s Snapshot) LoggedIn() bool {
	return s.User != nil
}

// Result reports the outcome of a login or registration attempt. Fields
// carries field-keyed validation errors from registration so callers can
// attribute them to specific inputs.
type Result struct {
	OK      bool
	Message string
	Fields  map[string][]string
}

// Context is the single source of truth for "who is logged in" and "what
// is in their cart". State access is serialized by an internal mutex, but
// overlapping Login/Logout/Register network calls are not queued against
// each other; callers are expected not to issue them concurrently.
type Context struct {
	api    *api.Client
	tokens *TokenStore
	log    *slog.Logger

	initOnce sync.Once

	mu    sync.RWMutex
	ready bool
	token string
	user  *domain.User
	cart  []domain.Game

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// New constructs a logged-out context. Call Initialize before rendering
// anything that depends on session state.
func New(client *api.Client, tokens *TokenStore, log *slog.Logger) *Context {
	if log == nil {
		log = slog.Default()
	}
	return &Context{
		api:    client,
		tokens: tokens,
		log:    log,
		subs:   make(map[int]func(Snapshot)),
	}
}

// Initialize resolves a previously persisted credential into a session,
// then populates the cart. Any auth or network failure falls open to the
// logged-out state: the stored credential is discarded and no error is
// returned. Repeated calls are no-ops. Ready is true once Initialize
// returns.
func (c *Context) Initialize(ctx context.Context) {
	c.initOnce.Do(func() {
		defer func() {
			c.mu.Lock()
			c.ready = true
			c.mu.Unlock()
			c.notify()
		}()

		token, ok := c.tokens.Load()
		if !ok {
			return
		}
		user, _, err := c.api.Me(ctx, token)
		if err != nil {
			c.log.Warn("stored credential rejected, logging out", "err", err)
			if clearErr := c.tokens.Clear(); clearErr != nil {
				c.log.Error("clear stored credential", "err", clearErr)
			}
			return
		}
		c.mu.Lock()
		c.token = token
		c.user = &user
		c.mu.Unlock()
		c.populateCart(ctx, token)
	})
}

// Login exchanges credentials for a new session, overwriting any prior
// one. On failure the previous state is left untouched.
func (c *Context) Login(ctx context.Context, username, password string) Result {
	user, token, err := c.api.Login(ctx, username, password)
	if err != nil {
		return failureResult(err, "Login failed")
	}
	c.establish(ctx, token, user)
	return Result{OK: true}
}

// Register creates an account and establishes its session. Failed
// registration returns field-keyed errors when the backend provides them.
func (c *Context) Register(ctx context.Context, input api.RegisterInput) Result {
	user, token, err := c.api.Register(ctx, input)
	if err != nil {
		return failureResult(err, "Registration failed")
	}
	c.establish(ctx, token, user)
	return Result{OK: true}
}

// Logout invalidates the session server-side on a best-effort basis and
// unconditionally clears all local session state. After Logout returns
// no credential remains attached or persisted, whatever the network did.
func (c *Context) Logout(ctx context.Context) {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()

	if token != "" {
		if err := c.api.Logout(ctx, token); err != nil {
			c.log.Warn("server-side logout failed", "err", err)
		}
	}
	if err := c.tokens.Clear(); err != nil {
		c.log.Error("clear stored credential", "err", err)
	}
	c.mu.Lock()
	c.token = ""
	c.user = nil
	c.cart = nil
	c.mu.Unlock()
	c.notify()
}

func (c *Context) establish(ctx context.Context, token string, user domain.User) {
	if err := c.tokens.Save(token); err != nil {
		c.log.Error("persist credential", "err", err)
	}
	c.mu.Lock()
	c.token = token
	c.user = &user
	c.cart = nil
	c.mu.Unlock()
	c.populateCart(ctx, token)
	c.notify()
}

// populateCart runs strictly after session establishment. A failed fetch
// leaves the cart empty and is not fatal.
func (c *Context) populateCart(ctx context.Context, token string) {
	games, err := c.api.Cart(ctx, token)
	if err != nil {
		c.log.Warn("cart population failed", "err", err)
		return
	}
	c.mu.Lock()
	c.cart = games
	c.mu.Unlock()
}

// Ready reports whether Initialize has completed.
func (c *Context) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// User returns the authenticated identity, or nil when logged out.
func (c *Context) User() *domain.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// Token returns the bearer credential for authenticated API calls, empty
// when logged out.
func (c *Context) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Cart returns a snapshot copy of the cart.
func (c *Context) Cart() []domain.Game {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Game, len(c.cart))
	copy(out, c.cart)
	return out
}

// CartIDs returns the ids of the carted games in order.
func (c *Context) CartIDs() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]int, len(c.cart))
	for i, g := range c.cart {
		ids[i] = g.ID
	}
	return ids
}

// AppendCart records a game locally after the backend confirmed adding
// it. Callers must not append before the add-to-cart call succeeds.
func (c *Context) AppendCart(game domain.Game) {
	c.mu.Lock()
	c.cart = append(c.cart, game)
	c.mu.Unlock()
	c.notify()
}

// ReplaceCart swaps in a freshly fetched cart wholesale.
func (c *Context) ReplaceCart(games []domain.Game) {
	c.mu.Lock()
	c.cart = games
	c.mu.Unlock()
	c.notify()
}

// ClearCart empties the local cart after the backend confirmed a clear
// or a completed checkout.
func (c *Context) ClearCart() {
	c.mu.Lock()
	c.cart = nil
	c.mu.Unlock()
	c.notify()
}

// Subscribe registers fn for state-change notifications and returns its
// unsubscribe func. Notifications are delivered synchronously on the
// goroutine that performed the change, outside the state lock.
func (c *Context) Subscribe(fn func(Snapshot)) func() {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()
	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Context) snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := Snapshot{Ready: c.ready}
	if c.user != nil {
		u := *c.user
		snap.User = &u
	}
	snap.Cart = make([]domain.Game, len(c.cart))
	copy(snap.Cart, c.cart)
	return snap
}

func (c *Context) notify() {
	snap := c.snapshot()
	c.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func failureResult(err error, fallback string) Result {
	res := Result{Message: fallback}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			res.Message = apiErr.Message
		}
		res.Fields = apiErr.Fields
	}
	return res
}
