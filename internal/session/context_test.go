package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"notsteam/internal/api"
	"notsteam/pkg/domain"
)

// fakeBackend is a minimal store backend: one valid token, one user, a
// fixed cart. Counters expose which endpoints were hit.
type fakeBackend struct {
	validToken string
	cart       []domain.Game

	meCalls     atomic.Int32
	cartCalls   atomic.Int32
	logoutCalls atomic.Int32
	failLogout  bool
	failCart    bool
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me/", func(w http.ResponseWriter, r *http.Request) {
		f.meCalls.Add(1)
		if r.Header.Get("Authorization") != "Token "+f.validToken {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid token."})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user":    domain.User{ID: 1, Username: "alice"},
			"profile": domain.Profile{ID: 1, Level: 3},
		})
	})
	mux.HandleFunc("/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload["username"] != "alice" || payload["password"] != "correct" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Invalid credentials"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": f.validToken,
			"user":  domain.User{ID: 1, Username: "alice"},
		})
	})
	mux.HandleFunc("/auth/register/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"username": []string{"A user with that username already exists."},
		})
	})
	mux.HandleFunc("/auth/logout/", func(w http.ResponseWriter, r *http.Request) {
		f.logoutCalls.Add(1)
		if f.failLogout {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Logged out successfully"})
	})
	mux.HandleFunc("/cart/", func(w http.ResponseWriter, r *http.Request) {
		f.cartCalls.Add(1)
		if f.failCart {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if r.Header.Get("Authorization") != "Token "+f.validToken {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid token."})
			return
		}
		_ = json.NewEncoder(w).Encode(f.cart)
	})
	return mux
}

func newTestContext(t *testing.T, backend *fakeBackend) (*Context, *TokenStore) {
	t.Helper()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)
	tokens, err := NewTokenStore(t.TempDir())
	if err != nil {
		t.Fatalf("new token store: %v", err)
	}
	return New(api.NewClient(srv.URL), tokens, nil), tokens
}

func TestInitializeWithoutStoredCredential(t *testing.T) {
	backend := &fakeBackend{validToken: "abc"}
	sess, _ := newTestContext(t, backend)

	sess.Initialize(context.Background())

	if !sess.Ready() {
		t.Fatal("expected ready")
	}
	if sess.User() != nil || sess.Token() != "" {
		t.Fatal("expected logged-out session")
	}
	if got := backend.meCalls.Load(); got != 0 {
		t.Fatalf("me should not be called with no stored credential, got %d", got)
	}
}

func TestInitializeResolvesStoredCredentialAndPopulatesCart(t *testing.T) {
	backend := &fakeBackend{validToken: "abc", cart: []domain.Game{{ID: 7, Title: "Doom"}}}
	sess, tokens := newTestContext(t, backend)
	if err := tokens.Save("abc"); err != nil {
		t.Fatalf("save token: %v", err)
	}

	sess.Initialize(context.Background())

	if !sess.Ready() {
		t.Fatal("expected ready")
	}
	user := sess.User()
	if user == nil || user.Username != "alice" {
		t.Fatalf("user = %+v", user)
	}
	if got := len(sess.Cart()); got != 1 {
		t.Fatalf("cart length = %d, want 1", got)
	}
	if got := backend.cartCalls.Load(); got != 1 {
		t.Fatalf("cart calls = %d, want 1", got)
	}
}

func TestInitializeDiscardsRejectedCredential(t *testing.T) {
	backend := &fakeBackend{validToken: "abc"}
	sess, tokens := newTestContext(t, backend)
	if err := tokens.Save("stale"); err != nil {
		t.Fatalf("save token: %v", err)
	}

	sess.Initialize(context.Background())

	if !sess.Ready() {
		t.Fatal("expected ready despite rejection")
	}
	if sess.User() != nil || sess.Token() != "" {
		t.Fatal("expected logged-out session")
	}
	if _, ok := tokens.Load(); ok {
		t.Fatal("stale credential must be deleted")
	}
	if got := backend.cartCalls.Load(); got != 0 {
		t.Fatalf("cart must not be fetched without a session, got %d calls", got)
	}
}

func TestInitializeCartFailureDoesNotBlockReadiness(t *testing.T) {
	backend := &fakeBackend{validToken: "abc", failCart: true}
	sess, tokens := newTestContext(t, backend)
	if err := tokens.Save("abc"); err != nil {
		t.Fatalf("save token: %v", err)
	}

	sess.Initialize(context.Background())

	if !sess.Ready() {
		t.Fatal("expected ready")
	}
	if sess.User() == nil {
		t.Fatal("expected session despite cart failure")
	}
	if len(sess.Cart()) != 0 {
		t.Fatal("cart should be empty after failed population")
	}
}

func TestInitializeRunsOnce(t *testing.T) {
	backend := &fakeBackend{validToken: "abc"}
	sess, tokens := newTestContext(t, backend)
	if err := tokens.Save("abc"); err != nil {
		t.Fatalf("save token: %v", err)
	}

	sess.Initialize(context.Background())
	sess.Initialize(context.Background())

	if got := backend.meCalls.Load(); got != 1 {
		t.Fatalf("me calls = %d, want 1", got)
	}
}

func TestLoginEstablishesSessionAndCart(t *testing.T) {
	backend := &fakeBackend{validToken: "abc", cart: []domain.Game{{ID: 7, Title: "Doom"}}}
	sess, tokens := newTestContext(t, backend)

	res := sess.Login(context.Background(), "alice", "correct")

	if !res.OK {
		t.Fatalf("login failed: %+v", res)
	}
	user := sess.User()
	if user == nil || user.Username != "alice" {
		t.Fatalf("user = %+v", user)
	}
	if sess.Token() != "abc" {
		t.Fatalf("token = %q", sess.Token())
	}
	if stored, ok := tokens.Load(); !ok || stored != "abc" {
		t.Fatalf("persisted token = %q, %v", stored, ok)
	}
	if got := len(sess.Cart()); got != 1 {
		t.Fatalf("cart length = %d, want 1", got)
	}
}

func TestLoginFailureLeavesStateUntouched(t *testing.T) {
	backend := &fakeBackend{validToken: "abc"}
	sess, tokens := newTestContext(t, backend)

	res := sess.Login(context.Background(), "alice", "wrong")

	if res.OK {
		t.Fatal("expected failure")
	}
	if res.Message != "Invalid credentials" {
		t.Fatalf("message = %q", res.Message)
	}
	if sess.User() != nil || sess.Token() != "" {
		t.Fatal("session must stay logged out")
	}
	if _, ok := tokens.Load(); ok {
		t.Fatal("no credential may be persisted on failure")
	}
}

func TestRegisterFailureCarriesFieldErrors(t *testing.T) {
	backend := &fakeBackend{validToken: "abc"}
	sess, _ := newTestContext(t, backend)

	res := sess.Register(context.Background(), api.RegisterInput{Username: "alice"})

	if res.OK {
		t.Fatal("expected failure")
	}
	if len(res.Fields["username"]) != 1 {
		t.Fatalf("fields = %v", res.Fields)
	}
}

func TestLogoutClearsEverythingEvenWhenServerFails(t *testing.T) {
	backend := &fakeBackend{validToken: "abc", cart: []domain.Game{{ID: 7}}, failLogout: true}
	sess, tokens := newTestContext(t, backend)

	if res := sess.Login(context.Background(), "alice", "correct"); !res.OK {
		t.Fatalf("login failed: %+v", res)
	}
	sess.Logout(context.Background())

	if got := backend.logoutCalls.Load(); got != 1 {
		t.Fatalf("logout calls = %d, want 1", got)
	}
	if sess.User() != nil || sess.Token() != "" {
		t.Fatal("session must be cleared")
	}
	if len(sess.Cart()) != 0 {
		t.Fatal("cart must be cleared")
	}
	if _, ok := tokens.Load(); ok {
		t.Fatal("persisted credential must be deleted")
	}
}

func TestCartMutations(t *testing.T) {
	backend := &fakeBackend{validToken: "abc"}
	sess, _ := newTestContext(t, backend)

	if res := sess.Login(context.Background(), "alice", "correct"); !res.OK {
		t.Fatalf("login failed: %+v", res)
	}
	sess.AppendCart(domain.Game{ID: 3, Title: "Quake"})
	sess.AppendCart(domain.Game{ID: 9, Title: "Hexen"})
	if got := sess.CartIDs(); len(got) != 2 || got[0] != 3 || got[1] != 9 {
		t.Fatalf("cart ids = %v", got)
	}
	sess.ClearCart()
	if len(sess.Cart()) != 0 {
		t.Fatal("cart must be empty after clear")
	}
}

func TestSubscribersSeeStateChanges(t *testing.T) {
	backend := &fakeBackend{validToken: "abc", cart: []domain.Game{{ID: 7}}}
	sess, _ := newTestContext(t, backend)

	var snaps []Snapshot
	unsubscribe := sess.Subscribe(func(s Snapshot) { snaps = append(snaps, s) })

	sess.Initialize(context.Background())
	if len(snaps) != 1 || !snaps[0].Ready || snaps[0].LoggedIn() {
		t.Fatalf("snapshots after initialize = %+v", snaps)
	}

	sess.Login(context.Background(), "alice", "correct")
	last := snaps[len(snaps)-1]
	if !last.LoggedIn() || len(last.Cart) != 1 {
		t.Fatalf("snapshot after login = %+v", last)
	}

	unsubscribe()
	before := len(snaps)
	sess.Logout(context.Background())
	if len(snaps) != before {
		t.Fatal("unsubscribed observer must not be notified")
	}
}
