package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"othello-live/internal/store"
)

func TestLookup(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	_ = mem.PutSession(ctx, "tok", "alice")
	r := Lookup{Store: mem}

	if user, err := r.Resolve(ctx, "tok"); err != nil || user != "alice" {
		t.Fatalf("resolve = %q, %v", user, err)
	}
	for _, tok := range []string{"", "missing"} {
		if _, err := r.Resolve(ctx, tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("resolve(%q): err = %v", tok, err)
		}
	}
}

func TestJWT(t *testing.T) {
	ctx := context.Background()
	j := NewJWT("secret")
	tok, err := j.Issue("bob", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if user, err := j.Resolve(ctx, tok); err != nil || user != "bob" {
		t.Fatalf("resolve = %q, %v", user, err)
	}

	expired, _ := j.Issue("bob", -time.Minute)
	other, _ := NewJWT("other").Issue("bob", time.Minute)
	for name, tok := range map[string]string{"expired": expired, "wrong key": other, "opaque": "abc"} {
		if _, err := j.Resolve(ctx, tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: err = %v", name, err)
		}
	}
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	_ = mem.PutSession(ctx, "opaque", "carol")
	j := NewJWT("secret")
	signed, _ := j.Issue("dave", time.Minute)
	c := Chain{j, Lookup{Store: mem}}

	if user, err := c.Resolve(ctx, signed); err != nil || user != "dave" {
		t.Fatalf("jwt via chain = %q, %v", user, err)
	}
	if user, err := c.Resolve(ctx, "opaque"); err != nil || user != "carol" {
		t.Fatalf("lookup via chain = %q, %v", user, err)
	}
	if _, err := c.Resolve(ctx, "nobody"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("unknown token: err = %v", err)
	}
}
