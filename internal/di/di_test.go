package di

import (
	"sync"
	"sync/atomic"
	"testing"
)

type greeter struct{ name string }

func TestContainer_RegisterAndGet(t *testing.T) {
	c := NewContainer()
	c.Register("config", "cfg")

	if got := c.Get("config"); got != "cfg" {
		t.Errorf("Get() = %v, want cfg", got)
	}
	if !c.Has("config") {
		t.Error("Has() = false")
	}
}

func TestRegisterToken_LazySingleton(t *testing.T) {
	c := NewContainer()
	c.Register("name", "jupiter")

	var builds atomic.Int32
	tok := NewToken[*greeter]("test.greeter")
	RegisterToken(c, tok, func(sr ServiceRegistry) *greeter {
		builds.Add(1)
		return &greeter{name: sr.Get("name").(string)}
	})

	var wg sync.WaitGroup
	results := make([]*greeter, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = GetToken(c, tok)
		}(i)
	}
	wg.Wait()

	if builds.Load() != 1 {
		t.Fatalf("factory ran %d times, want 1", builds.Load())
	}
	for _, g := range results {
		if g != results[0] || g.name != "jupiter" {
			t.Fatal("expected one shared instance")
		}
	}
}

func TestGet_UnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unregistered service")
		}
	}()
	NewContainer().Get("missing")
}
