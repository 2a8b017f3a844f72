package cache

import (
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c := New(10, time.Minute)
	c.Set("a", "<html>a</html>")

	got, ok := c.Get("a")
	if !ok || got != "<html>a</html>" {
		t.Errorf("Get(a) = %q, %v", got, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) hit")
	}
}

func TestCache_Expiry(t *testing.T) {
	c := New(10, 50*time.Millisecond)
	c.Set("a", "body")
	if _, ok := c.Get("a"); !ok {
		t.Fatal("entry expired early")
	}

	time.Sleep(120 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Error("expired entry returned")
	}
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New(2, time.Hour)
	c.Set("first", "1")
	c.Set("second", "2")
	c.Get("first")
	c.Set("third", "3")

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if _, ok := c.Get("second"); ok {
		t.Error("least recently used entry should have been evicted")
	}
	for _, k := range []string{"first", "third"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("entry %q missing", k)
		}
	}
}

func TestCache_OverwriteDoesNotEvict(t *testing.T) {
	c := New(2, time.Hour)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("a", "3")

	if got, _ := c.Get("a"); got != "3" {
		t.Errorf("Get(a) = %q, want 3", got)
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("overwrite evicted another entry")
	}
}

func TestCache_NilIsDisabled(t *testing.T) {
	var c *Cache
	if New(0, time.Minute) != nil || New(10, 0) != nil {
		t.Error("New with non-positive limits should return nil")
	}
	c.Set("a", "1")
	if _, ok := c.Get("a"); ok {
		t.Error("nil cache hit")
	}
	if c.Len() != 0 {
		t.Error("nil cache has entries")
	}
}

func TestKey(t *testing.T) {
	if Key("https://a.test/", "x") == Key("https://a.test/x") {
		t.Error("part boundaries should change the key")
	}
	if Key("u") != Key("u") {
		t.Error("Key not deterministic")
	}
	if len(Key("u")) != 64 {
		t.Errorf("Key length = %d, want 64 hex chars", len(Key("u")))
	}
}
