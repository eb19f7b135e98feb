package scheme

import (
	"testing"

	"appscheme/pkg/traffic"
)

func putPath(c *ResponseCache, p string) {
	c.Put(p, traffic.NewResponse("wmfapp://app/fileProxy/"+p, 200), []byte(p))
}

func TestResponseCacheEvictsInInsertionOrder(t *testing.T) {
	c := NewResponseCache(DefaultCacheCapacity)
	for _, p := range []string{"A", "B", "C", "D", "E", "F"} {
		putPath(c, p)
	}
	// 读取 A 不会延长其寿命
	if _, data, ok := c.Get("A"); !ok || string(data) != "A" {
		t.Fatalf("Get(A) = %q, %v", data, ok)
	}
	putPath(c, "G")

	if _, _, ok := c.Get("A"); ok {
		t.Fatal("A survived although it was inserted first")
	}
	for _, p := range []string{"B", "C", "D", "E", "F", "G"} {
		if _, _, ok := c.Get(p); !ok {
			t.Fatalf("%s was evicted", p)
		}
	}
	if c.Len() != DefaultCacheCapacity {
		t.Fatalf("Len() = %d, want %d", c.Len(), DefaultCacheCapacity)
	}
}

func TestResponseCacheReplaceKeepsPosition(t *testing.T) {
	c := NewResponseCache(2)
	putPath(c, "A")
	putPath(c, "B")
	c.Put("A", traffic.NewResponse("", 200), []byte("A2"))
	putPath(c, "C")

	if _, _, ok := c.Get("A"); ok {
		t.Fatal("replacing A should not move it to the back")
	}
	if _, data, ok := c.Get("B"); !ok || string(data) != "B" {
		t.Fatalf("Get(B) = %q, %v", data, ok)
	}
}

func TestResponseCacheReturnsCopiesOfResponse(t *testing.T) {
	c := NewResponseCache(0)
	resp := traffic.NewResponse("u", 200)
	resp.Headers.Set("Content-Type", "text/css")
	c.Put("a.css", resp, []byte("body"))
	resp.Headers.Set("Content-Type", "text/plain")

	got, _, _ := c.Get("a.css")
	got.Headers.Set("Content-Type", "x")
	again, _, _ := c.Get("a.css")
	if again.Headers.Get("content-type") != "text/css" {
		t.Fatalf("cached header mutated: %q", again.Headers.Get("content-type"))
	}
}

func TestResponseCacheCopiesData(t *testing.T) {
	c := NewResponseCache(0)
	data := []byte("body")
	c.Put("a.css", traffic.NewResponse("u", 200), data)
	data[0] = 'X'

	_, got, _ := c.Get("a.css")
	if string(got) != "body" {
		t.Fatalf("cached data = %q, caller mutation leaked in", got)
	}
	got[0] = 'Y'
	if _, again, _ := c.Get("a.css"); string(again) != "body" {
		t.Fatalf("cached data = %q, reader mutation leaked in", again)
	}
}
