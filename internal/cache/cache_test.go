package cache

import "testing"

func TestSetGet(t *testing.T) {
	c := New()
	key := c.GenerateKey("m", "hello")

	if _, ok := c.Get(key); ok {
		t.Fatal("empty cache returned a hit")
	}
	c.Set(key, []float32{1, 2})
	v, ok := c.Get(key)
	if !ok || len(v) != 2 || v[1] != 2 {
		t.Fatalf("Get = %v, %v", v, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestGenerateKey(t *testing.T) {
	c := New()
	if c.GenerateKey("m", "text") != c.GenerateKey("m", "text") {
		t.Error("same input produced different keys")
	}
	if c.GenerateKey("m1", "text") == c.GenerateKey("m2", "text") {
		t.Error("different models share a key")
	}
	// model/text boundary must not be ambiguous
	if c.GenerateKey("ab", "c") == c.GenerateKey("a", "bc") {
		t.Error("keys collide across the model/text boundary")
	}
}
