package cache

import (
	"bytes"
	"path/filepath"
	"testing"
)

func openTemp(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "bundle.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPutGet(t *testing.T) {
	c := openTemp(t)

	if _, ok, err := c.Get("missing"); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}

	payload := []byte{0x01, 0x02, 0x03}
	if err := c.Put("k1", payload); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := c.Get("k1")
	if err != nil || !ok || !bytes.Equal(got, payload) {
		t.Fatalf("Get: %v %v %v", got, ok, err)
	}
}

func TestPutReplaces(t *testing.T) {
	c := openTemp(t)
	if err := c.Put("k", []byte("old")); err != nil {
		t.Fatal(err)
	}
	if err := c.Put("k", []byte("new")); err != nil {
		t.Fatal(err)
	}
	got, ok, _ := c.Get("k")
	if !ok || string(got) != "new" {
		t.Errorf("got %q, want new", got)
	}
}

func TestReopenPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.db")

	c, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Put("k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	c.Close()

	c2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer c2.Close()
	got, ok, _ := c2.Get("k")
	if !ok || string(got) != "v" {
		t.Errorf("value lost across reopen: %q %v", got, ok)
	}
}
