package cache

import (
	"bytes"
	"testing"
	"time"
)

func TestKey_StableAndPrefixed(t *testing.T) {
	a := Key("claim: prices rose 5%")
	b := Key("claim: prices rose 5%")
	if a != b {
		t.Error("same input should produce the same key")
	}
	if a == Key("claim: prices rose 6%") {
		t.Error("different inputs should produce different keys")
	}
	if len(a) < len("pagemend:v1:") || a[:12] != "pagemend:v1:" {
		t.Errorf("key should carry the version prefix, got %s", a)
	}
}

func TestMemoryCache_TTL(t *testing.T) {
	c := NewMemoryCache(50*time.Millisecond, time.Minute)

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if val, found := c.Get("k"); !found || !bytes.Equal(val, []byte("v")) {
		t.Fatalf("expected hit, got found=%v val=%q", found, val)
	}

	time.Sleep(80 * time.Millisecond)
	if _, found := c.Get("k"); found {
		t.Error("expected entry to expire")
	}
}

func TestDiskCache_SurvivesNewInstance(t *testing.T) {
	dir := t.TempDir()

	first := NewDiskCache(dir, time.Hour)
	if err := first.Set(Key("persisted"), []byte("payload"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	second := NewDiskCache(dir, time.Hour)
	val, found := second.Get(Key("persisted"))
	if !found || !bytes.Equal(val, []byte("payload")) {
		t.Fatalf("expected entry to survive restart, found=%v val=%q", found, val)
	}
}

func TestDiskCache_ExpiredEntryRemoved(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	if err := c.Set("k", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	if _, found := c.Get("k"); found {
		t.Fatal("expected expired entry to miss")
	}
	// The expired file is gone, so a second read also misses.
	if _, found := c.Get("k"); found {
		t.Fatal("expected expired entry to stay gone")
	}
}

func TestLayered_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()

	warm := NewLayered(time.Hour, dir, time.Hour)
	if err := warm.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// A fresh instance has a cold memory layer; the first read is served
	// from disk and promoted.
	cold := NewLayered(time.Hour, dir, time.Hour)
	if val, found := cold.Get("k"); !found || !bytes.Equal(val, []byte("v")) {
		t.Fatalf("expected disk hit, found=%v val=%q", found, val)
	}
	if _, found := cold.memory.Get("k"); !found {
		t.Error("disk hit should be promoted to memory")
	}
}

func TestLayered_DeleteBothLayers(t *testing.T) {
	c := NewLayered(time.Hour, t.TempDir(), time.Hour)
	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	_ = c.Delete("k")
	if _, found := c.Get("k"); found {
		t.Error("expected entry removed from both layers")
	}
}
