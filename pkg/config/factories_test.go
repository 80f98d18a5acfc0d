package config

import (
	"path/filepath"
	"testing"
)

func TestCreateStore_Filesystem(t *testing.T) {
	root := filepath.Join(t.TempDir(), "data")
	cfg := &StorageConfig{
		Type:       "filesystem",
		Filesystem: map[string]any{"root": root},
	}

	st, err := CreateStore(cfg)
	if err != nil {
		t.Fatalf("CreateStore failed: %v", err)
	}
	if st.Root() != root {
		t.Errorf("Expected store root %q, got %q", root, st.Root())
	}
}

func TestCreateStore_MissingRoot(t *testing.T) {
	cfg := &StorageConfig{
		Type:       "filesystem",
		Filesystem: map[string]any{},
	}

	if _, err := CreateStore(cfg); err == nil {
		t.Fatal("Expected error for missing root")
	}
}

func TestCreateStore_UnknownType(t *testing.T) {
	cfg := &StorageConfig{Type: "tape"}

	if _, err := CreateStore(cfg); err == nil {
		t.Fatal("Expected error for unknown storage type")
	}
}
