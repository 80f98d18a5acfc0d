package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/mcrocce/flatstore/internal/store"
)

// CreateStore builds the storage backend selected by the configuration.
//
// The Type field picks the implementation and the matching option map is
// decoded into that backend's typed configuration.
func CreateStore(cfg *StorageConfig) (*store.Store, error) {
	switch cfg.Type {
	case "filesystem":
		return createFilesystemStore(cfg.Filesystem)
	default:
		return nil, fmt.Errorf("unknown storage type: %q", cfg.Type)
	}
}

// createFilesystemStore creates the local-filesystem backend.
func createFilesystemStore(options map[string]any) (*store.Store, error) {
	type FilesystemStoreConfig struct {
		Root string `mapstructure:"root"`
	}

	var storeCfg FilesystemStoreConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode filesystem storage config: %w", err)
	}

	if storeCfg.Root == "" {
		return nil, fmt.Errorf("filesystem storage: root is required")
	}

	st, err := store.New(storeCfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem storage: %w", err)
	}
	return st, nil
}
