// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package runningconfig persists the record of the networks and bondings
// that have been configured on the host.
package runningconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/virt-netsetup/internal/shared"
	"sigs.k8s.io/yaml"
)

const (
	filePermissions = 0o600
	dirPermissions  = 0o755
)

// Store loads and saves the running configuration.
type Store interface {
	// Load returns the stored running configuration. A store which has never
	// been saved returns an empty configuration.
	Load() (*shared.RunningConfig, error)

	// Save replaces the stored running configuration.
	Save(*shared.RunningConfig) error
}

// FileStore keeps the running configuration in a YAML file. JSON documents
// are accepted on load.
type FileStore struct {
	path   string
	logger hclog.Logger
	l      sync.Mutex
}

func NewFileStore(logger hclog.Logger, path string) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger.Named("running-config"),
	}
}

// Path returns the location of the backing file.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Load() (*shared.RunningConfig, error) {
	f.l.Lock()
	defer f.l.Unlock()

	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		f.logger.Debug("no running config found, starting empty", "path", f.path)
		return shared.NewRunningConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read running config: %w", err)
	}

	rc := shared.NewRunningConfig()
	if err := yaml.Unmarshal(b, rc); err != nil {
		return nil, fmt.Errorf("unable to parse running config %s: %w", f.path, err)
	}

	// Copy turns maps nulled by the document back into empty maps.
	return rc.Copy(), nil
}

func (f *FileStore) Save(rc *shared.RunningConfig) error {
	f.l.Lock()
	defer f.l.Unlock()

	rc = rc.Copy()
	b, err := yaml.Marshal(rc)
	if err != nil {
		return fmt.Errorf("unable to encode running config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), dirPermissions); err != nil {
		return fmt.Errorf("unable to create running config directory: %w", err)
	}

	if err := renameio.WriteFile(f.path, b, filePermissions); err != nil {
		return fmt.Errorf("unable to write running config: %w", err)
	}

	f.logger.Debug("running config saved", "path", f.path,
		"networks", len(rc.Networks), "bonds", len(rc.Bonds))
	return nil
}

// MemoryStore keeps the running configuration in memory.
type MemoryStore struct {
	rc *shared.RunningConfig
	l  sync.Mutex
}

func NewMemoryStore(rc *shared.RunningConfig) *MemoryStore {
	return &MemoryStore{rc: rc.Copy()}
}

func (m *MemoryStore) Load() (*shared.RunningConfig, error) {
	m.l.Lock()
	defer m.l.Unlock()
	return m.rc.Copy(), nil
}

func (m *MemoryStore) Save(rc *shared.RunningConfig) error {
	m.l.Lock()
	defer m.l.Unlock()
	m.rc = rc.Copy()
	return nil
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
