package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/trebuchet-org/treb-gateway/internal/domain"
	"github.com/trebuchet-org/treb-gateway/internal/domain/config"
	"github.com/trebuchet-org/treb-gateway/internal/domain/models"
	"github.com/trebuchet-org/treb-gateway/internal/usecase"
)

const (
	// DeploymentsDir holds one directory per network
	DeploymentsDir = "deployments"
	// ChainIDFile pins the chain a network directory belongs to
	ChainIDFile = ".chainId"
)

// DeploymentStore keeps one JSON file per named deployment under
// <data-dir>/deployments/<network>/<Name>.json. All records are read at open time.
type DeploymentStore struct {
	dir     string
	chainID uint64
	mu      sync.RWMutex
	records map[string]*models.DeploymentRecord
}

// NewDeploymentStore opens the store for the active network.
// Any unreadable or corrupt file fails the open.
func NewDeploymentStore(cfg *config.RuntimeConfig) (*DeploymentStore, error) {
	if cfg.Network == nil {
		return nil, &domain.ConfigurationError{Field: "network", Reason: "no network selected"}
	}
	return OpenDeploymentStore(filepath.Join(cfg.DataDir, DeploymentsDir, cfg.Network.Name), cfg.Network.ChainID)
}

// OpenDeploymentStore opens the store rooted at dir for the given chain
func OpenDeploymentStore(dir string, chainID uint64) (*DeploymentStore, error) {
	s := &DeploymentStore{
		dir:     dir,
		chainID: chainID,
		records: make(map[string]*models.DeploymentRecord),
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Dir returns the network directory backing the store
func (s *DeploymentStore) Dir() string {
	return s.dir
}

func (s *DeploymentStore) load() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &domain.StorageError{Path: s.dir, Err: err}
	}

	if err := s.checkChainID(); err != nil {
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}

		path := filepath.Join(s.dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return &domain.StorageError{Path: path, Err: err}
		}

		var record models.DeploymentRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return &domain.StorageError{Path: path, Err: fmt.Errorf("corrupt record: %w", err)}
		}

		expected := strings.TrimSuffix(name, ".json")
		if record.Name != expected {
			return &domain.StorageError{Path: path, Err: fmt.Errorf("record name %q does not match file name", record.Name)}
		}
		if record.Address == "" {
			return &domain.StorageError{Path: path, Err: fmt.Errorf("record has no address")}
		}

		s.records[record.Name] = &record
	}

	return nil
}

// checkChainID fails when the directory was written for another chain
func (s *DeploymentStore) checkChainID() error {
	path := filepath.Join(s.dir, ChainIDFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &domain.StorageError{Path: path, Err: err}
	}

	stored, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return &domain.StorageError{Path: path, Err: fmt.Errorf("invalid chain id: %w", err)}
	}
	if stored != s.chainID {
		return &domain.StorageError{
			Path: path,
			Err:  fmt.Errorf("directory belongs to chain %d, network is configured for chain %d", stored, s.chainID),
		}
	}
	return nil
}

// Get returns the record for name, or domain.ErrNotFound
func (s *DeploymentStore) Get(_ context.Context, name string) (*models.DeploymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[name]
	if !ok {
		return nil, fmt.Errorf("deployment %s: %w", name, domain.ErrNotFound)
	}
	return record.Clone(), nil
}

// Put writes the record and syncs it to disk before returning
func (s *DeploymentStore) Put(_ context.Context, record *models.DeploymentRecord) error {
	if record == nil || record.Name == "" {
		return &domain.StorageError{Path: s.dir, Err: fmt.Errorf("record has no name")}
	}
	if strings.ContainsAny(record.Name, `/\`) || record.Name == "." || record.Name == ".." {
		return &domain.StorageError{Path: s.dir, Err: fmt.Errorf("invalid record name %q", record.Name)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return &domain.StorageError{Path: s.dir, Err: err}
	}

	chainIDPath := filepath.Join(s.dir, ChainIDFile)
	if _, err := os.Stat(chainIDPath); os.IsNotExist(err) {
		if err := writeFileSync(chainIDPath, []byte(strconv.FormatUint(s.chainID, 10))); err != nil {
			return &domain.StorageError{Path: chainIDPath, Err: err}
		}
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return &domain.StorageError{Path: s.dir, Err: fmt.Errorf("failed to marshal record: %w", err)}
	}

	path := filepath.Join(s.dir, record.Name+".json")
	if err := writeFileSync(path, data); err != nil {
		return &domain.StorageError{Path: path, Err: err}
	}

	s.records[record.Name] = record.Clone()
	return nil
}

// List returns every record sorted by name
func (s *DeploymentStore) List(_ context.Context) ([]*models.DeploymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.records))
	for name := range s.records {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]*models.DeploymentRecord, 0, len(names))
	for _, name := range names {
		out = append(out, s.records[name].Clone())
	}
	return out, nil
}

// writeFileSync writes to a temp file in the same directory, fsyncs it, renames it
// over path and fsyncs the directory.
func writeFileSync(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}

	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

// Ensure DeploymentStore implements DeploymentStore
var _ usecase.DeploymentStore = (*DeploymentStore)(nil)
