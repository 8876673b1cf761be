package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/trebuchet-org/treb-gateway/internal/domain"
	"github.com/trebuchet-org/treb-gateway/internal/domain/config"
	"github.com/trebuchet-org/treb-gateway/internal/domain/models"
	"github.com/trebuchet-org/treb-gateway/internal/usecase"
)

// indexedArtifact is a parsed artifact with the key it is indexed under
type indexedArtifact struct {
	name     string
	source   string
	path     string
	artifact *models.Artifact
}

// Repository indexes compiled artifacts from Foundry (out/) and Hardhat (artifacts/)
// directories. The index is built on first use.
type Repository struct {
	dirs    []string
	log     *slog.Logger
	mu      sync.Mutex
	indexed bool
	byKey   map[string]*indexedArtifact   // key: "source:Name"
	byName  map[string][]*indexedArtifact // key: contract name
}

// NewRepository creates an artifact repository over the configured artifact directories
func NewRepository(cfg *config.RuntimeConfig, log *slog.Logger) *Repository {
	return &Repository{
		dirs:   cfg.ArtifactDirs,
		log:    log.With("component", "ArtifactRepository"),
		byKey:  make(map[string]*indexedArtifact),
		byName: make(map[string][]*indexedArtifact),
	}
}

// Resolve returns the artifact for a spec. The reference is either a bare contract
// name, which must be unique, or "path/File.sol:Name".
func (r *Repository) Resolve(_ context.Context, spec *models.ContractSpec) (*models.Artifact, error) {
	if err := r.index(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ref := spec.ArtifactRef()
	if strings.Contains(ref, ":") {
		if found, ok := r.byKey[ref]; ok {
			return found.artifact, nil
		}
		return nil, r.notFound(spec, ref)
	}

	candidates := r.byName[ref]
	switch len(candidates) {
	case 0:
		return nil, r.notFound(spec, ref)
	case 1:
		return candidates[0].artifact, nil
	default:
		keys := make([]string, 0, len(candidates))
		for _, c := range candidates {
			keys = append(keys, fmt.Sprintf("%s:%s", c.source, c.name))
		}
		sort.Strings(keys)
		return nil, &domain.ConfigurationError{
			Field:  fmt.Sprintf("contracts.%s.artifact", spec.Name),
			Reason: fmt.Sprintf("%s is ambiguous, use one of: %s", ref, strings.Join(keys, ", ")),
		}
	}
}

func (r *Repository) notFound(spec *models.ContractSpec, ref string) error {
	return &domain.ConfigurationError{
		Field:  fmt.Sprintf("contracts.%s.artifact", spec.Name),
		Reason: fmt.Sprintf("no compiled artifact for %s in %s (compile the project first)", ref, strings.Join(r.dirs, ", ")),
	}
}

func (r *Repository) index() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexed {
		return nil
	}

	for _, dir := range r.dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}

		err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if info.Name() == "build-info" {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) != ".json" || strings.HasSuffix(path, ".dbg.json") {
				return nil
			}
			r.processArtifact(path)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to index artifacts in %s: %w", dir, err)
		}
	}

	r.indexed = true
	r.log.Debug("indexed artifacts", "count", len(r.byKey), "dirs", r.dirs)
	return nil
}

// processArtifact indexes a single artifact file. Files that are not contract
// artifacts are skipped.
func (r *Repository) processArtifact(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		r.log.Debug("skipping unreadable artifact", "path", path, "error", err)
		return
	}

	var artifact models.Artifact
	if err := json.Unmarshal(data, &artifact); err != nil || len(artifact.ABI) == 0 {
		return
	}

	name := artifact.ContractName
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), ".json")
	}

	source := artifact.SourceName
	if source == "" {
		for src, target := range artifact.Metadata.Settings.CompilationTarget {
			if target == name {
				source = src
			}
		}
	}
	if source == "" {
		// Foundry lays out out/<File.sol>/<Name>.json
		source = filepath.Base(filepath.Dir(path))
	}
	if artifact.SourceName == "" {
		artifact.SourceName = source
	}

	entry := &indexedArtifact{name: name, source: source, path: path, artifact: &artifact}
	key := fmt.Sprintf("%s:%s", source, name)
	if _, exists := r.byKey[key]; exists {
		return
	}
	r.byKey[key] = entry
	r.byName[name] = append(r.byName[name], entry)
}

var _ usecase.ArtifactResolver = (*Repository)(nil)
