package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"github.com/trebuchet-org/zkdeploy/internal/domain"
	"github.com/trebuchet-org/zkdeploy/internal/domain/config"
	"github.com/trebuchet-org/zkdeploy/internal/domain/models"
	"github.com/trebuchet-org/zkdeploy/internal/usecase"
)

const maxSuggestions = 3

// Loader finds compiled artifacts under the project's artifacts directory.
// Hardhat (artifacts-zk/contracts/X.sol/X.json) and Foundry (out/X.sol/X.json)
// layouts are both indexed.
type Loader struct {
	artifactsDir string
	log          *slog.Logger

	mu      sync.Mutex
	indexed bool
	byName  map[string][]string // contract name -> artifact paths
}

// NewLoader creates a loader for the configured artifacts directory
func NewLoader(cfg *config.RuntimeConfig, log *slog.Logger) *Loader {
	return &Loader{
		artifactsDir: cfg.ArtifactsDir,
		log:          log,
	}
}

// LoadArtifact loads an artifact by contract name or by "path/To.sol:Name"
func (l *Loader) LoadArtifact(ctx context.Context, name string) (*models.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := l.index(); err != nil {
		return nil, &domain.ArtifactError{Name: name, Err: err}
	}

	source, contract := splitQualifiedName(name)
	paths := l.byName[contract]
	if len(paths) == 0 {
		return nil, &domain.ArtifactError{
			Name:        name,
			Suggestions: l.suggest(contract),
			Err:         fmt.Errorf("%w in %s", domain.ErrContractNotFound, l.artifactsDir),
		}
	}

	var candidates []*models.Artifact
	for _, path := range paths {
		artifact, err := l.readArtifact(path)
		if err != nil {
			return nil, &domain.ArtifactError{Name: name, Err: err}
		}
		if source == "" || artifact.SourceName == source || strings.HasSuffix(artifact.SourceName, "/"+source) {
			candidates = append(candidates, artifact)
		}
	}

	switch len(candidates) {
	case 0:
		return nil, &domain.ArtifactError{
			Name: name,
			Err:  fmt.Errorf("%w: no artifact for %s comes from %s", domain.ErrContractNotFound, contract, source),
		}
	case 1:
	default:
		sources := lo.Map(candidates, func(a *models.Artifact, _ int) string { return a.FullyQualifiedName() })
		return nil, &domain.ArtifactError{
			Name: name,
			Err:  fmt.Errorf("ambiguous contract name, use one of: %s", strings.Join(sources, ", ")),
		}
	}

	artifact := candidates[0]
	if artifact.Bytecode.IsEmpty() {
		return nil, &domain.ArtifactError{
			Name: name,
			Err:  errors.New("artifact has no creation bytecode (abstract contract or interface?)"),
		}
	}

	l.log.Debug("loaded artifact",
		slog.String("contract", artifact.ContractName),
		slog.String("path", artifact.Path),
		slog.String("buildInfo", artifact.BuildInfoPath),
	)
	return artifact, nil
}

// Names returns every indexed contract name
func (l *Loader) Names() ([]string, error) {
	if err := l.index(); err != nil {
		return nil, err
	}
	names := lo.Keys(l.byName)
	slices.Sort(names)
	return names, nil
}

func splitQualifiedName(name string) (source, contract string) {
	if i := strings.LastIndex(name, ":"); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

func (l *Loader) suggest(name string) []string {
	names := lo.Keys(l.byName)
	slices.Sort(names)
	matches := fuzzy.Find(name, names)
	if len(matches) == 0 {
		// Fuzzy matching is subsequence based; retry case-insensitively on prefixes
		lower := strings.ToLower(name)
		return lo.Slice(lo.Filter(names, func(n string, _ int) bool {
			return strings.HasPrefix(strings.ToLower(n), lower) || strings.HasPrefix(lower, strings.ToLower(n))
		}), 0, maxSuggestions)
	}
	return lo.Slice(lo.Map(matches, func(m fuzzy.Match, _ int) string { return m.Str }), 0, maxSuggestions)
}

// index walks the artifacts directory once
func (l *Loader) index() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.indexed {
		return nil
	}

	if _, err := os.Stat(l.artifactsDir); err != nil {
		return fmt.Errorf("artifacts directory %s not found, compile the contracts first: %w", l.artifactsDir, err)
	}

	byName := make(map[string][]string)
	err := filepath.WalkDir(l.artifactsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" || d.Name() == "cache" {
				return filepath.SkipDir
			}
			return nil
		}

		base := d.Name()
		if !strings.HasSuffix(base, ".json") || strings.HasSuffix(base, ".dbg.json") {
			return nil
		}
		// Artifacts live in a directory named after their source file
		if !strings.HasSuffix(filepath.Base(filepath.Dir(path)), ".sol") {
			return nil
		}

		contract := strings.TrimSuffix(base, ".json")
		byName[contract] = append(byName[contract], path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to index artifacts: %w", err)
	}

	l.byName = byName
	l.indexed = true
	l.log.Debug("indexed artifacts", slog.String("dir", l.artifactsDir), slog.Int("contracts", len(byName)))
	return nil
}

// artifactFile holds the fields of an artifact file not kept on models.Artifact
type artifactFile struct {
	models.Artifact
	FactoryDeps map[string]string `json:"factoryDeps"`
}

func (l *Loader) readArtifact(path string) (*models.Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	var file artifactFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse artifact %s: %w", path, err)
	}

	artifact := file.Artifact
	artifact.Path = path
	if artifact.ContractName == "" {
		artifact.ContractName = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	if artifact.SourceName == "" {
		artifact.SourceName = filepath.Base(filepath.Dir(path))
	}
	if len(file.FactoryDeps) > 0 {
		l.log.Warn("artifact has factory dependencies, they must already be deployed",
			slog.String("contract", artifact.ContractName),
			slog.Int("count", len(file.FactoryDeps)),
		)
	}

	artifact.BuildInfoPath = resolveBuildInfo(path)
	return &artifact, nil
}

// resolveBuildInfo follows Hardhat's <Name>.dbg.json to the build-info file
func resolveBuildInfo(artifactPath string) string {
	dbgPath := strings.TrimSuffix(artifactPath, ".json") + ".dbg.json"
	data, err := os.ReadFile(dbgPath)
	if err != nil {
		return ""
	}

	var dbg struct {
		BuildInfo string `json:"buildInfo"`
	}
	if err := json.Unmarshal(data, &dbg); err != nil || dbg.BuildInfo == "" {
		return ""
	}

	buildInfo := filepath.Join(filepath.Dir(dbgPath), filepath.FromSlash(dbg.BuildInfo))
	if _, err := os.Stat(buildInfo); err != nil {
		return ""
	}
	return buildInfo
}

var _ usecase.ArtifactLoader = (*Loader)(nil)
