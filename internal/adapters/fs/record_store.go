package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/trebuchet-org/zkdeploy/internal/domain"
	"github.com/trebuchet-org/zkdeploy/internal/domain/config"
	"github.com/trebuchet-org/zkdeploy/internal/domain/models"
	"github.com/trebuchet-org/zkdeploy/internal/usecase"
)

// RecordStoreAdapter implements RecordStore with one JSON file per network
type RecordStoreAdapter struct {
	dir string
}

// NewRecordStoreAdapter creates a store under the project's deployments directory
func NewRecordStoreAdapter(cfg *config.RuntimeConfig) *RecordStoreAdapter {
	return &RecordStoreAdapter{dir: cfg.DataDir}
}

// Path returns the record file for a network
func (s *RecordStoreAdapter) Path(network string) string {
	return filepath.Join(s.dir, network+".json")
}

// Load reads the latest record of a network
func (s *RecordStoreAdapter) Load(_ context.Context, network string) (*models.DeploymentRecord, error) {
	path := s.Path(network)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no deployment record for %s: %w", network, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read deployment record: %w", err)
	}

	var record models.DeploymentRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse deployment record %s: %w", path, err)
	}
	return &record, nil
}

// Save writes the record for its network. Contracts recorded by earlier runs
// on the same chain are kept unless this run recorded the same name again.
// The file is written to a temp file first and renamed into place.
func (s *RecordStoreAdapter) Save(ctx context.Context, record *models.DeploymentRecord) error {
	if record.Network == "" {
		return fmt.Errorf("deployment record has no network")
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create deployments directory: %w", err)
	}

	previous, err := s.Load(ctx, record.Network)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	data, err := json.MarshalIndent(mergeRecords(previous, record), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal deployment record: %w", err)
	}

	path := s.Path(record.Network)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write deployment record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write deployment record: %w", err)
	}
	return nil
}

// mergeRecords returns the run's record carrying forward the previous
// contracts it did not redeploy. A record from another chain is replaced.
func mergeRecords(previous, record *models.DeploymentRecord) *models.DeploymentRecord {
	if previous == nil {
		return record
	}
	if previous.ChainID != 0 && record.ChainID != 0 && previous.ChainID != record.ChainID {
		return record
	}

	latest := make(map[string]*models.DeployedContract, len(record.Contracts))
	for _, c := range record.Contracts {
		latest[c.Name] = c
	}

	merged := *record
	merged.Contracts = make([]*models.DeployedContract, 0, len(previous.Contracts)+len(record.Contracts))
	for _, c := range previous.Contracts {
		if current, ok := latest[c.Name]; ok {
			merged.Contracts = append(merged.Contracts, current)
			delete(latest, c.Name)
			continue
		}
		merged.Contracts = append(merged.Contracts, c)
	}
	for _, c := range record.Contracts {
		if _, ok := latest[c.Name]; ok {
			merged.Contracts = append(merged.Contracts, c)
		}
	}
	return &merged
}

// Ensure RecordStoreAdapter implements RecordStore
var _ usecase.RecordStore = (*RecordStoreAdapter)(nil)
