package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/zkdeploy/internal/domain"
	"github.com/trebuchet-org/zkdeploy/internal/domain/config"
	"github.com/trebuchet-org/zkdeploy/internal/domain/models"
)

func TestRecordStoreAdapter_SaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "deployments")
	store := NewRecordStoreAdapter(&config.RuntimeConfig{DataDir: dir})
	ctx := context.Background()

	txHash := common.HexToHash("0xabc")
	record := &models.DeploymentRecord{
		RunID:       "3f1c2d9e-1111-4222-8333-944455556666",
		Network:     "zkSyncTestnet",
		ChainID:     280,
		Plan:        "core",
		Status:      models.RunStatusCompleted,
		StartedAt:   time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC),
		CompletedAt: time.Date(2023, 5, 1, 12, 1, 0, 0, time.UTC),
		Contracts: []*models.DeployedContract{
			{
				Name:            "NLPToken",
				ContractName:    "NLPToken",
				Address:         common.HexToAddress("0x111C3E89Ce80e62EE88318C2804920D4c96f92bb"),
				TxHash:          &txHash,
				ConstructorArgs: []byte{0x01},
				Verification:    &models.VerificationResult{Status: models.VerificationStatusVerified, ID: "42"},
			},
			{
				Name:    "WETH",
				Address: common.HexToAddress("0x20b28B1e4665FFf290650586ad76E977EAb90c5D"),
				Known:   true,
			},
		},
	}

	require.NoError(t, store.Save(ctx, record))
	assert.FileExists(t, filepath.Join(dir, "zkSyncTestnet.json"))
	assert.NoFileExists(t, filepath.Join(dir, "zkSyncTestnet.json.tmp"))

	loaded, err := store.Load(ctx, "zkSyncTestnet")
	require.NoError(t, err)
	assert.Equal(t, record, loaded)

	token, ok := loaded.Find("NLPToken")
	require.True(t, ok)
	assert.Equal(t, "42", token.Verification.ID)
}

func TestRecordStoreAdapter_SaveKeepsEarlierRuns(t *testing.T) {
	store := NewRecordStoreAdapter(&config.RuntimeConfig{DataDir: t.TempDir()})
	ctx := context.Background()

	token := &models.DeployedContract{Name: "NLPToken", ContractName: "NLPToken", Address: common.HexToAddress("0x01")}
	chef := &models.DeployedContract{Name: "MasterChefV2", ContractName: "MasterChefV2", Address: common.HexToAddress("0x02")}
	require.NoError(t, store.Save(ctx, &models.DeploymentRecord{
		RunID:     "run-core",
		Network:   "zkSyncTestnet",
		ChainID:   280,
		Plan:      "core",
		Status:    models.RunStatusCompleted,
		Contracts: []*models.DeployedContract{token, chef},
	}))

	tests := []struct {
		name      string
		record    *models.DeploymentRecord
		wantNames []string
		wantChef  common.Address
	}{
		{
			name: "failed run with no contracts",
			record: &models.DeploymentRecord{
				RunID: "run-dex", Network: "zkSyncTestnet", ChainID: 280, Plan: "dex",
				Status: models.RunStatusFailed, Error: "step 1 failed",
			},
			wantNames: []string{"NLPToken", "MasterChefV2"},
			wantChef:  common.HexToAddress("0x02"),
		},
		{
			name: "later plan adds and redeploys",
			record: &models.DeploymentRecord{
				RunID: "run-dex-2", Network: "zkSyncTestnet", ChainID: 280, Plan: "dex",
				Status: models.RunStatusCompleted,
				Contracts: []*models.DeployedContract{
					{Name: "RouterDynamic", ContractName: "RouterDynamic", Address: common.HexToAddress("0x03")},
					{Name: "MasterChefV2", ContractName: "MasterChefV2", Address: common.HexToAddress("0x04")},
				},
			},
			wantNames: []string{"NLPToken", "MasterChefV2", "RouterDynamic"},
			wantChef:  common.HexToAddress("0x04"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, store.Save(ctx, tt.record))

			loaded, err := store.Load(ctx, "zkSyncTestnet")
			require.NoError(t, err)
			assert.Equal(t, tt.record.RunID, loaded.RunID)
			assert.Equal(t, tt.record.Plan, loaded.Plan)

			names := make([]string, 0, len(loaded.Contracts))
			for _, c := range loaded.Contracts {
				names = append(names, c.Name)
			}
			assert.Equal(t, tt.wantNames, names)

			found, ok := loaded.Find("MasterChefV2")
			require.True(t, ok)
			assert.Equal(t, tt.wantChef, found.Address)
		})
	}
}

func TestRecordStoreAdapter_SaveReplacesOtherChain(t *testing.T) {
	store := NewRecordStoreAdapter(&config.RuntimeConfig{DataDir: t.TempDir()})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &models.DeploymentRecord{
		Network: "zkSyncLocal", ChainID: 270,
		Contracts: []*models.DeployedContract{{Name: "NLPToken", Address: common.HexToAddress("0x01")}},
	}))
	require.NoError(t, store.Save(ctx, &models.DeploymentRecord{Network: "zkSyncLocal", ChainID: 271}))

	loaded, err := store.Load(ctx, "zkSyncLocal")
	require.NoError(t, err)
	assert.Empty(t, loaded.Contracts)
}

func TestRecordStoreAdapter_Load(t *testing.T) {
	dir := t.TempDir()
	store := NewRecordStoreAdapter(&config.RuntimeConfig{DataDir: dir})

	t.Run("missing", func(t *testing.T) {
		_, err := store.Load(context.Background(), "zkSyncMainnet")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("corrupt", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644))
		_, err := store.Load(context.Background(), "broken")
		assert.ErrorContains(t, err, "failed to parse deployment record")
	})
}

func TestRecordStoreAdapter_SaveWithoutNetwork(t *testing.T) {
	store := NewRecordStoreAdapter(&config.RuntimeConfig{DataDir: t.TempDir()})
	err := store.Save(context.Background(), &models.DeploymentRecord{})
	assert.ErrorContains(t, err, "has no network")
}
