package fs

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-gateway/internal/domain"
	"github.com/trebuchet-org/treb-gateway/internal/domain/config"
	"github.com/trebuchet-org/treb-gateway/internal/domain/models"
)

func testConfig(t *testing.T) *config.RuntimeConfig {
	t.Helper()
	return &config.RuntimeConfig{
		DataDir: t.TempDir(),
		Network: &config.NetworkProfile{Name: "matic", ChainID: 137},
	}
}

func newTestDeploymentStore(t *testing.T, cfg *config.RuntimeConfig) *DeploymentStore {
	t.Helper()
	store, err := NewDeploymentStore(cfg)
	require.NoError(t, err)
	return store
}

func barGatewayRecord() *models.DeploymentRecord {
	return &models.DeploymentRecord{
		Name:     "BarGateway",
		Address:  "0x2222222222222222222222222222222222222222",
		Network:  "matic",
		ChainID:  137,
		Kind:     models.KindContract,
		Artifact: "contracts/BarGateway.sol:BarGateway",
		ConstructorArgs: []models.ConstructorArg{
			{Type: "address", Value: "0x78a486306D15E7111cca541F2f1307a1cFCaF5C4"},
			{Type: "address", Value: "0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"},
		},
		EncodedArgs: "0x00",
		Libraries: []models.LibraryLink{
			{Name: "ToString", Path: "contracts/ToString.sol:ToString", Address: "0x1111111111111111111111111111111111111111"},
		},
		TransactionHash: "0xabc",
		BlockNumber:     34637800,
		DeployedAt:      time.Now().UTC().Truncate(time.Second),
	}
}

func TestDeploymentStore_Empty(t *testing.T) {
	ctx := context.Background()
	store := newTestDeploymentStore(t, testConfig(t))

	_, err := store.Get(ctx, "BarGateway")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	records, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDeploymentStore_PutGet(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	store := newTestDeploymentStore(t, cfg)

	record := barGatewayRecord()
	require.NoError(t, store.Put(ctx, record))

	got, err := store.Get(ctx, "BarGateway")
	require.NoError(t, err)
	assert.Equal(t, record, got)

	// Layout other tooling depends on
	dir := filepath.Join(cfg.DataDir, "deployments", "matic")
	data, err := os.ReadFile(filepath.Join(dir, "BarGateway.json"))
	require.NoError(t, err)

	var onDisk map[string]any
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, "0x2222222222222222222222222222222222222222", onDisk["address"])
	assert.Len(t, onDisk["args"], 2)
	assert.Len(t, onDisk["libraries"], 1)

	chainID, err := os.ReadFile(filepath.Join(dir, ".chainId"))
	require.NoError(t, err)
	assert.Equal(t, "137", string(chainID))

	// No temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestDeploymentStore_PersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	first := newTestDeploymentStore(t, cfg)
	require.NoError(t, first.Put(ctx, &models.DeploymentRecord{Name: "ToString", Address: "0x1111111111111111111111111111111111111111"}))
	require.NoError(t, first.Put(ctx, barGatewayRecord()))

	second := newTestDeploymentStore(t, cfg)
	records, err := second.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "BarGateway", records[0].Name)
	assert.Equal(t, "ToString", records[1].Name)
	assert.Equal(t, barGatewayRecord().Libraries, records[0].Libraries)
}

func TestDeploymentStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	store := newTestDeploymentStore(t, cfg)

	require.NoError(t, store.Put(ctx, barGatewayRecord()))
	updated := barGatewayRecord()
	updated.Address = "0x3333333333333333333333333333333333333333"
	require.NoError(t, store.Put(ctx, updated))

	reopened := newTestDeploymentStore(t, cfg)
	got, err := reopened.Get(ctx, "BarGateway")
	require.NoError(t, err)
	assert.Equal(t, "0x3333333333333333333333333333333333333333", got.Address)
}

func TestDeploymentStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := newTestDeploymentStore(t, testConfig(t))
	require.NoError(t, store.Put(ctx, barGatewayRecord()))

	got, err := store.Get(ctx, "BarGateway")
	require.NoError(t, err)
	got.Address = "0xchanged"
	got.Libraries[0].Address = "0xchanged"
	got.ConstructorArgs[0].Value = "0xchanged"

	listed, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	listed[0].Libraries[0].Address = "0xlisted"
	listed[0].ConstructorArgs = append(listed[0].ConstructorArgs[:0], models.ConstructorArg{Value: "0xlisted"})

	again, err := store.Get(ctx, "BarGateway")
	require.NoError(t, err)
	assert.Equal(t, "0x2222222222222222222222222222222222222222", again.Address)
	assert.Equal(t, barGatewayRecord().Libraries, again.Libraries)
	assert.Equal(t, barGatewayRecord().ConstructorArgs, again.ConstructorArgs)
}

func TestDeploymentStore_PutKeepsOwnCopy(t *testing.T) {
	ctx := context.Background()
	store := newTestDeploymentStore(t, testConfig(t))

	record := barGatewayRecord()
	require.NoError(t, store.Put(ctx, record))
	record.Libraries[0].Address = "0xchanged"
	record.ConstructorArgs[1].Value = "0xchanged"

	got, err := store.Get(ctx, "BarGateway")
	require.NoError(t, err)
	assert.Equal(t, barGatewayRecord().Libraries, got.Libraries)
	assert.Equal(t, barGatewayRecord().ConstructorArgs, got.ConstructorArgs)
}

func TestDeploymentStore_NetworksAreIsolated(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	require.NoError(t, newTestDeploymentStore(t, cfg).Put(ctx, barGatewayRecord()))

	other := &config.RuntimeConfig{
		DataDir: cfg.DataDir,
		Network: &config.NetworkProfile{Name: "localhost", ChainID: 137},
	}
	_, err := newTestDeploymentStore(t, other).Get(ctx, "BarGateway")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDeploymentStore_CorruptState(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, dir string)
	}{
		{
			name: "invalid json",
			setup: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "BarGateway.json"), []byte("{not json"), 0644))
			},
		},
		{
			name: "name mismatch",
			setup: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "BarGateway.json"), []byte(`{"name":"Other","address":"0x1"}`), 0644))
			},
		},
		{
			name: "missing address",
			setup: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "BarGateway.json"), []byte(`{"name":"BarGateway"}`), 0644))
			},
		},
		{
			name: "chain id mismatch",
			setup: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, ".chainId"), []byte("1"), 0644))
			},
		},
		{
			name: "garbage chain id",
			setup: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, ".chainId"), []byte("polygon"), 0644))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			dir := filepath.Join(cfg.DataDir, "deployments", "matic")
			require.NoError(t, os.MkdirAll(dir, 0755))
			tt.setup(t, dir)

			_, err := NewDeploymentStore(cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrStorage))
		})
	}
}

func TestDeploymentStore_IgnoresUnrelatedFiles(t *testing.T) {
	cfg := testConfig(t)
	dir := filepath.Join(cfg.DataDir, "deployments", "matic")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "solcInputs"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "BarGateway.json.123.tmp"), []byte("partial"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("notes"), 0644))

	store := newTestDeploymentStore(t, cfg)
	records, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDeploymentStore_InvalidName(t *testing.T) {
	store := newTestDeploymentStore(t, testConfig(t))
	err := store.Put(context.Background(), &models.DeploymentRecord{Name: "../escape", Address: "0x1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStorage))
}
