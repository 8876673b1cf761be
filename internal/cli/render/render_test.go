package render

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-gateway/internal/domain"
	"github.com/trebuchet-org/treb-gateway/internal/domain/config"
	"github.com/trebuchet-org/treb-gateway/internal/domain/models"
	"github.com/trebuchet-org/treb-gateway/internal/usecase"
)

func init() {
	color.NoColor = true
}

var maticNetwork = &config.NetworkProfile{Name: "matic", ChainID: 137, RPCURL: "http://localhost:1248", Verify: true}

func toStringSpec() models.ContractSpec {
	return models.ContractSpec{Name: "ToString", Kind: models.KindLibrary}
}

func gatewaySpec() models.ContractSpec {
	return models.ContractSpec{Name: "BarGateway", Kind: models.KindContract, Libraries: []string{"ToString"}}
}

func TestDeployRenderer(t *testing.T) {
	t.Run("completed run", func(t *testing.T) {
		lib, gw := toStringSpec(), gatewaySpec()
		result := &usecase.DeployResult{
			Network: maticNetwork,
			Steps: []*usecase.DeployStep{
				{Spec: &lib, Status: models.StatusReused, Record: &models.DeploymentRecord{Name: "ToString", Address: "0x00000000000000000000000000000000000000a1"}},
				{Spec: &gw, Status: models.StatusDeployed, Record: &models.DeploymentRecord{
					Name:      "BarGateway",
					Address:   "0x00000000000000000000000000000000000000b2",
					Libraries: []models.LibraryLink{{Name: "ToString", Address: "0x00000000000000000000000000000000000000a1"}},
				}},
			},
		}

		var buf bytes.Buffer
		require.NoError(t, NewDeployRenderer(&buf).Render(result))

		out := buf.String()
		assert.Contains(t, out, "Deployments on matic (chain 137)")
		assert.Contains(t, out, "0x00000000000000000000000000000000000000b2")
		assert.Contains(t, out, "links ToString@0x0000…00a1")
		assert.Contains(t, out, "1 deployed, 1 reused")
	})

	t.Run("dry run shows pending addresses", func(t *testing.T) {
		lib, gw := toStringSpec(), gatewaySpec()
		result := &usecase.DeployResult{
			Network: maticNetwork,
			DryRun:  true,
			Steps: []*usecase.DeployStep{
				{Spec: &lib, Status: models.StatusPlanned},
				{Spec: &gw, Status: models.StatusPlanned},
			},
		}

		var buf bytes.Buffer
		require.NoError(t, NewDeployRenderer(&buf).Render(result))

		out := buf.String()
		assert.Contains(t, out, "[dry run]")
		assert.Contains(t, out, PendingAddress)
		assert.Contains(t, out, "links ToString")
		assert.Contains(t, out, "2 to deploy, 0 already deployed")
	})
}

func TestVerifyRenderer(t *testing.T) {
	t.Run("skipped", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewVerifyRenderer(&buf).Render(&usecase.VerifyResult{Skipped: true, Reason: "network localhost is not verify-eligible"}))
		assert.Contains(t, buf.String(), "Verification skipped: network localhost is not verify-eligible")
	})

	t.Run("partial failure", func(t *testing.T) {
		failed := &models.DeploymentRecord{Name: "BarGateway", Address: "0x02"}
		result := &usecase.VerifyResult{
			Verified: []*models.DeploymentRecord{{Name: "ToString", Address: "0x01"}},
			Failed:   []*models.DeploymentRecord{failed},
			Errors: multierror.Append(nil, &domain.VerificationError{
				Contract: "BarGateway", Address: "0x02", Err: errors.New("rate limited"),
			}),
		}

		var buf bytes.Buffer
		require.NoError(t, NewVerifyRenderer(&buf).Render(result))

		out := buf.String()
		assert.Contains(t, out, "ToString: Verified")
		assert.Contains(t, out, "rate limited")
		assert.Contains(t, out, "1 of 2 verifications failed")
	})
}

func TestDeploymentsRenderer(t *testing.T) {
	var buf bytes.Buffer
	err := NewDeploymentsRenderer(&buf).Render(&usecase.ListDeploymentsResult{Network: maticNetwork})
	require.NoError(t, err)
	assert.Equal(t, "No deployments found on matic\n", buf.String())

	buf.Reset()
	err = NewDeploymentsRenderer(&buf).Render(&usecase.ListDeploymentsResult{
		Network: maticNetwork,
		Deployments: []*models.DeploymentRecord{
			{Name: "ToString", Kind: models.KindLibrary, Address: "0x00000000000000000000000000000000000000a1"},
		},
		Summary: usecase.DeploymentSummary{Total: 1, ByKind: map[models.ContractKind]int{models.KindLibrary: 1}},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "matic (chain 137)")
	assert.Contains(t, buf.String(), "Total: 1 (1 libraries, 0 contracts)")
}

func TestNetworksRenderer(t *testing.T) {
	result := &usecase.ListNetworksResult{
		Current: "matic",
		Networks: []usecase.NetworkStatus{
			{Name: "broken", Error: errors.New("no RPC endpoint configured")},
			{Name: "matic", Profile: &config.NetworkProfile{
				Name: "matic", ChainID: 137, RPCURL: "http://localhost:1248",
				GasPrice: big.NewInt(30_000_000_000), Verify: true,
			}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewNetworksRenderer(&buf).Render(result))

	out := buf.String()
	assert.Contains(t, out, "❌ broken - Error: no RPC endpoint configured")
	assert.Contains(t, out, "* ✅ matic - Chain ID: 137 - http://localhost:1248")
	assert.Contains(t, out, "gas price: 30.00 gwei")
	assert.Contains(t, out, "verification: enabled")
}

func TestAccountsRenderer(t *testing.T) {
	var buf bytes.Buffer
	err := NewAccountsRenderer(&buf).Render(&usecase.ListAccountsResult{
		Network: maticNetwork,
		Accounts: []usecase.Account{
			{Address: "0x00000000000000000000000000000000000000a1", Balance: big.NewInt(1_500_000_000_000_000_000)},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "1.5000")
	assert.Contains(t, buf.String(), "deployer")
}
