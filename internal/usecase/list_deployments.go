package usecase

import (
	"context"
	"fmt"

	"github.com/trebuchet-org/treb-gateway/internal/domain/config"
	"github.com/trebuchet-org/treb-gateway/internal/domain/models"
)

// ListDeploymentsParams contains parameters for listing deployments
type ListDeploymentsParams struct {
	Kind models.ContractKind // empty lists every kind
}

// ListDeploymentsResult contains the stored records of the active network
type ListDeploymentsResult struct {
	Network     *config.NetworkProfile
	Deployments []*models.DeploymentRecord
	Summary     DeploymentSummary
}

// DeploymentSummary provides summary statistics
type DeploymentSummary struct {
	Total  int
	ByKind map[models.ContractKind]int
}

// ListDeployments lists the named deployments stored for the active network
type ListDeployments struct {
	cfg      *config.RuntimeConfig
	store    DeploymentStore
	progress ProgressSink
}

// NewListDeployments creates a new ListDeployments use case
func NewListDeployments(cfg *config.RuntimeConfig, store DeploymentStore, progress ProgressSink) *ListDeployments {
	return &ListDeployments{
		cfg:      cfg,
		store:    store,
		progress: progress,
	}
}

// Run executes the use case
func (uc *ListDeployments) Run(ctx context.Context, params ListDeploymentsParams) (*ListDeploymentsResult, error) {
	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   "loading",
		Message: "Loading deployments",
		Spinner: true,
	})

	records, err := uc.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}

	result := &ListDeploymentsResult{
		Network:     uc.cfg.Network,
		Deployments: make([]*models.DeploymentRecord, 0, len(records)),
		Summary:     DeploymentSummary{ByKind: make(map[models.ContractKind]int)},
	}

	for _, record := range records {
		if params.Kind != "" && record.Kind != params.Kind {
			continue
		}
		result.Deployments = append(result.Deployments, record)
		result.Summary.Total++
		result.Summary.ByKind[record.Kind]++
	}

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   "complete",
		Message: fmt.Sprintf("Found %d deployments", result.Summary.Total),
	})

	return result, nil
}
