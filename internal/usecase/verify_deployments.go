package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"
	"github.com/trebuchet-org/treb-gateway/internal/domain"
	"github.com/trebuchet-org/treb-gateway/internal/domain/config"
	"github.com/trebuchet-org/treb-gateway/internal/domain/models"
)

// Progress stages emitted by VerifyDeployments
const (
	StageVerifyStarting = "verify_starting"
	StageVerifyDone     = "verify_done"
	StageVerifyFailed   = "verify_failed"
	StageVerifySkipped  = "verify_skipped"
)

// VerifyDeployments submits deployed contracts for source verification when the
// active network is verify-eligible. Failures are collected, never fatal.
type VerifyDeployments struct {
	cfg      *config.RuntimeConfig
	store    DeploymentStore
	verifier SourceVerifier
	progress ProgressSink
	log      *slog.Logger
}

// NewVerifyDeployments creates a new verification use case
func NewVerifyDeployments(
	cfg *config.RuntimeConfig,
	store DeploymentStore,
	verifier SourceVerifier,
	progress ProgressSink,
	log *slog.Logger,
) *VerifyDeployments {
	return &VerifyDeployments{
		cfg:      cfg,
		store:    store,
		verifier: verifier,
		progress: progress,
		log:      log.With("component", "VerifyDeployments"),
	}
}

// VerifyParams selects what to verify. Records takes precedence; otherwise
// Names are loaded from the store, or every stored record when Names is empty.
type VerifyParams struct {
	Records []*models.DeploymentRecord
	Names   []string
	// Force verifies even when the network is not verify-eligible
	Force bool
}

// VerifyResult contains the outcome of a verification pass
type VerifyResult struct {
	Skipped  bool
	Reason   string
	Verified []*models.DeploymentRecord
	Failed   []*models.DeploymentRecord
	// Errors aggregates one VerificationError per failed contract
	Errors *multierror.Error
}

// Submitted returns the number of verification requests made
func (r *VerifyResult) Submitted() int {
	return len(r.Verified) + len(r.Failed)
}

// Run verifies the selected records in order. The returned error is only set when
// the records cannot be loaded; verification failures are reported on the result.
func (uc *VerifyDeployments) Run(ctx context.Context, params VerifyParams) (*VerifyResult, error) {
	network := uc.cfg.Network
	if network == nil {
		return nil, &domain.ConfigurationError{Field: "network", Reason: "no network selected"}
	}

	result := &VerifyResult{}

	switch {
	case uc.cfg.SkipVerify && !params.Force:
		result.Skipped = true
		result.Reason = "verification disabled with --skip-verify"
	case !network.Verify && !params.Force:
		result.Skipped = true
		result.Reason = fmt.Sprintf("network %s is not verify-eligible", network.Name)
	}
	if result.Skipped {
		uc.log.Debug("skipping verification", "network", network.Name, "reason", result.Reason)
		uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageVerifySkipped, Message: result.Reason})
		return result, nil
	}

	records, err := uc.selectRecords(ctx, params)
	if err != nil {
		return nil, err
	}

	for i, record := range records {
		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:   StageVerifyStarting,
			Current: i + 1,
			Total:   len(records),
			Message: fmt.Sprintf("Verifying %s at %s", record.Name, record.Address),
			Spinner: true,
		})

		if err := uc.verifier.Verify(ctx, record, network); err != nil {
			verr := &domain.VerificationError{Contract: record.Name, Address: record.Address, Err: err}
			result.Failed = append(result.Failed, record)
			result.Errors = multierror.Append(result.Errors, verr)
			uc.log.Warn("verification failed", "contract", record.Name, "address", record.Address, "error", err)
			uc.progress.OnProgress(ctx, ProgressEvent{
				Stage:    StageVerifyFailed,
				Current:  i + 1,
				Total:    len(records),
				Message:  verr.Error(),
				Metadata: record,
			})
			continue
		}

		result.Verified = append(result.Verified, record)
		uc.log.Info("verified contract", "contract", record.Name, "address", record.Address)
		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:    StageVerifyDone,
			Current:  i + 1,
			Total:    len(records),
			Message:  fmt.Sprintf("%s verified", record.Name),
			Metadata: record,
		})
	}

	return result, nil
}

func (uc *VerifyDeployments) selectRecords(ctx context.Context, params VerifyParams) ([]*models.DeploymentRecord, error) {
	if len(params.Records) > 0 {
		return params.Records, nil
	}

	if len(params.Names) == 0 {
		records, err := uc.store.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list deployments: %w", err)
		}
		return records, nil
	}

	records := make([]*models.DeploymentRecord, 0, len(params.Names))
	for _, name := range params.Names {
		record, err := uc.store.Get(ctx, name)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("no deployment named %s on %s: %w", name, uc.cfg.Network.Name, err)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read deployment %s: %w", name, err)
		}
		records = append(records, record)
	}
	return records, nil
}
