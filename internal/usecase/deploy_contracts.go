package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"
	internalconfig "github.com/trebuchet-org/treb-gateway/internal/config"
	"github.com/trebuchet-org/treb-gateway/internal/domain"
	"github.com/trebuchet-org/treb-gateway/internal/domain/config"
	"github.com/trebuchet-org/treb-gateway/internal/domain/models"
)

// Progress stages emitted by DeployContracts
const (
	StageDeployPlan     = "deploy_plan"
	StageDeployStarting = "deploy_starting"
	StageDeployDone     = "deploy_done"
	StageDeployReused   = "deploy_reused"
	StageDeployPlanned  = "deploy_planned"
)

// pendingAddress stands in for a library that a dry run would deploy
const pendingAddress = "(pending)"

// DeployContracts deploys a plan in declaration order against the active network,
// reusing every contract the deployment store already holds.
type DeployContracts struct {
	cfg       *config.RuntimeConfig
	store     DeploymentStore
	artifacts ArtifactResolver
	deployer  ContractDeployer
	progress  ProgressSink
	log       *slog.Logger
	now       func() time.Time
}

// NewDeployContracts creates a new deploy use case
func NewDeployContracts(
	cfg *config.RuntimeConfig,
	store DeploymentStore,
	artifacts ArtifactResolver,
	deployer ContractDeployer,
	progress ProgressSink,
	log *slog.Logger,
) *DeployContracts {
	return &DeployContracts{
		cfg:       cfg,
		store:     store,
		artifacts: artifacts,
		deployer:  deployer,
		progress:  progress,
		log:       log.With("component", "DeployContracts"),
		now:       time.Now,
	}
}

// DeployParams contains parameters for a deployment run
type DeployParams struct {
	Plan *models.Plan
	// Redeploy names contracts to deploy again even when a record exists
	Redeploy []string
	DryRun   bool
}

// DeployStep is the outcome for one contract spec
type DeployStep struct {
	Spec   *models.ContractSpec
	Record *models.DeploymentRecord
	Status models.RunStatus
}

// DeployResult contains the result of a deployment run
type DeployResult struct {
	Network *config.NetworkProfile
	Steps   []*DeployStep
	DryRun  bool
}

// Records returns the records of the run in plan order, excluding planned steps
func (r *DeployResult) Records() []*models.DeploymentRecord {
	return lo.FilterMap(r.Steps, func(s *DeployStep, _ int) (*models.DeploymentRecord, bool) {
		return s.Record, s.Record != nil && s.Status != models.StatusPlanned
	})
}

// Count returns how many steps ended with the given status
func (r *DeployResult) Count(status models.RunStatus) int {
	return lo.CountBy(r.Steps, func(s *DeployStep) bool { return s.Status == status })
}

// Run executes the plan. The first failure aborts the run; records persisted
// before it stay valid and are reused by the next run.
func (uc *DeployContracts) Run(ctx context.Context, params DeployParams) (*DeployResult, error) {
	network := uc.cfg.Network
	if network == nil {
		return nil, &domain.ConfigurationError{Field: "network", Reason: "no network selected"}
	}
	if err := internalconfig.ValidatePlan(params.Plan); err != nil {
		return nil, err
	}

	dryRun := params.DryRun || uc.cfg.DryRun
	redeploy, err := uc.redeploySet(params)
	if err != nil {
		return nil, err
	}

	artifacts, err := uc.preflight(ctx, params.Plan, redeploy)
	if err != nil {
		return nil, err
	}

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StageDeployPlan,
		Total:    len(params.Plan.Contracts),
		Message:  fmt.Sprintf("Deploying %s to %s", params.Plan.Group, network.Name),
		Metadata: params.Plan,
	})

	result := &DeployResult{Network: network, DryRun: dryRun}
	planned := make(map[string]bool)
	total := len(params.Plan.Contracts)

	for i := range params.Plan.Contracts {
		spec := &params.Plan.Contracts[i]

		libraries, err := uc.resolveLibraries(ctx, spec, planned)
		if err != nil {
			return result, err
		}

		existing, err := uc.lookup(ctx, spec.Name)
		if err != nil {
			return result, err
		}

		if existing != nil && !redeploy[spec.Name] {
			result.Steps = append(result.Steps, &DeployStep{Spec: spec, Record: existing, Status: models.StatusReused})
			uc.log.Info("reusing deployment", "contract", spec.Name, "address", existing.Address, "network", network.Name)
			uc.progress.OnProgress(ctx, ProgressEvent{
				Stage:    StageDeployReused,
				Current:  i + 1,
				Total:    total,
				Message:  fmt.Sprintf("%s already deployed at %s", spec.Name, existing.Address),
				Metadata: existing,
			})
			continue
		}

		if dryRun {
			planned[spec.Name] = true
			result.Steps = append(result.Steps, &DeployStep{Spec: spec, Record: existing, Status: models.StatusPlanned})
			uc.progress.OnProgress(ctx, ProgressEvent{
				Stage:   StageDeployPlanned,
				Current: i + 1,
				Total:   total,
				Message: fmt.Sprintf("would deploy %s", spec.Name),
			})
			continue
		}

		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:   StageDeployStarting,
			Current: i + 1,
			Total:   total,
			Message: fmt.Sprintf("Deploying %s", spec.Name),
			Spinner: true,
		})

		record, err := uc.deploy(ctx, spec, artifacts[spec.Name], libraries)
		if err != nil {
			return result, err
		}

		result.Steps = append(result.Steps, &DeployStep{Spec: spec, Record: record, Status: models.StatusDeployed})
		uc.log.Info("deployed contract", "contract", spec.Name, "address", record.Address, "network", network.Name, "tx", record.TransactionHash)
		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:    StageDeployDone,
			Current:  i + 1,
			Total:    total,
			Message:  fmt.Sprintf("%s deployed to %s", spec.Name, record.Address),
			Metadata: record,
		})
	}

	return result, nil
}

func (uc *DeployContracts) redeploySet(params DeployParams) (map[string]bool, error) {
	names := params.Plan.Names()
	set := make(map[string]bool, len(params.Redeploy))
	for _, name := range params.Redeploy {
		if !lo.Contains(names, name) {
			return nil, &domain.ConfigurationError{
				Field:  "redeploy",
				Reason: fmt.Sprintf("%s is not part of the plan (contracts: %s)", name, strings.Join(names, ", ")),
			}
		}
		set[name] = true
	}
	return set, nil
}

// preflight runs every check that needs no network access: declared libraries must
// be stored or deployed earlier in the plan, and each contract to deploy must have
// a deployable artifact whose link references are all declared. Stored contracts
// linked against a library that is being replaced join the redeploy set.
func (uc *DeployContracts) preflight(ctx context.Context, plan *models.Plan, redeploy map[string]bool) (map[string]*models.Artifact, error) {
	artifacts := make(map[string]*models.Artifact)
	earlier := make(map[string]bool, len(plan.Contracts))

	for i := range plan.Contracts {
		spec := &plan.Contracts[i]

		for _, lib := range spec.Libraries {
			if earlier[lib] {
				continue
			}
			stored, err := uc.lookup(ctx, lib)
			if err != nil {
				return nil, err
			}
			if stored == nil {
				return nil, &domain.DependencyError{Contract: spec.Name, Library: lib, Network: uc.cfg.Network.Name}
			}
		}
		earlier[spec.Name] = true

		existing, err := uc.lookup(ctx, spec.Name)
		if err != nil {
			return nil, err
		}
		if existing != nil && !redeploy[spec.Name] {
			lib, err := uc.replacedLibrary(ctx, spec, existing, redeploy)
			if err != nil {
				return nil, err
			}
			if lib == "" {
				continue
			}
			uc.log.Warn("redeploying consumer of replaced library", "contract", spec.Name, "library", lib, "network", uc.cfg.Network.Name)
			redeploy[spec.Name] = true
		}

		artifact, err := uc.artifacts.Resolve(ctx, spec)
		if err != nil {
			return nil, err
		}
		if !artifact.HasBytecode() {
			return nil, &domain.ConfigurationError{
				Field:  fmt.Sprintf("contracts.%s", spec.Name),
				Reason: fmt.Sprintf("artifact %s has no creation bytecode (interface or abstract contract?)", spec.ArtifactRef()),
			}
		}
		for _, linked := range linkedLibraryNames(artifact) {
			if !lo.Contains(spec.Libraries, linked) {
				return nil, &domain.ConfigurationError{
					Field:  fmt.Sprintf("contracts.%s.libraries", spec.Name),
					Reason: fmt.Sprintf("bytecode links against %s, which is not declared", linked),
				}
			}
		}
		artifacts[spec.Name] = artifact
	}

	return artifacts, nil
}

// replacedLibrary returns the first library of spec whose address differs from the one
// the existing record was linked against, either because the library is deployed in
// this run or because the store holds a newer record for it. It returns "" when every
// link is current.
func (uc *DeployContracts) replacedLibrary(ctx context.Context, spec *models.ContractSpec, existing *models.DeploymentRecord, redeploy map[string]bool) (string, error) {
	for _, lib := range spec.Libraries {
		if redeploy[lib] {
			return lib, nil
		}
		stored, err := uc.lookup(ctx, lib)
		if err != nil {
			return "", err
		}
		if stored == nil {
			return lib, nil
		}
		link, ok := lo.Find(existing.Libraries, func(l models.LibraryLink) bool { return l.Name == lib })
		if ok && !strings.EqualFold(link.Address, stored.Address) {
			return lib, nil
		}
	}
	return "", nil
}

// resolveLibraries looks up every declared library in the store
func (uc *DeployContracts) resolveLibraries(ctx context.Context, spec *models.ContractSpec, planned map[string]bool) (map[string]string, error) {
	libraries := make(map[string]string, len(spec.Libraries))
	for _, lib := range spec.Libraries {
		if planned[lib] {
			libraries[lib] = pendingAddress
			continue
		}
		record, err := uc.lookup(ctx, lib)
		if err != nil {
			return nil, err
		}
		if record == nil {
			return nil, &domain.DependencyError{Contract: spec.Name, Library: lib, Network: uc.cfg.Network.Name}
		}
		libraries[lib] = record.Address
	}
	return libraries, nil
}

// lookup returns nil without error when the store has no record for name
func (uc *DeployContracts) lookup(ctx context.Context, name string) (*models.DeploymentRecord, error) {
	record, err := uc.store.Get(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read deployment %s: %w", name, err)
	}
	return record, nil
}

func (uc *DeployContracts) deploy(ctx context.Context, spec *models.ContractSpec, artifact *models.Artifact, libraries map[string]string) (*models.DeploymentRecord, error) {
	network := uc.cfg.Network

	receipt, err := uc.deployer.Deploy(ctx, DeployRequest{
		Spec:      spec,
		Artifact:  artifact,
		Libraries: libraries,
	})
	if err != nil {
		return nil, &domain.DeploymentError{Contract: spec.Name, Network: network.Name, Err: err}
	}

	links := receipt.Links
	if links == nil {
		links = lo.Map(spec.Libraries, func(lib string, _ int) models.LibraryLink {
			return models.LibraryLink{Name: lib, Address: libraries[lib]}
		})
	}

	record := &models.DeploymentRecord{
		Name:            spec.Name,
		Address:         receipt.Address,
		Network:         network.Name,
		ChainID:         network.ChainID,
		Kind:            spec.Kind,
		ConstructorArgs: append([]models.ConstructorArg{}, spec.Args...),
		EncodedArgs:     receipt.EncodedArgs,
		Libraries:       links,
		TransactionHash: receipt.TransactionHash,
		Deployer:        receipt.Deployer,
		BlockNumber:     receipt.BlockNumber,
		DeployedAt:      uc.now().UTC(),
	}
	if artifact != nil {
		record.Artifact = artifact.SourcePath(artifactName(spec))
	}

	if err := uc.store.Put(ctx, record); err != nil {
		return nil, fmt.Errorf("%s deployed at %s but could not be recorded: %w", spec.Name, record.Address, err)
	}

	return record, nil
}

// linkedLibraryNames returns the library names the artifact's bytecode links against
func linkedLibraryNames(artifact *models.Artifact) []string {
	var names []string
	for _, libs := range artifact.Links() {
		for name := range libs {
			names = append(names, name)
		}
	}
	return lo.Uniq(names)
}

// artifactName strips any "path:" prefix from the artifact reference
func artifactName(spec *models.ContractSpec) string {
	ref := spec.ArtifactRef()
	if idx := strings.LastIndex(ref, ":"); idx != -1 {
		return ref[idx+1:]
	}
	return ref
}
