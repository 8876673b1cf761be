package models

import (
	"slices"
	"time"
)

// LibraryLink records a library address linked into a deployed contract
type LibraryLink struct {
	Name    string `json:"name"`
	Path    string `json:"path,omitempty"` // e.g. "contracts/ToString.sol:ToString"
	Address string `json:"address"`
}

// DeploymentRecord is the persisted result of deploying one named contract on one network.
// Records are never mutated in place; a redeploy overwrites the record for the name.
type DeploymentRecord struct {
	Name            string           `json:"name"`
	Address         string           `json:"address"`
	Network         string           `json:"network"`
	ChainID         uint64           `json:"chainId"`
	Kind            ContractKind     `json:"kind,omitempty"`
	Artifact        string           `json:"artifact,omitempty"` // e.g. "contracts/BarGateway.sol:BarGateway"
	ConstructorArgs []ConstructorArg `json:"args"`
	EncodedArgs     string           `json:"encodedArgs,omitempty"` // 0x-prefixed ABI encoding
	Libraries       []LibraryLink    `json:"libraries,omitempty"`

	TransactionHash string    `json:"transactionHash,omitempty"`
	Deployer        string    `json:"deployer,omitempty"`
	BlockNumber     uint64    `json:"blockNumber,omitempty"`
	DeployedAt      time.Time `json:"deployedAt"`
}

// Clone returns a deep copy of the record
func (r *DeploymentRecord) Clone() *DeploymentRecord {
	cp := *r
	cp.ConstructorArgs = slices.Clone(r.ConstructorArgs)
	cp.Libraries = slices.Clone(r.Libraries)
	return &cp
}

// LibraryAddresses returns the linked libraries as a name -> address map
func (r *DeploymentRecord) LibraryAddresses() map[string]string {
	out := make(map[string]string, len(r.Libraries))
	for _, lib := range r.Libraries {
		out[lib.Name] = lib.Address
	}
	return out
}

// RunStatus describes what the orchestrator did with a spec
type RunStatus string

const (
	StatusDeployed RunStatus = "deployed"
	StatusReused   RunStatus = "reused"
	StatusPlanned  RunStatus = "planned" // dry run
)
