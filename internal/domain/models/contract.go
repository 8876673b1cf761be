package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ContractKind distinguishes linkable libraries from regular contracts
type ContractKind string

const (
	KindLibrary  ContractKind = "library"
	KindContract ContractKind = "contract"
)

// ConstructorArg is a single positional constructor argument.
// Type is a Solidity ABI type ("address", "uint256", "string", ...).
type ConstructorArg struct {
	Type  string `json:"type" yaml:"type"`
	Value string `json:"value" yaml:"value"`
}

// ContractSpec describes one contract to deploy within a plan
type ContractSpec struct {
	Name      string           `json:"name" yaml:"name"`
	Artifact  string           `json:"artifact,omitempty" yaml:"artifact,omitempty"`
	Kind      ContractKind     `json:"kind,omitempty" yaml:"kind,omitempty"`
	Args      []ConstructorArg `json:"args,omitempty" yaml:"args,omitempty"`
	Libraries []string         `json:"libraries,omitempty" yaml:"libraries,omitempty"`
}

// ArtifactRef returns the artifact reference, defaulting to the contract name
func (s *ContractSpec) ArtifactRef() string {
	if s.Artifact != "" {
		return s.Artifact
	}
	return s.Name
}

// IsLibrary reports whether the contract is a linkable library
func (s *ContractSpec) IsLibrary() bool {
	return s.Kind == KindLibrary
}

// Plan is the ordered list of contracts deployed by a single run.
// Libraries must be listed before the contracts linking against them.
type Plan struct {
	Group     string         `json:"group" yaml:"group"`
	Contracts []ContractSpec `json:"contracts" yaml:"contracts"`
}

// Names returns contract names in declaration order
func (p *Plan) Names() []string {
	names := make([]string, 0, len(p.Contracts))
	for _, c := range p.Contracts {
		names = append(names, c.Name)
	}
	return names
}

// LinkReference is a byte range in bytecode holding a library placeholder
type LinkReference struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

// LinkReferences maps source file -> library name -> placeholder offsets
type LinkReferences map[string]map[string][]LinkReference

// BytecodeObject represents creation bytecode in either Foundry or Hardhat form.
// Foundry nests {object, linkReferences}; Hardhat stores a bare hex string.
type BytecodeObject struct {
	Object         string         `json:"object"`
	SourceMap      string         `json:"sourceMap,omitempty"`
	LinkReferences LinkReferences `json:"linkReferences,omitempty"`
}

func (b *BytecodeObject) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		b.Object = s
		return nil
	}
	type alias BytecodeObject
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("bytecode must be a hex string or an object: %w", err)
	}
	*b = BytecodeObject(a)
	return nil
}

// Artifact represents a compilation artifact from Foundry (out/) or Hardhat (artifacts/)
type Artifact struct {
	ContractName   string           `json:"contractName,omitempty"`
	SourceName     string           `json:"sourceName,omitempty"`
	ABI            json.RawMessage  `json:"abi"`
	Bytecode       BytecodeObject   `json:"bytecode"`
	LinkReferences LinkReferences   `json:"linkReferences,omitempty"`
	Metadata       ArtifactMetadata `json:"metadata,omitempty"`
}

// ArtifactMetadata represents the subset of solc metadata we need
type ArtifactMetadata struct {
	Compiler struct {
		Version string `json:"version"`
	} `json:"compiler"`
	Settings struct {
		CompilationTarget map[string]string `json:"compilationTarget"`
	} `json:"settings"`
}

// Links returns the library link references regardless of artifact flavour
func (a *Artifact) Links() LinkReferences {
	if len(a.Bytecode.LinkReferences) > 0 {
		return a.Bytecode.LinkReferences
	}
	return a.LinkReferences
}

// SourcePath returns the "path/File.sol:Name" identifier used by verifiers
func (a *Artifact) SourcePath(name string) string {
	if a.SourceName != "" {
		return fmt.Sprintf("%s:%s", a.SourceName, name)
	}
	for path, target := range a.Metadata.Settings.CompilationTarget {
		if target == name {
			return fmt.Sprintf("%s:%s", path, name)
		}
	}
	return name
}

// HasBytecode reports whether the artifact can be deployed (not an interface or abstract)
func (a *Artifact) HasBytecode() bool {
	code := strings.TrimPrefix(a.Bytecode.Object, "0x")
	return code != ""
}
