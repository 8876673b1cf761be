package usecase_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/trebuchet-org/treb-gateway/internal/domain"
	"github.com/trebuchet-org/treb-gateway/internal/domain/config"
	"github.com/trebuchet-org/treb-gateway/internal/domain/models"
	"github.com/trebuchet-org/treb-gateway/internal/usecase"
)

// memoryStore is an in-memory DeploymentStore that survives across use case runs
type memoryStore struct {
	mu      sync.Mutex
	records map[string]*models.DeploymentRecord
	putErr  error
	getErr  error
	puts    []string
}

func newMemoryStore(records ...*models.DeploymentRecord) *memoryStore {
	s := &memoryStore{records: make(map[string]*models.DeploymentRecord)}
	for _, r := range records {
		s.records[r.Name] = r
	}
	return s
}

func (s *memoryStore) Get(_ context.Context, name string) (*models.DeploymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	r, ok := s.records[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

func (s *memoryStore) Put(_ context.Context, record *models.DeploymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.records[record.Name] = record
	s.puts = append(s.puts, record.Name)
	return nil
}

func (s *memoryStore) List(_ context.Context) ([]*models.DeploymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.DeploymentRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// MockContractDeployer is a mock implementation of ContractDeployer
type MockContractDeployer struct {
	mock.Mock
}

func (m *MockContractDeployer) Deploy(ctx context.Context, req usecase.DeployRequest) (*usecase.DeployReceipt, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.DeployReceipt), args.Error(1)
}

// sequentialDeployer hands out deterministic addresses and records every request
type sequentialDeployer struct {
	requests []usecase.DeployRequest
	failOn   map[string]error
}

func (d *sequentialDeployer) Deploy(_ context.Context, req usecase.DeployRequest) (*usecase.DeployReceipt, error) {
	if err, ok := d.failOn[req.Spec.Name]; ok {
		return nil, err
	}
	d.requests = append(d.requests, req)
	n := len(d.requests)
	return &usecase.DeployReceipt{
		Address:         fmt.Sprintf("0x%040x", n),
		TransactionHash: fmt.Sprintf("0x%064x", n),
		Deployer:        "0x00000000000000000000000000000000000000aa",
		BlockNumber:     uint64(100 + n),
		EncodedArgs:     "0x",
	}, nil
}

func (d *sequentialDeployer) deployed() []string {
	names := make([]string, 0, len(d.requests))
	for _, r := range d.requests {
		names = append(names, r.Spec.Name)
	}
	return names
}

// fakeArtifacts resolves every spec to a deployable artifact.
// links maps contract name to the libraries its bytecode references.
type fakeArtifacts struct {
	links   map[string][]string
	missing map[string]bool
	calls   int
}

func (f *fakeArtifacts) Resolve(_ context.Context, spec *models.ContractSpec) (*models.Artifact, error) {
	f.calls++
	if f.missing[spec.Name] {
		return nil, &domain.ConfigurationError{Field: "artifact", Reason: fmt.Sprintf("no artifact for %s", spec.Name)}
	}
	artifact := &models.Artifact{
		ContractName: spec.Name,
		SourceName:   fmt.Sprintf("contracts/%s.sol", spec.Name),
		Bytecode:     models.BytecodeObject{Object: "0x6080604052"},
	}
	if libs := f.links[spec.Name]; len(libs) > 0 {
		refs := make(map[string][]models.LinkReference)
		for _, lib := range libs {
			refs[lib] = []models.LinkReference{{Start: 1, Length: 20}}
		}
		artifact.Bytecode.LinkReferences = models.LinkReferences{"contracts/Lib.sol": refs}
	}
	return artifact, nil
}

// MockSourceVerifier is a mock implementation of SourceVerifier
type MockSourceVerifier struct {
	mock.Mock
}

func (m *MockSourceVerifier) Verify(ctx context.Context, record *models.DeploymentRecord, network *config.NetworkProfile) error {
	args := m.Called(ctx, record, network)
	return args.Error(0)
}

// MockProgressSink records progress events
type MockProgressSink struct {
	events []usecase.ProgressEvent
}

func (m *MockProgressSink) OnProgress(_ context.Context, event usecase.ProgressEvent) {
	m.events = append(m.events, event)
}

func (m *MockProgressSink) Info(string)  {}
func (m *MockProgressSink) Error(string) {}

func (m *MockProgressSink) stages() []string {
	stages := make([]string, 0, len(m.events))
	for _, e := range m.events {
		stages = append(stages, e.Stage)
	}
	return stages
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func localProfile() *config.NetworkProfile {
	return &config.NetworkProfile{Name: "localhost", ChainID: 137, RPCURL: "http://localhost:8545"}
}

func maticProfile() *config.NetworkProfile {
	return &config.NetworkProfile{Name: "matic", ChainID: 137, RPCURL: "http://localhost:1248", Verify: true}
}

func gatewayPlan() *models.Plan {
	addr := func(v string) models.ConstructorArg { return models.ConstructorArg{Type: "address", Value: v} }
	return &models.Plan{
		Group: "gateways",
		Contracts: []models.ContractSpec{
			{Name: "ToString", Kind: models.KindLibrary},
			{
				Name:      "BarGateway",
				Args:      []models.ConstructorArg{addr("0x78a486306D15E7111cca541F2f1307a1cFCaF5C4"), addr("0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef")},
				Libraries: []string{"ToString"},
			},
			{
				Name:      "MigratorGateway",
				Args:      []models.ConstructorArg{addr("0x78a486306D15E7111cca541F2f1307a1cFCaF5C4"), addr("0x1111111111111111111111111111111111111111")},
				Libraries: []string{"ToString"},
			},
		},
	}
}
