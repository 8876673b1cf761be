package artifacts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trebuchet-org/treb-gateway/internal/domain/models"
)

// Link substitutes library addresses into the artifact's creation bytecode at the
// offsets listed in its link references. Every referenced library must have an address.
func Link(artifact *models.Artifact, libraries map[string]string) ([]byte, []models.LibraryLink, error) {
	code := strings.TrimPrefix(artifact.Bytecode.Object, "0x")
	if code == "" {
		return nil, nil, fmt.Errorf("artifact %s has no bytecode", artifact.ContractName)
	}

	linked := []byte(code)
	var links []models.LibraryLink

	sources := make([]string, 0, len(artifact.Links()))
	for source := range artifact.Links() {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	for _, source := range sources {
		libs := artifact.Links()[source]
		names := make([]string, 0, len(libs))
		for name := range libs {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			address, ok := libraries[name]
			if !ok {
				return nil, nil, fmt.Errorf("bytecode references library %s (%s) but no address was provided", name, source)
			}
			if !common.IsHexAddress(address) {
				return nil, nil, fmt.Errorf("invalid address %q for library %s", address, name)
			}
			addrHex := strings.ToLower(strings.TrimPrefix(common.HexToAddress(address).Hex(), "0x"))

			for _, ref := range libs[name] {
				if ref.Length != common.AddressLength {
					return nil, nil, fmt.Errorf("unexpected link reference length %d for %s", ref.Length, name)
				}
				start, end := ref.Start*2, (ref.Start+ref.Length)*2
				if start < 0 || end > len(linked) {
					return nil, nil, fmt.Errorf("link reference for %s out of range", name)
				}
				copy(linked[start:end], addrHex)
			}

			links = append(links, models.LibraryLink{
				Name:    name,
				Path:    fmt.Sprintf("%s:%s", source, name),
				Address: common.HexToAddress(address).Hex(),
			})
		}
	}

	if strings.Contains(string(linked), "__") {
		return nil, nil, fmt.Errorf("bytecode of %s still contains unlinked library placeholders", artifact.ContractName)
	}

	bytecode, err := hexutil.Decode("0x" + string(linked))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid bytecode: %w", err)
	}

	return bytecode, links, nil
}
