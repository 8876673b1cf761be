package artifacts

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/trebuchet-org/treb-gateway/internal/domain/models"
)

// EncodeConstructorArgs ABI-encodes args positionally after checking them against
// the constructor declared in the artifact's ABI.
func EncodeConstructorArgs(artifact *models.Artifact, args []models.ConstructorArg) ([]byte, error) {
	if len(artifact.ABI) > 0 {
		parsed, err := abi.JSON(bytes.NewReader(artifact.ABI))
		if err != nil {
			return nil, fmt.Errorf("failed to parse ABI of %s: %w", artifact.ContractName, err)
		}
		if err := checkConstructor(parsed.Constructor.Inputs, args); err != nil {
			return nil, err
		}
	}

	encoded, err := models.PackConstructorArgs(args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode constructor args: %w", err)
	}
	return encoded, nil
}

func checkConstructor(inputs abi.Arguments, args []models.ConstructorArg) error {
	if len(inputs) != len(args) {
		return fmt.Errorf("constructor takes %d arguments, %d given", len(inputs), len(args))
	}
	for i, input := range inputs {
		typ, err := args[i].ABIType()
		if err != nil {
			return fmt.Errorf("arg %d: invalid type %q: %w", i, args[i].Type, err)
		}
		if typ.String() != input.Type.String() {
			return fmt.Errorf("arg %d (%s): constructor expects %s, got %s", i, input.Name, input.Type.String(), typ.String())
		}
	}
	return nil
}
