package artifacts

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const gatewayABI = `[
  {"type":"constructor","stateMutability":"nonpayable","inputs":[
    {"name":"sourceToken","type":"address","internalType":"address"},
    {"name":"destination","type":"address","internalType":"address"}
  ]}
]`

// placeholder is a Hardhat-style library placeholder, 40 hex characters wide
var placeholder = "__$" + strings.Repeat("a", 34) + "$__"

// linkedBytecode is 0x60 <20-byte placeholder> 5b
var linkedBytecode = "0x60" + placeholder + "5b"

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func hardhatArtifact(name, source, bytecode string, links map[string]any) map[string]any {
	if links == nil {
		links = map[string]any{}
	}
	return map[string]any{
		"_format":        "hh-sol-artifact-1",
		"contractName":   name,
		"sourceName":     source,
		"abi":            json.RawMessage(gatewayABI),
		"bytecode":       bytecode,
		"linkReferences": links,
	}
}

func foundryArtifact(name, source, bytecode string) map[string]any {
	return map[string]any{
		"abi": json.RawMessage(`[]`),
		"bytecode": map[string]any{
			"object":         bytecode,
			"linkReferences": map[string]any{},
		},
		"metadata": map[string]any{
			"compiler": map[string]any{"version": "0.8.19"},
			"settings": map[string]any{
				"compilationTarget": map[string]string{source: name},
			},
		},
	}
}

func toStringLinks() map[string]any {
	return map[string]any{
		"contracts/ToString.sol": map[string]any{
			"ToString": []map[string]int{{"start": 1, "length": 20}},
		},
	}
}
