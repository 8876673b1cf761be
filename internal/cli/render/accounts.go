package render

import (
	"fmt"
	"io"
	"math/big"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/treb-gateway/internal/usecase"
)

var weiPerEther = big.NewInt(1_000_000_000_000_000_000)

// AccountsRenderer renders signer accounts
type AccountsRenderer struct {
	out io.Writer
}

// NewAccountsRenderer creates a new accounts renderer
func NewAccountsRenderer(out io.Writer) *AccountsRenderer {
	return &AccountsRenderer{out: out}
}

// Render prints one row per account. The first account is the deployer.
func (r *AccountsRenderer) Render(result *usecase.ListAccountsResult) error {
	if len(result.Accounts) == 0 {
		fmt.Fprintf(r.out, "No accounts available on %s\n", result.Network.Name)
		return nil
	}

	t := newTable(3)
	for i, account := range result.Accounts {
		role := ""
		if i == 0 {
			role = successStyle.Sprint("deployer")
		}
		t.AppendRow(table.Row{addressStyle.Sprint(account.Address), formatEther(account.Balance), role})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}

func formatEther(wei *big.Int) string {
	if wei == nil {
		return "-"
	}
	return new(big.Rat).SetFrac(wei, weiPerEther).FloatString(4)
}
