package config

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-gateway/internal/domain"
	"github.com/trebuchet-org/treb-gateway/internal/domain/models"
	"gopkg.in/yaml.v3"
)

//go:embed default_plan.yaml
var defaultPlan []byte

// EnvLookup matches os.LookupEnv
type EnvLookup func(key string) (string, bool)

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// LoadPlan reads a deployment plan, or the built-in gateway plan when path is empty,
// and interpolates ${VAR} references. Every unset variable is reported at once.
func LoadPlan(path string, lookup EnvLookup) (*models.Plan, error) {
	data := defaultPlan
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, &domain.ConfigurationError{
				Field:  "plan",
				Reason: fmt.Sprintf("failed to read %s: %v", path, err),
			}
		}
		data = raw
	}

	return ParsePlan(data, lookup)
}

// ParsePlan parses and validates plan YAML
func ParsePlan(data []byte, lookup EnvLookup) (*models.Plan, error) {
	var plan models.Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, &domain.ConfigurationError{
			Field:  "plan",
			Reason: fmt.Sprintf("invalid YAML: %v", err),
		}
	}

	if lookup == nil {
		lookup = os.LookupEnv
	}

	var missing []string
	expand := func(s string) string {
		return envRef.ReplaceAllStringFunc(s, func(ref string) string {
			key := envRef.FindStringSubmatch(ref)[1]
			val, ok := lookup(key)
			if !ok || strings.TrimSpace(val) == "" {
				missing = append(missing, key)
				return ""
			}
			return val
		})
	}

	for i := range plan.Contracts {
		c := &plan.Contracts[i]
		c.Artifact = expand(c.Artifact)
		for j := range c.Args {
			c.Args[j].Value = expand(c.Args[j].Value)
		}
	}

	if len(missing) > 0 {
		return nil, &domain.ConfigurationError{
			Field:   "plan",
			Missing: lo.Uniq(missing),
		}
	}

	if err := ValidatePlan(&plan); err != nil {
		return nil, err
	}

	return &plan, nil
}

// ValidatePlan checks a plan before anything touches the network.
// Library names that are not part of the plan are allowed; they must already be
// stored for the target network and fail at run time otherwise.
func ValidatePlan(plan *models.Plan) error {
	if plan == nil || len(plan.Contracts) == 0 {
		return &domain.ConfigurationError{Field: "plan", Reason: "no contracts to deploy"}
	}

	seen := make(map[string]bool, len(plan.Contracts))
	for i := range plan.Contracts {
		c := &plan.Contracts[i]
		field := fmt.Sprintf("contracts[%d]", i)

		if strings.TrimSpace(c.Name) == "" {
			return &domain.ConfigurationError{Field: field, Reason: "name is required"}
		}
		field = fmt.Sprintf("contracts.%s", c.Name)

		if seen[c.Name] {
			return &domain.ConfigurationError{Field: field, Reason: "duplicate contract name"}
		}
		seen[c.Name] = true

		switch c.Kind {
		case "":
			c.Kind = models.KindContract
		case models.KindContract, models.KindLibrary:
		default:
			return &domain.ConfigurationError{Field: field, Reason: fmt.Sprintf("unknown kind %q", c.Kind)}
		}

		if lo.Contains(c.Libraries, c.Name) {
			return &domain.ConfigurationError{Field: field, Reason: "contract cannot link against itself"}
		}
		if dups := lo.FindDuplicates(c.Libraries); len(dups) > 0 {
			return &domain.ConfigurationError{Field: field, Reason: fmt.Sprintf("library %s listed twice", dups[0])}
		}

		for j, arg := range c.Args {
			if err := validateArg(arg); err != nil {
				return &domain.ConfigurationError{
					Field:  fmt.Sprintf("%s.args[%d]", field, j),
					Reason: err.Error(),
				}
			}
		}
	}

	return nil
}

func validateArg(arg models.ConstructorArg) error {
	typ, err := arg.ABIType()
	if err != nil {
		return fmt.Errorf("invalid type %q", arg.Type)
	}
	if _, err := arg.GoValue(); err != nil {
		return err
	}
	if typ.T == abi.AddressTy && common.HexToAddress(strings.TrimSpace(arg.Value)) == (common.Address{}) {
		return fmt.Errorf("zero address is not allowed")
	}
	return nil
}
