package usecase

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/trebuchet-org/zkdeploy/internal/domain"
	"github.com/trebuchet-org/zkdeploy/internal/domain/models"
	"gopkg.in/yaml.v3"
)

// DefaultPlaceholder stands in for contracts that are not deployed yet when estimating fees
const DefaultPlaceholder = "0x2F5CdC894a519809b8b8d958493084db9D5164f2"

// PlanFile is the YAML layout of a deploy plan
type PlanFile struct {
	Name        string      `yaml:"name"`
	Placeholder string      `yaml:"placeholder"`
	Contracts   []PlanEntry `yaml:"contracts"`
}

// PlanEntry is one contract of a plan. Args are kept as raw nodes so
// large integers reach the ABI encoder with their exact text.
type PlanEntry struct {
	Name         string       `yaml:"name"`
	Artifact     string       `yaml:"artifact"`
	Args         []yaml.Node  `yaml:"args"`
	EstimateArgs *[]yaml.Node `yaml:"estimate_args"`
	Address      string       `yaml:"address"`
	Verify       bool         `yaml:"verify"`
	Source       string       `yaml:"source"`
}

// EnvLookup resolves environment variables referenced by a plan
type EnvLookup func(key string) (string, bool)

// Plan is a validated deploy plan
type Plan struct {
	Name        string
	Path        string
	Placeholder common.Address
	entries     []*planEntry
}

type planEntry struct {
	name         string
	artifact     string
	address      *common.Address
	args         []argValue
	estimateArgs []argValue
	hasEstimate  bool
	verify       *models.VerifySpec
}

// argValue is a parsed plan argument: a literal, a reference or a list
type argValue struct {
	literal string
	ref     string
	items   []argValue
	isList  bool
}

// LoadPlan reads and validates a plan file, expanding ${VAR} references from the process environment
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}

	plan, err := ParsePlan(data, os.LookupEnv)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", path, err)
	}
	plan.Path = path
	if plan.Name == "" {
		plan.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return plan, nil
}

// ParsePlan decodes plan YAML and validates it
func ParsePlan(data []byte, lookup EnvLookup) (*Plan, error) {
	var file PlanFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}
	if len(file.Contracts) == 0 {
		return nil, &domain.ConfigError{Setting: "contracts", Message: "plan has no contracts"}
	}

	plan := &Plan{Name: file.Name}

	placeholder := DefaultPlaceholder
	if file.Placeholder != "" {
		expanded, err := expandEnv(file.Placeholder, lookup)
		if err != nil {
			return nil, err
		}
		placeholder = expanded
	}
	if !common.IsHexAddress(placeholder) {
		return nil, fmt.Errorf("placeholder %q: %w", placeholder, domain.ErrInvalidAddress)
	}
	plan.Placeholder = common.HexToAddress(placeholder)

	for i, raw := range file.Contracts {
		entry, err := compileEntry(raw, lookup)
		if err != nil {
			return nil, fmt.Errorf("contract %d (%s): %w", i+1, raw.Name, err)
		}
		plan.entries = append(plan.entries, entry)
	}

	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return plan, nil
}

func compileEntry(raw PlanEntry, lookup EnvLookup) (*planEntry, error) {
	entry := &planEntry{
		name:     raw.Name,
		artifact: raw.Artifact,
	}

	if raw.Address != "" {
		addr, err := expandEnv(raw.Address, lookup)
		if err != nil {
			return nil, err
		}
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("address %q: %w", addr, domain.ErrInvalidAddress)
		}
		known := common.HexToAddress(addr)
		entry.address = &known

		if len(raw.Args) > 0 || raw.EstimateArgs != nil {
			return nil, fmt.Errorf("an already deployed contract takes no arguments")
		}
		if raw.Verify || raw.Source != "" {
			return nil, fmt.Errorf("an already deployed contract cannot be verified by a deploy run")
		}
		return entry, nil
	}

	var err error
	if entry.args, err = parseArgs(raw.Args, lookup); err != nil {
		return nil, err
	}
	if raw.EstimateArgs != nil {
		entry.hasEstimate = true
		if entry.estimateArgs, err = parseArgs(*raw.EstimateArgs, lookup); err != nil {
			return nil, fmt.Errorf("estimate_args: %w", err)
		}
	}

	// A source name implies verification
	if raw.Verify || raw.Source != "" {
		entry.verify = &models.VerifySpec{Contract: raw.Source}
	}
	return entry, nil
}

func parseArgs(nodes []yaml.Node, lookup EnvLookup) ([]argValue, error) {
	args := make([]argValue, 0, len(nodes))
	for i := range nodes {
		v, err := parseArg(&nodes[i], lookup)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		args = append(args, v)
	}
	return args, nil
}

func parseArg(node *yaml.Node, lookup EnvLookup) (argValue, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return argValue{}, fmt.Errorf("null is not a valid constructor argument")
		}
		text := node.Value
		switch {
		case strings.HasPrefix(text, "@@"):
			expanded, err := expandEnv(text[1:], lookup)
			return argValue{literal: expanded}, err
		case strings.HasPrefix(text, "@"):
			ref := strings.TrimSpace(text[1:])
			if ref == "" {
				return argValue{}, fmt.Errorf("%q names no contract: use @Name, or @@ for a literal @", text)
			}
			return argValue{ref: ref}, nil
		}
		expanded, err := expandEnv(text, lookup)
		return argValue{literal: expanded}, err

	case yaml.SequenceNode:
		list := argValue{isList: true, items: make([]argValue, 0, len(node.Content))}
		for i, child := range node.Content {
			item, err := parseArg(child, lookup)
			if err != nil {
				return argValue{}, fmt.Errorf("element %d: %w", i, err)
			}
			list.items = append(list.items, item)
		}
		return list, nil

	case yaml.AliasNode:
		return parseArg(node.Alias, lookup)
	}

	return argValue{}, fmt.Errorf("unsupported argument at line %d: only scalars and lists are allowed", node.Line)
}

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} references. Unset or empty variables are an error.
func expandEnv(s string, lookup EnvLookup) (string, error) {
	var missing []string
	out := envPattern.ReplaceAllStringFunc(s, func(match string) string {
		key := envPattern.FindStringSubmatch(match)[1]
		value, ok := lookup(key)
		if !ok || value == "" {
			missing = append(missing, key)
			return ""
		}
		return value
	})
	if len(missing) > 0 {
		missing = lo.Uniq(missing)
		return "", &domain.ConfigError{
			Setting: missing[0],
			Message: fmt.Sprintf("Please set %s in the '.env' file or the environment: the deploy plan references it.", strings.Join(missing, ", ")),
		}
	}
	return out, nil
}

// Validate checks names and the ordering of references
func (p *Plan) Validate() error {
	position := make(map[string]int, len(p.entries))
	for i, entry := range p.entries {
		if entry.name == "" {
			return fmt.Errorf("contract %d has no name", i+1)
		}
		if prev, ok := position[entry.name]; ok {
			return fmt.Errorf("duplicate contract name %s (entries %d and %d)", entry.name, prev+1, i+1)
		}
		position[entry.name] = i
	}

	for i, entry := range p.entries {
		refs := collectRefs(entry.args)
		refs = append(refs, collectRefs(entry.estimateArgs)...)
		for _, ref := range lo.Uniq(refs) {
			at, ok := position[ref]
			switch {
			case !ok:
				return fmt.Errorf("contract %s references unknown contract %s", entry.name, ref)
			case at >= i:
				return fmt.Errorf("contract %s references %s, which must be listed before it", entry.name, ref)
			}
		}
	}
	return nil
}

func collectRefs(args []argValue) []string {
	var refs []string
	for _, a := range args {
		switch {
		case a.isList:
			refs = append(refs, collectRefs(a.items)...)
		case a.ref != "":
			refs = append(refs, a.ref)
		}
	}
	return refs
}

// Names returns the contract names in plan order
func (p *Plan) Names() []string {
	return lo.Map(p.entries, func(e *planEntry, _ int) string { return e.name })
}

// Specs compiles the plan into sequencer steps
func (p *Plan) Specs() []*models.ContractSpec {
	specs := make([]*models.ContractSpec, 0, len(p.entries))
	for _, entry := range p.entries {
		spec := &models.ContractSpec{
			Name:     entry.name,
			Artifact: entry.artifact,
			Address:  entry.address,
			Verify:   entry.verify,
		}
		if !spec.IsKnown() {
			args := entry.args
			spec.Args = func(deployed models.Addresses) ([]any, error) {
				return resolveArgs(args, deployed.Get)
			}
		}
		specs = append(specs, spec)
	}
	return specs
}

// EstimateSpecs compiles the plan into estimator input. References to
// contracts the plan would deploy are replaced by the placeholder address.
func (p *Plan) EstimateSpecs() ([]models.EstimateSpec, error) {
	known := make(map[string]common.Address)
	for _, entry := range p.entries {
		if entry.address != nil {
			known[entry.name] = *entry.address
		}
	}
	lookup := func(name string) (common.Address, error) {
		if addr, ok := known[name]; ok {
			return addr, nil
		}
		return p.Placeholder, nil
	}

	specs := make([]models.EstimateSpec, 0, len(p.entries))
	for _, entry := range p.entries {
		spec := models.EstimateSpec{
			Name:     entry.name,
			Artifact: entry.artifact,
			Known:    entry.address != nil,
		}
		if !spec.Known {
			args := entry.args
			if entry.hasEstimate {
				args = entry.estimateArgs
			}
			resolved, err := resolveArgs(args, lookup)
			if err != nil {
				return nil, fmt.Errorf("contract %s: %w", entry.name, err)
			}
			spec.Args = resolved
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func resolveArgs(args []argValue, lookup func(string) (common.Address, error)) ([]any, error) {
	out := make([]any, 0, len(args))
	for _, a := range args {
		v, err := resolveArg(a, lookup)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func resolveArg(a argValue, lookup func(string) (common.Address, error)) (any, error) {
	switch {
	case a.isList:
		return resolveArgs(a.items, lookup)
	case a.ref != "":
		return lookup(a.ref)
	}
	return a.literal, nil
}
