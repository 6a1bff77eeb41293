package models

import (
	"fmt"
	"maps"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Addresses maps contract names to the addresses produced by earlier steps
type Addresses map[string]common.Address

// Get returns the address of a prior step or an error naming the missing contract
func (a Addresses) Get(name string) (common.Address, error) {
	addr, ok := a[name]
	if !ok {
		return common.Address{}, fmt.Errorf("address of %s is not available yet", name)
	}
	return addr, nil
}

// Clone returns a copy that later steps cannot mutate
func (a Addresses) Clone() Addresses {
	return maps.Clone(a)
}

// ArgsBuilder produces the ordered constructor arguments for a step.
// It only ever sees addresses of the steps before it.
type ArgsBuilder func(deployed Addresses) ([]any, error)

// StaticArgs returns a builder that ignores prior addresses
func StaticArgs(args ...any) ArgsBuilder {
	return func(Addresses) ([]any, error) {
		return args, nil
	}
}

// ContractSpec describes one step of a deployment sequence
type ContractSpec struct {
	Name     string // key other steps use to reference this contract
	Artifact string // artifact to load, usually the contract name
	Args     ArgsBuilder

	// Address marks a contract that is already deployed. No artifact is
	// loaded and no transaction is sent; the address is fed to later steps.
	Address *common.Address

	Verify *VerifySpec
}

// IsKnown reports whether the spec points at an existing deployment
func (s *ContractSpec) IsKnown() bool {
	return s.Address != nil
}

// ArtifactName returns the artifact identifier, falling back to the spec name
func (s *ContractSpec) ArtifactName() string {
	if s.Artifact != "" {
		return s.Artifact
	}
	return s.Name
}

// VerifySpec requests source verification after deployment
type VerifySpec struct {
	// Contract is the fully qualified "path/To.sol:Name"; empty means derive it from the artifact
	Contract string
}

// DeployedContract is the outcome of one completed step
type DeployedContract struct {
	Name            string         `json:"name"`
	ContractName    string         `json:"contractName,omitempty"`
	Address         common.Address `json:"address"`
	TxHash          *common.Hash   `json:"txHash,omitempty"`
	Known           bool           `json:"known,omitempty"`
	Source          string         `json:"source,omitempty"` // fully qualified name used for verification
	ConstructorArgs hexutil.Bytes  `json:"constructorArgs,omitempty"`

	Artifact     *Artifact           `json:"-"`
	Verification *VerificationResult `json:"verification,omitempty"`
}

// VerificationStatus represents the verification status
type VerificationStatus string

const (
	VerificationStatusVerified VerificationStatus = "verified"
	VerificationStatusFailed   VerificationStatus = "failed"
	VerificationStatusSkipped  VerificationStatus = "skipped"
)

// VerificationRequest carries what a verification service needs for one contract
type VerificationRequest struct {
	Address         common.Address
	Contract        string // fully qualified name
	ConstructorArgs []byte
	Artifact        *Artifact
}

// VerificationResult records a best-effort verification attempt
type VerificationResult struct {
	Status VerificationStatus `json:"status"`
	ID     string             `json:"id,omitempty"`
	URL    string             `json:"url,omitempty"`
	Reason string             `json:"reason,omitempty"`
}
