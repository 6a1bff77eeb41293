package models

import (
	"encoding/json"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Artifact represents a compiled contract loaded from the artifacts directory.
// Hardhat (artifacts-zk) and Foundry (out) layouts are both accepted.
type Artifact struct {
	ContractName string          `json:"contractName"`
	SourceName   string          `json:"sourceName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     Bytecode        `json:"bytecode"`

	// Populated by the loader, not read from the artifact file
	Path          string `json:"-"`
	BuildInfoPath string `json:"-"`
}

// FullyQualifiedName returns "path/To.sol:Contract", the form verification services expect
func (a *Artifact) FullyQualifiedName() string {
	if a.SourceName == "" {
		return a.ContractName
	}
	return a.SourceName + ":" + a.ContractName
}

// Bytecode holds creation bytecode.
// It handles both formats:
// - Simple string: "0x608060..." (Hardhat)
// - Object with "object" field: {"object": "0x608060..."} (Foundry)
type Bytecode struct {
	hex string
}

// NewBytecode creates bytecode from a hex string
func NewBytecode(hex string) Bytecode {
	return Bytecode{hex: hex}
}

// UnmarshalJSON handles both string and object bytecode formats.
func (b *Bytecode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		b.hex = s
		return nil
	}

	var obj struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	b.hex = obj.Object
	return nil
}

// MarshalJSON writes the bytecode as a plain hex string
func (b Bytecode) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.hex)
}

// Hex returns the 0x-prefixed hex string
func (b Bytecode) Hex() string {
	if b.hex == "" || strings.HasPrefix(b.hex, "0x") {
		return b.hex
	}
	return "0x" + b.hex
}

// Bytes returns the decoded bytecode
func (b Bytecode) Bytes() []byte {
	return common.FromHex(b.hex)
}

// IsEmpty reports whether the artifact has no creation code (interfaces, abstract contracts)
func (b Bytecode) IsEmpty() bool {
	return len(b.Bytes()) == 0
}
