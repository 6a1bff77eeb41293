package models

import (
	"math/big"
)

// EstimateSpec is a contract paired with fixed constructor arguments.
// Addresses of contracts that do not exist yet are replaced by placeholders.
type EstimateSpec struct {
	Name     string
	Artifact string
	Args     []any
	Known    bool // already deployed; reported but not estimated
}

// ArtifactName returns the artifact identifier, falling back to the spec name
func (s *EstimateSpec) ArtifactName() string {
	if s.Artifact != "" {
		return s.Artifact
	}
	return s.Name
}

// FeeEstimate is the estimated deployment gas of one contract
type FeeEstimate struct {
	Name         string
	ContractName string
	Amount       *big.Int
}

// FeeReport aggregates per-contract estimates
type FeeReport struct {
	Estimates []*FeeEstimate
	Skipped   []string
	Total     *big.Int
}

// NewFeeReport returns an empty report with a zero total
func NewFeeReport() *FeeReport {
	return &FeeReport{Total: new(big.Int)}
}

// Add appends an estimate and accumulates it into the total
func (r *FeeReport) Add(estimate *FeeEstimate) {
	r.Estimates = append(r.Estimates, estimate)
	r.Total.Add(r.Total, estimate.Amount)
}
