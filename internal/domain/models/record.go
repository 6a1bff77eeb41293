package models

import (
	"time"
)

// RunStatus is the final state of a deployment run
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// DeploymentRecord is the persisted summary of a deploy run on one network
type DeploymentRecord struct {
	RunID       string              `json:"runId"`
	Network     string              `json:"network"`
	ChainID     uint64              `json:"chainId"`
	Plan        string              `json:"plan,omitempty"`
	Status      RunStatus           `json:"status"`
	Error       string              `json:"error,omitempty"`
	StartedAt   time.Time           `json:"startedAt"`
	CompletedAt time.Time           `json:"completedAt"`
	Contracts   []*DeployedContract `json:"contracts"`
}

// Find returns the recorded contract with the given name
func (r *DeploymentRecord) Find(name string) (*DeployedContract, bool) {
	for _, c := range r.Contracts {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}
