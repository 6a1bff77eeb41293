package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound is returned when a requested resource doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidAddress is returned when an Ethereum address is invalid
	ErrInvalidAddress = errors.New("invalid address")

	// ErrNetworkMismatch is returned when the RPC endpoint reports a different chain than configured
	ErrNetworkMismatch = errors.New("network mismatch")

	// ErrContractNotFound is returned when a contract artifact can't be found
	ErrContractNotFound = errors.New("contract not found")

	// ErrVerificationFailed is returned when contract verification fails
	ErrVerificationFailed = errors.New("verification failed")

	// ErrTransactionReverted is returned when a deployment transaction is mined but reverted
	ErrTransactionReverted = errors.New("transaction reverted")

	// ErrAborted is returned when the operator declines to broadcast
	ErrAborted = errors.New("aborted by user")
)

// ConfigError reports a missing or invalid setting. It fails a run before
// any network interaction happens.
type ConfigError struct {
	Setting string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("missing required setting %s", e.Setting)
}

// MissingPrivateKeyError builds the operator-facing error for an unset key variable.
func MissingPrivateKeyError(envVar string) *ConfigError {
	return &ConfigError{
		Setting: envVar,
		Message: fmt.Sprintf("Please set your %s in the '.env' file. Use the '.env.example' file as an example.", envVar),
	}
}

// ArtifactError reports an artifact that could not be located or parsed.
type ArtifactError struct {
	Name        string
	Suggestions []string
	Err         error
}

func (e *ArtifactError) Error() string {
	msg := fmt.Sprintf("artifact %s: %v", e.Name, e.Err)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean: %s?)", strings.Join(e.Suggestions, ", "))
	}
	return msg
}

func (e *ArtifactError) Unwrap() error {
	return e.Err
}

// BackendError reports a failed RPC interaction (estimation, send, receipt).
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// StepError identifies which contract of a sequence failed.
type StepError struct {
	Index int // 1-based
	Name  string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s) failed: %v", e.Index, e.Name, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
