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

	// ErrConfiguration marks a missing or invalid network name or required parameter.
	// Always raised before any network call.
	ErrConfiguration = errors.New("configuration error")

	// ErrDependency marks a library link that cannot be resolved
	ErrDependency = errors.New("dependency error")

	// ErrDeployment marks a failed deployment transaction
	ErrDeployment = errors.New("deployment failed")

	// ErrVerification marks a failed source verification submission
	ErrVerification = errors.New("verification failed")

	// ErrStorage marks an unreadable, corrupt or unwritable deployment store
	ErrStorage = errors.New("deployment store error")
)

// ConfigurationError is returned for missing or invalid configuration.
type ConfigurationError struct {
	Field  string
	Reason string
	// Missing lists every unset environment variable when the error comes from
	// plan interpolation.
	Missing []string
}

func (e *ConfigurationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("configuration error: missing required environment variables: %s", strings.Join(e.Missing, ", "))
	}
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// DependencyError is returned when a contract declares a library with no stored deployment.
type DependencyError struct {
	Contract string
	Library  string
	Network  string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("dependency error: %s requires library %s, which is not deployed on %s", e.Contract, e.Library, e.Network)
}

func (e *DependencyError) Is(target error) bool {
	return target == ErrDependency
}

// DeploymentError wraps the failure of a deployment transaction.
type DeploymentError struct {
	Contract string
	Network  string
	Err      error
}

func (e *DeploymentError) Error() string {
	return fmt.Sprintf("failed to deploy %s on %s: %v", e.Contract, e.Network, e.Err)
}

func (e *DeploymentError) Unwrap() error {
	return e.Err
}

func (e *DeploymentError) Is(target error) bool {
	return target == ErrDeployment
}

// VerificationError wraps the failure of a single verification submission.
type VerificationError struct {
	Contract string
	Address  string
	Err      error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("failed to verify %s at %s: %v", e.Contract, e.Address, e.Err)
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

func (e *VerificationError) Is(target error) bool {
	return target == ErrVerification
}

// StorageError wraps a failure to read or write the deployment store.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("deployment store %s: %v", e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
