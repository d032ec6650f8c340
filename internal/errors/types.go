package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNoDefinitionFile   = errors.New("no definition file configured")
	ErrParseFailed        = errors.New("definition parsing failed")
	ErrCyclicAlias        = errors.New("cyclic stage alias")
	ErrUnknownCluster     = errors.New("unknown cluster")
	ErrSchemaFileNotFound = errors.New("schema file not found")
	ErrMissingSecret      = errors.New("missing secret")
	ErrStageNotFound      = errors.New("stage not found")
	ErrFileSystemFailed   = errors.New("filesystem operation failed")
)

// NoDefinitionFileError is returned when a load is attempted without a
// configured definition file path.
type NoDefinitionFileError struct{}

func (e *NoDefinitionFileError) Error() string {
	return "no definition file configured (expected a path to service.yml)"
}

func (e *NoDefinitionFileError) Is(target error) bool { return target == ErrNoDefinitionFile }

// ParseError wraps a rejection from the YAML parser or the structural
// validation pass, identifying the offending file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to parse definition text: %v", e.Err)
	}
	return fmt.Sprintf("failed to parse definition file %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParseFailed }

// CyclicAliasError reports a stage alias chain that revisits a key.
type CyclicAliasError struct {
	Stage string
}

func (e *CyclicAliasError) Error() string {
	return fmt.Sprintf("stage alias %q is part of a cycle and cannot be resolved to a cluster", e.Stage)
}

func (e *CyclicAliasError) Is(target error) bool { return target == ErrCyclicAlias }

// UnknownClusterError reports a resolved stage bound to a cluster absent
// from the registry.
type UnknownClusterError struct {
	Stage   string
	Cluster string
}

func (e *UnknownClusterError) Error() string {
	return fmt.Sprintf("stage %q references unknown cluster %q", e.Stage, e.Cluster)
}

func (e *UnknownClusterError) Is(target error) bool { return target == ErrUnknownCluster }

// SchemaFileNotFoundError reports the first missing datamodel payload path.
type SchemaFileNotFoundError struct {
	Path string
}

func (e *SchemaFileNotFoundError) Error() string {
	return fmt.Sprintf("datamodel file not found: %s", e.Path)
}

func (e *SchemaFileNotFoundError) Is(target error) bool { return target == ErrSchemaFileNotFound }

// MissingSecretError reports a definition with neither a usable secret nor
// disableAuth: true.
type MissingSecretError struct{}

func (e *MissingSecretError) Error() string {
	return "definition must set either a non-empty 'secret' or 'disableAuth: true'"
}

func (e *MissingSecretError) Is(target error) bool { return target == ErrMissingSecret }

// StageNotFoundError is raised only by strict stage lookups.
type StageNotFoundError struct {
	Stage string
}

func (e *StageNotFoundError) Error() string {
	return fmt.Sprintf("stage %q not found and no 'default' stage is defined", e.Stage)
}

func (e *StageNotFoundError) Is(target error) bool { return target == ErrStageNotFound }

// StagectlError carries user-facing context around an underlying failure.
type StagectlError struct {
	Type        error
	Context     string
	Cause       string
	Suggestion  string
	OriginalErr error
}

func (e *StagectlError) Error() string {
	return e.OriginalErr.Error()
}

func (e *StagectlError) Unwrap() error {
	return e.OriginalErr
}

func NewStagectlError(errorType error, context, cause, suggestion string, originalErr error) *StagectlError {
	return &StagectlError{
		Type:        errorType,
		Context:     context,
		Cause:       cause,
		Suggestion:  suggestion,
		OriginalErr: originalErr,
	}
}

func NewLoadError(context, cause, suggestion string, originalErr error) *StagectlError {
	return NewStagectlError(ErrParseFailed, context, cause, suggestion, originalErr)
}

func NewFileSystemError(context, cause, suggestion string, originalErr error) *StagectlError {
	return NewStagectlError(ErrFileSystemFailed, context, cause, suggestion, originalErr)
}
