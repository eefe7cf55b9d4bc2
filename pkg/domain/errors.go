package domain

import "errors"

// Addressing errors returned by Bundle.At.
var (
	// ErrMissingKey is returned when a record has neither the positional key nor a ResultKey entry.
	ErrMissingKey = errors.New("missing key")
	// ErrIndexOutOfRange is returned when a position is outside a sequence.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrNotSequence is returned when the ResultKey entry cannot be indexed.
	ErrNotSequence = errors.New("result entry is not a sequence")
)

// Registry errors.
var (
	// ErrNodeTypeNotFound is returned when a node type name is not registered.
	ErrNodeTypeNotFound = errors.New("node type not found")
	// ErrDuplicateNodeType is returned when a name is registered twice.
	ErrDuplicateNodeType = errors.New("node type already registered")
	// ErrRegistrySealed is returned when registering after discovery finished.
	ErrRegistrySealed = errors.New("node type registry is sealed")
	// ErrUnknownOperation is returned when a node is invoked with an operation it does not declare.
	ErrUnknownOperation = errors.New("unknown operation")
)

// Bootstrap and plugin loading errors.
var (
	// ErrSymbolNotFound is returned when an importer cannot resolve a module symbol.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrNoExecutionContext is returned when discovery runs before the loop/server/queue exist.
	ErrNoExecutionContext = errors.New("execution context not initialized")
)

// ErrInvalidWorkflow is returned by workflow validation.
var ErrInvalidWorkflow = errors.New("invalid workflow")

// ErrRunNotFound is returned when a run record cannot be found in the store.
var ErrRunNotFound = errors.New("run not found")

// ErrArtifactNotFound is returned when an artifact key does not exist.
var ErrArtifactNotFound = errors.New("artifact not found")
