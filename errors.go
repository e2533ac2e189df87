package machinegen

import (
	"github.com/goliatone/go-errors"
)

// Text codes for programmer-error and I/O conditions. Recoverable diagram
// findings never surface as errors; they travel as Diagnostic values.
const (
	ErrCodeConfigInvalid    = "GEN_CONFIG_INVALID"
	ErrCodeScheduleInvalid  = "GEN_SCHEDULE_INVALID"
	ErrCodeSourceUnreadable = "GEN_SOURCE_UNREADABLE"
	ErrCodeArtifactWrite    = "GEN_ARTIFACT_WRITE"
	ErrCodeManifestPersist  = "GEN_MANIFEST_PERSIST"
	ErrCodeEmitterPanic     = "GEN_EMITTER_PANIC"
	ErrCodeUnknownEmitter   = "GEN_UNKNOWN_EMITTER"
	ErrCodeEmitterConflict  = "GEN_EMITTER_CONFLICT"
	ErrCodeNilEmitter       = "GEN_NIL_EMITTER"
	ErrCodeNilMachine       = "GEN_NIL_MACHINE"
)

// ConfigError reports an invalid or unusable configuration value.
func ConfigError(msg string) error {
	return errors.New(msg, errors.CategoryBadInput).
		WithTextCode(ErrCodeConfigInvalid)
}

// ScheduleError reports a cron expression the watch host cannot parse.
func ScheduleError(expression string, err error) error {
	return errors.Wrap(err, errors.CategoryBadInput, "parse watch schedule").
		WithTextCode(ErrCodeScheduleInvalid).
		WithMetadata(map[string]any{"expression": expression})
}

// SourceReadError marks a single unreadable diagram source. The batch keeps
// going; the pipeline records the error in its summary.
func SourceReadError(path string, err error) error {
	return errors.Wrap(err, errors.CategoryExternal, "read diagram source").
		WithTextCode(ErrCodeSourceUnreadable).
		WithMetadata(map[string]any{"path": path})
}

// ArtifactWriteError marks a failed artifact write for one machine.
func ArtifactWriteError(path string, err error) error {
	return errors.Wrap(err, errors.CategoryExternal, "write generated artifact").
		WithTextCode(ErrCodeArtifactWrite).
		WithMetadata(map[string]any{"path": path})
}

// ManifestPersistError marks a failed manifest save after emission.
func ManifestPersistError(path string, err error) error {
	return errors.Wrap(err, errors.CategoryExternal, "persist build manifest").
		WithTextCode(ErrCodeManifestPersist).
		WithMetadata(map[string]any{"path": path})
}

// EmitterPanicError converts a recovered emitter panic into a coded error.
// Output already produced by other emitters stays intact.
func EmitterPanicError(kind string, recovered any) error {
	return errors.New("emitter panicked", errors.CategoryHandler).
		WithTextCode(ErrCodeEmitterPanic).
		WithMetadata(map[string]any{"kind": kind, "panic": recovered})
}

// UnknownEmitterError reports a render request for an unregistered kind.
func UnknownEmitterError(kind string) error {
	return errors.New("unknown emitter kind", errors.CategoryBadInput).
		WithTextCode(ErrCodeUnknownEmitter).
		WithMetadata(map[string]any{"kind": kind})
}

// EmitterConflictError reports a second registration under one emitter kind.
func EmitterConflictError(kind string) error {
	return errors.New("emitter kind already registered", errors.CategoryConflict).
		WithTextCode(ErrCodeEmitterConflict).
		WithMetadata(map[string]any{"kind": kind})
}

// NilEmitterError reports a nil emitter handed to the registry.
func NilEmitterError() error {
	return errors.New("emitter is required", errors.CategoryBadInput).
		WithTextCode(ErrCodeNilEmitter)
}

// NilMachineError reports a nil IR handed to an emitter or the registry.
func NilMachineError() error {
	return errors.New("generated machine is required", errors.CategoryBadInput).
		WithTextCode(ErrCodeNilMachine)
}
