package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoRenderableContent signals a timeline with nothing to export.
	ErrNoRenderableContent = errors.New("no renderable content")
	// ErrMissingSource signals that a path-based strategy was selected but a
	// required source path could not be resolved. Analyzer and preparer
	// disagree; this is an internal bug, not a user error.
	ErrMissingSource = errors.New("missing source")
	// ErrInvalidExportConfiguration signals that no export strategy matched
	// the analyzed timeline. The analyzer's decision tree is expected to be
	// exhaustive, so any occurrence is treated as an analyzer defect.
	ErrInvalidExportConfiguration = errors.New("invalid export configuration")
	// ErrResourceUnavailable signals that an in-memory resource's backing
	// data has been discarded and can no longer be acquired.
	ErrResourceUnavailable = errors.New("resource unavailable")
	// ErrAudioValidation classifies per-file audio validation failures.
	// Callers recover by excluding the file rather than aborting.
	ErrAudioValidation = errors.New("audio validation failed")
	// ErrProcessInvocation signals a non-zero exit from the external encoder.
	ErrProcessInvocation = errors.New("encoder process failed")
	// ErrExportBusy signals that another export is already in flight.
	ErrExportBusy = errors.New("export already in progress")
	// ErrConfiguration classifies invalid or missing configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrExternalTool classifies failures of required external binaries.
	ErrExternalTool = errors.New("external tool error")
)

// Wrap builds an error that includes component and operation context while
// tagging it with the provided sentinel marker for classification.
func Wrap(marker error, component, operation, hint string, err error) error {
	detail := buildDetail(component, operation, hint)
	if marker == nil {
		marker = ErrConfiguration
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether the error should abort the whole export. Audio
// validation failures are the only recoverable kind.
func Fatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrAudioValidation)
}

// InternalBug reports whether the error indicates a defect in the
// orchestration engine itself rather than bad input or environment.
func InternalBug(err error) bool {
	return errors.Is(err, ErrMissingSource) || errors.Is(err, ErrInvalidExportConfiguration)
}

func buildDetail(component, operation, hint string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if hint = strings.TrimSpace(hint); hint != "" {
		parts = append(parts, hint)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
