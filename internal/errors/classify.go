package errors

import (
	"context"
	"errors"
	"os"
	"os/exec"
)

// Classify upgrades an arbitrary error into an *Error at a system boundary.
// It is used by the filesystem, processrunner, and prompter adapters so
// that everything above those boundaries only ever sees *Error.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return New(CodeTimeout, "operation timed out").WithCause(err).SetRetryable(true)
	}
	if errors.Is(err, context.Canceled) {
		return New(CodeCancelled, "operation cancelled").WithCause(err)
	}
	if errors.Is(err, os.ErrNotExist) {
		return New(CodeArtifactNotFound, "path does not exist").WithCause(err)
	}
	if errors.Is(err, os.ErrPermission) {
		return New(CodeArtifactPermission, "permission denied").WithCause(err)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.ProcessState != nil {
			if status, ok := signalStatus(exitErr); ok {
				return New(CodeEngineSignaled, "engine process was signaled").
					WithCause(err).WithContext("signal", status)
			}
		}
		return New(CodeEngineNonZeroExit, "engine exited with a non-zero status").WithCause(err)
	}

	return New(CodeUnknown, "an unexpected error occurred").WithCause(err)
}

// ClassifyWithCode classifies err, falling back to defaultCode when no more
// specific classification applies.
func ClassifyWithCode(err error, defaultCode Code) *Error {
	if err == nil {
		return nil
	}
	classified := Classify(err)
	if classified.Code == CodeUnknown {
		classified.Code = defaultCode
	}
	return classified
}
