// Package zstderrors defines the sentinel error taxonomy shared by every
// package in this module. Callers branch on these values with errors.Is;
// call sites add context with fmt.Errorf("...: %w", ...).
package zstderrors

import "errors"

var (
	ErrPrefixUnknown             = errors.New("zstd: unknown frame prefix")
	ErrVersionUnsupported        = errors.New("zstd: unsupported format version")
	ErrFrameParameterUnsupported = errors.New("zstd: unsupported frame parameter")
	ErrWindowTooLarge            = errors.New("zstd: declared window size exceeds windowLogMax")
	ErrCorruption                = errors.New("zstd: corruption detected")
	ErrChecksumWrong             = errors.New("zstd: content checksum mismatch")
	ErrDictionaryCorrupted       = errors.New("zstd: dictionary corrupted")
	ErrDictionaryWrong           = errors.New("zstd: dictionary ID mismatch")
	ErrDictionaryCreationFailed  = errors.New("zstd: dictionary creation failed")
	ErrParameterUnsupported      = errors.New("zstd: unsupported parameter")
	ErrParameterOutOfBound       = errors.New("zstd: parameter out of bound")
	ErrTableLogTooLarge          = errors.New("zstd: tableLog too large")
	ErrMaxSymbolValueTooLarge    = errors.New("zstd: maxSymbolValue too large")
	ErrMaxSymbolValueTooSmall    = errors.New("zstd: maxSymbolValue too small")
	ErrStageWrong                = errors.New("zstd: operation invalid in current stage")
	ErrInitMissing               = errors.New("zstd: context not initialized")
	ErrMemoryAllocation          = errors.New("zstd: memory allocation failed")
	ErrWorkspaceTooSmall         = errors.New("zstd: workspace too small")
	ErrDstSizeTooSmall           = errors.New("zstd: destination buffer too small")
	ErrSrcSizeWrong              = errors.New("zstd: source size incorrect")
	ErrDstBufferNull             = errors.New("zstd: destination buffer is nil")
	ErrNoForwardProgress         = errors.New("zstd: streaming call made no forward progress")
	ErrGeneric                   = errors.New("zstd: generic error")
)
