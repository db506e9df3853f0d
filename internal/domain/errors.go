package domain

import "errors"

var (
	ErrUnknownFormat        = errors.New("unknown archive format")
	ErrCorruptArchive       = errors.New("corrupt archive")
	ErrNestedArchiveTooDeep = errors.New("nested archive too deep")
	ErrNoDescriptorFound    = errors.New("no mod descriptor found")
	ErrUnparsableDescriptor = errors.New("unparsable mod descriptor")
	ErrExtractionFailed     = errors.New("extraction failed")
	ErrSwapFailed           = errors.New("swap failed")
	ErrRemovalFailed        = errors.New("removal failed")
	ErrAmbiguousMatch       = errors.New("ambiguous mod match")
	ErrModNotFound          = errors.New("mod not found")
	ErrNoVersionFile        = errors.New("no version checker file")
	ErrDependencyLoop       = errors.New("circular dependency detected")
	ErrDownloadFailed       = errors.New("download failed")
	ErrInvalidConfig        = errors.New("invalid configuration")
)
