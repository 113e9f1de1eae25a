package compendium

import (
	"errors"
	"fmt"
)

// MetadataErrorCode categorizes rejected realm, document and transfer
// operations.
type MetadataErrorCode string

const (
	// CodeNotFound indicates the addressed realm or document does not exist.
	CodeNotFound MetadataErrorCode = "NOT_FOUND"

	// CodeAlreadyExists indicates a realm or document with that identity exists.
	CodeAlreadyExists MetadataErrorCode = "ALREADY_EXISTS"

	// CodeNotEmpty indicates a realm that still holds documents.
	CodeNotEmpty MetadataErrorCode = "NOT_EMPTY"

	// CodeInvalidParent indicates a document whose realm does not exist.
	CodeInvalidParent MetadataErrorCode = "INVALID_PARENT"

	// CodeCannotRelocateProtectedResource indicates an attempt to move a
	// built-in document.
	CodeCannotRelocateProtectedResource MetadataErrorCode = "CANNOT_RELOCATE_PROTECTED_RESOURCE"

	// CodeInvalidID indicates an empty identity component or one containing
	// the key separator.
	CodeInvalidID MetadataErrorCode = "INVALID_ID"
)

// MetadataError is returned when an operation is rejected. Nothing has been
// written when it is returned.
type MetadataError struct {
	Code MetadataErrorCode
	// Key is the key of the offending resource, if known.
	Key string
}

// Sentinels for errors.Is. They match any MetadataError with the same code.
var (
	ErrNotFound                        = &MetadataError{Code: CodeNotFound}
	ErrAlreadyExists                   = &MetadataError{Code: CodeAlreadyExists}
	ErrNotEmpty                        = &MetadataError{Code: CodeNotEmpty}
	ErrInvalidParent                   = &MetadataError{Code: CodeInvalidParent}
	ErrCannotRelocateProtectedResource = &MetadataError{Code: CodeCannotRelocateProtectedResource}
	ErrInvalidID                       = &MetadataError{Code: CodeInvalidID}
)

func (e *MetadataError) Error() string {
	if e.Key == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Key)
}

// Is matches sentinels by code.
func (e *MetadataError) Is(target error) bool {
	t, ok := target.(*MetadataError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Key == "" || t.Key == e.Key)
}

// IsMetadataError returns the error's code if err is a MetadataError.
// Uses errors.As to handle wrapped errors.
func IsMetadataError(err error) (MetadataErrorCode, bool) {
	var me *MetadataError
	if errors.As(err, &me) {
		return me.Code, true
	}
	return "", false
}

func notFound(key string) error      { return &MetadataError{Code: CodeNotFound, Key: key} }
func alreadyExists(key string) error { return &MetadataError{Code: CodeAlreadyExists, Key: key} }
