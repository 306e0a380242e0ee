package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrorKindMissingCredential ErrorKind = "missing_credential"
	ErrorKindDocumentParse     ErrorKind = "document_parse"
	ErrorKindEmptyText         ErrorKind = "empty_text"
	ErrorKindAuthentication    ErrorKind = "authentication"
	ErrorKindQuota             ErrorKind = "quota"
	ErrorKindNetwork           ErrorKind = "network"
	ErrorKindCanceled          ErrorKind = "canceled"
	ErrorKindMalformedResponse ErrorKind = "malformed_response"
	ErrorKindRemote            ErrorKind = "remote"
)

// Error is a classified failure that the web layer can render without
// inspecting message text.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// AsError returns err as *Error, wrapping unclassified errors as remote.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}

	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr
	}

	return NewError(ErrorKindRemote, err.Error(), err)
}

// KindOf returns the kind of err or an empty kind when err is nil.
func KindOf(err error) ErrorKind {
	if e := AsError(err); e != nil {
		return e.Kind
	}

	return ""
}
