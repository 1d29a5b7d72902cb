package disbursement

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// Code is the closed set of execution failure codes.
type Code string

const (
	CodeTokenNotConfigured           Code = "TOKEN_NOT_CONFIGURED"
	CodeAccountAddressUnavailable    Code = "ACCOUNT_ADDRESS_UNAVAILABLE"
	CodeAccountIdentifierUnavailable Code = "ACCOUNT_IDENTIFIER_UNAVAILABLE"
	CodeRPCEndpointNotConfigured     Code = "RPC_ENDPOINT_NOT_CONFIGURED"
	CodeRPCError                     Code = "RPC_ERROR"
	CodeInvalidChainID               Code = "INVALID_CHAIN_ID"
	CodeSigningFailed                Code = "TURNKEY_SIGNING_FAILED"
	CodeInvalidAmountFormat          Code = "INVALID_AMOUNT_FORMAT"
	CodeAmountPrecisionExceeded      Code = "AMOUNT_PRECISION_EXCEEDED"
	CodeEncodingError                Code = "ENCODING_ERROR"
)

// ExecutionError reports the step at which a disbursement failed. Cause is
// the originating error, if any.
type ExecutionError struct {
	Code    Code
	Message string
	Details map[string]any
	Cause   error
}

func newExecutionError(code Code, cause error, details map[string]any, format string, args ...any) *ExecutionError {
	return &ExecutionError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: details,
		Cause:   cause,
	}
}

func (e *ExecutionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("disbursement %s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("disbursement %s: %s", e.Code, e.Message)
}

func (e *ExecutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func (e *ExecutionError) ErrorTextCode() string {
	if e == nil {
		return ""
	}
	return string(e.Code)
}

func (e *ExecutionError) ErrorCategory() goerrors.Category {
	if e == nil {
		return goerrors.CategoryInternal
	}
	switch e.Code {
	case CodeInvalidChainID, CodeInvalidAmountFormat, CodeAmountPrecisionExceeded, CodeEncodingError:
		return goerrors.CategoryBadInput
	case CodeTokenNotConfigured, CodeRPCEndpointNotConfigured:
		return goerrors.CategoryNotFound
	case CodeAccountAddressUnavailable, CodeAccountIdentifierUnavailable:
		return goerrors.CategoryOperation
	case CodeRPCError, CodeSigningFailed:
		return goerrors.CategoryExternal
	default:
		return goerrors.CategoryInternal
	}
}

// CodeOf returns the execution code carried by err, if any.
func CodeOf(err error) (Code, bool) {
	var execErr *ExecutionError
	if goerrors.As(err, &execErr) && execErr != nil {
		return execErr.Code, true
	}
	return "", false
}
