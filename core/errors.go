package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ServiceErrorValidationFailed                 = "VALIDATION_FAILED"
	ServiceErrorSnapshotStoreNotConfigured       = "SNAPSHOT_STORE_NOT_CONFIGURED"
	ServiceErrorSnapshotNotFound                 = "SNAPSHOT_NOT_FOUND"
	ServiceErrorPartnerNotFound                  = "PARTNER_NOT_FOUND"
	ServiceErrorWalletNotFound                   = "WALLET_NOT_FOUND"
	ServiceErrorAccountAliasNotFound             = "ACCOUNT_ALIAS_NOT_FOUND"
	ServiceErrorAutomationUserNotFound           = "AUTOMATION_USER_NOT_FOUND"
	ServiceErrorOriginatorMetadataMissing        = "ORIGINATOR_METADATA_MISSING"
	ServiceErrorClientNotInitialized             = "CLIENT_NOT_INITIALIZED"
	ServiceErrorClientAlreadyInitialized         = "CLIENT_ALREADY_INITIALIZED"
	ServiceErrorTransactionExecutorNotConfigured = "TRANSACTION_EXECUTOR_NOT_CONFIGURED"
	ServiceErrorProvisionerNotConfigured         = "PROVISIONER_NOT_CONFIGURED"
	ServiceErrorAccountLocked                    = "ACCOUNT_LOCKED"
	ServiceErrorBadInput                         = "CUSTODY_BAD_INPUT"
	ServiceErrorExternal                         = "CUSTODY_EXTERNAL_FAILURE"
	ServiceErrorInternal                         = "CUSTODY_INTERNAL_ERROR"
)

// CodedError is implemented by package level typed errors that carry a
// stable text code.
type CodedError interface {
	error
	ErrorTextCode() string
	ErrorCategory() goerrors.Category
}

func serviceErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureServiceErrorEnvelope(richErr)
	}

	var coded CodedError
	if errors.As(err, &coded) {
		return wrapServiceError(err, coded.ErrorCategory(), coded.ErrorTextCode(), err.Error())
	}

	switch {
	case errors.Is(err, ErrSnapshotNotFound):
		return wrapServiceError(err, goerrors.CategoryNotFound, ServiceErrorSnapshotNotFound, err.Error())
	case errors.Is(err, ErrOriginatorMetadataMissing):
		return wrapServiceError(err, goerrors.CategoryBadInput, ServiceErrorOriginatorMetadataMissing, err.Error())
	case errors.Is(err, ErrClientNotInitialized):
		return wrapServiceError(err, goerrors.CategoryOperation, ServiceErrorClientNotInitialized, err.Error())
	case errors.Is(err, ErrClientAlreadyInitialized):
		return wrapServiceError(err, goerrors.CategoryConflict, ServiceErrorClientAlreadyInitialized, err.Error())
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "lock already held"):
		return newServiceError(err.Error(), goerrors.CategoryConflict, ServiceErrorAccountLocked)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return newServiceError(err.Error(), goerrors.CategoryBadInput, ServiceErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureServiceErrorEnvelope(mapped)
}

// MapError converts any error into the custody error envelope.
func MapError(err error) *goerrors.Error {
	return serviceErrorMapper(err)
}

func newServiceError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureServiceErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func wrapServiceError(source error, category goerrors.Category, textCode string, message string) *goerrors.Error {
	return ensureServiceErrorEnvelope(
		goerrors.Wrap(source, category, message).
			WithTextCode(textCode),
	)
}

func ensureServiceErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = serviceHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultServiceTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultServiceTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ServiceErrorBadInput
	case goerrors.CategoryNotFound:
		return ServiceErrorSnapshotNotFound
	case goerrors.CategoryExternal:
		return ServiceErrorExternal
	default:
		return ServiceErrorInternal
	}
}

func serviceHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
