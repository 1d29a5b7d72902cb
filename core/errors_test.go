package core

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

type testCodedError struct {
	code string
}

func (e testCodedError) Error() string { return "coded failure " + e.code }

func (e testCodedError) ErrorTextCode() string { return e.code }

func (testCodedError) ErrorCategory() goerrors.Category { return goerrors.CategoryExternal }

func TestServiceErrorMapper_AssignsStableCodes(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		textCode string
		category goerrors.Category
		status   int
	}{
		{
			name:     "snapshot not found",
			err:      fmt.Errorf("%w: orig-1", ErrSnapshotNotFound),
			textCode: ServiceErrorSnapshotNotFound,
			category: goerrors.CategoryNotFound,
			status:   http.StatusNotFound,
		},
		{
			name:     "originator metadata",
			err:      ErrOriginatorMetadataMissing,
			textCode: ServiceErrorOriginatorMetadataMissing,
			category: goerrors.CategoryBadInput,
			status:   http.StatusBadRequest,
		},
		{
			name:     "client not initialized",
			err:      ErrClientNotInitialized,
			textCode: ServiceErrorClientNotInitialized,
			category: goerrors.CategoryOperation,
		},
		{
			name:     "client already initialized",
			err:      ErrClientAlreadyInitialized,
			textCode: ServiceErrorClientAlreadyInitialized,
			category: goerrors.CategoryConflict,
			status:   http.StatusConflict,
		},
		{
			name:     "account lock",
			err:      stderrors.New("core: disbursement lock already held for account \"acct-1\""),
			textCode: ServiceErrorAccountLocked,
			category: goerrors.CategoryConflict,
			status:   http.StatusConflict,
		},
		{
			name:     "required input",
			err:      stderrors.New("core: originator id is required"),
			textCode: ServiceErrorBadInput,
			category: goerrors.CategoryBadInput,
			status:   http.StatusBadRequest,
		},
		{
			name:     "coded error",
			err:      fmt.Errorf("wrapped: %w", testCodedError{code: "RPC_FAILED"}),
			textCode: "RPC_FAILED",
			category: goerrors.CategoryExternal,
			status:   http.StatusBadGateway,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := serviceErrorMapper(tc.err)
			if mapped == nil {
				t.Fatalf("expected mapped error")
			}
			if mapped.TextCode != tc.textCode {
				t.Fatalf("expected text code %q, got %q", tc.textCode, mapped.TextCode)
			}
			if mapped.Category != tc.category {
				t.Fatalf("expected category %q, got %q", tc.category, mapped.Category)
			}
			if mapped.Code == 0 {
				t.Fatalf("expected http status code on mapped error")
			}
			if tc.status != 0 && mapped.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, mapped.Code)
			}
		})
	}
}

func TestServiceErrorMapper_PreservesRichErrors(t *testing.T) {
	source := goerrors.New("partner missing", goerrors.CategoryNotFound).WithTextCode(ServiceErrorPartnerNotFound)
	mapped := MapError(fmt.Errorf("outer: %w", source))
	if mapped.TextCode != ServiceErrorPartnerNotFound {
		t.Fatalf("expected rich text code to survive, got %q", mapped.TextCode)
	}
	if mapped.Code != http.StatusNotFound {
		t.Fatalf("expected not found status, got %d", mapped.Code)
	}
	if MapError(nil) != nil {
		t.Fatalf("expected nil for nil input")
	}
}

func TestServiceErrorMapper_FallsBackToInternal(t *testing.T) {
	mapped := serviceErrorMapper(stderrors.New("something odd happened"))
	if mapped.TextCode == "" {
		t.Fatalf("expected fallback text code")
	}
	if mapped.Code == 0 {
		t.Fatalf("expected fallback status code")
	}
}

func TestServiceMethods_MapErrorsToStableServiceCodes(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService(Config{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.GetProvisioningSnapshot(ctx, "orig-1")
	assertTextCode(t, err, ServiceErrorSnapshotStoreNotConfigured)

	err = svc.RegisterProvisioningArtifacts(ctx, ProvisioningArtifacts{})
	assertTextCode(t, err, ServiceErrorSnapshotStoreNotConfigured)

	err = svc.Initialize(ctx, testPlatform("orig-1"))
	assertTextCode(t, err, ServiceErrorClientNotInitialized)

	_, err = svc.InitiateDisbursement(ctx, testRequest("partner-a"))
	assertTextCode(t, err, ServiceErrorTransactionExecutorNotConfigured)
}

func assertTextCode(t *testing.T, err error, textCode string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error", textCode)
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected go-errors type, got %T", err)
	}
	if richErr.TextCode != textCode {
		t.Fatalf("expected text code %q, got %q", textCode, richErr.TextCode)
	}
}
