package command

import (
	"context"
	"errors"
	"testing"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-custody/core"
)

func TestProvisionOriginatorCommand_ExecuteDelegatesAndStoresResult(t *testing.T) {
	expected := core.ProvisioningResult{
		Artifacts: core.ProvisioningArtifacts{PlatformConfigHash: "hash-1"},
		Warnings:  []string{"no partners are enabled"},
	}
	called := false

	svc := stubMutatingService{
		provisionFn: func(_ context.Context, cfg core.OriginatorConfiguration) (core.ProvisioningResult, error) {
			called = true
			if cfg.Platform.Originator.OriginatorID != "orig-1" {
				t.Fatalf("expected originator orig-1, got %q", cfg.Platform.Originator.OriginatorID)
			}
			return expected, nil
		},
	}

	cmd := NewProvisionOriginatorCommand(svc)
	collector := gocmd.NewResult[core.ProvisioningResult]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	cfg := core.OriginatorConfiguration{}
	cfg.Platform.Originator.OriginatorID = "orig-1"
	if err := cmd.Execute(ctx, ProvisionOriginatorMessage{Configuration: cfg}); err != nil {
		t.Fatalf("execute provision: %v", err)
	}
	if !called {
		t.Fatalf("expected provisioning service invocation")
	}
	result, ok := collector.Load()
	if !ok {
		t.Fatalf("expected result to be stored")
	}
	if result.Artifacts.PlatformConfigHash != "hash-1" || len(result.Warnings) != 1 {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestMutationCommands_DelegateToService(t *testing.T) {
	t.Run("initialize", func(t *testing.T) {
		called := false
		svc := stubMutatingService{
			initializeFn: func(_ context.Context, platform core.PlatformConfig) error {
				called = true
				if platform.OrganizationID != "org-1" {
					t.Fatalf("unexpected organization: %q", platform.OrganizationID)
				}
				return nil
			},
		}
		msg := InitializePlatformMessage{Platform: core.PlatformConfig{OrganizationID: "org-1"}}
		if err := NewInitializePlatformCommand(svc).Execute(context.Background(), msg); err != nil {
			t.Fatalf("execute initialize: %v", err)
		}
		if !called {
			t.Fatalf("expected initialize invocation")
		}
	})

	t.Run("register artifacts", func(t *testing.T) {
		called := false
		svc := stubMutatingService{
			registerFn: func(_ context.Context, artifacts core.ProvisioningArtifacts) error {
				called = true
				if artifacts.PlatformConfigHash != "hash-2" {
					t.Fatalf("unexpected artifacts: %#v", artifacts)
				}
				return nil
			},
		}
		msg := RegisterArtifactsMessage{Artifacts: core.ProvisioningArtifacts{PlatformConfigHash: "hash-2"}}
		if err := NewRegisterArtifactsCommand(svc).Execute(context.Background(), msg); err != nil {
			t.Fatalf("execute register: %v", err)
		}
		if !called {
			t.Fatalf("expected register invocation")
		}
	})

	t.Run("initiate disbursement", func(t *testing.T) {
		snapshot := core.ProvisioningSnapshot{SubOrganizationID: "sub-1"}
		svc := stubMutatingService{
			disburseFn: func(_ context.Context, req core.DisbursementRequest, opts ...core.DisbursementOption) (core.DisbursementResult, error) {
				if req.LoanID != "loan-1" {
					t.Fatalf("unexpected request: %#v", req)
				}
				if len(opts) != 1 {
					t.Fatalf("expected bound disbursement option, got %d", len(opts))
				}
				return core.DisbursementResult{LoanID: req.LoanID, Status: core.DisbursementStatusSubmitted, TransactionHash: "0xabc"}, nil
			},
		}
		cmd := NewInitiateDisbursementCommand(svc, core.WithSnapshot(snapshot))
		collector := gocmd.NewResult[core.DisbursementResult]()
		ctx := gocmd.ContextWithResult(context.Background(), collector)
		if err := cmd.Execute(ctx, InitiateDisbursementMessage{Request: core.DisbursementRequest{LoanID: "loan-1"}}); err != nil {
			t.Fatalf("execute disbursement: %v", err)
		}
		result, ok := collector.Load()
		if !ok || result.TransactionHash != "0xabc" || result.Status != core.DisbursementStatusSubmitted {
			t.Fatalf("unexpected stored result: %#v (stored=%v)", result, ok)
		}
	})
}

func TestInitiateDisbursementCommand_PropagatesErrorWithoutStoring(t *testing.T) {
	failure := errors.New("executor down")
	svc := stubMutatingService{
		disburseFn: func(context.Context, core.DisbursementRequest, ...core.DisbursementOption) (core.DisbursementResult, error) {
			return core.DisbursementResult{}, failure
		},
	}
	collector := gocmd.NewResult[core.DisbursementResult]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)
	err := NewInitiateDisbursementCommand(svc).Execute(ctx, InitiateDisbursementMessage{})
	if !errors.Is(err, failure) {
		t.Fatalf("expected executor failure, got %v", err)
	}
	if _, ok := collector.Load(); ok {
		t.Fatalf("expected no stored result on failure")
	}
}

func TestCommands_ExecuteWithoutResultCollector(t *testing.T) {
	svc := stubMutatingService{
		provisionFn: func(context.Context, core.OriginatorConfiguration) (core.ProvisioningResult, error) {
			return core.ProvisioningResult{}, nil
		},
	}
	if err := NewProvisionOriginatorCommand(svc).Execute(context.Background(), ProvisionOriginatorMessage{}); err != nil {
		t.Fatalf("expected execute without collector to succeed: %v", err)
	}
}

func TestMessageTypes(t *testing.T) {
	cases := map[string]interface{ Type() string }{
		TypeInitializePlatform:   InitializePlatformMessage{},
		TypeProvisionOriginator:  ProvisionOriginatorMessage{},
		TypeRegisterArtifacts:    RegisterArtifactsMessage{},
		TypeInitiateDisbursement: InitiateDisbursementMessage{},
	}
	for expected, msg := range cases {
		if msg.Type() != expected {
			t.Fatalf("expected type %q, got %q", expected, msg.Type())
		}
	}
}

type stubMutatingService struct {
	initializeFn func(context.Context, core.PlatformConfig) error
	provisionFn  func(context.Context, core.OriginatorConfiguration) (core.ProvisioningResult, error)
	registerFn   func(context.Context, core.ProvisioningArtifacts) error
	disburseFn   func(context.Context, core.DisbursementRequest, ...core.DisbursementOption) (core.DisbursementResult, error)
}

func (s stubMutatingService) Initialize(ctx context.Context, platform core.PlatformConfig) error {
	if s.initializeFn == nil {
		return nil
	}
	return s.initializeFn(ctx, platform)
}

func (s stubMutatingService) ProvisionOriginator(
	ctx context.Context,
	cfg core.OriginatorConfiguration,
) (core.ProvisioningResult, error) {
	if s.provisionFn == nil {
		return core.ProvisioningResult{}, nil
	}
	return s.provisionFn(ctx, cfg)
}

func (s stubMutatingService) RegisterProvisioningArtifacts(ctx context.Context, artifacts core.ProvisioningArtifacts) error {
	if s.registerFn == nil {
		return nil
	}
	return s.registerFn(ctx, artifacts)
}

func (s stubMutatingService) InitiateDisbursement(
	ctx context.Context,
	req core.DisbursementRequest,
	opts ...core.DisbursementOption,
) (core.DisbursementResult, error) {
	if s.disburseFn == nil {
		return core.DisbursementResult{}, nil
	}
	return s.disburseFn(ctx, req, opts...)
}
