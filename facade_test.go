package custody

import (
	"context"
	"testing"

	custodycommand "github.com/goliatone/go-custody/command"
	"github.com/goliatone/go-custody/core"
	custodyquery "github.com/goliatone/go-custody/query"
)

func TestNewFacade_WiresCommandsAndQueries(t *testing.T) {
	facade, err := NewFacade(&stubFacadeService{}, WithArtifactReader(stubFacadeArtifactReader{}))
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	commands := facade.Commands()
	if commands.ProvisionOriginator == nil || commands.RegisterArtifacts == nil || commands.InitiateDisbursement == nil {
		t.Fatalf("expected command handlers to be wired")
	}
	queries := facade.Queries()
	if queries.ProvisioningSnapshot == nil || queries.ProvisioningArtifacts == nil {
		t.Fatalf("expected query handlers to be wired")
	}
}

func TestFacade_CommandAndQueryDelegation(t *testing.T) {
	svc := &stubFacadeService{}
	facade, err := NewFacade(svc, WithArtifactReader(stubFacadeArtifactReader{}))
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	if err := facade.Commands().InitiateDisbursement.Execute(context.Background(), custodycommand.InitiateDisbursementMessage{
		Request: core.DisbursementRequest{LoanID: "loan-1", PartnerID: "partner-a"},
	}); err != nil {
		t.Fatalf("execute disbursement command: %v", err)
	}
	if svc.lastLoanID != "loan-1" {
		t.Fatalf("unexpected disbursement delegation payload: %q", svc.lastLoanID)
	}

	snapshot, err := facade.Queries().ProvisioningSnapshot.Query(context.Background(), custodyquery.GetProvisioningSnapshotMessage{
		OriginatorID: "orig-1",
	})
	if err != nil {
		t.Fatalf("query snapshot: %v", err)
	}
	if snapshot.SubOrganizationID != "sub-orig-1" {
		t.Fatalf("unexpected snapshot query result: %#v", snapshot)
	}

	artifacts, err := facade.Queries().ProvisioningArtifacts.Query(context.Background(), custodyquery.GetProvisioningArtifactsMessage{
		OriginatorID: "orig-1",
	})
	if err != nil {
		t.Fatalf("query artifacts: %v", err)
	}
	if artifacts.PlatformConfigHash != "hash-orig-1" {
		t.Fatalf("unexpected artifacts query result: %#v", artifacts)
	}
}

func TestNewFacade_ResolvesValidatorFromServiceDependencies(t *testing.T) {
	svc, err := NewService(DefaultConfig())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	facade, err := NewFacade(svc)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	result, err := facade.Queries().ValidateConfiguration.Query(context.Background(), custodyquery.ValidateConfigurationMessage{})
	if err != nil {
		t.Fatalf("validate configuration query: %v", err)
	}
	if result.IsValid || len(result.Errors) == 0 {
		t.Fatalf("expected empty configuration to fail validation, got %#v", result)
	}

	if _, err := facade.Queries().ProvisioningArtifacts.Query(context.Background(), custodyquery.GetProvisioningArtifactsMessage{}); err == nil {
		t.Fatalf("expected missing artifact reader error")
	}
}

func TestNewService_WiresDefaultProvisionerFactory(t *testing.T) {
	svc, err := NewService(DefaultConfig())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	deps := svc.Dependencies()
	if deps.Validator == nil {
		t.Fatalf("expected default validator")
	}
	if deps.SnapshotStore != nil {
		t.Fatalf("expected no snapshot store unless configured")
	}

	provisioner, err := DefaultProvisionerFactory()(nil)
	if err != nil || provisioner == nil {
		t.Fatalf("expected orchestrator from default factory, got %v", err)
	}
}

func TestNewFacade_RequiresService(t *testing.T) {
	facade, err := NewFacade(nil)
	if err == nil {
		t.Fatalf("expected nil service error")
	}
	if facade != nil {
		t.Fatalf("expected nil facade on error")
	}
}

type stubFacadeService struct {
	lastLoanID string
}

func (s *stubFacadeService) Initialize(context.Context, core.PlatformConfig) error { return nil }

func (s *stubFacadeService) ProvisionOriginator(context.Context, core.OriginatorConfiguration) (core.ProvisioningResult, error) {
	return core.ProvisioningResult{}, nil
}

func (s *stubFacadeService) RegisterProvisioningArtifacts(context.Context, core.ProvisioningArtifacts) error {
	return nil
}

func (s *stubFacadeService) GetProvisioningSnapshot(_ context.Context, originatorID string) (core.ProvisioningSnapshot, error) {
	return core.ProvisioningSnapshot{SubOrganizationID: "sub-" + originatorID}, nil
}

func (s *stubFacadeService) InitiateDisbursement(
	_ context.Context,
	req core.DisbursementRequest,
	_ ...core.DisbursementOption,
) (core.DisbursementResult, error) {
	s.lastLoanID = req.LoanID
	return core.DisbursementResult{LoanID: req.LoanID, Status: core.DisbursementStatusSubmitted}, nil
}

type stubFacadeArtifactReader struct{}

func (stubFacadeArtifactReader) GetArtifacts(_ context.Context, originatorID string) (core.ProvisioningArtifacts, error) {
	return core.ProvisioningArtifacts{PlatformConfigHash: "hash-" + originatorID}, nil
}

var _ CommandQueryService = (*stubFacadeService)(nil)
