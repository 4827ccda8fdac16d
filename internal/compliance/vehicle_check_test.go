package compliance

import (
	"context"
	"errors"
	"testing"

	"github.com/VineLink/VineLink/internal/vehicle"
)

func TestCheckVehicleComplianceFullyCompliant(t *testing.T) {
	f := defaultFixtures()
	svc := newTestService(f)

	res, err := svc.CheckVehicleCompliance(context.Background(), "veh-1")
	if err != nil {
		t.Fatalf("CheckVehicleCompliance failed: %v", err)
	}
	if !res.CanProceed {
		t.Fatalf("expected CanProceed=true, violations=%+v", res.Violations)
	}
	if len(res.Violations) != 0 || len(res.Warnings) != 0 {
		t.Fatalf("expected clean result, got violations=%d warnings=%d", len(res.Violations), len(res.Warnings))
	}
}

func TestCheckVehicleComplianceNoRecord(t *testing.T) {
	f := defaultFixtures()
	f.vehicles.v = nil
	svc := newTestService(f)

	res, err := svc.CheckVehicleCompliance(context.Background(), "veh-missing")
	if err != nil {
		t.Fatalf("CheckVehicleCompliance failed: %v", err)
	}
	if res.CanProceed || res.AllowsAdminOverride {
		t.Fatalf("vehicle without record: CanProceed=%v AllowsAdminOverride=%v, want false/false",
			res.CanProceed, res.AllowsAdminOverride)
	}
}

func TestCheckVehicleComplianceInactiveNotOverridable(t *testing.T) {
	f := defaultFixtures()
	f.vehicles.v.Active = false
	svc := newTestService(f)

	res, err := svc.CheckVehicleCompliance(context.Background(), "veh-1")
	if err != nil {
		t.Fatalf("CheckVehicleCompliance failed: %v", err)
	}
	if res.CanProceed {
		t.Fatalf("inactive vehicle must be blocked")
	}
	if res.AllowsAdminOverride {
		t.Fatalf("inactive vehicle must not be overridable")
	}
}

func TestCheckVehicleComplianceCriticalDefect(t *testing.T) {
	f := defaultFixtures()
	f.vehicles.ins = &vehicle.Inspection{
		ID:             "ins-1",
		VehicleID:      "veh-1",
		InspectedAt:    testNow.AddDate(0, 0, -2),
		DefectsFound:   true,
		DefectSeverity: vehicle.DefectCritical,
	}
	svc := newTestService(f)

	res, err := svc.CheckVehicleCompliance(context.Background(), "veh-1")
	if err != nil {
		t.Fatalf("CheckVehicleCompliance failed: %v", err)
	}
	if res.CanProceed {
		t.Fatalf("critical defect must block")
	}
	if res.AllowsAdminOverride {
		t.Fatalf("critical defect must not be overridable")
	}
	pv := res.PrimaryViolation()
	if pv == nil || pv.Type != ViolationCriticalDefect {
		t.Fatalf("unexpected primary violation: %+v", pv)
	}
	if pv.Citation != "49 CFR 396.7" {
		t.Fatalf("unexpected citation: %s", pv.Citation)
	}
}

func TestCheckVehicleComplianceMajorDefectDoesNotBlock(t *testing.T) {
	f := defaultFixtures()
	f.vehicles.ins = &vehicle.Inspection{
		ID:             "ins-2",
		VehicleID:      "veh-1",
		InspectedAt:    testNow.AddDate(0, 0, -2),
		DefectsFound:   true,
		DefectSeverity: vehicle.DefectMajor,
	}
	svc := newTestService(f)

	res, err := svc.CheckVehicleCompliance(context.Background(), "veh-1")
	if err != nil {
		t.Fatalf("CheckVehicleCompliance failed: %v", err)
	}
	if !res.CanProceed {
		t.Fatalf("non-critical defect must not block, violations=%+v", res.Violations)
	}
}

func TestCheckVehicleComplianceExpiredRegistrationOverridable(t *testing.T) {
	f := defaultFixtures()
	f.vehicles.v.RegistrationExpiresAt = daysFromNow(-5)
	svc := newTestService(f)

	res, err := svc.CheckVehicleCompliance(context.Background(), "veh-1")
	if err != nil {
		t.Fatalf("CheckVehicleCompliance failed: %v", err)
	}
	if res.CanProceed {
		t.Fatalf("expired registration must block")
	}
	if !res.AllowsAdminOverride {
		t.Fatalf("expired registration should be overridable")
	}
	pv := res.PrimaryViolation()
	if pv == nil || pv.Type != ViolationRegistrationExpired {
		t.Fatalf("unexpected primary violation: %+v", pv)
	}
	if pv.DaysOverdue != 5 {
		t.Fatalf("expected DaysOverdue=5, got %d", pv.DaysOverdue)
	}
}

func TestCheckVehicleComplianceDOTInspectionOverdue(t *testing.T) {
	f := defaultFixtures()
	f.vehicles.v.LastDOTInspectionAt = daysFromNow(-366)
	svc := newTestService(f)

	res, err := svc.CheckVehicleCompliance(context.Background(), "veh-1")
	if err != nil {
		t.Fatalf("CheckVehicleCompliance failed: %v", err)
	}
	if !hasViolation(res, ViolationDOTInspectionOverdue) {
		t.Fatalf("expected DOT inspection overdue violation, got %+v", res.Violations)
	}
	if !res.CanProceed {
		t.Fatalf("overdue periodic inspection alone must not block")
	}
}

func TestCheckVehicleComplianceOpenCriticalViolations(t *testing.T) {
	f := defaultFixtures()
	f.violations.vehicleOpen = 1
	svc := newTestService(f)

	res, err := svc.CheckVehicleCompliance(context.Background(), "veh-1")
	if err != nil {
		t.Fatalf("CheckVehicleCompliance failed: %v", err)
	}
	if res.CanProceed {
		t.Fatalf("open critical violations must block")
	}
	if !res.AllowsAdminOverride {
		t.Fatalf("open violations block should be overridable")
	}
}

func TestCheckVehicleComplianceInspectionStoreError(t *testing.T) {
	f := defaultFixtures()
	f.vehicles.insErr = errors.New("db gone")
	svc := newTestService(f)

	if _, err := svc.CheckVehicleCompliance(context.Background(), "veh-1"); err == nil {
		t.Fatalf("inspection store error must fail the check")
	}
}
