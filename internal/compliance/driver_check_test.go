package compliance

import (
	"context"
	"errors"
	"testing"
)

func TestCheckDriverComplianceFullyQualified(t *testing.T) {
	f := defaultFixtures()
	svc := newTestService(f)

	res, err := svc.CheckDriverCompliance(context.Background(), "drv-1")
	if err != nil {
		t.Fatalf("CheckDriverCompliance failed: %v", err)
	}
	if !res.CanProceed {
		t.Fatalf("expected CanProceed=true, violations=%+v", res.Violations)
	}
	if res.AllowsAdminOverride {
		t.Fatalf("passing check must not allow override")
	}
	if len(res.Violations) != 0 || len(res.Warnings) != 0 {
		t.Fatalf("expected clean result, got violations=%d warnings=%d", len(res.Violations), len(res.Warnings))
	}
}

func TestCheckDriverComplianceNoRecord(t *testing.T) {
	f := defaultFixtures()
	f.drivers.q = nil
	svc := newTestService(f)

	res, err := svc.CheckDriverCompliance(context.Background(), "drv-missing")
	if err != nil {
		t.Fatalf("CheckDriverCompliance failed: %v", err)
	}
	if res.CanProceed {
		t.Fatalf("driver without qualification record must be blocked")
	}
	if res.AllowsAdminOverride {
		t.Fatalf("unverifiable driver must not be overridable")
	}
	pv := res.PrimaryViolation()
	if pv == nil || pv.Type != ViolationDriverInactive {
		t.Fatalf("unexpected primary violation: %+v", pv)
	}
}

func TestCheckDriverComplianceExpiredMedicalCert(t *testing.T) {
	f := defaultFixtures()
	f.drivers.q.MedicalCertExpiresAt = daysFromNow(-3)
	svc := newTestService(f)

	res, err := svc.CheckDriverCompliance(context.Background(), "drv-1")
	if err != nil {
		t.Fatalf("CheckDriverCompliance failed: %v", err)
	}
	if res.CanProceed {
		t.Fatalf("expired medical certificate must block")
	}
	// 体检证明过期是硬性门槛，不可豁免
	if res.AllowsAdminOverride {
		t.Fatalf("expired medical certificate must not be overridable")
	}
	pv := res.PrimaryViolation()
	if pv == nil || pv.Type != ViolationMedicalCertExpired {
		t.Fatalf("unexpected primary violation: %+v", pv)
	}
	if pv.DaysOverdue != 3 {
		t.Fatalf("expected DaysOverdue=3, got %d", pv.DaysOverdue)
	}
	if pv.Citation != "49 CFR 391.45" {
		t.Fatalf("unexpected citation: %s", pv.Citation)
	}
}

func TestCheckDriverComplianceExpiredLicenseNotOverridable(t *testing.T) {
	f := defaultFixtures()
	f.drivers.q.LicenseExpiresAt = daysFromNow(-1)
	svc := newTestService(f)

	res, err := svc.CheckDriverCompliance(context.Background(), "drv-1")
	if err != nil {
		t.Fatalf("CheckDriverCompliance failed: %v", err)
	}
	if res.CanProceed || res.AllowsAdminOverride {
		t.Fatalf("expired license: CanProceed=%v AllowsAdminOverride=%v, want false/false",
			res.CanProceed, res.AllowsAdminOverride)
	}
}

func TestCheckDriverComplianceExpiryWarningWindow(t *testing.T) {
	// 正好 30 天后到期：落在预警窗口边界上，算预警不算违规
	f := defaultFixtures()
	f.drivers.q.LicenseExpiresAt = daysFromNow(30)
	svc := newTestService(f)

	res, err := svc.CheckDriverCompliance(context.Background(), "drv-1")
	if err != nil {
		t.Fatalf("CheckDriverCompliance failed: %v", err)
	}
	if !res.CanProceed {
		t.Fatalf("credential inside warning window must not block, violations=%+v", res.Violations)
	}
	if !hasWarning(res, ViolationLicenseExpired) {
		t.Fatalf("expected license expiry warning, warnings=%+v", res.Warnings)
	}

	// 31 天后到期：窗口外，不产生预警
	f = defaultFixtures()
	f.drivers.q.LicenseExpiresAt = daysFromNow(31)
	svc = newTestService(f)
	res, err = svc.CheckDriverCompliance(context.Background(), "drv-1")
	if err != nil {
		t.Fatalf("CheckDriverCompliance failed: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("expected no warnings outside lookahead window, got %+v", res.Warnings)
	}
}

func TestCheckDriverComplianceExpiresTodayStillValid(t *testing.T) {
	f := defaultFixtures()
	f.drivers.q.MedicalCertExpiresAt = daysFromNow(0)
	svc := newTestService(f)

	res, err := svc.CheckDriverCompliance(context.Background(), "drv-1")
	if err != nil {
		t.Fatalf("CheckDriverCompliance failed: %v", err)
	}
	if !res.CanProceed {
		t.Fatalf("credential expiring today is still valid, violations=%+v", res.Violations)
	}
	if !hasWarning(res, ViolationMedicalCertExpired) {
		t.Fatalf("expected expiry warning for today, warnings=%+v", res.Warnings)
	}
}

func TestCheckDriverComplianceMVROverdueDoesNotBlock(t *testing.T) {
	f := defaultFixtures()
	f.drivers.q.LastMVRCheckAt = daysFromNow(-400)
	svc := newTestService(f)

	res, err := svc.CheckDriverCompliance(context.Background(), "drv-1")
	if err != nil {
		t.Fatalf("CheckDriverCompliance failed: %v", err)
	}
	if !hasViolation(res, ViolationMVROverdue) {
		t.Fatalf("expected MVR overdue violation, got %+v", res.Violations)
	}
	// major 级违规只记录，不拦截
	if !res.CanProceed {
		t.Fatalf("major violation alone must not block")
	}
}

func TestCheckDriverComplianceSuspendedIsOverridable(t *testing.T) {
	f := defaultFixtures()
	f.drivers.q.EmploymentStatus = "suspended"
	svc := newTestService(f)

	res, err := svc.CheckDriverCompliance(context.Background(), "drv-1")
	if err != nil {
		t.Fatalf("CheckDriverCompliance failed: %v", err)
	}
	if res.CanProceed {
		t.Fatalf("suspended driver must be blocked")
	}
	if !res.AllowsAdminOverride {
		t.Fatalf("inactive-driver block should remain overridable")
	}
}

func TestCheckDriverComplianceOpenCriticalViolations(t *testing.T) {
	f := defaultFixtures()
	f.violations.driverOpen = 2
	svc := newTestService(f)

	res, err := svc.CheckDriverCompliance(context.Background(), "drv-1")
	if err != nil {
		t.Fatalf("CheckDriverCompliance failed: %v", err)
	}
	if res.CanProceed {
		t.Fatalf("open critical violations must block")
	}
	if !res.AllowsAdminOverride {
		t.Fatalf("open violations block should be overridable")
	}
	if !hasViolation(res, ViolationDriverOpenViolations) {
		t.Fatalf("expected open-violations entry, got %+v", res.Violations)
	}
}

func TestCheckDriverCompliancePrimaryViolationOrder(t *testing.T) {
	// 体检过期 + 路考缺失同时存在时，Primary 必须是检查顺序靠前的体检项
	f := defaultFixtures()
	f.drivers.q.MedicalCertExpiresAt = daysFromNow(-10)
	f.drivers.q.RoadTestCompletedAt = nil
	svc := newTestService(f)

	res, err := svc.CheckDriverCompliance(context.Background(), "drv-1")
	if err != nil {
		t.Fatalf("CheckDriverCompliance failed: %v", err)
	}
	if pv := res.PrimaryViolation(); pv == nil || pv.Type != ViolationMedicalCertExpired {
		t.Fatalf("unexpected primary violation: %+v", pv)
	}
	if !hasViolation(res, ViolationRoadTestMissing) {
		t.Fatalf("road test violation must still be listed")
	}
}

func TestCheckDriverComplianceStoreErrorFailsCheck(t *testing.T) {
	f := defaultFixtures()
	f.drivers.err = errors.New("db gone")
	svc := newTestService(f)

	res, err := svc.CheckDriverCompliance(context.Background(), "drv-1")
	if err == nil {
		t.Fatalf("store error must fail the check, got result %+v", res)
	}
	if res != nil {
		t.Fatalf("no result must be returned on error")
	}
}
