package compliance

import (
	"context"
	"fmt"

	"github.com/VineLink/VineLink/internal/vehicle"
	"github.com/VineLink/VineLink/internal/violation"
)

// CheckVehicleCompliance 按固定顺序核验车辆：
// 在役状态 → 行驶登记 → 保险 → DOT 年检 → 最近缺陷巡检 → 未处理违规。
func (s *Service) CheckVehicleCompliance(ctx context.Context, vehicleID string) (*CheckResult, error) {
	v, err := s.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("load vehicle compliance %s: %w", vehicleID, err)
	}

	res := &CheckResult{}
	if v == nil {
		res.addViolation(Violation{
			Type:     ViolationVehicleInactive,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("vehicle %s has no compliance record", vehicleID),
		})
		res.CanProceed = false
		res.AllowsAdminOverride = false
		return res, nil
	}

	today := dateOnly(s.now())

	if !v.Active {
		res.addViolation(Violation{
			Type:     ViolationVehicleInactive,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("vehicle %s is not in active service", vehicleID),
		})
	}

	s.checkCredential(res, today, credential{
		name:        "vehicle registration",
		expiresAt:   v.RegistrationExpiresAt,
		missingType: ViolationRegistrationMissing,
		expiredType: ViolationRegistrationExpired,
	})

	s.checkCredential(res, today, credential{
		name:        "vehicle insurance",
		expiresAt:   v.InsuranceExpiresAt,
		missingType: ViolationInsuranceMissing,
		expiredType: ViolationInsuranceExpired,
	})

	s.checkReview(res, today, review{
		name:        "DOT inspection",
		performedAt: v.LastDOTInspectionAt,
		missingType: ViolationDOTInspectionMissing,
		overdueType: ViolationDOTInspectionOverdue,
		citation:    "49 CFR 396.17",
	})

	ins, err := s.vehicles.LatestDefectInspection(ctx, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("load latest defect inspection %s: %w", vehicleID, err)
	}
	if ins != nil && ins.DefectSeverity == vehicle.DefectCritical {
		res.addViolation(Violation{
			Type:     ViolationCriticalDefect,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("latest inspection (%s) found a critical defect", ins.InspectedAt.UTC().Format("2006-01-02")),
			Citation: "49 CFR 396.7",
		})
	}

	open, err := s.violations.CountOpenCritical(ctx, violation.EntityVehicle, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("count open vehicle violations %s: %w", vehicleID, err)
	}
	if open > 0 {
		res.addViolation(Violation{
			Type:     ViolationVehicleOpenViolations,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("vehicle has %d unresolved critical violation(s)", open),
		})
	}

	res.finalize(nonOverridableVehicle)
	return res, nil
}
