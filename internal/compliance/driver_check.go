package compliance

import (
	"context"
	"fmt"
	"time"

	"github.com/VineLink/VineLink/internal/driver"
	"github.com/VineLink/VineLink/internal/violation"
)

// CheckDriverCompliance 按固定顺序核验司机资质：
// 在职状态 → 体检证明 → 驾照 → MVR → 年审 → 路考 → 未处理违规。
// 检查顺序决定 PrimaryViolation 的取值，不要调整。
func (s *Service) CheckDriverCompliance(ctx context.Context, driverID string) (*CheckResult, error) {
	d, err := s.drivers.FindByID(ctx, driverID)
	if err != nil {
		// 读不到数据必须报错，绝不能默认“合规”
		return nil, fmt.Errorf("load driver qualification %s: %w", driverID, err)
	}

	res := &CheckResult{}
	if d == nil {
		// 无资质记录 = 不可核验，直接拦截且不可豁免
		res.addViolation(Violation{
			Type:     ViolationDriverInactive,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("driver %s has no qualification record", driverID),
		})
		res.CanProceed = false
		res.AllowsAdminOverride = false
		return res, nil
	}

	today := dateOnly(s.now())

	if !d.Active || d.EmploymentStatus != driver.EmploymentActive {
		res.addViolation(Violation{
			Type:     ViolationDriverInactive,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("driver %s is not an active employee (status=%s)", driverID, d.EmploymentStatus),
		})
	}

	s.checkCredential(res, today, credential{
		name:        "medical certificate",
		expiresAt:   d.MedicalCertExpiresAt,
		missingType: ViolationMedicalCertMissing,
		expiredType: ViolationMedicalCertExpired,
		citation:    "49 CFR 391.45",
	})

	s.checkCredential(res, today, credential{
		name:        "driver license",
		expiresAt:   d.LicenseExpiresAt,
		missingType: ViolationLicenseMissing,
		expiredType: ViolationLicenseExpired,
		citation:    "49 CFR 383.23",
	})

	s.checkReview(res, today, review{
		name:        "MVR check",
		performedAt: d.LastMVRCheckAt,
		missingType: ViolationMVRMissing,
		overdueType: ViolationMVROverdue,
		citation:    "49 CFR 391.25(a)",
	})

	s.checkReview(res, today, review{
		name:        "annual review",
		performedAt: d.LastAnnualReviewAt,
		missingType: ViolationAnnualReviewMissing,
		overdueType: ViolationAnnualReviewOverdue,
		citation:    "49 CFR 391.25(b)",
	})

	if d.RoadTestCompletedAt == nil {
		res.addViolation(Violation{
			Type:     ViolationRoadTestMissing,
			Severity: SeverityCritical,
			Message:  "driver has no road test on file",
			Citation: "49 CFR 391.31",
		})
	}

	open, err := s.violations.CountOpenCritical(ctx, violation.EntityDriver, driverID)
	if err != nil {
		return nil, fmt.Errorf("count open driver violations %s: %w", driverID, err)
	}
	if open > 0 {
		res.addViolation(Violation{
			Type:     ViolationDriverOpenViolations,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("driver has %d unresolved critical violation(s)", open),
		})
	}

	res.finalize(nonOverridableDriver)
	return res, nil
}

// credential 带到期日的证件检查：缺失/已过期 → critical 违规；预警窗口内到期 → 预警。
// 同一证件不会同时产生违规和预警。
type credential struct {
	name        string
	expiresAt   *time.Time
	missingType ViolationType
	expiredType ViolationType
	citation    string
}

func (s *Service) checkCredential(res *CheckResult, today time.Time, c credential) {
	if c.expiresAt == nil {
		res.addViolation(Violation{
			Type:     c.missingType,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("%s is missing", c.name),
			Citation: c.citation,
		})
		return
	}

	exp := dateOnly(*c.expiresAt)
	if exp.Before(today) {
		overdue := daysBetween(exp, today)
		res.addViolation(Violation{
			Type:        c.expiredType,
			Severity:    SeverityCritical,
			Message:     fmt.Sprintf("%s expired %d day(s) ago", c.name, overdue),
			Citation:    c.citation,
			DaysOverdue: overdue,
		})
		return
	}

	// 到期日当天仍有效；窗口边界（正好 lookahead 天）算预警
	if left := daysBetween(today, exp); left <= s.rules.ExpiryLookaheadDays {
		res.addWarning(Warning{
			Type:    c.expiredType,
			Message: fmt.Sprintf("%s expires in %d day(s)", c.name, left),
		})
	}
}

// review 周期性核查（MVR/年审/DOT 年检）：缺失或超过最长有效期 → 违规，无预警档。
type review struct {
	name        string
	performedAt *time.Time
	missingType ViolationType
	overdueType ViolationType
	severity    Severity
	citation    string
}

func (s *Service) checkReview(res *CheckResult, today time.Time, rv review) {
	sev := rv.severity
	if sev == "" {
		sev = SeverityMajor
	}
	if rv.performedAt == nil {
		res.addViolation(Violation{
			Type:     rv.missingType,
			Severity: sev,
			Message:  fmt.Sprintf("%s is missing", rv.name),
			Citation: rv.citation,
		})
		return
	}
	age := daysBetween(dateOnly(*rv.performedAt), today)
	if age > s.rules.ReviewMaxAgeDays {
		res.addViolation(Violation{
			Type:        rv.overdueType,
			Severity:    sev,
			Message:     fmt.Sprintf("%s is %d day(s) old (max %d)", rv.name, age, s.rules.ReviewMaxAgeDays),
			Citation:    rv.citation,
			DaysOverdue: age - s.rules.ReviewMaxAgeDays,
		})
	}
}
