package compliance

import (
	"time"
)

// Severity 违规严重级别。critical 直接拦截派单，major/minor 只记录。
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// ViolationType 违规类型（闭集枚举，豁免规则按类型判定）。
type ViolationType string

const (
	// 司机侧
	ViolationDriverInactive       ViolationType = "driver_inactive"
	ViolationMedicalCertMissing   ViolationType = "medical_cert_missing"
	ViolationMedicalCertExpired   ViolationType = "medical_cert_expired"
	ViolationLicenseMissing       ViolationType = "license_missing"
	ViolationLicenseExpired       ViolationType = "license_expired"
	ViolationMVRMissing           ViolationType = "mvr_missing"
	ViolationMVROverdue           ViolationType = "mvr_overdue"
	ViolationAnnualReviewMissing  ViolationType = "annual_review_missing"
	ViolationAnnualReviewOverdue  ViolationType = "annual_review_overdue"
	ViolationRoadTestMissing      ViolationType = "road_test_missing"
	ViolationDriverOpenViolations ViolationType = "driver_open_violations"

	// 车辆侧
	ViolationVehicleInactive       ViolationType = "vehicle_inactive"
	ViolationRegistrationMissing   ViolationType = "registration_missing"
	ViolationRegistrationExpired   ViolationType = "registration_expired"
	ViolationInsuranceMissing      ViolationType = "insurance_missing"
	ViolationInsuranceExpired      ViolationType = "insurance_expired"
	ViolationDOTInspectionMissing  ViolationType = "dot_inspection_missing"
	ViolationDOTInspectionOverdue  ViolationType = "dot_inspection_overdue"
	ViolationCriticalDefect        ViolationType = "critical_defect"
	ViolationVehicleOpenViolations ViolationType = "vehicle_open_violations"

	// HOS
	ViolationHOSDailyDriving ViolationType = "hos_daily_driving"
	ViolationHOSDailyOnDuty  ViolationType = "hos_daily_on_duty"
	ViolationHOSWeeklyOnDuty ViolationType = "hos_weekly_on_duty"
)

// nonOverridableDriver 司机侧不可豁免的违规类型。
// 体检证明/驾照过期是硬性法规门槛，任何后台角色都不能放行。
var nonOverridableDriver = map[ViolationType]struct{}{
	ViolationMedicalCertExpired: {},
	ViolationLicenseExpired:     {},
}

// nonOverridableVehicle 车辆侧不可豁免的违规类型。
var nonOverridableVehicle = map[ViolationType]struct{}{
	ViolationVehicleInactive: {},
	ViolationCriticalDefect:  {},
}

// Violation 单条违规，Message 直接面向调度员展示。
type Violation struct {
	Type        ViolationType `json:"type"`
	Severity    Severity      `json:"severity"`
	Message     string        `json:"message"`
	Citation    string        `json:"citation,omitempty"`     // 法规条款（如 49 CFR 395.5(a)(1)）
	DaysOverdue int           `json:"days_overdue,omitempty"` // 已过期天数（仅到期类违规）
}

// Warning 预警：尚未构成违规，但在预警窗口内（如证件 30 天内到期）。
// 预警不影响 CanProceed。
type Warning struct {
	Type    ViolationType `json:"type"`
	Message string        `json:"message"`
}

// CheckResult 单项合规检查的结论。
type CheckResult struct {
	CanProceed          bool        `json:"can_proceed"`
	AllowsAdminOverride bool        `json:"allows_admin_override"`
	Violations          []Violation `json:"violations"`
	Warnings            []Warning   `json:"warnings"`
}

// PrimaryViolation 返回按检查顺序的第一条违规；无违规时返回 nil。
func (r *CheckResult) PrimaryViolation() *Violation {
	if r == nil || len(r.Violations) == 0 {
		return nil
	}
	return &r.Violations[0]
}

func (r *CheckResult) addViolation(v Violation) {
	r.Violations = append(r.Violations, v)
}

func (r *CheckResult) addWarning(w Warning) {
	r.Warnings = append(r.Warnings, w)
}

// finalize 聚合结论：存在 critical 违规即拦截；被拦截且不含不可豁免类型时才开放 override。
func (r *CheckResult) finalize(nonOverridable map[ViolationType]struct{}) {
	r.CanProceed = true
	for _, v := range r.Violations {
		if v.Severity == SeverityCritical {
			r.CanProceed = false
			break
		}
	}
	if r.CanProceed {
		r.AllowsAdminOverride = false
		return
	}
	r.AllowsAdminOverride = true
	for _, v := range r.Violations {
		if _, ok := nonOverridable[v.Type]; ok {
			r.AllowsAdminOverride = false
			return
		}
	}
}

// AssignmentResult 派单合规检查（司机+车辆+HOS）的合并结论。
// 内嵌的 CheckResult 为合并后的总结论，三个子结论单独保留便于展示。
type AssignmentResult struct {
	CheckResult

	DriverID  string    `json:"driver_id"`
	VehicleID string    `json:"vehicle_id"`
	TourDate  time.Time `json:"tour_date"`

	Driver  *CheckResult `json:"driver"`
	Vehicle *CheckResult `json:"vehicle"`
	HOS     *CheckResult `json:"hos"`
}

// dateOnly 截断到 UTC 日期。所有到期比较都在“日”粒度进行。
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween from 到 to 的整天数（from 在前为正）。入参需先 dateOnly。
func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
