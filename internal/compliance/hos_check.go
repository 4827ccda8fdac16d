package compliance

import (
	"context"
	"fmt"
	"time"

	"github.com/VineLink/VineLink/internal/timecard"
)

// CheckHOSCompliance 核验某司机在 tourDate 的 HOS（Hours of Service）状况：
// 当日驾驶小时、当日执勤小时（驾驶+非驾驶）、含当日在内的滚动 7 天总工时。
// 达到限额（>=，含边界）即 critical 违规；距限额在预警余量内给预警。
// HOS 是法定底线，结论永远不可 override。
func (s *Service) CheckHOSCompliance(ctx context.Context, driverID string, tourDate time.Time) (*CheckResult, error) {
	day := dateOnly(tourDate)

	drivingHrs, err := s.timecards.DailyActivityHours(ctx, driverID, day, timecard.ActivityDriving)
	if err != nil {
		return nil, fmt.Errorf("sum daily driving hours %s: %w", driverID, err)
	}

	onDutyHrs, err := s.timecards.DailyActivityHours(ctx, driverID, day,
		timecard.ActivityDriving, timecard.ActivityOnDuty)
	if err != nil {
		return nil, fmt.Errorf("sum daily on-duty hours %s: %w", driverID, err)
	}

	weekStart := day.AddDate(0, 0, -6) // 含 tourDate 共 7 天
	weeklyHrs, err := s.timecards.TotalHoursInWindow(ctx, driverID, weekStart, day)
	if err != nil {
		return nil, fmt.Errorf("sum weekly hours %s: %w", driverID, err)
	}

	res := &CheckResult{}

	checkHOSLimit(res, hosLimit{
		label:    "daily driving hours",
		vtype:    ViolationHOSDailyDriving,
		limit:    s.rules.MaxDailyDrivingHours,
		margin:   s.rules.DrivingWarnMarginHours,
		citation: "49 CFR 395.5(a)(1)",
	}, drivingHrs)

	checkHOSLimit(res, hosLimit{
		label:    "daily on-duty hours",
		vtype:    ViolationHOSDailyOnDuty,
		limit:    s.rules.MaxDailyOnDutyHours,
		margin:   s.rules.OnDutyWarnMarginHours,
		citation: "49 CFR 395.5(a)(2)",
	}, onDutyHrs)

	checkHOSLimit(res, hosLimit{
		label:    "7-day on-duty hours",
		vtype:    ViolationHOSWeeklyOnDuty,
		limit:    s.rules.MaxWeeklyOnDutyHours,
		margin:   s.rules.WeeklyWarnMarginHours,
		citation: "49 CFR 395.5(b)(1)",
	}, weeklyHrs)

	res.finalize(nil)
	// 无论违规类型如何，HOS 一律不可豁免
	res.AllowsAdminOverride = false
	return res, nil
}

type hosLimit struct {
	label    string
	vtype    ViolationType
	limit    float64
	margin   float64
	citation string
}

func checkHOSLimit(res *CheckResult, l hosLimit, value float64) {
	if value >= l.limit {
		res.addViolation(Violation{
			Type:     l.vtype,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("%s %.1f reached the %.1fh limit", l.label, value, l.limit),
			Citation: l.citation,
		})
		return
	}
	if value >= l.limit-l.margin {
		res.addWarning(Warning{
			Type:    l.vtype,
			Message: fmt.Sprintf("%s %.1f is within %.1fh of the %.1fh limit", l.label, value, l.margin, l.limit),
		})
	}
}
