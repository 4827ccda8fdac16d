package compliance

import (
	"context"
	"time"

	"github.com/VineLink/VineLink/internal/driver"
	"github.com/VineLink/VineLink/internal/timecard"
	"github.com/VineLink/VineLink/internal/vehicle"
	"github.com/VineLink/VineLink/internal/violation"
)

// 测试基准时间，所有到期判定围绕这一天展开。
var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// daysFromNow 相对基准时间偏移 n 天。
func daysFromNow(n int) *time.Time {
	t := testNow.AddDate(0, 0, n)
	return &t
}

type fakeDriverStore struct {
	q   *driver.Qualification
	err error
}

func (f *fakeDriverStore) FindByID(ctx context.Context, id string) (*driver.Qualification, error) {
	return f.q, f.err
}

type fakeVehicleStore struct {
	v      *vehicle.Compliance
	ins    *vehicle.Inspection
	err    error
	insErr error
}

func (f *fakeVehicleStore) FindByID(ctx context.Context, id string) (*vehicle.Compliance, error) {
	return f.v, f.err
}

func (f *fakeVehicleStore) LatestDefectInspection(ctx context.Context, vehicleID string) (*vehicle.Inspection, error) {
	return f.ins, f.insErr
}

type fakeViolationStore struct {
	driverOpen  int64
	vehicleOpen int64
	err         error
}

func (f *fakeViolationStore) CountOpenCritical(ctx context.Context, entityType violation.EntityType, entityID string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if entityType == violation.EntityDriver {
		return f.driverOpen, nil
	}
	return f.vehicleOpen, nil
}

type fakeTimecardStore struct {
	driving float64
	onDuty  float64
	weekly  float64
	err     error
}

func (f *fakeTimecardStore) DailyActivityHours(ctx context.Context, driverID string, day time.Time, activities ...timecard.Activity) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if len(activities) == 1 && activities[0] == timecard.ActivityDriving {
		return f.driving, nil
	}
	return f.onDuty, nil
}

func (f *fakeTimecardStore) TotalHoursInWindow(ctx context.Context, driverID string, from, to time.Time) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.weekly, nil
}

type fakeAuditStore struct {
	rows []*AuditLog
	err  error
}

func (f *fakeAuditStore) Append(ctx context.Context, row *AuditLog) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, row)
	return nil
}

type fixtures struct {
	drivers    *fakeDriverStore
	vehicles   *fakeVehicleStore
	violations *fakeViolationStore
	timecards  *fakeTimecardStore
	audits     *fakeAuditStore
}

// validQualification 一份完全合规的司机资质。
func validQualification() *driver.Qualification {
	return &driver.Qualification{
		ID:                   "drv-1",
		Name:                 "Test Driver",
		Active:               true,
		EmploymentStatus:     driver.EmploymentActive,
		MedicalCertExpiresAt: daysFromNow(120),
		LicenseExpiresAt:     daysFromNow(400),
		LastMVRCheckAt:       daysFromNow(-60),
		LastAnnualReviewAt:   daysFromNow(-90),
		RoadTestCompletedAt:  daysFromNow(-700),
		DQFileComplete:       true,
	}
}

// validVehicle 一台完全合规的车辆。
func validVehicle() *vehicle.Compliance {
	return &vehicle.Compliance{
		ID:                    "veh-1",
		PlateNumber:           "WINE-01",
		Active:                true,
		RegistrationExpiresAt: daysFromNow(200),
		InsuranceExpiresAt:    daysFromNow(90),
		LastDOTInspectionAt:   daysFromNow(-100),
	}
}

func defaultFixtures() *fixtures {
	return &fixtures{
		drivers:    &fakeDriverStore{q: validQualification()},
		vehicles:   &fakeVehicleStore{v: validVehicle()},
		violations: &fakeViolationStore{},
		timecards:  &fakeTimecardStore{driving: 2, onDuty: 4, weekly: 20},
		audits:     &fakeAuditStore{},
	}
}

func testRules() Rules {
	return Rules{
		MaxDailyDrivingHours:   10,
		MaxDailyOnDutyHours:    15,
		MaxWeeklyOnDutyHours:   60,
		DrivingWarnMarginHours: 0.5,
		OnDutyWarnMarginHours:  1,
		WeeklyWarnMarginHours:  5,
		ExpiryLookaheadDays:    30,
		ReviewMaxAgeDays:       365,
	}
}

func newTestService(f *fixtures) *Service {
	return NewService(
		f.drivers,
		f.vehicles,
		f.violations,
		f.timecards,
		f.audits,
		testRules(),
		nil,
		WithClock(func() time.Time { return testNow }),
	)
}

// hasViolation 按类型查找违规。
func hasViolation(res *CheckResult, vt ViolationType) bool {
	for _, v := range res.Violations {
		if v.Type == vt {
			return true
		}
	}
	return false
}

// hasWarning 按类型查找预警。
func hasWarning(res *CheckResult, vt ViolationType) bool {
	for _, w := range res.Warnings {
		if w.Type == vt {
			return true
		}
	}
	return false
}
