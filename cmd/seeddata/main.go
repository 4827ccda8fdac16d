package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/VineLink/VineLink/internal/common/config"
	"github.com/VineLink/VineLink/internal/common/db"
	"github.com/VineLink/VineLink/internal/compliance"
	"github.com/VineLink/VineLink/internal/dispatch"
	"github.com/VineLink/VineLink/internal/driver"
	"github.com/VineLink/VineLink/internal/timecard"
	"github.com/VineLink/VineLink/internal/vehicle"
	"github.com/VineLink/VineLink/internal/violation"
	"github.com/google/uuid"
)

var configPath = flag.String("config", "configs/compliance-service.json", "配置文件路径")

// 向开发库写入一组联调数据：
// - drv-demo / veh-demo：全项合规，派单检查应通过
// - drv-blocked：体检证明已过期 + 一条未处理 critical 违规，派单检查应拦截
// 外加 drv-demo 最近 5 天的驾驶工时，便于验证 HOS 聚合。
func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fail("load config: %v", err)
	}

	gormDB, err := db.NewMySQL(
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Database,
		cfg.Database.MaxIdle,
		cfg.Database.MaxOpen,
	)
	if err != nil {
		fail("open mysql: %v", err)
	}
	if err := gormDB.AutoMigrate(
		&driver.Qualification{},
		&vehicle.Compliance{},
		&vehicle.Inspection{},
		&violation.Record{},
		&timecard.Card{},
		&compliance.AuditLog{},
		&dispatch.TourAssignment{},
	); err != nil {
		fail("migrate schema: %v", err)
	}

	ctx := context.Background()
	now := time.Now().UTC()
	future := now.AddDate(0, 6, 0)
	recent := now.AddDate(0, -2, 0)
	expired := now.AddDate(0, 0, -10)

	drivers := driver.NewRepo(gormDB)
	if err := drivers.Upsert(ctx, &driver.Qualification{
		ID:                   "drv-demo",
		Name:                 "Demo Driver",
		Active:               true,
		EmploymentStatus:     driver.EmploymentActive,
		MedicalCertExpiresAt: &future,
		LicenseExpiresAt:     &future,
		LastMVRCheckAt:       &recent,
		LastAnnualReviewAt:   &recent,
		RoadTestCompletedAt:  &recent,
		DQFileComplete:       true,
	}); err != nil {
		fail("seed drv-demo: %v", err)
	}
	if err := drivers.Upsert(ctx, &driver.Qualification{
		ID:                   "drv-blocked",
		Name:                 "Blocked Driver",
		Active:               true,
		EmploymentStatus:     driver.EmploymentActive,
		MedicalCertExpiresAt: &expired,
		LicenseExpiresAt:     &future,
		LastMVRCheckAt:       &recent,
		LastAnnualReviewAt:   &recent,
		RoadTestCompletedAt:  &recent,
	}); err != nil {
		fail("seed drv-blocked: %v", err)
	}

	vehicles := vehicle.NewRepo(gormDB)
	if err := vehicles.Upsert(ctx, &vehicle.Compliance{
		ID:                    "veh-demo",
		PlateNumber:           "WINE-01",
		VIN:                   "1FTSW21P05EB12345",
		Model:                 "Sprinter 2500",
		Active:                true,
		RegistrationExpiresAt: &future,
		InsuranceExpiresAt:    &future,
		LastDOTInspectionAt:   &recent,
	}); err != nil {
		fail("seed veh-demo: %v", err)
	}

	violations := violation.NewRepo(gormDB)
	if err := violations.Create(ctx, &violation.Record{
		ID:          uuid.NewString(),
		EntityType:  violation.EntityDriver,
		EntityID:    "drv-blocked",
		Severity:    violation.SeverityCritical,
		Description: "failed roadside inspection, citation pending",
	}); err != nil {
		fail("seed violation: %v", err)
	}

	timecards := timecard.NewRepo(gormDB)
	for i := 1; i <= 5; i++ {
		day := now.AddDate(0, 0, -i)
		if err := timecards.Create(ctx, &timecard.Card{
			ID:         uuid.NewString(),
			DriverID:   "drv-demo",
			WorkDate:   day,
			ClockInAt:  day,
			Activity:   timecard.ActivityDriving,
			TotalHours: 4,
		}); err != nil {
			fail("seed timecard: %v", err)
		}
	}

	fmt.Println("demo data seeded")
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
