package compliance

import (
	"context"
	"time"
)

// CheckAssignmentCompliance 对 (司机, 车辆, 出团日期) 做派单合规检查。
// 三个子检查读取互不相交的数据，并发执行后合并（fan-out/fan-in）。
// 任一子检查报错则整体报错：读不到数据时绝不默认放行。
func (s *Service) CheckAssignmentCompliance(ctx context.Context, driverID, vehicleID string, tourDate time.Time) (*AssignmentResult, error) {
	type evalOut struct {
		idx int
		res *CheckResult
		err error
	}
	ch := make(chan evalOut, 3)

	go func() {
		r, err := s.CheckDriverCompliance(ctx, driverID)
		ch <- evalOut{idx: 0, res: r, err: err}
	}()
	go func() {
		r, err := s.CheckVehicleCompliance(ctx, vehicleID)
		ch <- evalOut{idx: 1, res: r, err: err}
	}()
	go func() {
		r, err := s.CheckHOSCompliance(ctx, driverID, tourDate)
		ch <- evalOut{idx: 2, res: r, err: err}
	}()

	var sub [3]*CheckResult
	var firstErr error
	for i := 0; i < 3; i++ {
		out := <-ch
		if out.err != nil && firstErr == nil {
			firstErr = out.err
		}
		sub[out.idx] = out.res
	}
	if firstErr != nil {
		return nil, firstErr
	}

	merged := &AssignmentResult{
		DriverID:  driverID,
		VehicleID: vehicleID,
		TourDate:  dateOnly(tourDate),
		Driver:    sub[0],
		Vehicle:   sub[1],
		HOS:       sub[2],
	}

	// 合并顺序固定：司机 → 车辆 → HOS，PrimaryViolation 依赖这个顺序
	merged.CanProceed = true
	for _, r := range sub {
		merged.Violations = append(merged.Violations, r.Violations...)
		merged.Warnings = append(merged.Warnings, r.Warnings...)
		merged.CanProceed = merged.CanProceed && r.CanProceed
	}

	// 只有被拦截、且每个被拦截的子结论都允许豁免时，整体才允许豁免；
	// 任何一处不可豁免的违规都会否决整体 override。
	merged.AllowsAdminOverride = !merged.CanProceed
	for _, r := range sub {
		if !r.CanProceed && !r.AllowsAdminOverride {
			merged.AllowsAdminOverride = false
			break
		}
	}

	return merged, nil
}
