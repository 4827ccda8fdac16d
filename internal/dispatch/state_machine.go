package dispatch

import (
	"fmt"
	"time"
)

// AllowTransition 定义派单状态机的允许流转关系。
// 采用“有向图”方式配置；blocked 只能经 overridden 或取消离开，
// 不存在 blocked -> confirmed 的捷径。
var AllowTransition = map[Status][]Status{
	StatusPending:    {StatusCleared, StatusBlocked, StatusCanceled},
	StatusCleared:    {StatusConfirmed, StatusCanceled},
	StatusBlocked:    {StatusOverridden, StatusCanceled},
	StatusOverridden: {StatusConfirmed, StatusCanceled},
	// 终态：不允许从 confirmed / canceled 再流转
	StatusConfirmed: {},
	StatusCanceled:  {},
}

// CanTransition 判断 from -> to 是否是一个允许的状态流转。
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	allowed, ok := AllowTransition[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// ApplyTransition 对派单应用状态变更，并维护关键时间字段。
func ApplyTransition(a *TourAssignment, to Status, now time.Time) error {
	if a == nil {
		return fmt.Errorf("assignment is nil")
	}
	from := a.Status
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: invalid assignment status transition: %s -> %s", ErrInvalidRequest, from, to)
	}

	a.Status = to

	switch to {
	case StatusCleared:
		if a.ClearedAt == nil {
			t := now
			a.ClearedAt = &t
		}
	case StatusBlocked:
		if a.BlockedAt == nil {
			t := now
			a.BlockedAt = &t
		}
	case StatusOverridden:
		if a.OverriddenAt == nil {
			t := now
			a.OverriddenAt = &t
		}
	case StatusConfirmed:
		if a.ConfirmedAt == nil {
			t := now
			a.ConfirmedAt = &t
		}
	case StatusCanceled:
		if a.CanceledAt == nil {
			t := now
			a.CanceledAt = &t
		}
	}
	return nil
}
