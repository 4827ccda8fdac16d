package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/VineLink/VineLink/internal/common/config"
	"github.com/VineLink/VineLink/internal/common/middleware"
	"github.com/VineLink/VineLink/internal/compliance"
	"github.com/VineLink/VineLink/internal/dispatch"
)

// failingAssignments 模拟数据库不可用的派单存储。
type failingAssignments struct{ err error }

func (f *failingAssignments) Create(ctx context.Context, a *dispatch.TourAssignment) error {
	return f.err
}

func (f *failingAssignments) Update(ctx context.Context, a *dispatch.TourAssignment) error {
	return f.err
}

func (f *failingAssignments) GetByID(ctx context.Context, id string) (*dispatch.TourAssignment, error) {
	return nil, f.err
}

func (f *failingAssignments) List(ctx context.Context, driverID string, status dispatch.Status, offset, limit int) ([]dispatch.TourAssignment, int64, error) {
	return nil, 0, f.err
}

func TestGuardClientErrorsDoNotTripBreaker(t *testing.T) {
	s := &Server{breaker: middleware.NewCircuitBreaker("test", 2, time.Minute)}
	req := httptest.NewRequest(http.MethodGet, "/v1/compliance/assignments", nil)

	// 远超 maxFailures 次的调用方错误，熔断器必须保持闭合
	for i := 0; i < 10; i++ {
		err := s.guard(req, func() error {
			return fmt.Errorf("%w: assignment_id required", dispatch.ErrInvalidRequest)
		})
		if !errors.Is(err, dispatch.ErrInvalidRequest) {
			t.Fatalf("call %d: err = %v, want ErrInvalidRequest", i, err)
		}
		if errors.Is(err, middleware.ErrCircuitOpen) {
			t.Fatalf("call %d: breaker opened on a client error", i)
		}
	}
	for i := 0; i < 10; i++ {
		err := s.guard(req, func() error {
			return fmt.Errorf("assignment asg-x: %w", dispatch.ErrNotFound)
		})
		if !errors.Is(err, dispatch.ErrNotFound) {
			t.Fatalf("call %d: err = %v, want ErrNotFound", i, err)
		}
	}

	// 熔断器仍闭合：正常调用照常执行
	if err := s.guard(req, func() error { return nil }); err != nil {
		t.Fatalf("healthy call after client errors: %v", err)
	}
}

func TestGuardOpensOnInfrastructureErrors(t *testing.T) {
	s := &Server{breaker: middleware.NewCircuitBreaker("test", 2, time.Minute)}
	req := httptest.NewRequest(http.MethodGet, "/v1/compliance/assignments", nil)
	dbErr := errors.New("dial tcp: connection refused")

	for i := 0; i < 2; i++ {
		if err := s.guard(req, func() error { return dbErr }); !errors.Is(err, dbErr) {
			t.Fatalf("call %d: err = %v, want the infrastructure error", i, err)
		}
	}
	err := s.guard(req, func() error { return dbErr })
	if !errors.Is(err, middleware.ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen after repeated infrastructure errors", err)
	}
}

// 一连串带错误派单号的豁免请求不能把无关的查询接口熔断掉。
func TestBadOverridesDoNotStarveOtherEndpoints(t *testing.T) {
	h, _ := newTestHandler(config.AuthConfig{}, 0)

	for i := 0; i < 8; i++ {
		rec := postJSON(t, h, "/v1/compliance/assignments/override", map[string]string{
			"assignment_id": "asg-does-not-exist",
			"reason":        "fat-fingered id",
		}, map[string]string{"X-Operator-ID": "op-7"})
		if rec.Code != http.StatusNotFound {
			t.Fatalf("override %d: status = %d, want 404", i, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/compliance/drivers/check?id=drv-1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("driver check after bad overrides: status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

// 存储故障返回 500 并在连续失败后熔断为 503，内部错误细节不回给调用方。
func TestStorageFailureMapsTo500ThenCircuitOpens(t *testing.T) {
	comp := compliance.NewService(
		&stubDrivers{q: validQualification()},
		&stubVehicles{v: validVehicle()},
		&stubViolations{},
		stubTimecards{},
		&stubAudits{},
		testRules(),
		nil,
		compliance.WithClock(func() time.Time { return testNow }),
	)
	store := &failingAssignments{err: errors.New("dial tcp: connection refused")}
	disp := dispatch.NewService(store, comp, nil)
	h := New(comp, disp, config.AuthConfig{}, nil).Routes()

	// New() 的熔断器阈值是 5 次
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/compliance/assignments?id=asg-1", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("call %d: status = %d, want 500", i, rec.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["error"] != "internal error" {
			t.Fatalf("storage error details must not leak, got %q", body["error"])
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/compliance/assignments?id=asg-1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 once the breaker is open", rec.Code)
	}
}

func TestGetAssignmentByID(t *testing.T) {
	h, _ := newTestHandler(config.AuthConfig{}, 0)

	rec := postJSON(t, h, "/v1/compliance/assignments/check", map[string]string{
		"driver_id":  "drv-1",
		"vehicle_id": "veh-1",
		"tour_date":  "2026-03-12",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("check status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Assignment dispatch.TourAssignment `json:"assignment"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/compliance/assignments?id="+out.Assignment.ID, nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got dispatch.TourAssignment
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode assignment: %v", err)
	}
	if got.ID != out.Assignment.ID || got.Status != dispatch.StatusCleared {
		t.Fatalf("unexpected assignment: %+v", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/compliance/assignments?id=asg-unknown", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown id: status = %d, want 404", rec.Code)
	}
}
