package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/VineLink/VineLink/internal/common/config"
	"github.com/VineLink/VineLink/internal/common/logger"
	"github.com/VineLink/VineLink/internal/common/middleware"
	"github.com/VineLink/VineLink/internal/compliance"
	"github.com/VineLink/VineLink/internal/dispatch"
)

const tourDateLayout = "2006-01-02"

// Server 合规 HTTP API。
// 所有落库的调用都经过熔断器，数据库不可用时快速失败返回 503 而不是堆积请求。
type Server struct {
	comp    *compliance.Service
	disp    *dispatch.Service
	authCfg config.AuthConfig
	limiter middleware.RateLimiter
	breaker *middleware.CircuitBreaker
	log     logger.Logger
}

func New(comp *compliance.Service, disp *dispatch.Service, authCfg config.AuthConfig, log logger.Logger) *Server {
	return &Server{
		comp:    comp,
		disp:    disp,
		authCfg: authCfg,
		limiter: middleware.NewTokenBucket(200, 100),
		breaker: middleware.NewCircuitBreaker("compliance-db", 5, 30*time.Second),
		log:     log,
	}
}

// Routes 组装路由 + 中间件链。
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/v1/compliance/assignments", s.handleListAssignments)
	mux.HandleFunc("/v1/compliance/assignments/check", s.handleAssignmentCheck)
	mux.HandleFunc("/v1/compliance/assignments/override", s.handleOverride)
	mux.HandleFunc("/v1/compliance/assignments/confirm", s.handleConfirm)
	mux.HandleFunc("/v1/compliance/assignments/cancel", s.handleCancel)
	mux.HandleFunc("/v1/compliance/drivers/check", s.handleDriverCheck)
	mux.HandleFunc("/v1/compliance/vehicles/check", s.handleVehicleCheck)
	mux.HandleFunc("/v1/compliance/hos/check", s.handleHOSCheck)

	authCfg := s.authCfg
	if len(authCfg.PublicMethods) == 0 {
		authCfg.PublicMethods = []string{"/healthz"}
	}

	return Chain(mux,
		WithRecovery(s.log),
		WithAccessLog(s.log),
		WithRateLimit(s.limiter),
		WithJWTAuth(authCfg, s.log),
	)
}

// guard 经熔断器执行依赖数据库的调用。
// 只有基础设施故障计入熔断：调用方错误（404/422 一类）对熔断器视为成功，
// 否则几次错误的请求参数就能把整个 API 熔断掉。
func (s *Server) guard(r *http.Request, fn func() error) error {
	if s.breaker == nil {
		return fn()
	}
	var clientErr error
	err := s.breaker.Call(r.Context(), func() error {
		if callErr := fn(); callErr != nil {
			if isClientError(callErr) {
				clientErr = callErr
				return nil
			}
			return callErr
		}
		return nil
	})
	if err != nil {
		return err
	}
	return clientErr
}

// isClientError 判断错误是否由调用方造成。
func isClientError(err error) bool {
	return errors.Is(err, dispatch.ErrInvalidRequest) || errors.Is(err, dispatch.ErrNotFound)
}

type assignmentCheckRequest struct {
	BookingRef string `json:"booking_ref"`
	DriverID   string `json:"driver_id"`
	VehicleID  string `json:"vehicle_id"`
	TourDate   string `json:"tour_date"` // YYYY-MM-DD
}

type assignmentCheckResponse struct {
	Assignment *dispatch.TourAssignment     `json:"assignment"`
	Result     *compliance.AssignmentResult `json:"result"`
}

func (s *Server) handleAssignmentCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req assignmentCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	tourDate, err := time.Parse(tourDateLayout, strings.TrimSpace(req.TourDate))
	if err != nil {
		writeError(w, http.StatusBadRequest, "tour_date must be YYYY-MM-DD")
		return
	}

	var (
		a   *dispatch.TourAssignment
		res *compliance.AssignmentResult
	)
	err = s.guard(r, func() error {
		var callErr error
		a, res, callErr = s.disp.RequestAssignment(r.Context(), dispatch.RequestAssignmentInput{
			BookingRef: req.BookingRef,
			DriverID:   req.DriverID,
			VehicleID:  req.VehicleID,
			TourDate:   tourDate,
			Endpoint:   r.URL.Path,
		})
		return callErr
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assignmentCheckResponse{Assignment: a, Result: res})
}

type overrideRequest struct {
	AssignmentID string `json:"assignment_id"`
	Reason       string `json:"reason"`
}

func (s *Server) handleOverride(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	// 操作员身份取自 JWT；鉴权关闭的开发环境下允许用 header 指定
	operatorID := ""
	if ai, ok := AuthFromContext(r.Context()); ok {
		operatorID = ai.Subject
	} else if !s.authCfg.Enabled {
		operatorID = strings.TrimSpace(r.Header.Get("X-Operator-ID"))
	}
	if operatorID == "" {
		writeError(w, http.StatusUnauthorized, "operator identity required")
		return
	}

	var a *dispatch.TourAssignment
	err := s.guard(r, func() error {
		var callErr error
		a, callErr = s.disp.ApplyOverride(r.Context(), req.AssignmentID, operatorID, req.Reason)
		return callErr
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, s.disp.Confirm)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, s.disp.Cancel)
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request, do func(ctx context.Context, id string) (*dispatch.TourAssignment, error)) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		AssignmentID string `json:"assignment_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	var a *dispatch.TourAssignment
	err := s.guard(r, func() error {
		var callErr error
		a, callErr = do(r.Context(), req.AssignmentID)
		return callErr
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	q := r.URL.Query()

	// 带 id 时按主键查询单个派单
	if id := strings.TrimSpace(q.Get("id")); id != "" {
		var a *dispatch.TourAssignment
		err := s.guard(r, func() error {
			var callErr error
			a, callErr = s.disp.GetAssignment(r.Context(), id)
			return callErr
		})
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
		return
	}

	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	var (
		items []dispatch.TourAssignment
		total int64
	)
	err := s.guard(r, func() error {
		var callErr error
		items, total, callErr = s.disp.ListAssignments(r.Context(),
			q.Get("driver_id"), dispatch.Status(q.Get("status")), offset, limit)
		return callErr
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"assignments": items,
		"total":       total,
	})
}

func (s *Server) handleDriverCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "id required")
		return
	}
	var res *compliance.CheckResult
	err := s.guard(r, func() error {
		var callErr error
		res, callErr = s.comp.CheckDriverCompliance(r.Context(), id)
		return callErr
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.audit(r, compliance.AuditEntry{
		ActionType: "driver_check",
		Endpoint:   r.URL.Path,
		DriverID:   id,
		Result:     res,
	})
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleVehicleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "id required")
		return
	}
	var res *compliance.CheckResult
	err := s.guard(r, func() error {
		var callErr error
		res, callErr = s.comp.CheckVehicleCompliance(r.Context(), id)
		return callErr
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.audit(r, compliance.AuditEntry{
		ActionType: "vehicle_check",
		Endpoint:   r.URL.Path,
		VehicleID:  id,
		Result:     res,
	})
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHOSCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	driverID := strings.TrimSpace(r.URL.Query().Get("driver_id"))
	if driverID == "" {
		writeError(w, http.StatusBadRequest, "driver_id required")
		return
	}
	tourDate, err := time.Parse(tourDateLayout, strings.TrimSpace(r.URL.Query().Get("tour_date")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "tour_date must be YYYY-MM-DD")
		return
	}
	var res *compliance.CheckResult
	err = s.guard(r, func() error {
		var callErr error
		res, callErr = s.comp.CheckHOSCompliance(r.Context(), driverID, tourDate)
		return callErr
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.audit(r, compliance.AuditEntry{
		ActionType: "hos_check",
		Endpoint:   r.URL.Path,
		DriverID:   driverID,
		TourDate:   &tourDate,
		Result:     res,
	})
	writeJSON(w, http.StatusOK, res)
}

// audit 单项检查的审计写入；结论已经产生，失败只上报不回滚。
func (s *Server) audit(r *http.Request, e compliance.AuditEntry) {
	if err := s.comp.LogComplianceCheck(r.Context(), e); err != nil && s.log != nil {
		s.log.Errorf("audit write failed endpoint=%s: %v", e.Endpoint, err)
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, middleware.ErrCircuitOpen):
		writeError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	case errors.Is(err, dispatch.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, dispatch.ErrInvalidRequest):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		// 数据访问等基础设施故障：不把内部细节回给调用方
		if s.log != nil {
			s.log.Errorf("service call failed: %v", err)
		}
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
