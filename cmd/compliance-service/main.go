package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/VineLink/VineLink/internal/common/config"
	"github.com/VineLink/VineLink/internal/common/db"
	"github.com/VineLink/VineLink/internal/common/logger"
	"github.com/VineLink/VineLink/internal/common/server"
	"github.com/VineLink/VineLink/internal/common/tracing"
	"github.com/VineLink/VineLink/internal/compliance"
	"github.com/VineLink/VineLink/internal/dispatch"
	"github.com/VineLink/VineLink/internal/driver"
	"github.com/VineLink/VineLink/internal/gateway"
	"github.com/VineLink/VineLink/internal/timecard"
	"github.com/VineLink/VineLink/internal/vehicle"
	"github.com/VineLink/VineLink/internal/violation"
	"google.golang.org/grpc"
)

var (
	configPath = flag.String("config", "configs/compliance-service.json", "配置文件路径")
	consulKey  = flag.String("consul-kv", "", "从 Consul KV 加载配置的 key（优先于 -config）")
)

func main() {
	flag.Parse()

	// 加载配置（优先 Consul KV，便于法规常量在线下发）
	var (
		cfg *config.Config
		err error
	)
	if *consulKey != "" {
		bootstrap := config.GetConfig()
		cfg, err = config.LoadConfigFromConsulKV(bootstrap.Consul.Host, bootstrap.Consul.Port, *consulKey)
	} else {
		cfg, err = config.LoadConfig(*configPath)
	}
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	// 初始化链路追踪
	tracer, closer, err := tracing.InitTracer(
		cfg.Server.Name,
		cfg.Jaeger.Endpoint,
		cfg.Jaeger.Sampler,
	)
	if err != nil {
		log.Warnf("failed to init tracer: %v", err)
	} else {
		defer closer.Close()
	}
	_ = tracer

	// 初始化数据库
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
		log.Fatalf("failed to init mysql: %v", err)
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
		log.Fatalf("failed to migrate mysql schema: %v", err)
	}

	// 组装服务层
	compSvc := compliance.NewService(
		driver.NewRepo(gormDB),
		vehicle.NewRepo(gormDB),
		violation.NewRepo(gormDB),
		timecard.NewRepo(gormDB),
		compliance.NewAuditRepo(gormDB),
		compliance.RulesFromConfig(cfg.Compliance),
		log,
	)
	dispSvc := dispatch.NewService(dispatch.NewRepo(gormDB), compSvc, log)

	// 业务 HTTP API（检查/豁免走这里）
	gw := gateway.New(compSvc, dispSvc, cfg.Auth, log)
	httpSrv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:           gw.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Infof("%s http api listening on %s", cfg.Server.Name, httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("http server exited: %v", err)
		}
	}()

	// gRPC 平台入口（health/reflection + Consul 注册 + 优雅退出），阻塞到收到退出信号
	if err := server.RunGRPCServer(cfg, log, func(s *grpc.Server) error {
		// 业务流量走 HTTP 网关；gRPC 侧保留 health/reflection 供平台探活
		return nil
	}); err != nil {
		log.Fatalf("compliance-service exited with error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("http shutdown: %v", err)
	}
}
