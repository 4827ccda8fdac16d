package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Config 应用配置
type Config struct {
	Server     ServerConfig     `json:"server"`
	Database   DatabaseConfig   `json:"database"`
	Consul     ConsulConfig     `json:"consul"`
	Jaeger     JaegerConfig     `json:"jaeger"`
	Auth       AuthConfig       `json:"auth"`
	Compliance ComplianceConfig `json:"compliance"`
	Log        LogConfig        `json:"log"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Name     string `json:"name"`      // 服务名称
	Host     string `json:"host"`      // 服务地址
	GRPCPort int    `json:"grpc_port"` // gRPC端口（health/平台层）
	HTTPPort int    `json:"http_port"` // HTTP端口（业务 API）
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver   string `json:"driver"`   // 数据库驱动
	Host     string `json:"host"`     // 数据库地址
	Port     int    `json:"port"`     // 数据库端口
	User     string `json:"user"`     // 用户名
	Password string `json:"password"` // 密码
	Database string `json:"database"` // 数据库名
	MaxIdle  int    `json:"max_idle"` // 最大空闲连接
	MaxOpen  int    `json:"max_open"` // 最大打开连接
}

// ConsulConfig Consul配置
type ConsulConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// JaegerConfig Jaeger配置
type JaegerConfig struct {
	Endpoint string  `json:"endpoint"`
	Sampler  float64 `json:"sampler"` // 采样率 0.0-1.0
}

// AuthConfig JWT 鉴权配置
type AuthConfig struct {
	Enabled       bool                `json:"enabled"`
	JWTSecret     string              `json:"jwt_secret"`
	Issuer        string              `json:"issuer"`
	Audience      string              `json:"audience"`
	PublicMethods []string            `json:"public_methods"` // 不需要鉴权的方法/路径
	RBAC          map[string][]string `json:"rbac"`           // method/path -> 要求的角色列表
}

// ComplianceConfig 合规检查所依赖的监管常量。
// HOS 限额针对载客运营（FMCSA Part 395.5），由配置下发而非代码推导。
type ComplianceConfig struct {
	MaxDailyDrivingHours float64 `json:"max_daily_driving_hours"`  // 当日驾驶上限
	MaxDailyOnDutyHours  float64 `json:"max_daily_on_duty_hours"`  // 当日执勤上限
	MaxWeeklyOnDutyHours float64 `json:"max_weekly_on_duty_hours"` // 滚动 7 天上限

	DrivingWarnMarginHours float64 `json:"driving_warn_margin_hours"` // 驾驶预警余量
	OnDutyWarnMarginHours  float64 `json:"on_duty_warn_margin_hours"` // 执勤预警余量
	WeeklyWarnMarginHours  float64 `json:"weekly_warn_margin_hours"`  // 周预警余量

	ExpiryLookaheadDays int `json:"expiry_lookahead_days"` // 证件到期预警窗口（天）
	ReviewMaxAgeDays    int `json:"review_max_age_days"`   // MVR/年审最长有效期（天）
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
	Output string `json:"output"` // stdout, file
	Path   string `json:"path"`   // 日志文件路径
}

var (
	globalConfig *Config
	configOnce   sync.Once
)

// LoadConfig 加载配置
func LoadConfig(configPath string) (*Config, error) {
	var err error
	configOnce.Do(func() {
		globalConfig = &Config{}
		// 如果配置文件不存在，使用默认配置
		if _, err = os.Stat(configPath); os.IsNotExist(err) {
			logrus.Warnf("Config file not found: %s, using default config", configPath)
			globalConfig = defaultConfig()
			err = nil
			return
		}

		data, readErr := os.ReadFile(configPath)
		if readErr != nil {
			err = fmt.Errorf("failed to read config file: %w", readErr)
			return
		}

		if unmarshalErr := json.Unmarshal(data, globalConfig); unmarshalErr != nil {
			err = fmt.Errorf("failed to parse config file: %w", unmarshalErr)
			return
		}

		globalConfig.Compliance = globalConfig.Compliance.withDefaults()
	})

	if err != nil {
		return nil, err
	}

	return globalConfig, nil
}

// GetConfig 获取全局配置
func GetConfig() *Config {
	if globalConfig == nil {
		return defaultConfig()
	}
	return globalConfig
}

// withDefaults 对缺省的监管常量回填默认值，避免配置缺项导致限额为 0 把所有派单全部拦截。
func (c ComplianceConfig) withDefaults() ComplianceConfig {
	d := defaultComplianceConfig()
	if c.MaxDailyDrivingHours <= 0 {
		c.MaxDailyDrivingHours = d.MaxDailyDrivingHours
	}
	if c.MaxDailyOnDutyHours <= 0 {
		c.MaxDailyOnDutyHours = d.MaxDailyOnDutyHours
	}
	if c.MaxWeeklyOnDutyHours <= 0 {
		c.MaxWeeklyOnDutyHours = d.MaxWeeklyOnDutyHours
	}
	if c.DrivingWarnMarginHours <= 0 {
		c.DrivingWarnMarginHours = d.DrivingWarnMarginHours
	}
	if c.OnDutyWarnMarginHours <= 0 {
		c.OnDutyWarnMarginHours = d.OnDutyWarnMarginHours
	}
	if c.WeeklyWarnMarginHours <= 0 {
		c.WeeklyWarnMarginHours = d.WeeklyWarnMarginHours
	}
	if c.ExpiryLookaheadDays <= 0 {
		c.ExpiryLookaheadDays = d.ExpiryLookaheadDays
	}
	if c.ReviewMaxAgeDays <= 0 {
		c.ReviewMaxAgeDays = d.ReviewMaxAgeDays
	}
	return c
}

func defaultComplianceConfig() ComplianceConfig {
	return ComplianceConfig{
		MaxDailyDrivingHours:   10, // 49 CFR 395.5(a)(1)
		MaxDailyOnDutyHours:    15, // 49 CFR 395.5(a)(2)
		MaxWeeklyOnDutyHours:   60, // 49 CFR 395.5(b)(1) 60h/7d
		DrivingWarnMarginHours: 0.5,
		OnDutyWarnMarginHours:  1,
		WeeklyWarnMarginHours:  5,
		ExpiryLookaheadDays:    30,
		ReviewMaxAgeDays:       365,
	}
}

// defaultConfig 默认配置（开发环境）
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name:     "compliance-service",
			Host:     "0.0.0.0",
			GRPCPort: 50051,
			HTTPPort: 8080,
		},
		Database: DatabaseConfig{
			Driver:   "mysql",
			Host:     "localhost",
			Port:     3306,
			User:     "root",
			Password: "root",
			Database: "vinelink",
			MaxIdle:  10,
			MaxOpen:  100,
		},
		Consul: ConsulConfig{
			Host: "localhost",
			Port: 8500,
		},
		Jaeger: JaegerConfig{
			Endpoint: "http://localhost:14268/api/traces",
			Sampler:  1.0,
		},
		Auth: AuthConfig{
			Enabled:  false,
			Issuer:   "vinelink",
			Audience: "vinelink",
		},
		Compliance: defaultComplianceConfig(),
		Log: LogConfig{
			Level:  "debug",
			Format: "text",
			Output: "stdout",
			Path:   "logs/app.log",
		},
	}
}
