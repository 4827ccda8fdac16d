package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/VineLink/VineLink/internal/common/auth"
	"github.com/VineLink/VineLink/internal/common/config"
)

var (
	configPath = flag.String("config", "configs/compliance-service.json", "配置文件路径")
	subject    = flag.String("subject", "", "操作员 ID（token subject）")
	roles      = flag.String("roles", "", "逗号分隔的角色列表，如 compliance_admin,dispatcher")
	ttl        = flag.Duration("ttl", 24*time.Hour, "token 有效期")
)

// 为运营后台/联调签发网关可用的 JWT。
func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	var roleList []string
	for _, r := range strings.Split(*roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roleList = append(roleList, r)
		}
	}

	token, expiresAt, err := auth.GenerateAccessToken(cfg.Auth, *subject, roleList, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", expiresAt.Format(time.RFC3339))
}
