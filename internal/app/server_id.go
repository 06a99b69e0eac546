package app

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

// GenerateRunID 生成本次运行标识
// 优先使用环境变量 ANEMO_RUN_ID，否则生成 {app}-{hostname}-{uuid前8位}
func GenerateRunID(app string) string {
	if id := os.Getenv("ANEMO_RUN_ID"); id != "" {
		return id
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	shortUUID := uuid.New().String()[:8]
	return fmt.Sprintf("%s-%s-%s", app, hostname, shortUUID)
}
