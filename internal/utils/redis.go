// 包 utils：Postgres / Redis / TLS 的连接工具
package utils

import (
	"demsausage-api/internal/config"
	"demsausage-api/internal/logger"

	"github.com/redis/go-redis/v9"
)

// OpenRedis：REDIS_ENABLED 未开启时返回 nil，调用方据此回退到进程内缓存
func OpenRedis(c *config.Config) *redis.Client {
	if !c.RedisEnabled {
		return nil
	}
	logger.L().Debug("redis_env", "addr", c.RedisAddr(), "db", c.RedisDB)
	return redis.NewClient(&redis.Options{Addr: c.RedisAddr(), Password: c.RedisPass, DB: c.RedisDB})
}
