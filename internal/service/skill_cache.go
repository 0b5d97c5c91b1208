package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"learnhub_backend/internal/model"

	"github.com/go-redis/redis/v8"
)

// SkillCache 技能画像的 Redis 缓存。客户端为 nil 时所有操作都是空操作，
// 部署可以不带 Redis 运行（测试也是）。
type SkillCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSkillCache(rdb *redis.Client, ttl time.Duration) *SkillCache {
	return &SkillCache{rdb: rdb, ttl: ttl}
}

func skillCacheKey(userID uint) string {
	return fmt.Sprintf("skill:profile:%d", userID)
}

func (c *SkillCache) Get(ctx context.Context, userID uint) ([]model.SkillNode, bool) {
	if c == nil || c.rdb == nil || c.ttl <= 0 {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, skillCacheKey(userID)).Bytes()
	if err != nil {
		return nil, false
	}
	var nodes []model.SkillNode
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, false
	}
	return nodes, true
}

func (c *SkillCache) Set(ctx context.Context, userID uint, nodes []model.SkillNode) {
	if c == nil || c.rdb == nil || c.ttl <= 0 {
		return
	}
	data, err := json.Marshal(nodes)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, skillCacheKey(userID), data, c.ttl)
}

// Invalidate 在新判分提交落库后调用，避免画像读到过期均分
func (c *SkillCache) Invalidate(ctx context.Context, userID uint) {
	if c == nil || c.rdb == nil {
		return
	}
	c.rdb.Del(ctx, skillCacheKey(userID))
}
