package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/sales-api/internal/model"
	"github.com/d60-Lab/sales-api/pkg/logger"
)

// OrderCache 用户订单列表快照缓存。
// 结算/取消会改订单状态，写路径负责失效；读路径 miss 时回源数据库。
type OrderCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewOrderCache 创建订单快照缓存
func NewOrderCache(rdb *redis.Client, ttl time.Duration) *OrderCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &OrderCache{rdb: rdb, ttl: ttl}
}

func (c *OrderCache) key(userID int64) string {
	return fmt.Sprintf("orders:user:%d", userID)
}

// Get 命中返回快照，miss 或反序列化失败都当作未命中
func (c *OrderCache) Get(ctx context.Context, userID int64) ([]*model.Order, bool) {
	data, err := c.rdb.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		return nil, false
	}
	var orders []*model.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, false
	}
	return orders, true
}

// Set 写入快照，失败只记日志（缓存不可用不影响主链路）
func (c *OrderCache) Set(ctx context.Context, userID int64, orders []*model.Order) {
	payload, err := json.Marshal(orders)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.key(userID), payload, c.ttl).Err(); err != nil {
		logger.Warn("order cache set failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// Invalidate 状态变更后删除快照
func (c *OrderCache) Invalidate(ctx context.Context, userID int64) {
	if err := c.rdb.Del(ctx, c.key(userID)).Err(); err != nil {
		logger.Warn("order cache invalidate failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}
