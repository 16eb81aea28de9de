package summary

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

var ctx = context.Background()

// markerTTL 兜底过期时间：进程在请求途中挂掉时标记不会永久残留。
const markerTTL = 2 * time.Minute

// MarkerStore 记录"摘要生成中"的笔记。同一笔记同时只允许一个
// 在途请求：Acquire 基于 SETNX，第二个请求直接被拒。
type MarkerStore struct {
	rdb *redis.Client
}

func NewMarkerStore(rdb *redis.Client) *MarkerStore {
	return &MarkerStore{rdb: rdb}
}

func markerKey(noteID uint64) string {
	return fmt.Sprintf("sn:summary:generating:%d", noteID)
}

// Acquire 尝试为笔记设置生成中标记，已存在时返回 false。
func (m *MarkerStore) Acquire(noteID uint64) (bool, error) {
	return m.rdb.SetNX(ctx, markerKey(noteID), "1", markerTTL).Result()
}

// Release 清除标记。成功失败路径都必须调用。
func (m *MarkerStore) Release(noteID uint64) error {
	return m.rdb.Del(ctx, markerKey(noteID)).Err()
}

// Generating reports whether a summary request is currently in flight.
func (m *MarkerStore) Generating(noteID uint64) (bool, error) {
	res, err := m.rdb.Exists(ctx, markerKey(noteID)).Result()
	return res == 1, err
}
