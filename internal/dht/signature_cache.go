package dht

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// ============================================================================
//                              SignatureCache
// ============================================================================

// SignatureCache 消息签名去重缓存
//
// 有容量上限、按条目 TTL 过期的集合。节点转发的每条广播都先以签名
// 插入此缓存，已存在则说明消息回环，不再转发。
//
// 非并发安全：只由 Actor 的事件循环访问。
type SignatureCache struct {
	lru      *simplelru.LRU[string, time.Time]
	capacity int
	ttl      time.Duration
	clock    clock.Clock
}

// NewSignatureCache 创建签名缓存
//
// capacity 必须为正数；clk 为 nil 时使用系统时钟。
func NewSignatureCache(capacity int, ttl time.Duration, clk clock.Clock) (*SignatureCache, error) {
	if clk == nil {
		clk = clock.New()
	}
	lru, err := simplelru.NewLRU[string, time.Time](capacity, nil)
	if err != nil {
		return nil, err
	}
	return &SignatureCache{lru: lru, capacity: capacity, ttl: ttl, clock: clk}, nil
}

// Insert 插入签名，返回插入前是否已存在（未过期）
//
// 已存在时刷新过期时间。空签名是合法的独立键。
func (c *SignatureCache) Insert(sig []byte) (alreadyExists bool) {
	now := c.clock.Now()
	key := string(sig)

	if expiry, ok := c.lru.Peek(key); ok && now.Before(expiry) {
		c.lru.Add(key, now.Add(c.ttl))
		return true
	}

	// 条目按插入顺序排列，且 TTL 固定，最旧的条目最先过期
	c.purgeExpired(now)
	c.lru.Add(key, now.Add(c.ttl))
	return false
}

// Len 返回未过期条目数
func (c *SignatureCache) Len() int {
	c.purgeExpired(c.clock.Now())
	return c.lru.Len()
}

// Capacity 返回容量上限
func (c *SignatureCache) Capacity() int {
	return c.capacity
}

// purgeExpired 从最旧端移除已过期条目
func (c *SignatureCache) purgeExpired(now time.Time) {
	for {
		_, expiry, ok := c.lru.GetOldest()
		if !ok || now.Before(expiry) {
			return
		}
		c.lru.RemoveOldest()
	}
}
