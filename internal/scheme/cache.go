package scheme

import (
	"bytes"
	"sync"

	"appscheme/pkg/traffic"
)

// DefaultCacheCapacity 本地资源响应缓存容量
const DefaultCacheCapacity = 6

type cacheEntry struct {
	resp *traffic.Response
	data []byte
}

// ResponseCache 按相对路径缓存文件响应，先进先出淘汰，读取不影响淘汰顺序
type ResponseCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]cacheEntry
	order    []string
}

func NewResponseCache(capacity int) *ResponseCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &ResponseCache{
		capacity: capacity,
		entries:  make(map[string]cacheEntry, capacity),
		order:    make([]string, 0, capacity),
	}
}

// Get 返回缓存的响应及数据副本
func (c *ResponseCache) Get(path string) (*traffic.Response, []byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[path]
	if !ok {
		return nil, nil, false
	}
	return cloneResponse(e.resp), bytes.Clone(e.data), true
}

// Put 写入缓存并保存数据副本；已存在的路径替换内容但保留原插入位置
func (c *ResponseCache) Put(path string, resp *traffic.Response, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[path]; ok {
		c.entries[path] = cacheEntry{resp: cloneResponse(resp), data: bytes.Clone(data)}
		return
	}
	for len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[path] = cacheEntry{resp: cloneResponse(resp), data: bytes.Clone(data)}
	c.order = append(c.order, path)
}

// Len 当前条目数
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func cloneResponse(r *traffic.Response) *traffic.Response {
	out := *r
	out.Headers = r.Headers.Clone()
	return &out
}
