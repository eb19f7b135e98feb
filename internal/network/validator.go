package network

import (
	"context"
	"sync"
	"time"

	"appscheme/pkg/traffic"
)

// Validator 一次成功响应的校验信息及其内容，用于条件请求与失败回退
type Validator struct {
	ETag     string
	Status   int
	Header   traffic.Header
	Body     []byte
	StoredAt time.Time
}

// ValidatorStore 校验信息存储
type ValidatorStore interface {
	// Load 返回 url 对应的校验信息；不存在时 found 为 false 且 err 为 nil
	Load(ctx context.Context, url string) (v Validator, found bool, err error)
	Save(ctx context.Context, url string, v Validator) error
}

// MemoryValidators 进程内校验信息存储
type MemoryValidators struct {
	mu sync.RWMutex
	m  map[string]Validator
}

func NewMemoryValidators() *MemoryValidators {
	return &MemoryValidators{m: make(map[string]Validator)}
}

func (s *MemoryValidators) Load(_ context.Context, url string) (Validator, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[url]
	return v, ok, nil
}

func (s *MemoryValidators) Save(_ context.Context, url string, v Validator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[url] = v
	return nil
}
