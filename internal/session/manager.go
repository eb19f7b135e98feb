package session

import (
	"sync"

	"appscheme/internal/logger"
	"appscheme/pkg/domain"
)

// Target 已连接目标的最小接口
type Target interface {
	Enable() error
	Disable() error
	Detach() error
}

// Manager 已连接目标的注册表
type Manager struct {
	mu      sync.RWMutex
	targets map[domain.TargetID]Target
	log     logger.Logger
}

// NewManager 创建目标注册表
func NewManager(l logger.Logger) *Manager {
	if l == nil {
		l = logger.NewNop()
	}
	return &Manager{
		targets: make(map[domain.TargetID]Target),
		log:     l,
	}
}

// Add 注册目标；同一 ID 已存在时返回 false
func (m *Manager) Add(id domain.TargetID, t Target) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.targets[id]; ok {
		return false
	}
	m.targets[id] = t
	m.log.Info("注册目标", "target", string(id))
	return true
}

// Get 获取目标
func (m *Manager) Get(id domain.TargetID) (Target, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.targets[id]
	return t, ok
}

// Remove 注销并返回目标
func (m *Manager) Remove(id domain.TargetID) (Target, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.targets[id]
	if ok {
		delete(m.targets, id)
		m.log.Info("注销目标", "target", string(id))
	}
	return t, ok
}

// IDs 返回所有已注册目标的 ID
func (m *Manager) IDs() []domain.TargetID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := make([]domain.TargetID, 0, len(m.targets))
	for id := range m.targets {
		list = append(list, id)
	}
	return list
}

// Drain 注销所有目标并返回它们
func (m *Manager) Drain() []Target {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]Target, 0, len(m.targets))
	for id, t := range m.targets {
		list = append(list, t)
		delete(m.targets, id)
	}
	return list
}
