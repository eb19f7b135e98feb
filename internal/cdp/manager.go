// Package cdp 通过 DevTools 协议把页面对拦截 origin 的请求转交给调度器，
// 并把调度结果以 Fetch.fulfillRequest / Fetch.failRequest 回复给浏览器。
package cdp

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/mafredri/cdp"
	"github.com/mafredri/cdp/devtool"
	"github.com/mafredri/cdp/protocol/fetch"
	"github.com/mafredri/cdp/protocol/network"
	"github.com/mafredri/cdp/rpcc"

	"appscheme/internal/logger"
	"appscheme/internal/scheme"
	"appscheme/pkg/domain"
)

// Dispatcher 拦截请求的调度方
type Dispatcher interface {
	Start(r *scheme.Request)
	Stop(r *scheme.Request)
}

// fetchDomain Fetch 域中用到的方法
type fetchDomain interface {
	ContinueRequest(ctx context.Context, args *fetch.ContinueRequestArgs) error
	FulfillRequest(ctx context.Context, args *fetch.FulfillRequestArgs) error
	FailRequest(ctx context.Context, args *fetch.FailRequestArgs) error
}

// Config 管理器配置
type Config struct {
	DevToolsURL string
	// Origin 浏览器侧被拦截的地址前缀，例如 https://app.local
	Origin string
	// Upstream 默认路由转发的真实主机，例如 en.wikipedia.org 或 localhost:8080
	Upstream   string
	Scheme     scheme.Origin
	Dispatcher Dispatcher
	TimeoutMS  int
	Logger     logger.Logger
}

// Manager 单个目标的 CDP 连接
type Manager struct {
	devtoolsURL string
	origin      *url.URL
	upstream    string
	scheme      scheme.Origin
	d           Dispatcher
	timeout     time.Duration
	log         logger.Logger

	target domain.TargetID
	conn   *rpcc.Conn
	client *cdp.Client
	fetch  fetchDomain

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	inflight  map[string]*scheme.Request
	consuming bool
	closed    bool

	loops   sync.WaitGroup
	replies sync.WaitGroup
}

// New 创建管理器
func New(cfg Config) (*Manager, error) {
	origin, err := url.Parse(cfg.Origin)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("cdp: invalid origin %q", cfg.Origin)
	}
	if cfg.Upstream == "" {
		return nil, fmt.Errorf("cdp: missing upstream host")
	}
	if cfg.Dispatcher == nil {
		return nil, fmt.Errorf("cdp: missing dispatcher")
	}
	to := cfg.TimeoutMS
	if to <= 0 {
		to = 3000
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		devtoolsURL: cfg.DevToolsURL,
		origin:      origin,
		upstream:    cfg.Upstream,
		scheme:      cfg.Scheme,
		d:           cfg.Dispatcher,
		timeout:     time.Duration(to) * time.Millisecond,
		log:         cfg.Logger,
		ctx:         ctx,
		cancel:      cancel,
		inflight:    make(map[string]*scheme.Request),
	}, nil
}

// ListTargets 列出 DevTools 端点上的所有目标
func ListTargets(ctx context.Context, devtoolsURL string, current domain.TargetID) ([]domain.TargetInfo, error) {
	targets, err := devtool.New(devtoolsURL).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	out := make([]domain.TargetInfo, 0, len(targets))
	for _, t := range targets {
		out = append(out, domain.TargetInfo{
			ID:        domain.TargetID(t.ID),
			Type:      string(t.Type),
			URL:       t.URL,
			Title:     t.Title,
			IsCurrent: domain.TargetID(t.ID) == current,
			IsUser:    t.Type == devtool.Page,
		})
	}
	return out, nil
}

// Attach 连接目标；target 为空时选择第一个页面
func (m *Manager) Attach(ctx context.Context, target domain.TargetID) (domain.TargetInfo, error) {
	targets, err := devtool.New(m.devtoolsURL).List(ctx)
	if err != nil {
		return domain.TargetInfo{}, fmt.Errorf("list targets: %w", err)
	}
	var sel *devtool.Target
	for _, t := range targets {
		if target == "" && t.Type == devtool.Page {
			sel = t
			break
		}
		if domain.TargetID(t.ID) == target {
			sel = t
			break
		}
	}
	if sel == nil {
		return domain.TargetInfo{}, fmt.Errorf("cdp: target %q not found", target)
	}

	conn, err := rpcc.DialContext(ctx, sel.WebSocketDebuggerURL)
	if err != nil {
		return domain.TargetInfo{}, fmt.Errorf("dial %s: %w", sel.WebSocketDebuggerURL, err)
	}
	m.conn = conn
	m.client = cdp.NewClient(conn)
	m.fetch = m.client.Fetch
	m.target = domain.TargetID(sel.ID)
	m.log = m.log.With("target", sel.ID)
	m.log.Info("已连接目标", "url", sel.URL, "title", sel.Title)

	return domain.TargetInfo{
		ID:        m.target,
		Type:      string(sel.Type),
		URL:       sel.URL,
		Title:     sel.Title,
		IsCurrent: true,
		IsUser:    sel.Type == devtool.Page,
	}, nil
}

// Target 当前连接的目标
func (m *Manager) Target() domain.TargetID { return m.target }

// Enable 启用 Network 与 Fetch 域并开始消费事件
func (m *Manager) Enable() error {
	if m.client == nil {
		return fmt.Errorf("cdp: not attached")
	}
	if err := m.client.Network.Enable(m.ctx, nil); err != nil {
		return fmt.Errorf("enable network: %w", err)
	}
	p := m.origin.Scheme + "://" + m.origin.Host + "/*"
	patterns := []fetch.RequestPattern{{URLPattern: &p, RequestStage: fetch.RequestStageRequest}}
	if err := m.client.Fetch.Enable(m.ctx, &fetch.EnableArgs{Patterns: patterns}); err != nil {
		return fmt.Errorf("enable fetch: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.consuming {
		return nil
	}
	paused, err := m.client.Fetch.RequestPaused(m.ctx)
	if err != nil {
		return fmt.Errorf("subscribe requestPaused: %w", err)
	}
	failed, err := m.client.Network.LoadingFailed(m.ctx)
	if err != nil {
		paused.Close()
		return fmt.Errorf("subscribe loadingFailed: %w", err)
	}
	m.consuming = true
	m.loops.Add(2)
	go m.consumePaused(paused)
	go m.consumeFailed(failed)
	m.log.Info("已启用拦截", "pattern", p)
	return nil
}

// Disable 停止拦截新的请求；已在处理中的请求照常完成
func (m *Manager) Disable() error {
	if m.client == nil {
		return fmt.Errorf("cdp: not attached")
	}
	if err := m.client.Fetch.Disable(m.ctx); err != nil {
		return fmt.Errorf("disable fetch: %w", err)
	}
	m.log.Info("已禁用拦截")
	return nil
}

// Detach 取消所有未完成的请求并断开连接
func (m *Manager) Detach() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	pending := make([]*scheme.Request, 0, len(m.inflight))
	for k, r := range m.inflight {
		pending = append(pending, r)
		delete(m.inflight, k)
	}
	m.mu.Unlock()

	for _, r := range pending {
		m.d.Stop(r)
	}
	m.cancel()
	m.replies.Wait()
	m.loops.Wait()
	if len(pending) > 0 {
		m.log.Info("断开时取消未完成的请求", "count", len(pending))
	}
	if m.conn != nil {
		return m.conn.Close()
	}
	return nil
}

func (m *Manager) consumePaused(stream fetch.RequestPausedClient) {
	defer m.loops.Done()
	defer stream.Close()
	for {
		ev, err := stream.Recv()
		if err != nil {
			return
		}
		m.handlePaused(ev)
	}
}

func (m *Manager) consumeFailed(stream network.LoadingFailedClient) {
	defer m.loops.Done()
	defer stream.Close()
	for {
		ev, err := stream.Recv()
		if err != nil {
			return
		}
		m.handleFailed(ev)
	}
}
