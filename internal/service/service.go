// Package service 组合调度器、CDP 目标与文章存储，对外提供统一的操作入口
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"appscheme/internal/article"
	"appscheme/internal/cdp"
	"appscheme/internal/logger"
	"appscheme/internal/scheme"
	"appscheme/internal/session"
	"appscheme/pkg/domain"
)

const subscriberBuffer = 256

// ErrClosed 服务已关闭
var ErrClosed = errors.New("service: closed")

// ArticleWriter 文章写入端
type ArticleWriter interface {
	Put(ctx context.Context, a article.Article) error
}

// Config 服务依赖
type Config struct {
	DevToolsURL string
	Origin      string
	// Upstream 默认路由转发的真实主机
	Upstream   string
	TimeoutMS  int
	Dispatcher *scheme.Dispatcher
	// Events 调度器的事件输出，由服务分发给订阅者
	Events   <-chan domain.InterceptEvent
	Articles ArticleWriter
	Logger   logger.Logger
}

// attachFunc 创建并连接一个目标
type attachFunc func(ctx context.Context, target domain.TargetID) (session.Target, domain.TargetInfo, error)

// Service 服务实现
type Service struct {
	cfg      Config
	d        *scheme.Dispatcher
	articles ArticleWriter
	targets  *session.Manager
	attach   attachFunc
	log      logger.Logger

	mu     sync.Mutex
	subs   []chan domain.InterceptEvent
	closed bool

	done    chan struct{}
	fanout  sync.WaitGroup
	closeMu sync.Once
}

// New 创建服务
func New(cfg Config) (*Service, error) {
	if cfg.Dispatcher == nil {
		return nil, fmt.Errorf("service: missing dispatcher")
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	s := &Service{
		cfg:      cfg,
		d:        cfg.Dispatcher,
		articles: cfg.Articles,
		targets:  session.NewManager(cfg.Logger),
		log:      cfg.Logger,
		done:     make(chan struct{}),
	}
	s.attach = s.attachCDP
	if cfg.Events != nil {
		s.fanout.Add(1)
		go s.distribute(cfg.Events)
	}
	return s, nil
}

func (s *Service) attachCDP(ctx context.Context, target domain.TargetID) (session.Target, domain.TargetInfo, error) {
	m, err := cdp.New(cdp.Config{
		DevToolsURL: s.cfg.DevToolsURL,
		Origin:      s.cfg.Origin,
		Upstream:    s.cfg.Upstream,
		Scheme:      s.d.Origin(),
		Dispatcher:  s.d,
		TimeoutMS:   s.cfg.TimeoutMS,
		Logger:      s.log,
	})
	if err != nil {
		return nil, domain.TargetInfo{}, err
	}
	info, err := m.Attach(ctx, target)
	if err != nil {
		_ = m.Detach()
		return nil, domain.TargetInfo{}, err
	}
	return m, info, nil
}

// AttachTarget 连接目标；target 为空时选择第一个页面
func (s *Service) AttachTarget(ctx context.Context, target domain.TargetID) (domain.TargetInfo, error) {
	if s.isClosed() {
		return domain.TargetInfo{}, ErrClosed
	}
	t, info, err := s.attach(ctx, target)
	if err != nil {
		return domain.TargetInfo{}, fmt.Errorf("attach target: %w", err)
	}
	if !s.targets.Add(info.ID, t) {
		_ = t.Detach()
		return domain.TargetInfo{}, fmt.Errorf("service: target %q already attached", info.ID)
	}
	return info, nil
}

// DetachTarget 断开目标并取消其未完成的请求
func (s *Service) DetachTarget(target domain.TargetID) error {
	t, ok := s.targets.Remove(target)
	if !ok {
		return fmt.Errorf("service: target %q not attached", target)
	}
	return t.Detach()
}

// ListTargets 列出浏览器中的目标，已连接的标记为当前
func (s *Service) ListTargets(ctx context.Context) ([]domain.TargetInfo, error) {
	list, err := cdp.ListTargets(ctx, s.cfg.DevToolsURL, "")
	if err != nil {
		return nil, err
	}
	for i := range list {
		_, list[i].IsCurrent = s.targets.Get(list[i].ID)
	}
	return list, nil
}

// EnableInterception 启用目标上的拦截
func (s *Service) EnableInterception(target domain.TargetID) error {
	t, ok := s.targets.Get(target)
	if !ok {
		return fmt.Errorf("service: target %q not attached", target)
	}
	return t.Enable()
}

// DisableInterception 停用目标上的拦截
func (s *Service) DisableInterception(target domain.TargetID) error {
	t, ok := s.targets.Get(target)
	if !ok {
		return fmt.Errorf("service: target %q not attached", target)
	}
	return t.Disable()
}

// CacheArticle 保存文章，供章节数据请求使用
func (s *Service) CacheArticle(ctx context.Context, a article.Article) error {
	if s.articles == nil {
		return fmt.Errorf("service: article store not configured")
	}
	if a.Key == "" {
		return fmt.Errorf("service: article key is empty")
	}
	return s.articles.Put(ctx, a)
}

// Stats 调度器运行统计
func (s *Service) Stats() domain.Stats {
	return s.d.Stats()
}

// SubscribeEvents 订阅拦截事件；订阅者消费过慢时丢弃事件。服务关闭时通道关闭
func (s *Service) SubscribeEvents() (<-chan domain.InterceptEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	ch := make(chan domain.InterceptEvent, subscriberBuffer)
	s.subs = append(s.subs, ch)
	return ch, nil
}

func (s *Service) distribute(events <-chan domain.InterceptEvent) {
	defer s.fanout.Done()
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return
			}
			s.publish(evt)
		case <-s.done:
			// 关闭期间调度器发出的事件仍然分发
			for {
				select {
				case evt, ok := <-events:
					if !ok {
						return
					}
					s.publish(evt)
				default:
					return
				}
			}
		}
	}
}

func (s *Service) publish(evt domain.InterceptEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

func (s *Service) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close 断开所有目标、关闭调度器并结束事件分发
func (s *Service) Close() error {
	var errs []error
	s.closeMu.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		for _, t := range s.targets.Drain() {
			if err := t.Detach(); err != nil {
				errs = append(errs, err)
			}
		}
		s.d.Close()
		close(s.done)
		s.fanout.Wait()

		s.mu.Lock()
		for _, ch := range s.subs {
			close(ch)
		}
		s.subs = nil
		s.mu.Unlock()
		s.log.Info("服务已关闭")
	})
	return errors.Join(errs...)
}
