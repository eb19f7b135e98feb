package api

import (
	"context"

	"appscheme/internal/article"
	"appscheme/internal/service"
	"appscheme/pkg/domain"
)

// Service 服务接口
type Service interface {
	// AttachTarget 附加目标
	AttachTarget(ctx context.Context, target domain.TargetID) (domain.TargetInfo, error)

	// DetachTarget 分离目标
	DetachTarget(target domain.TargetID) error

	// ListTargets 列出目标
	ListTargets(ctx context.Context) ([]domain.TargetInfo, error)

	// EnableInterception 启用拦截
	EnableInterception(target domain.TargetID) error

	// DisableInterception 禁用拦截
	DisableInterception(target domain.TargetID) error

	// CacheArticle 缓存文章供章节数据使用
	CacheArticle(ctx context.Context, a article.Article) error

	// Stats 获取调度统计
	Stats() domain.Stats

	// SubscribeEvents 订阅事件
	SubscribeEvents() (<-chan domain.InterceptEvent, error)

	// Close 关闭服务
	Close() error
}

// NewService 创建并返回服务接口实现
func NewService(cfg service.Config) (Service, error) {
	s, err := service.New(cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}
