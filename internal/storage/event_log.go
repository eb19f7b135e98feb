package storage

import (
	"context"
	"time"

	"gorm.io/gorm"

	"appscheme/internal/logger"
	"appscheme/pkg/domain"
)

// EventLog 将拦截事件写入数据库
type EventLog struct {
	db  *gorm.DB
	log logger.Logger
}

func NewEventLog(db *gorm.DB, l logger.Logger) *EventLog {
	if l == nil {
		l = logger.NewNop()
	}
	return &EventLog{db: db, log: l}
}

// Record 写入单条事件
func (e *EventLog) Record(ctx context.Context, evt domain.InterceptEvent) error {
	rec := EventRecord{
		Type:       string(evt.Type),
		Target:     string(evt.Target),
		RequestID:  string(evt.RequestID),
		URL:        evt.URL,
		Method:     evt.Method,
		Handler:    evt.Handler,
		StatusCode: evt.StatusCode,
		Fallback:   evt.Fallback,
		Error:      evt.Error,
		OccurredAt: time.UnixMilli(evt.Timestamp),
	}
	return e.db.WithContext(ctx).Create(&rec).Error
}

// Run 持续消费事件直到通道关闭或 ctx 结束
func (e *EventLog) Run(ctx context.Context, events <-chan domain.InterceptEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := e.Record(ctx, evt); err != nil {
				e.log.Err(err, "写入拦截事件失败", "type", string(evt.Type), "requestID", string(evt.RequestID))
			}
		}
	}
}

// Recent 按时间倒序返回最近的事件
func (e *EventLog) Recent(ctx context.Context, limit int) ([]EventRecord, error) {
	var out []EventRecord
	err := e.db.WithContext(ctx).Order("id desc").Limit(limit).Find(&out).Error
	return out, err
}
