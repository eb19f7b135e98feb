// Package network 定义拦截层依赖的网络会话抽象及其 HTTP 实现。
//
// 会话负责真实的传输、重试以及回退到本地缓存的策略；调用方只关心任务的
// 启动、取消以及异步回调。回调可能在任意 goroutine 上触发。
package network

import (
	"errors"

	"appscheme/pkg/traffic"
)

// 请求头：条目类型标记，会话据此决定是否记录校验信息并允许缓存回退
const (
	HeaderItemType    = "Persistent-Cache-Item-Type"
	HeaderETag        = "ETag"
	HeaderIfNoneMatch = "If-None-Match"

	ItemTypeArticle = "article"
	ItemTypeImage   = "image"
)

// ErrCancelled 任务被取消。取消不是用户可见的失败
var ErrCancelled = errors.New("network: cancelled")

// Priority 调度优先级
type Priority int

const (
	PriorityNormal Priority = iota
	// PriorityLow 后台/预取性质的请求
	PriorityLow
)

func (p Priority) String() string {
	if p == PriorityLow {
		return "low"
	}
	return "normal"
}

// TaskState 任务状态
type TaskState int

const (
	TaskSuspended TaskState = iota
	TaskRunning
	TaskCancelling
	TaskCompleted
)

func (s TaskState) String() string {
	switch s {
	case TaskSuspended:
		return "suspended"
	case TaskRunning:
		return "running"
	case TaskCancelling:
		return "cancelling"
	case TaskCompleted:
		return "completed"
	}
	return "unknown"
}

// Task 一次网络获取的句柄
type Task interface {
	Resume()
	Cancel()
	State() TaskState
}

// TaskHandler 接收任务回调。OnResponse 最多一次，OnData 零或多次，
// 随后恰好一次 OnSuccess 或 OnFailure。
type TaskHandler interface {
	OnResponse(task Task, resp *traffic.Response)
	OnData(task Task, data []byte)
	OnSuccess(task Task, usedFallbackCache bool)
	OnFailure(task Task, err error)
}

// Session 创建网络任务；返回的任务处于挂起状态，需调用 Resume 启动
type Session interface {
	DataTask(req *traffic.Request, priority Priority, handler TaskHandler) Task
}
