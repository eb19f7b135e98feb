package scheme

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"appscheme/internal/network"
)

var (
	// ErrInvalidParameters 查询参数或路径形状不合法
	ErrInvalidParameters = errors.New("scheme: invalid parameters")
	// ErrResponseConstruction 无法构建合成响应
	ErrResponseConstruction = errors.New("scheme: response construction failure")
	// ErrHandlerValidation 子处理器既没有给出响应也没有给出错误
	ErrHandlerValidation = errors.New("scheme: handler validation failure")
	// ErrQueueFull 后台路由队列已满
	ErrQueueFull = errors.New("scheme: routing queue full")
	// ErrCancelled 请求被取消，不应作为用户可见的失败展示
	ErrCancelled = network.ErrCancelled
)

// StatusKind 非 2xx 状态码的分类
type StatusKind string

const (
	StatusUnauthorized    StatusKind = "unauthorized"
	StatusForbidden       StatusKind = "forbidden"
	StatusNotFound        StatusKind = "notFound"
	StatusTimeout         StatusKind = "timeout"
	StatusTooManyRequests StatusKind = "tooManyRequests"
	StatusServer          StatusKind = "server"
	StatusUnexpected      StatusKind = "unexpected"
)

// StatusError 由非 2xx HTTP 响应转换得到的失败
type StatusError struct {
	Code int
	Kind StatusKind
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("scheme: http status %d (%s)", e.Code, e.Kind)
}

// StatusErrorFrom 将状态码转换为 StatusError；2xx 返回 nil
func StatusErrorFrom(code int) error {
	if code >= 200 && code < 300 {
		return nil
	}
	kind := StatusUnexpected
	switch {
	case code == http.StatusUnauthorized:
		kind = StatusUnauthorized
	case code == http.StatusForbidden:
		kind = StatusForbidden
	case code == http.StatusNotFound, code == http.StatusGone:
		kind = StatusNotFound
	case code == http.StatusRequestTimeout, code == http.StatusGatewayTimeout:
		kind = StatusTimeout
	case code == http.StatusTooManyRequests:
		kind = StatusTooManyRequests
	case code >= 500 && code < 600:
		kind = StatusServer
	}
	return &StatusError{Code: code, Kind: kind}
}

// IsCancelled 判断错误是否为取消
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}
