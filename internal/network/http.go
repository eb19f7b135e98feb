package network

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"appscheme/internal/logger"
	"appscheme/pkg/traffic"
)

const (
	chunkSize = 32 << 10
	// 超过此大小的响应不记录内容
	maxStoredBody = 8 << 20
)

// HTTPConfig HTTP 会话配置
type HTTPConfig struct {
	Client           *http.Client
	Validators       ValidatorStore
	LowPrioritySlots int
	MaxRetries       int
	// BackOff 为空时使用指数退避
	BackOff   func() backoff.BackOff
	UserAgent string
	Logger    logger.Logger
}

// HTTPSession 基于 net/http 的会话实现
type HTTPSession struct {
	client     *http.Client
	validators ValidatorStore
	lowSlots   chan struct{}
	maxTries   uint
	backOff    func() backoff.BackOff
	userAgent  string
	log        logger.Logger
}

// NewHTTPSession 创建 HTTP 会话
func NewHTTPSession(cfg HTTPConfig) *HTTPSession {
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	if cfg.LowPrioritySlots <= 0 {
		cfg.LowPrioritySlots = 2
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BackOff == nil {
		cfg.BackOff = func() backoff.BackOff { return backoff.NewExponentialBackOff() }
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	return &HTTPSession{
		client:     cfg.Client,
		validators: cfg.Validators,
		lowSlots:   make(chan struct{}, cfg.LowPrioritySlots),
		maxTries:   uint(cfg.MaxRetries) + 1,
		backOff:    cfg.BackOff,
		userAgent:  cfg.UserAgent,
		log:        cfg.Logger,
	}
}

// DataTask 创建挂起状态的任务
func (s *HTTPSession) DataTask(req *traffic.Request, priority Priority, handler TaskHandler) Task {
	return &httpTask{s: s, req: req.Clone(), priority: priority, h: handler}
}

type httpTask struct {
	s        *HTTPSession
	req      *traffic.Request
	priority Priority
	h        TaskHandler

	mu     sync.Mutex
	state  TaskState
	cancel context.CancelFunc
}

func (t *httpTask) State() TaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *httpTask) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TaskSuspended {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.state = TaskRunning
	t.cancel = cancel
	go t.run(ctx)
}

func (t *httpTask) Cancel() {
	t.mu.Lock()
	switch t.state {
	case TaskCompleted, TaskCancelling:
		t.mu.Unlock()
		return
	case TaskSuspended:
		// 未启动的任务直接结束
		t.state = TaskCompleted
		t.mu.Unlock()
		go t.h.OnFailure(t, ErrCancelled)
		return
	}
	t.state = TaskCancelling
	cancel := t.cancel
	t.mu.Unlock()
	cancel()
}

// complete 标记完成并释放上下文
func (t *httpTask) complete() {
	t.mu.Lock()
	t.state = TaskCompleted
	cancel := t.cancel
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (t *httpTask) fail(ctx context.Context, err error) {
	if ctx.Err() != nil {
		err = ErrCancelled
	}
	t.complete()
	t.h.OnFailure(t, err)
}

func (t *httpTask) run(ctx context.Context) {
	log := t.s.log.With("url", t.req.URL, "priority", t.priority.String())

	if t.priority == PriorityLow {
		select {
		case t.s.lowSlots <- struct{}{}:
			defer func() { <-t.s.lowSlots }()
		case <-ctx.Done():
			t.fail(ctx, ErrCancelled)
			return
		}
	}

	persist := t.req.Headers.Has(HeaderItemType) && t.s.validators != nil
	var stored Validator
	var haveStored bool
	if persist {
		v, found, err := t.s.validators.Load(ctx, t.req.URL)
		if err != nil {
			log.Warn("读取校验信息失败", "error", err)
		}
		stored, haveStored = v, found && err == nil
	}

	resp, err := t.do(ctx)
	if err != nil {
		if ctx.Err() == nil && haveStored {
			log.Debug("请求失败，回退到本地缓存", "error", err)
			t.serveStored(stored)
			return
		}
		t.fail(ctx, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && haveStored {
		log.Debug("资源未修改，使用本地缓存")
		t.serveStored(stored)
		return
	}

	t.h.OnResponse(t, toResponse(t.req.URL, resp))

	var body *bytes.Buffer
	etag := resp.Header.Get(HeaderETag)
	if persist && resp.StatusCode == http.StatusOK && etag != "" {
		body = &bytes.Buffer{}
	}

	buf := make([]byte, chunkSize)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			if body != nil {
				if body.Len()+n > maxStoredBody {
					body = nil
				} else {
					body.Write(chunk)
				}
			}
			t.h.OnData(t, chunk)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			t.fail(ctx, fmt.Errorf("read body: %w", rerr))
			return
		}
	}

	if body != nil {
		v := Validator{
			ETag:     etag,
			Status:   resp.StatusCode,
			Header:   toResponse(t.req.URL, resp).Headers,
			Body:     body.Bytes(),
			StoredAt: time.Now(),
		}
		if err := t.s.validators.Save(ctx, t.req.URL, v); err != nil {
			log.Warn("保存校验信息失败", "error", err)
		}
	}

	t.complete()
	t.h.OnSuccess(t, false)
}

type retryableStatus struct{ code int }

func (e *retryableStatus) Error() string { return fmt.Sprintf("retryable status %d", e.code) }

// do 发送请求；网络错误与 5xx 在未读取响应体前重试
func (t *httpTask) do(ctx context.Context) (*http.Response, error) {
	var attempt uint
	op := func() (*http.Response, error) {
		attempt++
		req, err := t.httpRequest(ctx)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		resp, err := t.s.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError && attempt < t.s.maxTries {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, &retryableStatus{code: resp.StatusCode}
		}
		return resp, nil
	}
	resp, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(t.s.backOff()),
		backoff.WithMaxTries(t.s.maxTries),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", t.req.URL, err)
	}
	return resp, nil
}

func (t *httpTask) httpRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if len(t.req.Body) > 0 {
		body = bytes.NewReader(t.req.Body)
	}
	req, err := http.NewRequestWithContext(ctx, t.req.Method, t.req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range t.req.Headers {
		// 内部标记不发往服务端
		if strings.EqualFold(k, HeaderItemType) {
			continue
		}
		req.Header.Set(k, v)
	}
	if t.s.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.s.userAgent)
	}
	return req, nil
}

func (t *httpTask) serveStored(v Validator) {
	resp := traffic.NewResponse(t.req.URL, http.StatusOK)
	for k, val := range v.Header {
		resp.Headers.Set(k, val)
	}
	t.h.OnResponse(t, resp)
	if len(v.Body) > 0 {
		t.h.OnData(t, v.Body)
	}
	t.complete()
	t.h.OnSuccess(t, true)
}

func toResponse(rawURL string, resp *http.Response) *traffic.Response {
	out := traffic.NewResponse(rawURL, resp.StatusCode)
	for k, vals := range resp.Header {
		out.Headers.Set(k, strings.Join(vals, ", "))
	}
	return out
}
