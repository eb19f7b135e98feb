// Package scheme 拦截私有 scheme 下的加载请求，按路径路由到本地文件、API 代理、
// 文章章节数据或直接透传，并管理每个请求的启动、取消与完成。
//
// 所有请求记录只在一个控制 goroutine 上读写；路由决策与本地 I/O 在一个串行的
// 后台队列上执行，结果再回到控制 goroutine 处理。网络会话的回调同样先转投到
// 控制 goroutine，再检查请求是否仍然存活。
package scheme

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/url"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"appscheme/internal/article"
	"appscheme/internal/logger"
	"appscheme/internal/network"
	"appscheme/pkg/domain"
	"appscheme/pkg/traffic"
)

// EnvironmentLocal 本地开发环境，localhost 使用 http
const EnvironmentLocal = "local"

// Config 调度器依赖
type Config struct {
	Origin      Origin
	Environment string
	Session     network.Session
	Assets      fs.FS
	Articles    article.Store
	// Validators 可选，用于为远程请求补充 If-None-Match
	Validators network.ValidatorStore
	Cache      *ResponseCache
	QueueSize  int
	Events     chan<- domain.InterceptEvent
	Logger     logger.Logger
}

type recordState int

const (
	statePending recordState = iota
	stateActive
)

// record 单个请求的权威记录；从 map 中删除即为终态
type record struct {
	req     *Request
	state   recordState
	handler string
	op      *operation
	task    network.Task
}

// Dispatcher 拦截请求的唯一入口
type Dispatcher struct {
	origin      Origin
	environment string
	session     network.Session
	validators  network.ValidatorStore
	cache       *ResponseCache

	router  *Router
	files   *FileHandler
	api     *APIHandler
	section *SectionHandler
	def     *DefaultHandler

	control chan func()
	queue   *serialQueue
	records map[*Request]*record

	events chan<- domain.InterceptEvent
	log    logger.Logger

	started   atomic.Int64
	finished  atomic.Int64
	failed    atomic.Int64
	cancelled atomic.Int64

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New 创建调度器并启动控制 goroutine 与后台队列
func New(cfg Config) (*Dispatcher, error) {
	if cfg.Origin.Scheme == "" {
		return nil, errors.New("scheme: missing origin scheme")
	}
	if cfg.Session == nil {
		return nil, errors.New("scheme: missing network session")
	}
	if cfg.Assets == nil {
		return nil, errors.New("scheme: missing asset filesystem")
	}
	if cfg.Cache == nil {
		cfg.Cache = NewResponseCache(DefaultCacheCapacity)
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}

	d := &Dispatcher{
		origin:      cfg.Origin,
		environment: cfg.Environment,
		session:     cfg.Session,
		validators:  cfg.Validators,
		cache:       cfg.Cache,
		files:       NewFileHandler(cfg.Origin, cfg.Assets, cfg.Cache),
		api:         NewAPIHandler(cfg.Origin),
		section:     NewSectionHandler(cfg.Origin, cfg.Articles),
		def:         NewDefaultHandler(cfg.Origin),
		control:     make(chan func(), cfg.QueueSize),
		queue:       newSerialQueue(cfg.QueueSize),
		records:     make(map[*Request]*record),
		events:      cfg.Events,
		log:         cfg.Logger,
		done:        make(chan struct{}),
	}
	d.router = NewRouter(d.def, d.files, d.api, d.section)

	d.wg.Add(1)
	go d.loop()
	return d, nil
}

func (d *Dispatcher) loop() {
	defer d.wg.Done()
	for {
		select {
		case fn := <-d.control:
			fn()
		case <-d.done:
			d.shutdown()
			return
		}
	}
}

// post 将 fn 投递到控制 goroutine；调度器已关闭时返回 false
func (d *Dispatcher) post(fn func()) bool {
	select {
	case <-d.done:
		return false
	default:
	}
	select {
	case d.control <- fn:
		return true
	case <-d.done:
		return false
	}
}

// Start 开始处理一个拦截请求
func (d *Dispatcher) Start(r *Request) {
	if !d.post(func() { d.start(r) }) {
		d.log.Warn("调度器已关闭，忽略请求", "requestID", string(r.ID), "url", r.original.URL)
	}
}

// Stop 取消请求。返回后该请求不会再收到任何回调
func (d *Dispatcher) Stop(r *Request) {
	executed := make(chan struct{})
	if !d.post(func() {
		d.stop(r)
		close(executed)
	}) {
		return
	}
	select {
	case <-executed:
	case <-d.done:
	}
}

// Close 取消所有未完成的请求并停止后台 goroutine
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.done)
		d.wg.Wait()
		d.queue.close()
	})
}

// Outstanding 返回仍在处理中的请求数
func (d *Dispatcher) Outstanding() int {
	n := make(chan int, 1)
	if !d.post(func() { n <- len(d.records) }) {
		return 0
	}
	select {
	case v := <-n:
		return v
	case <-d.done:
		return 0
	}
}

// Stats 返回运行统计
func (d *Dispatcher) Stats() domain.Stats {
	return domain.Stats{
		Outstanding: d.Outstanding(),
		Started:     d.started.Load(),
		Finished:    d.finished.Load(),
		Failed:      d.failed.Load(),
		Cancelled:   d.cancelled.Load(),
	}
}

// Origin 私有 scheme 与主机
func (d *Dispatcher) Origin() Origin { return d.origin }

// SetResponseData 预先写入本地资源缓存
func (d *Dispatcher) SetResponseData(data []byte, contentType, relativePath, requestURL string) {
	resp := traffic.NewResponse(requestURL, 200)
	if contentType != "" {
		resp.Headers.Set("Content-Type", contentType)
	}
	d.cache.Put(relativePath, resp, data)
}

// FileURL 构造本地资源的拦截 URL
func (d *Dispatcher) FileURL(relativePath, fragment string) *url.URL {
	return d.files.InterceptedURL(relativePath, fragment)
}

// APIURL 构造 API 代理的拦截 URL
func (d *Dispatcher) APIURL(real *url.URL) (*url.URL, bool) {
	return d.api.InterceptedURL(real)
}

// SectionURL 构造章节数据的拦截 URL
func (d *Dispatcher) SectionURL(articleKey string, imageWidth int) *url.URL {
	return d.section.InterceptedURL(articleKey, imageWidth)
}

// InterceptedURL 将真实地址映射为私有 scheme 地址
func (d *Dispatcher) InterceptedURL(real *url.URL) *url.URL {
	return d.def.InterceptedURL(real)
}

// start 在控制 goroutine 上执行
func (d *Dispatcher) start(r *Request) {
	if _, dup := d.records[r]; dup {
		d.log.Warn("重复启动的请求", "requestID", string(r.ID))
		return
	}
	d.started.Add(1)
	d.emit(r, domain.EventStarted, "", 0, nil)

	u, err := url.Parse(r.original.URL)
	if err != nil {
		d.failUnregistered(r, fmt.Errorf("%w: %v", ErrInvalidParameters, err))
		return
	}
	components := PathComponents(u.Path)
	if !d.origin.Owns(u) || len(components) == 0 {
		d.failUnregistered(r, ErrInvalidParameters)
		return
	}

	target := r.original.Clone()
	target.URL = d.transportURL(u).String()
	target.Headers.SetIfAbsent(network.HeaderItemType, itemType(u.Path))

	rec := &record{req: r, state: statePending}
	h := d.router.Route(components)
	rec.handler = handlerName(h)
	rec.op = newOperation(func(ctx context.Context) {
		d.route(ctx, rec, h, target, components, u)
	})
	d.records[r] = rec

	if !d.queue.submit(rec.op) {
		delete(d.records, r)
		d.log.Warn("路由队列已满，拒绝请求", "requestID", string(r.ID), "url", r.original.URL)
		d.failUnregistered(r, ErrQueueFull)
		return
	}
	d.log.Debug("请求已排队", "requestID", string(r.ID), "handler", rec.handler, "url", r.original.URL)
}

// route 在后台队列执行
func (d *Dispatcher) route(ctx context.Context, rec *record, h Handler, target *traffic.Request, components []string, u *url.URL) {
	outcome := h.Resolve(ctx, target, components, u)
	if outcome.Kind == OutcomeFetch && outcome.Target != nil {
		d.addValidator(ctx, outcome.Target)
	}
	d.post(func() { d.deliver(rec, outcome) })
}

func (d *Dispatcher) addValidator(ctx context.Context, target *traffic.Request) {
	if d.validators == nil || target.Headers.Has(network.HeaderIfNoneMatch) {
		return
	}
	v, found, err := d.validators.Load(ctx, target.URL)
	if err != nil {
		d.log.Warn("读取校验信息失败", "url", target.URL, "error", err)
		return
	}
	if found && v.ETag != "" {
		target.Headers.Set(network.HeaderIfNoneMatch, v.ETag)
	}
}

// deliver 在控制 goroutine 上处理路由结果
func (d *Dispatcher) deliver(rec *record, outcome Outcome) {
	if cur, ok := d.records[rec.req]; !ok || cur != rec || rec.state != statePending {
		return
	}
	rec.op = nil
	r := rec.req

	switch outcome.Kind {
	case OutcomeResponse:
		d.remove(rec)
		d.finished.Add(1)
		d.emit(r, domain.EventServed, rec.handler, outcome.Response.StatusCode, nil)
		r.client.DidReceiveResponse(outcome.Response)
		if len(outcome.Data) > 0 {
			r.client.DidReceiveData(outcome.Data)
		}
		r.client.DidFinish(false)
	case OutcomeFetch:
		task := d.session.DataTask(outcome.Target, outcome.Priority, &taskHandler{d: d, rec: rec})
		rec.task = task
		rec.state = stateActive
		d.emit(r, domain.EventForwarded, rec.handler, 0, nil)
		d.log.Debug("开始网络请求", "requestID", string(r.ID), "target", outcome.Target.URL, "priority", outcome.Priority.String())
		task.Resume()
	case OutcomeFailure:
		d.terminate(rec, outcome.Err)
	default:
		d.terminate(rec, ErrHandlerValidation)
	}
}

// stop 在控制 goroutine 上执行，三项取消互不短路
func (d *Dispatcher) stop(r *Request) {
	rec, ok := d.records[r]
	if !ok {
		return
	}
	d.remove(rec)
	if rec.op != nil {
		rec.op.cancel()
	}
	if rec.task != nil {
		switch rec.task.State() {
		case network.TaskCompleted, network.TaskCancelling:
		default:
			rec.task.Cancel()
		}
	}
	d.cancelled.Add(1)
	d.emit(r, domain.EventCancelled, rec.handler, 0, nil)
	d.log.Debug("请求已取消", "requestID", string(r.ID))
}

func (d *Dispatcher) shutdown() {
	for _, rec := range d.records {
		d.remove(rec)
		if rec.op != nil {
			rec.op.cancel()
		}
		if rec.task != nil && rec.task.State() != network.TaskCompleted {
			rec.task.Cancel()
		}
		d.cancelled.Add(1)
		d.emit(rec.req, domain.EventCancelled, rec.handler, 0, nil)
		rec.req.client.DidFail(ErrCancelled)
	}
}

func (d *Dispatcher) remove(rec *record) {
	delete(d.records, rec.req)
}

// terminate 注销记录并投递唯一的失败回调
func (d *Dispatcher) terminate(rec *record, err error) {
	d.remove(rec)
	d.failUnregistered(rec.req, err)
}

func (d *Dispatcher) failUnregistered(r *Request, err error) {
	if IsCancelled(err) {
		d.cancelled.Add(1)
		d.emit(r, domain.EventCancelled, "", 0, err)
	} else {
		d.failed.Add(1)
		d.emit(r, domain.EventFailed, "", statusCode(err), err)
		d.log.Debug("请求失败", "requestID", string(r.ID), "url", r.original.URL, "error", err)
	}
	r.client.DidFail(err)
}

// emit 非阻塞发送事件
func (d *Dispatcher) emit(r *Request, typ domain.EventType, handler string, status int, err error) {
	d.send(d.newEvent(r, typ, handler, status, err))
}

func (d *Dispatcher) newEvent(r *Request, typ domain.EventType, handler string, status int, err error) domain.InterceptEvent {
	evt := domain.InterceptEvent{
		Type:       typ,
		Target:     r.Target,
		RequestID:  r.ID,
		URL:        r.original.URL,
		Method:     r.original.Method,
		Handler:    handler,
		StatusCode: status,
		Timestamp:  time.Now().UnixMilli(),
	}
	if err != nil {
		evt.Error = err.Error()
	}
	return evt
}

func (d *Dispatcher) send(evt domain.InterceptEvent) {
	if d.events == nil {
		return
	}
	select {
	case d.events <- evt:
	default:
	}
}

// transportURL 把私有 scheme 换成真实传输 scheme
func (d *Dispatcher) transportURL(u *url.URL) *url.URL {
	out := *u
	out.Scheme = "https"
	if d.environment == EnvironmentLocal && u.Hostname() == "localhost" {
		out.Scheme = "http"
	}
	return &out
}

// itemType 根据扩展名对应的 MIME 类型判断是否为图片
func itemType(p string) string {
	if strings.HasPrefix(mime.TypeByExtension(path.Ext(p)), "image/") {
		return network.ItemTypeImage
	}
	return network.ItemTypeArticle
}

func handlerName(h Handler) string {
	if h.BasePath() == "" {
		return "default"
	}
	return h.BasePath()
}

func statusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
