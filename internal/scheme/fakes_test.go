package scheme

import (
	"context"
	"fmt"
	"io/fs"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"appscheme/internal/article"
	"appscheme/internal/network"
	"appscheme/pkg/traffic"
)

type fakeTask struct {
	mu       sync.Mutex
	req      *traffic.Request
	priority network.Priority
	h        network.TaskHandler
	state    network.TaskState
	cancels  int
}

func (t *fakeTask) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == network.TaskSuspended {
		t.state = network.TaskRunning
	}
}

func (t *fakeTask) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancels++
	if t.state != network.TaskCompleted {
		t.state = network.TaskCancelling
	}
}

func (t *fakeTask) State() network.TaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *fakeTask) cancelCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancels
}

type fakeSession struct {
	created chan *fakeTask
}

func newFakeSession() *fakeSession {
	return &fakeSession{created: make(chan *fakeTask, 16)}
}

func (s *fakeSession) DataTask(req *traffic.Request, priority network.Priority, h network.TaskHandler) network.Task {
	t := &fakeTask{req: req, priority: priority, h: h}
	s.created <- t
	return t
}

func (s *fakeSession) next(t *testing.T) *fakeTask {
	t.Helper()
	select {
	case task := <-s.created:
		return task
	case <-time.After(2 * time.Second):
		t.Fatal("no network task created")
		return nil
	}
}

type fakeClient struct {
	mu       sync.Mutex
	events   []string
	resp     *traffic.Response
	data     []byte
	err      error
	fallback bool
	done     chan struct{}
}

func newFakeClient() *fakeClient {
	return &fakeClient{done: make(chan struct{})}
}

func (c *fakeClient) DidReceiveResponse(resp *traffic.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, fmt.Sprintf("response:%d", resp.StatusCode))
	c.resp = resp
}

func (c *fakeClient) DidReceiveData(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, "data")
	c.data = append(c.data, data...)
}

func (c *fakeClient) DidFinish(usedFallbackCache bool) {
	c.mu.Lock()
	c.events = append(c.events, "finish")
	c.fallback = usedFallbackCache
	c.mu.Unlock()
	close(c.done)
}

func (c *fakeClient) DidFail(err error) {
	c.mu.Lock()
	c.events = append(c.events, "fail")
	c.err = err
	c.mu.Unlock()
	close(c.done)
}

func (c *fakeClient) wait(t *testing.T) {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatal("request did not reach a terminal callback")
	}
}

func (c *fakeClient) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.events...)
}

// countingFS 统计 Open 次数；fs.Stat 与 fs.ReadFile 都会经过 Open
type countingFS struct {
	fs.FS
	opens atomic.Int32
}

func (c *countingFS) Open(name string) (fs.File, error) {
	c.opens.Add(1)
	return c.FS.Open(name)
}

// blockingStore 在 release 关闭前阻塞查询
type blockingStore struct {
	entered chan struct{}
	release chan struct{}
	sawDone atomic.Bool
	inner   article.Store
}

func newBlockingStore(inner article.Store) *blockingStore {
	return &blockingStore{entered: make(chan struct{}, 4), release: make(chan struct{}), inner: inner}
}

func (s *blockingStore) Article(ctx context.Context, key string) (article.Article, bool, error) {
	s.entered <- struct{}{}
	<-s.release
	if ctx.Err() != nil {
		s.sawDone.Store(true)
	}
	return s.inner.Article(ctx, key)
}
