package scheme

import (
	"appscheme/internal/network"
	"appscheme/pkg/domain"
	"appscheme/pkg/traffic"
)

// taskHandler 把网络会话的回调转投到控制 goroutine。
// 每次回调都重新确认记录仍然存活且持有同一个任务。
type taskHandler struct {
	d   *Dispatcher
	rec *record
}

var _ network.TaskHandler = (*taskHandler)(nil)

// live 仅在控制 goroutine 上调用
func (h *taskHandler) live(task network.Task) bool {
	cur, ok := h.d.records[h.rec.req]
	return ok && cur == h.rec && cur.state == stateActive && cur.task == task
}

func (h *taskHandler) OnResponse(task network.Task, resp *traffic.Response) {
	h.d.post(func() {
		if !h.live(task) {
			return
		}
		if err := StatusErrorFrom(resp.StatusCode); err != nil {
			h.d.remove(h.rec)
			task.Cancel()
			h.d.failUnregistered(h.rec.req, err)
			return
		}
		h.rec.req.client.DidReceiveResponse(resp)
	})
}

func (h *taskHandler) OnData(task network.Task, data []byte) {
	h.d.post(func() {
		if !h.live(task) {
			return
		}
		h.rec.req.client.DidReceiveData(data)
	})
}

func (h *taskHandler) OnSuccess(task network.Task, usedFallbackCache bool) {
	h.d.post(func() {
		if !h.live(task) {
			return
		}
		h.d.remove(h.rec)
		h.d.finished.Add(1)
		evt := h.d.newEvent(h.rec.req, domain.EventFinished, h.rec.handler, 0, nil)
		evt.Fallback = usedFallbackCache
		h.d.send(evt)
		h.rec.req.client.DidFinish(usedFallbackCache)
	})
}

func (h *taskHandler) OnFailure(task network.Task, err error) {
	h.d.post(func() {
		if !h.live(task) {
			return
		}
		h.d.terminate(h.rec, err)
	})
}
