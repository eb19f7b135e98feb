package scheme

import (
	"context"
	"sync"
	"sync/atomic"
)

// operation 一次可取消的后台路由工作
type operation struct {
	ctx       context.Context
	cancelFn  context.CancelFunc
	cancelled atomic.Bool
	run       func(ctx context.Context)
}

func newOperation(run func(ctx context.Context)) *operation {
	ctx, cancel := context.WithCancel(context.Background())
	return &operation{ctx: ctx, cancelFn: cancel, run: run}
}

// cancel 未开始的操作不会再执行；已开始的操作通过 ctx 感知
func (o *operation) cancel() {
	o.cancelled.Store(true)
	o.cancelFn()
}

// serialQueue 单 worker 的有界串行队列
type serialQueue struct {
	ops chan *operation
	wg  sync.WaitGroup
}

func newSerialQueue(size int) *serialQueue {
	q := &serialQueue{ops: make(chan *operation, size)}
	q.wg.Add(1)
	go q.work()
	return q
}

// submit 队列已满时返回 false
func (q *serialQueue) submit(op *operation) bool {
	select {
	case q.ops <- op:
		return true
	default:
		return false
	}
}

func (q *serialQueue) work() {
	defer q.wg.Done()
	for op := range q.ops {
		if op.cancelled.Load() {
			continue
		}
		op.run(op.ctx)
		op.cancelFn()
	}
}

// close 停止接收并等待 worker 退出；调用后不得再 submit
func (q *serialQueue) close() {
	close(q.ops)
	q.wg.Wait()
}
