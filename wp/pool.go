package wp

import (
	"errors"
	"sync"

	"github.com/segmentio/fasthash/fnv1a"
)

var ErrStopped = errors.New("wp: pool is stopped")

// Pool runs tasks on a fixed set of workers. Tasks submitted with the same key always land
// on the same worker and run one after the other, in submission order.
type Pool struct {
	maxWorkers int
	taskQueues []chan func()
	wg         sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

func NewPool(maxWorkers int, queueBuffer int) *Pool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if queueBuffer < 1 {
		queueBuffer = 1
	}

	p := &Pool{
		maxWorkers: maxWorkers,
		taskQueues: make([]chan func(), maxWorkers),
	}

	for i := 0; i < maxWorkers; i++ {
		p.taskQueues[i] = make(chan func(), queueBuffer)
		p.wg.Add(1)
		go p.startWorker(p.taskQueues[i])
	}

	return p
}

func (p *Pool) startWorker(queue chan func()) {
	defer p.wg.Done()
	for task := range queue {
		task()
	}
}

// Shard returns the index of the worker that runs tasks submitted with key.
func (p *Pool) Shard(key string) int {
	return int(fnv1a.HashString64(key) % uint64(p.maxWorkers))
}

// Submit queues task on the worker owning key. It blocks while that worker's queue is full
// and returns ErrStopped once Stop has been called. Nil tasks are ignored.
func (p *Pool) Submit(key string, task func()) error {
	if task == nil {
		return nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrStopped
	}
	p.taskQueues[p.Shard(key)] <- task
	return nil
}

// Stop rejects new tasks and waits for the queued ones to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	for _, q := range p.taskQueues {
		close(q)
	}
	p.mu.Unlock()

	p.wg.Wait()
}
