package bot

import "sync"

// KeyedQueue runs jobs for the same key one at a time in submission order,
// and jobs for different keys concurrently. A key holds no goroutine or map
// entry once its backlog drains.
type KeyedQueue struct {
	mu      sync.Mutex
	pending map[string][]func()
	wg      sync.WaitGroup
}

func NewKeyedQueue() *KeyedQueue {
	return &KeyedQueue{pending: make(map[string][]func())}
}

// Go enqueues fn behind any unfinished job for key.
func (q *KeyedQueue) Go(key string, fn func()) {
	q.mu.Lock()
	backlog, running := q.pending[key]
	q.pending[key] = append(backlog, fn)
	q.mu.Unlock()
	if running {
		return
	}
	q.wg.Add(1)
	go q.drain(key)
}

func (q *KeyedQueue) drain(key string) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		backlog := q.pending[key]
		if len(backlog) == 0 {
			delete(q.pending, key)
			q.mu.Unlock()
			return
		}
		fn := backlog[0]
		q.pending[key] = backlog[1:]
		q.mu.Unlock()
		fn()
	}
}

// Wait blocks until every enqueued job has run.
func (q *KeyedQueue) Wait() { q.wg.Wait() }
