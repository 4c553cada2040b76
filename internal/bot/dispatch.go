package bot

import "sync"

// dispatcher runs jobs of one chat strictly in arrival order while different
// chats proceed in parallel. A chat's worker goroutine exits once its queue drains.
type dispatcher struct {
	mu     sync.Mutex
	queues map[int64][]func()
	wg     sync.WaitGroup
}

func newDispatcher() *dispatcher {
	return &dispatcher{queues: make(map[int64][]func())}
}

func (d *dispatcher) submit(chatID int64, job func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	q, running := d.queues[chatID]
	d.queues[chatID] = append(q, job)
	if running {
		return
	}
	d.wg.Add(1)
	go d.drain(chatID)
}

func (d *dispatcher) drain(chatID int64) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		q := d.queues[chatID]
		if len(q) == 0 {
			delete(d.queues, chatID)
			d.mu.Unlock()
			return
		}
		job := q[0]
		d.queues[chatID] = q[1:]
		d.mu.Unlock()

		job()
	}
}

// wait blocks until every submitted job has finished.
func (d *dispatcher) wait() {
	d.wg.Wait()
}
