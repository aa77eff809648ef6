// Package tasks — очередь фоновых задач для side-эффектов (почта,
// загрузка аватара). Запрос ставит задачу и отвечает, не дожидаясь её;
// ошибка выполнения только логируется, ретраев нет.
package tasks

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

type job struct {
	id   string
	name string
	run  func(ctx context.Context) error
}

type Queue struct {
	jobs    chan job
	workers int
	timeout time.Duration

	wg     sync.WaitGroup
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
}

func NewQueue(workers, buffer int, timeout time.Duration) *Queue {
	if workers <= 0 {
		workers = 2
	}
	if buffer <= 0 {
		buffer = 64
	}
	return &Queue{
		jobs:    make(chan job, buffer),
		workers: workers,
		timeout: timeout,
	}
}

func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true

	workerCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func(n int) {
			defer q.wg.Done()
			q.runWorker(workerCtx, n)
		}(i + 1)
	}
}

func (q *Queue) runWorker(ctx context.Context, n int) {
	for j := range q.jobs {
		jobCtx := ctx
		var cancel context.CancelFunc
		if q.timeout > 0 {
			jobCtx, cancel = context.WithTimeout(ctx, q.timeout)
		}
		if err := j.run(jobCtx); err != nil {
			log.Printf("[tasks][worker-%d] job %s (%s) failed: %v", n, j.id, j.name, err)
		}
		if cancel != nil {
			cancel()
		}
	}
}

// Enqueue ставит задачу и возвращает её id. Если буфер полон, задача
// отбрасывается с записью в лог — вызывающий всё равно не ждёт результата.
func (q *Queue) Enqueue(name string, fn func(ctx context.Context) error) string {
	j := job{id: uuid.NewString(), name: name, run: fn}
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.started {
		log.Printf("[tasks] queue stopped, dropping job %s (%s)", j.id, name)
		return j.id
	}
	select {
	case q.jobs <- j:
	default:
		log.Printf("[tasks] queue full, dropping job %s (%s)", j.id, name)
	}
	return j.id
}

// Stop перестаёт принимать задачи и дожидается уже взятых в работу.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.started = false
	q.mu.Unlock()

	close(q.jobs)
	q.wg.Wait()
	if q.cancel != nil {
		q.cancel()
	}
}
