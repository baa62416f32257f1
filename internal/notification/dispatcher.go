package notification

import (
	"context"
	"log/slog"
	"sync"

	"github.com/betselot/gojo-bookings/internal"
)

// Worker pulls messages off the shared pool and delivers them through the
// mailer. Delivery failures are logged and dropped; payment state is already
// settled by the time a message is enqueued, so a lost email never blocks
// or rolls back a transition.
type Worker struct {
	ID         int
	WorkerPool chan chan Message
	JobChannel chan Message
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Message, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Message),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, deliver func(Message)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {

			w.WorkerPool <- w.JobChannel

			select {
			case msg := <-w.JobChannel:
				w.Logger.Debug("worker delivering notification", "worker_id", w.ID, "recipient", msg.Recipient)
				deliver(msg)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

// Dispatcher fans notification messages out to a bounded worker pool so
// slow mail relays never back-pressure the payment engine.
type Dispatcher struct {
	mailer Mailer
	logger *slog.Logger

	jobQueue   chan Message
	workerPool chan chan Message
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

func NewDispatcher(cfg internal.MailConfig, mailer Mailer, logger *slog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}

	d := &Dispatcher{
		mailer: mailer,
		logger: logger,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan Message, queueSize),
		workerPool: make(chan chan Message, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	d.startWorkerPool()

	return d
}

func (d *Dispatcher) startWorkerPool() {
	d.once.Do(func() {

		for i := 0; i < d.maxWorkers; i++ {
			worker := NewWorker(i, d.workerPool, d.logger)
			worker.Start(d.ctx, &d.wg, d.deliver)
		}

		// register before spawning so Shutdown's Wait cannot return
		// ahead of the dispatch loop starting
		d.wg.Add(1)
		go d.dispatch()

		d.logger.Info("notification worker pool started",
			"max_workers", d.maxWorkers,
			"queue_size", cap(d.jobQueue))
	})
}

func (d *Dispatcher) dispatch() {
	defer d.wg.Done()

	for {
		select {
		case msg := <-d.jobQueue:

			select {
			case jobChannel := <-d.workerPool:

				select {
				case jobChannel <- msg:

				case <-d.ctx.Done():
					d.logger.Info("notification dispatcher shutting down")
					return
				}
			case <-d.ctx.Done():
				d.logger.Info("notification dispatcher shutting down")
				return
			}
		case <-d.ctx.Done():
			d.logger.Info("notification dispatcher shutting down")
			return
		}
	}
}

func (d *Dispatcher) deliver(msg Message) {
	if err := d.mailer.Send(d.ctx, msg); err != nil {
		d.logger.Error("notification delivery failed",
			"kind", msg.Kind,
			"recipient", msg.Recipient,
			"error", err)
	}
}

// Enqueue hands a message to the pool without blocking. A full queue drops
// the message; callers must never stall on notification delivery.
func (d *Dispatcher) Enqueue(msg Message) {
	select {
	case d.jobQueue <- msg:
		d.logger.Debug("notification queued",
			"kind", msg.Kind,
			"recipient", msg.Recipient,
			"queue_length", len(d.jobQueue))
	default:
		d.logger.Warn("notification queue full, dropping message",
			"kind", msg.Kind,
			"recipient", msg.Recipient,
			"queue_capacity", cap(d.jobQueue))
	}
}

func (d *Dispatcher) Shutdown() {
	d.logger.Info("shutting down notification dispatcher")
	d.cancel()
	d.wg.Wait()
	d.logger.Info("notification dispatcher shutdown complete")
}
