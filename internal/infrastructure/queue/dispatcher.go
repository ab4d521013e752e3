package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/trendkart/commerce-api/internal/api/metrics"
	"github.com/trendkart/commerce-api/internal/core/domain"
	"github.com/trendkart/commerce-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes order audit events to a fixed set of workers using
// consistent hashing on the order id, guaranteeing per-order event ordering.
// Recording is best effort: when a worker's buffer is full the event is
// dropped and counted rather than blocking the request path.
type Dispatcher struct {
	workers  []chan domain.OrderEvent
	recorder ports.OrderEventRecorder
	log      zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, recorder ports.OrderEventRecorder, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan domain.OrderEvent, numWorkers),
		recorder: recorder,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.OrderEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands an event to the worker responsible for its order. Never
// blocks; a full shard drops the event.
func (d *Dispatcher) Enqueue(event domain.OrderEvent) {
	idx := d.shardIndex(event.OrderID)
	select {
	case d.workers[idx] <- event:
		metrics.OrderEventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.OrderEventsDroppedTotal.Inc()
		d.log.Warn().
			Str("order_id", event.OrderID).
			Str("type", string(event.Type)).
			Msg("audit event dropped, worker queue full")
	}
}

// shardIndex maps an order id deterministically to a worker index.
func (d *Dispatcher) shardIndex(orderID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(orderID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.OrderEvent) {
	workerID := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			metrics.OrderEventsQueueDepth.WithLabelValues(workerID).Set(float64(len(ch)))
			if err := d.recorder.Record(ctx, event); err != nil {
				d.log.Error().Err(err).
					Str("order_id", event.OrderID).
					Str("type", string(event.Type)).
					Int("worker_id", id).
					Msg("audit event recording failed")
			}
		}
	}
}
