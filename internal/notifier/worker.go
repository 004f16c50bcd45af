// Package notifier consumes queued notifications and routes them to the
// configured backends.
package notifier

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/procuraduria/docket/pkg/notifications"
	"github.com/procuraduria/docket/pkg/notifications/backends"
)

// DefaultShutdownTimeout bounds the wait for in-flight messages on shutdown.
const DefaultShutdownTimeout = 30 * time.Second

// DefaultRewindDelay is the pause before refetching a rewound partition.
const DefaultRewindDelay = time.Second

// Fetcher is the subset of *kgo.Client the worker consumes from.
type Fetcher interface {
	PollFetches(ctx context.Context) kgo.Fetches
	CommitRecords(ctx context.Context, rs ...*kgo.Record) error
	SetOffsets(offsets map[string]map[int32]kgo.EpochOffset)
}

// Worker routes notification records to backends. Retryable failures are
// republished with backoff metadata; permanent ones and exhausted retries go
// to the dead letter queue.
type Worker struct {
	registry *backends.Registry
	retry    *notifications.RetryHandler
	logger   hclog.Logger

	ShutdownTimeout time.Duration
	RewindDelay     time.Duration
}

// NewWorker returns a Worker.
func NewWorker(registry *backends.Registry, retry *notifications.RetryHandler, logger hclog.Logger) *Worker {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Worker{
		registry:        registry,
		retry:           retry,
		logger:          logger,
		ShutdownTimeout: DefaultShutdownTimeout,
		RewindDelay:     DefaultRewindDelay,
	}
}

// Run polls client until ctx is done. Partitions are processed concurrently,
// records within a partition in offset order. Only the prefix of a partition
// that was handled is committed; the first failed record is rewound so the
// next poll fetches it again.
func (w *Worker) Run(ctx context.Context, client Fetcher) {
	for {
		if ctx.Err() != nil {
			return
		}

		fetches := client.PollFetches(ctx)
		if errs := fetches.Errors(); len(errs) > 0 {
			for _, fe := range errs {
				if ctx.Err() == nil {
					w.logger.Error("fetch error", "topic", fe.Topic, "partition", fe.Partition, "error", fe.Err)
				}
			}
			continue
		}

		var (
			batch   sync.WaitGroup
			mu      sync.Mutex
			rewinds = make(map[string]map[int32]kgo.EpochOffset)
		)
		fetches.EachPartition(func(p kgo.FetchTopicPartition) {
			if len(p.Records) == 0 {
				return
			}
			batch.Add(1)
			go func() {
				defer batch.Done()
				failed := w.processPartition(ctx, client, p.Records)
				if failed == nil || ctx.Err() != nil {
					return
				}
				mu.Lock()
				defer mu.Unlock()
				if rewinds[failed.Topic] == nil {
					rewinds[failed.Topic] = make(map[int32]kgo.EpochOffset)
				}
				rewinds[failed.Topic][failed.Partition] = kgo.EpochOffset{Epoch: failed.LeaderEpoch, Offset: failed.Offset}
			}()
		})

		if !w.wait(ctx, &batch) {
			return
		}

		if len(rewinds) > 0 {
			client.SetOffsets(rewinds)
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.RewindDelay):
			}
		}
	}
}

// processPartition handles records in order and commits the handled prefix.
// It returns the first record that failed, if any.
func (w *Worker) processPartition(ctx context.Context, client Fetcher, records []*kgo.Record) *kgo.Record {
	var (
		handled []*kgo.Record
		failed  *kgo.Record
	)
	for _, record := range records {
		if err := w.Process(ctx, record); err != nil {
			w.logger.Error("failed to process record",
				"topic", record.Topic,
				"partition", record.Partition,
				"offset", record.Offset,
				"error", err,
			)
			failed = record
			break
		}
		handled = append(handled, record)
	}

	if len(handled) > 0 {
		// Drained records still commit after shutdown starts.
		if err := client.CommitRecords(context.WithoutCancel(ctx), handled...); err != nil {
			last := handled[len(handled)-1]
			w.logger.Error("failed to commit record offset", "partition", last.Partition, "offset", last.Offset, "error", err)
		}
	}
	return failed
}

// wait blocks until batch is done. It reports false when ctx ended first,
// after giving in-flight records ShutdownTimeout to finish.
func (w *Worker) wait(ctx context.Context, batch *sync.WaitGroup) bool {
	done := make(chan struct{})
	go func() {
		batch.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
	}

	w.logger.Info("shutdown signal received, waiting for in-flight messages")
	select {
	case <-done:
		w.logger.Info("all in-flight messages completed")
	case <-time.After(w.ShutdownTimeout):
		w.logger.Warn("shutdown timeout reached, some messages may be incomplete", "timeout", w.ShutdownTimeout)
	}
	return false
}

// Process handles one record. A returned error means the record was neither
// delivered nor rescheduled and must not be committed.
func (w *Worker) Process(ctx context.Context, record *kgo.Record) error {
	msg, err := notifications.ParseRecord(record)
	if err != nil {
		w.logger.Error("dropping malformed record", "offset", record.Offset, "error", err)
		return nil
	}

	if !w.handles(msg) {
		w.logger.Debug("skipping message not handled by this notifier", "id", msg.ID, "backends", msg.Backends)
		return nil
	}

	if err := notifications.WaitUntilDue(ctx, msg); err != nil {
		return err
	}

	w.logger.Info("processing message", "id", msg.ID, "type", msg.Type, "backends", msg.Backends, "retry", msg.RetryCount)
	res := backends.Dispatch(ctx, w.registry, msg)
	if res.Err == nil {
		w.logger.Info("message delivered", "id", msg.ID, "backends", res.Handled)
		return nil
	}

	if res.Retryable() {
		w.logger.Warn("delivery failed, scheduling retry",
			"id", msg.ID,
			"failed", res.Failed,
			"retry", msg.RetryCount+1,
			"error", res.Err,
		)
		return w.retry.HandleFailure(ctx, msg, res.Err, res.Failed)
	}

	failed := unhandled(msg.Backends, res.Handled)
	w.logger.Error("delivery failed permanently", "id", msg.ID, "failed", failed, "error", res.Err)
	return w.retry.PublishToDLQ(ctx, msg, res.Err, failed)
}

func (w *Worker) handles(msg *notifications.NotificationMessage) bool {
	for _, target := range msg.Backends {
		if b, ok := w.registry.GetBackend(target); ok && b.SupportsBackend(target) {
			return true
		}
	}
	return false
}

func unhandled(targets, handled []string) []string {
	var out []string
	for _, t := range targets {
		if !slices.Contains(handled, t) {
			out = append(out, t)
		}
	}
	return out
}
