// Package diskscheduler serializes page I/O behind a single background
// worker and fulfills each request through a promise/future pair, mirroring
// the (is_write, buffer, page_id, promise) wire shape external collaborators
// are expected to expose.
package diskscheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sushant-115/pagecore/core/storage/dberrors"
	"github.com/sushant-115/pagecore/core/storage/diskmanager"
	"github.com/sushant-115/pagecore/core/storage/page"
)

// Promise is resolved exactly once by the scheduler's worker with whether
// the requested I/O succeeded.
type Promise chan bool

// Request is one scheduled unit of page I/O: a write of Buffer to PageID if
// IsWrite, otherwise a read of PageID into Buffer.
type Request struct {
	IsWrite bool
	Buffer  []byte
	PageID  page.ID
	Promise Promise

	id uuid.UUID
}

// Scheduler owns a single worker goroutine that drains a request channel and
// drives the disk manager. Multiple requests may be outstanding; the caller
// waits on the Promise it was handed.
type Scheduler struct {
	disk     *diskmanager.DiskManager
	log      *zap.Logger
	requests chan Request
	group    *errgroup.Group
	cancel   context.CancelFunc
}

// New starts the scheduler's background worker.
func New(disk *diskmanager.DiskManager, log *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	s := &Scheduler{
		disk:     disk,
		log:      log,
		requests: make(chan Request, 32),
		group:    g,
		cancel:   cancel,
	}
	g.Go(func() error { return s.run(gctx) })
	return s
}

// CreatePromise allocates a fresh, unresolved promise.
func (s *Scheduler) CreatePromise() Promise {
	return make(Promise, 1)
}

// DeallocatePage forwards a best-effort deallocation notice straight to the
// disk manager. Unlike Schedule, this does not go through the request queue:
// it carries no payload and nothing waits on its completion.
func (s *Scheduler) DeallocatePage(id page.ID) {
	s.disk.DeallocatePage(id)
}

// Schedule enqueues req for the worker. Schedule itself never blocks on the
// I/O completing; callers wait on req.Promise.
func (s *Scheduler) Schedule(req Request) {
	req.id = uuid.New()
	s.log.Debug("disk scheduler: enqueuing request",
		zap.String("request_id", req.id.String()),
		zap.Bool("is_write", req.IsWrite),
		zap.Int64("page_id", int64(req.PageID)),
	)
	s.requests <- req
}

func (s *Scheduler) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case req, ok := <-s.requests:
			if !ok {
				return nil
			}
			s.handle(req)
		}
	}
}

func (s *Scheduler) handle(req Request) {
	var err error
	if req.IsWrite {
		err = s.disk.WritePage(req.PageID, req.Buffer)
	} else {
		err = s.disk.ReadPage(req.PageID, req.Buffer)
	}
	if err != nil {
		s.log.Error("disk scheduler: request failed",
			zap.String("request_id", req.id.String()),
			zap.Int64("page_id", int64(req.PageID)),
			zap.Error(err),
		)
	}
	req.Promise <- err == nil
}

// Close stops accepting new requests and waits for the worker to drain.
func (s *Scheduler) Close() error {
	close(s.requests)
	err := s.group.Wait()
	s.cancel()
	if err != nil {
		return fmt.Errorf("%w: disk scheduler worker: %v", dberrors.ErrIO, err)
	}
	return nil
}
