package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/ldpath/internal/metrics"
	"github.com/persistorai/ldpath/internal/models"
	"github.com/persistorai/ldpath/internal/rdf"
)

const archiveTimeout = 2 * time.Minute

// Archiver stores finished runs. *store.RunStore implements it.
type Archiver interface {
	SaveRun(ctx context.Context, result *models.RunResult, triples []rdf.Triple) (string, error)
}

// ArchiveJob is one run waiting to be written.
type ArchiveJob struct {
	Result  *models.RunResult
	Triples []rdf.Triple
}

// ArchiveWorker buffers finished runs and writes them from a single goroutine.
type ArchiveWorker struct {
	archive Archiver
	log     *logrus.Logger
	jobs    chan *ArchiveJob
}

// NewArchiveWorker creates an ArchiveWorker with the given queue capacity.
func NewArchiveWorker(archive Archiver, log *logrus.Logger, queueSize int) *ArchiveWorker {
	if queueSize <= 0 {
		queueSize = 64
	}

	return &ArchiveWorker{
		archive: archive,
		log:     log,
		jobs:    make(chan *ArchiveJob, queueSize),
	}
}

// Enqueue adds a job. Non-blocking; drops the job and returns false if the
// queue is full.
func (w *ArchiveWorker) Enqueue(job *ArchiveJob) bool {
	select {
	case w.jobs <- job:
		metrics.ArchiveQueueDepth.Set(float64(len(w.jobs)))

		return true
	default:
		metrics.ArchivedRuns.WithLabelValues("dropped").Inc()
		w.log.WithField("run_id", job.Result.ID).Warn("archive queue full, dropping run")

		return false
	}
}

// Run processes jobs until the context is cancelled, then drains the queue.
func (w *ArchiveWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case job := <-w.jobs:
			w.process(job)
		}
	}
}

func (w *ArchiveWorker) drain() {
	for {
		select {
		case job := <-w.jobs:
			w.process(job)
		default:
			return
		}
	}
}

func (w *ArchiveWorker) process(job *ArchiveJob) {
	metrics.ArchiveQueueDepth.Set(float64(len(w.jobs)))

	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	if _, err := w.archive.SaveRun(ctx, job.Result, job.Triples); err != nil {
		metrics.ArchivedRuns.WithLabelValues("failed").Inc()
		w.log.WithError(err).WithField("run_id", job.Result.ID).Warn("archiving run failed")

		return
	}

	metrics.ArchivedRuns.WithLabelValues("ok").Inc()
}
