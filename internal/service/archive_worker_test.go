package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/ldpath/internal/models"
	"github.com/persistorai/ldpath/internal/rdf"
)

type recordingArchive struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (a *recordingArchive) SaveRun(_ context.Context, r *models.RunResult, _ []rdf.Triple) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.ids = append(a.ids, r.ID)

	return r.ID, a.err
}

func (a *recordingArchive) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.ids)
}

func silent() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

func TestArchiveWorker_ProcessesJob(t *testing.T) {
	archive := &recordingArchive{}

	w := NewArchiveWorker(archive, silent(), 10)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		w.Run(ctx)
		close(done)
	}()

	w.Enqueue(&ArchiveJob{Result: &models.RunResult{ID: "r1"}})

	deadline := time.Now().Add(time.Second)
	for archive.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-done

	if archive.count() != 1 || archive.ids[0] != "r1" {
		t.Fatalf("archived = %v, want [r1]", archive.ids)
	}
}

func TestArchiveWorker_DropsWhenFull(t *testing.T) {
	w := NewArchiveWorker(&recordingArchive{}, silent(), 2)

	if !w.Enqueue(&ArchiveJob{Result: &models.RunResult{ID: "a"}}) ||
		!w.Enqueue(&ArchiveJob{Result: &models.RunResult{ID: "b"}}) {
		t.Fatal("expected the first two jobs to be queued")
	}

	if w.Enqueue(&ArchiveJob{Result: &models.RunResult{ID: "c"}}) {
		t.Error("expected the third job to be dropped")
	}

	if len(w.jobs) != 2 {
		t.Errorf("queue len = %d, want 2", len(w.jobs))
	}
}

func TestArchiveWorker_StopDrains(t *testing.T) {
	archive := &recordingArchive{err: errors.New("db down")}
	w := NewArchiveWorker(archive, silent(), 10)

	for _, id := range []string{"a", "b", "c"} {
		w.Enqueue(&ArchiveJob{Result: &models.RunResult{ID: id}})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Run(ctx)

	if archive.count() != 3 {
		t.Errorf("processed %d jobs, want 3 (failures are logged, not retried)", archive.count())
	}
}
