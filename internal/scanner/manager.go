package scanner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cesargomez89/powerhour/internal/domain"
	"github.com/cesargomez89/powerhour/internal/logger"
)

// ScanState describes one scan operation.
type ScanState string

const (
	ScanRunning   ScanState = "running"
	ScanCompleted ScanState = "completed"
	ScanCancelled ScanState = "cancelled"
	ScanFailed    ScanState = "failed"
)

// ScanStatus is a point-in-time snapshot of a scan.
type ScanStatus struct {
	ID       string    `json:"id"`
	Root     string    `json:"root"`
	State    ScanState `json:"state"`
	Progress Progress  `json:"progress"`
	Error    string    `json:"error,omitempty"`
}

type scanJob struct {
	id     string
	root   string
	cancel context.CancelFunc

	mu         sync.Mutex
	state      ScanState
	progress   Progress
	songs      []domain.Song
	err        error
	finishedAt time.Time
	done       chan struct{}
}

// Manager runs scans asynchronously and hands each caller an opaque handle,
// so cancelling one scan can never touch another. Completion callbacks fire
// on the scan goroutine.
type Manager struct {
	scanner   *Scanner
	log       *logger.Logger
	retention time.Duration
	wg        sync.WaitGroup

	mu   sync.Mutex
	jobs map[string]*scanJob
}

func NewManager(s *Scanner, log *logger.Logger) *Manager {
	return &Manager{
		scanner:   s,
		log:       log.WithComponent("scan-manager"),
		retention: jobRetention,
		jobs:      make(map[string]*scanJob),
	}
}

// jobRetention is how long a finished scan stays queryable before its
// record is dropped.
const jobRetention = 5 * time.Minute

// Start launches a scan of root and returns its handle immediately.
// onDone receives the song list once, only on successful completion.
func (m *Manager) Start(root string, onDone func(songs []domain.Song)) string {
	ctx, cancel := context.WithCancel(context.Background())
	job := &scanJob{
		id:     uuid.NewString(),
		root:   root,
		cancel: cancel,
		state:  ScanRunning,
		done:   make(chan struct{}),
	}

	m.mu.Lock()
	m.pruneLocked(time.Now())
	m.jobs[job.id] = job
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()

		songs, err := m.scanner.Scan(ctx, root, func(p Progress) {
			job.mu.Lock()
			job.progress = p
			job.mu.Unlock()
		})

		job.mu.Lock()
		switch {
		case err == nil:
			job.state = ScanCompleted
			job.songs = songs
		case errors.Is(err, domain.ErrScanCancelled):
			job.state = ScanCancelled
		default:
			job.state = ScanFailed
			job.err = err
		}
		job.finishedAt = time.Now()
		state := job.state
		job.mu.Unlock()

		switch state {
		case ScanCompleted:
			m.log.Info("Scan completed", "scan_id", job.id, "root", root, "songs", len(songs))
			if onDone != nil {
				onDone(songs)
			}
		case ScanCancelled:
			m.log.Info("Scan cancelled", "scan_id", job.id, "root", root)
		default:
			m.log.Error("Scan failed", "scan_id", job.id, "root", root, "error", err)
		}
		close(job.done)
	}()

	return job.id
}

// Cancel requests cooperative cancellation of one scan.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	job, ok := m.jobs[id]
	m.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	job.cancel()
	return nil
}

// Status returns a snapshot of one scan.
func (m *Manager) Status(id string) (ScanStatus, error) {
	m.mu.Lock()
	job, ok := m.jobs[id]
	m.mu.Unlock()
	if !ok {
		return ScanStatus{}, domain.ErrNotFound
	}

	job.mu.Lock()
	defer job.mu.Unlock()
	st := ScanStatus{
		ID:       job.id,
		Root:     job.root,
		State:    job.state,
		Progress: job.progress,
	}
	if job.err != nil {
		st.Error = job.err.Error()
	}
	return st, nil
}

// Result blocks until the scan finishes and returns its song list.
// A cancelled scan returns domain.ErrScanCancelled.
func (m *Manager) Result(id string) ([]domain.Song, error) {
	m.mu.Lock()
	job, ok := m.jobs[id]
	m.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}

	<-job.done

	job.mu.Lock()
	defer job.mu.Unlock()
	switch job.state {
	case ScanCompleted:
		return job.songs, nil
	case ScanCancelled:
		return nil, domain.ErrScanCancelled
	default:
		return nil, job.err
	}
}

// pruneLocked drops finished jobs whose retention window has passed.
// Callers hold m.mu.
func (m *Manager) pruneLocked(now time.Time) {
	for id, job := range m.jobs {
		job.mu.Lock()
		expired := job.state != ScanRunning && now.Sub(job.finishedAt) >= m.retention
		job.mu.Unlock()
		if expired {
			delete(m.jobs, id)
		}
	}
}

// Shutdown waits for in-flight scans to wind down after cancelling them.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	for _, job := range m.jobs {
		job.cancel()
	}
	m.mu.Unlock()
	m.wg.Wait()
}
