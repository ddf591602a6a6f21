package main

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

const manifestName = "Cargo.toml"
const targetDirName = "target"

// No cargo projects live under version-control metadata, and target dirs
// inside the package cache should not be offered for deletion.
var skipDirs = map[string]struct{}{
	".git":   {},
	".cargo": {},
}

// Progress counts discovered versus completed work units for one scan or
// one delete pass. Total and Scanned must be read together, under a single
// lock acquisition, when deciding whether work is finished.
type Progress struct {
	Total   int
	Scanned int
}

func (p Progress) Done() bool { return p.Scanned == p.Total }

func (p Progress) Ratio() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Scanned) / float64(p.Total)
}

// AnalysisResult is one entry on the scan's result stream. Err is set when
// a directory looked like a project but its manifest could not be read.
type AnalysisResult struct {
	Analysis ProjectAnalysis
	Err      error
}

// jobQueue is the unbounded multi-producer/multi-consumer queue of
// directories still to scan. Instead of a shutdown sentinel, termination
// is structural: pending counts queued plus in-flight jobs, and the queue
// closes once it drains to zero. A plain channel cannot serve here; it
// neither grows without bound (workers pushing into a full channel they
// also consume would deadlock) nor closes when its producers are done.
type jobQueue struct {
	mu      sync.Mutex
	ready   *sync.Cond
	paths   []string
	pending int
	closed  bool
}

func newJobQueue() *jobQueue {
	q := &jobQueue{}
	q.ready = sync.NewCond(&q.mu)
	return q
}

func (q *jobQueue) push(path string) {
	q.mu.Lock()
	q.paths = append(q.paths, path)
	q.pending++
	q.mu.Unlock()
	q.ready.Signal()
}

// pop blocks until a job is available or the queue has closed. The second
// return value is false only on closure.
func (q *jobQueue) pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.paths) == 0 && !q.closed {
		q.ready.Wait()
	}
	if len(q.paths) == 0 {
		return "", false
	}
	path := q.paths[0]
	q.paths = q.paths[1:]
	return path, true
}

// done marks one popped job as finished. The worker that retires the last
// outstanding job closes the queue and drains every blocked sibling.
func (q *jobQueue) done() {
	q.mu.Lock()
	q.pending--
	if q.pending == 0 {
		q.closed = true
		q.mu.Unlock()
		q.ready.Broadcast()
		return
	}
	q.mu.Unlock()
}

// FindProjects recursively scans root for cargo projects with a pool of
// worker goroutines, streaming analyses in completion order on the
// returned channel. The channel closes when the scan is complete; at that
// point Scanned equals Total on the returned progress handle.
//
// A workers value of 0 means one worker per logical CPU.
func FindProjects(root string, workers int, notify NotifySender) (<-chan AnalysisResult, *NotifyRwLock[Progress]) {
	// The root directory itself is the first unit of work.
	progress := NewNotifyRwLock(notify, Progress{Total: 1})
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan AnalysisResult)
	go func() {
		defer close(results)

		queue := newJobQueue()
		queue.push(root)

		var wg sync.WaitGroup
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					path, ok := queue.pop()
					if !ok {
						return
					}
					scanDir(path, queue, results, progress)
					queue.done()
				}
			}()
		}
		wg.Wait()
	}()

	return results, progress
}

// scanDir classifies one directory: subdirectories become new jobs,
// a Cargo.toml makes it a project root worth analyzing.
func scanDir(dir string, queue *jobQueue, results chan<- AnalysisResult, progress *NotifyRwLock[Progress]) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		// Unreadable directories (permissions, raced deletions) still
		// count as completed work.
		progress.Write(func(p *Progress) { p.Scanned++ })
		return
	}

	isProject := false
	for _, entry := range entries {
		if entry.IsDir() {
			name := entry.Name()
			if _, skip := skipDirs[name]; skip {
				continue
			}
			// Count the unit before the job can be observed by any
			// worker. The other order would let Scanned transiently
			// reach Total with work still outstanding.
			progress.Write(func(p *Progress) { p.Total++ })
			queue.push(filepath.Join(dir, name))
		} else if entry.Name() == manifestName {
			isProject = true
		}
	}

	if isProject {
		analysis, err := AnalyzeProject(dir)
		results <- AnalysisResult{Analysis: analysis, Err: err}
	}
	progress.Write(func(p *Progress) { p.Scanned++ })
}
