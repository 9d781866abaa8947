// Package batch orchestrates runs over a directory of documents:
// scanning the listing, previewing proposed names, and committing the
// renames.
package batch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/matsen/retitle/internal/crossref"
	"github.com/matsen/retitle/internal/filename"
	"github.com/matsen/retitle/internal/identify"
	"github.com/matsen/retitle/internal/logging"
	"github.com/matsen/retitle/internal/pdf"
	"github.com/matsen/retitle/internal/planner"
)

const lockFileName = ".retitle.lock"

// Loader opens a document and pulls its text and metadata.
type Loader interface {
	Load(path string) (*pdf.Document, error)
}

// Extractor derives naming candidates from a loaded document.
type Extractor interface {
	Extract(doc *pdf.Document) identify.Extraction
}

// Config wires a Manager. Loader and Extractor are required; a nil
// Lookup disables DOI resolution.
type Config struct {
	Loader       Loader
	Extractor    Extractor
	Lookup       crossref.Lookup
	Style        filename.Style
	MaxLen       int
	Workers      int
	UnmatchedDir string
	Recursive    bool
	Logger       *slog.Logger
	Progress     func(Progress)
}

// Manager drives runs. One Manager can serve many runs, one at a time
// each.
type Manager struct {
	loader       Loader
	extractor    Extractor
	lookup       crossref.Lookup
	style        filename.Style
	maxLen       int
	workers      int
	unmatchedDir string
	recursive    bool
	logger       *slog.Logger
	progress     func(Progress)

	mu sync.Mutex
}

// NewManager validates the configuration and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Loader == nil {
		return nil, fmt.Errorf("a document loader is required")
	}
	if cfg.Extractor == nil {
		return nil, fmt.Errorf("an extractor is required")
	}
	style, err := filename.ParseStyle(string(cfg.Style))
	if err != nil {
		return nil, err
	}
	if cfg.MaxLen < 1 {
		return nil, fmt.Errorf("max length must be positive, got %d", cfg.MaxLen)
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	unmatchedDir := cfg.UnmatchedDir
	if unmatchedDir == "" {
		unmatchedDir = "_unmatched"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		loader:       cfg.Loader,
		extractor:    cfg.Extractor,
		lookup:       cfg.Lookup,
		style:        style,
		maxLen:       cfg.MaxLen,
		workers:      workers,
		unmatchedDir: unmatchedDir,
		recursive:    cfg.Recursive,
		logger:       logger,
		progress:     cfg.Progress,
	}, nil
}

// NewRun prepares a run for root. The path is made absolute up front so
// plans stay valid if the working directory changes.
func (m *Manager) NewRun(root string) (*Run, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	return &Run{
		ID:        uuid.New(),
		Root:      abs,
		StartedAt: time.Now(),
		State:     StateIdle,
	}, nil
}

// Scan lists the documents under the run root in lexicographic order.
func (m *Manager) Scan(run *Run) error {
	if run.State != StateIdle {
		return fmt.Errorf("scan from %q: %w", run.State, ErrState)
	}
	run.State = StateScanning

	files, err := m.listFiles(run.Root)
	if err != nil {
		run.State = StateError
		return fmt.Errorf("%w: %w", ErrScan, err)
	}
	if run.cancelled() {
		run.State = StateCancelled
		return ErrCancelled
	}
	run.Files = files
	run.State = StateListed
	m.logger.Info("scan complete", "root", run.Root, "files", len(files))
	return nil
}

func (m *Manager) listFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	if m.recursive {
		return m.walkTree(root)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !isDocument(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(root, entry.Name()))
	}
	return files, nil
}

func (m *Manager) walkTree(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			m.logger.Warn("skipping unreadable entry", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if isDocument(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// isDocument filters scan listings: PDF extension matched without
// regard to case, dotfiles excluded.
func isDocument(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// Preview loads every scanned file, extracts naming candidates,
// resolves DOIs, and plans the renames. Files are processed by a worker
// pool; results keep listing order. A failure on one file becomes an
// error plan, never a failed preview.
func (m *Manager) Preview(ctx context.Context, run *Run) error {
	if run.State != StateListed {
		return fmt.Errorf("preview from %q: %w", run.State, ErrState)
	}
	run.State = StatePreviewing

	var resolver *crossref.Resolver
	if m.lookup != nil {
		resolver = crossref.NewResolver(m.lookup)
	}

	results := make([]planner.Result, len(run.Files))
	jobs := make(chan int, len(run.Files))
	for i := range run.Files {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < m.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if run.cancelled() || ctx.Err() != nil {
					return
				}
				results[i] = m.processFile(ctx, resolver, run.Files[i])
				m.mu.Lock()
				run.Processed++
				m.report(Progress{
					Phase:     "preview",
					Processed: run.Processed,
					Total:     len(run.Files),
					Current:   run.Files[i],
				})
				m.mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if ctx.Err() != nil {
		run.Cancel()
	}
	if run.cancelled() {
		run.State = StateCancelled
		return ErrCancelled
	}

	run.Plans = planner.New(run.Root, m.unmatchedDir, m.style, m.maxLen).Plan(results)
	run.State = StatePreviewReady
	m.logger.Info("preview ready", "run", run.ID, "plans", len(run.Plans))
	return nil
}

func (m *Manager) processFile(ctx context.Context, resolver *crossref.Resolver, path string) planner.Result {
	doc, err := m.loader.Load(path)
	if err != nil {
		m.logger.Warn("cannot read document", "path", path, "error", err)
		return planner.Result{SourcePath: path, Err: err}
	}

	extraction := m.extractor.Extract(doc)
	candidates := extraction.Candidates
	if resolver != nil && extraction.DOI != "" {
		work, err := resolver.Resolve(ctx, extraction.DOI)
		if err != nil {
			// Lookup failures leave the metadata and body candidates in
			// charge.
			m.logger.Debug("doi lookup failed", "path", path, "doi", extraction.DOI, "error", err)
		} else {
			candidates = append(candidates, identify.Candidate{
				Title:      work.Title,
				Year:       work.Year,
				Source:     identify.SourceDOILookup,
				Confidence: 3,
			})
		}
	}

	title, year, _ := filename.Select(candidates)
	return planner.Result{SourcePath: path, Title: title, Year: year, DOI: extraction.DOI}
}

// Commit applies the selected plans. A file lock under the run root
// serializes commits against other processes. Within the run, renames
// into the same directory run one after another while directories
// proceed in parallel. Each target is probed again right before its
// rename, so a file that appeared since preview shifts the name instead
// of being overwritten.
func (m *Manager) Commit(ctx context.Context, run *Run) error {
	if run.State != StatePreviewReady {
		return fmt.Errorf("commit from %q: %w", run.State, ErrState)
	}

	lock := flock.New(filepath.Join(run.Root, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire commit lock: %w", err)
	}
	if !locked {
		return ErrLocked
	}
	defer lock.Unlock()

	run.State = StateCommitting

	groups := make(map[string][]*planner.Plan)
	var dirs []string
	selected := 0
	for _, plan := range run.Plans {
		if !plan.Selected || !plan.Actionable() {
			continue
		}
		selected++
		dir := filepath.Dir(plan.TargetPath)
		if _, ok := groups[dir]; !ok {
			dirs = append(dirs, dir)
		}
		groups[dir] = append(groups[dir], plan)
	}
	run.Skipped = len(run.Plans) - selected

	sem := make(chan struct{}, m.workers)
	var wg sync.WaitGroup
	for _, dir := range dirs {
		wg.Add(1)
		go func(dir string, plans []*planner.Plan) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			m.commitDir(ctx, run, dir, plans, selected)
		}(dir, groups[dir])
	}
	wg.Wait()

	if ctx.Err() != nil {
		run.Cancel()
	}
	if run.cancelled() {
		run.State = StateCancelled
		return ErrCancelled
	}
	run.State = StateDone
	m.logger.Info("commit complete",
		"run", run.ID,
		"succeeded", run.Succeeded,
		"failed", run.Failed,
		"skipped", run.Skipped,
	)
	return nil
}

func (m *Manager) commitDir(ctx context.Context, run *Run, dir string, plans []*planner.Plan, total int) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		for _, plan := range plans {
			m.failPlan(run, plan, fmt.Errorf("create directory: %w", err), total)
		}
		return
	}
	for _, plan := range plans {
		if run.cancelled() || ctx.Err() != nil {
			return
		}
		target := planner.NextFreePath(plan.TargetPath)
		if err := moveFile(plan.SourcePath, target); err != nil {
			m.failPlan(run, plan, err, total)
			continue
		}
		plan.Applied = true
		plan.FinalPath = target

		m.mu.Lock()
		run.Succeeded++
		m.report(Progress{
			Phase:     "commit",
			Processed: run.Succeeded + run.Failed,
			Total:     total,
			Current:   target,
		})
		m.mu.Unlock()
	}
}

func (m *Manager) failPlan(run *Run, plan *planner.Plan, err error, total int) {
	plan.Status = planner.StatusError
	plan.Reason = err.Error()
	m.logger.Warn("rename failed", "source", plan.SourcePath, "error", err)

	m.mu.Lock()
	run.Failed++
	m.report(Progress{
		Phase:     "commit",
		Processed: run.Succeeded + run.Failed,
		Total:     total,
		Current:   plan.SourcePath,
	})
	m.mu.Unlock()
}

func (m *Manager) report(p Progress) {
	if m.progress != nil {
		m.progress(p)
	}
}
