// Package planner turns per-file extraction results into rename plans
// with collision-free targets.
package planner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matsen/retitle/internal/filename"
)

// Status of a plan after preview.
type Status string

const (
	StatusPending   Status = "pending"
	StatusReady     Status = "ready"
	StatusConflict  Status = "conflict"
	StatusUnmatched Status = "unmatched"
	StatusError     Status = "error"
)

// Plan is one file's proposed change. Preview fills everything except
// Applied and FinalPath, which only the commit phase writes.
type Plan struct {
	SourcePath   string `json:"source_path"`
	ProposedName string `json:"proposed_name,omitempty"`
	TargetPath   string `json:"target_path,omitempty"`
	Status       Status `json:"status"`
	Reason       string `json:"reason,omitempty"`
	Title        string `json:"title,omitempty"`
	Year         int    `json:"year,omitempty"`
	DOI          string `json:"doi,omitempty"`
	NoChange     bool   `json:"no_change,omitempty"`
	Selected     bool   `json:"selected"`
	Applied      bool   `json:"applied,omitempty"`
	FinalPath    string `json:"final_path,omitempty"`
}

// Actionable reports whether committing this plan would touch the
// filesystem.
func (p *Plan) Actionable() bool {
	return !p.NoChange && (p.Status == StatusReady || p.Status == StatusUnmatched)
}

// Result is one file's extraction outcome entering planning. Err, when
// set, carries an already-classified per-file failure.
type Result struct {
	SourcePath string
	Title      string
	Year       int
	DOI        string
	Err        error
}

// Planner assigns target paths. It must see results in listing order:
// disambiguation markers depend on who came first.
type Planner struct {
	root         string
	unmatchedDir string
	style        filename.Style
	maxLen       int
}

// New creates a Planner for one batch root.
func New(root, unmatchedDir string, style filename.Style, maxLen int) *Planner {
	return &Planner{
		root:         root,
		unmatchedDir: unmatchedDir,
		style:        style,
		maxLen:       maxLen,
	}
}

type nameSet map[string]struct{}

// Plan maps results to plans, one per result, in the given order.
// Reserved-name sets are seeded per directory from the live listing, so
// no plan ever targets an existing file's path; each assigned target
// joins its directory's set before the next result is considered.
func (p *Planner) Plan(results []Result) []*Plan {
	reserved := make(map[string]nameSet)
	getReserved := func(dir string) nameSet {
		if names, ok := reserved[dir]; ok {
			return names
		}
		names := listNames(dir)
		reserved[dir] = names
		return names
	}

	plans := make([]*Plan, 0, len(results))
	for _, res := range results {
		plans = append(plans, p.planOne(res, getReserved))
	}
	return plans
}

func (p *Planner) planOne(res Result, getReserved func(string) nameSet) *Plan {
	plan := &Plan{
		SourcePath: res.SourcePath,
		Status:     StatusPending,
		Title:      res.Title,
		Year:       res.Year,
		DOI:        res.DOI,
	}

	if res.Err != nil {
		plan.Status = StatusError
		plan.Reason = res.Err.Error()
		return plan
	}

	if filename.Sanitize(res.Title) == "" {
		return p.planUnmatched(plan, getReserved)
	}
	return p.planRename(plan, res, getReserved)
}

// planUnmatched moves a file without a usable title into the unmatched
// folder under its original name.
func (p *Planner) planUnmatched(plan *Plan, getReserved func(string) nameSet) *Plan {
	currentName := filepath.Base(plan.SourcePath)
	unmatchedRoot := filepath.Join(p.root, p.unmatchedDir)

	plan.Status = StatusUnmatched
	if filepath.Clean(filepath.Dir(plan.SourcePath)) == filepath.Clean(unmatchedRoot) {
		plan.ProposedName = currentName
		plan.TargetPath = plan.SourcePath
		plan.NoChange = true
		plan.Reason = "already in unmatched folder"
		return plan
	}

	names := getReserved(unmatchedRoot)
	name := currentName
	for i := 2; ; i++ {
		if _, taken := names[name]; !taken {
			break
		}
		name = appendMarker(currentName, i)
	}
	names[name] = struct{}{}

	plan.ProposedName = name
	plan.TargetPath = filepath.Join(unmatchedRoot, name)
	plan.Reason = "no title found"
	plan.Selected = true
	return plan
}

func (p *Planner) planRename(plan *Plan, res Result, getReserved func(string) nameSet) *Plan {
	currentName := filepath.Base(res.SourcePath)
	sourceDir := filepath.Dir(res.SourcePath)
	names := getReserved(sourceDir)

	name := filename.Build(res.Title, res.Year, 1, p.style, p.maxLen)
	n := 1
	for {
		if name == "" {
			plan.Status = StatusConflict
			plan.Reason = "cannot disambiguate within length bound"
			return plan
		}
		// Landing on the file's own name means the only reservation in
		// the way is the file itself: the name is already right.
		if name == currentName {
			plan.ProposedName = name
			plan.TargetPath = res.SourcePath
			plan.Status = StatusReady
			plan.NoChange = true
			plan.Reason = "already good name"
			return plan
		}
		if _, taken := names[name]; !taken {
			break
		}
		n++
		name = filename.Build(res.Title, res.Year, n, p.style, p.maxLen)
	}
	names[name] = struct{}{}

	plan.ProposedName = name
	plan.TargetPath = filepath.Join(sourceDir, name)
	plan.Status = StatusReady
	plan.Reason = "ready"
	plan.Selected = true
	return plan
}

// listNames returns the file entries of dir. A directory that cannot
// be read (most often: does not exist yet) reserves nothing.
func listNames(dir string) nameSet {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nameSet{}
	}
	names := make(nameSet, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names[entry.Name()] = struct{}{}
	}
	return names
}

// appendMarker inserts a collision marker before the extension,
// keeping the rest of the name intact.
func appendMarker(name string, n int) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s (%d)%s", stem, n, ext)
}

// NextFreePath probes the live filesystem for a variant of path that
// does not exist yet. Commit uses it when a target appeared between
// preview and commit.
func NextFreePath(path string) string {
	if _, err := os.Lstat(path); err != nil {
		return path
	}
	dir := filepath.Dir(path)
	name := filepath.Base(path)
	for i := 2; ; i++ {
		candidate := filepath.Join(dir, appendMarker(name, i))
		if _, err := os.Lstat(candidate); err != nil {
			return candidate
		}
	}
}
