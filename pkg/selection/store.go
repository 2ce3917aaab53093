package selection

import (
	"errors"
	"fmt"
	"mime"
	"strings"
	"sync"
	"time"
)

// State describes where the session is in its lifecycle. Every mutation
// goes through a Session method, so illegal combinations (a cached result
// while a merge is still running, an error message in the merged state)
// cannot be constructed.
type State int

const (
	StateIdle      State = iota // no files selected
	StateSelecting              // at least one file, no valid result
	StateMerging                // merge in flight, mutations rejected
	StateMerged                 // result cached and downloadable
	StateFailed                 // last merge failed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelecting:
		return "selecting"
	case StateMerging:
		return "merging"
	case StateMerged:
		return "merged"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

var (
	// ErrMergeInProgress rejects mutations and re-entrant merges while a
	// merge is in flight.
	ErrMergeInProgress = errors.New("a merge is already in progress")
	// ErrTooFewFiles is the validation failure for merging fewer than two
	// files.
	ErrTooFewFiles = errors.New("select at least two PDF files")
)

// Candidate is one accepted file pending or included in a merge. Never
// mutated after creation; the session only appends and removes.
type Candidate struct {
	ID      string
	Name    string // original filename, unique within the session
	Size    int64
	Data    []byte
	AddedAt time.Time
}

// Incoming is a raw user-provided entry handed to Add before any filtering.
type Incoming struct {
	Name        string
	ContentType string // declared media type, e.g. from the multipart part
	Data        []byte
}

// Result is the cached output of a successful merge. It stays downloadable
// until the selection is mutated again.
type Result struct {
	Data      []byte
	Pages     int
	Filename  string
	CreatedAt time.Time
}

// FileInfo is the read-only view of a candidate exposed in snapshots.
type FileInfo struct {
	ID   string
	Name string
	Size int64
}

// Snapshot is a consistent read-only view of the session for rendering.
type Snapshot struct {
	State   State
	Files   []FileInfo
	Warning string
	Err     string
	Result  *Result
}

// Session holds the ordered candidate list for one merge workflow. All
// methods are safe for concurrent use; the Merging state additionally
// rejects mutations so an in-flight merge always works on a stable snapshot.
type Session struct {
	mu      sync.Mutex
	state   State
	files   []Candidate
	warning string
	errMsg  string
	result  *Result
	seq     uint64
}

func NewSession() *Session {
	return &Session{state: StateIdle}
}

// Add ingests a batch of raw entries. Entries whose declared media type is
// not application/pdf are dropped, as are entries whose display name is
// already taken (first one wins); both kinds of drop are summarized into a
// single warning. Any prior error state is cleared, and accepting at least
// one entry invalidates a previously cached result.
func (s *Session) Add(batch []Incoming) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateMerging {
		return ErrMergeInProgress
	}

	s.errMsg = ""
	s.warning = ""

	notPDF, dups := 0, 0
	mutated := false
	for _, in := range batch {
		if !isPDF(in.ContentType) {
			notPDF++
			continue
		}
		if s.hasNameLocked(in.Name) {
			dups++
			continue
		}
		now := time.Now()
		s.seq++
		s.files = append(s.files, Candidate{
			ID:      fmt.Sprintf("%s-%x-%d", slug(in.Name), now.UnixNano(), s.seq),
			Name:    in.Name,
			Size:    int64(len(in.Data)),
			Data:    in.Data,
			AddedAt: now,
		})
		mutated = true
	}

	var notes []string
	if notPDF > 0 {
		notes = append(notes, fmt.Sprintf("%d file(s) were not PDFs and were ignored", notPDF))
	}
	if dups > 0 {
		notes = append(notes, fmt.Sprintf("%d file(s) had duplicate names and were ignored", dups))
	}
	s.warning = strings.Join(notes, "; ")

	if mutated {
		s.result = nil
	}
	s.recomputeLocked()
	return nil
}

// Remove drops the candidate with the given id. Unknown ids are a no-op.
// An actual removal invalidates any cached result.
func (s *Session) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateMerging {
		return ErrMergeInProgress
	}
	for i, f := range s.files {
		if f.ID == id {
			s.files = append(s.files[:i], s.files[i+1:]...)
			s.result = nil
			break
		}
	}
	s.recomputeLocked()
	return nil
}

// Clear resets the session to its initial empty state.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateMerging {
		return ErrMergeInProgress
	}
	s.files = nil
	s.result = nil
	s.warning = ""
	s.errMsg = ""
	s.state = StateIdle
	return nil
}

// BeginMerge transitions to Merging and returns a stable copy of the
// candidate list. Fails when fewer than two files are selected or when a
// merge is already in flight; the validation message is also recorded for
// the next snapshot.
func (s *Session) BeginMerge() ([]Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateMerging {
		return nil, ErrMergeInProgress
	}
	if len(s.files) < 2 {
		s.errMsg = ErrTooFewFiles.Error()
		return nil, ErrTooFewFiles
	}
	s.errMsg = ""
	s.result = nil
	s.state = StateMerging
	snap := make([]Candidate, len(s.files))
	copy(snap, s.files)
	return snap, nil
}

// FinishMerge completes the merge started by BeginMerge, caching the result
// on success or the failure message otherwise. Calls outside the Merging
// state are ignored.
func (s *Session) FinishMerge(res *Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateMerging {
		return
	}
	if err != nil {
		s.errMsg = err.Error()
		s.result = nil
		s.state = StateFailed
		return
	}
	s.result = res
	s.state = StateMerged
}

// Result returns the cached merge output, or nil when none is valid.
func (s *Session) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Snapshot returns a read-only view of the current session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	files := make([]FileInfo, len(s.files))
	for i, f := range s.files {
		files[i] = FileInfo{ID: f.ID, Name: f.Name, Size: f.Size}
	}
	return Snapshot{
		State:   s.state,
		Files:   files,
		Warning: s.warning,
		Err:     s.errMsg,
		Result:  s.result,
	}
}

// recomputeLocked derives the state from the data after a mutation, so the
// enum can never disagree with the files/result it describes.
func (s *Session) recomputeLocked() {
	switch {
	case s.result != nil:
		s.state = StateMerged
	case len(s.files) == 0:
		s.state = StateIdle
	default:
		s.state = StateSelecting
	}
}

func (s *Session) hasNameLocked(name string) bool {
	for _, f := range s.files {
		if f.Name == name {
			return true
		}
	}
	return false
}

func isPDF(ct string) bool {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(ct))
	}
	return mt == "application/pdf"
}

// slug keeps letters, numbers, dash and underscore so ids stay readable in
// URLs and logs.
func slug(s string) string {
	s = strings.TrimSuffix(strings.ToLower(s), ".pdf")
	var b strings.Builder
	for _, r := range s {
		if r == '-' || r == '_' ||
			(r >= 'a' && r <= 'z') ||
			(r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
