package merge

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEngineUnavailable means the merge capability is missing; surfaced
	// before any file is touched.
	ErrEngineUnavailable = errors.New("merge engine unavailable")
	// ErrTooFewFiles guards the two-file minimum; with fewer inputs the
	// engine is never invoked.
	ErrTooFewFiles = errors.New("select at least two PDF files")
	// ErrNoPages is the defensive check for an empty output: every input
	// opened fine yet contributed zero pages.
	ErrNoPages = errors.New("no pages merged")
)

// Result is the output of one successful merge.
type Result struct {
	Data      []byte
	Pages     int
	CreatedAt time.Time
}

// Filename returns the timestamped default download name.
func (r *Result) Filename() string {
	return fmt.Sprintf("merged_document_%d.pdf", r.CreatedAt.UnixMilli())
}

// Run concatenates the inputs into one document, file 1's pages before
// file 2's and so on. Every input is inspected before the engine combines
// them: a corrupt or encrypted file aborts the whole run with an error
// naming it, and no partial output is ever produced. Inputs are not
// mutated.
func Run(eng Engine, inputs []Input) (*Result, error) {
	if eng == nil {
		return nil, ErrEngineUnavailable
	}
	if len(inputs) < 2 {
		return nil, ErrTooFewFiles
	}

	total := 0
	for _, in := range inputs {
		n, err := eng.Inspect(in.Name, in.Data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", in.Name, err)
		}
		total += n
	}
	if total == 0 {
		return nil, ErrNoPages
	}

	data, err := eng.Combine(inputs)
	if err != nil {
		return nil, fmt.Errorf("merge failed: %w", err)
	}
	return &Result{Data: data, Pages: total, CreatedAt: time.Now()}, nil
}
