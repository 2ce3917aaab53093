package merge

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine counts pages per name and records every call, so the tests can
// assert exactly when the external capability is touched.
type fakeEngine struct {
	pages      map[string]int
	failOn     string
	combineErr error

	inspected []string
	combined  []string
}

func (f *fakeEngine) Inspect(name string, data []byte) (int, error) {
	f.inspected = append(f.inspected, name)
	if name == f.failOn {
		return 0, errors.New("malformed document")
	}
	return f.pages[name], nil
}

func (f *fakeEngine) Combine(inputs []Input) ([]byte, error) {
	if f.combineErr != nil {
		return nil, f.combineErr
	}
	var b bytes.Buffer
	for _, in := range inputs {
		f.combined = append(f.combined, in.Name)
		b.WriteString(in.Name)
		b.WriteByte(';')
	}
	return b.Bytes(), nil
}

func inputs(names ...string) []Input {
	ins := make([]Input, len(names))
	for i, n := range names {
		ins[i] = Input{Name: n, Data: []byte(n)}
	}
	return ins
}

func TestRun_PageCountIsSumInInputOrder(t *testing.T) {
	eng := &fakeEngine{pages: map[string]int{"a.pdf": 2, "b.pdf": 3}}

	res, err := Run(eng, inputs("a.pdf", "b.pdf"))
	require.NoError(t, err)
	assert.Equal(t, 5, res.Pages, "output pages = sum of the inputs' pages")
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, eng.combined,
		"file 1's pages must precede file 2's")
	assert.Equal(t, []byte("a.pdf;b.pdf;"), res.Data)
}

func TestRun_CorruptFileAbortsAndNamesIt(t *testing.T) {
	eng := &fakeEngine{pages: map[string]int{"a.pdf": 2}, failOn: "bad.pdf"}

	res, err := Run(eng, inputs("a.pdf", "bad.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.pdf", "the failure must name the offending file")
	assert.Nil(t, res, "no partial output on failure")
	assert.Empty(t, eng.combined, "combine must not run after a load failure")
}

func TestRun_TooFewFiles_NeverCallsEngine(t *testing.T) {
	eng := &fakeEngine{pages: map[string]int{"a.pdf": 2}}

	_, err := Run(eng, inputs("a.pdf"))
	require.ErrorIs(t, err, ErrTooFewFiles)
	assert.Empty(t, eng.inspected, "the external capability must not be touched")

	_, err = Run(eng, nil)
	require.ErrorIs(t, err, ErrTooFewFiles)
	assert.Empty(t, eng.inspected)
}

func TestRun_NilEngine(t *testing.T) {
	_, err := Run(nil, inputs("a.pdf", "b.pdf"))
	assert.ErrorIs(t, err, ErrEngineUnavailable)
}

func TestRun_ZeroPages_DefensiveError(t *testing.T) {
	eng := &fakeEngine{pages: map[string]int{"a.pdf": 0, "b.pdf": 0}}

	_, err := Run(eng, inputs("a.pdf", "b.pdf"))
	require.ErrorIs(t, err, ErrNoPages)
	assert.Empty(t, eng.combined, "combine must not run when nothing would be merged")
}

func TestRun_CombineFailureWrapped(t *testing.T) {
	eng := &fakeEngine{
		pages:      map[string]int{"a.pdf": 1, "b.pdf": 1},
		combineErr: errors.New("write error"),
	}

	res, err := Run(eng, inputs("a.pdf", "b.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "merge failed")
	assert.Nil(t, res)
}

func TestResult_Filename(t *testing.T) {
	r := &Result{CreatedAt: time.UnixMilli(1700000000000)}
	assert.Equal(t, "merged_document_1700000000000.pdf", r.Filename())
}

func TestPdfcpuEngine_RejectsGarbage(t *testing.T) {
	eng := NewEngine()
	_, err := eng.Inspect("garbage.pdf", []byte("this is not a pdf"))
	assert.Error(t, err)
}
