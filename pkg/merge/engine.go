package merge

import (
	"bytes"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Input is one document handed to the engine, already fully in memory.
type Input struct {
	Name string
	Data []byte
}

// Engine is the document-merge capability. The real implementation wraps
// pdfcpu; tests substitute a fake so the pipeline is exercised without real
// PDF bytes.
type Engine interface {
	// Inspect opens one document and reports its page count. Fails on
	// malformed, unsupported or encrypted input.
	Inspect(name string, data []byte) (int, error)
	// Combine concatenates the inputs into a single document, pages in
	// input order, and returns the serialized bytes.
	Combine(inputs []Input) ([]byte, error)
}

type pdfcpuEngine struct {
	conf *model.Configuration
}

// NewEngine returns the pdfcpu-backed Engine with relaxed validation, which
// tolerates the mildly broken files common in the wild.
func NewEngine() Engine {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &pdfcpuEngine{conf: conf}
}

func (e *pdfcpuEngine) Inspect(name string, data []byte) (int, error) {
	ctx, err := api.ReadContext(bytes.NewReader(data), e.conf)
	if err != nil {
		return 0, err
	}
	if err := api.ValidateContext(ctx); err != nil {
		return 0, err
	}
	return ctx.PageCount, nil
}

func (e *pdfcpuEngine) Combine(inputs []Input) ([]byte, error) {
	rsc := make([]io.ReadSeeker, len(inputs))
	for i := range inputs {
		rsc[i] = bytes.NewReader(inputs[i].Data)
	}
	var buf bytes.Buffer
	if err := api.MergeRaw(rsc, &buf, false, e.conf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
