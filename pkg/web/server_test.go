package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfbinder/pkg/merge"
)

// fakeEngine mirrors the one in pkg/merge's tests: page counts by name, one
// optional failing file.
type fakeEngine struct {
	pages     map[string]int
	failOn    string
	inspected int
}

func (f *fakeEngine) Inspect(name string, data []byte) (int, error) {
	f.inspected++
	if name == f.failOn {
		return 0, errors.New("malformed document")
	}
	return f.pages[name], nil
}

func (f *fakeEngine) Combine(inputs []merge.Input) ([]byte, error) {
	var b bytes.Buffer
	for _, in := range inputs {
		b.WriteString(in.Name)
		b.WriteByte(';')
	}
	return b.Bytes(), nil
}

type fakeFetcher struct {
	name string
	data []byte
	err  error
}

func (f *fakeFetcher) FetchPDF(u string) (string, []byte, error) {
	return f.name, f.data, f.err
}

type uploadFile struct {
	name, contentType, body string
}

func newTestServer(eng merge.Engine, fetcher Fetcher) http.Handler {
	return NewServer(Options{Engine: eng, Fetcher: fetcher}).Handler()
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func upload(t *testing.T, h http.Handler, files ...uploadFile) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, f := range files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, f.name))
		hdr.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/files", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return do(t, h, req)
}

func getState(t *testing.T, h http.Handler) statePayload {
	t.Helper()
	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/state", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var st statePayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	return st
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return do(t, h, req)
}

func TestIndex_ServesPage(t *testing.T) {
	h := newTestServer(&fakeEngine{}, nil)
	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pdfbinder")
	assert.Contains(t, rec.Body.String(), "Merge selected PDFs")
}

func TestUpload_FiltersNonPDF(t *testing.T) {
	h := newTestServer(&fakeEngine{}, nil)
	rec := upload(t, h,
		uploadFile{"a.pdf", "application/pdf", "%PDF-A"},
		uploadFile{"notes.txt", "text/plain", "hello"},
	)
	require.Equal(t, http.StatusOK, rec.Code)

	st := getState(t, h)
	require.Len(t, st.Files, 1)
	assert.Equal(t, "a.pdf", st.Files[0].Name)
	assert.Contains(t, st.Warning, "were not PDFs")
}

func TestMergeFlow_Success(t *testing.T) {
	eng := &fakeEngine{pages: map[string]int{"a.pdf": 2, "b.pdf": 3}}
	h := newTestServer(eng, nil)
	upload(t, h,
		uploadFile{"a.pdf", "application/pdf", "%PDF-A"},
		uploadFile{"b.pdf", "application/pdf", "%PDF-B"},
	)

	rec := postJSON(t, h, "/merge", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Pages    int    `json:"pages"`
		Filename string `json:"filename"`
		Download string `json:"download"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.Pages)
	assert.Equal(t, "/download", resp.Download)
	assert.Regexp(t, `^merged_document_\d+\.pdf$`, resp.Filename)

	dl := do(t, h, httptest.NewRequest(http.MethodGet, "/download", nil))
	require.Equal(t, http.StatusOK, dl.Code)
	assert.Equal(t, "application/pdf", dl.Header().Get("Content-Type"))
	assert.Contains(t, dl.Header().Get("Content-Disposition"), "merged_document_")
	assert.Equal(t, "a.pdf;b.pdf;", dl.Body.String())

	// downloads are repeatable against the same result
	again := do(t, h, httptest.NewRequest(http.MethodGet, "/download", nil))
	require.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, dl.Body.String(), again.Body.String())
}

func TestMerge_TooFewFiles(t *testing.T) {
	eng := &fakeEngine{pages: map[string]int{"a.pdf": 2}}
	h := newTestServer(eng, nil)
	upload(t, h, uploadFile{"a.pdf", "application/pdf", "%PDF-A"})

	rec := postJSON(t, h, "/merge", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "select at least two PDF files")
	assert.Zero(t, eng.inspected, "the engine must not be touched")
}

func TestMerge_FailureNamesFileAndBlocksDownload(t *testing.T) {
	eng := &fakeEngine{pages: map[string]int{"a.pdf": 2}, failOn: "bad.pdf"}
	h := newTestServer(eng, nil)
	upload(t, h,
		uploadFile{"a.pdf", "application/pdf", "%PDF-A"},
		uploadFile{"bad.pdf", "application/pdf", "not really"},
	)

	rec := postJSON(t, h, "/merge", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad.pdf")

	st := getState(t, h)
	assert.Equal(t, "failed", st.State)
	assert.Contains(t, st.Error, "bad.pdf")

	dl := do(t, h, httptest.NewRequest(http.MethodGet, "/download", nil))
	assert.Equal(t, http.StatusConflict, dl.Code)
}

func TestRemove_InvalidatesDownload(t *testing.T) {
	eng := &fakeEngine{pages: map[string]int{"a.pdf": 2, "b.pdf": 3}}
	h := newTestServer(eng, nil)
	upload(t, h,
		uploadFile{"a.pdf", "application/pdf", "%PDF-A"},
		uploadFile{"b.pdf", "application/pdf", "%PDF-B"},
	)
	require.Equal(t, http.StatusOK, postJSON(t, h, "/merge", "").Code)

	st := getState(t, h)
	require.Equal(t, "merged", st.State)
	require.Len(t, st.Files, 2)

	rec := postJSON(t, h, "/remove", fmt.Sprintf(`{"id":%q}`, st.Files[0].ID))
	require.Equal(t, http.StatusOK, rec.Code)

	dl := do(t, h, httptest.NewRequest(http.MethodGet, "/download", nil))
	assert.Equal(t, http.StatusConflict, dl.Code,
		"mutating the selection must require a fresh merge before downloading")
}

func TestClear_ResetsSession(t *testing.T) {
	h := newTestServer(&fakeEngine{}, nil)
	upload(t, h, uploadFile{"a.pdf", "application/pdf", "%PDF-A"})

	rec := postJSON(t, h, "/clear", "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := getState(t, h)
	assert.Equal(t, "idle", st.State)
	assert.Empty(t, st.Files)
}

func TestAddURL_UsesFetcher(t *testing.T) {
	h := newTestServer(&fakeEngine{}, &fakeFetcher{name: "remote.pdf", data: []byte("%PDF-R")})

	rec := postJSON(t, h, "/files/url", `{"url":"https://x.test/remote.pdf"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	st := getState(t, h)
	require.Len(t, st.Files, 1)
	assert.Equal(t, "remote.pdf", st.Files[0].Name)
}

func TestAddURL_FetchFailure(t *testing.T) {
	h := newTestServer(&fakeEngine{}, &fakeFetcher{err: errors.New("http 404")})

	rec := postJSON(t, h, "/files/url", `{"url":"https://x.test/missing"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "fetch failed")
	assert.Empty(t, getState(t, h).Files)
}

func TestAddURL_NoFetcherConfigured(t *testing.T) {
	h := newTestServer(&fakeEngine{}, nil)
	rec := postJSON(t, h, "/files/url", `{"url":"https://x.test/a.pdf"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMethodGuards(t *testing.T) {
	h := newTestServer(&fakeEngine{}, nil)
	for _, path := range []string{"/merge", "/files", "/remove", "/clear", "/files/url"} {
		rec := do(t, h, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)
	}
	rec := do(t, h, httptest.NewRequest(http.MethodPost, "/download", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestUnknownPath_404(t *testing.T) {
	h := newTestServer(&fakeEngine{}, nil)
	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
