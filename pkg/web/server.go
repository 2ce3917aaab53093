package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"pdfbinder/pkg/merge"
	"pdfbinder/pkg/selection"
)

const defaultMaxUpload = 200 << 20 // bytes per upload request

// Fetcher pulls a remote PDF by URL; implemented by fetch.Client.
type Fetcher interface {
	FetchPDF(u string) (name string, data []byte, err error)
}

// Options configures a Server. Engine is required for merging; a nil
// Fetcher disables add-by-URL.
type Options struct {
	Engine    merge.Engine
	Fetcher   Fetcher
	MaxUpload int64
	Logger    *zap.Logger
}

// Server owns one selection session and exposes the merge UI plus its JSON
// endpoints.
type Server struct {
	log       *zap.Logger
	session   *selection.Session
	engine    merge.Engine
	fetcher   Fetcher
	maxUpload int64
}

func NewServer(opts Options) *Server {
	if opts.MaxUpload <= 0 {
		opts.MaxUpload = defaultMaxUpload
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Server{
		log:       opts.Logger,
		session:   selection.NewSession(),
		engine:    opts.Engine,
		fetcher:   opts.Fetcher,
		maxUpload: opts.MaxUpload,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/state", s.handleState)
	mux.HandleFunc("/files", s.handleUpload)
	mux.HandleFunc("/files/url", s.handleAddURL)
	mux.HandleFunc("/remove", s.handleRemove)
	mux.HandleFunc("/clear", s.handleClear)
	mux.HandleFunc("/merge", s.handleMerge)
	mux.HandleFunc("/download", s.handleDownload)
	return mux
}

// ---- state payload ----

type filePayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type statePayload struct {
	State    string        `json:"state"`
	Files    []filePayload `json:"files"`
	Warning  string        `json:"warning,omitempty"`
	Error    string        `json:"error,omitempty"`
	Pages    int           `json:"pages,omitempty"`
	Filename string        `json:"filename,omitempty"`
	Download string        `json:"download,omitempty"`
}

func (s *Server) statePayload() statePayload {
	snap := s.session.Snapshot()
	p := statePayload{
		State:   snap.State.String(),
		Files:   make([]filePayload, len(snap.Files)),
		Warning: snap.Warning,
		Error:   snap.Err,
	}
	for i, f := range snap.Files {
		p.Files[i] = filePayload{ID: f.ID, Name: f.Name, Size: f.Size}
	}
	if snap.Result != nil {
		p.Pages = snap.Result.Pages
		p.Filename = snap.Result.Filename
		p.Download = "/download"
	}
	return p
}

// ---- handlers ----

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = page.Execute(w, nil)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w)
		return
	}
	s.writeJSON(w, http.StatusOK, s.statePayload())
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad upload: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	var batch []selection.Incoming
	for _, fh := range r.MultipartForm.File["files"] {
		f, err := fh.Open()
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "cannot read "+fh.Filename)
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "cannot read "+fh.Filename)
			return
		}
		batch = append(batch, selection.Incoming{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	if err := s.session.Add(batch); err != nil {
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}
	snap := s.statePayload()
	s.log.Info("files ingested",
		zap.Int("received", len(batch)),
		zap.Int("selected", len(snap.Files)),
		zap.String("warning", snap.Warning))
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleAddURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w)
		return
	}
	if s.fetcher == nil {
		s.writeError(w, http.StatusServiceUnavailable, "remote fetch is not available")
		return
	}
	var in struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || strings.TrimSpace(in.URL) == "" {
		s.writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	name, data, err := s.fetcher.FetchPDF(strings.TrimSpace(in.URL))
	if err != nil {
		s.log.Warn("remote fetch failed", zap.String("url", in.URL), zap.Error(err))
		s.writeError(w, http.StatusBadGateway, "fetch failed: "+err.Error())
		return
	}
	err = s.session.Add([]selection.Incoming{{
		Name:        name,
		ContentType: "application/pdf",
		Data:        data,
	}})
	if err != nil {
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}
	s.log.Info("remote file ingested", zap.String("url", in.URL), zap.String("name", name))
	s.writeJSON(w, http.StatusOK, s.statePayload())
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w)
		return
	}
	var in struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	if err := s.session.Remove(in.ID); err != nil {
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.statePayload())
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w)
		return
	}
	if err := s.session.Clear(); err != nil {
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.statePayload())
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w)
		return
	}
	files, err := s.session.BeginMerge()
	if err != nil {
		if errors.Is(err, selection.ErrMergeInProgress) {
			s.writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	inputs := make([]merge.Input, len(files))
	for i, f := range files {
		inputs[i] = merge.Input{Name: f.Name, Data: f.Data}
	}
	res, err := merge.Run(s.engine, inputs)
	if err != nil {
		s.session.FinishMerge(nil, err)
		s.log.Warn("merge failed", zap.Int("files", len(files)), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.session.FinishMerge(&selection.Result{
		Data:      res.Data,
		Pages:     res.Pages,
		Filename:  res.Filename(),
		CreatedAt: res.CreatedAt,
	}, nil)
	s.log.Info("merge complete",
		zap.Int("files", len(files)),
		zap.Int("pages", res.Pages),
		zap.Int("bytes", len(res.Data)))
	s.writeJSON(w, http.StatusOK, map[string]any{
		"ok":       1,
		"pages":    res.Pages,
		"filename": res.Filename(),
		"download": "/download",
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w)
		return
	}
	res := s.session.Result()
	if res == nil {
		s.writeError(w, http.StatusConflict, "no merged document available; merge at least two PDF files first")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(res.Data)))
	_, _ = w.Write(res.Data)
}

// ---- response helpers ----

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, map[string]string{"error": msg})
}

func (s *Server) methodNotAllowed(w http.ResponseWriter) {
	s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
