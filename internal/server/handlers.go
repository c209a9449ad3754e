package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"translatex/internal/chunk"
	"translatex/internal/lang"
	"translatex/internal/logger"
	"translatex/internal/translator"
	"translatex/internal/types"
)

// TranslateRequest is the body of POST /v1/translate and POST /v1/chunks.
// Empty languages fall back to the server configuration.
type TranslateRequest struct {
	Source     string `json:"source"`
	SourceLang string `json:"source_lang,omitempty"`
	DestLang   string `json:"dest_lang,omitempty"`
}

// TranslateResponse is the reply of POST /v1/translate.
type TranslateResponse struct {
	Translated string       `json:"translated"`
	Report     types.Report `json:"report"`
}

// ChunkInfo describes one request that would be sent to the backend.
type ChunkInfo struct {
	Text   string `json:"text"`
	Tokens string `json:"tokens"`
	Size   int    `json:"size"`
	Leaves int    `json:"leaves"`
}

// ChunksResponse is the reply of POST /v1/chunks.
type ChunksResponse struct {
	SourceLang string        `json:"source_lang"`
	DestLang   string        `json:"dest_lang"`
	Chunks     []ChunkInfo   `json:"chunks"`
	Stats      chunk.Stats   `json:"stats"`
	Warnings   []types.Issue `json:"warnings,omitempty"`
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"languages": lang.Supported()})
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	res, err := translator.NewEngine(s.requestOptions(req)).TranslateDocument(r.Context(), req.Source)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TranslateResponse{
		Translated: res.TranslatedContent,
		Report:     res.Report,
	})
}

func (s *Server) handleChunks(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	plan, err := translator.NewEngine(s.requestOptions(req)).Prepare(req.Source)
	if err != nil {
		s.fail(w, err)
		return
	}

	resp := ChunksResponse{
		SourceLang: plan.SourceLang,
		DestLang:   plan.DestLang,
		Chunks:     make([]ChunkInfo, len(plan.Chunks)),
		Stats:      plan.Build.Stats,
		Warnings:   plan.Issues,
	}
	for i, c := range plan.Chunks {
		resp.Chunks[i] = ChunkInfo{
			Text:   c.Serialize().Text,
			Tokens: c.String(),
			Size:   c.EstimatedSize(),
			Leaves: c.Leaves(),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (*TranslateRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)

	var req TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

// requestOptions copies the server options with the request's languages.
func (s *Server) requestOptions(req *TranslateRequest) *translator.Options {
	opts := *s.opts
	if req.SourceLang != "" {
		opts.SourceLang = req.SourceLang
	}
	if req.DestLang != "" {
		opts.DestLang = req.DestLang
	}
	return &opts
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		logger.Error("request failed", err)
	}
	jsonError(w, err.Error(), code)
}

// statusOf maps an error code to an HTTP status.
func statusOf(err error) int {
	switch types.CodeOf(err) {
	case types.ErrInvalidInput, types.ErrConfig:
		return http.StatusBadRequest
	case types.ErrParse:
		return http.StatusUnprocessableEntity
	case types.ErrAPIRateLimit:
		return http.StatusTooManyRequests
	case types.ErrBackend, types.ErrNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
