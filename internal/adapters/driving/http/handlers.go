package http

import (
	"fmt"
	"io"
	nethttp "net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

const maxUploadSize = 32 << 20 // 32 MB per file

type handler struct {
	ports *Ports
}

type statusResponse struct {
	State string            `json:"state"`
	Index domain.IndexStats `json:"index"`
}

type ingestForm struct {
	UploadsOnly bool `form:"uploads_only"`
}

type askRequest struct {
	Question string `json:"question" binding:"required,notblank,max=2000"`
}

type compareRequest struct {
	Question  string `json:"question" binding:"required,notblank,max=2000"`
	Reference string `json:"reference" binding:"required,notblank,max=4000"`
}

type askResponse struct {
	Answer  string               `json:"answer"`
	Asset   domain.AssetID       `json:"asset,omitempty"`
	Sources []domain.ScoredChunk `json:"sources"`
	Session domain.Conversation  `json:"session"`
}

type retrieveRequest struct {
	Query string `json:"query" binding:"required,notblank,max=2000"`
	K     int    `json:"k" binding:"omitempty,min=1,max=50"`
}

func (h *handler) status(c *gin.Context) {
	OK(c, statusResponse{
		State: h.ports.Pipeline.State().String(),
		Index: h.ports.Pipeline.Stats(),
	})
}

// ingest accepts zero or more PDFs in the multipart field "file".
func (h *handler) ingest(c *gin.Context) {
	var form ingestForm
	if err := c.ShouldBind(&form); err != nil {
		Error(c, nethttp.StatusBadRequest, CodeBadRequest, "invalid request payload")
		return
	}

	uploads, err := readUploads(c)
	if err != nil {
		Error(c, nethttp.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	req := domain.IngestRequest{Uploads: uploads, Policy: domain.PolicyMerge}
	if form.UploadsOnly {
		req.Policy = domain.PolicyUploadsOnly
	}

	report, err := h.ports.Pipeline.Ingest(c.Request.Context(), req)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, report)
}

func readUploads(c *gin.Context) ([]domain.Upload, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, nil
	}
	mf, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}

	files := mf.File["file"]
	uploads := make([]domain.Upload, 0, len(files))
	for _, fh := range files {
		if !strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
			return nil, fmt.Errorf("%s: only PDF files are allowed", fh.Filename)
		}
		if fh.Size > maxUploadSize {
			return nil, fmt.Errorf("%s: file too large (max 32MB)", fh.Filename)
		}

		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(io.LimitReader(f, maxUploadSize+1))
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fh.Filename, err)
		}
		uploads = append(uploads, domain.Upload{Name: filepath.Base(fh.Filename), Data: data})
	}
	return uploads, nil
}

func (h *handler) retrieve(c *gin.Context) {
	var req retrieveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, nethttp.StatusBadRequest, CodeBadRequest, "invalid request payload: "+err.Error())
		return
	}

	hits, err := h.ports.Pipeline.Retrieve(c.Request.Context(), req.Query, req.K)
	if err != nil {
		Fail(c, err)
		return
	}
	if hits == nil {
		hits = []domain.ScoredChunk{}
	}
	OK(c, gin.H{"chunks": hits})
}

func (h *handler) createSession(c *gin.Context) {
	conv, err := h.ports.Sessions.New(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, conv)
}

func (h *handler) getSession(c *gin.Context) {
	conv, err := h.ports.Sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, conv)
}

func (h *handler) deleteSession(c *gin.Context) {
	id := c.Param("id")
	if err := h.ports.Sessions.Reset(c.Request.Context(), id); err != nil {
		Fail(c, err)
		return
	}
	OK(c, gin.H{"deleted_session_id": id})
}

func (h *handler) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, nethttp.StatusBadRequest, CodeBadRequest, "invalid request payload: "+err.Error())
		return
	}

	answer, conv, err := h.ports.Sessions.Ask(c.Request.Context(), c.Param("id"), req.Question)
	if err != nil {
		Fail(c, err)
		return
	}
	if answer.Sources == nil {
		answer.Sources = []domain.ScoredChunk{}
	}
	OK(c, askResponse{
		Answer:  answer.Text,
		Asset:   answer.Asset,
		Sources: answer.Sources,
		Session: conv,
	})
}

func (h *handler) compare(c *gin.Context) {
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, nethttp.StatusBadRequest, CodeBadRequest, "invalid request payload: "+err.Error())
		return
	}

	cmp, err := h.ports.Compare.Compare(c.Request.Context(), req.Question, req.Reference)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, cmp)
}
