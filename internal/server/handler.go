package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/emrgen/folio/internal/model"
	"github.com/emrgen/folio/internal/module"
	"github.com/emrgen/folio/internal/render"
	"github.com/emrgen/folio/internal/service"
	"github.com/sirupsen/logrus"
)

const (
	maxBodyBytes   = 1 << 20
	maxUploadBytes = 10 << 20
)

// PDFRenderer prints an html page to pdf.
type PDFRenderer interface {
	HTMLToPDF(ctx context.Context, html []byte) ([]byte, error)
}

// Handler serves the portfolio api.
type Handler struct {
	svc       *service.PortfolioService
	pdf       PDFRenderer
	uploadDir string
	heartbeat time.Duration
}

// NewHandler builds the api routes. pdf may be nil to disable pdf export; uploadDir
// may be empty when assets are not served from local disk.
func NewHandler(svc *service.PortfolioService, pdf PDFRenderer, uploadDir string) *Handler {
	return &Handler{svc: svc, pdf: pdf, uploadDir: uploadDir, heartbeat: 15 * time.Second}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// editing context
	mux.HandleFunc("POST /v1/sessions", module.RequireOwner(h.startSession))
	mux.HandleFunc("GET /v1/sessions/{id}", module.RequireOwner(h.getSession))
	mux.HandleFunc("DELETE /v1/sessions/{id}", module.RequireOwner(h.endSession))
	mux.HandleFunc("PATCH /v1/sessions/{id}/fields", module.RequireOwner(h.updateField))
	mux.HandleFunc("PATCH /v1/sessions/{id}/arrays/{array}/{index}", module.RequireOwner(h.updateArrayElement))
	mux.HandleFunc("POST /v1/sessions/{id}/arrays/{array}", module.RequireOwner(h.appendArrayElement))
	mux.HandleFunc("DELETE /v1/sessions/{id}/arrays/{array}/{index}", module.RequireOwner(h.removeArrayElement))
	mux.HandleFunc("PUT /v1/sessions/{id}/achievements/{index}/title", module.RequireOwner(h.setAchievementTitle))
	mux.HandleFunc("POST /v1/sessions/{id}/skills/toggle", module.RequireOwner(h.toggleSkill))
	mux.HandleFunc("POST /v1/sessions/{id}/assets/{kind}", module.RequireOwner(h.uploadAsset))
	mux.HandleFunc("POST /v1/sessions/{id}/publish", module.RequireOwner(h.publish))
	mux.HandleFunc("GET /v1/me/portfolio", module.RequireOwner(h.getMine))

	// preview context
	mux.HandleFunc("GET /v1/preview/{id}", h.preview)
	mux.HandleFunc("GET /v1/preview/{id}/page", h.previewPage)
	mux.HandleFunc("GET /v1/preview/{id}/events", h.previewEvents)

	// public
	mux.HandleFunc("GET /v1/portfolios/{url}", h.getPortfolio)
	mux.HandleFunc("GET /v1/portfolios/{url}/page", h.getPortfolioPage)
	mux.HandleFunc("GET /v1/portfolios/{url}/pdf", h.getPortfolioPDF)

	// admin
	mux.HandleFunc("GET /v1/admin/analytics", module.RequireAdmin(h.analytics))
	mux.HandleFunc("GET /v1/admin/portfolios", module.RequireAdmin(h.listPortfolios))
	mux.HandleFunc("DELETE /v1/admin/portfolios/{id}", module.RequireAdmin(h.deletePortfolio))

	if h.uploadDir != "" {
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(h.uploadDir))))
	}

	return module.OwnerMiddleware(mux)
}

type startSessionRequest struct {
	Prefill bool `json:"prefill"`
}

type fieldRequest struct {
	Path  string `json:"path"`
	Value string `json:"value"`
}

type arrayElementRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type valueRequest struct {
	Value string `json:"value"`
}

func decode(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

func pathIndex(r *http.Request) (int, error) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		return 0, fmt.Errorf("%w: index %q", ErrBadRequest, r.PathValue("index"))
	}
	return index, nil
}

func (h *Handler) writeDocument(w http.ResponseWriter, doc *model.PortfolioDocument, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	owner, _ := module.OwnerFromContext(r.Context())
	info, err := h.svc.StartSession(r.Context(), owner, req.Prefill)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, info)
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.Document(r.Context(), r.PathValue("id"))
	h.writeDocument(w, doc, err)
}

func (h *Handler) endSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.EndSession(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) updateField(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	doc, err := h.svc.UpdateField(r.Context(), r.PathValue("id"), req.Path, req.Value)
	h.writeDocument(w, doc, err)
}

func (h *Handler) updateArrayElement(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req arrayElementRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	doc, err := h.svc.UpdateArrayElement(r.Context(), r.PathValue("id"), r.PathValue("array"), index, req.Field, req.Value)
	h.writeDocument(w, doc, err)
}

// appendArrayElement takes an optional template element as the request body.
func (h *Handler) appendArrayElement(w http.ResponseWriter, r *http.Request) {
	array := r.PathValue("array")

	var template any
	var err error
	switch array {
	case model.ArrayProjects:
		template, err = decodeTemplate[model.Project](r)
	case model.ArrayExperience:
		template, err = decodeTemplate[model.Experience](r)
	case model.ArrayAchievements:
		template, err = decodeTemplate[model.Achievement](r)
	default:
		err = fmt.Errorf("%w: %q", model.ErrUnknownArray, array)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	doc, err := h.svc.AppendArrayElement(r.Context(), r.PathValue("id"), array, template)
	h.writeDocument(w, doc, err)
}

// decodeTemplate returns nil for an empty body so the array gets a blank row.
func decodeTemplate[T any](r *http.Request) (any, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var t T
	if err := json.Unmarshal(body, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return t, nil
}

func (h *Handler) removeArrayElement(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}

	doc, err := h.svc.RemoveArrayElement(r.Context(), r.PathValue("id"), r.PathValue("array"), index)
	h.writeDocument(w, doc, err)
}

func (h *Handler) setAchievementTitle(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req valueRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	doc, err := h.svc.SetAchievementTitle(r.Context(), r.PathValue("id"), index, req.Value)
	h.writeDocument(w, doc, err)
}

func (h *Handler) toggleSkill(w http.ResponseWriter, r *http.Request) {
	var req valueRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Value == "" {
		writeError(w, fmt.Errorf("%w: empty skill", ErrBadRequest))
		return
	}

	doc, err := h.svc.ToggleSkill(r.Context(), r.PathValue("id"), req.Value)
	h.writeDocument(w, doc, err)
}

// uploadAsset expects a multipart form with a "file" part; the "index" query
// parameter selects the project or achievement row.
func (h *Handler) uploadAsset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	index := 0
	if v := r.URL.Query().Get("index"); v != "" {
		var err error
		if index, err = strconv.Atoi(v); err != nil {
			writeError(w, fmt.Errorf("%w: index %q", ErrBadRequest, v))
			return
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}
	defer file.Close()

	doc, err := h.svc.AttachAsset(r.Context(), r.PathValue("id"), r.PathValue("kind"), index,
		header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	h.writeDocument(w, doc, err)
}

func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Publish(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) getMine(w http.ResponseWriter, r *http.Request) {
	owner, _ := module.OwnerFromContext(r.Context())
	doc, err := h.svc.GetMine(r.Context(), owner)
	h.writeDocument(w, doc, err)
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Preview(r.Context(), r.PathValue("id")))
}

func (h *Handler) previewPage(w http.ResponseWriter, r *http.Request) {
	pv := h.svc.Preview(r.Context(), r.PathValue("id"))

	var buf bytes.Buffer
	var err error
	if pv.View == nil {
		err = render.EmptyPage(&buf)
	} else {
		err = render.Page(&buf, pv.View, *pv.Variant, time.Now().Year())
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeHTML(w, buf.Bytes())
}

func (h *Handler) getPortfolio(w http.ResponseWriter, r *http.Request) {
	pv, err := h.svc.GetPublic(r.Context(), r.PathValue("url"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pv)
}

func (h *Handler) getPortfolioPage(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.PublicPage(r.Context(), r.PathValue("url"))
	if err != nil {
		if errors.Is(err, service.ErrPortfolioNotFound) || errors.Is(err, service.ErrContentCorrupted) {
			var buf bytes.Buffer
			_ = render.UnavailablePage(&buf)
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(statusOf(err))
			_, _ = w.Write(buf.Bytes())
			return
		}
		writeError(w, err)
		return
	}
	writeHTML(w, page)
}

func (h *Handler) getPortfolioPDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		writeError(w, ErrPDFUnavailable)
		return
	}

	page, err := h.svc.PublicPage(r.Context(), r.PathValue("url"))
	if err != nil {
		writeError(w, err)
		return
	}

	pdf, err := h.pdf.HTMLToPDF(r.Context(), page)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "portfolio-"+r.PathValue("url")+".pdf"))
	_, _ = w.Write(pdf)
}

func (h *Handler) analytics(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Analytics(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) listPortfolios(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, total, err := h.svc.ListPortfolios(r.Context(), offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"portfolios": items, "total": total})
}

func (h *Handler) deletePortfolio(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePortfolio(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	logrus.Infof("portfolio %s deleted by admin", r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func writeHTML(w http.ResponseWriter, page []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}
