package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/emrgen/folio/internal/asset"
	"github.com/emrgen/folio/internal/cache"
	"github.com/emrgen/folio/internal/channel"
	"github.com/emrgen/folio/internal/compress"
	"github.com/emrgen/folio/internal/model"
	"github.com/emrgen/folio/internal/queue"
	"github.com/emrgen/folio/internal/service"
	"github.com/emrgen/folio/internal/store"
	"github.com/emrgen/folio/internal/tester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePDF struct {
	err error
}

func (f fakePDF) HTMLToPDF(ctx context.Context, html []byte) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]byte("%PDF-"), html[:10]...), nil
}

type api struct {
	t      *testing.T
	server *httptest.Server
	store  store.Store
}

func newAPI(t *testing.T, pdf PDFRenderer) *api {
	t.Helper()

	uploadDir := t.TempDir()
	uploader, err := asset.NewLocalUploader(uploadDir)
	require.NoError(t, err)

	st := store.NewGormStore(tester.NewDB(t))
	svc := service.NewPortfolioService(st, cache.NewMemorySlot(), channel.NewCodec(nil),
		queue.NewMemoryQueue(), uploader, service.Options{
			AssetBaseURL: "http://api.test",
			FrontendURL:  "http://app.test",
			PollInterval: 20 * time.Millisecond,
		})

	srv := httptest.NewServer(RequestTimeMiddleware(NewHandler(svc, pdf, uploadDir).Routes()))
	t.Cleanup(srv.Close)

	return &api{t: t, server: srv, store: st}
}

func (a *api) do(method, path, owner string, body any) *http.Response {
	a.t.Helper()

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, a.server.URL+path, r)
	require.NoError(a.t, err)
	if owner != "" {
		req.Header.Set("X-User-ID", owner)
	}
	if owner == "admin" {
		req.Header.Set("X-User-Role", "admin")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	a.t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (a *api) startSession(owner string) string {
	resp := a.do(http.MethodPost, "/v1/sessions", owner, nil)
	require.Equal(a.t, http.StatusCreated, resp.StatusCode)
	return decodeBody[service.SessionInfo](a.t, resp).ID
}

func TestAPI_EditAndPublish(t *testing.T) {
	a := newAPI(t, nil)
	id := a.startSession("u1")

	resp := a.do(http.MethodPatch, "/v1/sessions/"+id+"/fields", "u1", fieldRequest{Path: "name", Value: "Asha Rao"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = a.do(http.MethodPost, "/v1/sessions/"+id+"/publish", "u1", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	a.do(http.MethodPatch, "/v1/sessions/"+id+"/fields", "u1", fieldRequest{Path: "about", Value: "Backend developer"})
	a.do(http.MethodPatch, "/v1/sessions/"+id+"/arrays/projects/0", "u1", arrayElementRequest{Field: "name", Value: "Shop App"})
	a.do(http.MethodPatch, "/v1/sessions/"+id+"/arrays/projects/0", "u1", arrayElementRequest{Field: "technologies", Value: "React, Node.js ,  Express"})
	a.do(http.MethodPost, "/v1/sessions/"+id+"/skills/toggle", "u1", valueRequest{Value: "Go"})

	resp = a.do(http.MethodPost, "/v1/sessions/"+id+"/publish", "u1", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	res := decodeBody[service.PublishResult](t, resp)
	assert.Equal(t, "http://app.test/p/"+res.UniqueURL, res.Link)

	resp = a.do(http.MethodGet, "/v1/portfolios/"+res.UniqueURL, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pv := decodeBody[service.PublicView](t, resp)
	assert.Equal(t, "Asha Rao", pv.View.Name)
	require.Len(t, pv.View.Projects, 1)
	assert.Equal(t, []string{"React", "Node.js", "Express"}, pv.View.Projects[0].Technologies)
	assert.Equal(t, "dark", string(pv.Variant.Theme))

	resp = a.do(http.MethodGet, "/v1/portfolios/"+res.UniqueURL+"/page", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(page), "theme-dark")

	resp = a.do(http.MethodGet, "/v1/me/portfolio", "u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Asha Rao", decodeBody[model.PortfolioDocument](t, resp).Name)
}

func TestAPI_ArrayRoutes(t *testing.T) {
	a := newAPI(t, nil)
	id := a.startSession("u1")

	resp := a.do(http.MethodPost, "/v1/sessions/"+id+"/arrays/achievements", "u1", "Dean's List")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := decodeBody[model.PortfolioDocument](t, resp)
	require.Len(t, doc.Achievements, 2)
	assert.True(t, doc.Achievements[1].IsLegacy())

	resp = a.do(http.MethodPut, "/v1/sessions/"+id+"/achievements/1/title", "u1", valueRequest{Value: "Dean's List"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc = decodeBody[model.PortfolioDocument](t, resp)
	assert.False(t, doc.Achievements[1].IsLegacy())

	resp = a.do(http.MethodPost, "/v1/sessions/"+id+"/arrays/projects", "u1", model.Project{Name: "CLI"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc = decodeBody[model.PortfolioDocument](t, resp)
	require.Len(t, doc.Projects, 2)
	assert.Equal(t, "CLI", doc.Projects[1].Name)

	resp = a.do(http.MethodPost, "/v1/sessions/"+id+"/arrays/experience", "u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[model.PortfolioDocument](t, resp).Experience, 2)

	resp = a.do(http.MethodDelete, "/v1/sessions/"+id+"/arrays/projects/0", "u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[model.PortfolioDocument](t, resp).Projects, 1)
}

func TestAPI_Errors(t *testing.T) {
	a := newAPI(t, nil)
	id := a.startSession("u1")

	tests := []struct {
		name   string
		method string
		path   string
		owner  string
		body   any
		status int
	}{
		{"no owner", http.MethodPost, "/v1/sessions", "", nil, http.StatusUnauthorized},
		{"other owner", http.MethodGet, "/v1/sessions/" + id, "u2", nil, http.StatusForbidden},
		{"unknown session", http.MethodGet, "/v1/sessions/nope", "u1", nil, http.StatusNotFound},
		{"unknown field", http.MethodPatch, "/v1/sessions/" + id + "/fields", "u1", fieldRequest{Path: "age", Value: "1"}, http.StatusBadRequest},
		{"index out of range", http.MethodDelete, "/v1/sessions/" + id + "/arrays/projects/7", "u1", nil, http.StatusBadRequest},
		{"bad index", http.MethodDelete, "/v1/sessions/" + id + "/arrays/projects/x", "u1", nil, http.StatusBadRequest},
		{"unknown array", http.MethodPost, "/v1/sessions/" + id + "/arrays/hobbies", "u1", nil, http.StatusBadRequest},
		{"template mismatch", http.MethodPost, "/v1/sessions/" + id + "/arrays/projects", "u1", "just a string", http.StatusBadRequest},
		{"empty skill", http.MethodPost, "/v1/sessions/" + id + "/skills/toggle", "u1", valueRequest{}, http.StatusBadRequest},
		{"missing portfolio", http.MethodGet, "/v1/portfolios/nope", "", nil, http.StatusNotFound},
		{"missing portfolio page", http.MethodGet, "/v1/portfolios/nope/page", "", nil, http.StatusNotFound},
		{"pdf disabled", http.MethodGet, "/v1/portfolios/nope/pdf", "", nil, http.StatusServiceUnavailable},
		{"analytics needs admin", http.MethodGet, "/v1/admin/analytics", "u1", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := a.do(tt.method, tt.path, tt.owner, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestAPI_Preview(t *testing.T) {
	a := newAPI(t, nil)

	resp := a.do(http.MethodGet, "/v1/preview/nobody", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "empty", decodeBody[service.PreviewView](t, resp).State)

	resp = a.do(http.MethodGet, "/v1/preview/nobody/page", "", nil)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Loading preview...")

	id := a.startSession("u1")
	a.do(http.MethodPatch, "/v1/sessions/"+id+"/fields", "u1", fieldRequest{Path: "theme", Value: "minimalist"})

	resp = a.do(http.MethodGet, "/v1/preview/"+id, "", nil)
	pv := decodeBody[service.PreviewView](t, resp)
	assert.Equal(t, "ready", pv.State)
	require.NotNil(t, pv.Variant)
	assert.True(t, pv.Variant.ForcedContrast)

	resp = a.do(http.MethodGet, "/v1/preview/"+id+"/page", "", nil)
	body, _ = io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "theme-minimalist")
}

func readEvent(t *testing.T, r *bufio.Reader) service.PreviewView {
	t.Helper()

	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			var pv service.PreviewView
			require.NoError(t, json.Unmarshal([]byte(data), &pv))
			return pv
		}
	}
}

func TestAPI_PreviewEvents(t *testing.T) {
	a := newAPI(t, nil)
	id := a.startSession("u1")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.server.URL+"/v1/preview/"+id+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	first := readEvent(t, r)
	assert.Equal(t, "ready", first.State)
	assert.Equal(t, "", first.View.Name)

	a.do(http.MethodPatch, "/v1/sessions/"+id+"/fields", "u1", fieldRequest{Path: "name", Value: "Live"})

	next := readEvent(t, r)
	assert.Equal(t, "Live", next.View.Name)
}

func TestAPI_UploadAsset(t *testing.T) {
	a := newAPI(t, nil)
	id := a.startSession("u1")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "me.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("png"))
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, a.server.URL+"/v1/sessions/"+id+"/assets/profile", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-User-ID", "u1")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc := decodeBody[model.PortfolioDocument](t, resp)
	require.True(t, strings.HasPrefix(doc.ProfileImage, "/uploads/profile/"))

	// the local upload dir is served back
	served := a.do(http.MethodGet, doc.ProfileImage, "", nil)
	require.Equal(t, http.StatusOK, served.StatusCode)
	data, _ := io.ReadAll(served.Body)
	assert.Equal(t, "png", string(data))
}

func TestAPI_PDFAndAdmin(t *testing.T) {
	a := newAPI(t, fakePDF{})
	id := a.startSession("u1")
	a.do(http.MethodPatch, "/v1/sessions/"+id+"/fields", "u1", fieldRequest{Path: "name", Value: "Asha"})
	a.do(http.MethodPatch, "/v1/sessions/"+id+"/fields", "u1", fieldRequest{Path: "about", Value: "Dev"})
	a.do(http.MethodPatch, "/v1/sessions/"+id+"/fields", "u1", fieldRequest{Path: "theme", Value: "neon"})

	resp := a.do(http.MethodPost, "/v1/sessions/"+id+"/publish", "u1", nil)
	res := decodeBody[service.PublishResult](t, resp)

	resp = a.do(http.MethodGet, "/v1/portfolios/"+res.UniqueURL+"/pdf", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	pdf, _ := io.ReadAll(resp.Body)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))

	resp = a.do(http.MethodGet, "/v1/admin/analytics", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decodeBody[service.Analytics](t, resp)
	assert.Equal(t, int64(1), stats.TotalPortfolios)
	assert.Equal(t, []model.ThemeCount{{Theme: "neon", Count: 1}}, stats.Themes)

	resp = a.do(http.MethodDelete, "/v1/admin/portfolios/"+res.ID, "admin", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = a.do(http.MethodGet, "/v1/portfolios/"+res.UniqueURL, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_MalformedPortfolio(t *testing.T) {
	a := newAPI(t, nil)
	require.NoError(t, a.store.CreatePortfolio(context.Background(), &model.Portfolio{
		ID:          "p-bad",
		OwnerID:     "u1",
		UniqueURL:   "bad",
		Name:        "x",
		Theme:       model.DefaultTheme,
		Content:     `{"name":"x","about":"y","skills":"Go"}`,
		Compression: compress.NameNop,
	}))

	resp := a.do(http.MethodGet, "/v1/portfolios/bad/page", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	page, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(page), "Portfolio not available")

	resp = a.do(http.MethodGet, "/v1/portfolios/bad", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusOf(errors.New("boom")))
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(channel.ErrChannelUnavailable))
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(service.ErrUploadsDisabled))
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(service.ErrContentCorrupted))
}
