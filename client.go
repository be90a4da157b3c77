package folio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/emrgen/folio/internal/model"
	"github.com/emrgen/folio/internal/server"
	"github.com/emrgen/folio/internal/service"
)

// APIError is a non 2xx response of the portfolio api.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Client talks to the portfolio http api as one owner.
type Client struct {
	baseURL string
	owner   string
	admin   bool
	http    *http.Client
}

// NewClient creates a client for the api at baseURL, e.g. "http://localhost:4001".
func NewClient(baseURL, owner string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		owner:   owner,
		http:    &http.Client{Transport: server.RequestTimeTransport{}},
	}
}

// AsAdmin marks the requests of the client with the admin role.
func (c *Client) AsAdmin() *Client {
	cp := *c
	cp.admin = true
	return &cp
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.owner != "" {
		req.Header.Set("X-User-ID", c.owner)
	}
	if c.admin {
		req.Header.Set("X-User-Role", "admin")
	}

	return req, nil
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		var body struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &body) != nil || body.Error == "" {
			body.Error = strings.TrimSpace(string(data))
		}
		return nil, &APIError{Status: resp.StatusCode, Message: body.Error}
	}

	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) raw(ctx context.Context, path string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func sessionPath(id string, parts ...string) string {
	return "/v1/sessions/" + url.PathEscape(id) + strings.Join(parts, "")
}

func (c *Client) StartSession(ctx context.Context, prefill bool) (*service.SessionInfo, error) {
	var info service.SessionInfo
	err := c.do(ctx, http.MethodPost, "/v1/sessions", map[string]bool{"prefill": prefill}, &info)
	return &info, err
}

func (c *Client) Document(ctx context.Context, sessionID string) (*model.PortfolioDocument, error) {
	var doc model.PortfolioDocument
	err := c.do(ctx, http.MethodGet, sessionPath(sessionID), nil, &doc)
	return &doc, err
}

func (c *Client) EndSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, sessionPath(sessionID), nil, nil)
}

func (c *Client) UpdateField(ctx context.Context, sessionID, path, value string) (*model.PortfolioDocument, error) {
	var doc model.PortfolioDocument
	body := map[string]string{"path": path, "value": value}
	err := c.do(ctx, http.MethodPatch, sessionPath(sessionID, "/fields"), body, &doc)
	return &doc, err
}

func (c *Client) UpdateArrayElement(ctx context.Context, sessionID, array string, index int, field, value string) (*model.PortfolioDocument, error) {
	var doc model.PortfolioDocument
	body := map[string]string{"field": field, "value": value}
	err := c.do(ctx, http.MethodPatch, sessionPath(sessionID, "/arrays/", array, "/", strconv.Itoa(index)), body, &doc)
	return &doc, err
}

// AppendArrayElement appends template, or an empty row when template is nil.
func (c *Client) AppendArrayElement(ctx context.Context, sessionID, array string, template any) (*model.PortfolioDocument, error) {
	var doc model.PortfolioDocument
	err := c.do(ctx, http.MethodPost, sessionPath(sessionID, "/arrays/", array), template, &doc)
	return &doc, err
}

func (c *Client) RemoveArrayElement(ctx context.Context, sessionID, array string, index int) (*model.PortfolioDocument, error) {
	var doc model.PortfolioDocument
	err := c.do(ctx, http.MethodDelete, sessionPath(sessionID, "/arrays/", array, "/", strconv.Itoa(index)), nil, &doc)
	return &doc, err
}

func (c *Client) SetAchievementTitle(ctx context.Context, sessionID string, index int, title string) (*model.PortfolioDocument, error) {
	var doc model.PortfolioDocument
	err := c.do(ctx, http.MethodPut, sessionPath(sessionID, "/achievements/", strconv.Itoa(index), "/title"), map[string]string{"value": title}, &doc)
	return &doc, err
}

func (c *Client) ToggleSkill(ctx context.Context, sessionID, skill string) (*model.PortfolioDocument, error) {
	var doc model.PortfolioDocument
	err := c.do(ctx, http.MethodPost, sessionPath(sessionID, "/skills/toggle"), map[string]string{"value": skill}, &doc)
	return &doc, err
}

func (c *Client) Publish(ctx context.Context, sessionID string) (*service.PublishResult, error) {
	var res service.PublishResult
	err := c.do(ctx, http.MethodPost, sessionPath(sessionID, "/publish"), nil, &res)
	return &res, err
}

func (c *Client) Mine(ctx context.Context) (*model.PortfolioDocument, error) {
	var doc model.PortfolioDocument
	err := c.do(ctx, http.MethodGet, "/v1/me/portfolio", nil, &doc)
	return &doc, err
}

func (c *Client) Preview(ctx context.Context, sessionID string) (*service.PreviewView, error) {
	var pv service.PreviewView
	err := c.do(ctx, http.MethodGet, "/v1/preview/"+url.PathEscape(sessionID), nil, &pv)
	return &pv, err
}

// WatchPreview follows the preview event stream of a session until ctx is done or
// the server closes the stream. onChange runs on the calling goroutine.
func (c *Client) WatchPreview(ctx context.Context, sessionID string, onChange func(service.PreviewView)) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/v1/preview/"+url.PathEscape(sessionID)+"/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	// the stream has no deadline
	stream := &http.Client{Transport: c.http.Transport}
	resp, err := (&Client{http: stream}).send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 4<<20)
	for scanner.Scan() {
		data, ok := strings.CutPrefix(scanner.Text(), "data: ")
		if !ok {
			continue
		}

		var pv service.PreviewView
		if err := json.Unmarshal([]byte(data), &pv); err != nil {
			return fmt.Errorf("decode preview event: %w", err)
		}
		onChange(pv)
	}

	if err := scanner.Err(); err != nil && !errors.Is(ctx.Err(), context.Canceled) {
		return err
	}

	return nil
}

func (c *Client) Portfolio(ctx context.Context, uniqueURL string) (*service.PublicView, error) {
	var pv service.PublicView
	err := c.do(ctx, http.MethodGet, "/v1/portfolios/"+url.PathEscape(uniqueURL), nil, &pv)
	return &pv, err
}

func (c *Client) PortfolioPage(ctx context.Context, uniqueURL string) ([]byte, error) {
	return c.raw(ctx, "/v1/portfolios/"+url.PathEscape(uniqueURL)+"/page")
}

func (c *Client) PortfolioPDF(ctx context.Context, uniqueURL string) ([]byte, error) {
	return c.raw(ctx, "/v1/portfolios/"+url.PathEscape(uniqueURL)+"/pdf")
}

// PortfolioList is one page of the admin listing.
type PortfolioList struct {
	Portfolios []service.PortfolioSummary `json:"portfolios"`
	Total      int64                      `json:"total"`
}

func (c *Client) ListPortfolios(ctx context.Context, offset, limit int) (*PortfolioList, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	var list PortfolioList
	err := c.do(ctx, http.MethodGet, "/v1/admin/portfolios?"+q.Encode(), nil, &list)
	return &list, err
}

func (c *Client) DeletePortfolio(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/admin/portfolios/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Analytics(ctx context.Context) (*service.Analytics, error) {
	var a service.Analytics
	err := c.do(ctx, http.MethodGet, "/v1/admin/analytics", nil, &a)
	return &a, err
}

// WithTimeout bounds every non streaming request of the client.
func (c *Client) WithTimeout(d time.Duration) *Client {
	cp := *c
	cp.http = &http.Client{Transport: c.http.Transport, Timeout: d}
	return &cp
}
