package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/emrgen/folio/internal/asset"
	"github.com/emrgen/folio/internal/cache"
	"github.com/emrgen/folio/internal/channel"
	"github.com/emrgen/folio/internal/model"
	"github.com/emrgen/folio/internal/queue"
	"github.com/emrgen/folio/internal/render"
	"github.com/emrgen/folio/internal/store"
	"github.com/emrgen/folio/internal/theme"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Options holds the collaborator independent settings of the service.
type Options struct {
	AssetBaseURL string
	FrontendURL  string
	PollInterval time.Duration
}

// NewPortfolioService creates a new PortfolioService. A nil queue drops published
// events, a nil uploader rejects asset uploads.
func NewPortfolioService(store store.Store, slot cache.Slot, codec *channel.Codec, q queue.PortfolioQueue, uploader asset.Uploader, opts Options) *PortfolioService {
	if codec == nil {
		codec = channel.NewCodec(nil)
	}
	if q == nil {
		q = queue.NewMemoryQueue()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = channel.DefaultPollInterval
	}

	return &PortfolioService{
		store:    store,
		slot:     slot,
		codec:    codec,
		queue:    q,
		uploader: uploader,
		opts:     opts,
		sessions: make(map[string]*session),
	}
}

// PortfolioService owns edit sessions and published portfolios.
type PortfolioService struct {
	store    store.Store
	slot     cache.Slot
	codec    *channel.Codec
	queue    queue.PortfolioQueue
	uploader asset.Uploader
	opts     Options

	mu       sync.RWMutex
	sessions map[string]*session
}

// PublishResult is returned by Publish.
type PublishResult struct {
	ID        string `json:"id"`
	UniqueURL string `json:"uniqueUrl"`
	Link      string `json:"link"`
}

// PublicView is a published portfolio ready to be shown.
type PublicView struct {
	ID        string            `json:"id"`
	UniqueURL string            `json:"uniqueUrl"`
	CreatedAt time.Time         `json:"createdAt"`
	View      *render.ViewModel `json:"view"`
	Variant   theme.Variant     `json:"variant"`
}

// PortfolioSummary is one row of the admin listing.
type PortfolioSummary struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Name      string    `json:"name"`
	UniqueURL string    `json:"uniqueUrl"`
	Theme     string    `json:"theme"`
	CreatedAt time.Time `json:"createdAt"`
}

// Analytics is the admin overview.
type Analytics struct {
	TotalPortfolios int64              `json:"totalPortfolios"`
	ActiveSessions  int                `json:"activeSessions"`
	Themes          []model.ThemeCount `json:"themes"`
}

// Link builds the public link of a unique url.
func (s *PortfolioService) Link(uniqueURL string) string {
	return strings.TrimRight(s.opts.FrontendURL, "/") + "/p/" + uniqueURL
}

// Publish stores the session's current document as a new portfolio version with a
// fresh unique url. Earlier versions stay reachable under their own urls.
func (s *PortfolioService) Publish(ctx context.Context, sessionID string) (*PublishResult, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	doc := sess.snapshot()
	if missing := doc.MissingRequired(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequiredFields, strings.Join(missing, ", "))
	}

	content, compression, err := encodeContent(s.codec, doc)
	if err != nil {
		return nil, err
	}

	p := &model.Portfolio{
		ID:          uuid.New().String(),
		OwnerID:     sess.ownerID,
		UniqueURL:   uuid.New().String(),
		Name:        doc.Name,
		Theme:       string(theme.ParseTheme(doc.Theme)),
		Content:     content,
		Compression: compression,
	}

	err = s.store.Transaction(ctx, func(tx store.Store) error {
		return tx.CreatePortfolio(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	event := &queue.PublishedEvent{
		PortfolioID: p.ID,
		OwnerID:     p.OwnerID,
		UniqueURL:   p.UniqueURL,
		Theme:       p.Theme,
		PublishedAt: p.CreatedAt,
	}
	if err := s.queue.PublishPublished(ctx, event); err != nil {
		// the portfolio is stored; consumers catch up from the table
		logrus.Errorf("failed to queue published event for %s: %v", p.ID, err)
	}

	return &PublishResult{ID: p.ID, UniqueURL: p.UniqueURL, Link: s.Link(p.UniqueURL)}, nil
}

// GetPublic resolves the published portfolio behind uniqueURL.
func (s *PortfolioService) GetPublic(ctx context.Context, uniqueURL string) (*PublicView, error) {
	p, err := s.store.GetPortfolioByURL(ctx, uniqueURL)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPortfolioNotFound
		}
		return nil, err
	}

	doc, err := decodeContent(p.Content, p.Compression)
	if err != nil {
		logrus.Warnf("portfolio %s: %v", p.ID, err)
		return nil, err
	}

	vm, err := render.Resolve(doc, s.opts.AssetBaseURL)
	if err != nil {
		return nil, err
	}

	return &PublicView{
		ID:        p.ID,
		UniqueURL: p.UniqueURL,
		CreatedAt: p.CreatedAt,
		View:      vm,
		Variant:   theme.Select(doc.Theme, doc.Animation),
	}, nil
}

// PublicPage renders the published portfolio as a standalone html page.
func (s *PortfolioService) PublicPage(ctx context.Context, uniqueURL string) ([]byte, error) {
	pv, err := s.GetPublic(ctx, uniqueURL)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := render.Page(&buf, pv.View, pv.Variant, pv.CreatedAt.Year()); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// GetMine returns the owner's most recently published document, used to pre-fill
// the edit form.
func (s *PortfolioService) GetMine(ctx context.Context, ownerID string) (*model.PortfolioDocument, error) {
	p, err := s.store.GetLatestPortfolio(ctx, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPortfolioNotFound
		}
		return nil, err
	}

	return decodeContent(p.Content, p.Compression)
}

// ListPortfolios returns a page of published portfolios, newest first.
func (s *PortfolioService) ListPortfolios(ctx context.Context, offset, limit int) ([]PortfolioSummary, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	items, total, err := s.store.ListPortfolios(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]PortfolioSummary, 0, len(items))
	for _, p := range items {
		res = append(res, PortfolioSummary{
			ID:        p.ID,
			OwnerID:   p.OwnerID,
			Name:      p.Name,
			UniqueURL: p.UniqueURL,
			Theme:     p.Theme,
			CreatedAt: p.CreatedAt,
		})
	}

	return res, total, nil
}

func (s *PortfolioService) DeletePortfolio(ctx context.Context, id string) error {
	err := s.store.DeletePortfolio(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrPortfolioNotFound
	}
	return err
}

// Analytics returns totals and the theme distribution of published portfolios.
func (s *PortfolioService) Analytics(ctx context.Context) (*Analytics, error) {
	_, total, err := s.store.ListPortfolios(ctx, 0, 1)
	if err != nil {
		return nil, err
	}

	themes, err := s.store.CountByTheme(ctx)
	if err != nil {
		return nil, err
	}
	if themes == nil {
		themes = make([]model.ThemeCount, 0)
	}

	return &Analytics{
		TotalPortfolios: total,
		ActiveSessions:  len(s.Sessions()),
		Themes:          themes,
	}, nil
}
