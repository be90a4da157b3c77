package store

import (
	"context"

	"github.com/emrgen/folio/internal/model"
)

type Store interface {
	PortfolioStore
	DraftStore
	Transaction(ctx context.Context, f func(tx Store) error) error
	Migrate() error
}

type PortfolioStore interface {
	// CreatePortfolio stores a new published portfolio version.
	CreatePortfolio(ctx context.Context, p *model.Portfolio) error
	// GetPortfolioByURL retrieves a published portfolio by its unique url.
	GetPortfolioByURL(ctx context.Context, uniqueURL string) (*model.Portfolio, error)
	// GetLatestPortfolio retrieves the owner's most recently published portfolio.
	GetLatestPortfolio(ctx context.Context, ownerID string) (*model.Portfolio, error)
	// ListPortfolios retrieves a page of portfolios, newest first, and the total count.
	ListPortfolios(ctx context.Context, offset, limit int) ([]*model.Portfolio, int64, error)
	// DeletePortfolio deletes a portfolio by ID.
	DeletePortfolio(ctx context.Context, id string) error
	// CountByTheme returns how many portfolios use each theme.
	CountByTheme(ctx context.Context) ([]model.ThemeCount, error)
}

type DraftStore interface {
	// SaveDraft inserts or replaces the draft of a session.
	SaveDraft(ctx context.Context, draft *model.Draft) error
	// GetDraft retrieves the draft of a session.
	GetDraft(ctx context.Context, sessionID string) (*model.Draft, error)
	// DeleteDraft deletes the draft of a session.
	DeleteDraft(ctx context.Context, sessionID string) error
}
