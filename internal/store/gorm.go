package store

import (
	"context"

	"github.com/emrgen/folio/internal/model"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db: db,
	}
}

var _ Store = (*GormStore)(nil)

type GormStore struct {
	db *gorm.DB
}

func (g *GormStore) CreatePortfolio(ctx context.Context, p *model.Portfolio) error {
	logrus.Infof("publishing portfolio %s for owner %s at %s", p.ID, p.OwnerID, p.UniqueURL)
	return g.db.WithContext(ctx).Create(p).Error
}

func (g *GormStore) GetPortfolioByURL(ctx context.Context, uniqueURL string) (*model.Portfolio, error) {
	var p model.Portfolio
	err := g.db.WithContext(ctx).Where("unique_url = ?", uniqueURL).First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (g *GormStore) GetLatestPortfolio(ctx context.Context, ownerID string) (*model.Portfolio, error) {
	var p model.Portfolio
	err := g.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at desc").First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (g *GormStore) ListPortfolios(ctx context.Context, offset, limit int) ([]*model.Portfolio, int64, error) {
	var total int64
	if err := g.db.WithContext(ctx).Model(&model.Portfolio{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []*model.Portfolio
	err := g.db.WithContext(ctx).Order("created_at desc").Offset(offset).Limit(limit).Find(&items).Error
	return items, total, err
}

func (g *GormStore) DeletePortfolio(ctx context.Context, id string) error {
	res := g.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Portfolio{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *GormStore) CountByTheme(ctx context.Context) ([]model.ThemeCount, error) {
	var counts []model.ThemeCount
	err := g.db.WithContext(ctx).Model(&model.Portfolio{}).
		Select("theme, count(*) as count").
		Group("theme").
		Order("count desc, theme").
		Scan(&counts).Error
	return counts, err
}

func (g *GormStore) SaveDraft(ctx context.Context, draft *model.Draft) error {
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		UpdateAll: true,
	}).Create(draft).Error
}

func (g *GormStore) GetDraft(ctx context.Context, sessionID string) (*model.Draft, error) {
	var draft model.Draft
	err := g.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&draft).Error
	if err != nil {
		return nil, translate(err)
	}
	return &draft, nil
}

func (g *GormStore) DeleteDraft(ctx context.Context, sessionID string) error {
	return g.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&model.Draft{}).Error
}

func (g *GormStore) Migrate() error {
	return model.Migrate(g.db)
}

func (g *GormStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return f(&GormStore{db: tx})
	})
}
