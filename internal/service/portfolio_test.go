package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emrgen/folio/internal/asset"
	"github.com/emrgen/folio/internal/cache"
	"github.com/emrgen/folio/internal/channel"
	"github.com/emrgen/folio/internal/compress"
	"github.com/emrgen/folio/internal/model"
	"github.com/emrgen/folio/internal/module"
	"github.com/emrgen/folio/internal/queue"
	"github.com/emrgen/folio/internal/render"
	"github.com/emrgen/folio/internal/store"
	"github.com/emrgen/folio/internal/tester"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	svc   *PortfolioService
	store store.Store
	slot  cache.Slot
	queue *queue.MemoryQueue
}

func newFixture(t *testing.T, db *gorm.DB, c compress.Compress) *fixture {
	t.Helper()

	uploader, err := asset.NewLocalUploader(t.TempDir())
	require.NoError(t, err)

	f := &fixture{
		store: store.NewGormStore(db),
		slot:  cache.NewMemorySlot(),
		queue: queue.NewMemoryQueue(),
	}
	f.svc = NewPortfolioService(f.store, f.slot, channel.NewCodec(c), f.queue, uploader, Options{
		AssetBaseURL: "http://api.test",
		FrontendURL:  "http://app.test/",
		PollInterval: 20 * time.Millisecond,
	})

	return f
}

func fill(t *testing.T, svc *PortfolioService, id string) {
	t.Helper()
	ctx := context.Background()

	_, err := svc.UpdateField(ctx, id, "name", "Asha Rao")
	require.NoError(t, err)
	_, err = svc.UpdateField(ctx, id, "about", "Backend developer")
	require.NoError(t, err)
	_, err = svc.UpdateArrayElement(ctx, id, model.ArrayProjects, 0, "name", "Shop App")
	require.NoError(t, err)
}

func TestPortfolioService_StartSessionSeedsSlot(t *testing.T) {
	f := newFixture(t, tester.NewDB(t), nil)
	ctx := context.Background()

	info, err := f.svc.StartSession(ctx, "u1", false)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultTheme, info.Document.Theme)
	assert.Len(t, info.Document.Projects, 1)

	pv := f.svc.Preview(ctx, info.ID)
	assert.Equal(t, "ready", pv.State)
	assert.False(t, pv.View.ShowProjects)

	assert.Equal(t, "empty", f.svc.Preview(ctx, "unknown").State)
}

func TestPortfolioService_EditsReachPreview(t *testing.T) {
	f := newFixture(t, tester.NewDB(t), compress.NewGZip())
	ctx := context.Background()

	info, err := f.svc.StartSession(ctx, "u1", false)
	require.NoError(t, err)
	fill(t, f.svc, info.ID)

	_, err = f.svc.ToggleSkill(ctx, info.ID, "Go")
	require.NoError(t, err)
	_, err = f.svc.UpdateField(ctx, info.ID, "theme", "light")
	require.NoError(t, err)

	pv := f.svc.Preview(ctx, info.ID)
	require.Equal(t, "ready", pv.State)
	assert.Equal(t, "Asha Rao", pv.View.Name)
	assert.Equal(t, []string{"Go"}, pv.View.Skills)
	require.Len(t, pv.View.Projects, 1)
	assert.Equal(t, "Shop App", pv.View.Projects[0].Name)
	assert.True(t, pv.Variant.ForcedContrast)
}

func TestPortfolioService_FailedMutationIsNotPublished(t *testing.T) {
	f := newFixture(t, tester.NewDB(t), nil)
	ctx := context.Background()

	info, err := f.svc.StartSession(ctx, "u1", false)
	require.NoError(t, err)

	_, err = f.svc.UpdateArrayElement(ctx, info.ID, model.ArrayExperience, 5, "title", "x")
	assert.ErrorIs(t, err, model.ErrIndexOutOfRange)

	_, err = f.svc.UpdateField(ctx, info.ID, "nope", "x")
	assert.ErrorIs(t, err, model.ErrUnknownField)

	refs := f.svc.Sessions()
	require.Len(t, refs, 1)
	assert.Equal(t, int64(0), refs[0].Version)

	_, err = f.svc.UpdateField(ctx, "missing", "name", "x")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestPortfolioService_ArrayMutations(t *testing.T) {
	f := newFixture(t, tester.NewDB(t), nil)
	ctx := context.Background()

	info, err := f.svc.StartSession(ctx, "u1", false)
	require.NoError(t, err)

	doc, err := f.svc.AppendArrayElement(ctx, info.ID, model.ArrayAchievements, "Dean's List")
	require.NoError(t, err)
	require.Len(t, doc.Achievements, 2)
	assert.True(t, doc.Achievements[1].IsLegacy())

	doc, err = f.svc.SetAchievementTitle(ctx, info.ID, 1, "Dean's List 2023")
	require.NoError(t, err)
	assert.False(t, doc.Achievements[1].IsLegacy())
	assert.Equal(t, "Dean's List 2023", doc.Achievements[1].Title())

	doc, err = f.svc.RemoveArrayElement(ctx, info.ID, model.ArrayAchievements, 0)
	require.NoError(t, err)
	require.Len(t, doc.Achievements, 1)

	_, err = f.svc.AppendArrayElement(ctx, info.ID, "hobbies", nil)
	assert.ErrorIs(t, err, model.ErrUnknownArray)
}

func TestPortfolioService_PublishRequiresNameAndAbout(t *testing.T) {
	f := newFixture(t, tester.TestDB(), nil)
	ctx := context.Background()

	info, err := f.svc.StartSession(ctx, uuid.New().String(), false)
	require.NoError(t, err)

	_, err = f.svc.Publish(ctx, info.ID)
	assert.ErrorIs(t, err, ErrMissingRequiredFields)
	assert.Contains(t, err.Error(), "name, about")
	assert.Empty(t, f.queue.Events())
}

func TestPortfolioService_PublishCreatesNewURLEachTime(t *testing.T) {
	f := newFixture(t, tester.TestDB(), compress.NewBrotli())
	ctx := context.Background()
	owner := uuid.New().String()

	info, err := f.svc.StartSession(ctx, owner, false)
	require.NoError(t, err)
	fill(t, f.svc, info.ID)

	first, err := f.svc.Publish(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, "http://app.test/p/"+first.UniqueURL, first.Link)

	_, err = f.svc.UpdateField(ctx, info.ID, "name", "Asha R.")
	require.NoError(t, err)
	second, err := f.svc.Publish(ctx, info.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.UniqueURL, second.UniqueURL)

	old, err := f.svc.GetPublic(ctx, first.UniqueURL)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", old.View.Name)

	latest, err := f.svc.GetPublic(ctx, second.UniqueURL)
	require.NoError(t, err)
	assert.Equal(t, "Asha R.", latest.View.Name)
	assert.Equal(t, "theme-dark", latest.Variant.ThemeClass())

	events := f.queue.Events()
	require.Len(t, events, 2)
	assert.Equal(t, owner, events[0].OwnerID)
	assert.Equal(t, second.UniqueURL, events[1].UniqueURL)

	mine, err := f.svc.GetMine(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "Asha R.", mine.Name)

	_, err = f.svc.GetPublic(ctx, "missing")
	assert.ErrorIs(t, err, ErrPortfolioNotFound)
}

func TestPortfolioService_PrefillFromLatest(t *testing.T) {
	f := newFixture(t, tester.TestDB(), nil)
	ctx := context.Background()
	owner := uuid.New().String()

	info, err := f.svc.StartSession(ctx, owner, true)
	require.NoError(t, err)
	assert.Equal(t, "", info.Document.Name)

	fill(t, f.svc, info.ID)
	_, err = f.svc.Publish(ctx, info.ID)
	require.NoError(t, err)

	next, err := f.svc.StartSession(ctx, owner, true)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", next.Document.Name)
	assert.Equal(t, model.DefaultCountryCode, next.Document.SocialLinks.CountryCode)
}

func TestPortfolioService_PublicPage(t *testing.T) {
	f := newFixture(t, tester.TestDB(), nil)
	ctx := context.Background()

	info, err := f.svc.StartSession(ctx, uuid.New().String(), false)
	require.NoError(t, err)
	fill(t, f.svc, info.ID)
	_, err = f.svc.UpdateField(ctx, info.ID, "theme", "animated")
	require.NoError(t, err)

	res, err := f.svc.Publish(ctx, info.ID)
	require.NoError(t, err)

	page, err := f.svc.PublicPage(ctx, res.UniqueURL)
	require.NoError(t, err)
	assert.Contains(t, string(page), "theme-animated")
	assert.Contains(t, string(page), "animated-bg")
	assert.Contains(t, string(page), "Shop App")
}

func TestPortfolioService_SessionOwnership(t *testing.T) {
	f := newFixture(t, tester.NewDB(t), nil)

	info, err := f.svc.StartSession(context.Background(), "u1", false)
	require.NoError(t, err)

	_, err = f.svc.Document(module.WithOwner(context.Background(), "u2"), info.ID)
	assert.ErrorIs(t, err, ErrSessionForbidden)

	_, err = f.svc.Document(module.WithOwner(context.Background(), "u1"), info.ID)
	assert.NoError(t, err)
}

func TestPortfolioService_DraftSyncAndRestore(t *testing.T) {
	db := tester.NewDB(t)
	f := newFixture(t, db, compress.NewLZ4())
	ctx := context.Background()

	info, err := f.svc.StartSession(ctx, "u1", false)
	require.NoError(t, err)

	// a new session is synced once even without edits
	written, err := f.svc.SyncDraft(ctx, info.ID)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = f.svc.SyncDraft(ctx, info.ID)
	require.NoError(t, err)
	assert.False(t, written)

	fill(t, f.svc, info.ID)
	written, err = f.svc.SyncDraft(ctx, info.ID)
	require.NoError(t, err)
	assert.True(t, written)

	// a fresh service over the same store picks the session up from its draft
	restarted := NewPortfolioService(f.store, cache.NewMemorySlot(), channel.NewCodec(compress.NewLZ4()), nil, nil, Options{})
	doc, err := restarted.Document(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", doc.Name)

	doc, err = restarted.UpdateField(ctx, info.ID, "about", "restored")
	require.NoError(t, err)
	assert.Equal(t, "restored", doc.About)
	assert.Equal(t, int64(4), restarted.Sessions()[0].Version)
}

func TestPortfolioService_EvictIdle(t *testing.T) {
	f := newFixture(t, tester.NewDB(t), nil)
	ctx := context.Background()

	info, err := f.svc.StartSession(ctx, "u1", false)
	require.NoError(t, err)

	// unsynced sessions are kept
	assert.Empty(t, f.svc.EvictIdle(0))

	_, err = f.svc.SyncDraft(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{info.ID}, f.svc.EvictIdle(0))
	assert.Empty(t, f.svc.Sessions())

	doc, err := f.svc.Document(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultTheme, doc.Theme)
}

func TestPortfolioService_EndSession(t *testing.T) {
	f := newFixture(t, tester.NewDB(t), nil)
	ctx := context.Background()

	info, err := f.svc.StartSession(ctx, "u1", false)
	require.NoError(t, err)
	_, err = f.svc.SyncDraft(ctx, info.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.EndSession(ctx, info.ID))

	_, err = f.svc.Document(ctx, info.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, "empty", f.svc.Preview(ctx, info.ID).State)
}

func TestPortfolioService_AttachAsset(t *testing.T) {
	f := newFixture(t, tester.NewDB(t), nil)
	ctx := context.Background()

	info, err := f.svc.StartSession(ctx, "u1", false)
	require.NoError(t, err)

	doc, err := f.svc.AttachAsset(ctx, info.ID, asset.KindProfile, 0, "me.png", strings.NewReader("img"), 3, "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(doc.ProfileImage, "/uploads/profile/"))

	pv := f.svc.Preview(ctx, info.ID)
	assert.Equal(t, "http://api.test"+doc.ProfileImage, pv.View.ProfileImage)

	_, err = f.svc.AttachAsset(ctx, info.ID, asset.KindProject, 3, "shot.png", strings.NewReader("img"), 3, "image/png")
	assert.ErrorIs(t, err, model.ErrIndexOutOfRange)

	_, err = f.svc.AttachAsset(ctx, info.ID, "video", 0, "a.mp4", strings.NewReader("x"), 1, "")
	assert.ErrorIs(t, err, asset.ErrUnknownKind)

	noUploads := NewPortfolioService(f.store, f.slot, nil, nil, nil, Options{})
	_, err = noUploads.AttachAsset(ctx, info.ID, asset.KindResume, 0, "cv.pdf", strings.NewReader("x"), 1, "")
	assert.ErrorIs(t, err, ErrUploadsDisabled)
}

func TestPortfolioService_WatchPreview(t *testing.T) {
	f := newFixture(t, tester.NewDB(t), nil)
	ctx := context.Background()

	var mu sync.Mutex
	var views []PreviewView
	sub := f.svc.WatchPreview(ctx, "pending", func(pv PreviewView) {
		mu.Lock()
		defer mu.Unlock()
		views = append(views, pv)
	})
	defer sub.Close()

	last := func() PreviewView {
		mu.Lock()
		defer mu.Unlock()
		if len(views) == 0 {
			return PreviewView{}
		}
		return views[len(views)-1]
	}

	assert.Eventually(t, func() bool { return last().State == "empty" }, time.Second, 5*time.Millisecond)

	// a publisher from another context writes the session's slot
	doc := model.NewDocument()
	doc.Name = "Remote"
	pub := channel.NewPublisher(f.slot, channel.PreviewKey("pending"), channel.NewCodec(nil))
	require.NoError(t, pub.Publish(ctx, doc))

	assert.Eventually(t, func() bool {
		pv := last()
		return pv.State == "ready" && pv.View.Name == "Remote"
	}, time.Second, 5*time.Millisecond)
}

func TestPortfolioService_Analytics(t *testing.T) {
	f := newFixture(t, tester.NewDB(t), nil)
	ctx := context.Background()

	for _, th := range []string{"neon", "neon", "ocean", "NotATheme"} {
		info, err := f.svc.StartSession(ctx, uuid.New().String(), false)
		require.NoError(t, err)
		fill(t, f.svc, info.ID)
		_, err = f.svc.UpdateField(ctx, info.ID, "theme", th)
		require.NoError(t, err)
		_, err = f.svc.Publish(ctx, info.ID)
		require.NoError(t, err)
	}

	a, err := f.svc.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), a.TotalPortfolios)
	assert.Equal(t, 4, a.ActiveSessions)
	assert.Equal(t, []model.ThemeCount{{Theme: "neon", Count: 2}, {Theme: "dark", Count: 1}, {Theme: "ocean", Count: 1}}, a.Themes)

	list, total, err := f.svc.ListPortfolios(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, list, 4)

	require.NoError(t, f.svc.DeletePortfolio(ctx, list[0].ID))
	assert.ErrorIs(t, f.svc.DeletePortfolio(ctx, list[0].ID), ErrPortfolioNotFound)
}

func TestContentRoundTrip(t *testing.T) {
	doc := model.NewDocument()
	doc.Name = "x"
	doc.Achievements = []model.Achievement{model.LegacyTitle("Dean's List")}

	for _, c := range []compress.Compress{compress.NewNop(), compress.NewGZip(), compress.NewBrotli(), compress.NewLZ4()} {
		content, name, err := encodeContent(channel.NewCodec(c), doc)
		require.NoError(t, err)
		assert.Equal(t, c.Name(), name)

		got, err := decodeContent(content, name)
		require.NoError(t, err)
		assert.Equal(t, doc, got)
	}

	_, err := decodeContent("%%%", compress.NameGZip)
	assert.ErrorIs(t, err, ErrContentCorrupted)
}

func TestPortfolioService_GetPublicRejectsMalformedContent(t *testing.T) {
	f := newFixture(t, tester.NewDB(t), nil)
	ctx := context.Background()

	require.NoError(t, f.store.CreatePortfolio(ctx, &model.Portfolio{
		ID:          uuid.New().String(),
		OwnerID:     "u1",
		UniqueURL:   "bad",
		Name:        "x",
		Theme:       model.DefaultTheme,
		Content:     `{"name":"x","about":"y","skills":"Go"}`,
		Compression: compress.NameNop,
	}))

	_, err := f.svc.GetPublic(ctx, "bad")
	assert.ErrorIs(t, err, ErrContentCorrupted)
	assert.ErrorIs(t, err, render.ErrInvalidDocument)

	_, err = f.svc.PublicPage(ctx, "bad")
	assert.ErrorIs(t, err, ErrContentCorrupted)
}
