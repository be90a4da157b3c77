package folio

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/emrgen/folio/internal/cache"
	"github.com/emrgen/folio/internal/model"
	"github.com/emrgen/folio/internal/server"
	"github.com/emrgen/folio/internal/service"
	"github.com/emrgen/folio/internal/store"
	"github.com/emrgen/folio/internal/tester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	svc := service.NewPortfolioService(store.NewGormStore(tester.NewDB(t)), cache.NewMemorySlot(), nil, nil, nil,
		service.Options{FrontendURL: "http://app.test", PollInterval: 20 * time.Millisecond})

	srv := httptest.NewServer(server.NewHandler(svc, nil, "").Routes())
	t.Cleanup(srv.Close)

	return srv
}

func TestClient_EditPublishAndRead(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL+"/", "u1").WithTimeout(5 * time.Second)
	ctx := context.Background()

	info, err := c.StartSession(ctx, false)
	require.NoError(t, err)

	_, err = c.UpdateField(ctx, info.ID, "name", "Asha Rao")
	require.NoError(t, err)
	_, err = c.UpdateField(ctx, info.ID, "about", "Backend developer")
	require.NoError(t, err)
	_, err = c.UpdateArrayElement(ctx, info.ID, model.ArrayProjects, 0, "name", "Shop App")
	require.NoError(t, err)
	_, err = c.AppendArrayElement(ctx, info.ID, model.ArrayAchievements, "Dean's List")
	require.NoError(t, err)
	doc, err := c.SetAchievementTitle(ctx, info.ID, 1, "Hackathon Winner")
	require.NoError(t, err)
	assert.Equal(t, "Hackathon Winner", doc.Achievements[1].Title())

	doc, err = c.ToggleSkill(ctx, info.ID, "Go")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, doc.Skills)

	doc, err = c.RemoveArrayElement(ctx, info.ID, model.ArrayExperience, 0)
	require.NoError(t, err)
	assert.Empty(t, doc.Experience)

	pv, err := c.Preview(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, "ready", pv.State)
	assert.Equal(t, "AshaRao", pv.View.Handle)

	res, err := c.Publish(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, "http://app.test/p/"+res.UniqueURL, res.Link)

	public, err := c.Portfolio(ctx, res.UniqueURL)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, public.View.Skills)

	page, err := c.PortfolioPage(ctx, res.UniqueURL)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Shop App")

	mine, err := c.Mine(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", mine.Name)

	require.NoError(t, c.EndSession(ctx, info.ID))
	_, err = c.Document(ctx, info.ID)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestClient_Errors(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	_, err := NewClient(srv.URL, "").StartSession(ctx, false)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	c := NewClient(srv.URL, "u1")
	info, err := c.StartSession(ctx, false)
	require.NoError(t, err)

	_, err = c.Publish(ctx, info.ID)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Contains(t, apiErr.Message, "name, about")

	_, err = c.Analytics(ctx)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)

	_, err = c.PortfolioPDF(ctx, "missing")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
}

func TestClient_Admin(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	c := NewClient(srv.URL, "u1")
	info, err := c.StartSession(ctx, false)
	require.NoError(t, err)
	_, _ = c.UpdateField(ctx, info.ID, "name", "Asha")
	_, _ = c.UpdateField(ctx, info.ID, "about", "Dev")
	_, _ = c.UpdateField(ctx, info.ID, "theme", "ocean")
	res, err := c.Publish(ctx, info.ID)
	require.NoError(t, err)

	admin := NewClient(srv.URL, "ops").AsAdmin()

	list, err := admin.ListPortfolios(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
	require.Len(t, list.Portfolios, 1)
	assert.Equal(t, "ocean", list.Portfolios[0].Theme)

	a, err := admin.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, a.ActiveSessions)

	require.NoError(t, admin.DeletePortfolio(ctx, res.ID))
	list, err = admin.ListPortfolios(ctx, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, list.Total)
}

func TestClient_WatchPreview(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL, "u1")

	info, err := c.StartSession(context.Background(), false)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	names := make(chan string, 8)
	done := make(chan error, 1)
	go func() {
		done <- c.WatchPreview(ctx, info.ID, func(pv service.PreviewView) {
			if pv.View != nil {
				names <- pv.View.Name
			}
		})
	}()

	assert.Equal(t, "", <-names)

	_, err = c.UpdateField(context.Background(), info.ID, "name", "Live")
	require.NoError(t, err)
	assert.Equal(t, "Live", <-names)

	cancel()
	<-done
}
