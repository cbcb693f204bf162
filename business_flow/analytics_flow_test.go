package businessflow_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	businessflow "github.com/amirphl/LinkHub/business_flow"
	"github.com/amirphl/LinkHub/models"
	testingutil "github.com/amirphl/LinkHub/testing"
	"github.com/amirphl/LinkHub/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var analyticsNow = time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)

func TestAnalyticsAuthorization(t *testing.T) {
	env := newTestEnv(t)
	flow := env.analyticsFlow(analyticsNow)
	ctx := context.Background()

	owner, err := env.fixtures.CreateUser()
	require.NoError(t, err)
	other, err := env.fixtures.CreateUser()
	require.NoError(t, err)

	_, err = flow.Overview(ctx, other.ID, owner.ID)
	assert.True(t, businessflow.IsForbidden(err))

	_, err = flow.Detailed(ctx, other.ID, owner.ID)
	assert.ErrorIs(t, err, businessflow.ErrAnalyticsForbidden)

	_, _, err = flow.ExportClicks(ctx, other.ID, owner.ID, 30)
	assert.True(t, businessflow.IsForbidden(err))

	_, err = flow.Overview(ctx, 0, owner.ID)
	assert.True(t, businessflow.IsUnauthenticated(err))
}

func TestAnalyticsDetailed(t *testing.T) {
	env := newTestEnv(t)
	flow := env.analyticsFlow(analyticsNow)
	ctx := context.Background()

	owner, err := env.fixtures.CreateUser()
	require.NoError(t, err)
	popular, err := env.fixtures.CreateLink(owner.ID, 2)
	require.NoError(t, err)
	quiet, err := env.fixtures.CreateLink(owner.ID, 1)
	require.NoError(t, err)
	hidden, err := env.fixtures.CreateLink(owner.ID, 3, testingutil.WithInactive())
	require.NoError(t, err)

	clickAt := func(link *models.Link, at time.Time, mutate ...func(*models.Click)) {
		_, err := env.fixtures.CreateClick(link, at, mutate...)
		require.NoError(t, err)
	}
	fromBerlin := func(c *models.Click) {
		c.Country = utils.ToPtr("Germany")
		c.DeviceType = utils.ToPtr("mobile")
		c.IPAddress = utils.ToPtr("81.2.69.142")
	}

	clickAt(popular, analyticsNow.Add(-2*time.Hour))
	clickAt(popular, analyticsNow.Add(-1*time.Hour), fromBerlin)
	clickAt(popular, analyticsNow.AddDate(0, 0, -3))
	clickAt(quiet, analyticsNow.AddDate(0, 0, -10))
	clickAt(popular, analyticsNow.AddDate(0, 0, -40))
	clickAt(quiet, analyticsNow.AddDate(0, 0, -40))
	clickAt(hidden, analyticsNow.AddDate(0, 0, -70))

	resp, err := flow.Detailed(ctx, owner.ID, owner.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(7), resp.TotalClicks)
	assert.Equal(t, int64(2), resp.ActiveLinks)
	assert.Equal(t, int64(2), resp.ClicksToday)
	assert.Equal(t, int64(3), resp.ClicksThisWeek)
	assert.Equal(t, int64(4), resp.ClicksThisMonth)
	assert.Equal(t, int64(2), resp.ClicksLastMonth)
	assert.Equal(t, int64(100), resp.GrowthPercent)
	assert.Equal(t, int64(2), resp.UniqueVisitors)
	assert.Zero(t, resp.PageViewsToday)

	t.Run("TopLinksSkipInactive", func(t *testing.T) {
		require.Len(t, resp.TopLinks, 2)
		assert.Equal(t, popular.ID, resp.TopLinks[0].ID)
		assert.Equal(t, int64(4), resp.TopLinks[0].Clicks)
		assert.Equal(t, quiet.ID, resp.TopLinks[1].ID)
	})

	t.Run("DailySeriesIsZeroFilled", func(t *testing.T) {
		require.Len(t, resp.Daily, utils.DailySeriesLength)
		assert.Equal(t, "2025-02-14", resp.Daily[0].Date)
		assert.Equal(t, "2025-03-15", resp.Daily[len(resp.Daily)-1].Date)
		assert.Equal(t, int64(2), resp.Daily[len(resp.Daily)-1].Clicks)

		var sum int64
		for i, d := range resp.Daily {
			sum += d.Clicks
			if i > 0 {
				assert.Less(t, resp.Daily[i-1].Date, d.Date)
			}
		}
		assert.Equal(t, int64(4), sum)
	})

	t.Run("Breakdowns", func(t *testing.T) {
		devices := map[string]int64{}
		for _, d := range resp.Devices {
			devices[d.Label] = d.Clicks
		}
		assert.Equal(t, map[string]int64{"desktop": 3, "mobile": 1}, devices)

		require.Len(t, resp.Countries, 1)
		assert.Equal(t, "Germany", resp.Countries[0].Label)
		assert.Equal(t, int64(1), resp.Countries[0].Clicks)

		require.Len(t, resp.Browsers, 1)
		assert.Equal(t, "Chrome", resp.Browsers[0].Label)
	})
}

func TestAnalyticsOverviewEmpty(t *testing.T) {
	env := newTestEnv(t)
	flow := env.analyticsFlow(analyticsNow)

	owner, err := env.fixtures.CreateUser()
	require.NoError(t, err)

	resp, err := flow.Overview(context.Background(), owner.ID, owner.ID)
	require.NoError(t, err)
	assert.Zero(t, resp.TotalClicks)
	assert.Zero(t, resp.ActiveLinks)
	assert.NotNil(t, resp.TopLinks)
	assert.Empty(t, resp.TopLinks)
}

func TestExportClicks(t *testing.T) {
	env := newTestEnv(t)
	flow := env.analyticsFlow(analyticsNow)
	ctx := context.Background()

	owner, err := env.fixtures.CreateUser()
	require.NoError(t, err)
	link, err := env.fixtures.CreateLink(owner.ID, 1)
	require.NoError(t, err)
	for _, at := range []time.Time{analyticsNow.Add(-time.Hour), analyticsNow.AddDate(0, 0, -5), analyticsNow.AddDate(0, 0, -50)} {
		_, err := env.fixtures.CreateClick(link, at)
		require.NoError(t, err)
	}

	t.Run("DefaultWindow", func(t *testing.T) {
		name, data, err := flow.ExportClicks(ctx, owner.ID, owner.ID, 0)
		require.NoError(t, err)
		assert.Contains(t, name, "linkhub_clicks_")
		assert.Contains(t, name, "2025-03-15")

		xl, err := excelize.OpenReader(bytes.NewReader(data))
		require.NoError(t, err)
		defer func() { _ = xl.Close() }()

		rows, err := xl.GetRows("Clicks")
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "Time", rows[0][0])
		assert.Equal(t, link.Title, rows[1][1])
	})

	t.Run("WiderWindow", func(t *testing.T) {
		_, data, err := flow.ExportClicks(ctx, owner.ID, owner.ID, 90)
		require.NoError(t, err)

		xl, err := excelize.OpenReader(bytes.NewReader(data))
		require.NoError(t, err)
		defer func() { _ = xl.Close() }()

		rows, err := xl.GetRows("Clicks")
		require.NoError(t, err)
		assert.Len(t, rows, 4)
	})

	t.Run("OutOfRangeDays", func(t *testing.T) {
		for _, days := range []int{-1, 366} {
			_, _, err := flow.ExportClicks(ctx, owner.ID, owner.ID, days)
			assert.True(t, businessflow.IsValidation(err), days)
		}
	})
}

func TestGrowthPercent(t *testing.T) {
	tests := []struct {
		current, prior, want int64
	}{
		{0, 0, 0},
		{5, 0, 0},
		{15, 10, 50},
		{5, 10, -50},
		{1, 3, -67},
		{10, 10, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, businessflow.GrowthPercent(tt.current, tt.prior), "%d vs %d", tt.current, tt.prior)
	}
}

func TestDailySeriesUsesLocalCalendar(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	today := utils.StartOfDay(analyticsNow, loc)

	stamps := []time.Time{
		time.Date(2025, time.March, 14, 20, 0, 0, 0, time.UTC), // 01:00 on the 15th locally
		time.Date(2025, time.March, 14, 18, 0, 0, 0, time.UTC), // 23:00 on the 14th locally
	}

	series := businessflow.DailySeries(stamps, today, loc, 30)
	require.Len(t, series, 30)
	assert.Equal(t, "2025-03-15", series[29].Date)
	assert.Equal(t, int64(1), series[29].Clicks)
	assert.Equal(t, "2025-03-14", series[28].Date)
	assert.Equal(t, int64(1), series[28].Clicks)
	assert.Equal(t, int64(0), series[0].Clicks)
}

func TestTopLinksOrdering(t *testing.T) {
	links := []*models.Link{
		{ID: 1, Position: 1},
		{ID: 2, Position: 2},
		{ID: 3, Position: 3},
		{ID: 4, Position: 2},
	}
	counts := map[uint]int64{3: 9, 2: 4, 4: 4}

	top := businessflow.TopLinks(links, counts, 3)
	require.Len(t, top, 3)
	assert.Equal(t, []uint{3, 2, 4}, []uint{top[0].ID, top[1].ID, top[2].ID})
	assert.Equal(t, int64(9), top[0].Clicks)
}
