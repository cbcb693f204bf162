package businessflow

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/amirphl/LinkHub/app/dto"
	"github.com/amirphl/LinkHub/app/services"
	"github.com/amirphl/LinkHub/models"
	"github.com/amirphl/LinkHub/repository"
	"github.com/amirphl/LinkHub/utils"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// AnalyticsFlow aggregates click data for the owner of a link set
type AnalyticsFlow interface {
	Overview(ctx context.Context, callerID, userID uint) (*dto.AnalyticsOverviewResponse, error)
	Detailed(ctx context.Context, callerID, userID uint) (*dto.AnalyticsDetailedResponse, error)
	ExportClicks(ctx context.Context, callerID, userID uint, days int) (string, []byte, error)
}

// AnalyticsFlowImpl implements AnalyticsFlow
type AnalyticsFlowImpl struct {
	linkRepo  repository.LinkRepository
	clickRepo repository.ClickRepository
	pageViews services.PageViewStore
	loc       *time.Location
	now       func() time.Time
}

// NewAnalyticsFlow creates an analytics flow whose calendar days follow loc
func NewAnalyticsFlow(
	linkRepo repository.LinkRepository,
	clickRepo repository.ClickRepository,
	pageViews services.PageViewStore,
	loc *time.Location,
) AnalyticsFlow {
	return NewAnalyticsFlowWithClock(linkRepo, clickRepo, pageViews, loc, utils.UTCNow)
}

// NewAnalyticsFlowWithClock is NewAnalyticsFlow with an explicit clock
func NewAnalyticsFlowWithClock(
	linkRepo repository.LinkRepository,
	clickRepo repository.ClickRepository,
	pageViews services.PageViewStore,
	loc *time.Location,
	now func() time.Time,
) AnalyticsFlow {
	if loc == nil {
		loc = time.Local
	}
	return &AnalyticsFlowImpl{
		linkRepo:  linkRepo,
		clickRepo: clickRepo,
		pageViews: pageViews,
		loc:       loc,
		now:       now,
	}
}

// window holds the boundaries every aggregate is computed against
type window struct {
	now          time.Time
	today        time.Time
	weekAgo      time.Time
	monthAgo     time.Time
	twoMonthsAgo time.Time
}

func (f *AnalyticsFlowImpl) window() window {
	now := f.now()
	today := utils.StartOfDay(now, f.loc)
	return window{
		now:          now.UTC(),
		today:        today,
		weekAgo:      utils.DaysAgo(today, 7),
		monthAgo:     utils.DaysAgo(today, 30),
		twoMonthsAgo: utils.DaysAgo(today, 60),
	}
}

func (f *AnalyticsFlowImpl) authorize(callerID, userID uint) error {
	if callerID == 0 {
		return ErrUnauthenticated
	}
	if callerID != userID {
		return ErrAnalyticsForbidden
	}
	return nil
}

func (f *AnalyticsFlowImpl) Overview(ctx context.Context, callerID, userID uint) (*dto.AnalyticsOverviewResponse, error) {
	if err := f.authorize(callerID, userID); err != nil {
		return nil, err
	}
	return f.overview(ctx, userID, f.window(), utils.OverviewTopLinks)
}

func (f *AnalyticsFlowImpl) Detailed(ctx context.Context, callerID, userID uint) (*dto.AnalyticsDetailedResponse, error) {
	if err := f.authorize(callerID, userID); err != nil {
		return nil, err
	}

	w := f.window()
	overview, err := f.overview(ctx, userID, w, utils.DetailedTopLinks)
	if err != nil {
		return nil, err
	}

	lastMonth, err := f.count(ctx, userID, &w.twoMonthsAgo, &w.monthAgo)
	if err != nil {
		return nil, err
	}

	unique, err := f.clickRepo.CountDistinctIPs(ctx, userID, w.monthAgo.UTC())
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_QUERY_FAILED", "Failed to count unique visitors", err)
	}

	daily, err := f.daily(ctx, userID, w)
	if err != nil {
		return nil, err
	}

	devices, err := f.breakdown(ctx, userID, repository.DimensionDevice, w.monthAgo, false, 0)
	if err != nil {
		return nil, err
	}
	browsers, err := f.breakdown(ctx, userID, repository.DimensionBrowser, w.monthAgo, false, utils.TopBrowsers)
	if err != nil {
		return nil, err
	}
	countries, err := f.breakdown(ctx, userID, repository.DimensionCountry, w.monthAgo, true, utils.TopCountries)
	if err != nil {
		return nil, err
	}

	return &dto.AnalyticsDetailedResponse{
		AnalyticsOverviewResponse: *overview,
		ClicksLastMonth:           lastMonth,
		GrowthPercent:             GrowthPercent(overview.ClicksThisMonth, lastMonth),
		UniqueVisitors:            unique,
		Daily:                     daily,
		Devices:                   devices,
		Browsers:                  browsers,
		Countries:                 countries,
	}, nil
}

func (f *AnalyticsFlowImpl) overview(ctx context.Context, userID uint, w window, topN int) (*dto.AnalyticsOverviewResponse, error) {
	counts, err := f.clickRepo.CountsByLink(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_QUERY_FAILED", "Failed to count clicks", err)
	}
	var total int64
	for _, c := range counts {
		total += c
	}

	active := true
	activeLinks, err := f.linkRepo.ByFilter(ctx, models.LinkFilter{UserID: &userID, IsActive: &active}, "position ASC, id ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_QUERY_FAILED", "Failed to list active links", err)
	}

	today, err := f.count(ctx, userID, &w.today, nil)
	if err != nil {
		return nil, err
	}
	week, err := f.count(ctx, userID, &w.weekAgo, nil)
	if err != nil {
		return nil, err
	}
	month, err := f.count(ctx, userID, &w.monthAgo, nil)
	if err != nil {
		return nil, err
	}

	pageViews, err := f.pageViews.Count(ctx, userID, w.now)
	if err != nil {
		log.Warn().Err(err).Uint("user_id", userID).Msg("failed to read page views")
		pageViews = 0
	}

	return &dto.AnalyticsOverviewResponse{
		TotalClicks:     total,
		ActiveLinks:     int64(len(activeLinks)),
		ClicksToday:     today,
		ClicksThisWeek:  week,
		ClicksThisMonth: month,
		PageViewsToday:  pageViews,
		TopLinks:        TopLinks(activeLinks, counts, topN),
	}, nil
}

// count returns the clicks in [from, to); nil bounds are open
func (f *AnalyticsFlowImpl) count(ctx context.Context, userID uint, from, to *time.Time) (int64, error) {
	filter := models.ClickFilter{
		UserID:        &userID,
		CreatedAfter:  utils.TimeToUTCPtr(from),
		CreatedBefore: utils.TimeToUTCPtr(to),
	}
	n, err := f.clickRepo.Count(ctx, filter)
	if err != nil {
		return 0, NewBusinessError("ANALYTICS_QUERY_FAILED", "Failed to count clicks", err)
	}
	return n, nil
}

func (f *AnalyticsFlowImpl) daily(ctx context.Context, userID uint, w window) ([]dto.DailyClicksDTO, error) {
	start := utils.DaysAgo(w.today, utils.DailySeriesLength-1)
	stamps, err := f.clickRepo.TimestampsSince(ctx, userID, start.UTC())
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_QUERY_FAILED", "Failed to load click timestamps", err)
	}
	return DailySeries(stamps, w.today, f.loc, utils.DailySeriesLength), nil
}

func (f *AnalyticsFlowImpl) breakdown(ctx context.Context, userID uint, dim repository.ClickDimension, since time.Time, skipNull bool, limit int) ([]dto.LabelCountDTO, error) {
	rows, err := f.clickRepo.GroupBy(ctx, userID, dim, since.UTC(), skipNull, limit)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_QUERY_FAILED", fmt.Sprintf("Failed to group clicks by %s", dim), err)
	}
	return toLabelCounts(rows), nil
}

// ExportClicks renders the caller's clicks of the last days as an xlsx workbook
func (f *AnalyticsFlowImpl) ExportClicks(ctx context.Context, callerID, userID uint, days int) (string, []byte, error) {
	if err := f.authorize(callerID, userID); err != nil {
		return "", nil, err
	}
	if days == 0 {
		days = utils.DefaultExportDays
	}
	if days < 1 || days > utils.MaxExportDays {
		return "", nil, NewValidationError("days", fmt.Sprintf("must be between 1 and %d", utils.MaxExportDays))
	}

	w := f.window()
	since := utils.DaysAgo(w.today, days)
	rows, err := f.clickRepo.ListForExport(ctx, userID, since.UTC())
	if err != nil {
		return "", nil, NewBusinessError("ANALYTICS_EXPORT_FAILED", "Failed to load clicks for export", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "Clicks"
	if err := xl.SetSheetName(xl.GetSheetName(0), sheet); err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to prepare workbook", err)
	}

	header := []string{"Time", "Link", "URL", "Browser", "OS", "Device", "Country", "City", "Referrer", "IP"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for i, r := range rows {
		record := []string{
			r.CreatedAt.In(f.loc).Format(time.RFC3339),
			r.LinkTitle,
			r.LinkURL,
			utils.StringOrEmpty(r.Browser),
			utils.StringOrEmpty(r.OS),
			utils.StringOrEmpty(r.DeviceType),
			utils.StringOrEmpty(r.Country),
			utils.StringOrEmpty(r.City),
			utils.StringOrEmpty(r.Referrer),
			utils.StringOrEmpty(r.IPAddress),
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}

	filename := "linkhub_clicks_" + strconv.FormatUint(uint64(userID), 10) + "_" + w.today.Format(utils.DateLayout) + ".xlsx"
	return filename, buf.Bytes(), nil
}

// GrowthPercent is round((current-prior)/prior*100), or 0 when prior is 0
func GrowthPercent(current, prior int64) int64 {
	if prior == 0 {
		return 0
	}
	return int64(math.Round(float64(current-prior) / float64(prior) * 100))
}

// DailySeries buckets stamps by calendar day in loc and returns n ascending,
// zero-filled entries ending at today
func DailySeries(stamps []time.Time, today time.Time, loc *time.Location, n int) []dto.DailyClicksDTO {
	buckets := make(map[string]int64, n)
	for _, ts := range stamps {
		buckets[ts.In(loc).Format(utils.DateLayout)]++
	}

	out := make([]dto.DailyClicksDTO, 0, n)
	start := utils.DaysAgo(today, n-1)
	for i := 0; i < n; i++ {
		day := start.AddDate(0, 0, i).Format(utils.DateLayout)
		out = append(out, dto.DailyClicksDTO{Date: day, Clicks: buckets[day]})
	}
	return out
}

// TopLinks ranks links by live click count, keeping display order among equals
func TopLinks(links []*models.Link, counts map[uint]int64, n int) []dto.TopLinkDTO {
	ranked := make([]*models.Link, len(links))
	copy(ranked, links)
	sort.SliceStable(ranked, func(i, j int) bool {
		ci, cj := counts[ranked[i].ID], counts[ranked[j].ID]
		if ci != cj {
			return ci > cj
		}
		if ranked[i].Position != ranked[j].Position {
			return ranked[i].Position < ranked[j].Position
		}
		return ranked[i].ID < ranked[j].ID
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}

	out := make([]dto.TopLinkDTO, 0, len(ranked))
	for _, l := range ranked {
		out = append(out, dto.TopLinkDTO{
			ID:       l.ID,
			Title:    l.Title,
			URL:      l.URL,
			Platform: string(l.Platform),
			Clicks:   counts[l.ID],
		})
	}
	return out
}

func toLabelCounts(rows []repository.LabelCount) []dto.LabelCountDTO {
	out := make([]dto.LabelCountDTO, 0, len(rows))
	for _, r := range rows {
		label := utils.UnknownLabel
		if r.Label != nil && *r.Label != "" {
			label = *r.Label
		}
		out = append(out, dto.LabelCountDTO{Label: label, Clicks: r.Clicks})
	}
	return out
}
