package businessflow_test

import (
	"context"
	"testing"
	"time"

	"github.com/amirphl/LinkHub/app/dto"
	businessflow "github.com/amirphl/LinkHub/business_flow"
	"github.com/amirphl/LinkHub/models"
	testingutil "github.com/amirphl/LinkHub/testing"
	"github.com/amirphl/LinkHub/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createReq(title string) *dto.CreateLinkRequest {
	return &dto.CreateLinkRequest{
		Title:    title,
		URL:      "https://example.com/" + title,
		Platform: string(models.PlatformWebsite),
	}
}

func TestCreateLink(t *testing.T) {
	env := newTestEnv(t)
	flow := env.linkFlow()
	ctx := context.Background()

	user, err := env.fixtures.CreateUser()
	require.NoError(t, err)

	t.Run("FirstLinkGetsPositionOne", func(t *testing.T) {
		link, err := flow.CreateLink(ctx, user.ID, createReq("first"))
		require.NoError(t, err)
		assert.Equal(t, 1, link.Position)
		assert.True(t, link.IsActive)
		assert.Equal(t, "🌐", link.Icon)
	})

	t.Run("NextLinkGetsMaxPlusOne", func(t *testing.T) {
		other, err := env.fixtures.CreateUser()
		require.NoError(t, err)
		_, err = env.fixtures.CreateLink(other.ID, 5)
		require.NoError(t, err)

		link, err := flow.CreateLink(ctx, other.ID, createReq("next"))
		require.NoError(t, err)
		assert.Equal(t, 6, link.Position)
	})

	t.Run("TrimsAndKeepsInactiveFlag", func(t *testing.T) {
		req := createReq("  spaced  ")
		req.IsActive = utils.ToPtr(false)
		req.Description = utils.ToPtr("   ")

		link, err := flow.CreateLink(ctx, user.ID, req)
		require.NoError(t, err)
		assert.Equal(t, "spaced", link.Title)
		assert.False(t, link.IsActive)
		assert.Nil(t, link.Description)
	})

	t.Run("ValidationErrors", func(t *testing.T) {
		tests := []struct {
			name  string
			req   *dto.CreateLinkRequest
			field string
		}{
			{"EmptyTitle", &dto.CreateLinkRequest{URL: "https://a.com", Platform: "github"}, "title"},
			{"BadURL", &dto.CreateLinkRequest{Title: "a", URL: "not a url", Platform: "github"}, "url"},
			{"UnknownPlatform", &dto.CreateLinkRequest{Title: "a", URL: "https://a.com", Platform: "myspace"}, "platform"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := flow.CreateLink(ctx, user.ID, tt.req)
				require.Error(t, err)
				assert.True(t, businessflow.IsValidation(err))
				assert.Contains(t, businessflow.ValidationFields(err), tt.field)
			})
		}
	})

	t.Run("ExpiryMustFollowSchedule", func(t *testing.T) {
		start := time.Now().Add(48 * time.Hour)
		end := start.Add(-time.Hour)
		req := createReq("window")
		req.ScheduledAt = &start
		req.ExpiresAt = &end

		_, err := flow.CreateLink(ctx, user.ID, req)
		require.Error(t, err)
		assert.Contains(t, businessflow.ValidationFields(err), "expires_at")
	})
}

func TestUpdateLink(t *testing.T) {
	env := newTestEnv(t)
	flow := env.linkFlow()
	ctx := context.Background()

	owner, err := env.fixtures.CreateUser()
	require.NoError(t, err)
	intruder, err := env.fixtures.CreateUser()
	require.NoError(t, err)
	link, err := env.fixtures.CreateLink(owner.ID, 1, testingutil.WithInactive())
	require.NoError(t, err)

	req := &dto.UpdateLinkRequest{
		Title:    "Renamed",
		URL:      "https://example.com/renamed",
		Platform: string(models.PlatformGithub),
	}

	t.Run("ForeignLinkIsNotFound", func(t *testing.T) {
		_, err := flow.UpdateLink(ctx, intruder.ID, link.ID, req)
		require.Error(t, err)
		assert.True(t, businessflow.IsLinkNotFound(err))
	})

	t.Run("OmittedActiveFlagIsKept", func(t *testing.T) {
		updated, err := flow.UpdateLink(ctx, owner.ID, link.ID, req)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Title)
		assert.Equal(t, "github", updated.Platform)
		assert.False(t, updated.IsActive)
		assert.Equal(t, 1, updated.Position)
	})
}

func TestDeleteLink(t *testing.T) {
	env := newTestEnv(t)
	flow := env.linkFlow()
	ctx := context.Background()

	owner, err := env.fixtures.CreateUser()
	require.NoError(t, err)
	intruder, err := env.fixtures.CreateUser()
	require.NoError(t, err)
	link, err := env.fixtures.CreateLink(owner.ID, 1)
	require.NoError(t, err)
	_, err = env.fixtures.CreateClick(link, time.Now())
	require.NoError(t, err)

	t.Run("ForeignLinkIsNotFoundNotForbidden", func(t *testing.T) {
		err := flow.DeleteLink(ctx, intruder.ID, link.ID, nil)
		require.Error(t, err)
		assert.True(t, businessflow.IsNotFound(err))
		assert.False(t, businessflow.IsForbidden(err))

		still, err := env.linkRepo.ByID(ctx, link.ID)
		require.NoError(t, err)
		assert.NotNil(t, still)
	})

	t.Run("OwnerDeletesLinkAndClicks", func(t *testing.T) {
		err := flow.DeleteLink(ctx, owner.ID, link.ID, businessflow.NewClientMetadata("10.0.0.1", "test"))
		require.NoError(t, err)

		gone, err := env.linkRepo.ByID(ctx, link.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)

		clicks, err := env.clickRepo.Count(ctx, models.ClickFilter{LinkID: &link.ID})
		require.NoError(t, err)
		assert.Zero(t, clicks)

		logs, err := env.auditRepo.ListByUser(ctx, owner.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, models.AuditActionLinkDeleted, logs[0].Action)
	})

	t.Run("DeletingTwiceIsNotFound", func(t *testing.T) {
		err := flow.DeleteLink(ctx, owner.ID, link.ID, nil)
		assert.True(t, businessflow.IsLinkNotFound(err))
	})
}

func TestReorderLinks(t *testing.T) {
	env := newTestEnv(t)
	flow := env.linkFlow()
	ctx := context.Background()

	owner, err := env.fixtures.CreateUser()
	require.NoError(t, err)
	other, err := env.fixtures.CreateUser()
	require.NoError(t, err)

	l1, err := env.fixtures.CreateLink(owner.ID, 1)
	require.NoError(t, err)
	l2, err := env.fixtures.CreateLink(owner.ID, 2)
	require.NoError(t, err)
	l3, err := env.fixtures.CreateLink(owner.ID, 3)
	require.NoError(t, err)
	foreign, err := env.fixtures.CreateLink(other.ID, 1)
	require.NoError(t, err)

	positions := func() map[uint]int {
		links, err := env.linkRepo.ListByUser(ctx, owner.ID)
		require.NoError(t, err)
		out := make(map[uint]int, len(links))
		for _, l := range links {
			out[l.ID] = l.Position
		}
		return out
	}

	t.Run("AppliesNewOrder", func(t *testing.T) {
		resp, err := flow.ReorderLinks(ctx, owner.ID, &dto.ReorderLinksRequest{Links: []dto.ReorderLinkItem{
			{ID: l3.ID, Position: 1},
			{ID: l1.ID, Position: 2},
			{ID: l2.ID, Position: 3},
		}}, nil)
		require.NoError(t, err)
		require.Len(t, resp.Links, 3)
		assert.Equal(t, []uint{l3.ID, l1.ID, l2.ID}, []uint{resp.Links[0].ID, resp.Links[1].ID, resp.Links[2].ID})
	})

	t.Run("ForeignIDChangesNothing", func(t *testing.T) {
		before := positions()

		_, err := flow.ReorderLinks(ctx, owner.ID, &dto.ReorderLinksRequest{Links: []dto.ReorderLinkItem{
			{ID: l1.ID, Position: 3},
			{ID: l2.ID, Position: 2},
			{ID: foreign.ID, Position: 1},
		}}, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, businessflow.ErrLinkSetMismatch)
		assert.True(t, businessflow.IsValidation(err))

		assert.Equal(t, before, positions())
	})

	t.Run("PartialSetIsRejected", func(t *testing.T) {
		_, err := flow.ReorderLinks(ctx, owner.ID, &dto.ReorderLinksRequest{Links: []dto.ReorderLinkItem{
			{ID: l1.ID, Position: 1},
		}}, nil)
		assert.ErrorIs(t, err, businessflow.ErrLinkSetMismatch)
	})

	t.Run("DuplicateIDIsRejected", func(t *testing.T) {
		_, err := flow.ReorderLinks(ctx, owner.ID, &dto.ReorderLinksRequest{Links: []dto.ReorderLinkItem{
			{ID: l1.ID, Position: 1},
			{ID: l1.ID, Position: 2},
			{ID: l2.ID, Position: 3},
		}}, nil)
		require.Error(t, err)
		assert.True(t, businessflow.IsValidation(err))
		assert.Contains(t, businessflow.ValidationFields(err), "links")
	})

	t.Run("NegativePositionIsRejected", func(t *testing.T) {
		_, err := flow.ReorderLinks(ctx, owner.ID, &dto.ReorderLinksRequest{Links: []dto.ReorderLinkItem{
			{ID: l1.ID, Position: -1},
		}}, nil)
		require.Error(t, err)
		assert.True(t, businessflow.IsValidation(err))
	})
}

func TestListLinksCountsLiveClicks(t *testing.T) {
	env := newTestEnv(t)
	flow := env.linkFlow()
	ctx := context.Background()

	owner, err := env.fixtures.CreateUser()
	require.NoError(t, err)
	a, err := env.fixtures.CreateLink(owner.ID, 2)
	require.NoError(t, err)
	b, err := env.fixtures.CreateLink(owner.ID, 1)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = env.fixtures.CreateClick(a, time.Now())
		require.NoError(t, err)
	}

	resp, err := flow.ListLinks(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, resp.Links, 2)
	assert.Equal(t, b.ID, resp.Links[0].ID)
	assert.Equal(t, int64(0), resp.Links[0].Clicks)
	assert.Equal(t, a.ID, resp.Links[1].ID)
	assert.Equal(t, int64(3), resp.Links[1].Clicks)
}
