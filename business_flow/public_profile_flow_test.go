package businessflow_test

import (
	"bytes"
	"context"
	"image/png"
	"testing"
	"time"

	"github.com/amirphl/LinkHub/app/dto"
	businessflow "github.com/amirphl/LinkHub/business_flow"
	"github.com/amirphl/LinkHub/models"
	testingutil "github.com/amirphl/LinkHub/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveProfile(t *testing.T) {
	env := newTestEnv(t)
	flow := env.publicFlow()
	ctx := context.Background()

	owner, err := env.fixtures.CreateUser()
	require.NoError(t, err)
	require.NoError(t, env.db.DB.Model(owner).Update("theme", models.ThemeDark).Error)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(24 * time.Hour)

	second, err := env.fixtures.CreateLink(owner.ID, 2)
	require.NoError(t, err)
	first, err := env.fixtures.CreateLink(owner.ID, 1, testingutil.WithSchedule(&past, &future))
	require.NoError(t, err)
	_, err = env.fixtures.CreateLink(owner.ID, 3, testingutil.WithInactive())
	require.NoError(t, err)
	_, err = env.fixtures.CreateLink(owner.ID, 4, testingutil.WithSchedule(&future, nil))
	require.NoError(t, err)
	_, err = env.fixtures.CreateLink(owner.ID, 5, testingutil.WithSchedule(nil, &past))
	require.NoError(t, err)

	resp, err := flow.ResolveProfile(ctx, owner.Username)
	require.NoError(t, err)

	assert.Equal(t, owner.Username, resp.User.Username)
	assert.Equal(t, "dark", resp.User.Theme)
	assert.Equal(t, models.ThemeDark.Style().Background, resp.ThemeStyle.Background)
	assert.Equal(t, "https://linkhub.test/"+owner.Username, resp.ProfileURL)

	require.Len(t, resp.Links, 2)
	assert.Equal(t, first.ID, resp.Links[0].ID)
	assert.Equal(t, second.ID, resp.Links[1].ID)
	assert.Equal(t, "🌐", resp.Links[0].Icon)

	_, err = flow.ResolveProfile(ctx, "nobody-here")
	assert.True(t, businessflow.IsUserNotFound(err))
}

func TestUsernameAvailable(t *testing.T) {
	env := newTestEnv(t)
	flow := env.publicFlow()
	ctx := context.Background()

	owner, err := env.fixtures.CreateUser()
	require.NoError(t, err)

	tests := []struct {
		username  string
		available bool
		reason    string
	}{
		{"fresh_name", true, ""},
		{owner.Username, false, "taken"},
		{"ab", false, "invalid"},
		{"has space", false, "invalid"},
		{"this-name-is-way-too-long", false, "invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			resp, err := flow.UsernameAvailable(ctx, tt.username)
			require.NoError(t, err)
			assert.Equal(t, tt.available, resp.Available)
			assert.Equal(t, tt.reason, resp.Reason)
		})
	}
}

func TestProfileQRCode(t *testing.T) {
	env := newTestEnv(t)
	flow := env.publicFlow()
	ctx := context.Background()

	owner, err := env.fixtures.CreateUser()
	require.NoError(t, err)

	data, err := flow.ProfileQRCode(ctx, owner.Username, 200)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())

	_, err = flow.ProfileQRCode(ctx, "missing-user", 200)
	assert.True(t, businessflow.IsNotFound(err))
}

func TestRecordPageViewWithoutRedis(t *testing.T) {
	env := newTestEnv(t)
	flow := env.publicFlow()
	ctx := context.Background()

	owner, err := env.fixtures.CreateUser()
	require.NoError(t, err)

	resp, err := flow.RecordPageView(ctx, &dto.RecordPageViewRequest{UserID: owner.ID})
	require.NoError(t, err)
	assert.Zero(t, resp.PageViewsToday)

	_, err = flow.RecordPageView(ctx, &dto.RecordPageViewRequest{UserID: 987654})
	assert.True(t, businessflow.IsUserNotFound(err))

	_, err = flow.RecordPageView(ctx, &dto.RecordPageViewRequest{})
	assert.True(t, businessflow.IsValidation(err))
}
