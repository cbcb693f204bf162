package businessflow_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/amirphl/LinkHub/app/dto"
	"github.com/amirphl/LinkHub/app/services"
	businessflow "github.com/amirphl/LinkHub/business_flow"
	"github.com/amirphl/LinkHub/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) profileFlow(t *testing.T, dir string) businessflow.ProfileFlow {
	t.Helper()
	store, err := services.NewAvatarStore(dir, utils.AvatarSize, utils.MaxAvatarBytes)
	require.NoError(t, err)
	return businessflow.NewProfileFlow(e.userRepo, e.linkRepo, e.clickRepo, e.auditRepo, store, "https://linkhub.test")
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	flow := env.profileFlow(t, t.TempDir())
	ctx := context.Background()

	user, err := env.fixtures.CreateUser()
	require.NoError(t, err)
	other, err := env.fixtures.CreateUser()
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		resp, err := flow.UpdateProfile(ctx, user.ID, &dto.UpdateProfileRequest{
			Name:     "  New Name ",
			Username: "brand_new",
			Bio:      utils.ToPtr("Hello there"),
			Theme:    "colorful",
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "New Name", resp.Name)
		assert.Equal(t, "brand_new", resp.Username)
		assert.Equal(t, "colorful", resp.Theme)
		require.NotNil(t, resp.Bio)
		assert.Equal(t, "Hello there", *resp.Bio)
	})

	t.Run("TakenUsernameConflicts", func(t *testing.T) {
		_, err := flow.UpdateProfile(ctx, user.ID, &dto.UpdateProfileRequest{
			Name: "Name", Username: other.Username, Theme: "dark",
		}, nil)
		require.Error(t, err)
		assert.True(t, businessflow.IsConflict(err))
		assert.True(t, businessflow.IsUsernameTaken(err))

		stored, err := env.userRepo.ByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "brand_new", stored.Username)
		assert.Equal(t, "colorful", string(stored.Theme))
	})

	t.Run("KeepingOwnUsernameIsFine", func(t *testing.T) {
		_, err := flow.UpdateProfile(ctx, user.ID, &dto.UpdateProfileRequest{
			Name: "Name", Username: "brand_new", Theme: "minimal",
		}, nil)
		require.NoError(t, err)
	})

	t.Run("Validation", func(t *testing.T) {
		_, err := flow.UpdateProfile(ctx, user.ID, &dto.UpdateProfileRequest{
			Name:     "",
			Username: "no spaces allowed",
			Bio:      utils.ToPtr(strings.Repeat("b", 161)),
			Theme:    "neon",
		}, nil)
		require.Error(t, err)
		fields := businessflow.ValidationFields(err)
		for _, f := range []string{"name", "username", "bio", "theme"} {
			assert.Contains(t, fields, f)
		}
	})
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	flow := env.profileFlow(t, t.TempDir())
	ctx := context.Background()

	user, err := env.fixtures.CreateUser()
	require.NoError(t, err)
	link, err := env.fixtures.CreateLink(user.ID, 1)
	require.NoError(t, err)
	_, err = env.fixtures.CreateClick(link, utils.UTCNow())
	require.NoError(t, err)

	resp, err := flow.Dashboard(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Username, resp.User.Username)
	require.Len(t, resp.Links, 1)
	assert.Equal(t, int64(1), resp.Links[0].Clicks)

	_, err = flow.Dashboard(ctx, 424242)
	assert.True(t, businessflow.IsUserNotFound(err))
}

func TestUploadAvatar(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	flow := env.profileFlow(t, dir)
	ctx := context.Background()

	user, err := env.fixtures.CreateUser()
	require.NoError(t, err)

	first, err := flow.UploadAvatar(ctx, user.ID, bytes.NewReader(pngBytes(t, 400, 300)), nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.Image, "https://linkhub.test/static/avatars/"))

	firstFile := filepath.Join(dir, filepath.Base(first.Image))
	f, err := os.Open(firstFile)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(f)
	_ = f.Close()
	require.NoError(t, err)
	assert.Equal(t, utils.AvatarSize, cfg.Width)
	assert.Equal(t, utils.AvatarSize, cfg.Height)

	second, err := flow.UploadAvatar(ctx, user.ID, bytes.NewReader(pngBytes(t, 64, 64)), nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.Image, second.Image)

	_, err = os.Stat(firstFile)
	assert.True(t, os.IsNotExist(err))

	stored, err := env.userRepo.ByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, second.Image, *stored.Image)

	_, err = flow.UploadAvatar(ctx, user.ID, strings.NewReader("definitely not an image"), nil)
	require.Error(t, err)
	assert.True(t, businessflow.IsValidation(err))
}
