package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirphl/LinkHub/models"
	"github.com/amirphl/LinkHub/repository"
	testingutil "github.com/amirphl/LinkHub/testing"
	"github.com/amirphl/LinkHub/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*testingutil.TestDB, *testingutil.TestFixtures) {
	t.Helper()
	testDB, err := testingutil.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = testDB.TeardownTestDB()
	})
	return testDB, testingutil.NewTestFixtures(testDB)
}

func TestUserRepository(t *testing.T) {
	testDB, fixtures := setup(t)
	repo := repository.NewUserRepository(testDB.DB)
	ctx := context.Background()

	user, err := fixtures.CreateUser()
	require.NoError(t, err)

	t.Run("Lookups", func(t *testing.T) {
		byEmail, err := repo.ByEmail(ctx, user.Email)
		require.NoError(t, err)
		require.NotNil(t, byEmail)
		assert.Equal(t, user.ID, byEmail.ID)

		byName, err := repo.ByUsername(ctx, user.Username)
		require.NoError(t, err)
		require.NotNil(t, byName)

		missing, err := repo.ByGoogleSubject(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, missing)

		none, err := repo.ByID(ctx, 9999)
		require.NoError(t, err)
		assert.Nil(t, none)
	})

	t.Run("DuplicateUsernameTranslates", func(t *testing.T) {
		now := utils.UTCNow()
		dup := &models.User{
			Email:     "other@example.com",
			Username:  user.Username,
			Name:      "Other",
			Theme:     models.ThemeDefault,
			CreatedAt: now,
			UpdatedAt: now,
		}
		err := repo.Save(ctx, dup)
		require.Error(t, err)
		assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))
	})

	t.Run("Update", func(t *testing.T) {
		user.Bio = utils.ToPtr("updated bio")
		require.NoError(t, repo.Update(ctx, user))

		stored, err := repo.ByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "updated bio", *stored.Bio)
	})
}

func TestLinkRepository(t *testing.T) {
	testDB, fixtures := setup(t)
	repo := repository.NewLinkRepository(testDB.DB)
	ctx := context.Background()

	owner, err := fixtures.CreateUser()
	require.NoError(t, err)
	other, err := fixtures.CreateUser()
	require.NoError(t, err)

	t.Run("MaxPositionEmpty", func(t *testing.T) {
		pos, err := repo.MaxPosition(ctx, owner.ID)
		require.NoError(t, err)
		assert.Nil(t, pos)
	})

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	b, err := fixtures.CreateLink(owner.ID, 2)
	require.NoError(t, err)
	a, err := fixtures.CreateLink(owner.ID, 2)
	require.NoError(t, err)
	_, err = fixtures.CreateLink(owner.ID, 7, testingutil.WithInactive())
	require.NoError(t, err)
	_, err = fixtures.CreateLink(owner.ID, 8, testingutil.WithSchedule(&future, nil))
	require.NoError(t, err)
	_, err = fixtures.CreateLink(owner.ID, 9, testingutil.WithSchedule(nil, &past))
	require.NoError(t, err)
	foreign, err := fixtures.CreateLink(other.ID, 1)
	require.NoError(t, err)

	t.Run("MaxPosition", func(t *testing.T) {
		pos, err := repo.MaxPosition(ctx, owner.ID)
		require.NoError(t, err)
		require.NotNil(t, pos)
		assert.Equal(t, 9, *pos)
	})

	t.Run("ListOrdersByPositionThenID", func(t *testing.T) {
		links, err := repo.ListByUser(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, links, 5)
		assert.Equal(t, b.ID, links[0].ID)
		assert.Equal(t, a.ID, links[1].ID)
	})

	t.Run("ListVisible", func(t *testing.T) {
		links, err := repo.ListVisibleByUser(ctx, owner.ID, time.Now())
		require.NoError(t, err)
		require.Len(t, links, 2)
		for _, l := range links {
			assert.True(t, l.IsVisibleAt(time.Now()))
		}
	})

	t.Run("OwnershipScopedWrites", func(t *testing.T) {
		found, err := repo.ByIDAndUser(ctx, foreign.ID, owner.ID)
		require.NoError(t, err)
		assert.Nil(t, found)

		affected, err := repo.UpdatePosition(ctx, foreign.ID, owner.ID, 5)
		require.NoError(t, err)
		assert.Zero(t, affected)

		affected, err = repo.DeleteByIDAndUser(ctx, foreign.ID, owner.ID)
		require.NoError(t, err)
		assert.Zero(t, affected)
	})

	t.Run("IncrementClickCount", func(t *testing.T) {
		require.NoError(t, repo.IncrementClickCount(ctx, a.ID))
		require.NoError(t, repo.IncrementClickCount(ctx, a.ID))

		stored, err := repo.ByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), stored.ClickCount)

		assert.Error(t, repo.IncrementClickCount(ctx, 123456))
	})
}

func TestClickRepository(t *testing.T) {
	testDB, fixtures := setup(t)
	repo := repository.NewClickRepository(testDB.DB)
	ctx := context.Background()

	owner, err := fixtures.CreateUser()
	require.NoError(t, err)
	link1, err := fixtures.CreateLink(owner.ID, 1)
	require.NoError(t, err)
	link2, err := fixtures.CreateLink(owner.ID, 2)
	require.NoError(t, err)

	now := utils.UTCNow()
	firefox := func(c *models.Click) {
		c.Browser = utils.ToPtr("Firefox")
		c.Country = nil
	}
	inGermany := func(c *models.Click) { c.Country = utils.ToPtr("Germany") }

	for _, c := range []struct {
		link   *models.Link
		at     time.Time
		mutate func(*models.Click)
	}{
		{link1, now.Add(-time.Hour), inGermany},
		{link1, now.Add(-2 * time.Hour), inGermany},
		{link1, now.AddDate(0, 0, -2), firefox},
		{link2, now.AddDate(0, 0, -40), inGermany},
	} {
		_, err := fixtures.CreateClick(c.link, c.at, c.mutate)
		require.NoError(t, err)
	}

	t.Run("CountsByLink", func(t *testing.T) {
		counts, err := repo.CountsByLink(ctx, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, map[uint]int64{link1.ID: 3, link2.ID: 1}, counts)
	})

	t.Run("CountWindowIsHalfOpen", func(t *testing.T) {
		from := now.AddDate(0, 0, -2)
		to := now.Add(-time.Hour)
		n, err := repo.Count(ctx, models.ClickFilter{UserID: &owner.ID, CreatedAfter: &from, CreatedBefore: &to})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("GroupByBrowser", func(t *testing.T) {
		rows, err := repo.GroupBy(ctx, owner.ID, repository.DimensionBrowser, now.AddDate(0, 0, -30), false, 0)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "Chrome", *rows[0].Label)
		assert.Equal(t, int64(2), rows[0].Clicks)
		assert.Equal(t, "Firefox", *rows[1].Label)
	})

	t.Run("GroupByCountrySkipsNull", func(t *testing.T) {
		rows, err := repo.GroupBy(ctx, owner.ID, repository.DimensionCountry, now.AddDate(0, 0, -30), true, 10)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, int64(2), rows[0].Clicks)
	})

	t.Run("GroupByRejectsUnknownColumn", func(t *testing.T) {
		_, err := repo.GroupBy(ctx, owner.ID, repository.ClickDimension("ip_address; DROP TABLE clicks"), now, false, 0)
		assert.Error(t, err)
	})

	t.Run("TimestampsSince", func(t *testing.T) {
		stamps, err := repo.TimestampsSince(ctx, owner.ID, now.AddDate(0, 0, -30))
		require.NoError(t, err)
		assert.Len(t, stamps, 3)
	})

	t.Run("ListForExportJoinsLinks", func(t *testing.T) {
		rows, err := repo.ListForExport(ctx, owner.ID, now.AddDate(0, 0, -30))
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, link1.Title, rows[0].LinkTitle)
		assert.Equal(t, link1.URL, rows[0].LinkURL)
		assert.True(t, rows[0].CreatedAt.After(rows[2].CreatedAt))
	})
}

func TestWithTransactionRollsBack(t *testing.T) {
	testDB, fixtures := setup(t)
	repo := repository.NewLinkRepository(testDB.DB)
	ctx := context.Background()

	owner, err := fixtures.CreateUser()
	require.NoError(t, err)
	link, err := fixtures.CreateLink(owner.ID, 1)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = repository.WithTransaction(ctx, testDB.DB, func(ctx context.Context) error {
		if _, err := repo.UpdatePosition(ctx, link.ID, owner.ID, 42); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := repo.ByID(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Position)
}

func TestListVisibleMatchesIsVisibleAt(t *testing.T) {
	testDB, fixtures := setup(t)
	repo := repository.NewLinkRepository(testDB.DB)
	ctx := context.Background()

	owner, err := fixtures.CreateUser()
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	instants := []*time.Time{nil, &past, &now, &future}

	want := map[uint]bool{}
	position := 0
	for _, active := range []bool{true, false} {
		for _, scheduled := range instants {
			for _, expires := range instants {
				position++
				opts := []testingutil.LinkOption{testingutil.WithSchedule(scheduled, expires)}
				if !active {
					opts = append(opts, testingutil.WithInactive())
				}
				link, err := fixtures.CreateLink(owner.ID, position, opts...)
				require.NoError(t, err)
				if link.IsVisibleAt(now) {
					want[link.ID] = true
				}
			}
		}
	}
	require.Len(t, want, 6)

	links, err := repo.ListVisibleByUser(ctx, owner.ID, now)
	require.NoError(t, err)

	got := map[uint]bool{}
	for _, l := range links {
		got[l.ID] = true
	}
	assert.Equal(t, want, got)
}
