package businessflow_test

import (
	"testing"
	"time"

	"github.com/amirphl/LinkHub/app/services"
	businessflow "github.com/amirphl/LinkHub/business_flow"
	"github.com/amirphl/LinkHub/repository"
	testingutil "github.com/amirphl/LinkHub/testing"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db        *testingutil.TestDB
	fixtures  *testingutil.TestFixtures
	userRepo  repository.UserRepository
	linkRepo  repository.LinkRepository
	clickRepo repository.ClickRepository
	auditRepo repository.AuditLogRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testDB, err := testingutil.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = testDB.TeardownTestDB()
	})

	return &testEnv{
		db:        testDB,
		fixtures:  testingutil.NewTestFixtures(testDB),
		userRepo:  repository.NewUserRepository(testDB.DB),
		linkRepo:  repository.NewLinkRepository(testDB.DB),
		clickRepo: repository.NewClickRepository(testDB.DB),
		auditRepo: repository.NewAuditLogRepository(testDB.DB),
	}
}

func (e *testEnv) linkFlow() businessflow.LinkFlow {
	return businessflow.NewLinkFlow(e.linkRepo, e.clickRepo, e.auditRepo, e.db.DB)
}

func (e *testEnv) clickFlow(geo services.GeoService) businessflow.ClickFlow {
	return businessflow.NewClickFlow(e.linkRepo, e.clickRepo, services.NewUserAgentParser(), geo, e.db.DB)
}

func (e *testEnv) analyticsFlow(now time.Time) businessflow.AnalyticsFlow {
	return businessflow.NewAnalyticsFlowWithClock(
		e.linkRepo,
		e.clickRepo,
		services.NewPageViewStore(nil, "linkhub"),
		time.UTC,
		func() time.Time { return now },
	)
}

func (e *testEnv) publicFlow() businessflow.PublicProfileFlow {
	return businessflow.NewPublicProfileFlow(
		e.userRepo,
		e.linkRepo,
		services.NewPageViewStore(nil, "linkhub"),
		services.NewQRCodeGenerator(),
		"https://linkhub.test/",
	)
}

func (e *testEnv) tokenService(t *testing.T) services.TokenService {
	t.Helper()
	ts, err := services.NewTokenService(
		time.Hour, 24*time.Hour,
		"linkhub", "linkhub-web",
		false, "", "",
		"test-secret-key-that-is-long-enough-123",
		nil, "linkhub",
	)
	require.NoError(t, err)
	return ts
}
