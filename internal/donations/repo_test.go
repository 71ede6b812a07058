package donations

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Nattanjunior/apoiadev-backend/pkg/db"
	"github.com/Nattanjunior/apoiadev-backend/pkg/db/models"
	"github.com/Nattanjunior/apoiadev-backend/pkg/enums"
)

func setupDonationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	// sqlite cannot interleave writers; a single connection keeps the
	// concurrency tests exercising our guards instead of SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)

	ddl := `
CREATE TABLE IF NOT EXISTS donations (
  id TEXT PRIMARY KEY,
  creator_id TEXT NOT NULL,
  supporter_name TEXT NOT NULL,
  message TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  currency TEXT NOT NULL DEFAULT 'brl',
  stripe_session_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME,
  confirmed_at DATETIME,
  CONSTRAINT idx_donations_stripe_session_id UNIQUE (stripe_session_id)
);`
	require.NoError(t, conn.Exec(ddl).Error)

	return conn
}

func pendingDonation(creatorID uuid.UUID, sessionID string, cents int64) *models.Donation {
	return &models.Donation{
		CreatorID:       creatorID,
		SupporterName:   "Ana",
		Message:         "obrigado pelo conteudo",
		AmountCents:     cents,
		Currency:        enums.DefaultCurrency,
		StripeSessionID: sessionID,
		Status:          enums.DonationStatusPending,
	}
}

func TestRepositoryCreateAndFind(t *testing.T) {
	repo := NewRepository(setupDonationsTestDB(t))
	ctx := context.Background()
	creatorID := uuid.New()

	donation := pendingDonation(creatorID, "cs_test_1", 2000)
	require.NoError(t, repo.Create(ctx, donation))
	assert.NotEqual(t, uuid.Nil, donation.ID)

	loaded, err := repo.FindBySessionID(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, donation.ID, loaded.ID)
	assert.Equal(t, enums.DonationStatusPending, loaded.Status)
	assert.Equal(t, int64(2000), loaded.AmountCents)
}

func TestRepositoryCreateRejectsDuplicateSession(t *testing.T) {
	repo := NewRepository(setupDonationsTestDB(t))
	ctx := context.Background()
	creatorID := uuid.New()

	require.NoError(t, repo.Create(ctx, pendingDonation(creatorID, "cs_dup", 1000)))

	err := repo.Create(ctx, pendingDonation(creatorID, "cs_dup", 1000))
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, "idx_donations_stripe_session_id"), "got %v", err)

	var count int64
	require.NoError(t, repo.db.Model(&models.Donation{}).Where("stripe_session_id = ?", "cs_dup").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTransitionStatusGuardsOnCurrentStatus(t *testing.T) {
	repo := NewRepository(setupDonationsTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, pendingDonation(uuid.New(), "cs_cas", 1000)))

	now := time.Now().UTC()
	rows, err := repo.TransitionStatus(ctx, "cs_cas", enums.DonationStatusPending, enums.DonationStatusPaid, &now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	// Guard no longer matches once the row is terminal.
	rows, err = repo.TransitionStatus(ctx, "cs_cas", enums.DonationStatusPending, enums.DonationStatusFailed, &now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	loaded, err := repo.FindBySessionID(ctx, "cs_cas")
	require.NoError(t, err)
	assert.Equal(t, enums.DonationStatusPaid, loaded.Status)
	require.NotNil(t, loaded.ConfirmedAt)
}

func TestTransitionStatusUnknownSessionAffectsNothing(t *testing.T) {
	repo := NewRepository(setupDonationsTestDB(t))

	now := time.Now().UTC()
	rows, err := repo.TransitionStatus(context.Background(), "cs_missing", enums.DonationStatusPending, enums.DonationStatusPaid, &now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)
}

func TestAggregatePaidTotalsExcludesNonPaid(t *testing.T) {
	repo := NewRepository(setupDonationsTestDB(t))
	ctx := context.Background()
	creatorID := uuid.New()

	paid := pendingDonation(creatorID, "cs_paid", 1000)
	paid.Status = enums.DonationStatusPaid
	require.NoError(t, repo.Create(ctx, paid))

	require.NoError(t, repo.Create(ctx, pendingDonation(creatorID, "cs_pending", 2000)))

	failed := pendingDonation(creatorID, "cs_failed", 3000)
	failed.Status = enums.DonationStatusFailed
	require.NoError(t, repo.Create(ctx, failed))

	// Another creator's paid donation must not leak in.
	other := pendingDonation(uuid.New(), "cs_other", 5000)
	other.Status = enums.DonationStatusPaid
	require.NoError(t, repo.Create(ctx, other))

	totals, err := repo.AggregatePaidTotals(ctx, creatorID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), totals.Count)
	assert.Equal(t, int64(1000), totals.SumCents)
}

func TestAggregatePaidTotalsEmptyLedger(t *testing.T) {
	repo := NewRepository(setupDonationsTestDB(t))

	totals, err := repo.AggregatePaidTotals(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(0), totals.Count)
	assert.Equal(t, int64(0), totals.SumCents)
}

func TestListRecentPaidOrdersNewestFirst(t *testing.T) {
	repo := NewRepository(setupDonationsTestDB(t))
	ctx := context.Background()
	creatorID := uuid.New()

	older := time.Now().UTC().Add(-time.Hour)
	newer := time.Now().UTC()

	first := pendingDonation(creatorID, "cs_a", 1000)
	first.Status = enums.DonationStatusPaid
	first.ConfirmedAt = &older
	require.NoError(t, repo.Create(ctx, first))

	second := pendingDonation(creatorID, "cs_b", 2000)
	second.Status = enums.DonationStatusPaid
	second.ConfirmedAt = &newer
	require.NoError(t, repo.Create(ctx, second))

	require.NoError(t, repo.Create(ctx, pendingDonation(creatorID, "cs_c", 3000)))

	rows, err := repo.ListRecentPaid(ctx, creatorID, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "cs_b", rows[0].StripeSessionID)
	assert.Equal(t, "cs_a", rows[1].StripeSessionID)
}

func TestConcurrentIdenticalConfirmations(t *testing.T) {
	repo := NewRepository(setupDonationsTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, pendingDonation(uuid.New(), "cs_race", 2000)))

	const workers = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int64
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			now := time.Now().UTC()
			rows, err := repo.TransitionStatus(ctx, "cs_race", enums.DonationStatusPending, enums.DonationStatusPaid, &now)
			if err != nil {
				t.Errorf("transition: %v", err)
				return
			}
			mu.Lock()
			wins += rows
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins, "exactly one delivery may win the transition")

	loaded, err := repo.FindBySessionID(ctx, "cs_race")
	require.NoError(t, err)
	assert.Equal(t, enums.DonationStatusPaid, loaded.Status)
}
