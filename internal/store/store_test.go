package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/owner-resolver/internal/model"
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testReport(bbl model.BBL, at time.Time) *model.Report {
	return &model.Report{
		BBL:          bbl,
		Address:      "10 MAIN ST",
		TaxRollOwner: "SMITH HOLDINGS LLC",
		Phones: []model.PhoneGroup{{
			NormalizedPhone: "2125551234",
			DisplayPhone:    "212-555-1234",
			Score:           100,
			Reasons:         []string{"Listed as owner phone on a filing"},
			IsPrimary:       true,
		}},
		Contacts:    []model.RankedContact{{Name: "JOHN SMITH", Role: model.RoleIndividualOwner, Score: 75}},
		Ownership:   model.OwnershipResolution{BestGuessName: "JOHN SMITH", Confidence: 85, Reasoning: []string{"Registered Individual Owner: JOHN SMITH"}},
		Distress:    model.DistressScore{Total: 45, Signals: []string{"1 open HPD litigation case(s)"}},
		Feeds:       []model.FeedStatus{{Feed: "tax_roll", Records: 1}},
		GeneratedAt: at,
	}
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	bblA := model.BBL{Borough: model.Manhattan, Block: 123, Lot: 45}
	bblB := model.BBL{Borough: model.Brooklyn, Block: 7, Lot: 1}
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("SaveAndGetLookup", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		report := testReport(bblA, base)
		require.NoError(t, s.SaveLookup(ctx, report))
		assert.NotEmpty(t, report.ID)

		got, err := s.GetLookup(ctx, report.ID)
		require.NoError(t, err)
		assert.Equal(t, report.ID, got.ID)
		assert.Equal(t, bblA, got.BBL)
		assert.Equal(t, "JOHN SMITH", got.Ownership.BestGuessName)
		require.NotNil(t, got.PrimaryPhone())
		assert.Equal(t, "2125551234", got.PrimaryPhone().NormalizedPhone)
		assert.True(t, base.Equal(got.GeneratedAt))
	})

	t.Run("GetLookupNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetLookup(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("SaveLookupIsIdempotentByID", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		report := testReport(bblA, base)
		report.ID = "fixed-id"
		require.NoError(t, s.SaveLookup(ctx, report))
		report.Distress.Total = 80
		require.NoError(t, s.SaveLookup(ctx, report))

		list, err := s.ListLookups(ctx, LookupFilter{})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, 80, list[0].Distress)
	})

	t.Run("ListLookupsNewestFirst", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for i := range 3 {
			require.NoError(t, s.SaveLookup(ctx, testReport(bblA, base.Add(time.Duration(i)*time.Hour))))
		}
		require.NoError(t, s.SaveLookup(ctx, testReport(bblB, base)))

		list, err := s.ListLookups(ctx, LookupFilter{BBL: bblA.String()})
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.True(t, list[0].CreatedAt.After(list[1].CreatedAt))
		assert.True(t, list[1].CreatedAt.After(list[2].CreatedAt))
		for _, r := range list {
			assert.Equal(t, bblA.String(), r.BBL)
			assert.Equal(t, 85, r.Confidence)
		}

		all, err := s.ListLookups(ctx, LookupFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 4)
	})

	t.Run("ListLookupsPaging", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for i := range 5 {
			require.NoError(t, s.SaveLookup(ctx, testReport(bblA, base.Add(time.Duration(i)*time.Minute))))
		}

		page, err := s.ListLookups(ctx, LookupFilter{Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.True(t, base.Add(3*time.Minute).Equal(page[0].CreatedAt))
	})

	t.Run("ListLookupsEmpty", func(t *testing.T) {
		s := newStore(t)
		list, err := s.ListLookups(context.Background(), LookupFilter{BBL: bblB.String()})
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}

func TestRecordOf(t *testing.T) {
	report := testReport(model.BBL{Borough: model.Queens, Block: 1, Lot: 2}, time.Time{})
	report.ID = "abc"
	rec := recordOf(report)
	assert.Equal(t, "abc", rec.ID)
	assert.Equal(t, "4000010002", rec.BBL)
	assert.Equal(t, "JOHN SMITH", rec.BestGuessName)
	assert.Equal(t, 45, rec.Distress)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestLimitOf(t *testing.T) {
	assert.Equal(t, defaultListLimit, limitOf(LookupFilter{}))
	assert.Equal(t, 5, limitOf(LookupFilter{Limit: 5}))
}
