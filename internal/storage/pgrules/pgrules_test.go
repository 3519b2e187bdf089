package pgrules

import (
	"context"
	"testing"
	"time"

	"github.com/BearBump/DateBox/internal/models"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPGRules_RepoFlow(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "admin",
			"POSTGRES_PASSWORD": "admin",
			"POSTGRES_DB":       "datebox_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := "postgres://admin:admin@" + host + ":" + port.Port() + "/datebox_test?sslmode=disable"
	st, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(st.Close)

	// Пустая база: снапшот с дефолтным peak-окном и без правил.
	rs, err := st.LoadRuleSet(ctx)
	require.NoError(t, err)
	require.Empty(t, rs.Rules)
	require.Equal(t, models.DefaultPeakSeason(), rs.PeakSeason)

	err = st.ReplaceTransitRules(ctx, []models.TransitRule{
		{MinDistance: 0, MaxDistance: 500, TransitDays: 2},
		{MinDistance: 500, MaxDistance: 1500, TransitDays: 5},
	})
	require.NoError(t, err)

	err = st.UpsertHolidays(ctx, []models.Holiday{
		{Day: time.Date(2025, time.July, 4, 0, 0, 0, 0, time.UTC), Name: "Independence Day"},
	})
	require.NoError(t, err)

	err = st.SetPeakSeason(ctx, models.PeakSeasonWindow{
		StartMonth: time.June, StartDay: 1, EndMonth: time.August, EndDay: 31,
	})
	require.NoError(t, err)

	rs, err = st.LoadRuleSet(ctx)
	require.NoError(t, err)
	require.Len(t, rs.Rules, 2)
	require.Equal(t, 5, rs.Rules[1].TransitDays)
	require.Len(t, rs.Holidays, 1)
	require.Equal(t, time.June, rs.PeakSeason.StartMonth)

	// Шаблоны: upsert по (user, format), последний победил.
	require.NoError(t, st.SaveTemplate(ctx, "u1", models.CopyFormatSimple, "RDD {{rdd_date}}"))
	require.NoError(t, st.SaveTemplate(ctx, "u1", models.CopyFormatSimple, "RDD: {{rdd_date}}"))
	tpls, err := st.GetTemplates(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, tpls, 1)
	require.Equal(t, "RDD: {{rdd_date}}", tpls[0].Template)

	pickup := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)
	id, err := st.InsertCalculation(ctx, &models.Calculation{
		UserID:         "u1",
		Weight:         4000,
		Distance:       700,
		PickupDate:     pickup,
		TransitDays:    5,
		SeasonStatus:   models.SeasonStatusPeak,
		RDD:            pickup.AddDate(0, 0, 7),
		EarliestPickup: pickup,
		LatestPickup:   pickup,
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	calcs, err := st.ListCalculations(ctx, "u1", 10, 0)
	require.NoError(t, err)
	require.Len(t, calcs, 1)
	require.Equal(t, 5, calcs[0].TransitDays)

	require.NoError(t, st.AggregateUsage(ctx, time.Now().UTC()))
	rollups, err := st.ListUsageRollups(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rollups, 1)
	require.Equal(t, int64(1), rollups[0].CalcCount)
	require.Equal(t, int64(1), rollups[0].PeakCount)
	require.Equal(t, int64(1), rollups[0].DistinctUsers)
}
