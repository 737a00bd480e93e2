package repository

import (
	"context"
	"testing"
	"time"

	"gigboard/reviews-service/internal/app/reviews/entity"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type StatsCacheTestSuite struct {
	suite.Suite
	miniRedis *miniredis.Miniredis
	client    *redis.Client
	cache     StatsCache
}

func TestStatsCacheSuite(t *testing.T) {
	suite.Run(t, new(StatsCacheTestSuite))
}

func (s *StatsCacheTestSuite) SetupSuite() {
	var err error
	s.miniRedis, err = miniredis.Run()
	require.NoError(s.T(), err)

	s.client = redis.NewClient(&redis.Options{
		Addr: s.miniRedis.Addr(),
	})

	s.cache = NewRedisStatsCache(s.client, time.Minute)
}

func (s *StatsCacheTestSuite) SetupTest() {
	s.miniRedis.FlushAll()
}

func (s *StatsCacheTestSuite) TearDownSuite() {
	s.client.Close()
	s.miniRedis.Close()
}

func (s *StatsCacheTestSuite) TestGet_Miss() {
	stats, err := s.cache.GetGlobalStats(context.Background())

	s.NoError(err)
	s.Nil(stats)
}

func (s *StatsCacheTestSuite) TestSetThenGet() {
	ctx := context.Background()
	stored := &entity.GlobalStats{
		TotalReviews:  5,
		AverageRating: 4.4,
		ReportedCount: 1,
		CountByType: map[entity.ReviewType]int64{
			entity.ReviewTypeClientToFreelancer: 3,
			entity.ReviewTypeFreelancerToClient: 2,
		},
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	s.Require().NoError(s.cache.SetGlobalStats(ctx, stored))

	got, err := s.cache.GetGlobalStats(ctx)
	s.NoError(err)
	s.Require().NotNil(got)
	s.Equal(int64(5), got.TotalReviews)
	s.Equal(4.4, got.AverageRating)
	s.Equal(int64(3), got.CountByType[entity.ReviewTypeClientToFreelancer])
	s.True(stored.GeneratedAt.Equal(got.GeneratedAt))
}

func (s *StatsCacheTestSuite) TestSet_AppliesTTL() {
	ctx := context.Background()
	s.Require().NoError(s.cache.SetGlobalStats(ctx, &entity.GlobalStats{TotalReviews: 1}))

	s.Equal(time.Minute, s.miniRedis.TTL(globalStatsKey))

	s.miniRedis.FastForward(2 * time.Minute)

	got, err := s.cache.GetGlobalStats(ctx)
	s.NoError(err)
	s.Nil(got)
}

func (s *StatsCacheTestSuite) TestInvalidate() {
	ctx := context.Background()
	s.Require().NoError(s.cache.SetGlobalStats(ctx, &entity.GlobalStats{TotalReviews: 1}))

	s.NoError(s.cache.Invalidate(ctx))
	s.False(s.miniRedis.Exists(globalStatsKey))
}

func (s *StatsCacheTestSuite) TestGet_CorruptedPayload() {
	s.Require().NoError(s.miniRedis.Set(globalStatsKey, "{not json"))

	stats, err := s.cache.GetGlobalStats(context.Background())
	s.Error(err)
	s.Nil(stats)
}
