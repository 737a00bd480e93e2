package repository

import (
	"context"
	"testing"
	"time"

	"gigboard/notification-worker-service/internal/app/notification-worker/entity"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type DedupStoreTestSuite struct {
	suite.Suite
	miniRedis *miniredis.Miniredis
	client    *redis.Client
	store     DedupStore
}

func TestDedupStoreSuite(t *testing.T) {
	suite.Run(t, new(DedupStoreTestSuite))
}

func (s *DedupStoreTestSuite) SetupSuite() {
	var err error
	s.miniRedis, err = miniredis.Run()
	require.NoError(s.T(), err)

	s.client = redis.NewClient(&redis.Options{
		Addr: s.miniRedis.Addr(),
	})

	s.store = NewRedisDedupStore(s.client, time.Hour)
}

func (s *DedupStoreTestSuite) SetupTest() {
	s.miniRedis.FlushAll()
}

func (s *DedupStoreTestSuite) TearDownSuite() {
	s.client.Close()
	s.miniRedis.Close()
}

func (s *DedupStoreTestSuite) TestAcquire_FirstTimeOnly() {
	ctx := context.Background()

	acquired, err := s.store.Acquire(ctx, "evt-1", "user-1")
	s.NoError(err)
	s.True(acquired)

	acquired, err = s.store.Acquire(ctx, "evt-1", "user-1")
	s.NoError(err)
	s.False(acquired)

	// другой получатель того же события - отдельный ключ
	acquired, err = s.store.Acquire(ctx, "evt-1", "user-2")
	s.NoError(err)
	s.True(acquired)
}

func (s *DedupStoreTestSuite) TestAcquire_SetsTTL() {
	_, err := s.store.Acquire(context.Background(), "evt-1", "user-1")
	s.Require().NoError(err)

	key := entity.GetDedupeKey("evt-1", "user-1")
	s.Equal("notification:event:evt-1:user-1", key)
	s.Equal(time.Hour, s.miniRedis.TTL(key))

	s.miniRedis.FastForward(time.Hour + time.Second)
	s.False(s.miniRedis.Exists(key))
}

func (s *DedupStoreTestSuite) TestRelease_AllowsReacquire() {
	ctx := context.Background()

	_, err := s.store.Acquire(ctx, "evt-1", "user-1")
	s.Require().NoError(err)
	s.NoError(s.store.Release(ctx, "evt-1", "user-1"))

	acquired, err := s.store.Acquire(ctx, "evt-1", "user-1")
	s.NoError(err)
	s.True(acquired)
}

func (s *DedupStoreTestSuite) TestErrorsWhenRedisDown() {
	s.miniRedis.SetError("LOADING")
	defer s.miniRedis.SetError("")

	_, err := s.store.Acquire(context.Background(), "evt-1", "user-1")
	s.Error(err)
	s.Error(s.store.Ping(context.Background()))
}
