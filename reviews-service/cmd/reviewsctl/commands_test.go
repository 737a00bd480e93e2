package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gigboard/reviews-service/internal/app/reviews/entity"
	"gigboard/reviews-service/internal/app/reviews/repository/mocks"
	"gigboard/reviews-service/internal/app/reviews/service"
)

func useMockLedger(t *testing.T) *mocks.MockReviewRepository {
	t.Helper()

	reviewRepo := new(mocks.MockReviewRepository)
	svc := service.NewReviewService(reviewRepo, new(mocks.MockJobRepository), new(mocks.MockUserRepository), nil, new(mocks.MockNotifier))

	original := openLedger
	openLedger = func(ctx context.Context) (*ledger, error) {
		return &ledger{reviews: reviewRepo, service: svc, close: func() {}}, nil
	}
	t.Cleanup(func() { openLedger = original })

	return reviewRepo
}

func run(args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestIndexesCommand(t *testing.T) {
	repo := useMockLedger(t)
	repo.On("EnsureIndexes", mock.Anything).Return(nil)

	out, err := run("indexes")

	require.NoError(t, err)
	assert.Contains(t, out, "indexes are up to date")
	repo.AssertExpectations(t)
}

func TestIndexesCommand_Error(t *testing.T) {
	repo := useMockLedger(t)
	repo.On("EnsureIndexes", mock.Anything).Return(errors.New("not primary"))

	_, err := run("indexes")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not primary")
}

func TestStatsCommand(t *testing.T) {
	repo := useMockLedger(t)

	agg := &entity.RatingAggregate{}
	for _, rating := range []int{5, 5, 4, 3, 5} {
		agg.Add(entity.Review{Rating: rating})
	}
	repo.On("AggregateForRecipient", mock.Anything, "freelancer-1").Return(agg, nil)

	out, err := run("stats", "freelancer-1")
	require.NoError(t, err)

	var stats entity.RatingStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 4.4, stats.AverageRating)
	assert.Equal(t, int64(5), stats.TotalReviews)
}

func TestStatsCommand_RequiresUserID(t *testing.T) {
	useMockLedger(t)

	_, err := run("stats")
	assert.Error(t, err)
}

func TestReportedCommand_Empty(t *testing.T) {
	repo := useMockLedger(t)
	repo.On("ListReported", mock.Anything).Return([]entity.Review{}, nil)

	out, err := run("reported")

	require.NoError(t, err)
	assert.Contains(t, out, "no reported reviews")
}

func TestReportedCommand_PrintsReviews(t *testing.T) {
	repo := useMockLedger(t)
	repo.On("ListReported", mock.Anything).Return([]entity.Review{
		{Rating: 1, IsReported: true, ReportReason: "spam"},
	}, nil)

	out, err := run("reported")

	require.NoError(t, err)
	assert.Contains(t, out, `"spam"`)
}
