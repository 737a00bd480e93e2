package service

import (
	"time"

	"gigboard/reviews-service/internal/app/reviews/entity"
)

// BuildRatingStats превращает сырые суммы в средние с округлением до десятых (половина вверх).
// Нулевой агрегат даёт нулевую статистику с пустыми корзинами 1..5
func BuildRatingStats(agg *entity.RatingAggregate) *entity.RatingStats {
	if agg == nil {
		agg = &entity.RatingAggregate{}
	}

	return &entity.RatingStats{
		AverageRating: roundTenth(agg.RatingSum, agg.Total),
		TotalReviews:  agg.Total,
		CategoryAverages: entity.CategoryAverages{
			Communication:   roundTenth(agg.CommunicationSum, agg.Total),
			QualityOfWork:   roundTenth(agg.QualityOfWorkSum, agg.Total),
			ValueForMoney:   roundTenth(agg.ValueForMoneySum, agg.Total),
			Expertise:       roundTenth(agg.ExpertiseSum, agg.Total),
			Professionalism: roundTenth(agg.ProfessionalismSum, agg.Total),
		},
		Distribution: map[int]int64{
			1: agg.Stars1,
			2: agg.Stars2,
			3: agg.Stars3,
			4: agg.Stars4,
			5: agg.Stars5,
		},
	}
}

func BuildGlobalStats(agg *entity.GlobalStatsAggregate, now time.Time) *entity.GlobalStats {
	if agg == nil {
		agg = &entity.GlobalStatsAggregate{}
	}

	return &entity.GlobalStats{
		TotalReviews:  agg.Total,
		AverageRating: roundTenth(agg.RatingSum, agg.Total),
		ReportedCount: agg.Reported,
		HiddenCount:   agg.Hidden,
		CountByType: map[entity.ReviewType]int64{
			entity.ReviewTypeClientToFreelancer: agg.ClientToFreelancer,
			entity.ReviewTypeFreelancerToClient: agg.FreelancerToClient,
		},
		GeneratedAt: now,
	}
}

// roundTenth считает sum/count с точностью до десятых в целых числах,
// чтобы 4.45 не превратилось в 4.4 из-за двоичного представления
func roundTenth(sum, count int64) float64 {
	if count <= 0 {
		return 0
	}
	// floor(sum/count*10 + 0.5) = floor((20*sum + count) / (2*count))
	tenths := (20*sum + count) / (2 * count)
	return float64(tenths) / 10
}
