package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewType string

const (
	ReviewTypeClientToFreelancer ReviewType = "client-to-freelancer"
	ReviewTypeFreelancerToClient ReviewType = "freelancer-to-client"
)

const (
	RoleClient     = "client"
	RoleFreelancer = "freelancer"
	RoleAdmin      = "admin"
)

const JobStatusCompleted = "completed"

// CategoryRatings - пять обязательных оценок по категориям, каждая 1..5
type CategoryRatings struct {
	Communication   int `json:"communication" bson:"communication"`
	QualityOfWork   int `json:"quality_of_work" bson:"quality_of_work"`
	ValueForMoney   int `json:"value_for_money" bson:"value_for_money"`
	Expertise       int `json:"expertise" bson:"expertise"`
	Professionalism int `json:"professionalism" bson:"professionalism"`
}

type Review struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	JobID       string             `json:"job_id" bson:"job_id"`
	ReviewerID  string             `json:"reviewer_id" bson:"reviewer_id"`
	RecipientID string             `json:"recipient_id" bson:"recipient_id"`
	Rating      int                `json:"rating" bson:"rating"`
	Comment     string             `json:"comment" bson:"comment"`
	Type        ReviewType         `json:"type" bson:"type"` // вычисляется из роли автора
	Categories  CategoryRatings    `json:"categories" bson:"categories"`
	IsPublic    bool               `json:"is_public" bson:"is_public"`

	IsReported   bool       `json:"is_reported" bson:"is_reported"`
	ReportReason string     `json:"report_reason,omitempty" bson:"report_reason,omitempty"`
	ReportedBy   string     `json:"reported_by,omitempty" bson:"reported_by,omitempty"`
	ReportedAt   *time.Time `json:"reported_at,omitempty" bson:"reported_at,omitempty"`

	IsHidden         bool       `json:"is_hidden" bson:"is_hidden"`
	ModerationReason string     `json:"moderation_reason,omitempty" bson:"moderation_reason,omitempty"`
	AdminNotes       string     `json:"admin_notes,omitempty" bson:"admin_notes,omitempty"`
	ModeratedBy      string     `json:"moderated_by,omitempty" bson:"moderated_by,omitempty"`
	ModeratedAt      *time.Time `json:"moderated_at,omitempty" bson:"moderated_at,omitempty"`

	HelpfulVotes []string  `json:"helpful_votes" bson:"helpful_votes"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

func (r *Review) HelpfulCount() int {
	return len(r.HelpfulVotes)
}

// Visible - отзыв показывается в публичных списках
func (r *Review) Visible() bool {
	return r.IsPublic && !r.IsHidden
}

// Job - проекция документа из общей коллекции jobs, отзывы её только читают
type Job struct {
	ID                primitive.ObjectID `json:"id" bson:"_id"`
	Title             string             `json:"title" bson:"title"`
	Status            string             `json:"status" bson:"status"`
	ClientID          string             `json:"client_id" bson:"client_id"`
	HiredFreelancerID string             `json:"hired_freelancer_id" bson:"hired_freelancer_id"`
}

// User - проекция документа из общей коллекции users
type User struct {
	ID       primitive.ObjectID `json:"id" bson:"_id"`
	Email    string             `json:"email" bson:"email"`
	Name     string             `json:"name" bson:"name"`
	Role     string             `json:"role" bson:"role"`
	IsActive bool               `json:"is_active" bson:"is_active"`
}

// RatingAggregate - сырые суммы и корзины звёзд, результат $group по получателю
type RatingAggregate struct {
	Total              int64 `bson:"total"`
	RatingSum          int64 `bson:"rating_sum"`
	CommunicationSum   int64 `bson:"communication_sum"`
	QualityOfWorkSum   int64 `bson:"quality_of_work_sum"`
	ValueForMoneySum   int64 `bson:"value_for_money_sum"`
	ExpertiseSum       int64 `bson:"expertise_sum"`
	ProfessionalismSum int64 `bson:"professionalism_sum"`
	Stars1             int64 `bson:"stars_1"`
	Stars2             int64 `bson:"stars_2"`
	Stars3             int64 `bson:"stars_3"`
	Stars4             int64 `bson:"stars_4"`
	Stars5             int64 `bson:"stars_5"`
}

// Add учитывает отзыв так же, как это делает агрегация в MongoDB
func (a *RatingAggregate) Add(r Review) {
	a.Total++
	a.RatingSum += int64(r.Rating)
	a.CommunicationSum += int64(r.Categories.Communication)
	a.QualityOfWorkSum += int64(r.Categories.QualityOfWork)
	a.ValueForMoneySum += int64(r.Categories.ValueForMoney)
	a.ExpertiseSum += int64(r.Categories.Expertise)
	a.ProfessionalismSum += int64(r.Categories.Professionalism)

	switch r.Rating {
	case 1:
		a.Stars1++
	case 2:
		a.Stars2++
	case 3:
		a.Stars3++
	case 4:
		a.Stars4++
	case 5:
		a.Stars5++
	}
}

type CategoryAverages struct {
	Communication   float64 `json:"communication"`
	QualityOfWork   float64 `json:"quality_of_work"`
	ValueForMoney   float64 `json:"value_for_money"`
	Expertise       float64 `json:"expertise"`
	Professionalism float64 `json:"professionalism"`
}

// RatingStats - производная статистика, не хранится
type RatingStats struct {
	AverageRating    float64          `json:"average_rating"`
	TotalReviews     int64            `json:"total_reviews"`
	CategoryAverages CategoryAverages `json:"category_averages"`
	Distribution     map[int]int64    `json:"distribution"` // ключи 1..5 присутствуют всегда
}

// GlobalStatsAggregate - результат $group по всей коллекции
type GlobalStatsAggregate struct {
	Total              int64 `bson:"total"`
	RatingSum          int64 `bson:"rating_sum"`
	Reported           int64 `bson:"reported"`
	Hidden             int64 `bson:"hidden"`
	ClientToFreelancer int64 `bson:"client_to_freelancer"`
	FreelancerToClient int64 `bson:"freelancer_to_client"`
}

type GlobalStats struct {
	TotalReviews  int64                `json:"total_reviews"`
	AverageRating float64              `json:"average_rating"`
	ReportedCount int64                `json:"reported_count"`
	HiddenCount   int64                `json:"hidden_count"`
	CountByType   map[ReviewType]int64 `json:"count_by_type"`
	GeneratedAt   time.Time            `json:"generated_at"`
}

type ModerationAction string

const (
	ModerationDelete  ModerationAction = "delete"
	ModerationApprove ModerationAction = "approve" // жалоба отклонена, отзыв остаётся
	ModerationReject  ModerationAction = "reject"  // отзыв скрыт
)

func (a ModerationAction) Valid() bool {
	switch a {
	case ModerationDelete, ModerationApprove, ModerationReject:
		return true
	}
	return false
}

// ModerationResult - Review равен nil, если отзыв удалён
type ModerationResult struct {
	Action  ModerationAction `json:"action"`
	Review  *Review          `json:"review,omitempty"`
	Deleted bool             `json:"deleted"`
}

type HelpfulVoteResult struct {
	HelpfulCount int  `json:"helpful_count"`
	Voted        bool `json:"voted"`
}
