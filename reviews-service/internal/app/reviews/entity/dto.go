package entity

// ReviewPayload - поля отзыва, которые задаёт автор. Категории и is_public необязательны
type ReviewPayload struct {
	Rating          int    `json:"rating"`
	Comment         string `json:"comment"`
	Communication   *int   `json:"communication,omitempty"`
	QualityOfWork   *int   `json:"quality_of_work,omitempty"`
	ValueForMoney   *int   `json:"value_for_money,omitempty"`
	Expertise       *int   `json:"expertise,omitempty"`
	Professionalism *int   `json:"professionalism,omitempty"`
	IsPublic        *bool  `json:"is_public,omitempty"`
}

// CreateReviewRequest - диапазоны оценок и длина комментария проверяются в сервисе, в строгом порядке
type CreateReviewRequest struct {
	JobID       string `json:"job_id" validate:"required"`
	RecipientID string `json:"recipient_id" validate:"required"`
	ReviewPayload
}

// UpdateReviewRequest - все поля необязательны
type UpdateReviewRequest struct {
	Rating          *int    `json:"rating,omitempty"`
	Comment         *string `json:"comment,omitempty"`
	Communication   *int    `json:"communication,omitempty"`
	QualityOfWork   *int    `json:"quality_of_work,omitempty"`
	ValueForMoney   *int    `json:"value_for_money,omitempty"`
	Expertise       *int    `json:"expertise,omitempty"`
	Professionalism *int    `json:"professionalism,omitempty"`
	IsPublic        *bool   `json:"is_public,omitempty"`
}

type ReportReviewRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type ModerateReviewRequest struct {
	Action     string `json:"action" validate:"required"`
	AdminNotes string `json:"admin_notes" validate:"max=2000"`
}

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse - стандартный ответ об успехе
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ReviewListResponse struct {
	Reviews []Review `json:"reviews"`
	Total   int      `json:"total"`
}
