package dto

import "course-marketplace/internal/model"

type SignupRequest struct {
	FirstName string `json:"firstName" validate:"required,min=3"`
	LastName  string `json:"lastName" validate:"required,min=3"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Message string `json:"message"`
	User    any    `json:"user"`
	Token   string `json:"token"`
}

// CourseForm is bound from multipart form fields; the image travels separately.
type CourseForm struct {
	Title       string `form:"title" validate:"required"`
	Description string `form:"description" validate:"required"`
	Price       string `form:"price" validate:"required"`
}

// CourseUpdateForm leaves unset fields untouched.
type CourseUpdateForm struct {
	Title       string `form:"title"`
	Description string `form:"description"`
	Price       string `form:"price"`
}

type BuyCourseResponse struct {
	Message      string        `json:"message"`
	Course       *model.Course `json:"course"`
	ClientSecret string        `json:"clientSecret"`
}

// OrderRequest is the payment receipt submitted by the client after paying.
type OrderRequest struct {
	Email     string `json:"email" validate:"omitempty,email"`
	UserID    string `json:"userId" validate:"required"`
	CourseID  string `json:"courseId" validate:"required"`
	PaymentID string `json:"paymentId" validate:"required"`
	Amount    int64  `json:"amount" validate:"required,gt=0"`
	Status    string `json:"status" validate:"required"`
}

func (r *OrderRequest) Receipt() *model.PaymentReceipt {
	return &model.PaymentReceipt{
		PaymentID: r.PaymentID,
		Amount:    r.Amount,
		Status:    r.Status,
		Email:     r.Email,
		LearnerID: r.UserID,
		CourseID:  r.CourseID,
	}
}

type OrderResponse struct {
	Message  string          `json:"message"`
	Purchase *model.Purchase `json:"purchase"`
}

type PurchasesResponse struct {
	Purchased  []*model.Purchase `json:"purchased"`
	CourseData []*model.Course   `json:"courseData"`
}
