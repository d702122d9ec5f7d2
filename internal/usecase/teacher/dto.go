package teacher

import (
	"time"

	"student-registry/internal/domain/paging"
	domain "student-registry/internal/domain/teacher"
)

// CreateTeacherRequest is the payload for POST /teachers.
type CreateTeacherRequest struct {
	ID        *int64 `json:"id,omitempty"`
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email,max=320"`
	Subject   string `json:"subject" validate:"omitempty,max=100"`
}

// ReplaceTeacherRequest is a full replacement of a teacher's fields.
type ReplaceTeacherRequest struct {
	ID        *int64 `json:"id,omitempty"`
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email,max=320"`
	Subject   string `json:"subject" validate:"omitempty,max=100"`
}

// PatchTeacherRequest changes only the fields that are present.
type PatchTeacherRequest struct {
	FirstName *string `json:"firstName" validate:"omitnil,min=1,max=50"`
	LastName  *string `json:"lastName" validate:"omitnil,min=1,max=50"`
	Email     *string `json:"email" validate:"omitnil,email,max=320"`
	Subject   *string `json:"subject" validate:"omitnil,max=100"`
}

// ListTeachersRequest selects a page of teachers. Sort has the form
// "field" or "field,dir".
type ListTeachersRequest struct {
	Page int64
	Size int64
	Sort string
}

// ListTeachersResponse is one page of teachers.
type ListTeachersResponse struct {
	Teachers   []Teacher
	Pagination *paging.Pagination
	Sort       string
}

// Teacher is the public view of a teacher.
type Teacher struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toDTO(t *domain.Teacher) *Teacher {
	return &Teacher{
		ID:        t.ID,
		FirstName: t.FirstName,
		LastName:  t.LastName,
		Email:     t.Email,
		Subject:   t.Subject,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
