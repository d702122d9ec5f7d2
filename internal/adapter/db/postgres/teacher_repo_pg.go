package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"student-registry/internal/domain/paging"
	"student-registry/internal/domain/teacher"
	pkgerrors "student-registry/pkg/errors"
)

// TeacherRepoPG is a paged CRUD accessor for teachers.
type TeacherRepoPG struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewTeacherRepoPG creates a new instance of TeacherRepoPG.
func NewTeacherRepoPG(db *gorm.DB, log *zap.Logger) *TeacherRepoPG {
	return &TeacherRepoPG{db: db, log: log}
}

// TeacherSchema represents the database schema for the teachers table.
type TeacherSchema struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	FirstName string `gorm:"not null;size:50"`
	LastName  string `gorm:"not null;size:50"`
	Email     string `gorm:"not null;size:320;uniqueIndex"`
	Subject   string `gorm:"size:100"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for the TeacherSchema model.
func (TeacherSchema) TableName() string {
	return "teachers"
}

func (m TeacherSchema) toDomain() teacher.Teacher {
	return teacher.Teacher{
		ID:        m.ID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Email:     m.Email,
		Subject:   m.Subject,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func notFoundTeacher(id int64) error {
	return pkgerrors.NewNotFoundError("teacher", fmt.Sprintf("teacher not found: id=%d", id))
}

// Create inserts a teacher and fills in its id and timestamps.
func (r *TeacherRepoPG) Create(ctx context.Context, t *teacher.Teacher) error {
	model := TeacherSchema{
		FirstName: t.FirstName,
		LastName:  t.LastName,
		Email:     strings.ToLower(t.Email),
		Subject:   t.Subject,
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return pkgerrors.NewAlreadyExistsError("teacher", "email already exists")
		}
		r.log.Error("failed to create teacher in db", zap.Error(err))
		return fmt.Errorf("failed to create teacher: %w", err)
	}

	*t = model.toDomain()
	r.log.Info("teacher created in db", zap.Int64("id", t.ID))
	return nil
}

// GetByID retrieves a teacher by id.
func (r *TeacherRepoPG) GetByID(ctx context.Context, id int64) (*teacher.Teacher, error) {
	var model TeacherSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundTeacher(id)
		}
		r.log.Error("failed to get teacher from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get teacher: %w", err)
	}

	t := model.toDomain()
	return &t, nil
}

// GetByEmail retrieves a teacher by email; (nil, nil) when absent.
func (r *TeacherRepoPG) GetByEmail(ctx context.Context, email string) (*teacher.Teacher, error) {
	var model TeacherSchema
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("failed to get teacher by email from db", zap.Error(err))
		return nil, fmt.Errorf("failed to get teacher by email: %w", err)
	}

	t := model.toDomain()
	return &t, nil
}

// Update overwrites all mutable columns of an existing teacher.
func (r *TeacherRepoPG) Update(ctx context.Context, t *teacher.Teacher) error {
	model := TeacherSchema{
		FirstName: t.FirstName,
		LastName:  t.LastName,
		Email:     strings.ToLower(t.Email),
		Subject:   t.Subject,
	}

	result := r.db.WithContext(ctx).Model(&TeacherSchema{ID: t.ID}).
		Select("FirstName", "LastName", "Email", "Subject").
		Updates(model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return pkgerrors.NewAlreadyExistsError("teacher", "email already exists")
		}
		r.log.Error("failed to update teacher in db", zap.Error(result.Error), zap.Int64("id", t.ID))
		return fmt.Errorf("failed to update teacher: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFoundTeacher(t.ID)
	}

	r.log.Info("teacher updated in db", zap.Int64("id", t.ID))
	return nil
}

// Delete removes a teacher by id.
func (r *TeacherRepoPG) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&TeacherSchema{}, id)
	if result.Error != nil {
		r.log.Error("failed to delete teacher in db", zap.Error(result.Error), zap.Int64("id", id))
		return fmt.Errorf("failed to delete teacher: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFoundTeacher(id)
	}

	r.log.Info("teacher deleted in db", zap.Int64("id", id))
	return nil
}

// List returns one page of teachers ordered by column and the total count.
// column must be one of teacher.SortableFields' values.
func (r *TeacherRepoPG) List(ctx context.Context, page, size int64, column string, desc bool) ([]teacher.Teacher, int64, error) {
	offset, ok := paging.Offset(page, size)
	if !ok {
		return nil, 0, pkgerrors.NewInvalidArgumentError("page", "page is out of range")
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&TeacherSchema{}).Count(&total).Error; err != nil {
		r.log.Error("failed to count teachers", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to count teachers: %w", err)
	}

	var models []TeacherSchema
	err := r.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc}).
		Order("id").
		Offset(int(offset)).
		Limit(int(size)).
		Find(&models).Error
	if err != nil {
		r.log.Error("failed to list teachers from db", zap.Error(err), zap.Int64("page", page))
		return nil, 0, fmt.Errorf("failed to list teachers: %w", err)
	}

	teachers := make([]teacher.Teacher, len(models))
	for i, m := range models {
		teachers[i] = m.toDomain()
	}
	return teachers, total, nil
}
