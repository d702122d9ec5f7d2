package teacher

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"student-registry/internal/domain/paging"
	domain "student-registry/internal/domain/teacher"
	pkgerrors "student-registry/pkg/errors"
	"student-registry/pkg/logger"
	"student-registry/pkg/validation"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	MsgTeacherNotFound = "Teacher with that id doesn't exist."
	MsgIDOnCreate      = "A teacher with existing id cannot be created."
	MsgIDMismatch      = "Id doesn't match."
	MsgEmailTaken      = "A teacher with this email already exists."
)

// Repository is the teacher storage used by Usecase.
type Repository interface {
	Create(ctx context.Context, t *domain.Teacher) error
	GetByID(ctx context.Context, id int64) (*domain.Teacher, error)
	GetByEmail(ctx context.Context, email string) (*domain.Teacher, error)
	Update(ctx context.Context, t *domain.Teacher) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, page, size int64, column string, desc bool) ([]domain.Teacher, int64, error)
}

// TeacherUsecase is the paged CRUD service behind /teachers.
type TeacherUsecase interface {
	List(ctx context.Context, in ListTeachersRequest) (*ListTeachersResponse, error)
	Get(ctx context.Context, id int64) (*Teacher, error)
	Create(ctx context.Context, in CreateTeacherRequest) (*Teacher, error)
	Replace(ctx context.Context, id int64, in ReplaceTeacherRequest) (*Teacher, error)
	Patch(ctx context.Context, id int64, in PatchTeacherRequest) (*Teacher, error)
	Delete(ctx context.Context, id int64) error
}

// Usecase implements TeacherUsecase.
type Usecase struct {
	repo     Repository
	log      *zap.Logger
	validate *validator.Validate
}

// New creates a new instance of Usecase.
func New(r Repository, log *zap.Logger) *Usecase {
	return &Usecase{repo: r, log: log, validate: validation.New()}
}

func notFound() error {
	return pkgerrors.NewNotFoundError("teacher", MsgTeacherNotFound)
}

func (uc *Usecase) check(ctx context.Context, in any) error {
	if err := uc.validate.Struct(in); err != nil {
		err = validation.ToError(err)
		logger.WithContext(ctx, uc.log).Warn("validate failed", zap.Error(err))
		return err
	}
	return nil
}

func (uc *Usecase) load(ctx context.Context, id int64) (*domain.Teacher, error) {
	if id <= 0 {
		return nil, notFound()
	}
	t, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, notFound()
		}
		return nil, err
	}
	return t, nil
}

func (uc *Usecase) ensureEmailFree(ctx context.Context, email string, self int64) error {
	existing, err := uc.repo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to validate email uniqueness: %w", err)
	}
	if existing != nil && existing.ID != self {
		return pkgerrors.NewAlreadyExistsError("teacher", MsgEmailTaken)
	}
	return nil
}

// parseSort turns "field,dir" into a storage column and direction.
func parseSort(sort string) (column string, desc bool, canonical string, err error) {
	field, dir, _ := strings.Cut(strings.TrimSpace(sort), ",")
	field = strings.TrimSpace(field)
	if field == "" {
		field = "id"
	}

	column, ok := domain.SortableFields[field]
	if !ok {
		return "", false, "", pkgerrors.NewInvalidArgumentError("sort", fmt.Sprintf("cannot sort by %q", field))
	}

	switch strings.ToUpper(strings.TrimSpace(dir)) {
	case "", string(paging.Ascending):
		return column, false, field + "," + string(paging.Ascending), nil
	case string(paging.Descending):
		return column, true, field + "," + string(paging.Descending), nil
	default:
		return "", false, "", pkgerrors.NewInvalidArgumentError("sort", "sort direction must be ASC or DESC")
	}
}

// List returns one page of teachers.
func (uc *Usecase) List(ctx context.Context, in ListTeachersRequest) (*ListTeachersResponse, error) {
	if in.Page < 0 {
		return nil, pkgerrors.NewInvalidArgumentError("page", "page must not be negative")
	}
	switch {
	case in.Size < 0:
		return nil, pkgerrors.NewInvalidArgumentError("size", "size must not be negative")
	case in.Size == 0:
		in.Size = DefaultPageSize
	case in.Size > MaxPageSize:
		in.Size = MaxPageSize
	}
	if _, ok := paging.Offset(in.Page, in.Size); !ok {
		return nil, pkgerrors.NewInvalidArgumentError("page", "page is out of range")
	}

	column, desc, canonical, err := parseSort(in.Sort)
	if err != nil {
		return nil, err
	}

	teachers, total, err := uc.repo.List(ctx, in.Page, in.Size, column, desc)
	if err != nil {
		logger.WithContext(ctx, uc.log).Error("failed to list teachers", zap.Error(err))
		return nil, err
	}

	out := make([]Teacher, len(teachers))
	for i := range teachers {
		out[i] = *toDTO(&teachers[i])
	}
	return &ListTeachersResponse{
		Teachers:   out,
		Pagination: paging.New(total, in.Page, in.Size),
		Sort:       canonical,
	}, nil
}

// Get returns a single teacher.
func (uc *Usecase) Get(ctx context.Context, id int64) (*Teacher, error) {
	t, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDTO(t), nil
}

// Create stores a new teacher. Ids are assigned by storage.
func (uc *Usecase) Create(ctx context.Context, in CreateTeacherRequest) (*Teacher, error) {
	if in.ID != nil {
		return nil, pkgerrors.NewInvalidArgumentError("id", MsgIDOnCreate)
	}
	if err := uc.check(ctx, in); err != nil {
		return nil, err
	}
	if err := uc.ensureEmailFree(ctx, in.Email, 0); err != nil {
		return nil, err
	}

	t := &domain.Teacher{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Subject:   in.Subject,
	}
	if err := uc.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	logger.WithContext(ctx, uc.log).Info("teacher created", zap.Int64("id", t.ID))
	return toDTO(t), nil
}

// Replace overwrites every field of an existing teacher.
func (uc *Usecase) Replace(ctx context.Context, id int64, in ReplaceTeacherRequest) (*Teacher, error) {
	if err := uc.check(ctx, in); err != nil {
		return nil, err
	}
	if in.ID != nil && *in.ID != id {
		return nil, pkgerrors.NewConflictError(MsgIDMismatch)
	}

	t, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}

	t.FirstName = in.FirstName
	t.LastName = in.LastName
	t.Email = in.Email
	t.Subject = in.Subject
	return uc.save(ctx, t)
}

// Patch changes the fields present in the request.
func (uc *Usecase) Patch(ctx context.Context, id int64, in PatchTeacherRequest) (*Teacher, error) {
	if err := uc.check(ctx, in); err != nil {
		return nil, err
	}

	t, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		t.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		t.LastName = *in.LastName
	}
	if in.Email != nil {
		t.Email = *in.Email
	}
	if in.Subject != nil {
		t.Subject = *in.Subject
	}
	return uc.save(ctx, t)
}

func (uc *Usecase) save(ctx context.Context, t *domain.Teacher) (*Teacher, error) {
	if err := uc.ensureEmailFree(ctx, t.Email, t.ID); err != nil {
		return nil, err
	}
	if err := uc.repo.Update(ctx, t); err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, notFound()
		}
		return nil, err
	}

	updated, err := uc.load(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	logger.WithContext(ctx, uc.log).Info("teacher updated", zap.Int64("id", t.ID))
	return toDTO(updated), nil
}

// Delete removes a teacher.
func (uc *Usecase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return notFound()
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		if pkgerrors.IsNotFound(err) {
			return notFound()
		}
		return err
	}
	logger.WithContext(ctx, uc.log).Info("teacher deleted", zap.Int64("id", id))
	return nil
}
