package students

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labledger/labledger-backend/internal/ledger"
	"github.com/labledger/labledger-backend/pkg/db"
	"github.com/labledger/labledger-backend/pkg/db/models"
	"github.com/labledger/labledger-backend/pkg/enums"
	pkgerrors "github.com/labledger/labledger-backend/pkg/errors"
	"github.com/labledger/labledger-backend/pkg/logger"
	"gorm.io/gorm"
)

// Service is the student directory the custody engine resolves borrowers
// against.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Register(ctx context.Context, input Input) (*models.Student, error)
	Get(ctx context.Context, studentID string) (*models.Student, error)
	Exists(ctx context.Context, studentID string) (bool, error)
	List(ctx context.Context) ([]models.Student, error)
	Update(ctx context.Context, oldID string, input Input) (*models.Student, error)
}

// Input carries registration and edit fields. Category defaults to college;
// level is optional but bounded by the category when present.
type Input struct {
	StudentID string  `json:"student_id" validate:"required,max=64"`
	Name      string  `json:"name" validate:"required,max=200"`
	Course    *string `json:"course,omitempty" validate:"omitempty,max=200"`
	YearLevel *int    `json:"year_level,omitempty"`
	Category  string  `json:"category,omitempty"`
}

type service struct {
	repo   Repository
	ledger ledger.Service
	tx     db.TxRunner
	bound  bool
	logg   *logger.Logger
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// NewService wires the student directory. The ledger is used to carry
// movement history across student id edits.
func NewService(repo Repository, ledgerSvc ledger.Service, tx db.TxRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "student repository required")
	}
	if ledgerSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger service required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &service{repo: repo, ledger: ledgerSvc, tx: tx, logg: logg}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx), ledger: s.ledger.WithTx(tx), tx: s.tx, bound: true, logg: s.logg}
}

func (s *service) Register(ctx context.Context, input Input) (*models.Student, error) {
	student, err := normalize(input)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, student); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "student already registered").
				WithDetails(map[string]any{"student_id": student.StudentID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create student")
	}

	ctx = s.logg.WithStudentID(ctx, student.StudentID)
	s.logg.Info(ctx, "students.registered")
	return student, nil
}

func (s *service) Get(ctx context.Context, studentID string) (*models.Student, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "student id is required")
	}
	student, err := s.repo.GetByID(ctx, studentID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "student not found").
				WithDetails(map[string]any{"student_id": studentID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load student")
	}
	return student, nil
}

func (s *service) Exists(ctx context.Context, studentID string) (bool, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return false, nil
	}
	ok, err := s.repo.Exists(ctx, studentID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check student")
	}
	return ok, nil
}

func (s *service) List(ctx context.Context) ([]models.Student, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list students")
	}
	if out == nil {
		out = []models.Student{}
	}
	return out, nil
}

// Update rewrites the student keyed by oldID. A changed id must be free and
// moves the student's movement history with it in the same transaction.
func (s *service) Update(ctx context.Context, oldID string, input Input) (*models.Student, error) {
	oldID = strings.TrimSpace(oldID)
	if oldID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "student id is required")
	}
	student, err := normalize(input)
	if err != nil {
		return nil, err
	}

	var renamed int64
	run := func(repo Repository, ledgerSvc ledger.Service) error {
		current, err := repo.GetByID(ctx, oldID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "student not found").
					WithDetails(map[string]any{"student_id": oldID})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load student")
		}
		student.CreatedAt = current.CreatedAt

		if student.StudentID != oldID {
			taken, err := repo.Exists(ctx, student.StudentID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check student")
			}
			if taken {
				return pkgerrors.New(pkgerrors.CodeConflict, "student id already in use").
					WithDetails(map[string]any{"student_id": student.StudentID})
			}
		}

		ok, err := repo.Replace(ctx, oldID, student)
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "student id already in use").
					WithDetails(map[string]any{"student_id": student.StudentID})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update student")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "student not found").
				WithDetails(map[string]any{"student_id": oldID})
		}

		renamed, err = ledgerSvc.RenameStudent(ctx, oldID, student.StudentID)
		return err
	}

	if s.bound {
		err = run(s.repo, s.ledger)
	} else {
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return run(s.repo.WithTx(tx), s.ledger.WithTx(tx))
		})
	}
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"student_id":    student.StudentID,
		"previous_id":   oldID,
		"records_moved": renamed,
	})
	s.logg.Info(ctx, "students.updated")
	return student, nil
}

func normalize(input Input) (*models.Student, error) {
	input.StudentID = strings.TrimSpace(input.StudentID)
	input.Name = strings.TrimSpace(input.Name)
	if input.Course != nil {
		course := strings.TrimSpace(*input.Course)
		if course == "" {
			input.Course = nil
		} else {
			input.Course = &course
		}
	}

	if err := validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	category, err := enums.ParseStudentCategory(input.Category)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"category": "must be college or ibed"})
	}
	if input.YearLevel != nil {
		if err := category.ValidateLevel(*input.YearLevel); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"year_level": err.Error()})
		}
	}

	return &models.Student{
		StudentID: input.StudentID,
		Name:      input.Name,
		Course:    input.Course,
		YearLevel: input.YearLevel,
		Category:  category,
	}, nil
}

func validationError(err error) *pkgerrors.Error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		for _, fe := range errs {
			switch fe.Tag() {
			case "required":
				details[fe.Field()] = "is required"
			case "max":
				details[fe.Field()] = fmt.Sprintf("must be at most %s characters", fe.Param())
			default:
				details[fe.Field()] = "is invalid"
			}
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}
