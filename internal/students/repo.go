package students

import (
	"context"
	"time"

	"github.com/labledger/labledger-backend/pkg/db"
	"github.com/labledger/labledger-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository manages persistence for registered students.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetByID(ctx context.Context, studentID string) (*models.Student, error)
	Exists(ctx context.Context, studentID string) (bool, error)
	List(ctx context.Context) ([]models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Replace(ctx context.Context, oldID string, student *models.Student) (bool, error)
}

type repository struct {
	db   *gorm.DB
	inTx bool
}

// NewRepository returns a student repository bound to the provided database.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx, inTx: true}
}

func (r *repository) GetByID(ctx context.Context, studentID string) (*models.Student, error) {
	q := r.db.WithContext(ctx)
	if r.inTx && db.ForUpdate(r.db) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var student models.Student
	if err := q.Where("student_id = ?", studentID).First(&student).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *repository) Exists(ctx context.Context, studentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("student_id = ?", studentID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) List(ctx context.Context) ([]models.Student, error) {
	var out []models.Student
	if err := r.db.WithContext(ctx).Order("name ASC").Order("student_id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

// Replace overwrites the row keyed by oldID, including its key.
func (r *repository) Replace(ctx context.Context, oldID string, student *models.Student) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("student_id = ?", oldID).
		Updates(map[string]any{
			"student_id": student.StudentID,
			"name":       student.Name,
			"course":     student.Course,
			"year_level": student.YearLevel,
			"category":   student.Category,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
