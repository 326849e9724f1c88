package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// SubjectRepository reads the subjects taught in a class.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs a SubjectRepository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// ListByClass returns class subjects with their assigned teacher, ordered by subject name.
func (r *SubjectRepository) ListByClass(ctx context.Context, classID string) ([]models.ClassSubject, error) {
	const query = `SELECT cs.subject_id, s.name AS subject_name, s.code AS subject_code, cs.teacher_id, t.full_name AS teacher_name
FROM class_subjects cs
JOIN subjects s ON s.id = cs.subject_id
LEFT JOIN teachers t ON t.id = cs.teacher_id
WHERE cs.class_id = $1
ORDER BY s.name ASC`
	subjects := make([]models.ClassSubject, 0)
	if err := r.db.SelectContext(ctx, &subjects, query, classID); err != nil {
		return nil, fmt.Errorf("list class subjects: %w", err)
	}
	return subjects, nil
}
