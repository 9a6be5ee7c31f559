package intake

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/pregnancy-risk/platform/pkg/features"
)

// CaseModel is a submitted intake form as received, before normalization.
type CaseModel struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	Variant   string            `gorm:"column:variant;index" json:"variant"`
	PatientID string            `gorm:"column:patient_id" json:"patientId,omitempty"`
	Payload   datatypes.JSONMap `gorm:"column:payload" json:"payload"`
	CreatedAt time.Time         `gorm:"column:created_at" json:"createdAt"`
}

func (CaseModel) TableName() string {
	return "intake_cases"
}

const (
	DefaultRecent = 50
	MaxRecent     = 500
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&CaseModel{})
}

// Archive stores a copy of the submitted form.
func (r *Repository) Archive(ctx context.Context, variant string, input features.RawInput) (*CaseModel, error) {
	payload := make(datatypes.JSONMap, len(input))
	for k, v := range input {
		payload[k] = v
	}
	rec := &CaseModel{
		ID:        uuid.New(),
		Variant:   variant,
		PatientID: patientID(input),
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// Recent returns the newest archived forms, optionally for one variant.
func (r *Repository) Recent(ctx context.Context, variant string, limit int) ([]CaseModel, error) {
	var cases []CaseModel
	err := r.recentQuery(r.db.WithContext(ctx), variant, limit).Find(&cases).Error
	return cases, err
}

func (r *Repository) recentQuery(tx *gorm.DB, variant string, limit int) *gorm.DB {
	if limit <= 0 {
		limit = DefaultRecent
	}
	if limit > MaxRecent {
		limit = MaxRecent
	}
	if variant != "" {
		tx = tx.Where("variant = ?", variant)
	}
	return tx.Order("created_at DESC").Limit(limit)
}

func patientID(input features.RawInput) string {
	v, ok := lookup(input, "PatientID")
	if !ok || v == nil {
		return ""
	}
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return fmt.Sprintf("%.0f", id)
	default:
		return fmt.Sprint(id)
	}
}
