package serving

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/synaptica-ai/riskengine/pkg/common/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultHistoryLimit = 50

// AssessmentLog is the persisted form of one assessment.
type AssessmentLog struct {
	ID           uuid.UUID         `gorm:"primaryKey;column:id"`
	Identifier   string            `gorm:"column:identifier;index"`
	Domain       string            `gorm:"column:domain"`
	Prediction   string            `gorm:"column:prediction"`
	Probability  float64           `gorm:"column:probability"`
	RiskLevel    string            `gorm:"column:risk_level"`
	Summary      string            `gorm:"column:clinical_summary"`
	InputDetails datatypes.JSONMap `gorm:"column:input_details"`
	CreatedAt    time.Time         `gorm:"column:created_at"`
}

// TableName overrides gorm naming.
func (AssessmentLog) TableName() string {
	return "assessment_logs"
}

// Repository stores assessment history.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&AssessmentLog{})
}

func (r *Repository) Record(ctx context.Context, identifier string, result models.AssessmentResult) error {
	log := newAssessmentLog(identifier, result)
	return r.db.WithContext(ctx).Create(&log).Error
}

// ListByIdentifier returns the newest assessments for a patient, up to limit.
func (r *Repository) ListByIdentifier(ctx context.Context, identifier string, limit int) ([]models.AssessmentRecord, error) {
	var logs []AssessmentLog
	err := r.db.WithContext(ctx).
		Where("identifier = ?", normalizeIdentifier(identifier)).
		Order("created_at DESC").
		Limit(historyLimit(limit)).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.AssessmentRecord, len(logs))
	for i, l := range logs {
		out[i] = l.record()
	}
	return out, nil
}

// newAssessmentLog keeps the result's id when it is a uuid and mints one
// otherwise.
func newAssessmentLog(identifier string, result models.AssessmentResult) AssessmentLog {
	id, err := uuid.Parse(result.AssessmentID)
	if err != nil {
		id = uuid.New()
	}
	details := make(map[string]interface{}, len(result.InputDetails))
	for name, d := range result.InputDetails {
		details[name] = map[string]interface{}{"value": d.Value, "source": d.Source}
	}
	return AssessmentLog{
		ID:           id,
		Identifier:   normalizeIdentifier(identifier),
		Domain:       result.Domain,
		Prediction:   result.Prediction,
		Probability:  result.Probability,
		RiskLevel:    result.RiskLevel,
		Summary:      result.ClinicalSummary,
		InputDetails: datatypes.JSONMap(details),
		CreatedAt:    result.CreatedAt,
	}
}

func (l AssessmentLog) record() models.AssessmentRecord {
	return models.AssessmentRecord{
		ID:          l.ID.String(),
		Domain:      l.Domain,
		Prediction:  l.Prediction,
		Probability: l.Probability,
		RiskLevel:   l.RiskLevel,
		CreatedAt:   l.CreatedAt,
	}
}

func historyLimit(limit int) int {
	if limit <= 0 {
		return defaultHistoryLimit
	}
	return limit
}

func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}
