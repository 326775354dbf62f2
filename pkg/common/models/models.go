package models

import (
	"time"
)

// Event Bus models
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // assessment.requested, assessment.completed, assessment.failed
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

const (
	EventAssessmentRequested = "assessment.requested"
	EventAssessmentCompleted = "assessment.completed"
	EventAssessmentFailed    = "assessment.failed"
)

// FeatureDetail is the provenance record for one canonical feature.
type FeatureDetail struct {
	Value  float64 `json:"value"`
	Source string  `json:"source"`
}

// AssessmentResult is the caller-facing contract consumed by report rendering
// and the UI. Field names are part of that contract.
type AssessmentResult struct {
	AssessmentID          string                   `json:"assessment_id"`
	Domain                string                   `json:"domain"`
	Prediction            string                   `json:"prediction"`
	Probability           float64                  `json:"probability"`
	RiskLevel             string                   `json:"risk_level"`
	ClinicalSummary       string                   `json:"clinical_summary"`
	RecommendedDepartment string                   `json:"recommended_department"`
	InputData             map[string]float64       `json:"input_data"`
	InputDetails          map[string]FeatureDetail `json:"input_details"`
	PatientName           *string                  `json:"patient_name"`
	PatientSex            *int                     `json:"patient_sex"`
	CreatedAt             time.Time                `json:"created_at"`
}

// AssessmentRecord is a history entry returned to the UI.
type AssessmentRecord struct {
	ID          string    `json:"id"`
	Domain      string    `json:"disease_type"`
	Prediction  string    `json:"prediction"`
	Probability float64   `json:"probability"`
	RiskLevel   string    `json:"risk_level"`
	CreatedAt   time.Time `json:"date"`
}

// ExtractionPreview is what the extract endpoint returns for a document.
type ExtractionPreview struct {
	Values map[string]interface{} `json:"values"`
	Name   *string                `json:"name"`
	Sex    *int                   `json:"sex"`
}
