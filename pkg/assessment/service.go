// Package assessment runs the risk pipeline end to end: document extraction,
// feature resolution, vector assembly, classification and summary.
package assessment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/synaptica-ai/riskengine/pkg/clinical"
	"github.com/synaptica-ai/riskengine/pkg/common/logger"
	"github.com/synaptica-ai/riskengine/pkg/common/models"
	"github.com/synaptica-ai/riskengine/pkg/extraction"
	"github.com/synaptica-ai/riskengine/pkg/observability/metrics"
	"github.com/synaptica-ai/riskengine/pkg/resolver"
	"github.com/synaptica-ai/riskengine/pkg/risk"
	"github.com/synaptica-ai/riskengine/pkg/serving/predictor"
	"github.com/synaptica-ai/riskengine/pkg/vector"
)

const eventSource = "assessment-service"

var ErrHistoryDisabled = errors.New("assessment history is disabled")

// Classifier evaluates an assembled vector for a domain.
type Classifier interface {
	Classify(domain clinical.Domain, sample []float64) (predictor.Prediction, error)
}

// History persists results and lists them per patient.
type History interface {
	Record(ctx context.Context, identifier string, result models.AssessmentResult) error
	ListByIdentifier(ctx context.Context, identifier string, limit int) ([]models.AssessmentRecord, error)
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

// Request is one assessment. Document is the report's text layer and may be
// nil; User holds the manually entered values.
type Request struct {
	Domain     clinical.Domain
	Identifier string
	Document   io.Reader
	User       clinical.CandidateMap

	// CorrelationID links the completed event to the request that caused it.
	CorrelationID string
}

type Service struct {
	extractor  *extraction.Extractor
	resolver   *resolver.Resolver
	classifier Classifier
	history    History
	events     EventPublisher
	now        func() time.Time
}

// NewService wires the pipeline. history and events may be nil.
func NewService(extractor *extraction.Extractor, res *resolver.Resolver, classifier Classifier, history History, events EventPublisher) *Service {
	return &Service{
		extractor:  extractor,
		resolver:   res,
		classifier: classifier,
		history:    history,
		events:     events,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Assess evaluates a request and announces the result. Persistence and
// publication are best effort here.
func (s *Service) Assess(ctx context.Context, req Request) (*models.AssessmentResult, error) {
	result, err := s.evaluate(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.publishCompleted(ctx, req, *result); err != nil {
		logger.Log.WithError(err).WithField("assessment_id", result.AssessmentID).Warn("Failed to publish assessment event")
	}
	return result, nil
}

// evaluate runs the pipeline and persists the result.
func (s *Service) evaluate(ctx context.Context, req Request) (*models.AssessmentResult, error) {
	cfg, err := clinical.ConfigFor(req.Domain)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", resolver.ErrUnknownDomain, req.Domain)
	}

	doc := extraction.Result{Values: clinical.CandidateMap{}}
	if req.Document != nil {
		doc = s.extractor.ExtractDocument(req.Document)
		if len(doc.Values) == 0 {
			metrics.ObserveEmptyExtraction()
		}
	}

	resolution, err := s.resolver.Resolve(ctx, resolver.Input{
		Domain:     cfg.Domain,
		Document:   doc.Values,
		User:       req.User,
		Identifier: req.Identifier,
	})
	if err != nil {
		return nil, err
	}

	sample, err := vector.Assemble(cfg, resolution.Features)
	if err != nil {
		return nil, fmt.Errorf("assemble %s vector: %w", cfg.Domain, err)
	}

	prediction, err := s.classifier.Classify(cfg.Domain, sample)
	if err != nil {
		metrics.ObserveClassificationFailure()
		logger.Log.WithError(err).WithField("domain", cfg.Domain).Error("Classification failed")
		if !errors.Is(err, predictor.ErrClassification) {
			err = fmt.Errorf("%w: %v", predictor.ErrClassification, err)
		}
		return nil, err
	}

	values := resolution.Values()
	tier := risk.TierFor(prediction.Probability)
	result := &models.AssessmentResult{
		AssessmentID:          uuid.New().String(),
		Domain:                string(cfg.Domain),
		Prediction:            cfg.Label(prediction.Positive),
		Probability:           prediction.Probability,
		RiskLevel:             string(tier),
		ClinicalSummary:       risk.Summary(cfg.Domain, values, tier),
		RecommendedDepartment: cfg.RecommendedDepartment(prediction.Positive),
		InputData:             values,
		InputDetails:          make(map[string]models.FeatureDetail, len(resolution.Features)),
		PatientSex:            doc.Sex,
		CreatedAt:             s.now(),
	}
	for _, f := range resolution.Features {
		result.InputDetails[f.Name] = models.FeatureDetail{Value: f.Value, Source: f.Source.String()}
	}
	if doc.Name != "" {
		name := doc.Name
		result.PatientName = &name
	}

	metrics.ObserveAssessment(result.Domain, result.RiskLevel)
	logger.Log.WithFields(logrus.Fields{
		"assessment_id": result.AssessmentID,
		"domain":        result.Domain,
		"risk_level":    result.RiskLevel,
		"report_fields": len(doc.Values),
	}).Info("Assessment completed")

	s.persist(ctx, req.Identifier, *result)
	return result, nil
}

func (s *Service) persist(ctx context.Context, identifier string, result models.AssessmentResult) {
	if s.history == nil || identifier == "" {
		return
	}
	if err := s.history.Record(ctx, identifier, result); err != nil {
		logger.Log.WithError(err).WithField("assessment_id", result.AssessmentID).Warn("Failed to persist assessment")
	}
}

// publishCompleted emits assessment.completed. It is a no-op without a
// publisher.
func (s *Service) publishCompleted(ctx context.Context, req Request, result models.AssessmentResult) error {
	if s.events == nil {
		return nil
	}
	payload := map[string]interface{}{
		"key":           req.Identifier,
		"assessment_id": result.AssessmentID,
		"identifier":    req.Identifier,
		"result":        result,
	}
	if req.CorrelationID != "" {
		payload["correlation_id"] = req.CorrelationID
	}
	return s.events.PublishEvent(ctx, models.EventAssessmentCompleted, eventSource, payload)
}

// Preview extracts a document without assessing it.
func (s *Service) Preview(r io.Reader) models.ExtractionPreview {
	doc := s.extractor.ExtractDocument(r)
	preview := models.ExtractionPreview{Values: map[string]interface{}(doc.Values), Sex: doc.Sex}
	if doc.Name != "" {
		name := doc.Name
		preview.Name = &name
	}
	return preview
}

// History lists past assessments for a patient, newest first.
func (s *Service) History(ctx context.Context, identifier string, limit int) ([]models.AssessmentRecord, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	records, err := s.history.ListByIdentifier(ctx, identifier, limit)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return records, nil
}
