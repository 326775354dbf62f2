package assessment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/synaptica-ai/riskengine/pkg/clinical"
	"github.com/synaptica-ai/riskengine/pkg/common/logger"
	"github.com/synaptica-ai/riskengine/pkg/common/models"
	"github.com/synaptica-ai/riskengine/pkg/resolver"
)

// HandleEvent processes one assessment.requested event. Every request is
// answered with assessment.completed or assessment.failed. Only a failure to
// publish the answer is returned, so the message is redelivered.
func (s *Service) HandleEvent(ctx context.Context, event models.Event) error {
	if event.Type != models.EventAssessmentRequested {
		logger.Log.WithField("event_type", event.Type).Debug("Ignoring event")
		return nil
	}

	req, err := decodeRequestedEvent(event)
	if err != nil {
		return s.fail(ctx, event, "", err)
	}

	domain, ok := clinical.ParseDomain(req.Domain)
	if !ok {
		return s.fail(ctx, event, req.Email, fmt.Errorf("%w: %q", resolver.ErrUnknownDomain, req.Domain))
	}

	assessReq := req.toRequest(domain)
	assessReq.CorrelationID = event.ID
	result, err := s.evaluate(ctx, assessReq)
	if err != nil {
		return s.fail(ctx, event, req.Email, err)
	}
	if err := s.publishCompleted(ctx, assessReq, *result); err != nil {
		return fmt.Errorf("publish completion of %s: %w", event.ID, err)
	}
	return nil
}

func decodeRequestedEvent(event models.Event) (RequestedEvent, error) {
	var req RequestedEvent
	encoded, err := json.Marshal(event.Data)
	if err != nil {
		return req, ValidationError{reason: fmt.Errorf("encode event data: %w", err)}
	}
	var raw map[string]interface{}
	decoder := json.NewDecoder(bytes.NewReader(encoded))
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return req, ValidationError{reason: fmt.Errorf("decode event data: %w", err)}
	}
	if req.Domain, err = stringField(raw, "domain"); err != nil {
		return req, err
	}
	if req.PredictRequest, err = predictRequestFromBody(raw); err != nil {
		return req, err
	}
	if err := validateStruct(req); err != nil {
		return req, err
	}
	return req, nil
}

func (s *Service) fail(ctx context.Context, event models.Event, identifier string, cause error) error {
	logger.Log.WithError(cause).WithField("event_id", event.ID).Warn("Assessment request rejected")
	if s.events == nil {
		return nil
	}
	return s.events.PublishEvent(ctx, models.EventAssessmentFailed, eventSource, map[string]interface{}{
		"key":            identifier,
		"correlation_id": event.ID,
		"identifier":     identifier,
		"error":          cause.Error(),
	})
}
