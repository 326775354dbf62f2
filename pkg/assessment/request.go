package assessment

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/synaptica-ai/riskengine/pkg/clinical"
)

var ErrInvalidRequest = errors.New("invalid request")

type ValidationError struct {
	reason error
}

func (e ValidationError) Error() string {
	return e.reason.Error()
}

func (e ValidationError) Unwrap() error {
	return e.reason
}

func (e ValidationError) Is(target error) bool {
	return target == ErrInvalidRequest
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// PredictRequest is a decoded predict call. The same shape is carried by
// assessment.requested events, plus the domain.
type PredictRequest struct {
	Email        string                 `json:"email" validate:"omitempty,email"`
	DocumentText string                 `json:"document_text" validate:"max=4194304"`
	UserInput    map[string]interface{} `json:"user_input" validate:"max=64"`
}

func (p PredictRequest) toRequest(domain clinical.Domain) Request {
	req := Request{
		Domain:     domain,
		Identifier: strings.TrimSpace(p.Email),
		User:       clinical.CandidateMap(p.UserInput),
	}
	if strings.TrimSpace(p.DocumentText) != "" {
		req.Document = strings.NewReader(p.DocumentText)
	}
	return req
}

// bodyFields are the top-level keys of a predict body that are not feature
// values.
var bodyFields = map[string]bool{
	"domain":        true,
	"email":         true,
	"document_text": true,
	"user_input":    true,
}

// predictRequestFromBody reads a flat JSON object: every key outside
// bodyFields is user input. Entries of a nested user_input object are merged
// on top.
func predictRequestFromBody(body map[string]interface{}) (PredictRequest, error) {
	req := PredictRequest{UserInput: map[string]interface{}{}}

	var err error
	if req.Email, err = stringField(body, "email"); err != nil {
		return PredictRequest{}, err
	}
	if req.DocumentText, err = stringField(body, "document_text"); err != nil {
		return PredictRequest{}, err
	}

	for key, value := range body {
		if !bodyFields[key] {
			req.UserInput[key] = value
		}
	}
	if nested, ok := body["user_input"]; ok && nested != nil {
		fields, ok := nested.(map[string]interface{})
		if !ok {
			return PredictRequest{}, ValidationError{reason: errors.New("user_input must be an object")}
		}
		for key, value := range fields {
			req.UserInput[key] = value
		}
	}

	if err := validateStruct(req); err != nil {
		return PredictRequest{}, err
	}
	return req, nil
}

func stringField(body map[string]interface{}, key string) (string, error) {
	value, ok := body[key]
	if !ok || value == nil {
		return "", nil
	}
	s, ok := value.(string)
	if !ok {
		return "", ValidationError{reason: fmt.Errorf("%s must be a string", key)}
	}
	return s, nil
}

type ExtractRequest struct {
	DocumentText string `json:"document_text" validate:"required,max=4194304"`
}

type HistoryQuery struct {
	Email string `json:"email" validate:"required,email"`
	Limit int    `json:"limit" validate:"gte=0,lte=500"`
}

// RequestedEvent is the data of an assessment.requested event.
type RequestedEvent struct {
	Domain string `json:"domain" validate:"required"`
	PredictRequest
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs tag validation and folds failures into a ValidationError.
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationError{reason: err}
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, describe(fe))
	}
	return ValidationError{reason: fmt.Errorf("%s", strings.Join(parts, "; "))}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid e-mail address", fe.Field())
	case "max", "lte":
		return fmt.Sprintf("%s exceeds %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}
