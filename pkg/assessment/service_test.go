package assessment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/synaptica-ai/riskengine/pkg/clinical"
	"github.com/synaptica-ai/riskengine/pkg/common/models"
	"github.com/synaptica-ai/riskengine/pkg/defaults"
	"github.com/synaptica-ai/riskengine/pkg/extraction"
	"github.com/synaptica-ai/riskengine/pkg/resolver"
	"github.com/synaptica-ai/riskengine/pkg/serving/predictor"
)

type fakeClassifier struct {
	prediction predictor.Prediction
	err        error
	samples    [][]float64
}

func (f *fakeClassifier) Classify(domain clinical.Domain, sample []float64) (predictor.Prediction, error) {
	f.samples = append(f.samples, append([]float64(nil), sample...))
	return f.prediction, f.err
}

type fakeHistory struct {
	mu       sync.Mutex
	recorded map[string][]models.AssessmentResult
	err      error
}

func (f *fakeHistory) Record(ctx context.Context, identifier string, result models.AssessmentResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.recorded == nil {
		f.recorded = map[string][]models.AssessmentResult{}
	}
	f.recorded[identifier] = append(f.recorded[identifier], result)
	return nil
}

func (f *fakeHistory) ListByIdentifier(ctx context.Context, identifier string, limit int) ([]models.AssessmentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AssessmentRecord
	for _, r := range f.recorded[identifier] {
		out = append(out, models.AssessmentRecord{
			ID:          r.AssessmentID,
			Domain:      r.Domain,
			Prediction:  r.Prediction,
			Probability: r.Probability,
			RiskLevel:   r.RiskLevel,
			CreatedAt:   r.CreatedAt,
		})
	}
	return out, nil
}

type publishedEvent struct {
	eventType string
	data      map[string]interface{}
}

type fakePublisher struct {
	events []publishedEvent
	err    error
}

func (f *fakePublisher) PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, publishedEvent{eventType: eventType, data: data})
	return nil
}

func newTestService(t *testing.T, classifier Classifier, history History, events EventPublisher) *Service {
	t.Helper()
	ex, err := extraction.New(extraction.DefaultPatterns())
	if err != nil {
		t.Fatalf("extractor: %v", err)
	}
	res, err := resolver.New(defaults.NewProvider(defaults.DefaultTable()), nil, resolver.DefaultRules()...)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	return NewService(ex, res, classifier, history, events)
}

func TestDiabetesAssessmentFromUserInput(t *testing.T) {
	classifier := &fakeClassifier{prediction: predictor.Prediction{Positive: true, Probability: 82.5}}
	svc := newTestService(t, classifier, nil, nil)

	result, err := svc.Assess(context.Background(), Request{
		Domain: clinical.Diabetes,
		User:   clinical.CandidateMap{"glucose": "180", "bmi": "34"},
	})
	if err != nil {
		t.Fatalf("assess: %v", err)
	}

	if d := result.InputDetails["Glucose"]; d.Value != 180 || d.Source != "User" {
		t.Fatalf("unexpected glucose detail %+v", d)
	}
	if d := result.InputDetails["BMI"]; d.Value != 34 || d.Source != "User" {
		t.Fatalf("unexpected BMI detail %+v", d)
	}
	if d := result.InputDetails["Pregnancies"]; d.Value != 3 || d.Source != "Estimated" {
		t.Fatalf("unexpected pregnancies detail %+v", d)
	}
	if result.RiskLevel != "High" || result.Prediction != "Diabetic" || result.RecommendedDepartment != "Endocrinology" {
		t.Fatalf("unexpected outcome %s / %s / %s", result.RiskLevel, result.Prediction, result.RecommendedDepartment)
	}
	want := "Patient shows High risk. Key concerns: Elevated Glucose (180.0 mg/dL), Obesity indicated (BMI 34.0)."
	if result.ClinicalSummary != want {
		t.Fatalf("unexpected summary %q", result.ClinicalSummary)
	}
	if result.InputData["Glucose"] != 180 || len(result.InputData) != 8 {
		t.Fatalf("unexpected input data %v", result.InputData)
	}
	if result.AssessmentID == "" || result.PatientName != nil || result.PatientSex != nil {
		t.Fatalf("unexpected metadata %+v", result)
	}
}

func TestHeartAssessmentWithoutInputsUsesDefaults(t *testing.T) {
	classifier := &fakeClassifier{prediction: predictor.Prediction{Positive: false, Probability: 12.4}}
	svc := newTestService(t, classifier, nil, nil)

	result, err := svc.Assess(context.Background(), Request{Domain: clinical.Heart})
	if err != nil {
		t.Fatalf("assess: %v", err)
	}

	want := []float64{55, 1, 0, 130, 240, 0, 1, 153, 0, 0.8, 1, 0, 2}
	got := classifier.samples[0]
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: expected %v, got %v", i, want[i], got[i])
		}
	}
	for name, d := range result.InputDetails {
		if d.Source != "Estimated" {
			t.Fatalf("%s: expected Estimated source, got %s", name, d.Source)
		}
	}
	if result.RiskLevel != "Low" || result.Prediction != "No Heart Disease" || result.RecommendedDepartment != "General" {
		t.Fatalf("unexpected outcome %+v", result)
	}
	if result.ClinicalSummary != "Patient shows Low risk profile based on provided parameters." {
		t.Fatalf("unexpected summary %q", result.ClinicalSummary)
	}
}

const heartReport = `City Cardiology Lab
Patient Name: Jane Roe
Age: 61
Sex: Female
Serum Cholesterol: 268
Resting Blood Pressure: 150
`

func TestHeartAssessmentFromReport(t *testing.T) {
	classifier := &fakeClassifier{prediction: predictor.Prediction{Positive: true, Probability: 64}}
	svc := newTestService(t, classifier, nil, nil)

	result, err := svc.Assess(context.Background(), Request{
		Domain:   clinical.Heart,
		Document: strings.NewReader(heartReport),
		User:     clinical.CandidateMap{"chol": "199", "thalach": "171"},
	})
	if err != nil {
		t.Fatalf("assess: %v", err)
	}

	want := []float64{61, 0, 0, 150, 268, 0, 1, 171, 0, 0.8, 1, 0, 2}
	for i, v := range classifier.samples[0] {
		if v != want[i] {
			t.Fatalf("position %d: expected %v, got %v", i, want[i], v)
		}
	}
	if d := result.InputDetails["chol"]; d.Source != "Report" {
		t.Fatalf("expected report cholesterol to win, got %+v", d)
	}
	if d := result.InputDetails["thalach"]; d.Source != "User" {
		t.Fatalf("expected user thalach, got %+v", d)
	}
	if result.PatientName == nil || *result.PatientName != "Jane Roe" {
		t.Fatalf("unexpected patient name %v", result.PatientName)
	}
	if result.PatientSex == nil || *result.PatientSex != 0 {
		t.Fatalf("unexpected patient sex %v", result.PatientSex)
	}
	if result.RiskLevel != "Moderate" || result.RecommendedDepartment != "Cardiology" {
		t.Fatalf("unexpected outcome %+v", result)
	}
	want2 := "Patient shows Moderate risk. Key concerns: High Cholesterol (268.0 mg/dL), Hypertension (150.0 mmHg)."
	if result.ClinicalSummary != want2 {
		t.Fatalf("unexpected summary %q", result.ClinicalSummary)
	}
}

func TestMaleDocumentKeepsReportedPregnancies(t *testing.T) {
	classifier := &fakeClassifier{prediction: predictor.Prediction{Probability: 20}}
	svc := newTestService(t, classifier, nil, nil)

	result, err := svc.Assess(context.Background(), Request{
		Domain:   clinical.Diabetes,
		Document: strings.NewReader("Sex: Male\nPregnancies: 2\n"),
	})
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	if d := result.InputDetails["Pregnancies"]; d.Value != 2 || d.Source != "Report" {
		t.Fatalf("expected report pregnancies, got %+v", d)
	}

	result, err = svc.Assess(context.Background(), Request{
		Domain: clinical.Diabetes,
		User:   clinical.CandidateMap{"gender": "male"},
	})
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	if d := result.InputDetails["Pregnancies"]; d.Value != 0 || d.Source != "Gender Default (Male)" {
		t.Fatalf("expected gender default pregnancies, got %+v", d)
	}
}

func TestUnreadableDocumentFallsBackToOtherSources(t *testing.T) {
	classifier := &fakeClassifier{prediction: predictor.Prediction{Probability: 50}}
	svc := newTestService(t, classifier, nil, nil)

	result, err := svc.Assess(context.Background(), Request{
		Domain:   clinical.Diabetes,
		Document: strings.NewReader("\xff\xfe\x00binary"),
		User:     clinical.CandidateMap{"Glucose": 99},
	})
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	if d := result.InputDetails["Glucose"]; d.Value != 99 || d.Source != "User" {
		t.Fatalf("unexpected glucose detail %+v", d)
	}
}

func TestAssessIsIdempotent(t *testing.T) {
	classifier := &fakeClassifier{prediction: predictor.Prediction{Probability: 40}}
	svc := newTestService(t, classifier, nil, nil)
	req := func() Request {
		return Request{
			Domain:   clinical.Heart,
			Document: strings.NewReader(heartReport),
			User:     clinical.CandidateMap{"cp": "2"},
		}
	}

	first, err := svc.Assess(context.Background(), req())
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	second, err := svc.Assess(context.Background(), req())
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	for name, d := range first.InputDetails {
		if second.InputDetails[name] != d {
			t.Fatalf("%s changed between runs: %+v vs %+v", name, d, second.InputDetails[name])
		}
	}
	if first.ClinicalSummary != second.ClinicalSummary || first.RiskLevel != second.RiskLevel {
		t.Fatal("summary or tier changed between runs")
	}
}

func TestAssessErrors(t *testing.T) {
	svc := newTestService(t, &fakeClassifier{}, nil, nil)
	if _, err := svc.Assess(context.Background(), Request{Domain: "kidney"}); !errors.Is(err, resolver.ErrUnknownDomain) {
		t.Fatalf("expected ErrUnknownDomain, got %v", err)
	}

	failing := newTestService(t, &fakeClassifier{err: errors.New("bad artifact")}, nil, nil)
	if _, err := failing.Assess(context.Background(), Request{Domain: clinical.Heart}); !errors.Is(err, predictor.ErrClassification) {
		t.Fatalf("expected ErrClassification, got %v", err)
	}
}

func TestAssessRecordsAndPublishes(t *testing.T) {
	history := &fakeHistory{}
	events := &fakePublisher{}
	svc := newTestService(t, &fakeClassifier{prediction: predictor.Prediction{Probability: 80}}, history, events)

	result, err := svc.Assess(context.Background(), Request{Domain: clinical.Heart, Identifier: "pat@example.com"})
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	if len(history.recorded["pat@example.com"]) != 1 {
		t.Fatalf("expected one recorded assessment, got %v", history.recorded)
	}
	if len(events.events) != 1 || events.events[0].eventType != models.EventAssessmentCompleted {
		t.Fatalf("expected completed event, got %+v", events.events)
	}
	if events.events[0].data["assessment_id"] != result.AssessmentID {
		t.Fatalf("event does not reference assessment %s", result.AssessmentID)
	}

	records, err := svc.History(context.Background(), "pat@example.com", 10)
	if err != nil || len(records) != 1 || records[0].RiskLevel != "High" {
		t.Fatalf("unexpected history %v %v", records, err)
	}
}

func TestSideEffectFailuresDoNotFailAssessment(t *testing.T) {
	history := &fakeHistory{err: errors.New("db down")}
	events := &fakePublisher{err: errors.New("broker down")}
	svc := newTestService(t, &fakeClassifier{prediction: predictor.Prediction{Probability: 10}}, history, events)

	if _, err := svc.Assess(context.Background(), Request{Domain: clinical.Diabetes, Identifier: "pat@example.com"}); err != nil {
		t.Fatalf("expected assessment to succeed, got %v", err)
	}
}

func TestHistoryDisabled(t *testing.T) {
	svc := newTestService(t, &fakeClassifier{}, nil, nil)
	if _, err := svc.History(context.Background(), "pat@example.com", 5); !errors.Is(err, ErrHistoryDisabled) {
		t.Fatalf("expected ErrHistoryDisabled, got %v", err)
	}
}
