package assessment

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/synaptica-ai/riskengine/pkg/common/models"
	"github.com/synaptica-ai/riskengine/pkg/serving/predictor"
)

func newTestRouter(t *testing.T, svc *Service) *mux.Router {
	t.Helper()
	router := mux.NewRouter()
	NewHTTPHandler(svc).Register(router.PathPrefix("/api/v1").Subrouter())
	return router
}

func TestPredictJSON(t *testing.T) {
	classifier := &fakeClassifier{prediction: predictor.Prediction{Positive: true, Probability: 91.3}}
	router := newTestRouter(t, newTestService(t, classifier, nil, nil))

	body := `{"email":"pat@example.com","user_input":{"Glucose":180,"BMI":"34","gender":"female"}}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/predict/Diabetes", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result models.AssessmentResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Domain != "diabetes" || result.RiskLevel != "High" || result.Probability != 91.3 {
		t.Fatalf("unexpected result %+v", result)
	}
	if d := result.InputDetails["Glucose"]; d.Value != 180 || d.Source != "User" {
		t.Fatalf("unexpected glucose detail %+v", d)
	}
	if d := result.InputDetails["Pregnancies"]; d.Source != "Estimated" {
		t.Fatalf("expected estimated pregnancies for female patient, got %+v", d)
	}
}

func TestPredictFlatJSONBody(t *testing.T) {
	classifier := &fakeClassifier{prediction: predictor.Prediction{Positive: true, Probability: 77.1}}
	router := newTestRouter(t, newTestService(t, classifier, nil, nil))

	body := `{"email":"pat@example.com","Pregnancies":1,"Glucose":180,"BMI":34,"Age":50,"user_input":{"BMI":36.5}}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/predict/diabetes", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result models.AssessmentResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d := result.InputDetails["Glucose"]; d.Value != 180 || d.Source != "User" {
		t.Fatalf("unexpected glucose detail %+v", d)
	}
	if d := result.InputDetails["Pregnancies"]; d.Value != 1 || d.Source != "User" {
		t.Fatalf("unexpected pregnancies detail %+v", d)
	}
	if d := result.InputDetails["BMI"]; d.Value != 36.5 || d.Source != "User" {
		t.Fatalf("expected nested user_input to win, got %+v", d)
	}
	want := "Patient shows High risk. Key concerns: Elevated Glucose (180.0 mg/dL), Obesity indicated (BMI 36.5)."
	if result.ClinicalSummary != want {
		t.Fatalf("unexpected summary %q", result.ClinicalSummary)
	}

	for _, bad := range []string{`{"email":42}`, `{"user_input":[1,2]}`, `[1,2]`} {
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/predict/diabetes", strings.NewReader(bad)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", bad, rec.Code)
		}
	}
}

func TestPredictMultipart(t *testing.T) {
	classifier := &fakeClassifier{prediction: predictor.Prediction{Probability: 45}}
	router := newTestRouter(t, newTestService(t, classifier, nil, nil))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "report.txt")
	if err != nil {
		t.Fatalf("create file part: %v", err)
	}
	_, _ = part.Write([]byte(heartReport))
	_ = mw.WriteField("email", "jane@example.com")
	_ = mw.WriteField("thalach", "171")
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict/heart", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result models.AssessmentResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d := result.InputDetails["chol"]; d.Value != 268 || d.Source != "Report" {
		t.Fatalf("unexpected chol detail %+v", d)
	}
	if d := result.InputDetails["thalach"]; d.Value != 171 || d.Source != "User" {
		t.Fatalf("unexpected thalach detail %+v", d)
	}
	if _, ok := result.InputDetails["email"]; ok {
		t.Fatal("email must not be treated as a feature")
	}
}

func TestPredictErrorMapping(t *testing.T) {
	ok := newTestRouter(t, newTestService(t, &fakeClassifier{}, nil, nil))
	failing := newTestRouter(t, newTestService(t, &fakeClassifier{err: errors.New("scaler mismatch")}, nil, nil))

	cases := []struct {
		name   string
		router *mux.Router
		path   string
		body   string
		status int
	}{
		{"unknown domain", ok, "/api/v1/predict/kidney", `{}`, http.StatusNotFound},
		{"bad email", ok, "/api/v1/predict/heart", `{"email":"not-an-email"}`, http.StatusBadRequest},
		{"malformed json", ok, "/api/v1/predict/heart", `{"user_input":`, http.StatusBadRequest},
		{"empty body", ok, "/api/v1/predict/heart", ``, http.StatusOK},
		{"classifier fault", failing, "/api/v1/predict/heart", `{}`, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		tc.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(tc.body)))
		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d: %s", tc.name, tc.status, rec.Code, rec.Body.String())
		}
		if tc.status == http.StatusInternalServerError && strings.Contains(rec.Body.String(), "scaler") {
			t.Fatalf("%s: internal detail leaked: %s", tc.name, rec.Body.String())
		}
	}
}

func TestExtractJSON(t *testing.T) {
	router := newTestRouter(t, newTestService(t, &fakeClassifier{}, nil, nil))

	payload, _ := json.Marshal(ExtractRequest{DocumentText: heartReport})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/extract", bytes.NewReader(payload)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var preview models.ExtractionPreview
	if err := json.Unmarshal(rec.Body.Bytes(), &preview); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if preview.Name == nil || *preview.Name != "Jane Roe" {
		t.Fatalf("unexpected name %v", preview.Name)
	}
	if v, ok := preview.Values["cholesterol"].(float64); !ok || v != 268 {
		t.Fatalf("unexpected cholesterol %v", preview.Values["cholesterol"])
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/extract", strings.NewReader(`{}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing document, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/extract", strings.NewReader(`{"document_text":`)))
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "invalid request body") {
		t.Fatalf("expected 400 for malformed body, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHistoryEndpoint(t *testing.T) {
	history := &fakeHistory{}
	svc := newTestService(t, &fakeClassifier{prediction: predictor.Prediction{Probability: 77}}, history, nil)
	router := newTestRouter(t, svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/predict/heart", strings.NewReader(`{"email":"pat@example.com"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("predict: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/assessments?email=pat@example.com&limit=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var records []models.AssessmentRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 1 || records[0].Domain != "heart" || records[0].RiskLevel != "High" {
		t.Fatalf("unexpected records %+v", records)
	}

	for path, status := range map[string]int{
		"/api/v1/assessments": http.StatusBadRequest,
		"/api/v1/assessments?email=pat@example.com&limit=x": http.StatusBadRequest,
	} {
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != status {
			t.Fatalf("%s: expected %d, got %d", path, status, rec.Code)
		}
	}

	disabled := newTestRouter(t, newTestService(t, &fakeClassifier{}, nil, nil))
	rec = httptest.NewRecorder()
	disabled.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/assessments?email=pat@example.com", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when history is disabled, got %d", rec.Code)
	}
}
