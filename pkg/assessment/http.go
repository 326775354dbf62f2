package assessment

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/synaptica-ai/riskengine/pkg/clinical"
	"github.com/synaptica-ai/riskengine/pkg/common/logger"
	"github.com/synaptica-ai/riskengine/pkg/resolver"
	"github.com/synaptica-ai/riskengine/pkg/serving/predictor"
)

const multipartMemory = 8 << 20

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/predict/{domain}", h.handlePredict).Methods(http.MethodPost)
	router.HandleFunc("/extract", h.handleExtract).Methods(http.MethodPost)
	router.HandleFunc("/assessments", h.handleHistory).Methods(http.MethodGet)
}

func (h *HTTPHandler) handlePredict(w http.ResponseWriter, r *http.Request) {
	domain, ok := clinical.ParseDomain(mux.Vars(r)["domain"])
	if !ok {
		http.Error(w, "unknown domain", http.StatusNotFound)
		return
	}

	var (
		req Request
		err error
	)
	if isMultipart(r) {
		var file io.Closer
		req, file, err = decodeMultipartPredict(r, domain)
		if file != nil {
			defer file.Close()
		}
	} else {
		req, err = decodeJSONPredict(r, domain)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Assess(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *HTTPHandler) handleExtract(w http.ResponseWriter, r *http.Request) {
	if isMultipart(r) {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			writeError(w, ValidationError{reason: errors.New("invalid multipart body")})
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, ValidationError{reason: errors.New("file is required")})
			return
		}
		defer file.Close()
		writeJSON(w, http.StatusOK, h.service.Preview(file))
		return
	}

	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.WithError(err).Warn("invalid extract payload")
		writeError(w, ValidationError{reason: errors.New("invalid request body")})
		return
	}
	if err := validateStruct(req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.service.Preview(strings.NewReader(req.DocumentText)))
}

func (h *HTTPHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	query := HistoryQuery{Email: strings.TrimSpace(r.URL.Query().Get("email"))}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, ValidationError{reason: errors.New("limit must be an integer")})
			return
		}
		query.Limit = limit
	}
	if err := validateStruct(query); err != nil {
		writeError(w, err)
		return
	}

	records, err := h.service.History(r.Context(), query.Email, query.Limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func decodeJSONPredict(r *http.Request, domain clinical.Domain) (Request, error) {
	var raw map[string]interface{}
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		logger.Log.WithError(err).Warn("invalid predict payload")
		return Request{}, ValidationError{reason: errors.New("invalid request body")}
	}
	body, err := predictRequestFromBody(raw)
	if err != nil {
		return Request{}, err
	}
	return body.toRequest(domain), nil
}

// decodeMultipartPredict reads the optional report from the "file" part and
// every other form field as user input. The caller closes the returned file.
func decodeMultipartPredict(r *http.Request, domain clinical.Domain) (Request, io.Closer, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return Request{}, nil, ValidationError{reason: errors.New("invalid multipart body")}
	}

	body := PredictRequest{UserInput: map[string]interface{}{}}
	for key, values := range r.MultipartForm.Value {
		if len(values) == 0 {
			continue
		}
		switch key {
		case "email":
			body.Email = values[0]
		case "document_text":
			body.DocumentText = values[0]
		default:
			body.UserInput[key] = values[0]
		}
	}
	if err := validateStruct(body); err != nil {
		return Request{}, nil, err
	}

	req := body.toRequest(domain)
	file, _, err := r.FormFile("file")
	if err != nil {
		if !errors.Is(err, http.ErrMissingFile) {
			return Request{}, nil, ValidationError{reason: errors.New("unreadable file part")}
		}
		return req, nil, nil
	}
	req.Document = file
	return req, file, nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case IsValidationError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, resolver.ErrUnknownDomain):
		http.Error(w, "unknown domain", http.StatusNotFound)
	case errors.Is(err, ErrHistoryDisabled):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, predictor.ErrClassification):
		http.Error(w, "assessment failed", http.StatusInternalServerError)
	default:
		logger.Log.WithError(err).Error("failed to process assessment request")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Warn("failed to encode response")
	}
}
