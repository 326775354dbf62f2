package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
)

var (
	emptyExtractions       atomic.Int64
	classificationFailures atomic.Int64
	profileLookupFailures  atomic.Int64

	assessmentsMu sync.Mutex
	assessments   = map[assessmentKey]int64{}
)

type assessmentKey struct {
	domain string
	tier   string
}

// ObserveAssessment counts one completed assessment.
func ObserveAssessment(domain, tier string) {
	assessmentsMu.Lock()
	assessments[assessmentKey{domain: domain, tier: tier}]++
	assessmentsMu.Unlock()
}

func ObserveEmptyExtraction() {
	emptyExtractions.Add(1)
}

func ObserveClassificationFailure() {
	classificationFailures.Add(1)
}

func ObserveProfileLookupFailure() {
	profileLookupFailures.Add(1)
}

// Reset clears every counter.
func Reset() {
	emptyExtractions.Store(0)
	classificationFailures.Store(0)
	profileLookupFailures.Store(0)
	assessmentsMu.Lock()
	assessments = map[assessmentKey]int64{}
	assessmentsMu.Unlock()
}

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "# HELP riskengine_assessments_total Number of completed assessments by domain and risk tier.\n")
	fmt.Fprintf(w, "# TYPE riskengine_assessments_total counter\n")

	assessmentsMu.Lock()
	keys := make([]assessmentKey, 0, len(assessments))
	for k := range assessments {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].domain != keys[j].domain {
			return keys[i].domain < keys[j].domain
		}
		return keys[i].tier < keys[j].tier
	})
	for _, k := range keys {
		fmt.Fprintf(w, "riskengine_assessments_total{domain=%q,tier=%q} %d\n", k.domain, k.tier, assessments[k])
	}
	assessmentsMu.Unlock()

	fmt.Fprintf(w, "# HELP riskengine_extraction_empty_total Number of documents that yielded no candidate values.\n")
	fmt.Fprintf(w, "# TYPE riskengine_extraction_empty_total counter\n")
	fmt.Fprintf(w, "riskengine_extraction_empty_total %d\n", emptyExtractions.Load())

	fmt.Fprintf(w, "# HELP riskengine_classification_failures_total Number of assessments aborted by a classifier fault.\n")
	fmt.Fprintf(w, "# TYPE riskengine_classification_failures_total counter\n")
	fmt.Fprintf(w, "riskengine_classification_failures_total %d\n", classificationFailures.Load())

	fmt.Fprintf(w, "# HELP riskengine_profile_lookup_failures_total Number of failed profile store lookups.\n")
	fmt.Fprintf(w, "# TYPE riskengine_profile_lookup_failures_total counter\n")
	fmt.Fprintf(w, "riskengine_profile_lookup_failures_total %d\n", profileLookupFailures.Load())
}
