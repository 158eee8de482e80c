package httpapi

import (
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/zafarb-21/rpm-web-dashboard/internal/cache"
	"github.com/zafarb-21/rpm-web-dashboard/internal/domain"
	"github.com/zafarb-21/rpm-web-dashboard/internal/repository"
)

// QueryHandler serves the read-only query API over the latest-state
// caches and the history store. It only reads: all mutation happens on
// the subscriber path, coordinated through the stores' own locking.
type QueryHandler struct {
	vitalsCache *cache.Latest[*domain.VitalSigns]
	ecgCache    *cache.Latest[map[string]interface{}]
	vitalsRepo  repository.VitalsRepository
	logger      *zap.Logger
}

func NewQueryHandler(
	vitalsCache *cache.Latest[*domain.VitalSigns],
	ecgCache *cache.Latest[map[string]interface{}],
	vitalsRepo repository.VitalsRepository,
	logger *zap.Logger,
) *QueryHandler {
	return &QueryHandler{
		vitalsCache: vitalsCache,
		ecgCache:    ecgCache,
		vitalsRepo:  vitalsRepo,
		logger:      logger,
	}
}

// Health GET /health
func (q *QueryHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ListPatients GET /patients — sorted union of both caches
func (q *QueryHandler) ListPatients(w http.ResponseWriter, _ *http.Request) {
	seen := make(map[string]struct{})
	for _, id := range q.vitalsCache.Keys() {
		seen[id] = struct{}{}
	}
	for _, id := range q.ecgCache.Keys() {
		seen[id] = struct{}{}
	}

	patients := make([]string, 0, len(seen))
	for id := range seen {
		patients = append(patients, id)
	}
	sort.Strings(patients)

	writeJSON(w, http.StatusOK, map[string]interface{}{"patients": patients})
}

// LatestVitals GET /latest/vitals/{patient_id}
func (q *QueryHandler) LatestVitals(w http.ResponseWriter, _ *http.Request, patientID string) {
	v, ok := q.vitalsCache.Get(patientID)
	if !ok {
		writeDetail(w, http.StatusNotFound, "No vitals received for this patient_id yet.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"patient_id": patientID,
		"latest":     v,
	})
}

// LatestECG GET /latest/ecg/{patient_id}
func (q *QueryHandler) LatestECG(w http.ResponseWriter, _ *http.Request, patientID string) {
	entry, ok := q.ecgCache.Get(patientID)
	if !ok {
		writeDetail(w, http.StatusNotFound, "No ECG stream received for this patient_id yet.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"patient_id": patientID,
		"latest":     entry,
	})
}

// VitalsHistory GET /history/vitals/{patient_id}?limit=N
func (q *QueryHandler) VitalsHistory(w http.ResponseWriter, req *http.Request, patientID string) {
	limit := parseInt(req.URL.Query().Get("limit"), repository.DefaultHistoryLimit)

	records, err := q.vitalsRepo.QueryByPatient(req.Context(), patientID, limit)
	if err != nil {
		q.logger.Error("History query failed",
			zap.String("patient_id", patientID),
			zap.Error(err),
		)
		writeDetail(w, http.StatusInternalServerError, "History query failed.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"patient_id": patientID,
		"count":      len(records),
		"records":    records,
	})
}
