package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// ServeHTTP applies the dashboard's permissive CORS policy before routing.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "*")
	if req.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	r.mux.ServeHTTP(w, req)
}

// RegisterQueryRoutes wires the read-only query API.
func (r *Router) RegisterQueryRoutes(q *QueryHandler) {
	r.Handle("/health", onlyGet(q.Health))
	r.Handle("/patients", onlyGet(q.ListPatients))

	// latest/vitals/{patient_id}
	r.Handle("/latest/vitals/", onlyGet(func(w http.ResponseWriter, req *http.Request) {
		id := pathParam(req, "/latest/vitals/")
		if id == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		q.LatestVitals(w, req, id)
	}))

	// latest/ecg/{patient_id}
	r.Handle("/latest/ecg/", onlyGet(func(w http.ResponseWriter, req *http.Request) {
		id := pathParam(req, "/latest/ecg/")
		if id == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		q.LatestECG(w, req, id)
	}))

	// history/vitals/{patient_id}?limit=N
	r.Handle("/history/vitals/", onlyGet(func(w http.ResponseWriter, req *http.Request) {
		id := pathParam(req, "/history/vitals/")
		if id == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		q.VitalsHistory(w, req, id)
	}))
}

func onlyGet(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}

// pathParam extracts the single trailing path segment after prefix
func pathParam(req *http.Request, prefix string) string {
	id := strings.TrimPrefix(req.URL.Path, prefix)
	if id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}
