package handler

import (
	"net/http"
)

// Readiness reports whether the detection model is loaded.
type Readiness interface {
	Ready() bool
}

type healthResponse struct {
	Status      string `json:"status"`
	Backend     string `json:"backend"`
	ModelLoaded bool   `json:"model_loaded"`
}

// HealthHandler answers 200 when the model is loaded and 503 otherwise.
func HealthHandler(model Readiness, backend string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok", Backend: backend, ModelLoaded: model.Ready()}
		status := http.StatusOK
		if !resp.ModelLoaded {
			resp.Status = "model not loaded"
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}
