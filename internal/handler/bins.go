package handler

import (
	"math"
	"net/http"

	"binsorter/internal/dto"
	"binsorter/internal/service/ai"
	"binsorter/internal/waste"
)

// BinsHandler serves the bin colour guide and the detector vocabulary.
func BinsHandler(params ai.Params) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}
		writeJSON(w, http.StatusOK, dto.BinsResponse{
			Bins:                waste.Guide(),
			Vocabulary:          waste.Vocabulary(),
			ConfidenceThreshold: round3(params.ConfidenceThreshold),
			IoUThreshold:        round3(params.IoUThreshold),
		})
	}
}

// round3 undoes float32 widening noise (0.4 would otherwise print as 0.4000000059604645).
func round3(v float32) float64 {
	return math.Round(float64(v)*1000) / 1000
}
