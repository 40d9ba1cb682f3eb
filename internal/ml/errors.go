package ml

import "errors"

// Sentinel errors for predictor failures. Callers treat any of these as
// "external confidence unavailable" and fall back to rule-only decisions.
var (
	ErrPredictorUnavailable = errors.New("ml predictor unavailable")
	ErrInvalidPrediction    = errors.New("invalid prediction response")
	ErrRequestFailed        = errors.New("prediction request failed")
)
