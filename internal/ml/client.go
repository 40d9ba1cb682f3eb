// Package ml provides the client for the external race predictor service.
// The service's only contract with the core is: given the entrant records for
// one race, return a per-box confidence value in [0,100].
package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/formcast/internal/config"
	"github.com/yourusername/formcast/internal/metrics"
	"github.com/yourusername/formcast/internal/models"
)

// Predictor is the ML collaborator contract consumed by the pipeline.
type Predictor interface {
	// PredictRace returns a confidence value in [0,100] per box number.
	PredictRace(ctx context.Context, race *models.Race, entrants []*models.Entrant) (map[int]float64, error)

	// HealthCheck verifies the predictor is reachable.
	HealthCheck(ctx context.Context) error
}

// Client is the HTTP implementation of Predictor.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	logger  *logrus.Logger
}

// NewClient creates an HTTP predictor client.
func NewClient(cfg *config.PredictorConfig, logger *logrus.Logger) *Client {
	return &Client{
		client: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		},
		baseURL: cfg.URL,
		apiKey:  cfg.APIKey,
		logger:  logger,
	}
}

// predictRequest is the wire payload for one race.
type predictRequest struct {
	Track      string           `json:"track"`
	RaceNumber int              `json:"race_number"`
	Distance   int              `json:"distance"`
	Entrants   []predictEntrant `json:"entrants"`
}

type predictEntrant struct {
	Box              int      `json:"box"`
	Name             string   `json:"name"`
	CareerWins       int      `json:"career_wins"`
	CareerPlaces     int      `json:"career_places"`
	CareerStarts     int      `json:"career_starts"`
	PrizeMoney       float64  `json:"prize_money"`
	DaysSinceLastRun *int     `json:"days_since_last_run,omitempty"`
	BestTimeSec      *float64 `json:"best_time_sec,omitempty"`
	SectionalSec     *float64 `json:"sectional_sec,omitempty"`
	Weight           *float64 `json:"weight,omitempty"`
}

// predictResponse carries per-box confidences keyed by box number string.
type predictResponse struct {
	Confidences  map[string]float64 `json:"confidences"`
	ModelVersion string             `json:"model_version"`
}

// PredictRace requests confidences for one race. Out-of-range confidence
// values make the whole response invalid; the contract is [0,100].
func (c *Client) PredictRace(ctx context.Context, race *models.Race, entrants []*models.Entrant) (map[int]float64, error) {
	start := time.Now()
	defer func() {
		metrics.PredictionLatency.WithLabelValues("http").Observe(time.Since(start).Seconds())
	}()

	reqBody := predictRequest{
		Track:      race.Track,
		RaceNumber: race.RaceNumber,
		Distance:   race.Distance,
		Entrants:   make([]predictEntrant, len(entrants)),
	}
	for i, e := range entrants {
		reqBody.Entrants[i] = predictEntrant{
			Box:              e.Box,
			Name:             e.Name,
			CareerWins:       e.CareerWins,
			CareerPlaces:     e.CareerPlaces,
			CareerStarts:     e.CareerStarts,
			PrizeMoney:       e.GetPrizeMoney(),
			DaysSinceLastRun: e.DaysSinceLastRun,
			BestTimeSec:      e.BestTimeSec,
			SectionalSec:     e.SectionalSec,
			Weight:           e.Weight,
		}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/predict", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.PredictorErrorsTotal.WithLabelValues("network").Inc()
		c.logger.WithError(err).Error("Failed to reach predictor service")
		return nil, fmt.Errorf("%w: %v", ErrPredictorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		metrics.PredictorErrorsTotal.WithLabelValues("http_error").Inc()
		return nil, fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, string(body))
	}

	var predResp predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&predResp); err != nil {
		metrics.PredictorErrorsTotal.WithLabelValues("decode").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrediction, err)
	}

	confidences := make(map[int]float64, len(predResp.Confidences))
	for boxStr, conf := range predResp.Confidences {
		box, err := strconv.Atoi(boxStr)
		if err != nil || box <= 0 {
			return nil, fmt.Errorf("%w: bad box key %q", ErrInvalidPrediction, boxStr)
		}
		if conf < 0 || conf > 100 {
			return nil, fmt.Errorf("%w: confidence %f for box %d out of [0,100]", ErrInvalidPrediction, conf, box)
		}
		confidences[box] = conf
	}

	metrics.PredictionsTotal.WithLabelValues("http", "false").Inc()
	c.logger.WithFields(logrus.Fields{
		"race":          race.RaceNumber,
		"track":         race.Track,
		"model_version": predResp.ModelVersion,
		"boxes":         len(confidences),
	}).Debug("Fetched race prediction")

	return confidences, nil
}

// ModelVersion reports the predictor's active model version.
func (c *Client) ModelVersion(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/v1/model", nil)
	if err != nil {
		return "", err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPredictorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	var body struct {
		ModelVersion string `json:"model_version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPrediction, err)
	}
	return body.ModelVersion, nil
}

// HealthCheck checks predictor service health.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPredictorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrPredictorUnavailable, resp.StatusCode)
	}
	return nil
}
