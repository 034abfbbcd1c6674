package models

// AnalyticsData is the transient labels/values/summary payload produced by
// the AI enrichment step (or its deterministic fallback) and consumed by
// chart rendering and the enriched report. It is never persisted.
type AnalyticsData struct {
	Labels  []string  `json:"labels"`
	Values  []float64 `json:"values"`
	Summary string    `json:"summary"`
}
