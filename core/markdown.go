package core

import "time"

// MarkdownDecision is the outcome of the mid-season sell-through checkpoint.
// Created once per checkpoint; a negative gap yields Triggered=false and
// MarkdownPct=0. The discount is applied uniformly across segments.
type MarkdownDecision struct {
	Version           string    `json:"version"`
	CheckpointWeek    int       `json:"checkpoint_week"`
	SellThroughActual float64   `json:"sell_through_actual"`
	Target            float64   `json:"target"`
	Gap               float64   `json:"gap"`
	Elasticity        float64   `json:"elasticity"`
	MarkdownPct       float64   `json:"markdown_pct"`
	Triggered         bool      `json:"triggered"`
	CreatedAt         time.Time `json:"created_at"`
}
