package core

import (
	"fmt"
	"math"
)

// Segment labels assigned by ranking cluster centroids on trailing sales
// rate. The highest-velocity segment carries the premium label.
const (
	SegmentFashionForward = "Fashion_Forward"
	SegmentMainstream     = "Mainstream"
	SegmentValue          = "Value"
)

// SegmentStats summarizes one store segment after clustering. SharePct is
// the segment's proportion of aggregate historical sales, not raw entity
// count; it is what drives segment-layer allocation.
type SegmentStats struct {
	SegmentID   int     `json:"segment_id"`
	Label       string  `json:"label"`
	SharePct    float64 `json:"share_pct"`
	EntityCount int     `json:"entity_count"`
}

// ClusterAssignment maps each entity to its segment and carries per-segment
// stats plus a silhouette-style quality score. LowConfidence flags quality
// below the acceptance threshold; the result stays usable, callers surface
// a warning.
type ClusterAssignment struct {
	Assignments   map[string]int `json:"assignments"`
	Segments      []SegmentStats `json:"segments"`
	Quality       float64        `json:"quality"`
	LowConfidence bool           `json:"low_confidence"`
}

// ShareSum returns the sum of segment shares; valid assignments satisfy
// ShareSum() == 1.0 within 1e-6.
func (c ClusterAssignment) ShareSum() float64 {
	sum := 0.0
	for _, s := range c.Segments {
		sum += s.SharePct
	}
	return sum
}

// ValidateShares checks the share-sum invariant.
func (c ClusterAssignment) ValidateShares() error {
	if sum := c.ShareSum(); math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("segment shares sum to %.8f, want 1.0", sum)
	}
	return nil
}

// Entities returns the entity ids assigned to the given segment.
func (c ClusterAssignment) Entities(segmentID int) []string {
	var ids []string
	for id, seg := range c.Assignments {
		if seg == segmentID {
			ids = append(ids, id)
		}
	}
	return ids
}
