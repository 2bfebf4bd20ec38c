package cluster

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/hupe1980/seasonflow/core"
	"github.com/hupe1980/seasonflow/logging"
)

const (
	// SegmentCount is fixed for this domain: premium, mainstream and value
	// tiers. Not user-configurable.
	SegmentCount = 3

	// QualityThreshold is the silhouette score below which an assignment is
	// flagged low-confidence. The result stays usable; callers surface a
	// warning instead of failing.
	QualityThreshold = 0.4

	featureCount  = 4
	maxIterations = 100
)

// Options configures a Clusterer.
type Options struct {
	// Seed drives centroid initialization. Fixed by default so repeated fits
	// over the same table are reproducible.
	Seed int64

	// Logger provides structured logging. Defaults to NoOp.
	Logger logging.Logger
}

// Clusterer fits K=3 segments over store attributes. After Fit, Predict
// assigns new rows to the nearest learned centroid using the stored
// normalization parameters.
type Clusterer struct {
	seed   int64
	logger logging.Logger

	means     [featureCount]float64
	stds      [featureCount]float64
	centroids [][]float64
	labels    []string
}

// New creates a Clusterer with optional overrides.
func New(optFns ...func(o *Options)) *Clusterer {
	opts := Options{Seed: 42, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Clusterer{seed: opts.Seed, logger: opts.Logger}
}

// featureVector extracts the fixed numeric features used for segmentation.
func featureVector(row core.EntityRow) []float64 {
	return []float64{row.CapacityScore, row.IncomeIndex, float64(row.Tier), row.TrailingSalesRate}
}

// Fit partitions the attribute table into SegmentCount segments and returns
// the assignment with per-segment stats. The table must hold at least
// SegmentCount entities.
func (c *Clusterer) Fit(attrs core.AttributeTable) (core.ClusterAssignment, error) {
	if err := attrs.Validate(0); err != nil {
		return core.ClusterAssignment{}, err
	}
	if len(attrs) < SegmentCount {
		return core.ClusterAssignment{}, fmt.Errorf("clustering needs at least %d entities, got %d", SegmentCount, len(attrs))
	}
	start := time.Now()

	// Deterministic row order regardless of table order.
	rows := append(core.AttributeTable(nil), attrs...)
	sort.Slice(rows, func(i, j int) bool { return rows[i].EntityID < rows[j].EntityID })

	points := c.normalize(rows)
	assignment := c.kmeans(points)

	// Label segments by centroid rank on trailing sales rate (the dominant
	// feature, index 3 in the vector): highest is the premium tier.
	order := make([]int, SegmentCount)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return c.centroids[order[i]][3] > c.centroids[order[j]][3] })
	c.labels = make([]string, SegmentCount)
	tierLabels := []string{core.SegmentFashionForward, core.SegmentMainstream, core.SegmentValue}
	for rank, seg := range order {
		c.labels[seg] = tierLabels[rank]
	}

	result := core.ClusterAssignment{Assignments: map[string]int{}}
	counts := make([]int, SegmentCount)
	sales := make([]float64, SegmentCount)
	totalSales := 0.0
	for i, row := range rows {
		seg := assignment[i]
		result.Assignments[row.EntityID] = seg
		counts[seg]++
		sales[seg] += row.TrailingSalesRate
		totalSales += row.TrailingSalesRate
	}

	// Segment share: proportion of aggregate historical sales, which is what
	// drives allocation. Entity-count shares are the zero-sales fallback.
	for seg := 0; seg < SegmentCount; seg++ {
		share := 0.0
		if totalSales > 0 {
			share = sales[seg] / totalSales
		} else {
			share = float64(counts[seg]) / float64(len(rows))
		}
		result.Segments = append(result.Segments, core.SegmentStats{
			SegmentID:   seg,
			Label:       c.labels[seg],
			SharePct:    share,
			EntityCount: counts[seg],
		})
	}
	if err := result.ValidateShares(); err != nil {
		return core.ClusterAssignment{}, err
	}

	result.Quality = silhouette(points, assignment)
	result.LowConfidence = result.Quality < QualityThreshold
	if result.LowConfidence {
		c.logger.Warn("cluster.fit.low_confidence", "quality", result.Quality, "threshold", QualityThreshold)
	}
	c.logger.Info("cluster.fit.complete", "entities", len(rows), "quality", result.Quality, "duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// Predict assigns new rows to the nearest fitted centroid. Fit must have
// been called first.
func (c *Clusterer) Predict(rows core.AttributeTable) ([]int, error) {
	if c.centroids == nil {
		return nil, fmt.Errorf("predict before fit")
	}
	out := make([]int, len(rows))
	for i, row := range rows {
		point := make([]float64, featureCount)
		for f, v := range featureVector(row) {
			point[f] = (v - c.means[f]) / c.stds[f]
		}
		out[i] = nearest(point, c.centroids)
	}
	return out, nil
}

// Labels returns the fitted segment labels indexed by segment id.
func (c *Clusterer) Labels() []string { return append([]string(nil), c.labels...) }

// normalize z-scores every feature column, storing the parameters for
// Predict. A zero-variance column normalizes to all zeros so it simply stops
// contributing to distances.
func (c *Clusterer) normalize(rows core.AttributeTable) [][]float64 {
	n := len(rows)
	raw := make([][]float64, n)
	for i, row := range rows {
		raw[i] = featureVector(row)
	}
	for f := 0; f < featureCount; f++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += raw[i][f]
		}
		c.means[f] = sum / float64(n)
		sq := 0.0
		for i := 0; i < n; i++ {
			d := raw[i][f] - c.means[f]
			sq += d * d
		}
		c.stds[f] = math.Sqrt(sq / float64(n))
		if c.stds[f] == 0 {
			c.stds[f] = 1
		}
	}
	points := make([][]float64, n)
	for i := 0; i < n; i++ {
		points[i] = make([]float64, featureCount)
		for f := 0; f < featureCount; f++ {
			points[i][f] = (raw[i][f] - c.means[f]) / c.stds[f]
		}
	}
	return points
}

// kmeans runs Lloyd iterations from a k-means++ style seeded initialization.
func (c *Clusterer) kmeans(points [][]float64) []int {
	rng := rand.New(rand.NewSource(c.seed))
	c.centroids = initCentroids(points, SegmentCount, rng)

	assignment := make([]int, len(points))
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, p := range points {
			seg := nearest(p, c.centroids)
			if seg != assignment[i] {
				assignment[i] = seg
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		// Recompute centroids; an emptied segment keeps its previous
		// centroid rather than collapsing.
		sums := make([][]float64, SegmentCount)
		counts := make([]int, SegmentCount)
		for seg := range sums {
			sums[seg] = make([]float64, featureCount)
		}
		for i, p := range points {
			seg := assignment[i]
			counts[seg]++
			for f := 0; f < featureCount; f++ {
				sums[seg][f] += p[f]
			}
		}
		for seg := 0; seg < SegmentCount; seg++ {
			if counts[seg] == 0 {
				continue
			}
			for f := 0; f < featureCount; f++ {
				c.centroids[seg][f] = sums[seg][f] / float64(counts[seg])
			}
		}
	}
	return assignment
}

// initCentroids picks k starting centroids: the first uniformly, each
// subsequent one weighted by squared distance to the nearest chosen centroid.
func initCentroids(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	first := points[rng.Intn(len(points))]
	centroids = append(centroids, append([]float64(nil), first...))

	for len(centroids) < k {
		dists := make([]float64, len(points))
		total := 0.0
		for i, p := range points {
			best := math.Inf(1)
			for _, c := range centroids {
				if d := sqDist(p, c); d < best {
					best = d
				}
			}
			dists[i] = best
			total += best
		}
		if total == 0 {
			// All remaining points coincide with a centroid; pick uniformly.
			centroids = append(centroids, append([]float64(nil), points[rng.Intn(len(points))]...))
			continue
		}
		target := rng.Float64() * total
		acc := 0.0
		chosen := len(points) - 1
		for i, d := range dists {
			acc += d
			if acc >= target {
				chosen = i
				break
			}
		}
		centroids = append(centroids, append([]float64(nil), points[chosen]...))
	}
	return centroids
}

func nearest(p []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for seg, c := range centroids {
		if d := sqDist(p, c); d < bestDist {
			best, bestDist = seg, d
		}
	}
	return best
}

func sqDist(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// silhouette computes the mean silhouette coefficient over all points:
// (b-a)/max(a,b) where a is mean intra-segment distance and b the mean
// distance to the nearest other segment.
func silhouette(points [][]float64, assignment []int) float64 {
	n := len(points)
	if n <= SegmentCount {
		return 0
	}
	total := 0.0
	counted := 0
	for i := 0; i < n; i++ {
		var dist [SegmentCount]float64
		var count [SegmentCount]int
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			seg := assignment[j]
			dist[seg] += math.Sqrt(sqDist(points[i], points[j]))
			count[seg]++
		}
		own := assignment[i]
		if count[own] == 0 {
			continue
		}
		a := dist[own] / float64(count[own])
		b := math.Inf(1)
		for seg := 0; seg < SegmentCount; seg++ {
			if seg == own || count[seg] == 0 {
				continue
			}
			if m := dist[seg] / float64(count[seg]); m < b {
				b = m
			}
		}
		if math.IsInf(b, 1) {
			continue
		}
		if m := math.Max(a, b); m > 0 {
			total += (b - a) / m
		}
		counted++
	}
	if counted == 0 {
		return 0
	}
	return total / float64(counted)
}
