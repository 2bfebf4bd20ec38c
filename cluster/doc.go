// Package cluster partitions stores into a small fixed number of named
// segments by centroid clustering over a normalized attribute vector.
//
// Every feature is z-score normalized before clustering; the raw features
// mix currency, floor area and ordinal tiers, so distances on raw values
// are meaningless. Initialization is k-means++ style with a fixed seed, so
// a given attribute table always produces the same assignment. Segments are
// labeled by ranking centroids on trailing sales rate, and segment shares
// are computed from aggregate historical sales, not entity counts.
package cluster
