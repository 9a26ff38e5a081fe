package models

// BinaryMask is a flattened boolean membership grid.
type BinaryMask []bool

// Count returns the number of set pixels.
func (m BinaryMask) Count() int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}

// ClusterAssignment holds one cluster index per pixel, each in [0, k).
type ClusterAssignment []int

// Members derives the membership mask of a single cluster. An index that no pixel
// carries (including the -1 sentinel) yields an all-false mask.
func (a ClusterAssignment) Members(cluster int) BinaryMask {
	mask := make(BinaryMask, len(a))
	for i, c := range a {
		mask[i] = c == cluster
	}
	return mask
}

// Sizes counts pixels per cluster for k clusters.
func (a ClusterAssignment) Sizes(k int) []int {
	sizes := make([]int, k)
	for _, c := range a {
		if c >= 0 && c < k {
			sizes[c]++
		}
	}
	return sizes
}
