package schema

import "fmt"

// Metric identifies the distance/similarity function used for vector search.
// Float metrics apply to float vectors, binary metrics to packed bit vectors;
// the pairing is validated when the schema is built.
type Metric string

const (
	MetricL2     Metric = "L2"
	MetricIP     Metric = "IP"
	MetricCosine Metric = "COSINE"

	MetricJaccard  Metric = "JACCARD"
	MetricTanimoto Metric = "TANIMOTO"
	MetricHamming  Metric = "HAMMING"
)

// Binary reports whether the metric operates on packed binary vectors.
func (m Metric) Binary() bool {
	switch m {
	case MetricJaccard, MetricTanimoto, MetricHamming:
		return true
	}
	return false
}

// Index kinds understood by the clustered-index engines.
const (
	IndexFlat       = "FLAT"
	IndexIVFFlat    = "IVF_FLAT"
	IndexIVFSQ8     = "IVF_SQ8"
	IndexIVFPQ      = "IVF_PQ"
	IndexHNSW       = "HNSW"
	IndexBinFlat    = "BIN_FLAT"
	IndexBinIVFFlat = "BIN_IVF_FLAT"
)

// Tuning parameter bounds enforced by the engines.
const (
	minNlist = 1
	maxNlist = 65536
	minHNSWM = 4
	maxHNSWM = 64
	minEf    = 8
	maxEf    = 512
	minNbits = 1
	maxNbits = 16
)

// Index describes a vector index: its kind, distance metric, and tuning
// parameters. Construct one with Flat, IVFFlat, IVFSQ8, IVFPQ, HNSW,
// BinFlat, or BinIVFFlat; validation happens inside the constructor and
// is surfaced as a configuration error when the schema is built.
type Index struct {
	kind   string
	metric Metric
	params map[string]any
	binary bool
	err    error
}

// Kind returns the engine index kind, e.g. "HNSW".
func (i Index) Kind() string { return i.kind }

// Metric returns the distance metric the index was declared with.
func (i Index) Metric() Metric { return i.metric }

// Binary reports whether the index operates on packed binary vectors.
func (i Index) Binary() bool { return i.binary }

// Params returns a copy of the tuning parameters.
func (i Index) Params() map[string]any {
	out := make(map[string]any, len(i.params))
	for k, v := range i.params {
		out[k] = v
	}
	return out
}

// Err returns the validation error recorded at construction, if any.
func (i Index) Err() error { return i.err }

// Flat declares a brute-force float index. Exact but slow on large
// collections.
func Flat(metric Metric) Index {
	idx := Index{kind: IndexFlat, metric: metric}
	idx.err = validateFloatMetric(IndexFlat, metric)
	return idx
}

// IVFFlat declares an inverted-file float index with nlist cluster units.
func IVFFlat(metric Metric, nlist int) Index {
	idx := Index{kind: IndexIVFFlat, metric: metric, params: map[string]any{"nlist": nlist}}
	idx.err = firstErr(
		validateFloatMetric(IndexIVFFlat, metric),
		validateRange(IndexIVFFlat, "nlist", nlist, minNlist, maxNlist),
	)
	return idx
}

// IVFSQ8 declares an inverted-file index with scalar quantization.
func IVFSQ8(metric Metric, nlist int) Index {
	idx := Index{kind: IndexIVFSQ8, metric: metric, params: map[string]any{"nlist": nlist}}
	idx.err = firstErr(
		validateFloatMetric(IndexIVFSQ8, metric),
		validateRange(IndexIVFSQ8, "nlist", nlist, minNlist, maxNlist),
	)
	return idx
}

// IVFPQ declares an inverted-file index with product quantization.
// m is the number of vector segments, nbits the per-segment code size.
func IVFPQ(metric Metric, nlist, m, nbits int) Index {
	idx := Index{
		kind:   IndexIVFPQ,
		metric: metric,
		params: map[string]any{"nlist": nlist, "m": m, "nbits": nbits},
	}
	idx.err = firstErr(
		validateFloatMetric(IndexIVFPQ, metric),
		validateRange(IndexIVFPQ, "nlist", nlist, minNlist, maxNlist),
		validateRange(IndexIVFPQ, "nbits", nbits, minNbits, maxNbits),
	)
	return idx
}

// HNSW declares a hierarchical small-world graph index. m bounds the
// per-node edge count, efConstruction the build-time search width.
func HNSW(metric Metric, m, efConstruction int) Index {
	idx := Index{
		kind:   IndexHNSW,
		metric: metric,
		params: map[string]any{"M": m, "efConstruction": efConstruction},
	}
	idx.err = firstErr(
		validateFloatMetric(IndexHNSW, metric),
		validateRange(IndexHNSW, "M", m, minHNSWM, maxHNSWM),
		validateRange(IndexHNSW, "efConstruction", efConstruction, minEf, maxEf),
	)
	return idx
}

// BinFlat declares a brute-force index over packed binary vectors.
func BinFlat(metric Metric) Index {
	idx := Index{kind: IndexBinFlat, metric: metric, binary: true}
	idx.err = validateBinaryMetric(IndexBinFlat, metric)
	return idx
}

// BinIVFFlat declares an inverted-file index over packed binary vectors.
func BinIVFFlat(metric Metric, nlist int) Index {
	idx := Index{
		kind:   IndexBinIVFFlat,
		metric: metric,
		params: map[string]any{"nlist": nlist},
		binary: true,
	}
	idx.err = firstErr(
		validateBinaryMetric(IndexBinIVFFlat, metric),
		validateRange(IndexBinIVFFlat, "nlist", nlist, minNlist, maxNlist),
	)
	return idx
}

func validateFloatMetric(kind string, metric Metric) error {
	switch metric {
	case MetricL2, MetricIP, MetricCosine:
		return nil
	}
	return fmt.Errorf("%s: metric %q requires a binary index", kind, metric)
}

func validateBinaryMetric(kind string, metric Metric) error {
	if metric.Binary() {
		return nil
	}
	return fmt.Errorf("%s: metric %q requires a float index", kind, metric)
}

func validateRange(kind, name string, v, lo, hi int) error {
	if v < lo || v > hi {
		return fmt.Errorf("%s: %s must be in [%d, %d], got %d", kind, name, lo, hi, v)
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
