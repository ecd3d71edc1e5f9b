// Package iforest implements the Isolation Forest algorithm for anomaly detection.
package iforest

import (
	"bytes"
	"encoding/gob"
	"errors"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/procurewatch/prguard/pkg/detectors"
)

var _ detectors.Detector = (*IsolationForest)(nil)

// eulerMascheroni approximates γ for the expected-path-length correction.
const eulerMascheroni = 0.5772156649

// ErrNotTrained is returned when scoring is attempted before Fit or Load.
var ErrNotTrained = errors.New("iforest: model not trained")

// IsolationForest implements unsupervised anomaly detection using
// isolation trees. Scores are signed decision-function values: the
// average path length minus the expected path length for the subsample
// size, so shorter-than-expected paths (easily isolated points) score
// negative. Training calibrates a threshold at the contamination
// percentile of the training scores; scores below it are anomalies.
type IsolationForest struct {
	mu sync.RWMutex

	// Configuration
	nTrees        int
	sampleSize    int
	contamination float64
	seed          int64

	// Trained model
	trees     []*tree
	refLength float64 // c(effective sample size)
	threshold float64
	stats     Stats
	trained   bool
}

// tree is a single isolation tree.
type tree struct {
	Root *node
}

// node is a node in an isolation tree. Internal nodes carry the split;
// external nodes carry the count of training points that landed there.
// Fields are exported for gob.
type node struct {
	SplitFeature int
	SplitValue   float64
	Left         *node
	Right        *node
	Size         int
}

// Stats summarizes the training-score distribution.
type Stats struct {
	Mean float64
	Std  float64
	Min  float64
	Max  float64
}

// Option configures an IsolationForest.
type Option func(*IsolationForest)

// WithTrees sets the number of isolation trees.
func WithTrees(n int) Option {
	return func(f *IsolationForest) {
		f.nTrees = n
	}
}

// WithSampleSize sets the subsample size for each tree.
func WithSampleSize(n int) Option {
	return func(f *IsolationForest) {
		f.sampleSize = n
	}
}

// WithContamination sets the expected proportion of anomalies.
func WithContamination(c float64) Option {
	return func(f *IsolationForest) {
		f.contamination = c
	}
}

// WithSeed sets the random seed for reproducibility. Each tree draws
// from its own stream derived from this seed and the tree index, so a
// fixed seed yields identical forests regardless of build scheduling.
func WithSeed(seed int64) Option {
	return func(f *IsolationForest) {
		f.seed = seed
	}
}

// New creates a new IsolationForest with the given options.
func New(opts ...Option) *IsolationForest {
	f := &IsolationForest{
		nTrees:        200,
		sampleSize:    256,
		contamination: 0.05,
		seed:          42,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fit trains the forest on the provided data, then scores the training
// set to calibrate the anomaly threshold and record score statistics.
func (f *IsolationForest) Fit(data [][]float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(data) == 0 {
		return errors.New("iforest: empty training data")
	}

	nSamples := len(data)
	sampleSize := f.sampleSize
	if sampleSize > nSamples {
		sampleSize = nSamples
	}
	heightLimit := int(math.Ceil(math.Log2(float64(sampleSize))))
	if heightLimit < 1 {
		heightLimit = 1
	}

	// Tree builds are independent: each works on its own subsample with
	// its own seeded stream, so they run concurrently and still produce
	// the same forest as a sequential build.
	trees := make([]*tree, f.nTrees)
	var wg sync.WaitGroup
	for i := 0; i < f.nTrees; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(f.seed + int64(i)))

			// Subsample without replacement.
			indices := rng.Perm(nSamples)[:sampleSize]
			sample := make([][]float64, sampleSize)
			for j, idx := range indices {
				sample[j] = data[idx]
			}

			trees[i] = &tree{Root: buildNode(sample, 0, heightLimit, rng)}
		}(i)
	}
	wg.Wait()

	f.trees = trees
	f.refLength = expectedPathLength(float64(sampleSize))
	f.trained = true

	// Calibrate the operating threshold from the training distribution.
	scores := make([]float64, nSamples)
	for i, sample := range data {
		scores[i] = f.scoreOne(sample)
	}
	f.threshold = Calibrate(scores, f.contamination)
	f.stats = summarize(scores)

	return nil
}

// buildNode recursively partitions sample with random axis-aligned
// splits. The split column is chosen uniformly among columns that are
// non-constant in the current sample; with no such column the sample
// cannot be split further and becomes an external node.
func buildNode(sample [][]float64, depth, heightLimit int, rng *rand.Rand) *node {
	n := len(sample)
	if n <= 1 || depth >= heightLimit {
		return &node{Size: n}
	}

	nFeatures := len(sample[0])
	mins := make([]float64, nFeatures)
	maxs := make([]float64, nFeatures)
	copy(mins, sample[0])
	copy(maxs, sample[0])
	for _, row := range sample[1:] {
		for j, v := range row {
			if v < mins[j] {
				mins[j] = v
			}
			if v > maxs[j] {
				maxs[j] = v
			}
		}
	}

	candidates := make([]int, 0, nFeatures)
	for j := 0; j < nFeatures; j++ {
		if mins[j] < maxs[j] {
			candidates = append(candidates, j)
		}
	}
	if len(candidates) == 0 {
		return &node{Size: n}
	}

	feature := candidates[rng.Intn(len(candidates))]
	splitValue := mins[feature] + rng.Float64()*(maxs[feature]-mins[feature])

	var left, right [][]float64
	for _, row := range sample {
		if row[feature] < splitValue {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}

	return &node{
		SplitFeature: feature,
		SplitValue:   splitValue,
		Left:         buildNode(left, depth+1, heightLimit, rng),
		Right:        buildNode(right, depth+1, heightLimit, rng),
	}
}

// Score returns decision-function values for the given samples.
func (f *IsolationForest) Score(data [][]float64) ([]float64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.trained {
		return nil, ErrNotTrained
	}

	scores := make([]float64, len(data))
	for i, sample := range data {
		scores[i] = f.scoreOne(sample)
	}
	return scores, nil
}

// ScoreOne returns the decision-function value for a single sample.
func (f *IsolationForest) ScoreOne(sample []float64) (float64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.trained {
		return 0, ErrNotTrained
	}
	return f.scoreOne(sample), nil
}

func (f *IsolationForest) scoreOne(sample []float64) float64 {
	var total float64
	for _, t := range f.trees {
		total += pathLength(sample, t.Root, 0)
	}
	avgPath := total / float64(len(f.trees))

	return avgPath - f.refLength
}

// pathLength descends the tree following the split rules until reaching
// an external node, then adds the expected path length for the points
// that landed there during training.
func pathLength(sample []float64, n *node, depth int) float64 {
	if n.Left == nil && n.Right == nil {
		return float64(depth) + expectedPathLength(float64(n.Size))
	}

	if sample[n.SplitFeature] < n.SplitValue {
		return pathLength(sample, n.Left, depth+1)
	}
	return pathLength(sample, n.Right, depth+1)
}

// expectedPathLength returns c(n), the average path length of an
// unsuccessful search in a random binary tree over n points:
// c(n) = 2·(ln(n-1) + γ) − 2·(n-1)/n, with c(n) = 0 for n ≤ 1.
func expectedPathLength(n float64) float64 {
	if n <= 1 {
		return 0
	}
	return 2*(math.Log(n-1)+eulerMascheroni) - 2*(n-1)/n
}

// Calibrate returns the operating threshold: the value at the
// contamination·100-th percentile of scores, with linear interpolation
// between order statistics. Training scores below it are flagged at
// roughly the contamination rate.
func Calibrate(scores []float64, contamination float64) float64 {
	if len(scores) == 0 {
		return 0
	}

	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)

	rank := contamination * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Threshold returns the calibrated anomaly threshold.
func (f *IsolationForest) Threshold() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.threshold
}

// TrainingStats returns the training-score distribution summary.
func (f *IsolationForest) TrainingStats() Stats {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.stats
}

// Trees returns the ensemble size.
func (f *IsolationForest) Trees() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.nTrees
}

func summarize(scores []float64) Stats {
	s := Stats{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, v := range scores {
		s.Mean += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Mean /= float64(len(scores))

	var sq float64
	for _, v := range scores {
		d := v - s.Mean
		sq += d * d
	}
	s.Std = math.Sqrt(sq / float64(len(scores)))
	return s
}

// forestState is the gob-serialized form of a trained forest.
type forestState struct {
	NTrees        int
	SampleSize    int
	Contamination float64
	Seed          int64
	RefLength     float64
	Threshold     float64
	Stats         Stats
	Trees         []*tree
}

// Save serializes the trained model.
func (f *IsolationForest) Save() ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.trained {
		return nil, ErrNotTrained
	}

	var buf bytes.Buffer
	state := forestState{
		NTrees:        f.nTrees,
		SampleSize:    f.sampleSize,
		Contamination: f.contamination,
		Seed:          f.seed,
		RefLength:     f.refLength,
		Threshold:     f.threshold,
		Stats:         f.stats,
		Trees:         f.trees,
	}
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Load deserializes a trained model.
func (f *IsolationForest) Load(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var state forestState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return err
	}

	f.nTrees = state.NTrees
	f.sampleSize = state.SampleSize
	f.contamination = state.Contamination
	f.seed = state.Seed
	f.refLength = state.RefLength
	f.threshold = state.Threshold
	f.stats = state.Stats
	f.trees = state.Trees
	f.trained = true

	return nil
}
