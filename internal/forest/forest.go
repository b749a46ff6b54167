// Package forest implements the randomized interval-forest construction and
// inference engine. Each ensemble member samples random sub-intervals of the
// input series, extracts a battery of numeric characteristics per interval,
// fits a base learner on the derived table, and predictions are averaged
// across members. Construction runs under either a fixed member count or a
// wall-clock contract, sequentially or across a bounded worker pool, with
// deterministic per-member seeding either way.
package forest

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"intervalforest/internal/series"
)

type state int

const (
	stateUnfit state = iota
	stateBuilding
	stateFit
	stateFitFailed
)

// Forest is the interval-forest regressor. Construct with New, then Fit and
// Predict. A successful Fit publishes an immutable model; a later Fit
// supersedes it wholesale. Predict is safe for concurrent use once fitted.
type Forest struct {
	cfg     Config
	tracker Tracker

	mu    sync.RWMutex
	state state
	model *model
}

// model is the immutable result of one successful fit call.
type model struct {
	members        []*Member
	nCases         int
	nChannels      int
	nTimepoints    int
	totalIntervals int
	fixedLength    bool
	seed           int64
	builtAt        time.Time
	buildDuration  time.Duration
}

// Geometry describes a fitted model for callers that report or validate
// against it.
type Geometry struct {
	NCases         int           `json:"n_cases"`
	NChannels      int           `json:"n_channels"`
	NTimepoints    int           `json:"n_timepoints"`
	TotalIntervals int           `json:"total_intervals"`
	NMembers       int           `json:"n_members"`
	FixedLength    bool          `json:"fixed_length"`
	Seed           int64         `json:"seed"`
	BuildDuration  time.Duration `json:"build_duration"`
}

// New validates the configuration eagerly and returns an unfitted forest.
func New(cfg Config) (*Forest, error) {
	resolved := cfg.withDefaults()
	if err := resolved.validate(); err != nil {
		return nil, err
	}
	tracker := resolved.Tracker
	if tracker == nil {
		tracker = noopTracker{}
	}
	return &Forest{cfg: resolved, tracker: tracker}, nil
}

// Fit builds the ensemble on the given batch and targets. Geometry bounds are
// resolved once per call; members are then built in batches sized to the
// configured parallelism. With a time limit set, the budget is checked only
// at batch boundaries and at least one member is always built. Context
// cancellation is likewise honoured at batch boundaries; in-flight builds run
// to completion.
func (f *Forest) Fit(ctx context.Context, batch series.Batch, targets []float64) error {
	if err := batch.Validate(); err != nil {
		return configErrorf("invalid batch: %v", err)
	}
	if len(targets) != batch.NCases() {
		return configErrorf("%d cases but %d targets", batch.NCases(), len(targets))
	}

	cfg := f.cfg
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	views := make([]series.Batch, len(cfg.Views))
	viewTimepoints := make([]int, len(cfg.Views))
	for i, v := range cfg.Views {
		views[i] = v.Apply(batch)
		viewTimepoints[i] = views[i].MinTimepoints()
	}

	geos, err := resolveGeometry(&cfg, viewTimepoints, batch.NChannels())
	if err != nil {
		return err
	}
	totalIntervals := 0
	for _, g := range geos {
		totalIntervals += g.count
	}

	f.setState(stateBuilding)

	target := cfg.NEstimators
	contracted := cfg.TimeLimit > 0
	if contracted {
		target = cfg.ContractMaxEstimators
	}
	par := cfg.parallelism()

	log.Info().
		Int("target", target).
		Bool("contracted", contracted).
		Int("n_jobs", par).
		Int("total_intervals", totalIntervals).
		Int("n_cases", batch.NCases()).
		Msg("interval forest fit started")

	start := time.Now()
	members := make([]*Member, 0, target)
	nextIndex := 0
	topUpBudget := target
	var firstBuildErr error

	for len(members) < target {
		batchSize := par
		if remaining := target - len(members); batchSize > remaining {
			batchSize = remaining
		}

		built, failed, err := f.buildBatch(&cfg, geos, views, targets, nextIndex, batchSize)
		nextIndex += batchSize
		members = append(members, built...)
		if err != nil && firstBuildErr == nil {
			firstBuildErr = err
		}

		// Top up failed slots with fresh candidate members, bounded so a
		// persistently failing learner cannot loop forever.
		for failed > 0 && topUpBudget > 0 {
			n := failed
			if n > topUpBudget {
				n = topUpBudget
			}
			extra, stillFailed, _ := f.buildBatch(&cfg, geos, views, targets, nextIndex, n)
			nextIndex += n
			topUpBudget -= n
			members = append(members, extra...)
			failed = stillFailed
		}

		if len(members) == 0 {
			f.setState(stateFitFailed)
			log.Error().Err(firstBuildErr).Msg("interval forest fit failed: no members built")
			return firstBuildErr
		}

		elapsed := time.Since(start)
		if cfg.OnProgress != nil {
			cfg.OnProgress(Progress{MembersBuilt: len(members), Target: target, Elapsed: elapsed})
		}
		if contracted && elapsed >= cfg.TimeLimit {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if failed > 0 {
			// Top-up budget exhausted; proceed with what we have.
			log.Warn().Int("members", len(members)).Msg("member top-up budget exhausted")
			break
		}
	}

	m := &model{
		members:        members,
		nCases:         batch.NCases(),
		nChannels:      batch.NChannels(),
		nTimepoints:    batch.MinTimepoints(),
		totalIntervals: totalIntervals,
		fixedLength:    batch.EqualLength(),
		seed:           cfg.Seed,
		builtAt:        time.Now(),
		buildDuration:  time.Since(start),
	}

	f.mu.Lock()
	f.model = m
	f.state = stateFit
	f.mu.Unlock()

	if cfg.OnProgress != nil {
		cfg.OnProgress(Progress{MembersBuilt: len(members), Target: target, Elapsed: m.buildDuration, Done: true})
	}
	log.Info().
		Int("members", len(members)).
		Dur("elapsed", m.buildDuration).
		Msg("interval forest fit complete")
	return nil
}

// buildBatch dispatches up to batchSize member builds concurrently and
// reassembles results in submission order. Each goroutine writes only its own
// slot, so no locking is needed.
func (f *Forest) buildBatch(cfg *Config, geos []viewGeometry, views []series.Batch, targets []float64, firstIndex, batchSize int) (built []*Member, failed int, firstErr error) {
	results := make([]*Member, batchSize)
	errs := make([]error, batchSize)

	var wg sync.WaitGroup
	for w := 0; w < batchSize; w++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			m, err := buildMember(firstIndex+slot, cfg, geos, views, targets, f.tracker)
			results[slot] = m
			errs[slot] = err
		}(w)
	}
	wg.Wait()

	for slot := 0; slot < batchSize; slot++ {
		if errs[slot] != nil {
			failed++
			if firstErr == nil {
				firstErr = errs[slot]
			}
			log.Warn().Err(errs[slot]).Int("member", firstIndex+slot).Msg("member build failed")
			continue
		}
		built = append(built, results[slot])
	}
	return built, failed, firstErr
}

// Predict returns the uniform average of all members' predictions, one value
// per case.
func (f *Forest) Predict(batch series.Batch) ([]float64, error) {
	perMember, err := f.PredictPerMember(batch)
	if err != nil {
		return nil, err
	}
	nCases := batch.NCases()
	out := make([]float64, nCases)
	for _, preds := range perMember {
		for c, v := range preds {
			out[c] += v
		}
	}
	for c := range out {
		out[c] /= float64(len(perMember))
	}
	f.tracker.PredictionsServed(nCases)
	return out, nil
}

// PredictPerMember exposes each member's unweighted predictions (rows =
// members in build order, columns = cases) so external weighting wrappers can
// recombine them.
func (f *Forest) PredictPerMember(batch series.Batch) ([][]float64, error) {
	f.mu.RLock()
	m := f.model
	st := f.state
	f.mu.RUnlock()
	if st != stateFit {
		return nil, ErrNotFitted
	}

	if err := batch.Validate(); err != nil {
		return nil, configErrorf("invalid batch: %v", err)
	}
	if batch.NChannels() != m.nChannels {
		return nil, &ShapeMismatchError{Field: "channel count", Want: m.nChannels, Got: batch.NChannels()}
	}
	if m.fixedLength {
		for i, c := range batch {
			for _, ch := range c {
				if len(ch) != m.nTimepoints {
					return nil, &ShapeMismatchError{Field: "timepoint count", Want: m.nTimepoints, Got: len(batch[i][0])}
				}
			}
		}
	}

	views := make([]series.Batch, len(f.cfg.Views))
	for i, v := range f.cfg.Views {
		views[i] = v.Apply(batch)
	}

	out := make([][]float64, len(m.members))
	par := f.cfg.parallelism()
	sem := make(chan struct{}, par)
	var wg sync.WaitGroup
	for i, member := range m.members {
		wg.Add(1)
		sem <- struct{}{}
		go func(slot int, mem *Member) {
			defer wg.Done()
			out[slot] = mem.predict(views, f.cfg.ReplaceNaN, f.tracker)
			<-sem
		}(i, member)
	}
	wg.Wait()
	return out, nil
}

// NumMembers returns the fitted member count, or 0 before a successful fit.
func (f *Forest) NumMembers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.model == nil {
		return 0
	}
	return len(f.model.members)
}

// Members returns the fitted members in build order for inspection. The
// returned slice is a copy; members themselves are immutable.
func (f *Forest) Members() []*Member {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.model == nil {
		return nil
	}
	out := make([]*Member, len(f.model.members))
	copy(out, f.model.members)
	return out
}

// ModelInfo reports the fitted geometry.
func (f *Forest) ModelInfo() (Geometry, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.state != stateFit {
		return Geometry{}, ErrNotFitted
	}
	m := f.model
	return Geometry{
		NCases:         m.nCases,
		NChannels:      m.nChannels,
		NTimepoints:    m.nTimepoints,
		TotalIntervals: m.totalIntervals,
		NMembers:       len(m.members),
		FixedLength:    m.fixedLength,
		Seed:           m.seed,
		BuildDuration:  m.buildDuration,
	}, nil
}

func (f *Forest) setState(s state) {
	f.mu.Lock()
	f.state = s
	if s == stateBuilding || s == stateFitFailed {
		f.model = nil
	}
	f.mu.Unlock()
}
