// Package urlrating rebuilds the rating history of a single url.
package urlrating

import (
	"maps"
	"slices"
	"time"

	"go.uber.org/zap"

	"riskmap/internal/domain"
	"riskmap/internal/services/severity"
	"riskmap/internal/services/timeline"
)

const repeatedFinding = "Repeated finding. The same service was already rated on another address of this url, " +
	"which happens with multiple addresses or load balancing."

// Options tune the reconstruction.
type Options struct {
	// ExplainAt pins the instant at which comply-or-explain validity is
	// judged. The zero value judges every snapshot at its own moment.
	ExplainAt time.Time
}

// carried is the last known classified event for an (endpoint, type) or a
// url-level type. The event is classified once, when it arrives.
type carried struct {
	event   domain.ScanEvent
	finding domain.Finding
}

// State is the fold state between two days. Step never mutates the state
// it is given.
type State struct {
	relevant map[int64]struct{}
	carry    map[int64]map[domain.ScanType]carried
	urlCarry map[domain.ScanType]carried
	last     *domain.UrlCalculation

	Rated      bool
	Terminated bool
	Dormant    bool
}

func NewState() State {
	return State{
		relevant: map[int64]struct{}{},
		carry:    map[int64]map[domain.ScanType]carried{},
		urlCarry: map[domain.ScanType]carried{},
	}
}

func (s State) clone() State {
	out := s
	out.relevant = maps.Clone(s.relevant)
	out.carry = make(map[int64]map[domain.ScanType]carried, len(s.carry))
	for id, types := range s.carry {
		out.carry[id] = maps.Clone(types)
	}
	out.urlCarry = maps.Clone(s.urlCarry)
	return out
}

// Last is the calculation of the most recent emitted snapshot.
func (s State) Last() (domain.UrlCalculation, bool) {
	if s.last == nil {
		return domain.UrlCalculation{}, false
	}
	return *s.last, true
}

type Reconstructor struct {
	logger *zap.Logger
	opts   Options
}

func NewReconstructor(logger *zap.Logger, opts Options) *Reconstructor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconstructor{logger: logger, opts: opts}
}

// Result is the outcome of walking a whole timeline.
type Result struct {
	Ratings []domain.UrlRating
	Final   State
}

// Reconstruct walks the timeline in order and returns one snapshot per day
// on which the calculation changed.
func (r *Reconstructor) Reconstruct(tl timeline.Timeline) Result {
	s := NewState()
	var out []domain.UrlRating
	for _, day := range tl.Days {
		var rating *domain.UrlRating
		s, rating = r.Step(tl, s, day)
		if rating != nil {
			out = append(out, *rating)
		}
		if s.Terminated {
			break
		}
	}
	return Result{Ratings: out, Final: s}
}

// Step applies one day to the state and returns the snapshot to persist, if
// the day changed the calculation.
func (r *Reconstructor) Step(tl timeline.Timeline, s State, day timeline.Day) (State, *domain.UrlRating) {
	if s.Terminated {
		return s, nil
	}
	next := s.clone()

	if day.Terminal() && !s.Dormant {
		if day.UrlUnresolvable && !day.UrlDied && !tl.Url.NotResolvable {
			next.Dormant = true
		} else {
			next.Terminated = true
		}
		if !s.Rated {
			return next, nil
		}
		closing := domain.UrlCalculation{Url: tl.Url.Url, Endpoints: []domain.EndpointCalculation{}, Findings: []domain.Finding{}}
		return r.emit(tl, next, day, closing)
	}

	r.apply(tl, &next, day)
	if next.Dormant {
		if !day.UrlRevived {
			return next, nil
		}
		next.Dormant = false
	}
	return r.emit(tl, next, day, r.calculate(tl, next, r.evaluateAt(day)))
}

// apply folds the day's scans and deaths into the carry-forward state.
// A dormant url keeps its state current so it resumes correctly.
func (r *Reconstructor) apply(tl timeline.Timeline, next *State, day timeline.Day) {
	seen := map[int64]struct{}{}
	for _, ev := range day.EndpointScans {
		seen[ev.EntityID] = struct{}{}
		f, ok := r.classify(tl, ev, day)
		types := next.carry[ev.EntityID]
		if types == nil {
			types = map[domain.ScanType]carried{}
			next.carry[ev.EntityID] = types
		}
		if !ok {
			delete(types, ev.Type)
			continue
		}
		types[ev.Type] = carried{event: ev, finding: f}
	}
	for _, ev := range day.UrlScans {
		f, ok := r.classify(tl, ev, day)
		if !ok {
			delete(next.urlCarry, ev.Type)
			continue
		}
		next.urlCarry[ev.Type] = carried{event: ev, finding: f}
	}

	for id := range seen {
		next.relevant[id] = struct{}{}
	}
	for _, id := range day.Died {
		delete(next.relevant, id)
		delete(next.carry, id)
	}
	for id := range next.relevant {
		if !day.Alive[id] {
			delete(next.relevant, id)
			delete(next.carry, id)
		}
	}
}

func (r *Reconstructor) emit(tl timeline.Timeline, next State, day timeline.Day, calc domain.UrlCalculation) (State, *domain.UrlRating) {
	if next.last != nil && domain.SameUrlCalculation(*next.last, calc) {
		return next, nil
	}
	next.last = &calc
	next.Rated = true
	return next, &domain.UrlRating{
		UrlID:       tl.Url.ID,
		Moment:      day.Moment,
		High:        calc.High,
		Medium:      calc.Medium,
		Low:         calc.Low,
		Calculation: calc,
	}
}

func (r *Reconstructor) evaluateAt(day timeline.Day) time.Time {
	if !r.opts.ExplainAt.IsZero() {
		return r.opts.ExplainAt
	}
	return day.Moment
}

func (r *Reconstructor) classify(tl timeline.Timeline, ev domain.ScanEvent, day timeline.Day) (domain.Finding, bool) {
	f, err := severity.Classify(ev, r.evaluateAt(day))
	if err != nil {
		r.logger.Warn("skipping finding",
			zap.Int64("url_id", tl.Url.ID),
			zap.Int64("scan_id", ev.ID),
			zap.String("scan_type", string(ev.Type)),
			zap.Error(err),
		)
		return domain.Finding{}, false
	}
	return f, true
}

// refresh re-judges the comply-or-explain window of a carried finding.
func refresh(f domain.Finding, at time.Time) domain.Finding {
	if f.IsExplained && f.ExplainedValidUntil != nil {
		f.ValidAtTimeOfReport = f.ExplainedValidUntil.After(at)
	}
	return f
}

func explained(f domain.Finding) domain.Severity {
	if f.ValidAtTimeOfReport {
		return f.Severity
	}
	return domain.Severity{}
}

type labelType struct {
	label domain.Label
	typ   domain.ScanType
}

func (r *Reconstructor) calculate(tl timeline.Timeline, s State, at time.Time) domain.UrlCalculation {
	calc := domain.UrlCalculation{
		Url:       tl.Url.Url,
		Endpoints: []domain.EndpointCalculation{},
		Findings:  []domain.Finding{},
	}

	// the lowest endpoint id of a label rates it, the others repeat it
	given := map[labelType]bool{}
	for _, id := range slices.Sorted(maps.Keys(s.relevant)) {
		types := s.carry[id]
		if len(types) == 0 {
			continue
		}
		ep := tl.Endpoints[id]
		ec := domain.EndpointCalculation{
			ID:        ep.ID,
			IP:        ep.IP,
			IPVersion: ep.IPVersion,
			Port:      ep.Port,
			Protocol:  ep.Protocol,
			Findings:  make([]domain.Finding, 0, len(types)),
		}
		for _, typ := range slices.Sorted(maps.Keys(types)) {
			f := refresh(types[typ].finding, at)
			key := labelType{label: ep.Label(), typ: typ}
			if given[key] {
				f.Severity = domain.Severity{}
				f.Explanation = repeatedFinding
				f.ValidAtTimeOfReport = false
			}
			given[key] = true
			ec.Severity = ec.Severity.Add(f.Severity)
			ec.Explained = ec.Explained.Add(explained(f))
			ec.Findings = append(ec.Findings, f)
		}
		domain.SortFindings(ec.Findings)
		calc.Severity = calc.Severity.Add(ec.Severity)
		calc.Explained = calc.Explained.Add(ec.Explained)
		calc.Endpoints = append(calc.Endpoints, ec)
	}

	for _, typ := range slices.Sorted(maps.Keys(s.urlCarry)) {
		f := refresh(s.urlCarry[typ].finding, at)
		calc.Severity = calc.Severity.Add(f.Severity)
		calc.Explained = calc.Explained.Add(explained(f))
		calc.Findings = append(calc.Findings, f)
	}
	domain.SortFindings(calc.Findings)
	domain.SortEndpoints(calc.Endpoints)
	return calc
}
