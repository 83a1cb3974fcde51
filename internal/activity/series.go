package activity

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/i474232898/fish-activity/internal/weather"
)

// Point is one successfully scored hour of a series.
// Index is the position of the observation in the input sequence.
type Point struct {
	Index       int                 `json:"index"`
	Observation weather.Observation `json:"observation"`
	Breakdown   Breakdown           `json:"breakdown"`
}

// Failure is an hour that could not be scored.
type Failure struct {
	Index       int
	Observation weather.Observation
	Err         error
}

func (f Failure) Error() string {
	return fmt.Sprintf("hour %d (%s): %v", f.Index, f.Observation.Timestamp.Format("2006-01-02T15:04"), f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Series is the scored form of an hourly forecast for one species.
// Points and Failures are both ordered by Index.
type Series struct {
	Species  Species   `json:"species"`
	Points   []Point   `json:"points"`
	Failures []Failure `json:"-"`
}

// Err joins every failure, or returns nil when all hours were scored.
func (s Series) Err() error {
	if len(s.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(s.Failures))
	for i, f := range s.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// ScoreSeries scores every observation for species s, preserving input order.
// A failing hour does not stop the others.
func ScoreSeries(obs []weather.Observation, s Species) Series {
	results := make([]scored, len(obs))
	for i := range obs {
		results[i] = scoreOne(i, obs[i], s)
	}
	return collect(s, results)
}

// ScoreSeriesParallel is ScoreSeries spread over at most workers goroutines.
// The result is identical to ScoreSeries.
func ScoreSeriesParallel(obs []weather.Observation, s Species, workers int) Series {
	if workers <= 1 || len(obs) < 2 {
		return ScoreSeries(obs, s)
	}

	results := make([]scored, len(obs))

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range obs {
		g.Go(func() error {
			results[i] = scoreOne(i, obs[i], s)
			return nil
		})
	}
	_ = g.Wait()

	return collect(s, results)
}

type scored struct {
	point Point
	err   error
}

func scoreOne(i int, o weather.Observation, s Species) scored {
	b, err := Explain(o, s)
	return scored{
		point: Point{Index: i, Observation: o, Breakdown: b},
		err:   err,
	}
}

func collect(s Species, results []scored) Series {
	series := Series{Species: s, Points: make([]Point, 0, len(results))}
	for _, r := range results {
		if r.err != nil {
			series.Failures = append(series.Failures, Failure{
				Index:       r.point.Index,
				Observation: r.point.Observation,
				Err:         r.err,
			})
			continue
		}
		series.Points = append(series.Points, r.point)
	}
	return series
}

// Between keeps the hours whose wall-clock hour is within [fromHour, toHour].
func (s Series) Between(fromHour, toHour int) Series {
	out := Series{Species: s.Species, Points: make([]Point, 0, len(s.Points))}
	in := func(o weather.Observation) bool {
		h := o.Timestamp.Hour()
		return h >= fromHour && h <= toHour
	}
	for _, p := range s.Points {
		if in(p.Observation) {
			out.Points = append(out.Points, p)
		}
	}
	for _, f := range s.Failures {
		if in(f.Observation) {
			out.Failures = append(out.Failures, f)
		}
	}
	return out
}

// HourScore is a single chart point.
type HourScore struct {
	Hour  int     `json:"hour"`
	Score float64 `json:"score"`
}

// DailySeries is one line of the activity chart: the scores of a calendar day by hour.
type DailySeries struct {
	Date   string      `json:"date"`
	Points []HourScore `json:"points"`
}

// ByDate groups the scored hours by calendar date (YYYY-MM-DD), in order of first appearance.
func (s Series) ByDate() []DailySeries {
	var out []DailySeries
	idx := make(map[string]int)
	for _, p := range s.Points {
		date := p.Observation.Timestamp.Format("2006-01-02")
		i, ok := idx[date]
		if !ok {
			i = len(out)
			idx[date] = i
			out = append(out, DailySeries{Date: date})
		}
		out[i].Points = append(out[i].Points, HourScore{
			Hour:  p.Observation.Timestamp.Hour(),
			Score: p.Breakdown.Score,
		})
	}
	return out
}
