// Package demo drives a keyed pool with Vehicle and Tank objects. It is a
// consumer of the pool API and shows the expected put/get behavior.
package demo

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mappool/mappool/pkg/errors"
	"github.com/mappool/mappool/pkg/logger"
	"github.com/mappool/mappool/pkg/pool"
)

// Step is one checked action of the scenario.
type Step struct {
	Action string `json:"action"`
	Key    string `json:"key"`
	Want   bool   `json:"want_present"`
	Got    bool   `json:"got_present"`
	OK     bool   `json:"ok"`
}

// Report is the outcome of a scenario run.
type Report struct {
	Steps  []Step `json:"steps"`
	Passed bool   `json:"passed"`
}

// RunScenario puts one Vehicle and one Tank, then gets each key twice. The
// first get must return the object put under that key and the second must
// find the bucket empty. Handles got from the pool are released.
func RunScenario(ctx context.Context, p pool.Keyed[ObjectType, Object], tr *Tracker) (*Report, error) {
	log := logger.WithContext(ctx).With(zap.String("driver", "scenario"))
	report := &Report{Passed: true}

	put := make(map[ObjectType]*pool.Ref[Object], len(ObjectTypes))
	for _, t := range ObjectTypes {
		ref, err := tr.New(t)
		if err != nil {
			return nil, err
		}
		if err := p.Put(t, ref); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "scenario put failed").
				WithDetail("key", t.String())
		}
		put[t] = ref
		report.add(log, Step{Action: "put", Key: t.String(), Want: true, Got: true, OK: true})
	}

	for _, t := range ObjectTypes {
		for _, want := range []bool{true, false} {
			ref, ok := p.Get(t)
			step := Step{Action: "get", Key: t.String(), Want: want, Got: ok, OK: ok == want}
			if ok {
				if ref != put[t] || ref.Value().Type() != t {
					step.OK = false
				}
				ref.Release()
			}
			report.add(log, step)
		}
	}

	if !report.Passed {
		return report, errors.New(errors.ErrorTypeInternal, "scenario expectations failed")
	}
	return report, nil
}

func (r *Report) add(log *zap.Logger, s Step) {
	r.Steps = append(r.Steps, s)
	if !s.OK {
		r.Passed = false
		log.Warn("unexpected pool result",
			zap.String("action", s.Action),
			zap.String("key", s.Key),
			zap.Bool("want_present", s.Want),
			zap.Bool("got_present", s.Got))
		return
	}
	log.Debug("step ok", zap.String("action", s.Action), zap.String("key", s.Key), zap.Bool("present", s.Got))
}

// String renders a step for console output.
func (s Step) String() string {
	status := "ok"
	if !s.OK {
		status = "FAIL"
	}
	presence := "empty"
	if s.Got {
		presence = "present"
	}
	return fmt.Sprintf("%-4s %-8s %-8s %s", s.Action, s.Key, presence, status)
}
