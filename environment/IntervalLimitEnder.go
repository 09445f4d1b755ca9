package environment

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/minidqn/timestep"
)

// IntervalLimit implements the Ender interface to end episodes
// whenever a single feature in a feature vector leaves some interval
type IntervalLimit struct {
	intervals []r1.Interval
	indices   []int
}

// NewIntervalLimit creates and returns a new interval limit. Feature
// obsIndices[i] must stay within limits[i].
func NewIntervalLimit(limits []r1.Interval, obsIndices []int) *IntervalLimit {
	if len(limits) != len(obsIndices) {
		panic(fmt.Sprintf("limits length %v should match observation "+
			"indices length %v", len(limits), len(obsIndices)))
	}

	return &IntervalLimit{limits, obsIndices}
}

// End determines whether or not the current episode should be ended.
// If so, End sets the StepType of t to timestep.Last.
func (i *IntervalLimit) End(t *timestep.TimeStep) bool {
	for index, featureIndex := range i.indices {
		interval := i.intervals[index]
		feature := t.Observation.AtVec(featureIndex)

		if feature > interval.Max || feature < interval.Min {
			t.StepType = timestep.Last
			return true
		}
	}
	return false
}
