package experiment

import (
	"context"
	"fmt"

	"github.com/aunum/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samuelfneumann/minidqn/agent"
	env "github.com/samuelfneumann/minidqn/environment"
	"github.com/samuelfneumann/minidqn/experiment/checkpointer"
	"github.com/samuelfneumann/minidqn/experiment/tracker"
	ts "github.com/samuelfneumann/minidqn/timestep"
)

// Online is an Experiment that runs an agent online only. No offline
// evaluation is performed.
//
// On each step of an episode, the agent selects an action, the
// environment is stepped, the resulting transition is stored in the
// agent, and the agent learns from a batch of stored experience once
// it has stored enough. Episodes run until the environment reports
// termination. Any error ends the experiment immediately.
type Online struct {
	env           env.Environment
	agent         agent.Agent
	episodes      int
	batchSize     int
	episode       int // Number of episodes run so far
	trackers      []tracker.Tracker
	checkpointers []checkpointer.Checkpointer
	onEpisode     func(EpisodeResult)
	tracer        trace.Tracer
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given agent. The episodes parameter determines how
// many episodes Run() runs and batchSize is the number of transitions
// used in each learning step. Trackers determine what data is saved and
// checkpointers determine when the agent is saved.
func NewOnline(e env.Environment, a agent.Agent, episodes, batchSize int,
	t []tracker.Tracker, c []checkpointer.Checkpointer) (*Online, error) {
	if e == nil || a == nil {
		return nil, fmt.Errorf("newOnline: environment and agent must not " +
			"be nil")
	}
	if episodes < 1 {
		return nil, fmt.Errorf("newOnline: episodes must be positive"+
			"\n\twant(>0)\n\thave(%v)", episodes)
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("newOnline: batch size must be positive"+
			"\n\twant(>0)\n\thave(%v)", batchSize)
	}

	return &Online{
		env:           e,
		agent:         a,
		episodes:      episodes,
		batchSize:     batchSize,
		trackers:      t,
		checkpointers: c,
		tracer:        otel.Tracer("github.com/samuelfneumann/minidqn/experiment"),
	}, nil
}

// Register registers a tracker.Tracker with an Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// AddCheckpointer adds a checkpointer.Checkpointer which is called at
// the end of every episode
func (o *Online) AddCheckpointer(c checkpointer.Checkpointer) {
	o.checkpointers = append(o.checkpointers, c)
}

// OnEpisode sets a function which is called with the result of every
// finished episode
func (o *Online) OnEpisode(f func(EpisodeResult)) {
	o.onEpisode = f
}

// Agent returns the agent being trained
func (o *Online) Agent() agent.Agent {
	return o.agent
}

// Environment returns the environment the agent is trained on
func (o *Online) Environment() env.Environment {
	return o.env
}

// RunEpisode runs a single episode of the experiment. The context is
// only used to propagate tracing information.
func (o *Online) RunEpisode(ctx context.Context) (EpisodeResult, error) {
	ctx, span := o.tracer.Start(ctx, "Online.RunEpisode", trace.WithAttributes(
		attribute.Int("episode", o.episode),
	))
	defer span.End()

	result, err := o.runEpisode()
	span.SetAttributes(
		attribute.Int("episode.steps", result.Steps),
		attribute.Float64("episode.return", result.TotalReward),
		attribute.Float64("agent.epsilon", result.Epsilon),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}

	o.episode++
	if err := o.checkpoint(ctx, result.Episode); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}

	return result, nil
}

// runEpisode runs the agent-environment interaction loop for a single
// episode
func (o *Online) runEpisode() (EpisodeResult, error) {
	result := EpisodeResult{Episode: o.episode}

	state := o.env.Reset()
	o.track(ts.New(ts.First, 0, state, 0))

	done := o.env.IsDone()
	for !done {
		action, err := o.agent.SelectAction(state)
		if err != nil {
			return result, fmt.Errorf("runEpisode: episode %v step %v: %w",
				o.episode, result.Steps, err)
		}

		next, reward, terminal := o.env.Step(action)
		result.Steps++
		result.TotalReward += reward

		transition := ts.NewTransition(state, action, reward, next, terminal)
		if err := o.agent.Remember(transition); err != nil {
			return result, fmt.Errorf("runEpisode: episode %v step %v: %w",
				o.episode, result.Steps, err)
		}

		if o.agent.CanLearn(o.batchSize) {
			if err := o.agent.Learn(o.batchSize); err != nil {
				return result, fmt.Errorf("runEpisode: episode %v step %v: %w",
					o.episode, result.Steps, err)
			}
		}

		done = terminal || o.env.IsDone()
		stepType := ts.Mid
		if done {
			stepType = ts.Last
		}
		o.track(ts.New(stepType, reward, next, result.Steps))

		state = next
	}

	if egreedy, ok := o.agent.(agent.EGreedy); ok {
		result.Epsilon = egreedy.Epsilon()
	}
	return result, nil
}

// Run runs the entire experiment for all episodes, logging a summary
// of each episode. Run stops at the first error.
func (o *Online) Run(ctx context.Context) ([]EpisodeResult, error) {
	ctx, span := o.tracer.Start(ctx, "Online.Run", trace.WithAttributes(
		attribute.Int("episodes", o.episodes),
		attribute.Int("batch.size", o.batchSize),
	))
	defer span.End()

	results := make([]EpisodeResult, 0, o.episodes)
	for o.episode < o.episodes {
		result, err := o.RunEpisode(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return results, err
		}

		log.Infof("%v", result)
		results = append(results, result)
		if o.onEpisode != nil {
			o.onEpisode(result)
		}
	}

	return results, nil
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() error {
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}
	return nil
}

// track tracks the current timestep by caching its data in each
// tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tracker := range o.trackers {
		tracker.Track(t)
	}
}

// checkpoint calls each checkpointer at the end of an episode
func (o *Online) checkpoint(ctx context.Context, episode int) error {
	if len(o.checkpointers) == 0 {
		return nil
	}

	_, span := o.tracer.Start(ctx, "Online.checkpoint")
	defer span.End()

	for _, c := range o.checkpointers {
		if err := c.Checkpoint(episode); err != nil {
			return fmt.Errorf("checkpoint: episode %v: %w", episode, err)
		}
	}
	log.Debugf("checkpointed episode %v", episode)
	return nil
}
