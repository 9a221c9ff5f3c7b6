// Package workflow drives episode generation: plan the subtopics, then write
// and summarize them one at a time until none remain, then emit the result.
//
// The run is a small finite-state machine. Every transition receives the
// current episode.State and the carried step and returns the next state and
// step; nothing else is shared between transitions. Calls are strictly
// sequential because each subtopic depends on the recap of the one before.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"podcaster/internal/domain/episode"
	"podcaster/internal/podcast/llm"
)

// Emitter receives the terminal state.
type Emitter interface {
	Emit(ctx context.Context, st episode.State) error
}

// Request is the input of one run.
type Request struct {
	Topic             string
	ReferenceDocument string
	// Conversation is the original user request, threaded through the
	// planning and generation calls.
	Conversation []llm.Message
}

// Workflow wires the planner, writer, summarizer and emitter together.
type Workflow struct {
	planner    *Planner
	writer     *Writer
	summarizer *Summarizer
	emitter    Emitter

	// OnTransition, when set, observes every phase change.
	OnTransition func(from, to Phase, st episode.State)
}

// New builds a workflow whose generation calls all go through client.
func New(client llm.Client, emitter Emitter) *Workflow {
	return &Workflow{
		planner:    NewPlanner(client),
		writer:     NewWriter(client),
		summarizer: NewSummarizer(client),
		emitter:    emitter,
	}
}

type step struct {
	phase Phase
	draft string
}

type transition func(ctx context.Context, st episode.State, s step) (episode.State, step, error)

type run struct {
	wf  *Workflow
	req Request
	log *logrus.Entry
}

// Run executes the workflow to completion. On failure the partial state is
// returned together with the error and nothing is emitted.
func (w *Workflow) Run(ctx context.Context, req Request) (episode.State, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return episode.State{}, episode.Precondition("run workflow", errors.New("topic is empty"))
	}
	r := &run{
		wf:  w,
		req: req,
		log: logrus.WithFields(logrus.Fields{
			"run_id": uuid.NewString(),
			"topic":  req.Topic,
		}),
	}
	transitions := map[Phase]transition{
		PhasePlanning:    r.plan,
		PhaseRouting:     r.route,
		PhaseGenerating:  r.generate,
		PhaseSummarizing: r.summarize,
		PhaseEmitting:    r.emit,
	}

	st := episode.NewState(req.Topic, req.ReferenceDocument)
	cur := step{phase: PhasePlanning}
	for cur.phase != PhaseDone {
		fn, ok := transitions[cur.phase]
		if !ok {
			return st, fmt.Errorf("workflow: no transition for phase %s", cur.phase)
		}
		next, nextStep, err := fn(ctx, st, cur)
		if err != nil {
			r.log.WithError(err).WithField("phase", cur.phase.String()).Error("episode run aborted")
			return st, err
		}
		if w.OnTransition != nil {
			w.OnTransition(cur.phase, nextStep.phase, next)
		}
		st, cur = next, nextStep
	}
	r.log.WithField("subtopics", len(st.CompletedSubtopics)).Info("episode run finished")
	return st, nil
}

// Route picks the next subtopic: the first planned title not yet completed.
// It has no side effects, so asking twice yields the same answer.
func Route(st episode.State) (string, bool) {
	remaining := st.Remaining()
	if len(remaining) == 0 {
		return "", false
	}
	return remaining[0], true
}

func (r *run) plan(ctx context.Context, st episode.State, _ step) (episode.State, step, error) {
	subtopics, err := r.wf.planner.Plan(ctx, st.Topic, st.ReferenceDocument, r.req.Conversation)
	if err != nil {
		return st, step{}, err
	}
	next := st.WithSubtopics(subtopics)
	entry := r.log.WithField("subtopics", len(subtopics))
	if len(subtopics) == 0 {
		entry.Warn("planner returned no subtopics")
	} else {
		entry.Info("planned subtopics")
	}
	if dups := next.Duplicates(); len(dups) > 0 {
		r.log.WithField("duplicates", dups).Warn("duplicate subtopic titles will be generated once")
	}
	return next, step{phase: PhaseRouting}, nil
}

func (r *run) route(_ context.Context, st episode.State, _ step) (episode.State, step, error) {
	title, ok := Route(st)
	if !ok {
		return st, step{phase: PhaseEmitting}, nil
	}
	r.log.WithFields(logrus.Fields{
		"subtopic":  title,
		"remaining": len(st.Remaining()),
	}).Info("next subtopic")
	return st.WithCurrent(title), step{phase: PhaseGenerating}, nil
}

func (r *run) generate(ctx context.Context, st episode.State, _ step) (episode.State, step, error) {
	text, err := r.wf.writer.Write(ctx, st, r.req.Conversation)
	if err != nil {
		return st, step{}, err
	}
	r.log.WithField("subtopic", st.CurrentSubtopic).WithField("chars", len(text)).Debug("generated subtopic content")
	return st, step{phase: PhaseSummarizing, draft: text}, nil
}

func (r *run) summarize(ctx context.Context, st episode.State, s step) (episode.State, step, error) {
	recap, err := r.wf.summarizer.Summarize(ctx, st.CurrentSubtopic, s.draft)
	if err != nil {
		return st, step{}, err
	}
	next := st.Complete(st.CurrentSubtopic, s.draft, recap)
	if err := next.Validate(); err != nil {
		return st, step{}, err
	}
	r.log.WithField("subtopic", st.CurrentSubtopic).Info("subtopic completed")
	return next, step{phase: PhaseRouting}, nil
}

func (r *run) emit(ctx context.Context, st episode.State, _ step) (episode.State, step, error) {
	if r.wf.emitter != nil {
		if err := r.wf.emitter.Emit(ctx, st); err != nil {
			return st, step{}, err
		}
	}
	return st, step{phase: PhaseDone}, nil
}
