package engine

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
	"go.uber.org/zap"
)

// Phase is the encounter phase of the current stage.
type Phase string

const (
	// PhaseRegular: fighting regular enemies toward the boss countdown.
	PhaseRegular Phase = "regular"
	// PhaseBoss: the stage boss is up.
	PhaseBoss Phase = "boss"
	// PhaseCleared: the stage boss has fallen; the next stage is open.
	PhaseCleared Phase = "cleared"
	// PhaseNGPlus: the final boss has fallen; only New Game Plus remains.
	PhaseNGPlus Phase = "ngplus"
)

const (
	evSummonBoss      = "summon_boss"
	evAbortBoss       = "abort_boss"
	evDefeatBoss      = "defeat_boss"
	evDefeatFinalBoss = "defeat_final_boss"
	evEnterStage      = "enter_stage"
	evRetreatStage    = "retreat_stage"
	evStartNGPlus     = "start_ngplus"
)

// ValidPhase reports whether p names a known phase.
func ValidPhase(p Phase) bool {
	switch p {
	case PhaseRegular, PhaseBoss, PhaseCleared, PhaseNGPlus:
		return true
	}
	return false
}

type phaseMachine struct {
	f *fsm.FSM
}

func newPhaseMachine(initial Phase, logger *zap.Logger) *phaseMachine {
	if !ValidPhase(initial) {
		initial = PhaseRegular
	}
	regular, boss, cleared, ngplus := string(PhaseRegular), string(PhaseBoss), string(PhaseCleared), string(PhaseNGPlus)
	f := fsm.NewFSM(
		regular,
		fsm.Events{
			{Name: evSummonBoss, Src: []string{regular}, Dst: boss},
			{Name: evAbortBoss, Src: []string{boss}, Dst: regular},
			{Name: evDefeatBoss, Src: []string{boss}, Dst: cleared},
			{Name: evDefeatFinalBoss, Src: []string{boss}, Dst: ngplus},
			{Name: evEnterStage, Src: []string{regular, cleared}, Dst: regular},
			{Name: evRetreatStage, Src: []string{regular, boss, cleared}, Dst: cleared},
			{Name: evStartNGPlus, Src: []string{ngplus}, Dst: regular},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				logger.Debug("encounter phase changed",
					zap.String("event", e.Event),
					zap.String("from", e.Src),
					zap.String("to", e.Dst),
				)
			},
		},
	)
	f.SetState(string(initial))
	return &phaseMachine{f: f}
}

func (p *phaseMachine) current() Phase {
	return Phase(p.f.Current())
}

// fire applies event. A self-transition is not an error.
func (p *phaseMachine) fire(event string) error {
	err := p.f.Event(context.Background(), event)
	var same fsm.NoTransitionError
	if err != nil && !errors.As(err, &same) {
		return err
	}
	return nil
}
