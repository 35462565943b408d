package convert

import (
	"context"
	"time"

	derrors "git.home.luguber.info/inful/tailzen/internal/foundation/errors"
	"git.home.luguber.info/inful/tailzen/internal/metrics"
)

// stage is one step of the pipeline, named by the state it runs in.
type stage struct {
	state State
	fn    func(ctx context.Context) error
}

// execute validates the reference and runs stages in order, stopping at the
// first error. The context is checked on entry to every stage.
func (r *run) execute(ctx context.Context, stages []stage) error {
	if err := r.ref.Validate(); err != nil {
		_ = r.machine.to(StateFailed)
		return err
	}

	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			_ = r.machine.to(StateCancelled)
			r.complete(st.state, 0, metrics.ResultCanceled, err)
			return derrors.Cancelled(string(st.state), err)
		}
		if err := r.machine.to(st.state); err != nil {
			return derrors.InternalError("conversion pipeline misconfigured").WithCause(err).Build()
		}
		r.observer.OnStageStart(StageEvent{ConversionID: r.id, Repository: r.ref.String(), Stage: st.state})

		t0 := time.Now()
		err := st.fn(ctx)
		dur := time.Since(t0)

		switch {
		case err == nil:
			r.complete(st.state, dur, metrics.ResultSuccess, nil)
		case derrors.IsCancelled(err) || ctx.Err() != nil:
			_ = r.machine.to(StateCancelled)
			r.complete(st.state, dur, metrics.ResultCanceled, err)
			if !derrors.HasCategory(err, derrors.CategoryCanceled) {
				err = derrors.Cancelled(string(st.state), err)
			}
			return err
		default:
			if terr := r.machine.to(StateFailed); terr != nil {
				// Stages past listing are not expected to fail; report what happened.
				err = derrors.InternalError("stage failed unexpectedly").WithCause(err).
					WithContext("stage", string(st.state)).Build()
			}
			r.complete(st.state, dur, metrics.ResultFailed, err)
			return err
		}
	}
	return r.machine.to(StateDone)
}

func (r *run) complete(s State, d time.Duration, result metrics.ResultLabel, err error) {
	r.recorder.ObserveStageDuration(string(s), d)
	r.recorder.IncStageResult(string(s), result)
	r.observer.OnStageComplete(StageEvent{
		ConversionID: r.id,
		Repository:   r.ref.String(),
		Stage:        s,
		Duration:     d,
		Result:       result,
		Err:          err,
	})
}
