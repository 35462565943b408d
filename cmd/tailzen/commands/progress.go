package commands

import (
	"io"
	"sync"

	"github.com/cheggaaa/pb/v3"

	"git.home.luguber.info/inful/tailzen/internal/convert"
)

const progressTemplate pb.ProgressBarTemplate = `{{string . "stage" | printf "%-18s"}} {{bar . }} {{counters . }} {{etime . }}`

// convertStages is the number of stages a full conversion reports.
const convertStages = 4

// progressObserver renders stage progress as a terminal bar.
type progressObserver struct {
	bar  *pb.ProgressBar
	once sync.Once
}

var _ convert.Observer = (*progressObserver)(nil)

func newProgressObserver(w io.Writer, stages int) *progressObserver {
	bar := progressTemplate.New(stages)
	bar.SetWriter(w)
	bar.Set("stage", "starting")
	bar.Start()
	return &progressObserver{bar: bar}
}

func (p *progressObserver) OnStageStart(ev convert.StageEvent) {
	p.bar.Set("stage", string(ev.Stage))
}

func (p *progressObserver) OnStageComplete(convert.StageEvent) {
	p.bar.Increment()
}

// Finish stops rendering. Safe to call more than once.
func (p *progressObserver) Finish() {
	p.once.Do(func() { p.bar.Finish() })
}
