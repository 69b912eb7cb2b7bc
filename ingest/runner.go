package ingest

import (
	"fmt"
	"sync"

	"github.com/openfinality/chainquery/db"
	"github.com/openfinality/chainquery/events"
	"github.com/openfinality/chainquery/exception"
	"github.com/openfinality/chainquery/logx"
	"github.com/openfinality/chainquery/store"
)

// Runner drains a consensus event stream into a data source. Every event is
// applied in its own write transaction: commit on success, revert when the
// update reports a fatal error. Fatal errors are handed to onError and the
// runner moves on to the next event.
type Runner struct {
	source   db.DataSource
	updater  *Updater
	events   <-chan events.ConsensusEvent
	onError  func(error)
	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewRunner(source db.DataSource, updater *Updater, eventCh <-chan events.ConsensusEvent, onError func(error)) *Runner {
	return &Runner{
		source:  source,
		updater: updater,
		events:  eventCh,
		onError: onError,
		quit:    make(chan struct{}),
	}
}

func (r *Runner) Start() {
	r.wg.Add(1)
	exception.SafeGo("ingest-runner", r.loop)
}

// Stop shuts the runner down and waits for the in-flight event to finish.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		close(r.quit)
	})
	r.wg.Wait()
}

func (r *Runner) loop() {
	defer r.wg.Done()
	for {
		select {
		case <-r.quit:
			return
		case event, ok := <-r.events:
			if !ok {
				return
			}
			r.apply(event)
		}
	}
}

func (r *Runner) apply(event events.ConsensusEvent) {
	tx, err := r.source.BeginWrite()
	if err != nil {
		r.fail(fmt.Errorf("failed to begin update transaction: %w", err))
		return
	}

	st := store.NewAvailabilityStore(tx)
	report, err := r.updater.HandleEvent(st, event)
	if err != nil {
		tx.Revert()
		r.fail(fmt.Errorf("failed to apply event at view %d: %w", event.View(), err))
		return
	}

	if err := tx.Commit(); err != nil {
		r.fail(fmt.Errorf("failed to commit update at view %d: %w", event.View(), err))
		return
	}

	if report.Leaves > 0 {
		logx.Info("INGEST", fmt.Sprintf("Applied decide | view=%d | leaves=%d | anomalies=%d", event.View(), report.Leaves, len(report.Anomalies)))
	}
}

func (r *Runner) fail(err error) {
	logx.Error("INGEST", err.Error())
	if r.onError != nil {
		r.onError(err)
	}
}
