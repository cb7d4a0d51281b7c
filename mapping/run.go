package mapping

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/AmirHoseinTaherkhani/object-mapping/detect"
)

// Sink receives the accumulated records at the end of a run
type Sink interface {
	Export(ctx context.Context, records []Record, summary Summary) error
}

// RunOptions configure Run
type RunOptions struct {
	// OnFrame is called from a separate goroutine with the result of every
	// frame, in order.  Returning an error stops the run.  May be nil.
	OnFrame func(FrameResult) error
	// Sinks receive all records when the run ends, however it ends
	Sinks []Sink
}

// Run pulls frames from src until it is exhausted or ctx is cancelled,
// processing each in turn.  Frame results are handed to OnFrame through a
// single slot buffer so rendering overlaps with processing of the next frame.
//
// When the run ends, for any reason, all accumulated records are flushed to
// the sinks.  A cancelled run returns the context error.
func (p *Pipeline) Run(ctx context.Context, src detect.Source, opts RunOptions) (err error) {

	defer func() {
		// sinks must still be written after cancellation
		if ferr := p.Flush(context.WithoutCancel(ctx), opts.Sinks); ferr != nil {
			err = errors.Join(err, ferr)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	var results chan FrameResult

	if opts.OnFrame != nil {
		results = make(chan FrameResult, 1)

		g.Go(func() error {
			for res := range results {
				if err := opts.OnFrame(res); err != nil {
					return fmt.Errorf("frame %d: %w", res.Frame, err)
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		if results != nil {
			defer close(results)
		}

		for {
			if err := gctx.Err(); err != nil {
				return err
			}

			f, err := src.Next(gctx)
			if errors.Is(err, io.EOF) {
				return nil
			} else if err != nil {
				return fmt.Errorf("error reading detections: %w", err)
			}

			res, err := p.ProcessFrame(f)
			if err != nil {
				return err
			}

			if results == nil {
				continue
			}

			select {
			case results <- res:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	if err := g.Wait(); err != nil {
		return err
	}

	p.log.Infof("Run complete: %v frames, %v records, %v tracks created",
		p.stats.Frames, p.store.Len(), p.tracker.LastID())

	return nil
}

// Flush writes all accumulated records to every sink, continuing past
// failures and returning them joined
func (p *Pipeline) Flush(ctx context.Context, sinks []Sink) error {

	if len(sinks) == 0 {
		return nil
	}

	records := p.store.Records()
	summary := p.store.Summary()

	var errs []error
	for _, s := range sinks {
		if err := s.Export(ctx, records, summary); err != nil {
			p.log.Errorf("Failed to export records: %v", err)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
