package game

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// RunHeadless runs frames with a fixed time step until maxFrames is reached
// (0 = unlimited) or ctx is cancelled. Stats windows are sampled on the frame
// goroutine and written by a second goroutine so CSV I/O never stalls a frame.
// Cancellation is a clean stop, not an error.
func (g *Game) RunHeadless(ctx context.Context, maxFrames int64) error {
	records := make(chan record, 4)
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		defer close(records)
		for maxFrames <= 0 || g.pipeline.Frames() < maxFrames {
			if err := g.pipeline.Frame(ctx, g.frameInput(g.frameElapsed)); err != nil {
				return err
			}
			g.collector.RecordFrame(g.paused)

			rec, ok := g.sampleTelemetry()
			if !ok {
				continue
			}
			select {
			case records <- rec:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		slog.Info("max frames reached", "frame", g.pipeline.Frames())
		return nil
	})

	eg.Go(func() error {
		for rec := range records {
			if err := g.writeRecord(rec); err != nil {
				return err
			}
		}
		return nil
	})

	err := eg.Wait()
	if errors.Is(err, context.Canceled) {
		slog.Info("headless run interrupted", "frame", g.pipeline.Frames())
		return nil
	}
	return err
}
