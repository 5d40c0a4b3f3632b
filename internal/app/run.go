package app

import (
	"context"
	"fmt"

	"github.com/vk/gfxprobe/internal/builder"
	"github.com/vk/gfxprobe/internal/capture"
	"github.com/vk/gfxprobe/internal/ctxlog"
	"github.com/vk/gfxprobe/internal/executor"
	"github.com/vk/gfxprobe/internal/hal"
	"github.com/vk/gfxprobe/internal/report"
	"github.com/vk/gfxprobe/internal/resolve"
	"github.com/vk/gfxprobe/internal/schema"
	"github.com/vk/gfxprobe/internal/scene"
)

// Run executes one full harness pass over the configured scene. It returns
// ErrRunFailed when the report contains a non-passing job, and any earlier
// error verbatim when the pipeline never reached execution.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	doc, err := schema.ParsePath(ctx, a.config.ScenePath)
	if err != nil {
		return fmt.Errorf("failed to parse scene: %w", err)
	}
	a.logger.Debug("Scene parsed.", "resources", len(doc.Resources), "jobs", len(doc.Jobs))

	plan, err := resolve.Resolve(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to resolve scene: %w", err)
	}
	a.logger.Debug("Creation plan resolved.", "order", plan.CreationOrder)

	device, err := a.open()
	if err != nil {
		return fmt.Errorf("failed to open backend: %w", err)
	}
	defer func() {
		if err := device.Close(); err != nil {
			a.logger.Error("Backend close failed.", "error", err)
		}
	}()

	handles, err := builder.New(device, a.config.DataDir).Build(ctx, plan)
	if err != nil {
		return fmt.Errorf("failed to build resources: %w", err)
	}
	defer handles.Teardown(ctx)

	a.logger.Info("🚀 Starting job execution.", "jobs", len(doc.Jobs))
	outcomes := executor.New(device, handles).Run(ctx)
	a.logger.Info("🏁 Execution finished.")

	rep := a.verify(ctx, device, handles, outcomes)
	if err := rep.Render(a.outW); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	if !rep.Passed() {
		return ErrRunFailed
	}
	return nil
}

func (a *App) open() (hal.Device, error) {
	if a.openDevice != nil {
		return a.openDevice()
	}
	if a.config.Backend != "" {
		return hal.Open(a.config.Backend)
	}
	return hal.Default()
}

// verify turns execution outcomes into the run report, reading back and
// comparing the expectation of every completed job that declares one.
func (a *App) verify(ctx context.Context, device hal.Device, handles *builder.Handles, outcomes []executor.Outcome) *report.Report {
	verifier := capture.New(device, handles, a.config.DataDir)

	rep := &report.Report{}
	for _, out := range outcomes {
		result := report.JobResult{Name: out.Job.Name, Kind: out.Job.Kind}

		switch out.State {
		case executor.StateSkipped:
			result.Status = report.StatusSkipped
			result.Err = out.Err
		case executor.StateFailed:
			result.Status = report.StatusFailed
			result.Err = out.Err
		case executor.StateComplete:
			result.Status = report.StatusPassed
			if expect := jobExpect(out.Job); expect != nil {
				if err := verifier.Verify(ctx, expect); err != nil {
					a.logger.Error("Expectation failed.", "job", out.Job.Name, "error", err)
					result.Status = report.StatusFailed
					result.Err = err
				}
			}
		}
		rep.Add(result)
	}
	return rep
}

func jobExpect(job *scene.Job) *scene.Expect {
	switch job.Kind {
	case scene.JobGraphics:
		return job.Graphics.Expect
	case scene.JobTransfer:
		return job.Transfer.Expect
	}
	return nil
}
