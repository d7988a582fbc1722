package commands

import (
	"context"
	"errors"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/resolverank/resolverank/internal/core/config"
	"github.com/resolverank/resolverank/internal/core/pipeline"
	"github.com/resolverank/resolverank/internal/steps"
	"github.com/resolverank/resolverank/internal/tui"
)

// statusReportingStep wraps a step and forwards its lifecycle to the TUI.
type statusReportingStep struct {
	inner      pipeline.Step
	statusChan chan<- tui.PipelineStatusMsg
}

func (s *statusReportingStep) Name() string {
	return s.inner.Name()
}

func (s *statusReportingStep) Run(ctx *pipeline.Context) error {
	s.statusChan <- tui.PipelineStatusMsg{Step: s.Name(), Status: "started"}

	err := s.inner.Run(ctx)
	if err != nil {
		if errors.Is(err, pipeline.ErrSkipPipeline) {
			s.statusChan <- tui.PipelineStatusMsg{Step: s.Name(), Status: "skipped", Message: ctx.Result.SkipReason}
			return err
		}
		s.statusChan <- tui.PipelineStatusMsg{Step: s.Name(), Status: "error", Message: err.Error()}
		return err
	}

	s.statusChan <- tui.PipelineStatusMsg{Step: s.Name(), Status: "success"}
	return nil
}

// runPipeline builds and runs the pipeline, forwarding the final report to
// the TUI program (or stdout when p is nil, the CI path).
func runPipeline(p *tea.Program, deps *pipeline.Dependencies, stepNames []string, issue *pipeline.Issue, cfg *config.Config, statusChan chan tui.PipelineStatusMsg) {
	defer close(statusChan)

	pCtx := pipeline.NewContext(context.Background(), issue, cfg)

	registry := pipeline.NewRegistry()
	steps.RegisterAll(registry)

	built, err := registry.BuildFromNames(stepNames, deps)
	if err != nil {
		emitResult(p, statusChan, tui.ResultMsg{Success: false, Output: err.Error()})
		return
	}

	wrapped := make([]pipeline.Step, 0, len(built.Steps()))
	for _, step := range built.Steps() {
		wrapped = append(wrapped, &statusReportingStep{inner: step, statusChan: statusChan})
	}

	if err := pipeline.New(wrapped...).Run(pCtx); err != nil {
		emitResult(p, statusChan, tui.ResultMsg{Success: false, Output: err.Error()})
		return
	}

	output := pCtx.Result.Report
	if pCtx.Result.Skipped {
		output = "skipped: " + pCtx.Result.SkipReason
	}
	emitResult(p, statusChan, tui.ResultMsg{Success: true, Output: output})
}

// emitResult routes the final message to the TUI when present, stdout-style
// logging otherwise.
func emitResult(p *tea.Program, statusChan chan tui.PipelineStatusMsg, msg tui.ResultMsg) {
	if p != nil {
		p.Send(msg)
		return
	}
	if msg.Success {
		log.Printf("[recommend] done\n%s", msg.Output)
	} else {
		log.Printf("[recommend] failed: %s", msg.Output)
	}
}
