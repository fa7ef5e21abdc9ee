// Package job hosts the background scheduler that retrains the return model
// once a day.
package job

import (
	"context"
	"log"
	"time"

	"return-radar/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type PipelineRunner interface {
	Run(ctx context.Context) (*domain.RunSummary, error)
}

type RetrainJob struct {
	tracer    trace.Tracer
	runner    PipelineRunner
	trainHour int
}

func NewRetrainJob(tracer trace.Tracer, runner PipelineRunner, trainHourUTC int) *RetrainJob {
	if trainHourUTC < 0 || trainHourUTC > 23 {
		trainHourUTC = 0
	}
	return &RetrainJob{tracer: tracer, runner: runner, trainHour: trainHourUTC}
}

// Start blocks until the context is cancelled, running the pipeline once a
// day at the configured UTC hour.
func (j *RetrainJob) Start(ctx context.Context) {
	if j.runner == nil {
		log.Println("retrain job disabled: no pipeline runner")
		<-ctx.Done()
		return
	}
	for {
		next := nextRunUTC(time.Now().UTC(), j.trainHour)
		wait := time.Until(next)
		if wait < time.Second {
			wait = time.Second
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			j.runOnce(ctx)
		}
	}
}

func (j *RetrainJob) runOnce(ctx context.Context) {
	_, span := j.tracer.Start(ctx, "retrain-job.run-once")
	defer span.End()

	summary, err := j.runner.Run(ctx)
	if err != nil {
		log.Printf("scheduled retrain error: %v", err)
		return
	}
	log.Printf("scheduled retrain done model=%s version=%d auc=%.4f promoted=%v",
		summary.ModelKey, summary.ModelVersion, summary.HoldoutAUC, summary.Promoted)
}

func nextRunUTC(now time.Time, hour int) time.Time {
	run := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !run.After(now) {
		run = run.Add(24 * time.Hour)
	}
	return run
}
