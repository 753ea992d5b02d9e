package repository

import (
	"context"
	"fmt"

	"github.com/sadopc/focusplan/internal/store"
)

// EfficiencyMetrics summarises task completion. It is derived on demand and
// never persisted.
type EfficiencyMetrics struct {
	TotalTasks            int
	CompletedTasks        int
	CompletionRate        float64 // percent
	AverageEstimatedHours float64
	AverageActualHours    float64
	EfficiencyScore       float64 // 0-100
	OnTimeCompletionRate  float64 // percent
}

// ComputeEfficiency derives the rate and score from task counts. The rate is
// zero when there are no tasks; the score is the rate capped at 100.
func ComputeEfficiency(total, completed int) EfficiencyMetrics {
	m := EfficiencyMetrics{TotalTasks: total, CompletedTasks: completed}
	if total > 0 {
		m.CompletionRate = float64(completed) / float64(total) * 100
	}
	m.EfficiencyScore = min(m.CompletionRate, 100)
	return m
}

// Rating buckets the score using the given thresholds.
func (m EfficiencyMetrics) Rating(good, excellent float64) string {
	switch {
	case m.EfficiencyScore >= excellent:
		return "excellent"
	case m.EfficiencyScore >= good:
		return "good"
	}
	return "needs improvement"
}

// EfficiencyMetrics reads the total and completed counts. Average hours and
// the on-time rate are left at zero; see DetailedMetrics.
func (r *Repository) EfficiencyMetrics() (EfficiencyMetrics, error) {
	total, err := r.store.CountTasks()
	if err != nil {
		return EfficiencyMetrics{}, err
	}
	completed, err := r.store.CountTasksByStatus(store.StatusCompleted)
	if err != nil {
		return EfficiencyMetrics{}, err
	}
	return ComputeEfficiency(total, completed), nil
}

// DetailedMetrics extends EfficiencyMetrics with hour averages over all tasks
// and the share of completed tasks finished by their due date.
func (r *Repository) DetailedMetrics() (EfficiencyMetrics, error) {
	m, err := r.EfficiencyMetrics()
	if err != nil {
		return EfficiencyMetrics{}, err
	}
	avg, err := r.store.TaskHourAverages()
	if err != nil {
		return EfficiencyMetrics{}, err
	}
	m.AverageEstimatedHours = avg.Estimated
	m.AverageActualHours = avg.Actual

	completed, onTime, err := r.store.OnTimeCompletion()
	if err != nil {
		return EfficiencyMetrics{}, fmt.Errorf("detailed metrics: %w", err)
	}
	if completed > 0 {
		m.OnTimeCompletionRate = float64(onTime) / float64(completed) * 100
	}
	return m, nil
}

// WatchEfficiencyMetrics re-emits whenever the task table changes.
func (r *Repository) WatchEfficiencyMetrics(ctx context.Context) <-chan Update[EfficiencyMetrics] {
	return watch(ctx, r.store, []store.Table{store.TableTasks}, r.EfficiencyMetrics)
}

// WatchDetailedMetrics is WatchEfficiencyMetrics with DetailedMetrics values.
func (r *Repository) WatchDetailedMetrics(ctx context.Context) <-chan Update[EfficiencyMetrics] {
	return watch(ctx, r.store, []store.Table{store.TableTasks}, r.DetailedMetrics)
}
