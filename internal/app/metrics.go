package app

import (
	"github.com/sadopc/focusplan/internal/repository"
	"github.com/sadopc/focusplan/internal/store"
)

const (
	defaultScoreGood      = 60
	defaultScoreExcellent = 80
)

// Rate buckets the metrics' score using the stored thresholds.
func (c *Controller) Rate(m repository.EfficiencyMetrics) string {
	good := c.repo.FloatSetting(store.SettingScoreGood, defaultScoreGood)
	excellent := c.repo.FloatSetting(store.SettingScoreExcellent, defaultScoreExcellent)
	return m.Rating(good, excellent)
}
