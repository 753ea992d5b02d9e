package repository

import (
	"context"

	"github.com/sadopc/focusplan/internal/store"
)

func (r *Repository) APIConfig() (*store.APIConfig, error) {
	return r.store.GetAPIConfig()
}

func (r *Repository) SaveAPIConfig(c store.APIConfig) error {
	return r.store.SaveAPIConfig(c)
}

func (r *Repository) UpdateAPIConfig(baseURL, apiKey, model string, configured bool) error {
	return r.store.UpdateAPIConfig(baseURL, apiKey, model, configured)
}

func (r *Repository) WatchAPIConfig(ctx context.Context) <-chan Update[*store.APIConfig] {
	return watch(ctx, r.store, []store.Table{store.TableAPIConfig}, r.store.GetAPIConfig)
}

func (r *Repository) Setting(key string) (string, error) {
	return r.store.GetSetting(key)
}

func (r *Repository) FloatSetting(key string, fallback float64) float64 {
	return r.store.GetFloatSetting(key, fallback)
}

func (r *Repository) SetSetting(key, value string) error {
	return r.store.SetSetting(key, value)
}

func (r *Repository) Settings() ([]store.Setting, error) {
	return r.store.GetAllSettings()
}
