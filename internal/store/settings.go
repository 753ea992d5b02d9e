package store

import (
	"fmt"
	"strconv"
)

const (
	SettingDefaultDays    = "default_days_available"
	SettingDefaultHours   = "default_hours_per_day"
	SettingScoreGood      = "score_good"
	SettingScoreExcellent = "score_excellent"
)

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, notFound(err))
	}
	return value, nil
}

// GetFloatSetting parses the setting as a float, returning fallback when the
// key is missing or unparsable.
func (s *Store) GetFloatSetting(key string, fallback float64) float64 {
	v, err := s.GetSetting(key)
	if err != nil {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	s.notify(TableSettings)
	return nil
}

func (s *Store) GetAllSettings() ([]Setting, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}
