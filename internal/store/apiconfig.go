package store

import "fmt"

// GetAPIConfig returns the singleton provider configuration. The row is
// seeded with defaults during migration, so it always exists.
func (s *Store) GetAPIConfig() (*APIConfig, error) {
	c := &APIConfig{}
	var configured int
	var createdAt, updatedAt string
	err := s.db.QueryRow(
		`SELECT base_url, api_key, model, max_tokens, temperature, configured, created_at, updated_at
		 FROM api_config WHERE id = 1`,
	).Scan(&c.BaseURL, &c.APIKey, &c.Model, &c.MaxTokens, &c.Temperature, &configured, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("get api config: %w", notFound(err))
	}
	c.Configured = configured == 1
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return c, nil
}

// SaveAPIConfig replaces the whole row with c, keeping the original created_at.
func (s *Store) SaveAPIConfig(c APIConfig) error {
	now := formatTime(s.now())
	_, err := s.db.Exec(
		`INSERT INTO api_config (id, base_url, api_key, model, max_tokens, temperature, configured, created_at, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			base_url = excluded.base_url,
			api_key = excluded.api_key,
			model = excluded.model,
			max_tokens = excluded.max_tokens,
			temperature = excluded.temperature,
			configured = excluded.configured,
			updated_at = excluded.updated_at`,
		c.BaseURL, c.APIKey, c.Model, c.MaxTokens, c.Temperature, boolInt(c.Configured), now, now,
	)
	if err != nil {
		return fmt.Errorf("save api config: %w", err)
	}
	s.notify(TableAPIConfig)
	return nil
}

// UpdateAPIConfig changes the connection fields, leaving max tokens and
// temperature as they are.
func (s *Store) UpdateAPIConfig(baseURL, apiKey, model string, configured bool) error {
	_, err := s.db.Exec(
		`UPDATE api_config SET base_url = ?, api_key = ?, model = ?, configured = ?, updated_at = ? WHERE id = 1`,
		baseURL, apiKey, model, boolInt(configured), formatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("update api config: %w", err)
	}
	s.notify(TableAPIConfig)
	return nil
}
