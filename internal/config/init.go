package config

import (
	"fmt"
	"os"
)

const defaultConfigTemplate = `# appforge configuration
server:
  addr: ":8080"
  admin_addr: ":9090"

submission:
  # Or set SUBMISSION_SECRET in the environment.
  secret: "${SUBMISSION_SECRET}"

forge:
  # Or set GITHUB_TOKEN in the environment.
  token: "${GITHUB_TOKEN}"
  committer_name: "AppForge Bot"
  committer_email: "bot@appforge.invalid"

generation:
  # Or set GEMINI_API_KEY in the environment.
  api_key: "${GEMINI_API_KEY}"
  model: "gemini-2.0-flash"

notify:
  timeout: 15s

workspace:
  janitor_interval: 10m
  max_age: 1h

state:
  path: "appforge.db"

logging:
  level: "info"
  format: "text"
`

// Init writes a starter configuration file. Refuses to overwrite an existing
// file unless force is set.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file %s already exists (use --force to overwrite)", path)
	}
	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	return nil
}
