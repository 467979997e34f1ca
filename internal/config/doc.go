// Package config loads the gradebook configuration file (config.yaml).
//
// Config fields:
//   - Server.HTTPPort       - port for the REST API, stream and metrics (default 8080)
//   - Server.UIDir          - optional static UI directory served at "/"
//   - Server.StreamInterval - WebSocket records refresh interval (default 30s)
//   - Storage.Backend       - file | memory | postgres (default file)
//   - Storage.Key           - slot name holding the record list (default "studentScores")
//   - Storage.Dir           - directory for the file backend (default "data")
//   - Storage.DSNEnv        - environment variable holding the Postgres DSN
//   - Log.Level             - debug | info | warn | error (default info)
//
// Load(path) applies defaults before unmarshalling, then validates.
// LoadEnv loads .env files with godotenv so DSNEnv can be resolved.
// Watch(ctx, path, onChange) reloads the file with fsnotify.
package config
