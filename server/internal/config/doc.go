// Package config loads the alertdesk server configuration from YAML.
//
// Sections:
//   - server        listeners, API auth, CORS, stream interval
//   - source        where alerts are ingested from (http | pagerduty | fixture)
//   - notifications webhook bindings, delivery timeout, message timezone
//   - journal       size of the notification history
//
// Secrets never live in the file: *_env fields name environment variables.
// Load(path) applies defaults before unmarshalling, then validates. Watch
// re-loads the file when it changes.
package config
