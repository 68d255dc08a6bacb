// progresswatch follows a document conversion job over its Server-Sent
// Events progress stream and renders it in the terminal.
//
// Usage:
//
//	progresswatch watch --session <id> --page "http://host/convert?filename=score.pdf"
//	progresswatch replay --port 5000 --fixtures ./fixtures
//	progresswatch sessions --limit 20
//
// watch subscribes to {server.base_url}/progress/{id}, draws the overall
// bar, elapsed time and step list, and on completion requests
// /result/{filename}?success=true after tracker.navigation_delay_ms. The
// filename comes from the --page query string. A failed stream exits with a
// non-zero status.
//
// replay serves recorded snapshot fixtures on /progress/{session_id} for
// local development, together with /result/{filename}, /healthz and
// /metrics.
//
// sessions lists the audit trail of watched sessions, from Postgres when
// db.dsn is set.
//
// Configuration is read from --config (YAML, JSON or TOML) and environment
// variables prefixed with PROGRESSWATCH_, e.g. PROGRESSWATCH_SERVER_BASE_URL.
package main
