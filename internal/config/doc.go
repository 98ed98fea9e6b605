// Package config loads and validates the server configuration.
//
// Values come from, lowest precedence first:
//
//  1. Default()
//  2. the YAML file named by CONFIG_FILE
//  3. environment variables, after loading a .env file if one exists
//
// Validate reports every problem at once through errors.Join.
//
// Key environment variables:
//
//	SERVER_PORT            HTTP port (default 8080)
//	PUBLIC_URL             frontend base URL used in emails
//	SESSION_SECRET         at least 32 bytes, seeds the cookie keys
//	ADMIN_EMAILS           comma separated moderator accounts
//	TICK_INTERVAL          reminder and expiry tick (default 1m)
//	SMTP_HOST              empty logs emails instead of sending
//	SNAPSHOT_ENABLED       persist state snapshots to SurrealDB
//	SNAPSHOT_SCHEDULE      cron spec (default @every 5m)
package config
