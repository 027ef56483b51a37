// Package config loads the server settings: HTTP listener, CORS origins,
// persistence backend and the challenge bit schedule. Values come from a
// .env file, an optional YAML file and TRANSCRIBE_* environment variables,
// and are checked with struct tags before use.
package config
