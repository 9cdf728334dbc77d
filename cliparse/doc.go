// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags

	-p            Server port
	-d            Database URL
	-t            Database type (sqlite, postgres, pgx)
	-redis        Redis URL for visit events
	-admin-salt   Admin key salt
	-max-attempts Transaction attempts per visit
	-tx-timeout   Upper bound for one visit including retries
	-env-file     Optional dotenv file (default .env)

# Environment Variables

Flags fall back to environment variables:

	PORT               → -p
	DATABASE_URL       → -d
	DATABASE_TYPE      → -t
	REDIS_URL          → -redis
	ADMIN_KEY_SALT     → -admin-salt
	ALLOC_MAX_ATTEMPTS → -max-attempts
	ALLOC_TIMEOUT      → -tx-timeout

The env file is loaded before the fallback and never overrides variables
that are already set. CLI flags take precedence over both.

# Validation

ParseFlags returns an error if:

  - DATABASE_URL is missing
  - ADMIN_KEY_SALT is missing
  - DATABASE_TYPE is not sqlite, postgres or pgx
  - the attempt count is below 1
*/
package cliparse
