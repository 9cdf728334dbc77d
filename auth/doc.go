// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides ward admin keys and IP hashing.

# Admin Keys

Admin keys use HMAC-SHA256 to create deterministic, verifiable keys:

	adminKey := auth.GenerateAdminKey(wardID, salt)
	err := auth.ValidateAdminKey(wardID, adminKey, salt)

The key is URL-safe base64 encoded without padding. Since it's deterministic,
the same ward ID and salt always produce the same key. This allows validation
without storing the key in the database. The key is handed out once, when the
ward is provisioned, and guards the ledger listing.

# IP Hashing

Visits carry a privacy-preserving fingerprint of the client:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
