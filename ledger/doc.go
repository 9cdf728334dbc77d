// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger implements square allocation and the visit ledger.

# Stores

Store wraps one *sql.DB and holds three logical stores:

  - squares: 365 rows per ward, claimed with a compare-and-set UPDATE
  - visits: the append-only ledger, unique on (ward_id, client_request_id)
  - ward_stats: counters updated with in-place increments

Only Allocator.LogVisit and Store.ProvisionWard write. The exported Store
methods (Ward, Stats, Squares, Visits, CheckConsistency) are read views and
always observe the last committed state.

# Allocation

	alloc := ledger.NewAllocator(store, ledger.Options{Notifier: events})
	res, err := alloc.LogVisit(ctx, req)

One call is one transaction:

 1. replay a prior visit with the same client_request_id, if any
 2. no desired square: bonus visit
 3. desired square free: claim it
 4. otherwise claim the lowest free square (collision_resolved), or log a
    bonus visit when all 365 are taken
 5. insert the visit and bump the counters
 6. commit

A compare-and-set miss, a serialization failure, a lock timeout or a unique
violation rolls the transaction back and re-runs it from step 1 with
exponential backoff (RetryPolicy, default 5 attempts). When attempts or the
deadline run out the caller gets a *TransientError.

# Errors

  - *ValidationError: malformed input, before any transaction
  - ErrWardNotFound: unknown ward, before any transaction
  - ErrWardExists: ProvisionWard on an existing ward
  - *TransientError: retry budget or deadline exhausted

ErrorKind maps any of these onto the models.Kind* strings.
*/
package ledger
