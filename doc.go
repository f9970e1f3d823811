// Package shardscan scans a logical table stored as physically sharded
// buckets across a cluster, producing per scan partition a lazy sequence of
// rows that satisfy a pushed-down filter.
//
// # Access paths
//
// Each partition is scanned through one of two strategies, chosen once per
// partition:
//
//   - bucket-local: unfiltered full-row scans of partitioned tables walk the
//     in-process region representation directly, skipping query execution;
//   - query: everything else runs a parameterized SELECT over a pooled
//     connection, scoped server-side to exactly the partition's buckets.
//
// # Public surface
//
// A Scanner exposes three operations: Partitions (the units of parallel
// work), PreferredLocations (host hints for locality-aware scheduling) and
// Compute (the row sequence for one partition). Everything else is private
// mechanism. ScanAll is a convenience wrapper driving all partitions
// concurrently for callers without their own execution engine.
//
// Example:
//
//	sc, err := shardscan.Table("app.orders", schema).
//	    Connect(factory, store.ConnProps{Dialect: "snappy", FetchSize: 1000}).
//	    Metadata(meta).
//	    LocalRegion(reg).
//	    Filters(filter.And(
//	        filter.Eq("region", "emea"),
//	        filter.Gte("amount", 100),
//	    )).
//	    Build()
//	if err != nil {
//	    return err
//	}
//	defer sc.Close()
//
//	parts, err := sc.Partitions(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, p := range parts {
//	    rows, err := sc.Compute(ctx, p)
//	    if err != nil {
//	        return err
//	    }
//	    for {
//	        ok, err := rows.HasNext()
//	        if err != nil || !ok {
//	            break
//	        }
//	        row, _ := rows.Next()
//	        _ = row
//	    }
//	    rows.Close()
//	}
//
// # Pushdown is best-effort
//
// Filters outside the supported vocabulary are dropped from the pushed
// predicate silently; callers re-apply them against the returned rows with
// filter.Matches.
package shardscan
