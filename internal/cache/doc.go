// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

/*
Package cache provides a small TTL cache for query results.

The API caches detection log queries and area totals for a few seconds so
dashboards polling the same filter do not hit DuckDB on every refresh:

	c := cache.New(10 * time.Second)
	key := cache.GenerateKey("logs", filter)
	if v, ok := c.Get(key); ok {
	    return v.(*LogPage)
	}
	page := query(filter)
	c.Set(key, page)

Expired entries are dropped on read. Serve runs a periodic sweep and makes
the cache a suture.Service, so the sweep stops with the supervisor tree.
*/
package cache
