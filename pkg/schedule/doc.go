// Package schedule reconstructs Janitorr's pending deletions from its log.
//
// Janitorr does not publish the list of media it is about to remove. It does,
// however, log one line per candidate every time it runs a cleanup scan:
//
//	2024-01-10T03:00:01.123Z  INFO 1 --- [scheduling-1] c.g.s.j.s.SonarrRestService : Deleting Some Show [45}]
//
// The bracketed number is the item's age in days at scan time. Reader walks the
// log backward, collects the candidates of the most recent scan only, drops
// duplicate titles and projects each item's deletion date from the effective
// retention window resolved by package retention.
//
// Every call re-reads the file. Nothing is cached and the log is never
// modified, so a Reader is safe for concurrent use.
package schedule
