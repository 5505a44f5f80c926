// Package retention turns Janitorr's retention policy into a day count.
//
// Janitorr expresses retention windows as short duration strings such as
// "120d", "4w", "2m" or "1y". ParseDays normalizes one of those strings into a
// number of days. Resolve reduces a media-deletion policy fragment, which may
// hold tiered windows keyed by disk-usage thresholds, into a single effective
// retention that the schedule reconstructor uses to project deletion dates.
//
// Months count as 30 days and years as 365 days. These are the approximations
// Janitorr itself applies, so projected dates line up with what the service
// actually does.
//
// Invalid input is never an error. A value that cannot be parsed is simply
// absent, and a fragment with no parseable value resolves to Unknown.
package retention
