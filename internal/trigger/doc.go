// Package trigger turns named cron expressions into fire events.
//
// Expressions are parsed with pkg/cronexpr and driven by robfig/cron through a
// cron.Schedule adapter, so time-zone and DST handling follow cronexpr rather
// than robfig's own parser. The service does not run jobs: every occurrence is
// published on the event bus as an eventbus.TypeScheduleFired event and
// consumers decide what to do with it.
package trigger
