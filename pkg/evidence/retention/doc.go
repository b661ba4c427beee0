// Package retention prunes audit records by age and count.
//
// The Pruner deletes records older than RetentionDays and then, if more
// than MaxRecords remain, the oldest surplus. The Scheduler runs the pruner
// once at startup and then on a standard five-field cron schedule
// (github.com/robfig/cron/v3).
//
//	pruner := retention.NewPruner(store, retention.Config{
//		RetentionDays: 30,
//		PruneSchedule: "0 3 * * *",
//	}, logger)
//	g.Go(func() error { return retention.NewScheduler(pruner).Run(ctx) })
package retention
