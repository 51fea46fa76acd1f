package storage

import (
	sq "github.com/Masterminds/squirrel"
)

// RunsTable is the table both SQL backends keep records in.
const RunsTable = "runs"

// RunColumns lists the runs columns in scan order.
var RunColumns = []string{
	"id", "niche", "platform", "audience", "goal", "failed", "error",
	"elapsed_seconds", "research_count", "gaps_found", "result", "created_at",
}

// InsertRun builds the insert for one record. result is the stored form of
// the payload, which differs per driver.
func InsertRun(b sq.StatementBuilderType, r *RunRecord, result any) sq.InsertBuilder {
	return b.Insert(RunsTable).Columns(RunColumns...).Values(
		r.ID, r.Niche, r.Platform, r.Audience, r.Goal, r.Failed, r.Error,
		r.ElapsedSeconds, r.ResearchCount, r.GapsFound, result, r.CreatedAt,
	)
}

// SelectRuns builds the newest-first select for f over the given column
// expressions.
func SelectRuns(b sq.StatementBuilderType, columns []string, f Filter) sq.SelectBuilder {
	q := b.Select(columns...).From(RunsTable)

	eq := sq.Eq{}
	if f.Niche != "" {
		eq["niche"] = f.Niche
	}
	if f.Platform != "" {
		eq["platform"] = f.Platform
	}
	if f.Failed != nil {
		eq["failed"] = *f.Failed
	}
	if len(eq) > 0 {
		q = q.Where(eq)
	}
	if f.Since != nil {
		q = q.Where(sq.GtOrEq{"created_at": *f.Since})
	}

	q = q.OrderBy("created_at DESC")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}
	return q
}
