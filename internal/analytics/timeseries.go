package analytics

import (
	"math"

	"dealview/internal/proposals"
	"dealview/internal/timeframe"
)

// ProposalsOverTime buckets proposal creation times over the frame,
// zero-filling empty buckets.
func ProposalsOverTime(tf *timeframe.TimeFrame, props []proposals.Proposal) []timeframe.DateStat {
	grouped := []timeframe.DateStat{}
	for _, p := range props {
		if !tf.Contains(p.CreatedAt) {
			continue
		}
		grouped = append(grouped, timeframe.DateStat{Date: tf.BucketKey(p.CreatedAt), Count: 1})
	}
	return tf.BuildTimeSeriesPoints(grouped)
}

// RevenueOverTime buckets accepted proposal values over the frame. A deal's
// revenue lands in the bucket of its last status change, which for an
// accepted proposal is the moment of acceptance. Amounts are rounded to
// whole currency units.
func RevenueOverTime(tf *timeframe.TimeFrame, props []proposals.Proposal) []timeframe.DateStat {
	grouped := []timeframe.DateStat{}
	for _, p := range props {
		if p.Status != proposals.StatusAccepted {
			continue
		}
		if !tf.Contains(p.UpdatedAt) {
			continue
		}
		grouped = append(grouped, timeframe.DateStat{
			Date:  tf.BucketKey(p.UpdatedAt),
			Count: int(math.Round(p.TotalValue)),
		})
	}
	return tf.BuildTimeSeriesPoints(grouped)
}
