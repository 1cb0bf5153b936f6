package analytics

import (
	"dealview/internal/proposals"
)

// FunnelStage is one step of the sent-viewed-accepted conversion funnel.
// Rate is relative to the previous stage.
type FunnelStage struct {
	Stage string  `json:"stage"`
	Count int64   `json:"count"`
	Rate  float64 `json:"rate"`
}

// CountByStatus tallies proposals per lifecycle status. Every status appears
// in the result, zero-valued when absent.
func CountByStatus(props []proposals.Proposal) map[string]int64 {
	counts := map[string]int64{
		string(proposals.StatusDraft):    0,
		string(proposals.StatusSent):     0,
		string(proposals.StatusViewed):   0,
		string(proposals.StatusAccepted): 0,
		string(proposals.StatusRejected): 0,
		string(proposals.StatusExpired):  0,
	}
	for _, p := range props {
		counts[string(p.Status)]++
	}
	return counts
}

// WinRate returns accepted / (accepted + rejected). Proposals still in
// flight and expired ones carry no signal about selling effectiveness, so
// only decided proposals participate. No decisions means zero, not NaN.
func WinRate(props []proposals.Proposal) float64 {
	var accepted, rejected int64
	for _, p := range props {
		switch p.Status {
		case proposals.StatusAccepted:
			accepted++
		case proposals.StatusRejected:
			rejected++
		}
	}
	if accepted+rejected == 0 {
		return 0
	}
	return float64(accepted) / float64(accepted+rejected)
}

// TotalRevenue sums the value of accepted proposals.
func TotalRevenue(props []proposals.Proposal) float64 {
	var total float64
	for _, p := range props {
		if p.Status == proposals.StatusAccepted {
			total += p.TotalValue
		}
	}
	return total
}

// AvgDealSize returns the mean value of accepted proposals.
func AvgDealSize(props []proposals.Proposal) float64 {
	var total float64
	var count int64
	for _, p := range props {
		if p.Status == proposals.StatusAccepted {
			total += p.TotalValue
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

// AvgTimeToCloseDays returns the mean days between creation and decision
// over proposals that reached a terminal status with a recorded decision
// time.
func AvgTimeToCloseDays(props []proposals.Proposal) float64 {
	var totalHours float64
	var count int64
	for _, p := range props {
		if !p.Status.IsTerminal() || p.DecidedAt == nil {
			continue
		}
		totalHours += p.DecidedAt.Sub(p.CreatedAt).Hours()
		count++
	}
	if count == 0 {
		return 0
	}
	return totalHours / float64(count) / 24
}

// BuildConversionFunnel derives the sent-viewed-accepted funnel from current
// statuses. A proposal counts toward every stage it has passed through:
// anything beyond draft was sent, and accepted or rejected proposals were
// necessarily viewed.
func BuildConversionFunnel(props []proposals.Proposal) []FunnelStage {
	var sent, viewed, accepted int64
	for _, p := range props {
		switch p.Status {
		case proposals.StatusSent:
			sent++
		case proposals.StatusViewed:
			sent++
			viewed++
		case proposals.StatusAccepted:
			sent++
			viewed++
			accepted++
		case proposals.StatusRejected:
			sent++
			viewed++
		case proposals.StatusExpired:
			sent++
		}
	}

	stages := []FunnelStage{
		{Stage: "sent", Count: sent, Rate: 1},
		{Stage: "viewed", Count: viewed},
		{Stage: "accepted", Count: accepted},
	}
	if sent > 0 {
		stages[1].Rate = float64(viewed) / float64(sent)
	}
	if viewed > 0 {
		stages[2].Rate = float64(accepted) / float64(viewed)
	}
	if sent == 0 {
		stages[0].Rate = 0
	}
	return stages
}
