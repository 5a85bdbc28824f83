package evaluate

import "sort"

// topIssues is how many distinct issues a summary keeps.
const topIssues = 5

// IssueCount is how often one issue string occurred in a run.
type IssueCount struct {
	Issue string `json:"issue"`
	Count int    `json:"count"`
}

// Summary aggregates a run of records.
type Summary struct {
	Count              int          `json:"count"`
	Failures           int          `json:"failures"`
	Averages           Scores       `json:"averages"`
	AvgLatencyMs       float64      `json:"avgLatencyMs"`
	AvgTokensPerSecond float64      `json:"avgTokensPerSecond"`
	TopIssues          []IssueCount `json:"topIssues"`
}

// Summarize averages every axis, latency and throughput across records and
// ranks the most frequent issues. Throughput only counts records with a
// positive latency.
func Summarize(records []Record) Summary {
	s := Summary{Count: len(records), TopIssues: []IssueCount{}}
	if len(records) == 0 {
		return s
	}

	var (
		latency    int64
		tpsSum     float64
		tpsSamples int
		counts     = map[string]int{}
	)
	for _, r := range records {
		s.Averages.CharacterConsistency += r.Scores.CharacterConsistency
		s.Averages.LengthCompliance += r.Scores.LengthCompliance
		s.Averages.StyleAccuracy += r.Scores.StyleAccuracy
		s.Averages.ResponseQuality += r.Scores.ResponseQuality
		s.Averages.Overall += r.Scores.Overall
		latency += r.LatencyMs
		if r.LatencyMs > 0 {
			tpsSum += float64(r.TokenCount) / (float64(r.LatencyMs) / 1000)
			tpsSamples++
		}
		for _, issue := range r.Issues {
			counts[issue]++
			if issue == IssueExecutionError {
				s.Failures++
			}
		}
	}

	n := float64(len(records))
	s.Averages.CharacterConsistency /= n
	s.Averages.LengthCompliance /= n
	s.Averages.StyleAccuracy /= n
	s.Averages.ResponseQuality /= n
	s.Averages.Overall /= n
	s.AvgLatencyMs = float64(latency) / n
	if tpsSamples > 0 {
		s.AvgTokensPerSecond = tpsSum / float64(tpsSamples)
	}

	for issue, c := range counts {
		s.TopIssues = append(s.TopIssues, IssueCount{Issue: issue, Count: c})
	}
	sort.Slice(s.TopIssues, func(i, j int) bool {
		if s.TopIssues[i].Count != s.TopIssues[j].Count {
			return s.TopIssues[i].Count > s.TopIssues[j].Count
		}
		return s.TopIssues[i].Issue < s.TopIssues[j].Issue
	})
	if len(s.TopIssues) > topIssues {
		s.TopIssues = s.TopIssues[:topIssues]
	}
	return s
}
