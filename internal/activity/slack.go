package activity

import (
	"sort"
	"time"

	"workdiary.app/server/internal/platform"
)

const (
	workHoursStart = 9
	workHoursEnd   = 17

	// Samples above this are treated as the user having stepped away, not
	// as a response time.
	responseOutlierMinutes = 240.0

	responseDefaultMinutes = 30.0

	longThreadLength    = 5
	deepDiscussionReply = 2

	topicSnippetLen = 100
)

// Slack aggregates the user's Slack activity into SlackStats.
func (a *Aggregator) Slack(data *platform.SlackData) *SlackStats {
	stats := &SlackStats{
		Status:         StatusOK,
		MessagesByDate: make(map[string]int),
		Errors:         data.ChannelErrors,
	}

	for _, msg := range data.Messages {
		a.countMessage(stats, msg)
		stats.ChannelMessages++
	}
	for _, msg := range data.DMs {
		if !msg.IsSelf {
			continue
		}
		a.countMessage(stats, msg)
		stats.DirectMessages++
	}

	if stats.TotalMessages > 0 {
		workHours := 0
		for h := workHoursStart; h < workHoursEnd; h++ {
			workHours += stats.MessagesByHour[h]
		}
		stats.WorkHoursRatio = float64(workHours) / float64(stats.TotalMessages)
	}

	stats.PeakHours = peakHours(stats.MessagesByHour)
	stats.BusiestDays = busiestDays(stats.MessagesByWeekday)
	stats.Threads = a.threadStats(data.Threads)
	stats.ResponseTimeByHour = a.responseTimes(data.DMs)

	return stats
}

// peakHours returns the top three message hours, busiest first. Hours with
// no messages never appear.
func peakHours(byHour [24]int) []int {
	hours := make([]int, 0, 24)
	for h, count := range byHour {
		if count > 0 {
			hours = append(hours, h)
		}
	}
	sort.SliceStable(hours, func(i, j int) bool {
		return byHour[hours[i]] > byHour[hours[j]]
	})
	if len(hours) > 3 {
		hours = hours[:3]
	}
	return hours
}

var weekdayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// busiestDays lists weekday names with activity, busiest first.
func busiestDays(byWeekday [7]int) []string {
	days := make([]int, 0, 7)
	for d, count := range byWeekday {
		if count > 0 {
			days = append(days, d)
		}
	}
	sort.SliceStable(days, func(i, j int) bool {
		return byWeekday[days[i]] > byWeekday[days[j]]
	})

	names := make([]string, len(days))
	for i, d := range days {
		names[i] = weekdayNames[d]
	}
	return names
}

func (a *Aggregator) countMessage(stats *SlackStats, msg platform.SlackMessage) {
	local := msg.Timestamp.In(a.loc)
	stats.TotalMessages++
	stats.MessagesByHour[local.Hour()]++
	stats.MessagesByWeekday[int(local.Weekday())]++
	stats.MessagesByDate[dateKey(local)]++
}

func (a *Aggregator) threadStats(threads []platform.SlackThread) ThreadStats {
	ts := ThreadStats{DeepDiscussions: []DeepDiscussion{}}

	totalLength := 0
	for _, thread := range threads {
		if len(thread.Messages) == 0 {
			continue
		}
		ts.TotalThreads++
		totalLength += len(thread.Messages)

		root := thread.Messages[0]
		if root.IsSelf {
			ts.ThreadsStarted++
		}

		userReplies := 0
		for _, msg := range thread.Messages[1:] {
			if msg.IsSelf {
				userReplies++
			}
		}
		ts.UserReplies += userReplies

		if len(thread.Messages) > longThreadLength {
			ts.LongThreads++
			if userReplies > deepDiscussionReply {
				ts.DeepDiscussions = append(ts.DeepDiscussions, DeepDiscussion{
					Channel:     thread.ChannelID,
					Length:      len(thread.Messages),
					UserReplies: userReplies,
					Topic:       snippet(root.Text),
				})
			}
		}
	}

	if ts.TotalThreads > 0 {
		ts.AvgThreadLength = float64(totalLength) / float64(ts.TotalThreads)
	}
	return ts
}

// responseTimes estimates how fast the user answers DMs by hour of day.
// Within each DM conversation, the gap between an inbound message and the
// user's next reply is one sample, bucketed by the reply's local hour.
func (a *Aggregator) responseTimes(dms []platform.SlackMessage) [24]float64 {
	byChannel := make(map[string][]platform.SlackMessage)
	for _, msg := range dms {
		byChannel[msg.ChannelID] = append(byChannel[msg.ChannelID], msg)
	}

	samples := make(map[int][]float64)
	for _, msgs := range byChannel {
		sort.Slice(msgs, func(i, j int) bool {
			return msgs[i].Timestamp.Before(msgs[j].Timestamp)
		})
		var pending *time.Time
		for _, msg := range msgs {
			if !msg.IsSelf {
				if pending == nil {
					t := msg.Timestamp
					pending = &t
				}
				continue
			}
			if pending != nil {
				gap := msg.Timestamp.Sub(*pending).Minutes()
				hour := msg.Timestamp.In(a.loc).Hour()
				samples[hour] = append(samples[hour], gap)
				pending = nil
			}
		}
	}

	return interpolateResponseTimes(samples)
}

// interpolateResponseTimes fills all 24 buckets. Hours with real samples
// average their non-outlier values; hours where every sample is an outlier
// report 0. Empty hours borrow non-outlier samples from the two adjacent
// hours, falling back to a 30 minute default when those are empty too.
func interpolateResponseTimes(samples map[int][]float64) [24]float64 {
	var out [24]float64
	for hour := 0; hour < 24; hour++ {
		direct := samples[hour]
		if len(direct) > 0 {
			kept := filterOutliers(direct)
			if len(kept) == 0 {
				out[hour] = 0
				continue
			}
			out[hour] = mean(kept)
			continue
		}

		adjacent := filterOutliers(samples[(hour+23)%24])
		adjacent = append(adjacent, filterOutliers(samples[(hour+1)%24])...)
		if len(adjacent) == 0 {
			out[hour] = responseDefaultMinutes
			continue
		}
		out[hour] = mean(adjacent)
	}
	return out
}

func filterOutliers(samples []float64) []float64 {
	var kept []float64
	for _, s := range samples {
		if s <= responseOutlierMinutes {
			kept = append(kept, s)
		}
	}
	return kept
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= topicSnippetLen {
		return text
	}
	return string(runes[:topicSnippetLen])
}
