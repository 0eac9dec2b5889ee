package tracker

import (
	"fmt"
	"strings"

	"telegram-target-tracker-bot/storage"
)

// FormatRoster renders the group's targets for one day: pending entries
// first, then completed ones with their completion time, then a progress
// footer. The percentage is floored and an empty roster reads 0% rather than
// failing on the zero division.
func FormatRoster(records []storage.TargetRecord) string {
	var b strings.Builder
	b.WriteString("🎯 *Today's Targets*\n\n")

	var pending, completed []storage.TargetRecord
	for _, rec := range records {
		if rec.Completed {
			completed = append(completed, rec)
		} else {
			pending = append(pending, rec)
		}
	}

	if len(pending) > 0 {
		b.WriteString("⏳ *Pending:*\n")
		for i, rec := range pending {
			fmt.Fprintf(&b, "%d. @%s: %s\n", i+1, rec.Username, rec.Target)
		}
		b.WriteString("\n")
	}

	if len(completed) > 0 {
		b.WriteString("✅ *Completed:*\n")
		for i, rec := range completed {
			timeStr := "N/A"
			if rec.CompletedAt != nil {
				timeStr = rec.CompletedAt.Format("15:04")
			}
			fmt.Fprintf(&b, "%d. @%s: %s (%s)\n", i+1, rec.Username, rec.Target, timeStr)
		}
	}

	total := len(records)
	percent := 0
	if total > 0 {
		percent = len(completed) * 100 / total
	}
	fmt.Fprintf(&b, "\n📊 *Progress:* %d/%d completed (%d%%)", len(completed), total, percent)

	return b.String()
}

// FormatRecent renders a user's recent targets, newest day first.
func FormatRecent(records []storage.TargetRecord) string {
	var b strings.Builder
	b.WriteString("📊 *Your Recent Targets*\n\n")

	for i, rec := range records {
		status := "⏳"
		if rec.Completed {
			status = "✅"
		}
		fmt.Fprintf(&b, "%d. %s *%s*\n   📝 %s\n\n", i+1, status, rec.Date.Format("2006-01-02"), rec.Target)
	}

	return strings.TrimRight(b.String(), "\n")
}

// FormatTargetDetail renders the single-target view shown by /mytarget.
func FormatTargetDetail(rec *storage.TargetRecord) string {
	status := "⏳ Pending"
	if rec.Completed {
		status = "✅ Completed"
	}

	var b strings.Builder
	b.WriteString("🎯 *Your Today's Target*\n\n")
	fmt.Fprintf(&b, "📝 *Target:* %s\n", rec.Target)
	fmt.Fprintf(&b, "📅 *Date:* %s\n", rec.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "📊 *Status:* %s\n", status)
	fmt.Fprintf(&b, "⏰ *Added:* %s", rec.CreatedAt.Format("15:04"))
	if rec.CompletedAt != nil {
		fmt.Fprintf(&b, "\n✅ *Completed at:* %s", rec.CompletedAt.Format("15:04"))
	}

	return b.String()
}
