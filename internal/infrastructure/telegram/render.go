package telegram

import (
	"fmt"
	"strings"
	"time"

	"github.com/Albkings1/bot/internal/application"
	"github.com/Albkings1/bot/internal/domain"
)

func categoryLabel(c domain.Category) string {
	switch c {
	case domain.CategoryStrongBuy:
		return "🟢 STRONG BUY"
	case domain.CategoryModerateBuy:
		return "🟢 BUY"
	case domain.CategoryStrongSell:
		return "🔴 STRONG SELL"
	case domain.CategoryModerateSell:
		return "🔴 SELL"
	default:
		return "⚪ NEUTRAL"
	}
}

func trendLabel(t domain.Trend) string {
	switch t {
	case domain.TrendUp:
		return "📈 up"
	case domain.TrendDown:
		return "📉 down"
	default:
		return "➖ flat"
	}
}

func formatDuration(d time.Duration) string {
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	if s == 0 {
		return fmt.Sprintf("%d min", m)
	}
	return fmt.Sprintf("%d min %d sec", m, s)
}

func renderSignal(res application.SignalResult, refreshEvery time.Duration) string {
	q := res.Quote

	var b strings.Builder
	fmt.Fprintf(&b, "*%s* — %s\n\n", q.Pair, categoryLabel(q.Category))
	fmt.Fprintf(&b, "Price: `%.5f`\n", q.Price)
	fmt.Fprintf(&b, "Bid/Ask: `%.5f` / `%.5f`\n", q.Bid, q.Ask)
	fmt.Fprintf(&b, "Strength: *%.0f%%*\n", q.Strength*100)
	fmt.Fprintf(&b, "Trend: %s\n", trendLabel(q.Trend))
	if !q.Timestamp.IsZero() {
		fmt.Fprintf(&b, "Time: %s\n", q.Timestamp.UTC().Format("15:04:05 UTC"))
	}

	if d, ok := domain.RecommendedDuration(q.Strength, q.Trend); ok {
		fmt.Fprintf(&b, "\n⏱ Suggested hold: *%s*\n", formatDuration(d))
	}
	if q.Synthetic {
		b.WriteString("\n_Live feed unavailable, showing an estimated quote._\n")
	}

	if refreshEvery > 0 {
		fmt.Fprintf(&b, "\n♻️ Quotes refresh every %s.\n", formatDuration(refreshEvery))
	}

	fmt.Fprintf(&b, "\nSignals left: *%d/%d*", res.Remaining, res.Limit)
	if res.User.Premium {
		b.WriteString(" (resets daily)")
	}
	return b.String()
}

func renderStatus(u domain.User, remaining, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Account status*\n\n")
	if u.Premium {
		b.WriteString("Tier: 💎 Premium\n")
		fmt.Fprintf(&b, "License: `%s`\n", u.LicenseKey)
		fmt.Fprintf(&b, "Signals today: %d\n", u.DailyUses)
	} else {
		b.WriteString("Tier: Free\n")
	}
	fmt.Fprintf(&b, "Signals used in total: %d\n", u.LifetimeUses)
	fmt.Fprintf(&b, "Signals left: *%d/%d*", remaining, limit)
	if u.Premium {
		b.WriteString(" (resets daily)")
	} else {
		b.WriteString("\n\nUse /activate with a license key to go premium.")
	}
	return b.String()
}

func renderWelcome(username string) string {
	name := username
	if name == "" {
		name = "trader"
	}
	return fmt.Sprintf(
		"👋 Welcome, %s!\n\n"+
			"I deliver forex signals on the major pairs.\n\n"+
			"• /signal — pick a pair and get a signal\n"+
			"• /status — your quota and tier\n"+
			"• /activate KEY — redeem a premium license\n"+
			"• /help — all commands", name)
}

func renderHelp(admin bool) string {
	var b strings.Builder
	b.WriteString("*Commands*\n\n")
	b.WriteString("/signal — pick a pair and get a signal\n")
	b.WriteString("/status — your quota and tier\n")
	b.WriteString("/activate KEY — redeem a premium license\n")
	b.WriteString("/help — this message\n")
	if admin {
		b.WriteString("\n*Admin*\n\n")
		b.WriteString("/issue \\[days] — create a license key\n")
		b.WriteString("/revoke USER\\_ID — revoke a user's license\n")
		b.WriteString("/broadcast TEXT — message all eligible users\n")
		b.WriteString("/users — list registered users\n")
	}
	return b.String()
}

func renderQuotaExceeded(premium bool) string {
	if premium {
		return "🚫 You have used all of today's signals. Your quota resets at midnight UTC."
	}
	return "🚫 You have used your free signals.\n\nGet a license key and redeem it with /activate to unlock 10 signals per day."
}

func renderUsers(users []domain.User) string {
	if len(users) == 0 {
		return "No registered users yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "*Users (%d)*\n\n", len(users))
	for _, u := range users {
		tier := "free"
		if u.Premium {
			tier = "premium"
		}
		fmt.Fprintf(&b, "`%d` %s — %s, %d uses\n", u.ID, u.Username, tier, u.LifetimeUses)
	}
	return b.String()
}
