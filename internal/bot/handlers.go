package bot

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"FupanBot/internal/broadcast"
	"FupanBot/internal/calendar"
	"FupanBot/internal/model"
	"FupanBot/internal/recorder"
	"FupanBot/internal/store"
	"FupanBot/internal/streak"
	"FupanBot/internal/window"
)

// Request is one incoming user command.
type Request struct {
	UserID   string
	Nickname string
	GroupID  string // empty for direct messages
	ChatID   string // transport handle used for broadcast registration
	Text     string
	Now      time.Time
}

// Handler orchestrates all bot commands over the core components.
type Handler struct {
	Store     *store.Store
	Registry  *store.Registry
	Resolver  *window.Resolver
	Streak    *streak.Engine
	Cal       *calendar.Adapter
	Recorder  recorder.Recorder
	Broadcast *broadcast.Builder
	Admins    map[string]struct{}
	Ctx       context.Context
}

// Handle dispatches a command. An empty return means the message is not a
// bot command and should be ignored.
func (h *Handler) Handle(req Request) string {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return ""
	}
	parts := strings.Fields(text)
	cmd := strings.TrimPrefix(parts[0], "/")
	arg := strings.Join(parts[1:], " ")

	switch cmd {
	case "复盘", "checkin":
		return h.checkin(req, arg)
	case "复盘统计", "stats":
		return h.stats(req)
	case "复盘排行", "rank":
		return h.rank(req)
	case "复盘撤销", "撤销复盘", "revoke":
		return h.revoke(req)
	case "复盘重置", "reset":
		return h.reset(req, arg)
	case "复盘总结", "summary":
		return h.summary(req)
	case "复盘帮助", "help":
		return h.help(req)
	default:
		return ""
	}
}

func (h *Handler) scope(req Request) store.Scope {
	if req.GroupID != "" {
		return store.Group(req.GroupID)
	}
	return store.DM()
}

func (h *Handler) isAdmin(userID string) bool {
	_, ok := h.Admins[userID]
	return ok
}

// canCheckin gates a check-in attempt: inside the window, and not yet
// submitted today. The per-day de-dup key is the calendar date of
// submission, not the attributed trading day.
func (h *Handler) canCheckin(req Request, ledger *model.UserLedger) (bool, string) {
	st := h.Resolver.Status(req.UserID, req.GroupID, req.Now)
	if !st.InWindow {
		if st.WindowStart != nil && st.WindowEnd != nil {
			return false, "不在打卡时间窗口内，请在 " + st.WindowStart.Format("15:04") +
				" - " + st.WindowEnd.Format("01月02日 15:04") + " 之间打卡"
		}
		return false, "今天不是交易日，且未找到合适的打卡时间窗口"
	}

	today := calendar.FormatDate(req.Now)
	for _, c := range ledger.Checkins {
		if c.Date == today {
			cur, next := h.tradingDayDisplays(req.Now)
			return false, "交易日（" + cur + "）已复盘\n下一个交易日：" + next
		}
	}
	return true, ""
}

func (h *Handler) checkin(req Request, conclusion string) string {
	sc := h.scope(req)
	ledger := h.Store.Load(req.UserID, sc)

	if ok, msg := h.canCheckin(req, ledger); !ok {
		return msg
	}
	ledger.Nickname = req.Nickname

	today := calendar.FormatDate(req.Now)

	// A check-in on a non-session day counts for the previous session; its
	// next_trading_day link is computed from that attributed session.
	tradingDay := today
	var nextTradingDay string
	if h.Cal.IsSession(req.Now) {
		if n, ok := h.Cal.NextSession(req.Now); ok {
			nextTradingDay = calendar.FormatDate(n)
		}
	} else {
		base := req.Now
		if prev, ok := h.Cal.PreviousSession(req.Now); ok {
			tradingDay = calendar.FormatDate(prev)
			base = prev
		}
		if n, ok := h.Cal.NextSession(base); ok {
			nextTradingDay = calendar.FormatDate(n)
		}
	}

	rec := model.CheckinRecord{
		Date:           today,
		Timestamp:      req.Now.Unix(),
		TradingDay:     tradingDay,
		NextTradingDay: nextTradingDay,
		Context:        sc.Context(),
		Conclusion:     conclusion,
	}

	ledger.StrikeCount = h.Streak.Advance(ledger, tradingDay)
	ledger.Checkins = append(ledger.Checkins, rec)
	ledger.TotalCount = len(ledger.Checkins)
	h.Store.Save(req.UserID, sc, ledger)

	if sc.IsGroup() {
		h.Registry.Set(req.GroupID, req.ChatID)
	}

	if err := h.Recorder.RecordCheckin(&recorder.CheckinEvent{
		UserID:        req.UserID,
		Scope:         sc.String(),
		TradingDay:    tradingDay,
		Total:         ledger.TotalCount,
		Strike:        ledger.StrikeCount,
		HasConclusion: conclusion != "",
	}); err != nil {
		log.Printf("[ERROR] record checkin: %v", err)
	}

	cur, next := h.tradingDayDisplays(req.Now)
	return formatCheckinSuccess(req.Now, ledger, conclusion, cur, next)
}

func (h *Handler) stats(req Request) string {
	ledger := h.Store.Load(req.UserID, h.scope(req))
	return formatStats(ledger, h.scope(req).IsGroup())
}

func (h *Handler) rank(req Request) string {
	sc := h.scope(req)
	ledgers := h.Store.ListAll(func(s store.Scope) bool { return s == sc })

	entries := make([]model.RankEntry, 0, len(ledgers))
	for _, l := range ledgers {
		entries = append(entries, model.RankEntry{
			UserID:      l.UserID,
			Nickname:    l.Nickname,
			StrikeCount: l.StrikeCount,
		})
	}
	// Stable: ties keep enumeration (file name) order.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].StrikeCount > entries[j].StrikeCount
	})
	if len(entries) > 10 {
		entries = entries[:10]
	}
	return formatRank(entries, sc.IsGroup())
}

func (h *Handler) revoke(req Request) string {
	sc := h.scope(req)
	ledger := h.Store.Load(req.UserID, sc)
	if len(ledger.Checkins) == 0 {
		return "您还没有任何复盘记录，无需撤销"
	}

	last := ledger.Checkins[len(ledger.Checkins)-1]
	ledger.Checkins = ledger.Checkins[:len(ledger.Checkins)-1]
	ledger.TotalCount = len(ledger.Checkins)
	ledger.StrikeCount = h.Streak.Recompute(ledger.Checkins)
	h.Store.Save(req.UserID, sc, ledger)

	if err := h.Recorder.RecordRevoke(&recorder.RevokeEvent{
		UserID: req.UserID,
		Scope:  sc.String(),
		Date:   last.Date,
		Total:  ledger.TotalCount,
		Strike: ledger.StrikeCount,
	}); err != nil {
		log.Printf("[ERROR] record revoke: %v", err)
	}

	return formatRevoke(last, ledger)
}

func (h *Handler) reset(req Request, arg string) string {
	if !h.isAdmin(req.UserID) {
		return "❌ 该命令仅限管理员使用"
	}

	var (
		target  store.Scope
		matched bool
	)
	switch {
	case arg == "私聊" || arg == "dm":
		target, matched = store.DM(), true
	case (arg == "当前群组" || arg == "current-group") && req.GroupID != "":
		target, matched = store.Group(req.GroupID), true
	case strings.HasPrefix(arg, "群组"):
		if gid := strings.TrimSpace(strings.TrimPrefix(arg, "群组")); gid != "" {
			target, matched = store.Group(gid), true
		} else {
			return "❌ 请提供要重置的群组ID，例如：/复盘重置 群组123456"
		}
	case strings.HasPrefix(arg, "group:"):
		if gid := strings.TrimPrefix(arg, "group:"); gid != "" {
			target, matched = store.Group(gid), true
		}
	}
	if !matched {
		return formatResetUsage(req.GroupID != "")
	}

	var count int
	if target.IsGroup() {
		count = h.Store.DeleteMatching(func(s store.Scope) bool { return s == target })
	} else {
		count = h.Store.DeleteMatching(func(s store.Scope) bool { return !s.IsGroup() })
	}

	if err := h.Recorder.RecordReset(&recorder.ResetEvent{
		Scope:   target.String(),
		Removed: count,
	}); err != nil {
		log.Printf("[ERROR] record reset: %v", err)
	}

	return formatResetResult(target, count)
}

func (h *Handler) summary(req Request) string {
	if !h.isAdmin(req.UserID) {
		return "❌ 该命令仅限管理员使用"
	}
	if req.GroupID == "" {
		return "❌ 该命令只能在群组中使用"
	}
	if !h.Broadcast.LLMEnabled() {
		return "❌ LLM整合功能未启用，请在配置中启用"
	}

	prev, ok := h.Cal.PreviousSession(req.Now)
	if !ok {
		return "❌ 无法获取上一个交易日信息"
	}
	reviewDate := calendar.FormatDate(prev)
	display := formatDisplayDate(prev)

	content, _, _ := h.Broadcast.GroupSummary(h.Ctx, req.GroupID, reviewDate, display)
	return "🤖 AI复盘总结 (" + display + ")\n\n" + content
}

func (h *Handler) help(req Request) string {
	return formatHelp(req.GroupID != "")
}

// tradingDayDisplays returns the display strings for the session the current
// instant reviews and the session after it. On a non-session day the
// reviewed session is the previous one.
func (h *Handler) tradingDayDisplays(now time.Time) (current, next string) {
	current, next = "未知", "未知"
	if h.Cal.IsSession(now) {
		current = formatDisplayDate(now)
	} else if prev, ok := h.Cal.PreviousSession(now); ok {
		current = formatDisplayDate(prev)
	}
	if n, ok := h.Cal.NextSession(now); ok {
		next = formatDisplayDate(n)
	}
	return current, next
}
