package bot

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FupanBot/internal/broadcast"
	"FupanBot/internal/calendar"
	"FupanBot/internal/model"
	"FupanBot/internal/recorder"
	"FupanBot/internal/store"
	"FupanBot/internal/streak"
	"FupanBot/internal/window"
)

// Weekday-only calendar; 2025-06-02 is a Monday.
func testHandler(t *testing.T) *Handler {
	t.Helper()
	cal := calendar.NewAdapter(calendar.NewTableSource(nil))
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	return &Handler{
		Store:     st,
		Registry:  store.LoadRegistry(st.Dir()),
		Resolver:  window.NewResolver(cal, window.Config{Default: window.Span{Start: "15:00", End: "09:00"}}),
		Streak:    streak.NewEngine(cal, time.UTC),
		Cal:       cal,
		Recorder:  recorder.NewNoopRecorder(),
		Broadcast: broadcast.NewBuilder(st, nil),
		Admins:    map[string]struct{}{"admin": {}},
		Ctx:       context.Background(),
	}
}

func instant(t *testing.T, day string, hh, mm int) time.Time {
	t.Helper()
	d, err := calendar.ParseDate(day, time.UTC)
	if err != nil {
		t.Fatalf("parse %s: %v", day, err)
	}
	return d.Add(time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute)
}

func req(userID, groupID, text string, now time.Time) Request {
	chatID := "chat-dm-" + userID
	if groupID != "" {
		chatID = "chat-" + groupID
	}
	return Request{UserID: userID, Nickname: "小明", GroupID: groupID, ChatID: chatID, Text: text, Now: now}
}

func TestCheckin_Success(t *testing.T) {
	h := testHandler(t)
	now := instant(t, "2025-06-02", 16, 0)

	reply := h.Handle(req("u1", "", "/复盘 明天看多", now))
	assert.Contains(t, reply, "复盘成功")
	assert.Contains(t, reply, "累计复盘：1次")
	assert.Contains(t, reply, "连续复盘：1连击")
	assert.Contains(t, reply, "明天看多")
	assert.Contains(t, reply, "2025年06月02日")

	l := h.Store.Load("u1", store.DM())
	require.Len(t, l.Checkins, 1)
	assert.Equal(t, 1, l.TotalCount)
	assert.Equal(t, "小明", l.Nickname)
	assert.Equal(t, "2025-06-02", l.Checkins[0].TradingDay)
	assert.Equal(t, "2025-06-03", l.Checkins[0].NextTradingDay)
}

func TestCheckin_DuplicateDateRejected(t *testing.T) {
	h := testHandler(t)
	now := instant(t, "2025-06-02", 16, 0)

	h.Handle(req("u1", "", "/复盘", now))
	reply := h.Handle(req("u1", "", "/复盘", now.Add(30*time.Minute)))
	assert.Contains(t, reply, "已复盘")

	l := h.Store.Load("u1", store.DM())
	assert.Equal(t, 1, l.TotalCount)
	assert.Equal(t, 1, l.StrikeCount)
}

func TestCheckin_OutsideWindow(t *testing.T) {
	h := testHandler(t)
	reply := h.Handle(req("u1", "", "/复盘", instant(t, "2025-06-02", 10, 0)))
	assert.Contains(t, reply, "不在打卡时间窗口内")
	assert.Empty(t, h.Store.Load("u1", store.DM()).Checkins)
}

func TestCheckin_WeekendAttributedToPreviousSession(t *testing.T) {
	h := testHandler(t)
	// Saturday morning, inside Friday's overnight window.
	reply := h.Handle(req("u1", "", "/复盘", instant(t, "2025-06-07", 8, 0)))
	assert.Contains(t, reply, "复盘成功")

	l := h.Store.Load("u1", store.DM())
	require.Len(t, l.Checkins, 1)
	assert.Equal(t, "2025-06-07", l.Checkins[0].Date)
	assert.Equal(t, "2025-06-06", l.Checkins[0].TradingDay)
	assert.Equal(t, "2025-06-09", l.Checkins[0].NextTradingDay)
}

func TestCheckin_GroupRegistersBroadcastTarget(t *testing.T) {
	h := testHandler(t)
	h.Handle(req("u1", "123", "/复盘", instant(t, "2025-06-02", 16, 0)))

	target, ok := h.Registry.Get("123")
	require.True(t, ok)
	assert.Equal(t, "chat-123", target)

	l := h.Store.Load("u1", store.Group("123"))
	require.Len(t, l.Checkins, 1)
	assert.Equal(t, model.ContextGroup, l.Checkins[0].Context)
}

func TestStreak_AcrossSessions(t *testing.T) {
	h := testHandler(t)
	h.Handle(req("u1", "", "/复盘", instant(t, "2025-06-02", 16, 0)))
	h.Handle(req("u1", "", "/复盘", instant(t, "2025-06-03", 16, 0)))
	reply := h.Handle(req("u1", "", "/复盘", instant(t, "2025-06-04", 16, 0)))
	assert.Contains(t, reply, "连续复盘：3连击")
}

func TestRevoke_LeftInverse(t *testing.T) {
	h := testHandler(t)
	h.Handle(req("u1", "", "/复盘", instant(t, "2025-06-02", 16, 0)))
	h.Handle(req("u1", "", "/复盘", instant(t, "2025-06-03", 16, 0)))

	reply := h.Handle(req("u1", "", "/复盘撤销", instant(t, "2025-06-03", 17, 0)))
	assert.Contains(t, reply, "已成功撤销")
	assert.Contains(t, reply, "当前累计复盘：1次")
	assert.Contains(t, reply, "连续复盘：1连击")

	l := h.Store.Load("u1", store.DM())
	assert.Equal(t, 1, l.TotalCount)
	assert.Equal(t, 1, l.StrikeCount)
}

func TestRevoke_Empty(t *testing.T) {
	h := testHandler(t)
	reply := h.Handle(req("u1", "", "/复盘撤销", instant(t, "2025-06-02", 16, 0)))
	assert.Contains(t, reply, "无需撤销")
}

func TestStats_RecentHistory(t *testing.T) {
	h := testHandler(t)
	h.Handle(req("u1", "", "/复盘 第一天", instant(t, "2025-06-02", 16, 0)))
	h.Handle(req("u1", "", "/复盘 第二天", instant(t, "2025-06-03", 16, 0)))

	reply := h.Handle(req("u1", "", "/复盘统计", instant(t, "2025-06-03", 17, 0)))
	assert.Contains(t, reply, "总复盘次数：2次")
	assert.Contains(t, reply, "连续复盘次数：2连击")
	// Newest first.
	assert.Less(t, strings.Index(reply, "2025年06月03日"), strings.Index(reply, "2025年06月02日"))
	assert.Contains(t, reply, "第二天")
}

func saveRanked(t *testing.T, h *Handler, userID, nickname string, sc store.Scope, strike int) {
	t.Helper()
	l := model.NewUserLedger(userID)
	l.Nickname = nickname
	l.StrikeCount = strike
	h.Store.Save(userID, sc, l)
}

func TestRank_OrderingAndStableTies(t *testing.T) {
	h := testHandler(t)
	g := store.Group("123")
	saveRanked(t, h, "a", "甲", g, 5)
	saveRanked(t, h, "b", "乙", g, 3)
	saveRanked(t, h, "c", "丙", g, 8)
	saveRanked(t, h, "d", "丁", g, 5) // tie with "a", enumerates after it
	saveRanked(t, h, "z", "庚", store.DM(), 99)

	reply := h.Handle(req("u1", "123", "/复盘排行", instant(t, "2025-06-02", 16, 0)))
	require.Contains(t, reply, "丙")
	assert.NotContains(t, reply, "庚") // other scope never leaks in

	iC, iA, iD, iB := strings.Index(reply, "丙"), strings.Index(reply, "甲"),
		strings.Index(reply, "丁"), strings.Index(reply, "乙")
	assert.Less(t, iC, iA, "8 before 5")
	assert.Less(t, iA, iD, "ties keep enumeration order")
	assert.Less(t, iD, iB, "5 before 3")
}

func TestRank_DisplayNameFallback(t *testing.T) {
	h := testHandler(t)
	saveRanked(t, h, "u9", "", store.DM(), 2)
	reply := h.Handle(req("u1", "", "/复盘排行", instant(t, "2025-06-02", 16, 0)))
	assert.Contains(t, reply, "用户u9")
}

func TestReset_ScopedToGroup(t *testing.T) {
	h := testHandler(t)
	saveRanked(t, h, "a", "甲", store.Group("123"), 1)
	saveRanked(t, h, "b", "乙", store.Group("123"), 1)
	saveRanked(t, h, "c", "丙", store.Group("456"), 1)
	saveRanked(t, h, "d", "丁", store.DM(), 1)

	reply := h.Handle(req("admin", "", "/复盘重置 group:123", instant(t, "2025-06-02", 16, 0)))
	assert.Contains(t, reply, "群组 123")
	assert.Contains(t, reply, "共重置 2 位用户的记录")

	g123 := store.Group("123")
	assert.Empty(t, h.Store.ListAll(func(s store.Scope) bool { return s == g123 }))
	assert.Len(t, h.Store.ListAll(func(s store.Scope) bool { return s == store.Group("456") }), 1)
	assert.Len(t, h.Store.ListAll(func(s store.Scope) bool { return !s.IsGroup() }), 1)
}

func TestReset_AllDM(t *testing.T) {
	h := testHandler(t)
	saveRanked(t, h, "a", "甲", store.DM(), 1)
	saveRanked(t, h, "b", "乙", store.DM(), 1)
	saveRanked(t, h, "c", "丙", store.Group("123"), 1)

	reply := h.Handle(req("admin", "", "/复盘重置 私聊", instant(t, "2025-06-02", 16, 0)))
	assert.Contains(t, reply, "共重置 2 位用户的记录")
	assert.Len(t, h.Store.ListAll(func(s store.Scope) bool { return s.IsGroup() }), 1)
}

func TestReset_RequiresAdmin(t *testing.T) {
	h := testHandler(t)
	saveRanked(t, h, "a", "甲", store.DM(), 1)
	reply := h.Handle(req("u1", "", "/复盘重置 私聊", instant(t, "2025-06-02", 16, 0)))
	assert.Contains(t, reply, "仅限管理员")
	assert.Len(t, h.Store.ListAll(func(s store.Scope) bool { return !s.IsGroup() }), 1)
}

func TestReset_UsageOnUnknownArg(t *testing.T) {
	h := testHandler(t)
	reply := h.Handle(req("admin", "", "/复盘重置", instant(t, "2025-06-02", 16, 0)))
	assert.Contains(t, reply, "复盘数据重置命令")
}

func TestSummary_Gates(t *testing.T) {
	h := testHandler(t)
	now := instant(t, "2025-06-03", 10, 0)

	assert.Contains(t, h.Handle(req("u1", "123", "/复盘总结", now)), "仅限管理员")
	assert.Contains(t, h.Handle(req("admin", "", "/复盘总结", now)), "只能在群组中使用")
	// Builder has no summarizer wired in this fixture.
	assert.Contains(t, h.Handle(req("admin", "123", "/复盘总结", now)), "LLM整合功能未启用")
}

func TestHelp(t *testing.T) {
	h := testHandler(t)
	reply := h.Handle(req("u1", "", "/复盘帮助", instant(t, "2025-06-02", 16, 0)))
	assert.Contains(t, reply, "复盘插件帮助")
	assert.Contains(t, reply, "私聊")
}

func TestHandle_IgnoresUnknown(t *testing.T) {
	h := testHandler(t)
	assert.Empty(t, h.Handle(req("u1", "", "随便聊聊", instant(t, "2025-06-02", 16, 0))))
	assert.Empty(t, h.Handle(req("u1", "", "", instant(t, "2025-06-02", 16, 0))))
}
