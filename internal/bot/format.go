package bot

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"FupanBot/internal/model"
	"FupanBot/internal/store"
)

const divider = "━━━━━━━━━━━━━━━━\n"

// formatDisplayDate renders a date as 2006年01月02日.
func formatDisplayDate(t time.Time) string {
	return t.Format("2006年01月02日")
}

func contextLabel(isGroup bool) string {
	if isGroup {
		return "群组"
	}
	return "私聊"
}

func formatCheckinSuccess(now time.Time, ledger *model.UserLedger, conclusion, currentDay, nextDay string) string {
	var b strings.Builder
	b.WriteString("✅ 复盘成功！\n")
	b.WriteString(divider)
	b.WriteString(fmt.Sprintf("  复盘时间：%s\n", now.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("  累计复盘：%d次\n", ledger.TotalCount))
	b.WriteString(fmt.Sprintf("  连续复盘：%d连击\n", ledger.StrikeCount))
	if conclusion != "" {
		b.WriteString(fmt.Sprintf("  复盘结论：%s\n", conclusion))
	}
	b.WriteString(divider)
	b.WriteString(fmt.Sprintf("  交易日（%s）已复盘\n  下一个交易日：%s", currentDay, nextDay))
	return b.String()
}

func formatStats(ledger *model.UserLedger, isGroup bool) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 您的%s复盘统计\n", contextLabel(isGroup)))
	b.WriteString(divider)
	b.WriteString(fmt.Sprintf("  总复盘次数：%d次\n", ledger.TotalCount))
	b.WriteString(fmt.Sprintf("  连续复盘次数：%d连击\n", ledger.StrikeCount))
	b.WriteString(divider)
	b.WriteString("\n")

	if len(ledger.Checkins) == 0 {
		b.WriteString("📚 暂无复盘记录\n")
		return b.String()
	}

	b.WriteString("📚 最近复盘记录：\n")
	recent := make([]model.CheckinRecord, len(ledger.Checkins))
	copy(recent, ledger.Checkins)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].Date > recent[j].Date })
	if len(recent) > 10 {
		recent = recent[:10]
	}
	for i, c := range recent {
		marker := "私"
		if c.Context == model.ContextGroup {
			marker = "群"
		}
		b.WriteString(fmt.Sprintf("  %d. %s (%s)\n", i+1, displayRecordDate(c.Date), marker))
		if c.Conclusion != "" {
			b.WriteString(fmt.Sprintf("     复盘：%s\n", c.Conclusion))
		}
	}
	return b.String()
}

// displayRecordDate turns "2006-01-02" into 2006年01月02日, passing malformed
// values through untouched.
func displayRecordDate(date string) string {
	parts := strings.SplitN(date, "-", 3)
	if len(parts) != 3 {
		return date
	}
	return parts[0] + "年" + parts[1] + "月" + parts[2] + "日"
}

func formatRank(entries []model.RankEntry, isGroup bool) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🏆 %s复盘连续打卡排行\n", contextLabel(isGroup)))
	b.WriteString(divider)
	if len(entries) == 0 {
		b.WriteString("  暂无数据\n")
	}
	for i, e := range entries {
		name := e.Nickname
		if name == "" || name == e.UserID {
			name = "用户" + e.UserID
		}
		b.WriteString(fmt.Sprintf("  %d. %s: %d连击\n", i+1, name, e.StrikeCount))
	}
	b.WriteString(strings.TrimSuffix(divider, "\n"))
	return b.String()
}

func formatRevoke(last model.CheckinRecord, ledger *model.UserLedger) string {
	var b strings.Builder
	b.WriteString("✅ 已成功撤销最后一次复盘\n")
	b.WriteString(divider)
	b.WriteString(fmt.Sprintf("  撤销记录：%s %s\n", last.Date,
		time.Unix(last.Timestamp, 0).Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("  当前累计复盘：%d次\n", ledger.TotalCount))
	b.WriteString(fmt.Sprintf("  连续复盘：%d连击\n", ledger.StrikeCount))
	b.WriteString(strings.TrimSuffix(divider, "\n"))
	return b.String()
}

func formatResetUsage(isGroup bool) string {
	ctx := contextLabel(isGroup)
	var b strings.Builder
	b.WriteString("📈 复盘数据重置命令\n")
	b.WriteString("用法：\n")
	b.WriteString("  /复盘重置 私聊 - 重置所有私聊用户数据\n")
	b.WriteString(fmt.Sprintf("  /复盘重置 当前%s - 重置%s数据\n", ctx, ctx))
	b.WriteString("  /复盘重置 群组<群号> - 重置指定群组数据\n")
	b.WriteString("⚠️ 注意：此操作不可逆，请谨慎使用！")
	return b.String()
}

func formatResetResult(target store.Scope, count int) string {
	if target.IsGroup() {
		return fmt.Sprintf("✅ 已重置群组 %s 的复盘数据，共重置 %d 位用户的记录", target.GroupID, count)
	}
	return fmt.Sprintf("✅ 已重置所有私聊用户的复盘数据，共重置 %d 位用户的记录", count)
}

func formatHelp(isGroup bool) string {
	var b strings.Builder
	b.WriteString("📈 复盘插件帮助\n")
	b.WriteString("────────────────\n")
	b.WriteString("📝 基本命令：\n")
	b.WriteString("  /复盘 [复盘结论] - 每日复盘（可附加结论）\n")
	b.WriteString("  /复盘统计 - 个人复盘统计\n")
	b.WriteString("  /复盘排行 - 复盘排行榜\n\n")
	b.WriteString("🧠 AI功能命令：\n")
	b.WriteString("  /复盘总结 - 强制生成当前群组AI复盘总结（仅管理员）\n\n")
	b.WriteString("↩️ 其他命令：\n")
	b.WriteString("  /复盘撤销 | /撤销复盘 - 撤销最后复盘\n")
	b.WriteString("  /复盘重置 - 重置数据（仅管理员）\n")
	b.WriteString("  /复盘帮助 - 显示此帮助\n\n")
	b.WriteString("示例：/复盘 我觉得明天高开低走\n")
	b.WriteString(fmt.Sprintf("当前环境：%s\n", contextLabel(isGroup)))
	b.WriteString("────────────────\n")
	b.WriteString("💡 数据在群聊和私聊中分开统计")
	return b.String()
}
