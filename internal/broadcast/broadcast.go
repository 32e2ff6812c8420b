package broadcast

import (
	"context"
	"fmt"
	"log"
	"strings"

	"FupanBot/internal/model"
	"FupanBot/internal/store"
)

const consolidationSystemPrompt = "你是一个专业的交易分析师，擅长总结和分析交易者的复盘内容。请提供简洁、有价值的综合评述。"

// Summarizer produces a consolidated commentary from member review lines.
// Satisfied by llm.Client.
type Summarizer interface {
	Complete(ctx context.Context, systemPrompt, prompt string) (string, error)
}

// Builder assembles daily review summaries per group. LLM is nil when
// consolidation is disabled; failures degrade to the bare statistics.
type Builder struct {
	Store *store.Store
	LLM   Summarizer
}

// NewBuilder creates a Builder. llm may be nil.
func NewBuilder(st *store.Store, llm Summarizer) *Builder {
	return &Builder{Store: st, LLM: llm}
}

// LLMEnabled reports whether AI consolidation is available.
func (b *Builder) LLMEnabled() bool { return b.LLM != nil }

// Entry is one member's review for a trading day.
type Entry struct {
	UserID     string
	Nickname   string
	Conclusion string
}

// CollectGroupCheckins gathers, per member of groupID, the review submitted
// for tradingDay (at most one each).
func (b *Builder) CollectGroupCheckins(groupID, tradingDay string) []Entry {
	sc := store.Group(groupID)
	ledgers := b.Store.ListAll(func(s store.Scope) bool { return s == sc })
	var out []Entry
	for _, l := range ledgers {
		for _, c := range l.Checkins {
			if c.TradingDay == tradingDay && c.Context == model.ContextGroup {
				out = append(out, Entry{
					UserID:     l.UserID,
					Nickname:   l.Nickname,
					Conclusion: c.Conclusion,
				})
				break
			}
		}
	}
	return out
}

// GroupSummary builds the review summary of groupID for the given session.
// reviewDate is "2006-01-02"; displayDate is the human-readable form.
// aiIncluded reports whether an AI section actually made it into the text.
func (b *Builder) GroupSummary(ctx context.Context, groupID, reviewDate, displayDate string) (text string, participants int, aiIncluded bool) {
	entries := b.CollectGroupCheckins(groupID, reviewDate)
	if len(entries) == 0 {
		return fmt.Sprintf("📋 群组 %s 在 %s 没有复盘记录", groupID, displayDate), 0, false
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 群组 %s 复盘情况:\n", groupID))
	sb.WriteString(fmt.Sprintf("   参与人数: %d人\n\n", len(entries)))
	for i, e := range entries {
		sb.WriteString(fmt.Sprintf("   %d. %s: %s\n", i+1, displayName(e), conclusionText(e)))
	}

	if summary := b.consolidate(ctx, entries); summary != "" {
		sb.WriteString(fmt.Sprintf("\n🤖 AI智能总结:\n   %s\n", summary))
		aiIncluded = true
	}
	return sb.String(), len(entries), aiIncluded
}

// consolidate asks the LLM for a combined commentary. Disabled, failed, or
// empty results all read the same to the caller: no AI section.
func (b *Builder) consolidate(ctx context.Context, entries []Entry) string {
	if b.LLM == nil || len(entries) == 0 {
		return ""
	}
	lines := make([]string, 0, len(entries))
	for i, e := range entries {
		lines = append(lines, fmt.Sprintf("%d. %s: %s", i+1, displayName(e), conclusionText(e)))
	}
	prompt := "以下是群组成员的交易复盘内容：\n" + strings.Join(lines, "\n") +
		"\n\n请对以上内容进行总结和分析，提供一个简洁的综合评述："

	text, err := b.LLM.Complete(ctx, consolidationSystemPrompt, prompt)
	if err != nil {
		log.Printf("[WARN] LLM consolidation failed: %v", err)
		return ""
	}
	return strings.TrimSpace(text)
}

// displayName masks members whose nickname is unusable.
func displayName(e Entry) string {
	if e.Nickname != "" && e.Nickname != e.UserID {
		return e.Nickname
	}
	id := e.UserID
	if len(id) > 4 {
		id = id[:4]
	}
	return fmt.Sprintf("用户%s***", id)
}

func conclusionText(e Entry) string {
	if e.Conclusion == "" {
		return "无具体结论"
	}
	return e.Conclusion
}
