package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/kipper0508/escape-bot/internal/model"
	"github.com/kipper0508/escape-bot/internal/resolve"
)

// Fixed replies.
const (
	MsgUnknownCommand  = "❌ 指令格式錯誤或不支援"
	MsgSystemError     = "❌ 系統錯誤，請稍後再試"
	MsgEventNotFound   = "❌ 查無符合條件的活動"
	MsgNoUpcoming      = "📭 尚無即將舉行的活動"
	MsgNoHistory       = "👀 尚無參加過的活動"
	MsgNoMatchingGame  = "❌ 找無條件相符的遊戲資訊"
	MsgSearchFailed    = "❌ 搜尋遊戲資訊失敗，請稍後再試"
	MsgCommentFailed   = "❌ 整理評論失敗，請稍後再試"
	MsgDeleteFailed    = "❌ 刪除活動失敗"
	MsgPastEvent       = "❌ 活動時間必須是未來時間"
	MsgNoDescription   = "（無說明）"
	MsgDescriptionLost = "無法取得遊戲描述"
	MsgScaryWarning    = "👻👻 恐怖警告 👻👻\n"
)

const (
	fullTime  = "2006/1/2 15:04"
	shortTime = "1/2 15:04"
)

// WelcomeMessage greets a group the bot was just invited to.
func WelcomeMessage(trigger string) string {
	return "👋 大家好，我是" + trigger + "！\n" +
		"我可以幫忙記錄密室逃脫的行程、查詢主題資訊與整理玩家評論。\n" +
		"輸入「" + trigger + " 幫助」查看所有指令。"
}

// CommandGuide lists every command with an example.
func CommandGuide(trigger string) string {
	lines := []string{
		"📖 " + trigger + "指令說明",
		"",
		"➕ 新增活動",
		trigger + " 新增 6/20 16:00 偶像出道",
		trigger + " 新增 6/20 16:00 偶像出道 (台北 1)",
		"",
		"📅 查詢未來活動",
		trigger + " 查詢所有",
		"",
		"📌 查詢單一活動",
		trigger + " 查詢 偶像出道 (6/20 16:00 台北)",
		"",
		"🏛️ 查詢歷史活動",
		trigger + " 查詢歷史",
		"",
		"🗑️ 刪除活動",
		trigger + " 刪除 偶像出道 (6/20)",
		"",
		"🧭 搜尋主題",
		trigger + " 找主題 偶像出道 (台北 1)",
		"",
		"💬 玩家評論",
		trigger + " 看評論 偶像出道",
		"",
		"❓ 顯示本說明",
		trigger + " 幫助",
	}
	return strings.Join(lines, "\n")
}

func orNoDescription(s string) string {
	if strings.TrimSpace(s) == "" {
		return MsgNoDescription
	}
	return s
}

func eventCreated(e *model.Event, loc *time.Location) string {
	return fmt.Sprintf("✅ 已新增活動：「%s」\n時間：%s\n%s",
		e.Title, e.EventTime.In(loc).Format(fullTime), orNoDescription(e.Description))
}

// eventConflict names the occupied window but not the other event's title.
func eventConflict(existing time.Time, window time.Duration, loc *time.Location) string {
	existing = existing.In(loc)
	return fmt.Sprintf("⚠️ 該時間已有活動\n%s 前後 %d 分鐘內已有安排",
		existing.Format(fullTime), int(window/time.Minute))
}

func eventInfo(e *model.Event, loc *time.Location) string {
	return fmt.Sprintf("📌 活動資訊\n名稱：%s\n時間：%s\n%s",
		e.Title, e.EventTime.In(loc).Format(fullTime), orNoDescription(e.Description))
}

func eventDeleted(e *model.Event) string {
	return fmt.Sprintf("🗑️ 已刪除活動：「%s」", e.Title)
}

func eventsAmbiguous(events []*model.Event, loc *time.Location) string {
	var b strings.Builder
	b.WriteString("⚠️ 查詢到多筆活動，請提供更完整的時間或地點資訊")
	for i, e := range events {
		fmt.Fprintf(&b, "\n%d. %s（%s %s）", i+1, e.Title, e.EventTime.In(loc).Format(shortTime), e.Location)
	}
	return b.String()
}

func eventList(header, bullet string, events []*model.Event, loc *time.Location) string {
	lines := make([]string, 0, len(events))
	for _, e := range events {
		lines = append(lines, fmt.Sprintf("%s %s（%s %s）",
			bullet, e.Title, e.EventTime.In(loc).Format(shortTime), e.Location))
	}
	return header + "\n\n" + strings.Join(lines, "\n")
}

func upcomingList(events []*model.Event, loc *time.Location) string {
	return eventList("📅 未來活動列表：", "📌", events, loc)
}

func historyList(events []*model.Event, loc *time.Location) string {
	return eventList("🏛️ 歷史活動列表：", "📜", events, loc)
}

func gameNotFound(title, example string) string {
	return withExample(fmt.Sprintf("❌ 找不到「%s」相關的密室主題", title), example)
}

// withExample appends a correctly formed command to a not-found reply.
func withExample(msg, example string) string {
	return msg + "\n\n範例：\n" + example
}

// gamesAmbiguous lists the candidates and shows how to narrow them with the
// command that produced the list.
func gamesAmbiguous(title string, games []model.Game, example string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ 搜尋「%s」找到多個相關密室：\n", title)
	for i, g := range games {
		fmt.Fprintf(&b, "\n%d. %s（%s）", i+1, g.Title, resolve.VenueName(g.VenueID))
	}
	b.WriteString("\n\n請使用附加條件搜尋\n")
	b.WriteString(example)
	return b.String()
}

func gameInfo(g model.Game, scary bool, description string) string {
	warning := ""
	if scary {
		warning = MsgScaryWarning
	}
	return fmt.Sprintf("🧭 主題資訊\n%s名稱：%s\n%s", warning, g.Title, orNoDescription(description))
}

func gameComment(tags []string, summary string) string {
	return fmt.Sprintf("💬 玩家評論\n\n主題標籤：%s\n\nAI總結：\n\n%s", strings.Join(tags, ", "), summary)
}

// FormatReminder renders the reminder pushed before an event.
func FormatReminder(e *model.Event, loc *time.Location) string {
	return fmt.Sprintf("⏰ 活動提醒: 「%s」\n時間：%s\n%s",
		e.Title, e.EventTime.In(loc).Format(fullTime), orNoDescription(e.Description))
}
