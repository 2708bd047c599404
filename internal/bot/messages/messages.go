// Package messages содержит тексты сообщений бота (HTML parse mode).
package messages

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"telegram_booking_bot/internal/storage/models"
)

const (
	ButtonOpenWebApp = "Записаться 👑💈"

	Received        = "✅ <b>Заявка получена.</b> Обрабатываю…"
	Incomplete      = "⚠️ Данные неполные. Откройте WebApp и отправьте снова."
	SlotTaken       = "⛔️ <b>Это время уже занято.</b>\nПожалуйста, выберите другое время и отправьте заявку снова."
	SaveFailed      = "⚠️ Не удалось сохранить заявку. Пожалуйста, попробуйте еще раз чуть позже."
	TooManyRequests = "⏳ Слишком много заявок подряд. Подождите минуту и попробуйте снова."
	PressStart      = "Пожалуйста, нажмите /start, чтобы записаться."
	NoBookings      = "У вас пока нет записей. Нажмите /start, чтобы записаться."
	HistoryFailed   = "⚠️ Не удалось получить список записей."
	NoServices      = "⚠️ Услуги не указаны"
)

// Welcome возвращает трехъязычное приветствие
func Welcome(shop string) string {
	shop = html.EscapeString(shop)
	return "🇷🇺 Добро пожаловать в <b>" + shop + "</b> 👑💈\n" +
		"Запишитесь на удобное время и выберите услуги — нажмите кнопку ниже.\n\n" +
		"🇺🇿 <b>" + shop + "</b> 👑💈 ga xush kelibsiz!\n" +
		"Qulay vaqtga yoziling va xizmatlarni tanlang — pastdagi tugmani bosing.\n\n" +
		"🇬🇧 Welcome to <b>" + shop + "</b> 👑💈\n" +
		"Book a time and choose services — tap the button below."
}

// FormatSum форматирует сумму с пробелом между разрядами: 1250000 -> "1 250 000"
func FormatSum(n int) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}

	digits := strconv.Itoa(n)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}

// ServiceLines строит строки списка услуг
func ServiceLines(items []models.ServiceItem) []string {
	lines := make([]string, 0, len(items))
	for _, s := range items {
		name := html.EscapeString(s.Name)
		switch {
		case s.Price > 0 && s.Duration > 0:
			lines = append(lines, fmt.Sprintf("• %s — %s сум • %d мин", name, FormatSum(s.Price), s.Duration))
		case s.Price > 0:
			lines = append(lines, fmt.Sprintf("• %s — %s сум", name, FormatSum(s.Price)))
		default:
			lines = append(lines, "• "+name)
		}
	}

	if len(lines) == 0 {
		lines = append(lines, NoServices)
	}
	return lines
}

// Booking собирает данные для уведомлений о новой записи
type Booking struct {
	Appointment   *models.Appointment
	Services      []models.ServiceItem
	TelegramLabel string
}

func dash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

// AdminAlert формирует уведомление администратору
func AdminAlert(shop string, b Booking) string {
	a := b.Appointment

	var sb strings.Builder
	fmt.Fprintf(&sb, "🚨 <b>НОВАЯ ЗАПИСЬ — %s</b>\n", html.EscapeString(shop))
	fmt.Fprintf(&sb, "🆔 <b>#%d</b>\n\n", a.ID)
	sb.WriteString("<b>Услуги:</b>\n")
	sb.WriteString(strings.Join(ServiceLines(b.Services), "\n"))
	fmt.Fprintf(&sb, "\n\n💰 <b>Сумма:</b> %s сум", FormatSum(a.TotalPrice))
	fmt.Fprintf(&sb, "\n⏱ <b>Длительность:</b> %d мин", a.DurationMin)
	fmt.Fprintf(&sb, "\n💈 <b>Мастер:</b> %s", html.EscapeString(a.MasterName))
	fmt.Fprintf(&sb, "\n🗓 <b>Дата:</b> %s", html.EscapeString(a.Date))
	fmt.Fprintf(&sb, "\n⏰ <b>Время:</b> %s", html.EscapeString(a.Time))
	fmt.Fprintf(&sb, "\n📞 <b>Телефон:</b> %s", html.EscapeString(dash(a.UserPhone)))
	fmt.Fprintf(&sb, "\n👤 <b>Клиент:</b> %s", html.EscapeString(a.UserName))
	fmt.Fprintf(&sb, "\n👤 <b>Telegram:</b> %s", html.EscapeString(dash(b.TelegramLabel)))
	if a.Comment != "" {
		fmt.Fprintf(&sb, "\n💬 <b>Комментарий:</b> %s", html.EscapeString(a.Comment))
	}
	return sb.String()
}

// ClientConfirmation формирует подтверждение клиенту
func ClientConfirmation(b Booking) string {
	a := b.Appointment

	var sb strings.Builder
	sb.WriteString("✅ <b>Ваша запись принята!</b>\n")
	sb.WriteString("Мы скоро свяжемся для подтверждения.\n\n")
	fmt.Fprintf(&sb, "🆔 <b>#%d</b>\n", a.ID)
	fmt.Fprintf(&sb, "💈 <b>Мастер:</b> %s\n", html.EscapeString(a.MasterName))
	fmt.Fprintf(&sb, "🗓 <b>Дата:</b> %s\n", html.EscapeString(a.Date))
	fmt.Fprintf(&sb, "⏰ <b>Время:</b> %s\n\n", html.EscapeString(a.Time))
	sb.WriteString("<b>Услуги:</b>\n")
	sb.WriteString(strings.Join(ServiceLines(b.Services), "\n"))
	fmt.Fprintf(&sb, "\n\n💰 <b>Сумма:</b> %s сум", FormatSum(a.TotalPrice))
	fmt.Fprintf(&sb, "\n⏱ <b>Длительность:</b> %d мин", a.DurationMin)
	if a.Comment != "" {
		fmt.Fprintf(&sb, "\n💬 <b>Комментарий:</b> %s", html.EscapeString(a.Comment))
	}
	return sb.String()
}

var statusTitles = map[string]string{
	models.StatusPending:   "ожидает подтверждения",
	models.StatusConfirmed: "подтверждена",
	models.StatusCancelled: "отменена",
}

// BookingHistory формирует список последних записей пользователя
func BookingHistory(appts []*models.Appointment) string {
	if len(appts) == 0 {
		return NoBookings
	}

	var sb strings.Builder
	sb.WriteString("<b>Ваши записи:</b>\n")
	for _, a := range appts {
		status, ok := statusTitles[a.Status]
		if !ok {
			status = a.Status
		}
		fmt.Fprintf(&sb, "\n🆔 <b>#%d</b> · %s %s · %s · %s",
			a.ID,
			html.EscapeString(a.Date),
			html.EscapeString(a.Time),
			html.EscapeString(a.MasterName),
			html.EscapeString(status),
		)
	}
	return sb.String()
}
