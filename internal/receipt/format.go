package receipt

import (
	"bytes"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Команды ESC/POS.
var (
	cmdInit      = []byte{0x1B, 0x40}
	cmdBoldOn    = []byte{0x1B, 0x21, 0x08}
	cmdBoldOff   = []byte{0x1B, 0x21, 0x00}
	cmdNormal    = []byte{0x1D, 0x21, 0x00}
	cmdFeedCut   = []byte{'\n', '\n', '\n', '\n', 0x1D, 0x56, 0x00}
	replacedRune = byte('?')
)

// Layout — параметры разметки чека для ленты 58 мм.
type Layout struct {
	Width        int
	NameWidth    int
	DividerWidth int
	Cashier      string
	Currency     string
	Footer       []string
}

// DefaultLayout возвращает разметку, под которую настроен принтер магазина.
func DefaultLayout() Layout {
	return Layout{
		Width:        32,
		NameWidth:    20,
		DividerWidth: 20,
		Cashier:      "Администратор",
		Currency:     "₽",
		Footer:       []string{"Спасибо за покупку!", "Ждем вас снова!"},
	}
}

// Format кодирует чек с разметкой по умолчанию.
func Format(r Receipt) []byte {
	return DefaultLayout().Format(r)
}

// Format кодирует чек в CP866; символы вне кодовой страницы заменяются на '?'.
func (l Layout) Format(r Receipt) []byte {
	w := &writer{}
	separator := strings.Repeat("=", l.Width)

	w.raw(cmdInit)
	w.bold(r.ShopName)
	w.line(r.ShopAddress)
	w.line("Тел: " + r.ShopPhone)
	w.raw(cmdNormal)
	w.line(separator)

	w.bold("ЗАКАЗ #" + strconv.FormatInt(r.OrderID, 10))
	w.line("Дата: " + r.Date)
	w.line("Кассир: " + l.Cashier)
	w.line(separator)

	w.bold("КЛИЕНТ:")
	w.line("Имя: " + r.CustomerName)
	if r.CustomerUsername != "" && r.CustomerUsername != NoValue {
		w.line("Telegram: " + r.CustomerUsername)
	}
	w.line("Телефон: " + orDefault(r.Phone, NoValue))
	w.line("Адрес: " + orDefault(r.Address, Pickup))
	w.line(separator)

	w.bold("ТОВАРЫ:")
	divider := strings.Repeat("-", l.DividerWidth)
	for _, item := range r.Items {
		w.line(l.truncate(item.Name))
		w.line(strconv.Itoa(item.Quantity) + " x " + item.Price.String() + " = " + item.Total.String())
		w.line(divider)
	}

	w.bold("ИТОГО: " + r.TotalAmount.String() + l.Currency)
	w.line(separator)
	for _, footer := range l.Footer {
		w.line(footer)
	}
	w.raw(cmdFeedCut)

	return w.buf.Bytes()
}

// truncate укорачивает название до NameWidth символов с многоточием.
func (l Layout) truncate(name string) string {
	if l.NameWidth <= 3 || utf8.RuneCountInString(name) <= l.NameWidth {
		return name
	}
	runes := []rune(name)
	return string(runes[:l.NameWidth-3]) + "..."
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

type writer struct {
	buf bytes.Buffer
}

func (w *writer) raw(cmd []byte) {
	w.buf.Write(cmd)
}

func (w *writer) line(text string) {
	w.text(text)
	w.buf.WriteByte('\n')
}

func (w *writer) bold(text string) {
	w.raw(cmdBoldOn)
	w.line(text)
	w.raw(cmdBoldOff)
}

func (w *writer) text(text string) {
	for _, r := range text {
		b, ok := charmap.CodePage866.EncodeRune(r)
		if !ok {
			b = replacedRune
		}
		w.buf.WriteByte(b)
	}
}
