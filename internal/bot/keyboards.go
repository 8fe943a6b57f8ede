package bot

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/workflow"
)

// Данные callback-кнопок.
const (
	callbackProductPrefix = "prod:"
	callbackAddMore       = "add_more"
	callbackClearCart     = "clear_cart"
	callbackCheckout      = "checkout"
)

func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(ButtonCatalog)),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonContacts),
			tgbotapi.NewKeyboardButton(ButtonAbout),
		),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonContact(ButtonPhone)),
	)
	kb.ResizeKeyboard = true
	return kb
}

// productsKeyboard раскладывает товары по две кнопки в ряд.
func productsKeyboard(products []domain.Product) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(products); i += 2 {
		var row []tgbotapi.InlineKeyboardButton
		for _, p := range products[i:min(i+2, len(products))] {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(
				p.Name+" - "+rub(p.Price),
				callbackProductPrefix+p.ID,
			))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func cartKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("➕ Добавить товары", callbackAddMore)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✅ Оформить заказ", callbackCheckout)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🗑️ Очистить корзину", callbackClearCart)),
	)
}

// staffKeyboard — действия персонала под сообщением о заказе.
func staffKeyboard(orderID int64) tgbotapi.InlineKeyboardMarkup {
	id := strconv.FormatInt(orderID, 10)
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🖨️ Распечатать чек", string(workflow.ActionPrint)+":"+id),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Подтвержден", string(workflow.ActionConfirm)+":"+id),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отменить", string(workflow.ActionCancel)+":"+id),
		),
	)
}

// parseStaffCallback разбирает "print:12", "confirm:12", "cancel:12".
func parseStaffCallback(data string) (workflow.ActionKind, int64, bool) {
	rawKind, rawID, found := strings.Cut(data, ":")
	if !found {
		return "", 0, false
	}
	kind, ok := workflow.ParseActionKind(rawKind)
	if !ok {
		return "", 0, false
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return "", 0, false
	}
	return kind, id, true
}
