package bot

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/receipt"
	"github.com/vladislavdragonenkov/storefront/internal/workflow"
)

// Тексты кнопок главной клавиатуры.
const (
	ButtonCatalog  = "🛍️ Заказать товары"
	ButtonContacts = "📞 Контакты"
	ButtonAbout    = "ℹ️ О магазине"
	ButtonPhone    = "📱 Отправить телефон"
)

// rub печатает сумму без копеек, если они нулевые.
func rub(m domain.Money) string {
	if m%100 == 0 {
		return fmt.Sprintf("%d₽", int64(m)/100)
	}
	return m.String() + "₽"
}

func productListText(header string, products []domain.Product) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	for i, p := range products {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, html.EscapeString(p.Name), rub(p.Price))
	}
	if len(products) == 0 {
		b.WriteString("Сейчас нет товаров в продаже.\n")
	}
	return b.String()
}

func cartText(header string, items []domain.LineItem) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	for _, item := range items {
		fmt.Fprintf(&b, "• %s - %dшт. × %s = %s\n",
			html.EscapeString(item.Name), item.Quantity, rub(item.UnitPrice), rub(item.Total))
	}
	fmt.Fprintf(&b, "\n<b>Итого: %s</b>", rub(domain.SumLineItems(items)))
	return b.String()
}

func customerLabel(name, username string) string {
	label := html.EscapeString(name)
	if username != "" {
		label += " (@" + html.EscapeString(username) + ")"
	}
	return label
}

// announcementText — сообщение о заказе в канале персонала без строки аудита.
func announcementText(order domain.Order, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🛒 <b>НОВЫЙ ЗАКАЗ #%d</b>\n\n", order.ID)
	fmt.Fprintf(&b, "👤 <b>Клиент:</b> %s\n", customerLabel(order.CustomerName, order.Username))
	fmt.Fprintf(&b, "📱 <b>ID:</b> %d\n", order.CustomerID)
	if order.Phone != "" {
		fmt.Fprintf(&b, "📞 <b>Телефон:</b> %s\n", html.EscapeString(order.Phone))
	}
	if order.Address != "" {
		fmt.Fprintf(&b, "📍 <b>Адрес:</b> %s\n", html.EscapeString(order.Address))
	}

	b.WriteString("\n<b>Товары:</b>\n")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "• %s - %dшт. × %s = %s\n",
			html.EscapeString(item.Name), item.Quantity, rub(item.UnitPrice), rub(item.Total))
	}
	fmt.Fprintf(&b, "\n<b>💰 Итого: %s</b>\n", rub(order.Total))
	fmt.Fprintf(&b, "⏰ <b>Время:</b> %s", order.CreatedAt.In(loc).Format(receipt.DateLayout))
	if order.Username != "" {
		fmt.Fprintf(&b, "\n\n💡 <i>Для связи с клиентом: @%s</i>", html.EscapeString(order.Username))
	}
	return b.String()
}

// auditLine — строка под сообщением о заказе после действия персонала.
func auditLine(action workflow.ActionKind) string {
	switch action {
	case workflow.ActionPrint:
		return "✅ Чек распечатан администратором"
	case workflow.ActionConfirm:
		return "✅ Подтвержден администратором"
	case workflow.ActionCancel:
		return "❌ Отменен администратором"
	default:
		return ""
	}
}

func orderAcceptedText(order domain.Order, shopPhone string) string {
	return fmt.Sprintf("✅ <b>Ваш заказ #%d принят!</b>\n\n"+
		"<b>Сумма:</b> %s\n"+
		"<b>Статус:</b> Ожидает подтверждения\n\n"+
		"Мы свяжемся с вами в ближайшее время для уточнения деталей доставки.\n\n"+
		"📞 %s", order.ID, rub(order.Total), html.EscapeString(shopPhone))
}

func welcomeText(shopName, firstName string) string {
	return fmt.Sprintf("👋 Добро пожаловать в %s, %s!\n\n"+
		"🎂 Мы предлагаем свежие кондитерские изделия собственного производства.\n\n"+
		"💡 <b>Доступные команды:</b>\n"+
		"• %s - выбрать товары из каталога\n"+
		"• %s - связаться с нами\n"+
		"• %s - информация о магазине\n"+
		"• /address &lt;адрес&gt; - адрес доставки\n\n"+
		"Выберите действие или используйте кнопки ниже:",
		html.EscapeString(shopName), html.EscapeString(firstName), ButtonCatalog, ButtonContacts, ButtonAbout)
}

func contactsText(shop receipt.Shop) string {
	return fmt.Sprintf("📞 <b>Наши контакты:</b>\n\n"+
		"🏪 Магазин: <b>%s</b>\n"+
		"📍 Адрес: %s\n"+
		"📱 Телефон: %s\n\n"+
		"⏰ <b>Время работы:</b>\nПн-Вс: 9:00 - 21:00",
		html.EscapeString(shop.Name), html.EscapeString(shop.Address), html.EscapeString(shop.Phone))
}

func aboutText(shop receipt.Shop) string {
	return fmt.Sprintf("🏪 <b>%s</b>\n\n"+
		"Мы специализируемся на свежих кондитерских изделиях собственного производства.\n\n"+
		"📍 %s\n📱 %s",
		html.EscapeString(shop.Name), html.EscapeString(shop.Address), html.EscapeString(shop.Phone))
}
