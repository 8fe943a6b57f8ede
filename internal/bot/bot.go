// Package bot — Telegram-бот витрины: каталог, корзина, оформление заказа и кнопки персонала.
package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/receipt"
	"github.com/vladislavdragonenkov/storefront/internal/workflow"
)

// API — Bot API целиком: отправка и получение обновлений.
type API interface {
	Sender
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Workflow — операции витрины, доступные из чата.
type Workflow interface {
	AddToCart(ctx context.Context, customerID int64, productID string) (domain.Product, error)
	Checkout(ctx context.Context, customer domain.Customer) (domain.Order, error)
	HandleAction(ctx context.Context, action workflow.StaffAction) (domain.Order, error)
	IsStaff(id int64) bool
}

// StatsProvider отдаёт статистику за сегодня для /admin.
type StatsProvider interface {
	TodayStats(ctx context.Context) (domain.OrderStats, error)
}

// Config — параметры бота.
type Config struct {
	Shop    receipt.Shop
	Channel Channel
	// UpdateTimeout — long polling, секунды.
	UpdateTimeout int
}

type profile struct {
	phone   string
	address string
}

// Bot обрабатывает обновления Telegram, каждое в своей горутине.
type Bot struct {
	api      API
	flow     Workflow
	carts    workflow.CartStore
	catalog  domain.Catalog
	stats    StatsProvider
	cfg      Config
	logger   *log.Entry
	wg       sync.WaitGroup
	mu       sync.Mutex
	profiles map[int64]profile
}

// New создаёт бота; stats может быть nil.
func New(api API, flow Workflow, carts workflow.CartStore, catalog domain.Catalog, stats StatsProvider, cfg Config, logger *log.Entry) *Bot {
	if logger == nil {
		logger = log.WithField("component", "bot")
	}
	if cfg.UpdateTimeout <= 0 {
		cfg.UpdateTimeout = 30
	}
	return &Bot{
		api:      api,
		flow:     flow,
		carts:    carts,
		catalog:  catalog,
		stats:    stats,
		cfg:      cfg,
		logger:   logger,
		profiles: make(map[int64]profile),
	}
}

// Run читает обновления до отмены ctx и дожидается обработчиков.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("bot started polling")
	defer func() {
		b.api.StopReceivingUpdates()
		b.wg.Wait()
		b.logger.Info("bot stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.HandleUpdate(ctx, update)
			}()
		}
	}
}

// HandleUpdate обрабатывает одно обновление; паника в обработчике не роняет бота.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.WithField("update_id", update.UpdateID).Errorf("panic while handling update: %v", r)
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}

	if msg.Contact != nil {
		b.handleContact(msg)
		return
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.reply(msg.Chat.ID, welcomeText(b.cfg.Shop.Name, msg.From.FirstName), mainKeyboard())
		case "cart":
			b.showCart(msg.Chat.ID, msg.From.ID)
		case "admin":
			b.showAdmin(ctx, msg)
		case "address":
			b.setAddress(msg)
		case "debug":
			b.showDebug(msg)
		default:
			b.reply(msg.Chat.ID, "Неизвестная команда. Используйте /start", nil)
		}
		return
	}

	switch msg.Text {
	case ButtonCatalog:
		products := b.catalog.Products()
		b.reply(msg.Chat.ID,
			productListText("🎂 <b>Наши кондитерские изделия:</b>", products)+"\nВыберите товар для заказа:",
			productsKeyboard(products))
	case ButtonContacts:
		b.reply(msg.Chat.ID, contactsText(b.cfg.Shop), nil)
	case ButtonAbout:
		b.reply(msg.Chat.ID, aboutText(b.cfg.Shop), nil)
	}
}

func (b *Bot) handleContact(msg *tgbotapi.Message) {
	// Принимаем только собственный контакт пользователя.
	if msg.Contact.UserID != 0 && msg.Contact.UserID != msg.From.ID {
		b.reply(msg.Chat.ID, "❌ Отправьте, пожалуйста, свой номер телефона.", nil)
		return
	}
	b.mu.Lock()
	p := b.profiles[msg.From.ID]
	p.phone = msg.Contact.PhoneNumber
	b.profiles[msg.From.ID] = p
	b.mu.Unlock()

	b.reply(msg.Chat.ID, "📱 Телефон сохранён: "+html.EscapeString(msg.Contact.PhoneNumber), nil)
}

func (b *Bot) setAddress(msg *tgbotapi.Message) {
	address := strings.TrimSpace(msg.CommandArguments())
	if address == "" {
		b.reply(msg.Chat.ID, "📍 Укажите адрес после команды: /address ул. Примерная, 1", nil)
		return
	}
	b.mu.Lock()
	p := b.profiles[msg.From.ID]
	p.address = address
	b.profiles[msg.From.ID] = p
	b.mu.Unlock()

	b.reply(msg.Chat.ID, "📍 Адрес доставки сохранён: "+html.EscapeString(address), nil)
}

func (b *Bot) showCart(chatID, customerID int64) {
	items := b.carts.LineItems(customerID)
	if len(items) == 0 {
		b.reply(chatID, "🛒 Ваша корзина пуста! Используйте кнопку '"+ButtonCatalog+"'", nil)
		return
	}
	b.reply(chatID, cartText("🛒 <b>Ваша корзина:</b>", items), cartKeyboard())
}

func (b *Bot) showAdmin(ctx context.Context, msg *tgbotapi.Message) {
	if !b.flow.IsStaff(msg.From.ID) {
		b.reply(msg.Chat.ID, "❌ У вас нет прав доступа!", nil)
		return
	}
	var sb strings.Builder
	sb.WriteString("👑 <b>Панель администратора</b>\n\n")
	sb.WriteString("Используйте кнопки в канале заказов для управления.\n\n")
	fmt.Fprintf(&sb, "🆔 Ваш ID: %d\n", msg.From.ID)
	fmt.Fprintf(&sb, "🏪 Магазин: %s\n", html.EscapeString(b.cfg.Shop.Name))
	fmt.Fprintf(&sb, "📊 Канал заказов: %s", html.EscapeString(b.cfg.Channel.String()))

	if b.stats != nil {
		stats, err := b.stats.TodayStats(ctx)
		if err != nil {
			b.logger.WithError(err).Warn("failed to load today stats")
		} else {
			fmt.Fprintf(&sb, "\n\n📈 Сегодня: %d заказов на %s", stats.Orders, rub(stats.Revenue))
		}
	}
	b.reply(msg.Chat.ID, sb.String(), nil)
}

func (b *Bot) showDebug(msg *tgbotapi.Message) {
	var sb strings.Builder
	snapshot := b.carts.Snapshot(msg.From.ID)
	sb.WriteString("🔧 <b>Отладочная информация</b>\n\n")
	fmt.Fprintf(&sb, "🆔 Ваш ID: %d\n", msg.From.ID)
	fmt.Fprintf(&sb, "🛒 Товаров в корзине: %d\n", len(snapshot))
	for id, qty := range snapshot {
		fmt.Fprintf(&sb, "• %s × %d\n", html.EscapeString(id), qty)
	}
	sb.WriteString("\n📊 Доступные товары:\n")
	for _, p := range b.catalog.Products() {
		fmt.Fprintf(&sb, "• %s: %s - %s\n", html.EscapeString(p.ID), html.EscapeString(p.Name), rub(p.Price))
	}
	b.reply(msg.Chat.ID, sb.String(), nil)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil {
		return
	}

	switch data := cb.Data; {
	case strings.HasPrefix(data, callbackProductPrefix):
		b.addProduct(ctx, cb, strings.TrimPrefix(data, callbackProductPrefix))
	case data == callbackAddMore:
		products := b.catalog.Products()
		b.edit(cb, productListText("🎂 <b>Выберите товары:</b>", products)+"\nВыберите товар для добавления:",
			ptr(productsKeyboard(products)))
		b.answer(cb, "", false)
	case data == callbackClearCart:
		b.carts.Clear(cb.From.ID)
		products := b.catalog.Products()
		b.edit(cb, "🗑️ <b>Корзина очищена!</b>\n\n"+
			productListText("🎂 <b>Наши кондитерские изделия:</b>", products)+"\nВыберите товары для нового заказа:",
			ptr(productsKeyboard(products)))
		b.answer(cb, "", false)
	case data == callbackCheckout:
		b.checkout(ctx, cb)
	default:
		if kind, orderID, ok := parseStaffCallback(data); ok {
			b.staffAction(ctx, cb, kind, orderID)
			return
		}
		b.answer(cb, "❌ Неизвестное действие", false)
	}
}

func (b *Bot) addProduct(ctx context.Context, cb *tgbotapi.CallbackQuery, productID string) {
	product, err := b.flow.AddToCart(ctx, cb.From.ID, productID)
	if err != nil {
		b.answer(cb, "❌ Товар не найден!", false)
		return
	}
	b.edit(cb, cartText("🛒 <b>Товар добавлен в корзину!</b>", b.carts.LineItems(cb.From.ID)), ptr(cartKeyboard()))
	b.answer(cb, "✅ "+product.Name+" добавлен в корзину!", false)
}

func (b *Bot) checkout(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	b.mu.Lock()
	p := b.profiles[cb.From.ID]
	b.mu.Unlock()

	order, err := b.flow.Checkout(ctx, domain.Customer{
		ID:       cb.From.ID,
		Name:     cb.From.FirstName,
		Username: cb.From.UserName,
		Phone:    p.phone,
		Address:  p.address,
	})
	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		b.answer(cb, "🛒 Корзина пуста!", false)
		return
	case errors.Is(err, domain.ErrUnknownProduct):
		b.answer(cb, "❌ Ошибка: товары не найдены!", false)
		return
	case err != nil:
		b.logger.WithError(err).WithField("customer_id", cb.From.ID).Error("checkout failed")
		b.edit(cb, "❌ <b>Ошибка при оформлении заказа</b>\n\n"+
			"Пожалуйста, попробуйте позже или свяжитесь с нами напрямую.", nil)
		b.answer(cb, "", false)
		return
	}

	b.edit(cb, orderAcceptedText(order, b.cfg.Shop.Phone), nil)
	b.answer(cb, "", false)
}

func (b *Bot) staffAction(ctx context.Context, cb *tgbotapi.CallbackQuery, kind workflow.ActionKind, orderID int64) {
	action := workflow.StaffAction{Kind: kind, OrderID: orderID, ActorID: cb.From.ID}
	if cb.Message != nil && cb.Message.Chat != nil {
		action.Message = workflow.MessageRef{ChatID: cb.Message.Chat.ID, MessageID: cb.Message.MessageID}
	}

	_, err := b.flow.HandleAction(ctx, action)
	switch {
	case err == nil:
		b.answer(cb, actionDoneText(kind), false)
	case errors.Is(err, domain.ErrUnauthorized):
		b.answer(cb, "❌ У вас нет прав для этого действия!", true)
	case errors.Is(err, domain.ErrOrderNotFound):
		b.answer(cb, "❌ Заказ не найден!", true)
	case errors.Is(err, domain.ErrInvalidTransition):
		b.answer(cb, "⚠️ Заказ уже обработан", true)
	case errors.Is(err, domain.ErrPrintFailed):
		b.answer(cb, "❌ Ошибка печати чека!", true)
	default:
		b.logger.WithError(err).WithField("order_id", orderID).Error("staff action failed")
		b.answer(cb, "❌ Ошибка: попробуйте ещё раз", true)
	}
}

func actionDoneText(kind workflow.ActionKind) string {
	switch kind {
	case workflow.ActionPrint:
		return "✅ Чек отправлен на печать!"
	case workflow.ActionConfirm:
		return "Заказ подтвержден!"
	default:
		return "Заказ отменен!"
	}
}

func (b *Bot) reply(chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.WithError(err).WithField("chat_id", chatID).Warn("failed to send message")
	}
}

func (b *Bot) edit(cb *tgbotapi.CallbackQuery, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	edit := tgbotapi.NewEditMessageText(cb.Message.Chat.ID, cb.Message.MessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.ReplyMarkup = markup
	if _, err := b.api.Request(edit); err != nil {
		b.logger.WithError(err).WithField("chat_id", cb.Message.Chat.ID).Warn("failed to edit message")
	}
}

func (b *Bot) answer(cb *tgbotapi.CallbackQuery, text string, alert bool) {
	resp := tgbotapi.NewCallback(cb.ID, text)
	resp.ShowAlert = alert
	if _, err := b.api.Request(resp); err != nil {
		b.logger.WithError(err).Debug("failed to answer callback")
	}
}

func ptr[T any](v T) *T {
	return &v
}
