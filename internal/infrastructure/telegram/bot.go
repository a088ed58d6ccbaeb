package telegram

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Albkings1/bot/internal/application"
	"github.com/Albkings1/bot/internal/domain"
)

const signalCallbackPrefix = "signal_"

// Bot is the Telegram front-end. It translates commands and button taps into
// service calls and renders the results back as Markdown messages.
type Bot struct {
	api          *tgbotapi.BotAPI
	svc          *application.SignalService
	pairs        []domain.Pair
	adminID      int64
	refreshEvery time.Duration
	log          *zap.Logger

	mu   sync.Mutex
	rand *rand.Rand
}

var _ application.Notifier = (*Bot)(nil)

func NewBot(token string, svc *application.SignalService, pairs []domain.Pair, adminID int64, refreshEvery time.Duration, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("telegram_authorized", zap.String("account", api.Self.UserName))
	return &Bot{
		api:          api,
		svc:          svc,
		pairs:        pairs,
		adminID:      adminID,
		refreshEvery: refreshEvery,
		log:          log,
		rand:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Run polls updates until ctx is canceled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	b.log.Info("telegram_polling_started")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info("telegram_polling_stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// Send implements application.Notifier.
func (b *Bot) Send(_ context.Context, userID int64, text string) error {
	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn("send_failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if rec := recover(); rec != nil {
			b.log.Error("update_panic", zap.Any("error", rec))
		}
	}()

	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}

	msg := update.Message
	userID := msg.From.ID
	username := msg.From.UserName

	switch msg.Command() {
	case "start":
		if _, err := b.svc.Ledger().GetOrCreateUser(ctx, userID, username); err != nil {
			b.log.Warn("start_failed", zap.Int64("user_id", userID), zap.Error(err))
		}
		b.reply(msg.Chat.ID, renderWelcome(username))
	case "help":
		b.reply(msg.Chat.ID, renderHelp(userID == b.adminID))
	case "status":
		b.handleStatus(ctx, msg.Chat.ID, userID, username)
	case "signal":
		b.sendPairKeyboard(msg.Chat.ID)
	case "activate":
		b.handleActivate(ctx, msg.Chat.ID, userID, username, msg.CommandArguments())
	case "issue":
		b.handleIssue(ctx, msg.Chat.ID, userID, msg.CommandArguments())
	case "revoke":
		b.handleRevoke(ctx, msg.Chat.ID, userID, msg.CommandArguments())
	case "broadcast":
		b.handleBroadcast(ctx, msg.Chat.ID, userID, msg.CommandArguments())
	case "users":
		b.handleUsers(ctx, msg.Chat.ID, userID)
	}
}

func (b *Bot) sendPairKeyboard(chatID int64) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(b.pairs); i += 2 {
		row := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(string(b.pairs[i]), signalCallbackPrefix+string(b.pairs[i])),
		}
		if i+1 < len(b.pairs) {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(string(b.pairs[i+1]), signalCallbackPrefix+string(b.pairs[i+1])))
		}
		rows = append(rows, row)
	}
	msg := tgbotapi.NewMessage(chatID, "Pick a pair:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn("send_failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if !strings.HasPrefix(cb.Data, signalCallbackPrefix) {
		return
	}
	pair := domain.Pair(strings.TrimPrefix(cb.Data, signalCallbackPrefix))

	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "Fetching "+string(pair)+"...")); err != nil {
		b.log.Warn("callback_ack_failed", zap.Error(err))
	}
	chatID := cb.From.ID
	if cb.Message != nil {
		chatID = cb.Message.Chat.ID
	}
	b.serveSignal(ctx, chatID, cb.From.ID, cb.From.UserName, pair)
}

func (b *Bot) serveSignal(ctx context.Context, chatID, userID int64, username string, pair domain.Pair) {
	res, err := b.svc.RequestSignal(ctx, userID, username, pair)
	switch {
	case errors.Is(err, application.ErrQuotaExceeded):
		u, gerr := b.svc.Ledger().GetOrCreateUser(ctx, userID, username)
		b.reply(chatID, renderQuotaExceeded(gerr == nil && u.Premium))
		return
	case errors.Is(err, application.ErrUnsupportedPair):
		b.reply(chatID, "Unknown pair. Use /signal and pick one from the keyboard.")
		return
	case err != nil:
		b.log.Error("signal_failed", zap.Int64("user_id", userID), zap.Error(err))
		b.reply(chatID, "Something went wrong, please try again.")
		return
	}
	b.reply(chatID, renderSignal(res, b.refreshEvery))
}

func (b *Bot) handleStatus(ctx context.Context, chatID, userID int64, username string) {
	u, err := b.svc.Ledger().GetOrCreateUser(ctx, userID, username)
	if err != nil {
		b.reply(chatID, "Something went wrong, please try again.")
		return
	}
	remaining, err := b.svc.Ledger().QuotaRemaining(ctx, userID)
	if err != nil {
		b.reply(chatID, "Something went wrong, please try again.")
		return
	}
	limit := b.svc.Ledger().FreeLimit()
	if u.Premium {
		limit = b.svc.Ledger().PremiumDailyLimit()
	}
	b.reply(chatID, renderStatus(u, remaining, limit))
}

func (b *Bot) handleActivate(ctx context.Context, chatID, userID int64, username, args string) {
	key := strings.ToUpper(strings.TrimSpace(args))
	if key == "" {
		b.reply(chatID, "Usage: /activate LICENSE\\_KEY")
		return
	}
	if _, err := b.svc.Ledger().GetOrCreateUser(ctx, userID, username); err != nil {
		b.reply(chatID, "Something went wrong, please try again.")
		return
	}
	err := b.svc.Ledger().ActivateLicense(ctx, userID, key)
	switch {
	case errors.Is(err, application.ErrLicenseNotFound):
		b.reply(chatID, "❌ Unknown license key.")
	case errors.Is(err, application.ErrLicenseAlreadyUsed):
		b.reply(chatID, "❌ This license key has already been used.")
	case err != nil:
		b.reply(chatID, "Something went wrong, please try again.")
	default:
		b.reply(chatID, fmt.Sprintf("💎 Premium activated! You now get %d signals per day.", b.svc.Ledger().PremiumDailyLimit()))
	}
}

func (b *Bot) handleIssue(ctx context.Context, chatID, userID int64, args string) {
	if userID != b.adminID {
		return
	}
	days := 30
	if s := strings.TrimSpace(args); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			days = n
		}
	}

	b.mu.Lock()
	key := application.RandomLicenseKey(b.rand)
	b.mu.Unlock()

	l, err := b.svc.Ledger().IssueLicense(ctx, key, days)
	if err != nil {
		b.reply(chatID, "Failed to issue a license.")
		return
	}
	b.reply(chatID, fmt.Sprintf("🔑 New license (%d days):\n\n`%s`", l.DurationDays, l.Key))
}

func (b *Bot) handleRevoke(ctx context.Context, chatID, userID int64, args string) {
	if userID != b.adminID {
		return
	}
	target, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		b.reply(chatID, "Usage: /revoke USER\\_ID")
		return
	}
	err = b.svc.Ledger().RevokeLicense(ctx, target)
	switch {
	case errors.Is(err, application.ErrNoActiveLicense):
		b.reply(chatID, "That user has no active license.")
	case err != nil:
		b.reply(chatID, "Failed to revoke the license.")
	default:
		b.reply(chatID, fmt.Sprintf("License revoked for user `%d`. The key is reusable again.", target))
	}
}

func (b *Bot) handleBroadcast(ctx context.Context, chatID, userID int64, text string) {
	if userID != b.adminID {
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		b.reply(chatID, "Usage: /broadcast TEXT")
		return
	}
	sent, err := b.svc.Broadcast(ctx, text, b)
	if err != nil {
		b.reply(chatID, "Broadcast failed.")
		return
	}
	b.reply(chatID, fmt.Sprintf("📣 Broadcast delivered to %d users.", sent))
}

func (b *Bot) handleUsers(ctx context.Context, chatID, userID int64) {
	if userID != b.adminID {
		return
	}
	users, err := b.svc.Ledger().ListUsers(ctx)
	if err != nil {
		b.reply(chatID, "Failed to list users.")
		return
	}
	b.reply(chatID, renderUsers(users))
}
