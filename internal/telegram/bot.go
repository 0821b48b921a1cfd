package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"meal-planner/internal/app"
	"meal-planner/internal/clipper"
	"meal-planner/internal/config"
	"meal-planner/internal/format"
	"meal-planner/internal/metrics"
	"meal-planner/internal/planner"
	"meal-planner/internal/shopping"
)

const (
	parseMode      = "Markdown"
	requestTimeout = 2 * time.Minute
	metricsDays    = 7
	redoAction     = "redo"
)

// Service is the part of the application the bot drives.
type Service interface {
	GenerateMenu(ctx context.Context, dryRun bool) (*app.Generated, error)
	RegenerateMenu(ctx context.Context) (*app.Generated, error)
	ShoppingList(ctx context.Context, menuID int64) (*planner.Menu, shopping.List, error)
	Clip(ctx context.Context, url string, publish bool) (*clipper.Clipped, error)
	Usage(ctx context.Context, days int) ([]metrics.DailyUsage, []metrics.DailyGenerations, error)
}

// sender is the subset of the Telegram API used to reply.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot wraps the Telegram API and the meal planner.
type Bot struct {
	api    *tgbotapi.BotAPI
	sender sender
	svc    Service
	cfg    *config.Config
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, svc Service) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	zap.S().Infow("Authorized on Telegram", "account", api.Self.UserName)

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	zap.S().Infow("Webhook set", "response", resp.Description)

	return &Bot{api: api, sender: api, svc: svc, cfg: cfg}, nil
}

// RegisterHandlers registers the webhook and health handlers on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		zap.S().Warnw("Error parsing update", "error", err)
		http.Error(w, "bad update", http.StatusBadRequest)
		return
	}

	if update.CallbackQuery != nil {
		if !b.allowed(update.CallbackQuery.From) {
			return
		}
		go b.handleCallbackQuery(update.CallbackQuery)
		return
	}

	if update.Message == nil || !b.allowed(update.Message.From) {
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) allowed(from *tgbotapi.User) bool {
	if from == nil {
		return false
	}
	if !b.cfg.IsAllowedUser(from.ID) {
		zap.S().Warnw("Unauthorized access attempt", "user_id", from.ID, "username", from.UserName)
		return false
	}
	return true
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if msg.IsCommand() {
		switch msg.Command() {
		case "menu":
			b.handleMenuRequest(ctx, msg.Chat.ID)
		case "spesa":
			b.handleShoppingRequest(ctx, msg.Chat.ID)
		case "metrics":
			b.handleMetricsRequest(ctx, msg)
		default:
			b.reply(msg.Chat.ID, helpText)
		}
		return
	}

	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		b.handleClipperRequest(ctx, msg.Chat.ID, text)
		return
	}

	b.reply(msg.Chat.ID, helpText)
}

const helpText = "👋 Comandi disponibili:\n" +
	"/menu - genera il menu della settimana\n" +
	"/spesa - lista della spesa dell'ultimo menu\n" +
	"Invia un link per salvare una ricetta."

func (b *Bot) handleMenuRequest(ctx context.Context, chatID int64) {
	sent, err := b.send(tgbotapi.NewMessage(chatID, "🧑‍🍳 *Preparo il menu...*"))
	if err != nil {
		return
	}
	b.sendMenu(chatID, sent.MessageID, func() (*app.Generated, error) {
		return b.svc.GenerateMenu(ctx, false)
	})
}

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	// Answer callback to remove spinner
	if _, err := b.sender.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		zap.S().Warnw("Failed to answer callback", "error", err)
	}
	if query.Message == nil || query.Data != redoAction {
		return
	}

	b.edit(query.Message.Chat.ID, query.Message.MessageID, "🧑‍🍳 *Preparo un nuovo menu...*", nil)
	// A redo replaces the rejected menu instead of adding a week to the history.
	b.sendMenu(query.Message.Chat.ID, query.Message.MessageID, func() (*app.Generated, error) {
		return b.svc.RegenerateMenu(ctx)
	})
}

func (b *Bot) sendMenu(chatID int64, messageID int, generate func() (*app.Generated, error)) {
	gen, err := generate()
	if err != nil {
		zap.S().Errorw("Error generating menu", "error", err)
		b.edit(chatID, messageID, errorText("Errore nella generazione del menu", err), nil)
		return
	}

	if n := gen.Report.Unfilled(); n > 0 {
		b.sendAdminAlert(fmt.Sprintf("⚠️ *Menu incompleto*\nMenu %d: %d pasti senza ricetta su %d ricette in catalogo.",
			gen.Menu.ID, n, len(gen.Recipes)))
	}

	planText, shoppingText := format.Markdown(gen.Menu, gen.Shopping)
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Rigenera", redoAction),
		),
	)
	b.edit(chatID, messageID, planText, &keyboard)
	b.reply(chatID, shoppingText)
}

func (b *Bot) handleShoppingRequest(ctx context.Context, chatID int64) {
	menu, list, err := b.svc.ShoppingList(ctx, 0)
	if err != nil {
		if errors.Is(err, planner.ErrMenuNotFound) {
			b.reply(chatID, "Nessun menu ancora. Usa /menu per crearne uno.")
			return
		}
		zap.S().Errorw("Error loading shopping list", "error", err)
		b.reply(chatID, errorText("Errore nel caricamento della lista", err))
		return
	}
	_, shoppingText := format.Markdown(*menu, list)
	b.reply(chatID, shoppingText)
}

func (b *Bot) handleClipperRequest(ctx context.Context, chatID int64, url string) {
	sent, err := b.send(tgbotapi.NewMessage(chatID, "✂️ *Salvo la ricetta...*"))
	if err != nil {
		return
	}

	clipped, err := b.svc.Clip(ctx, url, b.cfg.GhostAdminKey != "")
	if err != nil {
		zap.S().Warnw("Error clipping recipe", "url", url, "error", err)
		b.edit(chatID, sent.MessageID, errorText("Errore nel salvataggio della ricetta", err), nil)
		return
	}

	r := clipped.Recipe
	text := fmt.Sprintf("✅ *Ricetta salvata!*\n\n*%s*\n%d ingredienti", format.EscapeMarkdown(r.Name), len(r.Ingredients))
	if r.Type != "" {
		text += fmt.Sprintf("\nTipo: %s", r.Type)
	}
	if r.Category != "" {
		text += fmt.Sprintf("\nCategoria: %s", r.Category)
	}
	b.edit(chatID, sent.MessageID, text, nil)
}

func (b *Bot) handleMetricsRequest(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.From.ID != b.cfg.AdminTelegramID {
		b.reply(msg.Chat.ID, "⛔ *Accesso negato*: solo admin.")
		return
	}

	usage, gens, err := b.svc.Usage(ctx, metricsDays)
	if err != nil {
		zap.S().Errorw("Error fetching metrics", "error", err)
		b.reply(msg.Chat.ID, "❌ Errore nel recupero delle metriche.")
		return
	}
	b.reply(msg.Chat.ID, metricsReport(usage, gens, metrics.GetSysHealth(b.dataDir())))
}

func (b *Bot) dataDir() string {
	return filepath.Dir(b.cfg.DatabasePath)
}

func metricsReport(usage []metrics.DailyUsage, gens []metrics.DailyGenerations, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🍽 *Menu generati*\n")
	if len(gens) == 0 {
		sb.WriteString("_Nessun dato_\n")
	}
	for _, d := range gens {
		sb.WriteString(fmt.Sprintf("• *%s*: %d menu, %d rilassati, %d vuoti (%.1f ms)\n",
			d.Date, d.Menus, d.Relaxed, d.Unfilled, d.AvgLatencyMS))
	}

	sb.WriteString("\n🗓 *Attività LLM*\n")
	if len(usage) == 0 {
		sb.WriteString("_Nessun dato_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Uptime: %s\n", health.Uptime))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataSize()))
	return sb.String()
}

func errorText(title string, err error) string {
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	return fmt.Sprintf("❌ *%s:*\n```\n%v\n```", title, safeErr)
}

func (b *Bot) send(msg tgbotapi.MessageConfig) (tgbotapi.Message, error) {
	msg.ParseMode = parseMode
	sent, err := b.sender.Send(msg)
	if err != nil {
		zap.S().Warnw("Failed to send message", "chat_id", msg.ChatID, "error", err)
	}
	return sent, err
}

func (b *Bot) reply(chatID int64, text string) {
	_, _ = b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) edit(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = parseMode
	edit.ReplyMarkup = keyboard
	if _, err := b.sender.Send(edit); err != nil {
		zap.S().Warnw("Failed to edit message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) sendAdminAlert(text string) {
	if b.cfg.AdminTelegramID == 0 {
		return
	}
	b.reply(b.cfg.AdminTelegramID, text)
}
