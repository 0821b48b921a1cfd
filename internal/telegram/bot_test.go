package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meal-planner/internal/app"
	"meal-planner/internal/clipper"
	"meal-planner/internal/config"
	"meal-planner/internal/ingredient"
	"meal-planner/internal/metrics"
	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
	"meal-planner/internal/shopping"
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// texts returns the text of every message and edit sent so far.
func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

type fakeService struct {
	menu        planner.Menu
	list        shopping.List
	unfilled    bool
	shopErr     error
	clipErr     error
	clipCalls   []string
	generated   int
	regenerated int
	publishing  bool
}

func (f *fakeService) GenerateMenu(ctx context.Context, dryRun bool) (*app.Generated, error) {
	f.generated++
	gen := &app.Generated{Menu: f.menu, Shopping: f.list}
	if f.unfilled {
		gen.Report.Slots = []planner.SlotResult{{Day: 0, Meal: recipe.Lunch, Stage: planner.StageUnfilled}}
	}
	return gen, nil
}

func (f *fakeService) RegenerateMenu(ctx context.Context) (*app.Generated, error) {
	f.regenerated++
	return &app.Generated{Menu: f.menu, Shopping: f.list}, nil
}

func (f *fakeService) ShoppingList(ctx context.Context, menuID int64) (*planner.Menu, shopping.List, error) {
	if f.shopErr != nil {
		return nil, nil, f.shopErr
	}
	return &f.menu, f.list, nil
}

func (f *fakeService) Clip(ctx context.Context, url string, publish bool) (*clipper.Clipped, error) {
	f.clipCalls = append(f.clipCalls, url)
	f.publishing = publish
	if f.clipErr != nil {
		return nil, f.clipErr
	}
	return &clipper.Clipped{Recipe: recipe.Recipe{
		ID: "x", Name: "Pasta_ceci", Type: recipe.Lunch, Ingredients: []string{"pasta", "ceci"},
	}}, nil
}

func (f *fakeService) Usage(ctx context.Context, days int) ([]metrics.DailyUsage, []metrics.DailyGenerations, error) {
	return []metrics.DailyUsage{{Date: "2024-01-15", TotalPrompt: 100, TotalCompletion: 20, TotalExecution: 2}},
		[]metrics.DailyGenerations{{Date: "2024-01-15", Menus: 3, Relaxed: 1}}, nil
}

const (
	userID  = int64(12)
	adminID = int64(99)
)

func newTestBot(svc Service) (*Bot, *fakeSender) {
	fs := &fakeSender{}
	cfg := &config.Config{
		TelegramAllowedUserIDs: []int64{userID, adminID},
		AdminTelegramID:        adminID,
		DatabasePath:           "data/test.db",
	}
	return &Bot{api: &tgbotapi.BotAPI{}, sender: fs, svc: svc, cfg: cfg}, fs
}

func command(from int64, cmd string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From:     &tgbotapi.User{ID: from},
		Chat:     &tgbotapi.Chat{ID: from},
		Text:     cmd,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}
}

func text(from int64, s string) *tgbotapi.Message {
	return &tgbotapi.Message{From: &tgbotapi.User{ID: from}, Chat: &tgbotapi.Chat{ID: from}, Text: s}
}

func testMenu() planner.Menu {
	var m planner.Menu
	carbonara := recipe.Recipe{ID: "c", Name: "Carbonara"}
	pizza, libero := planner.Pizza, planner.Libero
	m.Lunch[0] = &carbonara
	m.Dinner[5] = &pizza
	m.Dinner[6] = &libero
	return m
}

func testList() shopping.List {
	return shopping.List{
		ingredient.Pantry: {ingredient.Parse("200 g pasta")},
	}
}

func TestMenuCommand(t *testing.T) {
	svc := &fakeService{menu: testMenu(), list: testList()}
	b, fs := newTestBot(svc)

	b.processMessage(command(userID, "/menu"))

	assert.Equal(t, 1, svc.generated)
	texts := fs.texts()
	require.Len(t, texts, 3)
	assert.Contains(t, texts[0], "Preparo il menu")
	assert.Contains(t, texts[1], "*Lunedì*\nPranzo: Carbonara")
	assert.Contains(t, texts[2], "Lista della spesa")

	edit, ok := fs.sent[1].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	require.NotNil(t, edit.ReplyMarkup)
	assert.Equal(t, "Markdown", edit.ParseMode)
	assert.Equal(t, redoAction, *edit.ReplyMarkup.InlineKeyboard[0][0].CallbackData)
}

func TestMenuCommand_AlertsAdminOnUnfilled(t *testing.T) {
	svc := &fakeService{menu: testMenu(), list: testList(), unfilled: true}
	b, fs := newTestBot(svc)

	b.processMessage(command(userID, "/menu"))

	texts := fs.texts()
	require.Len(t, texts, 4)
	assert.Contains(t, texts[1], "Menu incompleto")
	msg := fs.sent[1].(tgbotapi.MessageConfig)
	assert.Equal(t, adminID, msg.ChatID)
}

func TestRedoCallback(t *testing.T) {
	svc := &fakeService{menu: testMenu(), list: testList()}
	b, fs := newTestBot(svc)

	b.handleCallbackQuery(&tgbotapi.CallbackQuery{
		ID:      "q1",
		From:    &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: userID}},
		Data:    redoAction,
	})

	assert.Len(t, fs.requests, 1)
	assert.Equal(t, 1, svc.regenerated)
	assert.Zero(t, svc.generated, "a redo replaces the menu instead of adding one")
	texts := fs.texts()
	require.Len(t, texts, 3)
	assert.Contains(t, texts[0], "nuovo menu")
}

func TestShoppingCommand(t *testing.T) {
	t.Run("Latest", func(t *testing.T) {
		b, fs := newTestBot(&fakeService{menu: testMenu(), list: testList()})
		b.processMessage(command(userID, "/spesa"))

		texts := fs.texts()
		require.Len(t, texts, 1)
		assert.Contains(t, texts[0], "200 g pasta")
	})

	t.Run("NoMenuYet", func(t *testing.T) {
		b, fs := newTestBot(&fakeService{shopErr: planner.ErrMenuNotFound})
		b.processMessage(command(userID, "/spesa"))

		assert.Equal(t, []string{"Nessun menu ancora. Usa /menu per crearne uno."}, fs.texts())
	})

	t.Run("Error", func(t *testing.T) {
		b, fs := newTestBot(&fakeService{shopErr: errors.New("disk `full`")})
		b.processMessage(command(userID, "/spesa"))

		texts := fs.texts()
		require.Len(t, texts, 1)
		assert.Contains(t, texts[0], "disk 'full'")
	})
}

func TestClipURL(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := &fakeService{}
		b, fs := newTestBot(svc)
		b.cfg.GhostAdminKey = "id:secret"

		b.processMessage(text(userID, " https://example.com/ricetta "))

		assert.Equal(t, []string{"https://example.com/ricetta"}, svc.clipCalls)
		assert.True(t, svc.publishing)
		texts := fs.texts()
		require.Len(t, texts, 2)
		assert.Contains(t, texts[1], "Ricetta salvata")
		assert.Contains(t, texts[1], `Pasta\_ceci`)
		assert.Contains(t, texts[1], "Tipo: pranzo")
	})

	t.Run("Error", func(t *testing.T) {
		svc := &fakeService{clipErr: errors.New("no recipe found on page")}
		b, fs := newTestBot(svc)

		b.processMessage(text(userID, "https://example.com"))

		assert.False(t, svc.publishing)
		texts := fs.texts()
		require.Len(t, texts, 2)
		assert.Contains(t, texts[1], "no recipe found on page")
	})
}

func TestMetricsCommand(t *testing.T) {
	t.Run("Admin", func(t *testing.T) {
		b, fs := newTestBot(&fakeService{})
		b.processMessage(command(adminID, "/metrics"))

		texts := fs.texts()
		require.Len(t, texts, 1)
		assert.Contains(t, texts[0], "*2024-01-15*: 3 menu, 1 rilassati")
		assert.Contains(t, texts[0], "*2024-01-15*: 120 tokens (2 execs)")
	})

	t.Run("NotAdmin", func(t *testing.T) {
		b, fs := newTestBot(&fakeService{})
		b.processMessage(command(userID, "/metrics"))

		assert.Equal(t, []string{"⛔ *Accesso negato*: solo admin."}, fs.texts())
	})
}

func TestHelp(t *testing.T) {
	b, fs := newTestBot(&fakeService{})
	b.processMessage(text(userID, "ciao"))
	b.processMessage(command(userID, "/start"))

	assert.Equal(t, []string{helpText, helpText}, fs.texts())
}

func TestWebhook(t *testing.T) {
	svc := &fakeService{menu: testMenu(), list: testList()}
	b, fs := newTestBot(svc)
	mux := http.NewServeMux()
	b.RegisterHandlers(mux)

	post := func(body string) int {
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("Unauthorized", func(t *testing.T) {
		code := post(`{"update_id": 1, "message": {"message_id": 1, "from": {"id": 555}, "chat": {"id": 555}, "text": "ciao"}}`)
		assert.Equal(t, http.StatusOK, code)
		time.Sleep(50 * time.Millisecond)
		assert.Empty(t, fs.texts())
	})

	t.Run("Allowed", func(t *testing.T) {
		code := post(`{"update_id": 2, "message": {"message_id": 2, "from": {"id": 12}, "chat": {"id": 12}, "text": "ciao"}}`)
		assert.Equal(t, http.StatusOK, code)
		assert.Eventually(t, func() bool { return len(fs.texts()) == 1 }, time.Second, 10*time.Millisecond)
	})

	t.Run("BadBody", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, post("{"))
	})

	t.Run("Health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK", rec.Body.String())
	})
}
