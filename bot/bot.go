// Package bot is the Telegram front end: it queues match logs URLs sent by
// users and delivers the finished CSV back to them.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"fbref-scraper/db"
	"fbref-scraper/matchlog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = "Send me an FBref team match logs URL, for example\n" +
	"https://fbref.com/en/squads/18bb7c10/2023-2024/matchlogs/all_comps/shooting/Arsenal-Match-Logs-All-Competitions\n\n" +
	"I fetch every statistic category of that season, merge them into one row per match and send back a CSV.\n\n" +
	"Commands:\n/start - Start the bot\n/help - Show this help"

var errNoURL = errors.New("no match logs URL in message")

// Queue stores requested runs for the scheduler
type Queue interface {
	CreateRun(chatID int64, messageID int, url string) (*db.Run, error)
}

// Bot handles Telegram updates
type Bot struct {
	api     *tgbotapi.BotAPI
	queue   Queue
	allowed map[string]bool
}

// New connects to Telegram with token. allowedUsers holds user IDs or
// usernames; an empty list lets everyone in.
func New(token string, queue Queue, allowedUsers []string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot: %w", err)
	}
	return newBot(api, queue, allowedUsers), nil
}

func newBot(api *tgbotapi.BotAPI, queue Queue, allowedUsers []string) *Bot {
	allowed := make(map[string]bool, len(allowedUsers))
	for _, u := range allowedUsers {
		allowed[normalizeUser(u)] = true
	}
	return &Bot{api: api, queue: queue, allowed: allowed}
}

func normalizeUser(u string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(u), "@"))
}

// Run handles updates until ctx is done
func (b *Bot) Run(ctx context.Context) {
	slog.Info("authorized on telegram", "account", b.api.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message == nil {
			continue
		}
		b.handleMessage(update.Message)
	}
}

// handleMessage answers commands and queues URLs
func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			b.reply(chatID, 0, helpText)
		default:
			b.reply(chatID, msg.MessageID, "Unknown command. Use /help for available commands.")
		}
		return
	}

	if !b.authorized(msg.From) {
		slog.Warn("unauthorized user", "user", userLabel(msg.From))
		b.reply(chatID, msg.MessageID, "Sorry, you are not authorized to use this bot.")
		return
	}

	url, err := parseRequest(msg.Text)
	if err != nil {
		b.reply(chatID, msg.MessageID, invalidRequestText(err))
		return
	}

	run, err := b.queue.CreateRun(chatID, msg.MessageID, url)
	if err != nil {
		slog.Error("failed to queue run", "err", err)
		b.reply(chatID, msg.MessageID, fmt.Sprintf("❌ Error: failed to queue request: %v", err))
		return
	}

	slog.Info("queued run", "run", run.ID, "user", userLabel(msg.From), "url", url)
	b.reply(chatID, msg.MessageID, "📝 Request queued. I'll send the CSV when it's ready.")
}

// authorized checks user against the allow list
func (b *Bot) authorized(user *tgbotapi.User) bool {
	if len(b.allowed) == 0 {
		return true
	}
	if user == nil {
		return false
	}
	return b.allowed[strconv.FormatInt(user.ID, 10)] || (user.UserName != "" && b.allowed[normalizeUser(user.UserName)])
}

// parseRequest finds the first valid match logs URL in a message
func parseRequest(text string) (string, error) {
	var firstErr error
	for _, field := range strings.Fields(text) {
		if !strings.Contains(field, "/") {
			continue
		}
		_, err := matchlog.Parse(field)
		if err == nil {
			return field, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return "", firstErr
	}
	return "", errNoURL
}

func invalidRequestText(err error) string {
	if errors.Is(err, errNoURL) {
		return "Please send me an FBref team match logs URL. Use /help for an example."
	}
	return fmt.Sprintf("That does not look like a team match logs URL (%v). Use /help for an example.", err)
}

func userLabel(user *tgbotapi.User) string {
	if user == nil {
		return "unknown"
	}
	if user.UserName != "" {
		return user.UserName
	}
	return strconv.FormatInt(user.ID, 10)
}

func (b *Bot) reply(chatID int64, replyTo int, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyTo
	sent, err := b.api.Send(msg)
	if err != nil {
		slog.Warn("failed to send message", "chat", chatID, "err", err)
	}
	return sent, err
}

// Notify implements scheduler.Notifier
func (b *Bot) Notify(chatID int64, replyTo int, text string) error {
	_, err := b.reply(chatID, replyTo, text)
	return err
}

// SendDocument implements scheduler.Notifier
func (b *Bot) SendDocument(chatID int64, replyTo int, path string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.ReplyToMessageID = replyTo
	if _, err := b.api.Send(doc); err != nil {
		return fmt.Errorf("failed to send document %s: %w", path, err)
	}
	return nil
}
