package gateway

import (
	"fmt"
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const telegramLimit = 4096

type TelegramGateway struct {
	Bot   *tgbotapi.BotAPI
	Agent Dialoguer
}

func NewTelegramGateway(token string, agent Dialoguer) (*TelegramGateway, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	log.Printf("Authorized on account %s", bot.Self.UserName)
	return &TelegramGateway{Bot: bot, Agent: agent}, nil
}

func (tg *TelegramGateway) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	for update := range tg.Bot.GetUpdatesChan(u) {
		if update.Message == nil || update.Message.Text == "" {
			continue
		}
		if update.Message.From != nil {
			log.Printf("[telegram] [%s] %s", update.Message.From.UserName, update.Message.Text)
		}

		chatID := update.Message.Chat.ID
		reply := respond(tg.Agent, "telegram", strconv.FormatInt(chatID, 10), update.Message.Text)
		for _, part := range split(reply, telegramLimit) {
			if _, err := tg.Bot.Send(tgbotapi.NewMessage(chatID, part)); err != nil {
				log.Printf("[telegram] send failed: %v", err)
			}
		}
	}
	return nil
}

// Send pushes a Markdown message to chatID.
func (tg *TelegramGateway) Send(chatID string, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil || id == 0 {
		return fmt.Errorf("invalid chat ID: %s", chatID)
	}
	for _, part := range split(text, telegramLimit) {
		msg := tgbotapi.NewMessage(id, part)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if _, err := tg.Bot.Send(msg); err != nil {
			return err
		}
	}
	return nil
}

func (tg *TelegramGateway) Stop() error {
	tg.Bot.StopReceivingUpdates()
	return nil
}
