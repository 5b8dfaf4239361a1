package gateway

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
)

const discordLimit = 2000

type DiscordGateway struct {
	Session *discordgo.Session
	Agent   Dialoguer

	done chan struct{}
}

func NewDiscordGateway(token string, agent Dialoguer) (*DiscordGateway, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

	dg := &DiscordGateway{Session: s, Agent: agent, done: make(chan struct{})}
	s.AddHandler(dg.onMessage)
	return dg, nil
}

func (dg *DiscordGateway) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Content == "" {
		return
	}
	if s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}
	log.Printf("[discord] [%s] %s", m.Author.Username, m.Content)

	_ = s.ChannelTyping(m.ChannelID)
	reply := respond(dg.Agent, "discord", m.ChannelID, m.Content)
	for _, part := range split(reply, discordLimit) {
		if _, err := s.ChannelMessageSend(m.ChannelID, part); err != nil {
			log.Printf("[discord] send failed: %v", err)
		}
	}
}

// Start opens the websocket and blocks until Stop.
func (dg *DiscordGateway) Start() error {
	if err := dg.Session.Open(); err != nil {
		return fmt.Errorf("discord: open session: %w", err)
	}
	if u := dg.Session.State.User; u != nil {
		log.Printf("Discord session open as %s", u.Username)
	}
	<-dg.done
	return nil
}

func (dg *DiscordGateway) Send(channelID string, text string) error {
	if channelID == "" {
		return fmt.Errorf("invalid channel ID")
	}
	for _, part := range split(text, discordLimit) {
		if _, err := dg.Session.ChannelMessageSend(channelID, part); err != nil {
			return err
		}
	}
	return nil
}

func (dg *DiscordGateway) Stop() error {
	select {
	case <-dg.done:
	default:
		close(dg.done)
	}
	return dg.Session.Close()
}
