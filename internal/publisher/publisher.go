package publisher

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Messenger is the part of *discordgo.Session the publisher needs.
type Messenger interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Handle points at the single status message the bot maintains.
type Handle struct {
	ChannelID string
	MessageID string
}

// Publisher keeps one status message per channel up to date, editing it in
// place instead of posting a new one every cycle.
type Publisher struct {
	mu     sync.Mutex
	msgr   Messenger
	handle *Handle
}

func New(m Messenger) *Publisher {
	return &Publisher{msgr: m}
}

// Handle returns the tracked message, if there is one.
func (p *Publisher) Handle() (Handle, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle == nil {
		return Handle{}, false
	}
	return *p.handle, true
}

// Reset forgets the tracked message so the next Publish posts a new one.
func (p *Publisher) Reset() {
	p.mu.Lock()
	p.handle = nil
	p.mu.Unlock()
}

/*
Publish upserts embed into channelID. A tracked message that was deleted
is replaced by a new one. Any other failure is returned and the tracked
message is left untouched.
*/
func (p *Publisher) Publish(channelID string, embed *discordgo.MessageEmbed) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle != nil && p.handle.ChannelID != channelID {
		slog.Info("Status channel changed, dropping tracked message",
			"old_channel", p.handle.ChannelID,
			"channel", channelID,
		)
		p.handle = nil
	}

	if p.handle == nil {
		return p.create(channelID, embed)
	}

	_, err := p.msgr.ChannelMessageEditEmbed(p.handle.ChannelID, p.handle.MessageID, embed)
	if err == nil {
		return nil
	}

	if !IsNotFound(err) {
		return fmt.Errorf("failed to edit status message %s: %w", p.handle.MessageID, err)
	}

	slog.Info("Status message was deleted, sending a new one", "message", p.handle.MessageID)
	p.handle = nil
	return p.create(channelID, embed)
}

func (p *Publisher) create(channelID string, embed *discordgo.MessageEmbed) error {
	msg, err := p.msgr.ChannelMessageSendEmbed(channelID, embed)
	if err != nil {
		return fmt.Errorf("failed to send status message to channel %s: %w", channelID, err)
	}

	p.handle = &Handle{ChannelID: channelID, MessageID: msg.ID}
	slog.Info("Status message created", "channel", channelID, "message", msg.ID)
	return nil
}

// IsNotFound reports whether err is Discord telling us the message (or its
// channel) no longer exists.
func IsNotFound(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}

	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownChannel:
			return true
		}
	}
	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}
