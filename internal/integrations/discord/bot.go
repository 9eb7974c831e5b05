package discord

import (
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/vnxcius/gameserver-status-bot/internal/monitor"
)

// Bot owns the Discord gateway session and starts the status loop once the
// session is ready.
type Bot struct {
	session  *discordgo.Session
	commands *Commands
	loop     *monitor.Loop
}

func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent
	return session, nil
}

func NewBot(session *discordgo.Session, commands *Commands, loop *monitor.Loop) *Bot {
	return &Bot{
		session:  session,
		commands: commands,
		loop:     loop,
	}
}

// PermissionsOf adapts the session's permission lookup to PermissionFunc.
func PermissionsOf(s *discordgo.Session) PermissionFunc {
	return func(userID, channelID string) (int64, error) {
		return s.UserChannelPermissions(userID, channelID)
	}
}

func (b *Bot) Open() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if s.State.User != nil && m.Author != nil && m.Author.ID == s.State.User.ID {
			return
		}
		b.commands.HandleMessage(s, m)
	})
	b.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		b.commands.HandleInteraction(s, i)
	})

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	return nil
}

// onReady also fires after a gateway reconnect, Start ignores repeats.
func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	slog.Info("Bot is now online", "user", r.User.Username, "id", r.User.ID)

	if _, err := s.ApplicationCommandBulkOverwrite(r.User.ID, "", SlashCommands()); err != nil {
		slog.Error("Cannot register slash commands", "error", err)
	}

	b.loop.Start()
}

func (b *Bot) Close() error {
	b.loop.Stop()
	return b.session.Close()
}
