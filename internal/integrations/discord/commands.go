package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/vnxcius/gameserver-status-bot/internal/monitor"
	"github.com/vnxcius/gameserver-status-bot/internal/presenter"
	"github.com/vnxcius/gameserver-status-bot/internal/probe"
)

// worst case of the probe chain plus some slack
const manualCheckTimeout = 30 * time.Second

// Sender is the part of *discordgo.Session used to answer commands.
type Sender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// PermissionFunc resolves a member's permissions in a channel.
type PermissionFunc func(userID, channelID string) (int64, error)

// Resetter is implemented by *publisher.Publisher.
type Resetter interface {
	Reset()
}

type Options struct {
	Prefix      string
	Interval    time.Duration
	Service     *monitor.Service
	Publisher   Resetter
	Permissions PermissionFunc
}

// Commands routes prefix commands and slash commands to their handlers.
type Commands struct {
	prefix      string
	interval    time.Duration
	service     *monitor.Service
	publisher   Resetter
	permissions PermissionFunc
	cooldown    *cooldown
}

func NewCommands(opts Options) *Commands {
	if opts.Prefix == "" {
		opts.Prefix = "!"
	}
	return &Commands{
		prefix:      opts.Prefix,
		interval:    opts.Interval,
		service:     opts.Service,
		publisher:   opts.Publisher,
		permissions: opts.Permissions,
		cooldown:    newCooldown(statusRate, statusBurst),
	}
}

// HandleMessage dispatches a prefix command. Messages from bots are ignored.
func (c *Commands) HandleMessage(s Sender, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if !strings.HasPrefix(m.Content, c.prefix) {
		return
	}

	args := strings.Fields(strings.TrimPrefix(m.Content, c.prefix))
	if len(args) == 0 {
		return
	}
	cmd := strings.ToLower(args[0])

	slog.Debug("Command received", "command", cmd, "user", m.Author.ID, "channel", m.ChannelID)

	switch cmd {
	case "status":
		c.status(s, m)
	case "setserver":
		c.setServer(s, m, args[1:])
	case "setchannel":
		c.setChannel(s, m)
	case "serverinfo":
		c.serverInfo(s, m)
	case "help", "help_server":
		c.send(s, m.ChannelID, presenter.RenderHelp(c.prefix))
	default:
		slog.Debug("Unknown command", "command", cmd)
	}
}

func (c *Commands) status(s Sender, m *discordgo.MessageCreate) {
	if !c.cooldown.Allow(m.Author.ID) {
		c.reply(s, m.ChannelID, "⏳ Please wait a few seconds before checking again.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), manualCheckTimeout)
	defer cancel()

	target := c.service.Tracker().Target()
	_, embed := c.service.Check(ctx, target)
	c.send(s, m.ChannelID, embed)
}

func (c *Commands) setServer(s Sender, m *discordgo.MessageCreate, args []string) {
	if !c.isAdmin(m) {
		c.reply(s, m.ChannelID, "❌ You need administrator permissions for this command.")
		return
	}
	if len(args) != 1 {
		c.reply(s, m.ChannelID, fmt.Sprintf("Usage: `%ssetserver <IP:Port>`", c.prefix))
		return
	}

	target, err := probe.ParseTarget(args[0])
	if err != nil {
		c.reply(s, m.ChannelID, fmt.Sprintf("❌ Invalid server address `%s`.", args[0]))
		return
	}

	c.service.Tracker().SetTarget(target)
	c.reply(s, m.ChannelID, fmt.Sprintf("✅ Server address set to `%s`!", target.String()))
}

func (c *Commands) setChannel(s Sender, m *discordgo.MessageCreate) {
	if !c.isAdmin(m) {
		c.reply(s, m.ChannelID, "❌ You need administrator permissions for this command.")
		return
	}

	c.service.Tracker().SetChannelID(m.ChannelID)
	c.publisher.Reset()
	c.reply(s, m.ChannelID, "✅ This channel is now the status channel!")
}

func (c *Commands) serverInfo(s Sender, m *discordgo.MessageCreate) {
	c.send(s, m.ChannelID, presenter.RenderInfo(c.service.Tracker().Snapshot(), c.interval))
}

func (c *Commands) isAdmin(m *discordgo.MessageCreate) bool {
	if m.GuildID == "" || c.permissions == nil {
		return false
	}

	perms, err := c.permissions(m.Author.ID, m.ChannelID)
	if err != nil {
		slog.Error("Failed to resolve member permissions", "user", m.Author.ID, "error", err)
		return false
	}
	return perms&discordgo.PermissionAdministrator != 0
}

func (c *Commands) send(s Sender, channelID string, embed *discordgo.MessageEmbed) {
	if _, err := s.ChannelMessageSendEmbed(channelID, embed); err != nil {
		slog.Error("Failed sending embed response", "channel", channelID, "error", err)
	}
}

func (c *Commands) reply(s Sender, channelID, content string) {
	if _, err := s.ChannelMessageSend(channelID, content); err != nil {
		slog.Error("Failed sending response", "channel", channelID, "error", err)
	}
}
