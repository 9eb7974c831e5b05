package presenter

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/vnxcius/gameserver-status-bot/internal/status"
)

// RenderInfo describes the bot configuration and the cached status.
func RenderInfo(s status.Snapshot, interval time.Duration) *discordgo.MessageEmbed {
	channel := "not set"
	if s.ChannelID != "" {
		channel = fmt.Sprintf("<#%s>", s.ChannelID)
	}

	current := "⚪ Unknown"
	if s.HasLast {
		current = "🔴 Offline"
		if s.Last.Online {
			current = "🟢 Online"
		}
	}

	return &discordgo.MessageEmbed{
		Title: "📋 Bot Information",
		Color: ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Server IP", Value: fmt.Sprintf("`%s`", s.Target.String()), Inline: false},
			{Name: "Update Interval", Value: fmt.Sprintf("%d seconds", int(interval.Seconds())), Inline: true},
			{Name: "Status Channel", Value: channel, Inline: true},
			{Name: "Current Status", Value: current, Inline: true},
		},
	}
}

// RenderHelp lists the prefix commands.
func RenderHelp(prefix string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🤖 Server Bot Commands",
		Description: "Available commands:",
		Color:       ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: prefix + "status", Value: "Shows the current server status", Inline: false},
			{Name: prefix + "serverinfo", Value: "Shows bot configuration and information", Inline: false},
			{Name: prefix + "setserver <IP:Port>", Value: "Changes the server address (Admin)", Inline: false},
			{Name: prefix + "setchannel", Value: "Makes this channel the status channel (Admin)", Inline: false},
		},
	}
}
