package presenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vnxcius/gameserver-status-bot/internal/probe"
)

const (
	BarLength = 20

	barFull  = "█"
	barEmpty = "░"

	ColorOnline  = 0x2ecc71
	ColorOffline = 0xe74c3c
	ColorInfo    = 0x3498db

	footerText = "Last update"
)

var upperCaser = cases.Upper(language.English)

// LoadPercentage is players/maxPlayers as a percentage, 0 when the slot
// count is unknown.
func LoadPercentage(players, maxPlayers int) float64 {
	if maxPlayers <= 0 {
		return 0
	}
	return float64(players) / float64(maxPlayers) * 100
}

// FilledUnits is floor(BarLength * load / 100) clamped to [0, BarLength].
// Integer arithmetic keeps exact ratios such as 7/10 from landing a unit
// short.
func FilledUnits(players, maxPlayers int) int {
	if maxPlayers <= 0 || players <= 0 {
		return 0
	}
	filled := BarLength * players / maxPlayers
	return min(filled, BarLength)
}

func ProgressBar(players, maxPlayers int) string {
	filled := FilledUnits(players, maxPlayers)
	return strings.Repeat(barFull, filled) + strings.Repeat(barEmpty, BarLength-filled)
}

/*
Render builds the status embed for rec. It performs no I/O; now is only
used for the embed timestamp.
*/
func Render(rec probe.Record, target probe.Target, now time.Time) *discordgo.MessageEmbed {
	if !rec.Online {
		return renderOffline(rec, now)
	}
	return renderOnline(rec, target, now)
}

func renderOnline(rec probe.Record, target probe.Target, now time.Time) *discordgo.MessageEmbed {
	load := LoadPercentage(rec.Players, rec.MaxPlayers)

	return &discordgo.MessageEmbed{
		Title:       "🟢 " + rec.ServerName,
		Description: fmt.Sprintf("**Server is %s**", upperCaser.String("online")),
		Color:       ColorOnline,
		Timestamp:   now.UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "👥 Players",
				Value:  fmt.Sprintf("`%s` %d/%d", ProgressBar(rec.Players, rec.MaxPlayers), rec.Players, rec.MaxPlayers),
				Inline: false,
			},
			{
				Name:   "🔗 Server Address",
				Value:  fmt.Sprintf("`%s`", target.String()),
				Inline: false,
			},
			{
				Name:   "📊 Load",
				Value:  fmt.Sprintf("%.1f%%", load),
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: footerText},
	}
}

func renderOffline(rec probe.Record, now time.Time) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🔴 " + rec.ServerName,
		Description: fmt.Sprintf("**Server is %s**", upperCaser.String("offline")),
		Color:       ColorOffline,
		Timestamp:   now.UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "ℹ️ Status",
				Value:  "The server could not be reached.",
				Inline: false,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: footerText},
	}
}
