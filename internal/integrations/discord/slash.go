package discord

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/vnxcius/gameserver-status-bot/internal/presenter"
)

// Responder is the part of *discordgo.Session used to answer interactions.
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var slashCommands = []*discordgo.ApplicationCommand{
	{
		Name:        "status",
		Description: "Shows the current server status.",
	},
	{
		Name:        "serverinfo",
		Description: "Shows bot configuration and information.",
	},
}

// SlashCommands returns the application commands the bot registers.
func SlashCommands() []*discordgo.ApplicationCommand {
	return slashCommands
}

// HandleInteraction answers slash commands. Every response is ephemeral.
func (c *Commands) HandleInteraction(s Responder, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "status":
		c.slashStatus(s, i)
	case "serverinfo":
		embed := presenter.RenderInfo(c.service.Tracker().Snapshot(), c.interval)
		c.respondEphemeral(s, i, &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		})
	}
}

func (c *Commands) slashStatus(s Responder, i *discordgo.InteractionCreate) {
	if !c.cooldown.Allow(interactionUserID(i)) {
		c.respondEphemeral(s, i, &discordgo.InteractionResponseData{
			Content: "⏳ Please wait a few seconds before checking again.",
		})
		return
	}

	// the probe chain can outlast the 3s interaction deadline
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		slog.Error("Failed to defer interaction", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), manualCheckTimeout)
	defer cancel()

	_, embed := c.service.Check(ctx, c.service.Tracker().Target())
	embeds := []*discordgo.MessageEmbed{embed}
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Embeds: &embeds}); err != nil {
		slog.Error("Failed to send status interaction response", "error", err)
	}
}

func (c *Commands) respondEphemeral(s Responder, i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	data.Flags = discordgo.MessageFlagsEphemeral
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		slog.Error("Failed to respond to interaction", "error", err)
	}
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
