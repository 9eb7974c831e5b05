package handlers

import "github.com/vnxcius/gameserver-status-bot/internal/probe"

type StatusResponse struct {
	Target    string       `json:"target"`
	ChannelID string       `json:"channel_id"`
	Record    probe.Record `json:"record"`
}
