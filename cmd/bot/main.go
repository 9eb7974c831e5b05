package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vnxcius/gameserver-status-bot/internal/config"
	"github.com/vnxcius/gameserver-status-bot/internal/http/router"
	"github.com/vnxcius/gameserver-status-bot/internal/integrations/discord"
	"github.com/vnxcius/gameserver-status-bot/internal/logging"
	"github.com/vnxcius/gameserver-status-bot/internal/monitor"
	"github.com/vnxcius/gameserver-status-bot/internal/probe"
	"github.com/vnxcius/gameserver-status-bot/internal/publisher"
	"github.com/vnxcius/gameserver-status-bot/internal/status"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	logCloser, err := logging.SetupLogger(logging.Options{
		FilePath: cfg.LogPath,
		Level:    cfg.Level(),
		Location: cfg.Location(),
	})
	if err != nil {
		log.Fatal("Failed to set up logger: ", err)
	}
	defer logCloser.Close()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	target, err := probe.ParseTarget(cfg.ServerIP)
	if err != nil {
		slog.Error("Invalid server address", "server_ip", cfg.ServerIP, "error", err)
		os.Exit(1)
	}

	prober := probe.New(probe.Options{
		ServerName:    cfg.ServerLabel,
		MasterListURL: cfg.MasterListURL,
	})

	tracker := status.NewTracker(target, cfg.ChannelID)
	defer tracker.Close()

	session, err := discord.NewSession(cfg.Token)
	if err != nil {
		slog.Error("Failed to create Discord session", "error", err)
		os.Exit(1)
	}

	pub := publisher.New(session)
	service := monitor.NewService(prober, tracker)
	loop := monitor.NewLoop(service, pub, cfg.Interval())

	commands := discord.NewCommands(discord.Options{
		Prefix:      cfg.BotPrefix,
		Interval:    loop.Interval(),
		Service:     service,
		Publisher:   pub,
		Permissions: discord.PermissionsOf(session),
	})
	bot := discord.NewBot(session, commands, loop)

	slog.Info("Starting status bot",
		"environment", cfg.Environment,
		"target", target.String(),
		"channel", cfg.ChannelID,
		"interval", loop.Interval().String(),
		"prefix", cfg.BotPrefix,
	)
	if cfg.ChannelID == "" {
		slog.Warn("No status channel configured, use setchannel to pick one")
	}

	var api *router.Server
	if cfg.HTTPAddr != "" {
		engine, err := router.NewRouter(router.Options{
			Tracker:        tracker,
			AllowedOrigins: cfg.Origins(),
		})
		if err != nil {
			slog.Error("Failed to build status API", "error", err)
			os.Exit(1)
		}
		api = router.NewServer(cfg.HTTPAddr, engine)
		api.Start()
	}

	if err := bot.Open(); err != nil {
		slog.Error("Failed to start bot", "error", err)
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("Shutting down", "signal", sig.String())

	if api != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := api.Shutdown(ctx); err != nil {
			slog.Error("Status API shutdown failed", "error", err)
		}
		cancel()
	}

	if err := bot.Close(); err != nil {
		slog.Error("Failed to close Discord session", "error", err)
	}
}
