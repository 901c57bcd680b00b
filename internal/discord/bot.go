// Package discord connects the music player to Discord: the gateway session,
// command dispatch, voice connections and the messages the bot posts.
package discord

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/keshon/cord-titan/internal/command"
	"github.com/keshon/cord-titan/internal/config"
	"github.com/keshon/cord-titan/internal/music/player"
	"github.com/keshon/cord-titan/internal/storage"
	"github.com/keshon/cord-titan/pkg/cmd"
)

const stopTimeout = 10 * time.Second

// Bot is a Discord bot
type Bot struct {
	dg       *discordgo.Session
	cfg      *config.Config
	storage  *storage.Storage
	registry *cmd.Registry
	voice    *VoiceManager
	player   *player.Player
	hashDir  string

	ctx context.Context
}

// NewSession creates an unopened gateway session.
func NewSession(token string) (*discordgo.Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates
	return dg, nil
}

func NewBot(dg *discordgo.Session, cfg *config.Config, store *storage.Storage, registry *cmd.Registry, voice *VoiceManager, p *player.Player) *Bot {
	return &Bot{
		dg:       dg,
		cfg:      cfg,
		storage:  store,
		registry: registry,
		voice:    voice,
		player:   p,
		hashDir:  filepath.Join(filepath.Dir(cfg.StoragePath), "commands"),
		ctx:      context.Background(),
	}
}

// Run opens the session and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx
	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onGuildCreate)
	b.dg.AddHandler(b.onInteractionCreate)
	b.dg.AddHandler(b.onVoiceStateUpdate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}

	<-ctx.Done()
	log.Info().Str("component", "bot").Msg("shutdown signal received, cleaning up")

	closeCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	b.voice.Close(closeCtx)
	if err := b.dg.Close(); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Info().Str("component", "bot").Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("discord bot is running")
}

// onGuildCreate fires for every guild on startup and whenever the bot is added.
func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	log.Info().Str("component", "bot").Str("guild", g.ID).Str("name", g.Name).Msg("guild available")
	if err := b.registerCommands(b.ctx, g.ID); err != nil {
		log.Error().Str("component", "bot").Str("guild", g.ID).Err(err).Msg("failed to register commands")
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		c := b.registry.Get(name)
		if c == nil {
			log.Warn().Str("component", "bot").Str("command", name).Msg("unknown command")
			return
		}
		b.invoke(c, s, i, &command.SlashInteractionContext{Session: s, Event: i, Storage: b.storage})

	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID
		c := b.registry.Match(customID)
		if c == nil {
			log.Warn().Str("component", "bot").Str("custom_id", customID).Msg("no command for component")
			return
		}
		b.invoke(c, s, i, &command.ComponentInteractionContext{Session: s, Event: i, Storage: b.storage})

	default:
		log.Debug().Str("component", "bot").Int("type", int(i.Type)).Msg("unhandled interaction type")
	}
}

func (b *Bot) invoke(c cmd.Command, s *discordgo.Session, i *discordgo.InteractionCreate, data any) {
	err := c.Run(b.ctx, &cmd.Invocation{Data: data})
	if err == nil {
		return
	}
	log.Error().Str("component", "bot").Str("command", c.Name()).Str("guild", i.GuildID).Err(err).Msg("command failed")

	embed := ErrorEmbed("Error", Truncate(err.Error(), 300))
	if rerr := RespondEmbedEphemeral(s, i, embed); rerr != nil {
		// Already acknowledged.
		_ = FollowupEmbedEphemeral(s, i, embed)
	}
}

// onVoiceStateUpdate tracks the bot's own voice state. An unexpected
// disconnect clears the guild's queue; 24/7 guilds are rejoined after a delay.
func (b *Bot) onVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if s.State.User == nil || v.UserID != s.State.User.ID {
		return
	}
	if v.ChannelID != "" {
		b.voice.Moved(v.GuildID, v.ChannelID)
		return
	}

	logger := log.With().Str("component", "bot").Str("guild", v.GuildID).Logger()

	ctx, cancel := context.WithTimeout(b.ctx, stopTimeout)
	if err := b.player.Stop(ctx, v.GuildID); err != nil {
		logger.Warn().Err(err).Msg("failed to stop playback after disconnect")
	}
	cancel()

	channelID, intentional := b.voice.Forget(v.GuildID)
	if intentional || channelID == "" || !b.storage.Is247(v.GuildID) {
		return
	}

	logger.Info().Str("channel", channelID).Dur("delay", b.cfg.RejoinDelay).Msg("24/7 mode: rejoining")
	go func() {
		select {
		case <-b.ctx.Done():
			return
		case <-time.After(b.cfg.RejoinDelay):
		}
		if err := b.voice.Join(v.GuildID, channelID); err != nil {
			logger.Error().Err(err).Msg("24/7 rejoin failed")
		}
	}()
}
