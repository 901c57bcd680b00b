package discord

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/keshon/cord-titan/internal/command"
)

// registerCommands syncs slash commands for a guild with Discord:
// deletes obsolete ones, creates/updates commands whose definition has changed.
func (b *Bot) registerCommands(ctx context.Context, guildID string) error {
	appID, err := b.appID()
	if err != nil {
		return err
	}

	remote, err := b.dg.ApplicationCommands(appID, guildID)
	if err != nil {
		return fmt.Errorf("list commands: %w", err)
	}
	remoteByName := make(map[string]*discordgo.ApplicationCommand, len(remote))
	for _, c := range remote {
		remoteByName[c.Name] = c
	}

	local := b.commandDefinitions()
	b.deleteObsoleteCommands(appID, guildID, remoteByName, local)
	return b.upsertChangedCommands(ctx, appID, guildID, local, remoteByName)
}

// commandDefinitions returns the definitions of all registered slash commands.
func (b *Bot) commandDefinitions() []*discordgo.ApplicationCommand {
	var defs []*discordgo.ApplicationCommand
	for _, c := range b.registry.GetAll() {
		if def := command.Definition(c); def != nil {
			defs = append(defs, def)
		}
	}
	return defs
}

func (b *Bot) deleteObsoleteCommands(appID, guildID string, remote map[string]*discordgo.ApplicationCommand, local []*discordgo.ApplicationCommand) {
	localNames := make(map[string]struct{}, len(local))
	for _, d := range local {
		localNames[d.Name] = struct{}{}
	}

	hashes := b.loadCommandHashes(guildID)
	for name, rc := range remote {
		if _, exists := localNames[name]; exists {
			continue
		}
		logger := log.With().Str("component", "commands").Str("guild", guildID).Str("command", name).Logger()
		logger.Info().Msg("deleting obsolete command")
		if err := b.dg.ApplicationCommandDelete(appID, guildID, rc.ID); err != nil {
			logger.Error().Err(err).Msg("failed to delete command")
			continue
		}
		delete(hashes, name)
	}
	b.saveCommandHashes(guildID, hashes)
}

// upsertChangedCommands creates or updates commands whose hash differs from
// the cached value or that Discord does not know about.
func (b *Bot) upsertChangedCommands(ctx context.Context, appID, guildID string, defs []*discordgo.ApplicationCommand, remote map[string]*discordgo.ApplicationCommand) error {
	cached := b.loadCommandHashes(guildID)
	var changed []*discordgo.ApplicationCommand
	for _, d := range defs {
		_, known := remote[d.Name]
		if !known || cached[d.Name] != hashCommand(d) {
			changed = append(changed, d)
		}
	}
	if len(changed) == 0 {
		return nil
	}

	log.Info().Str("component", "commands").Str("guild", guildID).Int("count", len(changed)).Msg("registering changed commands")
	// Stay well under Discord's rate limit.
	limiter := rate.NewLimiter(rate.Every(25*time.Millisecond), 1)
	for _, d := range changed {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		if _, err := b.dg.ApplicationCommandCreate(appID, guildID, d); err != nil {
			log.Error().Str("component", "commands").Str("guild", guildID).Str("command", d.Name).Err(err).Msg("failed to register command")
			continue
		}
		cached[d.Name] = hashCommand(d)
	}
	b.saveCommandHashes(guildID, cached)
	return nil
}

// appID returns the bot's application ID, fetching from Discord if not cached in State.
func (b *Bot) appID() (string, error) {
	if b.dg.State.User != nil && b.dg.State.User.ID != "" {
		return b.dg.State.User.ID, nil
	}
	u, err := b.dg.User("@me")
	if err != nil {
		return "", fmt.Errorf("failed to fetch bot user: %w", err)
	}
	return u.ID, nil
}

// --- Command hash cache ---

func (b *Bot) commandHashPath(guildID string) string {
	return filepath.Join(b.hashDir, guildID+".json")
}

func (b *Bot) loadCommandHashes(guildID string) map[string]string {
	out := make(map[string]string)
	if data, err := os.ReadFile(b.commandHashPath(guildID)); err == nil {
		_ = json.Unmarshal(data, &out)
	}
	return out
}

func (b *Bot) saveCommandHashes(guildID string, hashes map[string]string) {
	path := b.commandHashPath(guildID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Warn().Str("component", "commands").Err(err).Msg("failed to create command cache dir")
		return
	}
	if data, err := json.MarshalIndent(hashes, "", "  "); err == nil {
		_ = os.WriteFile(path, data, 0o644)
	}
}

// --- Command hashing ---

// hashCommand returns a deterministic SHA-1 of a command's stable fields.
func hashCommand(c *discordgo.ApplicationCommand) string {
	stable := map[string]any{
		"name":        c.Name,
		"description": c.Description,
		"type":        c.Type,
	}
	if len(c.Options) > 0 {
		stable["options"] = normalizeOptions(c.Options)
	}
	data, _ := json.Marshal(stable)
	return fmt.Sprintf("%x", sha1.Sum(data))
}

func normalizeOptions(opts []*discordgo.ApplicationCommandOption) []map[string]any {
	out := make([]map[string]any, len(opts))
	for i, o := range opts {
		entry := map[string]any{
			"name":        o.Name,
			"description": o.Description,
			"type":        o.Type,
			"required":    o.Required,
		}
		if o.MinValue != nil {
			entry["min"] = *o.MinValue
		}
		if o.MaxValue != 0 {
			entry["max"] = o.MaxValue
		}
		if len(o.Choices) > 0 {
			choices := make([]map[string]any, len(o.Choices))
			for j, ch := range o.Choices {
				choices[j] = map[string]any{"name": ch.Name, "value": ch.Value}
			}
			entry["choices"] = choices
		}
		if len(o.Options) > 0 {
			entry["options"] = normalizeOptions(o.Options)
		}
		out[i] = entry
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i]["name"].(string) < out[j]["name"].(string)
	})
	return out
}
