package settings

import (
	"context"

	"github.com/striketeam/warden/internal/database/types"
	"go.uber.org/zap"
)

// ConfigStore persists validated guild configurations. The three records
// must be written atomically; a failed save must leave no partial state.
type ConfigStore interface {
	SaveConfig(ctx context.Context, config *types.GuildConfig) error
}

// Pipeline validates inbound settings payloads and persists them. It is
// stateless across calls and performs no authorization checks; the caller
// must have already established that the acting user may administer the
// guild.
type Pipeline struct {
	store  ConfigStore
	logger *zap.Logger
}

// NewPipeline creates a settings pipeline backed by the given store.
func NewPipeline(store ConfigStore, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		store:  store,
		logger: logger.Named("settings"),
	}
}

// Apply decodes and validates a raw settings payload for a guild, then
// upserts all three configuration records in one transaction. On success it
// returns the fully-defaulted configuration that was stored. Failures are
// distinguishable by type: ErrMalformedPayload and *ValidationError are
// caller mistakes, *PersistenceError means the transaction rolled back and
// the identical call may be retried.
func (p *Pipeline) Apply(ctx context.Context, guildID string, raw []byte) (*types.GuildConfig, error) {
	if guildID == "" {
		return nil, ErrMissingGuildID
	}

	config, err := DecodeConfig(guildID, raw)
	if err != nil {
		return nil, err
	}

	if err := p.store.SaveConfig(ctx, config); err != nil {
		p.logger.Error("Failed to save guild configuration",
			zap.String("guildID", guildID),
			zap.Error(err))

		return nil, &PersistenceError{Err: err}
	}

	p.logger.Debug("Saved guild configuration", zap.String("guildID", guildID))

	return config, nil
}
