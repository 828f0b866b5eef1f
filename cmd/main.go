package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/UnknownOlympus/waypoint/internal/cards"
	"github.com/UnknownOlympus/waypoint/internal/config"
	"github.com/UnknownOlympus/waypoint/internal/dialog"
	"github.com/UnknownOlympus/waypoint/internal/events"
	"github.com/UnknownOlympus/waypoint/internal/geocoding"
	"github.com/UnknownOlympus/waypoint/internal/location"
	"github.com/UnknownOlympus/waypoint/internal/metrics"
	"github.com/UnknownOlympus/waypoint/internal/repository"
	"github.com/UnknownOlympus/waypoint/internal/resources"
	"github.com/UnknownOlympus/waypoint/internal/service"
	"github.com/spf13/cobra"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

var rootCmd = &cobra.Command{
	Use:   "waypoint",
	Short: "waypoint - conversational location capture",
	Long: `waypoint asks a chat user for a physical location, resolves it through a
geocoding provider, lets the user pick a candidate and completes the
address fields the caller requires.`,
	SilenceUsage: true,
}

// main is the entry point of the application.
func main() {
	rootCmd.AddCommand(serveCmd, consoleCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildConversations wires the geocoding provider chain, the dialog units and the conversation host.
func buildConversations(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	appMetrics *metrics.Metrics,
	repo repository.Interface,
	publisher events.Publisher,
) (*service.ConversationService, error) {
	strs, err := resources.Load(cfg.ResourcesFile)
	if err != nil {
		return nil, err
	}

	// Create geocoding provider using factory pattern based on configuration
	// This allows runtime selection between different providers (Google, Visicom, Nominatim).
	provider, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:      geocoding.ProviderType(cfg.ProviderType),
		APIKey:    cfg.APIKey,
		RateLimit: cfg.RateLimit,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create geocoding provider: %w", err)
	}
	provider = geocoding.NewCachedProvider(
		geocoding.NewInstrumentedProvider(provider, cfg.ProviderType, appMetrics),
		cfg.CacheSize,
		appMetrics,
	)

	logger.InfoContext(ctx, "Geocoding provider initialized", "type", cfg.ProviderType)

	deps := &location.Dependencies{
		Provider:  provider,
		Presenter: cards.NewPresenter(provider, strs.AddressSeparator, logger),
		Strings:   strs,
		Log:       logger,
	}
	registry := dialog.NewRegistry()
	location.Register(registry, deps)

	defaults := location.Options{
		APIKey:           cfg.APIKey,
		Prompt:           cfg.Dialog.Prompt,
		UseNativeControl: cfg.Dialog.UseNativeControl,
		ReverseGeocode:   cfg.Dialog.ReverseGeocode,
		RequiredFields:   cfg.Dialog.RequiredFields,
		DirectionsFrom:   cfg.Dialog.DirectionsFrom,
	}
	if err = defaults.Validate(); err != nil {
		return nil, err
	}

	return service.NewConversationService(service.Config{
		Log:       logger,
		Repo:      repo,
		Engine:    dialog.NewEngine(strs, registry, logger),
		Deps:      deps,
		Publisher: publisher,
		Metrics:   appMetrics,
		TTL:       cfg.SessionTTL,
		Defaults:  defaults,
	}), nil
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelWarn,
				AddSource:   false,
				ReplaceAttr: dropTime,
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelError,
				AddSource:   false,
				ReplaceAttr: dropTime,
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}

func dropTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}
