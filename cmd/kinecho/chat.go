package main

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kinechobot/kinecho/internal/config"
	"github.com/kinechobot/kinecho/internal/console"
	"github.com/kinechobot/kinecho/internal/discord"
	"github.com/kinechobot/kinecho/internal/engine"
	"github.com/kinechobot/kinecho/internal/provider"
	"github.com/kinechobot/kinecho/memory"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run the front ends selected by settings",
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, _ []string) error {
	// The SDK reads the key itself; checking up front gives a clearer error.
	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		return errors.New("missing ANTHROPIC_API_KEY; export it before running")
	}

	settings, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	store, err := memory.Load(settings.Memory.Path)
	if err != nil {
		return err
	}
	log.Info().
		Str("path", settings.Memory.Path).
		Str("keying", settings.Memory.Keying).
		Str("input_method", settings.InputMethod).
		Str("output_method", settings.OutputMethod).
		Msg("conversation memory loaded")

	var current atomic.Pointer[config.Settings]
	current.Store(settings)

	eng := engine.New(provider.NewClient(), store, func() engine.Options {
		s := current.Load()
		return engine.Options{
			Model:        provider.ResolveModel(s.Model),
			MaxTokens:    int64(s.MaxTokens),
			SystemPrompt: s.SystemPrompt,
			Window:       s.Memory.Window,
			RuneBudget:   s.Memory.RuneBudget,
		}
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Settings hot reload only works with an explicit file to watch.
	if cfgFile != "" {
		go func() {
			if err := config.Watch(ctx, cfgFile, func(s *config.Settings) { current.Store(s) }); err != nil {
				log.Warn().Err(err).Msg("settings watcher stopped")
			}
		}()
	}

	g, gctx := errgroup.WithContext(ctx)

	if settings.ConsoleEnabled() {
		c := console.New(eng)
		g.Go(func() error { return c.Run(gctx) })
	}
	if settings.DiscordEnabled() {
		bot, err := discord.New(settings.Discord.Token, eng, store, settings.Memory.Keying)
		if err != nil {
			return err
		}
		log.Info().Msg("starting discord front end")
		g.Go(func() error { return bot.Run(gctx) })
	}

	err = g.Wait()
	if flushErr := store.Flush(); flushErr != nil {
		log.Warn().Err(flushErr).Msg("failed to flush conversation memory on shutdown")
	}
	return err
}
