package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adirahman/ceritakita-go/internal/conf"
	"github.com/adirahman/ceritakita-go/internal/credentials"
	"github.com/adirahman/ceritakita-go/internal/datastore"
	"github.com/adirahman/ceritakita-go/internal/datastore/repository"
	"github.com/adirahman/ceritakita-go/internal/gateway"
	"github.com/adirahman/ceritakita-go/internal/logger"
	"github.com/adirahman/ceritakita-go/internal/push"
	"github.com/adirahman/ceritakita-go/internal/syncer"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	flagConfig  string
	flagOffline bool
	flagVerbose bool
)

// app bundles the wired-up components a command needs.
type app struct {
	settings *conf.Settings
	log      logger.Logger
	db       *gorm.DB
	stories  repository.StoryRepository
	subs     repository.SubscriptionRepository
	creds    *credentials.Store
	client   *gateway.Client
	probe    syncer.ConnectivityProbe
	push     *push.Manager
}

func (a *app) close() {
	if a.db != nil {
		_ = datastore.Close(a.db)
	}
}

func (a *app) listOptions() gateway.ListOptions {
	return gateway.ListOptions{
		Page:         1,
		Size:         a.settings.API.PageSize,
		WithLocation: a.settings.API.IncludeLocation,
	}
}

// newApp loads configuration and wires every component.
func newApp() (*app, error) {
	settings, err := conf.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	log := logger.New(os.Stderr, level)

	db, err := datastore.Open(settings.Storage.Path)
	if err != nil {
		return nil, err
	}

	dir, err := conf.ConfigDir()
	if err != nil {
		_ = datastore.Close(db)
		return nil, err
	}
	creds := credentials.NewStore(filepath.Join(dir, "credentials.json"))

	client := gateway.NewClient(settings.API.BaseURL, settings.API.Timeout.Std(), creds, log)

	var probe syncer.ConnectivityProbe = syncer.NewHTTPProbe(settings.API.BaseURL)
	if flagOffline {
		probe = syncer.StaticProbe(false)
	}

	subs := repository.NewSubscriptionRepository(db)
	return &app{
		settings: settings,
		log:      log,
		db:       db,
		stories:  repository.NewStoryRepository(db),
		subs:     subs,
		creds:    creds,
		client:   client,
		probe:    probe,
		push:     push.NewManager(client, subs, log),
	}, nil
}

var rootCmd = &cobra.Command{
	Use:           "ceritakita",
	Short:         "Browse and share stories, online or offline",
	Long:          "CeritaKita is an offline-first client for the story sharing service:\nit lists and submits stories against the remote API and keeps an offline\ncopy of stories you save locally.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ceritakita.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagOffline, "offline", false, "skip the network and read only the offline cache")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}
