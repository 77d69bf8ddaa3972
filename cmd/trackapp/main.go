package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/soufiyanbenallal/track-app-sub000/internal/idle"
	"github.com/soufiyanbenallal/track-app-sub000/internal/logger"
	"github.com/soufiyanbenallal/track-app-sub000/internal/store"
	"github.com/soufiyanbenallal/track-app-sub000/internal/tracker"
	"github.com/soufiyanbenallal/track-app-sub000/internal/version"
)

var userConfigFilePath string

func setupViper() error {
	viper.SetConfigName("trackapp")
	viper.SetConfigType("yaml")

	// Determine the user config directory
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error getting user home directory: %w", err)
		}
		if runtime.GOOS == "windows" {
			configHome = filepath.Join(homeDir, "AppData", "Roaming")
		} else {
			configHome = filepath.Join(homeDir, ".config")
		}
	}

	userConfigFilePath = filepath.Join(configHome, "trackapp", "trackapp.yml")
	viper.SetConfigFile(userConfigFilePath)

	if err := os.MkdirAll(filepath.Dir(userConfigFilePath), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	viper.SetDefault("data_folder", filepath.Join(filepath.Dir(userConfigFilePath), "data"))
	viper.SetDefault("debug", false)
	viper.SetDefault("idle_poll_interval", "1s")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
			if err := viper.WriteConfigAs(userConfigFilePath); err != nil {
				return fmt.Errorf("error creating config file: %w", err)
			}
		} else {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

func runApp() error {
	if err := setupViper(); err != nil {
		return err
	}

	log, err := logger.New(viper.GetBool("debug"))
	if err != nil {
		return fmt.Errorf("error creating logger: %w", err)
	}
	defer logger.Sync(log)

	backend, err := store.NewFileBackend(viper.GetString("data_folder"))
	if err != nil {
		return err
	}
	db := store.New(backend, log)

	settings, err := db.GetSettings()
	if err != nil {
		return err
	}

	trk := tracker.New(tracker.Config{
		Store: db,
		Log:   log,
	})
	defer trk.Close()

	if recovered, err := trk.Recover(); err != nil {
		log.Warn("recovery scan failed", zap.Error(err))
	} else if recovered > 0 {
		log.Info("recovered interrupted sessions", zap.Int("count", recovered))
	}

	monitor := idle.NewMonitor(idle.Config{
		Source:    idle.NewCommandSource(),
		Log:       log,
		OnIdle:    trk.HandleIdle,
		OnActive:  trk.HandleActive,
		Threshold: time.Duration(settings.IdleTimeoutMinutes) * time.Minute,
		Interval:  viper.GetDuration("idle_poll_interval"),
	})
	monitor.Start()
	defer monitor.Stop()

	log.Info("trackapp started",
		zap.String("version", version.Version),
		zap.String("data_folder", viper.GetString("data_folder")),
		zap.Int("idle_timeout_minutes", settings.IdleTimeoutMinutes))

	// Status heartbeat for whatever front end is attached; the snapshot
	// itself is always computed fresh on request.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			st := trk.Status()
			if st.IsTracking {
				log.Debug("session status",
					zap.String("task_id", st.CurrentTask.ID),
					zap.Int64("elapsed_sec", st.ElapsedSeconds),
					zap.Bool("user_idle", st.IsIdle))
			}
		case sig := <-quit:
			log.Info("shutting down", zap.String("signal", sig.String()))
			// An orderly shutdown checkpoints the session instead of
			// losing it.
			if _, err := trk.Interrupt(); err != nil {
				log.Error("could not checkpoint session", zap.Error(err))
			}
			return nil
		}
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "trackapp",
		Short: "Personal time tracker with idle detection and crash recovery",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp()
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the trackapp version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.Version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
