package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/strafehub/jumptimer/internal/api/admin"
	"github.com/strafehub/jumptimer/internal/api/game"
	"github.com/strafehub/jumptimer/internal/auth"
	"github.com/strafehub/jumptimer/internal/config"
	"github.com/strafehub/jumptimer/internal/database"
	"github.com/strafehub/jumptimer/internal/database/models"
	"github.com/strafehub/jumptimer/internal/pubsub"
	"github.com/strafehub/jumptimer/internal/timer"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Version = "dev-build"

func main() {

	fmt.Fprintf(os.Stderr, "jumptimer %s - jump time-trial ranking service\n\n", Version)

	// config
	var configPath string
	flag.StringVar(&configPath, "c", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// logger
	var logger *zap.Logger
	if cfg.Logger.Level == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	// database
	db, err := database.Init(cfg.Storage.Database)
	if err != nil {
		zap.S().Fatalf("failed to initialize database: %v", err)
	}
	zap.S().Info("database initialized successfully")

	// bootstrap API user so game servers can log in on a fresh install
	if err := seedBootstrapUser(db, cfg.Auth.Bootstrap); err != nil {
		zap.S().Fatalf("failed to seed bootstrap user: %v", err)
	}

	// ranking engine and record feed
	broker := pubsub.NewBroker()
	engine := timer.NewEngine(db, timer.DefaultPoints, broker)

	// API routers
	gameEngine := game.NewGameRouter(cfg, db, engine, broker)
	adminEngine := admin.NewAdminRouter(cfg, db, engine)

	// start servers
	go func() {
		zap.S().Infof("starting game server at %s", cfg.Listen)
		if err := gameEngine.Run(cfg.Listen); err != nil {
			zap.S().Fatalf("failed to start game server: %v", err)
		}
	}()

	if cfg.Admin.Enabled {
		go func() {
			zap.S().Infof("starting admin server at %s", cfg.Admin.Listen)
			if err := adminEngine.Run(cfg.Admin.Listen); err != nil {
				zap.S().Fatalf("failed to start admin server: %v", err)
			}
		}()
	}

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.S().Info("shutting down server...")
}

func seedBootstrapUser(db *gorm.DB, bootstrap config.Bootstrap) error {
	if bootstrap.Username == "" {
		return nil
	}
	_, err := database.GetUserByUsername(db, bootstrap.Username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := auth.HashPassword(bootstrap.Password)
	if err != nil {
		return err
	}
	user := models.User{Username: bootstrap.Username, PasswordHash: hash}
	if err := database.CreateUser(db, &user); err != nil {
		return err
	}
	zap.S().Infof("bootstrap user %s created", user.Username)
	return nil
}
