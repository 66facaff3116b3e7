package app

import (
	"github.com/mroshb/jeju_points/internal/config"
	"github.com/mroshb/jeju_points/internal/metrics"
	"github.com/mroshb/jeju_points/internal/notify"
	"github.com/mroshb/jeju_points/internal/repositories"
	"github.com/mroshb/jeju_points/internal/services"
	"github.com/mroshb/jeju_points/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

// App holds the wired services shared by the server and the CLI.
type App struct {
	DB       *gorm.DB
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Notifier notify.Notifier
	Points   *services.PointService
	Boxes    *services.PointBoxService
}

// New wires repositories, services and notifiers over an open database.
func New(cfg *config.Config, db *gorm.DB) (*App, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	fanout := notify.Fanout{notify.NewChatNoticeWriter(db)}
	if cfg.BotToken != "" {
		tg, err := notify.NewTelegramNotifier(cfg.BotToken, cfg.NoticeChatID, cfg.AppEnv == "development")
		if err != nil {
			return nil, err
		}
		fanout = append(fanout, tg)
		logger.Info("Telegram expiry notices enabled", "chat_id", cfg.NoticeChatID)
	}

	tx := repositories.NewTransactor(db, cfg.TxMaxRetries)

	points := services.NewPointService(
		repositories.NewPointRepository(db, tx),
		repositories.NewAccountRepository(db),
		repositories.NewGeoClaimRepository(db),
		cfg.Rewards,
		cfg.GetRewardLocation(),
		m,
	)
	boxes := services.NewPointBoxService(
		repositories.NewPointBoxRepository(db, tx),
		cfg.Rewards,
		fanout,
		m,
	)

	return &App{
		DB:       db,
		Registry: reg,
		Metrics:  m,
		Notifier: fanout,
		Points:   points,
		Boxes:    boxes,
	}, nil
}

// Close releases the database pool.
func (a *App) Close() error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
