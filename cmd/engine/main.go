package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	app "github.com/muhammadchandra19/limit-order-engine/internal/app/engine"
	eventsv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/events/v1"
	"github.com/muhammadchandra19/limit-order-engine/internal/usecase/events"
	"github.com/muhammadchandra19/limit-order-engine/internal/usecase/journal"
	"github.com/muhammadchandra19/limit-order-engine/internal/usecase/ledger"
	"github.com/muhammadchandra19/limit-order-engine/pkg/config"
	"github.com/muhammadchandra19/limit-order-engine/pkg/logger"
)

var cfg *config.Config
var log *logger.Logger

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		panic(err)
	}

	log, err = logger.NewLogger(logger.WithLoggingLevel(logger.Level(cfg.App.LogLevel)))
	if err != nil {
		panic(err)
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	color.Cyan("%s (%s)", cfg.App.Name, cfg.App.Environment)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	journalStore, err := journal.Open(cfg.Journal.Dir)
	if err != nil {
		log.Error(err, logger.NewField("action", "open_journal"))
		return
	}
	defer journalStore.Close()

	var publisher eventsv1.Publisher = events.Nop{}
	if len(cfg.EventsKafka.Brokers) > 0 {
		kafkaPublisher := events.NewPublisher(cfg.EventsKafka, log)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	balances := ledger.NewLedger(log)

	engine := app.NewEngine(
		balances,
		publisher,
		journalStore,
		log,
		app.OptionsFromConfig(cfg.Engine),
	)

	log.Info("engine started",
		logger.NewField("factory", engine.Factory().Address().Hex()),
		logger.NewField("journal_dir", cfg.Journal.Dir),
		logger.NewField("kafka_enabled", len(cfg.EventsKafka.Brokers) > 0),
	)

	<-sigChan
	log.Info("shutdown signal received")

	if err := engine.Flush(ctx); err != nil {
		log.Error(err, logger.NewField("action", "flush"))
	}
	engine.Stop()
}
