package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smartstudentv6/smart-student-notices/api"
	"github.com/smartstudentv6/smart-student-notices/core"
	"github.com/smartstudentv6/smart-student-notices/core/notice"
	broadcastsvc "github.com/smartstudentv6/smart-student-notices/services/broadcast"
	dashboardsvc "github.com/smartstudentv6/smart-student-notices/services/dashboard"
	logsvc "github.com/smartstudentv6/smart-student-notices/services/logger"
	"github.com/smartstudentv6/smart-student-notices/storage/database"
	dummydb "github.com/smartstudentv6/smart-student-notices/storage/database/dummy"
	sqlxrepos "github.com/smartstudentv6/smart-student-notices/storage/database/sqlx"
)

func main() {
	conf := core.LoadConfig()

	std := log.New(os.Stdout, "NOTICES : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug)
	defer logger.Wait()

	// ledger store
	var repo notice.Repository
	switch conf.Database.Engine {
	case "", "memory":
		db, err := dummydb.Open()
		if err != nil {
			std.Fatalf("opening in-memory store: %v", err)
		}
		repo = dummydb.NewNoticeRepository(db)
	default:
		if err := database.CreateIfNotExist(conf); err != nil {
			std.Fatalf("provisioning database: %v", err)
		}
		db, err := database.Open(conf)
		if err != nil {
			std.Fatalf("opening database: %v", err)
		}
		defer func() { _ = db.Close() }()
		if err := database.Migrate(db.DB, conf.Database.Engine); err != nil {
			std.Fatalf("migrating database: %v", err)
		}
		repo = sqlxrepos.NewNoticeRepository(db, conf.Database.Engine, logger)
	}

	// invalidation fan-out
	var broadcaster notice.Broadcaster
	if len(conf.Kafka.Brokers) > 0 {
		kb := broadcastsvc.NewKafkaBroadcaster(conf, logger)
		defer func() { _ = kb.Close() }()
		broadcaster = kb
	} else {
		broadcaster = broadcastsvc.NewHub()
	}

	// collaborators
	dashboard := dashboardsvc.NewClient(conf.FrontendBaseURL)

	svc := notice.NewService(repo, dashboard, dashboard, dashboard, broadcaster, logger)

	// idle-triggered periodic sweep
	stopSweep := make(chan struct{})
	go func() {
		ticker := time.NewTicker(conf.ReconcileInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := svc.Reconcile(); err != nil {
					logger.Error("periodic reconcile", err)
				}
			case <-stopSweep:
				return
			}
		}
	}()

	app := api.NewServer(&api.Options{
		Address:   conf.Server.Address(),
		NoticeSvc: svc,
	})
	go app.Start()

	// graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	<-shutdown
	close(stopSweep)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		logger.Error("stopping server", err)
	}
}
