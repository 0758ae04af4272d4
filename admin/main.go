package main

import (
	"log"
	"os"

	"github.com/smartstudentv6/smart-student-notices/core"
	"github.com/smartstudentv6/smart-student-notices/core/notice"
	dashboardsvc "github.com/smartstudentv6/smart-student-notices/services/dashboard"
	emailsvc "github.com/smartstudentv6/smart-student-notices/services/email"
	logsvc "github.com/smartstudentv6/smart-student-notices/services/logger"
	"github.com/smartstudentv6/smart-student-notices/storage/database"
	sqlxrepos "github.com/smartstudentv6/smart-student-notices/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	conf := core.LoadConfig()
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		errAndDie(err)
	}
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()

	logSvc := logsvc.NewRollbarLogger(logger, conf)
	logSvc.Enable(false)

	dashboard := dashboardsvc.NewClient(conf.FrontendBaseURL)
	repo := sqlxrepos.NewNoticeRepository(db, conf.Database.Engine, logSvc)

	var emailSvc core.EmailService = emailsvc.NewConsoleService()
	if conf.SendgridAPIKey != "" {
		emailSvc = emailsvc.NewSendgridService(logSvc)
	}

	// start CLI
	cli := commandLine{
		db:     db,
		engine: conf.Database.Engine,
		svc:    notice.NewService(repo, dashboard, dashboard, dashboard, nil, logSvc),
		repo:   repo,
		email:  emailSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
