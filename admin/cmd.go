package main

import (
	"errors"
	"flag"
	"fmt"
	"net/mail"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/smartstudentv6/smart-student-notices/core"
	"github.com/smartstudentv6/smart-student-notices/core/notice"
	"github.com/smartstudentv6/smart-student-notices/storage/database"
)

var (
	// mockable
	migrateFunc    = database.Migrate
	digestSendWait = 2 * time.Second

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db     *sqlx.DB
	engine string
	svc    *notice.Service
	repo   notice.Repository
	email  core.EmailService
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate                             - apply pending ledger migrations")
	fmt.Println("  reconcile                           - sweep notices for terminal work items")
	fmt.Println("  seed -course COURSE                 - insert dev fixture notices for a course")
	fmt.Println("  digest -viewer ID -email ADDR       - email a viewer their unread notices")
	fmt.Println("         [-role learner|instructor]")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	seedCmd := flag.NewFlagSet("seed", flag.ExitOnError)
	seedCourse := seedCmd.String("course", "", "The course to seed fixture notices for.")

	digestCmd := flag.NewFlagSet("digest", flag.ExitOnError)
	digestViewer := digestCmd.String("viewer", "", "The viewer identity to build the digest for.")
	digestEmail := digestCmd.String("email", "", "The address to send the digest to.")
	digestRole := digestCmd.String("role", "learner", "The ledger role to read as.")

	switch args[1] {
	case "migrate":
		return cli.migrate()
	case "reconcile":
		return cli.reconcile()
	case "seed":
		if err := seedCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *seedCourse == "" {
			seedCmd.Usage()
			return errHelp
		}
		return cli.seed(*seedCourse)
	case "digest":
		if err := digestCmd.Parse(args[2:]); err != nil {
			return err
		}
		role := notice.Role(core.CleanString(*digestRole, true /* lower */))
		if *digestViewer == "" || *digestEmail == "" || !role.Valid() {
			digestCmd.Usage()
			return errHelp
		}
		return cli.digest(*digestViewer, role, *digestEmail)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) digest(viewer string, role notice.Role, email string) error {
	msg, err := cli.svc.DigestFor(viewer, role, mail.Address{Address: email})
	if err != nil {
		return err
	}
	if msg == nil {
		fmt.Printf("nothing unread for %s\n", viewer)
		return nil
	}

	cli.email.SendMessages(msg)
	// SendMessages delivers on background goroutines
	time.Sleep(digestSendWait)
	fmt.Printf("digest sent to %s\n", email)
	return nil
}

func (cli *commandLine) migrate() error {
	return migrateFunc(cli.db.DB, cli.engine)
}

func (cli *commandLine) reconcile() error {
	removed, err := cli.svc.Reconcile()
	if err != nil {
		return err
	}
	fmt.Printf("swept %d notices\n", removed)
	return nil
}
