package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hubertusvie/bcr-ebilld/billservice"
	"github.com/hubertusvie/bcr-ebilld/boltstore"
	"github.com/hubertusvie/bcr-ebilld/btcoracle"
	"github.com/hubertusvie/bcr-ebilld/config"
	"github.com/hubertusvie/bcr-ebilld/notify"
	"github.com/urfave/cli"
)

var runCommand = cli.Command{
	Name:  "run",
	Usage: "start the bill engine daemon",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "configfile"},
		cli.StringFlag{Name: "datadir"},
		cli.StringFlag{Name: "loglevel"},
		cli.StringFlag{Name: "network"},
		cli.StringFlag{Name: "esplora.url"},
		cli.IntFlag{Name: "sweepinterval"},
	},
	Action: runDaemon,
}

// runDaemon wires every package's concrete implementation into a
// billservice.Service and drives the periodic sweep (payment reconciliation
// and timeout checking) until the process is killed.
func runDaemon(c *cli.Context) error {
	cfg, err := config.Load(flagArgs(c))
	if err != nil {
		return fmt.Errorf("ebilld: load config: %w", err)
	}

	if err := initLogging(cfg.LogLevel); err != nil {
		return err
	}
	log.Infof("ebilld: starting, datadir=%s network=%s", cfg.DataDir, cfg.Network)

	net, err := netParams(cfg.Network)
	if err != nil {
		return err
	}

	db, err := boltstore.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("ebilld: open store: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := ensureIdentity(ctx, db, "ebilld node", ""); err != nil {
		return err
	}

	oracle := btcoracle.NewEsploraOracle(
		cfg.EsploraURL, cfg.ExplorerURL, net, time.Duration(cfg.EsploraTimeout)*time.Second,
	)

	svc := billservice.New(billservice.Config{
		Chains:                  db,
		Keys:                    db,
		Identities:              db,
		IdentityKeys:            db,
		Companies:               db,
		CompanyKeys:             db,
		Notified:                db,
		Paid:                    db,
		Contacts:                db,
		Oracle:                  oracle,
		Sink:                    notify.NewLogSink(),
		AcceptDeadlineSeconds:   cfg.AcceptDeadlineSeconds,
		PaymentDeadlineSeconds:  cfg.PaymentDeadlineSeconds,
		RecourseDeadlineSeconds: cfg.RecourseDeadlineSeconds,
	})

	interval := time.Duration(cfg.SweepIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Infof("ebilld: sweeping every %s", interval)
	for range ticker.C {
		sweep(ctx, svc)
	}
	return nil
}

// sweep runs one round of payment reconciliation and timeout checking,
// logging but not aborting on either's error so a single bad bill never
// stalls the rest of the sweep.
func sweep(ctx context.Context, svc *billservice.Service) {
	if err := svc.ReconcilePayments(ctx); err != nil {
		log.Errorf("ebilld: reconcile payments: %v", err)
	}
	if err := svc.CheckBillTimeouts(ctx); err != nil {
		log.Errorf("ebilld: check timeouts: %v", err)
	}
}

// flagArgs reassembles whichever of run's flags the caller actually passed
// into an args slice config.Load can reparse, so one config.Load call
// handles both the config file and the command line.
func flagArgs(c *cli.Context) []string {
	var args []string
	addString := func(name string) {
		if c.IsSet(name) {
			args = append(args, fmt.Sprintf("--%s=%s", name, c.String(name)))
		}
	}
	addInt := func(name string) {
		if c.IsSet(name) {
			args = append(args, fmt.Sprintf("--%s=%d", name, c.Int(name)))
		}
	}
	addString("configfile")
	addString("datadir")
	addString("loglevel")
	addString("network")
	addString("esplora.url")
	addInt("sweepinterval")
	return args
}
