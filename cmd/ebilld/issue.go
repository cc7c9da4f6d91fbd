package main

import (
	"context"
	"fmt"

	"github.com/hubertusvie/bcr-ebilld/billservice"
	"github.com/hubertusvie/bcr-ebilld/blockchain/bill"
	"github.com/hubertusvie/bcr-ebilld/boltstore"
	"github.com/hubertusvie/bcr-ebilld/clock"
	"github.com/hubertusvie/bcr-ebilld/config"
	"github.com/hubertusvie/bcr-ebilld/ecies"
	"github.com/hubertusvie/bcr-ebilld/keys"
	"github.com/hubertusvie/bcr-ebilld/notify"
	"github.com/urfave/cli"
)

var issueCommand = cli.Command{
	Name:      "issue",
	Usage:     "issue a new bill from the local node",
	ArgsUsage: "",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "datadir"},
		cli.StringFlag{Name: "drawee", Usage: "node id (hex pubkey) of the drawee"},
		cli.StringFlag{Name: "payee", Usage: "node id (hex pubkey) of the payee"},
		cli.Uint64Flag{Name: "sum"},
		cli.StringFlag{Name: "currency", Value: "SAT"},
		cli.StringFlag{Name: "maturitydate"},
		cli.StringFlag{Name: "issuedate"},
		cli.StringFlag{Name: "countryofissuing", Value: "DE"},
		cli.StringFlag{Name: "cityofissuing"},
		cli.StringFlag{Name: "countryofpayment", Value: "DE"},
		cli.StringFlag{Name: "cityofpayment"},
		cli.StringFlag{Name: "language", Value: "en"},
	},
	Action: issueBill,
}

// issueBill is a minimal local CLI path to draw a bill without going through
// the transport layer: it draws the local node as drawer, builds the bill
// from the flags given, and prints the resulting bill id.
func issueBill(c *cli.Context) error {
	var args []string
	if c.IsSet("datadir") {
		args = append(args, fmt.Sprintf("--datadir=%s", c.String("datadir")))
	}
	cfg, err := config.Load(args)
	if err != nil {
		return fmt.Errorf("ebilld: load config: %w", err)
	}
	if err := initLogging(cfg.LogLevel); err != nil {
		return err
	}

	db, err := boltstore.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("ebilld: open store: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	ownerKeys, err := ensureIdentity(ctx, db, "ebilld node", "")
	if err != nil {
		return err
	}
	drawer := bill.Participant{Type: bill.ParticipantPerson, NodeID: ownerKeys.PublicKeyHex()}

	drawee := c.String("drawee")
	payee := c.String("payee")
	if drawee == "" || payee == "" {
		return fmt.Errorf("ebilld: --drawee and --payee are required")
	}

	billKeys, err := keys.Generate()
	if err != nil {
		return fmt.Errorf("ebilld: generate bill key: %w", err)
	}
	billID := ecies.Sha256Base58(billKeys.PublicKey().SerializeCompressed())

	b := bill.Bill{
		ID:               billID,
		CountryOfIssuing: c.String("countryofissuing"),
		CityOfIssuing:    c.String("cityofissuing"),
		Drawee:           bill.Participant{Type: bill.ParticipantPerson, NodeID: drawee},
		Drawer:           drawer,
		Payee:            bill.Participant{Type: bill.ParticipantPerson, NodeID: payee},
		Currency:         c.String("currency"),
		Sum:              c.Uint64("sum"),
		MaturityDate:     c.String("maturitydate"),
		IssueDate:        c.String("issuedate"),
		CountryOfPayment: c.String("countryofpayment"),
		CityOfPayment:    c.String("cityofpayment"),
		Language:         c.String("language"),
	}

	svc := billservice.New(billservice.Config{
		Chains:       db,
		Keys:         db,
		Identities:   db,
		IdentityKeys: db,
		Companies:    db,
		CompanyKeys:  db,
		Notified:     db,
		Paid:         db,
		Contacts:     db,
		Sink:         notify.NewLogSink(),
		Clock:        clock.Default{},
	})

	result, err := svc.IssueBill(ctx, billservice.IssueParams{
		Bill: b,
		By:   billservice.Signer{Person: drawer},
		Keys: billKeys,
	})
	if err != nil {
		return fmt.Errorf("ebilld: issue bill: %w", err)
	}

	fmt.Printf("issued bill %s (holder=%s)\n", result.Bill.ID, result.Holder.NodeID)
	return nil
}
