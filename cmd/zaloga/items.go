package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/erazemk/zaloga/internal/config"
	"github.com/erazemk/zaloga/internal/dashboard"
	"github.com/erazemk/zaloga/internal/device"
	"github.com/erazemk/zaloga/internal/form"
	"github.com/erazemk/zaloga/internal/media"
	"github.com/erazemk/zaloga/internal/store"
)

const addUsage = `Usage: zaloga add [flags]

Flags:
  -n, -name <name>          item name (required)
  -w, -where <location>     where the item is kept (required)
  -k, -category <category>  Food, Medicine, Beauty or Household (default: Food)
  -s, -sub <sub-category>   Pantry, Fridge or Freezer for food (default: Pantry)
  -e, -expiry <YYYY-MM-DD>  expiry date (default: today)
  -p, -photo <path>         location photo file
  -t, -take                 take the location photo with the camera command
`

// addItem runs one add flow from command-line flags.
func addItem(cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stdout, addUsage) }

	var in form.Input
	var photo string
	var take bool
	fs.StringVar(&in.Name, "name", "", "")
	fs.StringVar(&in.Name, "n", "", "")
	fs.StringVar(&in.Location, "where", "", "")
	fs.StringVar(&in.Location, "w", "", "")
	fs.StringVar(&in.Category, "category", "", "")
	fs.StringVar(&in.Category, "k", "", "")
	fs.StringVar(&in.Sub, "sub", "", "")
	fs.StringVar(&in.Sub, "s", "", "")
	fs.StringVar(&in.Expiry, "expiry", "", "")
	fs.StringVar(&in.Expiry, "e", "", "")
	fs.StringVar(&photo, "photo", "", "")
	fs.StringVar(&photo, "p", "", "")
	fs.BoolVar(&take, "take", false, "")
	fs.BoolVar(&take, "t", false, "")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	ctx := context.Background()
	database, err := openDatabase(ctx, cfg, stdout)
	if err != nil {
		return err
	}
	defer database.Close()

	bucket, err := openBucket(cfg, database)
	if err != nil {
		return err
	}
	spool, err := device.NewSpool(os.TempDir())
	if err != nil {
		return err
	}
	defer spool.Close()

	dev := &device.Local{Spool: spool, Path: photo, CameraCmd: cfg.CameraCmd}
	report := form.ReporterFunc(func(n form.Notice) {
		w := stdout
		if n.Level >= form.LevelWarning {
			w = stderr
		}
		fmt.Fprintf(w, "%s: %s\n", n.Title, n.Message)
	})
	c := form.New(store.NewGateway(database), media.NewPipeline(dev, bucket), form.WithReporter(report))

	if err := c.Fill(in); err != nil {
		return err
	}

	switch {
	case take:
		err = c.Capture(ctx, dev, media.Camera)
	case photo != "":
		err = c.Capture(ctx, dev, media.Gallery)
	}
	// A denied or cancelled pick has been reported; the item is saved
	// without a photo.
	if err != nil && !errors.Is(err, media.ErrCancelled) && !errors.Is(err, media.ErrPermissionDenied) {
		return err
	}

	res, err := c.Submit(ctx)
	if err != nil {
		return err
	}

	item := res.Item
	fmt.Fprintf(stdout, "#%d %s, %s, %s, expires %s\n", item.ID, item.Name, item.Category, item.Location, item.ExpiryDate)
	if item.HasPhoto() {
		fmt.Fprintf(stdout, "photo: %s\n", *item.ImageURL)
	}
	return nil
}

// listItems prints the inventory sorted by expiry date.
func listItems(cfg *config.Config, args []string, stdout io.Writer) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	ctx := context.Background()
	database, err := openDatabase(ctx, cfg, stdout)
	if err != nil {
		return err
	}
	defer database.Close()

	p := dashboard.New(store.NewGateway(database))
	if err := p.Activate(ctx); err != nil {
		return fmt.Errorf("listing items: %w", err)
	}
	if p.Empty() {
		fmt.Fprintln(stdout, dashboard.EmptyMessage)
		return nil
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tLOCATION\tEXPIRES\tDAYS\tPHOTO")
	for _, row := range p.Rows() {
		photo := "-"
		if !row.NoPhoto {
			photo = *row.Item.ImageURL
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
			row.Item.ID, row.Item.Name, row.Item.Category, row.Item.Location, row.Item.ExpiryDate, row.DaysLeft, photo)
	}
	return tw.Flush()
}
