package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/piwi3910/BoxFit/internal/engine"
	"github.com/piwi3910/BoxFit/internal/export"
	"github.com/piwi3910/BoxFit/internal/model"
	"github.com/piwi3910/BoxFit/internal/project"
)

func runCompare(args []string, out io.Writer, logger *slog.Logger) error {
	fs := flag.NewFlagSet("compare", flag.ContinueOnError)
	fs.SetOutput(out)
	productsPath := fs.String("products", "", "product list (CSV or Excel)")
	boxSize := fs.String("box", "", "box size as WxDxH in cm")
	boxID := fs.String("box-id", "", "catalog box ID (used when -box is empty)")
	boxesPath := fs.String("boxes", "", "box list to look -box-id up in; defaults to the catalog file")
	catalogPath := fs.String("catalog", project.DefaultCatalogPath(), "catalog JSON file")
	seed := fs.Int64("seed", 0, "random seed for the shuffled strategy (0 draws one)")
	chartPath := fs.String("chart", "", "write an HTML comparison chart")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return errUsage
	}
	if *productsPath == "" {
		return errors.New("compare: -products is required")
	}

	var box model.Box
	switch {
	case *boxSize != "":
		w, d, h, err := parseDims(*boxSize)
		if err != nil {
			return err
		}
		box = model.NewBox(*boxSize, w, d, h)
	case *boxID != "":
		boxes, err := boxCatalog(*boxesPath, *catalogPath, logger)
		if err != nil {
			return err
		}
		found := false
		for _, b := range boxes {
			if b.ID == *boxID {
				box, found = b, true
				break
			}
		}
		if !found {
			return fmt.Errorf("box %q not found", *boxID)
		}
	default:
		return errors.New("compare: -box or -box-id is required")
	}

	products, err := readProducts(*productsPath, logger)
	if err != nil {
		return err
	}

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	results := engine.CompareStrategies(products, box, s)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STRATEGY\tOK\tITEMS\tLAYERS\tHEIGHT\tFLOOR %\tVOLUME %\tERROR")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%t\t%d\t%d\t%g\t%.1f\t%.1f\t%s\n",
			r.Name, r.OK, len(r.Items), r.Layers, r.UsedHeight, r.FloorCoverage, r.VolumeUtil, r.Err)
	}
	tw.Flush()

	if *chartPath != "" {
		if err := export.ExportComparisonChart(*chartPath, box, results); err != nil {
			return fmt.Errorf("export %s: %w", *chartPath, err)
		}
		fmt.Fprintf(out, "wrote %s\n", *chartPath)
	}
	return nil
}
