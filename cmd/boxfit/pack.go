package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"

	"github.com/piwi3910/BoxFit/internal/engine"
	"github.com/piwi3910/BoxFit/internal/export"
	"github.com/piwi3910/BoxFit/internal/model"
	"github.com/piwi3910/BoxFit/internal/project"
	"github.com/piwi3910/BoxFit/internal/session"
)

// fixedPacker picks the smallest box a single strategy can fill validly.
type fixedPacker struct {
	name string
	pack func(products []model.Product, box model.Box) ([]model.PlacedItem, error)
}

func (p fixedPacker) ChooseBox(boxes []model.Box, products []model.Product) (model.Selection, error) {
	if len(products) == 0 {
		return model.Selection{}, engine.ErrNoProducts
	}
	sorted := append([]model.Box(nil), boxes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Volume() < sorted[j].Volume() })

	for _, box := range sorted {
		items, err := p.pack(products, box)
		if err != nil {
			continue
		}
		if engine.Validate(box, products, items) != nil {
			continue
		}
		return model.Selection{Box: box, Items: items, Strategy: p.name}, nil
	}
	return model.Selection{}, engine.ErrNoFit
}

func packerFor(strategy string, cfg model.AppConfig) (session.Packer, error) {
	switch strategy {
	case "", "auto":
		return engine.NewSelector(engine.OptionsFromConfig(cfg)), nil
	case engine.StrategyGreedy:
		return fixedPacker{name: engine.StrategyGreedy, pack: engine.PackGreedy}, nil
	case engine.StrategyShelf:
		return fixedPacker{name: engine.StrategyShelf, pack: engine.PackShelf}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (want auto, greedy or shelf)", strategy)
	}
}

func runPack(args []string, out io.Writer, logger *slog.Logger) error {
	fs := flag.NewFlagSet("pack", flag.ContinueOnError)
	fs.SetOutput(out)
	productsPath := fs.String("products", "", "product list (CSV or Excel)")
	boxesPath := fs.String("boxes", "", "box list (CSV or Excel); defaults to the catalog file")
	catalogPath := fs.String("catalog", project.DefaultCatalogPath(), "catalog JSON file")
	configPath := fs.String("config", project.DefaultConfigPath(), "config JSON file")
	strategy := fs.String("strategy", "auto", "auto, greedy or shelf")
	seed := fs.Int64("seed", 0, "random seed (0 keeps the configured seed)")
	pdfPath := fs.String("pdf", "", "write a PDF packing sheet")
	labelsPath := fs.String("labels", "", "write QR placement labels (PDF)")
	xlsxPath := fs.String("xlsx", "", "write the placement sequence as an Excel workbook")
	dxfPath := fs.String("dxf", "", "write a 3D DXF wireframe")
	quiet := fs.Bool("q", false, "print the summary only")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return errUsage
	}
	if *productsPath == "" {
		return errors.New("pack: -products is required")
	}

	stored, cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	products, err := readProducts(*productsPath, logger)
	if err != nil {
		return err
	}
	boxes, err := boxCatalog(*boxesPath, *catalogPath, logger)
	if err != nil {
		return err
	}
	packer, err := packerFor(*strategy, cfg)
	if err != nil {
		return err
	}

	sess := session.New(packer, session.WithTimeout(cfg.Timeout()), session.WithLogger(logger))
	sess.SetBoxes(boxes)
	sess.AddProducts(products...)
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	if err := sess.SetSelection(ids); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	sel, err := sess.Pack(ctx)
	switch {
	case errors.Is(err, engine.ErrNoFit):
		return errors.New(session.NoFitMessage)
	case errors.Is(err, session.ErrTimeout):
		return errors.New(session.TimeoutMessage)
	case err != nil:
		return err
	case sel == nil:
		return errors.New("nothing to pack")
	}

	printSelection(out, *sel, products, *quiet)

	exports := []struct {
		path  string
		write func(string) error
	}{
		{*pdfPath, func(p string) error { return export.ExportPDF(p, *sel, products) }},
		{*labelsPath, func(p string) error { return export.ExportLabels(p, *sel, products) }},
		{*xlsxPath, func(p string) error { return export.ExportXLSX(p, *sel, products) }},
		{*dxfPath, func(p string) error { return export.ExportDXF(p, *sel) }},
	}
	for _, e := range exports {
		if e.path == "" {
			continue
		}
		if err := e.write(e.path); err != nil {
			return fmt.Errorf("export %s: %w", e.path, err)
		}
		fmt.Fprintf(out, "wrote %s\n", e.path)
	}

	stored = project.RememberInput(stored, *productsPath)
	if err := project.SaveAppConfig(*configPath, stored); err != nil {
		logger.Warn("save config", "path", *configPath, "error", err)
	}
	return nil
}

func printSelection(out io.Writer, sel model.Selection, products []model.Product, quiet bool) {
	layers := sel.Layers()
	label := sel.Box.Label
	if label == "" {
		label = sel.Box.ID
	}
	fmt.Fprintf(out, "Box:        %s (%g x %g x %g cm)\n", label, sel.Box.Width, sel.Box.Depth, sel.Box.Height)
	fmt.Fprintf(out, "Strategy:   %s\n", sel.Strategy)
	fmt.Fprintf(out, "Items:      %d in %d layers\n", len(sel.Items), len(layers))
	fmt.Fprintf(out, "Efficiency: %.1f%%\n", sel.Efficiency())
	if quiet {
		return
	}

	names := make(map[string]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}
	layerOf := make(map[int]int, len(sel.Items))
	for l, idx := range layers {
		for _, i := range idx {
			layerOf[i] = l + 1
		}
	}

	fmt.Fprintln(out)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tLAYER\tPRODUCT\tX\tY\tZ\tW x D x H")
	for i, it := range sel.Items {
		name, ok := names[it.ProductID]
		if !ok {
			name = "Unknown"
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%g\t%g\t%g\t%g x %g x %g\n",
			i+1, layerOf[i], name, it.X, it.Y, it.Z, it.Size.W, it.Size.D, it.Size.H)
	}
	tw.Flush()
}
