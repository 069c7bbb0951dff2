package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/piwi3910/BoxFit/internal/project"
	"github.com/piwi3910/BoxFit/internal/store"
)

const catalogUsage = `Usage: boxfit catalog <generate|import|merge> [flags]

  generate  write a generated box catalog (and optional demo products)
  import    add boxes and products from CSV or Excel files
  merge     merge another catalog JSON file, skipping known IDs
`

func runCatalog(args []string, out io.Writer, logger *slog.Logger) error {
	if len(args) == 0 {
		fmt.Fprint(out, catalogUsage)
		return errUsage
	}
	switch args[0] {
	case "generate":
		return runCatalogGenerate(args[1:], out)
	case "import":
		return runCatalogImport(args[1:], out, logger)
	case "merge":
		return runCatalogMerge(args[1:], out)
	default:
		fmt.Fprintf(out, "unknown catalog command %q\n\n%s", args[0], catalogUsage)
		return errUsage
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (bool, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return false, nil
		}
		return false, errUsage
	}
	return true, nil
}

func runCatalogGenerate(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("catalog generate", flag.ContinueOnError)
	fs.SetOutput(out)
	count := fs.Int("count", project.DefaultCatalogSize, "number of boxes")
	demo := fs.Int("products", 0, "number of demo products to add")
	seed := fs.Int64("seed", 0, "random seed for demo products (0 draws one)")
	path := fs.String("out", project.DefaultCatalogPath(), "catalog JSON file to write")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}
	if *count < 0 || *demo < 0 {
		return errors.New("catalog generate: counts must not be negative")
	}

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	c := project.Catalog{
		Boxes:    project.GenerateBoxCatalog(*count),
		Products: project.RandomProducts(rand.New(rand.NewSource(s)), *demo),
	}
	if err := project.SaveCatalog(*path, c); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %d boxes and %d products to %s\n", len(c.Boxes), len(c.Products), *path)
	return nil
}

func runCatalogImport(args []string, out io.Writer, logger *slog.Logger) error {
	fs := flag.NewFlagSet("catalog import", flag.ContinueOnError)
	fs.SetOutput(out)
	boxesPath := fs.String("boxes", "", "box list (CSV or Excel)")
	productsPath := fs.String("products", "", "product list (CSV or Excel)")
	path := fs.String("catalog", project.DefaultCatalogPath(), "catalog JSON file")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}
	if *boxesPath == "" && *productsPath == "" {
		return errors.New("catalog import: -boxes or -products is required")
	}

	var imported project.Catalog
	if *boxesPath != "" {
		boxes, err := readBoxes(*boxesPath, logger)
		if err != nil {
			return err
		}
		imported.Boxes = boxes
	}
	if *productsPath != "" {
		products, err := readProducts(*productsPath, logger)
		if err != nil {
			return err
		}
		imported.Products = products
	}
	return mergeInto(*path, imported, out)
}

func runCatalogMerge(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("catalog merge", flag.ContinueOnError)
	fs.SetOutput(out)
	in := fs.String("in", "", "catalog JSON file to merge")
	path := fs.String("catalog", project.DefaultCatalogPath(), "catalog JSON file")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}
	if *in == "" {
		return errors.New("catalog merge: -in is required")
	}

	existing, err := project.LoadCatalog(*path)
	if err != nil {
		return err
	}
	merged, err := project.ImportCatalog(*in, existing)
	if err != nil {
		return err
	}
	return save(*path, existing, merged, out)
}

func mergeInto(path string, imported project.Catalog, out io.Writer) error {
	existing, err := project.LoadCatalog(path)
	if err != nil {
		return err
	}
	return save(path, existing, project.MergeCatalog(existing, imported), out)
}

func save(path string, before, after project.Catalog, out io.Writer) error {
	if err := project.SaveCatalog(path, after); err != nil {
		return err
	}
	fmt.Fprintf(out, "added %d boxes and %d products to %s\n",
		len(after.Boxes)-len(before.Boxes), len(after.Products)-len(before.Products), path)
	return nil
}

func runBackup(args []string, out io.Writer, logger *slog.Logger) error {
	fs := flag.NewFlagSet("backup", flag.ContinueOnError)
	fs.SetOutput(out)
	path := fs.String("out", "", "backup file to write")
	configPath := fs.String("config", project.DefaultConfigPath(), "config JSON file")
	catalogPath := fs.String("catalog", project.DefaultCatalogPath(), "catalog JSON file")
	driver := fs.String("db-driver", store.DriverSQLite, "database driver for -db")
	dsn := fs.String("db", "", "also back up the catalog and runs of this boxfitd database")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}
	if *path == "" {
		return errors.New("backup: -out is required")
	}

	cfg, err := project.LoadAppConfig(*configPath)
	if err != nil {
		return err
	}
	c, err := project.LoadCatalog(*catalogPath)
	if err != nil {
		return err
	}

	var runs []store.Run
	if *dsn != "" {
		ctx := context.Background()
		st, err := openStore(ctx, *driver, *dsn, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		boxes, err := st.ListBoxes(ctx)
		if err != nil {
			return err
		}
		products, err := st.ListProducts(ctx)
		if err != nil {
			return err
		}
		c = project.MergeCatalog(c, project.Catalog{Boxes: boxes, Products: products})
		if runs, err = st.ListRuns(ctx); err != nil {
			return err
		}
	}

	b := project.NewBackup(cfg, c, runs)
	if err := project.WriteBackup(*path, b); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s (%s)\n", *path, b.Summary())
	return nil
}

func runRestore(args []string, out io.Writer, logger *slog.Logger) error {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	fs.SetOutput(out)
	path := fs.String("in", "", "backup file to restore")
	configPath := fs.String("config", project.DefaultConfigPath(), "config JSON file")
	catalogPath := fs.String("catalog", project.DefaultCatalogPath(), "catalog JSON file")
	driver := fs.String("db-driver", store.DriverSQLite, "database driver for -db")
	dsn := fs.String("db", "", "also restore the catalog and runs into this boxfitd database")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}
	if *path == "" {
		return errors.New("restore: -in is required")
	}

	b, err := project.ReadBackup(*path)
	if err != nil {
		return err
	}
	if err := project.SaveAppConfig(*configPath, b.Config); err != nil {
		return err
	}
	if err := project.SaveCatalog(*catalogPath, b.Catalog); err != nil {
		return err
	}
	if *dsn != "" {
		ctx := context.Background()
		st, err := openStore(ctx, *driver, *dsn, logger)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := b.Restore(ctx, st); err != nil {
			return fmt.Errorf("restore into database: %w", err)
		}
	}
	fmt.Fprintf(out, "restored config and %s from %s (created %s)\n",
		b.Summary(), *path, b.CreatedAt.Format(time.RFC3339))
	return nil
}

func openStore(ctx context.Context, driver, dsn string, logger *slog.Logger) (*store.Store, error) {
	st, err := store.Open(driver, dsn, logger)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}
