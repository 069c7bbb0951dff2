// Command boxfit picks boxes and writes packing sheets from the command line.
//
// Reads a product list (CSV or Excel), picks the smallest catalog box that
// holds every product and writes the placement sequence as a PDF packing
// sheet, QR labels, an Excel workbook or a DXF wireframe.
//
// Build:
//   go build -o boxfit ./cmd/boxfit
//
// Examples:
//   boxfit pack -products order.csv -pdf order.pdf -labels labels.pdf
//   boxfit compare -products order.csv -box 40x30x20 -chart compare.html
//   boxfit catalog generate -count 500

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

var errUsage = errors.New("usage")

const usage = `Usage: boxfit <command> [flags]

Commands:
  pack      pick the smallest box for a product list and export the result
  compare   run every packing strategy against one box
  catalog   generate, import or merge the box catalog
  backup    write config, catalog and run history to one JSON file
  restore   restore config, catalog and run history from a backup file

Run "boxfit <command> -h" for command flags.
`

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(os.Args[1:], os.Stdout, logger); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "boxfit:", err)
		}
		os.Exit(1)
	}
}

func run(args []string, out io.Writer, logger *slog.Logger) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errUsage
	}
	switch args[0] {
	case "pack":
		return runPack(args[1:], out, logger)
	case "compare":
		return runCompare(args[1:], out, logger)
	case "catalog":
		return runCatalog(args[1:], out, logger)
	case "backup":
		return runBackup(args[1:], out, logger)
	case "restore":
		return runRestore(args[1:], out, logger)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		fmt.Fprintf(out, "unknown command %q\n\n%s", args[0], usage)
		return errUsage
	}
}
