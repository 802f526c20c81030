package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"

	"stockflow/internal/services"
)

type importCmd struct {
	mode string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import records from a CSV or JSON file" }
func (*importCmd) Usage() string {
	return `stockflowctl import [-mode replace|merge] <file>

  Imports a CSV table or a JSON file. JSON may be an array of records or
  {"mode": ..., "records": [...]}. Use - to read CSV from stdin.
  Without -mode, replace is used unless the JSON payload names a mode.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.mode, "mode", "", "Import mode (replace, merge).")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError("import takes exactly one file")
	}
	if _, err := services.ParseImportMode(c.mode); err != nil {
		return usageError("%v", err)
	}
	path := f.Arg(0)

	var in io.Reader = os.Stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		defer file.Close()
		in = file
	}

	return withSession(ctx, func(s *session) error {
		var (
			res services.ImportResult
			err error
		)
		if strings.EqualFold(filepath.Ext(path), ".json") {
			var payload services.ImportPayload
			if payload, err = decodeImportJSON(in); err != nil {
				return err
			}
			if c.mode != "" {
				payload.Mode = c.mode
			}
			res, err = s.svc.Import(ctx, payload)
		} else {
			res, err = s.svc.ImportCSV(ctx, in, c.mode)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Imported %d records (%s), rejected %d\n", res.Imported, res.Mode, res.Rejected)
		return nil
	})
}

// decodeImportJSON accepts a bare array or an import payload object.
func decodeImportJSON(r io.Reader) (services.ImportPayload, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return services.ImportPayload{}, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []any
		if err := dec.Decode(&records); err != nil {
			return services.ImportPayload{}, fmt.Errorf("decode records: %w", err)
		}
		return services.ImportPayload{Records: records}, nil
	}

	var payload services.ImportPayload
	if err := dec.Decode(&payload); err != nil {
		return services.ImportPayload{}, fmt.Errorf("decode payload: %w", err)
	}
	return payload, nil
}

type exportCmd struct {
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export all records as CSV" }
func (*exportCmd) Usage() string {
	return `stockflowctl export [-o <file>]

  Writes the CSV table to stdout, or to -o.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output file (default stdout).")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withSession(ctx, func(s *session) error {
		if c.output == "" {
			return s.svc.ExportCSV(ctx, stdout)
		}
		var buf bytes.Buffer
		if err := s.svc.ExportCSV(ctx, &buf); err != nil {
			return err
		}
		if err := os.WriteFile(c.output, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("write %s: %w", c.output, err)
		}
		fmt.Fprintf(stderr, "Exported to %s\n", c.output)
		return nil
	})
}
