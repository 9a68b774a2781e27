package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log/level"

	"github.com/gralok/postingcore/pkg/document"
)

type validateArgs struct {
	schemaPath string
	docsPath   string
}

// addValidateCommand registers `postingctl validate --schema=<path>
// <docs.jsonl>`: runs DocumentValidator over every line without building
// an index, reporting per-line coercion/rejection outcomes.
func addValidateCommand(app *kingpin.Application, cfg *config) {
	va := &validateArgs{}
	cmd := app.Command("validate", "Validate a newline-delimited JSON document file against a schema, without indexing it.")
	cmd.Flag("schema", "Path to the collection's schema JSON file.").Required().StringVar(&va.schemaPath)
	cmd.Arg("docs", "Path to the newline-delimited JSON document file.").Required().StringVar(&va.docsPath)

	cmd.Action(func(_ *kingpin.ParseContext) error {
		rt, err := newRuntime(cfg)
		if err != nil {
			return err
		}
		return runValidate(cfg, va, rt)
	})
}

func runValidate(cfg *config, va *validateArgs, rt *runtime) error {
	policy, err := parsePolicy(cfg.policy)
	if err != nil {
		return err
	}
	sch, err := loadSchemaFile(va.schemaPath)
	if err != nil {
		return err
	}

	f, err := os.Open(va.docsPath)
	if err != nil {
		return fmt.Errorf("opening docs file %q: %w", va.docsPath, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo, ok, failed := 0, 0, 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		doc, err := document.ParseJSON([]byte(line))
		if err == nil {
			doc, err = document.Validate(doc, sch, document.Create, policy)
		}
		if err != nil {
			failed++
			level.Warn(rt.logger).Log("msg", "document failed validation", "line", lineNo, "err", err)
			continue
		}
		ok++
		fmt.Println(mustMarshalLine(doc))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading docs file %q: %w", va.docsPath, err)
	}
	fmt.Printf("# %d ok, %d failed\n", ok, failed)
	return nil
}
