// Command schema writes json schema of the selectors file, with --check it only verifies the file is current
package main

import (
	"bytes"
	"encoding/json"
	"os"

	log "github.com/go-pkgz/lgr"
	"github.com/umputun/go-flags"

	"github.com/umputun/loginprobe/app/config"
)

type options struct {
	Output string `short:"o" long:"output" default:"selectors.schema.json" description:"schema file"`
	Check  bool   `long:"check" description:"fail if schema file is outdated"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(2)
	}

	schema := config.GenerateSchema()
	schema.Version = "1.0.0"
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		log.Fatalf("[ERROR] failed to marshal schema, %v", err)
	}
	data = append(data, '\n')

	if opts.Check {
		current, err := os.ReadFile(opts.Output)
		if err != nil {
			log.Fatalf("[ERROR] can't read %s, %v", opts.Output, err)
		}
		if !bytes.Equal(current, data) {
			log.Fatalf("[ERROR] %s is outdated, regenerate it", opts.Output)
		}
		log.Printf("[INFO] %s is up to date", opts.Output)
		return
	}

	if err := os.WriteFile(opts.Output, data, 0o600); err != nil { //nolint:gosec // schema file is not sensitive
		log.Fatalf("[ERROR] failed to write %s, %v", opts.Output, err)
	}
	log.Printf("[INFO] schema written to %s", opts.Output)
}
