// Command schema writes the JSON schema for the configuration file,
// regenerated via go:generate in pkg/config.
package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/intelscout/intelscout/pkg/config"
)

func main() {
	out := "schema.json"
	if len(os.Args) > 1 {
		out = os.Args[1]
	}

	data, err := json.MarshalIndent(config.GenerateSchema(), "", "  ")
	if err != nil {
		log.Fatalf("marshal schema: %v", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(out, data, 0o600); err != nil {
		log.Fatalf("write %s: %v", out, err)
	}
	log.Printf("schema written to %s", out)
}
