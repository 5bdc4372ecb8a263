package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/hanpama/fieldplan/internal/config"
	"github.com/hanpama/fieldplan/internal/fielderr"
	"github.com/hanpama/fieldplan/internal/otel"
	"github.com/hanpama/fieldplan/internal/schema"
	"github.com/hanpama/fieldplan/internal/selection"
	"github.com/hanpama/fieldplan/internal/selector"
)

const rootUsage = `fieldplan: schema-driven field selection tools

USAGE:
  fieldplan <command> [flags]

COMMANDS:
  check            Validate a selection request against a schema
  plan             Print the execution plan for a selection request
  describe         Dump the loaded schema as JSON
  help             Show help for any command
`

const checkUsage = `check FLAGS:
  -schema.root <dir>       Schema document root (default: .)
  -resource <name>         Root resource of the request (required)
  -request <json>          Selection request as JSON
  -request.file <file>     Read the selection request from file
  -request.text <sel>      Selection as GraphQL-style text, e.g. '{ id title }'
  -otel.endpoint <addr>    OTLP collector endpoint
  -otel.service <name>     OpenTelemetry service name (default: fieldplan)
`

const planUsage = `plan FLAGS:
  (same as check)
  -pretty                  Pretty-print the plan JSON
`

const describeUsage = `describe FLAGS:
  -schema.root <dir>       Schema document root (default: .)
  -pretty                  Pretty-print the schema JSON
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("fieldplan", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "check":
		return cmdPlan(cmdArgs, checkUsage, false)
	case "plan":
		return cmdPlan(cmdArgs, planUsage, true)
	case "describe":
		return cmdDescribe(cmdArgs)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "check":
		fmt.Print(checkUsage)
	case "plan":
		fmt.Print(planUsage)
	case "describe":
		fmt.Print(describeUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

func cmdPlan(args []string, usage string, printPlan bool) error {
	schemaRoot := "."
	resource := ""
	requestJSON := ""
	requestFile := ""
	requestText := ""
	pretty := false
	otelEndpoint := ""
	otelService := "fieldplan"

	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaRoot, "schema.root", schemaRoot, "Schema document root")
	fs.StringVar(&resource, "resource", resource, "Root resource of the request")
	fs.StringVar(&requestJSON, "request", requestJSON, "Selection request as JSON")
	fs.StringVar(&requestFile, "request.file", requestFile, "Read the selection request from file")
	fs.StringVar(&requestText, "request.text", requestText, "Selection as GraphQL-style text")
	fs.BoolVar(&pretty, "pretty", pretty, "Pretty-print output")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, usage)
		return err
	}
	if resource == "" {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("-resource is required")
	}

	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	set, err := config.LoadDir(schemaRoot)
	if err != nil {
		return err
	}

	req, err := readRequest(requestJSON, requestFile, requestText)
	if err != nil {
		return err
	}

	plan, ferr := selector.Select(set.Registry, schema.ResourceRef(resource), req, fielderr.Path{resource})
	if ferr != nil {
		data, _ := json.MarshalIndent(ferr, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
		return fmt.Errorf("invalid selection")
	}
	if !printPlan {
		fmt.Println("ok")
		return nil
	}
	return printJSON(plan, pretty)
}

func readRequest(requestJSON, requestFile, requestText string) (selection.Request, error) {
	provided := 0
	for _, v := range []string{requestJSON, requestFile, requestText} {
		if v != "" {
			provided++
		}
	}
	if provided != 1 {
		return nil, fmt.Errorf("provide exactly one of -request, -request.file, -request.text")
	}
	if requestText != "" {
		return selection.ParseString(requestText)
	}
	data := []byte(requestJSON)
	if requestFile != "" {
		var err error
		data, err = os.ReadFile(requestFile)
		if err != nil {
			return nil, fmt.Errorf("read request: %w", err)
		}
	}
	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "[") && !strings.HasPrefix(trimmed, "{") {
		// Allow bare selection text in files as well.
		return selection.ParseString(trimmed)
	}
	var raw any
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return nil, fmt.Errorf("decode request JSON: %w", err)
	}
	return selection.Decode(raw)
}

func cmdDescribe(args []string) error {
	schemaRoot := "."
	pretty := false

	fs := flag.NewFlagSet("describe", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaRoot, "schema.root", schemaRoot, "Schema document root")
	fs.BoolVar(&pretty, "pretty", pretty, "Pretty-print output")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, describeUsage)
		return err
	}

	set, err := config.LoadDir(schemaRoot)
	if err != nil {
		return err
	}
	return printJSON(describeSet(set), pretty)
}

// describeSet renders the loaded schema with external field spellings so
// schema authors can see what clients will send, plus the documents the
// registry was built from.
func describeSet(set *config.RegistrySet) map[string]any {
	resources := make(map[string]any)
	for _, res := range set.Registry.Resources() {
		mapping := res.Mapping()
		fields := make(map[string]any, len(res.Fields))
		for _, f := range res.Fields {
			fields[f.Name] = map[string]any{
				"kind":       string(f.Kind),
				"external":   mapping.External(f.Name),
				"overridden": mapping.HasOverride(f.Name),
				"type":       string(f.Type.Base),
			}
		}
		resources[res.Name] = fields
	}
	aliases := make(map[string]any)
	for _, a := range set.Registry.Aliases() {
		aliases[a.Name] = map[string]any{
			"base":          string(a.Underlying.Base),
			"has_overrides": a.HasOverrides(),
		}
	}
	return map[string]any{
		"documents": set.Paths,
		"resources": resources,
		"aliases":   aliases,
	}
}

func printJSON(v any, pretty bool) error {
	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
