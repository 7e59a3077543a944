// Command diffplan loads a rule file, compiles its named rules against a
// catalog (in-memory or Badger-backed), drives the reference dataflow
// runtime, and renders the result of each rule as a table.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/wbrown/diffplan/carrier"
	"github.com/wbrown/diffplan/catalog"
	"github.com/wbrown/diffplan/catalog/badgercatalog"
	"github.com/wbrown/diffplan/catalog/memcatalog"
	"github.com/wbrown/diffplan/dataflow"
	"github.com/wbrown/diffplan/dataflow/memdataflow"
	"github.com/wbrown/diffplan/ident"
	"github.com/wbrown/diffplan/plan"
	"github.com/wbrown/diffplan/rules"
	"github.com/wbrown/diffplan/trace"
)

// fileConfig is the shape of an optional -config YAML file. Flags passed
// on the command line always win; a field left zero-valued here just
// falls through to the flag's own default.
type fileConfig struct {
	DB    string `yaml:"db"`
	Fuel  int    `yaml:"fuel"`
	Rules string `yaml:"rules"`
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

func main() {
	var rulesPath string
	var dbPath string
	var ruleName string
	var verbose bool
	var fuel int
	var configPath string

	flag.StringVar(&rulesPath, "rules", "", "path to an EDN rule file")
	flag.StringVar(&dbPath, "db", "", "Badger database path (omit for an in-memory catalog)")
	flag.StringVar(&ruleName, "rule", "", "run a single named rule and exit (default: run every rule)")
	flag.BoolVar(&verbose, "verbose", false, "trace compilation decisions (join mode, NameExpr resolution)")
	flag.IntVar(&fuel, "fuel", 0, "fuel budget per Drive() activation (default: memdataflow.DefaultFuelPerActivation)")
	flag.StringVar(&configPath, "config", "", "optional YAML file providing defaults for -rules/-db/-fuel")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -rules rules.edn [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Compiles and runs the rules in a rule file against a catalog.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	fc, err := loadFileConfig(configPath)
	if err != nil {
		log.Fatalf("diffplan: %v", err)
	}
	if rulesPath == "" {
		rulesPath = fc.Rules
	}
	if dbPath == "" {
		dbPath = fc.DB
	}
	if fuel == 0 {
		fuel = fc.Fuel
	}
	if fuel == 0 {
		fuel = memdataflow.DefaultFuelPerActivation
	}

	if rulesPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	src, err := os.ReadFile(rulesPath)
	if err != nil {
		log.Fatalf("diffplan: reading %s: %v", rulesPath, err)
	}

	gen := ident.NewVarGen()
	interner := ident.NewInterner()
	reg, err := rules.Load(string(src), gen, interner)
	if err != nil {
		log.Fatalf("diffplan: %v", err)
	}

	cat, closeFn := openCatalog(dbPath)
	if closeFn != nil {
		defer closeFn()
	}
	reg.Populate(cat)

	var tr *trace.Collector
	if verbose {
		tr = trace.NewCollector(nil)
	}

	names := reg.Names()
	if ruleName != "" {
		names = []string{ruleName}
	}

	rt := memdataflow.NewRuntime(memdataflow.RuntimeOptions{FuelPerActivation: fuel})

	for _, name := range names {
		p, ok := reg.Rule(name)
		if !ok {
			log.Fatalf("diffplan: unknown rule %q", name)
		}
		if err := runRule(rt, cat, name, p, tr, fuel); err != nil {
			log.Printf("diffplan: rule %s: %v", name, err)
		}
	}

	if verbose && tr != nil {
		printTrace(tr)
	}
}

// catalogCtx is the subset of catalog.Context plus the AddRule population
// hook both memcatalog.Catalog and badgercatalog.Catalog implement.
type catalogCtx interface {
	catalog.Context
	AddRule(name string, def catalog.RuleDef, underconstrained bool)
}

func openCatalog(dbPath string) (catalogCtx, func()) {
	if dbPath == "" {
		return memcatalog.New(), nil
	}
	cat, err := badgercatalog.Open(dbPath)
	if err != nil {
		log.Fatalf("diffplan: opening badger catalog at %s: %v", dbPath, err)
	}
	return cat, func() { _ = cat.Close() }
}

func runRule(rt *memdataflow.Runtime, cat catalog.Context, name string, p plan.Plan, tr *trace.Collector, fuel int) error {
	outer := rt.NewScope()
	scope := outer.NewIterative(name)

	impl, sh, err := p.Implement(scope, nil, cat, tr)
	if err != nil {
		return err
	}
	defer sh.Press()

	for rt.Drive(fuel) {
	}

	renderResult(name, impl)
	return nil
}

func renderResult(name string, impl carrier.Implemented) {
	color.New(color.FgCyan, color.Bold).Printf("%s\n", name)

	vars := impl.Variables()
	headers := make([]string, len(vars))
	for i, v := range vars {
		headers[i] = v.String()
	}

	rows := rowsOf(impl)

	var b strings.Builder
	table := tablewriter.NewTable(&b)
	table.Header(headers)
	for _, r := range rows {
		cells := make([]string, len(r.Row))
		for i, v := range r.Row {
			cells[i] = v.String()
		}
		table.Append(cells)
	}
	table.Render()
	fmt.Print(b.String())
	fmt.Printf("%s\n\n", color.YellowString("%d rows", len(rows)))
}

// rowsOf materializes impl's tuples if it's already a concrete collection.
// An unmaterialized AttributeBinding has nothing to display: the CLI's
// summary view has no consumer-side demand to drive materialization, so it
// just reports zero rows rather than eagerly importing a trace it may
// never otherwise need.
func rowsOf(impl carrier.Implemented) []dataflow.Update {
	rel, ok := impl.(carrier.CollectionRelation)
	if !ok {
		return nil
	}
	return rel.Tuples.Updates()
}

func printTrace(tr *trace.Collector) {
	color.New(color.Faint).Println("--- trace ---")
	for _, ev := range tr.Events() {
		fmt.Printf("%s %v\n", ev.Name, ev.Data)
	}
}
