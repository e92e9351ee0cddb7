// Package main provides the vigil command line tool: run a smoke session
// against the target site, report collected anomalies, and inspect the
// learned selector database and classification rules.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/entrhq/vigil/pkg/anomaly"
	"github.com/entrhq/vigil/pkg/browser"
	"github.com/entrhq/vigil/pkg/config"
	"github.com/entrhq/vigil/pkg/selectordb"
	"github.com/entrhq/vigil/pkg/session"
)

const version = "0.1.0"

type cliConfig struct {
	ConfigPath  string
	Path        string
	Headless    bool
	Screenshot  string
	ShowDB      bool
	ShowRules   bool
	ShowVersion bool
}

func parseFlags() cliConfig {
	var c cliConfig
	flag.StringVar(&c.ConfigPath, "config", "vigil.yaml", "Path to the configuration file")
	flag.StringVar(&c.Path, "path", "/", "Path or URL to open for the smoke session")
	flag.BoolVar(&c.Headless, "headless", true, "Run the browser headless")
	flag.StringVar(&c.Screenshot, "screenshot", "", "Capture a screenshot to this file at the end of the run")
	flag.BoolVar(&c.ShowDB, "show-db", false, "Print selector database statistics and exit")
	flag.BoolVar(&c.ShowRules, "show-rules", false, "Print the classification rule registry and exit")
	flag.BoolVar(&c.ShowVersion, "version", false, "Print version and exit")
	flag.Parse()
	return c
}

func main() {
	cli := parseFlags()

	if cli.ShowVersion {
		fmt.Printf("vigil v%s\n", version)
		return
	}

	cfg, err := config.Load(cli.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg.Headless = cli.Headless

	if cli.ShowDB {
		if err := showDatabase(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if cli.ShowRules {
		if err := showRules(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runSmoke(cfg, cli); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runSmoke opens one browser session, loads the target page, samples
// performance, and reports classified anomalies. Exits non-zero when any
// test-blocking error was collected.
func runSmoke(cfg config.Config, cli cliConfig) error {
	manager := browser.NewSessionManager()
	if err := manager.Initialize(); err != nil {
		return err
	}
	defer manager.Shutdown()

	bs, err := manager.StartSession("smoke", browser.SessionOptions{
		Headless: cfg.Headless,
		SlowMo:   cfg.SlowMo,
	})
	if err != nil {
		return err
	}

	sess, err := session.New(bs.Page(), cfg)
	if err != nil {
		return err
	}

	if err := sess.Navigate(cli.Path); err != nil {
		return err
	}

	if cfg.AnomalyDetection {
		if _, err := sess.CollectPerformance(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: performance collection failed: %v\n", err)
		}
	}

	if cli.Screenshot != "" {
		if err := sess.Screenshot(cli.Screenshot); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: screenshot failed: %v\n", err)
		}
	}

	blocking := sess.TestBlockingErrors()
	printRunReport(sess.Anomalies(), sess.CriticalAnomalies(), blocking)

	if cfg.AnomalyDetection {
		if path, err := sess.WriteReport(); err == nil {
			fmt.Printf("\nFull report: %s\n", path)
		} else {
			fmt.Fprintf(os.Stderr, "Warning: report write failed: %v\n", err)
		}
	}

	if len(blocking) > 0 {
		os.Exit(1)
	}
	return nil
}

func showDatabase(cfg config.Config) error {
	store, err := selectordb.Open(cfg.SelectorDBPath)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("Selector database: " + store.Path()))
	for _, name := range store.Intents() {
		rec, _ := store.Get(name)
		fmt.Println(intentStyle.Render(name))
		for _, c := range rec.Candidates {
			fmt.Printf("  %s  %s\n",
				strategyStyle.Render(fmt.Sprintf("[%s x%d]", c.Strategy, c.Successes)), c.Expr)
		}
	}
	fmt.Printf("\n%d intents\n", store.Len())
	return nil
}

func showRules(cfg config.Config) error {
	registry := anomaly.DefaultRegistry()
	if cfg.RulesPath != "" {
		r, err := anomaly.LoadRegistry(cfg.RulesPath)
		if err != nil {
			return err
		}
		registry = r
	}

	fmt.Println(titleStyle.Render("Classification rules (first match wins)"))
	for i, rule := range registry.Rules() {
		flag := nonBlockingStyle.Render("allow")
		if rule.Blocking {
			flag = blockingStyle.Render("block")
		}
		fmt.Printf("%2d. %s %-24s %-8s %q -> %s\n", i+1, flag, rule.Name, rule.Mode, rule.Pattern, rule.Category)
	}
	return nil
}
