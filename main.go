// Command pingwatch monitors reachability and latency to a set of hosts by
// ICMP echo, one probe per host per round, and shows the result as a live
// terminal dashboard (spec §1).
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	xterm "github.com/charmbracelet/x/term"

	"github.com/bartnv/pingwatch/internal/classifier"
	"github.com/bartnv/pingwatch/internal/config"
	"github.com/bartnv/pingwatch/internal/eventloop"
	"github.com/bartnv/pingwatch/internal/history"
	"github.com/bartnv/pingwatch/internal/htmlreport"
	"github.com/bartnv/pingwatch/internal/privilege"
	"github.com/bartnv/pingwatch/internal/probe"
	"github.com/bartnv/pingwatch/internal/render"
	"github.com/bartnv/pingwatch/internal/render/dashboard"
	"github.com/bartnv/pingwatch/internal/scheduler"
	"github.com/bartnv/pingwatch/internal/scroller"
	"github.com/bartnv/pingwatch/internal/startup"
	"github.com/bartnv/pingwatch/internal/target"
	"github.com/bartnv/pingwatch/internal/targetfile"

	"code.cloudfoundry.org/clock"
)

// Exit codes for fatal startup failures, mirroring original_source/main.c's
// distinct do_exit() reasons (spec §6).
const (
	exitOK              = 0
	exitTargets         = -1
	exitSocket          = -2
	exitPrivilege       = -3
	exitHTMLOutput      = -4
	exitDisplayTooSmall = -5
)

func main() {
	os.Exit(run())
}

func run() int {
	targets, err := targetfile.Load(config.TargetsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pingwatch: loading %s: %v\n", config.TargetsFile, err)
		return exitTargets
	}

	pid := uint16(os.Getpid())

	conns, err := privilege.OpenConns(targets, pid)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pingwatch: %v\n", err)
		return exitSocket
	}

	var htmlPath string
	if len(os.Args) > 1 {
		htmlPath = os.Args[1]
	}

	var htmlReport *htmlreport.Report
	if htmlPath != "" {
		f, err := os.Create(htmlPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pingwatch: opening %s: %v\n", htmlPath, err)
			return exitHTMLOutput
		}
		htmlReport, err = htmlreport.New(f, targets)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pingwatch: writing %s: %v\n", htmlPath, err)
			return exitHTMLOutput
		}
	}

	if err := privilege.Drop(); err != nil {
		fmt.Fprintf(os.Stderr, "pingwatch: %v\n", err)
		return exitPrivilege
	}

	registry, err := target.NewRegistry(targets)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pingwatch: %v\n", err)
		return exitTargets
	}

	ring := history.NewRing(config.HistoryLen, registry.Len())
	clf := classifier.New(ring)
	clk := clock.NewClock()

	senders := make(map[probe.Version]scheduler.Sender, len(conns))
	for v, c := range conns {
		senders[v] = c
	}
	sched := scheduler.New(registry, ring, clf, clk, senders, pid)

	scr := scroller.New()
	log.SetOutput(scr)
	log.SetFlags(log.Ltime)

	adapter := dashboard.NewAdapter(registry, ring, scr, clf.NDown)

	var sink render.Sink = adapter
	if htmlReport != nil {
		sink = render.MultiSink{adapter, htmlReport}
	}

	if w, h, err := xterm.GetSize(os.Stdout.Fd()); err == nil {
		if w < config.MinCols || h < config.MinRows {
			fmt.Fprintf(os.Stderr, "pingwatch: terminal too small: need at least %dx%d, have %dx%d\n",
				config.MinCols, config.MinRows, w, h)
			for _, c := range conns {
				c.Close()
			}
			return exitDisplayTooSmall
		}
	}

	loop := eventloop.New(registry, clf, sched, conns, sink)
	model := dashboard.New(adapter, scr, loop.RequestCycleBeep)

	startup.Run(os.Stdout, os.Stdin, bannerLines(targets), config.InitWait)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	loopErr := make(chan error, 1)
	go func() {
		loopErr <- loop.Run(ctx)
	}()

	prog := tea.NewProgram(model, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		prog.Quit()
	}()

	if _, err := prog.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "pingwatch: dashboard: %v\n", err)
	}
	cancel()
	<-loopErr

	for _, c := range conns {
		c.Close()
	}
	if htmlReport != nil {
		if err := htmlReport.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "pingwatch: writing %s: %v\n", htmlPath, err)
			return exitHTMLOutput
		}
	}
	return exitOK
}

func bannerLines(targets []*target.Target) []string {
	lines := make([]string, 0, len(targets))
	for _, t := range targets {
		lines = append(lines, startup.BannerLine(t.ID, t.Hostname, t.Address, t.Annotation))
	}
	return lines
}
