// Package htmlreport writes the optional HTML report (spec §6 CLI, the
// positional output-path argument), grounded directly in the
// HTMLHEAD*/do_exit logic of original_source/main.c: one table row per
// round, one column per target, cells color-coded by state, followed by a
// final per-target summary on shutdown.
package htmlreport

import (
	"fmt"
	"html"
	"io"
	"time"

	"github.com/bartnv/pingwatch/internal/render"
	"github.com/bartnv/pingwatch/internal/target"
)

const headerRepeatEvery = 30 // matches main.c: `if (!(pinground % 30))`

// Report implements render.Sink, appending to an HTML table as events
// arrive and writing the closing summary when Close is called.
type Report struct {
	render.NopSink

	w        io.Writer
	targets  []*target.Target
	rounds   int
	writeErr error
}

// New writes the document head and the static target listing table, then
// opens the per-round results table, exactly mirroring the order
// read_targets()/main() write them in the original.
func New(w io.Writer, targets []*target.Target) (*Report, error) {
	r := &Report{w: w, targets: targets}
	r.printf("<HTML>\n<HEAD>\n<TITLE>Ping stats</TITLE>\n<STYLE type=\"text/css\">\n")
	r.printf("BODY { background-color: black; color: rgb(200,200,200) }\n")
	r.printf("TABLE { text-align: center }\n")
	r.printf("TABLE#results TD { color: black; background-color: green; width: 1em }\n")
	r.printf("TABLE#results TD.j { background-color: yellow }\n")
	r.printf("TABLE#results TD.d { background-color: blue }\n")
	r.printf("TABLE#results TD.l { background-color: red }\n")
	r.printf("TABLE#results TH { color: black; background-color: rgb(200,200,200); width: 1em }\n")
	r.printf("</STYLE></HEAD>\n\n<BODY>\n")

	r.printf("<TABLE><TR><TD>ID<TD>Hostname<TD>IP address<TD>Comment\n")
	for _, t := range targets {
		r.printf("<TR><TD>%c<TD>%s<TD>%s<TD>%s\n", t.ID, html.EscapeString(t.Hostname), t.Address, html.EscapeString(t.Annotation))
	}
	r.printf("</TABLE>\n")

	r.writeResultsHeader()

	return r, r.writeErr
}

func (r *Report) writeResultsHeader() {
	r.printf("<HR>\n<TABLE id=\"results\">\n<THEAD>\n<TR><TH>Time\n")
	for _, t := range r.targets {
		r.printf("<TH title=\"%s\">%c\n", html.EscapeString(t.Hostname), t.ID)
	}
	r.printf("<TBODY>\n")
}

// NewRound opens a new results row, repeating the header every
// headerRepeatEvery rounds the way the original avoids letting the column
// headers scroll out of convenient reach in a long report.
func (r *Report) NewRound(pinground int, estimate time.Duration) {
	r.rounds = pinground
	if pinground > 1 && pinground%headerRepeatEvery == 0 {
		r.printf("<TR>\n<TH>Time\n")
		for _, t := range r.targets {
			r.printf("<TH title=\"%s\">%c\n", html.EscapeString(t.Hostname), t.ID)
		}
	}
	now := time.Now()
	r.printf("<TR><TD>%02d:%02d\n", now.Hour(), now.Minute())
}

// Reply appends a results cell color-coded by state.
func (r *Report) Reply(t *target.Target, state target.State, rtt time.Duration) {
	ms := rtt.Milliseconds()
	switch state {
	case target.Jitter:
		r.printf("<TD class=\"j\">%d\n", ms)
	case target.Lag:
		r.printf("<TD class=\"d\">%d\n", ms)
	default:
		r.printf("<TD>%d\n", ms)
	}
}

// Timeout appends a "lost" cell.
func (r *Report) Timeout(t *target.Target, promoted bool) {
	r.printf("<TD class=\"l\">lost\n")
}

// Close writes the closing summary table and document footer.
func (r *Report) Close() error {
	r.printf("</TABLE>\n<HR>\n")
	for _, t := range r.targets {
		r.printf("<P>\n")
		r.printf("%c %s (%s) %s<BR>\n", t.ID, html.EscapeString(t.Hostname), t.Address, html.EscapeString(t.Annotation))
		r.printf("Min: %d / Avg: %d / Max: %d / Last: %d<BR>\n",
			t.RTTMin.Milliseconds(), t.RTTAvg.Milliseconds(), t.RTTMax.Milliseconds(), t.RTTLast.Milliseconds())
		r.printf("Packets lost: %d (%s) / Packets delayed: %d (%s)\n",
			t.LossCount, percent(t.LossCount, r.rounds), t.DelayCount, percent(t.DelayCount, r.rounds))
		r.printf("</P>")
	}
	r.printf("\n</BODY>\n</HTML>\n")
	if c, ok := r.w.(io.Closer); ok {
		if err := c.Close(); err != nil && r.writeErr == nil {
			r.writeErr = err
		}
	}
	return r.writeErr
}

func percent(n, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%d%%", n*100/total)
}

func (r *Report) printf(format string, args ...any) {
	if r.writeErr != nil {
		return
	}
	_, err := fmt.Fprintf(r.w, format, args...)
	if err != nil {
		r.writeErr = fmt.Errorf("htmlreport: write: %w", err)
	}
}
