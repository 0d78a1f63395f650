package cli

import (
	"fmt"
	"io"

	"github.com/dmitrijs2005/bigupload/internal/client/services"
)

type progressPrinter struct {
	out         io.Writer
	interactive bool
	phase       services.Phase
	started     bool
	drawn       bool
}

func newProgressPrinter(out io.Writer, interactive bool) *progressPrinter {
	return &progressPrinter{out: out, interactive: interactive}
}

func (p *progressPrinter) update(pr services.Progress) {
	changed := !p.started || pr.Phase != p.phase
	p.started = true
	p.phase = pr.Phase

	if !p.interactive {
		if changed {
			fmt.Fprintf(p.out, "%s...\n", pr.Phase)
		}
		return
	}

	if changed && p.drawn {
		fmt.Fprintln(p.out)
	}
	fmt.Fprintf(p.out, "\r%-9s %6.2f%%", pr.Phase, pr.Percent)
	p.drawn = true
}

func (p *progressPrinter) finish() {
	if p.interactive && p.drawn {
		fmt.Fprintln(p.out)
	}
}
