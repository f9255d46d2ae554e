package cli

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/law-makers/leadcrawl/internal/progress"
	"github.com/law-makers/leadcrawl/internal/ui"
)

const statusWidth = 48

// progressView renders run events as status lines and a progress bar.
type progressView struct {
	out     io.Writer
	enabled bool
	bar     *progressbar.ProgressBar
}

// renderProgress consumes events until the channel closes. The returned
// channel is closed once the last event has been drawn.
func renderProgress(events <-chan progress.Event, out io.Writer, enabled bool) <-chan struct{} {
	done := make(chan struct{})
	v := &progressView{out: out, enabled: enabled}
	go func() {
		defer close(done)
		for e := range events {
			v.handle(e)
		}
		v.finish()
	}()
	return done
}

func (v *progressView) handle(e progress.Event) {
	if !v.enabled {
		return
	}
	switch e.Kind {
	case progress.KindMaxProgress:
		v.finish()
		v.bar = progressbar.NewOptions(e.Value,
			progressbar.OptionSetWriter(v.out),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionSetDescription("Collecting"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(v.out) }),
		)
	case progress.KindProgress:
		if v.bar != nil {
			_ = v.bar.Set(e.Value)
		}
	case progress.KindStatus:
		if v.bar != nil {
			// Padded so the bar does not jump between messages.
			v.bar.Describe(fmt.Sprintf("%-*s", statusWidth, truncate(e.Message, statusWidth)))
			return
		}
		fmt.Fprintln(v.out, ui.Info(e.Message))
	case progress.KindLifecycle:
		if e.Signal == progress.Finished {
			v.finish()
		}
	}
}

func (v *progressView) finish() {
	if v.bar == nil {
		return
	}
	_ = v.bar.Finish()
	v.bar = nil
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}
