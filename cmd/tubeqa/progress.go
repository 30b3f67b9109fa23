package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"tubeqa/internal/pipeline"
)

// newProgressReporter returns a transcription progress callback. On a
// terminal it renders a bar; otherwise it stays silent and the structured
// logs carry the state.
func newProgressReporter() pipeline.ProgressFunc {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return nil
	}

	var bar *progressbar.ProgressBar
	return func(completed, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("transcribing"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionClearOnFinish(),
				progressbar.OptionShowCount(),
			)
		}
		_ = bar.Set(completed)
		if completed >= total {
			_ = bar.Finish()
		}
	}
}
