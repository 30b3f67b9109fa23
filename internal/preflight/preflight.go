package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"tubeqa/internal/config"
)

// MinFreeBytes is the free-space floor for the cache root. A long video's
// WAV extraction alone can run into the gigabytes.
const MinFreeBytes = 2 << 30

// Check is one verified requirement.
type Check struct {
	Name   string
	Detail string
	Err    error
}

// OK reports whether the check passed.
func (c Check) OK() bool {
	return c.Err == nil
}

// Run performs all preflight checks against the configuration. It always
// returns the full list; callers decide whether failures are fatal.
func Run(cfg *config.Config) []Check {
	checks := []Check{
		binaryCheck("yt-dlp", cfg.Acquisition.YtDlpBinary),
		binaryCheck("whisper", cfg.Transcription.Binary),
		binaryCheck("ffmpeg", cfg.Transcription.FFmpegBinary),
		binaryCheck("ffprobe", cfg.Transcription.FFprobeBinary),
		apiKeyCheck(cfg),
		diskCheck(cfg),
	}
	return checks
}

// Failed filters checks down to the ones that did not pass.
func Failed(checks []Check) []Check {
	var failed []Check
	for _, check := range checks {
		if !check.OK() {
			failed = append(failed, check)
		}
	}
	return failed
}

func binaryCheck(name, binary string) Check {
	check := Check{Name: name}
	if strings.TrimSpace(binary) == "" {
		check.Err = fmt.Errorf("%s binary not configured", name)
		return check
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		check.Err = fmt.Errorf("%s not found in PATH (%s)", name, binary)
		return check
	}
	check.Detail = path
	return check
}

func apiKeyCheck(cfg *config.Config) Check {
	check := Check{Name: "llm api key"}
	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		check.Err = fmt.Errorf("no API key configured (set [llm] api_key or TUBEQA_LLM_API_KEY)")
		return check
	}
	check.Detail = "configured"
	return check
}

func diskCheck(cfg *config.Config) Check {
	check := Check{Name: "cache disk space"}
	root := cfg.Paths.CacheRoot
	if _, err := os.Stat(root); err != nil {
		// Not created yet; EnsureDirectories handles that later.
		check.Detail = "cache root not created yet"
		return check
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(root, &stat); err != nil {
		check.Err = fmt.Errorf("statfs %s: %w", root, err)
		return check
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < MinFreeBytes {
		check.Err = fmt.Errorf("only %d MiB free under %s, need at least %d MiB",
			free>>20, root, uint64(MinFreeBytes)>>20)
		return check
	}
	check.Detail = fmt.Sprintf("%d GiB free", free>>30)
	return check
}
