package broker

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/MrSnakeDoc/clipdoc/internal/logger"
)

// Opener presents the consent URL to the user.
type Opener func(url string) error

// BrowserOpener tries the platform's URL launcher and always logs the URL
// so a headless user can copy it.
func BrowserOpener(log logger.Logger) Opener {
	return func(url string) error {
		log.Info("open this URL in your browser to authorize clipdoc",
			logger.String("url", url))

		type candidate struct {
			cmd  string
			args []string
		}
		candidates := []candidate{
			{cmd: "xdg-open", args: []string{url}},
			{cmd: "open", args: []string{url}},
		}
		if runtime.GOOS == "windows" {
			candidates = []candidate{{cmd: "rundll32", args: []string{"url.dll,FileProtocolHandler", url}}}
		}

		for _, cand := range candidates {
			path, err := exec.LookPath(cand.cmd)
			if err != nil {
				continue
			}
			if err := exec.Command(path, cand.args...).Start(); err != nil {
				continue
			}
			return nil
		}
		return fmt.Errorf("no browser launcher found on %s", runtime.GOOS)
	}
}
