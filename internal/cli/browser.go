package cmd

import (
	"os/exec"
	"runtime"
)

// browserOpener is replaced in tests.
var browserOpener = openInBrowser

func openInBrowser(target string) error {
	var c *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		c = exec.Command("open", target)
	case "windows":
		c = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		c = exec.Command("xdg-open", target)
	}
	return c.Start()
}

// SetBrowserOpenerForTest swaps the browser launcher and returns a restore func.
func SetBrowserOpenerForTest(open func(string) error) func() {
	previous := browserOpener
	browserOpener = open
	return func() { browserOpener = previous }
}
