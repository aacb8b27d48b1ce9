package scraper

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// BrowserOptions configures the headless browser used by adapters.
type BrowserOptions struct {
	ChromeBin   string
	UserAgent   string
	SettleDelay time.Duration
	WaitTimeout time.Duration
	PageTimeout time.Duration
}

// DefaultBrowserOptions mirrors the timings the rate pages need to render.
func DefaultBrowserOptions() BrowserOptions {
	return BrowserOptions{
		UserAgent:   defaultUserAgent,
		SettleDelay: 15 * time.Second,
		WaitTimeout: 30 * time.Second,
		PageTimeout: 2 * time.Minute,
	}
}

// Session is a running headless browser tab. Release must always be called.
type Session struct {
	ctx      context.Context
	releases []context.CancelFunc
}

// Context returns the tab context to pass to chromedp.Run.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Release terminates the tab and the browser process.
func (s *Session) Release() {
	for i := len(s.releases) - 1; i >= 0; i-- {
		s.releases[i]()
	}
	s.releases = nil
}

// NewSession launches a headless browser bound to ctx. On error nothing is
// left running.
func NewSession(ctx context.Context, opts BrowserOptions) (*Session, error) {
	chromeBin := opts.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(chromeBin))
	}

	s := &Session{}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	s.releases = append(s.releases, cancelAlloc)

	// Suppress chromedp log noise
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	s.releases = append(s.releases, cancelTab)

	// The first Run starts the browser; it must not be tied to a timeout.
	if err := chromedp.Run(tabCtx); err != nil {
		s.Release()
		return nil, fmt.Errorf("browser: launch: %w", err)
	}

	if opts.PageTimeout > 0 {
		timeoutCtx, cancelTimeout := context.WithTimeout(tabCtx, opts.PageTimeout)
		s.releases = append(s.releases, cancelTimeout)
		tabCtx = timeoutCtx
	}
	s.ctx = tabCtx
	return s, nil
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
