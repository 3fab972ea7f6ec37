package chromium

import (
	"context"
	"fmt"

	"github.com/bnema/tsdm-autosign/internal/ports"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// Launcher starts a Chromium process over the DevTools protocol. The process is not
// bound to the launch context; it lives until the returned browser is closed.
type Launcher struct {
	siteURL string
	logger  *zap.Logger
}

var _ ports.BrowserLauncher = (*Launcher)(nil)

func NewLauncher(siteURL string, logger *zap.Logger) *Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{siteURL: siteURL, logger: logger}
}

func (l *Launcher) Launch(ctx context.Context, opts ports.BrowserLaunchOptions) (ports.Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	proc := launcher.New().
		Headless(opts.Headless).
		Leakless(true).
		Set(flags.Flag("disable-blink-features"), "AutomationControlled").
		Set(flags.Flag("no-first-run")).
		Delete(flags.Flag("enable-automation"))
	if opts.Bin != "" {
		proc = proc.Bin(opts.Bin)
	}

	controlURL, err := proc.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		proc.Kill()
		return nil, fmt.Errorf("connect to chromium: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		proc.Kill()
		return nil, fmt.Errorf("open page: %w", err)
	}

	l.logger.Debug("chromium started",
		zap.String("control_url", controlURL),
		zap.Bool("headless", opts.Headless),
		zap.Int("pid", proc.PID()))

	return &session{
		browser: browser,
		page:    &tab{page: page},
		proc:    proc,
		siteURL: l.siteURL,
	}, nil
}
