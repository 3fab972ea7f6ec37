package chromium

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bnema/tsdm-autosign/internal/domain"
	"github.com/bnema/tsdm-autosign/internal/ports"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/utils"
)

const systemVersion = "system"

// Provisioner locates a Chromium build, downloading the revision pinned by rod into
// its cache directory when the host has none.
type Provisioner struct {
	preferDownload bool
	lookPath       func() (string, bool)
	download       func(ctx context.Context) (string, int, error)
}

var _ ports.DriverProvisioner = (*Provisioner)(nil)

// NewProvisioner returns a provisioner. With preferDownload set, a host browser is ignored.
func NewProvisioner(preferDownload bool) *Provisioner {
	return &Provisioner{
		preferDownload: preferDownload,
		lookPath:       launcher.LookPath,
		download:       downloadRevision,
	}
}

func (p *Provisioner) EnsureInstalled(ctx context.Context) (domain.BrowserDriver, error) {
	if !p.preferDownload {
		if path, ok := p.lookPath(); ok {
			return domain.BrowserDriver{Path: path, Version: systemVersion}, nil
		}
	}

	path, revision, err := p.download(ctx)
	if err != nil {
		return domain.BrowserDriver{}, fmt.Errorf("download chromium: %w", err)
	}
	return domain.BrowserDriver{Path: path, Version: strconv.Itoa(revision)}, nil
}

func downloadRevision(ctx context.Context) (string, int, error) {
	b := launcher.NewBrowser()
	b.Context = ctx
	b.Logger = utils.LoggerQuiet

	path, err := b.Get()
	if err != nil {
		return "", 0, err
	}
	return path, b.Revision, nil
}
