package chromium

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/tsdm-autosign/internal/domain"
	"github.com/bnema/tsdm-autosign/internal/ports"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

type session struct {
	browser *rod.Browser
	page    *tab
	proc    *launcher.Launcher
	siteURL string
}

var _ ports.Browser = (*session)(nil)

func (s *session) Ping(ctx context.Context) error {
	if _, err := s.browser.Context(ctx).Version(); err != nil {
		return fmt.Errorf("ping chromium: %w", err)
	}
	return nil
}

func (s *session) Page() ports.Page {
	return s.page
}

// ClearCookies drops every cookie in the browser, not only the site's.
func (s *session) ClearCookies(ctx context.Context) error {
	return s.browser.Context(ctx).SetCookies(nil)
}

func (s *session) SetCookies(ctx context.Context, creds domain.Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	return s.browser.Context(ctx).SetCookies(cookieParams(s.siteURL, creds))
}

func (s *session) Cookies(ctx context.Context) (domain.Credentials, error) {
	cookies, err := s.page.page.Context(ctx).Cookies([]string{s.siteURL})
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}
	return credentialsFrom(cookies), nil
}

func (s *session) Close() error {
	err := s.browser.Close()
	s.proc.Kill()
	if err != nil && !isClosedError(err) {
		return fmt.Errorf("close chromium: %w", err)
	}
	return nil
}

func cookieParams(siteURL string, creds domain.Credentials) []*proto.NetworkCookieParam {
	params := make([]*proto.NetworkCookieParam, 0, len(creds))
	for _, name := range creds.Names() {
		params = append(params, &proto.NetworkCookieParam{
			Name:  name,
			Value: creds[name],
			URL:   siteURL,
			Path:  "/",
		})
	}
	return params
}

func credentialsFrom(cookies []*proto.NetworkCookie) domain.Credentials {
	creds := make(domain.Credentials, len(cookies))
	for _, cookie := range cookies {
		if cookie == nil || cookie.Name == "" {
			continue
		}
		creds[cookie.Name] = cookie.Value
	}
	return creds
}

func isClosedError(err error) bool {
	return errors.Is(err, context.Canceled) || strings.Contains(err.Error(), "use of closed network connection")
}
