package chromium

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/tsdm-autosign/internal/ports"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// tab adapts the single working rod page to ports.Page.
type tab struct {
	page *rod.Page
}

var _ ports.Page = (*tab)(nil)

func (t *tab) Navigate(ctx context.Context, url string) error {
	p := t.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return err
	}
	return p.WaitLoad()
}

func (t *tab) Reload(ctx context.Context) error {
	p := t.page.Context(ctx)
	if err := p.Reload(); err != nil {
		return err
	}
	return p.WaitLoad()
}

func (t *tab) Text(ctx context.Context, selector string, timeout time.Duration) (string, error) {
	var text string
	err := t.within(ctx, selector, timeout, func(el *rod.Element) error {
		var err error
		text, err = el.Text()
		return err
	})
	return strings.TrimSpace(text), err
}

func (t *tab) Click(ctx context.Context, selector string, timeout time.Duration) error {
	return t.within(ctx, selector, timeout, func(el *rod.Element) error {
		if err := el.WaitVisible(); err != nil {
			return err
		}
		return el.Click(proto.InputMouseButtonLeft, 1)
	})
}

func (t *tab) IDs(ctx context.Context, selector string, timeout time.Duration) ([]string, error) {
	var ids []string
	err := t.within(ctx, selector, timeout, func(*rod.Element) error {
		elements, err := t.page.Context(ctx).Elements(selector)
		if err != nil {
			return err
		}
		for _, el := range elements {
			id, err := el.Attribute("id")
			if err != nil {
				return err
			}
			if id != nil && *id != "" {
				ids = append(ids, *id)
			}
		}
		return nil
	})
	return ids, err
}

func (t *tab) Attribute(ctx context.Context, selector, name string, timeout time.Duration) (string, error) {
	var value string
	err := t.within(ctx, selector, timeout, func(el *rod.Element) error {
		attr, err := el.Attribute(name)
		if err != nil {
			return err
		}
		if attr != nil {
			value = *attr
		}
		return nil
	})
	return value, err
}

// within waits up to timeout for selector and runs fn on the element under the same
// deadline. Running out of time while the caller's context is still live reports
// ports.ErrElementNotFound.
func (t *tab) within(ctx context.Context, selector string, timeout time.Duration, fn func(*rod.Element) error) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	el, err := t.page.Context(waitCtx).Element(selector)
	if err == nil {
		err = fn(el)
	}
	return classify(ctx, selector, err)
}

func classify(ctx context.Context, selector string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var notFound *rod.ElementNotFoundError
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &notFound) {
		return fmt.Errorf("%s: %w", selector, ports.ErrElementNotFound)
	}
	return fmt.Errorf("%s: %w", selector, err)
}
