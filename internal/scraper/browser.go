package scraper

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// BrowserOptions configures a headless browser used to render operator pages
type BrowserOptions struct {
	Visible            bool
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// NewBrowser starts a browser and returns its context. Cancel releases it.
func NewBrowser(opts BrowserOptions) (context.Context, context.CancelFunc) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !opts.Visible),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("ignore-certificate-errors", opts.InsecureSkipVerify),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancelTimeout := context.WithTimeout(browserCtx, timeout)

	return ctx, func() {
		cancelTimeout()
		cancelBrowser()
		cancelAlloc()
	}
}

// RenderPage navigates to pageURL and returns the document HTML after scripts ran
func RenderPage(ctx context.Context, pageURL string) (string, error) {
	var html string
	if err := chromedp.Run(ctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return "", fmt.Errorf("rendering %s: %w", pageURL, err)
	}
	return html, nil
}

// PageCookies returns the cookies the browser holds for the current page
func PageCookies(ctx context.Context) ([]*http.Cookie, error) {
	var cookies []*network.Cookie

	if err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = network.GetCookies().Do(ctx)
			return err
		}),
	); err != nil {
		return nil, fmt.Errorf("getting cookies: %w", err)
	}

	return toHTTPCookies(cookies), nil
}

func toHTTPCookies(cookies []*network.Cookie) []*http.Cookie {
	result := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		hc := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HttpOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}
		// Session cookies report a non-positive expiry
		if c.Expires > 0 {
			sec, frac := math.Modf(c.Expires)
			hc.Expires = time.Unix(int64(sec), int64(frac*1e9))
		}
		result = append(result, hc)
	}
	return result
}
