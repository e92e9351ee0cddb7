package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// playwrightPage adapts a playwright.Page to the Page capability surface.
type playwrightPage struct {
	page playwright.Page
}

var _ Page = (*playwrightPage)(nil)

func (p *playwrightPage) Query(selector string) ([]Element, error) {
	handles, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, fmt.Errorf("selector query failed: %w", err)
	}
	elements := make([]Element, 0, len(handles))
	for _, h := range handles {
		elements = append(elements, &playwrightElement{handle: h})
	}
	return elements, nil
}

func (p *playwrightPage) Evaluate(script string) (any, error) {
	result, err := p.page.Evaluate(script)
	if err != nil {
		return nil, fmt.Errorf("script evaluation failed: %w", err)
	}
	return result, nil
}

func (p *playwrightPage) Content() (string, error) {
	html, err := p.page.Content()
	if err != nil {
		return "", fmt.Errorf("content extraction failed: %w", err)
	}
	return html, nil
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}

func (p *playwrightPage) Navigate(url string) error {
	if _, err := p.page.Goto(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (p *playwrightPage) OnConsole(fn func(ConsoleMessage)) {
	p.page.OnConsole(func(msg playwright.ConsoleMessage) {
		fn(ConsoleMessage{
			Level: msg.Type(),
			Text:  msg.Text(),
		})
	})
}

func (p *playwrightPage) OnPageError(fn func(string)) {
	p.page.OnPageError(func(err error) {
		fn(err.Error())
	})
}

func (p *playwrightPage) OnResponse(fn func(Response)) {
	p.page.OnResponse(func(resp playwright.Response) {
		fn(Response{
			Status:     resp.Status(),
			StatusText: resp.StatusText(),
			URL:        resp.URL(),
		})
	})
}

func (p *playwrightPage) OnRequestFailed(fn func(url, failure string)) {
	p.page.OnRequestFailed(func(req playwright.Request) {
		failure := ""
		if err := req.Failure(); err != nil {
			failure = err.Error()
		}
		fn(req.URL(), failure)
	})
}

func (p *playwrightPage) Screenshot(path string) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path: &path,
	})
	if err != nil {
		return fmt.Errorf("screenshot failed: %w", err)
	}
	return nil
}

// playwrightElement adapts a playwright.ElementHandle to the Element surface.
type playwrightElement struct {
	handle playwright.ElementHandle
}

var _ Element = (*playwrightElement)(nil)

func (e *playwrightElement) Visible() (bool, error) {
	return e.handle.IsVisible()
}

func (e *playwrightElement) Enabled() (bool, error) {
	return e.handle.IsEnabled()
}

func (e *playwrightElement) Text() (string, error) {
	return e.handle.TextContent()
}

func (e *playwrightElement) Attribute(name string) (string, error) {
	value, err := e.handle.GetAttribute(name)
	if err != nil {
		return "", err
	}
	return value, nil
}

func (e *playwrightElement) Tag() (string, error) {
	result, err := e.handle.Evaluate("el => el.tagName.toLowerCase()")
	if err != nil {
		return "", fmt.Errorf("tag lookup failed: %w", err)
	}
	tag, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected tag result type %T", result)
	}
	return tag, nil
}

func (e *playwrightElement) Click() error {
	if err := e.handle.Click(); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

func (e *playwrightElement) Fill(value string) error {
	if err := e.handle.Fill(value); err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}
	return nil
}
