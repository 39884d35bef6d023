package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"form_filler/domain/entities"
	"form_filler/domain/interfaces"

	"github.com/playwright-community/playwright-go"
)

const tagNameScript = "(element) => element.tagName.toLowerCase()"

// formFrame adapts a playwright frame to the filler.
type formFrame struct {
	frame playwright.Frame
}

// NewFormFrame wraps an already located frame.
func NewFormFrame(frame playwright.Frame) interfaces.FormFrame {
	return &formFrame{frame: frame}
}

func (f *formFrame) URL() string {
	return f.frame.URL()
}

func (f *formFrame) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := f.frame.Locator(selector).WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: millis(timeout),
	})
	return classify(err, selector)
}

func (f *formFrame) Count(ctx context.Context, selector string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := f.frame.Locator(selector).Count()
	return n, classify(err, selector)
}

func (f *formFrame) TagName(ctx context.Context, selector string, timeout time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	result, err := f.frame.Locator(selector).Evaluate(tagNameScript, nil, playwright.LocatorEvaluateOptions{
		Timeout: millis(timeout),
	})
	if err != nil {
		return "", classify(err, selector)
	}
	tag, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected tag name result %T for %s", result, selector)
	}
	return strings.ToLower(tag), nil
}

func (f *formFrame) Fill(ctx context.Context, selector, text string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := f.frame.Locator(selector).Fill(text, playwright.LocatorFillOptions{
		Timeout: millis(timeout),
	})
	return classify(err, selector)
}

func (f *formFrame) SelectOption(ctx context.Context, selector string, by interfaces.SelectBy, value string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var values playwright.SelectOptionValues
	switch by {
	case interfaces.SelectByValue:
		values.Values = playwright.StringSlice(value)
	case interfaces.SelectByLabel:
		values.Labels = playwright.StringSlice(value)
	default:
		return fmt.Errorf("unknown select mode %q", by)
	}

	_, err := f.frame.Locator(selector).SelectOption(values, playwright.LocatorSelectOptionOptions{
		Timeout: millis(timeout),
	})
	return classify(err, selector)
}

// classify maps playwright timeouts to entities.ErrElementTimeout.
func classify(err error, selector string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w %s: %v", entities.ErrElementTimeout, selector, err)
	}
	return wrap(err)
}

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

var _ interfaces.FormFrame = (*formFrame)(nil)
