package browser

import (
	"errors"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"

	"form_filler/domain/entities"
)

type urlFrame string

func (f urlFrame) URL() string { return string(f) }

func TestFindFrame(t *testing.T) {
	frames := []urlFrame{
		"https://portal.example.com/dashboard",
		"https://www.emailmeform.com/builder/form/abc",
		"https://www.emailmeform.com/builder/form/def",
	}

	got, ok := FindFrame(frames, "emailmeform.com")
	assert.True(t, ok)
	assert.Equal(t, urlFrame("https://www.emailmeform.com/builder/form/abc"), got)

	_, ok = FindFrame(frames, "typeform.com")
	assert.False(t, ok)

	_, ok = FindFrame([]urlFrame(nil), "anything")
	assert.False(t, ok)
}

func TestIframeSelector(t *testing.T) {
	assert.Equal(t, `iframe[src*="emailmeform.com"]`, IframeSelector("emailmeform.com"))
	assert.Equal(t, `iframe[src*="a\"b"]`, IframeSelector(`a"b`))
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil, "#x"))

	timeout := classify(playwright.ErrTimeout, "#element_0")
	assert.ErrorIs(t, timeout, entities.ErrElementTimeout)
	assert.Contains(t, timeout.Error(), "#element_0")

	other := classify(errors.New("detached"), "#element_0")
	assert.NotErrorIs(t, other, entities.ErrElementTimeout)
	assert.Contains(t, other.Error(), "playwright: detached")
}

func TestIsClosedErr(t *testing.T) {
	assert.True(t, isClosedErr(errors.New("Target page, context or browser has been closed")))
	assert.True(t, isClosedErr(errors.New("target closed")))
	assert.False(t, isClosedErr(errors.New("net::ERR_NAME_NOT_RESOLVED")))
}

func TestJoinErr(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")

	assert.Equal(t, first, joinErr(nil, first))
	joined := joinErr(first, second)
	assert.ErrorIs(t, joined, second)
	assert.Equal(t, "first; second", joined.Error())
}

func TestMillis(t *testing.T) {
	assert.Equal(t, 10000.0, *millis(10 * time.Second))
	assert.Equal(t, 500.0, *millis(500 * time.Millisecond))
}
