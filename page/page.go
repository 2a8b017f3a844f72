// Package page defines the browser capability surface the sweep runs
// against, and a static DOM implementation of it.
//
// Every Session method is an immediate, single read or action. Waiting for
// asynchronous rendering is the job of the locator package, which wraps
// FindOne/FindMany in a polling loop.
package page

import (
	"context"
	"errors"
)

var (
	// ErrNoMatch is returned by FindOne when nothing matches the selector
	// at the moment of the call.
	ErrNoMatch = errors.New("page: no element matches selector")

	// ErrStaleElement is returned when an Element obtained before the last
	// navigation is used. Handles never survive a DOM replacement.
	ErrStaleElement = errors.New("page: element is stale")

	// ErrNotNavigated is returned when the session has no document loaded.
	ErrNotNavigated = errors.New("page: no document loaded")

	// ErrUnsupportedElement is returned when an action is applied to an
	// element that cannot perform it (e.g. clicking a non-link statically).
	ErrUnsupportedElement = errors.New("page: element does not support this action")
)

// Element is a handle to one DOM node, valid until the next navigation.
type Element interface {
	// Text returns the element's visible text with surrounding whitespace trimmed.
	Text() (string, error)

	// Elements returns descendants matching the selector, in document order.
	Elements(selector string) ([]Element, error)
}

// Session is a single browsing context.
type Session interface {
	// Navigate loads url and replaces the current document.
	Navigate(ctx context.Context, url string) error

	// FindOne returns the first element matching selector, or ErrNoMatch.
	FindOne(ctx context.Context, selector string) (Element, error)

	// FindMany returns every element matching selector. An empty result is
	// not an error.
	FindMany(ctx context.Context, selector string) ([]Element, error)

	// Click activates el. Any handle obtained before the click may be stale
	// afterwards.
	Click(ctx context.Context, el Element) error

	// Select chooses the option with the given value on a <select> element.
	Select(ctx context.Context, el Element, value string) error

	// Close releases the session's resources.
	Close() error
}
