package browser

import "time"

// Default values for browser sessions
const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultTimeout        = 30000 // milliseconds
	DefaultMaxSessions    = 5
)

// Element is a handle to one resolved DOM node. Handles are owned by the
// test step that obtained them and are not valid across navigations.
type Element interface {
	// Visible reports whether the node is rendered and on-screen.
	Visible() (bool, error)

	// Enabled reports whether the node accepts interaction.
	Enabled() (bool, error)

	// Text returns the node's visible text content.
	Text() (string, error)

	// Attribute returns the value of the named attribute, or "" if absent.
	Attribute(name string) (string, error)

	// Tag returns the lowercase tag name of the node.
	Tag() (string, error)

	// Click clicks the node.
	Click() error

	// Fill replaces the node's value with the given text.
	Fill(value string) error
}

// ConsoleMessage is one console entry emitted by the page.
type ConsoleMessage struct {
	Level string // "error", "warning", "info", "log", ...
	Text  string
}

// Response is the subset of a network response the anomaly collector needs.
type Response struct {
	Status     int
	StatusText string
	URL        string
}

// Page is the capability surface of the automation engine consumed by the
// reliability layer. The production implementation wraps a Playwright page;
// the framework's own tests substitute an in-memory fake.
type Page interface {
	// Query returns all nodes matching the selector expression. Expressions
	// use the engine's selector syntax (CSS, text=, role=, xpath).
	Query(selector string) ([]Element, error)

	// Evaluate runs a script in the page and returns its JSON-able result.
	Evaluate(script string) (any, error)

	// Content returns the full serialized HTML of the page.
	Content() (string, error)

	// URL returns the page's current URL.
	URL() string

	// Navigate loads the given URL and waits for the load event.
	Navigate(url string) error

	// OnConsole registers a handler for console messages.
	OnConsole(fn func(ConsoleMessage))

	// OnPageError registers a handler for uncaught page errors.
	OnPageError(fn func(message string))

	// OnResponse registers a handler for completed network responses.
	OnResponse(fn func(Response))

	// OnRequestFailed registers a handler for requests that never completed.
	OnRequestFailed(fn func(url, failure string))

	// Screenshot captures the current viewport to the given file path.
	Screenshot(path string) error
}

// Viewport represents browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// SessionOptions configures a new browser session.
type SessionOptions struct {
	Headless bool
	Viewport *Viewport
	Timeout  float64 // milliseconds, applied as the page default
	SlowMo   float64 // milliseconds between engine operations
}

// SessionInfo provides information about an active session.
type SessionInfo struct {
	Name       string
	CurrentURL string
	Headless   bool
	CreatedAt  time.Time
	LastUsedAt time.Time
}
