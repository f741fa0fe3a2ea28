package events

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ErrInvalidLocator is returned when an object reference cannot be resolved
// into a container and object name.
var ErrInvalidLocator = errors.New("invalid object locator")

// Locator names one object inside an object store.
type Locator struct {
	Container string `json:"container"`
	Name      string `json:"name"`
}

func (l Locator) String() string {
	return l.Container + "/" + l.Name
}

// Validate checks that both parts are present.
func (l Locator) Validate() error {
	if l.Container == "" || l.Name == "" {
		return fmt.Errorf("%w: %q", ErrInvalidLocator, l.String())
	}
	return nil
}

// LocatorFromBlobURL resolves a blob URL such as
// https://account.blob.core.windows.net/uploads/2024/cat.jpg into
// {Container: "uploads", Name: "2024/cat.jpg"}. The path is unescaped.
func LocatorFromBlobURL(raw string) (Locator, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Locator{}, fmt.Errorf("%w: %v", ErrInvalidLocator, err)
	}

	p := path.Clean("/" + u.Path)
	parts := strings.SplitN(strings.TrimPrefix(p, "/"), "/", 2)
	if len(parts) != 2 {
		return Locator{}, fmt.Errorf("%w: no blob name in %q", ErrInvalidLocator, raw)
	}

	loc := Locator{Container: parts[0], Name: parts[1]}
	if err := loc.Validate(); err != nil {
		return Locator{}, err
	}
	return loc, nil
}

// Filter selects which notifications are turned into work.
// Empty fields match everything.
type Filter struct {
	Container  string
	Prefix     string
	EventNames []string
}

// Match reports whether an event of type eventName for loc passes the filter.
func (f Filter) Match(eventName string, loc Locator) bool {
	if f.Container != "" && loc.Container != f.Container {
		return false
	}
	if f.Prefix != "" && !strings.HasPrefix(loc.Name, f.Prefix) {
		return false
	}
	if len(f.EventNames) == 0 {
		return true
	}
	for _, n := range f.EventNames {
		if n == eventName {
			return true
		}
	}
	return false
}
