package reqstream

import (
	"github.com/vnykmshr/reqstream/pkg/producer/httpfetch"
)

// NewFetch creates a Stream whose operations are HTTP fetches performed by
// a default httpfetch.Client. Non-2xx responses are successes, as with a
// browser fetch; configure an httpfetch.Client with RequireOK and pass its
// Fetch method to NewWithConfig to treat them as failures.
func NewFetch(config Config) *Stream[*httpfetch.Response] {
	return NewWithConfig[*httpfetch.Response](httpfetch.New().Fetch, config)
}
