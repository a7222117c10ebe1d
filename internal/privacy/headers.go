package privacy

import (
	"fmt"
	"strings"

	"github.com/Zombiegoblin4/Bastion-Browser/internal/shared/types"
)

// Header mutation helpers. The interception seam delivers headers with
// whatever casing the page used, so every lookup is case-insensitive.

func hasHeader(headers map[string][]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

func setHeader(headers map[string][]string, name, value string) {
	removeHeader(headers, name)
	headers[name] = []string{value}
}

func removeHeader(headers map[string][]string, name string) {
	for k := range headers {
		if strings.EqualFold(k, name) {
			delete(headers, k)
		}
	}
}

func errUnknownScope(scope types.ClearDataScope) error {
	return fmt.Errorf("unknown clear-data scope: %q", scope)
}
