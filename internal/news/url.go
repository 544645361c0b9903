package news

import "fmt"

// PageURL builds the deterministic page URL for an external id.
func PageURL(base string, id int) string {
	return fmt.Sprintf("%s%d.html", base, id)
}
