package catalog

import "strings"

// ListHeader is the header line of the product listing.
const ListHeader = "product_id,product_name"

// Render formats a snapshot as the product listing: the header, one "id,name" row per
// product in snapshot order, and a final newline. An empty snapshot renders the header
// followed by a blank line.
func Render(s Snapshot) string {
	entries := s.Entries()

	var b strings.Builder
	b.WriteString(ListHeader)
	b.WriteByte('\n')
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.ID)
		b.WriteByte(',')
		b.WriteString(e.Name)
	}
	b.WriteByte('\n')
	return b.String()
}
