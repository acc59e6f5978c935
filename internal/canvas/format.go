package canvas

import "time"

// Reference kinds for node text.
const (
	RefPlain = "plain"
	RefLink  = "link"
	RefEmbed = "embed"
)

// DefaultTimestampLayout formats the optional suffix on link/embed nodes.
const DefaultTimestampLayout = "2006-01-02T15:04"

// RefOptions controls the optional timestamp suffix on link and embed
// references. Plain content never receives one.
type RefOptions struct {
	AppendTimestamp bool
	TimestampLayout string
	Now             func() time.Time
}

// FormatReference builds the node text for the requested kind:
// "[[basename#^anchorID]]" for links, "![[basename#^anchorID]]" for embeds,
// and content unchanged for plain. When enabled, link/embed references get
// a single space and a formatted timestamp appended.
func FormatReference(kind, content, basename, anchorID string, opts RefOptions) string {
	var ref string
	switch kind {
	case RefLink:
		ref = "[[" + basename + "#^" + anchorID + "]]"
	case RefEmbed:
		ref = "![[" + basename + "#^" + anchorID + "]]"
	default:
		return content
	}

	if opts.AppendTimestamp {
		layout := opts.TimestampLayout
		if layout == "" {
			layout = DefaultTimestampLayout
		}
		now := opts.Now
		if now == nil {
			now = time.Now
		}
		ref += " " + now().Format(layout)
	}
	return ref
}
