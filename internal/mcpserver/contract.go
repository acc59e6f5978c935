package mcpserver

// CanvasFormatContract describes the persisted canvas board format and the
// reference conventions that LLM consumers should follow.
const CanvasFormatContract = `# Sowilo Canvas Format Contract

Every canvas board stored in Sowilo is a single JSON document.

## Structure

` + "```" + `json
{
	"nodes": [
		{
			"id": "node-a1b2c3d4e5f60718",
			"type": "text",
			"x": 0,
			"y": 0,
			"width": 400,
			"height": 100,
			"text": "[[ideas#^abc123]]"
		},
		{
			"id": "node-1122334455667788",
			"type": "file",
			"x": 500,
			"y": 0,
			"width": 400,
			"height": 400,
			"file": "notes/ideas.md"
		}
	],
	"edges": []
}
` + "```" + `

## Rules

1. **Top level** has exactly two arrays: ` + "`" + `nodes` + "`" + ` and ` + "`" + `edges` + "`" + `.
2. **Node IDs** are ` + "`" + `node-` + "`" + ` followed by 16 hex characters.
3. **Node types**: ` + "`" + `text` + "`" + ` (carries ` + "`" + `text` + "`" + `), ` + "`" + `file` + "`" + ` (carries ` + "`" + `file` + "`" + `),
   ` + "`" + `link` + "`" + ` (carries ` + "`" + `url` + "`" + `). Unknown types are preserved untouched.
4. **Coordinates** are written flat as ` + "`" + `x` + "`" + ` and ` + "`" + `y` + "`" + `. A legacy nested
   ` + "`" + `position: {x, y}` + "`" + ` object is accepted on read.
5. **References** in text nodes follow the wikilink block syntax:
   ` + "`" + `[[note#^anchorid]]` + "`" + ` for links, ` + "`" + `![[note#^anchorid]]` + "`" + ` for embeds.
   The note part is the filename stem (no ` + "`" + `.md` + "`" + ` extension).
6. **Anchors** in source notes are trailing ` + "`" + ` ^id` + "`" + ` tokens where id is
   lowercase alphanumeric (with hyphens allowed). A line carries at most one.
7. **File paths** use forward slashes; boards end with ` + "`" + `.canvas` + "`" + `.
8. **Placement**: new nodes land right of the rightmost node with a
   configurable gap, at the same y. Do not rely on any other layout.
9. **Malformed boards** are treated as empty on read; a send to a malformed
   or missing board rewrites it as a fresh document.
`
