package mcpserver

// DocumentFormatContract describes how prompt documents are organised so
// LLM clients edit them consistently.
const DocumentFormatContract = `# promptdesk Document Format Contract

A prompt document holds four representations at once. The selected shape
decides which one is presented; switching shape never discards the others.

## Shapes

| shape | representation | edited with |
|---|---|---|
| plain | one block of text | set_plain_text |
| outline | a forest of titled sections | add_outline_node |
| fragments | an ordered list of named fragments | add_fragment |
| board | lanes, each holding its own fragments | add_lane_fragment |

## Rules

1. **Ids are opaque.** Use the ids returned by read_document; never invent them.
2. **Outline sections** with an empty ` + "`" + `parent_id` + "`" + ` are roots. A section listed
   after its parent in read_document output is nested under it.
3. **Lane fragments** belong to exactly one lane. Their ids are only meaningful
   together with that lane's id.
4. **Template variables** are written ` + "`" + `{{name}}` + "`" + ` (letters, digits, ` + "`" + `_` + "`" + `, ` + "`" + `.` + "`" + `, ` + "`" + `-` + "`" + `).
   They are indexed so documents sharing a variable can be found.
5. **Tags** may be declared in YAML frontmatter at the top of the plain text:
` + "```" + `yaml
---
tags: [support, triage]
---
` + "```" + `
   or inline as ` + "`" + `#tag` + "`" + ` anywhere in the content.
6. **Read-only modes.** A document in viewing or commenting mode rejects edits;
   the tool returns an error and nothing changes.
7. Every editing tool saves the document after the change.

## Example

` + "```" + `text
create_document        name="Support triage"
set_plain_text         id=<id> text="You are a support agent for {{product}}."
add_outline_node       id=<id> title="Tone" body="Be brief and friendly."
add_lane_fragment      id=<id> lane_id=<System lane id> body="Answer in English."
` + "```" + `
`
