package mcpserver

// LayoutContract describes the outputs tree layout every artifact path
// follows. MCP consumers should read it before constructing paths by hand.
const LayoutContract = `# Sowilo Outputs Layout Contract

Every artifact the pipeline writes lives under the outputs root in this
structure.

## Structure

` + "```" + `
<outputs-root>/
  <collection-slug>/
    <unit-slug>/
      01-scree-plot.png
      02.png
    overview/
      overview.png
` + "```" + `

## Rules

1. **Every name is a slug.** Slugs are lowercase, spaces become hyphens,
   and characters outside ` + "`" + `a-z0-9_-` + "`" + ` are dropped. A name that slugs to
   nothing becomes ` + "`" + `misc` + "`" + `.
2. **Collection directories** are slugs of the lab directory names
   (e.g. ` + "`" + `week-01` + "`" + `).
3. **Unit directories** are slugs of the unit script stem
   (` + "`" + `pca-demo` + "`" + ` for ` + "`" + `pca-demo.go` + "`" + `).
4. **Figure files** are ` + "`" + `NN[-label].png` + "`" + `: a two-digit 1-based save index,
   optionally followed by a hyphen and the slugged canvas title. A label
   equal to the unit slug is dropped as redundant. Colliding names within
   one capture gain a ` + "`" + `-dup` + "`" + ` suffix before ` + "`" + `.png` + "`" + `.
5. **` + "`" + `overview/overview.png` + "`" + `** inside each collection is the composed
   montage of that collection's figures. The ` + "`" + `overview` + "`" + ` directory never
   holds unit artifacts and is skipped when composing.
6. **Relocated legacy artifacts** (from the flat ` + "`" + `<base>-figN.png` + "`" + ` era)
   keep the name ` + "`" + `figN.png` + "`" + ` under ` + "`" + `<collection-slug>/<base-slug>/` + "`" + `.
7. **Paths** use forward slashes and are relative to the outputs root.
   Every artifact is a PNG.

## Search

The artifact ledger mirrors this tree. ` + "`" + `search_artifacts` + "`" + ` matches
tokens from the collection, unit, and label of each artifact, so
descriptive canvas titles make figures findable.

## Example

` + "```" + `
week-02/
  eigenfaces/
    01-mean-face.png
    02-top-components.png
  pca-demo/
    01-scree-plot.png
  overview/
    overview.png
` + "```" + `
`
