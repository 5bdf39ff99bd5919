package mcpserver

// TemplateContract describes how vellum sources are written and how a page
// picks its templates, for LLM consumers that author content or templates.
const TemplateContract = `# Vellum Page and Template Contract

## Sources

Every ` + "`*.md`" + ` file under the content directory is a page. Its href comes
from the path: ` + "`/index.md`" + ` is ` + "`/`" + `, ` + "`/a/index.md`" + ` is ` + "`/a/`" + `, ` + "`/a/b.md`" + ` is ` + "`/a/b`" + `.

` + "```" + `markdown
---
title: Setup guide        # optional, falls back to the first "# " heading
template: guide           # optional page template
layout: wide              # optional layout template
---

Body of the page.

---- #install ----
name: Installing

Body of the "/a/b#install" fragment.
` + "```" + `

A line ` + "`---- <href> ----`" + ` starts a fragment. Hrefs starting with ` + "`#`" + ` are
relative to the current page; an empty href becomes ` + "`<page>#fragment-N`" + `.
The ` + "`key: value`" + ` lines right after a header set fields on that fragment:
` + "`name`, `title`, `template`, `layout`, `doclayout`, `notemplate`, `nolayout`,\n`onclick`, `folderpage`" + `. A comment ` + "`(draft)`" + ` after the href marks a draft.

## Template cascade

Templates are handlebars files named after their path without ` + "`.hbs`" + `.
Files under ` + "`partials/`" + ` are partials available to every template.

1. **Document**: the page's ` + "`doclayout`" + `; else ` + "`none`" + ` when ` + "`notemplate`" + ` is
   set; else the page's ` + "`template`" + ` when ` + "`nolayout`" + ` is set; else
   ` + "`doc-layout`" + ` if it exists; else the layout template.
2. **Layout**: the page's ` + "`layout`" + `; else ` + "`main-layout`" + ` if it exists; else the
   page template.
3. **Page**: the page's ` + "`template`" + `; else ` + "`default`" + `.

A ` + "`default`" + ` template is required. Unknown names fall back to it.
The name ` + "`none`" + ` emits the page text unchanged.

## Helpers

| Helper | Output |
|---|---|
| ` + "`{{{renderLayout}}}`" + ` | layout template inside ` + "`<div data-render-layout=\"name\">`" + ` |
| ` + "`{{{renderPage}}}`" + ` | page template inside ` + "`<div data-render-page=\"name\">`" + ` |
| ` + "`{{{renderHtml}}}`" + ` | markdown inside ` + "`<div data-render-html=\"href\">`" + `; ` + "`noWrap=true`" + ` drops the wrapper |
| ` + "`{{{pageTree}}}`" + ` | nested ` + "`<li>`" + ` list of the page tree; ` + "`href=`" + ` picks the root |
| ` + "`{{{pageLink \"/href\"}}}`" + ` | resolved link; hashes ` + "`text`, `title`, `hrefOnly`" + ` |
| ` + "`{{relPath}}`" + ` | relative path from the page back to the site root |

Inside a template the page is the context (` + "`{{title}}`, `{{#each fragments}}`" + `),
and ` + "`@page`" + ` and ` + "`@relPath`" + ` are available as data.

## Links and images

Root-relative hrefs are prefixed with the relative path (or the configured
link prefix); ` + "`/images/`" + ` hrefs with the image prefix. A link with no text
shows the target page's name, title, source file, or a readable form of the
href. A title ending in ` + "`^`" + ` opens the link in a new window.
`
