// Package convert turns foreign markup into block records.
//
// HTML is sanitized before it is parsed, so scripts, styles and event
// attributes never reach a block payload. Block level elements map onto the
// built-in tools:
//
//	p               paragraph
//	h1..h6          header {text, level}
//	ul, ol          list {style, items}
//	blockquote      quote {text, caption}
//	pre             code
//	img             image {url, caption}
//	hr              delimiter
//
// Containers such as div and section are flattened. Runs of loose inline
// content become paragraphs. Markdown is rendered to HTML first.
package convert
