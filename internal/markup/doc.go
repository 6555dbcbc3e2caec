// Package markup locates image references in HTML fragments.
//
// It pattern-matches text rather than building a DOM, so partial and
// malformed markup (unclosed anchors, stray tags) is handled the same way
// as well-formed markup. Known limitations: attribute values must be
// quoted, and a '>' inside an attribute value ends the tag early.
//
// Three scanners are provided:
//
//   - Extract finds image-bearing spans: an optional class-carrying
//     container, an optional anchor, and the image tag.
//   - URLs finds every plausible image URL in a fragment.
//   - StyleURLs finds url(...) references in inline styles and style blocks.
package markup
