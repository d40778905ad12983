// Package extractor pulls image URLs out of full HTML pages.
//
// Where the probe classifier reads only a small prefix, the extractor
// fetches and parses the whole document. It is the deep-scan fallback
// for pages the prefix scan could not decide, and the engine behind
// the extract command. Candidates come from four sources in priority
// order: social preview meta tags, img tags (including lazy-load data
// attributes and srcset), anchors pointing at image files, and bare
// URLs inside inline scripts. Navigation chrome (logos, favicons,
// banners) is filtered out by name.
package extractor
