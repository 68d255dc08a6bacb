// Package view turns tracker updates into something a person can look at.
//
// A Document is a set of named anchors standing in for the page elements the
// progress view writes to (container, overall bar and label, elapsed label,
// step list, completion and error banners). Renderer is the only writer to a
// Document and skips any anchor the Document does not have. Painters such as
// Terminal draw the Document after every update, using a Theme that is built
// once at start-up.
package view
