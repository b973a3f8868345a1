// Package distserver serves a production output directory over HTTP.
//
// Every response is gzip-compressed when the client accepts it. Hashed
// assets are cached for a year; the root page (index.html) changes with
// every deploy and is cached for ten minutes.
package distserver
