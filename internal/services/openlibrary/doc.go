// Package openlibrary provides the Open Library metadata client used to
// search for books and enrich results with author and edition details.
package openlibrary
