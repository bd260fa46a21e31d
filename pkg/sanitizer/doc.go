// Package sanitizer normalizes customer details before they leave the
// service, for gateway sessions and notification emails.
//
// All functions are idempotent and return an empty string for input they
// cannot normalize.
package sanitizer
