// Package products persists the cached product reference table used for
// barcode lookup and product search while offline.
package products
