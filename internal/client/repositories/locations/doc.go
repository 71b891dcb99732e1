// Package locations persists the ordered list of counting locations
// downloaded from the remote store.
package locations
