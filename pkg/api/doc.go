// Package api defines the request and response messages of the splitengine
// RPC services. Money and percentages are exact decimals: requests accept
// JSON strings or numbers, responses always carry strings with two
// fractional digits.
package api
