// Package api defines the wire messages of the settleup RPC services.
//
// Messages are plain Go structs carried as JSON over Connect (see Codec).
// Monetary fields use Money, which is written as a JSON number with two
// decimal places and accepts either a number or a numeric string on input.
package api
