// Package contextstore implements the nested mapping that templates read
// their variables from.
//
// A Store keeps keys in insertion order and accepts string or integer keys.
// Indexed access with an absent integer key falls back to the greatest integer
// key below it, so a template can ask for "the third font, or the closest
// earlier one" without any conditional logic:
//
//	fonts := contextstore.New()
//	fonts.Set(1, "Fira Code")
//	fonts.Set(2, "Noto Sans")
//	v, _ := fonts.Index(5) // "Noto Sans"
//
// String keys never fall back. Plain maps inserted into a Store are promoted
// to Stores recursively so the fallback rule holds at every depth.
//
// A Store is not safe for concurrent mutation. Actions run sequentially and
// share one Store per run; callers that fan out must serialize writers or
// work on a Clone.
package contextstore
