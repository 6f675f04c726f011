// Package errors provides coded, actionable errors for the densky CLI.
//
// Every failure the pipeline can report has a registry code:
//   - E100-E109 discovery (bad glob, unreadable entry, missing routes dir)
//   - E110-E119 parsing route files
//   - E120-E129 configuration
//   - E130-E139 route validation
//   - E140-E149 writing or uploading artifacts
//   - E150-E159 command line usage
//
// Package-level errors from pkg/router and pkg/parser stay plain Go
// errors matched with errors.Is; Classify turns them into a DenskyError
// at the CLI boundary.
//
// # Usage
//
//	err := errors.New("E111").
//	    WithLocation("src/routes/users/$id.ts", 4, 3).
//	    WithSuggestion("Close the handler body with }")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E111: Invalid handler syntax
//	//
//	//   src/routes/users/$id.ts:4:3
//	//
//	//       2 │ export function GET(req) {
//	//       3 │   if (req.params.get("id")) {
//	//   →   4 │   return 1;
//	//         │   ^
//	//
//	//   Hint: Close the handler body with }
package errors
