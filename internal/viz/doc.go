// Package viz draws freezing summaries with gonum/plot and previews them in
// the terminal.
package viz
