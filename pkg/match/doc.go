// Package match composes byte-level operators and evaluates them against a
// source.
//
// An Operator has three parts. The matcher decides how much input to take,
// either one item (One) or a run of items judged step by step (Many). An
// optional filter is an inner operator run ahead of the matcher at every
// item position. An optional resolver turns the matched data into the
// operator's output.
//
// Evaluation never copies when it does not have to. A run of unfiltered bytes
// read from an addressable source is returned as a view of the source; items
// are only copied into scratch storage once a filter rewrites one of them or
// the evaluation has to drain a stream as it reads. Results report whether
// their memory is owned, and owned results must be released exactly once.
package match
