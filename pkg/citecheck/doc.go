// Package citecheck flags quotations in analysis output that do not appear
// verbatim in the source text they claim to cite.
//
// The check is deliberately conservative: quoted spans above a minimum
// length are matched exactly against the source, so paraphrases or minor
// whitespace and punctuation differences produce warnings. Warnings are
// advisory. The validator never fails and never blocks output; a human or a
// stricter downstream policy decides what to do with the annotations.
package citecheck
