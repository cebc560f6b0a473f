package spl

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokInt
	tokStar     // *
	tokDollar   // $
	tokPipe     // |
	tokSemi     // ;
	tokComma    // ,
	tokEq       // =
	tokNeq      // !=
	tokLParen   // (
	tokRParen   // )
	tokDot      // .
	tokOption   // -delims=
	tokAnd
	tokOr
	tokNot
	tokAs
	tokLet
)

type token struct {
	kind tokenKind
	text string
}

var keywords = map[string]tokenKind{
	"and": tokAnd,
	"or":  tokOr,
	"not": tokNot,
	"as":  tokAs,
	"let": tokLet,
}
