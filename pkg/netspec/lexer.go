package netspec

import "github.com/alecthomas/participle/v2/lexer"

// netLexer tokenizes netlist documents. Keywords come before Ident so a
// part can never be called net or label without quoting.
var netLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "Keyword", Pattern: `\b(net|label)\b`},
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},
	{Name: "Int", Pattern: `-?\d+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Sign", Pattern: `[+\-]`},
	{Name: "Punct", Pattern: `[.,:()]`},
})
