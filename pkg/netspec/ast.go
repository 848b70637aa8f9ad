package netspec

import "github.com/alecthomas/participle/v2/lexer"

// File is a whole netlist document.
type File struct {
	Statements []*Statement `@@*`
}

// Statement is one net or label declaration.
type Statement struct {
	Net   *NetDecl   `  @@`
	Label *LabelDecl `| @@`
}

// NetDecl declares a named net and its terminals.
// Example: net VCC: R1.1, R2.2 (3,4)
type NetDecl struct {
	Pos       lexer.Position
	Name      string      `"net" @(Ident | String) ":"`
	Terminals []*Terminal `( @@ ","? )*`
}

// Terminal is a part pin or a bare hole.
type Terminal struct {
	Hole *HoleLit `  @@`
	Pin  *PinRef  `| @@`
}

// PinRef names a pin by part id and pin id or label.
// Example: R1.1, J1.T, C1.+
type PinRef struct {
	Part string `@(Ident | String) "."`
	Pin  string `@(Ident | Int | String | Sign)`
}

// HoleLit is a grid coordinate.
// Example: (3,4)
type HoleLit struct {
	X int `"(" @Int ","`
	Y int `@Int ")"`
}

// LabelDecl attaches a name to the group containing a hole.
// Example: label GND (0,5)
type LabelDecl struct {
	Pos  lexer.Position
	Name string   `"label" @(Ident | String)`
	At   *HoleLit `@@`
}
