// Package netspec parses the plain-text netlist language used to declare
// nets and labels from the command line:
//
//	# comments run to end of line
//	net VCC: R1.1, R2.2 (3,4)
//	net "audio in": J1.T C1.+
//	label GND (0,5)
//
// Net ids are the net names. Label ids are name-based UUIDs so the same
// document always yields the same ids.
package netspec

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/google/uuid"

	"github.com/OpenTraceLab/OpenTracePerf/pkg/board"
)

var parser = participle.MustBuild[File](
	participle.Lexer(netLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

var labelNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("perfroute/label"))

// Spec is the decoded content of a netlist document.
type Spec struct {
	Nets   []board.Net
	Labels []board.NetLabel
}

// Parse decodes a netlist document.
func Parse(src string) (*Spec, error) {
	f, err := parser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("netspec: %w", err)
	}
	return build(f)
}

// ParseReader decodes a netlist document from r.
func ParseReader(r io.Reader) (*Spec, error) {
	f, err := parser.Parse("", r)
	if err != nil {
		return nil, fmt.Errorf("netspec: %w", err)
	}
	return build(f)
}

// ParseFile decodes the netlist document at path.
func ParseFile(path string) (*Spec, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("netspec: open %s: %w", path, err)
	}
	defer file.Close()
	return ParseReader(file)
}

func build(f *File) (*Spec, error) {
	spec := &Spec{}
	seen := make(map[string]lexer.Position)
	for _, st := range f.Statements {
		switch {
		case st.Net != nil:
			decl := st.Net
			if prev, dup := seen[decl.Name]; dup {
				return nil, fmt.Errorf("netspec: %s: net %q already declared at line %d", decl.Pos, decl.Name, prev.Line)
			}
			seen[decl.Name] = decl.Pos
			net := board.Net{ID: decl.Name, Name: decl.Name}
			for _, t := range decl.Terminals {
				if t.Hole != nil {
					net.Terminals = append(net.Terminals, board.HoleTerminal(t.Hole.hole()))
					continue
				}
				net.Terminals = append(net.Terminals, board.PinTerminal(t.Pin.Part, t.Pin.Pin))
			}
			spec.Nets = append(spec.Nets, net)
		case st.Label != nil:
			at := st.Label.At.hole()
			spec.Labels = append(spec.Labels, board.NetLabel{
				ID:     labelID(st.Label.Name, at),
				Anchor: at,
				Name:   st.Label.Name,
			})
		}
	}
	return spec, nil
}

func (h *HoleLit) hole() board.Hole {
	return board.Hole{X: h.X, Y: h.Y}
}

func labelID(name string, at board.Hole) string {
	return uuid.NewSHA1(labelNamespace, []byte(name+"@"+at.Key())).String()
}

// ApplyTo replaces the netlist of p and adds the labels, replacing any
// existing label with the same id.
func (s *Spec) ApplyTo(p *board.Project) {
	p.Netlist = append([]board.Net(nil), s.Nets...)
	for _, l := range s.Labels {
		replaced := false
		for i := range p.Labels {
			if p.Labels[i].ID == l.ID {
				p.Labels[i] = l
				replaced = true
				break
			}
		}
		if !replaced {
			p.Labels = append(p.Labels, l)
		}
	}
}
