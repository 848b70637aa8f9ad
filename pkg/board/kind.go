package board

import "fmt"

// PartKind identifies the component family of a part.
type PartKind string

const (
	KindResistor      PartKind = "resistor"
	KindCapacitor     PartKind = "capacitor"
	KindElectrolytic  PartKind = "electrolytic"
	KindCeramic       PartKind = "ceramic"
	KindDiode         PartKind = "diode"
	KindLED           PartKind = "led"
	KindTransistor    PartKind = "transistor"
	KindPotentiometer PartKind = "potentiometer"
	KindSwitch        PartKind = "switch"
	KindJack          PartKind = "jack"
	KindIC            PartKind = "ic"
	KindHeader        PartKind = "header"
	KindJumper        PartKind = "jumper"
	KindGeneric       PartKind = "generic"
)

// PartKinds lists every known kind.
var PartKinds = []PartKind{
	KindResistor, KindCapacitor, KindElectrolytic, KindCeramic,
	KindDiode, KindLED, KindTransistor, KindPotentiometer,
	KindSwitch, KindJack, KindIC, KindHeader, KindJumper, KindGeneric,
}

// ParsePartKind validates a kind name.
func ParsePartKind(s string) (PartKind, error) {
	for _, k := range PartKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("board: unknown part kind %q", s)
}

// DefaultFootprint returns the footprint a freshly created part of kind gets.
func DefaultFootprint(kind PartKind) Footprint {
	switch kind {
	case KindResistor:
		return Inline2(4)
	case KindCapacitor, KindCeramic:
		return Inline2(2)
	case KindElectrolytic:
		return Inline2(2, "+", "-")
	case KindDiode:
		return Inline2(4, "A", "K")
	case KindLED:
		return Inline2(1, "A", "K")
	case KindJumper:
		return Inline2(3)
	case KindTransistor, KindPotentiometer, KindSwitch, KindJack:
		// pin names default by kind in the resolver
		return TO92Inline3()
	case KindIC:
		return DIP(8, DefaultDIPRowSpan)
	default:
		return Single()
	}
}

// ConvertPart changes the kind of a part. ID, reference, value, placement and
// properties are retained; the footprint and its pin defaults are regenerated
// for the new kind.
func ConvertPart(p Part, kind PartKind) Part {
	out := p.Clone()
	out.Kind = kind
	out.Footprint = DefaultFootprint(kind)
	return out
}
