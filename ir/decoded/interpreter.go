package decoded

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/wudi/nitfkit/ir/raw"
	"github.com/wudi/nitfkit/observability"
	"github.com/wudi/nitfkit/recovery"
	"github.com/wudi/nitfkit/scanner"
	"github.com/wudi/nitfkit/schema"
)

// decodeState is the cursor shared by one walk over a payload.
type decodeState struct {
	kind string // "TRE" or "DES"
	name string
	data []byte
	pos  int
	md   *raw.Metadata

	// failed stops the walk; err is the first problem the strategy
	// refused to tolerate.
	failed bool
	err    error
}

func (d *Decoder) newState(kind, name string, data []byte, pos int, md *raw.Metadata) *decodeState {
	if md == nil {
		md = &raw.Metadata{}
	}
	return &decodeState{kind: kind, name: name, data: data, pos: pos, md: md}
}

// report hands err to the strategy and returns the annotation kind.
func (d *Decoder) report(st *decodeState, err error) string {
	loc := recovery.Location{ByteOffset: int64(st.pos), Component: st.kind + " " + st.name}
	if d.recovery.OnError(nil, err, loc) == recovery.ActionFail {
		d.log.Error("decode failed", observability.String("record", loc.Component), observability.Error("err", err))
		if st.err == nil {
			st.err = fmt.Errorf("%s %s: %w", st.kind, st.name, err)
		}
		return "error"
	}
	d.log.Warn("decode problem", observability.String("record", loc.Component), observability.Error("err", err))
	return "warning"
}

func (d *Decoder) fail(st *decodeState, err error) {
	d.report(st, err)
	st.failed = true
}

func (d *Decoder) walk(st *decodeState, nodes []schema.Node, prefix string, out *Node) {
	for _, n := range nodes {
		if st.failed {
			return
		}
		switch n := n.(type) {
		case *schema.Field:
			d.field(st, n, prefix, out)
		case *schema.Loop:
			d.loop(st, n, prefix, out)
		case *schema.If:
			if !n.HasCond {
				d.fail(st, fmt.Errorf("%w: if without 'cond' attribute", ErrSchema))
				return
			}
			ok, err := d.evalCond(st, n.Cond, prefix)
			if err != nil {
				d.fail(st, err)
				return
			}
			if ok {
				d.walk(st, n.Children, prefix, out)
			}
		case *schema.IfRemainingBytes:
			if st.pos < len(st.data) {
				d.walk(st, n.Children, prefix, out)
			}
		}
	}
}

// fieldLength resolves length_var: the key at the current level first,
// otherwise the last key containing the variable name.
func fieldLength(st *decodeState, f *schema.Field, prefix string) int {
	if f.Length >= 0 || f.LengthVar == "" {
		return f.Length
	}
	if v, ok := st.md.Get(prefix + f.LengthVar); ok {
		return scanner.Atoi(v)
	}
	length := -1
	st.md.Each(func(key, value string) bool {
		if strings.Contains(key, f.LengthVar) {
			length = scanner.Atoi(value)
		}
		return true
	})
	return length
}

func (d *Decoder) field(st *decodeState, f *schema.Field, prefix string, out *Node) {
	length := fieldLength(st, f, prefix)
	if length <= 0 {
		d.fail(st, fmt.Errorf("%w: invalid item construct", ErrSchema))
		return
	}
	if !f.HasName {
		st.pos += length
		return
	}
	if st.pos+length > len(st.data) {
		d.fail(st, fmt.Errorf("%w: at least %d needed, only %d available", ErrNotEnoughBytes, st.pos+length, len(st.data)))
		return
	}
	b := st.data[st.pos : st.pos+length]

	var value string
	switch f.Type {
	case "IEEE754_Float32_BigEndian":
		if length != 4 {
			d.fail(st, fmt.Errorf("%w: IEEE754_Float32_BigEndian field must be 4 bytes", ErrSchema))
			return
		}
		value = fmt.Sprintf("%f", float64(math.Float32frombits(binary.BigEndian.Uint32(b))))
	case "UnsignedInt_BigEndian", "bitmask":
		if length > 8 {
			d.fail(st, fmt.Errorf("%w: UnsignedInt/bitmask field must be <= 8 bytes", ErrSchema))
			return
		}
		var v uint64
		for _, c := range b {
			v = v<<8 | uint64(c)
		}
		value = strconv.FormatUint(v, 10)
	case "ISO8859-1":
		value = scanner.Latin1ToUTF8(scanner.TrimRight(b))
	default:
		value = string(scanner.TrimRight(b))
	}
	st.md.Append(prefix+f.Name, value)

	var fieldNode *Node
	if out != nil {
		label := f.Name
		if label == "" && f.LongName != "" {
			label = f.LongName
		}
		fieldNode = out.appendChild(newNode("field", "name", label, "value", value))
	}
	d.checkRange(st, f, value, fieldNode)
	st.pos += length
}

func (d *Decoder) checkRange(st *decodeState, f *schema.Field, value string, fieldNode *Node) {
	check := func(bound string, min bool) {
		if bound == "" {
			return
		}
		ok := true
		switch f.Type {
		case "real":
			v, b := scanner.Atof(value), scanner.Atof(bound)
			ok = (min && v >= b) || (!min && v <= b)
		case "integer":
			v, b := scanner.Atoi64(value), scanner.Atoi64(bound)
			ok = (min && v >= b) || (!min && v <= b)
		}
		if ok {
			return
		}
		which := "Maximum"
		if min {
			which = "Minimum"
		}
		kind := d.report(st, fmt.Errorf("%w: %s value constraint of %s for %s=%s", ErrConstraint, strings.ToLower(which), bound, f.Name, value))
		if fieldNode != nil {
			fieldNode.addText(kind, fmt.Sprintf("%s value constraint of %s not met", which, bound))
		}
	}
	check(f.MinVal, true)
	check(f.MaxVal, false)
}

// triangular maps v*(v+1)/2 formulas to their variable.
var triangular = map[string]string{
	"(NPART+1)*(NPART)/2":               "NPAR",
	"(NUMOPG+1)*(NUMOPG)/2":             "NUMOPG",
	"(NUM_ADJ_PARM+1)*(NUM_ADJ_PARM)/2": "NUM_ADJ_PARM",
	"(N1_CAL+1)*(N1_CAL)/2":             "N1_CAL",
	"(NUM_PARA+1)*(NUM_PARA)/2":         "NUM_PARA",
}

// products maps two-variable product formulas to their operands.
var products = map[string][2]string{
	"NPAR*NPARO":  {"NPAR", "NPARO"},
	"NXPTS*NYPTS": {"NXPTS", "NYPTS"},
}

func counterValue(st *decodeState, prefix, name string) (int, error) {
	v := -1
	if s, ok := st.md.FindFromEnd(prefix + name); ok {
		v = scanner.Atoi(s)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: invalid loop 'counter' %s", ErrSchema, name)
	}
	return v, nil
}

func formulaIterations(st *decodeState, prefix, formula string) (int, error) {
	if ops, ok := products[formula]; ok {
		a, err := counterValue(st, prefix, ops[0])
		if err != nil {
			return 0, err
		}
		b, err := counterValue(st, prefix, ops[1])
		if err != nil {
			return 0, err
		}
		return a * b, nil
	}
	if formula == "NPLN-1" {
		n, err := counterValue(st, prefix, "NPLN")
		if err != nil {
			return 0, err
		}
		return n - 1, nil
	}
	if v, ok := triangular[formula]; ok {
		n, err := counterValue(st, prefix, v)
		if err != nil {
			return 0, err
		}
		return n * (n + 1) / 2, nil
	}
	return 0, fmt.Errorf("%w: missing or invalid loop 'counter', 'iterations' or 'formula'", ErrSchema)
}

// validIndexFormat accepts a prefix with a single %<digits>d verb of
// width at most 10.
func validIndexFormat(p string) bool {
	i := strings.IndexByte(p, '%')
	if i < 0 || strings.IndexByte(p[i+1:], '%') >= 0 {
		return false
	}
	j := i + 1
	for j < len(p) && p[j] >= '0' && p[j] <= '9' {
		j++
	}
	return j < len(p) && p[j] == 'd' && scanner.Atoi(p[i+1:j]) <= 10
}

func (d *Decoder) loop(st *decodeState, l *schema.Loop, prefix string, out *Node) {
	iterations := -1
	switch {
	case l.Counter != "":
		v, ok := findValRecursive(st.md, prefix, l.Counter)
		if ok {
			iterations = scanner.Atoi(v)
		}
		if !ok || iterations < 0 {
			d.fail(st, fmt.Errorf("%w: invalid loop 'counter' %s", ErrSchema, l.Counter))
			return
		}
	case l.HasIterations:
		iterations = scanner.Atoi(l.Iterations)
	case l.Formula != "":
		n, err := formulaIterations(st, prefix, l.Formula)
		if err != nil {
			d.fail(st, err)
			return
		}
		iterations = n
	}
	if iterations <= 0 {
		return
	}

	indexed := l.HasMDPrefix && validIndexFormat(l.MDPrefix)
	var repeated *Node
	if out != nil {
		var attrs []string
		if l.Name != "" {
			attrs = append(attrs, "name", l.Name)
		}
		attrs = append(attrs, "number", strconv.Itoa(iterations))
		repeated = out.appendChild(newNode("repeated", attrs...))
	}

	for i := 0; i < iterations && !st.failed; i++ {
		var sub string
		switch {
		case indexed:
			sub = prefix + fmt.Sprintf(l.MDPrefix, i+1)
		case l.HasMDPrefix:
			sub = fmt.Sprintf("%s%s%04d_", prefix, l.MDPrefix, i+1)
		default:
			sub = fmt.Sprintf("%s%04d_", prefix, i+1)
		}
		var group *Node
		if repeated != nil {
			group = repeated.appendChild(newNode("group", "index", strconv.Itoa(i)))
		}
		before := st.pos
		d.walk(st, l.Children, sub, group)
		if st.pos == before {
			// Every later iteration would read the same nothing.
			d.log.Debug("loop iteration consumed no bytes",
				observability.String("record", st.name),
				observability.Int("iteration", i+1),
				observability.Int("iterations", iterations))
			break
		}
	}
}

// findValRecursive looks var up at the current level, then at each
// enclosing level obtained by cutting prefix on '_', then unscoped.
func findValRecursive(md *raw.Metadata, prefix, name string) (string, bool) {
	if v, ok := md.FindFromEnd(prefix + name); ok {
		return v, true
	}
	s := prefix
	if i := strings.LastIndexByte(s, '_'); i >= 0 {
		s = s[:i]
		for i = strings.LastIndexByte(s, '_'); i >= 0; i = strings.LastIndexByte(s, '_') {
			if v, ok := md.FindFromEnd(s[:i+1] + name); ok {
				return v, true
			}
			s = s[:i]
		}
	}
	return md.FindFromEnd(name)
}

// evalCond evaluates an if condition. Missing variables are false.
func (d *Decoder) evalCond(st *decodeState, cond, prefix string) (bool, error) {
	hasAnd := strings.Contains(cond, " AND ")
	hasOr := strings.Contains(cond, " OR ")
	switch {
	case hasAnd && hasOr:
		return false, fmt.Errorf("%w: condition %q mixes AND and OR", ErrSchema, cond)
	case hasAnd:
		for _, part := range strings.Split(cond, " AND ") {
			ok, err := d.evalCond(st, part, prefix)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case hasOr:
		for _, part := range strings.Split(cond, " OR ") {
			ok, err := d.evalCond(st, part, prefix)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	}

	if i := strings.IndexByte(cond, '='); i >= 0 {
		name, want := cond[:i], cond[i+1:]
		op := "="
		if len(name) > 1 && (name[len(name)-1] == '!' || name[len(name)-1] == '>') {
			op = name[len(name)-1:] + "="
			name = name[:len(name)-1]
		}
		got, ok := findValRecursive(st.md, prefix, name)
		if !ok {
			d.log.Debug("cannot find if cond variable", observability.String("var", name))
			return false, nil
		}
		switch op {
		case "!=":
			return got != want, nil
		case ">=":
			return got >= want, nil
		}
		return got == want, nil
	}

	if i := strings.IndexByte(cond, ':'); i >= 0 {
		name := cond[:i]
		bit := scanner.Atoi(cond[i+1:])
		got, ok := findValRecursive(st.md, prefix, name)
		if !ok {
			d.log.Debug("cannot find if cond variable", observability.String("var", name))
			return false, nil
		}
		if bit < 0 || bit > 63 {
			return false, nil
		}
		return scanner.ScanUint(got)&(1<<uint(bit)) != 0, nil
	}

	return false, fmt.Errorf("%w: invalid 'cond' attribute %q", ErrSchema, cond)
}
