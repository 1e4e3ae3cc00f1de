package decoded

import (
	"fmt"
	"strings"

	"github.com/wudi/nitfkit/ir/raw"
	"github.com/wudi/nitfkit/observability"
	"github.com/wudi/nitfkit/scanner"
	"github.com/wudi/nitfkit/schema"
)

// ReadTRE decodes payload with rec and appends the values to md under
// the record md_prefix. Size mismatches are logged; the returned error
// is the first problem the recovery strategy refused.
func (d *Decoder) ReadTRE(md *raw.Metadata, rec *schema.Record, payload []byte) error {
	st := d.newState("TRE", rec.Name, payload, 0, md)
	if rec.Length > 0 && len(payload) != rec.Length {
		d.log.Warn("TRE wrong size", observability.String("tre", rec.Name),
			observability.Int("size", len(payload)), observability.Int("expected", rec.Length))
	}
	if rec.MinLength > 0 && len(payload) < rec.MinLength {
		d.log.Warn("TRE shorter than minimum", observability.String("tre", rec.Name),
			observability.Int("size", len(payload)), observability.Int("min", rec.MinLength))
	}

	d.walk(st, rec.Children, rec.MDPrefix, nil)

	if !st.failed && rec.Length > 0 && st.pos != rec.Length {
		d.log.Warn("inconsistent declaration of TRE", observability.String("tre", rec.Name))
	}
	if st.pos < len(payload) {
		d.log.Debug("remaining bytes at end of TRE", observability.String("tre", rec.Name),
			observability.Int("remaining", len(payload)-st.pos))
	}
	return st.err
}

// TreeTRE decodes payload into a <tre> tree. The flag reports whether
// any size, decoding or trailing-byte problem was found.
func (d *Decoder) TreeTRE(rec *schema.Record, payload []byte) (*Node, bool, error) {
	st := d.newState("TRE", rec.Name, payload, 0, nil)
	out := newNode("tre", "name", rec.Name)
	gotError := false

	if rec.Length > 0 && len(payload) != rec.Length {
		msg := fmt.Sprintf("%s TRE wrong size (%d). Expected %d.", rec.Name, len(payload), rec.Length)
		out.addText(d.report(st, fmt.Errorf("%w: %s", ErrRecordSize, msg)), msg)
		gotError = true
	}
	if rec.MinLength > 0 && len(payload) < rec.MinLength {
		msg := fmt.Sprintf("%s TRE wrong size (%d). Expected >= %d.", rec.Name, len(payload), rec.MinLength)
		out.addText(d.report(st, fmt.Errorf("%w: %s", ErrRecordSize, msg)), msg)
		gotError = true
	}

	d.walk(st, rec.Children, rec.MDPrefix, out)

	if !st.failed && rec.Length > 0 && st.pos != rec.Length {
		d.log.Warn("inconsistent declaration of TRE", observability.String("tre", rec.Name))
	}
	if st.pos < len(payload) {
		msg := fmt.Sprintf("%d remaining bytes at end of %s TRE", len(payload)-st.pos, rec.Name)
		out.addText(d.report(st, fmt.Errorf("%w: %s", ErrRecordSize, msg)), msg)
	}
	return out, gotError || st.failed, st.err
}

// CreateXMLTre decodes a TRE of f by name. It returns a nil node when the
// schema has no definition for name.
func (d *Decoder) CreateXMLTre(f *raw.File, name string, payload []byte) (*Node, bool, error) {
	spec, err := f.Spec()
	if err != nil {
		return nil, false, err
	}
	rec := spec.TRE(name)
	if rec == nil {
		if !(len(name) >= 3 && strings.EqualFold(name[:3], "RPF")) && name != "XXXXXX" {
			d.log.Debug("cannot find TRE definition", observability.String("tre", name),
				observability.String("schema", schema.FileName))
		}
		return nil, false, nil
	}
	return d.TreeTRE(rec, payload)
}

// TreeDESUserSubheader decodes the user defined subheader fields of des.
// Decoding starts at the user subheader offset with the DES subheader
// metadata in scope; DESSHL bounds the section.
func (d *Decoder) TreeDESUserSubheader(def *schema.DES, des *raw.DES) (*Node, bool, error) {
	md := des.Metadata.Clone()
	return d.userSubheader(def, des, &md)
}

func (d *Decoder) userSubheader(def *schema.DES, des *raw.DES, md *raw.Metadata) (*Node, bool, error) {
	if def == nil || def.Subheader == nil {
		return nil, false, nil
	}
	rec := def.Subheader
	start := des.UserSubheaderOffset
	st := d.newState("DES", def.Name, des.Header, start, md)
	out := newNode("user_defined_fields")
	gotError := false

	d.walk(st, rec.Children, "", out)

	desshl := scanner.Atoi(des.Metadata.ValueDef("DESSHL", "0"))
	if rec.Length > 0 && desshl != rec.Length {
		msg := fmt.Sprintf("%s DES wrong size (%d). Expected %d.", def.Name, desshl, rec.Length)
		out.addText(d.report(st, fmt.Errorf("%w: %s", ErrRecordSize, msg)), msg)
		gotError = true
	}
	if rec.MinLength > 0 && desshl < rec.MinLength {
		msg := fmt.Sprintf("%s DES wrong size (%d). Expected >= %d.", def.Name, desshl, rec.MinLength)
		out.addText(d.report(st, fmt.Errorf("%w: %s", ErrRecordSize, msg)), msg)
		gotError = true
	}
	if consumed := st.pos - start; consumed < desshl {
		msg := fmt.Sprintf("%d remaining bytes at end of user defined subheader section", desshl-consumed)
		out.addText(d.report(st, fmt.Errorf("%w: %s", ErrRecordSize, msg)), msg)
		st.failed = true
	}
	return out, gotError || st.failed, st.err
}

// TreeDESData decodes the data of des with the subheader metadata in
// scope.
func (d *Decoder) TreeDESData(def *schema.DES, des *raw.DES, data []byte) (*Node, bool, error) {
	md := des.Metadata.Clone()
	return d.dataFields(def, data, &md)
}

func (d *Decoder) dataFields(def *schema.DES, data []byte, md *raw.Metadata) (*Node, bool, error) {
	if def == nil || def.Data == nil {
		return nil, false, nil
	}
	st := d.newState("DES", def.Name, data, 0, md)
	out := newNode("data_fields")

	d.walk(st, def.Data.Children, "", out)

	if st.pos < len(data) {
		msg := fmt.Sprintf("%d remaining bytes at end of data section", len(data)-st.pos)
		out.addText(d.report(st, fmt.Errorf("%w: %s", ErrRecordSize, msg)), msg)
		st.failed = true
	}
	return out, st.failed, st.err
}

// CreateXMLDES decodes DE segment i of f into a <des> tree holding its
// user defined fields and data fields. Values decoded from the user
// subheader are visible to the data fields. A DES without definition
// yields a nil node.
func (d *Decoder) CreateXMLDES(f *raw.File, i int) (*Node, bool, error) {
	des, err := f.DESAccess(i)
	if err != nil {
		return nil, false, err
	}
	spec, err := f.Spec()
	if err != nil {
		return nil, false, err
	}
	def := spec.DES(des.ID)
	if def == nil {
		d.log.Debug("cannot find DES definition", observability.String("des", des.ID),
			observability.String("schema", schema.FileName))
		return nil, false, nil
	}

	out := newNode("des", "name", des.ID)
	md := des.Metadata.Clone()
	sub, gotSub, err := d.userSubheader(def, des, &md)
	if err != nil {
		return nil, true, err
	}
	if sub != nil {
		out.appendChild(sub)
	}
	if def.Data == nil {
		return out, gotSub, nil
	}
	data, err := f.SegmentData(i)
	if err != nil {
		return nil, true, err
	}
	fields, gotData, err := d.dataFields(def, data, &md)
	if err != nil {
		return nil, true, err
	}
	out.appendChild(fields)
	return out, gotSub || gotData, nil
}
