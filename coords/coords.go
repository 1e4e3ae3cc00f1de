// Package coords places segments in the common coordinate system (CCS)
// of a NITF file from their display levels, attachment levels and
// relative locations.
package coords

import (
	"fmt"
	"strings"

	"github.com/wudi/nitfkit/ir/raw"
	"github.com/wudi/nitfkit/observability"
	"github.com/wudi/nitfkit/scanner"
)

const (
	graphicHeaderRead = 298
	graphicHeaderMin  = 258

	// STYPE position in a graphic subheader. The 2.0 layout carries a
	// 40 byte downgrade event when the security block ends with 999998.
	stypeOffset    = 200
	stypeEventMark = 193
	stypeEventSize = 40
)

// CollectAttachments fills DLVL, ALVL and Loc of every image and graphic
// segment. Image subheaders that cannot be parsed are fatal; unreadable
// graphic subheaders are logged and left unknown.
func CollectAttachments(f *raw.File) error {
	log := f.Log()
	for i, seg := range f.Segments {
		switch seg.Type {
		case raw.SegmentImage:
			img, err := f.ImageAccess(i)
			if err != nil {
				return fmt.Errorf("collect attachments: %w", err)
			}
			seg.DLVL = img.IDLVL
			seg.ALVL = img.IALVL
			seg.Loc = img.ILOC
		case raw.SegmentGraphic:
			hdr, err := f.ReadAtMost(seg.HeaderStart, graphicHeaderRead)
			if err != nil || len(hdr) < graphicHeaderMin {
				log.Warn("failed to read graphic subheader",
					observability.Int64("offset", int64(seg.HeaderStart)))
				continue
			}
			collectGraphic(seg, hdr)
		case raw.SegmentLabel, raw.SegmentText, raw.SegmentDataExtension, raw.SegmentReservedExtension:
		}
	}
	return nil
}

func collectGraphic(seg *raw.Segment, hdr []byte) {
	off := stypeOffset
	if len(hdr) >= stypeEventMark+6 && strings.EqualFold(string(hdr[stypeEventMark:stypeEventMark+6]), "999998") {
		off += stypeEventSize
	}
	seg.DLVL = scanner.Atoi(scanner.Field(hdr, off+14, 3))
	seg.ALVL = scanner.Atoi(scanner.Field(hdr, off+17, 3))
	seg.Loc = raw.Location{
		Row: scanner.Atoi(scanner.Field(hdr, off+20, 5)),
		Col: scanner.Atoi(scanner.Field(hdr, off+25, 5)),
	}
}

// Reconcile computes CCS for every segment whose CCS is still unknown.
// Unattached segments (ALVL < 1) are placed at their own location; an
// attached segment is placed at its anchor's CCS plus its own location,
// the anchor being the first segment whose DLVL equals the ALVL.
//
// Passes over the pending segments repeat while at least one new
// placement is made. It reports whether the last pass left no attached
// segment without a resolved anchor.
func Reconcile(segs []*raw.Segment) bool {
	anchors := make(map[int]int, len(segs))
	for i := len(segs) - 1; i >= 0; i-- {
		anchors[segs[i].DLVL] = i
	}

	pending := make([]int, 0, len(segs))
	for i, s := range segs {
		if !s.CCS.Known() {
			pending = append(pending, i)
		}
	}

	for {
		ok, progress := true, false
		next := pending[:0]
		for _, i := range pending {
			s := segs[i]
			if s.ALVL < 1 {
				s.CCS = s.Loc
			} else if j, found := anchors[s.ALVL]; found && segs[j].CCS.Known() {
				s.CCS = segs[j].CCS.Add(s.Loc)
			} else {
				ok = false
			}
			if s.CCS.Known() {
				progress = true
			} else {
				next = append(next, i)
			}
		}
		pending = next
		if ok || !progress {
			return ok
		}
	}
}

// ReconcileFile collects attachments of f and reconciles its segments.
func ReconcileFile(f *raw.File) (bool, error) {
	if err := CollectAttachments(f); err != nil {
		return false, err
	}
	return Reconcile(f.Segments), nil
}
