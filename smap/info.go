package smap

import "fmt"

// StripeInfo describes one stripe record of a blob.
type StripeInfo struct {
	Offset      int // stored offset, header size included
	Type        byte
	Family      Family
	Transparent bool // type is transparency capable
	Shr         uint8
	Known       bool
	Size        int // record bytes, type byte included
}

func (si StripeInfo) String() string {
	if !si.Known {
		return fmt.Sprintf("@%d type %d (unknown)", si.Offset, si.Type)
	}
	t := "opaque"
	if si.Transparent {
		t = "transparent"
	}
	return fmt.Sprintf("@%d type %d family %s %s shr %d, %d bytes", si.Offset, si.Type, si.Family, t, si.Shr, si.Size)
}

// Stripes lists the records of a blob for an image of the given width.
// A record's size runs to the next stripe's record, or to the end of the
// blob for the last one.
func (d *Decoder) Stripes(blob []byte, width int) ([]StripeInfo, error) {
	if width%StripeWidth != 0 {
		return nil, ErrWidth
	}
	stripes := width / StripeWidth
	if len(blob) < stripes*offsetSize {
		return nil, fmt.Errorf("%w: offset table needs %d bytes, have %d", ErrTruncated, stripes*offsetSize, len(blob))
	}

	infos := make([]StripeInfo, stripes)
	for i := range infos {
		off, err := d.offset(blob, i, stripes)
		if err != nil {
			return nil, err
		}
		si := &infos[i]
		si.Offset = off + d.HeaderSize
		si.Type = blob[off]
		si.Family, si.Transparent, si.Shr, si.Known = ParseType(si.Type)
	}
	for i := range infos {
		end := len(blob) + d.HeaderSize
		if i+1 < len(infos) && infos[i+1].Offset > infos[i].Offset {
			end = infos[i+1].Offset
		}
		infos[i].Size = end - infos[i].Offset
	}
	return infos, nil
}

// Stripes lists the records of a blob whose offsets are blob relative.
func Stripes(blob []byte, width int) ([]StripeInfo, error) {
	var d Decoder
	return d.Stripes(blob, width)
}
