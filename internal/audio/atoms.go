package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// errMalformedAtom is returned when an MP4 box tree does not add up.
var errMalformedAtom = errors.New("audio: malformed mp4 atom")

// atom is one MP4 box inside a byte buffer.
type atom struct {
	name   string
	offset int // position of the size field
	size   int
	header int // 8, or 16 with a 64-bit size
}

func (a atom) end() int { return a.offset + a.size }

// parseAtoms lists the boxes laid out back to back in buf[start:end].
func parseAtoms(buf []byte, start, end int) ([]atom, error) {
	var atoms []atom
	for off := start; off < end; {
		if end-off < 8 {
			return nil, fmt.Errorf("%w: truncated header at %d", errMalformedAtom, off)
		}
		size := int(binary.BigEndian.Uint32(buf[off:]))
		header := 8
		switch size {
		case 0:
			size = end - off
		case 1:
			if end-off < 16 {
				return nil, fmt.Errorf("%w: truncated header at %d", errMalformedAtom, off)
			}
			size = int(binary.BigEndian.Uint64(buf[off+8:]))
			header = 16
		}
		if size < header || size > end-off {
			return nil, fmt.Errorf("%w: bad size %d at %d", errMalformedAtom, size, off)
		}
		atoms = append(atoms, atom{name: string(buf[off+4 : off+8]), offset: off, size: size, header: header})
		off += size
	}
	return atoms, nil
}

// childAtoms lists the boxes nested in parent. meta is a full box and
// carries four bytes of version and flags before its children.
func childAtoms(buf []byte, parent atom) ([]atom, error) {
	start := parent.offset + parent.header
	if parent.name == "meta" {
		start += 4
	}
	if start > parent.end() {
		return nil, fmt.Errorf("%w: %s too short", errMalformedAtom, parent.name)
	}
	return parseAtoms(buf, start, parent.end())
}

func findAtom(atoms []atom, name string) (atom, bool) {
	for _, a := range atoms {
		if a.name == name {
			return a, true
		}
	}
	return atom{}, false
}

// atomPath follows names down from the boxes in buf[start:end].
func atomPath(buf []byte, start, end int, names ...string) (atom, error) {
	level, err := parseAtoms(buf, start, end)
	if err != nil {
		return atom{}, err
	}
	var found atom
	for i, name := range names {
		var ok bool
		if found, ok = findAtom(level, name); !ok {
			return atom{}, fmt.Errorf("%w: no %s box", errMalformedAtom, name)
		}
		if i < len(names)-1 {
			if level, err = childAtoms(buf, found); err != nil {
				return atom{}, err
			}
		}
	}
	return found, nil
}

// cpilAtom builds an ilst item holding the compilation flag: a data box
// of type 21 (integer) with a single byte value.
func cpilAtom(on bool) []byte {
	b := make([]byte, 25)
	binary.BigEndian.PutUint32(b[0:], 25)
	copy(b[4:], "cpil")
	binary.BigEndian.PutUint32(b[8:], 17)
	copy(b[12:], "data")
	binary.BigEndian.PutUint32(b[16:], 21)
	b[24] = flagByte(on)
	return b
}

func flagByte(on bool) byte {
	if on {
		return 1
	}
	return 0
}

// withCompilation returns moov with cpil set under udta.meta.ilst and how
// many bytes it grew by. An existing cpil is updated in place.
func withCompilation(moov []byte, on bool) ([]byte, int, error) {
	root := atom{name: "moov", offset: 0, size: len(moov), header: 8}
	parents := make([]atom, 0, 3)
	parent := root
	for _, name := range []string{"udta", "meta", "ilst"} {
		children, err := childAtoms(moov, parent)
		if err != nil {
			return nil, 0, err
		}
		next, ok := findAtom(children, name)
		if !ok {
			return nil, 0, fmt.Errorf("%w: no %s box", errMalformedAtom, name)
		}
		parents = append(parents, next)
		parent = next
	}
	ilst := parent

	items, err := childAtoms(moov, ilst)
	if err != nil {
		return nil, 0, err
	}
	if cpil, ok := findAtom(items, "cpil"); ok {
		data, err := atomPath(moov, cpil.offset+cpil.header, cpil.end(), "data")
		if err != nil {
			return nil, 0, err
		}
		if data.size < data.header+9 {
			return nil, 0, fmt.Errorf("%w: empty cpil data", errMalformedAtom)
		}
		moov[data.offset+data.header+8] = flagByte(on)
		return moov, 0, nil
	}

	item := cpilAtom(on)
	for _, a := range append([]atom{root}, parents...) {
		if a.header != 8 {
			return nil, 0, fmt.Errorf("%w: 64-bit %s size", errMalformedAtom, a.name)
		}
		binary.BigEndian.PutUint32(moov[a.offset:], uint32(a.size+len(item)))
	}

	out := make([]byte, 0, len(moov)+len(item))
	out = append(out, moov[:ilst.end()]...)
	out = append(out, item...)
	out = append(out, moov[ilst.end():]...)
	return out, len(item), nil
}

// shiftChunkOffsets adds delta to every stco and co64 entry of every track.
func shiftChunkOffsets(moov []byte, delta int) error {
	root := atom{name: "moov", offset: 0, size: len(moov), header: 8}
	top, err := childAtoms(moov, root)
	if err != nil {
		return err
	}
	for _, trak := range top {
		if trak.name != "trak" {
			continue
		}
		stbl, err := atomPath(moov, trak.offset+trak.header, trak.end(), "mdia", "minf", "stbl")
		if err != nil {
			return err
		}
		tables, err := childAtoms(moov, stbl)
		if err != nil {
			return err
		}
		for _, table := range tables {
			width := 0
			switch table.name {
			case "stco":
				width = 4
			case "co64":
				width = 8
			default:
				continue
			}
			body := table.offset + table.header
			if table.size < table.header+8 {
				return fmt.Errorf("%w: short %s", errMalformedAtom, table.name)
			}
			count := int(binary.BigEndian.Uint32(moov[body+4:]))
			entries := body + 8
			if count*width > table.end()-entries {
				return fmt.Errorf("%w: %s entry count %d", errMalformedAtom, table.name, count)
			}
			for i := 0; i < count; i++ {
				at := entries + i*width
				if width == 4 {
					binary.BigEndian.PutUint32(moov[at:], uint32(int(binary.BigEndian.Uint32(moov[at:]))+delta))
				} else {
					binary.BigEndian.PutUint64(moov[at:], uint64(int(binary.BigEndian.Uint64(moov[at:]))+delta))
				}
			}
		}
	}
	return nil
}

// topLevelAtoms lists the boxes of an MP4 file without reading their bodies.
func topLevelAtoms(r io.ReaderAt, size int64) ([]atom, error) {
	var atoms []atom
	head := make([]byte, 16)
	for off := int64(0); off < size; {
		if _, err := r.ReadAt(head[:8], off); err != nil {
			return nil, fmt.Errorf("%w: header at %d: %v", errMalformedAtom, off, err)
		}
		boxSize := int64(binary.BigEndian.Uint32(head))
		header := 8
		switch boxSize {
		case 0:
			boxSize = size - off
		case 1:
			if _, err := r.ReadAt(head[8:16], off+8); err != nil {
				return nil, fmt.Errorf("%w: header at %d: %v", errMalformedAtom, off, err)
			}
			boxSize = int64(binary.BigEndian.Uint64(head[8:]))
			header = 16
		}
		if boxSize < int64(header) || boxSize > size-off {
			return nil, fmt.Errorf("%w: bad size %d at %d", errMalformedAtom, boxSize, off)
		}
		atoms = append(atoms, atom{name: string(head[4:8]), offset: int(off), size: int(boxSize), header: header})
		off += boxSize
	}
	return atoms, nil
}

// setCompilation writes the cpil flag of the MP4 file at path. When the
// flag has to be inserted the file is rewritten through a temp file next
// to it, and chunk offsets are moved if the media data follows moov.
func setCompilation(path string, on bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	top, err := topLevelAtoms(f, info.Size())
	if err != nil {
		return err
	}
	moovBox, ok := findAtom(top, "moov")
	if !ok || moovBox.header != 8 {
		return fmt.Errorf("%w: no usable moov box", errMalformedAtom)
	}

	moov := make([]byte, moovBox.size)
	if _, err := f.ReadAt(moov, int64(moovBox.offset)); err != nil {
		return fmt.Errorf("read moov: %w", err)
	}
	moov, grown, err := withCompilation(moov, on)
	if err != nil {
		return err
	}

	if grown == 0 {
		out, err := os.OpenFile(path, os.O_WRONLY, 0)
		if err != nil {
			return err
		}
		if _, err := out.WriteAt(moov, int64(moovBox.offset)); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	}

	if mdat, ok := findAtom(top, "mdat"); ok && mdat.offset > moovBox.offset {
		if err := shiftChunkOffsets(moov, grown); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tagging-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	tail := int64(moovBox.end())
	_, err = io.Copy(tmp, io.NewSectionReader(f, 0, int64(moovBox.offset)))
	if err == nil {
		_, err = tmp.Write(moov)
	}
	if err == nil {
		_, err = io.Copy(tmp, io.NewSectionReader(f, tail, info.Size()-tail))
	}
	if err == nil {
		err = tmp.Chmod(info.Mode().Perm())
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("rewrite %s: %w", path, err)
	}
	f.Close()
	return os.Rename(tmp.Name(), path)
}
