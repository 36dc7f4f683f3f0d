package photon

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/yafaray/yafacore/pkg/color"
	"github.com/yafaray/yafacore/pkg/rayerr"
	"github.com/yafaray/yafacore/pkg/vec3"
)

const (
	magic          = "YPM1"
	formatVersion  = uint16(1)
	recordSize     = 4 * 10 // 3f32 pos + 3f32 dir + 3f32 power + 1f32 time
)

// Header is the self-describing prefix of a persisted photon map file
// (spec.md §6 "header {magic='YPM1', version:u16, nPhotons:u32, nPaths:u32}").
type Header struct {
	Version  uint16
	NPhotons uint32
	NPaths   uint32
}

// Save writes m to path in the binary format spec.md §6 names.
func Save(m *Map, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return rayerr.Wrap(rayerr.IOError, "create photon map file", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	if _, err := w.WriteString(magic); err != nil {
		return rayerr.Wrap(rayerr.IOError, "write magic", err)
	}
	if err := binary.Write(w, binary.LittleEndian, formatVersion); err != nil {
		return rayerr.Wrap(rayerr.IOError, "write version", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(m.nodes))); err != nil {
		return rayerr.Wrap(rayerr.IOError, "write photon count", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(m.nPaths)); err != nil {
		return rayerr.Wrap(rayerr.IOError, "write path count", err)
	}
	for _, n := range m.nodes {
		if err := writeRecord(w, n.photon); err != nil {
			return rayerr.Wrap(rayerr.IOError, "write photon record", err)
		}
	}
	return w.Flush()
}

func writeRecord(w io.Writer, p Photon) error {
	var buf [10]float32
	buf[0], buf[1], buf[2] = float32(p.Pos.X), float32(p.Pos.Y), float32(p.Pos.Z)
	buf[3], buf[4], buf[5] = float32(p.DirIn.X), float32(p.DirIn.Y), float32(p.DirIn.Z)
	buf[6], buf[7], buf[8] = float32(p.Power.R), float32(p.Power.G), float32(p.Power.B)
	buf[9] = float32(p.Time)
	return binary.Write(w, binary.LittleEndian, buf)
}

func readRecord(r io.Reader) (Photon, error) {
	var buf [10]float32
	if err := binary.Read(r, binary.LittleEndian, &buf); err != nil {
		return Photon{}, err
	}
	return Photon{
		Pos:   vec3.New(float64(buf[0]), float64(buf[1]), float64(buf[2])),
		DirIn: vec3.New(float64(buf[3]), float64(buf[4]), float64(buf[5])),
		Power: color.New(float64(buf[6]), float64(buf[7]), float64(buf[8])),
		Time:  float64(buf[9]),
	}, nil
}

// readHeader reads just the header of a persisted photon map file, used by
// HeaderCache so repeated probes against the same file don't re-read the
// full photon payload.
func readHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, rayerr.Wrap(rayerr.IOError, "open photon map file", err)
	}
	defer f.Close()
	r := bufio.NewReader(f)

	var magicBuf [4]byte
	if _, err := io.ReadFull(r, magicBuf[:]); err != nil {
		return Header{}, rayerr.Wrap(rayerr.IOError, "read magic", err)
	}
	if string(magicBuf[:]) != magic {
		return Header{}, rayerr.New(rayerr.IOError, "photon map file: bad magic")
	}
	var hdr Header
	if err := binary.Read(r, binary.LittleEndian, &hdr.Version); err != nil {
		return Header{}, rayerr.Wrap(rayerr.IOError, "read version", err)
	}
	if hdr.Version != formatVersion {
		return Header{}, rayerr.New(rayerr.IOError, "photon map file: version mismatch")
	}
	if err := binary.Read(r, binary.LittleEndian, &hdr.NPhotons); err != nil {
		return Header{}, rayerr.Wrap(rayerr.IOError, "read photon count", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &hdr.NPaths); err != nil {
		return Header{}, rayerr.Wrap(rayerr.IOError, "read path count", err)
	}
	return hdr, nil
}

// Load reads a persisted photon map, rebalancing the kd-tree from the
// stored flat photon list. It rejects a file whose magic or version
// mismatches (spec.md §6 "the loader must verify magic and version",
// §7 "corrupted photon files: bail out of load, regenerate").
func Load(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, rayerr.Wrap(rayerr.IOError, "open photon map file", err)
	}
	defer f.Close()
	r := bufio.NewReader(f)

	var magicBuf [4]byte
	if _, err := io.ReadFull(r, magicBuf[:]); err != nil {
		return nil, rayerr.Wrap(rayerr.IOError, "read magic", err)
	}
	if string(magicBuf[:]) != magic {
		return nil, rayerr.New(rayerr.IOError, "photon map file: bad magic")
	}
	var hdr Header
	if err := binary.Read(r, binary.LittleEndian, &hdr.Version); err != nil {
		return nil, rayerr.Wrap(rayerr.IOError, "read version", err)
	}
	if hdr.Version != formatVersion {
		return nil, rayerr.New(rayerr.IOError, "photon map file: version mismatch")
	}
	if err := binary.Read(r, binary.LittleEndian, &hdr.NPhotons); err != nil {
		return nil, rayerr.Wrap(rayerr.IOError, "read photon count", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &hdr.NPaths); err != nil {
		return nil, rayerr.Wrap(rayerr.IOError, "read path count", err)
	}

	photons := make([]Photon, hdr.NPhotons)
	for i := range photons {
		p, err := readRecord(r)
		if err != nil {
			return nil, rayerr.Wrap(rayerr.IOError, "read photon record", err)
		}
		photons[i] = p
	}
	return Build(photons, int(hdr.NPaths)), nil
}
