package bill

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// The helpers below give every payload type a canonical, deterministic wire
// encoding (length-prefixed strings, big-endian fixed-width integers),
// mirroring lnwire's WriteElements/ReadElements convention for a closed set
// of message shapes. Each payload's Encode/Decode method is a straight-line
// sequence of these calls, in field order, so re-encoding a decoded value
// reproduces the original bytes exactly.

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeUint64(w io.Writer, v uint64) error {
	return binary.Write(w, binary.BigEndian, v)
}

func readUint64(r io.Reader) (uint64, error) {
	var v uint64
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}

func writeBool(w io.Writer, b bool) error {
	var v uint8
	if b {
		v = 1
	}
	return binary.Write(w, binary.BigEndian, v)
}

func readBool(r io.Reader) (bool, error) {
	var v uint8
	if err := binary.Read(r, binary.BigEndian, &v); err != nil {
		return false, err
	}
	return v != 0, nil
}

func writePostalAddress(w io.Writer, a PostalAddress) error {
	for _, s := range []string{a.Country, a.City, a.ZIP, a.Address} {
		if err := writeString(w, s); err != nil {
			return err
		}
	}
	return nil
}

func readPostalAddress(r io.Reader) (PostalAddress, error) {
	var a PostalAddress
	var err error
	if a.Country, err = readString(r); err != nil {
		return a, err
	}
	if a.City, err = readString(r); err != nil {
		return a, err
	}
	if a.ZIP, err = readString(r); err != nil {
		return a, err
	}
	if a.Address, err = readString(r); err != nil {
		return a, err
	}
	return a, nil
}

func writeParticipant(w io.Writer, p Participant) error {
	if err := binary.Write(w, binary.BigEndian, uint8(p.Type)); err != nil {
		return err
	}
	for _, s := range []string{p.NodeID, p.Name} {
		if err := writeString(w, s); err != nil {
			return err
		}
	}
	if err := writePostalAddress(w, p.PostalAddress); err != nil {
		return err
	}
	for _, s := range []string{p.Email, p.NostrRelay} {
		if err := writeString(w, s); err != nil {
			return err
		}
	}
	return nil
}

func readParticipant(r io.Reader) (Participant, error) {
	var p Participant
	var typ uint8
	if err := binary.Read(r, binary.BigEndian, &typ); err != nil {
		return p, err
	}
	p.Type = ParticipantType(typ)
	var err error
	if p.NodeID, err = readString(r); err != nil {
		return p, err
	}
	if p.Name, err = readString(r); err != nil {
		return p, err
	}
	if p.PostalAddress, err = readPostalAddress(r); err != nil {
		return p, err
	}
	if p.Email, err = readString(r); err != nil {
		return p, err
	}
	if p.NostrRelay, err = readString(r); err != nil {
		return p, err
	}
	return p, nil
}

func writeOptionalParticipant(w io.Writer, p *Participant) error {
	if err := writeBool(w, p != nil); err != nil {
		return err
	}
	if p == nil {
		return nil
	}
	return writeParticipant(w, *p)
}

func readOptionalParticipant(r io.Reader) (*Participant, error) {
	present, err := readBool(r)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	p, err := readParticipant(r)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func writeFile(w io.Writer, f File) error {
	for _, s := range []string{f.Name, f.MimeType, f.Hash, f.EncryptedData} {
		if err := writeString(w, s); err != nil {
			return err
		}
	}
	return nil
}

func readFile(r io.Reader) (File, error) {
	var f File
	var err error
	if f.Name, err = readString(r); err != nil {
		return f, err
	}
	if f.MimeType, err = readString(r); err != nil {
		return f, err
	}
	if f.Hash, err = readString(r); err != nil {
		return f, err
	}
	if f.EncryptedData, err = readString(r); err != nil {
		return f, err
	}
	return f, nil
}

func writeFiles(w io.Writer, files []File) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(files))); err != nil {
		return err
	}
	for _, f := range files {
		if err := writeFile(w, f); err != nil {
			return err
		}
	}
	return nil
}

func readFiles(r io.Reader) ([]File, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	files := make([]File, n)
	for i := range files {
		f, err := readFile(r)
		if err != nil {
			return nil, err
		}
		files[i] = f
	}
	return files, nil
}

// encode runs enc against a fresh buffer and returns its bytes, wrapping any
// error with the payload's op code for context.
func encode(op OpCode, enc func(io.Writer) error) ([]byte, error) {
	var buf bytes.Buffer
	if err := enc(&buf); err != nil {
		return nil, fmt.Errorf("bill: encode %s payload: %w", op, err)
	}
	return buf.Bytes(), nil
}

func decode(op OpCode, data []byte, dec func(io.Reader) error) error {
	if err := dec(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("bill: decode %s payload: %w", op, err)
	}
	return nil
}
