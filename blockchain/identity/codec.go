package identity

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

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

func encodeSignPersonBill(d SignPersonBillBlockData) ([]byte, error) {
	var buf bytes.Buffer
	for _, s := range []string{d.BillID, d.BlockHash, d.OperationCode} {
		if err := writeString(&buf, s); err != nil {
			return nil, err
		}
	}
	if err := writeUint64(&buf, d.BlockID); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeSignPersonBill(data []byte) (SignPersonBillBlockData, error) {
	var d SignPersonBillBlockData
	r := bytes.NewReader(data)
	var err error
	if d.BillID, err = readString(r); err != nil {
		return d, err
	}
	if d.BlockHash, err = readString(r); err != nil {
		return d, err
	}
	if d.OperationCode, err = readString(r); err != nil {
		return d, err
	}
	if d.BlockID, err = readUint64(r); err != nil {
		return d, err
	}
	return d, nil
}

func encodeSignCompanyBill(d SignCompanyBillBlockData) ([]byte, error) {
	var buf bytes.Buffer
	for _, s := range []string{d.CompanyID, d.BillID, d.BlockHash, d.OperationCode} {
		if err := writeString(&buf, s); err != nil {
			return nil, err
		}
	}
	if err := writeUint64(&buf, d.BlockID); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeSignCompanyBill(data []byte) (SignCompanyBillBlockData, error) {
	var d SignCompanyBillBlockData
	r := bytes.NewReader(data)
	var err error
	if d.CompanyID, err = readString(r); err != nil {
		return d, err
	}
	if d.BillID, err = readString(r); err != nil {
		return d, err
	}
	if d.BlockHash, err = readString(r); err != nil {
		return d, err
	}
	if d.OperationCode, err = readString(r); err != nil {
		return d, err
	}
	if d.BlockID, err = readUint64(r); err != nil {
		return d, err
	}
	return d, nil
}

func encodeCreate(d CreateBlockData) ([]byte, error) {
	var buf bytes.Buffer
	for _, s := range []string{d.NodeID, d.Name, d.Email} {
		if err := writeString(&buf, s); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func decodeCreate(data []byte) (CreateBlockData, error) {
	var d CreateBlockData
	r := bytes.NewReader(data)
	var err error
	if d.NodeID, err = readString(r); err != nil {
		return d, err
	}
	if d.Name, err = readString(r); err != nil {
		return d, err
	}
	if d.Email, err = readString(r); err != nil {
		return d, err
	}
	return d, nil
}

// DecodeSignPersonBill exposes decodeSignPersonBill to callers outside the
// package that need to inspect an already-decrypted block payload (the
// cross-chain link repair routine's idempotency check).
func DecodeSignPersonBill(data []byte) (SignPersonBillBlockData, error) {
	return decodeSignPersonBill(data)
}

// DecodeSignCompanyBill exposes decodeSignCompanyBill to callers outside the
// package, for the same reason as DecodeSignPersonBill.
func DecodeSignCompanyBill(data []byte) (SignCompanyBillBlockData, error) {
	return decodeSignCompanyBill(data)
}

// decodeBillID extracts just the bill id from a SignPersonBill or
// SignCompanyBill payload, for chain walks that only need to know which
// bills an identity has touched.
func decodeBillID(op OpCode, data []byte) (string, error) {
	switch op {
	case OpSignPersonBill:
		d, err := decodeSignPersonBill(data)
		return d.BillID, err
	case OpSignCompanyBill:
		d, err := decodeSignCompanyBill(data)
		return d.BillID, err
	default:
		return "", fmt.Errorf("identity: op code %q does not carry a bill id", op)
	}
}
