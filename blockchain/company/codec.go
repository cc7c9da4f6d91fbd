package company

import (
	"bytes"
	"encoding/binary"
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

func encodeCreate(d CreateBlockData) ([]byte, error) {
	var buf bytes.Buffer
	for _, s := range []string{d.CompanyID, d.Name, d.Email, d.InitialSignatory} {
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
	if d.CompanyID, err = readString(r); err != nil {
		return d, err
	}
	if d.Name, err = readString(r); err != nil {
		return d, err
	}
	if d.Email, err = readString(r); err != nil {
		return d, err
	}
	if d.InitialSignatory, err = readString(r); err != nil {
		return d, err
	}
	return d, nil
}

func encodeAddSignatory(d AddSignatoryBlockData) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeString(&buf, d.SignatoryNodeID); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeAddSignatory(data []byte) (AddSignatoryBlockData, error) {
	var d AddSignatoryBlockData
	var err error
	d.SignatoryNodeID, err = readString(bytes.NewReader(data))
	return d, err
}

func encodeRemoveSignatory(d RemoveSignatoryBlockData) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeString(&buf, d.SignatoryNodeID); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRemoveSignatory(data []byte) (RemoveSignatoryBlockData, error) {
	var d RemoveSignatoryBlockData
	var err error
	d.SignatoryNodeID, err = readString(bytes.NewReader(data))
	return d, err
}

func encodeSignCompanyBill(d SignCompanyBillBlockData) ([]byte, error) {
	var buf bytes.Buffer
	for _, s := range []string{d.BillID, d.BlockHash, d.OperationCode, d.SignatoryNodeID} {
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
	if d.BillID, err = readString(r); err != nil {
		return d, err
	}
	if d.BlockHash, err = readString(r); err != nil {
		return d, err
	}
	if d.OperationCode, err = readString(r); err != nil {
		return d, err
	}
	if d.SignatoryNodeID, err = readString(r); err != nil {
		return d, err
	}
	if d.BlockID, err = readUint64(r); err != nil {
		return d, err
	}
	return d, nil
}

// DecodeSignCompanyBill exposes decodeSignCompanyBill to callers outside the
// package that need to inspect an already-decrypted block payload (the
// cross-chain link repair routine's idempotency check).
func DecodeSignCompanyBill(data []byte) (SignCompanyBillBlockData, error) {
	return decodeSignCompanyBill(data)
}
