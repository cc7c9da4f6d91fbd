package bill

import (
	"fmt"
	"io"
)

// Payload is the decrypted, decoded content of a block: the op-specific
// facts the block's action recorded. Every concrete payload type below
// implements it.
type Payload interface {
	OpCode() OpCode
	Encode(w io.Writer) error
	Decode(r io.Reader) error
}

// Signer is the trailing triple nearly every payload carries: who signed on
// behalf of the acting participant (nil when the participant signed
// directly, non-nil when a company signatory acted), when, and from where.
type Signer struct {
	Signatory       *Participant
	SigningTimestamp uint64
	SigningAddress   *PostalAddress
}

func writeSigner(w io.Writer, s Signer) error {
	if err := writeOptionalParticipant(w, s.Signatory); err != nil {
		return err
	}
	if err := writeUint64(w, s.SigningTimestamp); err != nil {
		return err
	}
	present := s.SigningAddress != nil
	if err := writeBool(w, present); err != nil {
		return err
	}
	if present {
		return writePostalAddress(w, *s.SigningAddress)
	}
	return nil
}

func readSigner(r io.Reader) (Signer, error) {
	var s Signer
	var err error
	if s.Signatory, err = readOptionalParticipant(r); err != nil {
		return s, err
	}
	if s.SigningTimestamp, err = readUint64(r); err != nil {
		return s, err
	}
	present, err := readBool(r)
	if err != nil {
		return s, err
	}
	if present {
		addr, err := readPostalAddress(r)
		if err != nil {
			return s, err
		}
		s.SigningAddress = &addr
	}
	return s, nil
}

// IssueBlockData is the genesis block's payload: the bill as drawn, in
// full, plus who signed the issuance (the drawer, unless a company
// signatory issued on the drawer's behalf).
type IssueBlockData struct {
	Bill
	Signer
}

func (IssueBlockData) OpCode() OpCode { return OpIssue }

func (d IssueBlockData) Encode(w io.Writer) error {
	fields := []string{
		d.ID, d.CountryOfIssuing, d.CityOfIssuing, d.Currency,
		d.MaturityDate, d.IssueDate, d.CountryOfPayment, d.CityOfPayment,
		d.Language,
	}
	for _, f := range fields {
		if err := writeString(w, f); err != nil {
			return err
		}
	}
	if err := writeParticipant(w, d.Drawee); err != nil {
		return err
	}
	if err := writeParticipant(w, d.Drawer); err != nil {
		return err
	}
	if err := writeParticipant(w, d.Payee); err != nil {
		return err
	}
	if err := writeUint64(w, d.Sum); err != nil {
		return err
	}
	if err := writeFiles(w, d.Files); err != nil {
		return err
	}
	return writeSigner(w, d.Signer)
}

func (d *IssueBlockData) Decode(r io.Reader) error {
	var err error
	if d.ID, err = readString(r); err != nil {
		return err
	}
	if d.CountryOfIssuing, err = readString(r); err != nil {
		return err
	}
	if d.CityOfIssuing, err = readString(r); err != nil {
		return err
	}
	if d.Currency, err = readString(r); err != nil {
		return err
	}
	if d.MaturityDate, err = readString(r); err != nil {
		return err
	}
	if d.IssueDate, err = readString(r); err != nil {
		return err
	}
	if d.CountryOfPayment, err = readString(r); err != nil {
		return err
	}
	if d.CityOfPayment, err = readString(r); err != nil {
		return err
	}
	if d.Language, err = readString(r); err != nil {
		return err
	}
	if d.Drawee, err = readParticipant(r); err != nil {
		return err
	}
	if d.Drawer, err = readParticipant(r); err != nil {
		return err
	}
	if d.Payee, err = readParticipant(r); err != nil {
		return err
	}
	if d.Sum, err = readUint64(r); err != nil {
		return err
	}
	if d.Files, err = readFiles(r); err != nil {
		return err
	}
	d.Signer, err = readSigner(r)
	return err
}

// AcceptBlockData records the drawee's acceptance of the bill.
type AcceptBlockData struct {
	Accepter Participant
	Signer
}

func (AcceptBlockData) OpCode() OpCode { return OpAccept }

func (d AcceptBlockData) Encode(w io.Writer) error {
	if err := writeParticipant(w, d.Accepter); err != nil {
		return err
	}
	return writeSigner(w, d.Signer)
}

func (d *AcceptBlockData) Decode(r io.Reader) error {
	var err error
	if d.Accepter, err = readParticipant(r); err != nil {
		return err
	}
	d.Signer, err = readSigner(r)
	return err
}

// RequestToAcceptBlockData records a holder demanding the drawee accept.
type RequestToAcceptBlockData struct {
	Requester Participant
	Signer
}

func (RequestToAcceptBlockData) OpCode() OpCode { return OpRequestToAccept }

func (d RequestToAcceptBlockData) Encode(w io.Writer) error {
	if err := writeParticipant(w, d.Requester); err != nil {
		return err
	}
	return writeSigner(w, d.Signer)
}

func (d *RequestToAcceptBlockData) Decode(r io.Reader) error {
	var err error
	if d.Requester, err = readParticipant(r); err != nil {
		return err
	}
	d.Signer, err = readSigner(r)
	return err
}

// RequestToPayBlockData records a holder demanding the drawee pay.
type RequestToPayBlockData struct {
	Requester Participant
	Currency  string
	Signer
}

func (RequestToPayBlockData) OpCode() OpCode { return OpRequestToPay }

func (d RequestToPayBlockData) Encode(w io.Writer) error {
	if err := writeParticipant(w, d.Requester); err != nil {
		return err
	}
	if err := writeString(w, d.Currency); err != nil {
		return err
	}
	return writeSigner(w, d.Signer)
}

func (d *RequestToPayBlockData) Decode(r io.Reader) error {
	var err error
	if d.Requester, err = readParticipant(r); err != nil {
		return err
	}
	if d.Currency, err = readString(r); err != nil {
		return err
	}
	d.Signer, err = readSigner(r)
	return err
}

// OfferToSellBlockData records a holder offering to sell the bill to a
// buyer at an agreed sum, over an agreed payment address.
type OfferToSellBlockData struct {
	Seller        Participant
	Buyer         Participant
	Sum           uint64
	Currency      string
	PaymentAddress string
	Signer
}

func (OfferToSellBlockData) OpCode() OpCode { return OpOfferToSell }

func (d OfferToSellBlockData) Encode(w io.Writer) error {
	if err := writeParticipant(w, d.Seller); err != nil {
		return err
	}
	if err := writeParticipant(w, d.Buyer); err != nil {
		return err
	}
	if err := writeUint64(w, d.Sum); err != nil {
		return err
	}
	if err := writeString(w, d.Currency); err != nil {
		return err
	}
	if err := writeString(w, d.PaymentAddress); err != nil {
		return err
	}
	return writeSigner(w, d.Signer)
}

func (d *OfferToSellBlockData) Decode(r io.Reader) error {
	var err error
	if d.Seller, err = readParticipant(r); err != nil {
		return err
	}
	if d.Buyer, err = readParticipant(r); err != nil {
		return err
	}
	if d.Sum, err = readUint64(r); err != nil {
		return err
	}
	if d.Currency, err = readString(r); err != nil {
		return err
	}
	if d.PaymentAddress, err = readString(r); err != nil {
		return err
	}
	d.Signer, err = readSigner(r)
	return err
}

// SellBlockData confirms an offer-to-sell was paid and the bill changes
// hands. Same shape as OfferToSellBlockData; kept as a distinct type since
// the two are never interchangeable at the op-code level.
type SellBlockData struct {
	Seller         Participant
	Buyer          Participant
	Sum            uint64
	Currency       string
	PaymentAddress string
	Signer
}

func (SellBlockData) OpCode() OpCode { return OpSell }

func (d SellBlockData) Encode(w io.Writer) error {
	if err := writeParticipant(w, d.Seller); err != nil {
		return err
	}
	if err := writeParticipant(w, d.Buyer); err != nil {
		return err
	}
	if err := writeUint64(w, d.Sum); err != nil {
		return err
	}
	if err := writeString(w, d.Currency); err != nil {
		return err
	}
	if err := writeString(w, d.PaymentAddress); err != nil {
		return err
	}
	return writeSigner(w, d.Signer)
}

func (d *SellBlockData) Decode(r io.Reader) error {
	var err error
	if d.Seller, err = readParticipant(r); err != nil {
		return err
	}
	if d.Buyer, err = readParticipant(r); err != nil {
		return err
	}
	if d.Sum, err = readUint64(r); err != nil {
		return err
	}
	if d.Currency, err = readString(r); err != nil {
		return err
	}
	if d.PaymentAddress, err = readString(r); err != nil {
		return err
	}
	d.Signer, err = readSigner(r)
	return err
}

// EndorseBlockData transfers the bill from endorser to endorsee without a
// sale (a gift, or settling an unrelated debt).
type EndorseBlockData struct {
	Endorser Participant
	Endorsee Participant
	Signer
}

func (EndorseBlockData) OpCode() OpCode { return OpEndorse }

func (d EndorseBlockData) Encode(w io.Writer) error {
	if err := writeParticipant(w, d.Endorser); err != nil {
		return err
	}
	if err := writeParticipant(w, d.Endorsee); err != nil {
		return err
	}
	return writeSigner(w, d.Signer)
}

func (d *EndorseBlockData) Decode(r io.Reader) error {
	var err error
	if d.Endorser, err = readParticipant(r); err != nil {
		return err
	}
	if d.Endorsee, err = readParticipant(r); err != nil {
		return err
	}
	d.Signer, err = readSigner(r)
	return err
}

// MintBlockData records the bill being endorsed to a minting institution in
// exchange for an advance, at a minting sum that may differ from face value.
type MintBlockData struct {
	Endorser Participant
	Endorsee Participant
	Sum      uint64
	Currency string
	Signer
}

func (MintBlockData) OpCode() OpCode { return OpMint }

func (d MintBlockData) Encode(w io.Writer) error {
	if err := writeParticipant(w, d.Endorser); err != nil {
		return err
	}
	if err := writeParticipant(w, d.Endorsee); err != nil {
		return err
	}
	if err := writeUint64(w, d.Sum); err != nil {
		return err
	}
	if err := writeString(w, d.Currency); err != nil {
		return err
	}
	return writeSigner(w, d.Signer)
}

func (d *MintBlockData) Decode(r io.Reader) error {
	var err error
	if d.Endorser, err = readParticipant(r); err != nil {
		return err
	}
	if d.Endorsee, err = readParticipant(r); err != nil {
		return err
	}
	if d.Sum, err = readUint64(r); err != nil {
		return err
	}
	if d.Currency, err = readString(r); err != nil {
		return err
	}
	d.Signer, err = readSigner(r)
	return err
}

// RequestRecourseBlockData records a holder invoking recourse against a
// past endorsee after the drawee failed to accept or pay.
type RequestRecourseBlockData struct {
	Recourser Participant
	Recoursee Participant
	Sum       uint64
	Currency  string
	Reason    RecourseReason
	Signer
}

func (RequestRecourseBlockData) OpCode() OpCode { return OpRequestRecourse }

func (d RequestRecourseBlockData) Encode(w io.Writer) error {
	if err := writeParticipant(w, d.Recourser); err != nil {
		return err
	}
	if err := writeParticipant(w, d.Recoursee); err != nil {
		return err
	}
	if err := writeUint64(w, d.Sum); err != nil {
		return err
	}
	if err := writeString(w, d.Currency); err != nil {
		return err
	}
	if err := writeBool(w, d.Reason.Accept); err != nil {
		return err
	}
	if err := writeUint64(w, d.Reason.Sum); err != nil {
		return err
	}
	if err := writeString(w, d.Reason.Currency); err != nil {
		return err
	}
	return writeSigner(w, d.Signer)
}

func (d *RequestRecourseBlockData) Decode(r io.Reader) error {
	var err error
	if d.Recourser, err = readParticipant(r); err != nil {
		return err
	}
	if d.Recoursee, err = readParticipant(r); err != nil {
		return err
	}
	if d.Sum, err = readUint64(r); err != nil {
		return err
	}
	if d.Currency, err = readString(r); err != nil {
		return err
	}
	if d.Reason.Accept, err = readBool(r); err != nil {
		return err
	}
	if d.Reason.Sum, err = readUint64(r); err != nil {
		return err
	}
	if d.Reason.Currency, err = readString(r); err != nil {
		return err
	}
	d.Signer, err = readSigner(r)
	return err
}

// RecourseBlockData confirms a recourse payment was made and the bill
// reverts to the recoursee as holder.
type RecourseBlockData struct {
	Recourser Participant
	Recoursee Participant
	Sum       uint64
	Currency  string
	Signer
}

func (RecourseBlockData) OpCode() OpCode { return OpRecourse }

func (d RecourseBlockData) Encode(w io.Writer) error {
	if err := writeParticipant(w, d.Recourser); err != nil {
		return err
	}
	if err := writeParticipant(w, d.Recoursee); err != nil {
		return err
	}
	if err := writeUint64(w, d.Sum); err != nil {
		return err
	}
	if err := writeString(w, d.Currency); err != nil {
		return err
	}
	return writeSigner(w, d.Signer)
}

func (d *RecourseBlockData) Decode(r io.Reader) error {
	var err error
	if d.Recourser, err = readParticipant(r); err != nil {
		return err
	}
	if d.Recoursee, err = readParticipant(r); err != nil {
		return err
	}
	if d.Sum, err = readUint64(r); err != nil {
		return err
	}
	if d.Currency, err = readString(r); err != nil {
		return err
	}
	d.Signer, err = readSigner(r)
	return err
}

// RejectBlockData is the shared shape for all four reject variants
// (RejectToAccept, RejectToPay, RejectToBuy, RejectToPayRecourse); the
// block's op code alone disambiguates which action was refused.
type RejectBlockData struct {
	Rejecter Participant
	Signer
}

func (d RejectBlockData) Encode(w io.Writer) error {
	if err := writeParticipant(w, d.Rejecter); err != nil {
		return err
	}
	return writeSigner(w, d.Signer)
}

func (d *RejectBlockData) Decode(r io.Reader) error {
	var err error
	if d.Rejecter, err = readParticipant(r); err != nil {
		return err
	}
	d.Signer, err = readSigner(r)
	return err
}

// RejectToAcceptBlockData, RejectToPayBlockData, RejectToBuyBlockData and
// RejectToPayRecourseBlockData each wrap RejectBlockData to give the four
// reject variants distinct Go types while sharing one wire shape.
type (
	RejectToAcceptBlockData      struct{ RejectBlockData }
	RejectToPayBlockData         struct{ RejectBlockData }
	RejectToBuyBlockData         struct{ RejectBlockData }
	RejectToPayRecourseBlockData struct{ RejectBlockData }
)

func (RejectToAcceptBlockData) OpCode() OpCode      { return OpRejectToAccept }
func (RejectToPayBlockData) OpCode() OpCode         { return OpRejectToPay }
func (RejectToBuyBlockData) OpCode() OpCode         { return OpRejectToBuy }
func (RejectToPayRecourseBlockData) OpCode() OpCode { return OpRejectToPayRecourse }

// DecodePayload decodes data into the payload type matching op.
func DecodePayload(op OpCode, data []byte) (Payload, error) {
	var p Payload
	switch op {
	case OpIssue:
		p = &IssueBlockData{}
	case OpAccept:
		p = &AcceptBlockData{}
	case OpRequestToAccept:
		p = &RequestToAcceptBlockData{}
	case OpRequestToPay:
		p = &RequestToPayBlockData{}
	case OpOfferToSell:
		p = &OfferToSellBlockData{}
	case OpSell:
		p = &SellBlockData{}
	case OpEndorse:
		p = &EndorseBlockData{}
	case OpMint:
		p = &MintBlockData{}
	case OpRequestRecourse:
		p = &RequestRecourseBlockData{}
	case OpRecourse:
		p = &RecourseBlockData{}
	case OpRejectToAccept:
		p = &RejectToAcceptBlockData{}
	case OpRejectToPay:
		p = &RejectToPayBlockData{}
	case OpRejectToBuy:
		p = &RejectToBuyBlockData{}
	case OpRejectToPayRecourse:
		p = &RejectToPayRecourseBlockData{}
	default:
		return nil, fmt.Errorf("bill: unknown op code %q", op)
	}
	if err := decode(op, data, p.Decode); err != nil {
		return nil, err
	}
	return p, nil
}

// EncodePayload is the canonical byte form of p, ready for encryption.
func EncodePayload(p Payload) ([]byte, error) {
	return encode(p.OpCode(), p.Encode)
}
