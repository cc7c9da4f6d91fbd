// Package bill implements the bill-chain primitives: the typed block and
// payload formats for every bill life-cycle action, the chain itself, and
// the waiting-for-payment detectors billservice's validator and payment
// reconciler consult. Grounded on blockchain/bill/mod.rs and
// bcr-ebill-core/src/bill.rs of the Rust original this was distilled from.
package bill

// OpCode identifies the kind of action a block records. The full set is
// closed: every op-code corresponds to exactly one payload shape (see
// payloads.go), matched exhaustively at validation and decryption sites.
type OpCode string

const (
	OpIssue               OpCode = "Issue"
	OpAccept              OpCode = "Accept"
	OpEndorse             OpCode = "Endorse"
	OpRequestToAccept     OpCode = "RequestToAccept"
	OpRequestToPay        OpCode = "RequestToPay"
	OpOfferToSell         OpCode = "OfferToSell"
	OpSell                OpCode = "Sell"
	OpMint                OpCode = "Mint"
	OpRejectToAccept      OpCode = "RejectToAccept"
	OpRejectToPay         OpCode = "RejectToPay"
	OpRejectToBuy         OpCode = "RejectToBuy"
	OpRejectToPayRecourse OpCode = "RejectToPayRecourse"
	OpRequestRecourse     OpCode = "RequestRecourse"
	OpRecourse            OpCode = "Recourse"
)

// ParticipantType distinguishes a person node id from a company node id;
// companies sign bill blocks through one of their signatories.
type ParticipantType uint8

const (
	ParticipantPerson ParticipantType = iota
	ParticipantCompany
)

// PostalAddress is a participant's billing address, carried verbatim in
// every block payload that names them (so history reads correctly even if
// the participant later moves).
type PostalAddress struct {
	Country string
	City    string
	ZIP     string
	Address string
}

// Participant identifies a person or company referenced by a bill action:
// as signer, drawee/drawer/payee, endorsee, buyer/seller, or
// recourser/recoursee.
type Participant struct {
	Type          ParticipantType
	NodeID        string
	Name          string
	PostalAddress PostalAddress
	Email         string
	NostrRelay    string
}

// File is an attachment encrypted under the bill's public key. Hash is
// computed over the plaintext before encryption (see ecies.HashFile), so it
// remains the user-visible integrity token regardless of who can decrypt
// the attachment later.
type File struct {
	Name          string
	MimeType      string
	Hash          string
	EncryptedData string
}

// Bill carries the immutable fields fixed at issuance. Mutable fields
// (current holder, endorsee) are chain-derived and never stored here; see
// billservice's BitcreditBillResult projection.
type Bill struct {
	ID                string
	CountryOfIssuing  string
	CityOfIssuing     string
	Drawee            Participant
	Drawer            Participant
	Payee             Participant
	Currency          string
	Sum               uint64
	MaturityDate      string
	IssueDate         string
	CountryOfPayment  string
	CityOfPayment     string
	Language          string
	Files             []File
}

// Keys is the secp256k1 keypair generated at issuance; its public key is
// the bill's identity (hashed+base58'd to form the bill id), its private
// key decrypts every block's payload and, combined with a holder's key,
// derives the bill's payment addresses.
type Keys struct {
	PrivateKey string
	PublicKey  string
}

// RecourseReason is why a holder is invoking recourse against a past
// endorsee: the drawee never accepted, or the drawee never paid.
type RecourseReason struct {
	Accept bool
	// Pay carries the sum/currency to recourse for when Accept is false.
	Sum      uint64
	Currency string
}
