package billservice

// Constants fixed by the wire format and validation rules every node must
// agree on; changing any of these breaks interoperability with peers
// running an unmodified engine.
const (
	// SatToBTCRate converts satoshis to whole bitcoin.
	SatToBTCRate = 100_000_000

	// AcceptDeadlineSeconds is how long a drawee has to accept after a
	// request-to-accept before a holder may invoke recourse.
	AcceptDeadlineSeconds = 2 * 24 * 60 * 60

	// PaymentDeadlineSeconds is how long a drawee has to pay after a
	// request-to-pay, and how long a buyer has to pay after an
	// offer-to-sell, before recourse or offer expiry applies.
	PaymentDeadlineSeconds = 2 * 24 * 60 * 60

	// RecourseDeadlineSeconds is how long a recoursee has to pay a
	// recourse demand before the holder may recourse further up the
	// endorsement chain.
	RecourseDeadlineSeconds = 2 * 24 * 60 * 60

	// MaxFileSizeBytes bounds any single attached file.
	MaxFileSizeBytes = 1_000_000

	// MaxFileNameCharacters bounds an attached file's display name.
	MaxFileNameCharacters = 200
)

// ValidFileMimeTypes is the closed set of content types accepted for bill
// attachments.
var ValidFileMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
}
