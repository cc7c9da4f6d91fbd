package keys

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	secp "github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// CombinePublicKeys performs the EC point addition bill_pub ⊕ holder_pub
// used to derive a joint payment address that only the pair can spend from
// together (see btcoracle.Oracle.GetAddressToPay). btcec/v2 itself does not expose
// point addition, so this borrows the decred secp256k1 library the teacher
// already depends on transitively, which models points as Jacobian
// coordinates.
func CombinePublicKeys(a, b *btcec.PublicKey) (*btcec.PublicKey, error) {
	pa, err := secp.ParsePubKey(a.SerializeCompressed())
	if err != nil {
		return nil, fmt.Errorf("keys: parse first point: %w", err)
	}
	pb, err := secp.ParsePubKey(b.SerializeCompressed())
	if err != nil {
		return nil, fmt.Errorf("keys: parse second point: %w", err)
	}

	var ja, jb, sum secp.JacobianPoint
	pa.AsJacobian(&ja)
	pb.AsJacobian(&jb)
	secp.AddNonConst(&ja, &jb, &sum)
	sum.ToAffine()

	combined := secp.NewPublicKey(&sum.X, &sum.Y)
	out, err := btcec.ParsePubKey(combined.SerializeCompressed())
	if err != nil {
		return nil, fmt.Errorf("keys: reparse combined point: %w", err)
	}
	return out, nil
}

// CombinePrivateKeys tweak-adds two private key scalars, producing the
// private key that controls the address derived from CombinePublicKeys of
// the two corresponding public keys. Used to hand a seller/recourser the
// spending key for a jointly-derived payment address once both halves of a
// trade are known.
func CombinePrivateKeys(a, b *btcec.PrivateKey) *btcec.PrivateKey {
	sa := secp.PrivKeyFromBytes(a.Serialize())
	sb := secp.PrivKeyFromBytes(b.Serialize())

	var sum secp.ModNScalar
	sum.Add2(&sa.Key, &sb.Key)

	combined := secp.NewPrivateKey(&sum)
	priv, _ := btcec.PrivKeyFromBytes(combined.Serialize())
	return priv
}
