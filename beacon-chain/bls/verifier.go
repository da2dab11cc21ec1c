// Package bls defines the BLS signature verification contract the
// consensus core depends on, per spec.md §6: "BLS verifier: verify(pubkeys,
// message, signature) -> bool", assumed available as a pure function and
// delegated to an injectable implementation. Grounded on the teacher's
// shared/bls package shape (bls.Verify, bls.PublicKey) without depending on
// the herumi/BLST math itself, which stays an external primitive.
package bls

// Verifier verifies BLS signatures over SSZ-hashed messages. Production
// wiring supplies an implementation backed by herumi/bls-eth-go-binary or
// supranational/blst, as the teacher's go.mod does; this core only depends
// on the interface.
type Verifier interface {
	// Verify reports whether signature is a valid BLS signature by the
	// validator(s) identified by pubkeys over message.
	Verify(pubkeys [][48]byte, message [32]byte, signature [96]byte) (bool, error)
}

// AlwaysValid is a Verifier that accepts every signature. Used by tests,
// never by default production wiring.
type AlwaysValid struct{}

// Verify always returns true.
func (AlwaysValid) Verify(_ [][48]byte, _ [32]byte, _ [96]byte) (bool, error) {
	return true, nil
}
