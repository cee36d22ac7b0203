package proto

import (
	"crypto/ed25519"
	"fmt"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"
)

func signedCertificate(t *testing.T, proposalID ProposalID, patchHash string, height uint64, threshold, signerCount int) GovernanceFinalityCertificate {
	t.Helper()
	cert := GovernanceFinalityCertificate{ProposalID: proposalID, PatchHash: patchHash, Height: height, Threshold: threshold}
	for i := 0; i < signerCount; i++ {
		pub, priv, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		signer := base58.Encode(pub)
		payload := GovernanceFinalitySigningPayload(proposalID, patchHash, height, threshold, signer)
		sig := ed25519.Sign(priv, payload)
		cert.Signers = append(cert.Signers, signer)
		cert.Signatures = append(cert.Signatures, fmt.Sprintf("%x", sig))
	}
	return cert
}

func TestVerifyGovernanceFinalityCertificateAccepts(t *testing.T) {
	id := ProposalID{Era: 0, Value: 1}
	cert := signedCertificate(t, id, "patch-hash", 7, 2, 3)
	require.NoError(t, VerifyGovernanceFinalityCertificate(cert, id, "patch-hash"))
}

func TestVerifyGovernanceFinalityCertificateRejectsBelowThreshold(t *testing.T) {
	id := ProposalID{Era: 0, Value: 1}
	cert := signedCertificate(t, id, "patch-hash", 7, 3, 2)
	err := VerifyGovernanceFinalityCertificate(cert, id, "patch-hash")
	require.Error(t, err)
	require.True(t, IsKind(err, ErrGovernance))
}

func TestVerifyGovernanceFinalityCertificateRejectsWrongPatchHash(t *testing.T) {
	id := ProposalID{Era: 0, Value: 1}
	cert := signedCertificate(t, id, "patch-hash", 7, 1, 1)
	err := VerifyGovernanceFinalityCertificate(cert, id, "different-hash")
	require.Error(t, err)
}

func TestVerifyGovernanceFinalityCertificateRejectsTamperedSignature(t *testing.T) {
	id := ProposalID{Era: 0, Value: 1}
	cert := signedCertificate(t, id, "patch-hash", 7, 1, 1)
	cert.Signatures[0] = fmt.Sprintf("%0128d", 0) // same length, all-zero, definitely not a valid signature
	err := VerifyGovernanceFinalityCertificate(cert, id, "patch-hash")
	require.Error(t, err)
}

func TestVerifyGovernanceFinalityCertificateDeduplicatesSigners(t *testing.T) {
	id := ProposalID{Era: 0, Value: 1}
	cert := signedCertificate(t, id, "patch-hash", 7, 2, 1)
	cert.Signers = append(cert.Signers, cert.Signers[0])
	cert.Signatures = append(cert.Signatures, cert.Signatures[0])
	err := VerifyGovernanceFinalityCertificate(cert, id, "patch-hash")
	require.Error(t, err, "a duplicated signer must not count twice toward threshold")
}
