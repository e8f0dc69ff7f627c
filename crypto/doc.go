// Package crypto provides key-derived symmetric encryption for payloads
// carried by the transport package.
//
// The transports never call this package. An application seals a payload
// before Send and opens it after it arrives:
//
//	c, err := crypto.NewCipher("shared passphrase", crypto.SuiteSecretBox, nil)
//	if err != nil {
//	    return err
//	}
//	sealed, err := c.Encrypt(payload)
//	...
//	plain, err := c.Decrypt(sealed)
//
// Keys are derived with PBKDF2-SHA256. Both peers must use the same
// passphrase, salt and suite. Every sealed message starts with a fresh
// random nonce, so encrypting the same payload twice yields different
// output.
//
// # Suites
//
//   - SuiteSecretBox: NaCl secretbox (XSalsa20-Poly1305), 24-byte nonce
//   - SuiteChaChaPoly: ChaCha20-Poly1305, 8-byte nonce
//   - SuiteAESGCM: AES-256-GCM, 8-byte nonce
//
// The 8-byte nonces of the AEAD suites are drawn at random; rotate the
// passphrase well before 2^32 messages have been sealed under one key.
package crypto
