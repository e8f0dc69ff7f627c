package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/enet/compress"
	"github.com/opd-ai/enet/crypto"
)

func testCodec(t *testing.T, alg compress.Algorithm, suite crypto.Suite) codec {
	t.Helper()
	var key [crypto.KeySize]byte
	copy(key[:], "0123456789abcdef0123456789abcdef")
	c, err := crypto.NewCipherFromKey(key, suite)
	require.NoError(t, err)
	return codec{alg: alg, cipher: c}
}

func TestCodecRoundTrip(t *testing.T) {
	sent := time.UnixMilli(1700000000123)
	codecs := map[string]codec{
		"plain":          {},
		"gzip":           {alg: compress.AlgorithmGzip},
		"zstd_secretbox": testCodec(t, compress.AlgorithmZstd, crypto.SuiteSecretBox),
		"gzip_aesgcm":    testCodec(t, compress.AlgorithmGzip, crypto.SuiteAESGCM),
	}

	for name, cd := range codecs {
		t.Run(name, func(t *testing.T) {
			payload, err := cd.encode(message{Sent: sent, Text: "héllo"})
			require.NoError(t, err)

			m, err := cd.decode(payload)
			require.NoError(t, err)
			assert.Equal(t, "héllo", m.Text)
			assert.True(t, sent.Equal(m.Sent))
		})
	}
}

func TestCodecPlainWireFormat(t *testing.T) {
	payload, err := codec{}.encode(message{Sent: time.UnixMilli(1), Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0, 2, 0, 'h', 'i'}, payload)
}

func TestCodecRejectsTruncatedPayload(t *testing.T) {
	_, err := codec{}.decode([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestCodecRejectsWrongKey(t *testing.T) {
	sender := testCodec(t, compress.AlgorithmNone, crypto.SuiteChaChaPoly)
	payload, err := sender.encode(message{Sent: time.Now(), Text: "secret"})
	require.NoError(t, err)

	var other [crypto.KeySize]byte
	c, err := crypto.NewCipherFromKey(other, crypto.SuiteChaChaPoly)
	require.NoError(t, err)
	_, err = codec{cipher: c}.decode(payload)
	assert.Error(t, err)
}

func TestSplitterReassemblesFrames(t *testing.T) {
	stream := append(frame([]byte("one")), frame([]byte("two"))...)
	stream = append(stream, frame(nil)...)

	var sp splitter
	var got [][]byte
	for _, b := range stream {
		frames, err := sp.feed([]byte{b})
		require.NoError(t, err)
		got = append(got, frames...)
	}

	require.Len(t, got, 3)
	assert.Equal(t, []byte("one"), got[0])
	assert.Equal(t, []byte("two"), got[1])
	assert.Empty(t, got[2])
	assert.Nil(t, sp.buf)
}

func TestSplitterCoalescedChunk(t *testing.T) {
	stream := bytes.Join([][]byte{frame([]byte("a")), frame([]byte("bc")), frame([]byte("def"))[:5]}, nil)

	var sp splitter
	frames, err := sp.feed(stream)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("bc")}, frames)
	assert.Len(t, sp.buf, 5)

	frames, err = sp.feed([]byte("ef"))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("def")}, frames)
}

func TestSplitterRejectsBadLength(t *testing.T) {
	var sp splitter
	_, err := sp.feed([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	assert.ErrorIs(t, err, errFrameSize)
	assert.Nil(t, sp.buf)
}
