package keycollection

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ed25519"

	"github.com/pilacorp/go-merklekey-sdk/credential/common/merkle"
)

func TestNewSize(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		opts    []Option
		wantErr bool
	}{
		{name: "zero", size: 0, wantErr: true},
		{name: "negative", size: -1, wantErr: true},
		{name: "one", size: 1},
		{name: "odd", size: 7},
		{name: "at max", size: 8, opts: []Option{WithMaxSize(8)}},
		{name: "above max", size: 9, opts: []Option{WithMaxSize(8)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kc, err := New(tt.size, tt.opts...)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidKeyCollectionSize)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.size, kc.Len())
		})
	}
}

func TestKeysMatch(t *testing.T) {
	kc, err := New(33, WithConcurrency(4))
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < kc.Len(); i++ {
		pub, err := kc.Public(i)
		require.NoError(t, err)
		priv, err := kc.Private(i)
		require.NoError(t, err)

		assert.True(t, pub.Equal(priv.Public()))
		sig := ed25519.Sign(priv, []byte("msg"))
		assert.True(t, ed25519.Verify(pub, []byte("msg"), sig))

		assert.False(t, seen[string(pub)], "duplicate key at %d", i)
		seen[string(pub)] = true
	}
}

func TestIndexOutOfBounds(t *testing.T) {
	kc, err := New(4)
	require.NoError(t, err)

	for _, i := range []int{-1, 4, 100} {
		_, err := kc.Public(i)
		assert.ErrorIs(t, err, ErrIndexOutOfBounds)
		_, err = kc.Private(i)
		assert.ErrorIs(t, err, ErrIndexOutOfBounds)
		_, err = kc.KeyPair(i)
		assert.ErrorIs(t, err, ErrIndexOutOfBounds)
		_, err = kc.MerkleProof(merkle.SHA256, i)
		assert.ErrorIs(t, err, ErrIndexOutOfBounds)
	}
}

func TestDeterministicRandom(t *testing.T) {
	entropy := make([]byte, 16*ed25519.SeedSize)
	for i := range entropy {
		entropy[i] = byte(i/ed25519.SeedSize) ^ 0x42
	}

	a, err := New(16, WithRandom(bytes.NewReader(entropy)), WithConcurrency(3))
	require.NoError(t, err)
	b, err := New(16, WithRandom(bytes.NewReader(entropy)), WithConcurrency(1))
	require.NoError(t, err)

	assert.Equal(t, a.PublicKeys(), b.PublicKeys())

	_, err = New(16, WithRandom(bytes.NewReader(entropy[:10])))
	assert.Error(t, err)

	repeating := bytes.Repeat([]byte{0x42, 0x17}, 4*ed25519.SeedSize)
	_, err = New(4, WithRandom(bytes.NewReader(repeating)))
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestMerkleRootAndProofs(t *testing.T) {
	kc, err := New(10)
	require.NoError(t, err)

	for _, d := range []merkle.Digest{merkle.SHA256, merkle.Blake2b256} {
		root, err := kc.MerkleRoot(d)
		require.NoError(t, err)

		tree, err := kc.MerkleTree(d)
		require.NoError(t, err)
		assert.True(t, root.Equal(tree.Root()))

		for i := 0; i < kc.Len(); i++ {
			proof, err := kc.MerkleProof(d, i)
			require.NoError(t, err)
			pub, _ := kc.Public(i)
			assert.True(t, proof.Verify(d, pub, root))
		}
	}
}

func TestFromKeyPairs(t *testing.T) {
	kc, err := New(3)
	require.NoError(t, err)

	pairs := make([]KeyPair, kc.Len())
	for i := range pairs {
		pairs[i], err = kc.KeyPair(i)
		require.NoError(t, err)
	}

	restored, err := FromKeyPairs(pairs)
	require.NoError(t, err)
	assert.Equal(t, kc.PublicKeys(), restored.PublicKeys())

	_, err = FromKeyPairs(nil)
	assert.ErrorIs(t, err, ErrInvalidKeyCollectionSize)

	swapped := []KeyPair{{Public: pairs[0].Public, Private: pairs[1].Private}}
	_, err = FromKeyPairs(swapped)
	assert.Error(t, err)

	_, err = FromKeyPairs([]KeyPair{{Public: []byte{1}, Private: pairs[0].Private}})
	assert.Error(t, err)

	_, err = FromKeyPairs([]KeyPair{pairs[0], pairs[1], pairs[0]})
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestMerkleTreeIsShared(t *testing.T) {
	kc, err := New(9)
	require.NoError(t, err)

	first, err := kc.MerkleTree(merkle.SHA256)
	require.NoError(t, err)
	again, err := kc.MerkleTree(merkle.SHA256)
	require.NoError(t, err)
	assert.Same(t, first, again)

	other, err := kc.MerkleTree(merkle.Keccak256)
	require.NoError(t, err)
	assert.NotSame(t, first, other)
	assert.False(t, first.Root().Equal(other.Root()))

	proof, err := kc.MerkleProof(merkle.SHA256, 8)
	require.NoError(t, err)
	fresh, err := merkle.Prove(merkle.SHA256, kc.PublicKeys(), 8)
	require.NoError(t, err)
	assert.Equal(t, fresh.Encode(), proof.Encode())
}

func TestConcurrentReaders(t *testing.T) {
	kc, err := New(64)
	require.NoError(t, err)
	root, err := kc.MerkleRoot(merkle.SHA256)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, kc.Len())
	for i := 0; i < kc.Len(); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			proof, err := kc.MerkleProof(merkle.SHA256, i)
			if err != nil {
				errs <- err
				return
			}
			pub, _ := kc.Public(i)
			if !proof.Verify(merkle.SHA256, pub, root) {
				errs <- assert.AnError
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}
