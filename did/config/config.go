package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/pilacorp/go-merklekey-sdk/credential/common/logger"
)

// Default values
const (
	DefaultResolverURL       = "https://auth-dev.pila.vn/api/v1/did"
	DefaultMethod            = "did:nda:testnet"
	DefaultMerkleDigest      = "sha256"
	DefaultCollectionMaxSize = uint64(1) << 32
	DefaultLogEnvironment    = "production"
)

// Environment variable names
const (
	EnvResolverURL       = "DID_RESOLVER_URL"
	EnvMethod            = "DID_METHOD"
	EnvMerkleDigest      = "MERKLE_DIGEST"
	EnvCollectionMaxSize = "MERKLE_KEY_COLLECTION_MAX_SIZE"
	EnvLogEnvironment    = "LOG_ENV"
	EnvLogPath           = "LOG_PATH"
)

// ResolverURL returns the DID resolver endpoint from environment variable or default value
func ResolverURL() string {
	if url := os.Getenv(EnvResolverURL); url != "" {
		return url
	}
	return DefaultResolverURL
}

// Method returns the DID method prefix from environment variable or default value
func Method() string {
	if method := os.Getenv(EnvMethod); method != "" {
		return method
	}
	return DefaultMethod
}

// MerkleDigest returns the digest name used for new Merkle keys
func MerkleDigest() string {
	if digest := os.Getenv(EnvMerkleDigest); digest != "" {
		return strings.ToLower(digest)
	}
	return DefaultMerkleDigest
}

// CollectionMaxSize returns the largest key collection that may be generated
func CollectionMaxSize() uint64 {
	if sizeStr := os.Getenv(EnvCollectionMaxSize); sizeStr != "" {
		if size, err := strconv.ParseUint(sizeStr, 10, 64); err == nil && size > 0 {
			return size
		}
	}
	return DefaultCollectionMaxSize
}

// LoggerConfig returns the logger configuration from LOG_ENV and LOG_PATH
func LoggerConfig() *logger.LoggerConfig {
	env := os.Getenv(EnvLogEnvironment)
	if env == "" {
		env = DefaultLogEnvironment
	}
	return &logger.LoggerConfig{
		Environment: env,
		Path:        os.Getenv(EnvLogPath),
	}
}
