// Package checksums loads the process-wide, read-only code_hash -> kind
// mapping and never mutates it after Load returns. A plain map is correct
// here (not an LRU): the registry is small, finite, and every entry must
// stay resolvable for the life of the process, which an eviction policy
// would violate.
package checksums

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"

	nerrors "namadexer/internal/errors"
	"namadexer/pkg/utils"
)

// Registry is the immutable code_hash (lowercase hex) -> kind mapping.
type Registry struct {
	byHash map[string]string
}

// Lookup returns the kind for hash, or "unknown" if absent.
func (r *Registry) Lookup(hash string) string {
	hash = strings.ToLower(hash)
	if kind, ok := r.byHash[hash]; ok {
		return kind
	}
	return "unknown"
}

// Kinds returns every known (hash, kind) pair; used by the schema manager
// to emit one view per kind.
func (r *Registry) Kinds() map[string]string {
	out := make(map[string]string, len(r.byHash))
	for k, v := range r.byHash {
		out[k] = v
	}
	return out
}

// Env var names consulted, in resolution order.
const (
	EnvProcessedFile = "CHECKSUMS_PROCESSED_FILE_PATH"
	EnvRawFile       = "CHECKSUMS_FILE_PATH"
	EnvRemoteURL     = "CHECKSUMS_REMOTE_URL"
	defaultLocalFile = "checksums.json"
)

// Load resolves the checksum source in order: pre-parsed JSON file, raw
// JSON file, HTTP URL, then the local default file. Any entry that fails
// to parse is InvalidChecksum.
func Load() (*Registry, error) {
	if path := utils.EnvOrDefault(EnvProcessedFile, ""); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nerrors.Wrap(nerrors.KindIO, "checksums.Load", err)
		}
		return loadProcessed(data)
	}
	if path := utils.EnvOrDefault(EnvRawFile, ""); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nerrors.Wrap(nerrors.KindIO, "checksums.Load", err)
		}
		return loadRaw(data)
	}
	if url := utils.EnvOrDefault(EnvRemoteURL, ""); url != "" {
		data, err := fetchRemote(url)
		if err != nil {
			return nil, err
		}
		return loadRaw(data)
	}
	data, err := os.ReadFile(defaultLocalFile)
	if err != nil {
		return nil, nerrors.Wrap(nerrors.KindIO, "checksums.Load", err)
	}
	return loadRaw(data)
}

func fetchRemote(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, nerrors.Wrap(nerrors.KindIO, "checksums.fetchRemote", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nerrors.New(nerrors.KindInvalidChecksum, "checksums.fetchRemote",
			"unexpected status "+resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nerrors.Wrap(nerrors.KindIO, "checksums.fetchRemote", err)
	}
	return data, nil
}

// loadProcessed parses the pre-parsed hash->kind JSON form directly.
func loadProcessed(data []byte) (*Registry, error) {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, nerrors.Wrap(nerrors.KindInvalidChecksum, "checksums.loadProcessed", err)
	}
	byHash := make(map[string]string, len(m))
	for hash, kind := range m {
		byHash[strings.ToLower(hash)] = kind
	}
	return &Registry{byHash: byHash}, nil
}

// loadRaw parses the raw form: entries "kind.wasm": "kind.<hash>.wasm".
// For each (key, value): split value on '.', take index 1 as hash; split
// key on '.', take index 0 as kind.
func loadRaw(data []byte) (*Registry, error) {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, nerrors.Wrap(nerrors.KindInvalidChecksum, "checksums.loadRaw", err)
	}

	byHash := make(map[string]string, len(m))
	for key, value := range m {
		valueParts := strings.Split(value, ".")
		if len(valueParts) < 2 {
			return nil, nerrors.New(nerrors.KindInvalidChecksum, "checksums.loadRaw",
				"malformed checksum value: "+value)
		}
		hash := valueParts[1]

		keyParts := strings.Split(key, ".")
		if len(keyParts) < 1 {
			return nil, nerrors.New(nerrors.KindInvalidChecksum, "checksums.loadRaw",
				"malformed checksum key: "+key)
		}
		kind := keyParts[0]

		byHash[strings.ToLower(hash)] = kind
	}
	return &Registry{byHash: byHash}, nil
}
