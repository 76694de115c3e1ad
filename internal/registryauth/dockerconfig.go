package registryauth

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// dockerConfigFile mirrors the shape emitted by standard container
// tooling's config.json, used as a fallback credential source.
type dockerConfigFile struct {
	Auths map[string]dockerAuthEntry `json:"auths"`
}

type dockerAuthEntry struct {
	Auth     string `json:"auth,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// FileFallbackCredentials resolves credentials for registryURL from the
// standard Docker config.json search path, used when no store match
// exists:
//
//	DOCKER_CONFIGPATH (full path override)
//	  -> $DOCKER_CONFIG/config.json
//	  -> /root/.docker/config.json
//	  -> ~/.docker/config.json
func FileFallbackCredentials(registryURL string) (username, password string, ok bool) {
	path := resolveConfigPath()
	if path == "" {
		return "", "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", false
	}
	var cfg dockerConfigFile
	if err := json.Unmarshal(data, &cfg); err != nil {
		return "", "", false
	}
	entry, found := cfg.Auths[registryURL]
	if !found {
		return "", "", false
	}
	if entry.Username != "" {
		return entry.Username, entry.Password, true
	}
	if entry.Auth == "" {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(entry.Auth)
	if err != nil {
		return "", "", false
	}
	parts := strings.SplitN(string(decoded), ":", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func resolveConfigPath() string {
	if p := os.Getenv("DOCKER_CONFIGPATH"); p != "" {
		return p
	}
	if dir := os.Getenv("DOCKER_CONFIG"); dir != "" {
		return filepath.Join(dir, "config.json")
	}
	if fi, err := os.Stat("/root/.docker/config.json"); err == nil && !fi.IsDir() {
		return "/root/.docker/config.json"
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, ".docker", "config.json")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
