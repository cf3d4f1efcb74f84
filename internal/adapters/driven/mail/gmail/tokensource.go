package gmail

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
)

// TokenSourceFromFile builds an oauth2.TokenSource from a token file
// holding a JSON-encoded oauth2.Token, as written by the Google OAuth
// flow. The token must carry a refresh token or remain unexpired.
func TokenSourceFromFile(path string) (oauth2.TokenSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("parsing token file %s: %w", path, err)
	}
	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, fmt.Errorf("token file %s holds no usable token", path)
	}

	return oauth2.StaticTokenSource(&token), nil
}
