package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const defaultBaseURL = "https://discord.com/api/v10"

// RESTVerifier resolves identities against the Discord REST API using a bot
// token. Guild role listings are cached briefly because ResolveRole has to
// scan every guild the bot belongs to.
type RESTVerifier struct {
	token   string
	baseURL string
	client  *http.Client

	mu        sync.Mutex
	roleIDs   map[string]struct{}
	roleFetch time.Time
	roleTTL   time.Duration
}

// NewRESTVerifier builds a verifier for the given bot token.
func NewRESTVerifier(token string) *RESTVerifier {
	return &RESTVerifier{
		token:   token,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		roleTTL: time.Minute,
	}
}

func (v *RESTVerifier) get(ctx context.Context, path string, out any) (found bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+v.token)

	resp, err := v.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("discord request %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 400:
		io.Copy(io.Discard, resp.Body)
		return false, fmt.Errorf("discord request %s: status %d", path, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return false, fmt.Errorf("decode discord response: %w", err)
		}
	}
	return true, nil
}

func (v *RESTVerifier) ResolveUser(ctx context.Context, userID string) (*User, error) {
	var user User
	found, err := v.get(ctx, "/users/"+userID, &user)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &user, nil
}

func (v *RESTVerifier) ResolveGuild(ctx context.Context, guildID string) (bool, error) {
	return v.get(ctx, "/guilds/"+guildID, nil)
}

func (v *RESTVerifier) ResolveRole(ctx context.Context, roleID string) (bool, error) {
	roles, err := v.knownRoles(ctx)
	if err != nil {
		return false, err
	}
	_, ok := roles[roleID]
	return ok, nil
}

// knownRoles lists every role id across the bot's guilds, cached for roleTTL.
func (v *RESTVerifier) knownRoles(ctx context.Context) (map[string]struct{}, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.roleIDs != nil && time.Since(v.roleFetch) < v.roleTTL {
		return v.roleIDs, nil
	}

	var guilds []struct {
		ID string `json:"id"`
	}
	if _, err := v.get(ctx, "/users/@me/guilds", &guilds); err != nil {
		return nil, err
	}

	roleIDs := make(map[string]struct{})
	for _, guild := range guilds {
		var roles []struct {
			ID string `json:"id"`
		}
		found, err := v.get(ctx, "/guilds/"+guild.ID+"/roles", &roles)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		for _, role := range roles {
			roleIDs[role.ID] = struct{}{}
		}
	}
	v.roleIDs = roleIDs
	v.roleFetch = time.Now()
	return roleIDs, nil
}
