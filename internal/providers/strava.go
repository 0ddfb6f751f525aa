package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/analyticsPapy/trainlytics-app/internal/models"

	retry "github.com/appleboy/go-httpretry"
	"golang.org/x/oauth2"
)

// Strava endpoint defaults
const (
	stravaAuthURL  = "https://www.strava.com/oauth/authorize"
	stravaTokenURL = "https://www.strava.com/oauth/token"
	stravaAPIBase  = "https://www.strava.com/api/v3"

	stravaDefaultScopes = "read,activity:read_all,profile:read_all"

	stravaPerPage  = 100
	stravaMaxPages = 10
)

// StravaConfig carries the app credentials registered with Strava.
type StravaConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       string

	// Endpoint overrides for tests; empty means production Strava.
	AuthURL  string
	TokenURL string
	APIBase  string
}

// Strava implements the OAuth 2.0 code flow and activity import for
// strava.com.
type Strava struct {
	oauth    *oauth2.Config
	client   *retry.Client
	tokenURL string
	apiBase  string
	scopes   string
}

// NewStrava builds the Strava provider. The retry client is shared with
// other outbound callers and must not be nil.
func NewStrava(cfg StravaConfig, client *retry.Client) *Strava {
	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = stravaAuthURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = stravaTokenURL
	}
	apiBase := cfg.APIBase
	if apiBase == "" {
		apiBase = stravaAPIBase
	}
	scopes := cfg.Scopes
	if scopes == "" {
		scopes = stravaDefaultScopes
	}

	return &Strava{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			// Strava takes one comma-separated scope parameter, not a
			// space-joined list.
			Scopes: []string{scopes},
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
		},
		client:   client,
		tokenURL: tokenURL,
		apiBase:  apiBase,
		scopes:   scopes,
	}
}

func (s *Strava) Name() string        { return models.ProviderStrava }
func (s *Strava) DisplayName() string { return "Strava" }
func (s *Strava) Description() string {
	return "Running, cycling, and swimming activities"
}
func (s *Strava) OAuthVersion() string { return "OAuth 2.0" }

// AuthorizationURL returns the Strava consent page URL.
func (s *Strava) AuthorizationURL(state string) (string, error) {
	if s.oauth.ClientID == "" {
		return "", fmt.Errorf("strava client id not configured")
	}
	return s.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("approval_prompt", "auto"),
	), nil
}

// stravaTokenResponse is the token endpoint payload. Unlike most OAuth
// providers Strava embeds the athlete profile in it, which saves the
// extra profile round-trip on connect.
type stravaTokenResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresAt    int64           `json:"expires_at"`
	TokenType    string          `json:"token_type"`
	Athlete      json.RawMessage `json:"athlete"`
}

type stravaAthlete struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ExchangeCode trades the authorization code for tokens and the athlete
// profile carried in Strava's token response.
func (s *Strava) ExchangeCode(ctx context.Context, code string) (*Token, *Profile, error) {
	form := url.Values{
		"client_id":     {s.oauth.ClientID},
		"client_secret": {s.oauth.ClientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
	}

	resp, err := s.client.Post(
		ctx,
		s.tokenURL,
		retry.WithBody("application/x-www-form-urlencoded", strings.NewReader(form.Encode())),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: token exchange: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading token response", ErrUpstream)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("%w: token exchange returned %d", ErrUpstream, resp.StatusCode)
	}

	var tok stravaTokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, nil, fmt.Errorf("%w: decoding token response: %v", ErrUpstream, err)
	}
	if tok.AccessToken == "" {
		return nil, nil, fmt.Errorf("%w: token response missing access_token", ErrUpstream)
	}

	token := &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    time.Unix(tok.ExpiresAt, 0),
		Scopes:       s.scopes,
	}

	profile, err := parseStravaAthlete(tok.Athlete)
	if err != nil {
		// The tokens are valid even when the athlete blob is odd; the
		// caller can still FetchProfile.
		return token, nil, nil
	}
	return token, profile, nil
}

func parseStravaAthlete(raw json.RawMessage) (*Profile, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("no athlete payload")
	}
	var athlete stravaAthlete
	if err := json.Unmarshal(raw, &athlete); err != nil {
		return nil, err
	}
	if athlete.ID == 0 {
		return nil, fmt.Errorf("athlete payload missing id")
	}
	return &Profile{
		ProviderUserID: fmt.Sprintf("%d", athlete.ID),
		Username:       athlete.Username,
		Email:          athlete.Email,
		Raw:            string(raw),
	}, nil
}

// RefreshTokens obtains a fresh token set. Strava rotates the refresh
// token on every refresh, so callers must persist the returned one.
func (s *Strava) RefreshTokens(ctx context.Context, refreshToken string) (*Token, error) {
	src := s.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: token refresh: %v", ErrUpstream, err)
	}

	newRefresh := tok.RefreshToken
	if newRefresh == "" {
		newRefresh = refreshToken
	}
	return &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: newRefresh,
		ExpiresAt:    tok.Expiry,
		Scopes:       s.scopes,
	}, nil
}

// FetchProfile retrieves the authenticated athlete.
func (s *Strava) FetchProfile(ctx context.Context, token Token) (*Profile, error) {
	body, err := s.apiGet(ctx, token, "/athlete", nil)
	if err != nil {
		return nil, err
	}
	profile, err := parseStravaAthlete(body)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding athlete: %v", ErrUpstream, err)
	}
	return profile, nil
}

// stravaActivity is the summary representation from /athlete/activities.
type stravaActivity struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	SportType          string  `json:"sport_type"`
	Type               string  `json:"type"`
	StartDate          string  `json:"start_date"`
	ElapsedTime        int     `json:"elapsed_time"`
	MovingTime         int     `json:"moving_time"`
	Distance           float64 `json:"distance"`
	TotalElevationGain float64 `json:"total_elevation_gain"`
	AverageSpeed       float64 `json:"average_speed"` // m/s
	AverageHeartrate   float64 `json:"average_heartrate"`
	MaxHeartrate       float64 `json:"max_heartrate"`
	AverageWatts       float64 `json:"average_watts"`
	MaxWatts           float64 `json:"max_watts"`
}

// FetchActivities pages through /athlete/activities until the window is
// exhausted or the page cap is hit.
func (s *Strava) FetchActivities(ctx context.Context, token Token, since time.Time, limit int) ([]RemoteActivity, error) {
	perPage := stravaPerPage
	if limit > 0 && limit < perPage {
		perPage = limit
	}

	var out []RemoteActivity
	for page := 1; page <= stravaMaxPages; page++ {
		params := url.Values{
			"page":     {fmt.Sprintf("%d", page)},
			"per_page": {fmt.Sprintf("%d", perPage)},
		}
		if !since.IsZero() {
			params.Set("after", fmt.Sprintf("%d", since.Unix()))
		}

		body, err := s.apiGet(ctx, token, "/athlete/activities", params)
		if err != nil {
			return nil, err
		}

		var raw []json.RawMessage
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("%w: decoding activities: %v", ErrUpstream, err)
		}

		for _, item := range raw {
			var act stravaActivity
			if err := json.Unmarshal(item, &act); err != nil {
				return nil, fmt.Errorf("%w: decoding activity: %v", ErrUpstream, err)
			}
			out = append(out, normalizeStravaActivity(act, string(item)))
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}

		if len(raw) < perPage {
			break
		}
	}
	return out, nil
}

// apiGet performs an authenticated GET against the Strava API. The
// oauth2 transport injects the bearer token on every request.
func (s *Strava) apiGet(ctx context.Context, token Token, path string, params url.Values) ([]byte, error) {
	endpoint := s.apiBase + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	client := s.oauth.Client(ctx, &oauth2.Token{AccessToken: token.AccessToken})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrUpstream, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s response", ErrUpstream, path)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s returned %d", ErrUpstream, path, resp.StatusCode)
	}
	return body, nil
}

// stravaTypeMap folds Strava sport types into the platform's activity
// type vocabulary.
var stravaTypeMap = map[string]string{
	"Run":              "run",
	"TrailRun":         "run",
	"VirtualRun":       "run",
	"Ride":             "ride",
	"VirtualRide":      "ride",
	"GravelRide":       "ride",
	"MountainBikeRide": "ride",
	"Swim":             "swim",
	"Walk":             "walk",
	"Hike":             "hike",
}

func normalizeStravaActivity(act stravaActivity, raw string) RemoteActivity {
	sport := act.SportType
	if sport == "" {
		sport = act.Type
	}
	actType, ok := stravaTypeMap[sport]
	if !ok {
		actType = strings.ToLower(sport)
	}

	startTime, _ := time.Parse(time.RFC3339, act.StartDate)

	r := RemoteActivity{
		ExternalID: fmt.Sprintf("%d", act.ID),
		Type:       actType,
		Name:       act.Name,
		StartTime:  startTime,
		Raw:        raw,
	}

	if act.ElapsedTime > 0 && !startTime.IsZero() {
		end := startTime.Add(time.Duration(act.ElapsedTime) * time.Second)
		r.EndTime = &end
	}

	duration := act.MovingTime
	if duration == 0 {
		duration = act.ElapsedTime
	}
	if duration > 0 {
		r.Duration = &duration
	}
	if act.Distance > 0 {
		r.Distance = &act.Distance
	}
	if act.TotalElevationGain > 0 {
		r.ElevationGain = &act.TotalElevationGain
	}
	if act.AverageHeartrate > 0 {
		hr := int(act.AverageHeartrate + 0.5)
		r.AvgHeartRate = &hr
	}
	if act.MaxHeartrate > 0 {
		hr := int(act.MaxHeartrate + 0.5)
		r.MaxHeartRate = &hr
	}
	if act.AverageWatts > 0 {
		w := int(act.AverageWatts + 0.5)
		r.AvgPower = &w
	}
	if act.MaxWatts > 0 {
		w := int(act.MaxWatts + 0.5)
		r.MaxPower = &w
	}
	if act.AverageSpeed > 0 {
		kmh := act.AverageSpeed * 3.6
		r.AvgSpeed = &kmh
		pace := 1000 / act.AverageSpeed // sec per km
		r.AvgPace = &pace
	}
	return r
}
