package bilibili

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultLiveAPIBase = "https://api.live.bilibili.com"
	defaultAPIBase     = "https://api.bilibili.com"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120 Safari/537.36"
)

// RoomURL is the public page of a live room.
func RoomURL(roomID string) string {
	return "https://live.bilibili.com/" + roomID
}

type Client struct {
	LiveAPIBase string
	APIBase     string
	HTTPClient  *http.Client
}

// New builds a client whose every call is bounded by timeout.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		LiveAPIBase: defaultLiveAPIBase,
		APIBase:     defaultAPIBase,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// RoomInfo is the subset of Room/get_info the dashboard uses. Nil pointers mean
// the field was absent from the payload.
type RoomInfo struct {
	Title      *string
	LiveStatus *int
	UserCover  *string
	Keyframe   *string
	Uname      *string
}

// StatusError reports a non-2xx response or a non-zero API envelope code.
type StatusError struct {
	Endpoint   string
	HTTPStatus int
	Code       int
	Message    string
}

func (e *StatusError) Error() string {
	if e.HTTPStatus != 0 && (e.HTTPStatus < 200 || e.HTTPStatus >= 300) {
		return fmt.Sprintf("bilibili %s: http %d: %s", e.Endpoint, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("bilibili %s: code %d: %s", e.Endpoint, e.Code, e.Message)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) FetchRoomInfo(ctx context.Context, roomID string) (RoomInfo, error) {
	q := url.Values{}
	q.Set("room_id", roomID)

	var data struct {
		Title      *string `json:"title"`
		LiveStatus *int    `json:"live_status"`
		UserCover  *string `json:"user_cover"`
		Keyframe   *string `json:"keyframe"`
		Uname      *string `json:"uname"`
	}
	if err := c.getData(ctx, c.liveBase()+"/room/v1/Room/get_info", q, roomID, &data); err != nil {
		return RoomInfo{}, fmt.Errorf("room info room=%s: %w", roomID, err)
	}
	return RoomInfo{
		Title:      nonEmpty(data.Title),
		LiveStatus: data.LiveStatus,
		UserCover:  nonEmpty(data.UserCover),
		Keyframe:   nonEmpty(data.Keyframe),
		Uname:      nonEmpty(data.Uname),
	}, nil
}

// FetchAnchorName asks who is broadcasting in the room. A nil name with a nil
// error means the endpoint answered without one.
func (c *Client) FetchAnchorName(ctx context.Context, roomID string) (*string, error) {
	q := url.Values{}
	q.Set("roomid", roomID)

	var data struct {
		Info struct {
			Uname *string `json:"uname"`
		} `json:"info"`
	}
	if err := c.getData(ctx, c.liveBase()+"/live_user/v1/UserInfo/get_anchor_in_room", q, roomID, &data); err != nil {
		return nil, fmt.Errorf("anchor room=%s: %w", roomID, err)
	}
	return nonEmpty(data.Info.Uname), nil
}

// FetchOwnerID resolves a room id (short ids included) to the owner's uid.
func (c *Client) FetchOwnerID(ctx context.Context, roomID string) (*int64, error) {
	q := url.Values{}
	q.Set("id", roomID)

	var data struct {
		UID *int64 `json:"uid"`
	}
	if err := c.getData(ctx, c.liveBase()+"/room/v1/Room/room_init", q, roomID, &data); err != nil {
		return nil, fmt.Errorf("room init room=%s: %w", roomID, err)
	}
	if data.UID == nil || *data.UID <= 0 {
		return nil, nil
	}
	return data.UID, nil
}

func (c *Client) FetchOwnerName(ctx context.Context, uid int64) (*string, error) {
	q := url.Values{}
	q.Set("mid", strconv.FormatInt(uid, 10))

	var data struct {
		Name *string `json:"name"`
	}
	if err := c.getData(ctx, c.apiBase()+"/x/space/acc/info", q, "", &data); err != nil {
		return nil, fmt.Errorf("owner profile uid=%d: %w", uid, err)
	}
	return nonEmpty(data.Name), nil
}

func (c *Client) liveBase() string {
	if c.LiveAPIBase == "" {
		return defaultLiveAPIBase
	}
	return strings.TrimRight(c.LiveAPIBase, "/")
}

func (c *Client) apiBase() string {
	if c.APIBase == "" {
		return defaultAPIBase
	}
	return strings.TrimRight(c.APIBase, "/")
}

// getData performs the GET, checks the {code,message,data} envelope and decodes
// data into out. roomID, when set, is used for the Referer header.
func (c *Client) getData(ctx context.Context, endpoint string, q url.Values, roomID string, out any) error {
	rawURL := endpoint + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if roomID != "" {
		req.Header.Set("Referer", RoomURL(roomID))
	} else {
		req.Header.Set("Referer", "https://www.bilibili.com/")
	}

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(res.Body, 2<<20))
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &StatusError{Endpoint: endpointName(endpoint), HTTPStatus: res.StatusCode, Message: excerpt(body)}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	if env.Code != 0 {
		msg := env.Message
		if msg == "" {
			msg = env.Msg
		}
		return &StatusError{Endpoint: endpointName(endpoint), HTTPStatus: res.StatusCode, Code: env.Code, Message: msg}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%s: empty data", endpointName(endpoint))
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func endpointName(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	return u.Path
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func excerpt(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 512 {
		s = s[:512] + "..."
	}
	return s
}
