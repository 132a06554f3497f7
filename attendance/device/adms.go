package device

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"tadbeer.com/hrms/attendance/model"
	"tadbeer.com/hrms/utils"
)

// admsAdapter pulls punches from an ADMS/BioTime-style cloud bridge over
// HTTP instead of talking to the terminal directly. Matching toggles are
// a no-op: the bridge buffers punches, the terminal stays live.
type admsAdapter struct {
	device  model.Device
	baseURL string
	client  *http.Client
	token   string
}

func newADMS(d model.Device, timeout time.Duration) *admsAdapter {
	scheme := "http"
	if d.Port == 443 {
		scheme = "https"
	}
	return &admsAdapter{
		device:  d,
		baseURL: fmt.Sprintf("%s://%s:%d", scheme, d.IP, d.Port),
		client:  &http.Client{Timeout: timeout},
	}
}

type admsTokenResponse struct {
	Token string `json:"token"`
}

type admsTransaction struct {
	EmpCode    string `json:"emp_code"`
	PunchTime  string `json:"punch_time"`
	PunchState string `json:"punch_state"`
	TerminalSN string `json:"terminal_sn"`
}

type admsTransactionPage struct {
	Count int               `json:"count"`
	Next  *string           `json:"next"`
	Data  []admsTransaction `json:"data"`
}

func (a *admsAdapter) Connect(ctx context.Context) error {
	if a.device.Username == nil || a.device.Password == nil {
		return unreachable(a.device, fmt.Errorf("adms bridge requires username and password"))
	}

	body, _ := json.Marshal(map[string]string{
		"username": *a.device.Username,
		"password": *a.device.Password,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/jwt-api-token-auth/", bytes.NewBuffer(body))
	if err != nil {
		return unreachable(a.device, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return unreachable(a.device, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return unreachable(a.device, fmt.Errorf("auth failed with status %d: %s", resp.StatusCode, string(b)))
	}

	var tok admsTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return unreachable(a.device, fmt.Errorf("decode auth response: %w", err))
	}
	a.token = tok.Token
	return nil
}

func (a *admsAdapter) FetchEvents(ctx context.Context) ([]RawEvent, error) {
	if a.token == "" {
		return nil, unreachable(a.device, fmt.Errorf("not connected"))
	}

	var events []RawEvent
	page := 1
	for {
		batch, next, err := a.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		events = append(events, batch...)
		if !next {
			return events, nil
		}
		page++
	}
}

func (a *admsAdapter) fetchPage(ctx context.Context, page int) ([]RawEvent, bool, error) {
	u, _ := url.Parse(a.baseURL + "/iclock/api/transactions/")
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", "200")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, false, unreachable(a.device, err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("JWT %s", a.token))

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, false, unreachable(a.device, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, false, unreachable(a.device, fmt.Errorf("transactions read failed with status %d: %s", resp.StatusCode, string(b)))
	}

	var pageData admsTransactionPage
	if err := json.NewDecoder(resp.Body).Decode(&pageData); err != nil {
		return nil, false, unreachable(a.device, fmt.Errorf("decode transactions: %w", err))
	}

	events := make([]RawEvent, 0, len(pageData.Data))
	for _, tr := range pageData.Data {
		ts, err := parseADMSTime(tr.PunchTime)
		if err != nil {
			return nil, false, unreachable(a.device, fmt.Errorf("bad punch_time %q: %w", tr.PunchTime, err))
		}
		state, _ := strconv.Atoi(tr.PunchState)
		events = append(events, RawEvent{
			SubjectUID: tr.EmpCode,
			Timestamp:  ts,
			State:      state,
		})
	}
	return events, pageData.Next != nil, nil
}

func parseADMSTime(s string) (time.Time, error) {
	t, err := utils.ParseISOTime(s)
	if err != nil {
		return time.Time{}, err
	}
	return *t, nil
}

func (a *admsAdapter) SetMatchingEnabled(enabled bool) error {
	return nil
}

func (a *admsAdapter) Disconnect() error {
	a.token = ""
	return nil
}
