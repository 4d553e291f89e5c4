package board_client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mcdev12/smartcatan/go/clients"
	"github.com/mcdev12/smartcatan/go/internal/board"
)

// BoardClient talks to the board device over its HTTP API.
type BoardClient struct {
	*clients.BaseClient
}

func NewBoardClient(baseURL string, timeout time.Duration) *BoardClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	base := clients.NewBaseClient(baseURL)
	base.SetTimeout(timeout)
	base.SetHeader("Accept", "application/json, text/plain")
	return &BoardClient{BaseClient: base}
}

func (c *BoardClient) GetBoard(ctx context.Context) (board.Snapshot, error) {
	return c.fetchSnapshot(ctx, GetBoardEndpoint)
}

func (c *BoardClient) SetClassic(ctx context.Context) (board.Snapshot, error) {
	return c.fetchSnapshot(ctx, SetClassicEndpoint)
}

func (c *BoardClient) SetExtension(ctx context.Context) (board.Snapshot, error) {
	return c.fetchSnapshot(ctx, SetExtensionEndpoint)
}

func (c *BoardClient) StartGame(ctx context.Context) (board.Snapshot, error) {
	return c.fetchSnapshot(ctx, StartGameEndpoint)
}

func (c *BoardClient) EndGame(ctx context.Context) (board.Snapshot, error) {
	return c.fetchSnapshot(ctx, EndGameEndpoint)
}

// SelectNumber asks the device to select value and returns the number it
// reports back.
func (c *BoardClient) SelectNumber(ctx context.Context, value int) (int, error) {
	return c.fetchNumber(ctx, SelectNumberEndpoint+"?"+valueQuery(strconv.Itoa(value)))
}

// RollDice asks the device to roll and returns the rolled number.
func (c *BoardClient) RollDice(ctx context.Context) (int, error) {
	return c.fetchNumber(ctx, RollDiceEndpoint)
}

// GetNumber returns the device's current selected number.
func (c *BoardClient) GetNumber(ctx context.Context) (int, error) {
	return c.fetchNumber(ctx, GetNumberEndpoint)
}

// SetRuleFlag sets a rule toggle on the device. The device's answer carries
// nothing useful, so only transport failures are reported.
func (c *BoardClient) SetRuleFlag(ctx context.Context, flag board.RuleFlag, on bool) error {
	endpoint, ok := ruleFlagEndpoints[flag]
	if !ok {
		return fmt.Errorf("%w: %q", board.ErrUnknownRuleFlag, flag)
	}
	value := "0"
	if on {
		value = "1"
	}
	if _, err := c.get(ctx, endpoint+"?"+valueQuery(value)); err != nil {
		return err
	}
	return nil
}

func (c *BoardClient) fetchSnapshot(ctx context.Context, endpoint string) (board.Snapshot, error) {
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return board.Snapshot{}, err
	}
	s, err := DecodeSnapshot(body)
	if err != nil {
		return board.Snapshot{}, fmt.Errorf("%s: %w", endpoint, err)
	}
	return s, nil
}

func (c *BoardClient) fetchNumber(ctx context.Context, endpoint string) (int, error) {
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return 0, err
	}
	n, err := DecodeNumber(body)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", endpoint, err)
	}
	return n, nil
}

func (c *BoardClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	body, err := c.MakeRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTransport, endpoint, err)
	}
	return body, nil
}

func valueQuery(v string) string {
	return url.Values{ValueParam: []string{v}}.Encode()
}
