package command

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// UDSClient is a JSON-RPC client over a Unix domain socket. Used by the
// CLI subcommands to talk to a running collector.
type UDSClient struct {
	socketPath string
	timeout    time.Duration
	nextID     int
}

// NewUDSClient creates a new UDS client.
func NewUDSClient(socketPath string, timeout time.Duration) *UDSClient {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &UDSClient{socketPath: socketPath, timeout: timeout}
}

// Call sends one command and waits for the response. A fresh connection
// per call keeps the client trivially correct; control traffic is rare.
func (c *UDSClient) Call(ctx context.Context, method string, params interface{}) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("forkstream: failed to connect to %s (is the collector running?): %w", c.socketPath, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("forkstream: failed to set deadline: %w", err)
	}

	c.nextID++
	req := jsonRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		ID:      c.nextID,
	}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("forkstream: failed to marshal params: %w", err)
		}
		req.Params = raw
	}

	enc := json.NewEncoder(conn)
	if err := enc.Encode(req); err != nil {
		return nil, fmt.Errorf("forkstream: failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	line, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("forkstream: failed to read response: %w", err)
	}

	var resp jsonRPCResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("forkstream: failed to parse response: %w", err)
	}

	return &Response{
		ID:     fmt.Sprintf("%v", resp.ID),
		Result: resp.Result,
		Error:  resp.Error,
	}, nil
}

// LoggerOn enables per-packet diagnostics on the daemon.
func (c *UDSClient) LoggerOn(ctx context.Context) (*Response, error) {
	return c.Call(ctx, "logger_on", nil)
}

// LoggerOff disables per-packet diagnostics on the daemon.
func (c *UDSClient) LoggerOff(ctx context.Context) (*Response, error) {
	return c.Call(ctx, "logger_off", nil)
}

// LoggerStatus reports the daemon's diagnostic logging state.
func (c *UDSClient) LoggerStatus(ctx context.Context) (*Response, error) {
	return c.Call(ctx, "logger_status", nil)
}

// Stats returns the daemon's runtime counters.
func (c *UDSClient) Stats(ctx context.Context) (*Response, error) {
	return c.Call(ctx, "daemon_stats", nil)
}

// Shutdown asks the daemon to stop.
func (c *UDSClient) Shutdown(ctx context.Context) (*Response, error) {
	return c.Call(ctx, "daemon_shutdown", nil)
}

// Ping checks that the daemon is reachable.
func (c *UDSClient) Ping(ctx context.Context) error {
	resp, err := c.Call(ctx, "ping", nil)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return fmt.Errorf("forkstream: ping failed: %s", resp.Error.Message)
	}
	return nil
}
