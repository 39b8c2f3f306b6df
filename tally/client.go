package tally

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"bitbucket.org/mmdatafocus/tallybridge/config"
	"bitbucket.org/mmdatafocus/tallybridge/models"
)

// TransportMode selects the backend a client talks to. The mode is per
// client, never a process-wide flag, so a real and a simulated client
// can coexist and tests can run in parallel.
type TransportMode int

const (
	TransportHTTP TransportMode = iota
	TransportSimulated
)

// Transport sends one request envelope and returns the raw response.
type Transport interface {
	Send(ctx context.Context, payload []byte) ([]byte, error)
}

type httpTransport struct {
	baseURL string
	client  *http.Client
}

func (t *httpTransport) Send(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/xml;charset=utf-8")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("tally gateway error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// Options configures a client. Zero values fall back to env-driven
// defaults from the config package.
type Options struct {
	BaseURL        string
	Mode           TransportMode
	ConnectTimeout time.Duration
	DataTimeout    time.Duration
	Logger         *logrus.Logger

	// Transport overrides Mode entirely. Test hook.
	Transport Transport
}

// Client is the protocol codec plus its HTTP plumbing. Purely
// translational: no state beyond the connection settings.
type Client struct {
	transport      Transport
	mode           TransportMode
	connectTimeout time.Duration
	dataTimeout    time.Duration
	logger         *logrus.Logger
}

func NewClient(opts Options) *Client {
	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = config.TallyBaseURL()
	}
	connectTimeout := opts.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = config.TallyConnectTimeout()
	}
	dataTimeout := opts.DataTimeout
	if dataTimeout <= 0 {
		dataTimeout = config.TallyDataTimeout()
	}
	logger := opts.Logger
	if logger == nil {
		logger = config.GetLogger()
	}

	transport := opts.Transport
	if transport == nil {
		if opts.Mode == TransportSimulated {
			transport = NewSimulator()
		} else {
			transport = &httpTransport{
				baseURL: strings.TrimRight(baseURL, "/"),
				// The per-request context carries the operation deadline;
				// the client timeout is only a safety net above it.
				client: &http.Client{Timeout: dataTimeout + 5*time.Second},
			}
		}
	}

	return &Client{
		transport:      transport,
		mode:           opts.Mode,
		connectTimeout: connectTimeout,
		dataTimeout:    dataTimeout,
		logger:         logger,
	}
}

func (c *Client) Simulated() bool {
	return c.mode == TransportSimulated
}

const (
	readAttempts   = 3
	retryBaseDelay = 500 * time.Millisecond
)

func (c *Client) send(ctx context.Context, payload []byte, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.transport.Send(ctx, payload)
}

// exportWithRetry runs a read operation with up to three attempts and a
// linearly increasing delay. Only reads are retried; write retries ride
// on the duplicate remap instead.
func (c *Client) exportWithRetry(ctx context.Context, payload []byte) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= readAttempts; attempt++ {
		raw, err := c.send(ctx, payload, c.dataTimeout)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt < readAttempts {
			time.Sleep(retryBaseDelay * time.Duration(attempt))
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrUnreachable, lastErr)
}

// CheckConnection probes the endpoint with a short deadline. A timeout
// is a connectivity failure, not a data error, so no retry and no error
// return: the caller only needs the yes/no.
func (c *Client) CheckConnection(ctx context.Context) ConnectionStatus {
	status := ConnectionStatus{Simulated: c.Simulated()}

	payload, err := buildListCompaniesRequest()
	if err != nil {
		return status
	}
	raw, err := c.send(ctx, payload, c.connectTimeout)
	if err != nil {
		return status
	}
	outcome, _ := classifyResponse(raw)
	status.Connected = outcome != outcomeAmbiguous
	return status
}

// ListCompanies fetches the companies known to the external system.
func (c *Client) ListCompanies(ctx context.Context) ([]string, error) {
	payload, err := buildListCompaniesRequest()
	if err != nil {
		return nil, err
	}
	raw, err := c.exportWithRetry(ctx, payload)
	if err != nil {
		return nil, err
	}
	outcome, message := classifyResponse(raw)
	switch outcome {
	case outcomeRejected:
		return nil, &RejectionError{Message: message}
	case outcomeAmbiguous:
		return nil, ErrAmbiguousResponse
	}
	return parseCompanyList(raw), nil
}

// EnsureCompany creates the company when absent. An "already exists"
// rejection reports created=false with no error.
func (c *Client) EnsureCompany(ctx context.Context, name string) (bool, error) {
	payload, err := buildCreateCompanyRequest(name)
	if err != nil {
		return false, err
	}
	return c.importMaster(ctx, payload)
}

// ListLedgers fetches the company's chart of accounts. Group
// information is not part of every report variant, so Ledger.Group may
// be empty on results; existence checks only need the names.
func (c *Client) ListLedgers(ctx context.Context, company string) ([]models.Ledger, error) {
	payload, err := buildListLedgersRequest(company)
	if err != nil {
		return nil, err
	}
	raw, err := c.exportWithRetry(ctx, payload)
	if err != nil {
		return nil, err
	}
	outcome, message := classifyResponse(raw)
	switch outcome {
	case outcomeRejected:
		return nil, &RejectionError{Message: message}
	case outcomeAmbiguous:
		return nil, ErrAmbiguousResponse
	}
	return parseLedgerList(raw), nil
}

// CreateLedger provisions one ledger under its group. Duplicate
// rejections remap to created=false, nil: callers treat the ledger as
// confirmed either way.
func (c *Client) CreateLedger(ctx context.Context, company string, ledger models.Ledger) (bool, error) {
	payload, err := buildCreateLedgerRequest(company, ledger)
	if err != nil {
		return false, err
	}
	return c.importMaster(ctx, payload)
}

func (c *Client) importMaster(ctx context.Context, payload []byte) (bool, error) {
	raw, err := c.send(ctx, payload, c.dataTimeout)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	outcome, message := classifyResponse(raw)
	switch outcome {
	case outcomeRejected:
		if isDuplicateRejection(message) {
			// Already present. Retries and concurrent provisioning make
			// this routine; it is success to the caller.
			return false, nil
		}
		return false, &RejectionError{Message: message}
	case outcomeAmbiguous:
		return false, ErrAmbiguousResponse
	}
	if counted, positive := importCounters(raw); counted && !positive {
		// The engine accepted the envelope but created nothing.
		return false, nil
	}
	return true, nil
}

// CreateVoucher pushes one balanced voucher and returns the external id
// when the response carries one. Never retried: a duplicate voucher is
// worse than a surfaced failure.
func (c *Client) CreateVoucher(ctx context.Context, company string, voucher models.Voucher) (string, error) {
	if err := voucher.ValidateBalance(); err != nil {
		// A builder defect, not a runtime condition. Refuse to transmit.
		return "", fmt.Errorf("unbalanced voucher: %w", err)
	}
	payload, err := buildCreateVoucherRequest(company, voucher)
	if err != nil {
		return "", err
	}
	raw, err := c.send(ctx, payload, c.dataTimeout)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	outcome, message := classifyResponse(raw)
	switch outcome {
	case outcomeRejected:
		return "", &RejectionError{Message: message}
	case outcomeAmbiguous:
		return "", ErrAmbiguousResponse
	}
	if m := lastVchIdPattern.FindStringSubmatch(string(raw)); m != nil {
		return m[1], nil
	}
	return "", nil
}

// FetchVouchers reads the daybook for a date range.
func (c *Client) FetchVouchers(ctx context.Context, company string, from, to time.Time) ([]models.VoucherRecord, error) {
	payload, err := buildDayBookRequest(company, from, to)
	if err != nil {
		return nil, err
	}
	raw, err := c.exportWithRetry(ctx, payload)
	if err != nil {
		return nil, err
	}
	outcome, message := classifyResponse(raw)
	switch outcome {
	case outcomeRejected:
		return nil, &RejectionError{Message: message}
	case outcomeAmbiguous:
		return nil, ErrAmbiguousResponse
	}
	return parseVoucherRecords(raw), nil
}
